// Package solver computes exact, composition-dependent expected values for
// every legal blackjack action. Given the player's hand, the dealer's
// up-card, and the exact remaining shoe, it recursively explores hand
// continuations against the shrinking shoe (no replacement), memoizing on
// canonical (hand, shoe) tallies, and composes with the dealer outcome
// calculator once a hand is finalized.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/blackjack/cards"
	"github.com/domino14/blackjack/dealer"
	"github.com/domino14/blackjack/rules"
)

var (
	// ErrInvalidShoe means the shoe composition contradicts the rule set's
	// deck count once the visible cards are accounted for.
	ErrInvalidShoe = errors.New("solver: shoe composition inconsistent with rules")
	// ErrIllegalAction means an EV was requested for an action the hand does
	// not qualify for.
	ErrIllegalAction = errors.New("solver: action not legal for this hand")
)

var negInf = math.Inf(-1)

const defaultTableMemFraction = 0.25

// StrategyResult is the published answer for one decision state.
type StrategyResult struct {
	Best        Action
	EV          float64
	EVPerAction map[Action]float64

	// InsuranceOffered is true when the up-card is an Ace. The insurance EV
	// is per unit of the side bet, independent of the main game, and is
	// reported rather than folded into Best.
	InsuranceOffered bool
	InsuranceEV      float64
}

// Solver computes action EVs for one rule set. Memoized state persists
// across calls — entries are keyed by full shoe composition, so they remain
// valid for any initial situation under the same rules — until Reset.
type Solver struct {
	rules   rules.Rules
	dealer  *dealer.Calculator
	table   *StateTable
	threads int
}

// New creates a solver, validating the rule set.
func New(r rules.Rules) (*Solver, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &Solver{
		rules:   r,
		dealer:  dealer.NewCalculator(r),
		table:   NewStateTable(defaultTableMemFraction),
		threads: 1,
	}, nil
}

// SetThreads opts into parallel dispatch of the independent per-rank
// subtrees at the root of the Hit recursion. Single-threaded is the default
// and the correctness baseline.
func (s *Solver) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	s.threads = n
	if n > 1 {
		s.table.SetMultiThreadedMode()
	} else {
		s.table.SetSingleThreadedMode()
	}
}

// Reset clears all memoized state.
func (s *Solver) Reset() {
	s.table.Reset()
	s.dealer.Reset()
}

// Rules returns the rule set the solver was built with.
func (s *Solver) Rules() rules.Rules {
	return s.rules
}

// Solve returns the EV-maximizing action and the EV of every legal action
// for the given state. The caller must already have removed the player's
// cards and the up-card from the shoe. A two-card hand is treated as the
// untouched initial hand; Double, Split, and Surrender are only offered
// there. Hitting a hand that already counts 21 is never offered.
func (s *Solver) Solve(hand cards.CardCount, upCard int, shoe cards.CardCount) (*StrategyResult, error) {
	if err := s.validate(hand, upCard, shoe); err != nil {
		return nil, err
	}
	initial := hand.Total() == 2
	evs := make(map[Action]float64, 5)
	evs[Stand] = s.standEV(hand, shoe, upCard, false)

	if !hand.Busted() && !(initial && hand.IsNatural()) {
		if hand.ActualSum() < 21 {
			evs[Hit] = s.hitEV(hand, shoe, upCard)
		}
		if initial {
			if s.rules.DoubleTotalAllowed(hand.ActualSum()) {
				evs[Double] = s.doubleEV(hand, shoe, upCard, false)
			}
			if hand.IsPair() && s.rules.ResplitLimit > 0 {
				evs[Split] = s.splitEV(hand, shoe, upCard, s.rules.ResplitLimit)
			}
			if s.rules.Surrender {
				evs[Surrender] = -0.5
			}
		}
	}
	return s.publish(evs, upCard, shoe), nil
}

// SolveSplitHand returns the best action for a hand that came out of a
// split. Naturals do not apply, Double requires DoubleAfterSplit, and the
// hand may resplit on a re-pair while splitsRemaining allows.
func (s *Solver) SolveSplitHand(hand cards.CardCount, upCard int, shoe cards.CardCount,
	splitsRemaining int) (*StrategyResult, error) {

	if err := s.validate(hand, upCard, shoe); err != nil {
		return nil, err
	}
	evs := make(map[Action]float64, 4)
	evs[Stand] = s.standEV(hand, shoe, upCard, true)
	if !hand.Busted() && hand.ActualSum() < 21 {
		evs[Hit] = s.hitEVPostSplit(hand, shoe, upCard)
		if hand.Total() == 2 {
			if s.rules.DoubleAfterSplit && s.rules.DoubleTotalAllowed(hand.ActualSum()) {
				evs[Double] = s.doubleEV(hand, shoe, upCard, true)
			}
			if hand.IsPair() && splitsRemaining > 0 &&
				(hand.PairRank() != cards.Ace || s.rules.HitSplitAces) {
				evs[Split] = s.splitEV(hand, shoe, upCard, splitsRemaining)
			}
		}
	}
	return s.publish(evs, upCard, shoe), nil
}

// EVOf returns the EV of a single action, or ErrIllegalAction when the hand
// does not qualify for it.
func (s *Solver) EVOf(hand cards.CardCount, upCard int, shoe cards.CardCount, action Action) (float64, error) {
	if err := s.validate(hand, upCard, shoe); err != nil {
		return 0, err
	}
	initial := hand.Total() == 2
	switch action {
	case Stand:
		return s.standEV(hand, shoe, upCard, false), nil
	case Hit:
		if hand.Busted() || hand.ActualSum() >= 21 {
			return 0, fmt.Errorf("%w: cannot hit %v", ErrIllegalAction, hand)
		}
		return s.hitEV(hand, shoe, upCard), nil
	case Double:
		if !initial || hand.IsNatural() || !s.rules.DoubleTotalAllowed(hand.ActualSum()) {
			return 0, fmt.Errorf("%w: cannot double %v", ErrIllegalAction, hand)
		}
		return s.doubleEV(hand, shoe, upCard, false), nil
	case Split:
		if !initial || !hand.IsPair() || s.rules.ResplitLimit < 1 {
			return 0, fmt.Errorf("%w: cannot split %v", ErrIllegalAction, hand)
		}
		return s.splitEV(hand, shoe, upCard, s.rules.ResplitLimit), nil
	case Surrender:
		if !initial || !s.rules.Surrender {
			return 0, fmt.Errorf("%w: cannot surrender %v", ErrIllegalAction, hand)
		}
		return -0.5, nil
	}
	return 0, fmt.Errorf("%w: unknown action %d", ErrIllegalAction, action)
}

// BestAction returns the argmax action and its EV.
func (s *Solver) BestAction(hand cards.CardCount, upCard int, shoe cards.CardCount) (Action, float64, error) {
	res, err := s.Solve(hand, upCard, shoe)
	if err != nil {
		return Stand, 0, err
	}
	return res.Best, res.EV, nil
}

type actionEV struct {
	action Action
	ev     float64
}

func (s *Solver) publish(evs map[Action]float64, upCard int, shoe cards.CardCount) *StrategyResult {
	ordered := make([]actionEV, 0, len(evs))
	for _, a := range actionOrder {
		if v, ok := evs[a]; ok {
			ordered = append(ordered, actionEV{a, v})
		}
	}
	// First max wins, so the declaration order breaks ties.
	best := lo.MaxBy(ordered, func(x, max actionEV) bool { return x.ev > max.ev })
	res := &StrategyResult{Best: best.action, EV: best.ev, EVPerAction: evs}
	if upCard == cards.Ace {
		pTen := shoe.Probability(cards.Ten)
		res.InsuranceOffered = true
		res.InsuranceEV = pTen*s.rules.InsurancePayout - (1 - pTen)
	}
	return res
}

func (s *Solver) validate(hand cards.CardCount, upCard int, shoe cards.CardCount) error {
	if upCard < cards.Ace || upCard > cards.Ten {
		return fmt.Errorf("%w: up-card %d", ErrInvalidShoe, upCard)
	}
	if shoe.Total() == 0 {
		return fmt.Errorf("%w: empty shoe", ErrInvalidShoe)
	}
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		seen := shoe.Count(rank) + hand.Count(rank)
		if rank == upCard {
			seen++
		}
		if seen > s.rules.MaxCount(rank) {
			return fmt.Errorf("%w: %d cards of rank %d against %d decks",
				ErrInvalidShoe, seen, rank, s.rules.Decks)
		}
	}
	if hand.Total() < 2 {
		return fmt.Errorf("%w: hand has fewer than two cards", ErrIllegalAction)
	}
	return nil
}

// standHit computes the memoized Stand and Hit expectations for a state.
// Inside the recursion, standing on a total of 11 or less is recorded as
// -Inf: drawing one more card can never bust such a hand, so standing is
// dominated and skipping the dealer run there saves most of the work. Root
// callers wanting the literal Stand EV use standEV directly.
func (s *Solver) standHit(hand, shoe cards.CardCount, upCard int, postSplit bool) evEntry {
	key := stateKey{up: int8(upCard), postSplit: postSplit, hand: hand.Counts(), shoe: shoe.Counts()}
	if e, ok := s.table.lookup(key); ok {
		return e
	}
	var e evEntry
	switch {
	case hand.Busted():
		e = evEntry{stand: -1, hit: negInf}
	case s.charlie(hand):
		e = evEntry{stand: 1, hit: negInf}
	case hand.ActualSum() == 21:
		e = evEntry{stand: s.standEV(hand, shoe, upCard, postSplit), hit: negInf}
	default:
		hit := 0.0
		for rank := cards.Ace; rank <= cards.Ten; rank++ {
			p := shoe.Probability(rank)
			if p == 0 {
				continue
			}
			rest := shoe
			if err := rest.Remove(rank); err != nil {
				continue
			}
			child := hand
			child.Add(rank)
			ce := s.standHit(child, rest, upCard, postSplit)
			hit += p * math.Max(ce.stand, ce.hit)
		}
		stand := negInf
		if hand.ActualSum() > 11 {
			stand = s.standEV(hand, shoe, upCard, postSplit)
		}
		e = evEntry{stand: stand, hit: hit}
	}
	s.table.store(key, e)
	return e
}

// standEV resolves a finalized hand against the dealer outcome distribution.
func (s *Solver) standEV(hand, shoe cards.CardCount, upCard int, postSplit bool) float64 {
	if hand.Busted() {
		return -1
	}
	if s.charlie(hand) {
		return 1
	}
	dist, err := s.dealer.Distribution(upCard, shoe)
	if err != nil {
		// Unreachable: the up-card is validated at the entry points.
		return -1
	}
	if !postSplit && hand.IsNatural() {
		// A natural wins the bonus against everything except a dealer
		// natural, which pushes.
		return s.rules.BlackjackPayout * (1 - dist.Prob(dealer.Natural))
	}
	total := hand.ActualSum()
	return dist.PBeaten(total) - dist.PBeats(total)
}

func (s *Solver) hitEV(hand, shoe cards.CardCount, upCard int) float64 {
	if s.threads > 1 {
		return s.hitEVParallel(hand, shoe, upCard, false)
	}
	return s.standHit(hand, shoe, upCard, false).hit
}

func (s *Solver) hitEVPostSplit(hand, shoe cards.CardCount, upCard int) float64 {
	if s.threads > 1 {
		return s.hitEVParallel(hand, shoe, upCard, true)
	}
	return s.standHit(hand, shoe, upCard, true).hit
}

// hitEVParallel dispatches each root rank branch to its own worker. The
// branches only share the concurrent state table; duplicate computation of a
// state by racing workers is wasteful but harmless.
func (s *Solver) hitEVParallel(hand, shoe cards.CardCount, upCard int, postSplit bool) float64 {
	var g errgroup.Group
	g.SetLimit(s.threads)
	var branch [cards.NumRanks + 1]float64
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		p := shoe.Probability(rank)
		if p == 0 {
			continue
		}
		rest := shoe
		if err := rest.Remove(rank); err != nil {
			continue
		}
		child := hand
		child.Add(rank)
		rank := rank
		g.Go(func() error {
			ce := s.standHit(child, rest, upCard, postSplit)
			branch[rank] = p * math.Max(ce.stand, ce.hit)
			return nil
		})
	}
	_ = g.Wait()
	ev := 0.0
	for _, v := range branch {
		ev += v
	}
	return ev
}

// doubleEV is the expectation of taking exactly one forced card and
// standing, at doubled stakes.
func (s *Solver) doubleEV(hand, shoe cards.CardCount, upCard int, postSplit bool) float64 {
	ev := 0.0
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		p := shoe.Probability(rank)
		if p == 0 {
			continue
		}
		rest := shoe
		if err := rest.Remove(rank); err != nil {
			continue
		}
		child := hand
		child.Add(rank)
		v := -1.0
		if !child.Busted() {
			v = s.standEV(child, rest, upCard, postSplit)
		}
		ev += p * v
	}
	return 2 * ev
}

// splitEV forks the pair into two one-card hands drawn in a fixed order from
// the shrinking shoe: the first hand re-draws and solves on the reduced
// shoe, then the second re-draws from the shoe the first left behind and
// solves independently. The round EV is the sum of both sub-hand EVs. Split
// aces take one card each and stand unless the rules allow hitting them;
// under that one-card rule they also never resplit.
func (s *Solver) splitEV(hand, shoe cards.CardCount, upCard int, splitsLeft int) float64 {
	v := hand.PairRank()
	base := cards.HandOf(v)
	oneCardOnly := v == cards.Ace && !s.rules.HitSplitAces

	ev := 0.0
	for r0 := cards.Ace; r0 <= cards.Ten; r0++ {
		p0 := shoe.Probability(r0)
		if p0 == 0 {
			continue
		}
		rest0 := shoe
		if err := rest0.Remove(r0); err != nil {
			continue
		}
		h0 := base
		h0.Add(r0)
		var ev0 float64
		if oneCardOnly {
			ev0 = s.standEV(h0, rest0, upCard, true)
		} else {
			ev0 = s.splitHandBest(h0, rest0, upCard, splitsLeft-1)
		}

		ev1 := 0.0
		for r1 := cards.Ace; r1 <= cards.Ten; r1++ {
			p1 := rest0.Probability(r1)
			if p1 == 0 {
				continue
			}
			rest1 := rest0
			if err := rest1.Remove(r1); err != nil {
				continue
			}
			h1 := base
			h1.Add(r1)
			if oneCardOnly {
				ev1 += p1 * s.standEV(h1, rest1, upCard, true)
			} else {
				ev1 += p1 * s.splitHandBest(h1, rest1, upCard, splitsLeft-1)
			}
		}
		ev += p0 * (ev0 + ev1)
	}
	return ev
}

// splitHandBest is the best EV reachable by one post-split hand.
func (s *Solver) splitHandBest(hand, shoe cards.CardCount, upCard int, splitsLeft int) float64 {
	e := s.standHit(hand, shoe, upCard, true)
	best := math.Max(e.stand, e.hit)
	if s.rules.DoubleAfterSplit && s.rules.DoubleTotalAllowed(hand.ActualSum()) && !hand.Busted() {
		if d := s.doubleEV(hand, shoe, upCard, true); d > best {
			best = d
		}
	}
	if splitsLeft > 0 && hand.IsPair() {
		if sp := s.splitEV(hand, shoe, upCard, splitsLeft); sp > best {
			best = sp
		}
	}
	return best
}

func (s *Solver) charlie(hand cards.CardCount) bool {
	return s.rules.CharlieNumber > 0 && hand.Total() >= s.rules.CharlieNumber && !hand.Busted()
}
