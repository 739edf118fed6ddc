package automatic

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/blackjack/cards"
	"github.com/domino14/blackjack/rules"
	"github.com/domino14/blackjack/solver"
	"github.com/domino14/blackjack/strategy"
)

// DefaultCutProportion deals three quarters of the shoe before reshuffling.
const DefaultCutProportion = 0.75

var ErrBadDecision = errors.New("automatic: decider returned an illegal action")

// PlayContext tells a decider where in the round a decision sits.
type PlayContext struct {
	PostSplit       bool
	SplitsRemaining int
}

// Decider chooses an action for a live hand. The shoe tally it receives is
// the player's view: undealt cards plus the dealer's unseen hole card.
type Decider interface {
	Decide(hand cards.CardCount, upCard int, view cards.CardCount, ctx PlayContext) (solver.Action, error)
	WantsInsurance(view cards.CardCount) bool
}

// SolverDecider plays every decision with a fresh exact solve of the live
// composition. Slow and as close to optimal as the information allows.
type SolverDecider struct {
	solver *solver.Solver
}

func NewSolverDecider(s *solver.Solver) *SolverDecider {
	return &SolverDecider{solver: s}
}

func (d *SolverDecider) Decide(hand cards.CardCount, upCard int, view cards.CardCount,
	ctx PlayContext) (solver.Action, error) {

	var res *solver.StrategyResult
	var err error
	if ctx.PostSplit {
		res, err = d.solver.SolveSplitHand(hand, upCard, view, ctx.SplitsRemaining)
	} else {
		res, err = d.solver.Solve(hand, upCard, view)
	}
	if err != nil {
		return solver.Stand, err
	}
	return res.Best, nil
}

func (d *SolverDecider) WantsInsurance(view cards.CardCount) bool {
	pTen := view.Probability(cards.Ten)
	return pTen*d.solver.Rules().InsurancePayout-(1-pTen) > 0
}

// ChartDecider plays from a precomputed whole-shoe chart, ignoring the live
// composition. It never takes insurance.
type ChartDecider struct {
	chart *strategy.Chart
	rules rules.Rules
}

func NewChartDecider(c *strategy.Chart, r rules.Rules) *ChartDecider {
	return &ChartDecider{chart: c, rules: r}
}

func (d *ChartDecider) Decide(hand cards.CardCount, upCard int, view cards.CardCount,
	ctx PlayContext) (solver.Action, error) {

	initial := hand.Total() == 2
	canSplit := initial && ctx.SplitsRemaining > 0
	act := d.chart.Action(hand, upCard, initial, canSplit)
	// The chart was generated for an untouched initial hand; gate the cells
	// that are not legal in this context.
	if act == solver.Surrender && (ctx.PostSplit || !d.rules.Surrender) {
		act = solver.Hit
	}
	if act == solver.Double && ctx.PostSplit && !d.rules.DoubleAfterSplit {
		act = solver.Hit
	}
	if act == solver.Split && ctx.PostSplit &&
		hand.PairRank() == cards.Ace && !d.rules.HitSplitAces {
		act = solver.Stand
	}
	return act, nil
}

func (d *ChartDecider) WantsInsurance(view cards.CardCount) bool {
	return false
}

// GameRunner deals rounds from a physical shoe and settles them. One unit is
// bet per round; doubles and splits add units as they do at a table.
type GameRunner struct {
	rules   rules.Rules
	shoe    *Shoe
	decider Decider

	upCard int
	hole   int
}

// NewGameRunner instantiates and initializes a game runner.
func NewGameRunner(r rules.Rules, d Decider, cutProportion float64, rng *frand.RNG) *GameRunner {
	return &GameRunner{
		rules:   r,
		shoe:    NewShoe(r.Decks, cutProportion, rng),
		decider: d,
	}
}

type finalHand struct {
	hand        cards.CardCount
	bet         float64
	surrendered bool
}

// PlayRound deals and plays one full round, returning the player's net
// result in units.
func (g *GameRunner) PlayRound() (float64, error) {
	if g.shoe.ReachedCutCard() {
		g.shoe.Shuffle()
	}

	p1, err := g.shoe.DealCard()
	if err != nil {
		return 0, err
	}
	up, err := g.shoe.DealCard()
	if err != nil {
		return 0, err
	}
	p2, err := g.shoe.DealCard()
	if err != nil {
		return 0, err
	}
	hole, err := g.shoe.DealCard()
	if err != nil {
		return 0, err
	}
	g.upCard = up
	g.hole = hole

	hand := cards.HandOf(p1, p2)
	dealerHand := cards.HandOf(up, hole)
	net := 0.0

	if up == cards.Ace && g.decider.WantsInsurance(g.playerView()) {
		if dealerHand.IsNatural() {
			net += 0.5 * g.rules.InsurancePayout
		} else {
			net -= 0.5
		}
	}

	if hand.IsNatural() {
		if dealerHand.IsNatural() {
			return net, nil
		}
		return net + g.rules.BlackjackPayout, nil
	}

	// No peek: the player acts before a dealer natural is revealed.
	finals, err := g.playHand(hand, PlayContext{SplitsRemaining: g.rules.ResplitLimit})
	if err != nil {
		return 0, err
	}

	if dealerHand.IsNatural() {
		for _, f := range finals {
			if f.surrendered {
				net -= 0.5
			} else {
				net -= f.bet
			}
		}
		return net, nil
	}

	if err := g.dealerPlay(&dealerHand); err != nil {
		return 0, err
	}
	for _, f := range finals {
		net += g.settle(f, dealerHand)
	}
	return net, nil
}

// playerView is the shoe tally from the player's perspective: everything
// undealt, plus the hole card they have not seen.
func (g *GameRunner) playerView() cards.CardCount {
	view := g.shoe.CardCount()
	view.Add(g.hole)
	return view
}

func (g *GameRunner) playHand(hand cards.CardCount, ctx PlayContext) ([]finalHand, error) {
	bet := 1.0
	for {
		if hand.Busted() || hand.ActualSum() == 21 || g.charlie(hand) {
			return []finalHand{{hand: hand, bet: bet}}, nil
		}
		act, err := g.decider.Decide(hand, g.upCard, g.playerView(), ctx)
		if err != nil {
			return nil, err
		}
		switch act {
		case solver.Stand:
			return []finalHand{{hand: hand, bet: bet}}, nil
		case solver.Surrender:
			return []finalHand{{hand: hand, bet: bet, surrendered: true}}, nil
		case solver.Hit:
			c, err := g.shoe.DealCard()
			if err != nil {
				return nil, err
			}
			hand.Add(c)
		case solver.Double:
			c, err := g.shoe.DealCard()
			if err != nil {
				return nil, err
			}
			hand.Add(c)
			return []finalHand{{hand: hand, bet: bet * 2}}, nil
		case solver.Split:
			return g.playSplit(hand, ctx)
		default:
			return nil, fmt.Errorf("%w: %s on %v", ErrBadDecision, act, hand)
		}
	}
}

// playSplit plays both halves of a split in deal order. Each half gets one
// card immediately; split aces stand on that card unless the rules allow
// hitting them.
func (g *GameRunner) playSplit(hand cards.CardCount, ctx PlayContext) ([]finalHand, error) {
	v := hand.PairRank()
	oneCardOnly := v == cards.Ace && !g.rules.HitSplitAces
	sub := PlayContext{PostSplit: true, SplitsRemaining: ctx.SplitsRemaining - 1}

	finals := make([]finalHand, 0, 2)
	for i := 0; i < 2; i++ {
		h := cards.HandOf(v)
		c, err := g.shoe.DealCard()
		if err != nil {
			return nil, err
		}
		h.Add(c)
		if oneCardOnly {
			finals = append(finals, finalHand{hand: h, bet: 1})
			continue
		}
		fs, err := g.playHand(h, sub)
		if err != nil {
			return nil, err
		}
		finals = append(finals, fs...)
	}
	return finals, nil
}

// dealerPlay draws the dealer out: hit below 17, stand on 17+, with soft 17
// hit or stood per the rule set.
func (g *GameRunner) dealerPlay(dh *cards.CardCount) error {
	for {
		if dh.Busted() {
			return nil
		}
		best := dh.ActualSum()
		soft := best != dh.Sum()
		if best > 17 || (best == 17 && !(soft && g.rules.DealerHitsSoft17)) {
			return nil
		}
		c, err := g.shoe.DealCard()
		if err != nil {
			return err
		}
		dh.Add(c)
	}
}

func (g *GameRunner) settle(f finalHand, dealerHand cards.CardCount) float64 {
	if f.surrendered {
		return -0.5
	}
	if f.hand.Busted() {
		return -f.bet
	}
	if g.charlie(f.hand) {
		return f.bet
	}
	if dealerHand.Busted() {
		return f.bet
	}
	ours, theirs := f.hand.ActualSum(), dealerHand.ActualSum()
	switch {
	case ours > theirs:
		return f.bet
	case ours < theirs:
		return -f.bet
	}
	return 0
}

func (g *GameRunner) charlie(hand cards.CardCount) bool {
	return g.rules.CharlieNumber > 0 && hand.Total() >= g.rules.CharlieNumber && !hand.Busted()
}

// Run plays the given number of rounds and collects per-round returns.
func (g *GameRunner) Run(rounds int) (*Results, error) {
	res := NewResults(rounds)
	for i := 0; i < rounds; i++ {
		net, err := g.PlayRound()
		if err != nil {
			return nil, err
		}
		res.Add(net)
		if (i+1)%10000 == 0 {
			log.Debug().Int("rounds", i+1).Float64("mean", res.Mean()).Msg("progress")
		}
	}
	return res, nil
}
