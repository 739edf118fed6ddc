// Package dealer computes the exact probability distribution over the
// dealer's final outcome given the up-card and a shoe composition. The hole
// card is never conditioned on: the recursion integrates over every card the
// shoe could supply, removing each candidate and restoring it on return.
package dealer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blackjack/cards"
	"github.com/domino14/blackjack/rules"
)

// Outcome is a dealer final result. Natural (a two-card 21) is distinct from
// TwentyOne because it beats a player's non-natural 21.
type Outcome int

const (
	Bust Outcome = iota
	Seventeen
	Eighteen
	Nineteen
	Twenty
	TwentyOne
	Natural
	numOutcomes
)

func (o Outcome) String() string {
	switch o {
	case Bust:
		return "bust"
	case Natural:
		return "natural"
	default:
		return fmt.Sprintf("%d", int(o)+16)
	}
}

var ErrInvalidUpCard = errors.New("dealer: up-card must be a rank from 1 to 10")

// Distribution is the probability mass over dealer outcomes. Masses sum to
// 1.0 (within floating-point tolerance) for any valid input.
type Distribution struct {
	p [numOutcomes]float64
}

// Prob returns the mass on a single outcome.
func (d Distribution) Prob(o Outcome) float64 {
	return d.p[o]
}

// Probabilities returns the full Outcome→probability mapping.
func (d Distribution) Probabilities() map[Outcome]float64 {
	m := make(map[Outcome]float64, numOutcomes)
	for o := Bust; o < numOutcomes; o++ {
		m[o] = d.p[o]
	}
	return m
}

// PBeaten returns the probability that the dealer ends worse than a made
// player total (bust, or a lower final total). The total must be 4..21.
func (d Distribution) PBeaten(total int) float64 {
	p := d.p[Bust]
	for o := Seventeen; o <= TwentyOne; o++ {
		if int(o)+16 < total {
			p += d.p[o]
		}
	}
	return p
}

// PBeats returns the probability that the dealer ends better than a made
// player total. A natural beats everything but another natural; the caller
// handles the player-natural push.
func (d Distribution) PBeats(total int) float64 {
	p := d.p[Natural]
	for o := Seventeen; o <= TwentyOne; o++ {
		if int(o)+16 > total {
			p += d.p[o]
		}
	}
	return p
}

func (d *Distribution) addWeighted(child Distribution, p float64) {
	for i := range d.p {
		d.p[i] += child.p[i] * p
	}
}

func unit(o Outcome) Distribution {
	var d Distribution
	d.p[o] = 1
	return d
}

type cacheKey struct {
	up   int8
	shoe [cards.NumRanks]uint16
}

// Calculator computes and caches dealer distributions for one rule set. The
// cross-call cache is keyed by (up-card, full shoe composition), so entries
// stay valid no matter which player states produced the shoe. Safe for
// concurrent use.
type Calculator struct {
	rules rules.Rules

	mu    sync.RWMutex
	cache map[cacheKey]Distribution
}

// NewCalculator creates a calculator for the given rule set.
func NewCalculator(r rules.Rules) *Calculator {
	return &Calculator{rules: r, cache: make(map[cacheKey]Distribution)}
}

// Distribution returns the outcome distribution for the dealer showing
// upCard with the given shoe remaining (the up-card itself already removed).
func (c *Calculator) Distribution(upCard int, shoe cards.CardCount) (Distribution, error) {
	if upCard < cards.Ace || upCard > cards.Ten {
		return Distribution{}, fmt.Errorf("%w: %d", ErrInvalidUpCard, upCard)
	}
	key := cacheKey{up: int8(upCard), shoe: shoe.Counts()}
	c.mu.RLock()
	d, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	memo := make(map[[cards.NumRanks]uint16]Distribution)
	var extra cards.CardCount
	c.outcomes(upCard, &shoe, &extra, memo)
	d = memo[extra.Counts()]

	c.mu.Lock()
	c.cache[key] = d
	c.mu.Unlock()
	return d, nil
}

// Reset drops the cross-call cache.
func (c *Calculator) Reset() {
	c.mu.Lock()
	c.cache = make(map[cacheKey]Distribution)
	c.mu.Unlock()
}

// outcomes fills memo[extra] with the distribution reachable from the current
// dealer extra hand (everything but the up-card). The shoe and extra tallies
// are mutated on the way down and restored before returning to a sibling.
func (c *Calculator) outcomes(upCard int, shoe, extra *cards.CardCount,
	memo map[[cards.NumRanks]uint16]Distribution) {

	key := extra.Counts()
	if _, ok := memo[key]; ok {
		return
	}

	sum := extra.Sum() + upCard
	soft := extra.IsSoft() || upCard == cards.Ace

	if sum > 21 {
		memo[key] = unit(Bust)
		return
	}
	if sum >= 17 {
		memo[key] = unit(madeOutcome(sum))
		return
	}
	if soft {
		// Hole card completing A+10 is the only way to a natural.
		if sum+10 == 21 && extra.Total() == 1 {
			memo[key] = unit(Natural)
			return
		}
		standAt := 17
		if c.rules.DealerHitsSoft17 {
			standAt = 18
		}
		if s := sum + 10; s >= standAt && s <= 21 {
			memo[key] = unit(madeOutcome(s))
			return
		}
	}

	var d Distribution
	drew := false
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		p := shoe.Probability(rank)
		if p == 0 {
			continue
		}
		drew = true
		if err := shoe.Remove(rank); err != nil {
			continue
		}
		extra.Add(rank)
		c.outcomes(upCard, shoe, extra, memo)
		child := memo[extra.Counts()]
		_ = extra.Remove(rank)
		shoe.Add(rank)
		d.addWeighted(child, p)
	}
	if !drew {
		// Shoe exhausted mid-draw: degenerate synthetic composition. Treat
		// the unfinishable hand as a bust so the distribution still sums to 1.
		log.Debug().Int("up-card", upCard).Msg("shoe exhausted during dealer draw")
		d = unit(Bust)
	}
	memo[key] = d
}

func madeOutcome(sum int) Outcome {
	return Outcome(sum - 16)
}
