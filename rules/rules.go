// Package rules holds the table configuration the solver and the automatic
// runner share: deck count, dealer behavior, payouts, and the split/double
// policies.
package rules

import (
	"errors"
	"fmt"

	"github.com/domino14/blackjack/cards"
)

// ErrInvalidRules is returned by Validate for contradictory configurations.
var ErrInvalidRules = errors.New("rules: invalid configuration")

// Double eligibility policies. AnyTwo is the common rule; the other two
// restrict doubling to hands whose best total is in the named range.
const (
	DoubleAnyTwo = iota
	DoubleNineTenEleven
	DoubleTenEleven
)

// Rules describes one blackjack rule set. The zero value is not valid; start
// from Default.
type Rules struct {
	Decks            int
	DealerHitsSoft17 bool
	BlackjackPayout  float64 // e.g. 1.5 for 3:2
	InsurancePayout  float64 // insurance side bet payout, e.g. 2.0
	DoubleAfterSplit bool
	ResplitLimit     int  // max splits per round; 1 means no resplit, 0 disables split
	HitSplitAces     bool // false: one card on each split ace, then stand
	DoublePolicy     int
	Surrender        bool // late surrender on the initial hand, forfeits half
	CharlieNumber    int  // automatic win at this many cards without busting; 0 disables
}

// Default returns the common six-deck, 3:2, stand-on-soft-17 game.
func Default() Rules {
	return Rules{
		Decks:            6,
		DealerHitsSoft17: false,
		BlackjackPayout:  1.5,
		InsurancePayout:  2.0,
		DoubleAfterSplit: true,
		ResplitLimit:     3,
		HitSplitAces:     false,
		DoublePolicy:     DoubleAnyTwo,
		Surrender:        false,
		CharlieNumber:    0,
	}
}

// Validate checks the configuration for contradictions. Failures are caller
// errors, never transient.
func (r Rules) Validate() error {
	if r.Decks < 1 {
		return fmt.Errorf("%w: deck count %d", ErrInvalidRules, r.Decks)
	}
	if r.BlackjackPayout <= 0 {
		return fmt.Errorf("%w: blackjack payout %v", ErrInvalidRules, r.BlackjackPayout)
	}
	if r.InsurancePayout < 0 {
		return fmt.Errorf("%w: insurance payout %v", ErrInvalidRules, r.InsurancePayout)
	}
	if r.ResplitLimit < 0 {
		return fmt.Errorf("%w: resplit limit %d", ErrInvalidRules, r.ResplitLimit)
	}
	if r.DoublePolicy < DoubleAnyTwo || r.DoublePolicy > DoubleTenEleven {
		return fmt.Errorf("%w: double policy %d", ErrInvalidRules, r.DoublePolicy)
	}
	if r.CharlieNumber < 0 || r.CharlieNumber == 1 || r.CharlieNumber == 2 {
		return fmt.Errorf("%w: charlie number %d", ErrInvalidRules, r.CharlieNumber)
	}
	return nil
}

// MaxCount returns how many cards of the given rank the full shoe holds.
func (r Rules) MaxCount(rank int) int {
	if rank == cards.Ten {
		return r.Decks * 16
	}
	return r.Decks * 4
}

// DoubleTotalAllowed reports whether the policy permits doubling a two-card
// hand with the given best total.
func (r Rules) DoubleTotalAllowed(actualSum int) bool {
	switch r.DoublePolicy {
	case DoubleNineTenEleven:
		return actualSum >= 9 && actualSum <= 11
	case DoubleTenEleven:
		return actualSum == 10 || actualSum == 11
	default:
		return true
	}
}

// Fingerprint returns a stable string identifying the rule set, used as a
// cache key for derived artifacts such as strategy charts.
func (r Rules) Fingerprint() string {
	return fmt.Sprintf("d%d-h17:%t-bj%.3f-ins%.3f-das:%t-rsp%d-hsa:%t-dp%d-sur:%t-ch%d",
		r.Decks, r.DealerHitsSoft17, r.BlackjackPayout, r.InsurancePayout,
		r.DoubleAfterSplit, r.ResplitLimit, r.HitSplitAces, r.DoublePolicy,
		r.Surrender, r.CharlieNumber)
}
