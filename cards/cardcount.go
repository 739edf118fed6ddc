// Package cards models card-rank tallies. The same tally type backs both the
// shoe (cards still undealt) and a hand (cards already dealt to one spot);
// blackjack value never depends on draw order, so an unordered count per rank
// is the canonical representation for memoization.
package cards

import (
	"errors"
	"fmt"
	"strings"
)

// Ranks run from 1 (Ace) through 10; rank 10 covers 10, J, Q, and K.
const (
	Ace      = 1
	Ten      = 10
	NumRanks = 10
)

// ErrInvalidRemoval is returned when removing a rank whose count is zero.
var ErrInvalidRemoval = errors.New("cards: no card of that rank remains")

// CardCount is a tally of card ranks with incrementally maintained sum and
// total, so every derived property is O(1). It is a small comparable value
// type; recursion should copy it rather than share a pointer across sibling
// branches.
type CardCount struct {
	counts [NumRanks]uint16
	sum    uint16 // aces counted as 1
	total  uint16
}

// New creates a tally from explicit per-rank counts (index 0 is the Ace).
func New(counts [NumRanks]uint16) CardCount {
	var c CardCount
	c.counts = counts
	for i, n := range counts {
		c.sum += uint16(i+1) * n
		c.total += n
	}
	return c
}

// WithDecks creates the tally of n full 52-card decks.
func WithDecks(n int) CardCount {
	var counts [NumRanks]uint16
	for i := 0; i < NumRanks-1; i++ {
		counts[i] = uint16(n * 4)
	}
	counts[NumRanks-1] = uint16(n * 16)
	return New(counts)
}

// Add adds one card of the given rank.
func (c *CardCount) Add(rank int) {
	c.counts[rank-1]++
	c.sum += uint16(rank)
	c.total++
}

// Remove removes one card of the given rank. Remove followed by Add of the
// same rank restores a value observationally identical to the original.
func (c *CardCount) Remove(rank int) error {
	if c.counts[rank-1] == 0 {
		return fmt.Errorf("%w (rank %d)", ErrInvalidRemoval, rank)
	}
	c.counts[rank-1]--
	c.sum -= uint16(rank)
	c.total--
	return nil
}

// Count returns how many cards of the given rank remain.
func (c CardCount) Count(rank int) int {
	return int(c.counts[rank-1])
}

// Counts returns the raw tally, usable directly as a canonical map key.
func (c CardCount) Counts() [NumRanks]uint16 {
	return c.counts
}

// Total returns the number of cards in the tally.
func (c CardCount) Total() int {
	return int(c.total)
}

// Sum returns the hard total, counting every Ace as 1.
func (c CardCount) Sum() int {
	return int(c.sum)
}

// Probability returns the chance that the next card drawn has the given rank.
func (c CardCount) Probability(rank int) float64 {
	if c.total == 0 {
		return 0
	}
	return float64(c.counts[rank-1]) / float64(c.total)
}

// IsSoft reports whether the tally holds at least one Ace. Whether that Ace
// actually counts as 11 also depends on the sum; see ActualSum.
func (c CardCount) IsSoft() bool {
	return c.counts[0] > 0
}

// ActualSum returns the best total: an Ace counts as 11 when that does not
// bust the hand, otherwise every Ace counts as 1.
func (c CardCount) ActualSum() int {
	if c.counts[0] > 0 && c.sum+10 <= 21 {
		return int(c.sum) + 10
	}
	return int(c.sum)
}

// SoftTotal returns the Ace-as-11 total and true, or 0 and false when no Ace
// can count as 11 without busting.
func (c CardCount) SoftTotal() (int, bool) {
	if c.counts[0] > 0 && c.sum+10 <= 21 {
		return int(c.sum) + 10, true
	}
	return 0, false
}

// Busted reports whether even the hard total exceeds 21.
func (c CardCount) Busted() bool {
	return c.sum > 21
}

// IsNatural reports whether the tally is exactly an Ace and a ten-value card.
// Only meaningful for an initial two-card hand; a 21 assembled after a split
// is not a natural.
func (c CardCount) IsNatural() bool {
	return c.total == 2 && c.counts[0] == 1 && c.counts[NumRanks-1] == 1
}

// IsPair reports whether the tally is exactly two cards of equal rank.
func (c CardCount) IsPair() bool {
	if c.total != 2 {
		return false
	}
	for _, n := range c.counts {
		if n == 2 {
			return true
		}
	}
	return false
}

// PairRank returns the rank of a pair, or 0 if the tally is not a pair.
func (c CardCount) PairRank() int {
	if c.total != 2 {
		return 0
	}
	for i, n := range c.counts {
		if n == 2 {
			return i + 1
		}
	}
	return 0
}

func (c CardCount) String() string {
	var sb strings.Builder
	for i := NumRanks - 1; i >= 0; i-- {
		for j := uint16(0); j < c.counts[i]; j++ {
			if i == 0 {
				sb.WriteByte('A')
			} else {
				fmt.Fprintf(&sb, "%d", i+1)
			}
			sb.WriteByte(' ')
		}
	}
	return strings.TrimSpace(sb.String())
}

// HandOf builds a tally from individual card ranks. It is a convenience for
// tests and callers assembling hands.
func HandOf(ranks ...int) CardCount {
	var c CardCount
	for _, r := range ranks {
		c.Add(r)
	}
	return c
}
