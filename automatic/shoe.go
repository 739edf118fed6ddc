// Package automatic contains all the logic for actual rounds of play: a
// physical shoe with a cut card, a dealer who follows the house rule, and
// players who consult the solver (or a precomputed chart) on the live shoe
// composition.
package automatic

import (
	"errors"

	"lukechampine.com/frand"

	"github.com/domino14/blackjack/cards"
)

// ErrShoeEmpty is returned when a deal is requested from a fully dealt shoe.
// It should not happen in practice; the cut card forces a reshuffle long
// before the last card.
var ErrShoeEmpty = errors.New("automatic: shoe is out of cards")

// Shoe is a physical, ordered shoe. Alongside the card order it maintains the
// tally of undealt cards, which is what the solver consumes.
type Shoe struct {
	decks    int
	cutIndex int
	order    []int
	next     int
	count    cards.CardCount
	rng      *frand.RNG
}

// NewShoe builds a shuffled shoe of the given number of decks. The cut card
// sits at cutProportion of the way through (0.75 means a quarter of the shoe
// is never dealt). A nil rng gets a fresh system-seeded one.
func NewShoe(decks int, cutProportion float64, rng *frand.RNG) *Shoe {
	if rng == nil {
		rng = frand.New()
	}
	n := decks * 52
	s := &Shoe{
		decks:    decks,
		cutIndex: int(cutProportion * float64(n)),
		order:    make([]int, 0, n),
		rng:      rng,
	}
	for d := 0; d < decks; d++ {
		for rank := cards.Ace; rank <= cards.Ten; rank++ {
			copies := 4
			if rank == cards.Ten {
				copies = 16
			}
			for i := 0; i < copies; i++ {
				s.order = append(s.order, rank)
			}
		}
	}
	s.Shuffle()
	return s
}

// Shuffle reorders the full shoe and resets the deal position and the tally.
func (s *Shoe) Shuffle() {
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
	s.next = 0
	s.count = cards.WithDecks(s.decks)
}

// DealCard deals the next card and removes it from the live tally.
func (s *Shoe) DealCard() (int, error) {
	if s.next >= len(s.order) {
		return 0, ErrShoeEmpty
	}
	rank := s.order[s.next]
	s.next++
	if err := s.count.Remove(rank); err != nil {
		return 0, err
	}
	return rank, nil
}

// ReachedCutCard reports whether the next round must start with a shuffle.
func (s *Shoe) ReachedCutCard() bool {
	return s.next >= s.cutIndex
}

// CardCount returns the tally of undealt cards.
func (s *Shoe) CardCount() cards.CardCount {
	return s.count
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.order) - s.next
}
