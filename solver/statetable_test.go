package solver

import (
	"sync"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blackjack/cards"
)

func TestStateTableStoreLookup(t *testing.T) {
	is := is.New(t)
	tbl := NewStateTable(0.01)

	k := stateKey{up: 6, hand: cards.HandOf(8, 8).Counts(), shoe: cards.WithDecks(1).Counts()}
	_, ok := tbl.lookup(k)
	is.True(!ok)

	tbl.store(k, evEntry{stand: -0.2, hit: 0.1})
	e, ok := tbl.lookup(k)
	is.True(ok)
	is.Equal(e, evEntry{stand: -0.2, hit: 0.1})

	// postSplit is part of the identity.
	k2 := k
	k2.postSplit = true
	_, ok = tbl.lookup(k2)
	is.True(!ok)

	stored, lookups, hits := tbl.Stats()
	is.Equal(stored, uint64(1))
	is.Equal(lookups, uint64(3))
	is.Equal(hits, uint64(1))
}

func TestStateTableReset(t *testing.T) {
	is := is.New(t)
	tbl := NewStateTable(0.01)
	k := stateKey{up: 2, hand: cards.HandOf(5, 5).Counts(), shoe: cards.WithDecks(1).Counts()}
	tbl.store(k, evEntry{stand: 0.5, hit: 0.5})
	tbl.Reset()
	_, ok := tbl.lookup(k)
	is.True(!ok)
	stored, _, _ := tbl.Stats()
	is.Equal(stored, uint64(0))
}

func TestStateTableConcurrent(t *testing.T) {
	tbl := NewStateTable(0.01)
	tbl.SetMultiThreadedMode()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				hand := cards.HandOf(1+(i%10), 1+((i+w)%10))
				k := stateKey{up: int8(1 + i%10), hand: hand.Counts(), shoe: cards.WithDecks(2).Counts()}
				tbl.store(k, evEntry{stand: float64(i), hit: float64(w)})
				tbl.lookup(k)
			}
		}(w)
	}
	wg.Wait()
}
