package solver

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blackjack/cards"
)

const numShards = 256

// Rough per-entry footprint including map overhead, used only for sizing.
const entrySize = 128

// stateKey canonically identifies one player decision state. The shoe tally
// is part of the key because split sub-games deplete the shoe differently
// while reaching hands with identical tallies; with the shoe included,
// entries stay valid across every sub-game of a rule set.
type stateKey struct {
	up        int8
	postSplit bool
	hand      [cards.NumRanks]uint16
	shoe      [cards.NumRanks]uint16
}

func (k stateKey) bytes() []byte {
	var b [2 + 4*cards.NumRanks]byte
	b[0] = byte(k.up)
	if k.postSplit {
		b[1] = 1
	}
	for i := 0; i < cards.NumRanks; i++ {
		binary.LittleEndian.PutUint16(b[2+2*i:], k.hand[i])
		binary.LittleEndian.PutUint16(b[2+2*cards.NumRanks+2*i:], k.shoe[i])
	}
	return b[:]
}

// evEntry holds the memoized Stand and Hit expectations for one state.
type evEntry struct {
	stand float64
	hit   float64
}

type tableLock interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type fakeLock struct{}

func (f fakeLock) Lock()    {}
func (f fakeLock) Unlock()  {}
func (f fakeLock) RLock()   {}
func (f fakeLock) RUnlock() {}

type tableShard struct {
	lock    tableLock
	entries map[stateKey]evEntry
}

// StateTable is the memoization layer shared by the EV recursion. It is
// sharded by a hash of the key bytes; in multi-threaded mode each shard takes
// an RWMutex, and racing writers for the same key are correctness-neutral
// (identical values, last write wins). Growth is capped at a fraction of
// system memory; past the cap the table serves lookups but stops storing.
type StateTable struct {
	shards     [numShards]*tableShard
	maxEntries uint64
	stored     atomic.Uint64
	lookups    atomic.Uint64
	hits       atomic.Uint64
	warnedFull atomic.Bool
}

// NewStateTable creates a table sized to the given fraction of total system
// memory.
func NewStateTable(fractionOfMemory float64) *StateTable {
	t := &StateTable{}
	t.maxEntries = uint64(fractionOfMemory * float64(memory.TotalMemory()) / entrySize)
	for i := range t.shards {
		t.shards[i] = &tableShard{lock: fakeLock{}, entries: make(map[stateKey]evEntry)}
	}
	log.Debug().Uint64("max-entries", t.maxEntries).Msg("state-table-size")
	return t
}

func (t *StateTable) SetSingleThreadedMode() {
	for _, sh := range t.shards {
		sh.lock = fakeLock{}
	}
}

func (t *StateTable) SetMultiThreadedMode() {
	for _, sh := range t.shards {
		sh.lock = &sync.RWMutex{}
	}
}

func (t *StateTable) shardFor(k stateKey) *tableShard {
	return t.shards[xxhash.Sum64(k.bytes())&(numShards-1)]
}

func (t *StateTable) lookup(k stateKey) (evEntry, bool) {
	t.lookups.Add(1)
	sh := t.shardFor(k)
	sh.lock.RLock()
	e, ok := sh.entries[k]
	sh.lock.RUnlock()
	if ok {
		t.hits.Add(1)
	}
	return e, ok
}

func (t *StateTable) store(k stateKey, e evEntry) {
	if t.stored.Load() >= t.maxEntries {
		if t.warnedFull.CompareAndSwap(false, true) {
			log.Warn().Uint64("max-entries", t.maxEntries).
				Msg("state table full; further states recomputed")
		}
		return
	}
	sh := t.shardFor(k)
	sh.lock.Lock()
	sh.entries[k] = e
	sh.lock.Unlock()
	t.stored.Add(1)
}

// Reset empties the table. Required between solves whose states could
// otherwise collide, e.g. after a rule change on a reused table.
func (t *StateTable) Reset() {
	for _, sh := range t.shards {
		sh.lock.Lock()
		sh.entries = make(map[stateKey]evEntry)
		sh.lock.Unlock()
	}
	t.stored.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.warnedFull.Store(false)
}

// Stats returns stored entries, lookups, and hits since the last Reset.
func (t *StateTable) Stats() (stored, lookups, hits uint64) {
	return t.stored.Load(), t.lookups.Load(), t.hits.Load()
}
