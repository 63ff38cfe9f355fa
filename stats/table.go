// Package stats holds the statistics table learned by the searcher: the
// accumulated reward and visit count of every explored state, persisted
// across sessions as a flat record set.
package stats

import (
	"sync"
	"uct/game"
)

// Stats accumulates the simulations that passed through a state.
type Stats struct {
	Value  float64 `json:"value"`
	Visits uint64  `json:"visits"`
}

// Mean is the average reward, 0 for a state that was never visited.
func (s Stats) Mean() float64 {
	if s.Visits == 0 {
		return 0
	}
	return s.Value / float64(s.Visits)
}

// DefaultSizeLimit is the file size, 20 MiB, beyond which Save stops writing.
const DefaultSizeLimit int64 = 20 << 20

type Option func(t *Table)

// WithSizeLimit sets the file size beyond which Save stops writing.
func WithSizeLimit(bytes int64) Option {
	return func(t *Table) {
		if bytes > 0 {
			t.sizeLimit = bytes
		}
	}
}

// WithValidator rejects persisted keys for which validate fails, typically a
// codec's Decode.
func WithValidator(validate func(game.Key) error) Option {
	return func(t *Table) {
		t.validate = validate
	}
}

// Table maps state keys to their statistics. Entries are never evicted.
type Table struct {
	sync.RWMutex
	entries   map[game.Key]*Stats
	sizeLimit int64
	validate  func(game.Key) error
}

func New(options ...Option) *Table {
	t := &Table{
		entries:   make(map[game.Key]*Stats),
		sizeLimit: DefaultSizeLimit,
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Get probes key without allocating an entry.
func (t *Table) Get(key game.Key) (Stats, bool) {
	t.RLock()
	defer t.RUnlock()

	s, ok := t.entries[key]
	if !ok {
		return Stats{}, false
	}
	return *s, true
}

// Contains reports whether every key is present.
func (t *Table) Contains(keys ...game.Key) bool {
	t.RLock()
	defer t.RUnlock()

	for _, key := range keys {
		if _, ok := t.entries[key]; !ok {
			return false
		}
	}
	return true
}

// Ensure inserts zero stats for every missing key in one step, so a node is
// either fully expanded or not at all.
func (t *Table) Ensure(keys ...game.Key) {
	t.Lock()
	defer t.Unlock()

	for _, key := range keys {
		if _, ok := t.entries[key]; !ok {
			t.entries[key] = &Stats{}
		}
	}
}

// Record adds one simulation with the given reward. Keys that are not in the
// table are ignored and reported as false.
func (t *Table) Record(key game.Key, reward float64) bool {
	t.Lock()
	defer t.Unlock()

	s, ok := t.entries[key]
	if !ok {
		return false
	}
	s.Value += reward
	s.Visits++
	return true
}

func (t *Table) Len() int {
	t.RLock()
	defer t.RUnlock()

	return len(t.entries)
}

// Snapshot copies every entry.
func (t *Table) Snapshot() map[game.Key]Stats {
	t.RLock()
	defer t.RUnlock()

	out := make(map[game.Key]Stats, len(t.entries))
	for key, s := range t.entries {
		out[key] = *s
	}
	return out
}
