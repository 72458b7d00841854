package eval

import "github.com/hailam/tetrisplay/internal/board"

// TransientEntry stores a cached transient score.
type TransientEntry struct {
	Key   uint64
	Score int32
	Valid bool
}

// TransientCache is a hash table of transient scores keyed by board hash.
// It is not safe for concurrent use; give each worker its own.
type TransientCache struct {
	entries []TransientEntry
	mask    uint64

	hits, probes uint64
}

// NewTransientCache creates a cache of roughly sizeMB megabytes.
// A size of zero or less still allocates a single entry.
func NewTransientCache(sizeMB int) *TransientCache {
	// 16 bytes per entry after padding, rounded down to a power of 2
	numEntries := (sizeMB * 1024 * 1024) / 16

	size := 1
	for size*2 <= numEntries {
		size *= 2
	}

	return &TransientCache{
		entries: make([]TransientEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe looks up a transient score.
func (tc *TransientCache) Probe(key uint64) (int, bool) {
	tc.probes++
	entry := &tc.entries[key&tc.mask]
	if entry.Valid && entry.Key == key {
		tc.hits++
		return int(entry.Score), true
	}
	return 0, false
}

// Store saves a transient score, replacing whatever shared its slot.
func (tc *TransientCache) Store(key uint64, score int) {
	tc.entries[key&tc.mask] = TransientEntry{Key: key, Score: int32(score), Valid: true}
}

// Clear empties the cache and resets its counters.
func (tc *TransientCache) Clear() {
	for i := range tc.entries {
		tc.entries[i] = TransientEntry{}
	}
	tc.hits, tc.probes = 0, 0
}

// HitRate returns the share of probes answered from the cache.
func (tc *TransientCache) HitRate() float64 {
	if tc.probes == 0 {
		return 0
	}
	return float64(tc.hits) / float64(tc.probes)
}

// Stats returns the raw hit and probe counters.
func (tc *TransientCache) Stats() (hits, probes uint64) {
	return tc.hits, tc.probes
}

// Evaluator pairs a weight vector with its own transient cache.
type Evaluator struct {
	Weights Weights
	cache   *TransientCache
}

// NewEvaluator returns an evaluator for w. A nil cache disables caching.
func NewEvaluator(w Weights, cache *TransientCache) *Evaluator {
	return &Evaluator{Weights: w, cache: cache}
}

// Evaluate is Weights.Evaluate with the transient part served from the
// cache when the same board has been seen before.
func (e *Evaluator) Evaluate(b *board.Board, lock board.LockResult, moveTime int, placed board.Piece) Score {
	return Score{
		Transient:   e.Transient(b),
		Accumulated: e.Weights.Accumulated(lock, moveTime, placed, b.MaxHeight()),
	}
}

// Transient returns the cached or freshly computed transient score.
func (e *Evaluator) Transient(b *board.Board) int {
	if e.cache == nil {
		return e.Weights.Transient(b)
	}
	key := b.Hash()
	if t, ok := e.cache.Probe(key); ok {
		return t
	}
	t := e.Weights.Transient(b)
	e.cache.Store(key, t)
	return t
}

// Cache returns the evaluator's cache, or nil.
func (e *Evaluator) Cache() *TransientCache {
	return e.cache
}
