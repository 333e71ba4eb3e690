package dfa

import (
	"slices"
	"sync"

	"github.com/coregx/qdfa/internal/conv"
	"github.com/coregx/qdfa/stateset"
)

// Cache interns DFA states by their NFA state set.
//
// States with equal keys share a bucket; lookups confirm a hit with
// stateset.Set.Equal and, when priority sensitive, by comparing the
// priority sequence too.
//
// Thread safety: All methods are safe for concurrent access via RWMutex.
type Cache struct {
	// mu protects all fields below
	mu sync.RWMutex

	// states maps StateKey → states with that key
	states map[StateKey][]*State

	// byID indexes states by their ID
	byID []*State

	// maxStates is the capacity limit
	maxStates uint32

	// prioritySensitive makes the priority sequence part of the identity
	prioritySensitive bool

	// Statistics for cache performance tuning
	hits   uint64 // Number of cache hits
	misses uint64 // Number of cache misses
}

// NewCache creates a new state cache with the given maximum capacity
func NewCache(maxStates uint32, prioritySensitive bool) *Cache {
	return &Cache{
		states:            make(map[StateKey][]*State),
		maxStates:         maxStates,
		prioritySensitive: prioritySensitive,
	}
}

func (c *Cache) lookup(key StateKey, set *stateset.Set, sequence []uint32) (*State, bool) {
	for _, s := range c.states[key] {
		if !s.nfaStates.Equal(set) {
			continue
		}
		if c.prioritySensitive && !slices.Equal(s.sequence, sequence) {
			continue
		}
		return s, true
	}
	return nil, false
}

// GetOrInsert retrieves the state for set and sequence or inserts a new
// one with the next free ID. This is the primary method used during DFA
// construction.
//
// Returns:
//   - (state, true, nil) if state was already in cache (cache hit)
//   - (state, false, nil) if state was just inserted (cache miss)
//   - (nil, false, ErrStateLimitExceeded) if cache is full
func (c *Cache) GetOrInsert(set *stateset.Set, sequence []uint32) (*State, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := ComputeStateKey(set)
	if existing, ok := c.lookup(key, set, sequence); ok {
		c.hits++
		return existing, true, nil
	}

	c.misses++
	if conv.IntToUint32(len(c.byID)) >= c.maxStates {
		return nil, false, ErrStateLimitExceeded
	}

	s := newState(set, sequence)
	s.id = StateID(conv.IntToUint32(len(c.byID)))
	c.byID = append(c.byID, s)
	c.states[key] = append(c.states[key], s)
	return s, false, nil
}

// State returns the state with the given ID, or nil.
func (c *Cache) State(id StateID) *State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(id) >= len(c.byID) {
		return nil
	}
	return c.byID[id]
}

// Size returns the current number of states in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Stats returns cache hit/miss statistics.
// Returns (hits, misses, hitRate).
//
// Hit rate = hits / (hits + misses)
func (c *Cache) Stats() (hits, misses uint64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return hits, misses, hitRate
}
