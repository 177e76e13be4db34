package common

import (
	"sort"
	"sync"
)

// Stats keeps named counters. It is safe for concurrent use.
type Stats struct {
	counts map[string]uint64
	mu     sync.Mutex
}

func NewStats() *Stats {
	return &Stats{
		counts: map[string]uint64{},
	}
}

func (s *Stats) Incr(key string) {
	s.mu.Lock()
	s.counts[key]++
	s.mu.Unlock()
}

func (s *Stats) Get(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key]
}

// Keys returns names of all counters that were incremented at least once, sorted.
func (s *Stats) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.counts))
	for k := range s.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
