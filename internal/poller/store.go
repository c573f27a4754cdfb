// internal/poller/store.go
package poller

import (
	"sort"
	"sync"
)

// Store keeps the latest Sample per item.
type Store struct {
	mu      sync.RWMutex
	samples map[string]Sample
}

func NewStore() *Store {
	return &Store{samples: make(map[string]Sample)}
}

// Update folds a poll cycle into the store.
func (s *Store) Update(res PollResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, smp := range res.Samples {
		s.samples[smp.Name] = smp
	}
}

// Get returns the latest sample for name.
func (s *Store) Get(name string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	smp, ok := s.samples[name]
	return smp, ok
}

// All returns every sample ordered by item name.
func (s *Store) All() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sample, 0, len(s.samples))
	for _, smp := range s.samples {
		out = append(out, smp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
