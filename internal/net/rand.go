package net

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// lockedSource serialises access to a rand.Source shared by every Build
// call that was not given its own generator.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

var (
	processSourceOnce sync.Once
	processSource     *lockedSource
)

// defaultSource returns the process-wide generator, seeded from the wall
// clock exactly once.
func defaultSource() rand.Source {
	processSourceOnce.Do(func() {
		processSource = &lockedSource{
			src: rand.NewSource(uint64(time.Now().UnixNano())),
		}
	})
	return processSource
}
