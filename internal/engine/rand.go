package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

// randSource wraps math/rand for concurrent use by handlers and the
// background loop. Tests inject a seeded source for determinism.
type randSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newRandSource(r *rand.Rand) *randSource {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &randSource{r: r}
}

func (s *randSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *randSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// IntRange returns a uniform int in [lo, hi], inclusive on both ends.
func (s *randSource) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.Intn(hi-lo+1)
}

// Uniform returns a uniform float in [lo, hi).
func (s *randSource) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.Float64()*(hi-lo)
}

// Name generates a motif name under the lock, since the naming helpers
// take a bare *rand.Rand.
func (s *randSource) Name(category motif.Category, scope motif.Scope) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return motif.GenerateName(s.r, category, scope)
}

// Duration rolls a realistic duration in days for the scope/intensity.
func (s *randSource) Duration(scope motif.Scope, intensity float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return motif.GenerateDuration(s.r, scope, intensity)
}
