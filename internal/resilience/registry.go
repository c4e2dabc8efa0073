package resilience

import (
	"sort"
	"sync"
)

// CircuitBreakerRegistry hands out one breaker per key, so a failing key
// never trips the breaker of another.
type CircuitBreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	config   CircuitBreakerConfig
}

// NewCircuitBreakerRegistry creates an empty registry whose breakers all use
// config.
func NewCircuitBreakerRegistry(config CircuitBreakerConfig) *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*CircuitBreaker),
		config:   config,
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *CircuitBreakerRegistry) Get(name string) *CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb = NewCircuitBreaker(name, r.config)
	r.breakers[name] = cb
	return cb
}

// Len returns the number of breakers created so far.
func (r *CircuitBreakerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.breakers)
}

// Tripped returns the stats of every breaker that is not closed, ordered by
// name.
func (r *CircuitBreakerRegistry) Tripped() []CircuitBreakerStats {
	r.mu.RLock()
	out := make([]CircuitBreakerStats, 0)
	for _, cb := range r.breakers {
		if s := cb.Stats(); s.State != CircuitClosed {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
