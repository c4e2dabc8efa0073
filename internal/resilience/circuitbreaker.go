// Package resilience guards calls into flaky upstream services.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState is the position of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"    // calls pass through
	CircuitOpen     CircuitState = "OPEN"      // calls are rejected until the cooldown ends
	CircuitHalfOpen CircuitState = "HALF_OPEN" // trial calls decide whether to close
)

// ErrCircuitOpen is returned instead of calling an upstream whose breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold successful trial calls close a half-open circuit.
	SuccessThreshold int
	// Cooldown is how long an open circuit rejects calls before probing.
	Cooldown time.Duration
	// IsFailure decides which errors count against the upstream. Nil counts
	// every error.
	IsFailure func(error) bool
	// OnStateChange, if set, is called after every transition with the
	// breaker's lock released.
	OnStateChange func(name string, from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns the defaults used for market-data sources.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// CircuitBreakerStats is a snapshot of breaker counters.
type CircuitBreakerStats struct {
	Name          string       `json:"name"`
	State         CircuitState `json:"state"`
	TotalRequests int64        `json:"total_requests"`
	TotalFailures int64        `json:"total_failures"`
	TotalRejected int64        `json:"total_rejected"`
}

// CircuitBreaker stops calling an upstream after repeated failures and lets a
// few trial calls through once the cooldown has passed.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	state    CircuitState
	streak   int // consecutive failures when closed, successes when half-open
	openedAt time.Time
	stats    CircuitBreakerStats
}

// NewCircuitBreaker creates a closed breaker. Zero thresholds fall back to
// the defaults.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  CircuitClosed,
		stats:  CircuitBreakerStats{Name: name},
	}
}

// ExecuteWithResult runs fn under breaker protection. Errors rejected by
// IsFailure and errors after ctx is done do not count against the upstream.
func ExecuteWithResult[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := cb.admit(); err != nil {
		return zero, err
	}

	v, err := fn(ctx)
	switch {
	case err == nil:
		cb.record(true)
		return v, nil
	case ctx.Err() == nil && cb.countsAsFailure(err):
		cb.record(false)
	}
	return zero, err
}

func (cb *CircuitBreaker) countsAsFailure(err error) bool {
	return cb.config.IsFailure == nil || cb.config.IsFailure(err)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	cb.stats.TotalRequests++
	if cb.state != CircuitOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.now().Sub(cb.openedAt) < cb.config.Cooldown {
		cb.stats.TotalRejected++
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	from := cb.moveTo(CircuitHalfOpen)
	cb.mu.Unlock()

	cb.notify(from, CircuitHalfOpen)
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	from, to := cb.state, cb.state

	if !success {
		cb.stats.TotalFailures++
	}
	switch {
	case cb.state == CircuitHalfOpen && !success:
		to = CircuitOpen
	case cb.state == CircuitHalfOpen:
		cb.streak++
		if cb.streak >= cb.config.SuccessThreshold {
			to = CircuitClosed
		}
	case cb.state == CircuitClosed && !success:
		cb.streak++
		if cb.streak >= cb.config.FailureThreshold {
			to = CircuitOpen
		}
	case cb.state == CircuitClosed:
		cb.streak = 0
	}

	if to != from {
		cb.moveTo(to)
		if to == CircuitOpen {
			cb.openedAt = cb.now()
		}
	}
	cb.mu.Unlock()

	if to != from {
		cb.notify(from, to)
	}
}

// moveTo switches state and resets the streak. Callers hold mu.
func (cb *CircuitBreaker) moveTo(state CircuitState) CircuitState {
	from := cb.state
	cb.state = state
	cb.streak = 0
	return from
}

func (cb *CircuitBreaker) notify(from, to CircuitState) {
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, from, to)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	s := cb.stats
	s.State = cb.state
	return s
}
