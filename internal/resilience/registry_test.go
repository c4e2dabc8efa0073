package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistryIsolatesKeys(t *testing.T) {
	reg := NewCircuitBreakerRegistry(CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Hour})
	ctx := context.Background()

	_, _ = ExecuteWithResult(ctx, reg.Get("nse:BAD"), func(context.Context) (int, error) {
		return 0, errors.New("502")
	})

	if reg.Get("nse:BAD").State() != CircuitOpen {
		t.Fatalf("failing key should be open")
	}
	v, err := ExecuteWithResult(ctx, reg.Get("nse:TCS"), func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("healthy key rejected: %v, %v", v, err)
	}

	tripped := reg.Tripped()
	if len(tripped) != 1 || tripped[0].Name != "nse:BAD" || tripped[0].State != CircuitOpen {
		t.Errorf("tripped = %+v", tripped)
	}
	if reg.Len() != 2 {
		t.Errorf("len = %d, want 2", reg.Len())
	}
}

func TestRegistryGetIsStableUnderConcurrency(t *testing.T) {
	reg := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig())

	var wg sync.WaitGroup
	got := make([]*CircuitBreaker, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = reg.Get("kite:NIFTY")
		}(i)
	}
	wg.Wait()

	for _, cb := range got[1:] {
		if cb != got[0] {
			t.Fatal("Get returned different breakers for one key")
		}
	}
}
