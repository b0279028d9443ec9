package use_cases

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateEnforcesLimit(t *testing.T) {
	const limit = 2
	const workers = 10

	gate := NewGate(limit)
	var inFlight, peak int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error: %v", err)
				return
			}
			defer gate.Release()

			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
		}()
	}
	wg.Wait()

	if p := atomic.LoadInt64(&peak); p > limit {
		t.Errorf("peak concurrency = %d, want <= %d", p, limit)
	}
}

func TestGateUnbounded(t *testing.T) {
	gate := NewGate(0)
	for i := 0; i < 100; i++ {
		if err := gate.Acquire(context.Background()); err != nil {
			t.Fatalf("unbounded Acquire() error: %v", err)
		}
	}
	// Release on an unbounded gate is a no-op and must not block.
	gate.Release()
}

func TestGateAcquireCancelled(t *testing.T) {
	gate := NewGate(1)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gate.Acquire(ctx); err != context.Canceled {
		t.Errorf("Acquire() on cancelled ctx = %v, want context.Canceled", err)
	}

	// Unbounded gates must still observe cancellation.
	if err := NewGate(0).Acquire(ctx); err != context.Canceled {
		t.Errorf("unbounded Acquire() on cancelled ctx = %v, want context.Canceled", err)
	}
}
