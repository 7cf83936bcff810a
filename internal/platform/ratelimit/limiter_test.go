package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistry_AcquireWithinBurst(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(BucketConfig{RefillPerSecond: 1, Burst: 3}, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := reg.Acquire(context.Background(), "rest-api"); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
}

func TestRegistry_BoundedWaitFailsWithLimitExceeded(t *testing.T) {
	t.Parallel()

	// Burst of 1 and a very slow refill: the second acquire cannot get a
	// token inside the wait window.
	reg := NewRegistry(BucketConfig{RefillPerSecond: 0.01, Burst: 1}, 30*time.Millisecond)

	if err := reg.Acquire(context.Background(), "scraper"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	err := reg.Acquire(context.Background(), "scraper")
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestRegistry_CallerCancellationWinsOverLimit(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(BucketConfig{RefillPerSecond: 0.01, Burst: 1}, time.Second)
	if err := reg.Acquire(context.Background(), "csv"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := reg.Acquire(ctx, "csv")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRegistry_BucketsAreIndependentPerSource(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(BucketConfig{RefillPerSecond: 0.01, Burst: 1}, 20*time.Millisecond)
	reg.Configure("generous", BucketConfig{RefillPerSecond: 100, Burst: 10})

	if err := reg.Acquire(context.Background(), "stingy"); err != nil {
		t.Fatalf("stingy first acquire: %v", err)
	}
	if err := reg.Acquire(context.Background(), "stingy"); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected stingy bucket exhausted, got %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := reg.Acquire(context.Background(), "generous"); err != nil {
			t.Fatalf("generous acquire %d: %v", i, err)
		}
	}
}

func TestRegistry_ConcurrentAcquire(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(BucketConfig{RefillPerSecond: 1000, Burst: 64}, 200*time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- reg.Acquire(context.Background(), "shared")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent acquire: %v", err)
		}
	}
}
