package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateMutualExclusion(t *testing.T) {
	var g Gate
	var inside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Lock()
			defer g.Release()
			assert.Equal(t, int32(1), inside.Add(1))
			inside.Add(-1)
		}()
	}
	wg.Wait()
}

func TestGateTryAcquire(t *testing.T) {
	var g Gate
	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())
	g.Release()
	assert.True(t, g.TryAcquire())
	g.Release()
}

func TestGateAcquireCancellation(t *testing.T) {
	var g Gate
	g.Lock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.Acquire(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled Acquire did not return")
	}

	// A canceled waiter must not poison the gate for others.
	g.Release()
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}

func TestGateLazyInitRace(t *testing.T) {
	var g Gate
	var held atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// All goroutines race to arm the semaphore on first use.
			if g.TryAcquire() {
				held.Add(1)
				g.Release()
			}
		}()
	}
	wg.Wait()
	// The gate must be usable afterwards regardless of who armed it.
	assert.True(t, g.TryAcquire())
	g.Release()
	assert.Greater(t, held.Load(), int32(0))
}

func TestGateDo(t *testing.T) {
	var g Gate
	ran := false
	err := g.Do(context.Background(), func() error {
		ran = true
		assert.False(t, g.TryAcquire())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, g.TryAcquire())
	g.Release()
}

func TestGateDoReleasesOnPanic(t *testing.T) {
	var g Gate
	assert.Panics(t, func() {
		_ = g.Do(context.Background(), func() error {
			panic("boom")
		})
	})
	assert.True(t, g.TryAcquire())
	g.Release()
}

func TestGateDoCanceledContext(t *testing.T) {
	var g Gate
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Do(ctx, func() error {
		t.Fatal("fn must not run when acquisition fails")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
