package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("species/match") {
					passed++
				}
			}

			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(10, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.NoError(t, rl.Wait(ctx, "species"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	// Second call waits roughly one token interval (100ms).
	start = time.Now()
	assert.NoError(t, rl.Wait(ctx, "species"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestKeyedRateLimiter_WaitContextCancelled(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()

	rl.Allow("species")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx, "species"))
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("species/match")
	assert.False(t, rl.Allow("species/match"))
	assert.True(t, rl.Allow("species/vernacularNames"))
	assert.Equal(t, 2, rl.Len())
}

func TestKeyedRateLimiter_PruneIdle(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("species/match")
	rl.prune(time.Hour)
	assert.Equal(t, 1, rl.Len())

	time.Sleep(5 * time.Millisecond)
	rl.prune(time.Millisecond)
	assert.Equal(t, 0, rl.Len())
}

func TestKeyedRateLimiter_StopIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
