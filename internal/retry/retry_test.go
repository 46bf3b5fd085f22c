package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", loom.NewTransientError("overloaded", 529, nil)
		}
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(), func() (string, error) {
		calls++
		return "", loom.NewPermanentError("bad key", 401, nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(), func() (string, error) {
		calls++
		return "", loom.NewTransientError("rate limited", 429, nil)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, cfg, func() (string, error) {
			return "", loom.NewTransientError("slow", 503, nil)
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoStream(t *testing.T) {
	calls := 0
	ch, err := DoStream(context.Background(), fastConfig(), func() (<-chan int, error) {
		calls++
		if calls < 2 {
			return nil, loom.NewTransientError("connect failed", 503, nil)
		}
		out := make(chan int, 1)
		out <- 42
		close(out)
		return out, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 42, <-ch)
}

func TestDoWithEvents(t *testing.T) {
	events := make(chan Event, 16)
	calls := 0
	_, err := DoWithEvents(context.Background(), fastConfig(), events, func() (string, error) {
		calls++
		if calls < 2 {
			return "", loom.NewTransientError("overloaded", 529, nil)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	close(events)

	var types []EventType
	for e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{
		EventAttemptStart,
		EventAttemptFailed,
		EventRetrying,
		EventAttemptStart,
		EventSuccess,
	}, types)
}

func TestEffectiveDelayHonorsRetryAfter(t *testing.T) {
	err := loom.NewTransientError("rate limited", 429, nil)
	err.RetryDelay = 10 * time.Millisecond

	assert.Equal(t, 10*time.Millisecond, effectiveDelay(time.Millisecond, err))
	assert.Equal(t, time.Minute, effectiveDelay(time.Minute, err))
}

func TestIsTransientCategorized(t *testing.T) {
	assert.True(t, IsTransient(loom.NewTransientError("overloaded", 529, nil)))
	assert.False(t, IsTransient(loom.NewPermanentError("not found", 404, nil)))
	assert.False(t, IsTransient(nil))
}

func TestIsTransientHeuristics(t *testing.T) {
	assert.True(t, IsTransient(errors.New("googleapi: Error 503: backend unavailable")))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsTransient(errors.New("invalid request body")))
}

func TestConfigDelay(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2.0}

	assert.Equal(t, time.Second, cfg.Delay(0))
	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	// Capped at MaxDelay
	assert.Equal(t, 4*time.Second, cfg.Delay(10))
}

func TestConfigDelayJitterBounds(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2.0, Jitter: 0.1}
	for i := 0; i < 50; i++ {
		d := cfg.Delay(0)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestDisabled(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Disabled(), func() (string, error) {
		calls++
		return "", loom.NewTransientError("overloaded", 529, nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
