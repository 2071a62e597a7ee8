package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleep records requested delays without actually waiting.
func fakeSleep(slept *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var slept []time.Duration
	cfg := Config{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, Sleep: fakeSleep(&slept)}

	calls := 0
	v, err := Do(context.Background(), cfg, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)

	// Delays double: 100ms then 200ms.
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, slept)
}

func TestDoExhaustsBudgetAndReturnsLastError(t *testing.T) {
	var slept []time.Duration
	cfg := Config{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, Sleep: fakeSleep(&slept)}

	calls := 0
	last := errors.New("still broken")
	_, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("earlier failure")
		}
		return 0, last
	})

	require.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls, "MaxAttempts bounds total invocations")
	assert.Len(t, slept, 2, "no sleep after the final attempt")
}

func TestDoFirstAttemptSuccessNeverSleeps(t *testing.T) {
	var slept []time.Duration
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Second, Sleep: fakeSleep(&slept)}

	v, err := Do(context.Background(), cfg, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Empty(t, slept)
}

func TestPermanentErrorIsNeverRetried(t *testing.T) {
	var slept []time.Duration
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, Sleep: fakeSleep(&slept)}

	cause := errors.New("missing required field")
	calls := 0
	_, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, Permanent(cause)
	})

	require.ErrorIs(t, err, cause)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(errors.New("plain")))
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond}
	calls := 0
	_, err := Do(ctx, cfg, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation surfaces at the first sleep")
}

func TestDoZeroConfigUsesDefaults(t *testing.T) {
	var slept []time.Duration
	cfg := Config{Sleep: fakeSleep(&slept)}

	calls := 0
	_, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, DefaultConfig.MaxAttempts, calls)
	require.Len(t, slept, DefaultConfig.MaxAttempts-1)
	assert.Equal(t, DefaultConfig.InitialDelay, slept[0])
}
