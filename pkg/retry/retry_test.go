package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func failing(calls *int, until int) Func {
	return func(context.Context) error {
		*calls++
		if until > 0 && *calls >= until {
			return nil
		}
		return errFlaky
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		until     int
		opts      []Option
		wantErr   error
		wantCalls int
	}{
		{"succeeds on third call", 3, []Option{WithMaxAttempts(5), WithBackoff(Fixed(time.Millisecond))}, nil, 3},
		{"gives up after max attempts", 0, []Option{WithMaxAttempts(2), WithBackoff(Fixed(time.Millisecond))}, errFlaky, 2},
		{"retry condition refuses", 0, []Option{WithMaxAttempts(5), WithRetryIf(func(error) bool { return false })}, errFlaky, 1},
		{"budget ends retries early", 0, []Option{
			WithMaxAttempts(10), WithBackoff(Fixed(20 * time.Millisecond)), WithMaxElapsedTime(30 * time.Millisecond),
		}, errFlaky, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), failing(&calls, tt.until), tt.opts...)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	bad := errors.New("400 bad request")
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(bad)
	}, WithMaxAttempts(5), WithBackoff(Fixed(time.Millisecond)))

	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	}, WithMaxAttempts(5), WithBackoff(Fixed(time.Hour)))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextErrorsAreNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	}, WithMaxAttempts(3), WithBackoff(Fixed(time.Millisecond)))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestExponential(t *testing.T) {
	b := Exponential(10*time.Millisecond, 50*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, b(0))
	assert.Equal(t, 40*time.Millisecond, b(2))
	assert.Equal(t, 50*time.Millisecond, b(5))
	assert.Equal(t, 50*time.Millisecond, b(100))

	unbounded := Exponential(time.Millisecond, 0)
	assert.Equal(t, 8*time.Millisecond, unbounded(3))
}

func TestFullJitter(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := FullJitter(10 * time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 10*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), FullJitter(0))
}
