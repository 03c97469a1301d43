package operations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

func Test_Execute(t *testing.T) {
	t.Parallel()

	fastRetry := func(attempts uint) ExecuteOption {
		return WithRetryConfig(RetryConfig{
			Enabled: true,
			Policy:  RetryPolicy{MaxAttempts: attempts, Delay: time.Millisecond},
		})
	}

	tests := []struct {
		name            string
		options         []ExecuteOption
		isUnrecoverable bool
		wantCalledTimes int
		wantOutput      content.Value
		wantErr         string
	}{
		{
			name:            "no retry",
			wantCalledTimes: 1,
			wantErr:         "test error",
		},
		{
			name:            "with default retry",
			options:         []ExecuteOption{WithRetry()},
			wantCalledTimes: 3,
			wantOutput:      content.NewNumber(3),
		},
		{
			name:            "with custom retry eventual success",
			options:         []ExecuteOption{fastRetry(10)},
			wantCalledTimes: 3,
			wantOutput:      content.NewNumber(3),
		},
		{
			name:            "with custom retry eventual failure",
			options:         []ExecuteOption{fastRetry(2)},
			wantCalledTimes: 2,
			wantErr:         "test error",
		},
		{
			name:            "zero attempts runs once",
			options:         []ExecuteOption{fastRetry(0)},
			wantCalledTimes: 1,
			wantErr:         "test error",
		},
		{
			name:            "unrecoverable error is not retried",
			options:         []ExecuteOption{fastRetry(10)},
			isUnrecoverable: true,
			wantCalledTimes: 1,
			wantErr:         "fatal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			reg := NewOperationRegistry()
			entry := reg.MustRegister("flaky", func(*memory.WorkingMemory) (content.Number, error) {
				calls++
				if tt.isUnrecoverable {
					return content.Number{}, NewUnrecoverableError(errors.New("fatal error"))
				}
				if calls < 3 {
					return content.Number{}, errors.New("test error")
				}

				return content.NewNumber(float64(calls)), nil
			})

			b := NewBundle(logger.Test(t), NewMemoryReporter(), WithOperationRegistry(reg))

			out, err := Execute(t.Context(), b, entry, memory.New(), tt.options...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOutput, out)
			}
			assert.Equal(t, tt.wantCalledTimes, calls)
		})
	}
}

func Test_Execute_CancellationIsNotRetried(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())

	calls := 0
	reg := NewOperationRegistry()
	entry := reg.MustRegister("cancels", func(context.Context, *memory.WorkingMemory) (content.Text, error) {
		calls++
		cancel()

		return content.Text{}, context.Canceled
	})

	b := NewBundle(logger.Test(t), NewMemoryReporter(), WithOperationRegistry(reg))

	_, err := Execute(ctx, b, entry, memory.New(), WithRetryConfig(RetryConfig{
		Enabled: true,
		Policy:  RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond},
	}))
	require.Error(t, err)
	assert.True(t, IsCancellation(err))
	assert.Equal(t, 1, calls)
}

func TestIsCancellation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCancellation(context.Canceled))
	assert.True(t, IsCancellation(errors.Join(errors.New("step"), context.DeadlineExceeded)))
	assert.False(t, IsCancellation(errors.New("other")))
	assert.False(t, IsCancellation(nil))
}
