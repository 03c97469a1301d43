package operations

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/smartcontractkit/pipes-framework/memory"
)

// ExecuteConfig is the configuration for the Execute function.
type ExecuteConfig struct {
	retryConfig RetryConfig
}

type ExecuteOption func(*ExecuteConfig)

type RetryConfig struct {
	// Enabled determines if the retry is enabled for the operation.
	Enabled bool

	// Policy is the retry policy to control the behavior of the retry.
	Policy RetryPolicy
}

// newDisabledRetryConfig returns a default retry configuration that is initially disabled.
func newDisabledRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled: false,
		Policy:  DefaultRetryPolicy(),
	}
}

// RetryPolicy defines the arguments to control the retry behavior.
type RetryPolicy struct {
	MaxAttempts uint
	Delay       time.Duration
}

// DefaultRetryPolicy returns the policy used by WithRetry.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       100 * time.Millisecond,
	}
}

// options returns the 'avast/retry' functional options for the retry policy. A zero MaxAttempts
// means a single attempt, retry-go would otherwise retry forever.
func (p RetryPolicy) options() []retry.Option {
	opts := []retry.Option{
		retry.Attempts(max(p.MaxAttempts, 1)),
		retry.LastErrorOnly(true),
	}
	if p.Delay > 0 {
		opts = append(opts, retry.Delay(p.Delay))
	}

	return opts
}

// WithRetry is an ExecuteOption that enables the default retry for the operation.
func WithRetry() ExecuteOption {
	return func(c *ExecuteConfig) {
		c.retryConfig.Enabled = true
	}
}

// WithRetryConfig is an ExecuteOption that sets the retry configuration.
func WithRetryConfig(config RetryConfig) ExecuteOption {
	return func(c *ExecuteConfig) {
		c.retryConfig = config
	}
}

// Execute invokes the computation of entry through the bundle's Invoker and returns its raw
// result. The result is not normalized.
//
// Retry:
// Retries are disabled by default. Use WithRetry or WithRetryConfig to enable them.
// Cancellation is never retried. To stop retrying early, return an error wrapped with
// NewUnrecoverableError from the computation.
func Execute(
	ctx context.Context,
	b Bundle,
	entry *Entry,
	wm *memory.WorkingMemory,
	opts ...ExecuteOption,
) (any, error) {
	executeConfig := &ExecuteConfig{
		retryConfig: newDisabledRetryConfig(),
	}
	for _, opt := range opts {
		opt(executeConfig)
	}

	b.Logger.Debugw("Executing operation",
		"id", entry.Def.ID, "version", entry.Def.Version, "blocking", entry.Signature.Blocking)

	if !executeConfig.retryConfig.Enabled {
		return b.Invoker.Invoke(ctx, entry, wm)
	}

	retryOpts := executeConfig.retryConfig.Policy.options()
	retryOpts = append(retryOpts,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return !IsCancellation(err)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			b.Logger.Infow("Operation failed. Retrying...",
				"operation", entry.Def.ID, "attempt", attempt, "error", err)
		}),
	)

	return retry.DoWithData(
		func() (any, error) {
			return b.Invoker.Invoke(ctx, entry, wm)
		},
		retryOpts...,
	)
}

// NewUnrecoverableError creates an error that indicates an unrecoverable error.
// If this error is returned inside a computation, the computation will no longer retry.
func NewUnrecoverableError(err error) error {
	return retry.Unrecoverable(err)
}

// IsCancellation reports whether err stems from a cancelled or expired context.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
