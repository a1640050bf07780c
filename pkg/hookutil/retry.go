package hookutil

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/tjfontaine/plume/pkg/hook"
)

// RetryConfig bounds the attempts around an interceptor. Constant wins over
// Exponential when both are set; with neither, attempts back off
// exponentially from 100ms.
type RetryConfig struct {
	MaxRetries  uint64
	Exponential time.Duration
	Constant    time.Duration
}

// Retry re-runs inner until it succeeds or the budget is spent, backing off
// between attempts. A context replacement from a successful attempt is kept;
// each retry starts from the latest context. The last attempt's error is
// returned unwrapped.
func Retry(cfg RetryConfig, inner hook.Interceptor) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		var backoff retry.Backoff
		switch {
		case cfg.Constant != 0:
			backoff = retry.NewConstant(cfg.Constant)
		case cfg.Exponential != 0:
			backoff = retry.NewExponential(cfg.Exponential)
		default:
			backoff = retry.NewExponential(100 * time.Millisecond)
		}
		if cfg.MaxRetries != 0 {
			backoff = retry.WithMaxRetries(cfg.MaxRetries, backoff)
		}

		current := c
		if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			out, err := inner.Intercept(ctx, current)
			if err != nil {
				return retry.RetryableError(err)
			}
			if out != nil {
				current = out
			}
			return nil
		}); err != nil {
			return nil, err
		}
		return current, nil
	})
}
