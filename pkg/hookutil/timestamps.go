package hookutil

import (
	"context"
	"time"

	"github.com/tjfontaine/plume/pkg/hook"
)

// SetNow stamps the given fields with the current UTC time on every record
// the call carries, creating intermediate maps for dotted paths as needed.
func SetNow(fields ...string) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		now := time.Now().UTC()
		for _, rec := range targets(c) {
			for _, f := range fields {
				setField(rec, f, now)
			}
		}
		return nil, nil
	})
}
