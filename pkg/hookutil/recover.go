package hookutil

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Recover converts a panic in inner into an error carrying the stack. The
// pipeline itself never recovers; wrap the steps that need protection.
func Recover(inner hook.Interceptor) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (out *hook.Context, err error) {
		defer func() {
			if r := recover(); r != nil {
				out = nil
				err = fmt.Errorf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()

		return inner.Intercept(ctx, c)
	})
}
