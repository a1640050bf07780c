package hookutil

import (
	"context"
	"fmt"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Disallow rejects calls arriving through any of the given transports. The
// reserved name hook.External matches every transport; with no arguments
// every call is rejected, in-process ones included.
func Disallow(transports ...string) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		blocked := len(transports) == 0
		for _, name := range transports {
			if name == hook.External && c.Transport != "" {
				blocked = true
				break
			}
			if c.Transport == name {
				blocked = true
				break
			}
		}
		if blocked {
			return nil, fmt.Errorf("method %s on %s is not allowed for transport %q: %w",
				c.Method, c.Path, c.Transport, ErrMethodNotAllowed)
		}
		return nil, nil
	})
}
