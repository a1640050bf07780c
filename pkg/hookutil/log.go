package hookutil

import (
	"context"
	"log/slog"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Log emits a debug line for every traversal. A nil logger falls back to
// slog.Default.
func Log(logger *slog.Logger) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.DebugContext(ctx, "service call",
			slog.String("path", c.Path),
			slog.String("method", c.Method),
			slog.String("transport", c.Transport),
			slog.String("stage", c.Stage),
			slog.Bool("has_result", c.Result != nil),
		)
		return nil, nil
	})
}
