package hookutil

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Trace wraps inner in a span named name, annotated with the call's path,
// method, and transport. A nil tracer uses the global provider.
func Trace(tracer trace.Tracer, name string, inner hook.Interceptor) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		t := tracer
		if t == nil {
			t = otel.Tracer("plume/hookutil")
		}
		ctx, span := t.Start(ctx, name,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("service.path", c.Path),
				attribute.String("service.method", c.Method),
				attribute.String("service.transport", c.Transport),
			),
		)
		defer span.End()

		out, err := inner.Intercept(ctx, c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return out, err
	})
}
