package hook

import "context"

// Predicate decides which branch of a node runs. Implementations must be
// safe for concurrent evaluation: Every and Some evaluate their constituents
// from separate goroutines.
type Predicate interface {
	Eval(ctx context.Context, c *Context) (bool, error)
}

// Literal returns a predicate with a fixed result.
func Literal(v bool) Predicate { return literal(v) }

// True and False are the fixed predicates.
var (
	True  = Literal(true)
	False = Literal(false)
)

type literal bool

func (l literal) Eval(context.Context, *Context) (bool, error) {
	return bool(l), nil
}

// Sync wraps a function that inspects the context synchronously and cannot
// fail.
func Sync(fn func(*Context) bool) Predicate { return syncPredicate(fn) }

type syncPredicate func(*Context) bool

func (p syncPredicate) Eval(_ context.Context, c *Context) (bool, error) {
	return p(c), nil
}

// Async wraps a function that may block and may fail. A returned error
// aborts the invocation.
func Async(fn func(context.Context, *Context) (bool, error)) Predicate {
	return asyncPredicate(fn)
}

type asyncPredicate func(context.Context, *Context) (bool, error)

func (p asyncPredicate) Eval(ctx context.Context, c *Context) (bool, error) {
	return p(ctx, c)
}
