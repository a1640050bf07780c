package hook

import (
	"context"
	"sync"
)

// Interceptor is a single pipeline step.
//
// Returning a non-nil *Context replaces the context for the rest of the
// invocation; returning nil with a nil error keeps the current one.
type Interceptor interface {
	Intercept(ctx context.Context, c *Context) (*Context, error)
}

// Func adapts a plain function to the Interceptor interface.
type Func func(ctx context.Context, c *Context) (*Context, error)

// Intercept calls f.
func (f Func) Intercept(ctx context.Context, c *Context) (*Context, error) {
	return f(ctx, c)
}

// Chain runs its interceptors strictly in order and stops at the first
// failure. A Chain is itself an Interceptor, so chains nest.
type Chain []Interceptor

// Intercept executes the chain. A failing entry's error is classified as
// interceptor-failure with its zero-based position in this chain, unless it
// already carries a classification from a nested chain or node.
func (ch Chain) Intercept(ctx context.Context, c *Context) (*Context, error) {
	current := c
	for i, it := range ch {
		next, err := it.Intercept(ctx, current)
		if err != nil {
			if classified(err) {
				return nil, err
			}
			return nil, &Error{Kind: KindInterceptor, Index: i, Err: err}
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

// Combine flattens interceptors and nested chains into a single flat Chain.
// The result executes the same steps in the same order as the nested form.
func Combine(items ...Interceptor) Chain {
	out := make(Chain, 0, len(items))
	for _, it := range items {
		if sub, ok := it.(Chain); ok {
			out = append(out, Combine(sub...)...)
			continue
		}
		out = append(out, it)
	}
	return out
}

// Invoke runs items as one chain against c and returns the final context.
//
// Each call is one invocation: predicate results are memoized per node for
// its duration and discarded afterwards. An interceptor that calls Invoke
// itself starts a sub-invocation with its own memoization scope.
func Invoke(ctx context.Context, c *Context, items ...Interceptor) (*Context, error) {
	ctx, _ = newInvocation(ctx)
	return Combine(items...).Intercept(ctx, c)
}

// invocation holds the per-invocation predicate memo, keyed by node
// identity. It travels in the context.Context so it survives *Context
// replacement mid-chain.
type invocation struct {
	mu   sync.Mutex
	memo map[*Node]bool
}

type invocationKey struct{}

func newInvocation(ctx context.Context) (context.Context, *invocation) {
	inv := &invocation{memo: make(map[*Node]bool)}
	return context.WithValue(ctx, invocationKey{}, inv), inv
}

func invocationFrom(ctx context.Context) *invocation {
	inv, _ := ctx.Value(invocationKey{}).(*invocation)
	return inv
}

func (inv *invocation) lookup(n *Node) (bool, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	v, ok := inv.memo[n]
	return v, ok
}

func (inv *invocation) store(n *Node, v bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.memo[n] = v
}
