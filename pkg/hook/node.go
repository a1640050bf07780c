package hook

import "context"

// Node gates two chains behind a predicate. Exactly one branch runs per
// pass, and the predicate is evaluated at most once per invocation; later
// passes over the same node reuse the memoized result.
//
// A *Node is an Interceptor, so nodes nest inside chains and inside other
// nodes' branches.
type Node struct {
	pred      Predicate
	whenTrue  Chain
	whenFalse Chain
}

// Iff builds a node that runs items when p resolves true. The false branch
// starts empty; set it with Else.
func Iff(p Predicate, items ...Interceptor) *Node {
	return &Node{pred: p, whenTrue: Combine(items...)}
}

// IffElse builds a node with both branches set.
func IffElse(p Predicate, whenTrue, whenFalse Chain) *Node {
	return &Node{
		pred:      p,
		whenTrue:  Combine(whenTrue...),
		whenFalse: Combine(whenFalse...),
	}
}

// Unless builds a node that runs items when p resolves false.
func Unless(p Predicate, items ...Interceptor) *Node {
	return Iff(IsNot(p), items...)
}

// Else sets the false branch, replacing any previous one, and returns n for
// chaining.
func (n *Node) Else(items ...Interceptor) *Node {
	n.whenFalse = Combine(items...)
	return n
}

// Intercept evaluates the predicate and runs the selected branch. An empty
// branch leaves the context unchanged. A predicate error aborts the
// invocation classified as predicate-failure, except errors Every and Some
// already classified, which pass through.
func (n *Node) Intercept(ctx context.Context, c *Context) (*Context, error) {
	inv := invocationFrom(ctx)
	if inv == nil {
		ctx, inv = newInvocation(ctx)
	}

	v, ok := inv.lookup(n)
	if !ok {
		var err error
		v, err = n.pred.Eval(ctx, c)
		if err != nil {
			if classified(err) {
				return nil, err
			}
			return nil, &Error{Kind: KindPredicate, Index: -1, Err: err}
		}
		inv.store(n, v)
	}

	branch := n.whenFalse
	if v {
		branch = n.whenTrue
	}
	return branch.Intercept(ctx, c)
}
