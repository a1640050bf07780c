package hook

import "context"

type evalResult struct {
	value bool
	err   error
}

// Every resolves true only when every predicate resolves true. All
// evaluations start concurrently. A failure from any constituent fails the
// combinator with the first observed cause, even when another constituent
// already resolved false; a false result alone is recorded and the rest are
// awaited. Every() with no predicates is true.
//
// Evaluations still in flight when the outcome is decided are not
// cancelled; their results are discarded.
func Every(preds ...Predicate) Predicate {
	return Async(func(ctx context.Context, c *Context) (bool, error) {
		if len(preds) == 0 {
			return true, nil
		}
		results := make(chan evalResult, len(preds))
		for _, p := range preds {
			go func(p Predicate) {
				v, err := p.Eval(ctx, c)
				results <- evalResult{value: v, err: err}
			}(p)
		}
		allTrue := true
		for range preds {
			r := <-results
			if r.err != nil {
				return false, combinatorError(r.err)
			}
			if !r.value {
				allTrue = false
			}
		}
		return allTrue, nil
	})
}

// Some resolves true as soon as any predicate does. A failure observed
// before a true result fails the combinator; false only after every
// constituent resolved false. Some() with no predicates is false.
//
// As with Every, evaluations still in flight when the outcome is decided
// are left to finish and their results discarded.
func Some(preds ...Predicate) Predicate {
	return Async(func(ctx context.Context, c *Context) (bool, error) {
		if len(preds) == 0 {
			return false, nil
		}
		results := make(chan evalResult, len(preds))
		for _, p := range preds {
			go func(p Predicate) {
				v, err := p.Eval(ctx, c)
				results <- evalResult{value: v, err: err}
			}(p)
		}
		for range preds {
			r := <-results
			if r.err != nil {
				return false, combinatorError(r.err)
			}
			if r.value {
				return true, nil
			}
		}
		return false, nil
	})
}

// IsNot negates p. Evaluation errors pass through unchanged.
func IsNot(p Predicate) Predicate {
	return Async(func(ctx context.Context, c *Context) (bool, error) {
		v, err := p.Eval(ctx, c)
		if err != nil {
			return false, err
		}
		return !v, nil
	})
}

// External is the reserved transport name matching any call that entered
// through a transport, whatever its name.
const External = "external"

// FromTransport resolves true when the context's Transport equals one of
// names. The reserved name External matches every non-empty Transport. An
// empty Transport denotes an in-process call and matches only an empty
// string given explicitly.
func FromTransport(names ...string) Predicate {
	return Sync(func(c *Context) bool {
		for _, name := range names {
			if name == External {
				if c.Transport != "" {
					return true
				}
				continue
			}
			if c.Transport == name {
				return true
			}
		}
		return false
	})
}

func combinatorError(err error) error {
	if classified(err) {
		return err
	}
	return &Error{Kind: KindCombinator, Index: -1, Err: err}
}
