package hook

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind string

const (
	// KindPredicate marks a failure raised while evaluating a node's
	// predicate.
	KindPredicate Kind = "predicate-failure"

	// KindInterceptor marks a failure raised by an interceptor. Index
	// carries its zero-based position within the failing chain.
	KindInterceptor Kind = "interceptor-failure"

	// KindCombinator marks a failure raised inside Every or Some, carrying
	// the first observed cause.
	KindCombinator Kind = "combinator-failure"
)

// Error classifies a pipeline failure and carries its cause. The pipeline
// wraps each failure exactly once; nested chains and nodes pass an already
// classified error through unchanged, so Index always refers to the chain
// closest to the failure.
type Error struct {
	Kind  Kind
	Index int // position within the failing chain, -1 when not applicable
	Err   error
}

func (e *Error) Error() string {
	if e.Kind == KindInterceptor && e.Index >= 0 {
		return fmt.Sprintf("%s at index %d: %v", e.Kind, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError unwraps err to its pipeline classification, if any.
func AsError(err error) (*Error, bool) {
	var herr *Error
	ok := errors.As(err, &herr)
	return herr, ok
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	herr, ok := AsError(err)
	return ok && herr.Kind == kind
}

func classified(err error) bool {
	var herr *Error
	return errors.As(err, &herr)
}
