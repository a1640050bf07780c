package hook

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"interceptor with index",
			&Error{Kind: KindInterceptor, Index: 2, Err: cause},
			"interceptor-failure at index 2: boom",
		},
		{
			"predicate",
			&Error{Kind: KindPredicate, Index: -1, Err: cause},
			"predicate-failure: boom",
		},
		{
			"combinator",
			&Error{Kind: KindCombinator, Index: -1, Err: cause},
			"combinator-failure: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := &Error{Kind: KindInterceptor, Index: 0, Err: fmt.Errorf("wrapped: %w", cause)}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	herr, ok := AsError(fmt.Errorf("outer: %w", err))
	if !ok {
		t.Fatal("AsError() did not find the classification through wrapping")
	}
	if herr.Index != 0 {
		t.Errorf("Index = %d, want 0", herr.Index)
	}
}

func TestIsKind(t *testing.T) {
	err := &Error{Kind: KindPredicate, Index: -1, Err: errors.New("x")}

	if !IsKind(err, KindPredicate) {
		t.Error("IsKind(err, KindPredicate) = false")
	}
	if IsKind(err, KindInterceptor) {
		t.Error("IsKind(err, KindInterceptor) = true for a predicate failure")
	}
	if IsKind(errors.New("plain"), KindPredicate) {
		t.Error("IsKind() = true for an unclassified error")
	}
	if IsKind(nil, KindPredicate) {
		t.Error("IsKind(nil) = true")
	}
}
