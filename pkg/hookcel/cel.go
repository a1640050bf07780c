// Package hookcel compiles CEL expressions into pipeline predicates.
//
// Expressions see the invocation as flat variables: path, method, transport,
// id, and stage as strings, data and result as dynamic values, and meta as a
// string-keyed map. Data and result must be JSON-shaped (maps, slices,
// strings, numbers, bools) to be addressable from an expression.
package hookcel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Predicate compiles expr once and evaluates it per invocation. The
// expression must produce a bool; anything else is a compilation error.
// Evaluation errors abort the invocation as predicate failures.
func Predicate(expr string) (hook.Predicate, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("setup cel env failed: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expression compilation `%s` failed: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression `%s` produces %s, want bool", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("expression ast `%s` failed: %w", expr, err)
	}

	return hook.Async(func(ctx context.Context, c *hook.Context) (bool, error) {
		out, _, err := prg.Eval(activation(c))
		if err != nil {
			return false, fmt.Errorf("expression evaluation `%s` failed: %w", expr, err)
		}
		v, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("expression `%s` evaluated to %T, want bool", expr, out.Value())
		}
		return v, nil
	}), nil
}

// MustPredicate is Predicate for expressions known at build time; it panics
// on compilation failure.
func MustPredicate(expr string) hook.Predicate {
	p, err := Predicate(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		cel.Variable("path", cel.StringType),
		cel.Variable("method", cel.StringType),
		cel.Variable("transport", cel.StringType),
		cel.Variable("id", cel.StringType),
		cel.Variable("stage", cel.StringType),
		cel.Variable("data", cel.DynType),
		cel.Variable("result", cel.DynType),
		cel.Variable("meta", cel.MapType(cel.StringType, cel.DynType)),
	)
}

func activation(c *hook.Context) map[string]any {
	data := c.Data
	if data == nil {
		data = map[string]any{}
	}
	result := c.Result
	if result == nil {
		result = map[string]any{}
	}
	meta := c.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"path":      c.Path,
		"method":    c.Method,
		"transport": c.Transport,
		"id":        c.ID,
		"stage":     c.Stage,
		"data":      data,
		"result":    result,
		"meta":      meta,
	}
}
