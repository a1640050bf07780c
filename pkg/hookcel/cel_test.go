package hookcel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/plume/pkg/hook"
)

func TestPredicate(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		context     *hook.Context
		expectValue bool
		expectErr   bool
	}{
		{
			name:        "method match",
			expr:        `method == "create"`,
			context:     &hook.Context{Path: "messages", Method: "create"},
			expectValue: true,
		},
		{
			name:        "transport check",
			expr:        `transport != ""`,
			context:     &hook.Context{Method: "find", Transport: "rest"},
			expectValue: true,
		},
		{
			name:        "data field comparison",
			expr:        `data.priority > 2.0`,
			context:     &hook.Context{Method: "create", Data: map[string]any{"priority": 3.0}},
			expectValue: true,
		},
		{
			name:        "meta lookup",
			expr:        `meta.role == "admin"`,
			context:     &hook.Context{Method: "remove", Meta: map[string]any{"role": "admin"}},
			expectValue: true,
		},
		{
			name:        "string extension",
			expr:        `path.startsWith("msg")`,
			context:     &hook.Context{Path: "messages", Method: "find"},
			expectValue: false,
		},
		{
			name:      "missing data key",
			expr:      `data.missing == "x"`,
			context:   &hook.Context{Method: "create", Data: map[string]any{}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Predicate(tt.expr)
			require.NoError(t, err)

			got, err := p.Eval(context.Background(), tt.context)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectValue, got)
		})
	}
}

func TestPredicateCompilationErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax error", `method ==`},
		{"unknown variable", `nosuchvar == 1`},
		{"non-bool result", `1 + 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Predicate(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestMustPredicatePanics(t *testing.T) {
	assert.Panics(t, func() { MustPredicate(`method ==`) })
	assert.NotPanics(t, func() { MustPredicate(`method == "find"`) })
}

func TestPredicateNilPayloads(t *testing.T) {
	p, err := Predicate(`size(meta) == 0 && stage == ""`)
	require.NoError(t, err)

	got, err := p.Eval(context.Background(), &hook.Context{Method: "find"})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluationFailureClassifiedByNode(t *testing.T) {
	var ran bool
	mark := hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		ran = true
		return nil, nil
	})

	c := &hook.Context{Path: "messages", Method: "create", Data: map[string]any{}}
	_, err := hook.Invoke(context.Background(), c,
		hook.Iff(MustPredicate(`data.level > 3.0`), mark))

	require.Error(t, err)
	assert.True(t, hook.IsKind(err, hook.KindPredicate))
	assert.False(t, ran)
}
