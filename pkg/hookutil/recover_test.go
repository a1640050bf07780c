package hookutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/plume/pkg/hook"
)

func TestRecoverConvertsPanic(t *testing.T) {
	inner := hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		panic("exploded")
	})

	out, err := Recover(inner).Intercept(context.Background(), hook.NewContext("x", "create"))

	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "recovered from panic")
	assert.Contains(t, err.Error(), "exploded")
}

func TestRecoverPassesThrough(t *testing.T) {
	inner := hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		out := hook.NewContext(c.Path, c.Method)
		out.Result = "fine"
		return out, nil
	})

	out, err := Recover(inner).Intercept(context.Background(), hook.NewContext("x", "create"))

	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "fine", out.Result)
}
