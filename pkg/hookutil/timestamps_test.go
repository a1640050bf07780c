package hookutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetNow(t *testing.T) {
	c := beforeCtx(map[string]any{"text": "hi"})

	before := time.Now().UTC()
	_, err := SetNow("createdAt", "audit.stampedAt").Intercept(context.Background(), c)
	require.NoError(t, err)
	after := time.Now().UTC()

	data := c.Data.(map[string]any)
	created, ok := data["createdAt"].(time.Time)
	require.True(t, ok, "createdAt not set")
	assert.False(t, created.Before(before) || created.After(after))

	audit, ok := data["audit"].(map[string]any)
	require.True(t, ok, "intermediate map not created")
	_, ok = audit["stampedAt"].(time.Time)
	assert.True(t, ok, "nested timestamp not set")
}

func TestSetNowTargetsResultAfter(t *testing.T) {
	c := afterCtx(map[string]any{"text": "hi"})

	_, err := SetNow("servedAt").Intercept(context.Background(), c)
	require.NoError(t, err)

	result := c.Result.(map[string]any)
	_, ok := result["servedAt"].(time.Time)
	assert.True(t, ok)
	assert.Nil(t, c.Data)
}
