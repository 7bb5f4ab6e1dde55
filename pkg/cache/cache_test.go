package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	v := entry{Name: "a", Count: 1}
	require.NoError(t, c.Set(ctx, "k", v, time.Minute))
	v.Count = 2

	var got entry
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, 1, got.Count)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}
