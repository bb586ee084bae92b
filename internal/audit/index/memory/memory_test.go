package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexFirstPositionWins(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Put(ctx, "dec-1", 3))
	require.NoError(t, idx.Put(ctx, "dec-1", 9))

	pos, ok, err := idx.Lookup(ctx, "dec-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), pos)

	_, ok, _ = idx.Lookup(ctx, "dec-2")
	assert.False(t, ok)
}
