package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisfs/trellis/pkg/namespace"
)

func TestFetchMeta(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.Put(1, []byte("hello"))
	store.Put(2, nil)

	metas, err := store.FetchMeta(ctx, []namespace.FileID{1, 2, 3})
	require.NoError(t, err)

	assert.True(t, metas[1].Exists)
	assert.Equal(t, int64(5), metas[1].Length)
	assert.True(t, metas[2].Exists, "empty objects still exist")
	assert.Zero(t, metas[2].Length)
	assert.False(t, metas[3].Exists)
}

func TestDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.Put(1, []byte("x"))
	require.NoError(t, store.Delete(ctx, 1))
	require.NoError(t, store.Delete(ctx, 1), "deleting a missing fid succeeds")

	metas, err := store.FetchMeta(ctx, []namespace.FileID{1})
	require.NoError(t, err)
	assert.False(t, metas[1].Exists)
}

func TestPutOverwrites(t *testing.T) {
	store := NewStore()

	store.Put(1, []byte("short"))
	store.Put(1, []byte("a bit longer"))

	metas, err := store.FetchMeta(context.Background(), []namespace.FileID{1})
	require.NoError(t, err)
	assert.Equal(t, int64(len("a bit longer")), metas[1].Length)
}
