package namespace_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisfs/trellis/pkg/namespace"
)

func TestListDirectoryMergesContentMeta(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ns.VivifyPath(ctx, testDomain, "/docs/sub/")
	require.NoError(t, err)
	docs, err := e.ns.LoadPath(ctx, testDomain, "/docs/")
	require.NoError(t, err)

	_, _, err = e.ns.SetFileMapping(ctx, testDomain, docs.ID, "a.txt", 1)
	require.NoError(t, err)
	e.content.Put(1, []byte("hello"))

	mtime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, e.nodes.Set(ctx, 1, map[string]string{
		namespace.MetaKeyMTime: strconv.FormatInt(mtime.Unix(), 10),
	}))

	entries, err := e.ns.ListDirectory(ctx, testDomain, docs.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]namespace.DirEntry{}
	for _, entry := range entries {
		byName[entry.Name] = entry
	}

	sub := byName["sub"]
	assert.True(t, sub.IsDir)
	assert.Nil(t, sub.FID)
	assert.Zero(t, sub.Size)

	file := byName["a.txt"]
	assert.False(t, file.IsDir)
	require.NotNil(t, file.FID)
	assert.Equal(t, namespace.FileID(1), *file.FID)
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, mtime, file.MTime)
}

func TestListDirectoryExcludesStaleFids(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, _, err := e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "live.txt", 1)
	require.NoError(t, err)
	_, _, err = e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "stale.txt", 2)
	require.NoError(t, err)
	e.content.Put(1, []byte("x"))
	// fid 2 never lands in the content store.

	entries, err := e.ns.ListDirectory(ctx, testDomain, namespace.RootID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "live.txt", entries[0].Name)
}

func TestListDirectoryMissingMTimeDegrades(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, _, err := e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "a.txt", 1)
	require.NoError(t, err)
	e.content.Put(1, []byte("x"))

	entries, err := e.ns.ListDirectory(ctx, testDomain, namespace.RootID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].MTime.IsZero(), "no side-store mtime leaves zero time")
}

func TestListDirectoryEmpty(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	entries, err := e.ns.ListDirectory(ctx, testDomain, namespace.RootID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
