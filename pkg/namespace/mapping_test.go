package namespace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisfs/trellis/pkg/namespace"
)

func TestSetFileMappingCreatesNode(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	nodeID, oldFID, err := e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "a.txt", 7)
	require.NoError(t, err)
	assert.Nil(t, oldFID, "fresh mapping has nothing to replace")

	fid, err := e.ns.GetFileMapping(ctx, testDomain, namespace.RootID, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, namespace.FileID(7), fid)

	node, err := e.nodes.GetNode(ctx, nodeID)
	require.NoError(t, err)
	assert.False(t, node.IsDir())
}

func TestSetFileMappingOverwrite(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	firstID, _, err := e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "a.txt", 7)
	require.NoError(t, err)

	secondID, oldFID, err := e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "a.txt", 9)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID, "overwrite reuses the node")
	require.NotNil(t, oldFID, "caller must learn the replaced fid")
	assert.Equal(t, namespace.FileID(7), *oldFID)

	fid, err := e.ns.GetFileMapping(ctx, testDomain, namespace.RootID, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, namespace.FileID(9), fid)
}

func TestSetFileMappingOnDirectoryNode(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir, err := e.ns.VivifyPath(ctx, testDomain, "/docs/")
	require.NoError(t, err)

	// Mapping a fid onto an existing directory node turns it into a file;
	// there is no old fid to clean up.
	nodeID, oldFID, err := e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "docs", 5)
	require.NoError(t, err)
	assert.Equal(t, dir.ID, nodeID)
	assert.Nil(t, oldFID)
}

func TestSetFileMappingInvalidName(t *testing.T) {
	e := newTestEngine(t)

	_, _, err := e.ns.SetFileMapping(context.Background(), testDomain, namespace.RootID, "bad name", 1)
	require.Error(t, err)
	assert.True(t, namespace.IsInvalidPath(err))
}

func TestGetFileMappingMisses(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// No node at all.
	_, err := e.ns.GetFileMapping(ctx, testDomain, namespace.RootID, "ghost.txt")
	assert.True(t, namespace.IsNotFound(err))

	// A directory node has no mapping.
	_, err = e.ns.VivifyPath(ctx, testDomain, "/dir/")
	require.NoError(t, err)
	_, err = e.ns.GetFileMapping(ctx, testDomain, namespace.RootID, "dir")
	assert.True(t, namespace.IsNotFound(err))
}

func TestDeleteFileMapping(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, _, err := e.ns.SetFileMapping(ctx, testDomain, namespace.RootID, "a.txt", 7)
	require.NoError(t, err)

	fid, err := e.ns.DeleteFileMapping(ctx, testDomain, namespace.RootID, "a.txt")
	require.NoError(t, err)
	require.NotNil(t, fid)
	assert.Equal(t, namespace.FileID(7), *fid)

	_, err = e.ns.GetFileMapping(ctx, testDomain, namespace.RootID, "a.txt")
	assert.True(t, namespace.IsNotFound(err))
}

func TestDeleteFileMappingRefusesChildren(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ns.VivifyPath(ctx, testDomain, "/docs/sub/")
	require.NoError(t, err)

	_, err = e.ns.DeleteFileMapping(ctx, testDomain, namespace.RootID, "docs")
	require.Error(t, err)
	assert.True(t, namespace.IsCode(err, namespace.CodeHasChildren))

	// The refused node is untouched.
	_, err = e.ns.LoadPath(ctx, testDomain, "/docs/sub/")
	assert.NoError(t, err)
}

func TestDeleteFileMappingEmptyDirectory(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ns.VivifyPath(ctx, testDomain, "/empty/")
	require.NoError(t, err)

	fid, err := e.ns.DeleteFileMapping(ctx, testDomain, namespace.RootID, "empty")
	require.NoError(t, err)
	assert.Nil(t, fid, "directories carry no fid")
}
