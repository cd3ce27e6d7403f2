// Package testing provides a reusable conformance suite for node store
// implementations. It tests the interface contract, not implementation
// details, so the same suite runs against the memory, Badger, and Postgres
// backends.
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// Store is the full backend surface the suite exercises: the node table,
// the domain registry, and the fid metadata side-store.
type Store interface {
	namespace.NodeStore
	namespace.DomainRegistry
	namespace.MetaStore
}

// StoreTestSuite runs the node store contract tests against any backend.
//
// Usage:
//
//	func TestMemoryNodeStore(t *testing.T) {
//	    suite := &nodestesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) nodestesting.Store {
//	            return memory.NewStore()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test. This ensures
	// test isolation.
	NewStore func(t *testing.T) Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("InsertAndFind", suite.testInsertAndFind)
	t.Run("Uniqueness", suite.testUniqueness)
	t.Run("GetNode", suite.testGetNode)
	t.Run("UpdateNode", suite.testUpdateNode)
	t.Run("DeleteNode", suite.testDeleteNode)
	t.Run("ListChildren", suite.testListChildren)
	t.Run("DomainRegistry", suite.testDomainRegistry)
	t.Run("FidMeta", suite.testFidMeta)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func testContext() context.Context {
	return context.Background()
}

func fidPtr(v namespace.FileID) *namespace.FileID {
	return &v
}

func (suite *StoreTestSuite) testInsertAndFind(test *testing.T) {
	test.Run("InsertDirectory", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		id, err := store.InsertChild(ctx, 1, namespace.RootID, "docs", nil)
		require.NoError(t, err)
		assert.NotEqual(t, namespace.RootID, id, "allocated ids must never collide with the root id")

		node, err := store.FindChild(ctx, 1, namespace.RootID, "docs")
		require.NoError(t, err)
		assert.Equal(t, id, node.ID)
		assert.Equal(t, namespace.DomainID(1), node.Domain)
		assert.Equal(t, namespace.RootID, node.ParentID)
		assert.Equal(t, "docs", node.Name)
		assert.Nil(t, node.FID)
		assert.True(t, node.IsDir())
	})

	test.Run("InsertFile", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		id, err := store.InsertChild(ctx, 1, namespace.RootID, "report.pdf", fidPtr(42))
		require.NoError(t, err)

		node, err := store.FindChild(ctx, 1, namespace.RootID, "report.pdf")
		require.NoError(t, err)
		assert.Equal(t, id, node.ID)
		require.NotNil(t, node.FID)
		assert.Equal(t, namespace.FileID(42), *node.FID)
		assert.False(t, node.IsDir())
	})

	test.Run("FindMissing", func(t *testing.T) {
		store := suite.NewStore(t)

		_, err := store.FindChild(testContext(), 1, namespace.RootID, "nonexistent")
		require.Error(t, err)
		assert.True(t, namespace.IsNotFound(err))
	})

	test.Run("NestedChildren", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		dirID, err := store.InsertChild(ctx, 1, namespace.RootID, "docs", nil)
		require.NoError(t, err)

		fileID, err := store.InsertChild(ctx, 1, dirID, "notes.txt", fidPtr(7))
		require.NoError(t, err)

		node, err := store.FindChild(ctx, 1, dirID, "notes.txt")
		require.NoError(t, err)
		assert.Equal(t, fileID, node.ID)
		assert.Equal(t, dirID, node.ParentID)

		// The same name directly under the root must not resolve.
		_, err = store.FindChild(ctx, 1, namespace.RootID, "notes.txt")
		assert.True(t, namespace.IsNotFound(err))
	})
}

func (suite *StoreTestSuite) testUniqueness(test *testing.T) {
	test.Run("DuplicateNameRejected", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		first, err := store.InsertChild(ctx, 1, namespace.RootID, "docs", nil)
		require.NoError(t, err)

		_, err = store.InsertChild(ctx, 1, namespace.RootID, "docs", nil)
		require.Error(t, err)
		assert.True(t, namespace.IsDuplicate(err))

		// The winner must be untouched.
		node, err := store.FindChild(ctx, 1, namespace.RootID, "docs")
		require.NoError(t, err)
		assert.Equal(t, first, node.ID)
	})

	test.Run("SameNameDifferentParents", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		dirA, err := store.InsertChild(ctx, 1, namespace.RootID, "a", nil)
		require.NoError(t, err)
		dirB, err := store.InsertChild(ctx, 1, namespace.RootID, "b", nil)
		require.NoError(t, err)

		_, err = store.InsertChild(ctx, 1, dirA, "same.txt", fidPtr(1))
		require.NoError(t, err)
		_, err = store.InsertChild(ctx, 1, dirB, "same.txt", fidPtr(2))
		require.NoError(t, err)
	})

	test.Run("SameNameDifferentDomains", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		_, err := store.InsertChild(ctx, 1, namespace.RootID, "docs", nil)
		require.NoError(t, err)
		_, err = store.InsertChild(ctx, 2, namespace.RootID, "docs", nil)
		require.NoError(t, err)
	})
}

func (suite *StoreTestSuite) testGetNode(test *testing.T) {
	test.Run("GetExisting", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		id, err := store.InsertChild(ctx, 1, namespace.RootID, "file.bin", fidPtr(99))
		require.NoError(t, err)

		node, err := store.GetNode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, node.ID)
		assert.Equal(t, "file.bin", node.Name)
		require.NotNil(t, node.FID)
		assert.Equal(t, namespace.FileID(99), *node.FID)
	})

	test.Run("GetMissing", func(t *testing.T) {
		store := suite.NewStore(t)

		_, err := store.GetNode(testContext(), 12345)
		require.Error(t, err)
		assert.True(t, namespace.IsNotFound(err))
	})
}

func (suite *StoreTestSuite) testUpdateNode(test *testing.T) {
	test.Run("Rename", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		id, err := store.InsertChild(ctx, 1, namespace.RootID, "old.txt", fidPtr(5))
		require.NoError(t, err)

		err = store.UpdateNode(ctx, id, namespace.NodeUpdate{SetName: true, Name: "new.txt"})
		require.NoError(t, err)

		node, err := store.FindChild(ctx, 1, namespace.RootID, "new.txt")
		require.NoError(t, err)
		assert.Equal(t, id, node.ID)
		require.NotNil(t, node.FID)
		assert.Equal(t, namespace.FileID(5), *node.FID)

		// The old name must be free for reuse.
		_, err = store.FindChild(ctx, 1, namespace.RootID, "old.txt")
		assert.True(t, namespace.IsNotFound(err))
		_, err = store.InsertChild(ctx, 1, namespace.RootID, "old.txt", nil)
		require.NoError(t, err)
	})

	test.Run("Reparent", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		dirID, err := store.InsertChild(ctx, 1, namespace.RootID, "archive", nil)
		require.NoError(t, err)
		id, err := store.InsertChild(ctx, 1, namespace.RootID, "file.txt", fidPtr(3))
		require.NoError(t, err)

		err = store.UpdateNode(ctx, id, namespace.NodeUpdate{SetParent: true, ParentID: dirID})
		require.NoError(t, err)

		node, err := store.FindChild(ctx, 1, dirID, "file.txt")
		require.NoError(t, err)
		assert.Equal(t, id, node.ID)

		_, err = store.FindChild(ctx, 1, namespace.RootID, "file.txt")
		assert.True(t, namespace.IsNotFound(err))
	})

	test.Run("MoveOntoExistingName", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		id, err := store.InsertChild(ctx, 1, namespace.RootID, "src.txt", fidPtr(1))
		require.NoError(t, err)
		_, err = store.InsertChild(ctx, 1, namespace.RootID, "dst.txt", fidPtr(2))
		require.NoError(t, err)

		err = store.UpdateNode(ctx, id, namespace.NodeUpdate{SetName: true, Name: "dst.txt"})
		require.Error(t, err)
		assert.True(t, namespace.IsDuplicate(err))

		// Source must survive a failed move.
		node, err := store.FindChild(ctx, 1, namespace.RootID, "src.txt")
		require.NoError(t, err)
		assert.Equal(t, id, node.ID)
	})

	test.Run("SetAndClearFid", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		id, err := store.InsertChild(ctx, 1, namespace.RootID, "file.txt", fidPtr(10))
		require.NoError(t, err)

		err = store.UpdateNode(ctx, id, namespace.NodeUpdate{SetFID: true, FID: fidPtr(20)})
		require.NoError(t, err)

		node, err := store.GetNode(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, node.FID)
		assert.Equal(t, namespace.FileID(20), *node.FID)

		err = store.UpdateNode(ctx, id, namespace.NodeUpdate{SetFID: true, FID: nil})
		require.NoError(t, err)

		node, err = store.GetNode(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, node.FID)
	})

	test.Run("UpdateMissing", func(t *testing.T) {
		store := suite.NewStore(t)

		err := store.UpdateNode(testContext(), 12345, namespace.NodeUpdate{SetName: true, Name: "x"})
		require.Error(t, err)
		assert.True(t, namespace.IsNotFound(err))
	})
}

func (suite *StoreTestSuite) testDeleteNode(test *testing.T) {
	test.Run("DeleteExisting", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		id, err := store.InsertChild(ctx, 1, namespace.RootID, "gone.txt", fidPtr(8))
		require.NoError(t, err)

		require.NoError(t, store.DeleteNode(ctx, id))

		_, err = store.FindChild(ctx, 1, namespace.RootID, "gone.txt")
		assert.True(t, namespace.IsNotFound(err))
		_, err = store.GetNode(ctx, id)
		assert.True(t, namespace.IsNotFound(err))

		// The name must be reusable after deletion.
		_, err = store.InsertChild(ctx, 1, namespace.RootID, "gone.txt", nil)
		require.NoError(t, err)
	})

	test.Run("DeleteMissing", func(t *testing.T) {
		store := suite.NewStore(t)

		err := store.DeleteNode(testContext(), 12345)
		require.Error(t, err)
		assert.True(t, namespace.IsNotFound(err))
	})
}

func (suite *StoreTestSuite) testListChildren(test *testing.T) {
	test.Run("EmptyDirectory", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		dirID, err := store.InsertChild(ctx, 1, namespace.RootID, "empty", nil)
		require.NoError(t, err)

		children, err := store.ListChildren(ctx, 1, dirID)
		require.NoError(t, err)
		assert.Empty(t, children)
	})

	test.Run("MixedChildren", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		dirID, err := store.InsertChild(ctx, 1, namespace.RootID, "docs", nil)
		require.NoError(t, err)
		_, err = store.InsertChild(ctx, 1, dirID, "sub", nil)
		require.NoError(t, err)
		_, err = store.InsertChild(ctx, 1, dirID, "a.txt", fidPtr(1))
		require.NoError(t, err)
		_, err = store.InsertChild(ctx, 1, dirID, "b.txt", fidPtr(2))
		require.NoError(t, err)

		// Entries from other parents and domains must not bleed in.
		_, err = store.InsertChild(ctx, 1, namespace.RootID, "outside.txt", fidPtr(3))
		require.NoError(t, err)
		_, err = store.InsertChild(ctx, 2, dirID, "other-domain.txt", fidPtr(4))
		require.NoError(t, err)

		children, err := store.ListChildren(ctx, 1, dirID)
		require.NoError(t, err)
		require.Len(t, children, 3)

		names := make(map[string]namespace.Node, len(children))
		for _, child := range children {
			names[child.Name] = child
		}
		assert.Contains(t, names, "sub")
		assert.Contains(t, names, "a.txt")
		assert.Contains(t, names, "b.txt")
		sub := names["sub"]
		assert.True(t, sub.IsDir())
		require.NotNil(t, names["a.txt"].FID)
		assert.Equal(t, namespace.FileID(1), *names["a.txt"].FID)
	})
}

func (suite *StoreTestSuite) testDomainRegistry(test *testing.T) {
	test.Run("EnableAndList", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		domains, err := store.ListActiveDomains(ctx)
		require.NoError(t, err)
		assert.Empty(t, domains)

		require.NoError(t, store.Enable(ctx, 1))
		require.NoError(t, store.Enable(ctx, 7))
		require.NoError(t, store.Enable(ctx, 7), "enable must be idempotent")

		domains, err = store.ListActiveDomains(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []namespace.DomainID{1, 7}, domains)
	})

	test.Run("Disable", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		require.NoError(t, store.Enable(ctx, 1))
		require.NoError(t, store.Disable(ctx, 1))
		require.NoError(t, store.Disable(ctx, 1), "disable must be idempotent")

		domains, err := store.ListActiveDomains(ctx)
		require.NoError(t, err)
		assert.Empty(t, domains)
	})
}

func (suite *StoreTestSuite) testFidMeta(test *testing.T) {
	test.Run("SetAndGet", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		require.NoError(t, store.Set(ctx, 42, map[string]string{namespace.MetaKeyMTime: "1700000000"}))

		attrs, err := store.Get(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "1700000000", attrs[namespace.MetaKeyMTime])
	})

	test.Run("MissingFidYieldsEmptyMap", func(t *testing.T) {
		store := suite.NewStore(t)

		attrs, err := store.Get(testContext(), 999)
		require.NoError(t, err)
		assert.Empty(t, attrs)
	})

	test.Run("Overwrite", func(t *testing.T) {
		store := suite.NewStore(t)
		ctx := testContext()

		require.NoError(t, store.Set(ctx, 42, map[string]string{namespace.MetaKeyMTime: "1", "extra": "x"}))
		require.NoError(t, store.Set(ctx, 42, map[string]string{namespace.MetaKeyMTime: "2"}))

		attrs, err := store.Get(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "2", attrs[namespace.MetaKeyMTime])
		assert.NotContains(t, attrs, "extra", "set must replace, not merge")
	})
}

func (suite *StoreTestSuite) testHealthcheck(test *testing.T) {
	store := suite.NewStore(test)
	require.NoError(test, store.Healthcheck(testContext()))
}
