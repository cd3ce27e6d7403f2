package badger

import (
	"context"
	"testing"

	nodestesting "github.com/trellisfs/trellis/pkg/store/nodes/testing"
)

// TestBadgerNodeStore runs the complete node store conformance suite
// against the Badger implementation, using an in-memory database so the
// tests leave nothing on disk.
func TestBadgerNodeStore(t *testing.T) {
	suite := &nodestesting.StoreTestSuite{
		NewStore: func(t *testing.T) nodestesting.Store {
			store, err := NewStore(context.Background(), Config{InMemory: true})
			if err != nil {
				t.Fatalf("Failed to create Badger store: %v", err)
			}
			t.Cleanup(func() {
				if err := store.Close(); err != nil {
					t.Errorf("Failed to close Badger store: %v", err)
				}
			})
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerNodeStorePersistence verifies that nodes written before a
// restart are readable after reopening the same directory.
func TestBadgerNodeStorePersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(ctx, Config{Path: dir})
	if err != nil {
		t.Fatalf("Failed to create Badger store: %v", err)
	}

	id, err := store.InsertChild(ctx, 1, 0, "survivor", nil)
	if err != nil {
		t.Fatalf("Failed to insert node: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close Badger store: %v", err)
	}

	reopened, err := NewStore(ctx, Config{Path: dir})
	if err != nil {
		t.Fatalf("Failed to reopen Badger store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	node, err := reopened.FindChild(ctx, 1, 0, "survivor")
	if err != nil {
		t.Fatalf("Failed to find node after reopen: %v", err)
	}
	if node.ID != id {
		t.Errorf("Node id changed across restart: got %d, want %d", node.ID, id)
	}

	// The sequence must not hand out ids already in use.
	otherID, err := reopened.InsertChild(ctx, 1, 0, "newcomer", nil)
	if err != nil {
		t.Fatalf("Failed to insert after reopen: %v", err)
	}
	if otherID == id {
		t.Errorf("Sequence reissued id %d after restart", id)
	}
}
