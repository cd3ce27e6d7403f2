package memory

import (
	"testing"

	nodestesting "github.com/trellisfs/trellis/pkg/store/nodes/testing"
)

// TestMemoryNodeStore runs the complete node store conformance suite
// against the in-memory implementation.
func TestMemoryNodeStore(t *testing.T) {
	suite := &nodestesting.StoreTestSuite{
		NewStore: func(t *testing.T) nodestesting.Store {
			return NewStore()
		},
	}

	suite.Run(t)
}
