package badger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// Node rows and metadata maps are stored as JSON: human-readable, easy to
// evolve, and cheap at these sizes. Child-index values are the raw 8-byte
// big-endian node id.

func encodeNode(node *namespace.Node) ([]byte, error) {
	bytes, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node: %w", err)
	}
	return bytes, nil
}

func decodeNode(data []byte) (*namespace.Node, error) {
	var node namespace.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	return &node, nil
}

func encodeNodeID(id namespace.NodeID) []byte {
	return be64(uint64(id))
}

func decodeNodeID(data []byte) (namespace.NodeID, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid node id bytes: expected 8 bytes, got %d", len(data))
	}
	return namespace.NodeID(binary.BigEndian.Uint64(data)), nil
}

func encodeAttrs(attrs map[string]string) ([]byte, error) {
	bytes, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fid attributes: %w", err)
	}
	return bytes, nil
}

func decodeAttrs(data []byte) (map[string]string, error) {
	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("failed to decode fid attributes: %w", err)
	}
	return attrs, nil
}
