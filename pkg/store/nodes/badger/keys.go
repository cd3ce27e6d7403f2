package badger

import (
	"encoding/binary"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// Database Key Namespace Design
// =============================
//
// BadgerDB is a key-value store, so prefixed keys organize the data types
// into logical namespaces:
//
// Data Type        Prefix  Key Format                      Value
// =====================================================================
// Node Row         "n:"    n:<id8>                         Node (JSON)
// Child Index      "c:"    c:<domain8><parent8><name>      id (8 bytes)
// Enabled Domain   "d:"    d:<domain8>                     (empty)
// Fid Metadata     "m:"    m:<fid8>                        map (JSON)
// Id Sequence      "!:"    !:seq:node                      (badger-managed)
//
// Numeric key segments are 8-byte big-endian so lexicographic key order
// matches numeric order and the child index of one (domain, parent) pair is
// a contiguous range, which makes ListChildren a single prefix scan.
//
// The child index doubles as the uniqueness constraint: insert transactions
// probe the index key before writing, and Badger's serializable transactions
// turn the remaining race window into a commit conflict.

const (
	prefixNode   = "n:"
	prefixChild  = "c:"
	prefixDomain = "d:"
	prefixMeta   = "m:"
	prefixSys    = "!:"
)

func be64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// keyNode generates the key for a node row.
func keyNode(id namespace.NodeID) []byte {
	return append([]byte(prefixNode), be64(uint64(id))...)
}

// keyChild generates the child-index key for (domain, parent, name).
func keyChild(domain namespace.DomainID, parent namespace.NodeID, name string) []byte {
	key := make([]byte, 0, len(prefixChild)+16+len(name))
	key = append(key, prefixChild...)
	key = append(key, be64(uint64(domain))...)
	key = append(key, be64(uint64(parent))...)
	key = append(key, name...)
	return key
}

// keyChildPrefix generates the prefix scanning all children of (domain,
// parent).
func keyChildPrefix(domain namespace.DomainID, parent namespace.NodeID) []byte {
	key := make([]byte, 0, len(prefixChild)+16)
	key = append(key, prefixChild...)
	key = append(key, be64(uint64(domain))...)
	key = append(key, be64(uint64(parent))...)
	return key
}

// keyDomain generates the key marking a domain as enabled.
func keyDomain(domain namespace.DomainID) []byte {
	return append([]byte(prefixDomain), be64(uint64(domain))...)
}

// keyDomainPrefix is the prefix scanning all enabled domains.
func keyDomainPrefix() []byte {
	return []byte(prefixDomain)
}

// keyMeta generates the key for a fid's metadata map.
func keyMeta(fid namespace.FileID) []byte {
	return append([]byte(prefixMeta), be64(uint64(fid))...)
}

// keySeqNode is the badger-managed node id sequence key.
func keySeqNode() []byte {
	return []byte(prefixSys + "seq:node")
}
