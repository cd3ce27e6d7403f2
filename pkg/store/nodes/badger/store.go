// Package badger provides the persistent node store backend on BadgerDB.
//
// It implements namespace.NodeStore, namespace.DomainRegistry, and
// namespace.MetaStore over one embedded key-value database. Suitable for
// single-process deployments that need the namespace to survive restarts
// without running an external database.
package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Store is the BadgerDB-backed node store.
//
// Uniqueness Constraint:
// BadgerDB has no schema-level constraints, so the composite uniqueness of
// (domain, parent, name) is enforced by the child-index key: every insert
// runs in a serializable transaction that first checks the index key for
// existence. A concurrent insert of the same key either loses the existence
// check or aborts the commit with a conflict; both surface as the
// CodeDuplicate error the traversal engine resolves by re-reading.
//
// Thread Safety:
// BadgerDB transactions provide isolation; the store adds no locking of its
// own and is safe for concurrent use.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Config contains configuration for creating a Badger node store.
type Config struct {
	// Path is the directory BadgerDB stores its files in
	Path string `mapstructure:"path"`

	// InMemory runs the database without touching disk (tests)
	InMemory bool `mapstructure:"in_memory"`
}

// nodeSeqBandwidth is how many ids one Sequence lease reserves. Ids leased
// but never used (process restarts, lost insert races) are simply skipped;
// only uniqueness matters.
const nodeSeqBandwidth = 128

// NewStore opens (or creates) the database at cfg.Path and prepares the node
// id sequence. The returned store is immediately ready for concurrent use.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}

	// Node rows are tiny; compression buys nothing here.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}

	seq, err := db.GetSequence(keySeqNode(), nodeSeqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open node id sequence: %w", err)
	}

	return &Store{db: db, seq: seq}, nil
}

// Close releases the id sequence lease and closes the database. The store
// must not be used afterwards.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		return fmt.Errorf("failed to release node id sequence: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// Healthcheck verifies the database can serve a read.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(keySeqNode())
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// nextID leases the next node id. Sequence values start at 0; ids are offset
// by one so the reserved root id 0 is never allocated.
func (s *Store) nextID() (uint64, error) {
	v, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate node id: %w", err)
	}
	return v + 1, nil
}
