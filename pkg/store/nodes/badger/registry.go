package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// Domain registry and fid metadata side-store, persisted alongside the node
// table under their own key prefixes.

// ListActiveDomains scans the enabled-domain prefix.
func (s *Store) ListActiveDomains(ctx context.Context) ([]namespace.DomainID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []namespace.DomainID
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyDomainPrefix()
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			id, err := decodeNodeID(key[len(prefixDomain):])
			if err != nil {
				return err
			}
			out = append(out, namespace.DomainID(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Enable marks a domain as namespace-enabled. Idempotent.
func (s *Store) Enable(ctx context.Context, domain namespace.DomainID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyDomain(domain), nil)
	})
}

// Disable removes a domain from the enabled set. Idempotent.
func (s *Store) Disable(ctx context.Context, domain namespace.DomainID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyDomain(domain))
	})
}

// Get returns the attribute map for fid; empty map when none stored.
func (s *Store) Get(ctx context.Context, fid namespace.FileID) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attrs := map[string]string{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyMeta(fid))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var verr error
			attrs, verr = decodeAttrs(val)
			return verr
		})
	})
	if err != nil {
		return nil, err
	}

	return attrs, nil
}

// Set replaces the attribute map for fid.
func (s *Store) Set(ctx context.Context, fid namespace.FileID, attrs map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeAttrs(attrs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyMeta(fid), data)
	})
}
