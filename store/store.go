// Package store persists serialized CRDT state in a local bolt database.
// It sits at the serialization boundary: snapshots round-trip through JSON,
// and recovery merges a loaded snapshot into live state, so replaying the
// same snapshot is harmless.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/hashicorp/go-hclog"

	"github.com/statelattice/convergent/crdt"
)

// ErrNotFound is returned when no snapshot exists under the requested key.
var ErrNotFound = errors.New("store: snapshot not found")

var snapshotBucket = []byte("snapshots")

// Store is a bolt-backed snapshot store.
type Store struct {
	db     *bolt.DB
	logger hclog.Logger
}

// Options configures a Store.
type Options struct {
	// Logger receives structured store events. Defaults to a no-op logger.
	Logger hclog.Logger
}

// Open opens or creates the snapshot database at path.
func Open(path string, opts *Options) (*Store, error) {
	logger := hclog.NewNullLogger()
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create bucket: %w", err)
	}

	logger.Debug("opened snapshot store", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Save serializes state to JSON and writes it under key, replacing any
// earlier snapshot.
func (s *Store) Save(key string, state any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	s.logger.Debug("saved snapshot", "key", key, "bytes", len(data))
	return nil
}

// Load reads the snapshot under key and decodes it into state.
func (s *Store) Load(key string, state any) error {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(snapshotBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return fmt.Errorf("store: decode %q: %w", key, err)
	}
	return nil
}

// LoadMerge reads the snapshot under key, decodes it into a copy of into's
// schema, and merges the result into into. Because merge is idempotent,
// recovering the same snapshot twice leaves the state unchanged.
func (s *Store) LoadMerge(key string, into crdt.Mergeable) error {
	snapshot := into.Clone()
	u, ok := snapshot.(json.Unmarshaler)
	if !ok {
		return fmt.Errorf("store: %T does not support decoding", into)
	}
	if err := s.Load(key, u); err != nil {
		return err
	}
	if err := into.Merge(snapshot); err != nil {
		return fmt.Errorf("store: merge snapshot %q: %w", key, err)
	}
	s.logger.Debug("merged snapshot", "key", key)
	return nil
}

// Keys lists all snapshot keys, sorted by bolt's byte order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list keys: %w", err)
	}
	return keys, nil
}

// Delete removes the snapshot under key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
