package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists resources in a Badger database.
type BadgerStore struct {
	db *badger.DB
}

const keyPrefix = "asset:"

// OpenBadgerStore opens (or creates) the store below dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	path := filepath.Join(dir, "assets")
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	return openBadger(badger.DefaultOptions(path))
}

// OpenMemoryStore opens a Badger store that lives in memory only.
func OpenMemoryStore() (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening asset store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the resource stored for url.
func (s *BadgerStore) Get(url string) (*Resource, error) {
	var r Resource
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + url))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Put stores r under its URL.
func (s *BadgerStore) Put(r *Resource) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+r.URL), data)
	})
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
