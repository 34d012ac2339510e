// Package storage implements the key-value persistence medium of the sync core.
package storage

import (
	"chat-sync/errors"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// DiskStore persists values in BadgerDB. Every write is a single key transaction.
type DiskStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewDiskStore(db *badger.DB, log *slog.Logger) *DiskStore {
	return &DiskStore{db: db, log: log}
}

// OpenDisk opens a badger database at path, an empty path opens it in memory.
func OpenDisk(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	return db, nil
}

func (d *DiskStore) Get(key string) ([]byte, error) {
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stdErrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (d *DiskStore) Set(key string, value []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	d.log.Debug("Key persisted", "key", key, "bytes", len(value))
	return nil
}

// Delete is a no-op for a missing key.
func (d *DiskStore) Delete(key string) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	d.log.Debug("Key deleted", "key", key)
	return nil
}
