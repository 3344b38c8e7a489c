// ABOUTME: Embedded BadgerDB state backend
// ABOUTME: Stores the snapshot under the workspace key in a local badger directory
package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

type BadgerBackend struct {
	db  *badger.DB
	key []byte
}

func OpenBadgerBackend(dir string) (*BadgerBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(nil) // badger logs to stderr otherwise

	database, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerBackend{db: database, key: []byte(StateKey)}, nil
}

func (b *BadgerBackend) Load(_ context.Context) (*Snapshot, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

func (b *BadgerBackend) Save(_ context.Context, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
