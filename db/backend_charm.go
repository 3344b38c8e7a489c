// ABOUTME: Charm KV state backend with optional cloud sync
// ABOUTME: Reads and writes the workspace snapshot through the charm client
package db

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/crmd/charm"
)

// KeyValue is the charm client surface the backend needs.
type KeyValue interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Close() error
}

type CharmBackend struct {
	kv  KeyValue
	key []byte
}

// OpenCharmBackend handles charm://<name>?host=...&autosync=false&config=/path.
func OpenCharmBackend(u *url.URL) (*CharmBackend, error) {
	q := u.Query()
	cfg, err := charm.LoadConfig(q.Get("config"))
	if err != nil {
		return nil, err
	}

	if host := q.Get("host"); host != "" {
		cfg.Host = host
	}
	if v := q.Get("autosync"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.AutoSync = enabled
		}
	}

	client, err := charm.Open(u.Host, cfg)
	if err != nil {
		return nil, err
	}
	return NewCharmBackend(client), nil
}

func NewCharmBackend(kv KeyValue) *CharmBackend {
	return &CharmBackend{kv: kv, key: []byte(StateKey)}
}

func (b *CharmBackend) Load(_ context.Context) (*Snapshot, error) {
	data, err := b.kv.Get(b.key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

func (b *CharmBackend) Save(_ context.Context, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	return b.kv.Set(b.key, data)
}

func (b *CharmBackend) Close() error {
	return b.kv.Close()
}
