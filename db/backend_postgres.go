// ABOUTME: Postgres state backend using pgx through database/sql
// ABOUTME: Upserts the snapshot into crm_state, creating the table on first use
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const postgresOperationTimeout = 5 * time.Second

type PostgresBackend struct {
	dsn      string
	table    string
	stateKey string

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewPostgresBackend(dsn string) (*PostgresBackend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	return &PostgresBackend{
		dsn:      dsn,
		table:    "crm_state",
		stateKey: StateKey,
	}, nil
}

func (b *PostgresBackend) Load(ctx context.Context) (*Snapshot, error) {
	if err := b.ensureReady(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	var payload string
	err := b.db.QueryRowContext(ctx,
		`SELECT snapshot FROM `+quoteIdentifier(b.table)+` WHERE state_key = $1`, b.stateKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot([]byte(payload))
}

func (b *PostgresBackend) Save(ctx context.Context, snap *Snapshot) error {
	if err := b.ensureReady(ctx); err != nil {
		return err
	}
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO `+quoteIdentifier(b.table)+` (state_key, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (state_key)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`, b.stateKey, string(payload))
	return err
}

func (b *PostgresBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *PostgresBackend) ensureReady(ctx context.Context) error {
	b.initOnce.Do(func() {
		database, err := sql.Open("pgx", b.dsn)
		if err != nil {
			b.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
		defer cancel()

		_, err = database.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS `+quoteIdentifier(b.table)+` (
				state_key TEXT PRIMARY KEY,
				snapshot TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`)
		if err != nil {
			_ = database.Close()
			b.initErr = err
			return
		}
		b.db = database
	})
	return b.initErr
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
