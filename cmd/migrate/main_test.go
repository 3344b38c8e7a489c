// ABOUTME: Tests for the workspace migration utility
// ABOUTME: Copies between file and sqlite backends in temporary directories

package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crm.json")
	backend := db.NewFileBackend(path)
	snap := &db.Snapshot{
		Contacts:  db.NewCollection(models.Contact{ID: "contact-1", Name: "Ada"}),
		Companies: db.NewCollection(models.Company{ID: "comp-1", Name: "ACME"}, models.Company{ID: "comp-2", Name: "Globex"}),
	}
	require.NoError(t, backend.Save(context.Background(), snap))
	return "file://" + path
}

func TestMigrateCopiesSnapshot(t *testing.T) {
	ctx := context.Background()
	from := seedFile(t)
	to := "sqlite://" + filepath.Join(t.TempDir(), "crm.db")

	var out bytes.Buffer
	require.NoError(t, migrate(ctx, from, to, false, false, &out, log.New(io.Discard)))
	assert.Contains(t, out.String(), "companies      2")

	dst, err := db.OpenBackend(ctx, to)
	require.NoError(t, err)
	defer func() { _ = dst.Close() }()
	snap, err := dst.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Contacts.Len())
	assert.Equal(t, 2, snap.Companies.Len())
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	from := seedFile(t)
	toPath := filepath.Join(t.TempDir(), "out.json")

	var out bytes.Buffer
	require.NoError(t, migrate(ctx, from, "file://"+toPath, true, false, &out, log.New(io.Discard)))
	assert.Contains(t, out.String(), "[DRY RUN] contacts       1")
	assert.DirExists(t, filepath.Dir(toPath))
	assert.NoFileExists(t, toPath)
}

func TestMigrateRefusesToOverwrite(t *testing.T) {
	ctx := context.Background()
	from := seedFile(t)
	to := seedFile(t)

	err := migrate(ctx, from, to, false, false, io.Discard, log.New(io.Discard))
	assert.ErrorContains(t, err, "-force")

	assert.NoError(t, migrate(ctx, from, to, false, true, io.Discard, log.New(io.Discard)))
}

func TestMigrateErrors(t *testing.T) {
	ctx := context.Background()
	empty := "file://" + filepath.Join(t.TempDir(), "none.json")

	assert.Error(t, migrate(ctx, empty, empty, false, false, io.Discard, log.New(io.Discard)))
	assert.ErrorContains(t, migrate(ctx, empty, "memory://", false, false, io.Discard, log.New(io.Discard)), "holds no workspace")
	assert.Error(t, migrate(ctx, "ftp://x", "memory://", false, false, io.Discard, log.New(io.Discard)))
}
