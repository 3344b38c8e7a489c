// ABOUTME: Migration utility for moving a workspace between state backends
// ABOUTME: Copies the snapshot from one DSN to another with dry-run and overwrite protection

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
)

func main() {
	from := flag.String("from", "", "Source state DSN (required)")
	to := flag.String("to", "", "Destination state DSN (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	force := flag.Bool("force", false, "Overwrite a destination that already holds a workspace")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "migrate"})

	if *from == "" || *to == "" {
		logger.Fatal("both -from and -to are required")
	}

	if err := migrate(context.Background(), *from, *to, *dryRun, *force, os.Stdout, logger); err != nil {
		logger.Fatal("migration failed", "err", err)
	}

	logger.Info("migration completed successfully")
}

func migrate(ctx context.Context, from, to string, dryRun, force bool, out io.Writer, logger *log.Logger) error {
	if from == to {
		return errors.New("source and destination are the same")
	}

	src, err := db.OpenBackend(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	snap, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("source %s holds no workspace", from)
	}

	dst, err := db.OpenBackend(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer func() { _ = dst.Close() }()

	existing, err := dst.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect destination: %w", err)
	}
	if existing != nil && !force {
		logger.Warn("destination already holds a workspace", "to", to)
		return errors.New("migration requires -force to overwrite the destination")
	}

	prefix := ""
	if dryRun {
		prefix = "[DRY RUN] "
	}
	for _, kind := range models.Kinds {
		_, _ = fmt.Fprintf(out, "%s%-14s %d\n", prefix, kind, snap.Len(kind))
	}

	if dryRun {
		_, _ = fmt.Fprintf(out, "%sWould copy workspace to %s\n", prefix, to)
		return nil
	}

	if err := dst.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to write destination: %w", err)
	}
	logger.Info("workspace copied", "from", from, "to", to)
	return nil
}
