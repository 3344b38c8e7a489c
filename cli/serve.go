// ABOUTME: HTTP API subcommand
// ABOUTME: Wires the store, enrichment worker, change feed and web server, then shuts them down in order
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/config"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/web"
)

// ServeCommand runs the HTTP API until ctx is cancelled.
func ServeCommand(ctx context.Context, cfg *config.Config, store *db.Store, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(level)

	server := web.NewServer(store, web.Config{Logger: logger})
	store.SetObserver(server.Publish)

	worker, stop, err := startEnrichment(cfg, store, logger)
	if err != nil {
		return err
	}
	defer stop()
	if worker != nil {
		if err := worker.Register(server.Registerer()); err != nil {
			return fmt.Errorf("failed to register enrichment metrics: %w", err)
		}
	}

	if err := store.Hydrate(ctx); err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	return server.ListenAndServe(ctx, cfg.Addr)
}
