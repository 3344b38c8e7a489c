// ABOUTME: Company enrichment wiring shared by the long-running commands
// ABOUTME: Builds the completion client and worker, installs it on the store and drains it on exit
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/config"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/enrich"
)

const workerShutdownTimeout = 15 * time.Second

// startEnrichment installs an enrichment worker on store when completion is
// configured. stop drains the worker and is safe to call when it is nil.
func startEnrichment(cfg *config.Config, store *db.Store, logger *log.Logger) (*enrich.Worker, func(), error) {
	worker, err := newEnrichWorker(cfg, store, logger)
	if err != nil {
		return nil, func() {}, err
	}
	if worker == nil {
		return nil, func() {}, nil
	}
	store.SetEnricher(worker)

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		defer cancel()
		if err := worker.Close(ctx); err != nil {
			logger.Warn("enrichment worker did not drain", "err", err)
		}
	}
	return worker, stop, nil
}

// newEnrichWorker returns nil when no completion backend is configured.
func newEnrichWorker(cfg *config.Config, store *db.Store, logger *log.Logger) (*enrich.Worker, error) {
	if !cfg.CompletionEnabled() {
		logger.Warn("enrichment disabled: no completion endpoint or model configured")
		return nil, nil
	}

	completer, err := enrich.NewHTTPCompleter(enrich.HTTPCompleterOptions{
		Endpoint: cfg.CompletionEndpoint,
		Model:    cfg.CompletionModel,
		APIKey:   cfg.CompletionAPIKey,
		Timeout:  cfg.CompletionTimeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure enrichment: %w", err)
	}

	return enrich.NewWorker(completer, store, enrich.Options{
		Workers:   cfg.EnrichWorkers,
		QueueSize: cfg.EnrichQueueSize,
		Timeout:   cfg.CompletionTimeout.Duration,
		Logger:    logger,
	}), nil
}
