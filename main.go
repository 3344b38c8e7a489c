// ABOUTME: Entry point for the crmd HTTP API, MCP server and CLI
// ABOUTME: Loads config, opens the state backend and routes to the requested command
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/charm"
	"github.com/harperreed/crmd/cli"
	"github.com/harperreed/crmd/config"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/tui"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	statePath := flag.String("state", "", "State DSN or sqlite path (default: ~/.local/share/crmd/crm.db)")
	configPath := flag.String("config", "", "Config file (default: ~/.config/crmd/config.json)")
	initOnly := flag.Bool("init", false, "Initialize the workspace and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("crmd version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *statePath != "" {
		cfg.StateDSN = *statePath
	}

	logger, err := cli.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		return
	}

	// Sync talks to charm directly and needs no workspace.
	if len(args) > 0 && args[0] == "sync" {
		if err := runSync(args[1:]); err != nil {
			logger.Fatal("sync failed", "err", err)
		}
		return
	}

	store, err := openStore(ctx, cfg.StateDSN, logger)
	if err != nil {
		logger.Fatal("failed to open workspace", "state", cfg.StateDSN, "err", err)
	}
	defer func() { _ = store.Close() }()

	if *initOnly {
		if err := store.Hydrate(ctx); err != nil {
			logger.Fatal("failed to initialize workspace", "err", err)
		}
		logger.Info("workspace initialized", "state", cfg.StateDSN)
		return
	}

	if err := run(ctx, cfg, store, logger, args[0], args[1:]); err != nil {
		logger.Error("command failed", "command", args[0], "err", err)
		_ = store.Close()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, dsn string, logger *log.Logger) (*db.Store, error) {
	backend, err := db.OpenBackend(ctx, dsn)
	if err != nil {
		return nil, err
	}
	// The store shares the process logger so serve --log-level reaches it too.
	store, err := db.NewStore(backend, db.Options{Logger: logger})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return store, nil
}

func run(ctx context.Context, cfg *config.Config, store *db.Store, logger *log.Logger, command string, args []string) error {
	switch command {
	case "serve":
		return cli.ServeCommand(ctx, cfg, store, logger, args)

	case "mcp":
		return cli.MCPCommand(ctx, cfg, store, version, logger)

	case "tui":
		return tui.Run(ctx, store)

	case "crm":
		if len(args) == 0 {
			printUsage()
			return fmt.Errorf("crm requires a subcommand")
		}
		out := os.Stdout
		switch args[0] {
		case "list":
			return cli.ListCommand(ctx, store, out, args[1:])
		case "convert-lead":
			return cli.ConvertLeadCommand(ctx, store, out, args[1:])
		case "notify":
			return cli.NotifyCommand(ctx, store, out, args[1:])
		case "mark-read":
			return cli.MarkReadCommand(ctx, store, out, args[1:])
		case "strength":
			return cli.StrengthCommand(ctx, store, out, args[1:])
		default:
			printUsage()
			return fmt.Errorf("unknown crm command: %s", args[0])
		}

	case "viz":
		if len(args) == 0 {
			printUsage()
			return fmt.Errorf("viz requires a subcommand")
		}
		switch args[0] {
		case "graph":
			return cli.VizGraphCommand(ctx, store, os.Stdout, args[1:])
		case "dashboard":
			return cli.VizDashboardCommand(ctx, store, os.Stdout, time.Now())
		default:
			printUsage()
			return fmt.Errorf("unknown viz command: %s", args[0])
		}

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runSync(args []string) error {
	if len(args) == 0 {
		return charm.SyncStatusCommand(os.Stdout, nil)
	}
	switch args[0] {
	case "status":
		return charm.SyncStatusCommand(os.Stdout, args[1:])
	case "now":
		return charm.SyncNowCommand(os.Stdout, args[1:])
	case "auto":
		return charm.SetAutoSyncCommand(os.Stdout, args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown sync command: %s", args[0])
	}
}

func printUsage() {
	fmt.Printf(`crmd v%s - CRM workspace server

USAGE:
  crmd [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --state <dsn>          State backend (default: ~/.local/share/crmd/crm.db)
                         sqlite://, file://, badger://, charm://, redis://,
                         postgres://, s3:// or memory://
  --config <path>        Config file (default: ~/.config/crmd/config.json)
  --init                 Load or seed the workspace and exit

COMMANDS:
  serve                  Run the HTTP API
    --addr <addr>          Listen address (default: :8080)
    --log-level <level>    debug, info, warn or error
    --completion-endpoint  OpenAI-compatible base URL for company enrichment
    --completion-model     Model used for enrichment
    --completion-timeout   Timeout per enrichment call (default: 30s)
    --enrich-workers <n>   Enrichment workers (default: 2)
    --enrich-queue <n>     Enrichment queue size (default: 64)

  mcp                    Start MCP server (for Claude Desktop integration)
  tui                    Browse the workspace in a full-screen terminal UI

CRM COMMANDS:
  crmd crm list [--limit n] <kind>   List records of one kind
  crmd crm convert-lead <id>         Convert a lead into a contact and deal
  crmd crm notify                    Generate pipeline notifications
  crmd crm mark-read                 Mark every notification read
  crmd crm strength <contact|company> <id>
                                     Show relationship strength

VIZ COMMANDS:
  crmd viz dashboard                 Terminal pipeline dashboard
  crmd viz graph [--output <file>]   Graphviz graph of the workspace

SYNC COMMANDS:
  crmd sync status                   Show charm sync status
  crmd sync now                      Sync the charm database now
  crmd sync auto --enable|--disable  Toggle auto-sync

ENVIRONMENT:
  CRMD_ADDR, CRMD_STATE, CRMD_LOG_LEVEL, CRMD_COMPLETION_ENDPOINT,
  CRMD_COMPLETION_MODEL, CRMD_COMPLETION_API_KEY, CRMD_COMPLETION_TIMEOUT,
  CRMD_ENRICH_WORKERS, CRMD_ENRICH_QUEUE_SIZE (also read from .env)

EXAMPLES:
  # Serve the API on port 9000 backed by redis
  crmd --state redis://localhost:6379/0 serve --addr :9000

  # Start MCP server for Claude Desktop
  crmd mcp

  # Convert a lead
  crmd crm convert-lead lead-3

`, version)
}
