// ABOUTME: CLI commands for Charm KV sync of the workspace snapshot
// ABOUTME: SSH key auth is handled by charm, so there is no login/logout

package charm

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

func syncFlags(name string, out io.Writer) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	db := fs.String("name", AppName, "Charm database name")
	cfgPath := fs.String("config", DefaultConfigPath(), "Charm config file")
	return fs, db, cfgPath
}

// SyncStatusCommand shows current sync configuration and status.
func SyncStatusCommand(out io.Writer, args []string) error {
	fs, name, cfgPath := syncFlags("sync status", out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Charm Sync Status")
	_, _ = fmt.Fprintln(out, "─────────────────")
	_, _ = fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(out, "Database:  %s\n", *name)
	_, _ = fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)
	_, _ = fmt.Fprintf(out, "Stale:     %s\n", cfg.StaleThreshold)

	c, err := Open(*name, cfg)
	if err != nil {
		_, _ = fmt.Fprintln(out, "\nStatus: Not connected")
		return nil //nolint:nilerr // not connected is a valid state
	}
	defer func() { _ = c.Close() }()

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(out, "\nStatus: Connected (ID unavailable)")
	} else {
		_, _ = fmt.Fprintln(out, "\nStatus: Connected to Charm Cloud")
		_, _ = fmt.Fprintf(out, "ID:        %s\n", id)
	}

	if keys, err := c.Keys(); err == nil {
		_, _ = fmt.Fprintf(out, "Keys:      %d\n", len(keys))
	}

	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(out io.Writer, args []string) error {
	fs, name, cfgPath := syncFlags("sync now", out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := Open(*name, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	_, _ = fmt.Fprintln(out, "✓ Synced")
	return nil
}

// SetAutoSyncCommand enables or disables auto-sync.
func SetAutoSyncCommand(out io.Writer, args []string) error {
	fs, _, cfgPath := syncFlags("sync auto", out)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *enable == *disable {
		return errors.New("usage: crmd sync auto --enable|--disable")
	}

	cfg, err := LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to update auto-sync: %w", err)
	}

	if *enable {
		_, _ = fmt.Fprintln(out, "✓ Auto-sync enabled")
	} else {
		_, _ = fmt.Fprintln(out, "✓ Auto-sync disabled")
	}
	return nil
}
