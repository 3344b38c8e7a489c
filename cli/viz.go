// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/viz"
)

// VizGraphCommand renders the workspace as a Graphviz graph.
func VizGraphCommand(ctx context.Context, store *db.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("viz graph", flag.ContinueOnError)
	fs.SetOutput(out)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}
	dot, err := viz.GenerateGraph(ctx, snap)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	_, _ = fmt.Fprintln(out, dot)
	return nil
}

// VizDashboardCommand prints the terminal dashboard.
func VizDashboardCommand(ctx context.Context, store *db.Store, out io.Writer, now time.Time) error {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(out, viz.RenderDashboard(viz.GenerateDashboardStats(snap, now)))
	return nil
}
