// ABOUTME: CRM CLI commands over the entity store
// ABOUTME: Lists any entity kind and runs lead conversion, notification and strength workflows
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
)

const maxCellWidth = 48

// ListCommand prints the records of one kind.
func ListCommand(ctx context.Context, store *db.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	limit := fs.Int("limit", 50, "Max results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: crm list [--limit n] <kind>")
	}

	kind, err := models.ParseKind(fs.Arg(0))
	if err != nil {
		return err
	}
	res, err := store.ResourceFor(kind)
	if err != nil {
		return err
	}
	raw, err := res.ListJSON(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", kind, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintf(out, "No %s found\n", kind)
		return nil
	}
	total := len(records)
	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}

	columns := append([]string{"id"}, kind.SummaryFields()...)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	rules := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
		rules[i] = strings.Repeat("-", len(c))
	}
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(rules, "\t"))
	for _, rec := range records {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = formatCell(rec[c])
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()

	if total > len(records) {
		_, _ = fmt.Fprintf(out, "\nShowing %d of %d %s\n", len(records), total, kind)
	} else {
		_, _ = fmt.Fprintf(out, "\nTotal: %d %s\n", total, kind)
	}
	return nil
}

func formatCell(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case float64:
		if val == float64(int64(val)) {
			s = fmt.Sprintf("%d", int64(val))
		} else {
			s = fmt.Sprintf("%.2f", val)
		}
	default:
		s = fmt.Sprint(val)
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxCellWidth {
		s = s[:maxCellWidth-3] + "..."
	}
	return s
}

// ConvertLeadCommand converts a lead into a contact and a qualified deal.
func ConvertLeadCommand(ctx context.Context, store *db.Store, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: crm convert-lead <lead-id>")
	}

	result, err := store.ConvertLead(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to convert lead: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Lead converted: %s\n", result.Contact.Name)
	if result.CompanyCreated {
		_, _ = fmt.Fprintf(out, "  Company: %s (ID: %s, new)\n", result.Company.Name, result.Company.ID)
	} else {
		_, _ = fmt.Fprintf(out, "  Company: %s (ID: %s)\n", result.Company.Name, result.Company.ID)
	}
	_, _ = fmt.Fprintf(out, "  Contact: %s (ID: %s)\n", result.Contact.Name, result.Contact.ID)
	_, _ = fmt.Fprintf(out, "  Deal:    %s (ID: %s, %s)\n", result.Deal.Title, result.Deal.ID, result.Deal.Stage)
	return nil
}

// NotifyCommand runs the notification generator.
func NotifyCommand(ctx context.Context, store *db.Store, out io.Writer, _ []string) error {
	batch, err := store.GenerateNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate notifications: %w", err)
	}
	if len(batch) == 0 {
		_, _ = fmt.Fprintln(out, "No new notifications")
		return nil
	}

	_, _ = fmt.Fprintf(out, "✓ Generated %d notification(s)\n", len(batch))
	for _, n := range batch {
		_, _ = fmt.Fprintf(out, "  [%s] %s\n", n.Type, n.Message)
	}
	return nil
}

// MarkReadCommand marks every notification read.
func MarkReadCommand(ctx context.Context, store *db.Store, out io.Writer, _ []string) error {
	all, err := store.MarkAllNotificationsRead(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Marked %d notification(s) read\n", len(all))
	return nil
}

// StrengthCommand prints the relationship strength of a contact or company.
func StrengthCommand(ctx context.Context, store *db.Store, out io.Writer, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: crm strength <contact|company> <id>")
	}
	subject, ok := models.ParseSubject(args[0])
	if !ok {
		return fmt.Errorf("subject must be contact or company, got %q", args[0])
	}

	s, err := store.RelationshipStrength(ctx, subject, args[1])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s (%s %s): %d/100 from %d activities\n", s.Name, s.Subject, s.ID, s.Score, s.Activities)
	return nil
}
