// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes the pipeline, unread notifications, stale deals and strongest relationships
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
)

const (
	staleDealDays = 7
	topRelations  = 5
	barWidth      = 10
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	stageStyle = lipgloss.NewStyle().
			Width(13)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type DashboardStats struct {
	// Pipeline overview, in stage order
	Pipeline []PipelineStageStats

	TotalContacts  int
	TotalCompanies int
	TotalDeals     int
	OpenLeads      int

	UnreadNotifications int

	// Open deals without activity in the last week
	StaleDeals []StaleDeal

	// Highest scoring contacts
	TopContacts []ScoredContact
}

type PipelineStageStats struct {
	Stage string
	Count int
	Value float64
}

type StaleDeal struct {
	Title string
	// DaysSince is -1 when the deal has no activity at all.
	DaysSince int
}

type ScoredContact struct {
	Name  string
	Score int
}

// GenerateDashboardStats computes the dashboard from snap as of now.
func GenerateDashboardStats(snap *db.Snapshot, now time.Time) *DashboardStats {
	deals := snap.Deals.All()
	activities := snap.Activities.All()

	stats := &DashboardStats{
		TotalContacts:  snap.Contacts.Len(),
		TotalCompanies: snap.Companies.Len(),
		TotalDeals:     len(deals),
		OpenLeads:      snap.Leads.Len(),
	}

	byStage := make(map[string]*PipelineStageStats)
	for _, deal := range deals {
		s, ok := byStage[deal.Stage]
		if !ok {
			s = &PipelineStageStats{Stage: deal.Stage}
			byStage[deal.Stage] = s
		}
		s.Count++
		s.Value += deal.Value
	}
	for _, stage := range models.Stages {
		if s, ok := byStage[stage]; ok {
			stats.Pipeline = append(stats.Pipeline, *s)
		}
	}

	for _, n := range snap.Notifications.All() {
		if !n.IsRead {
			stats.UnreadNotifications++
		}
	}

	lastActivity := make(map[string]time.Time)
	for _, a := range activities {
		if a.DealID == "" {
			continue
		}
		if a.Date.After(lastActivity[a.DealID]) {
			lastActivity[a.DealID] = a.Date
		}
	}
	for _, deal := range deals {
		if !deal.IsOpen() {
			continue
		}
		last, ok := lastActivity[deal.ID]
		if !ok {
			stats.StaleDeals = append(stats.StaleDeals, StaleDeal{Title: deal.Title, DaysSince: -1})
			continue
		}
		days := int(now.Sub(last).Hours() / 24)
		if days > staleDealDays {
			stats.StaleDeals = append(stats.StaleDeals, StaleDeal{Title: deal.Title, DaysSince: days})
		}
	}

	for _, c := range snap.Contacts.All() {
		stats.TopContacts = append(stats.TopContacts, ScoredContact{
			Name:  c.Name,
			Score: models.RelationshipStrength(c.ID, models.SubjectContact, activities, now),
		})
	}
	sort.SliceStable(stats.TopContacts, func(i, j int) bool {
		return stats.TopContacts[i].Score > stats.TopContacts[j].Score
	})
	if len(stats.TopContacts) > topRelations {
		stats.TopContacts = stats.TopContacts[:topRelations]
	}

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString(titleStyle.Render("CRM DASHBOARD"))
	out.WriteString("\n\n")

	out.WriteString(headerStyle.Render("PIPELINE"))
	out.WriteString("\n")
	if len(stats.Pipeline) == 0 {
		out.WriteString(mutedStyle.Render("  No deals yet"))
		out.WriteString("\n")
	}
	renderPipeline(&out, stats.Pipeline)
	out.WriteString("\n")

	out.WriteString(headerStyle.Render("STATS"))
	out.WriteString("\n")
	out.WriteString(fmt.Sprintf("  %d contacts  %d companies  %d deals  %d leads\n",
		stats.TotalContacts, stats.TotalCompanies, stats.TotalDeals, stats.OpenLeads))
	out.WriteString(fmt.Sprintf("  %d unread notification(s)\n\n", stats.UnreadNotifications))

	if len(stats.TopContacts) > 0 {
		out.WriteString(headerStyle.Render("STRONGEST RELATIONSHIPS"))
		out.WriteString("\n")
		for _, c := range stats.TopContacts {
			out.WriteString(fmt.Sprintf("  %3d  %s\n", c.Score, c.Name))
		}
		out.WriteString("\n")
	}

	if len(stats.StaleDeals) > 0 {
		out.WriteString(headerStyle.Render("NEEDS ATTENTION"))
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(fmt.Sprintf("  %d open deal(s) with no activity in %d+ days", len(stats.StaleDeals), staleDealDays)))
		out.WriteString("\n")
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline []PipelineStageStats) {
	maxCount := 1
	for _, s := range pipeline {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}

	for _, s := range pipeline {
		filled := (s.Count * barWidth) / maxCount
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		out.WriteString(fmt.Sprintf("  %s %s  %2d ($%.0fK)\n",
			stageStyle.Render(s.Stage), bar, s.Count, s.Value/1000))
	}
}
