// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Builds company summary, follow-up draft and pipeline analysis prompts from live store data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	store *db.Store
}

func NewPromptHandlers(store *db.Store) *PromptHandlers {
	return &PromptHandlers{store: store}
}

// Prompts lists the prompt definitions served by GetPrompt.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "company-summary",
			Description: "Summarize a company with its contacts, deals and recent activity",
			Arguments: []*mcp.PromptArgument{
				{Name: "company_id", Description: "ID of the company", Required: true},
			},
		},
		{
			Name:        "follow-up-draft",
			Description: "Draft a follow-up message to a contact based on their history",
			Arguments: []*mcp.PromptArgument{
				{Name: "contact_id", Description: "ID of the contact", Required: true},
			},
		},
		{
			Name:        "pipeline-analysis",
			Description: "Analyze the deal pipeline and suggest where to focus",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments

	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	switch name {
	case "company-summary":
		return h.getCompanySummaryPrompt(snap, arguments)
	case "follow-up-draft":
		return h.getFollowUpDraftPrompt(snap, arguments)
	case "pipeline-analysis":
		return h.getPipelineAnalysisPrompt(snap)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getCompanySummaryPrompt(snap *db.Snapshot, args map[string]string) (*mcp.GetPromptResult, error) {
	companyID, ok := args["company_id"]
	if !ok || companyID == "" {
		return nil, fmt.Errorf("company_id is required")
	}
	company, ok := snap.Companies.Find(companyID)
	if !ok {
		return nil, &db.NotFoundError{Kind: models.KindCompanies, ID: companyID}
	}

	var promptText strings.Builder
	promptText.WriteString("Please provide a concise account summary for this company:\n\n")
	promptText.WriteString(fmt.Sprintf("Name: %s\n", company.Name))
	if company.Industry != "" {
		promptText.WriteString(fmt.Sprintf("Industry: %s\n", company.Industry))
	}
	if company.Employees > 0 {
		promptText.WriteString(fmt.Sprintf("Employees: %d\n", company.Employees))
	}
	if company.Location != "" {
		promptText.WriteString(fmt.Sprintf("Location: %s\n", company.Location))
	}
	if company.Website != "" {
		promptText.WriteString(fmt.Sprintf("Website: %s\n", company.Website))
	}

	var contacts []string
	for _, c := range snap.Contacts.All() {
		if c.CompanyID == companyID {
			contacts = append(contacts, fmt.Sprintf("- %s, %s", c.Name, c.Title))
		}
	}
	if len(contacts) > 0 {
		promptText.WriteString("\nContacts:\n")
		promptText.WriteString(strings.Join(contacts, "\n"))
		promptText.WriteString("\n")
	}

	var deals []string
	for _, d := range snap.Deals.All() {
		if d.CompanyID == companyID {
			deals = append(deals, fmt.Sprintf("- %s: $%.0f (%s)", d.Title, d.Value, d.Stage))
		}
	}
	if len(deals) > 0 {
		promptText.WriteString("\nDeals:\n")
		promptText.WriteString(strings.Join(deals, "\n"))
		promptText.WriteString("\n")
	}

	writeRecentActivities(&promptText, snap.Activities.All(), models.SubjectCompany, companyID)

	promptText.WriteString("\nSummarize the relationship, highlight open opportunities, and flag any risks.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summary for company: %s", company.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getFollowUpDraftPrompt(snap *db.Snapshot, args map[string]string) (*mcp.GetPromptResult, error) {
	contactID, ok := args["contact_id"]
	if !ok || contactID == "" {
		return nil, fmt.Errorf("contact_id is required")
	}
	contact, ok := snap.Contacts.Find(contactID)
	if !ok {
		return nil, &db.NotFoundError{Kind: models.KindContacts, ID: contactID}
	}

	var promptText strings.Builder
	promptText.WriteString("Draft a short, friendly follow-up email to this contact:\n\n")
	promptText.WriteString(fmt.Sprintf("Name: %s\n", contact.Name))
	if contact.Title != "" {
		promptText.WriteString(fmt.Sprintf("Title: %s\n", contact.Title))
	}
	if company, ok := snap.Companies.Find(contact.CompanyID); ok {
		promptText.WriteString(fmt.Sprintf("Company: %s\n", company.Name))
	}
	if !contact.LastContacted.IsZero() {
		promptText.WriteString(fmt.Sprintf("Last Contacted: %s\n", contact.LastContacted.Format("2006-01-02")))
	}

	for _, d := range snap.Deals.All() {
		if d.ContactID == contactID && d.Stage != models.StageClosedWon && d.Stage != models.StageClosedLost {
			promptText.WriteString(fmt.Sprintf("Open deal: %s ($%.0f, %s)\n", d.Title, d.Value, d.Stage))
		}
	}

	writeRecentActivities(&promptText, snap.Activities.All(), models.SubjectContact, contactID)

	promptText.WriteString("\nReference the most recent interaction and propose a concrete next step.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Follow-up draft for %s", contact.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getPipelineAnalysisPrompt(snap *db.Snapshot) (*mcp.GetPromptResult, error) {
	var promptText strings.Builder
	promptText.WriteString("Analyze this sales pipeline:\n\n")

	summary := PipelineSummary(snap.Deals.All())
	if len(summary) == 0 {
		promptText.WriteString("There are no deals in the pipeline.\n")
	}
	for _, s := range summary {
		promptText.WriteString(fmt.Sprintf("%s: %d deals, $%.0f\n", s.Stage, s.Count, s.Value))
	}

	promptText.WriteString("\nProvide insights on:\n")
	promptText.WriteString("1. Where deals are getting stuck\n")
	promptText.WriteString("2. Which stages need attention\n")
	promptText.WriteString("3. Recommended next actions to move deals forward\n")

	return &mcp.GetPromptResult{
		Description: "Deal pipeline analysis",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

// writeRecentActivities appends up to five activities attributed to id.
// Activities are stored newest first.
func writeRecentActivities(b *strings.Builder, activities []models.Activity, subject models.Subject, id string) {
	var lines []string
	for _, a := range activities {
		if !subject.Matches(a, id) {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s %s: %s", a.Date.Format("2006-01-02"), a.Type, a.Subject))
		if len(lines) == 5 {
			break
		}
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("\nRecent activity:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
}
