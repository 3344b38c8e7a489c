// ABOUTME: Workflow MCP tool handlers
// ABOUTME: Implements convert_lead, generate_notifications, mark_notifications_read and relationship_strength
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type WorkflowHandlers struct {
	store *db.Store
}

func NewWorkflowHandlers(store *db.Store) *WorkflowHandlers {
	return &WorkflowHandlers{store: store}
}

type ConvertLeadInput struct {
	LeadID string `json:"lead_id" jsonschema:"ID of the lead to convert"`
}

type ConvertLeadOutput struct {
	Company        map[string]any `json:"company"`
	Contact        map[string]any `json:"contact"`
	Deal           map[string]any `json:"deal"`
	CompanyCreated bool           `json:"company_created"`
}

type NoInput struct{}

type NotificationsOutput struct {
	Count         int              `json:"count"`
	Notifications []map[string]any `json:"notifications"`
}

type StrengthInput struct {
	Subject string `json:"subject" jsonschema:"Either contact or company"`
	ID      string `json:"id" jsonschema:"ID of the contact or company"`
}

type StrengthOutput struct {
	Subject    string `json:"subject"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Activities int    `json:"activities"`
}

func (h *WorkflowHandlers) ConvertLead(ctx context.Context, _ *mcp.CallToolRequest, input ConvertLeadInput) (*mcp.CallToolResult, ConvertLeadOutput, error) {
	if input.LeadID == "" {
		return nil, ConvertLeadOutput{}, fmt.Errorf("lead_id is required")
	}
	result, err := h.store.ConvertLead(ctx, input.LeadID)
	if err != nil {
		return nil, ConvertLeadOutput{}, fmt.Errorf("failed to convert lead: %w", err)
	}

	out := ConvertLeadOutput{CompanyCreated: result.CompanyCreated}
	if out.Company, err = recordMap(result.Company); err != nil {
		return nil, ConvertLeadOutput{}, err
	}
	if out.Contact, err = recordMap(result.Contact); err != nil {
		return nil, ConvertLeadOutput{}, err
	}
	if out.Deal, err = recordMap(result.Deal); err != nil {
		return nil, ConvertLeadOutput{}, err
	}
	return nil, out, nil
}

func (h *WorkflowHandlers) GenerateNotifications(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, NotificationsOutput, error) {
	batch, err := h.store.GenerateNotifications(ctx)
	if err != nil {
		return nil, NotificationsOutput{}, fmt.Errorf("failed to generate notifications: %w", err)
	}
	return notificationsOutput(batch)
}

func (h *WorkflowHandlers) MarkNotificationsRead(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, NotificationsOutput, error) {
	all, err := h.store.MarkAllNotificationsRead(ctx)
	if err != nil {
		return nil, NotificationsOutput{}, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return notificationsOutput(all)
}

func (h *WorkflowHandlers) RelationshipStrength(ctx context.Context, _ *mcp.CallToolRequest, input StrengthInput) (*mcp.CallToolResult, StrengthOutput, error) {
	subject, ok := models.ParseSubject(input.Subject)
	if !ok {
		return nil, StrengthOutput{}, fmt.Errorf("subject must be contact or company, got %q", input.Subject)
	}
	s, err := h.store.RelationshipStrength(ctx, subject, input.ID)
	if err != nil {
		return nil, StrengthOutput{}, err
	}
	return nil, StrengthOutput{
		Subject:    string(s.Subject),
		ID:         s.ID,
		Name:       s.Name,
		Score:      s.Score,
		Activities: s.Activities,
	}, nil
}

func notificationsOutput(list []models.Notification) (*mcp.CallToolResult, NotificationsOutput, error) {
	out := NotificationsOutput{Count: len(list), Notifications: make([]map[string]any, 0, len(list))}
	for _, n := range list {
		m, err := recordMap(n)
		if err != nil {
			return nil, NotificationsOutput{}, err
		}
		out.Notifications = append(out.Notifications, m)
	}
	return nil, out, nil
}
