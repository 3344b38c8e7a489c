// ABOUTME: Generic record MCP tool handlers
// ABOUTME: Implements list_records, create_record, update_record and delete_record over every entity kind
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type RecordHandlers struct {
	store *db.Store
}

func NewRecordHandlers(store *db.Store) *RecordHandlers {
	return &RecordHandlers{store: store}
}

type ListRecordsInput struct {
	Kind  string `json:"kind" jsonschema:"Entity kind: contacts, companies, deals, leads, activities, notifications, comments, users, tasks, goals, icps or articles"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of records to return, newest first (default 50)"`
}

type RecordsOutput struct {
	Kind    string           `json:"kind"`
	Total   int              `json:"total"`
	Records []map[string]any `json:"records"`
}

type CreateRecordInput struct {
	Kind   string         `json:"kind" jsonschema:"Entity kind to create"`
	Record map[string]any `json:"record" jsonschema:"The full record including a unique string id"`
}

type UpdateRecordInput struct {
	Kind   string         `json:"kind" jsonschema:"Entity kind to update"`
	ID     string         `json:"id" jsonschema:"ID of the record to replace"`
	Record map[string]any `json:"record" jsonschema:"The replacement record"`
}

type RecordOutput struct {
	Kind   string         `json:"kind"`
	Record map[string]any `json:"record"`
}

type DeleteRecordInput struct {
	Kind string `json:"kind" jsonschema:"Entity kind to delete from"`
	ID   string `json:"id" jsonschema:"ID of the record to delete"`
}

type DeleteRecordOutput struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *RecordHandlers) resource(kind string) (db.Resource, error) {
	k, err := models.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return h.store.ResourceFor(k)
}

func (h *RecordHandlers) ListRecords(ctx context.Context, _ *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, RecordsOutput, error) {
	res, err := h.resource(input.Kind)
	if err != nil {
		return nil, RecordsOutput{}, err
	}
	raw, err := res.ListJSON(ctx)
	if err != nil {
		return nil, RecordsOutput{}, fmt.Errorf("failed to list %s: %w", input.Kind, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, RecordsOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	total := len(records)
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []map[string]any{}
	}
	return nil, RecordsOutput{Kind: string(res.Kind()), Total: total, Records: records}, nil
}

func (h *RecordHandlers) CreateRecord(ctx context.Context, _ *mcp.CallToolRequest, input CreateRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	res, err := h.resource(input.Kind)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	body, err := json.Marshal(input.Record)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	raw, err := res.CreateJSON(ctx, body)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to create %s record: %w", input.Kind, err)
	}
	record, err := toMap(raw)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	return nil, RecordOutput{Kind: string(res.Kind()), Record: record}, nil
}

func (h *RecordHandlers) UpdateRecord(ctx context.Context, _ *mcp.CallToolRequest, input UpdateRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	if input.ID == "" {
		return nil, RecordOutput{}, fmt.Errorf("id is required")
	}
	res, err := h.resource(input.Kind)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	body, err := json.Marshal(input.Record)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	raw, err := res.UpdateJSON(ctx, input.ID, body)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to update %s record: %w", input.Kind, err)
	}
	record, err := toMap(raw)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	return nil, RecordOutput{Kind: string(res.Kind()), Record: record}, nil
}

func (h *RecordHandlers) DeleteRecord(ctx context.Context, _ *mcp.CallToolRequest, input DeleteRecordInput) (*mcp.CallToolResult, DeleteRecordOutput, error) {
	if input.ID == "" {
		return nil, DeleteRecordOutput{}, fmt.Errorf("id is required")
	}
	res, err := h.resource(input.Kind)
	if err != nil {
		return nil, DeleteRecordOutput{}, err
	}
	if _, err := res.DeleteJSON(ctx, input.ID); err != nil {
		return nil, DeleteRecordOutput{}, fmt.Errorf("failed to delete %s record: %w", input.Kind, err)
	}
	return nil, DeleteRecordOutput{Kind: string(res.Kind()), ID: input.ID, Deleted: true}, nil
}

func toMap(raw json.RawMessage) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// recordMap converts a typed record into the loose map form used in tool output.
func recordMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return toMap(raw)
}
