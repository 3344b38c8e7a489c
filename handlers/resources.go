// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Serves every entity collection, single records, and a pipeline summary under crm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "crm://"

type ResourceHandlers struct {
	store *db.Store
}

func NewResourceHandlers(store *db.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// StageSummary aggregates the open and closed deals in one pipeline stage.
type StageSummary struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	path := strings.TrimPrefix(uri, resourceScheme)
	parts := strings.Split(path, "/")

	if parts[0] == "pipeline" {
		return h.readPipeline(ctx, uri)
	}

	kind, err := models.ParseKind(parts[0])
	if err != nil {
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if len(parts) == 1 {
		return h.readAll(ctx, uri, kind)
	}
	return h.readOne(ctx, uri, kind, parts[1])
}

func (h *ResourceHandlers) readAll(ctx context.Context, uri string, kind models.Kind) (*mcp.ReadResourceResult, error) {
	res, err := h.store.ResourceFor(kind)
	if err != nil {
		return nil, err
	}
	raw, err := res.ListJSON(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []map[string]any{}
	}
	return jsonContents(uri, records)
}

func (h *ResourceHandlers) readOne(ctx context.Context, uri string, kind models.Kind, id string) (*mcp.ReadResourceResult, error) {
	res, err := h.store.ResourceFor(kind)
	if err != nil {
		return nil, err
	}
	raw, err := res.ListJSON(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec["id"] == id {
			return jsonContents(uri, rec)
		}
	}
	return nil, &db.NotFoundError{Kind: kind, ID: id}
}

func (h *ResourceHandlers) readPipeline(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}
	return jsonContents(uri, PipelineSummary(snap.Deals.All()))
}

// PipelineSummary groups deals by stage in pipeline order.
func PipelineSummary(deals []models.Deal) []StageSummary {
	byStage := make(map[string]*StageSummary)
	for _, d := range deals {
		s, ok := byStage[d.Stage]
		if !ok {
			s = &StageSummary{Stage: d.Stage}
			byStage[d.Stage] = s
		}
		s.Count++
		s.Value += d.Value
	}

	out := make([]StageSummary, 0, len(byStage))
	for _, s := range byStage {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return stageRank(out[i].Stage) < stageRank(out[j].Stage)
	})
	return out
}

func stageRank(stage string) int {
	for i, s := range models.Stages {
		if s == stage {
			return i
		}
	}
	return len(models.Stages)
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
