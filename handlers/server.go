// ABOUTME: Builds the MCP server with every CRM tool, resource and prompt registered
// ABOUTME: Shared by the mcp subcommand and the handler tests
package handlers

import (
	"fmt"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer returns an MCP server backed by store.
func NewServer(store *db.Store, version string) *mcp.Server {
	records := NewRecordHandlers(store)
	workflows := NewWorkflowHandlers(store)
	resources := NewResourceHandlers(store)
	prompts := NewPromptHandlers(store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crmd",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List records of one entity kind, newest first",
	}, records.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_record",
		Description: "Create a record of any kind except notifications",
	}, records.CreateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_record",
		Description: "Replace an existing record by id",
	}, records.UpdateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_record",
		Description: "Delete a record by id",
	}, records.DeleteRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_lead",
		Description: "Convert a lead into a contact and a qualified deal, reusing or creating its company",
	}, workflows.ConvertLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_notifications",
		Description: "Scan the pipeline for stale deals, big-deal advice and win-streak suggestions",
	}, workflows.GenerateNotifications)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_notifications_read",
		Description: "Mark every notification as read",
	}, workflows.MarkNotificationsRead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "relationship_strength",
		Description: "Score the relationship with a contact or company from its activity history",
	}, workflows.RelationshipStrength)

	for _, kind := range models.Kinds {
		server.AddResource(&mcp.Resource{
			URI:         resourceScheme + string(kind),
			Name:        string(kind),
			Description: fmt.Sprintf("All %s in the workspace", kind),
			MIMEType:    "application/json",
		}, resources.ReadResource)
	}
	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "pipeline",
		Name:        "pipeline",
		Description: "Deal count and value per pipeline stage",
		MIMEType:    "application/json",
	}, resources.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: resourceScheme + "{kind}/{id}",
		Name:        "record",
		Description: "A single record by kind and id",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	for _, p := range prompts.Prompts() {
		server.AddPrompt(p, prompts.GetPrompt)
	}

	return server
}
