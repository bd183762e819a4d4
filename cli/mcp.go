// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server exposing portal tools, resources and prompts
package cli

import (
	"context"
	"log"

	"github.com/jstnrme77/reportcard-portal/collection"
	"github.com/jstnrme77/reportcard-portal/handlers"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer registers every portal tool, resource and prompt on a new server.
// Each call works on a portal from open.
func NewMCPServer(store collection.Store, open portal.Opener, inspector *schema.Inspector, baseID, version string) *mcp.Server {
	recordHandlers := handlers.NewRecordHandlers(store)
	portalHandlers := handlers.NewPortalHandlers(open)
	schemaHandlers := handlers.NewSchemaHandlers(inspector, baseID)
	resourceHandlers := handlers.NewResourceHandlers(open, schemaHandlers)
	promptHandlers := handlers.NewPromptHandlers(open)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "reportcard",
		Version: version,
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List raw records of any table with an optional view, formula filter, sort and cap",
	}, recordHandlers.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_approvals",
		Description: "List link placements awaiting or past a client decision, optionally by status",
	}, portalHandlers.ListApprovals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "decide_approval",
		Description: "Approve or reject a placement; rejecting requires comments",
	}, portalHandlers.DecideApproval)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deliverables",
		Description: "List delivered links by month, service and opportunity type with the budget position",
	}, portalHandlers.ListDeliverables)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_reports",
		Description: "List monthly report cards, newest first",
	}, portalHandlers.ListReports)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_report",
		Description: "Record report metadata for a month and service",
	}, portalHandlers.AddReport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_opportunities",
		Description: "List sales opportunities with total and won deal value, optionally by status",
	}, portalHandlers.ListOpportunities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_users",
		Description: "List portal users, optionally by role",
	}, portalHandlers.ListUsers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_schema",
		Description: "Show the tables and inferred field types of the connected base and what is missing",
	}, schemaHandlers.InspectSchema)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "link_graph",
		Description: "Generate a GraphViz map of campaigns and their placed links",
	}, portalHandlers.LinkGraph)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	for _, pr := range promptHandlers.Prompts() {
		server.AddPrompt(pr, promptHandlers.GetPrompt)
	}

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(store collection.Store, open portal.Opener, inspector *schema.Inspector, baseID, version string) error {
	log.Println("Starting ReportCard MCP Server...")

	server := NewMCPServer(store, open, inspector, baseID, version)

	// Run server on stdio transport
	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
