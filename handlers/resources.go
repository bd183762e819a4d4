// ABOUTME: MCP resource handlers exposing portal data
// ABOUTME: Serves the dashboard summary and base schema as read-only JSON documents
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	DashboardURI = "portal://dashboard"
	SchemaURI    = "portal://schema"
	ApprovalsURI = "portal://approvals"
)

type ResourceHandlers struct {
	open portal.Opener
	schema *SchemaHandlers
}

func NewResourceHandlers(open portal.Opener, s *SchemaHandlers) *ResourceHandlers {
	return &ResourceHandlers{open: open, schema: s}
}

// Resources lists what ReadResource can serve.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			URI:         DashboardURI,
			Name:        "dashboard",
			Title:       "Dashboard",
			Description: "Monthly counts, spend and campaign progress",
			MIMEType:    "application/json",
		},
		{
			URI:         ApprovalsURI,
			Name:        "pending_approvals",
			Title:       "Pending approvals",
			Description: "Placements waiting on a client decision",
			MIMEType:    "application/json",
		},
		{
			URI:         SchemaURI,
			Name:        "schema",
			Title:       "Base schema",
			Description: "Tables and inferred field types of the connected base",
			MIMEType:    "application/json",
		},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "portal://") {
		return nil, fmt.Errorf("invalid URI scheme: expected portal://")
	}

	var (
		v   any
		err error
	)
	switch uri {
	case DashboardURI:
		v = h.open().Dashboard(ctx)
	case ApprovalsURI:
		var out ListApprovalsOutput
		_, out, err = (&PortalHandlers{open: h.open}).ListApprovals(ctx, nil, ListApprovalsInput{Status: "Pending"})
		v = out
	case SchemaURI:
		v, err = h.schema.inspect(ctx, false)
	default:
		return nil, fmt.Errorf("unknown resource: %s", strings.TrimPrefix(uri, "portal://"))
	}
	if err != nil {
		return nil, err
	}

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
