// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the link_graph tool mapping campaigns to their placements
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type LinkGraphInput struct {
	Campaign string `json:"campaign,omitempty" jsonschema:"Only draw links of this campaign name"`
}

type LinkGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *PortalHandlers) LinkGraph(ctx context.Context, request *mcp.CallToolRequest, input LinkGraphInput) (*mcp.CallToolResult, LinkGraphOutput, error) {
	p := h.open()
	portal.Fetch(ctx, p.Campaigns, p.Links)
	campaigns := p.Campaigns.Snapshot()
	links := p.Links.Snapshot()
	if campaigns.Err != nil {
		return nil, LinkGraphOutput{}, fmt.Errorf("failed to fetch campaigns: %w", campaigns.Err)
	}
	if links.Err != nil {
		return nil, LinkGraphOutput{}, fmt.Errorf("failed to fetch links: %w", links.Err)
	}

	selected := campaigns.Data
	placed := links.Data
	if input.Campaign != "" {
		selected = selected[:0:0]
		ids := map[string]bool{}
		for _, c := range campaigns.Data {
			if strings.EqualFold(c.Name, input.Campaign) {
				selected = append(selected, c)
				ids[c.ID] = true
			}
		}
		if len(selected) == 0 {
			return nil, LinkGraphOutput{}, fmt.Errorf("campaign not found: %s", input.Campaign)
		}
		placed = placed[:0:0]
		for _, l := range links.Data {
			if ids[l.CampaignID] {
				placed = append(placed, l)
			}
		}
	}

	dot, err := viz.GenerateLinkGraph(ctx, selected, placed)
	if err != nil {
		return nil, LinkGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, LinkGraphOutput{
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}
