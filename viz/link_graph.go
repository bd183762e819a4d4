// ABOUTME: Campaign link map rendered with graphviz
// ABOUTME: One node per campaign and per placed link, edges from campaign to link
package viz

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/views"
)

// GenerateLinkGraph returns DOT source linking each campaign to its links.
// Links without a known campaign hang off an "Unassigned" node.
func GenerateLinkGraph(ctx context.Context, campaigns []models.Campaign, links []models.Link) (string, error) {
	return RenderLinkGraph(ctx, campaigns, links, graphviz.XDOT)
}

// RenderLinkGraph renders the link map in the given graphviz format.
func RenderLinkGraph(ctx context.Context, campaigns []models.Campaign, links []models.Link, format graphviz.Format) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			log.Printf("Error closing graphviz: %v", err)
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			log.Printf("Error closing graph: %v", err)
		}
	}()

	graph.SetLabel("Campaign Link Map")
	graph.SetRankDir(cgraph.LRRank)

	campaignNodes := make(map[string]*cgraph.Node)
	for _, c := range campaigns {
		node, err := graph.CreateNodeByName("campaign_" + c.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create campaign node: %w", err)
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		node.SetLabel(fmt.Sprintf("%s\n%d target links", name, c.TargetLinks))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor("lightblue")
		campaignNodes[c.ID] = node
	}

	var unassigned *cgraph.Node
	for _, l := range links {
		node, err := graph.CreateNodeByName("link_" + l.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create link node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\nDR %.0f", views.WebsiteName(l.URL), l.DomainRating))
		node.SetShape("ellipse")
		switch {
		case l.IsReserved:
			node.SetColor("darkgreen")
		case l.IsRecycled:
			node.SetColor("orange")
		}

		parent, ok := campaignNodes[l.CampaignID]
		if !ok {
			if unassigned == nil {
				unassigned, err = graph.CreateNodeByName("campaign_unassigned")
				if err != nil {
					return "", fmt.Errorf("failed to create unassigned node: %w", err)
				}
				unassigned.SetLabel(views.Unassigned)
				unassigned.SetShape("box")
				unassigned.SetStyle("dashed")
			}
			parent = unassigned
		}

		edge, err := graph.CreateEdgeByName("", parent, node)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		if l.AnchorText != "" {
			edge.SetLabel(l.AnchorText)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}
