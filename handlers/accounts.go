// ABOUTME: Sales pipeline and team tool handlers
// ABOUTME: Lists opportunities with their deal totals and the portal's users
package handlers

import (
	"context"
	"fmt"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ListOpportunitiesInput struct {
	Status string `json:"status,omitempty" jsonschema:"Only opportunities with this status (case-insensitive, default all)"`
	Won    bool   `json:"won,omitempty" jsonschema:"Only won deals"`
}

type ListOpportunitiesOutput struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Count         int                  `json:"count"`
	TotalValue    float64              `json:"total_value"`
	WonValue      float64              `json:"won_value"`
}

func (h *PortalHandlers) ListOpportunities(ctx context.Context, req *mcp.CallToolRequest, input ListOpportunitiesInput) (*mcp.CallToolResult, ListOpportunitiesOutput, error) {
	p := h.open()
	p.Opportunities.Fetch(ctx)
	state := p.Opportunities.Snapshot()
	if state.Err != nil {
		return nil, ListOpportunitiesOutput{}, fmt.Errorf("failed to fetch opportunities: %w", state.Err)
	}

	preds := []views.Predicate[models.Opportunity]{
		views.EqualsFold(func(o models.Opportunity) string { return o.Status }, input.Status),
	}
	if input.Won {
		preds = append(preds, func(o models.Opportunity) bool { return o.IsDealWon })
	}
	opps := views.Filter(state.Data, views.All(preds...))

	value := func(o models.Opportunity) float64 { return o.DealValue }
	won := views.Filter(opps, func(o models.Opportunity) bool { return o.IsDealWon })

	return &mcp.CallToolResult{}, ListOpportunitiesOutput{
		Opportunities: opps,
		Count:         len(opps),
		TotalValue:    views.Sum(opps, value),
		WonValue:      views.Sum(won, value),
	}, nil
}

type ListUsersInput struct {
	Role string `json:"role,omitempty" jsonschema:"Admin, Manager or User (default all)"`
}

type ListUsersOutput struct {
	Users []models.User `json:"users"`
	Count int           `json:"count"`
}

func (h *PortalHandlers) ListUsers(ctx context.Context, req *mcp.CallToolRequest, input ListUsersInput) (*mcp.CallToolResult, ListUsersOutput, error) {
	p := h.open()
	p.Users.Fetch(ctx)
	state := p.Users.Snapshot()
	if state.Err != nil {
		return nil, ListUsersOutput{}, fmt.Errorf("failed to fetch users: %w", state.Err)
	}

	users := views.Filter(state.Data, views.EqualsFold(func(u models.User) string { return u.Role }, input.Role))
	return &mcp.CallToolResult{}, ListUsersOutput{Users: users, Count: len(users)}, nil
}
