// ABOUTME: Approval tool handlers
// ABOUTME: Lists approvals joined to their websites and records client decisions
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PortalHandlers struct {
	open portal.Opener
}

// NewPortalHandlers serves each tool call from its own portal.
func NewPortalHandlers(open portal.Opener) *PortalHandlers {
	return &PortalHandlers{open: open}
}

type ListApprovalsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Pending, Approved, Rejected or all (default all)"`
}

type ApprovalOutput struct {
	ID           string  `json:"id"`
	Website      string  `json:"website"`
	WebsiteURL   string  `json:"website_url"`
	DomainRating float64 `json:"domain_rating"`
	Status       string  `json:"status"`
	DecisionDate string  `json:"decision_date"`
	Comments     string  `json:"comments,omitempty"`
	ClientNotes  string  `json:"client_notes,omitempty"`
}

type ListApprovalsOutput struct {
	Approvals []ApprovalOutput `json:"approvals"`
	Count     int              `json:"count"`
}

func approvalToOutput(r views.ApprovalRow) ApprovalOutput {
	return ApprovalOutput{
		ID:           r.ID,
		Website:      r.WebsiteName,
		WebsiteURL:   r.WebsiteURL,
		DomainRating: r.DomainRating,
		Status:       r.Status,
		DecisionDate: r.DecisionDate,
		Comments:     r.Comments,
		ClientNotes:  r.ClientNotes,
	}
}

func (h *PortalHandlers) ListApprovals(ctx context.Context, req *mcp.CallToolRequest, input ListApprovalsInput) (*mcp.CallToolResult, ListApprovalsOutput, error) {
	p := h.open()
	portal.Fetch(ctx, p.Approvals, p.Links)
	approvals := p.Approvals.Snapshot()
	if approvals.Err != nil {
		return nil, ListApprovalsOutput{}, fmt.Errorf("failed to fetch approvals: %w", approvals.Err)
	}

	rows := views.ApprovalRows(approvals.Data, p.Links.Snapshot().Data)
	rows = views.FilterApprovals(rows, views.ApprovalFilter{Status: input.Status})

	out := make([]ApprovalOutput, 0, len(rows))
	for _, r := range rows {
		out = append(out, approvalToOutput(r))
	}
	return &mcp.CallToolResult{}, ListApprovalsOutput{Approvals: out, Count: len(out)}, nil
}

type DecideApprovalInput struct {
	ID       string `json:"id" jsonschema:"Approval record id"`
	Decision string `json:"decision" jsonschema:"approve or reject"`
	Comments string `json:"comments,omitempty" jsonschema:"Reason for rejecting (required for reject)"`
}

func (h *PortalHandlers) DecideApproval(ctx context.Context, req *mcp.CallToolRequest, input DecideApprovalInput) (*mcp.CallToolResult, ApprovalOutput, error) {
	p := h.open()
	if input.ID == "" {
		return nil, ApprovalOutput{}, fmt.Errorf("id is required")
	}

	var (
		a   models.Approval
		err error
	)
	switch strings.ToLower(input.Decision) {
	case "approve", "approved":
		a, err = p.Approve(ctx, input.ID)
	case "reject", "rejected":
		a, err = p.Reject(ctx, input.ID, input.Comments)
	default:
		return nil, ApprovalOutput{}, fmt.Errorf("invalid decision: %s (valid: approve, reject)", input.Decision)
	}
	if err != nil {
		return nil, ApprovalOutput{}, fmt.Errorf("failed to record decision: %w", err)
	}

	p.Links.Fetch(ctx)
	rows := views.ApprovalRows([]models.Approval{a}, p.Links.Snapshot().Data)
	return &mcp.CallToolResult{}, approvalToOutput(rows[0]), nil
}
