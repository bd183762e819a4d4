// ABOUTME: MCP prompt handlers for recurring client-reporting workflows
// ABOUTME: Builds monthly summary and approval review prompts from live portal data
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

type PromptHandlers struct {
	open portal.Opener
}

func NewPromptHandlers(open portal.Opener) *PromptHandlers {
	return &PromptHandlers{open: open}
}

// Prompts lists the prompt templates GetPrompt understands.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "monthly-summary",
			Description: "Summarise a month of link building for the client",
			Arguments: []*mcp.PromptArgument{
				{Name: "month", Description: "YYYY-MM, defaults to the current month"},
			},
		},
		{
			Name:        "approval-review",
			Description: "Review pending placements and suggest decisions",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "monthly-summary":
		return h.getMonthlySummaryPrompt(ctx, arguments)
	case "approval-review":
		return h.getApprovalReviewPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) getMonthlySummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	p := h.open()
	month := args["month"]
	if month == "" {
		month = views.MonthKey(p.Now())
	}
	if _, ok := views.ParseDate(month); !ok {
		return nil, fmt.Errorf("invalid month: %s", month)
	}

	portal.Fetch(ctx, p.Links, p.Clients, p.Reports)
	links := p.Links.Snapshot()
	if links.Err != nil {
		return nil, fmt.Errorf("failed to fetch links: %w", links.Err)
	}

	rows := views.FilterDeliverables(views.DeliverableRows(links.Data),
		views.DeliverableFilter{Month: month}, p.Now())
	budget := views.Budget(rows, p.Clients.Snapshot().Data)
	reports := views.FilterReports(views.ReportCards(p.Reports.Snapshot().Data),
		views.ReportFilter{Month: month}, p.Now())

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Write a client-facing summary for %s.\n\n", views.MonthLabel(month)))
	promptText.WriteString(fmt.Sprintf("Links delivered: %d\n", budget.LinksDelivered))
	promptText.WriteString(fmt.Sprintf("Spend: $%.2f of $%.2f (%.0f%%)\n", budget.Used, budget.Allocated, budget.PercentUsed))

	if len(rows) > 0 {
		promptText.WriteString("\nPlacements:\n")
		for _, r := range rows {
			promptText.WriteString(fmt.Sprintf("  - %s (%s) -> %s\n", views.WebsiteName(r.URL), r.FormattedDate, r.TargetPage))
		}
	}
	for _, c := range reports {
		if c.Notes != "" {
			promptText.WriteString(fmt.Sprintf("\n%s report notes: %s\n", c.ServiceType, c.Notes))
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A short overview of the month's progress")
	promptText.WriteString("\n2. Highlights among the placements")
	promptText.WriteString("\n3. Budget position and what to focus on next month")

	return userPrompt(fmt.Sprintf("Monthly summary for %s", views.MonthLabel(month)), promptText.String()), nil
}

func (h *PromptHandlers) getApprovalReviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	p := h.open()
	portal.Fetch(ctx, p.Approvals, p.Links)
	approvals := p.Approvals.Snapshot()
	if approvals.Err != nil {
		return nil, fmt.Errorf("failed to fetch approvals: %w", approvals.Err)
	}

	rows := views.FilterApprovals(views.ApprovalRows(approvals.Data, p.Links.Snapshot().Data),
		views.ApprovalFilter{Status: models.StatusPending})

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("There are %d placements waiting for a decision:\n\n", len(rows)))
	for _, r := range rows {
		promptText.WriteString(fmt.Sprintf("  - [%s] %s (%s), DR %.0f", r.ID, r.WebsiteName, r.WebsiteURL, r.DomainRating))
		if r.ClientNotes != "" {
			promptText.WriteString(fmt.Sprintf(", notes: %s", r.ClientNotes))
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nFor each placement, recommend approve or reject.")
	promptText.WriteString(" Rejections need a short comment for the outreach team.")
	promptText.WriteString(" Use the decide_approval tool once the client confirms.")

	return userPrompt("Pending approval review", promptText.String()), nil
}
