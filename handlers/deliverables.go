// ABOUTME: Deliverable and report tool handlers
// ABOUTME: Filtered link listings with budget figures, and report metadata uploads
package handlers

import (
	"context"
	"fmt"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ListDeliverablesInput struct {
	Month       string `json:"month,omitempty" jsonschema:"all, current, YYYY-MM or a month index 0-11"`
	Service     string `json:"service,omitempty" jsonschema:"Link Building, PPC, Development or all"`
	Opportunity string `json:"opportunity,omitempty" jsonschema:"reserved, recycled or all"`
}

type DeliverableOutput struct {
	ID            string  `json:"id"`
	URL           string  `json:"url"`
	AnchorText    string  `json:"anchor_text,omitempty"`
	TargetPage    string  `json:"target_page"`
	PlacementDate string  `json:"placement_date"`
	ServiceType   string  `json:"service_type"`
	LinkCost      float64 `json:"link_cost"`
	IsReserved    bool    `json:"is_reserved"`
	IsRecycled    bool    `json:"is_recycled"`
}

type BudgetOutput struct {
	Allocated      float64 `json:"allocated"`
	Used           float64 `json:"used"`
	Remaining      float64 `json:"remaining"`
	PercentUsed    float64 `json:"percent_used"`
	LinksDelivered int     `json:"links_delivered"`
	LinkBuilding   float64 `json:"link_building"`
	PPC            float64 `json:"ppc"`
	Development    float64 `json:"development"`
	Other          float64 `json:"other"`
}

type ListDeliverablesOutput struct {
	Deliverables []DeliverableOutput `json:"deliverables"`
	Budget       BudgetOutput        `json:"budget"`
	Count        int                 `json:"count"`
}

func (h *PortalHandlers) ListDeliverables(ctx context.Context, req *mcp.CallToolRequest, input ListDeliverablesInput) (*mcp.CallToolResult, ListDeliverablesOutput, error) {
	p := h.open()
	portal.Fetch(ctx, p.Links, p.Clients)
	links := p.Links.Snapshot()
	if links.Err != nil {
		return nil, ListDeliverablesOutput{}, fmt.Errorf("failed to fetch links: %w", links.Err)
	}

	rows := views.FilterDeliverables(views.DeliverableRows(links.Data), views.DeliverableFilter{
		Month:           input.Month,
		ServiceType:     input.Service,
		OpportunityType: input.Opportunity,
	}, p.Now())
	budget := views.Budget(rows, p.Clients.Snapshot().Data)

	out := make([]DeliverableOutput, 0, len(rows))
	for _, r := range rows {
		out = append(out, DeliverableOutput{
			ID:            r.ID,
			URL:           r.URL,
			AnchorText:    r.AnchorText,
			TargetPage:    r.TargetPage,
			PlacementDate: r.FormattedDate,
			ServiceType:   r.ServiceType,
			LinkCost:      r.LinkCost,
			IsReserved:    r.IsReserved,
			IsRecycled:    r.IsRecycled,
		})
	}

	return &mcp.CallToolResult{}, ListDeliverablesOutput{
		Deliverables: out,
		Budget: BudgetOutput{
			Allocated:      budget.Allocated,
			Used:           budget.Used,
			Remaining:      budget.Remaining,
			PercentUsed:    budget.PercentUsed,
			LinksDelivered: budget.LinksDelivered,
			LinkBuilding:   budget.Breakdown.LinkBuilding,
			PPC:            budget.Breakdown.PPC,
			Development:    budget.Breakdown.Development,
			Other:          budget.Breakdown.Other,
		},
		Count: len(out),
	}, nil
}

type ListReportsInput struct {
	Month   string `json:"month,omitempty" jsonschema:"all, current, YYYY-MM or a month index 0-11"`
	Service string `json:"service,omitempty" jsonschema:"Link Building, PPC or all"`
}

type ReportOutput struct {
	ID          string `json:"id"`
	Month       string `json:"month"`
	MonthLabel  string `json:"month_label"`
	ServiceType string `json:"service_type"`
	PDFURL      string `json:"pdf_url,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type ListReportsOutput struct {
	Reports []ReportOutput `json:"reports"`
	Count   int            `json:"count"`
}

func reportToOutput(c views.ReportCard) ReportOutput {
	return ReportOutput{
		ID:          c.ID,
		Month:       c.Month,
		MonthLabel:  c.MonthLabel,
		ServiceType: c.ServiceType,
		PDFURL:      c.PDFURL,
		Notes:       c.Notes,
	}
}

func (h *PortalHandlers) ListReports(ctx context.Context, req *mcp.CallToolRequest, input ListReportsInput) (*mcp.CallToolResult, ListReportsOutput, error) {
	p := h.open()
	p.Reports.Fetch(ctx)
	state := p.Reports.Snapshot()
	if state.Err != nil {
		return nil, ListReportsOutput{}, fmt.Errorf("failed to fetch reports: %w", state.Err)
	}

	cards := views.FilterReports(views.ReportCards(state.Data),
		views.ReportFilter{Month: input.Month, ServiceType: input.Service}, p.Now())

	out := make([]ReportOutput, 0, len(cards))
	for _, c := range cards {
		out = append(out, reportToOutput(c))
	}
	return &mcp.CallToolResult{}, ListReportsOutput{Reports: out, Count: len(out)}, nil
}

type AddReportInput struct {
	Month       string `json:"month" jsonschema:"Month covered, YYYY-MM or YYYY-MM-DD"`
	ServiceType string `json:"service_type,omitempty" jsonschema:"Link Building or PPC (default Link Building)"`
	Notes       string `json:"notes,omitempty" jsonschema:"Summary of the month"`
}

func (h *PortalHandlers) AddReport(ctx context.Context, req *mcp.CallToolRequest, input AddReportInput) (*mcp.CallToolResult, ReportOutput, error) {
	p := h.open()
	r, err := p.AddReport(ctx, portal.ReportUpload{
		Month:       input.Month,
		ServiceType: input.ServiceType,
		Notes:       input.Notes,
	})
	if err != nil {
		return nil, ReportOutput{}, fmt.Errorf("failed to add report: %w", err)
	}

	return &mcp.CallToolResult{}, reportToOutput(views.ReportCards([]models.Report{r})[0]), nil
}
