// ABOUTME: Portal CLI commands
// ABOUTME: Approvals, deliverables, reports and summaries from the terminal
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/schema"
	"github.com/jstnrme77/reportcard-portal/views"
	"github.com/jstnrme77/reportcard-portal/viz"
)

// ListApprovalsCommand lists approvals with their websites
func ListApprovalsCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("list-approvals", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (Pending, Approved, Rejected)")
	_ = fs.Parse(args)

	ctx := context.Background()
	portal.Fetch(ctx, p.Approvals, p.Links)
	state := p.Approvals.Snapshot()
	if state.Err != nil {
		return fmt.Errorf("failed to fetch approvals: %w", state.Err)
	}

	rows := views.FilterApprovals(views.ApprovalRows(state.Data, p.Links.Snapshot().Data),
		views.ApprovalFilter{Status: *status})
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No approvals found")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "WEBSITE\tDR\tSTATUS\tDECIDED\tCOMMENTS\tID")
	fmt.Fprintln(w, "-------\t--\t------\t-------\t--------\t--")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.0f\t%s\t%s\t%s\t%s\n",
			r.WebsiteName, r.DomainRating, r.Status, r.DecisionDate, dash(r.Comments), r.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(stdout, "\nTotal: %d approval(s)\n", len(rows))
	return nil
}

// ApproveCommand approves a placement
func ApproveCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("approval ID required")
	}

	a, err := p.Approve(context.Background(), fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to approve: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Approved %s on %s\n", a.ID, a.DecisionDate)
	return nil
}

// RejectCommand rejects a placement with a reason
func RejectCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("reject", flag.ExitOnError)
	comments := fs.String("comments", "", "Why the placement is rejected (required)")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("approval ID required")
	}

	a, err := p.Reject(context.Background(), fs.Arg(0), *comments)
	if errors.Is(err, portal.ErrCommentsRequired) {
		return fmt.Errorf("--comments is required")
	}
	if err != nil {
		return fmt.Errorf("failed to reject: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Rejected %s on %s\n", a.ID, a.DecisionDate)
	fmt.Fprintf(stdout, "  Comments: %s\n", a.Comments)
	return nil
}

// ListLinksCommand lists delivered links with the budget position
func ListLinksCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("list-links", flag.ExitOnError)
	month := fs.String("month", "", "all, current, YYYY-MM or month index 0-11")
	service := fs.String("service", "", "Filter by service type")
	opportunity := fs.String("opportunity", "", "reserved or recycled")
	_ = fs.Parse(args)

	ctx := context.Background()
	portal.Fetch(ctx, p.Links, p.Clients)
	state := p.Links.Snapshot()
	if state.Err != nil {
		return fmt.Errorf("failed to fetch links: %w", state.Err)
	}

	rows := views.FilterDeliverables(views.DeliverableRows(state.Data), views.DeliverableFilter{
		Month:           *month,
		ServiceType:     *service,
		OpportunityType: *opportunity,
	}, p.Now())
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No links found")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "URL\tPLACED\tSERVICE\tCOST\tTARGET")
	fmt.Fprintln(w, "---\t------\t-------\t----\t------")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%s\n", r.URL, r.FormattedDate, r.ServiceType, r.LinkCost, r.TargetPage)
	}
	_ = w.Flush()

	b := views.Budget(rows, p.Clients.Snapshot().Data)
	fmt.Fprintf(stdout, "\nTotal: %d link(s)\n", b.LinksDelivered)
	fmt.Fprintf(stdout, "Budget: $%.2f used of $%.2f (%.0f%%), $%.2f remaining\n", b.Used, b.Allocated, b.PercentUsed, b.Remaining)
	return nil
}

// ListReportsCommand lists monthly reports, newest first
func ListReportsCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("list-reports", flag.ExitOnError)
	month := fs.String("month", "", "all, current, YYYY-MM or month index 0-11")
	service := fs.String("service", "", "Filter by service type")
	_ = fs.Parse(args)

	p.Reports.Fetch(context.Background())
	state := p.Reports.Snapshot()
	if state.Err != nil {
		return fmt.Errorf("failed to fetch reports: %w", state.Err)
	}

	cards := views.FilterReports(views.ReportCards(state.Data),
		views.ReportFilter{Month: *month, ServiceType: *service}, p.Now())
	if len(cards) == 0 {
		fmt.Fprintln(stdout, "No reports found")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "MONTH\tSERVICE\tPDF\tID")
	fmt.Fprintln(w, "-----\t-------\t---\t--")
	for _, c := range cards {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.MonthLabel, c.ServiceType, dash(c.PDFURL), c.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(stdout, "\nTotal: %d report(s)\n", len(cards))
	return nil
}

// AddReportCommand records report metadata for a month
func AddReportCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("add-report", flag.ExitOnError)
	month := fs.String("month", "", "Month covered, YYYY-MM (required)")
	service := fs.String("service", models.ServiceLinkBuilding, "Service type")
	notes := fs.String("notes", "", "Summary of the month")
	file := fs.String("file", "", "Report file (name is recorded in the log only)")
	_ = fs.Parse(args)

	if *month == "" {
		return fmt.Errorf("--month is required")
	}

	up := portal.ReportUpload{Month: *month, ServiceType: *service, Notes: *notes}
	if *file != "" {
		up.FileName = filepath.Base(*file)
	}

	r, err := p.AddReport(context.Background(), up)
	if err != nil {
		return fmt.Errorf("failed to add report: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Report added: %s %s (ID: %s)\n", views.MonthLabel(r.Month), r.ServiceType, r.ID)
	return nil
}

// SummaryCommand prints the ASCII dashboard
func SummaryCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	_ = fs.Parse(args)

	stats := p.Dashboard(context.Background())
	for table, err := range p.Errors() {
		fmt.Fprintf(stdout, "! Failed to load %s: %v\n", table, err)
	}
	fmt.Fprint(stdout, viz.RenderDashboard(stats))
	return nil
}

// SchemaCommand prints the inspected base schema and what is missing from it
func SchemaCommand(inspector *schema.Inspector, baseID string, args []string) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "Inspect the base again instead of using the cache")
	_ = fs.Parse(args)

	ctx := context.Background()
	var (
		base schema.BaseSchema
		err  error
	)
	if *refresh {
		base, err = inspector.Refresh(ctx, baseID)
	} else {
		base, err = inspector.Inspect(ctx, baseID)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	fmt.Fprintf(stdout, "Base %s (%d tables)\n\n", base.ID, len(base.Tables))
	w := newTable()
	fmt.Fprintln(w, "TABLE\tFIELD\tTYPE")
	fmt.Fprintln(w, "-----\t-----\t----")
	for _, t := range base.Tables {
		if len(t.Fields) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\n", t.Name)
			continue
		}
		for _, f := range t.Fields {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, f.Name, f.Type)
		}
	}
	_ = w.Flush()

	v := schema.Validate(base)
	if v.Valid {
		fmt.Fprintln(stdout, "\n✓ All expected tables and fields are present")
		return nil
	}
	fmt.Fprintln(stdout, "\nIssues:")
	for _, issue := range v.Issues {
		fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}
