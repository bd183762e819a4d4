// ABOUTME: Sample data for demo mode, written through the record store
// ABOUTME: Seeds campaigns, links, approvals, reports and a client into empty collections only
package sample

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jstnrme77/reportcard-portal/collection"
	"github.com/jstnrme77/reportcard-portal/models"
)

// Provider seeds demo collections. Dates are placed relative to Now so the
// current-month views have content.
type Provider struct {
	Now func() time.Time
}

// Result counts the records created per collection.
type Result map[string]int

// Seed fills every empty portal collection. Collections that already hold
// records are left alone.
func (p Provider) Seed(ctx context.Context, store collection.Store) (Result, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	today := now().UTC()
	result := Result{}

	steps := []struct {
		table  string
		fields func() ([]map[string]any, error)
	}{
		{models.TableCampaigns, func() ([]map[string]any, error) { return campaigns(today), nil }},
		{models.TableLinks, func() ([]map[string]any, error) {
			ids, err := idsByField(ctx, store, models.TableCampaigns, models.CampaignFieldName)
			if err != nil {
				return nil, err
			}
			return links(today, ids), nil
		}},
		{models.TableApprovals, func() ([]map[string]any, error) {
			ids, err := idsByField(ctx, store, models.TableLinks, models.LinkFieldURL)
			if err != nil {
				return nil, err
			}
			return approvals(today, ids), nil
		}},
		{models.TableReports, func() ([]map[string]any, error) { return reports(today), nil }},
		{models.TableClients, func() ([]map[string]any, error) { return clients(), nil }},
		{models.TableOpportunities, func() ([]map[string]any, error) { return opportunities(today), nil }},
		{models.TableUsers, func() ([]map[string]any, error) { return users(), nil }},
	}

	for _, step := range steps {
		existing, err := store.List(ctx, step.table, &models.Query{MaxRecords: 1})
		if err != nil {
			return result, fmt.Errorf("failed to check %s: %w", step.table, err)
		}
		if len(existing) > 0 {
			continue
		}

		rows, err := step.fields()
		if err != nil {
			return result, fmt.Errorf("failed to prepare %s: %w", step.table, err)
		}
		for _, fields := range rows {
			if _, err := store.Create(ctx, step.table, fields); err != nil {
				return result, fmt.Errorf("failed to seed %s: %w", step.table, err)
			}
			result[step.table]++
		}
		log.Printf("Seeded %d sample records into %s", result[step.table], step.table)
	}
	return result, nil
}

func idsByField(ctx context.Context, store collection.Store, table, field string) (map[string]string, error) {
	records, err := store.List(ctx, table, nil)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(records))
	for _, r := range records {
		ids[r.Text(field)] = r.ID
	}
	return ids, nil
}

func day(t time.Time, monthsBack, d int) string {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -monthsBack, d-1).Format("2006-01-02")
}

func firstOfMonth(t time.Time, monthsBack int) string {
	return day(t, monthsBack, 1)
}

func campaigns(today time.Time) []map[string]any {
	return []map[string]any{
		{models.CampaignFieldName: "Q2 Growth", models.CampaignFieldStartDate: firstOfMonth(today, 1), models.CampaignFieldEndDate: day(today, -2, 28), models.CampaignFieldTargetLinks: 12},
		{models.CampaignFieldName: "Tech Outreach", models.CampaignFieldStartDate: firstOfMonth(today, 2), models.CampaignFieldEndDate: day(today, -1, 28), models.CampaignFieldTargetLinks: 8},
		{models.CampaignFieldName: "Q1 Authority", models.CampaignFieldStartDate: firstOfMonth(today, 4), models.CampaignFieldEndDate: day(today, 1, 28), models.CampaignFieldTargetLinks: 4},
	}
}

func links(today time.Time, campaignIDs map[string]string) []map[string]any {
	link := func(url, anchor, placed string, dr, cost float64, content, campaign, target string, reserved, recycled bool) map[string]any {
		f := map[string]any{
			models.LinkFieldURL:           url,
			models.LinkFieldAnchorText:    anchor,
			models.LinkFieldPlacementDate: placed,
			models.LinkFieldDomainRating:  dr,
			models.LinkFieldLinkCost:      cost,
			models.LinkFieldContentType:   content,
			models.LinkFieldIsReserved:    reserved,
			models.LinkFieldIsRecycled:    recycled,
		}
		if id, ok := campaignIDs[campaign]; ok {
			f[models.LinkFieldCampaignID] = []string{id}
		}
		if target != "" {
			f[models.LinkFieldTargetPage] = target
		}
		return f
	}

	return []map[string]any{
		link("https://example.com/blog/seo-tips", "SEO best practices", day(today, 0, 3), 72, 350, "Blog Post", "Q2 Growth", "https://client.example/services", false, false),
		link("https://techblog.io/digital-marketing", "digital marketing strategy", day(today, 0, 8), 65, 275, "Guest Post", "Tech Outreach", "", true, false),
		link("https://contentwriter.org/seo-guide", "comprehensive SEO guide", day(today, 0, 12), 69, 300, models.ServiceLinkBuilding, "Q2 Growth", "https://client.example/guide", false, false),
		link("https://marketingpro.com/link-building", "effective link building", day(today, 1, 22), 58, 180, "Resource Page", "Q1 Authority", "", false, true),
		link("https://seotips.org/backlinks", "quality backlinks", day(today, 1, 15), 81, 420, models.ServicePPC, "Q1 Authority", "https://client.example/pricing", false, false),
		link("https://growthhub.net/ppc-basics", "ppc basics", "", 44, 120, models.ServiceDevelopment, "", "", false, false),
	}
}

func approvals(today time.Time, linkIDs map[string]string) []map[string]any {
	approval := func(url, status, decided, comments string) map[string]any {
		f := map[string]any{
			models.ApprovalFieldStatus:   status,
			models.ApprovalFieldComments: comments,
		}
		if id, ok := linkIDs[url]; ok {
			f[models.ApprovalFieldWebsiteID] = []string{id}
		}
		if decided != "" {
			f[models.ApprovalFieldDecisionDate] = decided
		}
		return f
	}

	return []map[string]any{
		approval("https://example.com/blog/seo-tips", models.StatusPending, "", "Awaiting client review"),
		approval("https://techblog.io/digital-marketing", models.StatusApproved, day(today, 0, 2), "Client approved placement"),
		approval("https://marketingpro.com/link-building", models.StatusRejected, day(today, 1, 20), "Client requested different site"),
		approval("https://seotips.org/backlinks", models.StatusPending, "", "Sent to client for review"),
		approval("https://retired.example/post", models.StatusPending, "", "Awaiting client feedback"),
	}
}

func reports(today time.Time) []map[string]any {
	report := func(monthsBack int, service, notes string) map[string]any {
		month := firstOfMonth(today, monthsBack)
		slug := map[string]string{models.ServiceLinkBuilding: "link-building", models.ServicePPC: "ppc"}[service]
		return map[string]any{
			models.ReportFieldMonth:       month,
			models.ReportFieldServiceType: service,
			models.ReportFieldPDFURL:      fmt.Sprintf("/reports/%s-%s.pdf", month[:7], slug),
			models.ReportFieldNotes:       notes,
		}
	}

	return []map[string]any{
		report(1, models.ServiceLinkBuilding, "Placed 45 links, exceeding the monthly target by 15%. Domain ratings averaged 68."),
		report(1, models.ServicePPC, "Achieved 12% CTR with a 5% conversion rate. Budget utilization at 98%."),
		report(2, models.ServiceLinkBuilding, "Placed 38 links with an average domain rating of 72."),
		report(2, models.ServicePPC, "Campaigns ran at 15% lower CPC than the previous month."),
		report(3, models.ServiceLinkBuilding, "Placed 32 links with focus on industry-specific websites."),
	}
}

func clients() []map[string]any {
	return []map[string]any{{
		models.ClientFieldCompanyName: "Acme Outdoor Co",
		models.ClientFieldStatus:      "Active",
		models.ClientFieldLinkBudget:  2500,
		models.ClientFieldBudgetSpent: 1645,
		models.ClientFieldLiveLinks:   5,
		models.ClientFieldTargetURLs:  []string{"https://client.example/services", "https://client.example/pricing"},
	}}
}

func opportunities(today time.Time) []map[string]any {
	return []map[string]any{
		{models.OpportunityFieldName: "Acme Outdoor Co", models.OpportunityFieldStatus: "Won", models.OpportunityFieldNumberOfCalls: 3, models.OpportunityFieldDealValue: 2500, models.OpportunityFieldIsDealWon: true, models.OpportunityFieldCreatedDate: firstOfMonth(today, 5)},
		{models.OpportunityFieldName: "Brightline Dental", models.OpportunityFieldStatus: "Proposal Sent", models.OpportunityFieldNumberOfCalls: 1, models.OpportunityFieldDealValue: 1800, models.OpportunityFieldCreatedDate: firstOfMonth(today, 0)},
	}
}

func users() []map[string]any {
	return []map[string]any{
		{"name": "John Doe", "email": "john.doe@example.com", "role": models.RoleManager},
	}
}
