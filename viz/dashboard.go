// ABOUTME: Report-card statistics shared by the web dashboard, TUI and CLI summary
// ABOUTME: Provides an ASCII rendering with campaign progress bars
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/views"
)

// LatestReportCount caps the reports listed on the dashboard.
const LatestReportCount = 3

// DashboardInput is everything the dashboard is computed from.
type DashboardInput struct {
	Approvals []models.Approval
	Links     []models.Link
	Campaigns []models.Campaign
	Reports   []models.Report
}

type DashboardStats struct {
	Month string `json:"month"` // YYYY-MM the monthly figures refer to

	PendingApprovals int `json:"pending_approvals"`
	DecidedThisMonth int `json:"decided_this_month"`

	LinksThisMonth      int     `json:"links_this_month"`
	TotalLinks          int     `json:"total_links"`
	AverageDomainRating float64 `json:"average_domain_rating"`
	TotalSpend          float64 `json:"total_spend"`

	Campaigns     []views.CampaignProgressRow `json:"campaigns"`
	LatestReports []views.ReportCard          `json:"latest_reports"`
}

// GenerateDashboardStats computes the dashboard for the month containing now.
func GenerateDashboardStats(in DashboardInput, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		Month:     views.MonthKey(now),
		Campaigns: views.CampaignProgress(in.Campaigns, in.Links),
	}

	stats.PendingApprovals = views.Count(in.Approvals, func(a models.Approval) bool {
		return a.Status == models.StatusPending
	})
	decided := views.InMonth(func(a models.Approval) (time.Time, bool) {
		return views.ParseDate(a.DecisionDate)
	}, "current", now)
	stats.DecidedThisMonth = views.Count(in.Approvals, func(a models.Approval) bool {
		return a.Status != models.StatusPending && decided(a)
	})

	rows := views.DeliverableRows(in.Links)
	stats.TotalLinks = len(rows)
	stats.LinksThisMonth = len(views.FilterDeliverables(rows, views.DeliverableFilter{Month: "current"}, now))
	stats.AverageDomainRating = views.Average(in.Links, func(l models.Link) float64 { return l.DomainRating })
	stats.TotalSpend = views.Sum(rows, func(r views.DeliverableRow) float64 { return r.LinkCost })

	cards := views.ReportCards(in.Reports)
	if len(cards) > LatestReportCount {
		cards = cards[:LatestReportCount]
	}
	stats.LatestReports = cards

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  REPORTCARD DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString(fmt.Sprintf("THIS MONTH (%s)\n", views.MonthLabel(stats.Month)))
	out.WriteString(fmt.Sprintf("  🔗 %d links placed  ✅ %d approvals decided\n", stats.LinksThisMonth, stats.DecidedThisMonth))
	out.WriteString(fmt.Sprintf("  📈 avg DR %.1f  💵 $%.2f total spend (%d links)\n\n",
		stats.AverageDomainRating, stats.TotalSpend, stats.TotalLinks))

	if len(stats.Campaigns) > 0 {
		out.WriteString("CAMPAIGNS\n")
		renderCampaigns(&out, stats.Campaigns)
		out.WriteString("\n")
	}

	if len(stats.LatestReports) > 0 {
		out.WriteString("LATEST REPORTS\n")
		for _, r := range stats.LatestReports {
			out.WriteString(fmt.Sprintf("  📄 %-15s %s\n", r.MonthLabel, r.ServiceType))
		}
		out.WriteString("\n")
	}

	if stats.PendingApprovals > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d approvals awaiting a decision\n", stats.PendingApprovals))
	}

	return out.String()
}

func renderCampaigns(out *strings.Builder, campaigns []views.CampaignProgressRow) {
	for _, c := range campaigns {
		// 0-10 blocks
		barLength := int(c.Percent / 10)
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		name := c.Name
		if len(name) > 20 {
			name = name[:19] + "…"
		}
		out.WriteString(fmt.Sprintf("  %-20s %s  %d/%d (%.0f%%)\n",
			name, bar, c.Delivered, c.Target, c.Percent))
	}
}
