// ABOUTME: Builders that turn typed records into page rows
// ABOUTME: Joins across collections with placeholder fallbacks and applies page filters
package views

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jstnrme77/reportcard-portal/models"
)

// Placeholders used when a joined record is missing.
const (
	UnknownWebsite  = "Unknown website"
	UnknownURL      = "#"
	NoTargetPage    = "N/A"
	Unassigned      = "Unassigned"
	PendingDecision = "-"
)

// ApprovalRow is one line of the approvals table.
type ApprovalRow struct {
	ID           string
	WebsiteName  string
	WebsiteURL   string
	DomainRating float64
	Status       string
	DecisionDate string
	Comments     string
	ClientNotes  string
}

// IsPending reports whether the client still has to decide.
func (r ApprovalRow) IsPending() bool {
	return r.Status == models.StatusPending
}

// ApprovalFilter narrows the approvals table by status.
type ApprovalFilter struct {
	Status string
}

// ApprovalRows joins approvals to their links by website id. Approvals whose link
// is missing keep their row with placeholder website values.
func ApprovalRows(approvals []models.Approval, links []models.Link) []ApprovalRow {
	byID := make(map[string]models.Link, len(links))
	for _, l := range links {
		byID[l.ID] = l
	}

	rows := make([]ApprovalRow, 0, len(approvals))
	for _, a := range approvals {
		row := ApprovalRow{
			ID:           a.ID,
			WebsiteName:  UnknownWebsite,
			WebsiteURL:   UnknownURL,
			Status:       a.Status,
			DecisionDate: PendingDecision,
			Comments:     a.Comments,
			ClientNotes:  a.ClientNotes,
		}
		if link, ok := byID[a.WebsiteID]; ok && link.URL != "" {
			row.WebsiteName = WebsiteName(link.URL)
			row.WebsiteURL = link.URL
			row.DomainRating = link.DomainRating
		}
		if t, ok := ParseDate(a.DecisionDate); ok {
			row.DecisionDate = FormatDate(t, true, PendingDecision)
		}
		rows = append(rows, row)
	}
	return rows
}

// FilterApprovals applies f to rows. Status matches case-insensitively.
func FilterApprovals(rows []ApprovalRow, f ApprovalFilter) []ApprovalRow {
	return Filter(rows, EqualsFold(func(r ApprovalRow) string { return r.Status }, f.Status))
}

// WebsiteName returns the host of rawURL without a leading www., or rawURL itself
// when it has no host.
func WebsiteName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// DeliverableRow is one delivered link on the deliverables page.
type DeliverableRow struct {
	ID            string
	URL           string
	AnchorText    string
	TargetPage    string
	PlacementDate time.Time
	HasDate       bool
	FormattedDate string
	ServiceType   string
	LinkCost      float64
	IsReserved    bool
	IsRecycled    bool
}

// DeliverableFilter narrows deliverables by month, service type and opportunity type.
type DeliverableFilter struct {
	Month           string
	ServiceType     string
	OpportunityType string
}

// DeliverableRows maps links to rows, newest placement first and undated rows last.
func DeliverableRows(links []models.Link) []DeliverableRow {
	rows := make([]DeliverableRow, 0, len(links))
	for _, l := range links {
		placed, ok := ParseDate(l.PlacementDate)
		target := l.TargetPage
		if target == "" {
			target = NoTargetPage
		}
		service := l.ContentType
		if service == "" {
			service = models.ServiceLinkBuilding
		}
		rows = append(rows, DeliverableRow{
			ID:            l.ID,
			URL:           l.URL,
			AnchorText:    l.AnchorText,
			TargetPage:    target,
			PlacementDate: placed,
			HasDate:       ok,
			FormattedDate: FormatDate(placed, ok, NotSet),
			ServiceType:   service,
			LinkCost:      l.LinkCost,
			IsReserved:    l.IsReserved,
			IsRecycled:    l.IsRecycled,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HasDate != b.HasDate {
			return a.HasDate
		}
		return a.PlacementDate.After(b.PlacementDate)
	})
	return rows
}

func deliverableDate(r DeliverableRow) (time.Time, bool) { return r.PlacementDate, r.HasDate }

// FilterDeliverables applies f to rows.
func FilterDeliverables(rows []DeliverableRow, f DeliverableFilter, now time.Time) []DeliverableRow {
	return Filter(rows, All(
		InMonth(deliverableDate, f.Month, now),
		Equals(func(r DeliverableRow) string { return r.ServiceType }, f.ServiceType),
		OpportunityType(
			func(r DeliverableRow) bool { return r.IsReserved },
			func(r DeliverableRow) bool { return r.IsRecycled },
			f.OpportunityType,
		),
	))
}

// DeliverableMonths lists the months with deliverables, newest first.
func DeliverableMonths(rows []DeliverableRow) []string {
	return UniqueMonths(rows, deliverableDate)
}

// DeliverableServices lists the service types present in rows.
func DeliverableServices(rows []DeliverableRow) []string {
	return UniqueValues(rows, func(r DeliverableRow) string { return r.ServiceType })
}

// BudgetBreakdown splits spend by service type.
type BudgetBreakdown struct {
	LinkBuilding float64
	PPC          float64
	Development  float64
	Other        float64
}

// BudgetSummary is the spend box at the top of the deliverables page.
type BudgetSummary struct {
	Allocated      float64
	Used           float64
	Remaining      float64
	LinksDelivered int
	PercentUsed    float64
	Breakdown      BudgetBreakdown
}

// Budget sums link costs of rows against the clients' static link budgets.
func Budget(rows []DeliverableRow, clients []models.Client) BudgetSummary {
	cost := func(r DeliverableRow) float64 { return r.LinkCost }
	service := func(name string) Predicate[DeliverableRow] {
		return func(r DeliverableRow) bool { return r.ServiceType == name }
	}
	var other Predicate[DeliverableRow] = func(r DeliverableRow) bool {
		switch r.ServiceType {
		case models.ServiceLinkBuilding, models.ServicePPC, models.ServiceDevelopment:
			return false
		}
		return true
	}

	used := Sum(rows, cost)
	allocated := Sum(clients, func(c models.Client) float64 { return c.LinkBudget })

	return BudgetSummary{
		Allocated:      allocated,
		Used:           used,
		Remaining:      allocated - used,
		LinksDelivered: len(rows),
		PercentUsed:    PercentOfTarget(used, allocated),
		Breakdown: BudgetBreakdown{
			LinkBuilding: Sum(Filter(rows, service(models.ServiceLinkBuilding)), cost),
			PPC:          Sum(Filter(rows, service(models.ServicePPC)), cost),
			Development:  Sum(Filter(rows, service(models.ServiceDevelopment)), cost),
			Other:        Sum(Filter(rows, other), cost),
		},
	}
}

// LiveLinkRow is one live link with its campaign resolved.
type LiveLinkRow struct {
	ID            string
	URL           string
	AnchorText    string
	PlacementDate time.Time
	HasDate       bool
	FormattedDate string
	DomainRating  float64
	ContentType   string
	Campaign      string
	IsReserved    bool
	IsRecycled    bool
}

// LiveLinkFilter narrows live links. Month accepts every InMonth selector.
type LiveLinkFilter struct {
	Month           string
	Campaign        string
	ContentType     string
	OpportunityType string
}

// LiveLinkRows resolves each link's campaign name, falling back to Unassigned.
func LiveLinkRows(links []models.Link, campaigns []models.Campaign) []LiveLinkRow {
	names := make(map[string]string, len(campaigns))
	for _, c := range campaigns {
		names[c.ID] = c.Name
	}

	rows := make([]LiveLinkRow, 0, len(links))
	for _, l := range links {
		placed, ok := ParseDate(l.PlacementDate)
		campaign := names[l.CampaignID]
		if campaign == "" {
			campaign = Unassigned
		}
		rows = append(rows, LiveLinkRow{
			ID:            l.ID,
			URL:           l.URL,
			AnchorText:    l.AnchorText,
			PlacementDate: placed,
			HasDate:       ok,
			FormattedDate: FormatDate(placed, ok, NotSet),
			DomainRating:  l.DomainRating,
			ContentType:   l.ContentType,
			Campaign:      campaign,
			IsReserved:    l.IsReserved,
			IsRecycled:    l.IsRecycled,
		})
	}
	return rows
}

func liveLinkDate(r LiveLinkRow) (time.Time, bool) { return r.PlacementDate, r.HasDate }

// FilterLiveLinks applies f to rows.
func FilterLiveLinks(rows []LiveLinkRow, f LiveLinkFilter, now time.Time) []LiveLinkRow {
	return Filter(rows, All(
		InMonth(liveLinkDate, f.Month, now),
		Equals(func(r LiveLinkRow) string { return r.Campaign }, f.Campaign),
		Equals(func(r LiveLinkRow) string { return r.ContentType }, f.ContentType),
		OpportunityType(
			func(r LiveLinkRow) bool { return r.IsReserved },
			func(r LiveLinkRow) bool { return r.IsRecycled },
			f.OpportunityType,
		),
	))
}

// LiveLinkOptions are the select options offered by the live links filters.
type LiveLinkOptions struct {
	Months       []string
	Campaigns    []string
	ContentTypes []string
}

// LiveLinkFilterOptions derives filter options from rows.
func LiveLinkFilterOptions(rows []LiveLinkRow) LiveLinkOptions {
	return LiveLinkOptions{
		Months:       UniqueMonths(rows, liveLinkDate),
		Campaigns:    UniqueValues(rows, func(r LiveLinkRow) string { return r.Campaign }),
		ContentTypes: UniqueValues(rows, func(r LiveLinkRow) string { return r.ContentType }),
	}
}

// ReportCard is one monthly report on the reports page.
type ReportCard struct {
	ID          string
	Month       string
	MonthLabel  string
	ServiceType string
	PDFURL      string
	Notes       string
	CreatedAt   string
	month       time.Time
	hasMonth    bool
}

// ReportFilter narrows reports by month and service type.
type ReportFilter struct {
	Month       string
	ServiceType string
}

// ReportCards maps reports to cards, latest month first.
func ReportCards(reports []models.Report) []ReportCard {
	cards := make([]ReportCard, 0, len(reports))
	for _, r := range reports {
		month, ok := ParseDate(r.Month)
		cards = append(cards, ReportCard{
			ID:          r.ID,
			Month:       r.Month,
			MonthLabel:  MonthLabel(r.Month),
			ServiceType: r.ServiceType,
			PDFURL:      r.PDFURL,
			Notes:       r.Notes,
			CreatedAt:   DisplayDate(r.CreatedAt),
			month:       month,
			hasMonth:    ok,
		})
	}
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.hasMonth != b.hasMonth {
			return a.hasMonth
		}
		return a.month.After(b.month)
	})
	return cards
}

func reportMonth(c ReportCard) (time.Time, bool) { return c.month, c.hasMonth }

// FilterReports applies f to cards.
func FilterReports(cards []ReportCard, f ReportFilter, now time.Time) []ReportCard {
	return Filter(cards, All(
		InMonth(reportMonth, f.Month, now),
		Equals(func(c ReportCard) string { return c.ServiceType }, f.ServiceType),
	))
}

// ReportMonths lists months that have reports, newest first.
func ReportMonths(cards []ReportCard) []string {
	return UniqueMonths(cards, reportMonth)
}

// CampaignProgressRow tracks delivery against a campaign's link target.
type CampaignProgressRow struct {
	ID        string
	Name      string
	StartDate string
	EndDate   string
	Target    int
	Delivered int
	Percent   float64
}

// CampaignProgress counts links per campaign against each campaign's target.
func CampaignProgress(campaigns []models.Campaign, links []models.Link) []CampaignProgressRow {
	delivered := make(map[string]int)
	for _, l := range links {
		if l.CampaignID != "" {
			delivered[l.CampaignID]++
		}
	}

	rows := make([]CampaignProgressRow, 0, len(campaigns))
	for _, c := range campaigns {
		n := delivered[c.ID]
		rows = append(rows, CampaignProgressRow{
			ID:        c.ID,
			Name:      c.Name,
			StartDate: DisplayDate(c.StartDate),
			EndDate:   DisplayDate(c.EndDate),
			Target:    c.TargetLinks,
			Delivered: n,
			Percent:   PercentOfTarget(float64(n), float64(c.TargetLinks)),
		})
	}
	return rows
}
