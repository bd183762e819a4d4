// ABOUTME: Page and action handlers for approvals, deliverables, live links and reports
// ABOUTME: Each page fetches its bindings, maps rows for display and applies query-string filters
package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/views"
)

func (s *Server) handleApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := s.open()
	portal.Fetch(ctx, p.Approvals, p.Links)

	filter := views.ApprovalFilter{Status: r.URL.Query().Get("status")}
	rows := views.ApprovalRows(p.Approvals.Snapshot().Data, p.Links.Snapshot().Data)

	data := s.page(p, "Approvals", "approvals-content", models.TableApprovals, models.TableLinks)
	data["Rows"] = views.FilterApprovals(rows, filter)
	data["Total"] = len(rows)
	data["Filter"] = filter
	data["Statuses"] = []option{
		{Value: views.SelectAll, Label: "All statuses"},
		{Value: models.StatusPending, Label: models.StatusPending},
		{Value: models.StatusApproved, Label: models.StatusApproved},
		{Value: models.StatusRejected, Label: models.StatusRejected},
	}

	s.renderTemplate(w, "layout.html", data)
}

// decided renders the outcome of an approve or reject.
func (s *Server) decided(w http.ResponseWriter, r *http.Request, p *portal.Portal, a models.Approval) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/approvals", http.StatusSeeOther)
		return
	}
	p.Links.Fetch(r.Context())
	rows := views.ApprovalRows([]models.Approval{a}, p.Links.Snapshot().Data)
	s.renderTemplate(w, "approval-row", rows[0])
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := s.open()
	a, err := p.Approve(r.Context(), id)
	if err != nil {
		s.renderAlert(w, http.StatusBadGateway, "error", fmt.Sprintf("Failed to approve: %v", err))
		return
	}
	s.decided(w, r, p, a)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAlert(w, http.StatusBadRequest, "error", "Invalid form")
		return
	}

	id := r.PathValue("id")
	p := s.open()
	a, err := p.Reject(r.Context(), id, r.PostFormValue("comments"))
	if errors.Is(err, portal.ErrCommentsRequired) {
		s.renderAlert(w, http.StatusBadRequest, "error", "Please tell us why this placement is rejected.")
		return
	}
	if err != nil {
		s.renderAlert(w, http.StatusBadGateway, "error", fmt.Sprintf("Failed to reject: %v", err))
		return
	}
	s.decided(w, r, p, a)
}

func (s *Server) handleDeliverables(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := s.open()
	portal.Fetch(ctx, p.Links, p.Clients)

	q := r.URL.Query()
	filter := views.DeliverableFilter{
		Month:           q.Get("month"),
		ServiceType:     q.Get("service"),
		OpportunityType: q.Get("opportunity"),
	}

	rows := views.DeliverableRows(p.Links.Snapshot().Data)
	filtered := views.FilterDeliverables(rows, filter, s.deps.Now())

	data := s.page(p, "Deliverables", "deliverables-content", models.TableLinks, models.TableClients)
	data["Rows"] = filtered
	data["Budget"] = views.Budget(filtered, p.Clients.Snapshot().Data)
	data["Filter"] = filter
	data["Months"] = monthOptions(views.DeliverableMonths(rows))
	data["Services"] = views.DeliverableServices(rows)

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) liveLinks(r *http.Request, p *portal.Portal) ([]views.LiveLinkRow, []views.LiveLinkRow, views.LiveLinkFilter) {
	portal.Fetch(r.Context(), p.Links, p.Campaigns)

	q := r.URL.Query()
	filter := views.LiveLinkFilter{
		Month:           q.Get("month"),
		Campaign:        q.Get("campaign"),
		ContentType:     q.Get("content_type"),
		OpportunityType: q.Get("opportunity"),
	}
	rows := views.LiveLinkRows(p.Links.Snapshot().Data, p.Campaigns.Snapshot().Data)
	return rows, views.FilterLiveLinks(rows, filter, s.deps.Now()), filter
}

func (s *Server) handleLiveLinks(w http.ResponseWriter, r *http.Request) {
	p := s.open()
	rows, filtered, filter := s.liveLinks(r, p)
	opts := views.LiveLinkFilterOptions(rows)

	data := s.page(p, "Live Links", "live-links-content", models.TableLinks, models.TableCampaigns)
	data["Rows"] = filtered
	data["Filter"] = filter
	data["Months"] = monthOptions(opts.Months)
	data["Campaigns"] = opts.Campaigns
	data["ContentTypes"] = opts.ContentTypes
	data["AverageRating"] = views.Average(filtered, func(l views.LiveLinkRow) float64 { return l.DomainRating })
	data["CSVURL"] = csvURL(r)

	s.renderTemplate(w, "layout.html", data)
}

// csvURL is the export link carrying the page's current filters.
func csvURL(r *http.Request) template.URL {
	u := "/live-links.csv"
	if r.URL.RawQuery != "" {
		u += "?" + r.URL.RawQuery
	}
	return template.URL(u) //nolint:gosec // fixed path, query re-encoded by the request parser
}

func (s *Server) handleLiveLinksCSV(w http.ResponseWriter, r *http.Request) {
	p := s.open()
	_, filtered, _ := s.liveLinks(r, p)
	if errs := loadErrors(p, models.TableLinks); len(errs) > 0 {
		http.Error(w, errs[0], http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="live-links.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"URL", "Anchor Text", "Placement Date", "Domain Rating", "Content Type", "Campaign", "Reserved", "Recycled"})
	for _, l := range filtered {
		_ = cw.Write([]string{
			l.URL,
			l.AnchorText,
			l.FormattedDate,
			strconv.FormatFloat(l.DomainRating, 'f', -1, 64),
			l.ContentType,
			l.Campaign,
			strconv.FormatBool(l.IsReserved),
			strconv.FormatBool(l.IsRecycled),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("Error writing CSV: %v", err)
	}
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	p := s.open()
	p.Reports.Fetch(r.Context())

	q := r.URL.Query()
	filter := views.ReportFilter{Month: q.Get("month"), ServiceType: q.Get("service")}
	cards := views.ReportCards(p.Reports.Snapshot().Data)

	data := s.page(p, "Reports", "reports-content", models.TableReports)
	data["Cards"] = views.FilterReports(cards, filter, s.deps.Now())
	data["Filter"] = filter
	data["Months"] = monthOptions(views.ReportMonths(cards))
	data["Services"] = []string{models.ServiceLinkBuilding, models.ServicePPC}
	data["UploadMonths"] = uploadMonths(s.deps.Now())

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleReportUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.renderAlert(w, http.StatusBadRequest, "error", "Invalid upload form")
		return
	}

	up := portal.ReportUpload{
		Month:       r.FormValue("month"),
		ServiceType: r.FormValue("service_type"),
		Notes:       r.FormValue("notes"),
	}
	if file, header, err := r.FormFile("file"); err == nil {
		up.FileName = header.Filename
		_ = file.Close()
	}

	report, err := s.open().AddReport(r.Context(), up)
	if errors.Is(err, portal.ErrInvalidMonth) {
		s.renderAlert(w, http.StatusBadRequest, "error", "Please choose the month this report covers.")
		return
	}
	if err != nil {
		s.renderAlert(w, http.StatusBadGateway, "error", fmt.Sprintf("Failed to upload report: %v", err))
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/reports", http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Trigger", "report-added")
	s.renderAlert(w, http.StatusOK, "success",
		fmt.Sprintf("Report for %s (%s) added.", views.MonthLabel(report.Month), report.ServiceType))
}
