// ABOUTME: Web portal server with embedded templates
// ABOUTME: Serves the report-card pages and the approve, reject, upload and settings actions
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jstnrme77/reportcard-portal/collection"
	"github.com/jstnrme77/reportcard-portal/config"
	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/schema"
	"github.com/jstnrme77/reportcard-portal/views"
)

//go:embed templates/*
var templatesFS embed.FS

// maxUploadMemory bounds the multipart form kept in memory for report uploads.
const maxUploadMemory = 10 << 20

var errNoSettingsStore = errors.New("settings storage is not available")

// SettingsStore loads and saves portal settings.
type SettingsStore interface {
	LoadSettings() (models.Settings, error)
	SaveSettings(models.Settings) error
}

// Deps are the collaborators the server is built from. Only Store is required.
type Deps struct {
	Store     collection.Store
	Settings  SettingsStore
	Config    *config.Config
	Inspector *schema.Inspector
	Now       func() time.Time
}

type Server struct {
	deps      Deps
	open      portal.Opener
	templates *template.Template
	handler   http.Handler
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("web server needs a record store")
	}
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Inspector == nil {
		deps.Inspector = schema.NewInspector(deps.Store)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	funcMap := template.FuncMap{
		"money": func(v float64) string {
			return fmt.Sprintf("$%.2f", v)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		},
		"rating": func(v float64) string {
			return fmt.Sprintf("%.0f", v)
		},
		"monthLabel": views.MonthLabel,
		"join":       strings.Join,
		"lower":      strings.ToLower,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		deps:      deps,
		open:      portal.NewOpener(deps.Store, deps.Now),
		templates: tmpl,
	}
	s.handler = requestLogger(s.routes())
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /approvals", s.handleApprovals)
	mux.HandleFunc("POST /approvals/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /approvals/{id}/reject", s.handleReject)
	mux.HandleFunc("GET /deliverables", s.handleDeliverables)
	mux.HandleFunc("GET /live-links", s.handleLiveLinks)
	mux.HandleFunc("GET /live-links.csv", s.handleLiveLinksCSV)
	mux.HandleFunc("GET /reports", s.handleReports)
	mux.HandleFunc("POST /reports", s.handleReportUpload)
	mux.HandleFunc("GET /settings", s.handleSettings)
	mux.HandleFunc("POST /settings", s.handleSettingsSave)
	mux.HandleFunc("GET /schema", s.handleSchema)
	mux.HandleFunc("GET /graphs", s.handleGraphs)
	mux.HandleFunc("GET /help", s.handleHelp)

	// Everything else
	mux.HandleFunc("/", s.handleNotFound)

	return mux
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Starting web server at http://localhost%s", addr)
	return srv.ListenAndServe()
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	s.renderStatus(w, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Template error rendering %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(buf.String())); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// page builds the data every layout render needs. p is the request's portal and
// may be nil for pages that read no collection.
func (s *Server) page(p *portal.Portal, title, content string, tables ...string) map[string]interface{} {
	return map[string]interface{}{
		"Title":           title,
		"ContentTemplate": content,
		"Errors":          loadErrors(p, tables...),
		"Demo":            s.deps.Config.Demo,
	}
}

// loadErrors returns banner lines for the tables whose last fetch failed.
func loadErrors(p *portal.Portal, tables ...string) []string {
	if p == nil {
		return nil
	}
	errs := p.Errors()
	var lines []string
	for _, t := range tables {
		if err, ok := errs[t]; ok {
			lines = append(lines, fmt.Sprintf("Failed to load %s: %v", t, err))
		}
	}
	return lines
}

type alert struct {
	Kind    string // error or success
	Message string
}

func (s *Server) renderAlert(w http.ResponseWriter, status int, kind, message string) {
	s.renderStatus(w, status, "alert", alert{Kind: kind, Message: message})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p := s.open()
	stats := p.Dashboard(r.Context())

	data := s.page(p, "Dashboard", "dashboard-content",
		models.TableApprovals, models.TableLinks, models.TableCampaigns, models.TableReports)
	data["Stats"] = stats
	data["Connection"] = s.deps.Config.Status()

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	data := s.page(nil, "Not Found", "notfound-content")
	data["Path"] = r.URL.Path
	s.renderStatus(w, http.StatusNotFound, "layout.html", data)
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "layout.html", s.page(nil, "Help", "help-content"))
}

// option is one choice in a filter select.
type option struct {
	Value string
	Label string
}

func monthOptions(keys []string) []option {
	opts := []option{{Value: views.SelectAll, Label: "All months"}, {Value: "current", Label: "Current month"}}
	for _, k := range keys {
		opts = append(opts, option{Value: k, Label: views.MonthLabel(k)})
	}
	return opts
}

// uploadMonths offers the current month and the eleven before it.
func uploadMonths(now time.Time) []option {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	opts := make([]option, 0, 12)
	for i := 0; i < 12; i++ {
		m := first.AddDate(0, -i, 0)
		opts = append(opts, option{Value: m.Format("2006-01-02"), Label: m.Format("January 2006")})
	}
	return opts
}
