// ABOUTME: Settings, schema viewer and link map pages
// ABOUTME: Settings persist through the settings store; schema and graph pages are read-only
package web

import (
	"fmt"
	"log"
	"net/http"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/schema"
	"github.com/jstnrme77/reportcard-portal/viz"
)

// localBaseID names the schema of the local store when no base is configured.
const localBaseID = "local"

func (s *Server) loadSettings() (models.Settings, error) {
	if s.deps.Settings == nil {
		return models.DefaultSettings(), errNoSettingsStore
	}
	return s.deps.Settings.LoadSettings()
}

func (s *Server) settingsPage(settings models.Settings) map[string]interface{} {
	data := s.page(nil, "Settings", "settings-content")
	data["Settings"] = settings
	data["Connection"] = s.deps.Config.Status()
	data["BaseID"] = s.deps.Config.AirtableBaseID
	return data
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.loadSettings()
	data := s.settingsPage(settings)
	if err != nil {
		log.Printf("Error loading settings: %v", err)
		data["Errors"] = []string{fmt.Sprintf("Failed to load settings: %v", err)}
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAlert(w, http.StatusBadRequest, "error", "Invalid form")
		return
	}

	checked := func(name string) bool { return r.PostFormValue(name) == "on" }
	settings := models.Settings{
		Notifications: models.NotificationSettings{
			EmailAlerts:      checked("email_alerts"),
			AppNotifications: checked("app_notifications"),
			WeeklyDigest:     checked("weekly_digest"),
		},
		Display: models.DisplaySettings{
			DarkMode:    checked("dark_mode"),
			CompactView: checked("compact_view"),
		},
		Account: models.AccountSettings{
			Name:  r.PostFormValue("name"),
			Email: r.PostFormValue("email"),
			Role:  r.PostFormValue("role"),
		},
	}

	if s.deps.Settings == nil {
		s.renderAlert(w, http.StatusBadGateway, "error", fmt.Sprintf("Failed to save settings: %v", errNoSettingsStore))
		return
	}
	if err := s.deps.Settings.SaveSettings(settings); err != nil {
		log.Printf("Error saving settings: %v", err)
		s.renderAlert(w, http.StatusBadGateway, "error", fmt.Sprintf("Failed to save settings: %v", err))
		return
	}

	if isHTMX(r) {
		s.renderAlert(w, http.StatusOK, "success", "Settings saved.")
		return
	}
	data := s.settingsPage(settings)
	data["Saved"] = true
	s.renderTemplate(w, "layout.html", data)
}

// tableView is one table on the schema page.
type tableView struct {
	schema.TableSchema
	Primary string
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	baseID := s.deps.Config.AirtableBaseID
	if baseID == "" || s.deps.Config.Demo {
		baseID = localBaseID
	}

	var (
		base schema.BaseSchema
		err  error
	)
	if r.URL.Query().Get("refresh") == "1" {
		base, err = s.deps.Inspector.Refresh(r.Context(), baseID)
	} else {
		base, err = s.deps.Inspector.Inspect(r.Context(), baseID)
	}

	data := s.page(nil, "Schema", "schema-content")
	if err != nil {
		log.Printf("Error inspecting schema: %v", err)
		data["Errors"] = []string{fmt.Sprintf("Failed to inspect schema: %v", err)}
	}

	tables := make([]tableView, 0, len(base.Tables))
	for _, t := range base.Tables {
		tv := tableView{TableSchema: t}
		if f, ok := schema.PrimaryField(t); ok {
			tv.Primary = f.Name
		}
		tables = append(tables, tv)
	}

	data["Base"] = base
	data["Tables"] = tables
	data["Validation"] = schema.Validate(base)
	data["Connection"] = s.deps.Config.Status()

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := s.open()
	portal.Fetch(ctx, p.Campaigns, p.Links)

	data := s.page(p, "Graphs", "graphs-content", models.TableCampaigns, models.TableLinks)

	dot, err := viz.GenerateLinkGraph(ctx, p.Campaigns.Snapshot().Data, p.Links.Snapshot().Data)
	if err != nil {
		log.Printf("Error generating link graph: %v", err)
		data["Errors"] = append(data["Errors"].([]string), fmt.Sprintf("Failed to draw link map: %v", err))
	}
	data["DOT"] = dot

	s.renderTemplate(w, "layout.html", data)
}
