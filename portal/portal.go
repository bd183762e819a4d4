// ABOUTME: The set of collection bindings every portal surface works against
// ABOUTME: Web, TUI, CLI and MCP share these fetch and mutation paths
package portal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jstnrme77/reportcard-portal/collection"
	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/viz"
)

var (
	ErrCommentsRequired = errors.New("comments are required to reject an approval")
	ErrInvalidMonth     = errors.New("month must be YYYY-MM or YYYY-MM-DD")
)

// Portal holds one binding per collection the pages read. A Portal is one
// page's worth of state: long-lived surfaces like the TUI keep one, while
// request-driven surfaces open a fresh one per request through an Opener.
type Portal struct {
	Approvals     *collection.Binding[models.Approval]
	Links         *collection.Binding[models.Link]
	Reports       *collection.Binding[models.Report]
	Campaigns     *collection.Binding[models.Campaign]
	Clients       *collection.Binding[models.Client]
	Opportunities *collection.Binding[models.Opportunity]
	Users         *collection.Binding[models.User]

	now func() time.Time
}

// Opener returns a Portal with its own bindings.
type Opener func() *Portal

// NewOpener returns an Opener over store.
func NewOpener(store collection.Store, now func() time.Time) Opener {
	return func() *Portal {
		return New(store, now)
	}
}

// New binds every collection to store. A nil now uses time.Now.
func New(store collection.Store, now func() time.Time) *Portal {
	if now == nil {
		now = time.Now
	}
	return &Portal{
		Approvals:     collection.New(store, models.TableApprovals, models.ApprovalFromRecord),
		Links:         collection.New(store, models.TableLinks, models.LinkFromRecord),
		Reports:       collection.New(store, models.TableReports, models.ReportFromRecord),
		Campaigns:     collection.New(store, models.TableCampaigns, models.CampaignFromRecord),
		Clients:       collection.New(store, models.TableClients, models.ClientFromRecord),
		Opportunities: collection.New(store, models.TableOpportunities, models.OpportunityFromRecord),
		Users:         collection.New(store, models.TableUsers, models.UserFromRecord),
		now:           now,
	}
}

// Now returns the portal clock.
func (p *Portal) Now() time.Time {
	return p.now()
}

// Fetcher is anything that can be refreshed, such as a binding.
type Fetcher interface {
	Fetch(ctx context.Context)
}

// Fetch refreshes the given bindings one after another. Failures are recorded
// in each binding's state.
func Fetch(ctx context.Context, fetchers ...Fetcher) {
	for _, f := range fetchers {
		f.Fetch(ctx)
	}
}

// All returns every binding in page order.
func (p *Portal) All() []Fetcher {
	return []Fetcher{p.Approvals, p.Links, p.Reports, p.Campaigns, p.Clients}
}

// Approve marks an approval approved with today's decision date.
func (p *Portal) Approve(ctx context.Context, id string) (models.Approval, error) {
	a, err := p.Approvals.Update(ctx, id, models.DecisionFields(models.StatusApproved, p.now(), ""))
	if err != nil {
		log.Printf("Error approving %s: %v", id, err)
		return models.Approval{}, err
	}
	return a, nil
}

// Reject marks an approval rejected and stores the client's comments.
func (p *Portal) Reject(ctx context.Context, id, comments string) (models.Approval, error) {
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return models.Approval{}, ErrCommentsRequired
	}
	a, err := p.Approvals.Update(ctx, id, models.DecisionFields(models.StatusRejected, p.now(), comments))
	if err != nil {
		log.Printf("Error rejecting %s: %v", id, err)
		return models.Approval{}, err
	}
	return a, nil
}

// ReportUpload is the metadata submitted with a report file. The file itself is
// never stored; FileName is only logged.
type ReportUpload struct {
	Month       string
	ServiceType string
	Notes       string
	FileName    string
}

// AddReport writes report metadata for the month.
func (p *Portal) AddReport(ctx context.Context, up ReportUpload) (models.Report, error) {
	month := strings.TrimSpace(up.Month)
	if len(month) < 7 {
		return models.Report{}, ErrInvalidMonth
	}
	if _, err := time.Parse("2006-01", month[:7]); err != nil {
		return models.Report{}, fmt.Errorf("%w: %q", ErrInvalidMonth, up.Month)
	}

	if up.FileName != "" {
		log.Printf("Report file %q received for %s (metadata only)", up.FileName, month[:7])
	}

	r, err := p.Reports.Create(ctx, models.ReportFields(month, up.ServiceType, up.Notes))
	if err != nil {
		log.Printf("Error adding report for %s: %v", month, err)
		return models.Report{}, err
	}
	return r, nil
}

// Dashboard fetches what the dashboard needs and computes its stats.
func (p *Portal) Dashboard(ctx context.Context) *viz.DashboardStats {
	Fetch(ctx, p.Approvals, p.Links, p.Campaigns, p.Reports)
	return viz.GenerateDashboardStats(viz.DashboardInput{
		Approvals: p.Approvals.Snapshot().Data,
		Links:     p.Links.Snapshot().Data,
		Campaigns: p.Campaigns.Snapshot().Data,
		Reports:   p.Reports.Snapshot().Data,
	}, p.now())
}

// Errors returns the current error of each failed binding, keyed by table.
func (p *Portal) Errors() map[string]error {
	errs := make(map[string]error)
	add := func(table string, err error) {
		if err != nil {
			errs[table] = err
		}
	}
	add(p.Approvals.Table(), p.Approvals.Snapshot().Err)
	add(p.Links.Table(), p.Links.Snapshot().Err)
	add(p.Reports.Table(), p.Reports.Snapshot().Err)
	add(p.Campaigns.Table(), p.Campaigns.Snapshot().Err)
	add(p.Clients.Table(), p.Clients.Snapshot().Err)
	add(p.Opportunities.Table(), p.Opportunities.Snapshot().Err)
	add(p.Users.Table(), p.Users.Snapshot().Err)
	return errs
}

// Watch returns a channel signalled whenever any page binding changes, whoever
// changed it, and a function that stops watching and closes the channel.
func (p *Portal) Watch() (<-chan struct{}, func()) {
	out := make(chan struct{}, 1)
	done := make(chan struct{})

	subscribers := []func() (<-chan struct{}, func()){
		p.Approvals.Subscribe,
		p.Links.Subscribe,
		p.Reports.Subscribe,
		p.Campaigns.Subscribe,
		p.Clients.Subscribe,
	}
	stops := make([]func(), 0, len(subscribers))
	var wg sync.WaitGroup
	for _, subscribe := range subscribers {
		ch, stop := subscribe()
		stops = append(stops, stop)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case <-ch:
					select {
					case out <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			for _, stop := range stops {
				stop()
			}
			wg.Wait()
			close(out)
		})
	}
}
