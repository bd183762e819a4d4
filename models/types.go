// ABOUTME: Typed view models for the portal's remote collections
// ABOUTME: Defines Approval, Link, Report, Campaign, Client, Opportunity and User with defaulting decoders
package models

import "time"

// Collection names in the remote base.
const (
	TableApprovals     = "Approvals"
	TableLinks         = "Links"
	TableReports       = "Reports"
	TableCampaigns     = "Campaigns"
	TableClients       = "Clients"
	TableOpportunities = "Opportunities"
	TableUsers         = "Users"
)

// PortalTables lists every collection the portal reads.
var PortalTables = []string{
	TableApprovals,
	TableLinks,
	TableReports,
	TableCampaigns,
	TableClients,
	TableOpportunities,
	TableUsers,
}

// Approval statuses.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Service types.
const (
	ServiceLinkBuilding = "Link Building"
	ServicePPC          = "PPC"
	ServiceDevelopment  = "Development"
)

// Approval field keys.
const (
	ApprovalFieldWebsiteID    = "website_id"
	ApprovalFieldStatus       = "status"
	ApprovalFieldDecisionDate = "decision_date"
	ApprovalFieldComments     = "comments"
	ApprovalFieldClientNotes  = "client_notes"
)

// Link field keys.
const (
	LinkFieldURL              = "url"
	LinkFieldAnchorText       = "anchor_text"
	LinkFieldPlacementDate    = "placement_date"
	LinkFieldDomainRating     = "domain_rating"
	LinkFieldEstimatedTraffic = "estimated_traffic"
	LinkFieldPrice            = "price"
	LinkFieldTargetPage       = "target_page"
	LinkFieldLinkCost         = "link_cost"
	LinkFieldOpportunityID    = "opportunity_id"
	LinkFieldContentType      = "content_type"
	LinkFieldIsReserved       = "is_reserved"
	LinkFieldIsRecycled       = "is_recycled"
	LinkFieldCampaignID       = "campaign_id"
)

// Report field keys.
const (
	ReportFieldMonth       = "month"
	ReportFieldServiceType = "service_type"
	ReportFieldPDFURL      = "pdf_url"
	ReportFieldNotes       = "notes"
)

// Campaign field keys.
const (
	CampaignFieldName        = "name"
	CampaignFieldStartDate   = "start_date"
	CampaignFieldEndDate     = "end_date"
	CampaignFieldTargetLinks = "target_links"
)

// Client field keys.
const (
	ClientFieldCompanyName  = "Company Name"
	ClientFieldStatus       = "Status"
	ClientFieldStatusCode   = "Status Code"
	ClientFieldManager      = "Manager"
	ClientFieldMonths       = "Months"
	ClientFieldTargetURLs   = "Target URLs"
	ClientFieldNextAction   = "Next Action"
	ClientFieldBudgetSpent  = "Budget Spent"
	ClientFieldTotalCosts   = "Total Costs"
	ClientFieldGrossProfit  = "Gross Profit"
	ClientFieldLiveLinks    = "Live Links"
	ClientFieldLinkBudget   = "Link Budget_Static"
	ClientFieldPricingPlan  = "Pricing Plan"
	ClientFieldMonthsWithUs = "Months With Us"
	ClientFieldLabel        = "Label"
)

// Opportunity field keys.
const (
	OpportunityFieldName          = "Name"
	OpportunityFieldStatus        = "Status"
	OpportunityFieldNumberOfCalls = "Number of Calls"
	OpportunityFieldDealValue     = "Deal Value"
	OpportunityFieldIsDealWon     = "Is Deal Won?"
	OpportunityFieldCreatedDate   = "Created Date"
	OpportunityFieldLastContacted = "Last Contacted"
	OpportunityFieldEmail         = "Email"
	OpportunityFieldPhone         = "Phone"
	OpportunityFieldSource        = "Source"
	OpportunityFieldNotes         = "Notes"
	OpportunityFieldCohort        = "Cohort"
)

// Shared timestamp keys.
const (
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Approval is a website placement waiting for (or given) a client decision.
type Approval struct {
	ID           string `json:"id"`
	WebsiteID    string `json:"website_id,omitempty"`
	Status       string `json:"status"`
	DecisionDate string `json:"decision_date,omitempty"`
	Comments     string `json:"comments,omitempty"`
	ClientNotes  string `json:"client_notes,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

func (a Approval) RecordID() string { return a.ID }

// ApprovalFromRecord decodes an approval. A missing status means Pending.
func ApprovalFromRecord(r Record) Approval {
	status := r.Text(ApprovalFieldStatus)
	if status == "" {
		status = StatusPending
	}
	return Approval{
		ID:           r.ID,
		WebsiteID:    r.Ref(ApprovalFieldWebsiteID),
		Status:       status,
		DecisionDate: r.Text(ApprovalFieldDecisionDate),
		Comments:     r.Text(ApprovalFieldComments),
		ClientNotes:  r.Text(ApprovalFieldClientNotes),
		CreatedAt:    createdAt(r),
		UpdatedAt:    r.Text(FieldUpdatedAt),
	}
}

// Link is a placed (or reserved) backlink.
type Link struct {
	ID               string  `json:"id"`
	URL              string  `json:"url"`
	AnchorText       string  `json:"anchor_text,omitempty"`
	PlacementDate    string  `json:"placement_date,omitempty"`
	DomainRating     float64 `json:"domain_rating"`
	EstimatedTraffic float64 `json:"estimated_traffic,omitempty"`
	Price            float64 `json:"price,omitempty"`
	TargetPage       string  `json:"target_page,omitempty"`
	LinkCost         float64 `json:"link_cost,omitempty"`
	OpportunityID    string  `json:"opportunity_id,omitempty"`
	ContentType      string  `json:"content_type,omitempty"`
	IsReserved       bool    `json:"is_reserved"`
	IsRecycled       bool    `json:"is_recycled"`
	CampaignID       string  `json:"campaign_id,omitempty"`
	CreatedAt        string  `json:"created_at,omitempty"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

func (l Link) RecordID() string { return l.ID }

// LinkFromRecord decodes a link. Numeric fields default to 0 and flags to false.
func LinkFromRecord(r Record) Link {
	return Link{
		ID:               r.ID,
		URL:              r.Text(LinkFieldURL),
		AnchorText:       r.Text(LinkFieldAnchorText),
		PlacementDate:    r.Text(LinkFieldPlacementDate),
		DomainRating:     r.Number(LinkFieldDomainRating),
		EstimatedTraffic: r.Number(LinkFieldEstimatedTraffic),
		Price:            r.Number(LinkFieldPrice),
		TargetPage:       r.Text(LinkFieldTargetPage),
		LinkCost:         r.Number(LinkFieldLinkCost),
		OpportunityID:    r.Ref(LinkFieldOpportunityID),
		ContentType:      r.Text(LinkFieldContentType),
		IsReserved:       r.Flag(LinkFieldIsReserved),
		IsRecycled:       r.Flag(LinkFieldIsRecycled),
		CampaignID:       r.Ref(LinkFieldCampaignID),
		CreatedAt:        createdAt(r),
		UpdatedAt:        r.Text(FieldUpdatedAt),
	}
}

// Report is a monthly report card. Month is stored as YYYY-MM-01.
type Report struct {
	ID          string `json:"id"`
	Month       string `json:"month"`
	ServiceType string `json:"service_type"`
	PDFURL      string `json:"pdf_url,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func (r Report) RecordID() string { return r.ID }

// ReportFromRecord decodes a report. A missing service type means Link Building.
func ReportFromRecord(r Record) Report {
	service := r.Text(ReportFieldServiceType)
	if service == "" {
		service = ServiceLinkBuilding
	}
	return Report{
		ID:          r.ID,
		Month:       r.Text(ReportFieldMonth),
		ServiceType: service,
		PDFURL:      r.Text(ReportFieldPDFURL),
		Notes:       r.Text(ReportFieldNotes),
		CreatedAt:   createdAt(r),
		UpdatedAt:   r.Text(FieldUpdatedAt),
	}
}

// Campaign groups links under a delivery target.
type Campaign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	TargetLinks int    `json:"target_links"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func (c Campaign) RecordID() string { return c.ID }

func CampaignFromRecord(r Record) Campaign {
	return Campaign{
		ID:          r.ID,
		Name:        r.Text(CampaignFieldName),
		StartDate:   r.Text(CampaignFieldStartDate),
		EndDate:     r.Text(CampaignFieldEndDate),
		TargetLinks: int(r.Number(CampaignFieldTargetLinks)),
		CreatedAt:   createdAt(r),
		UpdatedAt:   r.Text(FieldUpdatedAt),
	}
}

// Client is an agency customer account.
type Client struct {
	ID           string   `json:"id"`
	CompanyName  string   `json:"company_name"`
	Status       string   `json:"status,omitempty"`
	StatusCode   float64  `json:"status_code,omitempty"`
	Manager      []string `json:"manager,omitempty"`
	Months       []string `json:"months,omitempty"`
	TargetURLs   []string `json:"target_urls,omitempty"`
	NextAction   string   `json:"next_action,omitempty"`
	BudgetSpent  float64  `json:"budget_spent"`
	TotalCosts   float64  `json:"total_costs"`
	GrossProfit  float64  `json:"gross_profit"`
	LiveLinks    float64  `json:"live_links"`
	LinkBudget   float64  `json:"link_budget"`
	PricingPlan  []string `json:"pricing_plan,omitempty"`
	MonthsWithUs float64  `json:"months_with_us,omitempty"`
	Label        string   `json:"label,omitempty"`
}

func (c Client) RecordID() string { return c.ID }

func ClientFromRecord(r Record) Client {
	return Client{
		ID:           r.ID,
		CompanyName:  r.Text(ClientFieldCompanyName),
		Status:       r.Text(ClientFieldStatus),
		StatusCode:   r.Number(ClientFieldStatusCode),
		Manager:      r.Strings(ClientFieldManager),
		Months:       r.Strings(ClientFieldMonths),
		TargetURLs:   r.Strings(ClientFieldTargetURLs),
		NextAction:   r.Text(ClientFieldNextAction),
		BudgetSpent:  r.Number(ClientFieldBudgetSpent),
		TotalCosts:   r.Number(ClientFieldTotalCosts),
		GrossProfit:  r.Number(ClientFieldGrossProfit),
		LiveLinks:    r.Number(ClientFieldLiveLinks),
		LinkBudget:   r.Number(ClientFieldLinkBudget),
		PricingPlan:  r.Strings(ClientFieldPricingPlan),
		MonthsWithUs: r.Number(ClientFieldMonthsWithUs),
		Label:        r.Text(ClientFieldLabel),
	}
}

// Opportunity is a sales-pipeline entry.
type Opportunity struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Status        string   `json:"status,omitempty"`
	NumberOfCalls float64  `json:"number_of_calls"`
	DealValue     float64  `json:"deal_value"`
	IsDealWon     bool     `json:"is_deal_won"`
	CreatedDate   string   `json:"created_date,omitempty"`
	LastContacted string   `json:"last_contacted,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Source        string   `json:"source,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Cohort        []string `json:"cohort,omitempty"`
}

func (o Opportunity) RecordID() string { return o.ID }

func OpportunityFromRecord(r Record) Opportunity {
	return Opportunity{
		ID:            r.ID,
		Name:          r.Text(OpportunityFieldName),
		Status:        r.Text(OpportunityFieldStatus),
		NumberOfCalls: r.Number(OpportunityFieldNumberOfCalls),
		DealValue:     r.Number(OpportunityFieldDealValue),
		IsDealWon:     r.Flag(OpportunityFieldIsDealWon),
		CreatedDate:   r.Text(OpportunityFieldCreatedDate),
		LastContacted: r.Text(OpportunityFieldLastContacted),
		Email:         r.Text(OpportunityFieldEmail),
		Phone:         r.Text(OpportunityFieldPhone),
		Source:        r.Text(OpportunityFieldSource),
		Notes:         r.Text(OpportunityFieldNotes),
		Cohort:        r.Strings(OpportunityFieldCohort),
	}
}

// User roles.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleUser    = "User"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (u User) RecordID() string { return u.ID }

// UserFromRecord decodes a user. A missing role means User.
func UserFromRecord(r Record) User {
	role := r.Text("role")
	if role == "" {
		role = RoleUser
	}
	return User{
		ID:    r.ID,
		Email: r.Text("email"),
		Name:  r.Text("name"),
		Role:  role,
	}
}

// createdAt prefers an explicit created_at field and falls back to the record's createdTime.
func createdAt(r Record) string {
	if v := r.Text(FieldCreatedAt); v != "" {
		return v
	}
	if !r.CreatedTime.IsZero() {
		return r.CreatedTime.UTC().Format("2006-01-02")
	}
	return ""
}

// DecisionFields builds the partial update written when a client decides on an approval.
// Notes are only written when non-empty so existing client notes survive an approve.
func DecisionFields(status string, decided time.Time, notes string) map[string]any {
	fields := map[string]any{
		ApprovalFieldStatus:       status,
		ApprovalFieldDecisionDate: decided.Format("2006-01-02"),
	}
	if notes != "" {
		fields[ApprovalFieldClientNotes] = notes
	}
	return fields
}

// ReportFields builds the fields written for an uploaded report. month is YYYY-MM or YYYY-MM-DD
// and is normalised to the first of the month.
func ReportFields(month, serviceType, notes string) map[string]any {
	if len(month) >= 7 {
		month = month[:7] + "-01"
	}
	if serviceType == "" {
		serviceType = ServiceLinkBuilding
	}
	return map[string]any{
		ReportFieldMonth:       month,
		ReportFieldServiceType: serviceType,
		ReportFieldNotes:       notes,
	}
}
