package domain

import "time"

// Severity classifies an action item.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// DashboardSummary is the read-only compliance overview for one institution.
// It is derived per request and never persisted, except as an archived
// snapshot.
type DashboardSummary struct {
	Institution    *InstitutionHeader `json:"institution,omitempty"`
	Officer        *OfficerHeader     `json:"officer,omitempty"`
	ActionRequired []ActionItem       `json:"actionRequired"`
	ProgramHealth  ProgramHealth      `json:"programHealth"`
	ThisWeek       WeekSummary        `json:"thisWeek"`
	AuditReadiness AuditReadiness     `json:"auditReadiness"`
	Deadlines      Deadlines          `json:"deadlines"`
	BySport        []SportCompliance  `json:"bySport"`
	RecentActivity []Activity         `json:"recentActivity"`
	IsEmpty        bool               `json:"isEmpty"`
	GeneratedAt    time.Time          `json:"generatedAt"`
}

// InstitutionHeader identifies the institution a summary belongs to.
type InstitutionHeader struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// OfficerHeader identifies the officer viewing the summary.
type OfficerHeader struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ActionItem is a yellow or red deal awaiting officer attention.
type ActionItem struct {
	ID          string    `json:"id"`
	AthleteID   string    `json:"athleteId"`
	AthleteName string    `json:"athleteName"`
	Sport       string    `json:"sport"`
	DealID      string    `json:"dealId"`
	Severity    Severity  `json:"severity"`
	Issue       string    `json:"issue"`
	Amount      float64   `json:"amount"`
	Action      string    `json:"action"`
	DueDate     time.Time `json:"dueDate"`
}

// ProgramHealth is the share of scored deals that are green.
type ProgramHealth struct {
	Percentage    float64 `json:"percentage"`
	Trend         float64 `json:"trend"`
	TotalAthletes int     `json:"totalAthletes"`
	TotalDeals    int     `json:"totalDeals"`
}

// WeekSummary covers deals submitted in the trailing seven days.
type WeekSummary struct {
	Submitted     int     `json:"submitted"`
	Reviewed      int     `json:"reviewed"`
	Pending       int     `json:"pending"`
	PastDeadline  int     `json:"pastDeadline"`
	AvgReviewTime float64 `json:"avgReviewTime"` // hours
}

// AuditReadiness reports documentation coverage for audits.
type AuditReadiness struct {
	Documented      int `json:"documented"`
	MissedDeadlines int `json:"missedDeadlines"`
	OverridesLogged int `json:"overridesLogged"`
}

// Deadlines buckets undecided deals by disclosure deadline.
type Deadlines struct {
	Overdue       int            `json:"overdue"`
	Today         int            `json:"today"`
	Tomorrow      int            `json:"tomorrow"`
	ThisWeek      int            `json:"thisWeek"`
	NextWeek      int            `json:"nextWeek"`
	OverdueItems  []DeadlineItem `json:"overdueItems"`
	TodayItems    []DeadlineItem `json:"todayItems"`
	TomorrowItems []DeadlineItem `json:"tomorrowItems"`
}

// DeadlineItem previews one deal in a deadline bucket.
type DeadlineItem struct {
	ID          string    `json:"id"`
	AthleteID   string    `json:"athleteId"`
	AthleteName string    `json:"athleteName"`
	DealName    string    `json:"dealName"`
	Amount      float64   `json:"amount"`
	Deadline    time.Time `json:"deadline"`
}

// SportCompliance is the per-sport share of athletes whose worst deal is green.
type SportCompliance struct {
	Sport                string `json:"sport"`
	TotalAthletes        int    `json:"totalAthletes"`
	CompliancePercentage int    `json:"compliancePercentage"`
	RedCount             int    `json:"redCount"`
	YellowCount          int    `json:"yellowCount"`
}

// Activity is a human-readable feed entry.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	AthleteName string    `json:"athleteName"`
	DealName    string    `json:"dealName"`
}

// ActionPage is one page of the filtered action-item queue.
type ActionPage struct {
	Items      []ActionItem `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
}
