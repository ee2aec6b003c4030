package domain

import (
	"strings"
	"time"
)

// ComplianceStatus is the tri-state result of a compliance review. A deal
// without a score is reported as StatusPending.
type ComplianceStatus string

const (
	StatusPending ComplianceStatus = "pending"
	StatusGreen   ComplianceStatus = "green"
	StatusYellow  ComplianceStatus = "yellow"
	StatusRed     ComplianceStatus = "red"
)

// ParseComplianceStatus normalises a stored status value. Anything that is not
// green, yellow or red is treated as pending.
func ParseComplianceStatus(s string) ComplianceStatus {
	switch ComplianceStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusGreen:
		return StatusGreen
	case StatusYellow:
		return StatusYellow
	case StatusRed:
		return StatusRed
	default:
		return StatusPending
	}
}

// Rank orders statuses by severity: green < yellow < red. Pending ranks below
// green so it can never make an athlete look worse.
func (s ComplianceStatus) Rank() int {
	switch s {
	case StatusGreen:
		return 1
	case StatusYellow:
		return 2
	case StatusRed:
		return 3
	default:
		return 0
	}
}

// Scored reports whether the status is one of green, yellow or red.
func (s ComplianceStatus) Scored() bool {
	return s.Rank() > 0
}

// Worse returns the more severe of a and b.
func Worse(a, b ComplianceStatus) ComplianceStatus {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// DealStatus is the lifecycle state of a NIL deal.
type DealStatus string

const (
	DealSubmitted           DealStatus = "submitted"
	DealPending             DealStatus = "pending"
	DealApproved            DealStatus = "approved"
	DealRejected            DealStatus = "rejected"
	DealApprovedConditional DealStatus = "approved_conditional"
)

// Decided reports whether a compliance decision has been recorded. Decided
// deals no longer have a disclosure deadline.
func (s DealStatus) Decided() bool {
	switch s {
	case DealApproved, DealRejected, DealApprovedConditional:
		return true
	default:
		return false
	}
}

// Athlete is a college athlete on an institution's roster.
type Athlete struct {
	ID            string // athlete_profiles.id
	UserID        string // users.id, referenced by deals
	Username      string
	FullName      string
	Sport         string
	InstitutionID string
}

// DisplayName returns the full name, falling back to the username.
func (a Athlete) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Username
}

// Deal is a NIL deal submitted by an athlete.
type Deal struct {
	ID             string
	AthleteID      string // athlete user ID
	Title          string
	ThirdPartyName string
	// Compensation is the raw stored amount; it is parsed and clamped at
	// aggregation time.
	Compensation string
	DealType     string
	Status       DealStatus
	CreatedAt    time.Time
}

// Name returns the counterparty name, falling back to the deal title.
func (d Deal) Name() string {
	if d.ThirdPartyName != "" {
		return d.ThirdPartyName
	}
	return d.Title
}

// ComplianceScore is the review outcome for exactly one deal.
type ComplianceScore struct {
	DealID      string
	Status      ComplianceStatus
	ReasonCodes []string
	ReviewNotes string
	CreatedAt   time.Time
}

// ScoredDeal pairs a deal with its optional score.
type ScoredDeal struct {
	Deal  Deal
	Score *ComplianceScore
}

// Status returns the score status, or StatusPending when unscored.
func (sd ScoredDeal) Status() ComplianceStatus {
	if sd.Score == nil {
		return StatusPending
	}
	return sd.Score.Status
}

// AthleteDeals is one roster entry together with every deal the athlete has
// submitted, in store order.
type AthleteDeals struct {
	Athlete Athlete
	Deals   []ScoredDeal
}
