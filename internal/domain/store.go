package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// OfficerStore resolves compliance officers and their institutions.
type OfficerStore interface {
	// ResolveOfficer returns ErrNotFound when userID is not a compliance
	// officer at any institution.
	ResolveOfficer(ctx context.Context, userID string) (Officer, error)
	GetInstitution(ctx context.Context, id string) (Institution, error)
	ListInstitutionIDs(ctx context.Context) ([]string, error)
}

// AthleteStore reads institution rosters.
type AthleteStore interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]Athlete, error)
}

// DealStore reads NIL deals.
type DealStore interface {
	ListByAthletes(ctx context.Context, athleteUserIDs []string) ([]Deal, error)
}

// ScoreStore reads compliance scores.
type ScoreStore interface {
	ListByDeals(ctx context.Context, dealIDs []string) ([]ComplianceScore, error)
}

// OverrideStore reads the override audit trail.
type OverrideStore interface {
	CountByAthletes(ctx context.Context, athleteUserIDs []string) (int, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
