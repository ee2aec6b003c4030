package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatnil/compliancehub/internal/domain"
)

const (
	roleComplianceOfficer = "compliance_officer"
	roleCollegeAthlete    = "college_athlete"

	defaultOfficerName = "Compliance Officer"
)

// OfficerStore implements domain.OfficerStore using PostgreSQL.
type OfficerStore struct {
	pool *pgxpool.Pool
}

// NewOfficerStore creates a new OfficerStore backed by the given connection pool.
func NewOfficerStore(pool *pgxpool.Pool) *OfficerStore {
	return &OfficerStore{pool: pool}
}

type officerRow struct {
	institutionID string
	institution   string
	logoURL       string
	title         string
	fullName      string
	username      string
}

// ResolveOfficer looks the user up in institution_staff first and falls back
// to a legacy athlete_profiles row with the compliance_officer role.
func (s *OfficerStore) ResolveOfficer(ctx context.Context, userID string) (domain.Officer, error) {
	row, err := s.staffOfficer(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		row, err = s.legacyOfficer(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Officer{}, domain.ErrNotFound
		}
		return domain.Officer{}, fmt.Errorf("postgres: resolve officer %s: %w", userID, err)
	}
	if row.institutionID == "" {
		return domain.Officer{}, fmt.Errorf("postgres: officer %s has no institution: %w", userID, domain.ErrForbidden)
	}

	return domain.Officer{
		UserID: userID,
		Name:   firstNonEmpty(row.fullName, row.username, row.title, defaultOfficerName),
		Title:  row.title,
		Institution: domain.Institution{
			ID:      row.institutionID,
			Name:    firstNonEmpty(row.institution, domain.DefaultInstitutionName),
			LogoURL: row.logoURL,
		},
	}, nil
}

func (s *OfficerStore) staffOfficer(ctx context.Context, userID string) (officerRow, error) {
	var r officerRow
	err := s.pool.QueryRow(ctx, `
		SELECT st.institution_id::text, COALESCE(i.name, ''), COALESCE(i.logo_url, ''),
		       COALESCE(st.title, ''), COALESCE(p.full_name, ''), COALESCE(p.username, '')
		FROM institution_staff st
		LEFT JOIN institutions i ON i.id = st.institution_id
		LEFT JOIN profiles p ON p.id = st.user_id
		WHERE st.user_id = $1 AND st.role = $2
		ORDER BY st.created_at
		LIMIT 1`,
		userID, roleComplianceOfficer,
	).Scan(&r.institutionID, &r.institution, &r.logoURL, &r.title, &r.fullName, &r.username)
	return r, err
}

func (s *OfficerStore) legacyOfficer(ctx context.Context, userID string) (officerRow, error) {
	var r officerRow
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(ap.institution_id::text, ''), COALESCE(i.name, ap.school_name, ''),
		       COALESCE(i.logo_url, ''), COALESCE(p.full_name, ap.full_name, ''),
		       COALESCE(p.username, ap.username, '')
		FROM athlete_profiles ap
		LEFT JOIN institutions i ON i.id = ap.institution_id
		LEFT JOIN profiles p ON p.id = ap.user_id
		WHERE ap.user_id = $1 AND ap.role = $2`,
		userID, roleComplianceOfficer,
	).Scan(&r.institutionID, &r.institution, &r.logoURL, &r.fullName, &r.username)
	return r, err
}

// GetInstitution returns the institution with the given ID. An ID known only
// from athlete_profiles resolves to the school name recorded there.
func (s *OfficerStore) GetInstitution(ctx context.Context, id string) (domain.Institution, error) {
	inst := domain.Institution{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT name, COALESCE(logo_url, '') FROM institutions WHERE id = $1`, id,
	).Scan(&inst.Name, &inst.LogoURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.legacyInstitution(ctx, id)
	}
	if err != nil {
		return domain.Institution{}, fmt.Errorf("postgres: get institution %s: %w", id, err)
	}
	return inst, nil
}

func (s *OfficerStore) legacyInstitution(ctx context.Context, id string) (domain.Institution, error) {
	var name string
	var profiles int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(school_name), ''), COUNT(*)
		FROM athlete_profiles
		WHERE institution_id = $1`,
		id,
	).Scan(&name, &profiles)
	if err != nil {
		return domain.Institution{}, fmt.Errorf("postgres: get legacy institution %s: %w", id, err)
	}
	if profiles == 0 {
		return domain.Institution{}, domain.ErrNotFound
	}
	return domain.Institution{ID: id, Name: firstNonEmpty(name, domain.DefaultInstitutionName)}, nil
}

// ListInstitutionIDs returns every institution that has a roster, including
// legacy institutions only referenced from athlete_profiles.
func (s *OfficerStore) ListInstitutionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text FROM institutions
		UNION
		SELECT DISTINCT institution_id::text FROM athlete_profiles
		WHERE institution_id IS NOT NULL AND role = $1
		ORDER BY 1`,
		roleCollegeAthlete,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list institutions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: scan institutions: %w", err)
	}
	return ids, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ domain.OfficerStore = (*OfficerStore)(nil)
