package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatnil/compliancehub/internal/domain"
)

// AthleteStore implements domain.AthleteStore using PostgreSQL.
type AthleteStore struct {
	pool *pgxpool.Pool
}

// NewAthleteStore creates a new AthleteStore backed by the given connection pool.
func NewAthleteStore(pool *pgxpool.Pool) *AthleteStore {
	return &AthleteStore{pool: pool}
}

// ListByInstitution returns the college athletes on an institution's roster
// in profile creation order.
func (s *AthleteStore) ListByInstitution(ctx context.Context, institutionID string) ([]domain.Athlete, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, user_id::text, COALESCE(username, ''), COALESCE(full_name, ''),
		       COALESCE(sport, ''), institution_id::text
		FROM athlete_profiles
		WHERE institution_id = $1 AND role = $2
		ORDER BY created_at, id`,
		institutionID, roleCollegeAthlete,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list athletes for %s: %w", institutionID, err)
	}
	defer rows.Close()

	athletes := []domain.Athlete{}
	for rows.Next() {
		var a domain.Athlete
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.FullName, &a.Sport, &a.InstitutionID); err != nil {
			return nil, fmt.Errorf("postgres: scan athlete: %w", err)
		}
		athletes = append(athletes, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list athletes rows: %w", err)
	}
	return athletes, nil
}

var _ domain.AthleteStore = (*AthleteStore)(nil)
