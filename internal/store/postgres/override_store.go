package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatnil/compliancehub/internal/domain"
)

// OverrideStore implements domain.OverrideStore using PostgreSQL.
type OverrideStore struct {
	pool *pgxpool.Pool
}

// NewOverrideStore creates a new OverrideStore backed by the given connection pool.
func NewOverrideStore(pool *pgxpool.Pool) *OverrideStore {
	return &OverrideStore{pool: pool}
}

// CountByAthletes counts score overrides logged against the given athletes.
func (s *OverrideStore) CountByAthletes(ctx context.Context, athleteUserIDs []string) (int, error) {
	if len(athleteUserIDs) == 0 {
		return 0, nil
	}
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM compliance_overrides WHERE athlete_id = ANY($1::uuid[])`,
		athleteUserIDs,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count overrides: %w", err)
	}
	return n, nil
}

var _ domain.OverrideStore = (*OverrideStore)(nil)
