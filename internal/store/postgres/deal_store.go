package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatnil/compliancehub/internal/domain"
)

// DealStore implements domain.DealStore using PostgreSQL.
type DealStore struct {
	pool *pgxpool.Pool
}

// NewDealStore creates a new DealStore backed by the given connection pool.
func NewDealStore(pool *pgxpool.Pool) *DealStore {
	return &DealStore{pool: pool}
}

// ListByAthletes returns every deal owned by the given athlete user IDs.
func (s *DealStore) ListByAthletes(ctx context.Context, athleteUserIDs []string) ([]domain.Deal, error) {
	deals := []domain.Deal{}
	if len(athleteUserIDs) == 0 {
		return deals, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id::text, athlete_id::text, COALESCE(deal_title, ''), COALESCE(third_party_name, ''),
		       COALESCE(compensation_amount::text, ''), COALESCE(deal_type, ''), status, created_at
		FROM nil_deals
		WHERE athlete_id = ANY($1::uuid[])
		ORDER BY created_at, id`,
		athleteUserIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list deals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Deal
		var status string
		if err := rows.Scan(&d.ID, &d.AthleteID, &d.Title, &d.ThirdPartyName,
			&d.Compensation, &d.DealType, &status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan deal: %w", err)
		}
		d.Status = domain.DealStatus(status)
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list deals rows: %w", err)
	}
	return deals, nil
}

var _ domain.DealStore = (*DealStore)(nil)
