package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatnil/compliancehub/internal/domain"
)

// ScoreStore implements domain.ScoreStore using PostgreSQL.
type ScoreStore struct {
	pool *pgxpool.Pool
}

// NewScoreStore creates a new ScoreStore backed by the given connection pool.
func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

// ListByDeals returns the compliance scores for the given deal IDs. Deals
// without a score are simply absent from the result.
func (s *ScoreStore) ListByDeals(ctx context.Context, dealIDs []string) ([]domain.ComplianceScore, error) {
	scores := []domain.ComplianceScore{}
	if len(dealIDs) == 0 {
		return scores, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT deal_id::text, COALESCE(status, ''), COALESCE(reason_codes, '{}'),
		       COALESCE(review_notes, ''), created_at
		FROM compliance_scores
		WHERE deal_id = ANY($1::uuid[])`,
		dealIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc domain.ComplianceScore
		var status string
		if err := rows.Scan(&sc.DealID, &status, &sc.ReasonCodes, &sc.ReviewNotes, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan score: %w", err)
		}
		sc.Status = domain.ParseComplianceStatus(status)
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list scores rows: %w", err)
	}
	return scores, nil
}

var _ domain.ScoreStore = (*ScoreStore)(nil)
