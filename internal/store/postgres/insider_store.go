package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// InsiderStore implements domain.InsiderStore using PostgreSQL.
type InsiderStore struct {
	pool *pgxpool.Pool
}

// NewInsiderStore creates a new InsiderStore backed by the given pool.
func NewInsiderStore(pool *pgxpool.Pool) *InsiderStore {
	return &InsiderStore{pool: pool}
}

const insiderSelectCols = `id, company_id, name, title, is_director, is_officer,
	is_ten_percent_owner, is_other, created_at, updated_at`

// Upsert inserts or updates an insider keyed on (company_id, name) and
// returns the persisted row.
func (s *InsiderStore) Upsert(ctx context.Context, in domain.Insider) (domain.Insider, error) {
	const query = `
		INSERT INTO insiders (
			company_id, name, title, is_director, is_officer,
			is_ten_percent_owner, is_other, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (company_id, name) DO UPDATE SET
			title                = COALESCE(EXCLUDED.title, insiders.title),
			is_director          = EXCLUDED.is_director,
			is_officer           = EXCLUDED.is_officer,
			is_ten_percent_owner = EXCLUDED.is_ten_percent_owner,
			is_other             = EXCLUDED.is_other,
			updated_at           = NOW()
		RETURNING ` + insiderSelectCols

	var out domain.Insider
	err := s.pool.QueryRow(ctx, query,
		in.CompanyID, in.Name, in.Title,
		in.IsDirector, in.IsOfficer, in.IsTenPercentOwner, in.IsOther,
	).Scan(
		&out.ID, &out.CompanyID, &out.Name, &out.Title,
		&out.IsDirector, &out.IsOfficer, &out.IsTenPercentOwner, &out.IsOther,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return domain.Insider{}, fmt.Errorf("postgres: upsert insider %q: %w", in.Name, err)
	}
	return out, nil
}
