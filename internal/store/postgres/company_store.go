package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// CompanyStore implements domain.CompanyStore using PostgreSQL.
type CompanyStore struct {
	pool *pgxpool.Pool
}

// NewCompanyStore creates a new CompanyStore backed by the given pool.
func NewCompanyStore(pool *pgxpool.Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

const companySelectCols = `id, cik, symbol, name, created_at, updated_at`

// Upsert inserts or updates a company keyed on its CIK and returns the
// persisted row. Symbol and name are refreshed from later filings.
func (s *CompanyStore) Upsert(ctx context.Context, c domain.Company) (domain.Company, error) {
	const query = `
		INSERT INTO companies (cik, symbol, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (cik) DO UPDATE SET
			symbol     = COALESCE(EXCLUDED.symbol, companies.symbol),
			name       = EXCLUDED.name,
			updated_at = NOW()
		RETURNING ` + companySelectCols

	var out domain.Company
	err := s.pool.QueryRow(ctx, query, c.CIK, c.Symbol, c.Name).Scan(
		&out.ID, &out.CIK, &out.Symbol, &out.Name, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return domain.Company{}, fmt.Errorf("postgres: upsert company %s: %w", c.CIK, err)
	}
	return out, nil
}

// GetByCIK returns the company with the given canonical CIK.
func (s *CompanyStore) GetByCIK(ctx context.Context, cik string) (domain.Company, error) {
	const query = `SELECT ` + companySelectCols + ` FROM companies WHERE cik = $1`

	var out domain.Company
	err := s.pool.QueryRow(ctx, query, cik).Scan(
		&out.ID, &out.CIK, &out.Symbol, &out.Name, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Company{}, fmt.Errorf("postgres: get company %s: %w", cik, err)
	}
	return out, nil
}

// Count returns the total number of companies.
func (s *CompanyStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count companies: %w", err)
	}
	return n, nil
}
