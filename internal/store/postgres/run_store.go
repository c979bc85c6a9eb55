package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// RunStore implements domain.RunStore using PostgreSQL.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a new RunStore backed by the given pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Insert persists the stats of one completed pipeline run.
func (s *RunStore) Insert(ctx context.Context, stats domain.RunStats) error {
	errsJSON, err := json.Marshal(stats.Errors)
	if err != nil {
		return fmt.Errorf("postgres: marshal run errors: %w", err)
	}

	const query = `
		INSERT INTO pipeline_runs (
			run_id, started_at, finished_at, filings_fetched,
			filings_processed, filings_skipped, transactions_saved,
			alerts_sent, errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.pool.Exec(ctx, query,
		stats.RunID, stats.StartedAt, stats.FinishedAt, stats.FilingsFetched,
		stats.FilingsProcessed, stats.FilingsSkipped, stats.TransactionsSaved,
		stats.AlertsSent, errsJSON,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert pipeline run %s: %w", stats.RunID, err)
	}
	return nil
}

// ListRecent returns the most recent run stats, newest first.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]domain.RunStats, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT run_id, started_at, finished_at, filings_fetched,
			filings_processed, filings_skipped, transactions_saved,
			alerts_sent, errors
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunStats
	for rows.Next() {
		var (
			r        domain.RunStats
			errsJSON []byte
		)
		if err := rows.Scan(
			&r.RunID, &r.StartedAt, &r.FinishedAt, &r.FilingsFetched,
			&r.FilingsProcessed, &r.FilingsSkipped, &r.TransactionsSaved,
			&r.AlertsSent, &errsJSON,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan pipeline run: %w", err)
		}
		if len(errsJSON) > 0 {
			if err := json.Unmarshal(errsJSON, &r.Errors); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal run errors: %w", err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
