package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL. Rows are
// append-only; the (transaction_id, type) unique constraint backs the
// at-most-one-urgent-alert invariant at the storage level too.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore creates a new AlertStore backed by the given pool.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Has reports whether an alert of the given type already exists for the
// transaction.
func (s *AlertStore) Has(ctx context.Context, transactionID int64, typ domain.AlertType) (bool, error) {
	const query = `
		SELECT EXISTS(SELECT 1 FROM alerts WHERE transaction_id = $1 AND type = $2)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, transactionID, string(typ)).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: has alert for transaction %d: %w", transactionID, err)
	}
	return exists, nil
}

// Record appends one alert row. A concurrent duplicate is absorbed by the
// unique constraint rather than surfaced as an error.
func (s *AlertStore) Record(ctx context.Context, a domain.Alert) error {
	const query = `
		INSERT INTO alerts (transaction_id, company_id, type, metadata, sent_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (transaction_id, type) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, a.TransactionID, a.CompanyID, string(a.Type), a.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: record %s alert for transaction %d: %w", a.Type, a.TransactionID, err)
	}
	return nil
}

// ListRecent returns the most recent alerts, newest first.
func (s *AlertStore) ListRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, transaction_id, company_id, type, metadata, sent_at
		FROM alerts
		ORDER BY sent_at DESC, id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.TransactionID, &a.CompanyID, &a.Type, &a.Metadata, &a.SentAt); err != nil {
			return nil, fmt.Errorf("postgres: scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
