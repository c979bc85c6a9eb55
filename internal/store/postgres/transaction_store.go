package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// TransactionStore implements domain.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *pgxpool.Pool
}

// NewTransactionStore creates a new TransactionStore backed by the given pool.
func NewTransactionStore(pool *pgxpool.Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

const txSelectCols = `t.id, t.accession_no, t.company_id, t.insider_id, t.date,
	t.direction, t.shares, t.price, t.value, t.post_holdings, t.ownership,
	t.planned_sale, t.score, t.created_at, t.updated_at`

const txJoinCols = txSelectCols + `,
	c.name, COALESCE(c.symbol, ''), i.name, COALESCE(i.title, '')`

func scanTx(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.AccessionNo, &t.CompanyID, &t.InsiderID, &t.Date,
		&t.Direction, &t.Shares, &t.Price, &t.Value, &t.PostHoldings,
		&t.Ownership, &t.PlannedSale, &t.Score, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func scanTxJoinRows(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID, &t.AccessionNo, &t.CompanyID, &t.InsiderID, &t.Date,
			&t.Direction, &t.Shares, &t.Price, &t.Value, &t.PostHoldings,
			&t.Ownership, &t.PlannedSale, &t.Score, &t.CreatedAt, &t.UpdatedAt,
			&t.CompanyName, &t.CompanySymbol, &t.InsiderName, &t.InsiderTitle,
		); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// Upsert inserts or refreshes a transaction keyed on its natural key. A
// reprocessed filing with identical key facts updates the non-key fields in
// place; the persisted row (with its server-assigned id) is returned.
func (s *TransactionStore) Upsert(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	const query = `
		INSERT INTO transactions (
			accession_no, company_id, insider_id, date, direction,
			shares, price, value, post_holdings, ownership,
			planned_sale, score, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, NOW(), NOW()
		)
		ON CONFLICT (accession_no, insider_id, date, shares, price) DO UPDATE SET
			company_id    = EXCLUDED.company_id,
			direction     = EXCLUDED.direction,
			value         = EXCLUDED.value,
			post_holdings = EXCLUDED.post_holdings,
			ownership     = EXCLUDED.ownership,
			planned_sale  = EXCLUDED.planned_sale,
			score         = EXCLUDED.score,
			updated_at    = NOW()
		RETURNING ` + txReturnCols

	row := s.pool.QueryRow(ctx, query,
		tx.AccessionNo, tx.CompanyID, tx.InsiderID, tx.Date, string(tx.Direction),
		tx.Shares, tx.Price, tx.Value, tx.PostHoldings, string(tx.Ownership),
		tx.PlannedSale, tx.Score,
	)
	out, err := scanTx(row)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: upsert transaction %s: %w", tx.AccessionNo, err)
	}
	return out, nil
}

// txReturnCols mirrors txSelectCols without the table alias, for RETURNING.
const txReturnCols = `id, accession_no, company_id, insider_id, date,
	direction, shares, price, value, post_holdings, ownership,
	planned_sale, score, created_at, updated_at`

// LastTransactionDate returns the insider's most recent transaction date on
// or before the given date, or nil if none exists.
func (s *TransactionStore) LastTransactionDate(ctx context.Context, insiderID int64, onOrBefore time.Time) (*time.Time, error) {
	const query = `
		SELECT MAX(date) FROM transactions
		WHERE insider_id = $1 AND date <= $2`

	var d *time.Time
	if err := s.pool.QueryRow(ctx, query, insiderID, onOrBefore).Scan(&d); err != nil {
		return nil, fmt.Errorf("postgres: last transaction date for insider %d: %w", insiderID, err)
	}
	return d, nil
}

// CountOtherInsidersInWindow returns how many distinct insiders other than
// the given one traded the company within [start, end].
func (s *TransactionStore) CountOtherInsidersInWindow(ctx context.Context, companyID int64, start, end time.Time, excludeInsiderID int64) (int, error) {
	const query = `
		SELECT COUNT(DISTINCT insider_id) FROM transactions
		WHERE company_id = $1 AND date >= $2 AND date <= $3 AND insider_id <> $4`

	var n int
	if err := s.pool.QueryRow(ctx, query, companyID, start, end, excludeInsiderID).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count cluster insiders for company %d: %w", companyID, err)
	}
	return n, nil
}

// PreviousTransaction returns the insider's most recent transaction dated
// strictly before the given date, or nil if none exists.
func (s *TransactionStore) PreviousTransaction(ctx context.Context, insiderID int64, before time.Time) (*domain.Transaction, error) {
	const query = `
		SELECT ` + txSelectCols + ` FROM transactions t
		WHERE t.insider_id = $1 AND t.date < $2
		ORDER BY t.date DESC, t.id DESC
		LIMIT 1`

	out, err := scanTx(s.pool.QueryRow(ctx, query, insiderID, before))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: previous transaction for insider %d: %w", insiderID, err)
	}
	return &out, nil
}

// ListForDate returns all transactions dated exactly on the given calendar
// date, with company and insider names joined in, ordered by score magnitude.
func (s *TransactionStore) ListForDate(ctx context.Context, date time.Time) ([]domain.Transaction, error) {
	const query = `
		SELECT ` + txJoinCols + `
		FROM transactions t
		JOIN companies c ON c.id = t.company_id
		JOIN insiders i ON i.id = t.insider_id
		WHERE t.date = $1
		ORDER BY ABS(t.score) DESC, t.id ASC`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions for date: %w", err)
	}
	defer rows.Close()

	txs, err := scanTxJoinRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan transactions for date: %w", err)
	}
	return txs, nil
}

// ListRecent returns transactions ordered newest first with pagination and
// optional time filtering.
func (s *TransactionStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Transaction, error) {
	query := `
		SELECT ` + txJoinCols + `
		FROM transactions t
		JOIN companies c ON c.id = t.company_id
		JOIN insiders i ON i.id = t.insider_id
		WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY t.date DESC, t.id DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent transactions: %w", err)
	}
	defer rows.Close()

	txs, err := scanTxJoinRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent transactions: %w", err)
	}
	return txs, nil
}

// ListBefore returns all transactions dated strictly before the given time
// (for archiving), oldest first.
func (s *TransactionStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Transaction, error) {
	const query = `
		SELECT ` + txJoinCols + `
		FROM transactions t
		JOIN companies c ON c.id = t.company_id
		JOIN insiders i ON i.id = t.insider_id
		WHERE t.date < $1
		ORDER BY t.date ASC, t.id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions before: %w", err)
	}
	defer rows.Close()
	return scanTxJoinRows(rows)
}

// DeleteBefore deletes all transactions dated before the given time and
// returns the number deleted. Alert rows referencing them are removed first.
func (s *TransactionStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin delete before: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM alerts WHERE transaction_id IN (SELECT id FROM transactions WHERE date < $1)`,
		before,
	); err != nil {
		return 0, fmt.Errorf("postgres: delete alerts before: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE date < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete transactions before: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit delete before: %w", err)
	}
	return tag.RowsAffected(), nil
}
