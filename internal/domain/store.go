package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// CompanyStore persists issuers. Upsert is keyed on the CIK and returns the
// persisted row with its server-assigned ID.
type CompanyStore interface {
	Upsert(ctx context.Context, company Company) (Company, error)
	GetByCIK(ctx context.Context, cik string) (Company, error)
	Count(ctx context.Context) (int64, error)
}

// InsiderStore persists reporting owners. Upsert is keyed on
// (company_id, name) and returns the persisted row with its ID.
type InsiderStore interface {
	Upsert(ctx context.Context, insider Insider) (Insider, error)
}

// TransactionStore persists scored transactions and answers the temporal
// context queries the scorer needs.
type TransactionStore interface {
	// Upsert inserts or refreshes a transaction keyed on its natural key
	// (accession_no, insider_id, date, shares, price) and returns the
	// persisted row.
	Upsert(ctx context.Context, tx Transaction) (Transaction, error)

	// LastTransactionDate returns the date of the insider's most recent
	// transaction dated on or before the given date, or nil if none exists.
	LastTransactionDate(ctx context.Context, insiderID int64, onOrBefore time.Time) (*time.Time, error)

	// CountOtherInsidersInWindow returns the number of distinct insiders,
	// excluding the given one, with transactions against the company dated
	// within [start, end].
	CountOtherInsidersInWindow(ctx context.Context, companyID int64, start, end time.Time, excludeInsiderID int64) (int, error)

	// PreviousTransaction returns the insider's most recent transaction dated
	// strictly before the given date, or nil if none exists.
	PreviousTransaction(ctx context.Context, insiderID int64, before time.Time) (*Transaction, error)

	// ListForDate returns all transactions dated exactly on the given
	// calendar date, with company/insider names joined in.
	ListForDate(ctx context.Context, date time.Time) ([]Transaction, error)

	ListRecent(ctx context.Context, opts ListOpts) ([]Transaction, error)
	ListBefore(ctx context.Context, before time.Time) ([]Transaction, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertStore persists the append-only notification audit trail.
type AlertStore interface {
	Has(ctx context.Context, transactionID int64, typ AlertType) (bool, error)
	Record(ctx context.Context, alert Alert) error
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
}

// RunStore persists pipeline run statistics for operator visibility.
type RunStore interface {
	Insert(ctx context.Context, stats RunStats) error
	ListRecent(ctx context.Context, limit int) ([]RunStats, error)
}

// FilingSource is the upstream filing index and document fetcher. List
// failures are fatal for a run; document failures are recoverable per filing.
type FilingSource interface {
	FetchRecentFilings(ctx context.Context, maxCount int) ([]FilingRef, error)
	FetchFilingDocument(ctx context.Context, ref FilingRef) (string, error)
}
