package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// Retention archives aged transactions to cold storage and then removes them
// from the database. Archiving must succeed before anything is deleted; a
// failed archive leaves the rows in place for the next run.
type Retention struct {
	txs      domain.TransactionStore
	archiver domain.Archiver
	keepDays int
	logger   *slog.Logger
}

// NewRetention creates a Retention job. A nil archiver disables cold-storage
// export; rows are then deleted outright.
func NewRetention(txs domain.TransactionStore, archiver domain.Archiver, keepDays int, logger *slog.Logger) *Retention {
	return &Retention{
		txs:      txs,
		archiver: archiver,
		keepDays: keepDays,
		logger:   logger.With(slog.String("component", "retention")),
	}
}

// Run archives and deletes transactions older than the retention horizon.
// It returns the number of rows removed.
func (r *Retention) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -r.keepDays).Truncate(24 * time.Hour)

	if r.archiver != nil {
		archived, err := r.archiver.ArchiveTransactions(ctx, cutoff)
		if err != nil {
			return 0, fmt.Errorf("retention: archive transactions before %s: %w", cutoff.Format("2006-01-02"), err)
		}
		if archived == 0 {
			return 0, nil
		}
		r.logger.InfoContext(ctx, "archived aged transactions",
			slog.Int64("count", archived),
			slog.String("cutoff", cutoff.Format("2006-01-02")),
		)
	}

	deleted, err := r.txs.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention: delete transactions before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	if deleted > 0 {
		r.logger.InfoContext(ctx, "deleted aged transactions",
			slog.Int64("count", deleted),
			slog.String("cutoff", cutoff.Format("2006-01-02")),
		)
	}
	return deleted, nil
}
