// Package pipeline sequences the filing-to-signal flow: fetch the filing
// index, fetch each document, parse, score with temporal context, persist
// idempotently, and route alerts. It also owns the daily digest and the
// retention job.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/insiderwatch/internal/alert"
	"github.com/alanyoungcy/insiderwatch/internal/blob/s3"
	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/notify"
	"github.com/alanyoungcy/insiderwatch/internal/parser"
	"github.com/alanyoungcy/insiderwatch/internal/scoring"
)

// Notifier is the slice of notify.Notifier the pipeline needs; it returns the
// delivery id of the sent message.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) (deliveryID string, delivered bool, err error)
}

// Stores bundles the persistence collaborators of one pipeline run.
type Stores struct {
	Companies    domain.CompanyStore
	Insiders     domain.InsiderStore
	Transactions domain.TransactionStore
	Alerts       domain.AlertStore
	Runs         domain.RunStore
}

// Orchestrator drives one batch over the recent filing list. Filings are
// processed strictly sequentially; a failing filing is recorded and the batch
// moves on. Runs are safe to repeat: persistence is keyed on natural keys and
// urgent alerts are guarded by the audit trail.
type Orchestrator struct {
	source     domain.FilingSource
	stores     Stores
	seen       domain.FilingSeenCache // optional
	rawArchive domain.BlobWriter      // optional
	notifier   Notifier
	router     *alert.Router
	cfg        scoring.Config
	maxFilings int
	logger     *slog.Logger
}

// NewOrchestrator creates an Orchestrator. seen and rawArchive may be nil;
// both are optimizations layered on top of the idempotent core.
func NewOrchestrator(
	source domain.FilingSource,
	stores Stores,
	seen domain.FilingSeenCache,
	rawArchive domain.BlobWriter,
	notifier Notifier,
	router *alert.Router,
	cfg scoring.Config,
	maxFilings int,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:     source,
		stores:     stores,
		seen:       seen,
		rawArchive: rawArchive,
		notifier:   notifier,
		router:     router,
		cfg:        cfg,
		maxFilings: maxFilings,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

// Run executes one full batch and returns its statistics. It never returns an
// error: a fatal index-fetch failure is recorded as a single synthetic error
// entry and the run ends with whatever was accumulated.
func (o *Orchestrator) Run(ctx context.Context) domain.RunStats {
	stats := domain.RunStats{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	o.logger.InfoContext(ctx, "pipeline run starting",
		slog.String("run_id", stats.RunID),
		slog.Int("max_filings", o.maxFilings),
	)

	refs, err := o.source.FetchRecentFilings(ctx, o.maxFilings)
	if err != nil {
		// Fatal for this run: nothing to iterate.
		o.logger.ErrorContext(ctx, "filing index fetch failed", slog.String("error", err.Error()))
		stats.Errors = append(stats.Errors, domain.RunError{Err: fmt.Sprintf("fetch filing index: %v", err)})
		return o.finish(ctx, stats)
	}
	stats.FilingsFetched = len(refs)

	for _, ref := range refs {
		if o.alreadySeen(ctx, ref) {
			stats.FilingsSkipped++
			continue
		}

		if err := o.processFiling(ctx, ref, &stats); err != nil {
			o.logger.WarnContext(ctx, "filing failed",
				slog.String("accession_no", ref.AccessionNo),
				slog.String("error", err.Error()),
			)
			stats.Errors = append(stats.Errors, domain.RunError{
				AccessionNo: ref.AccessionNo,
				Err:         err.Error(),
			})
			continue
		}

		stats.FilingsProcessed++
		o.markSeen(ctx, ref)
	}

	return o.finish(ctx, stats)
}

// finish stamps the end time, persists the run record (best effort), and
// logs a summary.
func (o *Orchestrator) finish(ctx context.Context, stats domain.RunStats) domain.RunStats {
	stats.FinishedAt = time.Now().UTC()

	if o.stores.Runs != nil {
		if err := o.stores.Runs.Insert(ctx, stats); err != nil {
			o.logger.ErrorContext(ctx, "persist run stats failed", slog.String("error", err.Error()))
		}
	}

	o.logger.InfoContext(ctx, "pipeline run finished",
		slog.String("run_id", stats.RunID),
		slog.Int("filings_fetched", stats.FilingsFetched),
		slog.Int("filings_processed", stats.FilingsProcessed),
		slog.Int("filings_skipped", stats.FilingsSkipped),
		slog.Int("transactions_saved", stats.TransactionsSaved),
		slog.Int("alerts_sent", stats.AlertsSent),
		slog.Int("errors", len(stats.Errors)),
	)
	return stats
}

// processFiling runs the per-filing stages: fetch document, parse, persist
// company and insider, then score/persist/route each transaction in order.
func (o *Orchestrator) processFiling(ctx context.Context, ref domain.FilingRef, stats *domain.RunStats) error {
	doc, err := o.source.FetchFilingDocument(ctx, ref)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}

	o.archiveRaw(ctx, ref, doc)

	parsed := parser.Parse(doc, ref.AccessionNo, ref.FiledAt)

	cik := parsed.Company.CIK
	if cik == "" {
		cik = ref.CIK
	}
	company, err := o.stores.Companies.Upsert(ctx, domain.Company{
		CIK:    cik,
		Symbol: parsed.Company.Symbol,
		Name:   parsed.Company.Name,
	})
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}

	insider, err := o.stores.Insiders.Upsert(ctx, domain.Insider{
		CompanyID:         company.ID,
		Name:              parsed.Insider.Name,
		Title:             parsed.Insider.Title,
		IsDirector:        parsed.Insider.IsDirector,
		IsOfficer:         parsed.Insider.IsOfficer,
		IsTenPercentOwner: parsed.Insider.IsTenPercentOwner,
		IsOther:           parsed.Insider.IsOther,
	})
	if err != nil {
		return fmt.Errorf("upsert insider: %w", err)
	}

	for i, ptx := range parsed.Transactions {
		if err := o.processTransaction(ctx, company, insider, ref, ptx, stats); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return nil
}

// processTransaction looks up temporal context, scores, persists, and routes
// one transaction. Each transaction is fully settled before the next starts,
// so an interrupted run leaves only complete rows behind.
func (o *Orchestrator) processTransaction(
	ctx context.Context,
	company domain.Company,
	insider domain.Insider,
	ref domain.FilingRef,
	ptx parser.ParsedTransaction,
	stats *domain.RunStats,
) error {
	windowStart := ptx.Date.AddDate(0, 0, -o.cfg.LookbackDays)

	last, err := o.stores.Transactions.LastTransactionDate(ctx, insider.ID, windowStart)
	if err != nil {
		return fmt.Errorf("first-activity lookup: %w", err)
	}
	firstActivity := last == nil || last.Before(windowStart)

	clusterStart := ptx.Date.AddDate(0, 0, -o.cfg.ClusterWindowDays)
	clusterEnd := ptx.Date.AddDate(0, 0, o.cfg.ClusterWindowDays)
	cluster, err := o.stores.Transactions.CountOtherInsidersInWindow(ctx, company.ID, clusterStart, clusterEnd, insider.ID)
	if err != nil {
		return fmt.Errorf("cluster lookup: %w", err)
	}

	result := scoring.Score(scoring.Input{
		Direction:     ptx.Direction,
		Value:         ptx.Value,
		Title:         insider.Title,
		FirstActivity: firstActivity,
		ClusterCount:  cluster,
	})

	saved, err := o.stores.Transactions.Upsert(ctx, domain.Transaction{
		AccessionNo:  ref.AccessionNo,
		CompanyID:    company.ID,
		InsiderID:    insider.ID,
		Date:         ptx.Date,
		Direction:    ptx.Direction,
		Shares:       ptx.Shares,
		Price:        ptx.Price,
		Value:        ptx.Value,
		PostHoldings: ptx.PostHoldings,
		Ownership:    ptx.Ownership,
		PlannedSale:  ptx.PlannedSale,
		Score:        result.Score,
	})
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	stats.TransactionsSaved++

	if o.router.Route(saved) != alert.DecisionUrgent {
		return nil
	}

	// Idempotent replay protection: a reprocessed filing must not notify a
	// second time.
	has, err := o.stores.Alerts.Has(ctx, saved.ID, domain.AlertUrgent)
	if err != nil {
		return fmt.Errorf("alert pre-check: %w", err)
	}
	if has {
		return nil
	}

	delta := o.holdingsDelta(ctx, insider.ID, ptx)

	title, body := formatUrgent(company, insider, saved, result, delta)
	deliveryID, delivered, err := o.notifier.Notify(ctx, notify.EventUrgent, title, body)
	if err != nil {
		// The transaction stays persisted and no alert row is written, so a
		// later run can retry the send without re-scoring.
		o.logger.WarnContext(ctx, "urgent notification failed",
			slog.Int64("transaction_id", saved.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !delivered {
		// Suppressed by the event filter (or no senders configured). Leaving
		// no alert row means the send still happens once urgent events are
		// enabled.
		return nil
	}

	if err := o.stores.Alerts.Record(ctx, domain.Alert{
		TransactionID: saved.ID,
		CompanyID:     company.ID,
		Type:          domain.AlertUrgent,
		Metadata:      map[string]string{"delivery_id": deliveryID},
	}); err != nil {
		return fmt.Errorf("record urgent alert: %w", err)
	}
	stats.AlertsSent++
	return nil
}

// holdingsDelta compares post-transaction holdings against the insider's most
// recent other transaction strictly before this one. Lookup failures degrade
// to a zero delta; the alert is still worth sending.
func (o *Orchestrator) holdingsDelta(ctx context.Context, insiderID int64, ptx parser.ParsedTransaction) float64 {
	prev, err := o.stores.Transactions.PreviousTransaction(ctx, insiderID, ptx.Date)
	if err != nil {
		o.logger.WarnContext(ctx, "holdings delta lookup failed", slog.String("error", err.Error()))
		return 0
	}
	if prev == nil {
		return 0
	}
	return scoring.HoldingsDelta(prev.PostHoldings, ptx.PostHoldings)
}

func (o *Orchestrator) alreadySeen(ctx context.Context, ref domain.FilingRef) bool {
	if o.seen == nil {
		return false
	}
	seen, err := o.seen.Seen(ctx, ref.AccessionNo)
	if err != nil {
		o.logger.WarnContext(ctx, "seen-cache lookup failed", slog.String("error", err.Error()))
		return false
	}
	return seen
}

func (o *Orchestrator) markSeen(ctx context.Context, ref domain.FilingRef) {
	if o.seen == nil {
		return
	}
	if err := o.seen.MarkSeen(ctx, ref.AccessionNo); err != nil {
		o.logger.WarnContext(ctx, "seen-cache mark failed", slog.String("error", err.Error()))
	}
}

// archiveRaw uploads the fetched document to cold storage, best effort.
func (o *Orchestrator) archiveRaw(ctx context.Context, ref domain.FilingRef, doc string) {
	if o.rawArchive == nil {
		return
	}
	path := s3blob.FilingPath(ref)
	if err := o.rawArchive.Put(ctx, path, strings.NewReader(doc), "application/xml"); err != nil {
		o.logger.WarnContext(ctx, "raw filing archive failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
