package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/notify"
)

// digestDetailCap is how many transactions are shown per company before the
// remainder collapses into an "...and N more" line.
const digestDetailCap = 3

// DigestAggregator produces the once-daily summary notification for all
// transactions persisted on a single calendar date. It runs independently of
// the ingest pipeline and shares only the stores and the notifier.
type DigestAggregator struct {
	txs      domain.TransactionStore
	alerts   domain.AlertStore
	notifier Notifier
	logger   *slog.Logger
}

// NewDigestAggregator creates a DigestAggregator.
func NewDigestAggregator(txs domain.TransactionStore, alerts domain.AlertStore, notifier Notifier, logger *slog.Logger) *DigestAggregator {
	return &DigestAggregator{
		txs:      txs,
		alerts:   alerts,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "digest")),
	}
}

type digestGroup struct {
	label      string
	buys       int
	sells      int
	totalValue float64
	maxAbs     float64
	txs        []domain.Transaction // sorted by |score| descending
}

// Generate builds and sends the digest for the given date. An empty date
// produces zero stats and sends nothing. A failed send is reported in the
// stats (and leaves no alert rows) rather than retried; the next scheduled
// run covers a different date, so operators act on the stats.
func (d *DigestAggregator) Generate(ctx context.Context, date time.Time) (domain.DigestStats, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	stats := domain.DigestStats{Date: day}

	txs, err := d.txs.ListForDate(ctx, day)
	if err != nil {
		return stats, fmt.Errorf("digest: list transactions for %s: %w", day.Format("2006-01-02"), err)
	}

	stats.TransactionsProcessed = len(txs)
	if len(txs) == 0 {
		d.logger.InfoContext(ctx, "no transactions for digest date",
			slog.String("date", day.Format("2006-01-02")),
		)
		return stats, nil
	}

	groups := groupBySubject(txs)
	stats.Companies = len(groups)

	title := "Daily insider digest " + day.Format("2006-01-02")
	body := renderDigest(groups)

	deliveryID, delivered, err := d.notifier.Notify(ctx, notify.EventDigest, title, body)
	if err != nil {
		d.logger.ErrorContext(ctx, "digest notification failed", slog.String("error", err.Error()))
		stats.SendError = err.Error()
		return stats, nil
	}
	if !delivered {
		// Suppressed by the event filter: no alert rows, so the digest can
		// still go out once digest events are enabled.
		return stats, nil
	}
	stats.Sent = true

	// Record a digest alert per included transaction, best effort: one
	// failed row must not abort the rest, but failures surface in the stats.
	for _, tx := range txs {
		err := d.alerts.Record(ctx, domain.Alert{
			TransactionID: tx.ID,
			CompanyID:     tx.CompanyID,
			Type:          domain.AlertDigest,
			Metadata:      map[string]string{"delivery_id": deliveryID},
		})
		if err != nil {
			d.logger.WarnContext(ctx, "digest alert record failed",
				slog.Int64("transaction_id", tx.ID),
				slog.String("error", err.Error()),
			)
			stats.RecordFailures++
			continue
		}
		stats.AlertsRecorded++
	}

	d.logger.InfoContext(ctx, "digest sent",
		slog.String("date", day.Format("2006-01-02")),
		slog.Int("transactions", stats.TransactionsProcessed),
		slog.Int("companies", stats.Companies),
		slog.Int("alerts_recorded", stats.AlertsRecorded),
	)
	return stats, nil
}

// groupBySubject buckets transactions per company, ordered by the maximum
// score magnitude within each bucket, descending.
func groupBySubject(txs []domain.Transaction) []digestGroup {
	byCompany := make(map[int64]*digestGroup)
	var order []int64

	for _, tx := range txs {
		g, ok := byCompany[tx.CompanyID]
		if !ok {
			g = &digestGroup{label: companyLabel(tx.CompanyName, tx.CompanySymbol)}
			byCompany[tx.CompanyID] = g
			order = append(order, tx.CompanyID)
		}
		if tx.Direction == domain.DirectionBuy {
			g.buys++
		} else {
			g.sells++
		}
		g.totalValue += tx.Value
		if abs := tx.AbsScore(); abs > g.maxAbs {
			g.maxAbs = abs
		}
		g.txs = append(g.txs, tx)
	}

	groups := make([]digestGroup, 0, len(byCompany))
	for _, id := range order {
		g := byCompany[id]
		sort.SliceStable(g.txs, func(i, j int) bool {
			return g.txs[i].AbsScore() > g.txs[j].AbsScore()
		})
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].maxAbs > groups[j].maxAbs
	})
	return groups
}

// renderDigest formats the digest body: per company a summary line followed
// by up to digestDetailCap transaction lines.
func renderDigest(groups []digestGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s, %s, %s total\n",
			g.label, plural(g.buys, "buy"), plural(g.sells, "sell"), formatUSD(g.totalValue))

		detail := g.txs
		if len(detail) > digestDetailCap {
			detail = detail[:digestDetailCap]
		}
		for _, tx := range detail {
			verb := "bought"
			if tx.Direction == domain.DirectionSell {
				verb = "sold"
			}
			fmt.Fprintf(&b, "  %s %s %s @ $%.2f (score %.2f)\n",
				tx.InsiderName, verb, formatQty(tx.Shares), tx.Price, tx.Score)
		}
		if omitted := len(g.txs) - digestDetailCap; omitted > 0 {
			fmt.Fprintf(&b, "  ...and %d more\n", omitted)
		}
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
