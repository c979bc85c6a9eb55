package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/notify"
)

func seedDigestTx(t *testing.T, store *fakeTransactionStore, tx domain.Transaction) domain.Transaction {
	t.Helper()
	saved, err := store.Upsert(context.Background(), tx)
	require.NoError(t, err)
	return saved
}

func TestDigestEmptyDateSendsNothing(t *testing.T) {
	txs := newFakeTransactionStore()
	alerts := newFakeAlertStore()
	notifier := &fakeNotifier{}
	agg := NewDigestAggregator(txs, alerts, notifier, discardLogger())

	stats, err := agg.Generate(context.Background(), time.Date(2026, 2, 9, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TransactionsProcessed)
	assert.False(t, stats.Sent)
	assert.Empty(t, notifier.sent)
}

func TestDigestGroupsAndRecordsAlerts(t *testing.T) {
	txs := newFakeTransactionStore()
	alerts := newFakeAlertStore()
	notifier := &fakeNotifier{}
	agg := NewDigestAggregator(txs, alerts, notifier, discardLogger())

	day := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	seedDigestTx(t, txs, domain.Transaction{
		AccessionNo: "a-1", CompanyID: 1, InsiderID: 1, Date: day,
		Direction: domain.DirectionBuy, Shares: 100, Price: 50, Value: 5_000, Score: 2.0,
		CompanyName: "Acme Corp", CompanySymbol: "ACME", InsiderName: "DOE JANE",
	})
	seedDigestTx(t, txs, domain.Transaction{
		AccessionNo: "a-2", CompanyID: 1, InsiderID: 2, Date: day,
		Direction: domain.DirectionSell, Shares: 200, Price: 40, Value: 8_000, Score: -1.5,
		CompanyName: "Acme Corp", CompanySymbol: "ACME", InsiderName: "ROE RICHARD",
	})
	seedDigestTx(t, txs, domain.Transaction{
		AccessionNo: "b-1", CompanyID: 2, InsiderID: 3, Date: day,
		Direction: domain.DirectionBuy, Shares: 5_000, Price: 100, Value: 500_000, Score: 6.1,
		CompanyName: "Globex Inc", CompanySymbol: "GLX", InsiderName: "SMITH ALEX",
	})

	stats, err := agg.Generate(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TransactionsProcessed)
	assert.Equal(t, 2, stats.Companies)
	assert.True(t, stats.Sent)
	assert.Equal(t, 3, stats.AlertsRecorded)
	assert.Equal(t, 0, stats.RecordFailures)

	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	assert.Equal(t, notify.EventDigest, msg.event)
	assert.Contains(t, msg.title, "2026-02-09")

	// Globex has the highest score magnitude, so it comes first.
	assert.Less(t,
		strings.Index(msg.body, "Globex Inc (GLX)"),
		strings.Index(msg.body, "Acme Corp (ACME)"),
	)
	assert.Contains(t, msg.body, "Globex Inc (GLX): 1 buy, 0 sells, $500.0K total")
	assert.Contains(t, msg.body, "Acme Corp (ACME): 1 buy, 1 sell, $13.0K total")
	assert.Contains(t, msg.body, "SMITH ALEX bought 5000 @ $100.00")

	for id := int64(1); id <= 3; id++ {
		has, err := alerts.Has(context.Background(), id, domain.AlertDigest)
		require.NoError(t, err)
		assert.True(t, has, "digest alert for transaction %d", id)
	}
}

func TestDigestTruncatesPerCompanyDetail(t *testing.T) {
	txs := newFakeTransactionStore()
	alerts := newFakeAlertStore()
	notifier := &fakeNotifier{}
	agg := NewDigestAggregator(txs, alerts, notifier, discardLogger())

	day := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedDigestTx(t, txs, domain.Transaction{
			AccessionNo: "a-1", CompanyID: 1, InsiderID: int64(i + 1), Date: day,
			Direction: domain.DirectionBuy, Shares: float64(100 + i), Price: 10,
			Value: float64((100 + i) * 10), Score: float64(i),
			CompanyName: "Acme Corp", InsiderName: "DOE JANE",
		})
	}

	stats, err := agg.Generate(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TransactionsProcessed)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].body, "...and 2 more")
}

func TestDigestSendFailureRecordsNoAlerts(t *testing.T) {
	txs := newFakeTransactionStore()
	alerts := newFakeAlertStore()
	notifier := &fakeNotifier{err: errors.New("discord down")}
	agg := NewDigestAggregator(txs, alerts, notifier, discardLogger())

	day := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	seedDigestTx(t, txs, domain.Transaction{
		AccessionNo: "a-1", CompanyID: 1, InsiderID: 1, Date: day,
		Direction: domain.DirectionBuy, Shares: 100, Price: 50, Value: 5_000, Score: 2.0,
		CompanyName: "Acme Corp", InsiderName: "DOE JANE",
	})

	stats, err := agg.Generate(context.Background(), day)
	require.NoError(t, err, "a failed send is reported in the stats, not as an error")

	assert.False(t, stats.Sent)
	assert.Contains(t, stats.SendError, "discord down")
	assert.Equal(t, 0, stats.AlertsRecorded)

	has, err := alerts.Has(context.Background(), 1, domain.AlertDigest)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDigestFilteredEventRecordsNothing(t *testing.T) {
	txs := newFakeTransactionStore()
	alerts := newFakeAlertStore()
	notifier := &fakeNotifier{filtered: true}
	agg := NewDigestAggregator(txs, alerts, notifier, discardLogger())

	day := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	seedDigestTx(t, txs, domain.Transaction{
		AccessionNo: "a-1", CompanyID: 1, InsiderID: 1, Date: day,
		Direction: domain.DirectionBuy, Shares: 100, Price: 50, Value: 5_000, Score: 2.0,
		CompanyName: "Acme Corp", InsiderName: "DOE JANE",
	})

	stats, err := agg.Generate(context.Background(), day)
	require.NoError(t, err)

	assert.False(t, stats.Sent, "a suppressed digest is not a sent digest")
	assert.Empty(t, stats.SendError)
	assert.Equal(t, 0, stats.AlertsRecorded)

	has, err := alerts.Has(context.Background(), 1, domain.AlertDigest)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDigestRecordFailureCountedNotFatal(t *testing.T) {
	txs := newFakeTransactionStore()
	alerts := newFakeAlertStore()
	alerts.recordErr = errors.New("constraint violation")
	notifier := &fakeNotifier{}
	agg := NewDigestAggregator(txs, alerts, notifier, discardLogger())

	day := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	seedDigestTx(t, txs, domain.Transaction{
		AccessionNo: "a-1", CompanyID: 1, InsiderID: 1, Date: day,
		Direction: domain.DirectionBuy, Shares: 100, Price: 50, Value: 5_000, Score: 2.0,
		CompanyName: "Acme Corp", InsiderName: "DOE JANE",
	})

	stats, err := agg.Generate(context.Background(), day)
	require.NoError(t, err)

	assert.True(t, stats.Sent)
	assert.Equal(t, 0, stats.AlertsRecorded)
	assert.Equal(t, 1, stats.RecordFailures)
}
