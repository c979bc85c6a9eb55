package domain

import "time"

// AlertType distinguishes immediate notifications from daily-digest entries.
type AlertType string

const (
	AlertUrgent AlertType = "urgent"
	AlertDigest AlertType = "digest"
)

// Alert is an append-only audit row recording that a notification was sent
// for one transaction. At most one urgent alert may exist per transaction;
// the pipeline checks for an existing row before sending so that reprocessed
// filings never notify twice.
type Alert struct {
	ID            int64
	TransactionID int64
	CompanyID     int64
	Type          AlertType
	Metadata      map[string]string
	SentAt        time.Time
}
