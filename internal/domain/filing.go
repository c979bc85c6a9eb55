package domain

import "time"

// FilingRef identifies one Form 4 filing in the upstream index.
type FilingRef struct {
	AccessionNo string
	CIK         string
	FiledAt     time.Time
}

// RunError records a single per-filing failure during a pipeline run.
type RunError struct {
	AccessionNo string `json:"accession_no"`
	Err         string `json:"error"`
}

// RunStats is the aggregate result of one pipeline run. A run never fails
// silently: every filing that could not be processed appears in Errors.
type RunStats struct {
	RunID             string     `json:"run_id"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        time.Time  `json:"finished_at"`
	FilingsFetched    int        `json:"filings_fetched"`
	FilingsProcessed  int        `json:"filings_processed"`
	FilingsSkipped    int        `json:"filings_skipped"`
	TransactionsSaved int        `json:"transactions_saved"`
	AlertsSent        int        `json:"alerts_sent"`
	Errors            []RunError `json:"errors,omitempty"`
}

// DigestStats is the result of one digest run for a single calendar date.
type DigestStats struct {
	Date                  time.Time `json:"date"`
	TransactionsProcessed int       `json:"transactions_processed"`
	Companies             int       `json:"companies"`
	AlertsRecorded        int       `json:"alerts_recorded"`
	RecordFailures        int       `json:"record_failures"`
	Sent                  bool      `json:"sent"`
	SendError             string    `json:"send_error,omitempty"`
}
