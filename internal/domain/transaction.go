package domain

import "time"

// Direction is the side of an insider transaction. Only open-market buys and
// sells are tracked; every other Form 4 transaction code (grants, awards,
// option exercises, ...) is filtered out during parsing.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Ownership describes how the reported shares are held.
type Ownership string

const (
	OwnershipDirect   Ownership = "direct"
	OwnershipIndirect Ownership = "indirect"
)

// Transaction is one persisted buy/sell event with its computed signal score.
//
// Dedup key = (accession_no, insider_id, date, shares, price). Reprocessing a
// filing with identical facts must update the remaining fields in place rather
// than create a second row, which makes amended or re-fetched filings safe to
// run through the pipeline any number of times.
type Transaction struct {
	ID           int64
	AccessionNo  string
	CompanyID    int64
	InsiderID    int64
	Date         time.Time
	Direction    Direction
	Shares       float64
	Price        float64
	Value        float64 // shares * price, computed at parse time
	PostHoldings float64
	Ownership    Ownership
	PlannedSale  bool // trade was made under a pre-arranged 10b5-1 plan
	Score        float64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Populated by list queries that join companies/insiders; empty on rows
	// returned from plain upserts.
	CompanyName   string
	CompanySymbol string
	InsiderName   string
	InsiderTitle  string
}

// AbsScore returns the magnitude of the transaction's score.
func (t Transaction) AbsScore() float64 {
	if t.Score < 0 {
		return -t.Score
	}
	return t.Score
}
