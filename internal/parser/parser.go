// Package parser extracts typed transaction facts from raw Form 4 filing
// documents. Parsing is a pure function of the document text: malformed input
// never produces an error, it degrades to absent fields or dropped
// transactions.
package parser

import (
	"strings"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// Transaction codes recognized as open-market trades. Every other code
// (grants, awards, option exercises, gifts, ...) is out of scope and its
// transaction block is discarded.
const (
	codeBuy  = "P"
	codeSell = "S"
)

// planCitations are the footnote substrings (lower-cased) that mark a trade
// as executed under a pre-arranged Rule 10b5-1 plan.
var planCitations = []string{"10b5-1", "trading plan"}

// ParsedCompany is the issuer section of a filing.
type ParsedCompany struct {
	CIK    string
	Symbol *string
	Name   string
}

// ParsedInsider is the reporting-owner section of a filing.
type ParsedInsider struct {
	Name              string
	Title             *string
	IsDirector        bool
	IsOfficer         bool
	IsTenPercentOwner bool
	IsOther           bool
}

// ParsedTransaction is one extracted buy/sell event.
type ParsedTransaction struct {
	Date         time.Time
	Direction    domain.Direction
	Shares       float64
	Price        float64
	Value        float64
	PostHoldings float64
	Ownership    domain.Ownership
	PlannedSale  bool
}

// ParsedFiling is the full extraction result for one document.
type ParsedFiling struct {
	AccessionNo  string
	FiledAt      time.Time
	Company      ParsedCompany
	Insider      ParsedInsider
	Transactions []ParsedTransaction
}

// Parse extracts the issuer, reporting owner, and all recognizable buy/sell
// transactions from one raw filing document. It never fails: fields that
// cannot be extracted are absent, and transaction blocks missing required
// facts are dropped.
func Parse(doc, accessionNo string, filedAt time.Time) ParsedFiling {
	f := ParsedFiling{
		AccessionNo: accessionNo,
		FiledAt:     filedAt,
		Company:     parseCompany(doc),
		Insider:     parseInsider(doc),
	}

	// Direct holdings and derivative holdings live in two independent tables
	// with the same per-transaction shape; both funnel into one list.
	f.Transactions = append(f.Transactions,
		parseTable(doc, "nonDerivativeTable", "nonDerivativeTransaction")...)
	f.Transactions = append(f.Transactions,
		parseTable(doc, "derivativeTable", "derivativeTransaction")...)

	return f
}

func parseCompany(doc string) ParsedCompany {
	block, ok := tagBlock(doc, "issuer")
	if !ok {
		block = doc
	}

	cik, _ := fieldText(block, "issuerCik")
	name, _ := fieldText(block, "issuerName")

	return ParsedCompany{
		CIK:    canonicalCIK(cik),
		Symbol: optional(fieldText(block, "issuerTradingSymbol")),
		Name:   name,
	}
}

func parseInsider(doc string) ParsedInsider {
	block, ok := tagBlock(doc, "reportingOwner")
	if !ok {
		block = doc
	}

	// A missing owner name still yields an insider record with an empty name;
	// the parser does not reject the document.
	name, _ := fieldText(block, "rptOwnerName")

	rel, ok := tagBlock(block, "reportingOwnerRelationship")
	if !ok {
		rel = block
	}

	return ParsedInsider{
		Name:              name,
		Title:             optional(fieldText(rel, "officerTitle")),
		IsDirector:        boolFlag(rel, "isDirector"),
		IsOfficer:         boolFlag(rel, "isOfficer"),
		IsTenPercentOwner: boolFlag(rel, "isTenPercentOwner"),
		IsOther:           boolFlag(rel, "isOther"),
	}
}

// boolFlag reports whether the field's text is exactly the literal "1".
// Absent fields default to false.
func boolFlag(block, tag string) bool {
	s, ok := fieldText(block, tag)
	return ok && s == "1"
}

// parseTable locates the outer table element and extracts every transaction
// block inside it. An absent table contributes zero transactions.
func parseTable(doc, tableTag, txTag string) []ParsedTransaction {
	table, ok := tagBlock(doc, tableTag)
	if !ok {
		return nil
	}

	var out []ParsedTransaction
	for _, block := range tagBlocks(table, txTag) {
		if tx, ok := parseTransaction(doc, block); ok {
			out = append(out, tx)
		}
	}
	return out
}

// parseTransaction extracts one transaction block. It returns false when the
// direction code is not a buy/sell, or when any of the required fields (date,
// shares, price) is missing or unparseable; no partial records are emitted.
func parseTransaction(doc, block string) (ParsedTransaction, bool) {
	code, ok := fieldText(block, "transactionCode")
	if !ok {
		return ParsedTransaction{}, false
	}

	var direction domain.Direction
	switch code {
	case codeBuy:
		direction = domain.DirectionBuy
	case codeSell:
		direction = domain.DirectionSell
	default:
		return ParsedTransaction{}, false
	}

	date, ok := fieldDate(block, "transactionDate")
	if !ok {
		return ParsedTransaction{}, false
	}
	shares, ok := fieldFloat(block, "transactionShares")
	if !ok || shares <= 0 {
		return ParsedTransaction{}, false
	}
	price, ok := fieldFloat(block, "transactionPricePerShare")
	if !ok || price < 0 {
		return ParsedTransaction{}, false
	}

	// Post-transaction holdings default to zero rather than dropping the
	// transaction.
	post, _ := fieldFloat(block, "sharesOwnedFollowingTransaction")

	ownership := domain.OwnershipIndirect
	if v, ok := fieldText(block, "directOrIndirectOwnership"); ok && v == "D" {
		ownership = domain.OwnershipDirect
	}

	return ParsedTransaction{
		Date:         date,
		Direction:    direction,
		Shares:       shares,
		Price:        price,
		Value:        shares * price,
		PostHoldings: post,
		Ownership:    ownership,
		PlannedSale:  plannedSale(doc, block),
	}, true
}

// plannedSale reports whether the transaction block references a footnote
// whose text cites a pre-arranged trading plan. A missing reference or a
// dangling footnote id both mean false, never an error.
func plannedSale(doc, block string) bool {
	id, ok := footnoteRef(block)
	if !ok {
		return false
	}
	text, ok := footnoteText(doc, id)
	if !ok {
		return false
	}
	lower := strings.ToLower(text)
	for _, cite := range planCitations {
		if strings.Contains(lower, cite) {
			return true
		}
	}
	return false
}
