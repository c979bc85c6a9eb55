package domain

import "time"

// Company is the issuer a filing concerns. It is identified by its CIK
// (Central Index Key) with leading zeros stripped; the CIK never changes once
// assigned, while the symbol and name may be refreshed by later filings.
type Company struct {
	ID        int64
	CIK       string
	Symbol    *string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Insider is a reporting owner filing transactions against one Company.
// Identity is scoped per company: the same name under two different issuers
// is two distinct insiders. Uniqueness key = (company_id, name).
type Insider struct {
	ID                int64
	CompanyID         int64
	Name              string
	Title             *string
	IsDirector        bool
	IsOfficer         bool
	IsTenPercentOwner bool
	IsOther           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
