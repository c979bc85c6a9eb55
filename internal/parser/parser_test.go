package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

const sampleFiling = `<ownershipDocument>
  <issuer>
    <issuerCik>0000320193</issuerCik>
    <issuerName>Apple Inc.</issuerName>
    <issuerTradingSymbol>AAPL</issuerTradingSymbol>
  </issuer>
  <reportingOwner>
    <rptOwnerName>COOK TIMOTHY D</rptOwnerName>
    <reportingOwnerRelationship>
      <isDirector>1</isDirector>
      <isOfficer>1</isOfficer>
      <isTenPercentOwner>0</isTenPercentOwner>
      <officerTitle>Chief Executive Officer</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate><value>2026-02-09</value></transactionDate>
      <transactionCode>S</transactionCode>
      <transactionShares><value>25,000</value></transactionShares>
      <transactionPricePerShare><value>187.50</value></transactionPricePerShare>
      <sharesOwnedFollowingTransaction><value>3300000</value></sharesOwnedFollowingTransaction>
      <directOrIndirectOwnership><value>D</value></directOrIndirectOwnership>
      <footnoteId id="F1"/>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <transactionDate><value>2026-02-09</value></transactionDate>
      <transactionCode>A</transactionCode>
      <transactionShares><value>50000</value></transactionShares>
      <transactionPricePerShare><value>0</value></transactionPricePerShare>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
  <footnotes>
    <footnote id="F1">Sale effected pursuant to a Rule 10b5-1 trading plan adopted on 2025-11-01.</footnote>
  </footnotes>
</ownershipDocument>`

func TestParseFullFiling(t *testing.T) {
	filed := time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC)
	f := Parse(sampleFiling, "0000320193-26-000012", filed)

	assert.Equal(t, "0000320193-26-000012", f.AccessionNo)
	assert.Equal(t, filed, f.FiledAt)

	assert.Equal(t, "320193", f.Company.CIK, "CIK is canonicalized without leading zeros")
	assert.Equal(t, "Apple Inc.", f.Company.Name)
	require.NotNil(t, f.Company.Symbol)
	assert.Equal(t, "AAPL", *f.Company.Symbol)

	assert.Equal(t, "COOK TIMOTHY D", f.Insider.Name)
	assert.True(t, f.Insider.IsDirector)
	assert.True(t, f.Insider.IsOfficer)
	assert.False(t, f.Insider.IsTenPercentOwner, `"0" is not a set flag`)
	require.NotNil(t, f.Insider.Title)
	assert.Equal(t, "Chief Executive Officer", *f.Insider.Title)

	// The A-coded grant is dropped; only the open-market sale survives.
	require.Len(t, f.Transactions, 1)
	tx := f.Transactions[0]
	assert.Equal(t, domain.DirectionSell, tx.Direction)
	assert.Equal(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), tx.Date)
	assert.Equal(t, 25_000.0, tx.Shares, "comma separators are stripped")
	assert.Equal(t, 187.50, tx.Price)
	assert.Equal(t, 25_000.0*187.50, tx.Value)
	assert.Equal(t, 3_300_000.0, tx.PostHoldings)
	assert.Equal(t, domain.OwnershipDirect, tx.Ownership)
	assert.True(t, tx.PlannedSale, "footnote F1 cites a 10b5-1 plan")
}

func TestParseDirectTextFields(t *testing.T) {
	// Some filers skip the <value> wrapper entirely.
	doc := `<issuer>
    <issuerCik>789019</issuerCik>
    <issuerName>Microsoft Corporation</issuerName>
  </issuer>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate>2026-01-15</transactionDate>
      <transactionCode>P</transactionCode>
      <transactionShares>1200</transactionShares>
      <transactionPricePerShare>402.10</transactionPricePerShare>
    </nonDerivativeTransaction>
  </nonDerivativeTable>`

	f := Parse(doc, "acc-1", time.Time{})

	assert.Equal(t, "789019", f.Company.CIK)
	assert.Nil(t, f.Company.Symbol, "absent symbol stays nil")
	require.Len(t, f.Transactions, 1)
	assert.Equal(t, domain.DirectionBuy, f.Transactions[0].Direction)
	assert.Equal(t, 1200.0, f.Transactions[0].Shares)
	assert.Equal(t, domain.OwnershipIndirect, f.Transactions[0].Ownership, "missing ownership defaults to indirect")
	assert.Equal(t, 0.0, f.Transactions[0].PostHoldings, "missing holdings default to zero")
}

func TestParseWrapperWinsOverDirectText(t *testing.T) {
	block := `<transactionShares>ignored<value>500</value></transactionShares>`
	v, ok := fieldFloat(block, "transactionShares")
	require.True(t, ok)
	assert.Equal(t, 500.0, v)
}

func TestParseDropsIncompleteTransactions(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing code", `<transactionDate><value>2026-01-15</value></transactionDate>
			<transactionShares><value>100</value></transactionShares>
			<transactionPricePerShare><value>10</value></transactionPricePerShare>`},
		{"missing date", `<transactionCode>P</transactionCode>
			<transactionShares><value>100</value></transactionShares>
			<transactionPricePerShare><value>10</value></transactionPricePerShare>`},
		{"garbled date", `<transactionCode>P</transactionCode>
			<transactionDate><value>02/15/2026</value></transactionDate>
			<transactionShares><value>100</value></transactionShares>
			<transactionPricePerShare><value>10</value></transactionPricePerShare>`},
		{"zero shares", `<transactionCode>P</transactionCode>
			<transactionDate><value>2026-01-15</value></transactionDate>
			<transactionShares><value>0</value></transactionShares>
			<transactionPricePerShare><value>10</value></transactionPricePerShare>`},
		{"negative price", `<transactionCode>P</transactionCode>
			<transactionDate><value>2026-01-15</value></transactionDate>
			<transactionShares><value>100</value></transactionShares>
			<transactionPricePerShare><value>-1</value></transactionPricePerShare>`},
		{"unparseable shares", `<transactionCode>P</transactionCode>
			<transactionDate><value>2026-01-15</value></transactionDate>
			<transactionShares><value>n/a</value></transactionShares>
			<transactionPricePerShare><value>10</value></transactionPricePerShare>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := `<nonDerivativeTable><nonDerivativeTransaction>` + tc.body +
				`</nonDerivativeTransaction></nonDerivativeTable>`
			f := Parse(doc, "acc-1", time.Time{})
			assert.Empty(t, f.Transactions)
		})
	}
}

func TestParseZeroPriceAllowed(t *testing.T) {
	doc := `<nonDerivativeTable><nonDerivativeTransaction>
		<transactionCode>S</transactionCode>
		<transactionDate><value>2026-01-15</value></transactionDate>
		<transactionShares><value>100</value></transactionShares>
		<transactionPricePerShare><value>0</value></transactionPricePerShare>
	</nonDerivativeTransaction></nonDerivativeTable>`

	f := Parse(doc, "acc-1", time.Time{})
	require.Len(t, f.Transactions, 1)
	assert.Equal(t, 0.0, f.Transactions[0].Price)
	assert.Equal(t, 0.0, f.Transactions[0].Value)
}

func TestParseBothTables(t *testing.T) {
	doc := `<nonDerivativeTable>
		<nonDerivativeTransaction>
			<transactionCode>P</transactionCode>
			<transactionDate><value>2026-01-15</value></transactionDate>
			<transactionShares><value>100</value></transactionShares>
			<transactionPricePerShare><value>10</value></transactionPricePerShare>
		</nonDerivativeTransaction>
	</nonDerivativeTable>
	<derivativeTable>
		<derivativeTransaction>
			<transactionCode>S</transactionCode>
			<transactionDate><value>2026-01-16</value></transactionDate>
			<transactionShares><value>200</value></transactionShares>
			<transactionPricePerShare><value>5</value></transactionPricePerShare>
		</derivativeTransaction>
	</derivativeTable>`

	f := Parse(doc, "acc-1", time.Time{})
	require.Len(t, f.Transactions, 2)
	assert.Equal(t, domain.DirectionBuy, f.Transactions[0].Direction)
	assert.Equal(t, domain.DirectionSell, f.Transactions[1].Direction)
}

func TestParseNeverPanicsOnGarbage(t *testing.T) {
	docs := []string{
		"",
		"not markup at all",
		"<issuer><issuerCik>",
		"<nonDerivativeTable><nonDerivativeTransaction>",
		"<nonDerivativeTable/>",
		"<issuer attr=\"x\"",
	}
	for _, doc := range docs {
		f := Parse(doc, "acc-1", time.Time{})
		assert.Empty(t, f.Transactions)
	}
}

func TestPlannedSaleDanglingFootnote(t *testing.T) {
	doc := `<nonDerivativeTable><nonDerivativeTransaction>
		<transactionCode>S</transactionCode>
		<transactionDate><value>2026-01-15</value></transactionDate>
		<transactionShares><value>100</value></transactionShares>
		<transactionPricePerShare><value>10</value></transactionPricePerShare>
		<footnoteId id="F9"/>
	</nonDerivativeTransaction></nonDerivativeTable>`

	f := Parse(doc, "acc-1", time.Time{})
	require.Len(t, f.Transactions, 1)
	assert.False(t, f.Transactions[0].PlannedSale, "a reference to a missing footnote is not a plan")
}

func TestPlannedSaleUnrelatedFootnote(t *testing.T) {
	doc := `<nonDerivativeTable><nonDerivativeTransaction>
		<transactionCode>S</transactionCode>
		<transactionDate><value>2026-01-15</value></transactionDate>
		<transactionShares><value>100</value></transactionShares>
		<transactionPricePerShare><value>10</value></transactionPricePerShare>
		<footnoteId id="F1"/>
	</nonDerivativeTransaction></nonDerivativeTable>
	<footnotes><footnote id="F1">Shares held by a family trust.</footnote></footnotes>`

	f := Parse(doc, "acc-1", time.Time{})
	require.Len(t, f.Transactions, 1)
	assert.False(t, f.Transactions[0].PlannedSale)
}

func TestFieldTextEmptyValueIsAbsent(t *testing.T) {
	_, ok := fieldText(`<officerTitle><value></value></officerTitle>`, "officerTitle")
	assert.False(t, ok)

	_, ok = fieldText(`<officerTitle>   </officerTitle>`, "officerTitle")
	assert.False(t, ok)

	_, ok = fieldText(`<officerTitle/>`, "officerTitle")
	assert.False(t, ok)
}

func TestTagBlockAttributesAndPrefixes(t *testing.T) {
	inner, ok := tagBlock(`<transactionDate foo="bar">x</transactionDate>`, "transactionDate")
	require.True(t, ok)
	assert.Equal(t, "x", inner)

	// A longer tag name sharing the prefix must not match.
	_, ok = tagBlock(`<transactionDateTime>x</transactionDateTime>`, "transactionDate")
	assert.False(t, ok)
}

func TestCanonicalCIK(t *testing.T) {
	assert.Equal(t, "320193", canonicalCIK("0000320193"))
	assert.Equal(t, "320193", canonicalCIK("320193"))
	assert.Equal(t, "0", canonicalCIK("0000"))
	assert.Equal(t, "", canonicalCIK(""))
}
