package pipeline

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/scoring"
)

// formatUrgent renders the immediate notification for one scored transaction.
func formatUrgent(company domain.Company, insider domain.Insider, tx domain.Transaction, result scoring.Result, delta float64) (title, body string) {
	verb := "bought"
	if tx.Direction == domain.DirectionSell {
		verb = "sold"
	}

	title = fmt.Sprintf("Insider %s: %s", verb, companyLabel(company.Name, symbolOrEmpty(company.Symbol)))

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %s %s shares of %s at $%.2f (%s total)\n",
		insider.Name, titleSuffix(insider.Title), verb,
		formatQty(tx.Shares), companyLabel(company.Name, symbolOrEmpty(company.Symbol)),
		tx.Price, formatUSD(tx.Value),
	)
	fmt.Fprintf(&b, "Date: %s | Score: %.2f", tx.Date.Format("2006-01-02"), tx.Score)
	if result.FirstActivityBonus > 0 {
		b.WriteString(" | first activity in window")
	}
	if result.ClusterBonus > 0 {
		fmt.Fprintf(&b, " | %d other insider(s) active", int(result.ClusterBonus))
	}
	if tx.PlannedSale {
		b.WriteString(" | 10b5-1 plan")
	}
	if delta != 0 {
		fmt.Fprintf(&b, "\nHoldings change: %+.2f%%", delta)
	}
	return title, b.String()
}

func companyLabel(name, symbol string) string {
	if symbol != "" {
		return fmt.Sprintf("%s (%s)", name, symbol)
	}
	return name
}

func symbolOrEmpty(symbol *string) string {
	if symbol == nil {
		return ""
	}
	return *symbol
}

func titleSuffix(title *string) string {
	if title == nil || *title == "" {
		return ""
	}
	return " (" + *title + ")"
}

// formatQty renders a share count without trailing decimal noise.
func formatQty(shares float64) string {
	if shares == float64(int64(shares)) {
		return fmt.Sprintf("%d", int64(shares))
	}
	return fmt.Sprintf("%.2f", shares)
}

// formatUSD renders a dollar amount compactly ($950, $12.5K, $3.4M).
func formatUSD(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
