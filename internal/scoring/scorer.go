// Package scoring computes the signal score expressing how noteworthy one
// insider transaction is. Scoring is pure: all contextual facts (first
// activity, cluster counts) are looked up by the caller and passed in.
package scoring

import (
	"math"
	"strings"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// sizeReferenceUSD is the transaction value at which the size factor starts
// to boost the score. At or below this value the factor floors at 1.0.
const sizeReferenceUSD = 10_000

// executiveTitles are matched case-insensitively as substrings of the
// insider's title to decide the role factor.
var executiveTitles = []string{
	"chief executive",
	"ceo",
	"chief financial",
	"cfo",
	"chief operating",
	"coo",
	"chair",
	"president",
}

// Config holds the scoring thresholds and window lengths. Defaults live in
// the config package; tests construct it directly.
type Config struct {
	LookbackDays         int     // first-activity trailing window
	ClusterWindowDays    int     // half-width of the cluster window
	SignificantThreshold float64 // |score| at which a trade is significant
	UrgentScoreThreshold float64 // |score| at which a trade alerts immediately
	UrgentValueThreshold float64 // USD value at which a trade alerts immediately
}

// Input carries one transaction plus its contextual signals.
type Input struct {
	Direction     domain.Direction
	Value         float64
	Title         *string
	FirstActivity bool
	ClusterCount  int // distinct other insiders trading the same company
}

// Result is the full factor breakdown, kept for display and regression
// comparison rather than just the final number.
type Result struct {
	Score              float64
	Base               float64
	SizeFactor         float64
	RoleFactor         float64
	FirstActivityBonus float64
	ClusterBonus       float64
}

// Score computes the signal score for one transaction. It is total: no input
// causes a failure, zero-value trades degrade to a size factor of 1.0.
func Score(in Input) Result {
	r := Result{
		Base:       1,
		SizeFactor: sizeFactor(in.Value),
		RoleFactor: roleFactor(in.Title),
	}
	if in.Direction == domain.DirectionSell {
		r.Base = -1
	}
	if in.FirstActivity {
		r.FirstActivityBonus = 1
	}
	r.ClusterBonus = float64(in.ClusterCount)

	r.Score = round2((r.Base + r.FirstActivityBonus + r.ClusterBonus) * r.SizeFactor * r.RoleFactor)
	return r
}

// sizeFactor scales with the decimal magnitude of the trade value above the
// reference point and never drops below 1.0. Zero-price trades reach the
// scorer (price >= 0 is allowed), so the log10 of a non-positive value is
// special-cased rather than evaluated.
func sizeFactor(value float64) float64 {
	if value <= 0 {
		return 1.0
	}
	return math.Max(1.0, math.Log10(value/sizeReferenceUSD))
}

func roleFactor(title *string) float64 {
	if title == nil {
		return 1.0
	}
	lower := strings.ToLower(*title)
	for _, t := range executiveTitles {
		if strings.Contains(lower, t) {
			return 1.5
		}
	}
	return 1.0
}

// IsSignificant reports whether the score magnitude clears the significance
// threshold.
func (c Config) IsSignificant(score float64) bool {
	return math.Abs(score) >= c.SignificantThreshold
}

// IsUrgent reports whether a transaction warrants immediate notification.
// Either condition alone suffices: a high score OR a high dollar value.
func (c Config) IsUrgent(score, value float64) bool {
	return math.Abs(score) >= c.UrgentScoreThreshold || value >= c.UrgentValueThreshold
}

// HoldingsDelta returns the percent change between the prior and post
// holdings, rounded to two decimals. A zero prior holding saturates to 0
// instead of dividing by zero.
func HoldingsDelta(prior, post float64) float64 {
	if prior == 0 {
		return 0
	}
	return round2((post - prior) / prior * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
