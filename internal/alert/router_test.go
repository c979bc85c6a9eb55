package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/scoring"
)

func TestRoute(t *testing.T) {
	router := NewRouter(scoring.Config{
		UrgentScoreThreshold: 5.0,
		UrgentValueThreshold: 250_000,
	})

	cases := []struct {
		name  string
		score float64
		value float64
		want  Decision
	}{
		{"below both thresholds", 4.99, 249_999, DecisionNone},
		{"score at threshold", 5.0, 100, DecisionUrgent},
		{"negative score magnitude", -6.3, 100, DecisionUrgent},
		{"value at threshold", 0.5, 250_000, DecisionUrgent},
		{"both over", 7.0, 1_000_000, DecisionUrgent},
		{"zero everything", 0, 0, DecisionNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := router.Route(domain.Transaction{Score: tc.score, Value: tc.value})
			assert.Equal(t, tc.want, got)
		})
	}
}
