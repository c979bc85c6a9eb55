package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want float64
	}{
		{
			name: "ceo first buy half a million",
			// (1+1) * log10(500000/10000) * 1.5 = 2 * 1.69897 * 1.5
			in: Input{
				Direction:     domain.DirectionBuy,
				Value:         500_000,
				Title:         strPtr("Chief Executive Officer"),
				FirstActivity: true,
			},
			want: 5.10,
		},
		{
			name: "ceo first buy with cluster of two",
			// (1+1+2) * log10(500000/10000) * 1.5 = 4 * 1.69897 * 1.5;
			// rounding happens once at the end of the chain, so this pins
			// 10.19 rather than the 10.20 a pre-rounded size factor yields.
			in: Input{
				Direction:     domain.DirectionBuy,
				Value:         500_000,
				Title:         strPtr("Chief Executive Officer"),
				FirstActivity: true,
				ClusterCount:  2,
			},
			want: 10.19,
		},
		{
			name: "plain buy small value floors the size factor",
			in: Input{
				Direction: domain.DirectionBuy,
				Value:     900,
			},
			want: 1.0,
		},
		{
			name: "sell flips the base",
			in: Input{
				Direction: domain.DirectionSell,
				Value:     900,
			},
			want: -1.0,
		},
		{
			name: "cluster adds per other insider",
			// (1+2) * 1.0 * 1.0
			in: Input{
				Direction:    domain.DirectionBuy,
				Value:        10_000,
				ClusterCount: 2,
			},
			want: 3.0,
		},
		{
			name: "sell with bonuses can go positive",
			// (-1+1+2) * 1.0 * 1.0
			in: Input{
				Direction:     domain.DirectionSell,
				Value:         10_000,
				FirstActivity: true,
				ClusterCount:  2,
			},
			want: 2.0,
		},
		{
			name: "zero value degrades to factor one",
			in: Input{
				Direction: domain.DirectionBuy,
				Value:     0,
			},
			want: 1.0,
		},
		{
			name: "title match is case insensitive substring",
			// 1 * max(1, log10(10)) * 1.5
			in: Input{
				Direction: domain.DirectionBuy,
				Value:     100_000,
				Title:     strPtr("EVP and CFO"),
			},
			want: 1.5,
		},
		{
			name: "non executive title has no role boost",
			in: Input{
				Direction: domain.DirectionBuy,
				Value:     100_000,
				Title:     strPtr("VP Engineering"),
			},
			want: 1.0,
		},
		{
			name: "nil title has no role boost",
			in: Input{
				Direction: domain.DirectionBuy,
				Value:     100_000,
			},
			want: 1.0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Score(tc.in)
			assert.InDelta(t, tc.want, r.Score, 0.001)
		})
	}
}

func TestScoreBreakdown(t *testing.T) {
	r := Score(Input{
		Direction:     domain.DirectionBuy,
		Value:         1_000_000,
		Title:         strPtr("President"),
		FirstActivity: true,
		ClusterCount:  3,
	})

	assert.Equal(t, 1.0, r.Base)
	assert.Equal(t, 1.0, r.FirstActivityBonus)
	assert.Equal(t, 3.0, r.ClusterBonus)
	assert.Equal(t, 1.5, r.RoleFactor)
	assert.InDelta(t, 2.0, r.SizeFactor, 0.001)
	assert.InDelta(t, 15.0, r.Score, 0.001)
}

func TestSizeFactor(t *testing.T) {
	assert.Equal(t, 1.0, sizeFactor(-100))
	assert.Equal(t, 1.0, sizeFactor(0))
	assert.Equal(t, 1.0, sizeFactor(5_000))
	assert.Equal(t, 1.0, sizeFactor(10_000))
	assert.InDelta(t, 1.0, sizeFactor(100_000), 0.001)
	assert.InDelta(t, 2.0, sizeFactor(1_000_000), 0.001)
}

func TestConfigThresholds(t *testing.T) {
	cfg := Config{
		SignificantThreshold: 3.0,
		UrgentScoreThreshold: 5.0,
		UrgentValueThreshold: 250_000,
	}

	assert.False(t, cfg.IsSignificant(2.99))
	assert.True(t, cfg.IsSignificant(3.0))
	assert.True(t, cfg.IsSignificant(-3.5), "magnitude, not sign")

	assert.False(t, cfg.IsUrgent(4.99, 249_999))
	assert.True(t, cfg.IsUrgent(5.0, 0), "score alone suffices")
	assert.True(t, cfg.IsUrgent(-5.2, 0))
	assert.True(t, cfg.IsUrgent(0.5, 250_000), "value alone suffices")
}

func TestHoldingsDelta(t *testing.T) {
	assert.Equal(t, 0.0, HoldingsDelta(0, 5_000), "zero prior saturates instead of dividing")
	assert.Equal(t, 25.0, HoldingsDelta(4_000, 5_000))
	assert.Equal(t, -50.0, HoldingsDelta(10_000, 5_000))
	assert.Equal(t, -100.0, HoldingsDelta(5_000, 0))
	assert.Equal(t, 33.33, HoldingsDelta(3, 4))
}
