package technical

import (
	"math"
	"testing"

	"NewsEdge/internal/domain/models"
)

func TestScoreIndicators(t *testing.T) {
	tests := []struct {
		name string
		snap models.IndicatorSnapshot
		want float64
	}{
		{
			name: "oversold with full bullish confluence",
			snap: models.IndicatorSnapshot{RSI: 25, MACDCross: "bullish", AboveEMA200: true, GoldenCross: true, HighVolume: true},
			want: 0.95,
		},
		{
			name: "overbought with bearish cross and death cross",
			snap: models.IndicatorSnapshot{RSI: 75, MACDCross: "bearish", DeathCross: true, HighVolume: true},
			want: -0.8,
		},
		{
			name: "balanced rsi contributes nothing",
			snap: models.IndicatorSnapshot{RSI: 50},
			want: 0,
		},
		{
			name: "high volume pushes a flat score negative",
			snap: models.IndicatorSnapshot{RSI: 50, HighVolume: true},
			want: -0.1,
		},
		{
			name: "mild lean below the balance band",
			snap: models.IndicatorSnapshot{RSI: 35},
			want: 0.15,
		},
		{
			name: "mild lean above the balance band",
			snap: models.IndicatorSnapshot{RSI: 65},
			want: -0.15,
		},
		{
			name: "rsi exactly 30 is a lean, not oversold",
			snap: models.IndicatorSnapshot{RSI: 30},
			want: 0.2,
		},
		{
			name: "rsi exactly 70 is a lean, not overbought",
			snap: models.IndicatorSnapshot{RSI: 70},
			want: -0.2,
		},
		{
			name: "rsi at band edges",
			snap: models.IndicatorSnapshot{RSI: 40},
			want: 0,
		},
		{
			name: "missing rsi is skipped",
			snap: models.IndicatorSnapshot{AboveEMA200: true},
			want: 0.15,
		},
		{
			name: "missing macd is skipped",
			snap: models.IndicatorSnapshot{},
			want: 0,
		},
		{
			name: "golden and death crosses cancel",
			snap: models.IndicatorSnapshot{GoldenCross: true, DeathCross: true},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreIndicators(tt.snap)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ScoreIndicators() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreIndicatorsBounded(t *testing.T) {
	snaps := []models.IndicatorSnapshot{
		{RSI: 5, MACDCross: "bullish", AboveEMA200: true, GoldenCross: true, HighVolume: true},
		{RSI: 95, MACDCross: "bearish", DeathCross: true, HighVolume: true},
	}
	for _, snap := range snaps {
		got := ScoreIndicators(snap)
		if got < -1 || got > 1 {
			t.Errorf("ScoreIndicators(%+v) = %v, outside [-1, 1]", snap, got)
		}
	}
}

func TestRegimeForVIX(t *testing.T) {
	tests := []struct {
		level float64
		want  models.MarketRegime
	}{
		{12.0, models.RegimeLowVol},
		{14.99, models.RegimeLowVol},
		{15.0, models.RegimeNormal},
		{19.99, models.RegimeNormal},
		{20.0, models.RegimeElevated},
		{29.99, models.RegimeElevated},
		{30.0, models.RegimeHighVol},
		{45.0, models.RegimeHighVol},
	}
	for _, tt := range tests {
		if got := RegimeForVIX(tt.level); got != tt.want {
			t.Errorf("RegimeForVIX(%v) = %s, want %s", tt.level, got, tt.want)
		}
	}
}
