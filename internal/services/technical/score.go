// Package technical converts raw indicator readings into the bounded
// confirmation score that weighs against news sentiment. The functions here
// are pure; fetching indicators is the market-data client's job.
package technical

import "NewsEdge/internal/domain/models"

// ScoreIndicators folds one symbol's indicator readings into a score in
// [-1, 1]. A reading that is unavailable (zero RSI, empty MACD crossover)
// contributes nothing rather than failing the computation.
func ScoreIndicators(snap models.IndicatorSnapshot) float64 {
	score := 0.0

	if snap.RSI > 0 {
		switch {
		case snap.RSI < 30:
			// oversold
			score += 0.3
		case snap.RSI > 70:
			// overbought
			score -= 0.3
		case snap.RSI >= 40 && snap.RSI <= 60:
			// balanced, no contribution
		default:
			score += (50 - snap.RSI) / 100
		}
	}

	if snap.MACDCross != "" {
		if snap.MACDCross == "bullish" {
			score += 0.2
		} else {
			score -= 0.2
		}
	}

	if snap.AboveEMA200 {
		score += 0.15
	}
	if snap.GoldenCross {
		score += 0.2
	}
	if snap.DeathCross {
		score -= 0.2
	}

	// Volume only confirms a direction the other indicators already point at.
	if snap.HighVolume {
		if score > 0 {
			score += 0.1
		} else {
			score -= 0.1
		}
	}

	return clamp(score, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
