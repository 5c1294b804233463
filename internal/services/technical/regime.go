package technical

import "NewsEdge/internal/domain/models"

// RegimeForVIX classifies the volatility environment from a VIX level.
func RegimeForVIX(level float64) models.MarketRegime {
	switch {
	case level < 15:
		return models.RegimeLowVol
	case level < 20:
		return models.RegimeNormal
	case level < 30:
		return models.RegimeElevated
	default:
		return models.RegimeHighVol
	}
}
