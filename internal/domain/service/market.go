package service

import (
	"context"

	"NewsEdge/internal/domain/models"
)

// TechnicalProvider supplies the technical-strength context for an
// instrument: current price plus a bounded score derived from indicators.
type TechnicalProvider interface {
	Snapshot(ctx context.Context, instrument string) (models.TechnicalSnapshot, error)
}

// RegimeClassifier reports the broad market volatility environment.
type RegimeClassifier interface {
	Current(ctx context.Context) (models.MarketRegime, error)
}
