package models

import "time"

// Quote is a point-in-time price observation.
type Quote struct {
	Symbol string
	Price  float64
	Volume float64
	AsOf   time.Time
}

// IndicatorSnapshot carries the technical indicator readings for one symbol.
// RSI is 0 when unavailable; MACDCross is "" when unavailable.
type IndicatorSnapshot struct {
	Symbol      string
	RSI         float64
	MACDCross   string // "bullish" or "bearish"
	AboveEMA200 bool
	GoldenCross bool
	DeathCross  bool
	HighVolume  bool
	AsOf        time.Time
}

// TechnicalSnapshot is the bounded technical-strength reading for one
// instrument at a point in time. Score is in [-1, 1]. Never cached across
// pipeline runs.
type TechnicalSnapshot struct {
	Instrument string
	Score      float64
	Price      float64
	AsOf       time.Time
}

// MarketRegime classifies the broad volatility environment.
type MarketRegime string

const (
	RegimeLowVol   MarketRegime = "low_vol"
	RegimeNormal   MarketRegime = "normal"
	RegimeElevated MarketRegime = "elevated"
	RegimeHighVol  MarketRegime = "high_vol"
)
