package models

import (
	"fmt"
	"time"
)

// Direction is the expected price move of a signal.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

// DirectionForScore maps a combined score's sign to a direction.
// Zero scores never reach this point; the minimum-score gate rejects them.
func DirectionForScore(score float64) Direction {
	if score < 0 {
		return DirectionBearish
	}
	return DirectionBullish
}

// Validate checks that d is a known direction.
func (d Direction) Validate() error {
	switch d {
	case DirectionBullish, DirectionBearish:
		return nil
	default:
		return fmt.Errorf("invalid direction: %q", string(d))
	}
}

// Signal is one actionable trading signal. Immutable after creation.
// It carries every number a downstream renderer needs; nothing has to be
// re-derived.
type Signal struct {
	Instrument     string
	Direction      Direction
	CombinedScore  float64
	SentimentScore float64
	TechnicalScore float64
	Confidence     float64
	Price          float64
	Entry          float64
	Stop           float64
	Target1        float64
	Target2        float64
	NewsID         string
	Headline       string
	Source         string
	PublishedAt    time.Time
	GeneratedAt    time.Time
}

// SignalHistoryRecord is the persisted dedup record for one emitted signal.
// Append-only; a record is logically expired once now > ExpiresAt.
type SignalHistoryRecord struct {
	Instrument string
	Direction  Direction
	EmittedAt  time.Time
	ExpiresAt  time.Time
}
