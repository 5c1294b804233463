package usecase

import (
	"time"

	"NewsEdge/internal/domain/models"
	"NewsEdge/pkg/config"
)

// Trade levels are fixed percentages off the current price; the second
// target is strictly beyond the first in the favorable direction.
const (
	StopPct    = 0.03
	Target1Pct = 0.05
	Target2Pct = 0.10
)

// RejectReason explains why a candidate never became a signal.
type RejectReason string

const (
	RejectStale         RejectReason = "stale_news"
	RejectLowConfidence RejectReason = "low_confidence"
	RejectWeakScore     RejectReason = "weak_score"
	RejectNoPrice       RejectReason = "no_price"
)

// Combiner folds a sentiment result and a technical snapshot into one
// candidate signal under fixed weights, or rejects the pair. Pure
// computation; every threshold comes from config so tuning never touches
// another component.
type Combiner struct {
	sentimentWeight float64
	technicalWeight float64
	minConfidence   float64
	minCombined     float64
	lookback        time.Duration
}

// NewCombiner creates a Combiner from pipeline config.
func NewCombiner(cfg *config.Config) *Combiner {
	return &Combiner{
		sentimentWeight: cfg.Pipeline.SentimentWeight,
		technicalWeight: cfg.Pipeline.TechnicalWeight,
		minConfidence:   cfg.Pipeline.MinSentimentConfidence,
		minCombined:     cfg.Pipeline.MinCombinedScore,
		lookback:        cfg.Lookback(),
	}
}

// Combine returns the candidate signal for one (item, symbol) pair, or nil
// with the gate that rejected it. Gates run cheapest first: age, then
// sentiment confidence, then combined strength.
func (c *Combiner) Combine(
	item *models.NewsItem,
	sym models.ExtractedSymbol,
	sent models.SentimentResult,
	tech models.TechnicalSnapshot,
	now time.Time,
) (*models.Signal, RejectReason) {
	if item.Age(now) > c.lookback {
		return nil, RejectStale
	}
	if sent.Confidence < c.minConfidence {
		return nil, RejectLowConfidence
	}

	combined := c.sentimentWeight*sent.Score + c.technicalWeight*tech.Score
	if abs(combined) < c.minCombined {
		return nil, RejectWeakScore
	}
	if tech.Price <= 0 {
		return nil, RejectNoPrice
	}

	direction := models.DirectionForScore(combined)
	price := tech.Price

	var stop, target1, target2 float64
	if direction == models.DirectionBullish {
		stop = price * (1 - StopPct)
		target1 = price * (1 + Target1Pct)
		target2 = price * (1 + Target2Pct)
	} else {
		stop = price * (1 + StopPct)
		target1 = price * (1 - Target1Pct)
		target2 = price * (1 - Target2Pct)
	}

	return &models.Signal{
		Instrument:     sym.Instrument,
		Direction:      direction,
		CombinedScore:  combined,
		SentimentScore: sent.Score,
		TechnicalScore: tech.Score,
		Confidence:     sent.Confidence,
		Price:          price,
		Entry:          price,
		Stop:           stop,
		Target1:        target1,
		Target2:        target2,
		NewsID:         item.ID,
		Headline:       item.Headline,
		Source:         item.Source,
		PublishedAt:    item.PublishedAt,
		GeneratedAt:    now,
	}, ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
