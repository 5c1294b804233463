package models

// SentimentLabel is the categorical reading of a sentiment score.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentNeutral SentimentLabel = "neutral"
	SentimentBearish SentimentLabel = "bearish"
)

// labelThreshold is the score magnitude at which sentiment stops being neutral.
const labelThreshold = 0.2

// SentimentResult is the outcome of scoring one text. Score is in [-1, 1]
// (negative bearish, positive bullish), Confidence in [0, 1]. Both the model
// path and the lexicon fallback produce this same shape.
type SentimentResult struct {
	Score      float64
	Confidence float64
	Label      SentimentLabel
}

// LabelForScore derives the categorical label from a score.
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score >= labelThreshold:
		return SentimentBullish
	case score <= -labelThreshold:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}
