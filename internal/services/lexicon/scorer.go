// Package lexicon is the deterministic sentiment fallback. It scores text
// against financial sentiment word lists (Loughran-McDonald style) and
// produces the same result shape as the model path, capped at a fixed
// confidence ceiling so model-grade certainty can only come from the model.
package lexicon

import (
	"context"
	"strings"
	"unicode"

	"NewsEdge/internal/domain/models"
	domsvc "NewsEdge/internal/domain/service"
)

// ConfidenceCeiling is the highest confidence the fallback may report.
const ConfidenceCeiling = 0.75

// coverageSpan is the keyword count at which coverage saturates.
const coverageSpan = 5.0

type Scorer struct {
	positive    map[string]struct{}
	negative    map[string]struct{}
	uncertainty map[string]struct{}
}

func New() *Scorer {
	return &Scorer{
		positive:    wordSet(positiveWords),
		negative:    wordSet(negativeWords),
		uncertainty: wordSet(uncertaintyWords),
	}
}

// Score is a pure function of the input text and never fails.
func (s *Scorer) Score(_ context.Context, text string) (models.SentimentResult, error) {
	words := tokenize(strings.ToLower(text))

	var pos, neg, unc int
	for _, w := range words {
		if _, ok := s.positive[w]; ok {
			pos++
		}
		if _, ok := s.negative[w]; ok {
			neg++
		}
		if _, ok := s.uncertainty[w]; ok {
			unc++
		}
	}

	total := pos + neg
	if total == 0 || len(words) == 0 {
		return models.SentimentResult{Score: 0, Confidence: 0, Label: models.SentimentNeutral}, nil
	}

	// Polarity scaled by keyword coverage, damped by hedging language.
	ratio := float64(pos-neg) / float64(total)
	coverage := float64(total) / coverageSpan
	if coverage > 1 {
		coverage = 1
	}
	uncRatio := float64(unc) / float64(len(words)) * 20
	if uncRatio > 1 {
		uncRatio = 1
	}

	score := ratio * coverage * (1 - 0.5*uncRatio)
	score = clamp(score, -1, 1)

	return models.SentimentResult{
		Score:      score,
		Confidence: ConfidenceCeiling * coverage,
		Label:      models.LabelForScore(score),
	}, nil
}

// ScoreBatch scores each text independently.
func (s *Scorer) ScoreBatch(ctx context.Context, texts []string) ([]models.SentimentResult, error) {
	out := make([]models.SentimentResult, len(texts))
	for i, t := range texts {
		r, err := s.Score(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// tokenize splits text into letter/digit runs.
func tokenize(text string) []string {
	var words []string
	var current strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
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

func wordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Word lists based on financial sentiment dictionaries
// (Loughran-McDonald financial sentiment word lists).

var positiveWords = []string{
	"achieve", "attain", "beat", "benefit", "better", "competitive", "delight",
	"enhance", "excellent", "exceptional", "extraordinary", "favorable",
	"gain", "gains", "good", "great", "grew", "growth", "improve", "improved",
	"improvement", "increasing", "innovation", "innovative", "leader",
	"leading", "opportunity", "optimal", "optimistic", "outperform",
	"positive", "profit", "profitable", "progress", "prosper", "rally",
	"rebound", "record", "remarkable", "robust", "soar", "soared", "solid",
	"strength", "strong", "succeed", "success", "successful", "superior",
	"surge", "surged", "surpass", "tremendous", "upbeat", "upgrade",
	"valuable", "winning",
}

var negativeWords = []string{
	"abandon", "adverse", "bankruptcy", "challenge", "challenging", "concern",
	"concerns", "crash", "crisis", "damage", "debt", "decline", "decrease",
	"deficit", "deteriorate", "difficult", "difficulty", "disappoint",
	"disappointing", "disadvantage", "downgrade", "downturn", "drop",
	"erode", "fail", "failure", "falling", "fear", "headwind", "impair",
	"impairment", "inability", "inadequate", "ineffective", "lawsuit",
	"loss", "losses", "miss", "missed", "negative", "obstacle", "plunge",
	"plunged", "poor", "problem", "recall", "recession", "restructuring",
	"risk", "risks", "slow", "slowdown", "slump", "tumble", "underperform",
	"unfavorable", "unprofitable", "volatile", "volatility", "weak",
	"weakness", "worse", "worsen", "worst",
}

var uncertaintyWords = []string{
	"almost", "anticipate", "anticipates", "appear", "appears", "approximately",
	"assume", "assumes", "believe", "believes", "could", "depend", "depending",
	"estimate", "estimates", "expect", "expects", "forecast", "forecasts",
	"if", "intend", "intends", "likely", "may", "maybe", "might", "outlook",
	"pending", "perhaps", "possible", "possibly", "potential",
	"predict", "predicts", "should", "somewhat",
	"suggest", "suggests", "uncertain", "uncertainty", "unclear", "unlikely",
	"variable", "would",
}

var _ domsvc.SentimentScorer = (*Scorer)(nil)
