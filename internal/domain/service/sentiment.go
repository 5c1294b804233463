package service

import (
	"context"

	"NewsEdge/internal/domain/models"
)

// SentimentScorer scores a unit of text. Implementations must be pure in the
// input text: the same text always yields the same result, and batching must
// not change per-item results.
type SentimentScorer interface {
	Score(ctx context.Context, text string) (models.SentimentResult, error)
	ScoreBatch(ctx context.Context, texts []string) ([]models.SentimentResult, error)
}

// SymbolResolver maps free text to candidate instruments.
type SymbolResolver interface {
	Resolve(item *models.NewsItem) []models.ExtractedSymbol
}
