package sentiment

import (
	"context"
	"time"

	"NewsEdge/internal/domain/models"
	domsvc "NewsEdge/internal/domain/service"
	"NewsEdge/pkg/logger"
)

const defaultModelTimeout = 5 * time.Second

// FallbackScorer chains the model-backed scorer with the deterministic
// lexicon scorer. The primary gets a bounded slice of the caller's deadline;
// if it errors or runs out of time, the lexicon result is returned instead.
// Callers see a single SentimentScorer either way.
type FallbackScorer struct {
	primary  domsvc.SentimentScorer
	fallback domsvc.SentimentScorer
	timeout  time.Duration
	log      *logger.Logger
}

func NewFallbackScorer(primary, fallback domsvc.SentimentScorer, timeout time.Duration, log *logger.Logger) *FallbackScorer {
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	return &FallbackScorer{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		log:      log,
	}
}

func (s *FallbackScorer) Score(ctx context.Context, text string) (models.SentimentResult, error) {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.primary.Score(pctx, text)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return models.SentimentResult{}, ctx.Err()
	}
	s.log.Warn("sentiment model unavailable, scoring with lexicon", logger.Error(err))
	return s.fallback.Score(ctx, text)
}

func (s *FallbackScorer) ScoreBatch(ctx context.Context, texts []string) ([]models.SentimentResult, error) {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.primary.ScoreBatch(pctx, texts)
	if err == nil {
		return results, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.log.Warn("sentiment model unavailable, scoring batch with lexicon",
		logger.Error(err),
		logger.Int("texts", len(texts)))
	return s.fallback.ScoreBatch(ctx, texts)
}

var _ domsvc.SentimentScorer = (*FallbackScorer)(nil)
