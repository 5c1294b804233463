package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsEdge/internal/domain/models"
	"NewsEdge/pkg/logger"
)

type stubScorer struct {
	result models.SentimentResult
	err    error
	block  bool
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, text string) (models.SentimentResult, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return models.SentimentResult{}, ctx.Err()
	}
	return s.result, s.err
}

func (s *stubScorer) ScoreBatch(ctx context.Context, texts []string) ([]models.SentimentResult, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.SentimentResult, len(texts))
	for i := range out {
		out[i] = s.result
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := &stubScorer{result: models.SentimentResult{Score: 0.8, Confidence: 0.9, Label: models.SentimentBullish}}
	fallback := &stubScorer{result: models.SentimentResult{Score: 0.1, Confidence: 0.3, Label: models.SentimentNeutral}}
	s := NewFallbackScorer(primary, fallback, time.Second, testLogger(t))

	r, err := s.Score(context.Background(), "earnings beat expectations")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.Score != 0.8 {
		t.Errorf("score = %v, want primary result 0.8", r.Score)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestFallbackOnPrimaryError(t *testing.T) {
	primary := &stubScorer{err: errors.New("model service down")}
	fallback := &stubScorer{result: models.SentimentResult{Score: 0.4, Confidence: 0.6, Label: models.SentimentBullish}}
	s := NewFallbackScorer(primary, fallback, time.Second, testLogger(t))

	r, err := s.Score(context.Background(), "strong growth")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.Score != 0.4 {
		t.Errorf("score = %v, want fallback result 0.4", r.Score)
	}
}

func TestFallbackOnPrimaryTimeout(t *testing.T) {
	primary := &stubScorer{block: true}
	fallback := &stubScorer{result: models.SentimentResult{Score: -0.5, Confidence: 0.6, Label: models.SentimentBearish}}
	s := NewFallbackScorer(primary, fallback, 20*time.Millisecond, testLogger(t))

	start := time.Now()
	r, err := s.Score(context.Background(), "bankruptcy filing")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.Score != -0.5 {
		t.Errorf("score = %v, want fallback result -0.5", r.Score)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("fallback took %v, timeout not applied", elapsed)
	}
}

func TestFallbackHonorsCallerCancellation(t *testing.T) {
	primary := &stubScorer{block: true}
	fallback := &stubScorer{result: models.SentimentResult{Score: 0.4}}
	s := NewFallbackScorer(primary, fallback, time.Minute, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Score(ctx, "anything"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times after caller cancellation, want 0", fallback.calls)
	}
}

func TestFallbackBatch(t *testing.T) {
	primary := &stubScorer{err: errors.New("model service down")}
	fallback := &stubScorer{result: models.SentimentResult{Score: 0.2, Confidence: 0.5, Label: models.SentimentBullish}}
	s := NewFallbackScorer(primary, fallback, time.Second, testLogger(t))

	results, err := s.ScoreBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Score != 0.2 {
			t.Errorf("result %d score = %v, want 0.2", i, r.Score)
		}
	}
}
