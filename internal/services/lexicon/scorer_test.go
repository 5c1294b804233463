package lexicon

import (
	"context"
	"math"
	"testing"

	"NewsEdge/internal/domain/models"
)

const eps = 1e-9

func score(t *testing.T, s *Scorer, text string) models.SentimentResult {
	t.Helper()
	r, err := s.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	return r
}

func TestScoreStrongBullish(t *testing.T) {
	s := New()
	r := score(t, s, "Record growth, strong profit and excellent success")

	if math.Abs(r.Score-1.0) > eps {
		t.Errorf("score = %v, want 1.0", r.Score)
	}
	if math.Abs(r.Confidence-ConfidenceCeiling) > eps {
		t.Errorf("confidence = %v, want %v", r.Confidence, ConfidenceCeiling)
	}
	if r.Label != models.SentimentBullish {
		t.Errorf("label = %s, want bullish", r.Label)
	}
}

func TestScoreStrongBearish(t *testing.T) {
	s := New()
	r := score(t, s, "Crisis deepens: losses, weak decline and bankruptcy fear")

	if math.Abs(r.Score-(-1.0)) > eps {
		t.Errorf("score = %v, want -1.0", r.Score)
	}
	if r.Label != models.SentimentBearish {
		t.Errorf("label = %s, want bearish", r.Label)
	}
}

func TestScoreNoKeywords(t *testing.T) {
	s := New()
	r := score(t, s, "The committee meets on Tuesday")

	if r.Score != 0 {
		t.Errorf("score = %v, want 0", r.Score)
	}
	if r.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", r.Confidence)
	}
	if r.Label != models.SentimentNeutral {
		t.Errorf("label = %s, want neutral", r.Label)
	}
}

func TestScoreMixedPolarity(t *testing.T) {
	s := New()
	r := score(t, s, "strong growth and record quarter despite one loss")

	// 3 positive, 1 negative: ratio 0.5 at coverage 4/5.
	if math.Abs(r.Score-0.4) > eps {
		t.Errorf("score = %v, want 0.4", r.Score)
	}
	if math.Abs(r.Confidence-0.6) > eps {
		t.Errorf("confidence = %v, want 0.6", r.Confidence)
	}
}

func TestScoreUncertaintyDampens(t *testing.T) {
	s := New()
	hedged := score(t, s, "strong growth could possibly continue if conditions improve perhaps")
	plain := score(t, s, "strong growth continues as conditions improve")

	if hedged.Score >= plain.Score {
		t.Errorf("hedged score %v not below plain score %v", hedged.Score, plain.Score)
	}
	if hedged.Score <= 0 {
		t.Errorf("hedged score %v lost its polarity", hedged.Score)
	}
}

func TestScoreConfidenceNeverExceedsCeiling(t *testing.T) {
	s := New()
	texts := []string{
		"growth growth growth growth growth growth growth growth",
		"loss loss loss loss loss loss loss loss loss loss loss",
		"strong surge rally record profit gain success winning robust solid",
	}
	for _, text := range texts {
		r := score(t, s, text)
		if r.Confidence > ConfidenceCeiling+eps {
			t.Errorf("text %q: confidence %v exceeds ceiling", text, r.Confidence)
		}
	}
}

func TestScoreBatchMatchesSingles(t *testing.T) {
	s := New()
	texts := []string{
		"Record growth, strong profit and excellent success",
		"Crisis deepens: losses, weak decline and bankruptcy fear",
		"The committee meets on Tuesday",
	}

	batch, err := s.ScoreBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("batch length = %d, want %d", len(batch), len(texts))
	}
	for i, text := range texts {
		single := score(t, s, text)
		if batch[i] != single {
			t.Errorf("text %d: batch %+v != single %+v", i, batch[i], single)
		}
	}
}
