package usecase

import (
	"math"
	"testing"
	"time"

	"NewsEdge/internal/domain/models"
	"NewsEdge/pkg/config"
)

func testCombiner() *Combiner {
	cfg := &config.Config{}
	cfg.Pipeline.LookbackHours = 6
	cfg.Pipeline.MinSentimentConfidence = 0.6
	cfg.Pipeline.MinCombinedScore = 0.3
	cfg.Pipeline.SentimentWeight = 0.7
	cfg.Pipeline.TechnicalWeight = 0.3
	return NewCombiner(cfg)
}

func TestCombineBullishSignal(t *testing.T) {
	c := testCombiner()
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)

	item := &models.NewsItem{
		ID:          "n1",
		Headline:    "Apple beats earnings expectations",
		Source:      "feed",
		PublishedAt: now.Add(-2 * time.Hour),
	}
	sym := models.ExtractedSymbol{Instrument: "AAPL", Confidence: 0.95, MatchedAlias: "apple"}
	sent := models.SentimentResult{Score: 0.90, Confidence: 0.87, Label: models.SentimentBullish}
	tech := models.TechnicalSnapshot{Instrument: "AAPL", Score: 0.40, Price: 100}

	sig, reason := c.Combine(item, sym, sent, tech, now)
	if sig == nil {
		t.Fatalf("rejected with %q, want a signal", reason)
	}
	if math.Abs(sig.CombinedScore-0.75) > 1e-9 {
		t.Errorf("combined = %v, want 0.75", sig.CombinedScore)
	}
	if sig.Direction != models.DirectionBullish {
		t.Errorf("direction = %s, want bullish", sig.Direction)
	}
	if sig.Entry != 100 {
		t.Errorf("entry = %v, want current price 100", sig.Entry)
	}
	if math.Abs(sig.Stop-97) > 1e-9 {
		t.Errorf("stop = %v, want 97", sig.Stop)
	}
	if math.Abs(sig.Target1-105) > 1e-9 || math.Abs(sig.Target2-110) > 1e-9 {
		t.Errorf("targets = %v/%v, want 105/110", sig.Target1, sig.Target2)
	}
	if sig.Confidence != 0.87 {
		t.Errorf("confidence = %v, want sentiment confidence 0.87", sig.Confidence)
	}
	if sig.NewsID != "n1" || sig.Headline != item.Headline {
		t.Errorf("news reference not carried: %q %q", sig.NewsID, sig.Headline)
	}
	if !sig.GeneratedAt.Equal(now) {
		t.Errorf("generated_at = %v, want %v", sig.GeneratedAt, now)
	}
}

func TestCombineBearishLevels(t *testing.T) {
	c := testCombiner()
	now := time.Now()

	item := &models.NewsItem{ID: "n2", Headline: "Recall widens", PublishedAt: now.Add(-time.Hour)}
	sent := models.SentimentResult{Score: -0.8, Confidence: 0.9, Label: models.SentimentBearish}
	tech := models.TechnicalSnapshot{Instrument: "TSLA", Score: -0.5, Price: 200}

	sig, reason := c.Combine(item, models.ExtractedSymbol{Instrument: "TSLA"}, sent, tech, now)
	if sig == nil {
		t.Fatalf("rejected with %q, want a signal", reason)
	}
	if sig.Direction != models.DirectionBearish {
		t.Fatalf("direction = %s, want bearish", sig.Direction)
	}
	if math.Abs(sig.Stop-206) > 1e-9 {
		t.Errorf("stop = %v, want 206 (3%% above entry)", sig.Stop)
	}
	if math.Abs(sig.Target1-190) > 1e-9 || math.Abs(sig.Target2-180) > 1e-9 {
		t.Errorf("targets = %v/%v, want 190/180", sig.Target1, sig.Target2)
	}
}

func TestCombineRejections(t *testing.T) {
	c := testCombiner()
	now := time.Now()

	fresh := &models.NewsItem{ID: "n", PublishedAt: now.Add(-2 * time.Hour)}
	stale := &models.NewsItem{ID: "n", PublishedAt: now.Add(-8 * time.Hour)}
	sym := models.ExtractedSymbol{Instrument: "MSFT"}

	tests := []struct {
		name string
		item *models.NewsItem
		sent models.SentimentResult
		tech models.TechnicalSnapshot
		want RejectReason
	}{
		{
			name: "confidence below gate",
			item: fresh,
			sent: models.SentimentResult{Score: 0.90, Confidence: 0.50},
			tech: models.TechnicalSnapshot{Score: 0.40, Price: 100},
			want: RejectLowConfidence,
		},
		{
			name: "stale news rejected regardless of score",
			item: stale,
			sent: models.SentimentResult{Score: 0.95, Confidence: 0.95},
			tech: models.TechnicalSnapshot{Score: 0.9, Price: 100},
			want: RejectStale,
		},
		{
			name: "weak combined score",
			item: fresh,
			sent: models.SentimentResult{Score: 0.30, Confidence: 0.90},
			tech: models.TechnicalSnapshot{Score: 0.20, Price: 100},
			want: RejectWeakScore,
		},
		{
			name: "missing price",
			item: fresh,
			sent: models.SentimentResult{Score: 0.90, Confidence: 0.90},
			tech: models.TechnicalSnapshot{Score: 0.40},
			want: RejectNoPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, reason := c.Combine(tt.item, sym, tt.sent, tt.tech, now)
			if sig != nil {
				t.Fatalf("got signal %+v, want rejection", sig)
			}
			if reason != tt.want {
				t.Errorf("reason = %q, want %q", reason, tt.want)
			}
		})
	}
}

func TestCombineScoreBoundedAndSigned(t *testing.T) {
	c := testCombiner()
	now := time.Now()
	item := &models.NewsItem{ID: "n", PublishedAt: now.Add(-time.Hour)}

	pairs := []struct{ sent, tech float64 }{
		{1, 1}, {-1, -1}, {1, -1}, {-1, 1}, {0.9, -0.2}, {-0.6, 0.1},
	}
	for _, p := range pairs {
		sig, _ := c.Combine(item, models.ExtractedSymbol{Instrument: "X"},
			models.SentimentResult{Score: p.sent, Confidence: 0.9},
			models.TechnicalSnapshot{Score: p.tech, Price: 50}, now)
		if sig == nil {
			continue
		}
		if sig.CombinedScore < -1 || sig.CombinedScore > 1 {
			t.Errorf("combined %v outside [-1, 1] for inputs %+v", sig.CombinedScore, p)
		}
		if sig.CombinedScore < 0 && sig.Direction != models.DirectionBearish {
			t.Errorf("negative score %v labeled %s", sig.CombinedScore, sig.Direction)
		}
		if sig.CombinedScore > 0 && sig.Direction != models.DirectionBullish {
			t.Errorf("positive score %v labeled %s", sig.CombinedScore, sig.Direction)
		}
	}
}
