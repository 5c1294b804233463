package analytics

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"
    "time"

    "NewsEdge/internal/domain/models"
    "NewsEdge/pkg/config"
)

func scorerFor(t *testing.T, url string) *HTTPSentimentScorer {
    t.Helper()
    cfg := &config.Config{}
    cfg.Analytics.ModelServiceURL = url
    cfg.Analytics.Timeout = time.Second
    return NewHTTPSentimentScorer(cfg)
}

func TestScoreBatchParsesResults(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/sentiment/batch" {
            t.Errorf("path = %s, want /sentiment/batch", r.URL.Path)
        }
        var req struct {
            Texts []string `json:"texts"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            t.Errorf("decode request: %v", err)
            return
        }
        if len(req.Texts) != 2 {
            t.Errorf("got %d texts, want 2", len(req.Texts))
        }
        _ = json.NewEncoder(w).Encode(map[string]interface{}{
            "results": []map[string]interface{}{
                {"score": 0.8, "confidence": 0.9, "label": "positive"},
                {"score": -0.5, "confidence": 0.7, "label": "negative"},
            },
        })
    }))
    defer srv.Close()

    got, err := scorerFor(t, srv.URL).ScoreBatch(context.Background(), []string{"a", "b"})
    if err != nil {
        t.Fatalf("ScoreBatch: %v", err)
    }
    if len(got) != 2 {
        t.Fatalf("got %d results, want 2", len(got))
    }
    if got[0].Label != models.SentimentBullish || got[0].Score != 0.8 || got[0].Confidence != 0.9 {
        t.Errorf("first result = %+v", got[0])
    }
    if got[1].Label != models.SentimentBearish {
        t.Errorf("second label = %s, want bearish", got[1].Label)
    }
}

func TestScoreBatchRejectsCountMismatch(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _ = json.NewEncoder(w).Encode(map[string]interface{}{
            "results": []map[string]interface{}{
                {"score": 0.1, "confidence": 0.5, "label": "neutral"},
            },
        })
    }))
    defer srv.Close()

    if _, err := scorerFor(t, srv.URL).ScoreBatch(context.Background(), []string{"a", "b"}); err == nil {
        t.Fatal("expected error on result count mismatch")
    }
}

func TestScoreMapsUnknownLabelByScore(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _ = json.NewEncoder(w).Encode(map[string]interface{}{
            "results": []map[string]interface{}{
                {"score": 0.05, "confidence": 0.4, "label": "mixed"},
            },
        })
    }))
    defer srv.Close()

    got, err := scorerFor(t, srv.URL).Score(context.Background(), "flat quarter")
    if err != nil {
        t.Fatalf("Score: %v", err)
    }
    if got.Label != models.SentimentNeutral {
        t.Errorf("label = %s, want neutral for a near-zero score", got.Label)
    }
}

func TestScoreBatchEmptyInputSkipsRequest(t *testing.T) {
    // The URL is never dialed; an empty batch returns before any request.
    got, err := scorerFor(t, "http://127.0.0.1:0").ScoreBatch(context.Background(), nil)
    if err != nil {
        t.Fatalf("ScoreBatch: %v", err)
    }
    if got != nil {
        t.Errorf("got %v, want nil", got)
    }
}

func TestPostRetriesConnectionBlip(t *testing.T) {
    var calls int64
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if atomic.AddInt64(&calls, 1) == 1 {
            http.Error(w, "restarting", http.StatusServiceUnavailable)
            return
        }
        _ = json.NewEncoder(w).Encode(map[string]interface{}{
            "results": []map[string]interface{}{
                {"score": 0.4, "confidence": 0.8, "label": "positive"},
            },
        })
    }))
    defer srv.Close()

    got, err := scorerFor(t, srv.URL).Score(context.Background(), "upgraded to buy")
    if err != nil {
        t.Fatalf("Score after retry: %v", err)
    }
    if got.Label != models.SentimentBullish {
        t.Errorf("label = %s, want bullish", got.Label)
    }
    if n := atomic.LoadInt64(&calls); n != 2 {
        t.Errorf("server saw %d calls, want 2", n)
    }
}
