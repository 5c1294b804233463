package analytics

import (
    "context"
    "fmt"
    "time"

    "NewsEdge/internal/domain/models"
    domsvc "NewsEdge/internal/domain/service"
    "NewsEdge/pkg/config"
    xhttp "NewsEdge/pkg/http"
)

// HTTPSentimentScorer scores text against the hosted sentiment model. The
// service runs a finance-tuned transformer and returns class probabilities;
// its composite score is P(positive) - P(negative) and its confidence is the
// maximum class probability.
type HTTPSentimentScorer struct {
    baseURL string
    client  *xhttp.Client
}

func NewHTTPSentimentScorer(cfg *config.Config) *HTTPSentimentScorer {
    timeout := cfg.Analytics.Timeout
    if timeout <= 0 {
        timeout = 3 * time.Second
    }
    return &HTTPSentimentScorer{
        baseURL: cfg.Analytics.ModelServiceURL,
        client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
    }
}

type sentimentReq struct {
    Texts []string `json:"texts"`
}

type sentimentResp struct {
    Results []sentimentItem `json:"results"`
}

type sentimentItem struct {
    Score         float64            `json:"score"`
    Confidence    float64            `json:"confidence"`
    Label         string             `json:"label"`
    Probabilities map[string]float64 `json:"probabilities"`
}

func (s *HTTPSentimentScorer) Score(ctx context.Context, text string) (models.SentimentResult, error) {
    results, err := s.ScoreBatch(ctx, []string{text})
    if err != nil {
        return models.SentimentResult{}, err
    }
    if len(results) != 1 {
        return models.SentimentResult{}, fmt.Errorf("sentiment service returned %d results for one text", len(results))
    }
    return results[0], nil
}

func (s *HTTPSentimentScorer) ScoreBatch(ctx context.Context, texts []string) ([]models.SentimentResult, error) {
    if len(texts) == 0 {
        return nil, nil
    }
    var resp sentimentResp
    if err := s.post(ctx, "/sentiment/batch", sentimentReq{Texts: texts}, &resp); err != nil {
        return nil, err
    }
    if len(resp.Results) != len(texts) {
        return nil, fmt.Errorf("sentiment service returned %d results for %d texts", len(resp.Results), len(texts))
    }
    out := make([]models.SentimentResult, len(resp.Results))
    for i, item := range resp.Results {
        out[i] = models.SentimentResult{
            Score:      item.Score,
            Confidence: item.Confidence,
            Label:      labelFromWire(item.Label, item.Score),
        }
    }
    return out, nil
}

// post sends one JSON request to the model service with a single quick
// retry. The service restarts fast, so most failures are connection
// blips rather than outages; anything longer falls through to the
// lexicon scorer upstream.
func (s *HTTPSentimentScorer) post(ctx context.Context, path string, payload, dest interface{}) error {
    var err error
    for attempt := 0; attempt < 2; attempt++ {
        if attempt > 0 {
            select {
            case <-time.After(100 * time.Millisecond):
            case <-ctx.Done():
                return ctx.Err()
            }
        }
        err = s.client.SendAndParse(ctx, &xhttp.RequestOptions{
            Method: xhttp.MethodPost,
            URL:    s.baseURL + path,
            Body:   payload,
        }, dest)
        if err == nil {
            return nil
        }
    }
    return fmt.Errorf("post %s: %w", path, err)
}

// labelFromWire maps the service's class names onto domain labels, falling
// back to the score thresholds for anything unrecognized.
func labelFromWire(label string, score float64) models.SentimentLabel {
    switch label {
    case "positive", "bullish":
        return models.SentimentBullish
    case "negative", "bearish":
        return models.SentimentBearish
    case "neutral":
        return models.SentimentNeutral
    default:
        return models.LabelForScore(score)
    }
}

var _ domsvc.SentimentScorer = (*HTTPSentimentScorer)(nil)
