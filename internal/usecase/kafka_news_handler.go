package usecase

import (
	"context"
	"encoding/json"
	"time"

	"NewsEdge/internal/domain/models"
	domrepo "NewsEdge/internal/domain/repository"
	pkgcache "NewsEdge/pkg/cache"
	pkgkafka "NewsEdge/pkg/kafka"
)

// KafkaNewsHandler consumes raw news items from the intake topic and feeds
// them to the collector.
type KafkaNewsHandler struct {
	topic     string
	collector *NewsCollector
	metrics   domrepo.Metrics
}

func NewKafkaNewsHandler(topic string, collector *NewsCollector, metrics domrepo.Metrics) *KafkaNewsHandler {
	return &KafkaNewsHandler{topic: topic, collector: collector, metrics: metrics}
}

func (h *KafkaNewsHandler) Topic() string { return h.topic }

// incoming message schema: {id, headline, summary, source, url, published}
func (h *KafkaNewsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ID        string `json:"id"`
		Headline  string `json:"headline"`
		Summary   string `json:"summary"`
		Source    string `json:"source"`
		URL       string `json:"url"`
		Published int64  `json:"published"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	// Malformed items are dropped, not retried: redelivery cannot fix them.
	if m.Headline == "" || m.Published <= 0 {
		h.metrics.RecordError("consumer_invalid")
		return nil
	}
	if m.Published > 1e11 { // ms
		m.Published = m.Published / 1000
	}
	published := time.Unix(m.Published, 0)
	// E2E latency from publish time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(published).Seconds())

	id := m.ID
	if id == "" {
		id = pkgcache.HashKey(m.URL + m.Headline)
	}

	start := time.Now()
	err := h.collector.Process(ctx, &models.NewsItem{
		ID:          id,
		Headline:    m.Headline,
		Body:        m.Summary,
		Source:      m.Source,
		URL:         m.URL,
		PublishedAt: published,
	})
	h.metrics.RecordLatency("intake_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_intake")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaNewsHandler)(nil)
