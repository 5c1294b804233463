package repository

import (
	"context"
	"time"

	"NewsEdge/internal/domain/models"
	domrepo "NewsEdge/internal/domain/repository"
	pkgkafka "NewsEdge/pkg/kafka"
	applogger "NewsEdge/pkg/logger"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by
// instrument so one instrument's signals stay ordered on a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed signal publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, s *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Instrument), signalPayload(s))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{Key: []byte(s.Instrument), Value: signalPayload(s)}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// PublishMessage sends an arbitrary payload on any topic. It satisfies
// logger.Publisher so aggregated error logs ship over the same producer.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ applogger.Publisher = (*KafkaPublisher)(nil)

// signalPayload is the wire shape notification workers consume.
func signalPayload(s *models.Signal) map[string]interface{} {
	return map[string]interface{}{
		"instrument":      s.Instrument,
		"direction":       string(s.Direction),
		"combined_score":  s.CombinedScore,
		"sentiment_score": s.SentimentScore,
		"technical_score": s.TechnicalScore,
		"confidence":      s.Confidence,
		"price":           s.Price,
		"entry":           s.Entry,
		"stop":            s.Stop,
		"target1":         s.Target1,
		"target2":         s.Target2,
		"news_id":         s.NewsID,
		"headline":        s.Headline,
		"source":          s.Source,
		"published_at":    s.PublishedAt.UTC().Format(time.RFC3339),
		"generated_at":    s.GeneratedAt.UTC().Format(time.RFC3339),
	}
}
