package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Producer wraps a kafka-go writer behind a payload-agnostic publish
// API. Values may be raw bytes, strings, or anything JSON-encodable.
type Producer struct {
	w           *kafka.Writer
	compression string
}

// Message is one entry of a PublishBatch call.
type Message struct {
	Key   []byte
	Value interface{}
}

// NewProducer builds a producer for the given brokers. At least one
// broker is required; everything else has working defaults.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	o := defaultProducerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if o.hashByKey {
		balancer = &kafka.Hash{}
	}

	producerMetricsInit.Do(registerProducerMetrics)

	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(o.brokers...),
			Balancer:     balancer,
			RequiredAcks: requiredAcks(o.requiredAcks),
			Compression:  compressionCodec(o.compression),
			MaxAttempts:  o.maxAttempts,
			WriteTimeout: o.writeTimeout,
			ReadTimeout:  o.readTimeout,
			BatchSize:    o.batchSize,
			BatchBytes:   int64(o.batchBytes),
			BatchTimeout: o.batchTimeout,
			Async:        o.async,
		},
		compression: o.compression,
	}, nil
}

// Publish sends one message to topic. A nil key leaves partition
// placement to the balancer.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	body, err := encodeValue(value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: body,
		Time:  start,
	})
	p.observe(topic, int64(len(body)), 1, time.Since(start), err)
	return err
}

// PublishBatch sends all messages to topic in one writer call.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	msgs := make([]kafka.Message, 0, len(messages))
	var total int64
	for _, m := range messages {
		body, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: body,
			Time:  start,
		})
		total += int64(len(body))
	}

	err := p.w.WriteMessages(ctx, msgs...)
	p.observe(topic, total, len(messages), time.Since(start), err)
	return err
}

// Close flushes pending batches and releases the writer.
func (p *Producer) Close() error {
	if p.w == nil {
		return nil
	}
	return p.w.Close()
}

func (p *Producer) observe(topic string, bytes int64, count int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		producerErrors.WithLabelValues(topic).Inc()
	}
	producerMessages.WithLabelValues(topic, p.compression, result).Add(float64(count))
	producerBytes.WithLabelValues(topic, p.compression).Add(float64(bytes))
	producerLatency.WithLabelValues(topic).Observe(dur.Seconds())
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		body, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("kafka: marshal value: %w", err)
		}
		return body, nil
	}
}

func requiredAcks(n int) kafka.RequiredAcks {
	switch n {
	case 0:
		return kafka.RequireNone
	case 1:
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

var (
	producerMetricsInit sync.Once
	producerMessages    *prometheus.CounterVec
	producerErrors      *prometheus.CounterVec
	producerBytes       *prometheus.CounterVec
	producerLatency     *prometheus.HistogramVec
)

func registerProducerMetrics() {
	producerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsedge_kafka_producer_messages_total",
		Help: "Messages published, by topic, compression and result.",
	}, []string{"topic", "compression", "result"})
	producerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsedge_kafka_producer_errors_total",
		Help: "Failed publish calls by topic.",
	}, []string{"topic"})
	producerBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsedge_kafka_producer_bytes_total",
		Help: "Payload bytes published, by topic and compression.",
	}, []string{"topic", "compression"})
	producerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsedge_kafka_producer_publish_seconds",
		Help:    "Publish call latency by topic.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
}
