package usecase

import (
	"context"
	"fmt"
	"time"

	"NewsEdge/internal/domain/models"
	drepo "NewsEdge/internal/domain/repository"
	icache "NewsEdge/internal/service/cache"
)

// SignalPublisher routes emitted signals to the configured backend and
// invalidates cached API responses the new signals made stale.
type SignalPublisher struct {
	pub     drepo.Publisher
	store   drepo.SignalArchive
	cache   icache.BytesCache
	metrics drepo.Metrics
	backend string
}

// NewSignalPublisher creates a new SignalPublisher instance.
func NewSignalPublisher(
	pub drepo.Publisher,
	store drepo.SignalArchive,
	metrics drepo.Metrics,
	backend string,
) *SignalPublisher {
	return &SignalPublisher{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// SetCache sets the response cache to invalidate after publishing.
func (p *SignalPublisher) SetCache(c icache.BytesCache) {
	p.cache = c
}

// Process routes a single signal to the configured backend.
func (p *SignalPublisher) Process(ctx context.Context, s *models.Signal) error {
	if s == nil {
		return fmt.Errorf("signal is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, s)
	case "clickhouse":
		err = p.store.Store(ctx, s)
	case "both":
		if err = p.pub.Publish(ctx, s); err == nil {
			err = p.store.Store(ctx, s)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("publish")
		return fmt.Errorf("publish signal: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, s.Instrument)
	p.metrics.RecordLatency("publish", time.Since(start).Seconds())
	p.invalidate()

	return nil
}

// ProcessBatch routes the signals of one run in a batch.
func (p *SignalPublisher) ProcessBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, signals)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, signals)
	case "both":
		if err = p.pub.PublishBatch(ctx, signals); err == nil {
			err = p.store.StoreBatch(ctx, signals)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("publish_batch")
		return fmt.Errorf("publish batch: %w", err)
	}

	for _, s := range signals {
		p.metrics.RecordMessageSent(p.backend, s.Instrument)
	}
	p.metrics.RecordLatency("publish_batch", time.Since(start).Seconds())
	p.invalidate()

	return nil
}

func (p *SignalPublisher) invalidate() {
	if p.cache == nil {
		return
	}
	_ = p.cache.DeleteByPrefix("signals:")
}

// Close closes underlying resources if available.
func (p *SignalPublisher) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
