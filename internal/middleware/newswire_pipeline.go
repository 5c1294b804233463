package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NewsEdge/internal/domain/models"
	domrepo "NewsEdge/internal/domain/repository"
	"NewsEdge/internal/service/ratelimit"
)

const (
	defaultMaxRPS  = 10
	defaultBufSize = 500

	flushBackoffMin = 50 * time.Millisecond
	flushBackoffMax = 2 * time.Second
)

// Proc is the downstream the pipeline feeds.
type Proc interface {
	Process(ctx context.Context, item *models.NewsItem) error
}

// NewswirePipeline sits between the live headline stream and the collector.
// Items are validated, optionally normalized, and rate limited per source
// with a token bucket. When the downstream rejects an item it is parked in a
// bounded buffer and replayed by the flush loop.
type NewswirePipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	transform func(*models.NewsItem) *models.NewsItem

	maxRPS  int
	bufSize int
	limiter *ratelimit.Limiter

	bufCh  chan *models.NewsItem
	stopCh chan struct{}

	mu      sync.Mutex
	started bool
}

type PipelineOption func(*NewswirePipeline)

// WithMaxRPS caps accepted headlines per second per source.
func WithMaxRPS(n int) PipelineOption {
	return func(p *NewswirePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets how many rejected items can wait for replay.
func WithBufferSize(n int) PipelineOption {
	return func(p *NewswirePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform installs a hook that normalizes items before validation.
// Returning nil from the hook drops the item.
func WithTransform(fn func(*models.NewsItem) *models.NewsItem) PipelineOption {
	return func(p *NewswirePipeline) { p.transform = fn }
}

// NewNewswirePipeline creates a pipeline in front of proc.
func NewNewswirePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *NewswirePipeline {
	p := &NewswirePipeline{
		proc:    proc,
		metrics: metrics,
		maxRPS:  defaultMaxRPS,
		bufSize: defaultBufSize,
		limiter: ratelimit.New(),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.NewsItem, p.bufSize)
	return p
}

// Start launches the replay loop for parked items.
func (p *NewswirePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.flushLoop(ctx)
}

// Stop halts the replay loop. Parked items are abandoned.
func (p *NewswirePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Process runs one item through validation, normalization, and the per
// source limiter, then hands it to the downstream. A downstream failure
// parks the item for the flush loop and surfaces the error to the caller.
func (p *NewswirePipeline) Process(ctx context.Context, item *models.NewsItem) error {
	start := time.Now()
	if err := validateItem(item); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		if item = p.transform(item); item == nil {
			p.metrics.RecordError("pipeline_transform_drop")
			return nil
		}
		if err := validateItem(item); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(item.Source) {
		// Over-limit sources are shed here so one noisy feed cannot starve
		// the rest of the intake.
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, item); err != nil {
		p.metrics.RecordError("pipeline_process")
		p.park(item)
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func (p *NewswirePipeline) allow(source string) bool {
	if p.maxRPS <= 0 {
		return true
	}
	if source == "" {
		source = "unknown"
	}
	rps := float64(p.maxRPS)
	return p.limiter.Allow(source, rps, rps)
}

func (p *NewswirePipeline) park(item *models.NewsItem) {
	select {
	case p.bufCh <- item:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
}

// flushLoop replays parked items. Failures requeue the item and back off so
// a dead downstream is probed, not hammered.
func (p *NewswirePipeline) flushLoop(ctx context.Context) {
	backoff := flushBackoffMin
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case item := <-p.bufCh:
			if item == nil {
				continue
			}
			if err := p.proc.Process(ctx, item); err != nil {
				p.metrics.RecordError("pipeline_flush")
				p.park(item)
				if !p.wait(ctx, backoff) {
					return
				}
				if backoff < flushBackoffMax {
					backoff *= 2
				}
				continue
			}
			backoff = flushBackoffMin
		}
	}
}

// wait sleeps for d unless the pipeline stops first.
func (p *NewswirePipeline) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.stopCh:
		return false
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func validateItem(item *models.NewsItem) error {
	switch {
	case item == nil:
		return fmt.Errorf("nil item")
	case item.ID == "":
		return fmt.Errorf("missing id")
	case item.Headline == "":
		return fmt.Errorf("missing headline")
	case item.PublishedAt.IsZero():
		return fmt.Errorf("missing publish time")
	}
	return nil
}
