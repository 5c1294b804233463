package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NewsEdge/internal/domain/models"
	drepo "NewsEdge/internal/domain/repository"
	domsvc "NewsEdge/internal/domain/service"
	mid "NewsEdge/internal/middleware"
	"NewsEdge/pkg/config"
	"NewsEdge/pkg/logger"
)

// NewsCollector funnels every intake path into generation runs. The live
// newswire stream, the polled REST feed, and the Kafka intake topic all end
// up in the same batch buffer; batches flush into the generator when full
// or on an interval, and the resulting signals go out through the publisher.
type NewsCollector struct {
	stream  drepo.NewsStream
	feed    domsvc.NewsSource
	archive drepo.NewsArchive
	gen     *SignalGenerator
	pub     *SignalPublisher
	metrics drepo.Metrics
	pipe    *mid.NewswirePipeline

	lookback time.Duration
	batchSz  int
	flushIv  time.Duration

	mu      sync.Mutex
	pending []*models.NewsItem
	seen    map[string]time.Time // recently accepted IDs, pruned on flush
	started bool

	flushCh chan struct{}
	stopCh  chan struct{}
	l       *logger.Logger
}

// NewNewsCollector creates a new NewsCollector instance.
func NewNewsCollector(
	stream drepo.NewsStream,
	feed domsvc.NewsSource,
	archive drepo.NewsArchive,
	gen *SignalGenerator,
	pub *SignalPublisher,
	metrics drepo.Metrics,
	pipe *mid.NewswirePipeline,
	cfg *config.Config,
) *NewsCollector {
	batchSz := cfg.Newswire.BatchSize
	if batchSz <= 0 {
		batchSz = 25
	}
	flushIv := cfg.Newswire.FlushInterval
	if flushIv <= 0 {
		flushIv = 30 * time.Second
	}
	return &NewsCollector{
		stream:   stream,
		feed:     feed,
		archive:  archive,
		gen:      gen,
		pub:      pub,
		metrics:  metrics,
		pipe:     pipe,
		lookback: cfg.Lookback(),
		batchSz:  batchSz,
		flushIv:  flushIv,
		seen:     make(map[string]time.Time),
		flushCh:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// SetLogger sets the logger.
func (c *NewsCollector) SetLogger(l *logger.Logger) {
	c.l = l
}

// SetPipeline attaches the intake pipeline. The collector is also the
// pipeline's downstream, so the two are constructed in sequence and joined
// here before Start.
func (c *NewsCollector) SetPipeline(p *mid.NewswirePipeline) {
	c.pipe = p
}

// IsConnected returns true if the newswire stream is connected.
func (c *NewsCollector) IsConnected() bool {
	if c.stream == nil {
		return false
	}
	return c.stream.IsConnected()
}

// Start connects the stream if one is configured and launches the batch
// flush loop.
func (c *NewsCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if c.stream != nil {
		if err := c.stream.Connect(ctx); err != nil {
			return err
		}
		if err := c.stream.Subscribe(ctx); err != nil {
			return err
		}
		if c.pipe != nil {
			c.pipe.Start(ctx)
		}
		itemCh, errCh := c.stream.Read(ctx)
		go c.consume(ctx, itemCh, errCh)
	}

	go c.flushLoop(ctx)
	return nil
}

func (c *NewsCollector) consume(ctx context.Context, itemCh <-chan *models.NewsItem, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case item := <-itemCh:
			if item == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, item)
			} else {
				_ = c.Process(ctx, item)
			}
		}
	}
}

// Process accepts one item into the batch buffer. It archives the item,
// drops IDs already seen inside the lookback window, and triggers a flush
// when the buffer is full. Implements the pipeline's downstream interface.
func (c *NewsCollector) Process(ctx context.Context, item *models.NewsItem) error {
	if item == nil {
		return nil
	}

	c.mu.Lock()
	if at, ok := c.seen[item.ID]; ok && time.Since(at) < c.lookback {
		c.mu.Unlock()
		return nil
	}
	c.seen[item.ID] = time.Now()
	c.mu.Unlock()

	if c.archive != nil {
		if err := c.archive.Store(ctx, item); err != nil {
			c.metrics.RecordError("news_archive")
			if c.l != nil {
				c.l.Warn("news archive store failed",
					logger.String("news_id", item.ID),
					logger.Error(err))
			}
		}
	}

	c.mu.Lock()
	c.pending = append(c.pending, item)
	full := len(c.pending) >= c.batchSz
	c.mu.Unlock()

	if full {
		select {
		case c.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// RunOnce fetches recent items from the REST feed and drives one generation
// pass over them. The scheduler, the queue worker, and the API all enter
// here.
func (c *NewsCollector) RunOnce(ctx context.Context, lookback time.Duration, trigger string) (*RunResult, error) {
	if c.feed == nil {
		return nil, fmt.Errorf("news feed not configured")
	}
	if lookback <= 0 {
		lookback = c.lookback
	}

	since := time.Now().Add(-lookback)
	items, err := c.feed.Fetch(ctx, since)
	if err != nil {
		c.metrics.RecordError("news_fetch")
		return nil, fmt.Errorf("fetch news: %w", err)
	}

	if c.archive != nil {
		for _, item := range items {
			if err := c.archive.Store(ctx, item); err != nil {
				c.metrics.RecordError("news_archive")
			}
		}
	}

	out, err := c.gen.Generate(ctx, items, trigger)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, out.Signals)
	return out, nil
}

func (c *NewsCollector) flushLoop(ctx context.Context) {
	t := time.NewTicker(c.flushIv)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-t.C:
			c.flush(ctx)
		case <-c.flushCh:
			c.flush(ctx)
		}
	}
}

func (c *NewsCollector) flush(ctx context.Context) {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.pruneSeenLocked()
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	out, err := c.gen.Generate(ctx, batch, "stream")
	if err != nil {
		c.metrics.RecordError("generate")
		if c.l != nil {
			c.l.Warn("stream run aborted", logger.Error(err))
		}
		return
	}
	c.publish(ctx, out.Signals)
}

func (c *NewsCollector) publish(ctx context.Context, signals []*models.Signal) {
	if len(signals) == 0 || c.pub == nil {
		return
	}
	if err := c.pub.ProcessBatch(ctx, signals); err != nil {
		c.metrics.RecordError("publish")
		if c.l != nil {
			c.l.Error("signal publish failed",
				logger.Int("signals", len(signals)),
				logger.Error(err))
		}
	}
}

func (c *NewsCollector) pruneSeenLocked() {
	cutoff := time.Now().Add(-c.lookback)
	for id, at := range c.seen {
		if at.Before(cutoff) {
			delete(c.seen, id)
		}
	}
}

// Publisher returns the underlying SignalPublisher for lifecycle management.
func (c *NewsCollector) Publisher() *SignalPublisher { return c.pub }

// Generator returns the underlying SignalGenerator.
func (c *NewsCollector) Generator() *SignalGenerator { return c.gen }

func (c *NewsCollector) Stop() error {
	if c.stream != nil {
		return c.stream.Close()
	}
	return nil
}

// Shutdown stops the pipeline and flush loop and closes the stream.
func (c *NewsCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	c.mu.Lock()
	if c.started {
		c.started = false
		close(c.stopCh)
	}
	c.mu.Unlock()
	if c.stream != nil {
		return c.stream.Close()
	}
	return nil
}

var _ mid.Proc = (*NewsCollector)(nil)
