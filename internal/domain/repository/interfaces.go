package repository

import (
	"context"
	"time"

	"NewsEdge/internal/domain/models"
)

// NewsStream is a live headline feed.
type NewsStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.NewsItem, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher delivers emitted signals to the notification boundary.
type Publisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	PublishBatch(ctx context.Context, signals []*models.Signal) error
	Close() error
}

// SignalQuery filters archive reads.
type SignalQuery struct {
	Instrument string
	Direction  models.Direction
	From       time.Time
	To         time.Time
	Limit      int
}

// SignalArchive stores emitted signals for later reads.
type SignalArchive interface {
	Store(ctx context.Context, s *models.Signal) error
	StoreBatch(ctx context.Context, signals []*models.Signal) error
	Query(ctx context.Context, q SignalQuery) ([]*models.Signal, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// NewsArchive stores ingested news items.
type NewsArchive interface {
	Store(ctx context.Context, n *models.NewsItem) error
	Recent(ctx context.Context, since time.Time, limit int) ([]*models.NewsItem, error)
	Close() error
}

// SignalHistory enforces the no-repeat window per (instrument, direction).
//
// Reserve returns true iff no unexpired record exists for the pair and the
// caller now holds the reservation. It must be atomic across concurrent
// runners in separate processes: for any pair, at most one concurrent caller
// wins. A Reserve error means the dedup state is unknown; the caller must
// not emit (fail closed).
//
// Commit durably records the history row for a signal that was actually
// emitted; Release frees a reservation whose signal was dropped by the run
// cap so the pair stays eligible for a future run.
type SignalHistory interface {
	Reserve(ctx context.Context, instrument string, direction models.Direction, now time.Time) (bool, error)
	Commit(ctx context.Context, rec *models.SignalHistoryRecord) error
	Release(ctx context.Context, instrument string, direction models.Direction) error
}

// Metrics records pipeline counters and timings.
type Metrics interface {
	RecordMessageSent(sink, symbol string)
	RecordError(kind string)
	RecordLastScore(symbol string, score float64)
	RecordLatency(op string, seconds float64)
}
