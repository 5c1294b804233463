package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"

    "NewsEdge/internal/domain/models"
    domrepo "NewsEdge/internal/domain/repository"
    pkgch "NewsEdge/pkg/clickhouse"
    applogger "NewsEdge/pkg/logger"
)

// HistoryStore enforces the no-repeat window across processes using two
// layers: ClickHouse holds the durable history of committed signals, and a
// Redis SET NX key arbitrates between concurrent runners for pairs that have
// passed the durable check but not committed yet.
//
// Reserve order matters: the durable check runs first, then the NX acquire.
// Two runners racing on a fresh pair both pass the durable check; exactly one
// wins the NX key. Any Redis or ClickHouse error makes Reserve fail closed.
//
// The NX key carries the full window TTL. A runner that crashes between
// Reserve and Commit therefore suppresses the pair for the window even though
// no durable row exists; that errs on the quiet side, which is the cheaper
// mistake for a notification pipeline. Release deletes the key explicitly so
// pairs dropped by the run cap stay eligible.
type HistoryStore struct {
    rdb    *redis.Client
    db     *sql.DB
    table  string
    expiry time.Duration
    l      *applogger.Logger
}

// HistoryConfig configures the two-layer history store.
type HistoryConfig struct {
    RedisAddr     string
    RedisPassword string
    RedisDB       int
    Table         string
    Expiry        time.Duration
}

// NewHistoryStore creates the history store with its own Redis connection.
func NewHistoryStore(ch *pkgch.Client, cfg HistoryConfig) *HistoryStore {
    rdb := redis.NewClient(&redis.Options{
        Addr:     cfg.RedisAddr,
        Password: cfg.RedisPassword,
        DB:       cfg.RedisDB,
    })
    return &HistoryStore{
        rdb:    rdb,
        db:     ch.DB(),
        table:  cfg.Table,
        expiry: cfg.Expiry,
    }
}

// SetLogger injects a structured logger.
func (h *HistoryStore) SetLogger(l *applogger.Logger) { h.l = l }

func dedupKey(instrument string, direction models.Direction) string {
    return "newsedge:dedup:" + instrument + ":" + string(direction)
}

func (h *HistoryStore) Reserve(ctx context.Context, instrument string, direction models.Direction, now time.Time) (bool, error) {
    q := fmt.Sprintf("SELECT count() FROM %s WHERE instrument = ? AND direction = ? AND expires_at > ?", h.table)
    var n uint64
    if err := h.db.QueryRowContext(ctx, q, instrument, string(direction), now).Scan(&n); err != nil {
        if h.l != nil {
            h.l.Error("history durable check failed",
                applogger.String("instrument", instrument),
                applogger.String("direction", string(direction)),
                applogger.Error(err),
            )
        }
        return false, fmt.Errorf("history check %s/%s: %w", instrument, direction, err)
    }
    if n > 0 {
        return false, nil
    }

    ok, err := h.rdb.SetNX(ctx, dedupKey(instrument, direction), now.UTC().Format(time.RFC3339), h.expiry).Result()
    if err != nil {
        if h.l != nil {
            h.l.Error("history reservation failed",
                applogger.String("instrument", instrument),
                applogger.String("direction", string(direction)),
                applogger.Error(err),
            )
        }
        return false, fmt.Errorf("history reserve %s/%s: %w", instrument, direction, err)
    }
    return ok, nil
}

func (h *HistoryStore) Commit(ctx context.Context, rec *models.SignalHistoryRecord) error {
    q := fmt.Sprintf("INSERT INTO %s (instrument, direction, emitted_at, expires_at) VALUES (?, ?, ?, ?)", h.table)
    _, err := h.db.ExecContext(ctx, q, rec.Instrument, string(rec.Direction), rec.EmittedAt, rec.ExpiresAt)
    if err != nil {
        // The NX key still suppresses the pair for the window, so a lost
        // commit cannot cause a repeat before the key expires.
        return fmt.Errorf("history commit %s/%s: %w", rec.Instrument, rec.Direction, err)
    }
    return nil
}

func (h *HistoryStore) Release(ctx context.Context, instrument string, direction models.Direction) error {
    if err := h.rdb.Del(ctx, dedupKey(instrument, direction)).Err(); err != nil {
        return fmt.Errorf("history release %s/%s: %w", instrument, direction, err)
    }
    return nil
}

// Close releases the Redis connection.
func (h *HistoryStore) Close() error {
    return h.rdb.Close()
}

var _ domrepo.SignalHistory = (*HistoryStore)(nil)
