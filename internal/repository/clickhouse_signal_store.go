package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "NewsEdge/internal/domain/models"
    domrepo "NewsEdge/internal/domain/repository"
    pkgch "NewsEdge/pkg/clickhouse"
    applogger "NewsEdge/pkg/logger"
)

// CHSignalStore implements SignalArchive backed by ClickHouse.
type CHSignalStore struct {
    db    *sql.DB
    table string
    l     *applogger.Logger
}

// NewCHSignalStore creates the ClickHouse signal archive.
func NewCHSignalStore(ch *pkgch.Client, table string) *CHSignalStore {
    return &CHSignalStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

const signalColumns = "generated_at, instrument, direction, combined_score, sentiment_score, technical_score, confidence, price, entry, stop, target1, target2, news_id, headline, source, published_at"

func signalArgs(sig *models.Signal) []interface{} {
    return []interface{}{
        sig.GeneratedAt,
        sig.Instrument,
        string(sig.Direction),
        sig.CombinedScore,
        sig.SentimentScore,
        sig.TechnicalScore,
        sig.Confidence,
        sig.Price,
        sig.Entry,
        sig.Stop,
        sig.Target1,
        sig.Target2,
        sig.NewsID,
        sig.Headline,
        sig.Source,
        sig.PublishedAt,
    }
}

func (s *CHSignalStore) Store(ctx context.Context, sig *models.Signal) error {
    q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, signalColumns)
    if _, err := s.db.ExecContext(ctx, q, signalArgs(sig)...); err != nil {
        return fmt.Errorf("store signal: %w", err)
    }
    return nil
}

func (s *CHSignalStore) StoreBatch(ctx context.Context, signals []*models.Signal) error {
    if len(signals) == 0 {
        return nil
    }
    // Batch insert using VALUES multi-row to reduce round-trips.
    const chunkSize = 500
    for start := 0; start < len(signals); start += chunkSize {
        end := start + chunkSize
        if end > len(signals) { end = len(signals) }

        values := make([]string, 0, end-start)
        args := make([]interface{}, 0, (end-start)*16)
        for _, sig := range signals[start:end] {
            if sig == nil || sig.Instrument == "" { continue }
            values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
            args = append(args, signalArgs(sig)...)
        }
        if len(values) == 0 { continue }
        q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, signalColumns, strings.Join(values, ","))
        if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
            return fmt.Errorf("store signal batch: %w", err)
        }
    }
    return nil
}

func (s *CHSignalStore) Query(ctx context.Context, q domrepo.SignalQuery) ([]*models.Signal, error) {
    start := time.Now()

    conds := make([]string, 0, 4)
    args := make([]interface{}, 0, 5)
    if q.Instrument != "" {
        conds = append(conds, "instrument = ?")
        args = append(args, q.Instrument)
    }
    if q.Direction != "" {
        conds = append(conds, "direction = ?")
        args = append(args, string(q.Direction))
    }
    if !q.From.IsZero() {
        conds = append(conds, "generated_at >= ?")
        args = append(args, q.From)
    }
    if !q.To.IsZero() {
        conds = append(conds, "generated_at <= ?")
        args = append(args, q.To)
    }
    where := ""
    if len(conds) > 0 {
        where = " WHERE " + strings.Join(conds, " AND ")
    }
    limit := q.Limit
    if limit <= 0 {
        limit = 100
    }
    args = append(args, limit)

    query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY generated_at DESC LIMIT ?", signalColumns, s.table, where)
    rows, err := s.db.QueryContext(ctx, query, args...)
    if err != nil {
        if s.l != nil {
            s.l.Error("clickhouse signal query error",
                applogger.String("instrument", q.Instrument),
                applogger.Error(err),
            )
        }
        return nil, fmt.Errorf("query signals: %w", err)
    }
    defer rows.Close()

    out := make([]*models.Signal, 0, limit)
    for rows.Next() {
        var sig models.Signal
        var direction string
        if err := rows.Scan(
            &sig.GeneratedAt,
            &sig.Instrument,
            &direction,
            &sig.CombinedScore,
            &sig.SentimentScore,
            &sig.TechnicalScore,
            &sig.Confidence,
            &sig.Price,
            &sig.Entry,
            &sig.Stop,
            &sig.Target1,
            &sig.Target2,
            &sig.NewsID,
            &sig.Headline,
            &sig.Source,
            &sig.PublishedAt,
        ); err != nil {
            return nil, fmt.Errorf("scan signal: %w", err)
        }
        sig.Direction = models.Direction(direction)
        out = append(out, &sig)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("rows: %w", err)
    }
    if s.l != nil {
        s.l.Info("clickhouse signal query ok",
            applogger.String("instrument", q.Instrument),
            applogger.Int("rows", len(out)),
            applogger.Duration("duration_ms", time.Since(start)),
        )
    }
    return out, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
    return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
    return nil // Managed by pkg
}

// CHNewsStore implements NewsArchive backed by ClickHouse.
type CHNewsStore struct {
    db    *sql.DB
    table string
}

// NewCHNewsStore creates the ClickHouse news archive.
func NewCHNewsStore(ch *pkgch.Client, table string) *CHNewsStore {
    return &CHNewsStore{db: ch.DB(), table: table}
}

func (s *CHNewsStore) Store(ctx context.Context, n *models.NewsItem) error {
    q := fmt.Sprintf("INSERT INTO %s (id, headline, body, source, url, published_at) VALUES (?, ?, ?, ?, ?, ?)", s.table)
    if _, err := s.db.ExecContext(ctx, q, n.ID, n.Headline, n.Body, n.Source, n.URL, n.PublishedAt); err != nil {
        return fmt.Errorf("store news item: %w", err)
    }
    return nil
}

func (s *CHNewsStore) Recent(ctx context.Context, since time.Time, limit int) ([]*models.NewsItem, error) {
    if limit <= 0 {
        limit = 200
    }
    q := fmt.Sprintf("SELECT id, headline, body, source, url, published_at FROM %s WHERE published_at >= ? ORDER BY published_at DESC LIMIT ?", s.table)
    rows, err := s.db.QueryContext(ctx, q, since, limit)
    if err != nil {
        return nil, fmt.Errorf("recent news: %w", err)
    }
    defer rows.Close()

    out := make([]*models.NewsItem, 0, limit)
    for rows.Next() {
        var n models.NewsItem
        if err := rows.Scan(&n.ID, &n.Headline, &n.Body, &n.Source, &n.URL, &n.PublishedAt); err != nil {
            return nil, fmt.Errorf("scan news item: %w", err)
        }
        out = append(out, &n)
    }
    return out, rows.Err()
}

func (s *CHNewsStore) Close() error {
    return nil // Managed by pkg
}

var _ domrepo.SignalArchive = (*CHSignalStore)(nil)
var _ domrepo.NewsArchive = (*CHNewsStore)(nil)
