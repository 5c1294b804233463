package repository

import (
    "context"
    "sync"
    "time"

    "NewsEdge/internal/domain/models"
    domrepo "NewsEdge/internal/domain/repository"
)

// MemoryHistory is an in-process SignalHistory for tests and single-node
// deployments without Redis. Reservations never expire on their own; the
// process owns the whole run lifecycle, so Commit or Release always follows.
type MemoryHistory struct {
    mu        sync.Mutex
    committed map[string]time.Time // key -> expires_at
    reserved  map[string]struct{}
}

func NewMemoryHistory() *MemoryHistory {
    return &MemoryHistory{
        committed: make(map[string]time.Time),
        reserved:  make(map[string]struct{}),
    }
}

func historyKey(instrument string, direction models.Direction) string {
    return instrument + ":" + string(direction)
}

func (m *MemoryHistory) Reserve(ctx context.Context, instrument string, direction models.Direction, now time.Time) (bool, error) {
    key := historyKey(instrument, direction)
    m.mu.Lock()
    defer m.mu.Unlock()
    if exp, ok := m.committed[key]; ok && exp.After(now) {
        return false, nil
    }
    if _, ok := m.reserved[key]; ok {
        return false, nil
    }
    m.reserved[key] = struct{}{}
    return true, nil
}

func (m *MemoryHistory) Commit(ctx context.Context, rec *models.SignalHistoryRecord) error {
    key := historyKey(rec.Instrument, rec.Direction)
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.reserved, key)
    m.committed[key] = rec.ExpiresAt
    return nil
}

func (m *MemoryHistory) Release(ctx context.Context, instrument string, direction models.Direction) error {
    key := historyKey(instrument, direction)
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.reserved, key)
    return nil
}

var _ domrepo.SignalHistory = (*MemoryHistory)(nil)
