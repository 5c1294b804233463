package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"NewsEdge/internal/domain/models"
)

func TestMemoryHistoryConcurrentReserve(t *testing.T) {
	h := NewMemoryHistory()
	now := time.Now()

	const runners = 32
	var wg sync.WaitGroup
	wins := make(chan bool, runners)
	for i := 0; i < runners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := h.Reserve(context.Background(), "AAPL", models.DirectionBullish, now)
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Errorf("%d reservations won, want exactly 1", won)
	}
}

func TestMemoryHistoryCommitSuppressesUntilExpiry(t *testing.T) {
	h := NewMemoryHistory()
	now := time.Now()

	ok, err := h.Reserve(context.Background(), "TSLA", models.DirectionBearish, now)
	if err != nil || !ok {
		t.Fatalf("first Reserve = (%v, %v), want (true, nil)", ok, err)
	}
	err = h.Commit(context.Background(), &models.SignalHistoryRecord{
		Instrument: "TSLA",
		Direction:  models.DirectionBearish,
		EmittedAt:  now,
		ExpiresAt:  now.Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ok, err = h.Reserve(context.Background(), "TSLA", models.DirectionBearish, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if ok {
		t.Error("Reserve won inside the no-repeat window")
	}

	ok, err = h.Reserve(context.Background(), "TSLA", models.DirectionBearish, now.Add(7*24*time.Hour+time.Minute))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !ok {
		t.Error("Reserve lost after the window expired")
	}
}

func TestMemoryHistoryReleaseFreesPair(t *testing.T) {
	h := NewMemoryHistory()
	now := time.Now()

	ok, _ := h.Reserve(context.Background(), "NVDA", models.DirectionBullish, now)
	if !ok {
		t.Fatal("first Reserve lost")
	}
	if ok, _ := h.Reserve(context.Background(), "NVDA", models.DirectionBullish, now); ok {
		t.Fatal("second Reserve won while reservation held")
	}

	if err := h.Release(context.Background(), "NVDA", models.DirectionBullish); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := h.Reserve(context.Background(), "NVDA", models.DirectionBullish, now); !ok {
		t.Error("Reserve lost after Release")
	}
}

func TestMemoryHistoryDirectionsIndependent(t *testing.T) {
	h := NewMemoryHistory()
	now := time.Now()

	ok, _ := h.Reserve(context.Background(), "MSFT", models.DirectionBullish, now)
	if !ok {
		t.Fatal("bullish Reserve lost")
	}
	ok, _ = h.Reserve(context.Background(), "MSFT", models.DirectionBearish, now)
	if !ok {
		t.Error("bearish Reserve blocked by bullish reservation on the same instrument")
	}
}
