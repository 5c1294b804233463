package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"NewsEdge/internal/domain/models"
)

type stubProc struct {
	mu    sync.Mutex
	items []*models.NewsItem
	err   error
}

func (s *stubProc) Process(_ context.Context, item *models.NewsItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, item)
	return nil
}

func (s *stubProc) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubProc) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type stubMetrics struct {
	mu    sync.Mutex
	kinds map[string]int
}

func newStubMetrics() *stubMetrics { return &stubMetrics{kinds: make(map[string]int)} }

func (s *stubMetrics) RecordMessageSent(sink, symbol string)       {}
func (s *stubMetrics) RecordLastScore(symbol string, score float64) {}
func (s *stubMetrics) RecordLatency(op string, seconds float64)     {}

func (s *stubMetrics) RecordError(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds[kind]++
}

func (s *stubMetrics) errors(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kinds[kind]
}

func validItem(id string) *models.NewsItem {
	return &models.NewsItem{
		ID:          id,
		Headline:    "Acme beats estimates",
		Source:      "wire",
		PublishedAt: time.Now(),
	}
}

func TestPipelineForwardsValidItem(t *testing.T) {
	proc := &stubProc{}
	p := NewNewswirePipeline(proc, newStubMetrics())

	if err := p.Process(context.Background(), validItem("a")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream saw %d items, want 1", proc.count())
	}
}

func TestPipelineRejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name string
		item *models.NewsItem
	}{
		{"nil", nil},
		{"no id", &models.NewsItem{Headline: "h", PublishedAt: time.Now()}},
		{"no headline", &models.NewsItem{ID: "a", PublishedAt: time.Now()}},
		{"no publish time", &models.NewsItem{ID: "a", Headline: "h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &stubProc{}
			m := newStubMetrics()
			p := NewNewswirePipeline(proc, m)
			if err := p.Process(context.Background(), tt.item); err == nil {
				t.Fatal("expected validation error")
			}
			if proc.count() != 0 {
				t.Error("invalid item reached downstream")
			}
			if m.errors("pipeline_validate") != 1 {
				t.Error("validation failure not recorded")
			}
		})
	}
}

func TestPipelineTransformCanDropItems(t *testing.T) {
	proc := &stubProc{}
	m := newStubMetrics()
	p := NewNewswirePipeline(proc, m, WithTransform(func(item *models.NewsItem) *models.NewsItem {
		if item.Source == "spam" {
			return nil
		}
		return item
	}))

	spam := validItem("s")
	spam.Source = "spam"
	if err := p.Process(context.Background(), spam); err != nil {
		t.Fatalf("dropped item should not error: %v", err)
	}
	if err := p.Process(context.Background(), validItem("ok")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream saw %d items, want 1", proc.count())
	}
	if m.errors("pipeline_transform_drop") != 1 {
		t.Error("transform drop not recorded")
	}
}

func TestPipelineThrottlesPerSource(t *testing.T) {
	proc := &stubProc{}
	m := newStubMetrics()
	p := NewNewswirePipeline(proc, m, WithMaxRPS(2))

	for i := 0; i < 5; i++ {
		item := validItem("burst")
		if err := p.Process(context.Background(), item); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	if proc.count() != 2 {
		t.Fatalf("downstream saw %d items from one source, want 2", proc.count())
	}
	if m.errors("pipeline_throttle") != 3 {
		t.Errorf("recorded %d throttles, want 3", m.errors("pipeline_throttle"))
	}

	other := validItem("x")
	other.Source = "quiet-feed"
	if err := p.Process(context.Background(), other); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 3 {
		t.Error("an unrelated source was throttled")
	}
}

func TestPipelineParksOnDownstreamError(t *testing.T) {
	proc := &stubProc{}
	proc.setErr(errors.New("downstream down"))
	m := newStubMetrics()
	p := NewNewswirePipeline(proc, m, WithBufferSize(1))

	if err := p.Process(context.Background(), validItem("p1")); err == nil {
		t.Fatal("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("parked %d items, want 1", len(p.bufCh))
	}

	// Buffer is full now, so the next failure sheds the item.
	if err := p.Process(context.Background(), validItem("p2")); err == nil {
		t.Fatal("expected downstream error")
	}
	if m.errors("pipeline_buffer_full") != 1 {
		t.Error("buffer overflow not recorded")
	}
}

func TestPipelineFlushReplaysParkedItems(t *testing.T) {
	proc := &stubProc{}
	proc.setErr(errors.New("downstream down"))
	m := newStubMetrics()
	p := NewNewswirePipeline(proc, m)

	if err := p.Process(context.Background(), validItem("replay")); err == nil {
		t.Fatal("expected downstream error")
	}

	proc.setErr(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("parked item was never replayed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineStartStopIdempotent(t *testing.T) {
	p := NewNewswirePipeline(&stubProc{}, newStubMetrics())
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	p.Stop()
	p.Stop()
}
