package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type stubHandler struct {
	calls int
	err   error
	panic bool
}

func (h *stubHandler) Topic() string { return "stub" }

func (h *stubHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.panic {
		panic("boom")
	}
	return h.err
}

func testConsumer(retryMax int) *Consumer {
	return &Consumer{
		opts: consumerOptions{
			retryMax:   retryMax,
			backoffMin: time.Millisecond,
			backoffMax: 2 * time.Millisecond,
		},
		hook: NoopHook{},
		stop: make(chan struct{}),
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestHandleWithRetryExhaustsBudget(t *testing.T) {
	c := testConsumer(2)
	h := &stubHandler{err: errors.New("nope")}

	err := c.handleWithRetry(h, "stub", kafka.Message{Value: []byte("x")})
	if err == nil {
		t.Fatal("expected final error")
	}
	if h.calls != 3 {
		t.Errorf("got %d attempts, want 3", h.calls)
	}
}

func TestHandleWithRetryStopsOnSuccess(t *testing.T) {
	c := testConsumer(5)
	h := &stubHandler{}

	if err := c.handleWithRetry(h, "stub", kafka.Message{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.calls != 1 {
		t.Errorf("got %d attempts, want 1", h.calls)
	}
}

func TestHandleOnceRecoversPanic(t *testing.T) {
	c := testConsumer(0)
	h := &stubHandler{panic: true}

	err := c.handleOnce(h, "stub", kafka.Message{})
	if err == nil {
		t.Fatal("panic should surface as an error")
	}
}

func TestHookCanRejectBeforeHandle(t *testing.T) {
	c := testConsumer(0)
	c.WithConsumerHook(rejectHook{})
	h := &stubHandler{}

	if err := c.handleOnce(h, "stub", kafka.Message{}); err == nil {
		t.Fatal("expected hook error")
	}
	if h.calls != 0 {
		t.Errorf("handler ran %d times despite hook rejection", h.calls)
	}
}

type rejectHook struct{ NoopHook }

func (rejectHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, errors.New("rejected")
}

func TestJitterBackoffBounds(t *testing.T) {
	min := 50 * time.Millisecond
	max := 2 * time.Second
	for attempt := 1; attempt <= 10; attempt++ {
		d := jitterBackoff(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v out of (0, %v]", attempt, d, max)
		}
	}
	// Degenerate inputs still produce a usable delay.
	if d := jitterBackoff(0, 0, 1); d <= 0 {
		t.Errorf("zero config: got %v", d)
	}
}
