package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NewsEdge/internal/usecase"
	applogger "NewsEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubQueue struct {
	calls   int
	msgType string
	payload interface{}
	err     error
}

func (s *stubQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	s.calls++
	s.msgType = msgType
	s.payload = payload
	return s.err
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func generateCtx(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/signals/generate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGenerateEnqueuesAsyncRun(t *testing.T) {
	q := &stubQueue{}
	h := NewSignalsEchoHandler(testLogger(t), nil, nil)
	h.SetQueue(q)

	c, rec := generateCtx(`{"async": true, "lookback_hours": 6}`)
	if err := h.Generate(c); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}
	if q.calls != 1 {
		t.Fatalf("queue published %d messages, want 1", q.calls)
	}
	if q.msgType != usecase.GenerateJobType {
		t.Errorf("message type = %q, want %q", q.msgType, usecase.GenerateJobType)
	}
	payload, ok := q.payload.(usecase.GeneratePayload)
	if !ok {
		t.Fatalf("payload type = %T", q.payload)
	}
	if payload.LookbackHours != 6 {
		t.Errorf("lookback hours = %d, want 6", payload.LookbackHours)
	}
}

func TestGenerateRejectsInvalidBody(t *testing.T) {
	q := &stubQueue{}
	h := NewSignalsEchoHandler(testLogger(t), nil, nil)
	h.SetQueue(q)

	c, rec := generateCtx(`{"async": true, "lookback_hours": 100}`)
	if err := h.Generate(c); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
	if q.calls != 0 {
		t.Error("invalid request reached the queue")
	}
}

func TestGenerateEnqueueFailure(t *testing.T) {
	q := &stubQueue{err: errors.New("redis gone")}
	h := NewSignalsEchoHandler(testLogger(t), nil, nil)
	h.SetQueue(q)

	c, rec := generateCtx(`{"async": true, "lookback_hours": 2}`)
	if err := h.Generate(c); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", rec.Code, rec.Body)
	}
}

func TestGenerateRateLimited(t *testing.T) {
	q := &stubQueue{}
	h := NewSignalsEchoHandler(testLogger(t), nil, nil)
	h.SetQueue(q)

	var last int
	for i := 0; i < 3; i++ {
		c, rec := generateCtx(`{"async": true, "lookback_hours": 1}`)
		if err := h.Generate(c); err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}
	if q.calls != 2 {
		t.Errorf("queue published %d messages, want 2", q.calls)
	}
}
