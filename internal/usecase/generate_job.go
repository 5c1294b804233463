package usecase

import (
	"context"
	"fmt"
	"time"

	"NewsEdge/pkg/logger"
	"NewsEdge/pkg/queue"
)

// GenerateJobType is the queue message type that triggers a generation run.
const GenerateJobType = "signals.generate"

// GeneratePayload is the queue payload for an on-demand run. A zero
// LookbackHours means the configured default window.
type GeneratePayload struct {
	LookbackHours int `json:"lookback_hours"`
}

// GenerateJob runs a generation pass when a queue message arrives.
type GenerateJob struct {
	collector *NewsCollector
	l         *logger.Logger
}

func NewGenerateJob(collector *NewsCollector, l *logger.Logger) *GenerateJob {
	return &GenerateJob{collector: collector, l: l}
}

func (j *GenerateJob) Name() string { return "generate-signals" }

func (j *GenerateJob) Type() string { return GenerateJobType }

func (j *GenerateJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[GeneratePayload](payload)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	out, err := j.collector.RunOnce(ctx, time.Duration(p.LookbackHours)*time.Hour, "queue")
	if err != nil {
		return err
	}
	if j.l != nil {
		j.l.Info("queued generation run finished",
			logger.String("run_id", out.RunID),
			logger.Int("items", out.ItemsIn),
			logger.Int("emitted", len(out.Signals)))
	}
	return nil
}

var _ queue.Job = (*GenerateJob)(nil)
