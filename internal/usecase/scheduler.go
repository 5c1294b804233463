package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"NewsEdge/pkg/cache"
	"NewsEdge/pkg/logger"
	"NewsEdge/pkg/queue"
)

// scheduleClaimKey is the shared lock that elects which replica acts
// on a cron tick.
const scheduleClaimKey = "sched:generate"

// Scheduler fires generation runs on a cron expression. With a queue
// attached, runs are enqueued so one worker executes them; without one,
// the run executes in-process.
type Scheduler struct {
	collector *NewsCollector
	q         queue.QueueService
	lock      cache.Service
	spec      string
	cron      *cron.Cron
	l         *logger.Logger
}

func NewScheduler(collector *NewsCollector, q queue.QueueService, spec string, l *logger.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		q:         q,
		spec:      spec,
		cron:      cron.New(),
		l:         l,
	}
}

// SetLock installs a shared lock so that when several replicas run the
// same cron spec, only one of them acts on each tick.
func (s *Scheduler) SetLock(c cache.Service) { s.lock = c }

// Start registers the cron entry and launches the ticker. A missing spec
// disables scheduled runs.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		if s.l != nil {
			s.l.Info("scheduler disabled, no cron spec configured")
		}
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("cron spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	if s.l != nil {
		s.l.Info("scheduler started", logger.String("spec", s.spec))
	}
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if !s.claimTick(ctx) {
		return
	}

	if s.q != nil {
		if err := s.q.PublishMessage(ctx, GenerateJobType, GeneratePayload{}); err != nil && s.l != nil {
			s.l.Error("enqueue scheduled run failed", logger.Error(err))
		}
		return
	}

	out, err := s.collector.RunOnce(ctx, 0, "schedule")
	if err != nil {
		if s.l != nil {
			s.l.Error("scheduled run failed", logger.Error(err))
		}
		return
	}
	if s.l != nil {
		s.l.Info("scheduled run finished",
			logger.String("run_id", out.RunID),
			logger.Int("items", out.ItemsIn),
			logger.Int("emitted", len(out.Signals)))
	}
}

// claimTick decides whether this replica acts on the current tick. The
// claim expires on its own rather than being released, so a replica
// that crashed mid-run cannot hand the same tick to a peer. A lock
// backend failure falls open: a duplicate run costs compute, while a
// skipped run costs signals.
func (s *Scheduler) claimTick(ctx context.Context) bool {
	if s.lock == nil {
		return true
	}
	ok, err := s.lock.TryLock(ctx, scheduleClaimKey, time.Minute)
	if err != nil {
		if s.l != nil {
			s.l.Warn("schedule claim check failed, running anyway", logger.Error(err))
		}
		return true
	}
	if !ok && s.l != nil {
		s.l.Debug("tick already claimed by another replica")
	}
	return ok
}

// Stop halts future runs; in-flight runs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
