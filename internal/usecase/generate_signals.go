package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsEdge/internal/domain/models"
	domrepo "NewsEdge/internal/domain/repository"
	domsvc "NewsEdge/internal/domain/service"
	svcmetrics "NewsEdge/internal/service/metrics"
	"NewsEdge/pkg/config"
	"NewsEdge/pkg/logger"
)

// SignalGenerator drives one batch of news through the full pipeline:
// symbol resolution, sentiment and technical scoring, score combination,
// deduplication against the history window, and ranking.
//
// Items are evaluated concurrently by a bounded worker pool. Candidates are
// then ordered by strength before any reservation is made, so the strongest
// candidate for a pair wins the dedup slot no matter how workers were
// scheduled, and repeated runs over the same input produce the same output.
type SignalGenerator struct {
	resolver  domsvc.SymbolResolver
	sentiment domsvc.SentimentScorer
	technical domsvc.TechnicalProvider
	regime    domsvc.RegimeClassifier
	combiner  *Combiner
	history   domrepo.SignalHistory
	metrics   domrepo.Metrics
	workers   int
	maxPerRun int
	expiry    time.Duration
	l         *logger.Logger
}

// NewSignalGenerator creates a SignalGenerator wired to the given stages.
func NewSignalGenerator(
	resolver domsvc.SymbolResolver,
	sentiment domsvc.SentimentScorer,
	technical domsvc.TechnicalProvider,
	regime domsvc.RegimeClassifier,
	combiner *Combiner,
	history domrepo.SignalHistory,
	metrics domrepo.Metrics,
	cfg *config.Config,
) *SignalGenerator {
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}
	svcmetrics.Register()
	return &SignalGenerator{
		resolver:  resolver,
		sentiment: sentiment,
		technical: technical,
		regime:    regime,
		combiner:  combiner,
		history:   history,
		metrics:   metrics,
		workers:   workers,
		maxPerRun: cfg.Pipeline.MaxSignalsPerRun,
		expiry:    cfg.SignalExpiry(),
	}
}

// SetLogger sets the logger.
func (g *SignalGenerator) SetLogger(l *logger.Logger) {
	g.l = l
}

// RunResult summarizes one generation run.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Regime     models.MarketRegime
	ItemsIn    int
	Candidates int
	Suppressed int
	Capped     int
	Signals    []*models.Signal
}

// Generate evaluates a batch of news items and returns the signals that
// survived every gate. trigger labels the run for metrics ("schedule",
// "api", "stream", "queue").
//
// The returned error is non-nil only when the context was cancelled before
// the run could finish; per-item and per-candidate failures are counted,
// logged, and skipped so one bad article never sinks the batch.
func (g *SignalGenerator) Generate(ctx context.Context, items []*models.NewsItem, trigger string) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: start,
		ItemsIn:   len(items),
		Regime:    models.RegimeNormal,
	}

	if len(items) == 0 {
		if g.l != nil {
			g.l.Info("no news items to evaluate", logger.String("run_id", res.RunID))
		}
		res.Duration = time.Since(start)
		return res, nil
	}

	if g.regime != nil {
		if regime, err := g.regime.Current(ctx); err == nil {
			res.Regime = regime
		}
	}

	candidates := g.evaluate(ctx, items, start)
	res.Candidates = len(candidates)

	// Strength order before any reservation: the strongest candidate for a
	// pair takes the dedup slot, and ties resolve the same way every run.
	ordered, _ := RankSignals(candidates, 0)

	reserved := make([]*models.Signal, 0, len(ordered))
	for _, c := range ordered {
		if ctx.Err() != nil {
			res.Duration = time.Since(start)
			return res, ctx.Err()
		}
		ok, err := g.history.Reserve(ctx, c.Instrument, c.Direction, start)
		if err != nil {
			// Dedup state unknown: suppressing is recoverable, a repeated
			// signal is not.
			res.Suppressed++
			g.metrics.RecordError("dedup_reserve")
			svcmetrics.PipelineSuppressed.WithLabelValues("persistence").Inc()
			if g.l != nil {
				g.l.Warn("dedup check failed, dropping candidate",
					logger.String("instrument", c.Instrument),
					logger.String("direction", string(c.Direction)),
					logger.Error(err))
			}
			continue
		}
		if !ok {
			res.Suppressed++
			svcmetrics.PipelineSuppressed.WithLabelValues("dedup").Inc()
			continue
		}
		reserved = append(reserved, c)
	}

	kept, dropped := RankSignals(reserved, g.maxPerRun)
	res.Capped = len(dropped)

	for _, d := range dropped {
		svcmetrics.PipelineSuppressed.WithLabelValues("run_cap").Inc()
		if err := g.history.Release(ctx, d.Instrument, d.Direction); err != nil && g.l != nil {
			g.l.Warn("release failed, pair suppressed until the reservation expires",
				logger.String("instrument", d.Instrument),
				logger.String("direction", string(d.Direction)),
				logger.Error(err))
		}
	}

	for _, s := range kept {
		rec := &models.SignalHistoryRecord{
			Instrument: s.Instrument,
			Direction:  s.Direction,
			EmittedAt:  start,
			ExpiresAt:  start.Add(g.expiry),
		}
		if err := g.history.Commit(ctx, rec); err != nil {
			g.metrics.RecordError("dedup_commit")
			if g.l != nil {
				g.l.Error("history commit failed",
					logger.String("instrument", s.Instrument),
					logger.String("direction", string(s.Direction)),
					logger.Error(err))
			}
		}
		g.metrics.RecordLastScore(s.Instrument, s.CombinedScore)
	}

	res.Signals = kept
	res.Duration = time.Since(start)

	g.metrics.RecordLatency("generate_run", res.Duration.Seconds())
	svcmetrics.PipelineRunDuration.WithLabelValues(trigger).Observe(res.Duration.Seconds())
	svcmetrics.PipelineSignalsEmitted.WithLabelValues(trigger).Add(float64(len(kept)))

	if g.l != nil {
		g.l.Info("signal run complete",
			logger.String("run_id", res.RunID),
			logger.String("trigger", trigger),
			logger.String("regime", string(res.Regime)),
			logger.Int("items", res.ItemsIn),
			logger.Int("candidates", res.Candidates),
			logger.Int("suppressed", res.Suppressed),
			logger.Int("capped", res.Capped),
			logger.Int("emitted", len(kept)),
			logger.Duration("took", res.Duration))
	}
	return res, nil
}

// evaluate fans items out to the worker pool and collects candidates.
func (g *SignalGenerator) evaluate(ctx context.Context, items []*models.NewsItem, now time.Time) []*models.Signal {
	jobs := make(chan *models.NewsItem)

	var (
		mu  sync.Mutex
		out []*models.Signal
		wg  sync.WaitGroup
	)

	for i := 0; i < g.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				cands := g.evaluateItem(ctx, item, now)
				if len(cands) == 0 {
					continue
				}
				mu.Lock()
				out = append(out, cands...)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- item:
		}
	}
	close(jobs)
	wg.Wait()

	return out
}

// evaluateItem runs one news item through resolution, scoring, and
// combination. Sentiment is scored once per item; the result is shared
// across every instrument the item mentions.
func (g *SignalGenerator) evaluateItem(ctx context.Context, item *models.NewsItem, now time.Time) []*models.Signal {
	if item == nil {
		return nil
	}

	symbols := g.resolver.Resolve(item)
	if len(symbols) == 0 {
		svcmetrics.PipelineItemsProcessed.WithLabelValues("no_symbol").Inc()
		return nil
	}

	sent, err := g.sentiment.Score(ctx, item.Text())
	if err != nil {
		g.metrics.RecordError("sentiment")
		svcmetrics.PipelineItemsProcessed.WithLabelValues("failed").Inc()
		if g.l != nil {
			g.l.Warn("sentiment scoring failed, skipping item",
				logger.String("news_id", item.ID),
				logger.Error(err))
		}
		return nil
	}

	out := make([]*models.Signal, 0, len(symbols))
	for _, sym := range symbols {
		tech, err := g.technical.Snapshot(ctx, sym.Instrument)
		if err != nil {
			g.metrics.RecordError("technical")
			svcmetrics.PipelineSuppressed.WithLabelValues("no_market_data").Inc()
			if g.l != nil {
				g.l.Warn("market data unavailable",
					logger.String("instrument", sym.Instrument),
					logger.String("news_id", item.ID),
					logger.Error(err))
			}
			continue
		}

		sig, reason := g.combiner.Combine(item, sym, sent, tech, now)
		if sig == nil {
			svcmetrics.PipelineSuppressed.WithLabelValues(string(reason)).Inc()
			continue
		}
		out = append(out, sig)
	}

	svcmetrics.PipelineItemsProcessed.WithLabelValues("ok").Inc()
	return out
}
