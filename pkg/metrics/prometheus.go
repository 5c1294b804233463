// Package metrics implements the pipeline's metrics sink on
// Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts pipeline outcomes: deliveries per sink, errors by
// kind, last emitted score per instrument, and operation latency.
type Recorder struct {
	sent    *prometheus.CounterVec
	errs    *prometheus.CounterVec
	score   *prometheus.GaugeVec
	latency *prometheus.HistogramVec
}

var (
	recorderInit sync.Once
	recorder     *Recorder
)

// New returns the process-wide Recorder. The vectors register with the
// default registry once; later calls reuse them, so New is safe to
// call from tests and re-initialization paths.
func New() *Recorder {
	recorderInit.Do(func() {
		recorder = &Recorder{
			sent: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "newsedge",
				Name:      "messages_sent_total",
				Help:      "Messages delivered, by sink and symbol.",
			}, []string{"sink", "symbol"}),
			errs: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "newsedge",
				Name:      "errors_total",
				Help:      "Errors encountered, by kind.",
			}, []string{"type"}),
			score: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "newsedge",
				Name:      "last_combined_score",
				Help:      "Most recent combined score emitted per symbol.",
			}, []string{"symbol"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "newsedge",
				Name:      "operation_duration_seconds",
				Help:      "Operation latency. Generation runs span seconds to minutes.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			}, []string{"operation"}),
		}
	})
	return recorder
}

func (r *Recorder) RecordMessageSent(sink, symbol string) {
	r.sent.WithLabelValues(sink, symbol).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errs.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastScore(symbol string, score float64) {
	r.score.WithLabelValues(symbol).Set(score)
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
