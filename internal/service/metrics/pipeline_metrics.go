package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    PipelineRunDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "newsedge",
            Subsystem: "pipeline",
            Name:      "run_duration_seconds",
            Help:      "Duration of signal generation runs",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"trigger"},
    )

    PipelineItemsProcessed = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "newsedge",
            Subsystem: "pipeline",
            Name:      "items_processed_total",
            Help:      "News items consumed by runs, by outcome",
        },
        []string{"outcome"},
    )

    PipelineSignalsEmitted = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "newsedge",
            Subsystem: "pipeline",
            Name:      "signals_emitted_total",
            Help:      "Signals emitted per run trigger",
        },
        []string{"trigger"},
    )

    PipelineSuppressed = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "newsedge",
            Subsystem: "pipeline",
            Name:      "suppressed_total",
            Help:      "Candidates dropped before emission, by reason",
        },
        []string{"reason"},
    )

    APILatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "newsedge",
            Subsystem: "api",
            Name:      "request_duration_seconds",
            Help:      "Duration of API requests",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    APIErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "newsedge",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "API request failures per endpoint",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(PipelineRunDuration, PipelineItemsProcessed, PipelineSignalsEmitted, PipelineSuppressed, APILatency, APIErrors)
    })
}
