package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"NewsEdge/internal/domain/models"
	domrepo "NewsEdge/internal/domain/repository"
	icache "NewsEdge/internal/service/cache"
	"NewsEdge/internal/service/metrics"
	"NewsEdge/internal/service/ratelimit"
	"NewsEdge/internal/usecase"
	xhttp "NewsEdge/pkg/http"
	applogger "NewsEdge/pkg/logger"
)

// SignalsHandler serves the read side of the API: archived signals and
// liveness. Responses are cached server-side and rate limited per client,
// so it is mounted directly rather than behind the validation layer.
type SignalsHandler struct {
	archive   domrepo.SignalArchive
	collector *usecase.NewsCollector
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
	l         *applogger.Logger
}

func NewSignalsHandler(archive domrepo.SignalArchive, collector *usecase.NewsCollector) *SignalsHandler {
	metrics.Register()
	return &SignalsHandler{archive: archive, collector: collector, rl: ratelimit.New()}
}

func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *SignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

// List serves emitted signals from the archive, newest first.
func (h *SignalsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "signals"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := models.NormalizeInstrument(r.URL.Query().Get("symbol"))
		direction := models.Direction(r.URL.Query().Get("direction"))
		if direction != "" {
			if err := direction.Validate(); err != nil {
				if h.l != nil {
					h.l.Warn("signals.list bad direction", applogger.String("direction", string(direction)))
				}
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		limit := xhttp.ParseIntDefault(r.URL.Query().Get("limit"), 50)
		if limit < 1 || limit > 500 {
			limit = 50
		}
		hours := xhttp.ParseIntDefault(r.URL.Query().Get("hours"), 24)
		if hours < 1 || hours > 720 {
			hours = 24
		}
		if !h.rl.Allow(r.RemoteAddr+":signals", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.list rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "signals:" + symbol + ":" + string(direction) + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(hours)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("signals.list cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("signals.list cache_hit", applogger.String("key", cacheKey))
				}
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("signals.list write_error", applogger.Error(err))
				}
				return
			}
			if h.l != nil {
				h.l.Debug("signals.list cache_miss", applogger.String("key", cacheKey))
			}
		}
		res, err := h.archive.Query(r.Context(), domrepo.SignalQuery{
			Instrument: symbol,
			Direction:  direction,
			From:       time.Now().Add(-time.Duration(hours) * time.Hour),
			Limit:      limit,
		})
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.list error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("signals.list marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil && h.l != nil {
				h.l.Warn("signals.list cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("signals.list write_error", applogger.Error(err))
		}
	}
}

// Health reports backend and stream status.
func (h *SignalsHandler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":           "ok",
			"stream_connected": h.collector != nil && h.collector.IsConnected(),
		}
		if h.archive != nil {
			if err := h.archive.Health(r.Context()); err != nil {
				status["status"] = "degraded"
				status["archive_error"] = err.Error()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.Marshal(status)
		_, _ = w.Write(b)
	}
}
