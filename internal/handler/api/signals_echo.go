package api

import (
	"net/http"
	"time"

	models "NewsEdge/internal/domain/models"
	"NewsEdge/internal/service/metrics"
	"NewsEdge/internal/service/ratelimit"
	"NewsEdge/internal/usecase"
	xhttp "NewsEdge/pkg/http"
	xlogger "NewsEdge/pkg/logger"
	"NewsEdge/pkg/queue"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
// Reads go through the wrapped SignalsHandler so they share its response cache
// and rate limiting; the generate endpoint binds and validates its body here.
type SignalsEchoHandler struct {
	logger    *xlogger.Logger
	ops       *SignalsHandler
	collector *usecase.NewsCollector
	q         queue.QueueService
	rl        *ratelimit.Limiter
}

func NewSignalsEchoHandler(logger *xlogger.Logger, ops *SignalsHandler, collector *usecase.NewsCollector) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, ops: ops, collector: collector, rl: ratelimit.New()}
}

// SetQueue enables async generation runs.
func (h *SignalsEchoHandler) SetQueue(q queue.QueueService) { h.q = q }

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", echo.WrapHandler(h.ops.List()))
	g.POST("/signals/generate", h.Generate)
	e.GET("/healthz", echo.WrapHandler(h.ops.Health()))
}

// Generate triggers a generation run over the feed. With async=true and a
// queue attached the run is enqueued instead of executed in-request.
func (h *SignalsEchoHandler) Generate(c echo.Context) error {
	start := time.Now()
	endpoint := "generate"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.GenerateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":generate", 2, 0.2) {
		h.logger.Warn("generate rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("generate rate exceeded, try later"))
	}

	if req.Async && h.q != nil {
		payload := usecase.GeneratePayload{LookbackHours: req.LookbackHours}
		if err := h.q.PublishMessage(c.Request().Context(), usecase.GenerateJobType, payload); err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			h.logger.Error("generate enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("could not enqueue run").WithError(err))
		}
		return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}

	out, err := h.collector.RunOnce(c.Request().Context(), time.Duration(req.LookbackHours)*time.Hour, "api")
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("generate run error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("signal generation failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, out)
}
