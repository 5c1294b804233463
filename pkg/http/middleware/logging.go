package middleware

import (
	"log"
	"time"

	applogger "NewsEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging emits one debug line per request. Error and slow-request
// reporting lives in the metrics middleware; this layer is for tracing.
// Without a logger it falls back to the standard library.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req, res := c.Request(), c.Response()
			if l != nil {
				l.Debug("http request",
					applogger.String("method", req.Method),
					applogger.String("uri", req.RequestURI),
					applogger.String("remote", req.RemoteAddr),
					applogger.Int("status", res.Status),
					applogger.Duration("took", time.Since(start)),
				)
			} else {
				log.Printf("[%s] %s %s - %d (%s)",
					req.Method, req.RequestURI, req.RemoteAddr, res.Status, time.Since(start))
			}
			return err
		}
	}
}
