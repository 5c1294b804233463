package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"NewsEdge/pkg/http/middleware"
	applogger "NewsEdge/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler registers routes on the server's Echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Server is the HTTP front of the application. Route handlers are injected
// through Handler; the server owns the cross-cutting middleware chain and
// the Prometheus scrape endpoint.
type Server struct {
	e        *echo.Echo
	addr     string
	shutdown time.Duration
	l        *applogger.Logger
}

type serverOptions struct {
	host         string
	port         int
	readTimeout  time.Duration
	writeTimeout time.Duration
	shutdown     time.Duration
	slowRequest  time.Duration
	cors         bool
	l            *applogger.Logger
}

type ServerOption func(*serverOptions)

// WithPort sets the listen port.
func WithPort(port int) ServerOption {
	return func(o *serverOptions) {
		if port > 0 {
			o.port = port
		}
	}
}

// WithTimeouts sets the read, write, and graceful shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(o *serverOptions) {
		if read > 0 {
			o.readTimeout = read
		}
		if write > 0 {
			o.writeTimeout = write
		}
		if shutdown > 0 {
			o.shutdown = shutdown
		}
	}
}

// WithLogger routes middleware logging through the application logger
// instead of the standard library fallback.
func WithLogger(l *applogger.Logger) ServerOption {
	return func(o *serverOptions) { o.l = l }
}

// WithCORS toggles the permissive CORS layer.
func WithCORS(enabled bool) ServerOption {
	return func(o *serverOptions) { o.cors = enabled }
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	o := serverOptions{
		host:         "0.0.0.0",
		port:         8080,
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
		shutdown:     10 * time.Second,
		slowRequest:  2 * time.Second,
		cors:         true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = o.readTimeout
	e.Server.WriteTimeout = o.writeTimeout

	e.Use(middleware.Recover(o.l))
	e.Use(middleware.RequestLogging(o.l))
	e.Use(echo.WrapMiddleware(middleware.Metrics(o.l, o.slowRequest)))
	if o.cors {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodOptions,
			},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
				echo.HeaderAuthorization,
			},
		}))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{
		e:        e,
		addr:     fmt.Sprintf("%s:%d", o.host, o.port),
		shutdown: o.shutdown,
		l:        o.l,
	}
}

// Start begins serving in the background. Listen failures after startup
// surface through the logger; callers stop the server with Stop.
func (s *Server) Start() error {
	go func() {
		if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.l != nil {
				s.l.Error("http server", applogger.Error(err))
			}
		}
	}()
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.e.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Echo exposes the underlying instance for tests.
func (s *Server) Echo() *echo.Echo { return s.e }
