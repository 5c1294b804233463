package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"NewsEdge/internal/handler/api"
	"NewsEdge/internal/repository"
	"NewsEdge/internal/usecase"
	pkgch "NewsEdge/pkg/clickhouse"
	"NewsEdge/pkg/config"
	xhttp "NewsEdge/pkg/http"
	pkgkafka "NewsEdge/pkg/kafka"
	applogger "NewsEdge/pkg/logger"
	"NewsEdge/pkg/queue"
)

// App owns the process lifecycle: it starts the intake paths (stream
// collector, Kafka consumer, scheduler, queue workers) and the HTTP server,
// then tears everything down in dependency order on SIGINT/SIGTERM.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	collector   *usecase.NewsCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	jobQueue    *queue.RedisQueue
	scheduler   *usecase.Scheduler
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	Publisher   *usecase.SignalPublisher
}

// New creates the App around its required dependencies. Optional pieces
// (queue, scheduler, handler, logger) are attached with setters.
func New(
	cfg *config.Config,
	collector *usecase.NewsCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetLogger injects the shared application logger.
func (a *App) SetLogger(l *applogger.Logger) { a.l = l }

// SetHTTPHandler injects the route handler mounted on the HTTP server.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetQueue attaches the job queue worker.
func (a *App) SetQueue(q *queue.RedisQueue) { a.jobQueue = q }

// SetScheduler attaches the cron scheduler.
func (a *App) SetScheduler(s *usecase.Scheduler) { a.scheduler = s }

func (a *App) logger() *applogger.Logger {
	if a.l == nil {
		a.l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}
	return a.l
}

// Run starts every configured component and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger()

	handler := a.httpHandler
	if handler == nil && a.chClient != nil {
		// Minimal read-only surface when DI did not supply a handler.
		store := repository.NewCHSignalStore(a.chClient, a.cfg.ClickHouse.Database+".signals")
		store.SetLogger(l)
		ops := api.NewSignalsHandler(store, a.collector)
		ops.SetLogger(l)
		handler = api.NewSignalsEchoHandler(l, ops, a.collector)
	}

	a.httpServer = xhttp.NewServer(handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("sources", a.cfg.NewsFeed.Sources))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			l.Error("scheduler start error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops intake first so nothing new enters the pipeline, drains
// the serving and worker paths, flushes the log collector while the
// producer is still alive, and closes clients last.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Aggregated error logs publish through the Kafka producer, so the
	// collector must flush before the publisher closes it.
	l.CloseCollector()

	if a.Publisher != nil {
		a.Publisher.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
