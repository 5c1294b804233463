package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"NewsEdge/internal/domain/repository"
	"NewsEdge/internal/domain/service"
	"NewsEdge/internal/handler/api"
	mid "NewsEdge/internal/middleware"
	internalrepo "NewsEdge/internal/repository"
	icache "NewsEdge/internal/service/cache"
	"NewsEdge/internal/service/marketdata"
	"NewsEdge/internal/service/newsfeed"
	"NewsEdge/internal/service/newswire"
	"NewsEdge/internal/services/analytics"
	"NewsEdge/internal/services/lexicon"
	"NewsEdge/internal/services/resolver"
	"NewsEdge/internal/services/sentiment"
	"NewsEdge/internal/usecase"
	pkgcache "NewsEdge/pkg/cache"
	pkgch "NewsEdge/pkg/clickhouse"
	"NewsEdge/pkg/config"
	pkgkafka "NewsEdge/pkg/kafka"
	"NewsEdge/pkg/logger"
	"NewsEdge/pkg/metrics"
	"NewsEdge/pkg/queue"
	"NewsEdge/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "console"
	level := "debug"
	if cfg.Environment == "production" {
		format = "json"
		level = "info"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.signals (generated_at DateTime, instrument String, direction String, combined_score Float64, sentiment_score Float64, technical_score Float64, confidence Float64, price Float64, entry Float64, stop Float64, target1 Float64, target2 Float64, news_id String, headline String, source String, published_at DateTime) ENGINE=MergeTree ORDER BY (instrument, generated_at)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.news_items (id String, headline String, body String, source String, url String, published_at DateTime) ENGINE=ReplacingMergeTree ORDER BY id", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.signal_history (instrument String, direction String, emitted_at DateTime, expires_at DateTime) ENGINE=MergeTree ORDER BY (instrument, direction, expires_at) TTL expires_at + INTERVAL 30 DAY", db),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates the shared Redis connection for the job queue.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
}

// ProvideSignalArchive creates the ClickHouse signal archive.
func ProvideSignalArchive(chClient *pkgch.Client, cfg *config.Config, l *logger.Logger) repository.SignalArchive {
	store := internalrepo.NewCHSignalStore(chClient, cfg.ClickHouse.Database+".signals")
	store.SetLogger(l)
	return store
}

// ProvideNewsArchive creates the ClickHouse news archive.
func ProvideNewsArchive(chClient *pkgch.Client, cfg *config.Config) repository.NewsArchive {
	return internalrepo.NewCHNewsStore(chClient, cfg.ClickHouse.Database+".news_items")
}

// ProvideSignalHistory creates the Redis-arbitrated signal history, or the
// in-process one when no Redis address is configured.
func ProvideSignalHistory(chClient *pkgch.Client, cfg *config.Config, l *logger.Logger) repository.SignalHistory {
	if cfg.Redis.Addr == "" {
		return internalrepo.NewMemoryHistory()
	}
	store := internalrepo.NewHistoryStore(chClient, internalrepo.HistoryConfig{
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Table:         cfg.ClickHouse.Database + ".signal_history",
		Expiry:        cfg.SignalExpiry(),
	})
	store.SetLogger(l)
	return store
}

// ProvideSignalKafkaPublisher creates the Kafka publisher repository.
func ProvideSignalKafkaPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.SignalsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMarketCache creates the layered cache for market data lookups.
func ProvideMarketCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Redis.Addr == "" {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitHostPort(cfg.Redis.Addr)
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

// ProvideResponseCache creates the byte cache behind API responses. Without
// a Redis address the cache is process-local, which is fine for a single
// replica.
func ProvideResponseCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Addr == "" {
		return icache.NewTTLCache()
	}
	return icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideNewswireStream creates the newswire WebSocket stream, or nil when
// no stream is configured.
func ProvideNewswireStream(cfg *config.Config) repository.NewsStream {
	if cfg.Newswire.URL == "" {
		return nil
	}
	return newswire.New(
		cfg.Newswire.Token,
		cfg.Newswire.URL,
		cfg.Newswire.ReconnectDelay,
		cfg.Newswire.PingInterval,
	)
}

// ProvideNewsFeed creates the REST headline feed.
func ProvideNewsFeed(cfg *config.Config, l *logger.Logger) service.NewsSource {
	return newsfeed.New(cfg, l)
}

// ProvideMarketData creates the market data client.
func ProvideMarketData(cfg *config.Config, cache pkgcache.Service, l *logger.Logger) *marketdata.Client {
	return marketdata.New(cfg, cache, l)
}

// ProvideTechnicalProvider exposes the market data client as the
// technical-context source.
func ProvideTechnicalProvider(c *marketdata.Client) service.TechnicalProvider {
	return c
}

// ProvideRegimeClassifier exposes the market data client as the regime source.
func ProvideRegimeClassifier(c *marketdata.Client) service.RegimeClassifier {
	return c
}

// ProvideSymbolResolver creates the headline symbol resolver.
func ProvideSymbolResolver() service.SymbolResolver {
	return resolver.New(resolver.Default())
}

// ProvideSentimentScorer creates the sentiment scorer: the model service when
// configured, with the lexicon scorer as fallback.
func ProvideSentimentScorer(cfg *config.Config, l *logger.Logger) service.SentimentScorer {
	lex := lexicon.New()
	if cfg.Analytics.ModelServiceURL == "" {
		return lex
	}
	primary := analytics.NewHTTPSentimentScorer(cfg)
	return sentiment.NewFallbackScorer(primary, lex, cfg.Analytics.Timeout, l)
}

// ProvideCombiner creates the score combiner.
func ProvideCombiner(cfg *config.Config) *usecase.Combiner {
	return usecase.NewCombiner(cfg)
}

// ProvideSignalGenerator creates the signal generation use case.
func ProvideSignalGenerator(
	res service.SymbolResolver,
	scorer service.SentimentScorer,
	technical service.TechnicalProvider,
	regime service.RegimeClassifier,
	combiner *usecase.Combiner,
	history repository.SignalHistory,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.SignalGenerator {
	gen := usecase.NewSignalGenerator(res, scorer, technical, regime, combiner, history, m, cfg)
	gen.SetLogger(l)
	return gen
}

// ProvideSignalPublisher creates the emit-side use case over the configured
// backend.
func ProvideSignalPublisher(
	pub repository.Publisher,
	archive repository.SignalArchive,
	m repository.Metrics,
	responseCache icache.BytesCache,
	cfg *config.Config,
) *usecase.SignalPublisher {
	sp := usecase.NewSignalPublisher(pub, archive, m, cfg.Backend.Type)
	sp.SetCache(responseCache)
	return sp
}

// ProvideNewsCollector creates the news collector use case.
func ProvideNewsCollector(
	stream repository.NewsStream,
	feed service.NewsSource,
	archive repository.NewsArchive,
	gen *usecase.SignalGenerator,
	pub *usecase.SignalPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.NewsCollector {
	// Build middleware pipeline between the newswire and the batcher. The
	// collector is the pipeline's downstream, so it is attached after both
	// exist.
	collector := usecase.NewNewsCollector(stream, feed, archive, gen, pub, m, nil, cfg)
	collector.SetLogger(l)
	pipe := mid.NewNewswirePipeline(collector, m,
		mid.WithMaxRPS(20),
		mid.WithBufferSize(1000),
	)
	collector.SetPipeline(pipe)
	return collector
}

// ProvideKafkaNewsHandler registers the handler for the news intake topic.
func ProvideKafkaNewsHandler(collector *usecase.NewsCollector, m repository.Metrics, cfg *config.Config) *usecase.KafkaNewsHandler {
	return usecase.NewKafkaNewsHandler(cfg.Kafka.NewsTopic, collector, m)
}

// ProvideJobQueue creates the Redis-backed job queue, or nil when disabled.
func ProvideJobQueue(cfg *config.Config, client *redis.Client, collector *usecase.NewsCollector, l *logger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{Workers: cfg.Queue.Workers}, client,
		queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Queue.Name))
	q.RegisterJob(usecase.NewGenerateJob(collector, l))
	return q
}

// ProvideScheduler creates the cron scheduler for periodic generation runs.
func ProvideScheduler(collector *usecase.NewsCollector, jobQueue *queue.RedisQueue, lock pkgcache.Service, cfg *config.Config, l *logger.Logger) *usecase.Scheduler {
	var qs queue.QueueService
	if jobQueue != nil {
		qs = jobQueue
	}
	s := usecase.NewScheduler(collector, qs, cfg.Pipeline.Schedule, l)
	s.SetLock(lock)
	return s
}

// ProvideHTTPHandler creates the API handler pair: cached reads plus the
// validated generate endpoint.
func ProvideHTTPHandler(
	archive repository.SignalArchive,
	collector *usecase.NewsCollector,
	responseCache icache.BytesCache,
	jobQueue *queue.RedisQueue,
	l *logger.Logger,
) *api.SignalsEchoHandler {
	ops := api.NewSignalsHandler(archive, collector)
	ops.SetCache(responseCache)
	ops.SetLogger(l)
	h := api.NewSignalsEchoHandler(l, ops, collector)
	if jobQueue != nil {
		h.SetQueue(jobQueue)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.NewsCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaNewsHandler,
	chClient *pkgch.Client,
	httpHandler *api.SignalsEchoHandler,
	jobQueue *queue.RedisQueue,
	scheduler *usecase.Scheduler,
	pub repository.Publisher,
	l *logger.Logger,
) *server.App {
	// Ship aggregated error logs to Kafka when a logs topic is configured
	if cfg.Kafka.LogsTopic != "" {
		if lp, ok := pub.(logger.Publisher); ok {
			l.AddCollector(&logger.CollectionConfig{
				TimeInterval:   30 * time.Second,
				CountThreshold: 100,
				Topic:          cfg.Kafka.LogsTopic,
				Publisher:      lp,
			})
		}
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetLogger(l)
	app.SetHTTPHandler(httpHandler)
	if jobQueue != nil {
		app.SetQueue(jobQueue)
	}
	if scheduler != nil {
		app.SetScheduler(scheduler)
	}
	// attach signal publisher to app for closing resources via collector
	if collector != nil {
		app.Publisher = collector.Publisher()
	}
	return app
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
