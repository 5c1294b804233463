//go:build wireinject
// +build wireinject

package di

import (
	"NewsEdge/pkg/config"
	"NewsEdge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Logger and metrics
        ProvideLogger,
        ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideMarketCache,
		ProvideResponseCache,

		// Repositories (with business logic)
		ProvideSignalArchive,
		ProvideNewsArchive,
		ProvideSignalHistory,
		ProvideSignalKafkaPublisher,
		ProvideNewswireStream,

		// Domain services
		ProvideNewsFeed,
		ProvideMarketData,
		ProvideTechnicalProvider,
		ProvideRegimeClassifier,
		ProvideSymbolResolver,
		ProvideSentimentScorer,

        // Use cases
        ProvideCombiner,
        ProvideSignalGenerator,
        ProvideSignalPublisher,
        ProvideNewsCollector,
        ProvideKafkaNewsHandler,
        ProvideJobQueue,
        ProvideScheduler,

        // HTTP and application server
        ProvideHTTPHandler,
        ProvideApp,
    )
    return &server.App{}, nil
}
