//go:build wireinject
// +build wireinject

package di

import (
	"FlowSentry/pkg/config"
	"FlowSentry/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideMarketStore,
		ProvideResultPublisher,
		ProvideResultStore,
		ProvideAlertSink,

		// Engine
		ProvideAggregator,
		ProvidePipeline,

		// Handlers and scheduling
		ProvideStreamHandler,
		ProvideScheduler,
		ProvideCandleCloseHandler,
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
