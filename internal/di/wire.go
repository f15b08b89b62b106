//go:build wireinject
// +build wireinject

package di

import (
	"SumReport/pkg/config"
	"SumReport/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideTableStore,
		ProvideReportSource,
		ProvideSnapshotStore,
		ProvideEventPublisher,

		// Use cases
		ProvideWeights,
		ProvideReportBuilder,
		ProvideHub,
		ProvideFundTable,
		ProvideTrendlineService,
		ProvideQueue,
		ProvideKafkaHandlers,

		// Transport
		ProvideLimiter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
