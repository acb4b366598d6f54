//go:build wireinject
// +build wireinject

package di

import (
	"ScamDunk/pkg/config"
	"ScamDunk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideKafkaProducer,

		// Alerting
		ProvideAlertSinks,
		ProvideDispatcher,

		// Analysis pipeline
		ProvideMarketData,
		ProvideDetector,
		ProvideFallbackAnalyzer,
		ProvidePrimaryAnalyzer,
		ProvideProber,
		ProvideAnalyzeUseCase,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
