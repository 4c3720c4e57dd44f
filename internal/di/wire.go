//go:build wireinject
// +build wireinject

package di

import (
	"FinSimples/pkg/config"
	"FinSimples/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Ambient
	ProvideLogger,
	ProvideMetrics,

	// Infrastructure
	ProvideCacheStore,
	ProvideHTTPClient,

	// Repositories
	ProvideBrapi,
	ProvideFundamentals,
	ProvidePriceSource,
	ProvideArtifactStore,

	// Services and use cases
	ProvideFeaturePipeline,
	ProvideInsights,
	ProvidePredictor,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,

		// HTTP surface
		ProvideRateLimiter,
		ProvideHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeRuntime wires the dependencies of the one-shot CLI commands.
func InitializeRuntime(cfg *config.Config) (*Runtime, func(), error) {
	wire.Build(
		coreSet,
		wire.Struct(new(Runtime), "*"),
	)
	return nil, nil, nil
}
