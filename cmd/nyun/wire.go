//go:build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/nyunai/nyun/cmd/nyun/config"
	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/logger"
	"github.com/nyunai/nyun/lib/orchestrator"
	"github.com/nyunai/nyun/lib/providers"
	"github.com/nyunai/nyun/lib/runtime"
	"github.com/nyunai/nyun/lib/workspace"
)

// application struct to hold initialized components
type application struct {
	Ctx          context.Context
	Logger       *slog.Logger
	Config       *config.Config
	Catalog      *extensions.Catalog
	ImageManager images.Manager
	Store        *workspace.Store
	Orchestrator *orchestrator.Orchestrator
}

var componentSet = wire.NewSet(
	providers.ProvideLogger,
	providers.ProvideTelemetry,
	providers.ProvideImageMetrics,
	providers.ProvideRunMetrics,
	providers.ProvideImageRegistry,
	providers.ProvideCatalog,
	providers.ProvideAuth,
	providers.ProvideInspector,
	providers.ProvideImageManager,
	providers.ProvideDeviceDiscoverer,
	providers.ProvideInstanceManager,
	providers.ProvideWorkspaceStore,
	providers.ProvideOrchestrator,
	wire.Struct(new(application), "*"),
)

// initializeApp is the injector function
func initializeApp(ctx context.Context, cfg *config.Config, sink *logger.Sink) (*application, func(), error) {
	panic(wire.Build(
		componentSet,
		providers.ProvideRuntime,
	))
}

// initializeAppWithRuntime builds the application around an existing runtime.
func initializeAppWithRuntime(ctx context.Context, cfg *config.Config, sink *logger.Sink, rt runtime.Runtime) (*application, func(), error) {
	panic(wire.Build(componentSet))
}
