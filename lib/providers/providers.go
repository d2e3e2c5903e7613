package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/nyunai/nyun/cmd/nyun/config"
	"github.com/nyunai/nyun/lib/devices"
	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/instances"
	"github.com/nyunai/nyun/lib/logger"
	"github.com/nyunai/nyun/lib/orchestrator"
	nyunotel "github.com/nyunai/nyun/lib/otel"
	"github.com/nyunai/nyun/lib/runtime"
	"github.com/nyunai/nyun/lib/workspace"
)

// ProvideConfig provides the application configuration
func ProvideConfig() *config.Config {
	return config.Load()
}

// ProvideLogger provides a structured logger writing into sink
func ProvideLogger(cfg *config.Config, sink *logger.Sink) *slog.Logger {
	sink.SetLevel(logger.ParseLevel(cfg.LogLevel))
	log := logger.New(sink, sink)
	slog.SetDefault(log)
	return log
}

// ProvideTelemetry provides the meter provider, flushed on cleanup
func ProvideTelemetry(ctx context.Context, cfg *config.Config) (*nyunotel.Provider, func(), error) {
	p, err := nyunotel.Init(ctx, nyunotel.Config{
		Enabled:     cfg.OtelEnabled,
		Endpoint:    cfg.OtelEndpoint,
		ServiceName: "nyun",
		Version:     cfg.Version,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	}
	return p, cleanup, nil
}

// ProvideImageMetrics provides the pull and remove instruments
func ProvideImageMetrics(p *nyunotel.Provider) (*nyunotel.ImageMetrics, error) {
	return nyunotel.NewImageMetrics(p.Meter())
}

// ProvideRunMetrics provides the container launch instruments
func ProvideRunMetrics(p *nyunotel.Provider) (*nyunotel.RunMetrics, error) {
	return nyunotel.NewRunMetrics(p.Meter())
}

// ProvideRuntime provides the Docker runtime
func ProvideRuntime(cfg *config.Config) (runtime.Runtime, func(), error) {
	var opts []runtime.DockerOption
	if cfg.DockerHost != "" {
		opts = append(opts, runtime.WithHost(cfg.DockerHost))
	}
	rt, err := runtime.NewDocker(opts...)
	if err != nil {
		return nil, nil, err
	}
	return rt, func() { _ = rt.Close() }, nil
}

// ProvideImageRegistry provides the process-wide image registry
func ProvideImageRegistry() *images.Registry {
	return images.NewRegistry()
}

// ProvideCatalog provides the extension catalog
func ProvideCatalog(reg *images.Registry) *extensions.Catalog {
	return extensions.NewCatalog(reg)
}

// ProvideAuth provides registry credentials from the configuration
func ProvideAuth(cfg *config.Config) runtime.Auth {
	return runtime.Auth{
		Username:      cfg.DockerUsername,
		Password:      cfg.DockerAccessToken,
		ServerAddress: cfg.Registry,
	}
}

// ProvideInspector provides the remote manifest inspector, or nil when the
// remote check is disabled
func ProvideInspector(cfg *config.Config, auth runtime.Auth) images.Inspector {
	if cfg.SkipRemoteCheck {
		return nil
	}
	return images.NewRemoteInspector(images.WithAuth(auth))
}

// ProvideImageManager provides the image manager
func ProvideImageManager(cfg *config.Config, rt runtime.Runtime, inspector images.Inspector, auth runtime.Auth, metrics *nyunotel.ImageMetrics) images.Manager {
	return images.NewManager(rt, inspector, images.Config{
		MaxConcurrentPulls: cfg.MaxConcurrentPulls,
		Auth:               auth,
	}, metrics)
}

// ProvideDeviceDiscoverer provides host GPU discovery
func ProvideDeviceDiscoverer(cfg *config.Config) devices.Discoverer {
	return devices.NewSysfsDiscoverer(cfg.SysfsRoot)
}

// ProvideInstanceManager provides the instance manager
func ProvideInstanceManager(rt runtime.Runtime, discoverer devices.Discoverer, metrics *nyunotel.RunMetrics) instances.Manager {
	return instances.NewManager(rt, discoverer, metrics)
}

// ProvideWorkspaceStore provides the workspace store
func ProvideWorkspaceStore(log *slog.Logger) *workspace.Store {
	return workspace.NewStore(log)
}

// ProvideOrchestrator provides the run orchestrator
func ProvideOrchestrator(catalog *extensions.Catalog, instanceManager instances.Manager) *orchestrator.Orchestrator {
	return orchestrator.New(catalog, instanceManager)
}
