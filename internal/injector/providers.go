package injector

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zeusync/scenebridge/internal/config"
	"github.com/zeusync/scenebridge/internal/core/dispatch"
	"github.com/zeusync/scenebridge/internal/core/events/bus"
	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/observability/metrics"
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/resolver"
	"github.com/zeusync/scenebridge/internal/core/scanner"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
	"github.com/zeusync/scenebridge/internal/editor"
	"github.com/zeusync/scenebridge/internal/memsim"
	"github.com/zeusync/scenebridge/internal/server"
)

// EditorSet provides everything between the simulation and the editor facade.
var EditorSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTypeRegistry,
	typeinfo.NewAdapter,
	ProvideCache,
	scene.NewRegistry,
	ProvideResolver,
	ProvideBridge,
	ProvideCompositor,
	ProvideScanner,
	ProvideBus,
	ProvideDispatcher,
	editor.New,
)

func ProvideLogger(cfg *config.Config) log.Log {
	return log.NewWithConfig(cfg.Log)
}

// ProvideMetrics returns a nil collector when metrics are disabled.
func ProvideMetrics(cfg *config.Config) (*metrics.Collector, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	return metrics.New(cfg.Metrics.Namespace, prometheus.NewRegistry())
}

func ProvideTypeRegistry(world *memsim.World) *typeinfo.Registry {
	reg := typeinfo.NewDefaultRegistry()
	transform.RegisterConverters(reg)
	world.RegisterPropertyNames(reg)
	return reg
}

func ProvideCache(world *memsim.World, logger log.Log, m *metrics.Collector) *scene.Cache {
	return scene.NewCache(world, scene.WithLogger(logger), scene.WithMetrics(m))
}

func ProvideResolver(cache *scene.Cache, registry *scene.Registry, logger log.Log, m *metrics.Collector) *resolver.Resolver {
	return resolver.New(cache, registry, logger, m)
}

func ProvideBridge(adapter *typeinfo.Adapter, res *resolver.Resolver, logger log.Log) *property.Bridge {
	return property.NewBridge(adapter, res, property.WithLogger(logger))
}

func ProvideCompositor(adapter *typeinfo.Adapter, bridge *property.Bridge, logger log.Log) *transform.Compositor {
	return transform.NewCompositor(adapter, bridge, logger)
}

func ProvideScanner(
	cfg *config.Config,
	cache *scene.Cache,
	bridge *property.Bridge,
	compositor *transform.Compositor,
	world *memsim.World,
	logger log.Log,
	m *metrics.Collector,
) *scanner.Scanner {
	return scanner.New(cache, bridge, compositor, world,
		scanner.WithBatchSize(cfg.Scan.BatchSize),
		scanner.WithLogger(logger),
		scanner.WithMetrics(m))
}

// ProvideBus attaches the simulation as the applier of every intent.
// The cleanup detaches it.
func ProvideBus(world *memsim.World) (bus.EventBus, func(), error) {
	b := bus.New()
	detach, err := dispatch.Attach(b, world)
	if err != nil {
		return nil, nil, err
	}
	return b, detach, nil
}

func ProvideDispatcher(cfg *config.Config, b bus.EventBus, logger log.Log, m *metrics.Collector) *dispatch.Dispatcher {
	return dispatch.New(b,
		dispatch.WithAsync(cfg.Dispatch.Async),
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(m))
}

func ProvideServer(cfg *config.Config, ed *editor.Editor, logger log.Log, m *metrics.Collector) *server.Server {
	sc := server.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		MaxClients:      cfg.Server.MaxClients,
		MaxMessageSize:  cfg.Server.MaxMessageSize,
		WriteTimeout:    cfg.Server.WriteTimeout.Duration,
		AuthToken:       cfg.Server.AuthToken,
		RebuildInterval: cfg.Scene.RebuildInterval.Duration,
		MetricsPath:     cfg.Metrics.Path,
	}
	return server.NewServer(sc, ed, logger, m.Gatherer())
}
