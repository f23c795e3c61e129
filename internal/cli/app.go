// Package cli wires configuration, registries and the inspector for the vizkit commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/vizkit"
	"github.com/aretw0/vizkit/internal/config"
	"github.com/aretw0/vizkit/pkg/adapters/memory"
	"github.com/aretw0/vizkit/pkg/adapters/redis"
	"github.com/aretw0/vizkit/pkg/codec"
	"github.com/aretw0/vizkit/pkg/observability"
	"github.com/aretw0/vizkit/pkg/proxy"
	"github.com/aretw0/vizkit/pkg/registry"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool
	// Demo adds a simulated task named "demo" and watches it.
	Demo bool
}

// App is a configured inspector with its backing registries.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Codec     *codec.Codec
	Local     *registry.Registry
	Remote    *redis.Registry
	Inspector *vizkit.Inspector
	// Gatherer is nil unless metrics are enabled.
	Gatherer prometheus.Gatherer
	// Policy holds the roles shared by the inspector's task proxies.
	Policy *proxy.Policy
	// Bridge is the local port bridge, when the configured port proxy is not
	// found in any registry.
	Bridge *memory.Bridge

	demo   *Demo
	client *backend.Client
}

// NewApp loads the configuration and builds the inspector it describes.
func NewApp(opts Options) (*App, error) {
	cfg, err := config.Load(config.Path(opts.ConfigPath))
	if err != nil {
		return nil, err
	}
	logger, err := createLogger(opts.Debug, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	kit := codec.NewTypekit()
	if cfg.Types != "" {
		if err := kit.LoadFile(cfg.Types); err != nil {
			return nil, err
		}
	}
	app := &App{
		Config: cfg,
		Logger: logger,
		Codec:  codec.New(kit),
		Local:  registry.New(),
		Policy: proxy.NewPolicy(),
	}

	chain := registry.Chain{app.Local}
	if cfg.Redis.Addr != "" {
		app.client = backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.Remote = redis.NewRegistry(app.client,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTimeout(cfg.Redis.Timeout),
			redis.WithLogger(logger),
		)
		chain = append(chain, app.Remote)
		logger.Info("using redis task registry", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
	}

	inspOpts := []vizkit.Option{
		vizkit.WithCodec(app.Codec),
		vizkit.WithLogger(logger),
		vizkit.WithInterval(cfg.Interval),
		vizkit.WithPolicy(app.Policy),
	}
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		m, err := observability.NewMetrics(reg)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Gatherer = reg
		inspOpts = append(inspOpts, vizkit.WithMetrics(m))
	}
	app.Inspector = vizkit.New(chain, inspOpts...)
	if cfg.PortProxy != "" {
		app.usePortProxy(chain, cfg.PortProxy)
	}

	if opts.Demo {
		demo, err := NewDemo(kit, app.Codec)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.demo = demo
		app.Local.Use(demo.Task)
		for _, w := range demo.Watches() {
			if err := app.Inspector.Watch(w); err != nil {
				app.Close()
				return nil, err
			}
		}
		if err := app.Inspector.WatchTask("demo", demo.Task.Name(), 0); err != nil {
			app.Close()
			return nil, err
		}
	}

	for _, w := range cfg.Watch {
		if err := app.watch(w); err != nil {
			app.Close()
			return nil, fmt.Errorf("watch %q: %w", w.Name, err)
		}
	}
	return app, nil
}

func (a *App) usePortProxy(reg registry.Chain, name string) {
	if _, ok := reg.FindTask(name); !ok {
		a.Bridge = memory.NewBridge(name)
		a.Local.Use(a.Bridge)
		a.Logger.Info("started local port bridge", "task", name)
	}
	a.Policy.Set(proxy.RolePortProxy, a.Inspector.Task(name))
}

func (a *App) watch(w config.Watch) error {
	if w.Port == "" {
		return a.Inspector.WatchTask(w.Name, w.Task, w.Interval)
	}
	return a.Inspector.Watch(vizkit.Watch{
		Name:       w.Name,
		Task:       w.Task,
		Port:       w.Port,
		WriterPort: w.WriterPort,
		ReadOnly:   w.ReadOnly,
		Interval:   w.Interval,
	})
}

// Close releases the Redis connection, if any.
func (a *App) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Run polls until ctx is done, stepping the demo task when enabled.
func (a *App) Run(ctx context.Context) error {
	if a.demo != nil {
		if err := a.demo.Step(time.Now()); err != nil {
			return err
		}
		go a.demo.Run(ctx, a.Config.Interval)
	}
	return a.Inspector.Run(ctx, a.Config.Interval)
}

// Snapshot polls twice: the first tick binds readers, the second picks up
// samples published after binding. The demo steps in between.
func (a *App) Snapshot(now time.Time) error {
	if _, err := a.Inspector.Tick(now); err != nil {
		return err
	}
	if a.demo != nil {
		if err := a.demo.Step(now); err != nil {
			return err
		}
	}
	_, err := a.Inspector.Tick(now.Add(a.Config.Interval))
	return err
}
