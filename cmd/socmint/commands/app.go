package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"socmint/internal/aggregator"
	"socmint/internal/cache"
	"socmint/internal/components/chrono"
	"socmint/internal/components/telemetry"
	"socmint/internal/config"
	"socmint/internal/fanout"
	"socmint/internal/paginator"
	"socmint/internal/platforms/roblox"
	"socmint/internal/transport"
)

const serviceName = "socmint"

// app is everything a command needs, built once from the config.
type app struct {
	cfg    config.Config
	tel    telemetry.API
	cache  cache.FileCache
	pool   *fanout.Pool
	engine aggregator.Engine
	otel   telemetry.Telemetry
}

type appOptions struct {
	sequential bool
	dumpDir    string
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	slog.Debug("loaded config", "path", configPath)
	return cfg, nil
}

func newCache(cfg config.Config, tel telemetry.API) cache.FileCache {
	return cache.NewFileCache(cfg.Cache.Dir, cfg.CacheTTL(), chrono.NewStandardTime(), tel)
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.dumpDir != "" {
		cfg.Transport.DumpDir = opts.dumpDir
	}
	tel := telemetry.SlogAPI{}

	var otel telemetry.Telemetry
	if cfg.Telemetry.Enabled() {
		otel, err = telemetry.Setup(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("setup telemetry: %w", err)
		}
	}

	http := transport.New(cfg.TransportOptions(), tel)
	client := roblox.NewClient(http, roblox.Options{
		SessionToken: cfg.Session.Token,
	}, tel)

	mode := fanout.Concurrent
	if cfg.Fanout.Sequential || opts.sequential {
		mode = fanout.Sequential
	}
	pool := fanout.NewPool(cfg.Fanout.MaxWorkers)
	scheduler := fanout.NewScheduler(pool, mode, tel)
	pages := paginator.New(client, cfg.PageDelay(), tel)
	store := newCache(cfg, tel)

	engine := aggregator.NewEngine(aggregator.EngineOptions{
		Service:   client,
		Scheduler: &scheduler,
		Paginator: &pages,
		Cache:     store,
		Clock:     chrono.NewStandardTime(),
		ListLimit: cfg.Lookup.ListLimit,
	}, tel)

	return &app{
		cfg:    cfg,
		tel:    tel,
		cache:  store,
		pool:   pool,
		engine: engine,
		otel:   otel,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.otel.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
}
