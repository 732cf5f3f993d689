package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/capability"
	"github.com/jonwraymond/toolhub/config"
	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/health"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/store/sqlite"
	"github.com/jonwraymond/toolhub/weather"
)

func loadConfig(ctx context.Context, flags *rootFlags) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flags.configPath == "" {
		cfg, err = config.Parse(ctx, nil)
	} else {
		cfg, err = config.Load(ctx, flags.configPath)
	}
	if err != nil {
		return config.Config{}, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

// app is the wired service shared by every command.
type app struct {
	cfg        config.Config
	obs        observe.Observer
	logger     observe.Logger
	pool       *cache.Pool
	loader     *cache.Loader
	client     *weather.Client
	store      *sqlite.Store
	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	health     *health.Aggregator
}

func newApp(ctx context.Context, cfg config.Config) (a *app, err error) {
	oc := cfg.Observe()
	oc.Output = os.Stderr
	obs, err := observe.NewObserver(ctx, oc)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a = &app{cfg: cfg, obs: obs, logger: obs.Logger()}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	poolCfg, err := cfg.Cache.Pool()
	if err != nil {
		return nil, err
	}
	recorder, err := observe.NewCacheMetrics(obs.Meter())
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}
	a.pool, err = cache.NewPool(poolCfg, cache.WithLogger(a.logger), cache.WithRecorder(recorder))
	if err != nil {
		return nil, err
	}
	a.loader = cache.NewLoader(a.pool, poolCfg.RefreshThreshold, a.logger)

	deps := capability.Deps{
		Loader:          a.loader,
		DefaultLocation: cfg.Weather.DefaultLocation,
		Debug:           cfg.Weather.Debug,
		Contacts:        cfg.Mail.Contacts,
		Logger:          a.logger,
	}

	if cfg.Weather.APIKey != "" {
		a.client, err = weather.NewClient(cfg.Weather.Config, weather.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		deps.Weather = a.client
	} else {
		a.logger.Warn(ctx, "weather api key not configured; weather capabilities are unavailable")
	}

	if cfg.Store.Path != "" {
		a.store, err = sqlite.Open(cfg.Store.Path, cfg.Store.Systems)
		if err != nil {
			return nil, err
		}
		deps.Store = a.store
	}

	if cfg.Mail.Enabled {
		m, err := capability.NewSMTPMailer(cfg.Mail.SMTP)
		if err != nil {
			return nil, err
		}
		deps.Mailer = m
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("call middleware: %w", err)
	}
	a.registry, err = dispatch.Build(ctx, capability.NewCatalog(deps), cfg.Dispatch.Build(), a.logger)
	if err != nil {
		return nil, err
	}
	a.dispatcher = dispatch.NewDispatcher(a.registry, dispatch.WithLogger(a.logger), dispatch.WithMiddleware(mw))

	a.health = health.NewAggregator(health.AggregatorConfig{})
	a.health.Register(health.CacheChecker{Pool: a.pool, MinHitRate: 0.2, MinLookups: 50})
	a.health.Register(health.RegistryChecker{Registry: a.registry})
	a.health.Register(health.RuntimeChecker{})
	if a.client != nil && a.client.Breaker() != nil {
		a.health.Register(health.BreakerChecker{Breaker: a.client.Breaker(), Label: "weather"})
	}
	if a.store != nil {
		a.health.Register(health.PingChecker{Label: "weather_store", Target: a.store})
	}
	return a, nil
}

// Close waits for background refreshes and releases resources.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.loader != nil {
		a.loader.Wait()
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.obs != nil {
		errs = append(errs, a.obs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
