package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolhub/auth"
	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/resilience"
	"github.com/jonwraymond/toolhub/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the capability API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, flags)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			authn, authz, err := auth.New(cfg.Server.Auth)
			if err != nil {
				return err
			}

			janitor := cache.NewJanitor(a.pool, cfg.Cache.JanitorInterval, a.logger)
			janitor.Start(ctx)
			defer janitor.Stop()

			sessions := server.NewSessions(cfg.Server.SystemPrompt, cfg.Server.SessionTTL)
			go sweepSessions(ctx, sessions, a.logger)

			opts := server.Options{
				Dispatcher:    a.dispatcher,
				Pool:          a.pool,
				Sessions:      sessions,
				Health:        a.health,
				Authenticator: authn,
				Authorizer:    authz,
				Bulkhead:      resilience.NewBulkhead(cfg.Server.MaxConcurrent, cfg.Server.QueueWait),
				Logger:        a.logger,
			}
			if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Exporter == "prometheus" {
				opts.Metrics = promhttp.Handler()
			}

			srv := &http.Server{
				Addr:              cfg.Server.Listen,
				Handler:           server.New(opts).Handler(),
				ReadHeaderTimeout: cfg.Server.ReadTimeout,
				ReadTimeout:       cfg.Server.ReadTimeout,
				WriteTimeout:      cfg.Server.WriteTimeout,
			}
			a.logger.Info(ctx, "toolhub listening",
				observe.F("addr", cfg.Server.Listen),
				observe.F("capabilities", a.registry.Names()),
				observe.F("auth", cfg.Server.Auth.Enabled))
			return server.Run(ctx, srv, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "override server.listen")
	return cmd
}

func sweepSessions(ctx context.Context, s *server.Sessions, logger observe.Logger) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug(ctx, "idle sessions dropped", observe.F("count", n))
			}
		}
	}
}
