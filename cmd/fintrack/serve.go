package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the JSON API on PORT until interrupted. On SIGINT or SIGTERM the
server stops accepting requests, drains in-flight ones within
SHUTDOWN_TIMEOUT and flushes the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// pinger is implemented by storage that can check its connection.
type pinger interface {
	Ping(ctx context.Context) error
}

func runServe(ctx context.Context) error {
	res, err := cli.OpenBackend(ctx, appCfg, logger, true)
	if err != nil {
		return err
	}

	srvCfg := apphttp.Config{
		Addr:               appCfg.Addr(),
		RateLimitPerMinute: appCfg.RateLimitPerMinute,
		CacheSize:          appCfg.CacheSize,
		CacheTTL:           appCfg.CacheTTL,
		TrustedProxies:     appCfg.TrustedProxies,
	}
	if p, ok := res.KV.(pinger); ok {
		srvCfg.Ready = p.Ping
	}

	srv, err := apphttp.NewServer(srvCfg, res.Store, logger)
	if err != nil {
		_ = res.Cleanup(context.WithoutCancel(ctx))
		return fmt.Errorf("create server: %w", err)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	srv.StartBackground(gctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server",
			"addr", srv.Addr,
			"backend", appCfg.DataBackend,
			"amqp_enabled", appCfg.AMQPEnabled(),
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		return cli.GracefulShutdown(gctx, logger, appCfg.ShutdownTimeout, func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			stats := srv.Stats()
			logger.Info("Server stopped",
				"requests", stats.Requests.TotalRequests,
				"rate_limited", stats.RateLimit.Rejected,
				"suspicious", stats.Suspicious)
			return errors.Join(err, res.Cleanup(ctx))
		})
	})

	return g.Wait()
}
