package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/httpapi"
	"github.com/MrEthical07/authcore/internal/logging"
	otelexport "github.com/MrEthical07/authcore/metrics/export/otel"
	promexport "github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/store/memory"
	"github.com/MrEthical07/authcore/store/postgres"
)

const (
	serviceName     = "authcore"
	shutdownTimeout = 10 * time.Second
	connectAttempts = 5
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the login HTTP API",
		Long: `Start the HTTP API serving login, session checks, remember-me
re-authentication and logout. Prometheus metrics are served on a separate
listener; --otel-metrics also logs them through an OpenTelemetry meter
provider.`,
		RunE: runServe,
	}

	fs := cmd.Flags()
	fs.String("listen", ":8080", "API listen address")
	fs.String("metrics-listen", ":9090", "metrics listen address (empty disables)")
	fs.String("redis-addr", "localhost:6379", "redis address")
	fs.String("database-url", "", "postgres DSN; empty uses an in-memory user store")
	fs.Bool("otel-metrics", false, "log engine metrics through an OpenTelemetry meter provider")
	fs.Duration("otel-metrics-interval", time.Minute, "OpenTelemetry metrics collection interval")
	addEngineFlags(fs)

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, configFile)
	if err != nil {
		return err
	}

	logger := logging.Setup(serviceName, version, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel), os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := newResource(serviceName, version)
	shutdownTracing := setupTracing(res)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	engineCfg, err := cfg.engineConfig()
	if err != nil {
		return err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
	defer rdb.Close()

	credentials, closeStore, err := openCredentialStore(ctx, cfg, engineCfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := authcore.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithCredentialStore(credentials).
		WithLogger(logger).
		Build()
	if err != nil {
		return oops.Code("ENGINE_BUILD_FAILED").Wrap(err)
	}
	if err := engine.Ping(ctx); err != nil {
		return oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.RedisAddr).Wrap(err)
	}

	if cfg.OTelMetrics {
		mp := setupMetrics(logger, res, cfg.OTelMetricsInterval)
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				logger.Warn("meter provider shutdown failed", "error", err)
			}
		}()
		exp, err := otelexport.NewOTelExporter(mp.Meter(meterName), engine)
		if err != nil {
			return oops.Code("METRICS_SETUP_FAILED").Wrap(err)
		}
		defer exp.Close()
	}

	api := &http.Server{
		Addr:              cfg.Listen,
		Handler:           traceRequests(httpapi.New(engine, logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	servers := []*http.Server{api}

	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promexport.NewPrometheusExporter(engine).Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- oops.Code("LISTEN_FAILED").With("addr", srv.Addr).Wrap(err)
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown failed", "addr", srv.Addr, "error", err)
		}
	}
	return serveErr
}

// openCredentialStore returns the Postgres store when a DSN is configured and
// an in-memory store loaded with the configured seed users otherwise.
func openCredentialStore(ctx context.Context, cfg serverConfig, engineCfg authcore.Config, logger *slog.Logger) (authcore.CredentialStore, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, connectAttempts)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	}

	logger.Warn("no database configured, using in-memory user store")
	store, err := seedMemoryStore(engineCfg, cfg.SeedUsers)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func seedMemoryStore(engineCfg authcore.Config, users []seedUser) (*memory.Store, error) {
	store := memory.New()
	for _, u := range users {
		hash, salt, err := derive(engineCfg.Password, u.Password)
		if err != nil {
			return nil, err
		}
		if _, err := store.Add(u.Username, hash, salt); err != nil {
			return nil, oops.Code("SEED_FAILED").With("username", u.Username).Wrap(err)
		}
	}
	return store, nil
}
