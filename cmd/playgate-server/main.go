// Command playgate-server serves the playback access-control API.
//
// Configuration comes from the environment:
//
//	ACCESS_CONTROL_PRIVATE_KEY  signing key, PEM or base64 PEM (required)
//	ACCESS_CONTROL_PUBLIC_KEY   verification key (required unless SIGNING_METHOD=hs256)
//	SIGNING_METHOD              es256 (default), ed25519 or hs256
//	ACCESS_KEY_SECRET           HMAC secret for token-gate access keys (required)
//	MEMBERSHIP_ORACLE_URL       membership oracle base URL (required)
//	MEMBERSHIP_LOCKS            name=0xlock,... (required)
//	MEMBERSHIP_CACHE_TTL        cache positive answers in Redis for this long
//	HOLDINGS_URL                on-chain balance service for the token-gate webhook
//	REDIS_ADDR                  shared counter store (required unless DEV_MODE=true)
//	DEV_MODE                    run an in-process miniredis when REDIS_ADDR is unset
//	RATE_LIMITS                 scope=requests/window overrides, e.g. signing=10/1m
//	DATABASE_URL                enables the Postgres audit sink
//	TRUST_PROXY_HEADERS         key the limiter on X-Forwarded-For / X-Real-IP
//	METRICS_ENABLED             serve /metrics (default true)
//	OTEL_METRICS                push metrics through an OpenTelemetry MeterProvider to the log
//	OTEL_METRICS_INTERVAL       push interval (default 1m)
//	ADDR or PORT                listen address (default :8080)
//
// Generate key material with cmd/playgate-keygen.
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

	"github.com/MrEthical07/playgate"
	"github.com/MrEthical07/playgate/audit/postgres"
	"github.com/MrEthical07/playgate/httpapi"
	"github.com/MrEthical07/playgate/membership"
	promexport "github.com/MrEthical07/playgate/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := loadConfig(os.Getenv)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg serverConfig, logger *slog.Logger) error {
	// ---------- counter store ----------
	redisAddr := cfg.RedisAddr
	if redisAddr == "" && cfg.DevMode {
		mr, err := miniredis.Run()
		if err != nil {
			return err
		}
		defer mr.Close()
		redisAddr = mr.Addr()
		logger.Warn("DEV_MODE: using in-process miniredis; limits are not shared across instances")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	// ---------- membership ----------
	client := &http.Client{Timeout: cfg.Engine.Membership.Timeout}
	oracle, err := membership.NewHTTPOracle(cfg.OracleURL, cfg.Locks, client)
	if err != nil {
		return err
	}

	builder := playgate.New().
		WithConfig(cfg.Engine).
		WithRedis(rdb).
		WithMembershipOracle(oracle).
		WithLogger(logger)
	if cfg.MembershipCacheTTL > 0 {
		builder.WithMembershipCache(cfg.MembershipCacheTTL)
	}
	if cfg.HoldingsURL != "" {
		holdings, err := membership.NewHTTPHoldingChecker(cfg.HoldingsURL, client)
		if err != nil {
			return err
		}
		builder.WithHoldingChecker(holdings)
	}

	// ---------- audit ----------
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sink, err := postgres.NewSink(pool, postgres.WithErrorHandler(func(err error) {
			logger.Warn("audit insert failed", "error", err)
		}))
		if err != nil {
			return err
		}
		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
		builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	for _, w := range cfg.Engine.Lint() {
		logger.Warn("configuration warning", "code", w.Code, "message", w.Message)
	}

	if cfg.OTelMetrics {
		stopMetrics, err := startOTelMetrics(engine, logger, cfg.OTelInterval)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := stopMetrics(flushCtx); err != nil {
				logger.Warn("metrics shutdown failed", "error", err)
			}
		}()
	}

	// ---------- http ----------
	opts := httpapi.Options{
		Engine:            engine,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Logger:            logger,
	}
	if cfg.MetricsEnabled {
		h, err := promexport.Handler(engine)
		if err != nil {
			return err
		}
		opts.MetricsHandler = h
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
