package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/playgate"
	"github.com/MrEthical07/playgate/membership"
)

type serverConfig struct {
	Addr   string
	Engine playgate.Config

	RedisAddr     string
	RedisPassword string

	OracleURL          string
	Locks              []membership.Lock
	MembershipCacheTTL time.Duration
	HoldingsURL        string

	TrustProxyHeaders bool
	DatabaseURL       string
	MetricsEnabled    bool
	OTelMetrics       bool
	OTelInterval      time.Duration
	DevMode           bool
	LogLevel          slog.Level
}

// loadConfig reads the server configuration from getenv. Missing key material,
// the access key secret, membership settings, or a Redis address outside dev mode
// are errors; everything else has a default.
func loadConfig(getenv func(string) string) (serverConfig, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := serverConfig{
		Addr:           ":8080",
		Engine:         playgate.DefaultConfig(),
		RedisAddr:      env("REDIS_ADDR"),
		RedisPassword:  getenv("REDIS_PASSWORD"),
		OracleURL:      env("MEMBERSHIP_ORACLE_URL"),
		HoldingsURL:    env("HOLDINGS_URL"),
		DatabaseURL:    env("DATABASE_URL"),
		MetricsEnabled: true,
		OTelInterval:   time.Minute,
		LogLevel:       slog.LevelInfo,
	}

	var errs []error
	fail := func(err error) { errs = append(errs, err) }

	if v := env("ADDR"); v != "" {
		cfg.Addr = v
	} else if v := env("PORT"); v != "" {
		cfg.Addr = ":" + v
	}

	priv, pub := env("ACCESS_CONTROL_PRIVATE_KEY"), env("ACCESS_CONTROL_PUBLIC_KEY")
	if priv == "" {
		fail(errors.New("ACCESS_CONTROL_PRIVATE_KEY is required"))
	}
	if v := env("SIGNING_METHOD"); v != "" {
		cfg.Engine.Signer.SigningMethod = strings.ToLower(v)
	}
	if pub == "" && cfg.Engine.Signer.SigningMethod != "hs256" {
		fail(errors.New("ACCESS_CONTROL_PUBLIC_KEY is required"))
	}
	cfg.Engine.Signer.PrivateKey = []byte(priv)
	if pub != "" {
		cfg.Engine.Signer.PublicKey = []byte(pub)
	}
	if v := env("TOKEN_ISSUER"); v != "" {
		cfg.Engine.Signer.Issuer = v
	}
	cfg.Engine.Signer.KeyID = env("SIGNING_KEY_ID")
	if err := durationEnv(env, "TOKEN_TTL", &cfg.Engine.Signer.TokenTTL); err != nil {
		fail(err)
	}

	cfg.Engine.AccessKey.Secret = getenv("ACCESS_KEY_SECRET")
	if strings.TrimSpace(cfg.Engine.AccessKey.Secret) == "" {
		fail(errors.New("ACCESS_KEY_SECRET is required"))
	}

	if err := boolEnv(env, "DEV_MODE", &cfg.DevMode); err != nil {
		fail(err)
	}
	if cfg.RedisAddr == "" && !cfg.DevMode {
		fail(errors.New("REDIS_ADDR is required unless DEV_MODE=true"))
	}

	if cfg.OracleURL == "" {
		fail(errors.New("MEMBERSHIP_ORACLE_URL is required"))
	}
	locks, err := membership.ParseLocks(env("MEMBERSHIP_LOCKS"))
	if err != nil {
		fail(fmt.Errorf("MEMBERSHIP_LOCKS: %w", err))
	}
	cfg.Locks = locks
	if err := durationEnv(env, "MEMBERSHIP_TIMEOUT", &cfg.Engine.Membership.Timeout); err != nil {
		fail(err)
	}
	if err := durationEnv(env, "MEMBERSHIP_CACHE_TTL", &cfg.MembershipCacheTTL); err != nil {
		fail(err)
	}

	if v := env("RATE_LIMITS"); v != "" {
		if err := parseRateLimits(v, cfg.Engine.RateLimit.Scopes); err != nil {
			fail(fmt.Errorf("RATE_LIMITS: %w", err))
		}
	}
	if err := durationEnv(env, "RATE_LIMIT_STORE_TIMEOUT", &cfg.Engine.RateLimit.StoreTimeout); err != nil {
		fail(err)
	}

	if err := boolEnv(env, "TRUST_PROXY_HEADERS", &cfg.TrustProxyHeaders); err != nil {
		fail(err)
	}
	if err := boolEnv(env, "METRICS_ENABLED", &cfg.MetricsEnabled); err != nil {
		fail(err)
	}
	if err := boolEnv(env, "OTEL_METRICS", &cfg.OTelMetrics); err != nil {
		fail(err)
	}
	if err := durationEnv(env, "OTEL_METRICS_INTERVAL", &cfg.OTelInterval); err != nil {
		fail(err)
	}
	cfg.Engine.Metrics.Enabled = cfg.MetricsEnabled || cfg.OTelMetrics
	cfg.Engine.Metrics.EnableLatencyHistograms = cfg.Engine.Metrics.Enabled
	cfg.Engine.Audit.Enabled = cfg.DatabaseURL != ""

	if v := env("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			fail(fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if len(errs) > 0 {
		return serverConfig{}, errors.Join(errs...)
	}
	if err := cfg.Engine.Validate(); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

// parseRateLimits applies "scope=requests/window" pairs, comma separated, onto
// scopes. Example: "signing=10/1m,token-gate=20/1m".
func parseRateLimits(list string, scopes map[string]playgate.RateLimit) error {
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, quota, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("%q: expected scope=requests/window", part)
		}
		reqs, window, ok := strings.Cut(quota, "/")
		if !ok {
			return fmt.Errorf("%q: expected requests/window", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(reqs))
		if err != nil || n <= 0 {
			return fmt.Errorf("%q: requests must be a positive integer", part)
		}
		d, err := time.ParseDuration(strings.TrimSpace(window))
		if err != nil || d <= 0 {
			return fmt.Errorf("%q: window must be a positive duration", part)
		}
		scopes[strings.TrimSpace(name)] = playgate.RateLimit{Requests: n, Window: d}
	}
	return nil
}

func durationEnv(env func(string) string, key string, dst *time.Duration) error {
	v := env(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s must be a positive duration", key)
	}
	*dst = d
	return nil
}

func boolEnv(env func(string) string, key string, dst *bool) error {
	v := env(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s must be a boolean", key)
	}
	*dst = b
	return nil
}
