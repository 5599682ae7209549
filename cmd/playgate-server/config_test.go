package main

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/playgate"
	"github.com/MrEthical07/playgate/internal/keys"
)

func baseEnv(t *testing.T) map[string]string {
	t.Helper()
	pair, err := keys.NewPair("es256", nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	priv, pub := pair.Base64()
	return map[string]string{
		"ACCESS_CONTROL_PRIVATE_KEY": priv,
		"ACCESS_CONTROL_PUBLIC_KEY":  pub,
		"ACCESS_KEY_SECRET":          "secret",
		"REDIS_ADDR":                 "localhost:6379",
		"MEMBERSHIP_ORACLE_URL":      "https://oracle.test",
		"MEMBERSHIP_LOCKS":           "creator-pass=0xAbC",
	}
}

func getenv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(getenv(baseEnv(t)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || !cfg.MetricsEnabled || cfg.TrustProxyHeaders {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Engine.Audit.Enabled {
		t.Fatal("audit must stay off without DATABASE_URL")
	}
	if cfg.DevMode || cfg.OTelMetrics || cfg.OTelInterval != time.Minute {
		t.Fatalf("unexpected dev/otel defaults %+v", cfg)
	}
	if len(cfg.Locks) != 1 || cfg.Locks[0].Address != "0xabc" {
		t.Fatalf("unexpected locks %+v", cfg.Locks)
	}
	if cfg.Engine.RateLimit.Scopes[playgate.ScopeSigning].Requests != 10 {
		t.Fatal("expected default signing quota")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	env := baseEnv(t)
	env["PORT"] = "9090"
	env["RATE_LIMITS"] = "signing=3/30s, custom=100/1h"
	env["MEMBERSHIP_CACHE_TTL"] = "2m"
	env["TRUST_PROXY_HEADERS"] = "true"
	env["METRICS_ENABLED"] = "false"
	env["DATABASE_URL"] = "postgres://localhost/playgate"
	env["LOG_LEVEL"] = "debug"

	cfg, err := loadConfig(getenv(env))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Addr)
	}
	if got := cfg.Engine.RateLimit.Scopes[playgate.ScopeSigning]; got.Requests != 3 || got.Window != 30*time.Second {
		t.Fatalf("unexpected signing quota %+v", got)
	}
	if got := cfg.Engine.RateLimit.Scopes["custom"]; got.Requests != 100 || got.Window != time.Hour {
		t.Fatalf("unexpected custom quota %+v", got)
	}
	if cfg.MembershipCacheTTL != 2*time.Minute || !cfg.TrustProxyHeaders || cfg.MetricsEnabled || cfg.Engine.Metrics.Enabled {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if !cfg.Engine.Audit.Enabled || cfg.LogLevel != slog.LevelDebug {
		t.Fatal("expected audit on and debug logging")
	}
}

func TestLoadConfigRejectsMissingValues(t *testing.T) {
	tests := []struct {
		name string
		drop string
		set  map[string]string
		want string
	}{
		{name: "private key", drop: "ACCESS_CONTROL_PRIVATE_KEY", want: "ACCESS_CONTROL_PRIVATE_KEY"},
		{name: "public key", drop: "ACCESS_CONTROL_PUBLIC_KEY", want: "ACCESS_CONTROL_PUBLIC_KEY"},
		{name: "access key secret", drop: "ACCESS_KEY_SECRET", want: "ACCESS_KEY_SECRET"},
		{name: "blank access key secret", set: map[string]string{"ACCESS_KEY_SECRET": "  \t"}, want: "ACCESS_KEY_SECRET"},
		{name: "redis outside dev mode", drop: "REDIS_ADDR", want: "REDIS_ADDR"},
		{name: "oracle", drop: "MEMBERSHIP_ORACLE_URL", want: "MEMBERSHIP_ORACLE_URL"},
		{name: "locks", drop: "MEMBERSHIP_LOCKS", want: "MEMBERSHIP_LOCKS"},
		{name: "bad rate limit", set: map[string]string{"RATE_LIMITS": "signing=ten/1m"}, want: "RATE_LIMITS"},
		{name: "bad duration", set: map[string]string{"TOKEN_TTL": "forever"}, want: "TOKEN_TTL"},
		{name: "bad bool", set: map[string]string{"METRICS_ENABLED": "maybe"}, want: "METRICS_ENABLED"},
		{name: "bad otel switch", set: map[string]string{"OTEL_METRICS": "sometimes"}, want: "OTEL_METRICS"},
		{name: "bad otel interval", set: map[string]string{"OTEL_METRICS_INTERVAL": "0s"}, want: "OTEL_METRICS_INTERVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv(t)
			delete(env, tt.drop)
			for k, v := range tt.set {
				env[k] = v
			}
			_, err := loadConfig(getenv(env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
			if strings.Contains(err.Error(), env["ACCESS_CONTROL_PRIVATE_KEY"]) && env["ACCESS_CONTROL_PRIVATE_KEY"] != "" {
				t.Fatal("error leaked key material")
			}
		})
	}
}

func TestLoadConfigDevModeAllowsMissingRedis(t *testing.T) {
	env := baseEnv(t)
	delete(env, "REDIS_ADDR")
	env["DEV_MODE"] = "true"

	cfg, err := loadConfig(getenv(env))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.DevMode || cfg.RedisAddr != "" {
		t.Fatalf("unexpected dev config %+v", cfg)
	}
}

func TestLoadConfigOTelEnablesEngineMetrics(t *testing.T) {
	env := baseEnv(t)
	env["METRICS_ENABLED"] = "false"
	env["OTEL_METRICS"] = "true"
	env["OTEL_METRICS_INTERVAL"] = "15s"

	cfg, err := loadConfig(getenv(env))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MetricsEnabled || !cfg.OTelMetrics || cfg.OTelInterval != 15*time.Second {
		t.Fatalf("unexpected otel config %+v", cfg)
	}
	if !cfg.Engine.Metrics.Enabled || !cfg.Engine.Metrics.EnableLatencyHistograms {
		t.Fatal("engine metrics must be collected when only OTel export is on")
	}
}

func TestParseRateLimits(t *testing.T) {
	scopes := map[string]playgate.RateLimit{}
	if err := parseRateLimits(" login=5/1m ,, ", scopes); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if scopes["login"].Requests != 5 {
		t.Fatalf("unexpected scopes %+v", scopes)
	}
	for _, bad := range []string{"login", "login=5", "login=0/1m", "login=5/0s", "login=5/soon"} {
		if err := parseRateLimits(bad, scopes); err == nil {
			t.Errorf("expected %q to fail", bad)
		}
	}
}
