package playgate

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MrEthical07/playgate/membership"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testAccessKeySecret = "test-access-key-secret"

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func testSigningKeys(t testing.TB) (privPEM, pubPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
}

func testConfig(t testing.TB) Config {
	t.Helper()
	priv, pub := testSigningKeys(t)
	cfg := DefaultConfig()
	cfg.Signer.PrivateKey = priv
	cfg.Signer.PublicKey = pub
	cfg.AccessKey.Secret = testAccessKeySecret
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testEngine struct {
	*Engine
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	oracle   *membership.StaticOracle
	holdings *membership.StaticHoldings
	now      time.Time
}

type engineOption func(*Builder, *Config)

func newTestEngine(t *testing.T, opts ...engineOption) *testEngine {
	t.Helper()
	mr, rdb := newTestRedis(t)
	te := &testEngine{
		mr:       mr,
		rdb:      rdb,
		oracle:   membership.NewStaticOracle(),
		holdings: membership.NewStaticHoldings(),
		now:      time.Unix(1_700_000_000, 0),
	}

	cfg := testConfig(t)
	b := New().
		WithRedis(rdb).
		WithMembershipOracle(te.oracle).
		WithHoldingChecker(te.holdings).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithClock(func() time.Time { return te.now })
	for _, opt := range opts {
		opt(b, &cfg)
	}
	b.WithConfig(cfg)

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	te.Engine = engine
	return te
}

func withAudit(sink AuditSink) engineOption {
	return func(b *Builder, cfg *Config) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 64
		b.WithAuditSink(sink)
	}
}
