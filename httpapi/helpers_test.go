package httpapi

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/playgate"
	"github.com/MrEthical07/playgate/membership"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fixture struct {
	engine   *playgate.Engine
	handler  http.Handler
	mr       *miniredis.Miniredis
	oracle   *membership.StaticOracle
	holdings *membership.StaticHoldings
}

func newFixture(t *testing.T, mutate func(*playgate.Config)) *fixture {
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

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, _ := x509.MarshalECPrivateKey(key)
	pubDER, _ := x509.MarshalPKIXPublicKey(&key.PublicKey)

	cfg := playgate.DefaultConfig()
	cfg.Signer.PrivateKey = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	cfg.Signer.PublicKey = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	cfg.AccessKey.Secret = "http-test-secret"
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{
		mr:       mr,
		oracle:   membership.NewStaticOracle(),
		holdings: membership.NewStaticHoldings(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := playgate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMembershipOracle(f.oracle).
		WithHoldingChecker(f.holdings).
		WithLogger(logger).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	f.engine = engine
	f.handler = NewRouter(Options{Engine: engine, TrustProxyHeaders: true, Logger: logger})
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}
