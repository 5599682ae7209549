package keys

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/playgate/jwt"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestNewSecret(t *testing.T) {
	a, err := NewSecret(nil)
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	raw, err := hex.DecodeString(a)
	if err != nil || len(raw) != SecretSize {
		t.Fatalf("expected %d hex bytes, got %q", SecretSize, a)
	}
	b, _ := NewSecret(nil)
	if a == b {
		t.Fatal("expected distinct secrets")
	}
	if _, err := NewSecret(failingReader{}); err == nil {
		t.Fatal("expected reader error")
	}
}

func TestNewPairSignsAndVerifies(t *testing.T) {
	for _, method := range []string{"es256", "ed25519"} {
		t.Run(method, func(t *testing.T) {
			pair, err := NewPair(method, nil)
			if err != nil {
				t.Fatalf("pair: %v", err)
			}
			priv, pub := pair.Base64()
			if dec, _ := base64.StdEncoding.DecodeString(priv); !bytes.Equal(dec, pair.Private) {
				t.Fatal("base64 private key does not round trip")
			}

			m, err := jwt.NewManager(jwt.Config{
				TTL:           time.Hour,
				SigningMethod: jwt.SigningMethod(method),
				PrivateKey:    []byte(priv),
				PublicKey:     []byte(pub),
				Issuer:        "https://issuer.test",
			})
			if err != nil {
				t.Fatalf("manager: %v", err)
			}
			token, _, err := m.Sign("abc", nil)
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := m.Parse(token); err != nil {
				t.Fatalf("parse: %v", err)
			}
		})
	}
}

func TestNewPairRejectsUnknownMethod(t *testing.T) {
	if _, err := NewPair("rsa", nil); err == nil {
		t.Fatal("expected error")
	}
}
