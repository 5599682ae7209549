package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

// FuzzParse feeds arbitrary token strings to the verifier. Invalid input must be
// rejected with an error, never a panic.
func FuzzParse(f *testing.F) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		f.Fatal(err)
	}
	mgr, err := NewManager(Config{
		TTL:           5 * time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "fuzz-test",
		Leeway:        30 * time.Second,
		KeyID:         "k1",
	})
	if err != nil {
		f.Fatal(err)
	}

	validToken, _, err := mgr.Sign("playback-1", map[string]string{UserIDClaim: "0xabc"})
	if err != nil {
		f.Fatal(err)
	}

	f.Add(validToken)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0.")
	f.Add(validToken + "x")
	f.Add(validToken[:len(validToken)/2])

	f.Fuzz(func(t *testing.T, token string) {
		claims, err := mgr.Parse(token)
		if err == nil && claims.Subject == "" {
			t.Fatal("accepted a token without a subject")
		}
	})
}
