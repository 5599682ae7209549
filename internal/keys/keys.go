package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

// SecretSize is the byte length of a generated access-key secret.
const SecretSize = 32

// Pair is a PEM encoded signing key pair.
type Pair struct {
	Private []byte
	Public  []byte
}

// Base64 returns both halves as single-line base64 PEM, the form environment
// variables carry.
func (p Pair) Base64() (priv, pub string) {
	return base64.StdEncoding.EncodeToString(p.Private), base64.StdEncoding.EncodeToString(p.Public)
}

// NewSecret returns a hex encoded random secret of SecretSize bytes.
func NewSecret(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	var raw [SecretSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewPair generates a key pair for method ("es256" or "ed25519").
func NewPair(method string, r io.Reader) (Pair, error) {
	if r == nil {
		r = rand.Reader
	}

	var (
		priv any
		pub  any
	)
	switch method {
	case "es256":
		k, err := ecdsa.GenerateKey(elliptic.P256(), r)
		if err != nil {
			return Pair{}, err
		}
		priv, pub = k, &k.PublicKey
	case "ed25519":
		pk, sk, err := ed25519.GenerateKey(r)
		if err != nil {
			return Pair{}, err
		}
		priv, pub = sk, pk
	default:
		return Pair{}, fmt.Errorf("unsupported key method %q", method)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return Pair{}, err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return Pair{}, err
	}
	out := Pair{
		Private: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		Public:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
	}
	if len(out.Private) == 0 || len(out.Public) == 0 {
		return Pair{}, errors.New("pem encoding failed")
	}
	return out, nil
}
