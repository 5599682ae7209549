package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the playback token algorithm.
type SigningMethod string

const (
	// MethodES256 signs with ECDSA P-256, the format media platforms expect for
	// playback access tokens.
	MethodES256 SigningMethod = "es256"
	// MethodEd25519 signs with Ed25519.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared HMAC key.
	MethodHS256 SigningMethod = "hs256"
)

// DefaultAction is the action claim placed on playback tokens.
const DefaultAction = "pull"

// UserIDClaim is the custom claim that binds a token to the requester.
const UserIDClaim = "userId"

// Config describes the signing key material and claim defaults.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	// PrivateKey and PublicKey accept PEM, base64-encoded PEM, or (Ed25519 only) raw
	// key bytes. HS256 uses PrivateKey as the shared secret.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Action     string
	KeyID      string
	Leeway     time.Duration
	Now        func() time.Time
}

// PlaybackClaims are the claims of a playback authorization.
type PlaybackClaims struct {
	Action string            `json:"action,omitempty"`
	Custom map[string]string `json:"custom,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the requester the token was issued to.
func (c *PlaybackClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Custom[UserIDClaim]
}

// Manager signs and verifies playback tokens. Key material is parsed once in
// [NewManager] and never reloaded, so every token issued by one Manager is signed by
// the same key object.
type Manager struct {
	config    Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// NewManager validates cfg and parses its key material.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Action == "" {
		cfg.Action = DefaultAction
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodES256
	}

	m := &Manager{config: cfg}

	switch cfg.SigningMethod {
	case MethodES256:
		priv, pub, err := parseECKeys(cfg.PrivateKey, cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		m.method, m.signKey, m.verifyKey = jwt.SigningMethodES256, priv, pub
	case MethodEd25519:
		priv, pub, err := parseEdKeys(cfg.PrivateKey, cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		m.method, m.signKey, m.verifyKey = jwt.SigningMethodEdDSA, priv, pub
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a private key of at least 32 bytes")
		}
		key := append([]byte(nil), cfg.PrivateKey...)
		m.method, m.signKey, m.verifyKey = jwt.SigningMethodHS256, key, key
	default:
		return nil, errors.New("unsupported signing method")
	}

	return m, nil
}

// TTL returns the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Sign issues a token for subject with the given custom claims. It returns the
// compact token and its expiry.
func (m *Manager) Sign(subject string, custom map[string]string) (string, time.Time, error) {
	if m == nil || m.signKey == nil {
		return "", time.Time{}, errors.New("signing key not configured")
	}
	if subject == "" {
		return "", time.Time{}, errors.New("subject is required")
	}

	now := m.config.Now()
	exp := now.Add(m.config.TTL)

	claims := PlaybackClaims{
		Action: m.config.Action,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	if len(custom) > 0 {
		claims.Custom = make(map[string]string, len(custom))
		for k, v := range custom {
			claims.Custom[k] = v
		}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}

	signed, err := token.SignedString(m.signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	// NumericDate truncates to seconds; report what the token actually says.
	return signed, claims.ExpiresAt.Time, nil
}

// Parse verifies tokenStr and returns its claims. The algorithm is pinned to the
// configured method and the issuer must match.
func (m *Manager) Parse(tokenStr string) (*PlaybackClaims, error) {
	if m == nil || m.verifyKey == nil {
		return nil, errors.New("verification key not configured")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &PlaybackClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if m.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			if kid != m.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return m.verifyKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*PlaybackClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// decodePEM accepts PEM text or base64-encoded PEM, which is how key material usually
// travels through environment variables.
func decodePEM(key []byte) []byte {
	trimmed := strings.TrimSpace(string(key))
	if strings.HasPrefix(trimmed, "-----BEGIN") {
		return []byte(trimmed)
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding} {
		decoded, err := enc.DecodeString(trimmed)
		if err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "-----BEGIN") {
			return decoded
		}
	}
	return key
}

func parseECKeys(privRaw, pubRaw []byte) (*ecdsa.PrivateKey, *ecdsa.PublicKey, error) {
	if len(privRaw) == 0 || len(pubRaw) == 0 {
		return nil, nil, errors.New("es256 requires private and public key")
	}
	priv, err := jwt.ParseECPrivateKeyFromPEM(decodePEM(privRaw))
	if err != nil {
		return nil, nil, errors.New("invalid es256 private key")
	}
	pub, err := jwt.ParseECPublicKeyFromPEM(decodePEM(pubRaw))
	if err != nil {
		return nil, nil, errors.New("invalid es256 public key")
	}
	if priv.Curve != elliptic.P256() || pub.Curve != elliptic.P256() {
		return nil, nil, errors.New("es256 keys must use curve P-256")
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, nil, errors.New("es256 public key does not match private key")
	}
	return priv, pub, nil
}

func parseEdKeys(privRaw, pubRaw []byte) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	if len(privRaw) == 0 || len(pubRaw) == 0 {
		return nil, nil, errors.New("ed25519 requires private and public key")
	}
	priv, err := parseEdPrivateKey(privRaw)
	if err != nil {
		return nil, nil, err
	}
	pub, err := parseEdPublicKey(pubRaw)
	if err != nil {
		return nil, nil, err
	}
	if !pub.Equal(priv.Public()) {
		return nil, nil, errors.New("ed25519 public key does not match private key")
	}
	return priv, pub, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(decodePEM(key))
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(decodePEM(key))
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
