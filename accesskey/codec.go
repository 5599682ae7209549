package accesskey

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrSecretUnset is returned when no shared secret is configured.
	ErrSecretUnset = errors.New("access key secret is not configured")
	// ErrEmptyIdentity is returned when the identity is empty or whitespace.
	ErrEmptyIdentity = errors.New("access key identity is empty")
	// ErrInvalidIdentity is returned when the identity is not valid UTF-8.
	ErrInvalidIdentity = errors.New("access key identity is not valid UTF-8")
	// ErrInvalidContext is returned when the context cannot be canonicalized.
	ErrInvalidContext = errors.New("access key context is invalid")
)

// Canonicalize returns the stable byte encoding of (identity, ctx) that access keys
// are computed over.
func Canonicalize(identity string, ctx Context) ([]byte, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrEmptyIdentity
	}
	// encoding/json rewrites invalid bytes to U+FFFD, which would let distinct
	// identities share a key.
	if !utf8.ValidString(identity) {
		return nil, ErrInvalidIdentity
	}

	rules, err := ctx.rulesJSON()
	if err != nil {
		return nil, err
	}
	generic, err := decodeGeneric(rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}
	if ctx.Kind != KindTokenGate && hasReplacementRune(generic) {
		return nil, fmt.Errorf("%w: opaque rules contain U+FFFD or a lone surrogate escape", ErrInvalidContext)
	}

	// encoding/json writes map keys in sorted order at every level.
	envelope := map[string]any{
		"identity": identity,
		"context": map[string]any{
			"type":  string(ctx.Kind),
			"rules": generic,
		},
	}
	out, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}
	return out, nil
}

func decodeGeneric(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after rules")
	}
	return v, nil
}

// hasReplacementRune reports whether any decoded string or object key holds U+FFFD.
// The decoder produces it for lone surrogate escapes, so distinct inputs could
// otherwise canonicalize alike.
func hasReplacementRune(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.ContainsRune(t, utf8.RuneError)
	case []any:
		for _, e := range t {
			if hasReplacementRune(e) {
				return true
			}
		}
	case map[string]any:
		for k, e := range t {
			if strings.ContainsRune(k, utf8.RuneError) || hasReplacementRune(e) {
				return true
			}
		}
	}
	return false
}

// Codec generates and validates access keys with one shared secret.
type Codec struct {
	secret []byte
}

// New creates a [Codec]. An empty or whitespace-only secret is accepted here and
// reported as [ErrSecretUnset] on first use.
func New(secret string) *Codec {
	if strings.TrimSpace(secret) == "" {
		return &Codec{}
	}
	return &Codec{secret: []byte(secret)}
}

// Generate returns the hex access key for (identity, ctx).
func (c *Codec) Generate(identity string, ctx Context) (string, error) {
	sum, err := c.digest(identity, ctx)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// Validate reports whether candidate is the access key for (identity, ctx).
//
// A mismatch, malformed hex, or an identity/context that cannot produce a key all
// return false with a nil error. Only a missing secret is returned as an error.
func (c *Codec) Validate(candidate, identity string, ctx Context) (bool, error) {
	if c == nil || len(c.secret) == 0 {
		return false, ErrSecretUnset
	}

	expected, err := c.digest(identity, ctx)
	if err != nil {
		expected = make([]byte, sha256.Size)
	}
	wellFormed := err == nil

	given, decErr := hex.DecodeString(candidate)
	if decErr != nil || len(given) != sha256.Size {
		given = make([]byte, sha256.Size)
		wellFormed = false
	}

	match := subtle.ConstantTimeCompare(expected, given) == 1
	return match && wellFormed, nil
}

func (c *Codec) digest(identity string, ctx Context) ([]byte, error) {
	if c == nil || len(c.secret) == 0 {
		return nil, ErrSecretUnset
	}
	msg, err := Canonicalize(identity, ctx)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write(msg)
	return mac.Sum(nil), nil
}

// GenerateAccessKey is the function form of [Codec.Generate].
func GenerateAccessKey(identity string, ctx Context, secret string) (string, error) {
	return New(secret).Generate(identity, ctx)
}

// ValidateAccessKey is the function form of [Codec.Validate].
func ValidateAccessKey(candidate, identity string, ctx Context, secret string) (bool, error) {
	return New(secret).Validate(candidate, identity, ctx)
}
