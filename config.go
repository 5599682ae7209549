package playgate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/playgate/internal/rate"
	"github.com/MrEthical07/playgate/jwt"
)

// Rate limit scopes shipped in the default table.
const (
	ScopeDefault   = rate.DefaultScope
	ScopeSignup    = "signup"
	ScopeLogin     = "login"
	ScopePassword  = "password"
	ScopeSigning   = "signing"
	ScopeTokenGate = "token-gate"
)

// DefaultIssuer is the iss claim of playback tokens unless configured otherwise.
const DefaultIssuer = "https://crtv3.app"

// BaseChainID is the only chain the token-gate webhook accepts by default.
const BaseChainID int64 = 8453

// Config is the complete engine configuration. Build copies it; later changes to the
// caller's value have no effect on a running engine.
type Config struct {
	Signer     SignerConfig
	AccessKey  AccessKeyConfig
	RateLimit  RateLimitConfig
	Membership MembershipConfig
	Webhook    WebhookConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
SIGNER CONFIG
====================================
*/

// SignerConfig holds the playback token key material and claim defaults.
type SignerConfig struct {
	TokenTTL      time.Duration
	SigningMethod string // "es256" (default), "ed25519", or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Action        string
	KeyID         string
	Leeway        time.Duration
}

/*
====================================
ACCESS KEY CONFIG
====================================
*/

// AccessKeyConfig holds the shared HMAC secret. An empty secret is allowed at build
// time and reported as [ErrConfiguration] on first use.
type AccessKeyConfig struct {
	Secret string
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig is the limiter scope table and store bounds.
type RateLimitConfig struct {
	Prefix       string
	Scopes       map[string]RateLimit
	StoreTimeout time.Duration
}

// RateLimit is the quota of one scope.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

/*
====================================
MEMBERSHIP CONFIG
====================================
*/

// MembershipConfig bounds calls to the membership oracle and holdings checker.
type MembershipConfig struct {
	Timeout time.Duration
}

/*
====================================
WEBHOOK CONFIG
====================================
*/

// WebhookConfig controls token-gate webhook acceptance.
type WebhookConfig struct {
	MaxTimestampSkew time.Duration
	SupportedChains  []int64
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metric collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. Key material and the access-key
// secret are left empty.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Signer: SignerConfig{
			TokenTTL:      time.Hour,
			SigningMethod: string(jwt.MethodES256),
			Issuer:        DefaultIssuer,
			Action:        jwt.DefaultAction,
		},
		RateLimit: RateLimitConfig{
			Prefix: "rl",
			Scopes: map[string]RateLimit{
				ScopeDefault:   {Requests: 20, Window: time.Minute},
				ScopeSignup:    {Requests: 5, Window: time.Minute},
				ScopeLogin:     {Requests: 10, Window: time.Minute},
				ScopePassword:  {Requests: 3, Window: 5 * time.Minute},
				ScopeSigning:   {Requests: 10, Window: time.Minute},
				ScopeTokenGate: {Requests: 20, Window: time.Minute},
			},
			StoreTimeout: 250 * time.Millisecond,
		},
		Membership: MembershipConfig{
			Timeout: 3 * time.Second,
		},
		Webhook: WebhookConfig{
			MaxTimestampSkew: 5 * time.Minute,
			SupportedChains:  []int64{BaseChainID},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Signer.PrivateKey = cloneBytes(cfg.Signer.PrivateKey)
	out.Signer.PublicKey = cloneBytes(cfg.Signer.PublicKey)
	if cfg.RateLimit.Scopes != nil {
		out.RateLimit.Scopes = make(map[string]RateLimit, len(cfg.RateLimit.Scopes))
		for k, v := range cfg.RateLimit.Scopes {
			out.RateLimit.Scopes[k] = v
		}
	}
	out.Webhook.SupportedChains = append([]int64(nil), cfg.Webhook.SupportedChains...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cfg for values the engine cannot run with. It never echoes key
// material in its errors.
func (c *Config) Validate() error {
	// Signer
	if c.Signer.TokenTTL <= 0 {
		return errors.New("Signer TokenTTL must be > 0")
	}
	if strings.TrimSpace(c.Signer.Issuer) == "" {
		return errors.New("Signer Issuer is required")
	}
	if c.Signer.Leeway < 0 || c.Signer.Leeway > 2*time.Minute {
		return errors.New("Signer Leeway must be between 0 and 2m")
	}
	switch jwt.SigningMethod(c.Signer.SigningMethod) {
	case jwt.MethodES256, jwt.MethodEd25519:
		if len(c.Signer.PrivateKey) == 0 {
			return errors.New("Signer PrivateKey is required")
		}
		if len(c.Signer.PublicKey) == 0 {
			return errors.New("Signer PublicKey is required")
		}
	case jwt.MethodHS256:
		if len(c.Signer.PrivateKey) < 32 {
			return errors.New("Signer hs256 PrivateKey must be >= 32 bytes")
		}
	default:
		return errors.New("unsupported Signer SigningMethod")
	}

	// Rate limit
	if len(c.RateLimit.Scopes) == 0 {
		return errors.New("RateLimit Scopes must not be empty")
	}
	if _, ok := c.RateLimit.Scopes[ScopeDefault]; !ok {
		return errors.New("RateLimit Scopes must include the default scope")
	}
	if _, ok := c.RateLimit.Scopes[ScopeSigning]; !ok {
		return errors.New("RateLimit Scopes must include the signing scope")
	}
	for name, l := range c.RateLimit.Scopes {
		if strings.TrimSpace(name) == "" {
			return errors.New("RateLimit scope name must not be empty")
		}
		if l.Requests <= 0 {
			return fmt.Errorf("RateLimit scope %q Requests must be > 0", name)
		}
		if l.Window < time.Millisecond {
			return fmt.Errorf("RateLimit scope %q Window must be >= 1ms", name)
		}
	}
	if c.RateLimit.StoreTimeout <= 0 {
		return errors.New("RateLimit StoreTimeout must be > 0")
	}

	// Membership
	if c.Membership.Timeout <= 0 {
		return errors.New("Membership Timeout must be > 0")
	}

	// Webhook
	if c.Webhook.MaxTimestampSkew <= 0 {
		return errors.New("Webhook MaxTimestampSkew must be > 0")
	}
	if len(c.Webhook.SupportedChains) == 0 {
		return errors.New("Webhook SupportedChains must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning is a configuration smell that Validate accepts.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that are valid but probably unintended.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if c.Signer.TokenTTL > time.Hour {
		add("token_ttl_long", "playback tokens outlive one hour")
	}
	if c.Signer.Leeway > time.Minute {
		add("leeway_large", "token verification leeway exceeds one minute")
	}
	if jwt.SigningMethod(c.Signer.SigningMethod) == jwt.MethodHS256 {
		add("signer_symmetric", "hs256 tokens can be minted by anyone who can verify them")
	}
	if strings.TrimSpace(c.AccessKey.Secret) == "" {
		add("access_key_secret_unset", "access key operations will fail until a secret is configured")
	}
	if l, ok := c.RateLimit.Scopes[ScopeSigning]; ok && l.Window > 0 && float64(l.Requests)/l.Window.Minutes() > 100 {
		add("signing_limit_high", "signing scope allows more than 100 requests per minute")
	}
	if c.RateLimit.StoreTimeout > time.Second {
		add("store_timeout_long", "rate limit store calls may block for over a second")
	}
	if c.Membership.Timeout > 5*time.Second {
		add("membership_timeout_long", "membership checks may block for over five seconds")
	}
	if c.Webhook.MaxTimestampSkew > 5*time.Minute {
		add("webhook_skew_large", "webhook replay window exceeds five minutes")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", "a slow audit sink will add latency to every request")
	}

	return ws
}
