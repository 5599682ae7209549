package playgate

import (
	"io"
	"time"

	"github.com/MrEthical07/playgate/accesskey"
	internalaudit "github.com/MrEthical07/playgate/internal/audit"
	internalmetrics "github.com/MrEthical07/playgate/internal/metrics"
)

// PlaybackRequest asks for a playback authorization for one piece of content.
// ClientAddr keys the rate limiter; an empty value shares the "unknown" bucket.
type PlaybackRequest struct {
	PlaybackID  string
	UserAddress string
	ClientAddr  string
}

// PlaybackGrant is a signed playback authorization.
type PlaybackGrant struct {
	Token     string
	ExpiresAt time.Time
	RateLimit RateLimitDecision
}

// PlaybackClaims are the verified claims of a playback token.
type PlaybackClaims struct {
	PlaybackID  string
	UserAddress string
	Action      string
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// WebhookRequest is a token-gate webhook call from the media platform. Address is the
// viewer the access key was generated for.
type WebhookRequest struct {
	AccessKey string
	Address   string
	Rules     accesskey.TokenGateRules
	Timestamp time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// AuditSinkFunc adapts a function to [AuditSink].
type AuditSinkFunc = internalaudit.SinkFunc

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// MultiSink fans events out to several sinks.
type MultiSink = internalaudit.MultiSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram in the in-process metrics
// system.
type MetricID = internalmetrics.MetricID

const (
	MetricPlaybackIssued          = internalmetrics.MetricPlaybackIssued
	MetricPlaybackInvalidInput    = internalmetrics.MetricPlaybackInvalidInput
	MetricPlaybackUnauthenticated = internalmetrics.MetricPlaybackUnauthenticated
	MetricPlaybackForbidden       = internalmetrics.MetricPlaybackForbidden
	MetricPlaybackRateLimited     = internalmetrics.MetricPlaybackRateLimited
	MetricPlaybackUpstreamFailure = internalmetrics.MetricPlaybackUpstreamFailure
	MetricPlaybackVerified        = internalmetrics.MetricPlaybackVerified
	MetricPlaybackVerifyFailed    = internalmetrics.MetricPlaybackVerifyFailed
	MetricRateLimitHit            = internalmetrics.MetricRateLimitHit
	MetricRateLimitStoreFailure   = internalmetrics.MetricRateLimitStoreFailure
	MetricAccessKeyGenerated      = internalmetrics.MetricAccessKeyGenerated
	MetricAccessKeyValidated      = internalmetrics.MetricAccessKeyValidated
	MetricAccessKeyRejected       = internalmetrics.MetricAccessKeyRejected
	MetricWebhookAllowed          = internalmetrics.MetricWebhookAllowed
	MetricWebhookDenied           = internalmetrics.MetricWebhookDenied
	MetricWebhookUpstreamFailure  = internalmetrics.MetricWebhookUpstreamFailure
	MetricSignLatency             = internalmetrics.MetricSignLatency
	MetricIDCount                 = internalmetrics.MetricIDCount
)

// HistogramBucketCount is the number of buckets in every latency histogram.
const HistogramBucketCount = internalmetrics.HistogramBucketCount

// Metrics is the engine's in-process metric registry.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance configured by cfg. When Enabled is false,
// all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
