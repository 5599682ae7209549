package internaldefs

import (
	"github.com/MrEthical07/playgate"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   playgate.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   playgate.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for events dropped by the audit dispatcher.
const AuditDroppedName = "playgate_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: playgate.MetricPlaybackIssued, Name: "playgate_playback_issued_total", Help: "Signed playback authorizations."},
	{ID: playgate.MetricPlaybackInvalidInput, Name: "playgate_playback_invalid_input_total", Help: "Playback requests missing a playback id."},
	{ID: playgate.MetricPlaybackUnauthenticated, Name: "playgate_playback_unauthenticated_total", Help: "Playback requests without a viewer address."},
	{ID: playgate.MetricPlaybackForbidden, Name: "playgate_playback_forbidden_total", Help: "Playback requests from viewers without a valid membership."},
	{ID: playgate.MetricPlaybackRateLimited, Name: "playgate_playback_rate_limited_total", Help: "Playback requests denied by the signing quota."},
	{ID: playgate.MetricPlaybackUpstreamFailure, Name: "playgate_playback_upstream_failure_total", Help: "Playback requests failed by the counter store or membership oracle."},
	{ID: playgate.MetricPlaybackVerified, Name: "playgate_playback_verified_total", Help: "Playback tokens that verified."},
	{ID: playgate.MetricPlaybackVerifyFailed, Name: "playgate_playback_verify_failed_total", Help: "Playback tokens that failed verification."},
	{ID: playgate.MetricRateLimitHit, Name: "playgate_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: playgate.MetricRateLimitStoreFailure, Name: "playgate_rate_limit_store_failure_total", Help: "Rate-limit checks failed closed on store errors."},
	{ID: playgate.MetricAccessKeyGenerated, Name: "playgate_access_key_generated_total", Help: "Generated access keys."},
	{ID: playgate.MetricAccessKeyValidated, Name: "playgate_access_key_validated_total", Help: "Access keys that matched."},
	{ID: playgate.MetricAccessKeyRejected, Name: "playgate_access_key_rejected_total", Help: "Access keys that did not match."},
	{ID: playgate.MetricWebhookAllowed, Name: "playgate_webhook_allowed_total", Help: "Token-gate webhook calls allowed."},
	{ID: playgate.MetricWebhookDenied, Name: "playgate_webhook_denied_total", Help: "Token-gate webhook calls denied or failed."},
	{ID: playgate.MetricWebhookUpstreamFailure, Name: "playgate_webhook_upstream_failure_total", Help: "Token-gate webhook calls failed by the holdings checker."},
}

var HistogramDefs = []HistogramDef{
	{ID: playgate.MetricSignLatency, Name: "playgate_sign_latency_seconds", Help: "Playback authorization latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last engine
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine bucket count.
func NormalizeBuckets(raw []uint64) [playgate.HistogramBucketCount]uint64 {
	var out [playgate.HistogramBucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [playgate.HistogramBucketCount]uint64) [playgate.HistogramBucketCount]uint64 {
	var out [playgate.HistogramBucketCount]uint64
	var running uint64
	for i := range raw {
		running += raw[i]
		out[i] = running
	}
	return out
}
