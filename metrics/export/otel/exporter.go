package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/playgate"
	"github.com/MrEthical07/playgate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() playgate.MetricsSnapshot
	AuditDropped() uint64
}

// Instrument names. Engine counters are grouped into one instrument per family and
// told apart by an attribute.
const (
	PlaybackRequestsName   = "playgate.playback.requests"
	PlaybackVerifyName     = "playgate.playback.verifications"
	RateLimitEventsName    = "playgate.rate_limit.events"
	AccessKeyOpsName       = "playgate.access_key.operations"
	WebhookDecisionsName   = "playgate.webhook.decisions"
	AuditDroppedName       = "playgate.audit.dropped"
	SignLatencyBucketName  = "playgate.sign.latency.bucket"
	SignLatencyCountName   = "playgate.sign.latency.count"
	SignLatencySumName     = "playgate.sign.latency.sum"
	signLatencyBoundAttr   = "le"
	signLatencyInfBoundTag = "+Inf"
)

type member struct {
	id    playgate.MetricID
	value string
}

type family struct {
	name    string
	help    string
	attr    string
	members []member
}

var families = []family{
	{
		name: PlaybackRequestsName,
		help: "Playback authorization requests by outcome.",
		attr: "outcome",
		members: []member{
			{playgate.MetricPlaybackIssued, "issued"},
			{playgate.MetricPlaybackInvalidInput, "invalid_input"},
			{playgate.MetricPlaybackUnauthenticated, "unauthenticated"},
			{playgate.MetricPlaybackForbidden, "forbidden"},
			{playgate.MetricPlaybackRateLimited, "rate_limited"},
			{playgate.MetricPlaybackUpstreamFailure, "upstream_failure"},
		},
	},
	{
		name: PlaybackVerifyName,
		help: "Playback token verifications by result.",
		attr: "result",
		members: []member{
			{playgate.MetricPlaybackVerified, "ok"},
			{playgate.MetricPlaybackVerifyFailed, "failed"},
		},
	},
	{
		name: RateLimitEventsName,
		help: "Rate-limit denials and fail-closed store errors.",
		attr: "event",
		members: []member{
			{playgate.MetricRateLimitHit, "denied"},
			{playgate.MetricRateLimitStoreFailure, "store_failure"},
		},
	},
	{
		name: AccessKeyOpsName,
		help: "Access key generations and validations.",
		attr: "op",
		members: []member{
			{playgate.MetricAccessKeyGenerated, "generated"},
			{playgate.MetricAccessKeyValidated, "validated"},
			{playgate.MetricAccessKeyRejected, "rejected"},
		},
	},
	{
		name: WebhookDecisionsName,
		help: "Token-gate webhook decisions.",
		attr: "decision",
		members: []member{
			{playgate.MetricWebhookAllowed, "allowed"},
			{playgate.MetricWebhookDenied, "denied"},
			{playgate.MetricWebhookUpstreamFailure, "upstream_failure"},
		},
	},
}

type observation struct {
	id    playgate.MetricID
	inst  metric.Int64ObservableCounter
	attrs metric.ObserveOption
}

// Exporter publishes engine snapshots through observable instruments. One
// callback reads a single snapshot per collection so every instrument reports
// the same instant.
type Exporter struct {
	source       metricsSource
	registration metric.Registration

	counters     []observation
	auditDropped metric.Int64ObservableCounter

	latencyBuckets metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableGauge
	latencySum     metric.Float64ObservableGauge
	bucketAttrs    [playgate.HistogramBucketCount]metric.ObserveOption
}

// Register creates the playgate instruments on meter, reading from engine.
func Register(meter metric.Meter, engine *playgate.Engine) (*Exporter, error) {
	return RegisterSource(meter, engine)
}

// RegisterSource is [Register] over any snapshot source.
func RegisterSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	var observables []metric.Observable

	for _, f := range families {
		inst, err := meter.Int64ObservableCounter(f.name, metric.WithDescription(f.help))
		if err != nil {
			return nil, fmt.Errorf("instrument %s: %w", f.name, err)
		}
		observables = append(observables, inst)
		for _, m := range f.members {
			e.counters = append(e.counters, observation{
				id:    m.id,
				inst:  inst,
				attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String(f.attr, m.value))),
			})
		}
	}

	var err error
	if e.auditDropped, err = meter.Int64ObservableCounter(AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp)); err != nil {
		return nil, fmt.Errorf("instrument %s: %w", AuditDroppedName, err)
	}
	if e.latencyBuckets, err = meter.Int64ObservableGauge(SignLatencyBucketName,
		metric.WithDescription("Cumulative playback signing latency samples at or under the le bound (seconds).")); err != nil {
		return nil, fmt.Errorf("instrument %s: %w", SignLatencyBucketName, err)
	}
	if e.latencyCount, err = meter.Int64ObservableGauge(SignLatencyCountName,
		metric.WithDescription("Playback signing latency samples.")); err != nil {
		return nil, fmt.Errorf("instrument %s: %w", SignLatencyCountName, err)
	}
	if e.latencySum, err = meter.Float64ObservableGauge(SignLatencySumName,
		metric.WithDescription("Total playback signing latency."), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("instrument %s: %w", SignLatencySumName, err)
	}
	observables = append(observables, e.auditDropped, e.latencyBuckets, e.latencyCount, e.latencySum)

	for i := range e.bucketAttrs {
		bound := signLatencyInfBoundTag
		if i < len(internaldefs.HistogramUpperBounds) {
			bound = strconv.FormatFloat(internaldefs.HistogramUpperBounds[i], 'g', -1, 64)
		}
		e.bucketAttrs[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String(signLatencyBoundAttr, bound)))
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.inst, int64(snap.Counters[c.id]), c.attrs)
	}

	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[playgate.MetricSignLatency]))
	for i, n := range cumulative {
		o.ObserveInt64(e.latencyBuckets, int64(n), e.bucketAttrs[i])
	}
	o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	o.ObserveFloat64(e.latencySum, snap.HistogramSums[playgate.MetricSignLatency].Seconds())

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
