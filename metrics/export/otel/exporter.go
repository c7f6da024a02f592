package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no snapshot source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

// Instrument names.
const (
	LoginAttempts  = "authcore.login.attempts"
	ReauthAttempts = "authcore.reauth.attempts"
	Sessions       = "authcore.sessions"
	RememberWrites = "authcore.remember.writes"
	Logouts        = "authcore.logouts"
	LatencyBucket  = "authcore.login.latency.bucket"
	LatencyCount   = "authcore.login.latency.count"
)

// Source supplies metric snapshots. *authcore.Engine satisfies it.
type Source interface {
	MetricsSnapshot() authcore.MetricsSnapshot
}

// series is one engine counter observed under a fixed attribute set.
type series struct {
	id    authcore.MetricID
	attrs metric.ObserveOption
}

type counterSpec struct {
	name   string
	desc   string
	series []series
}

func withAttr(key, value string) metric.ObserveOption {
	return metric.WithAttributes(attribute.String(key, value))
}

var counterSpecs = []counterSpec{
	{
		name: LoginAttempts,
		desc: "Password logins by outcome.",
		series: []series{
			{authcore.MetricLoginSuccess, withAttr("outcome", "success")},
			{authcore.MetricLoginUserNotExist, withAttr("outcome", "user_not_exist")},
			{authcore.MetricLoginIncorrectPassword, withAttr("outcome", "incorrect_password")},
		},
	},
	{
		name: ReauthAttempts,
		desc: "Silent re-authentications by outcome.",
		series: []series{
			{authcore.MetricReauthSuccess, withAttr("outcome", "success")},
			{authcore.MetricReauthFailure, withAttr("outcome", "failure")},
		},
	},
	{
		name: Sessions,
		desc: "Session lifecycle events.",
		series: []series{
			{authcore.MetricSessionCreated, withAttr("event", "created")},
			{authcore.MetricSessionRevoked, withAttr("event", "revoked")},
		},
	},
	{
		name: RememberWrites,
		desc: "Remember entry writes by result.",
		series: []series{
			{authcore.MetricRememberIssued, withAttr("result", "issued")},
			{authcore.MetricRememberWriteFailed, withAttr("result", "failed")},
		},
	},
	{
		name:   Logouts,
		desc:   "Successful logouts.",
		series: []series{{id: authcore.MetricLogout}},
	},
}

type observedCounter struct {
	instrument metric.Int64ObservableCounter
	series     []series
}

// OTelExporter observes engine snapshots into OTel instruments until Close.
type OTelExporter struct {
	source       Source
	registration metric.Registration

	counters     []observedCounter
	latency      metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	bucketAttrs  []metric.ObserveOption
}

// NewOTelExporter registers instruments for engine on meter.
func NewOTelExporter(meter metric.Meter, engine *authcore.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments for any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	observables := make([]metric.Observable, 0, len(counterSpecs)+2)

	for _, spec := range counterSpecs {
		ins, err := meter.Int64ObservableCounter(spec.name, metric.WithDescription(spec.desc), metric.WithUnit("{event}"))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", spec.name, err)
		}
		e.counters = append(e.counters, observedCounter{instrument: ins, series: spec.series})
		observables = append(observables, ins)
	}

	var err error
	e.latency, err = meter.Int64ObservableGauge(LatencyBucket,
		metric.WithDescription("Cumulative login latency samples at or below le seconds."),
		metric.WithUnit("{sample}"))
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", LatencyBucket, err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge(LatencyCount,
		metric.WithDescription("Login latency samples recorded."),
		metric.WithUnit("{sample}"))
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", LatencyCount, err)
	}
	observables = append(observables, e.latency, e.latencyCount)

	for _, bound := range internaldefs.HistogramUpperBounds {
		e.bucketAttrs = append(e.bucketAttrs, withAttr("le", strconv.FormatFloat(bound, 'g', -1, 64)))
	}
	e.bucketAttrs = append(e.bucketAttrs, withAttr("le", "+Inf"))

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		for _, s := range c.series {
			if s.attrs == nil {
				o.ObserveInt64(c.instrument, int64(snap.Counters[s.id]))
				continue
			}
			o.ObserveInt64(c.instrument, int64(snap.Counters[s.id]), s.attrs)
		}
	}

	raw, ok := snap.Histograms[authcore.MetricLoginLatency]
	if !ok {
		return nil
	}
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	for i, attrs := range e.bucketAttrs {
		o.ObserveInt64(e.latency, int64(cumulative[i]), attrs)
	}
	o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
