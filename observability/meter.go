package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a periodic OTLP/HTTP meter provider as the global one.
// The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config, svc ServiceInfo) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Instrument names.
const (
	MetricTokensIssued       = "auth.tokens.issued"
	MetricValidationFailures = "auth.validation.failures"
	MetricAccessDenied       = "auth.access.denied"
	MetricLogins             = "auth.logins"
	MetricRequestDuration    = "http.server.request.duration"
)

// Login results.
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginLockedOut   = "locked_out"
	LoginUnavailable = "error"
)

// Metrics holds the authentication instruments. A nil *Metrics records
// nothing, so callers need not guard every call.
type Metrics struct {
	tokensIssued       metric.Int64Counter
	validationFailures metric.Int64Counter
	accessDenied       metric.Int64Counter
	logins             metric.Int64Counter
	requestDuration    metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	tokensIssued, err := meter.Int64Counter(MetricTokensIssued,
		metric.WithDescription("Access tokens issued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricTokensIssued, err)
	}

	validationFailures, err := meter.Int64Counter(MetricValidationFailures,
		metric.WithDescription("Bearer tokens rejected, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricValidationFailures, err)
	}

	accessDenied, err := meter.Int64Counter(MetricAccessDenied,
		metric.WithDescription("Requests denied by the access enforcer, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricAccessDenied, err)
	}

	logins, err := meter.Int64Counter(MetricLogins,
		metric.WithDescription("Login attempts, by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricLogins, err)
	}

	requestDuration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRequestDuration, err)
	}

	return &Metrics{
		tokensIssued:       tokensIssued,
		validationFailures: validationFailures,
		accessDenied:       accessDenied,
		logins:             logins,
		requestDuration:    requestDuration,
	}, nil
}

// TokenIssued counts one issued token signed with keyID.
func (m *Metrics) TokenIssued(ctx context.Context, keyID string) {
	if m == nil {
		return
	}
	m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("kid", keyID)))
}

// ValidationFailure counts one rejected token.
func (m *Metrics) ValidationFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.validationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// AccessDenied counts one denied request; kind is "unauthenticated" or "forbidden".
func (m *Metrics) AccessDenied(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.accessDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Login counts one login attempt.
func (m *Metrics) Login(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	))
}
