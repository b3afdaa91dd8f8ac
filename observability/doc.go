// Package observability wires OpenTelemetry tracing and metrics and defines
// the authentication instruments.
//
//	comp := observability.NewComponent(cfg.Telemetry, cfg.Service)
//	registry.Register(comp)
//
//	metrics, err := observability.NewMetrics(observability.Meter("authgate"))
//	metrics.ValidationFailure(ctx, "expired")
//
//	ctx, span := observability.StartSpan(ctx, "account.login")
//	defer span.End()
package observability
