package observability

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/authgate/component"
)

// Component installs the tracer and meter providers on Start and flushes
// them on Stop. It does nothing when telemetry is disabled.
type Component struct {
	cfg Config
	svc ServiceInfo
	tp  *sdktrace.TracerProvider
	mp  *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component.
func NewComponent(cfg Config, svc ServiceInfo) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, svc: svc}
}

func (c *Component) Name() string { return "telemetry" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	tp, err := InitTracer(ctx, c.cfg, c.svc)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.cfg, c.svc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	c.tp, c.mp = tp, mp
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health is always healthy; export failures are retried by the SDK and never
// block serving.
func (c *Component) Health(context.Context) component.Health {
	msg := "disabled"
	if c.cfg.Enabled {
		msg = c.cfg.Endpoint
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: msg}
}
