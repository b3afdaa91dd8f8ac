package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/authgate/component"
	"github.com/kbukum/authgate/logger"
)

// ComponentName is the name the redis component registers and reports under.
const ComponentName = "redis"

// Component owns the Client for the application lifetime.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
}

var _ component.Component = (*Component)(nil)

// NewComponent prepares a component; the client is created on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log.WithComponent(ComponentName)}
}

// Client is nil until Start succeeds.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return ComponentName }

// Start connects and fails if the server does not answer, so a deployment
// configured for shared counters does not silently run without them.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start: %w", err)
	}
	c.client = client
	return nil
}

func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

// Health reports degraded rather than unhealthy when the server stops
// answering: the limiters fail open, so logins keep working.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.client == nil {
		return component.Health{Name: ComponentName, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.CheckHealth(ctx, ComponentName, func(ctx context.Context) bool {
		return c.client.Ping(ctx) == nil
	}, true)
}
