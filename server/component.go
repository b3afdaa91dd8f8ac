package server

import (
	"context"

	"github.com/kbukum/authgate/component"
)

const componentName = "http-server"

var _ component.Component = (*Component)(nil)

// Component adapts Server to the component lifecycle. Register it after the
// routes exist; the registry starts late registrations after configuration.
type Component struct {
	server *Server
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

func (c *Component) Health(context.Context) component.Health {
	if !c.server.Running() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: c.server.Addr()}
}
