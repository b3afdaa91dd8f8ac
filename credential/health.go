package credential

import (
	"context"

	"github.com/kbukum/authgate/component"
)

// HealthName is the name the credential store reports health under.
const HealthName = "credential-store"

var _ component.Component = (*HealthComponent)(nil)

// HealthComponent exposes Store.Reachable as a readiness check. It owns no
// resources; the database component opens and closes the connection.
type HealthComponent struct {
	store Store
}

// NewHealthComponent wraps store.
func NewHealthComponent(store Store) *HealthComponent {
	return &HealthComponent{store: store}
}

func (h *HealthComponent) Name() string                { return HealthName }
func (h *HealthComponent) Start(context.Context) error { return nil }
func (h *HealthComponent) Stop(context.Context) error  { return nil }

// Health is unhealthy when the store cannot be reached: no login can succeed
// without it.
func (h *HealthComponent) Health(ctx context.Context) component.Health {
	return component.CheckHealth(ctx, HealthName, h.store.Reachable, false)
}
