package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed piece of infrastructure.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Check is a boolean health check, such as "credential store reachable".
type Check func(ctx context.Context) bool

// CheckHealth turns a boolean check into a Health report. A false check is
// reported as unhealthy unless degraded is set, for optional dependencies.
func CheckHealth(ctx context.Context, name string, check Check, degraded bool) Health {
	if check(ctx) {
		return Health{Name: name, Status: StatusHealthy}
	}
	if degraded {
		return Health{Name: name, Status: StatusDegraded, Message: "unreachable"}
	}
	return Health{Name: name, Status: StatusUnhealthy, Message: "unreachable"}
}
