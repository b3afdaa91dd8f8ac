package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/component"
)

// HealthChecker returns health status for the checked dependencies.
type HealthChecker func(ctx context.Context) []component.Health

// HealthBody is the body of /health and its live/ready variants.
type HealthBody struct {
	Status     string             `json:"status"`
	Service    string             `json:"service"`
	Timestamp  string             `json:"timestamp"`
	Components []component.Health `json:"components,omitempty"`
}

func newHealthBody(service, status string) HealthBody {
	return HealthBody{Status: status, Service: service, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// overall folds component statuses: any unhealthy makes the whole unhealthy,
// otherwise any degraded makes it degraded.
func overall(components []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, h := range components {
		switch h.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}

func check(ctx context.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return nil
	}
	return checker(ctx)
}

func statusCode(s component.HealthStatus) int {
	if s == component.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Health reports every component status. An unhealthy component, such as an
// unreachable credential store, turns the response into a 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := check(c.Request.Context(), checker)
		status := overall(components)
		p := newHealthBody(serviceName, string(status))
		p.Components = components
		c.JSON(statusCode(status), p)
	}
}

// Liveness checks no dependencies: a process that can answer is alive.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newHealthBody(serviceName, "alive"))
	}
}

// Readiness drops the instance out of rotation while any component is
// unhealthy. Degraded components keep it ready.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := overall(check(c.Request.Context(), checker))
		p := newHealthBody(serviceName, "ready")
		if status == component.StatusUnhealthy {
			p.Status = "not_ready"
		}
		c.JSON(statusCode(status), p)
	}
}
