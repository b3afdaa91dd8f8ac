package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/component"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func checkerOf(statuses ...component.HealthStatus) HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: string(rune('a' + i)), Status: s}
		}
		return out
	}
}

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/", h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	return rr
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		checker  HealthChecker
		wantCode int
		want     string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"all healthy", checkerOf(component.StatusHealthy, component.StatusHealthy), http.StatusOK, "healthy"},
		{"degraded", checkerOf(component.StatusHealthy, component.StatusDegraded), http.StatusOK, "degraded"},
		{"unhealthy wins", checkerOf(component.StatusDegraded, component.StatusUnhealthy), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(Health("authgate", tt.checker))
			if rr.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rr.Code, tt.wantCode)
			}
			var body map[string]any
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			if body["status"] != tt.want {
				t.Errorf("status = %v, want %s", body["status"], tt.want)
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	if rr := serve(Readiness("authgate", checkerOf(component.StatusDegraded))); rr.Code != http.StatusOK {
		t.Errorf("degraded: code = %d, want 200", rr.Code)
	}
	if rr := serve(Readiness("authgate", checkerOf(component.StatusUnhealthy))); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: code = %d, want 503", rr.Code)
	}
}

func TestLiveness(t *testing.T) {
	if rr := serve(Liveness("authgate")); rr.Code != http.StatusOK {
		t.Errorf("code = %d", rr.Code)
	}
}

func TestHealthReport(t *testing.T) {
	checker := func(context.Context) []component.Health {
		return []component.Health{
			{Name: "credential-store", Status: component.StatusUnhealthy, Message: "unreachable"},
			{Name: "redis", Status: component.StatusHealthy},
		}
	}
	rr := serve(HealthReport(checker))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", rr.Code)
	}
	var report Report
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Status != "Unhealthy" {
		t.Errorf("status = %q", report.Status)
	}
	if e := report.Entries["credential-store"]; e.Status != "Unhealthy" || e.Description != "unreachable" {
		t.Errorf("entry = %+v", e)
	}
	if report.Entries["redis"].Status != "Healthy" {
		t.Errorf("redis entry = %+v", report.Entries["redis"])
	}
}

func TestFormatDuration(t *testing.T) {
	d := time.Hour + 2*time.Minute + 3*time.Second + 4500*time.Microsecond
	if got := formatDuration(d); got != "01:02:03.0045000" {
		t.Errorf("formatDuration = %q", got)
	}
}

func TestInfo(t *testing.T) {
	rr := serve(Info("authgate"))
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["service"] != "authgate" || body["build"] == nil {
		t.Errorf("body = %v", body)
	}
}
