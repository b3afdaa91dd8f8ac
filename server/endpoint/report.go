package endpoint

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/component"
)

// ReportEntry is one check in a HealthReport.
type ReportEntry struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// Report is the /api/hc body: title-cased statuses, a total duration and one
// entry per check, the shape health dashboards poll for.
type Report struct {
	Status        string                 `json:"status"`
	TotalDuration string                 `json:"totalDuration"`
	Entries       map[string]ReportEntry `json:"entries"`
}

// HealthReport serves the dashboard-style health report.
func HealthReport(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		components := check(c.Request.Context(), checker)

		report := Report{
			Status:  titleStatus(overall(components)),
			Entries: make(map[string]ReportEntry, len(components)),
		}
		for _, h := range components {
			report.Entries[h.Name] = ReportEntry{Status: titleStatus(h.Status), Description: h.Message}
		}
		report.TotalDuration = formatDuration(time.Since(start))

		c.JSON(statusCode(overall(components)), report)
	}
}

func titleStatus(s component.HealthStatus) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// formatDuration renders d as hh:mm:ss.fffffff.
func formatDuration(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%07d", int64(h), int64(m), int64(sec), int64(d/100))
}
