package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/version"
)

var startTime = time.Now()

// About is the /info body.
type About struct {
	Service string       `json:"service"`
	Build   version.Info `json:"build"`
	Uptime  string       `json:"uptime"`
}

// Info reports the build identity and uptime. It carries no auth settings.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, About{
			Service: serviceName,
			Build:   version.Get(),
			Uptime:  time.Since(startTime).Truncate(time.Second).String(),
		})
	}
}
