package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/errors"
	"github.com/kbukum/authgate/logger"
)

// Recovery turns a handler panic into a 500 error envelope and logs the stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithContext(c.Request.Context()).Error("panic recovered", map[string]interface{}{
					logger.FieldError:  fmt.Sprintf("%v", rec),
					"stack":            string(debug.Stack()),
					logger.FieldRoute:  c.Request.URL.Path,
					logger.FieldMethod: c.Request.Method,
				})
				appErr := errors.Internal(fmt.Errorf("panic: %v", rec))
				c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			}
		}()
		c.Next()
	}
}
