package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware is the server-wide layer that runs ahead of Gin: CORS, HSTS
// and body limits see every request, including ones no route matches.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so that the first one sees the request first.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

// GinWrap runs mw inside a Gin chain. If mw writes a response without
// calling its next handler, the rest of the Gin chain is skipped.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}
