package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/authz"
)

// APIPrefix is the route group the account endpoints live under.
const APIPrefix = "/api/v1"

// RoleAdmin is required by the user administration routes.
const RoleAdmin = "admin"

// Mount registers the account routes on r. Public routes run behind public
// (typically the rate limiter); every other route runs behind enforce, and
// its role requirement is declared on table.
func (h *Handler) Mount(r gin.IRouter, table *authz.Table, enforce gin.HandlerFunc, public ...gin.HandlerFunc) {
	v1 := r.Group(APIPrefix)

	open := v1.Group("/auth", public...)
	open.POST("/register", h.register)
	open.POST("/login", h.login)

	table.
		Require(http.MethodGet, APIPrefix+"/auth/me").
		Require(http.MethodPost, APIPrefix+"/auth/password").
		Require(http.MethodPost, APIPrefix+"/users", RoleAdmin).
		Require(http.MethodPut, APIPrefix+"/users/:username/roles", RoleAdmin)

	protected := v1.Group("", enforce)
	protected.GET("/auth/me", h.me)
	protected.POST("/auth/password", h.changePassword)
	protected.POST("/users", h.createUser)
	protected.PUT("/users/:username/roles", h.setRoles)
}
