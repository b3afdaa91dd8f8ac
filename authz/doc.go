// Package authz declares which roles each route requires.
//
// Requirements are registered next to the routes they protect, before the
// server starts, and looked up per request by the access enforcer. A route
// with no explicit requirement only needs an authenticated principal.
//
//	table := authz.NewTable()
//	table.Require(http.MethodPost, "/api/v1/users", "admin")
//	table.Require(http.MethodGet, "/api/v1/reports/:id", "admin", "auditor")
//
//	req, ok := table.Lookup(http.MethodGet, "/api/v1/reports/42")
//	allowed := req.SatisfiedBy(principal.Roles)
package authz
