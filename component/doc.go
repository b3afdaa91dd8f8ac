// Package component defines the lifecycle contract shared by the database,
// redis and HTTP server pieces of authgate, and a registry that starts them
// in order, stops them in reverse and aggregates their health.
package component
