// Package bootstrap runs an authgate process through a fixed lifecycle:
// validate config, start components, configure the HTTP surface, report
// readiness, block until a signal, then stop everything in reverse.
package bootstrap
