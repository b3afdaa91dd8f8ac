// Package server runs the authgate HTTP API: Gin behind h2c, or TLS when a
// certificate is configured.
//
// # Middleware
//
// server/middleware provides:
//
//   - Enforcer: bearer token authentication, then route role checks
//   - CORS: the environment policy chosen once at startup
//   - HSTS: Strict-Transport-Security in production
//   - RateLimit: per-client limits backed by throttle.Limiter
//   - Recovery, RequestID, RequestLogger, BodySizeLimit
//
// # Endpoints
//
// server/endpoint provides /health, /health/live, /health/ready, the
// /api/hc report and /info.
package server
