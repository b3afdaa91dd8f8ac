// Package config loads authgate configuration from a YAML file, an optional
// .env file and environment variables, in that order of precedence (later
// wins). Environment variables use the service prefix and underscore-joined
// key paths, e.g. AUTHGATE_JWT_SECRET or AUTHGATE_CORS_ALLOWED_ORIGINS.
//
//	var cfg app.Config
//	if err := config.LoadConfig("authgate", &cfg); err != nil { ... }
package config
