// Package logger is the structured logger used throughout authgate. It wraps
// zerolog and takes fields as maps so call sites stay uniform:
//
//	log := logger.NewDefault("authgate").WithComponent("enforcer")
//	log.Warn("token rejected", map[string]interface{}{logger.FieldReason: "expired"})
//
// Secrets, password plaintext and raw bearer tokens must never be passed as
// field values.
package logger
