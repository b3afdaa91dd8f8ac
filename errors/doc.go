// Package errors defines the structured error type returned across the
// authgate HTTP boundary. Each AppError carries a machine-readable code, the
// HTTP status it maps to, and whether the caller may retry.
package errors
