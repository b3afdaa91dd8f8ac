package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func jsonLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := &Config{Level: level, Format: "json", Output: "stdout"}
	return NewWithWriter(cfg, "authgate", buf), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	l, buf := jsonLogger("info")
	l.WithComponent("enforcer").Warn("token rejected", map[string]interface{}{
		FieldReason: "expired",
	})

	m := decodeLine(t, buf)
	if m["message"] != "token rejected" {
		t.Errorf("expected message, got %v", m["message"])
	}
	if m[FieldComponent] != "enforcer" {
		t.Errorf("expected component=enforcer, got %v", m[FieldComponent])
	}
	if m[FieldReason] != "expired" {
		t.Errorf("expected reason=expired, got %v", m[FieldReason])
	}
	if m["service"] != "authgate" {
		t.Errorf("expected service=authgate, got %v", m["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := jsonLogger("warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Error("shown")
	if buf.Len() == 0 {
		t.Error("error should pass at warn level")
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := jsonLogger("nonsense")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at fallback info level, got %q", buf.String())
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Error("info should pass at fallback level")
	}
}

func TestWithContext_RequestID(t *testing.T) {
	l, buf := jsonLogger("info")
	ctx := ContextWithRequestID(context.Background(), "req-123")

	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}

	l.WithContext(ctx).Info("handled")
	m := decodeLine(t, buf)
	if m[FieldRequestID] != "req-123" {
		t.Errorf("expected request_id=req-123, got %v", m[FieldRequestID])
	}
}

func TestWithContext_NoRequestIDReturnsSame(t *testing.T) {
	l, _ := jsonLogger("info")
	if l.WithContext(context.Background()) != l {
		t.Error("expected same logger when context carries no request id")
	}
}

func TestWithFieldsAndError(t *testing.T) {
	l, buf := jsonLogger("info")
	l.WithFields(map[string]interface{}{"a": 1}).WithError(fmt.Errorf("boom")).Info("x")
	m := decodeLine(t, buf)
	if m["a"] != float64(1) {
		t.Errorf("expected a=1, got %v", m["a"])
	}
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded")
	l.WithComponent("x").Error("discarded")
}

func TestFields(t *testing.T) {
	m := Fields("user_id", "u1", "roles", []string{"admin"}, 42, "skipped", "dangling")
	if m["user_id"] != "u1" {
		t.Errorf("expected user_id=u1, got %v", m["user_id"])
	}
	if _, ok := m["dangling"]; ok {
		t.Error("dangling key without value should be dropped")
	}
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d: %v", len(m), m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("login", fmt.Errorf("db down"))
	if m[FieldOperation] != "login" || m[FieldError] != "db down" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestConfig_ApplyDefaultsAndValidate(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := &Config{Level: "loud", Format: "json", Output: "stdout"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
	bad = &Config{Level: "info", Format: "xml", Output: "stdout"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}
