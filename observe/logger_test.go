package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// TestLogger_IncludesCacheFields verifies tier fields are present in log output.
func TestLogger_IncludesCacheFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	tierLogger := logger.WithCache(CacheMeta{Namespace: "pax", Mirrored: true})
	tierLogger.Info(context.Background(), "tier ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\noutput: %s", err, buf.String())
	}

	if v, ok := entry["cache.namespace"].(string); !ok || v != "pax" {
		t.Errorf("cache.namespace = %v, want \"pax\"", entry["cache.namespace"])
	}
	if v, ok := entry["cache.mirrored"].(bool); !ok || !v {
		t.Errorf("cache.mirrored = %v, want true", entry["cache.mirrored"])
	}
	if v, ok := entry["msg"].(string); !ok || v != "tier ready" {
		t.Errorf("msg = %v, want \"tier ready\"", entry["msg"])
	}
}

// TestLogger_FieldValues verifies structured fields survive serialization.
func TestLogger_FieldValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "fetch completed",
		Field{Key: "duration_ms", Value: 50.5},
		Field{Key: "bytes", Value: 2048},
		Field{Key: "key", Value: "pax:schedule:airport=LIS&date=2025-12-31"},
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if v, ok := entry["duration_ms"].(float64); !ok || v != 50.5 {
		t.Errorf("duration_ms = %v, want 50.5", entry["duration_ms"])
	}
	if v, ok := entry["bytes"].(float64); !ok || v != 2048 {
		t.Errorf("bytes = %v, want 2048", entry["bytes"])
	}
	if v, ok := entry["key"].(string); !ok || !strings.HasPrefix(v, "pax:schedule:") {
		t.Errorf("key = %v, cache keys must not be redacted", entry["key"])
	}
}

// TestLogger_ErrorLevel verifies error level and error field.
func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "persist failed",
		Field{Key: "error", Value: "disk full"},
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if v, ok := entry["level"].(string); !ok || v != "error" {
		t.Errorf("level = %v, want \"error\"", entry["level"])
	}
	if v, ok := entry["error"].(string); !ok || v != "disk full" {
		t.Errorf("error = %v, want \"disk full\"", entry["error"])
	}
}

// TestLogger_CredentialsRedacted verifies secret-bearing fields never reach output.
func TestLogger_CredentialsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "provider configured",
		Field{Key: "api_key", Value: "sk-live-12345"},
		Field{Key: "authorization", Value: "Bearer abcdef"},
		Field{Key: "token", Value: "t0p-s3cret"},
		Field{Key: "provider", Value: "aerodatabox"},
	)

	output := buf.String()
	for _, secret := range []string{"sk-live-12345", "Bearer abcdef", "t0p-s3cret"} {
		if strings.Contains(output, secret) {
			t.Errorf("raw secret %q leaked into log output", secret)
		}
	}
	if !strings.Contains(output, "[REDACTED]") {
		t.Error("expected [REDACTED] marker in output")
	}
	if !strings.Contains(output, "aerodatabox") {
		t.Error("non-secret field should pass through unredacted")
	}
}

// TestLogger_LevelFiltering verifies records below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Info(context.Background(), "info message")
	if strings.Contains(buf.String(), "info message") {
		t.Error("info record should be filtered at warn level")
	}

	logger.Warn(context.Background(), "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("warn record should pass at warn level")
	}

	logger.Error(context.Background(), "error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Error("error record should pass at warn level")
	}
}

// TestLogger_DebugLevel verifies debug records pass at debug level.
func TestLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Debug(context.Background(), "sweep pass")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if v, ok := entry["level"].(string); !ok || v != "debug" {
		t.Errorf("level = %v, want \"debug\"", entry["level"])
	}
}

// TestLogger_WithCacheDoesNotMutateParent verifies tier context stays scoped.
func TestLogger_WithCacheDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithCache(CacheMeta{Namespace: "pax"})
	logger.Info(context.Background(), "parent record")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if _, ok := entry["cache.namespace"]; ok {
		t.Error("parent logger gained tier context from a derived child")
	}
}

// TestParseLogLevel verifies level parsing and the info fallback.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestLogLevel_String verifies the string round trip.
func TestLogLevel_String(t *testing.T) {
	for _, level := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if got := ParseLogLevel(level.String()); got != level {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", level.String(), got, level)
		}
	}
	if got := LogLevel(99).String(); got != "info" {
		t.Errorf("LogLevel(99).String() = %q, want \"info\"", got)
	}
}
