package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected string
	}{
		{"ERROR level", ERROR, "ERROR"},
		{"WARN level", WARN, "WARN"},
		{"INFO level", INFO, "INFO"},
		{"DEBUG level", DEBUG, "DEBUG"},
		{"Unknown level", LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.level.String(); result != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    LogLevel
		expectError bool
	}{
		{"ERROR uppercase", "ERROR", ERROR, false},
		{"error lowercase", "error", ERROR, false},
		{"WARN uppercase", "WARN", WARN, false},
		{"WARNING full word", "WARNING", WARN, false},
		{"warn lowercase", "warn", WARN, false},
		{"INFO uppercase", "INFO", INFO, false},
		{"info lowercase", "info", INFO, false},
		{"DEBUG uppercase", "DEBUG", DEBUG, false},
		{"debug lowercase", "debug", DEBUG, false},
		{"Whitespace trimmed", "  INFO  ", INFO, false},
		{"Mixed case", "WaRn", WARN, false},
		{"Invalid level", "VERBOSE", INFO, true},
		{"Empty string", "", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseLogLevel(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("ParseLogLevel(%q) expected error, got nil", tt.input)
				}
				if result != INFO {
					t.Errorf("ParseLogLevel(%q) error case should return INFO, got %v", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseLogLevel(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLogFormat_String(t *testing.T) {
	tests := []struct {
		name     string
		format   LogFormat
		expected string
	}{
		{"JSON format", JSON, "JSON"},
		{"TEXT format", TEXT, "TEXT"},
		{"STRUCTURED format", STRUCTURED, "STRUCTURED"},
		{"Unknown format", LogFormat(999), "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.format.String(); result != tt.expected {
				t.Errorf("LogFormat.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if !config.Enabled {
		t.Error("DefaultLogConfig().Enabled should be true")
	}
	if config.Level != INFO {
		t.Errorf("DefaultLogConfig().Level = %v, want %v", config.Level, INFO)
	}
	if config.Format != TEXT {
		t.Errorf("DefaultLogConfig().Format = %v, want %v", config.Format, TEXT)
	}
	if config.OutputFile != "" {
		t.Errorf("DefaultLogConfig().OutputFile = %q, want empty string", config.OutputFile)
	}
	if config.MaxFileSize != 10*1024*1024 {
		t.Errorf("DefaultLogConfig().MaxFileSize = %d, want %d", config.MaxFileSize, 10*1024*1024)
	}
	if config.MaxFiles != 5 {
		t.Errorf("DefaultLogConfig().MaxFiles = %d, want %d", config.MaxFiles, 5)
	}
	if config.BufferSize != 1000 {
		t.Errorf("DefaultLogConfig().BufferSize = %d, want %d", config.BufferSize, 1000)
	}
}

func TestLogConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      *LogConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:        "Valid config",
			config:      DefaultLogConfig(),
			expectError: false,
		},
		{
			name:        "Zero MaxFileSize",
			config:      &LogConfig{MaxFileSize: 0, MaxFiles: 5, BufferSize: 1000},
			expectError: true,
			errorMsg:    "MaxFileSize must be positive",
		},
		{
			name:        "Negative MaxFileSize",
			config:      &LogConfig{MaxFileSize: -1, MaxFiles: 5, BufferSize: 1000},
			expectError: true,
			errorMsg:    "MaxFileSize must be positive",
		},
		{
			name:        "Negative MaxFiles",
			config:      &LogConfig{MaxFileSize: 1024, MaxFiles: -1, BufferSize: 1000},
			expectError: true,
			errorMsg:    "MaxFiles must be non-negative",
		},
		{
			name:        "Negative BufferSize",
			config:      &LogConfig{MaxFileSize: 1024, MaxFiles: 5, BufferSize: -1},
			expectError: true,
			errorMsg:    "BufferSize must be non-negative",
		},
		{
			name:        "Zero MaxFiles and BufferSize allowed",
			config:      &LogConfig{MaxFileSize: 1024, MaxFiles: 0, BufferSize: 0},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.expectError {
				if err == nil {
					t.Error("LogConfig.Validate() expected error, got nil")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("LogConfig.Validate() error = %q, want to contain %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("LogConfig.Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestNewLogField(t *testing.T) {
	field := NewLogField("kind", "BadPassword")

	if field.Key != "kind" {
		t.Errorf("NewLogField().Key = %q, want %q", field.Key, "kind")
	}
	if field.Value != "BadPassword" {
		t.Errorf("NewLogField().Value = %v, want %v", field.Value, "BadPassword")
	}
}

func TestPKField(t *testing.T) {
	field := PKField("0xabc123")

	if field.Key != "pk" {
		t.Errorf("PKField().Key = %q, want %q", field.Key, "pk")
	}
	if field.Value != "0xabc123" {
		t.Errorf("PKField().Value = %v, want %v", field.Value, "0xabc123")
	}
}

func TestNewLogEntry(t *testing.T) {
	entry := NewLogEntry(ERROR, "pair conversion failed")

	if entry.Level != ERROR {
		t.Errorf("NewLogEntry().Level = %v, want %v", entry.Level, ERROR)
	}
	if entry.Message != "pair conversion failed" {
		t.Errorf("NewLogEntry().Message = %q, want %q", entry.Message, "pair conversion failed")
	}
	if entry.Fields == nil {
		t.Error("NewLogEntry().Fields should be initialized")
	}
	if time.Since(entry.Timestamp) > time.Second {
		t.Error("NewLogEntry().Timestamp should be recent")
	}
	if entry.Timestamp.Location() != time.UTC {
		t.Error("NewLogEntry().Timestamp should be in UTC")
	}
}

func TestLogEntry_WithOperation(t *testing.T) {
	entry := NewLogEntry(INFO, "resolving pairs")
	operation := "resolve_pairs"

	result := entry.WithOperation(operation)

	if result != entry {
		t.Error("WithOperation should return the same entry for chaining")
	}
	if entry.Operation != operation {
		t.Errorf("WithOperation() entry.Operation = %q, want %q", entry.Operation, operation)
	}
}

func TestLogEntry_WithThreadID(t *testing.T) {
	entry := NewLogEntry(INFO, "converting pair")
	threadID := 7

	result := entry.WithThreadID(threadID)

	if result != entry {
		t.Error("WithThreadID should return the same entry for chaining")
	}
	if entry.ThreadID != threadID {
		t.Errorf("WithThreadID() entry.ThreadID = %d, want %d", entry.ThreadID, threadID)
	}
}

func TestLogEntry_WithError(t *testing.T) {
	entry := NewLogEntry(ERROR, "checksum mismatch")

	t.Run("With error", func(t *testing.T) {
		err := errors.New("bad password")
		result := entry.WithError(err)

		if result != entry {
			t.Error("WithError should return the same entry for chaining")
		}
		if entry.Error != err.Error() {
			t.Errorf("WithError() entry.Error = %q, want %q", entry.Error, err.Error())
		}
	})

	t.Run("With nil error", func(t *testing.T) {
		entry2 := NewLogEntry(ERROR, "checksum mismatch")
		result := entry2.WithError(nil)

		if result != entry2 {
			t.Error("WithError should return the same entry for chaining")
		}
		if entry2.Error != "" {
			t.Errorf("WithError(nil) entry.Error = %q, want empty string", entry2.Error)
		}
	})
}

func TestLogEntry_WithFields(t *testing.T) {
	entry := NewLogEntry(INFO, "pair converted")
	field1 := PKField("0xaaa")
	field2 := NewLogField("duration_ns", int64(42))

	result := entry.WithFields(field1, field2)

	if result != entry {
		t.Error("WithFields should return the same entry for chaining")
	}
	if entry.Fields["pk"] != "0xaaa" {
		t.Errorf("WithFields() entry.Fields[pk] = %v, want %v", entry.Fields["pk"], "0xaaa")
	}
	if entry.Fields["duration_ns"] != int64(42) {
		t.Errorf("WithFields() entry.Fields[duration_ns] = %v, want %v", entry.Fields["duration_ns"], int64(42))
	}
}

func TestLogEntry_WithField(t *testing.T) {
	entry := NewLogEntry(INFO, "pair converted")

	result := entry.WithField("pk", "0xdef")

	if result != entry {
		t.Error("WithField should return the same entry for chaining")
	}
	if entry.Fields["pk"] != "0xdef" {
		t.Errorf("WithField() entry.Fields[pk] = %v, want %v", entry.Fields["pk"], "0xdef")
	}
}

func TestLogEntry_Chaining(t *testing.T) {
	entry := NewLogEntry(INFO, "pair converted").
		WithOperation("convert_pair").
		WithThreadID(3).
		WithError(errors.New("ignored on success path")).
		WithField("pk", "0xaaa").
		WithFields(
			NewLogField("kind", "none"),
			NewLogField("duration_ns", 42),
		)

	if entry.Level != INFO {
		t.Errorf("Chained entry.Level = %v, want %v", entry.Level, INFO)
	}
	if entry.Message != "pair converted" {
		t.Errorf("Chained entry.Message = %q, want %q", entry.Message, "pair converted")
	}
	if entry.Operation != "convert_pair" {
		t.Errorf("Chained entry.Operation = %q, want %q", entry.Operation, "convert_pair")
	}
	if entry.ThreadID != 3 {
		t.Errorf("Chained entry.ThreadID = %d, want %d", entry.ThreadID, 3)
	}
	if entry.Error != "ignored on success path" {
		t.Errorf("Chained entry.Error = %q, want %q", entry.Error, "ignored on success path")
	}
	if entry.Fields["pk"] != "0xaaa" {
		t.Errorf("Chained entry.Fields[pk] = %v, want %v", entry.Fields["pk"], "0xaaa")
	}
	if entry.Fields["kind"] != "none" {
		t.Errorf("Chained entry.Fields[kind] = %v, want %v", entry.Fields["kind"], "none")
	}
	if entry.Fields["duration_ns"] != 42 {
		t.Errorf("Chained entry.Fields[duration_ns] = %v, want %v", entry.Fields["duration_ns"], 42)
	}
}

func TestLogEntry_FieldsInitialization(t *testing.T) {
	entry := &LogEntry{Level: INFO, Message: "bare entry"}

	if entry.Fields != nil {
		t.Error("LogEntry.Fields should be nil initially")
	}

	entry.WithField("pk", "0xaaa")
	if entry.Fields == nil {
		t.Error("WithField should initialize Fields map")
	}

	entry2 := &LogEntry{Level: INFO, Message: "bare entry"}
	entry2.WithFields(PKField("0xbbb"))
	if entry2.Fields == nil {
		t.Error("WithFields should initialize Fields map")
	}
}

// Test LogFormatter implementations

func TestJSONFormatter(t *testing.T) {
	formatter := NewJSONFormatter()

	entry := NewLogEntry(INFO, "pair converted").
		WithOperation("convert_pair").
		WithThreadID(2).
		WithField("pk", "0xaaa").
		WithField("duration_ns", 42)

	output, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("JSONFormatter.Format() failed: %v", err)
	}

	if !strings.HasSuffix(output, "\n") {
		t.Error("JSON output should end with newline")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed["level"] != "INFO" {
		t.Errorf("Expected level 'INFO', got %v", parsed["level"])
	}
	if parsed["message"] != "pair converted" {
		t.Errorf("Expected message 'pair converted', got %v", parsed["message"])
	}
	if parsed["operation"] != "convert_pair" {
		t.Errorf("Expected operation 'convert_pair', got %v", parsed["operation"])
	}
}

func TestTextFormatter(t *testing.T) {
	formatter := NewTextFormatter()

	entry := NewLogEntry(ERROR, "pair conversion failed").
		WithOperation("convert_pair").
		WithThreadID(4).
		WithError(errors.New("checksum mismatch")).
		WithField("pk", "0xdead").
		WithField("kind", "BadPassword")

	output, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("TextFormatter.Format() failed: %v", err)
	}

	if !strings.HasSuffix(output, "\n") {
		t.Error("Text output should end with newline")
	}
	if !strings.Contains(output, "ERROR") {
		t.Error("Output should contain log level")
	}
	if !strings.Contains(output, "pair conversion failed") {
		t.Error("Output should contain message")
	}
	if !strings.Contains(output, "operation=convert_pair") {
		t.Error("Output should contain operation")
	}
	if !strings.Contains(output, "thread=4") {
		t.Error("Output should contain thread ID")
	}
	if !strings.Contains(output, "error=checksum mismatch") {
		t.Error("Output should contain error message")
	}
	if !strings.Contains(output, "pk=0xdead") {
		t.Error("Output should contain field pk")
	}
	if !strings.Contains(output, "kind=BadPassword") {
		t.Error("Output should contain field kind")
	}
}

func TestTextFormatterCustomTimestamp(t *testing.T) {
	formatter := &TextFormatter{
		TimestampFormat: "15:04:05",
		IncludeFields:   false,
	}

	entry := NewLogEntry(DEBUG, "derived key material").
		WithField("pk", "0xhidden")

	output, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("TextFormatter.Format() failed: %v", err)
	}

	parts := strings.Split(strings.TrimSpace(output), " ")
	if len(parts) < 2 {
		t.Fatal("Output should contain timestamp and level")
	}

	timestamp := strings.Trim(parts[0], "[]")
	if len(timestamp) != 8 {
		t.Errorf("Expected timestamp format HH:MM:SS, got %s", timestamp)
	}
	if strings.Contains(output, "pk=0xhidden") {
		t.Error("Output should not contain fields when IncludeFields is false")
	}
}

func TestStructuredFormatter(t *testing.T) {
	formatter := NewStructuredFormatter()

	entry := NewLogEntry(WARN, "no matching password file").
		WithOperation("resolve_pairs").
		WithThreadID(1).
		WithField("pk", "0xabc").
		WithField("mode", "web3signer")

	output, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("StructuredFormatter.Format() failed: %v", err)
	}

	if !strings.HasSuffix(output, "\n") {
		t.Error("Structured output should end with newline")
	}
	if !strings.Contains(output, "level=WARN") {
		t.Error("Output should contain level=WARN")
	}
	if !strings.Contains(output, `message="no matching password file"`) {
		t.Error("Output should contain quoted message")
	}
	if !strings.Contains(output, `operation="resolve_pairs"`) {
		t.Error("Output should contain quoted operation")
	}
	if !strings.Contains(output, "thread_id=1") {
		t.Error("Output should contain thread_id")
	}
	if !strings.Contains(output, `pk="0xabc"`) {
		t.Error("Output should contain quoted pk field")
	}
	if !strings.Contains(output, `mode="web3signer"`) {
		t.Error("Output should contain quoted mode field")
	}
}

func TestStructuredFormatterCustomSeparators(t *testing.T) {
	formatter := &StructuredFormatter{
		TimestampFormat:   "2006-01-02",
		KeyValueSeparator: ":",
		FieldSeparator:    " | ",
	}

	entry := NewLogEntry(INFO, "pair converted").
		WithField("pk", "0xaaa")

	output, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("StructuredFormatter.Format() failed: %v", err)
	}

	if !strings.Contains(output, "level:INFO") {
		t.Error("Output should use custom key-value separator")
	}
	if !strings.Contains(output, " | ") {
		t.Error("Output should use custom field separator")
	}
	if !strings.Contains(output, "timestamp:") {
		t.Error("Output should contain timestamp with custom separator")
	}
}

func TestGetFormatterForFormat(t *testing.T) {
	tests := []struct {
		format   LogFormat
		expected string
	}{
		{JSON, "*logging.JSONFormatter"},
		{TEXT, "*logging.TextFormatter"},
		{STRUCTURED, "*logging.StructuredFormatter"},
		{LogFormat(999), "*logging.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			formatter := GetFormatterForFormat(tt.format)
			if formatter == nil {
				t.Fatal("GetFormatterForFormat returned nil")
			}
			if actualType := fmt.Sprintf("%T", formatter); actualType != tt.expected {
				t.Errorf("Expected formatter type %s, got %s", tt.expected, actualType)
			}
		})
	}
}

func TestFormatterErrorHandling(t *testing.T) {
	entry := NewLogEntry(INFO, "smoke test").
		WithField("pk", "0xaaa")

	formatters := []LogFormatter{
		NewJSONFormatter(),
		NewTextFormatter(),
		NewStructuredFormatter(),
	}

	for i, formatter := range formatters {
		t.Run(fmt.Sprintf("formatter_%d", i), func(t *testing.T) {
			output, err := formatter.Format(entry)
			if err != nil {
				t.Errorf("Formatter should handle normal entries without error: %v", err)
			}
			if output == "" {
				t.Error("Formatter should produce non-empty output")
			}
		})
	}
}

func TestLogLevel_JSONMarshaling(t *testing.T) {
	tests := []struct {
		name            string
		level           LogLevel
		expected        string
		shouldRoundtrip bool
	}{
		{"ERROR level", ERROR, `"ERROR"`, true},
		{"WARN level", WARN, `"WARN"`, true},
		{"INFO level", INFO, `"INFO"`, true},
		{"DEBUG level", DEBUG, `"DEBUG"`, true},
		{"Unknown level", LogLevel(999), `"UNKNOWN"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.level)
			if err != nil {
				t.Fatalf("json.Marshal() failed: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("json.Marshal() = %s, want %s", string(data), tt.expected)
			}

			if !tt.shouldRoundtrip {
				return
			}
			var level LogLevel
			if err := json.Unmarshal(data, &level); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if level != tt.level {
				t.Errorf("json.Unmarshal() = %v, want %v", level, tt.level)
			}
		})
	}
}

func TestLogLevel_JSONUnmarshalingErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Invalid JSON", `invalid`},
		{"Invalid level", `"VERBOSE"`},
		{"Number instead of string", `123`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var level LogLevel
			if err := json.Unmarshal([]byte(tt.data), &level); err == nil {
				t.Errorf("json.Unmarshal(%s) should have failed", tt.data)
			}
		})
	}
}
