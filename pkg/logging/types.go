// Package logging provides the secure, structured logger used across
// every stage of a keystore conversion run: path validation, pair
// resolution, per-pair decrypt/re-encrypt, and the final performance
// summary. This file holds the vocabulary the logger is built from —
// levels, output formats, config, fields, entries, and the formatters
// that render an entry to bytes. None of it ever carries a secret: the
// sanitizing is done by the logger itself (see secure_logger.go)
// before a LogEntry is constructed.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LogLevel orders log entries by severity, low to high. A logger only
// emits an entry whose level is at or below its configured Level.
type LogLevel int

const (
	// ERROR marks a failure that aborted an operation or a pair's
	// conversion.
	ERROR LogLevel = iota
	// WARN marks a recoverable condition worth an operator's
	// attention, such as a candidate pair dropped from the run.
	WARN
	// INFO marks ordinary pipeline progress: path validation, pair
	// resolution, per-pair start/completion, the final summary.
	INFO
	// DEBUG marks fine-grained tracing. Never populated with key
	// material, passwords, or derived keys.
	DEBUG
)

// String renders the level the way every formatter below prints it.
func (l LogLevel) String() string {
	switch l {
	case ERROR:
		return "ERROR"
	case WARN:
		return "WARN"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the level as its name rather than its ordinal,
// so a JSON-formatted log line reads "level":"ERROR" instead of
// "level":0.
func (l LogLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the name form produced by MarshalJSON.
func (l *LogLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, err := ParseLogLevel(s)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// ParseLogLevel maps a --log-level flag value (or a config file's
// logging.level) onto a LogLevel, case-insensitively and trimmed of
// surrounding whitespace. "warning" is accepted as a synonym for
// "warn" since both spellings show up in operator-facing tooling.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ERROR":
		return ERROR, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "INFO":
		return INFO, nil
	case "DEBUG":
		return DEBUG, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s", level)
	}
}

// LogFormat selects how a LogEntry is rendered to the log sink.
type LogFormat int

const (
	// JSON renders one JSON object per line, for log shippers and
	// CI pipelines that parse structured output.
	JSON LogFormat = iota
	// TEXT renders a short human-readable line, for an operator
	// watching a conversion run from a terminal.
	TEXT
	// STRUCTURED renders space-separated key=value pairs, a
	// middle ground readable by both humans and line-oriented
	// log tooling (grep, logfmt parsers).
	STRUCTURED
)

// String renders the format the way a config file or --log-format
// flag spells it.
func (f LogFormat) String() string {
	switch f {
	case JSON:
		return "JSON"
	case TEXT:
		return "TEXT"
	case STRUCTURED:
		return "STRUCTURED"
	default:
		return "TEXT"
	}
}

// LogConfig configures one SecureLogger for the duration of a
// conversion run. It is built once in NewSecureLoggerFromConfig from
// the resolved --log-* flags and config.Logging section, then held
// for the run's lifetime.
type LogConfig struct {
	// Enabled gates the logger outright; false makes every log call
	// a no-op, for --no-logging.
	Enabled bool
	// Level is the minimum severity recorded; anything below it is
	// dropped before formatting.
	Level LogLevel
	// Format selects the formatter applied to every entry.
	Format LogFormat
	// OutputFile is the destination path; empty means stdout (never
	// rotated), except that when shouldAvoidStdout reports an
	// interactive terminal the logger writes to
	// /tmp/keystore-converter.log instead.
	OutputFile string
	// MaxFileSize is the byte threshold that triggers rotation of
	// OutputFile into a numbered backup.
	MaxFileSize int64
	// MaxFiles caps how many rotated backups are retained; the
	// oldest is removed once the cap is exceeded.
	MaxFiles int
	// BufferSize sizes the async write buffer and channel backing
	// the logger, trading a bounded amount of lost-on-crash output
	// for throughput during a large batch conversion.
	BufferSize int
}

// DefaultLogConfig returns the logger's defaults before any --log-*
// flag or config file overrides them: enabled, INFO, TEXT, stdout,
// 10MB rotation threshold, 5 backups, 1000-entry buffer.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Enabled:     true,
		Level:       INFO,
		Format:      TEXT,
		OutputFile:  "",
		MaxFileSize: 10 * 1024 * 1024,
		MaxFiles:    5,
		BufferSize:  1000,
	}
}

// Validate rejects a LogConfig whose numeric fields can't back a
// working logger (a non-positive rotation threshold, or a negative
// backup count or buffer size).
func (c *LogConfig) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MaxFileSize must be positive, got %d", c.MaxFileSize)
	}
	if c.MaxFiles < 0 {
		return fmt.Errorf("MaxFiles must be non-negative, got %d", c.MaxFiles)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("BufferSize must be non-negative, got %d", c.BufferSize)
	}
	return nil
}

// LogField is one piece of structured context attached to a log call,
// e.g. the pk of the pair being converted or the kind of a failure.
type LogField struct {
	Key   string
	Value interface{}
}

// NewLogField pairs a key with a value for a single log call.
func NewLogField(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// PKField is shorthand for the field every per-pair log line carries:
// the pk identifying which keystore/password pair the entry concerns.
func PKField(pk string) LogField {
	return NewLogField("pk", pk)
}

// LogFormatter renders a LogEntry to the string written to the sink.
type LogFormatter interface {
	Format(entry *LogEntry) (string, error)
}

// LogEntry is one structured log line: when it happened, at what
// severity, during which pipeline operation (e.g. "validate_paths",
// "resolve_pairs", "convert_pair"), and with what extra context.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Operation string                 `json:"operation,omitempty"`
	ThreadID  int                    `json:"thread_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// NewLogEntry starts a LogEntry stamped with the current time in UTC
// (conversion runs span machines in different time zones; UTC keeps
// log lines comparable across them).
func NewLogEntry(level LogLevel, message string) *LogEntry {
	return &LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Fields:    make(map[string]interface{}),
	}
}

// WithOperation tags the entry with the pipeline stage it belongs to.
func (e *LogEntry) WithOperation(operation string) *LogEntry {
	e.Operation = operation
	return e
}

// WithThreadID tags the entry with the worker-pool goroutine index
// that produced it, useful for untangling interleaved output from a
// concurrent batch run.
func (e *LogEntry) WithThreadID(threadID int) *LogEntry {
	e.ThreadID = threadID
	return e
}

// WithError attaches an error's message to the entry. A nil error
// leaves the entry untouched.
func (e *LogEntry) WithError(err error) *LogEntry {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithFields merges each field's key/value into the entry.
func (e *LogEntry) WithFields(fields ...LogField) *LogEntry {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	for _, field := range fields {
		e.Fields[field.Key] = field.Value
	}
	return e
}

// WithField merges a single key/value into the entry.
func (e *LogEntry) WithField(key string, value interface{}) *LogEntry {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// JSONFormatter renders an entry as a single JSON object.
type JSONFormatter struct{}

// NewJSONFormatter returns a JSONFormatter.
func NewJSONFormatter() LogFormatter {
	return &JSONFormatter{}
}

// Format marshals the entry directly; LogEntry's json tags already
// describe the wire shape.
func (f *JSONFormatter) Format(entry *LogEntry) (string, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal log entry to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// TextFormatter renders an entry as a terse line meant for a
// terminal watching a live conversion run.
type TextFormatter struct {
	// TimestampFormat overrides the default "2006-01-02 15:04:05.000".
	TimestampFormat string
	// IncludeFields controls whether structured fields (pk, kind,
	// duration, ...) are appended after the message.
	IncludeFields bool
}

// NewTextFormatter returns a TextFormatter with the package defaults.
func NewTextFormatter() LogFormatter {
	return &TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		IncludeFields:   true,
	}
}

// Format renders "[timestamp] LEVEL: message (operation=x) (thread=n) error=... k=v ...".
func (f *TextFormatter) Format(entry *LogEntry) (string, error) {
	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006-01-02 15:04:05.000"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", entry.Timestamp.Format(timestampFormat), entry.Level.String(), entry.Message)

	if entry.Operation != "" {
		fmt.Fprintf(&b, " (operation=%s)", entry.Operation)
	}
	if entry.ThreadID != 0 {
		fmt.Fprintf(&b, " (thread=%d)", entry.ThreadID)
	}
	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%s", entry.Error)
	}
	if f.IncludeFields {
		for key, value := range entry.Fields {
			fmt.Fprintf(&b, " %s=%v", key, value)
		}
	}
	b.WriteByte('\n')
	return b.String(), nil
}

// StructuredFormatter renders an entry as space-separated key=value
// pairs (logfmt-style), quoting string values.
type StructuredFormatter struct {
	// TimestampFormat overrides the default time.RFC3339Nano.
	TimestampFormat string
	// KeyValueSeparator overrides the default "=".
	KeyValueSeparator string
	// FieldSeparator overrides the default " ".
	FieldSeparator string
}

// NewStructuredFormatter returns a StructuredFormatter with the
// package defaults.
func NewStructuredFormatter() LogFormatter {
	return &StructuredFormatter{
		TimestampFormat:   time.RFC3339Nano,
		KeyValueSeparator: "=",
		FieldSeparator:    " ",
	}
}

// Format renders "timestamp=... level=... message=\"...\" ...".
func (f *StructuredFormatter) Format(entry *LogEntry) (string, error) {
	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = time.RFC3339Nano
	}
	kvSep := f.KeyValueSeparator
	if kvSep == "" {
		kvSep = "="
	}
	fieldSep := f.FieldSeparator
	if fieldSep == "" {
		fieldSep = " "
	}

	parts := []string{
		fmt.Sprintf("timestamp%s%s", kvSep, entry.Timestamp.Format(timestampFormat)),
		fmt.Sprintf("level%s%s", kvSep, entry.Level.String()),
		fmt.Sprintf("message%s%q", kvSep, entry.Message),
	}
	if entry.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation%s%q", kvSep, entry.Operation))
	}
	if entry.ThreadID != 0 {
		parts = append(parts, fmt.Sprintf("thread_id%s%d", kvSep, entry.ThreadID))
	}
	if entry.Error != "" {
		parts = append(parts, fmt.Sprintf("error%s%q", kvSep, entry.Error))
	}
	for key, value := range entry.Fields {
		if str, ok := value.(string); ok {
			parts = append(parts, fmt.Sprintf("%s%s%q", key, kvSep, str))
		} else {
			parts = append(parts, fmt.Sprintf("%s%s%v", key, kvSep, value))
		}
	}

	return strings.Join(parts, fieldSep) + "\n", nil
}

// GetFormatterForFormat resolves the LogConfig.Format value to the
// LogFormatter that implements it. An unrecognized value falls back
// to TextFormatter rather than failing a conversion run over a
// cosmetic setting.
func GetFormatterForFormat(format LogFormat) LogFormatter {
	switch format {
	case JSON:
		return NewJSONFormatter()
	case STRUCTURED:
		return NewStructuredFormatter()
	default:
		return NewTextFormatter()
	}
}
