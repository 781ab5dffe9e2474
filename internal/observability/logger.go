package observability

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "grocerybi/pkg/errors"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = map[LogLevel]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Host      string                 `json:"host,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// Logger provides structured logging capabilities
type Logger struct {
	mu       *sync.Mutex
	level    LogLevel
	output   io.Writer
	fields   map[string]interface{}
	service  string
	version  string
	hostname string
	encoder  LogEncoder
}

// LogEncoder handles encoding of log entries
type LogEncoder interface {
	Encode(entry *LogEntry) ([]byte, error)
}

// JSONEncoder encodes log entries as JSON
type JSONEncoder struct {
	pretty bool
}

func NewJSONEncoder(pretty bool) *JSONEncoder {
	return &JSONEncoder{pretty: pretty}
}

func (e *JSONEncoder) Encode(entry *LogEntry) ([]byte, error) {
	if e.pretty {
		return json.MarshalIndent(entry, "", "  ")
	}
	return json.Marshal(entry)
}

// TextEncoder writes "LEVEL message key=value" lines for interactive use
type TextEncoder struct{}

func (TextEncoder) Encode(entry *LogEntry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format(time.TimeOnly))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%-5s", entry.Level))
	b.WriteString(" ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Fields[k]))
	}
	return []byte(b.String()), nil
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level   LogLevel
	Output  io.Writer
	Service string
	Version string
	Encoder LogEncoder
}

// NewLogger creates a new logger instance
func NewLogger(config LoggerConfig) *Logger {
	hostname, _ := os.Hostname()

	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Encoder == nil {
		config.Encoder = NewJSONEncoder(false)
	}
	if config.Service == "" {
		config.Service = "grocerybi"
	}

	return &Logger{
		mu:       &sync.Mutex{},
		level:    config.Level,
		output:   config.Output,
		fields:   make(map[string]interface{}),
		service:  config.Service,
		version:  config.Version,
		hostname: hostname,
		encoder:  config.Encoder,
	}
}

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		mu:       l.mu,
		level:    l.level,
		output:   l.output,
		fields:   newFields,
		service:  l.service,
		version:  l.version,
		hostname: l.hostname,
		encoder:  l.encoder,
	}
}

// WithError attaches the error message and, for application errors, its code
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	fields := map[string]interface{}{"error": err.Error()}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fields["error"] = appErr.Message
		fields["error_code"] = string(appErr.Code)
		for k, v := range appErr.Context {
			fields[k] = v
		}
	}
	return l.WithFields(fields)
}

func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     levelNames[level],
		Message:   msg,
		Fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
		Service:   l.service,
		Version:   l.version,
		Host:      l.hostname,
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for k, v := range fields {
		entry.Fields[k] = v
	}

	if level >= WarnLevel {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	data, err := l.encoder.Encode(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode log entry: %v\n", err)
		return
	}

	_, _ = l.output.Write(append(data, '\n'))
}

func (l *Logger) Debug(msg string) { l.log(DebugLevel, msg, nil) }

func (l *Logger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log(DebugLevel, msg, fields)
}

func (l *Logger) Info(msg string) { l.log(InfoLevel, msg, nil) }

func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log(InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string) { l.log(WarnLevel, msg, nil) }

func (l *Logger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log(WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string) { l.log(ErrorLevel, msg, nil) }

// LogLevelFromString converts a string to LogLevel
func LogLevelFromString(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewLogger(LoggerConfig{Level: InfoLevel})
)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// GetDefaultLogger returns the global default logger
func GetDefaultLogger() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}
