// Package logger writes structured log lines for the student records
// service, as JSON or as sorted key=value text. Request-scoped loggers
// travel on the context.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"
)

// Level is a message severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a config value to a Level. Unknown values mean LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects the line encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIELDS
// ══════════════════════════════════════════════════════════════════════════════

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field      { return Field{key, value} }
func Int(key string, value int) Field     { return Field{key, value} }
func Int64(key string, value int64) Field { return Field{key, value} }
func Any(key string, value any) Field     { return Field{key, value} }

// Duration renders d in time.Duration notation ("1.5s").
func Duration(key string, d time.Duration) Field { return Field{key, d.String()} }

// Err stores the error text under "error".
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

// RequestIDKey is the field carrying the X-Request-ID of an HTTP request.
const RequestIDKey = "request_id"

func StudentID(id int64) Field      { return Int64("student_id", id) }
func GroupID(id int64) Field        { return Int64("group_id", id) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }

// ══════════════════════════════════════════════════════════════════════════════
// LOGGER
// ══════════════════════════════════════════════════════════════════════════════

// Entry is the JSON shape of one line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Options configures New. A nil Output means stdout and an empty Format JSON.
type Options struct {
	Output     io.Writer
	Level      Level
	Format     Format
	AddCaller  bool
	CallerSkip int
}

// sink is shared by a logger and every child derived with With.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// Logger is safe for concurrent use. With returns cheap children that share
// the parent's output.
type Logger struct {
	sink   *sink
	opts   Options
	fields []Field
}

// New creates a Logger.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	return &Logger{sink: &sink{out: opts.Output}, opts: opts}
}

// Default is an info-level JSON logger on stdout.
func Default() *Logger {
	return New(Options{Level: LevelInfo, AddCaller: true})
}

// With returns a child that adds fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	child := *l
	child.fields = append(slices.Clip(l.fields), fields...)
	return &child
}

// WithRequestID is With(String(RequestIDKey, id)).
func (l *Logger) WithRequestID(id string) *Logger {
	return l.With(String(RequestIDKey, id))
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

func (l *Logger) write(level Level, msg string, fields []Field) {
	if level < l.opts.Level {
		return
	}

	e := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	if l.opts.AddCaller {
		// write <- Info/Warn/... <- caller
		if _, file, line, ok := runtime.Caller(2 + l.opts.CallerSkip); ok {
			e.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}
	if n := len(l.fields) + len(fields); n > 0 {
		e.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			e.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			e.Fields[f.Key] = f.Value
		}
	}

	var line []byte
	if l.opts.Format == FormatText {
		line = e.text()
	} else if b, err := json.Marshal(e); err == nil {
		line = append(b, '\n')
	} else {
		line = fmt.Appendf(nil, "%s [%s] %s (unencodable fields: %v)\n", e.Timestamp, e.Level, msg, err)
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = l.sink.out.Write(line)
}

// text renders "ts LEVEL msg k=v ... caller=file:line" with keys sorted.
func (e Entry) text() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", e.Timestamp, e.Level, e.Message)
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	if e.Caller != "" {
		b.WriteString(" caller=" + e.Caller)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

type ctxKey struct{}

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or Default().
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}
