// Package logger writes single line key=value records that are easy to
// grep and to ingest from journald or docker logs.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes LEVEL=... MESSAGE=... lines followed by fields.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// New creates a logger writing to stdout.
func New() *Logger {
	return &Logger{writer: os.Stdout}
}

// NewWithWriter creates a logger with a custom writer.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{writer: w}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{writer: io.Discard}
}

func (l *Logger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log("WARNING", msg, fields...) }
func (l *Logger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields...) }

// Write lets the logger back a standard library *log.Logger or an echo
// middleware that only knows io.Writer.  Each write becomes one INFO line.
func (l *Logger) Write(p []byte) (int, error) {
	l.log("INFO", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (l *Logger) log(level, msg string, fields ...Field) {
	if l == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "LEVEL=%s MESSAGE=%s", level, msg)
	for _, field := range fields {
		fmt.Fprintf(&b, " %s=%v", field.Key, field.Value)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.writer, b.String())
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F creates a new field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Action(value string) Field      { return F("ACTION", value) }
func Client(value string) Field      { return F("CLIENT", value) }
func Room(value string) Field        { return F("ROOM", value) }
func Folio(value int64) Field        { return F("FOLIO", value) }
func Shift(value string) Field       { return F("SHIFT", value) }
func Count(value int) Field          { return F("COUNT", value) }
func Error(value error) Field        { return F("ERROR", value) }
func Status(value string) Field      { return F("STATUS", value) }
func Queue(value string) Field       { return F("QUEUE", value) }
func Duration(d time.Duration) Field { return F("DURATION", d) }

// Date renders a calendar date as yyyy-mm-dd.
func Date(value time.Time) Field { return F("DATE", value.Format("2006-01-02")) }
