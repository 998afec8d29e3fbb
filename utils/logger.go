package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger is the structured logger used across services and infrastructure.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

// AppLogger writes one line per entry, as JSON or as key=value text.
type AppLogger struct {
	level   string
	format  string
	service string
	output  io.Writer
	mu      sync.Mutex
}

// NewLogger builds a logger writing to stdout. Unknown levels fall back to
// INFO and any format other than "json" is text.
func NewLogger(service, level, format string) *AppLogger {
	return NewLoggerTo(os.Stdout, service, level, format)
}

func NewLoggerTo(w io.Writer, service, level, format string) *AppLogger {
	level = strings.ToUpper(strings.TrimSpace(level))
	if _, ok := levelRank[level]; !ok {
		level = "INFO"
	}
	if format != "json" {
		format = "text"
	}
	return &AppLogger{level: level, format: format, service: service, output: w}
}

func (l *AppLogger) Debug(msg string, fields map[string]interface{}) { l.log("DEBUG", msg, fields) }
func (l *AppLogger) Info(msg string, fields map[string]interface{})  { l.log("INFO", msg, fields) }
func (l *AppLogger) Warn(msg string, fields map[string]interface{})  { l.log("WARN", msg, fields) }
func (l *AppLogger) Error(msg string, fields map[string]interface{}) { l.log("ERROR", msg, fields) }

func (l *AppLogger) log(level, msg string, fields map[string]interface{}) {
	if levelRank[level] < levelRank[l.level] {
		return
	}
	timestamp := time.Now().Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == "json" {
		entry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"service":   l.service,
			"message":   msg,
		}
		for k, v := range fields {
			if _, reserved := entry[k]; reserved {
				continue
			}
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			entry[k] = v
		}
		if data, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(l.output, string(data))
		}
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", timestamp, level, l.service, msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	fmt.Fprintln(l.output, b.String())
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, map[string]interface{}) {}
func (NoOpLogger) Info(string, map[string]interface{})  {}
func (NoOpLogger) Warn(string, map[string]interface{})  {}
func (NoOpLogger) Error(string, map[string]interface{}) {}
