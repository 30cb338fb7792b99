// Package logging provides the subsystem-tagged structured logger used
// throughout the harvester service.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger *slog.Logger

// InitForCLI initializes the process-wide logger. It must be called once,
// early in main(), before any subsystem logs.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{Level: filterLevel.SlogLevel()}
	handler := slog.NewTextHandler(output, opts)
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	recordEntry(level, subsystem, msg)

	if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	var attrs []slog.Attr
	attrs = append(attrs, slog.String("subsystem", subsystem))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// AuditEvent is a structured record of an externally triggered control
// operation (start/abort/save/submit/reset), suitable for an external audit
// pipeline that needs to reconstruct who asked the harvester to do what.
type AuditEvent struct {
	// Action is the control operation performed, e.g. "start_harvest".
	Action string
	// Outcome is "accepted", "rejected", or "failed".
	Outcome string
	// Pipeline is the affected pipeline name, when applicable.
	Pipeline string
	// Details provides additional context-specific information.
	Details string
	// Error contains the error message if Outcome is "failed".
	Error string
}

// Audit logs a structured audit event at INFO level with an [AUDIT] prefix
// so it can be filtered by log aggregation systems independently of the
// subsystem tag.
func Audit(event AuditEvent) {
	parts := make([]string, 0, 5)
	parts = append(parts, "action="+event.Action)
	parts = append(parts, "outcome="+event.Outcome)
	if event.Pipeline != "" {
		parts = append(parts, "pipeline="+event.Pipeline)
	}
	if event.Details != "" {
		parts = append(parts, "details="+event.Details)
	}
	if event.Error != "" {
		parts = append(parts, "error="+event.Error)
	}

	logInternal(LevelInfo, "AUDIT", nil, "[AUDIT] %s", strings.Join(parts, " "))
}

// Discard configures the logger to drop everything; used by tests.
func Discard() {
	InitForCLI(LevelError, io.Discard)
}

// Entry is one recorded log line, independent of the process-wide filter
// level applied to the actual writer: GET /log can retrieve entries the
// writer itself dropped, since the ring buffer records everything.
type Entry struct {
	Time      time.Time
	Level     LogLevel
	Subsystem string
	Message   string
}

const ringCapacity = 1000

var (
	ringMu  sync.Mutex
	ring    []Entry
	ringPos int
)

func recordEntry(level LogLevel, subsystem, message string) {
	ringMu.Lock()
	defer ringMu.Unlock()

	e := Entry{Time: time.Now(), Level: level, Subsystem: subsystem, Message: message}
	if len(ring) < ringCapacity {
		ring = append(ring, e)
		return
	}
	ring[ringPos] = e
	ringPos = (ringPos + 1) % ringCapacity
}

// Query returns recorded entries at or above minLevel, at or after since
// (zero means no lower bound), and — when subsystems is non-empty —
// restricted to those subsystem names. Backs GET /log's date/level/class
// filter (spec.md §6).
func Query(since time.Time, minLevel LogLevel, subsystems []string) []Entry {
	ringMu.Lock()
	ordered := orderedRingLocked()
	ringMu.Unlock()

	classSet := make(map[string]bool, len(subsystems))
	for _, s := range subsystems {
		classSet[s] = true
	}

	out := make([]Entry, 0, len(ordered))
	for _, e := range ordered {
		if e.Level < minLevel {
			continue
		}
		if !since.IsZero() && e.Time.Before(since) {
			continue
		}
		if len(classSet) > 0 && !classSet[e.Subsystem] {
			continue
		}
		out = append(out, e)
	}
	return out
}

func orderedRingLocked() []Entry {
	if len(ring) < ringCapacity {
		out := make([]Entry, len(ring))
		copy(out, ring)
		return out
	}
	out := make([]Entry, 0, ringCapacity)
	out = append(out, ring[ringPos:]...)
	out = append(out, ring[:ringPos]...)
	return out
}

// ResetRingForTest clears the in-memory log ring; used by tests that assert
// on Query's output.
func ResetRingForTest() {
	ringMu.Lock()
	defer ringMu.Unlock()
	ring = nil
	ringPos = 0
}
