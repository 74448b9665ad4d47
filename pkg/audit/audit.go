// Package audit provides the append-only security event log. Each call
// emits one line:
//
//	2006-01-02 15:04:05 [LEVEL] free text
//
// where LEVEL is one of SUCCESS, FAILURE, PASSWORD, ADMIN or SECURITY.
package audit

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nvoronin/seccalc/pkg/logging"
)

// Level classifies a security event
type Level string

const (
	LevelSuccess  Level = "SUCCESS"
	LevelFailure  Level = "FAILURE"
	LevelPassword Level = "PASSWORD"
	LevelAdmin    Level = "ADMIN"
	LevelSecurity Level = "SECURITY"
)

const timestampFormat = "2006-01-02 15:04:05"

// Logger appends security events to a sink. Write failures are reported
// to the application log and never interrupt the caller.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// New creates a Logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// NewWithClock creates a Logger with an injected time source
func NewWithClock(w io.Writer, now func() time.Time) *Logger {
	return &Logger{w: w, now: now}
}

// Discard returns a Logger that drops all events
func Discard() *Logger {
	return New(io.Discard)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s\n", l.now().Format(timestampFormat), level, fmt.Sprintf(format, args...))
	if _, err := io.WriteString(l.w, line); err != nil {
		logging.App.Error("Failed to write audit log", "level", level, "error", err)
	}
}

// LoginSuccess records a successful authentication
func (l *Logger) LoginSuccess(username, address string) {
	l.log(LevelSuccess, "Login: user='%s' ip=%s", username, address)
}

// LoginFailure records a failed authentication with its reason
func (l *Logger) LoginFailure(username, address, reason string) {
	l.log(LevelFailure, "Login: user='%s' ip=%s reason='%s'", username, address, reason)
}

// PasswordChange records a password change attempt
func (l *Logger) PasswordChange(username string, success bool) {
	l.log(LevelPassword, "Change: user='%s' success=%t", username, success)
}

// AdminAction records an administrative action against a target
func (l *Logger) AdminAction(actor, action, target string) {
	l.log(LevelAdmin, "Action: admin='%s' action='%s' target='%s'", actor, action, target)
}

// SecurityEvent records a lifecycle or security event
func (l *Logger) SecurityEvent(event, details string) {
	l.log(LevelSecurity, "%s: %s", event, details)
}
