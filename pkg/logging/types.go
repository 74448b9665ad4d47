package logging

import (
	"fmt"
	"strings"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	// LogLevelDebug is for debug messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is for informational messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is for warning messages
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is for error messages
	LogLevelError LogLevel = "error"
)

const (
	defaultMaxLogSize     = 10 * 1024 * 1024
	defaultVerifyInterval = time.Minute
)

// App is the global application logger
var App *AppLogger

func init() {
	var err error

	// Default logger writes to stdout at info level
	App, err = NewAppLogger("", LogLevelInfo, 0, 0)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default app logger: %v", err))
	}
}

// Initialize sets up the global application logger. An empty path logs to stdout.
func Initialize(appLogPath string, level LogLevel) error {
	if level == "" {
		level = LogLevelInfo
	}

	newApp, err := NewAppLogger(appLogPath, level, defaultMaxLogSize, defaultVerifyInterval)
	if err != nil {
		return fmt.Errorf("failed to initialize app logger: %w", err)
	}

	App = newApp
	return nil
}

// MustInitialize initializes logging and panics on error
func MustInitialize(appLogPath string, level LogLevel) {
	if err := Initialize(appLogPath, level); err != nil {
		panic(fmt.Sprintf("failed to initialize logging: %v", err))
	}
}

// formatValue formats a value for logfmt, quoting if necessary
func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	// Quote if contains space, equals, or quotes
	if strings.ContainsAny(s, " =\"") {
		// Escape existing quotes
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
