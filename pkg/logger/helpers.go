package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs the outcome of one outbound HTTP call on l
func LogRequest(l Logger, method, endpoint string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.WarnWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.DebugWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogLoginAttempt logs one credential login attempt
func LogLoginAttempt(l Logger, attempt, maxAttempts int, transient bool) {
	l.DebugWithFields("Login attempt", map[string]interface{}{
		"attempt":      attempt,
		"max_attempts": maxAttempts,
		"transient":    transient,
	})
}

// LogProbe logs the result of one validation probe
func LogProbe(l Logger, probeID, state string) {
	l.DebugWithFields("Validation probe finished", map[string]interface{}{
		"probe_id": probeID,
		"state":    state,
	})
}

// LogDumpProgress logs cumulative dump counters after a target was processed
func LogDumpProgress(l Logger, target string, index, total, mainCount, unsepCount int) {
	l.DebugWithFields("Target processed", map[string]interface{}{
		"target":      target,
		"index":       index,
		"total":       total,
		"main":        mainCount,
		"unseparated": unsepCount,
	})
}

// OrGlobal returns l, or the global logger when l is nil
func OrGlobal(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// NewNopLogger creates a logger that discards all output
func NewNopLogger() Logger {
	nop := zerolog.Nop()
	return &zerologLogger{
		logger: &nop,
		fields: make(map[string]interface{}),
	}
}
