// Package logger provides the structured logging interface used across frienddump.
//
// It wraps zerolog behind a small Logger interface so components can be handed a
// TestLogger or a no-op logger in tests:
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("run_id", runID).InfoWithFields("phase complete", map[string]interface{}{
//	    "phase":   2,
//	    "targets": 40,
//	})
//
// Console output is written to stderr. When Logging.File is set, entries are
// also appended to that file.
package logger
