// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production).
//
// # Run Correlation
//
// Every reconciliation run carries a unique run ID. The WithRunID helper
// attaches it to the logger so that all entries produced by one run can be
// correlated across batches, repairs, and report generation.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Run started")
//
//	// Inside a run:
//	l := logger.WithRunID(log, runID)
//	l.Error("Batch failed", zap.Error(err))
package logger
