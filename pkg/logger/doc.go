// Package logger provides structured logging for the Untappd data pipeline.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output for interactive runs, JSON output for daemon mode
// - Optional file output alongside the console
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "github.com/dallangoldblatt/untappd-data/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Pipeline started")
//	logger.WithField("brewery", "1001").Info("Feed fetched")
//	logger.WithError(err).Error("Failed to store post")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("stage", "update").
//	    WithField("run_id", runID)
//
//	// Use structured logging
//	log.InfoWithFields("Run complete", map[string]interface{}{
//	    "processed": 14,
//	    "skipped":   2,
//	    "failed":    0,
//	})
package logger
