// Package logger provides a structured logging interface for treesum.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "treesum/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	log := logger.GetLogger()
//	log.WithField("target", "/data/photos").Info("Calculating checksum")
//	log.WithError(err).Error("Failed to hash file")
package logger
