package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/logger"
)

// Global flags for logging configuration
var (
	flagLogLevel  string
	flagLogFormat string
)

// RegisterLoggerFlags registers global logging flags
func RegisterLoggerFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
}

// CreateLogger creates a logger based on CLI flags
func CreateLogger() logger.Logger {
	return logger.New(
		logger.WithLevel(logger.ParseLevel(flagLogLevel)),
		logger.WithFormat(logger.ParseFormat(flagLogFormat)),
		logger.WithOutput(os.Stderr),
	)
}
