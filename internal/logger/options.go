package logger

import (
	"io"
	"log/slog"
)

// Format selects the log output encoding
type Format string

const (
	// FormatText renders logfmt-style text lines
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format. Unknown values fall back
// to text.
func ParseFormat(s string) Format {
	if s == string(FormatJSON) {
		return FormatJSON
	}
	return FormatText
}

// ParseLevel maps a flag value to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// config collects the settings the options apply to
type config struct {
	level  slog.Level
	output io.Writer
	format Format
}

// Option configures the logger built by New
type Option func(*config)

// WithLevel sets the minimum level a message must have to be emitted
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithOutput directs log output to w instead of stderr
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithFormat selects the output encoding
func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}
