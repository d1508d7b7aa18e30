package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger for long-running processes. When debug is true,
// uses development config (human-readable, debug level); otherwise uses production
// config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewClientLogger returns a logger for interactive commands. It is silent unless
// debug is set, so log lines never interleave with terminal output.
func NewClientLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
