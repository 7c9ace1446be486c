// Package logging builds the application logger. Logging is off by default;
// --debug writes development-format logs to .bax/debug.log so a session can
// be reconstructed after the fact without polluting the terminal.
package logging

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// New returns a nop logger, or a file-backed debug logger when debug is set.
func New(stateDir string, debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{filepath.Join(stateDir, "debug.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
