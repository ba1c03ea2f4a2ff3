package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger on stderr configured with the given level
// string. Status output for the user goes to stdout; the logger carries
// diagnostics only.
func New(level string) (*zap.Logger, error) {
	lower := strings.ToLower(level)
	var zapLevel zapcore.Level
	development := false
	switch lower {
	case "debug":
		development = true
		zapLevel = zapcore.DebugLevel
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zapLevel),
	)
	return zap.New(core), nil
}
