package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/isoward/isoward/internal/config"
)

// New builds the root process logger. Format selects the encoder: "json"
// for structured production output, anything else a human-readable console
// encoder. Components receive Named children of this logger, so every entry
// carries a "logger" key identifying the emitting subsystem.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	sink, _, err := zap.Open(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("opening log output %q: %w", cfg.OutputPath, err)
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core,
		zap.AddCaller(),
		// Stack traces for errors and above
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}
