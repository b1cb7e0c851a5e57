package netsynth

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pkg/errors"
)

// NewLogger builds a logger writing to stderr at the configured level, in json
// (production) or console (development) encoding
func NewLogger(ls LogSettings) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(ls.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", ls.Level)
	}

	var config zap.Config
	if ls.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger, nil
}

// orNop returns logger, or a no-op logger when it is nil
func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
