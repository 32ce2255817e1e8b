package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.SugaredLogger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps an existing zap logger. A nil logger yields a SilentLogger.
func NewZapLogger(z *zap.Logger) Logger {
	if z == nil {
		return NewSilentLogger()
	}
	return &ZapLogger{sugar: z.Sugar()}
}

// NewProductionZap builds a JSON zap logger writing to stderr at the given level
// ("debug", "info", "error"). Unknown levels fall back to info.
func NewProductionZap(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func (z *ZapLogger) Info(msg string, args ...interface{}) {
	z.sugar.Infof(msg, args...)
}

func (z *ZapLogger) Error(msg string, args ...interface{}) {
	z.sugar.Errorf(msg, args...)
}

func (z *ZapLogger) Debug(msg string, args ...interface{}) {
	z.sugar.Debugf(msg, args...)
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
