package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	loggerMu   sync.RWMutex

	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the global zap logger (JSON to stderr, no stack traces).
// If the production config cannot be built we fall back to a no-op logger
// rather than failing the caller.
func initLogger() {
	loggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = atomicLevel
		cfg.DisableStacktrace = true
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			l = zap.NewNop()
		}

		loggerMu.Lock()
		if logger == nil {
			logger = l.Sugar()
		}
		loggerMu.Unlock()
	})
}

func current() *zap.SugaredLogger {
	initLogger()
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLevel changes the minimum level of the global logger.
func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		atomicLevel.SetLevel(zapcore.DebugLevel)
	case LevelError:
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	default:
		atomicLevel.SetLevel(zapcore.InfoLevel)
	}
}

// SetLogger replaces the global logger. Tests use it with zap.NewNop() or an
// observer core.
func SetLogger(l *zap.Logger) {
	initLogger()
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	logger = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	loggerMu.Unlock()
}

// Sync flushes any buffered entries. Call before exit.
func Sync() error {
	return current().Sync()
}

func Debug(msg string, kv ...any) {
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Infow(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}
