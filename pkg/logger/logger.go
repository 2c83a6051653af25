package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the zap levels we actually use.
type Level = zapcore.Level

const (
	DEBUG = zapcore.DebugLevel
	INFO  = zapcore.InfoLevel
	WARN  = zapcore.WarnLevel
	ERROR = zapcore.ErrorLevel
)

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(INFO)
	base  *zap.Logger
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	base = l
}

// SetLevel adjusts the global log level at runtime.
func SetLevel(l Level) {
	level.SetLevel(l)
}

// SetLogger replaces the backing logger. Intended for tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

// DebugCF logs at debug level with a component tag and structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.DebugLevel, component, msg, fields)
}

// InfoCF logs at info level with a component tag and structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.InfoLevel, component, msg, fields)
}

// WarnCF logs at warn level with a component tag and structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.WarnLevel, component, msg, fields)
}

// ErrorCF logs at error level with a component tag and structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.ErrorLevel, component, msg, fields)
}

func log(lvl zapcore.Level, component, msg string, fields map[string]interface{}) {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l == nil {
		return
	}

	zfields := make([]zap.Field, 0, len(fields)+1)
	zfields = append(zfields, zap.String("component", component))
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}

	switch lvl {
	case zapcore.DebugLevel:
		l.Debug(msg, zfields...)
	case zapcore.InfoLevel:
		l.Info(msg, zfields...)
	case zapcore.WarnLevel:
		l.Warn(msg, zfields...)
	default:
		l.Error(msg, zfields...)
	}
}
