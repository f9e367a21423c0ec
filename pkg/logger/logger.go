// Package logger provides a zap-based application logger that is aware of
// request contexts and the trace they belong to.
package logger

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the minimum severity a Logger writes.
type Level = zapcore.Level

// Supported levels.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// TraceIDFn extracts the active trace id from a context, or "" when none.
type TraceIDFn func(ctx context.Context) string

// Logger writes structured JSON records through zap.
type Logger struct {
	z         *zap.SugaredLogger
	traceIDFn TraceIDFn
}

// New returns a Logger writing JSON records to w. Every record carries the
// service name and, when traceIDFn reports one, the trace id of the context.
func New(w io.Writer, minLevel Level, service string, traceIDFn TraceIDFn) *Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), zap.NewAtomicLevelAt(minLevel))
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", service))

	return &Logger{z: z.Sugar(), traceIDFn: traceIDFn}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop().Sugar()}
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// With returns a child logger that adds keyvals to every record.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{z: l.z.With(keyvals...), traceIDFn: l.traceIDFn}
}

func (l *Logger) Debug(ctx context.Context, msg string, keyvals ...any) {
	l.z.Debugw(msg, l.withTrace(ctx, keyvals)...)
}

func (l *Logger) Info(ctx context.Context, msg string, keyvals ...any) {
	l.z.Infow(msg, l.withTrace(ctx, keyvals)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, keyvals ...any) {
	l.z.Warnw(msg, l.withTrace(ctx, keyvals)...)
}

func (l *Logger) Error(ctx context.Context, msg string, keyvals ...any) {
	l.z.Errorw(msg, l.withTrace(ctx, keyvals)...)
}

// Sync flushes buffered records.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) withTrace(ctx context.Context, keyvals []any) []any {
	if l.traceIDFn == nil || ctx == nil {
		return keyvals
	}
	id := l.traceIDFn(ctx)
	if id == "" {
		return keyvals
	}
	return append([]any{"trace_id", id}, keyvals...)
}
