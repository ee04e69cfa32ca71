package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/16 15:21
 * @file: log_rewrite.go
 * @description: LogConfig rewrite
 */

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// WithContext 返回携带 trace_id/span_id 的 logger（如果 ctx 中存在有效 span）
func WithContext(ctx context.Context) *zap.SugaredLogger {
	l := current()
	if ctx == nil {
		return l
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}

func Info(args ...any) {
	current().Info(args...)
}

func Infof(format string, args ...any) {
	current().Infof(format, args...)
}

func Infow(msg string, keysAndValues ...any) {
	current().Infow(msg, keysAndValues...)
}

func Debug(args ...any) {
	current().Debug(args...)
}

func Debugf(format string, args ...any) {
	current().Debugf(format, args...)
}

func Debugw(msg string, keysAndValues ...any) {
	current().Debugw(msg, keysAndValues...)
}

func Warn(args ...any) {
	current().Warn(args...)
}

func Warnf(format string, args ...any) {
	current().Warnf(format, args...)
}

func Warnw(msg string, keysAndValues ...any) {
	current().Warnw(msg, keysAndValues...)
}

func Error(args ...any) {
	current().Error(args...)
}

func Errorf(format string, args ...any) {
	current().Errorf(format, args...)
}

func Errorw(msg string, keysAndValues ...any) {
	current().Errorw(msg, keysAndValues...)
}

func Fatal(args ...any) {
	current().Fatal(args...)
}

func Fatalf(format string, args ...any) {
	current().Fatalf(format, args...)
}
