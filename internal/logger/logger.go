package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// New создаёт production-логгер с полем service
func New(serviceName string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}
	return config.Build()
}

// WithRequestID добавляет к логгеру request_id
func WithRequestID(log *zap.Logger, requestID string) *zap.Logger {
	return log.With(zap.String("request_id", requestID))
}

// IntoContext кладёт логгер апдейта в контекст
func IntoContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext достаёт логгер апдейта; fallback, если его нет
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && log != nil {
		return log
	}
	return fallback
}

func LogAdminAction(log *zap.Logger, adminID int64, action, params string) {
	log.Info("admin_action", zap.Int64("admin_id", adminID), zap.String("action", action), zap.String("params", params))
}
