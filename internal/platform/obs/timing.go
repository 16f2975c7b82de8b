package obs

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of op once the returned func runs. Pass the named
// error result so failures are logged at warn level.
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		attrs := []any{
			slog.String("req_id", RequestID(ctx)),
			slog.String("op", op),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		}

		if errp != nil && *errp != nil {
			slog.WarnContext(ctx, "operation failed", append(attrs, slog.Any("error", *errp))...)
			return
		}
		slog.DebugContext(ctx, "operation finished", attrs...)
	}
}
