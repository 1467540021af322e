package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents one outbound API call for timing and correlation.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartCall tags the context with a fresh call id and a logger enriched with
// the call metadata. It returns the derived context and the span handle.
func StartCall(ctx context.Context, method, path string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	callID := CallIDFromContext(ctx)
	if callID == "" {
		callID = uuid.NewString()
		ctx = WithCallID(ctx, callID)
	}

	logger = logger.With(
		slog.String("call_id", callID),
		slog.String("method", method),
		slog.String("path", path),
	)
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End(status int, err error) {
	if s == nil {
		return
	}
	attrs := []any{
		slog.Duration("duration", time.Since(s.start)),
		slog.Int("status", status),
	}
	if err != nil {
		s.logger.Warn("api call failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	s.logger.Debug("api call completed", attrs...)
}
