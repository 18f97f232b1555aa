package adapters

import (
	"context"
	"time"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type spanLoggerKey struct{}

// ZerologTracer implements the Tracer interface using zerolog.
type ZerologTracer struct {
	logger zerolog.Logger
}

// NewZerologTracer creates a new zerolog tracer.
func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{logger: logger}
}

// StartSpan opens a span and stores its logger in the returned context so that
// Event calls made under it carry the span fields.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	lc := t.fromContext(ctx).With().Str("span", name).Str("span_id", uuid.NewString())
	for k, v := range attrs {
		lc = lc.Interface(k, v)
	}
	spanLogger := lc.Logger()

	ctx = context.WithValue(ctx, spanLoggerKey{}, spanLogger)
	start := time.Now()
	spanLogger.Debug().Str("event", "span_start").Msg("starting span")

	finish := func(err error) {
		event := spanLogger.Debug()
		if err != nil {
			event = spanLogger.Error().Err(err)
		}
		event.
			Str("event", "span_end").
			Dur("duration", time.Since(start)).
			Msg("ending span")
	}

	return ctx, finish
}

// Event logs a named event, attached to the current span when there is one.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	logger := t.fromContext(ctx)
	event := logger.Info()
	for k, v := range attrs {
		event = event.Interface(k, v)
	}
	event.Str("event", name).Msg("trace event")
}

func (t *ZerologTracer) fromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(spanLoggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return t.logger
}

// Ensure ZerologTracer implements the Tracer interface.
var _ ports.Tracer = (*ZerologTracer)(nil)
