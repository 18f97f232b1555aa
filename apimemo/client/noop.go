package client

import (
	"context"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
)

// noOpRateLimiter implements RateLimiter interface with no-op behavior.
type noOpRateLimiter struct{}

func (noOpRateLimiter) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

// noOpTracer implements Tracer interface with no-op behavior.
type noOpTracer struct{}

func (noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

// noOpLedger implements Ledger interface with no-op behavior.
type noOpLedger struct{}

func (noOpLedger) Record(ctx context.Context, d ports.Dispatch) error { return nil }

func (noOpLedger) Recent(ctx context.Context, limit int) ([]ports.Dispatch, error) {
	return nil, nil
}

// Ensure all no-op types implement their interfaces.
var (
	_ ports.RateLimiter = noOpRateLimiter{}
	_ ports.Tracer      = noOpTracer{}
	_ ports.Ledger      = noOpLedger{}
)
