package clientports

import (
	"context"
	"time"
)

// Dispatch records one outbound call made on a cache miss.
type Dispatch struct {
	ID         string
	Key        string
	URL        string
	StatusCode int    // 0 when the transport failed
	Error      string // empty on success
	Duration   time.Duration
	CreatedAt  time.Time
}

// Ledger keeps an append-only history of dispatched calls. It is never used to
// answer requests.
type Ledger interface {
	Record(ctx context.Context, d Dispatch) error
	Recent(ctx context.Context, limit int) ([]Dispatch, error)
}
