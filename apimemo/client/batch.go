package client

import (
	"context"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/sourcegraph/conc/pool"
)

// Result pairs a batch request with its outcome.
type Result struct {
	Request  Request
	Response *ports.Response
	Err      error
}

// DoAll dispatches every request with bounded concurrency and returns results
// in input order. One failing request does not cancel the others.
func (d *Dispatcher) DoAll(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	p := pool.New().WithMaxGoroutines(min(d.batchConcurrency, len(reqs)))
	for i, req := range reqs {
		p.Go(func() {
			resp, err := d.Do(ctx, req)
			results[i] = Result{Request: req, Response: resp, Err: err}
		})
	}
	p.Wait()

	return results
}
