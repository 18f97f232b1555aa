package clientports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the result of one external call. The cache shares a single
// Response between every caller that hits the same key, so callers must treat
// it as read-only.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Transport performs the actual network call. Any response that makes it back,
// whatever its status, is returned without error; err is reserved for network
// and protocol failures.
type Transport interface {
	Send(ctx context.Context, url string, headers map[string]string) (*Response, error)
}
