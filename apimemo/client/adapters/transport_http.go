package adapters

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
)

// ErrBodyTooLarge is returned when a response body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

const maxBackoff = 10 * time.Second

// HTTPOptions configures HTTPTransport.
type HTTPOptions struct {
	Timeout      time.Duration
	MaxRetries   int           // extra attempts on 429/5xx; 0 disables retries
	RetryBackoff time.Duration // base delay, doubled per attempt
	MaxBodyBytes int64
	UserAgent    string
}

// DefaultHTTPOptions returns the transport defaults.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:      30 * time.Second,
		MaxRetries:   0,
		RetryBackoff: 500 * time.Millisecond,
		MaxBodyBytes: 5 << 20,
		UserAgent:    "apimemo/1.0",
	}
}

// HTTPTransport sends GET requests with net/http. Proxy settings come from the
// environment (HTTP_PROXY, HTTPS_PROXY).
type HTTPTransport struct {
	httpClient *http.Client
	opts       HTTPOptions
}

// NewHTTPTransport creates a transport with its own connection pool.
func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	defaults := DefaultHTTPOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaults.RetryBackoff
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: opts.Timeout,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		opts: opts,
	}
}

// NewHTTPTransportWithClient wraps an existing http.Client, mostly for tests.
func NewHTTPTransportWithClient(client *http.Client, opts HTTPOptions) *HTTPTransport {
	t := NewHTTPTransport(opts)
	t.httpClient = client
	return t
}

// Send issues a GET to url with the given headers. Responses with status 429 or
// 5xx are retried up to MaxRetries times; the last response is returned as-is
// once retries run out.
func (t *HTTPTransport) Send(ctx context.Context, url string, headers map[string]string) (*ports.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := t.do(ctx, url, headers)
		if err != nil {
			return nil, err
		}

		if !isRetryable(resp.StatusCode) || attempt >= t.opts.MaxRetries {
			return resp, nil
		}

		if err := sleepWithContext(ctx, backoff(t.opts.RetryBackoff, attempt)); err != nil {
			return nil, fmt.Errorf("context cancelled during retry backoff: %w", err)
		}
	}
}

func (t *HTTPTransport) do(ctx context.Context, url string, headers map[string]string) (*ports.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	if t.opts.UserAgent != "" {
		req.Header.Set("User-Agent", t.opts.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > t.opts.MaxBodyBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, t.opts.MaxBodyBytes)
	}

	return &ports.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// isRetryable returns true for status codes that warrant a retry.
func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensure HTTPTransport implements the Transport interface.
var _ ports.Transport = (*HTTPTransport)(nil)
