package client

import (
	"context"
	"errors"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrPrefixUnsupported is returned by Invalidate when the cache cannot drop
// keys by prefix.
var ErrPrefixUnsupported = errors.New("cache does not support prefix invalidation")

// ErrNilResponse is wrapped when a transport reports neither a response nor an error.
var ErrNilResponse = errors.New("transport returned no response")

// headerPairs maps each header-name option to the option holding its value.
var headerPairs = [][2]string{
	{ports.OptionHeader, ports.OptionRapidAPIHost},
	{ports.OptionHeader1, ports.OptionRapidAPIKey},
}

// Dispatcher is the single entry point for API calls. It answers from the
// cache when it can and otherwise calls the transport, caching whatever
// response comes back.
//
// The transport call runs outside every cache lock, so two concurrent misses
// on one key both reach the network unless coalescing is enabled. Duplicate
// GETs against a read-only API are harmless; the later Put simply wins.
type Dispatcher struct {
	cache     ports.Cache[string, *ports.Response]
	transport ports.Transport
	options   ports.OptionSource
	limiter   ports.RateLimiter
	tracer    ports.Tracer
	ledger    ports.Ledger
	guard     *SchemaGuard
	logger    zerolog.Logger

	inflight         *singleflight.Group
	batchConcurrency int
	stats            statsCollector
}

// Option configures optional Dispatcher collaborators.
type Option func(*Dispatcher)

func WithRateLimiter(l ports.RateLimiter) Option { return func(d *Dispatcher) { d.limiter = l } }

func WithTracer(t ports.Tracer) Option { return func(d *Dispatcher) { d.tracer = t } }

func WithLedger(l ports.Ledger) Option { return func(d *Dispatcher) { d.ledger = l } }

func WithSchemaGuard(g *SchemaGuard) Option { return func(d *Dispatcher) { d.guard = g } }

func WithLogger(l zerolog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithCoalescing makes concurrent misses on the same key share one transport
// call. The shared call runs under the context of the caller that started it.
func WithCoalescing() Option {
	return func(d *Dispatcher) { d.inflight = &singleflight.Group{} }
}

// WithBatchConcurrency bounds the goroutines used by DoAll.
func WithBatchConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchConcurrency = n
		}
	}
}

// NewDispatcher wires a dispatcher around an explicitly owned cache.
func NewDispatcher(
	cache ports.Cache[string, *ports.Response],
	transport ports.Transport,
	options ports.OptionSource,
	opts ...Option,
) (*Dispatcher, error) {
	switch {
	case cache == nil:
		return nil, &Error{Kind: KindInvalidConfiguration, Op: "new dispatcher", Err: errors.New("cache is required")}
	case transport == nil:
		return nil, &Error{Kind: KindInvalidConfiguration, Op: "new dispatcher", Err: errors.New("transport is required")}
	case options == nil:
		return nil, &Error{Kind: KindInvalidConfiguration, Op: "new dispatcher", Err: errors.New("option source is required")}
	}

	d := &Dispatcher{
		cache:            cache,
		transport:        transport,
		options:          options,
		limiter:          noOpRateLimiter{},
		tracer:           noOpTracer{},
		ledger:           noOpLedger{},
		logger:           zerolog.Nop(),
		batchConcurrency: 4,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Do returns the response for req, from the cache on a hit and from the
// transport on a miss. Transport failures are returned as KindTransport errors
// and are never cached; any response the transport returns is cached,
// whatever its status code.
func (d *Dispatcher) Do(ctx context.Context, req Request) (resp *ports.Response, err error) {
	key, err := d.Key(req)
	if err != nil {
		return nil, err
	}

	ctx, finish := d.tracer.StartSpan(ctx, "dispatch", map[string]any{"key": key})
	defer func() { finish(err) }()

	if cached, ok := d.cache.Get(key); ok {
		d.stats.recordHit()
		d.tracer.Event(ctx, "cache_hit", map[string]any{"key": key})
		return cached, nil
	}
	d.stats.recordMiss()
	d.tracer.Event(ctx, "cache_miss", map[string]any{"key": key})

	target, headers, err := d.assemble(key)
	if err != nil {
		return nil, err
	}

	if d.inflight == nil {
		return d.fetch(ctx, key, target, headers)
	}

	var leader bool
	d.stats.enterInflight()
	v, err, shared := d.inflight.Do(key, func() (any, error) {
		leader = true
		return d.fetch(ctx, key, target, headers)
	})
	d.stats.leaveInflight()
	if shared && !leader {
		d.stats.recordCoalesced()
	}
	if err != nil {
		return nil, err
	}
	return v.(*ports.Response), nil
}

// Key validates req and returns its cache key.
func (d *Dispatcher) Key(req Request) (string, error) {
	if !req.Valid() {
		return "", invalidRequest("request was not built by a constructor")
	}
	endpoint, ok := d.options.GetOption(ports.OptionEndpoint)
	if !ok {
		return "", missingOption(ports.OptionEndpoint)
	}
	return req.Path(endpoint), nil
}

// Lookup returns the cached response for req without touching the network.
func (d *Dispatcher) Lookup(req Request) (*ports.Response, bool, error) {
	key, err := d.Key(req)
	if err != nil {
		return nil, false, err
	}
	resp, ok := d.cache.Get(key)
	return resp, ok, nil
}

// Forget drops the cached response for req.
func (d *Dispatcher) Forget(req Request) (bool, error) {
	key, err := d.Key(req)
	if err != nil {
		return false, err
	}
	return d.cache.Remove(key), nil
}

// Invalidate drops every cached response whose key starts with prefix.
func (d *Dispatcher) Invalidate(prefix string) (int, error) {
	inv, ok := d.cache.(ports.PrefixInvalidator)
	if !ok {
		return 0, ErrPrefixUnsupported
	}
	return inv.RemovePrefix(prefix), nil
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return d.stats.snapshot(d.cache.Len())
}

// assemble builds the call target and headers. host is required; each header
// pair is optional, but a name without a value (or the reverse) is an error.
func (d *Dispatcher) assemble(key string) (string, map[string]string, error) {
	host, ok := d.options.GetOption(ports.OptionHost)
	if !ok {
		return "", nil, missingOption(ports.OptionHost)
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	target := strings.TrimRight(host, "/") + "/" + key

	headers := make(map[string]string, len(headerPairs))
	for _, pair := range headerPairs {
		name, hasName := d.options.GetOption(pair[0])
		value, hasValue := d.options.GetOption(pair[1])
		switch {
		case hasName && hasValue:
			headers[name] = value
		case hasName:
			return "", nil, missingOption(pair[1])
		case hasValue:
			return "", nil, missingOption(pair[0])
		}
	}
	return target, headers, nil
}

// fetch performs the miss path: rate limit, transport, guard, store.
func (d *Dispatcher) fetch(ctx context.Context, key, target string, headers map[string]string) (*ports.Response, error) {
	release, err := d.limiter.Acquire(ctx, "dispatch")
	if err != nil {
		return nil, transportError("acquire rate limit", err)
	}
	defer release()

	start := time.Now()
	resp, err := d.transport.Send(ctx, target, headers)
	elapsed := time.Since(start)

	status := 0
	switch {
	case err != nil:
		err = transportError("send", err)
	case resp == nil:
		err = transportError("send", ErrNilResponse)
	default:
		status = resp.StatusCode
		if gerr := d.guard.Check(resp); gerr != nil {
			resp, err = nil, transportError("validate response", gerr)
		}
	}

	d.stats.recordDispatch(elapsed, err)
	d.record(ctx, key, target, status, elapsed, err)

	if err != nil {
		d.tracer.Event(ctx, "transport_error", map[string]any{"key": key, "error": err.Error()})
		return nil, err
	}

	d.cache.Put(key, resp)
	d.stats.recordStore()
	d.tracer.Event(ctx, "cache_store", map[string]any{"key": key, "status": resp.StatusCode})
	return resp, nil
}

// record writes the dispatch to the ledger. Ledger failures are logged only.
// status is the code the server sent, kept even when the body was rejected.
func (d *Dispatcher) record(ctx context.Context, key, target string, status int, elapsed time.Duration, err error) {
	entry := ports.Dispatch{
		ID:         uuid.NewString(),
		Key:        key,
		URL:        target,
		StatusCode: status,
		Duration:   elapsed,
		CreatedAt:  time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	if lerr := d.ledger.Record(ctx, entry); lerr != nil {
		d.logger.Warn().Err(lerr).Str("key", key).Msg("failed to record dispatch")
	}
}
