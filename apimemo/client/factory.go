package client

import (
	"context"
	"database/sql"

	"github.com/ZanzyTHEbar/apimemo/apimemo/client/adapters"
	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/ZanzyTHEbar/apimemo/apimemo/config"
	"github.com/ZanzyTHEbar/apimemo/apimemo/db"
	"github.com/rs/zerolog"
)

// Factory creates and wires dispatcher components from configuration.
type Factory struct {
	cfg    *config.Config
	db     *sql.DB // optional; opened from cfg.Ledger when nil and the ledger is enabled
	ownsDB bool
	logger zerolog.Logger
}

// NewFactory creates a new dispatcher factory.
func NewFactory(cfg *config.Config, database *sql.DB, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		db:     database,
		logger: logger,
	}
}

// CreateDispatcher creates a fully wired Dispatcher. ctx bounds the options
// file watcher when one is configured.
func (f *Factory) CreateDispatcher(ctx context.Context) (*Dispatcher, error) {
	cache, err := f.createCache()
	if err != nil {
		return nil, err
	}

	options, err := f.CreateOptionSource(ctx)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(f.logger),
		WithRateLimiter(f.createRateLimiter()),
		WithTracer(f.createTracer()),
		WithBatchConcurrency(f.cfg.Batch.Concurrency),
	}

	if f.cfg.Cache.CoalesceInflight {
		opts = append(opts, WithCoalescing())
	}

	if path := f.cfg.Schema.ResponseSchema; path != "" {
		guard, err := LoadSchemaGuard(path)
		if err != nil {
			return nil, &Error{Kind: KindInvalidConfiguration, Op: "load response schema", Err: err}
		}
		opts = append(opts, WithSchemaGuard(guard))
	}

	if f.cfg.Ledger.Enabled {
		ledger, err := f.createLedger(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLedger(ledger))
	}

	return NewDispatcher(cache, f.createTransport(), options, opts...)
}

// CreateOptionSource returns the options file source when api.options_file is
// set, and the inline api section otherwise.
func (f *Factory) CreateOptionSource(ctx context.Context) (ports.OptionSource, error) {
	path := f.cfg.API.OptionsFile
	if path == "" {
		return &f.cfg.API, nil
	}

	options, err := config.NewReloadableOptions(path, f.logger)
	if err != nil {
		return nil, &Error{Kind: KindInvalidConfiguration, Op: "load options file", Err: err}
	}

	if f.cfg.API.WatchOptions {
		if err := options.Watch(ctx); err != nil {
			return nil, &Error{Kind: KindInvalidConfiguration, Op: "watch options file", Err: err}
		}
	}
	return options, nil
}

// Close releases the ledger database when the factory opened it.
func (f *Factory) Close() error {
	if f.ownsDB && f.db != nil {
		err := f.db.Close()
		f.db = nil
		return err
	}
	return nil
}

func (f *Factory) createCache() (ports.Cache[string, *ports.Response], error) {
	cache, err := adapters.NewIndexedCache[*ports.Response](f.cfg.Cache.Capacity)
	if err != nil {
		return nil, &Error{Kind: KindInvalidConfiguration, Op: "create cache", Err: err}
	}
	return cache, nil
}

func (f *Factory) createTransport() ports.Transport {
	return adapters.NewHTTPTransport(adapters.HTTPOptions{
		Timeout:      f.cfg.Transport.Timeout,
		MaxRetries:   f.cfg.Transport.MaxRetries,
		RetryBackoff: f.cfg.Transport.RetryBackoff,
		MaxBodyBytes: f.cfg.Transport.MaxBodyBytes,
		UserAgent:    f.cfg.Transport.UserAgent,
	})
}

func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.RateLimit.Enabled {
		return noOpRateLimiter{}
	}
	return adapters.NewTokenBucket(f.cfg.RateLimit.Capacity, f.cfg.RateLimit.RefillRate)
}

func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.Tracing.Enabled {
		return noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

func (f *Factory) createLedger(ctx context.Context) (ports.Ledger, error) {
	if f.db == nil {
		database, err := db.Connect(ctx, f.cfg.Ledger.Path, f.logger)
		if err != nil {
			return nil, &Error{Kind: KindInvalidConfiguration, Op: "open ledger", Err: err}
		}
		f.db = database
		f.ownsDB = true
	} else if err := db.Migrate(f.db); err != nil {
		return nil, &Error{Kind: KindInvalidConfiguration, Op: "migrate ledger", Err: err}
	}
	return adapters.NewLibSQLLedger(f.db), nil
}
