package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/ZanzyTHEbar/apimemo/apimemo/config"
	"github.com/ZanzyTHEbar/apimemo/apimemo/db"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(host string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Host:         host,
			Endpoint:     "obd2",
			Header:       "X-RapidAPI-Key",
			RapidAPIHost: "secret",
		},
		Cache:     config.CacheConfig{Capacity: 5},
		Transport: config.TransportConfig{Timeout: 5 * time.Second},
		RateLimit: config.RateLimitConfig{Capacity: 10, RefillRate: time.Second},
		Tracing:   config.TracingConfig{Enabled: true},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
		Batch:     config.BatchConfig{Concurrency: 2},
	}
}

func newCarCodeServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		code := strings.TrimPrefix(r.URL.Path, "/obd2/")
		_, _ = w.Write([]byte(`{"code":"` + code + `","definition":"test"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFactory_CreateDispatcher(t *testing.T) {
	var hits atomic.Int32
	srv := newCarCodeServer(t, &hits)

	f := NewFactory(testConfig(srv.URL), nil, zerolog.Nop())
	t.Cleanup(func() { _ = f.Close() })

	d, err := f.CreateDispatcher(context.Background())
	require.NoError(t, err)

	req, err := NewValueRequest("P0001")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		resp, err := d.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Contains(t, string(resp.Body), "P0001")
	}
	assert.Equal(t, int32(1), hits.Load())

	n, err := d.Invalidate("obd2/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFactory_InvalidCapacity(t *testing.T) {
	cfg := testConfig("example.com")
	cfg.Cache.Capacity = 0

	_, err := NewFactory(cfg, nil, zerolog.Nop()).CreateDispatcher(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestFactory_MissingSchemaFile(t *testing.T) {
	cfg := testConfig("example.com")
	cfg.Schema.ResponseSchema = filepath.Join(t.TempDir(), "missing.json")

	_, err := NewFactory(cfg, nil, zerolog.Nop()).CreateDispatcher(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestFactory_OptionsFileTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.conf")
	require.NoError(t, os.WriteFile(path, []byte("host -> file.example.com\nendpoint -> v2\n"), 0o644))

	cfg := testConfig("inline.example.com")
	cfg.API.OptionsFile = path

	src, err := NewFactory(cfg, nil, zerolog.Nop()).CreateOptionSource(context.Background())
	require.NoError(t, err)

	host, ok := src.GetOption(ports.OptionHost)
	assert.True(t, ok)
	assert.Equal(t, "file.example.com", host)
	_, ok = src.GetOption(ports.OptionHeader)
	assert.False(t, ok, "inline values are not merged in")
}

func TestFactory_BadOptionsFile(t *testing.T) {
	cfg := testConfig("example.com")
	cfg.API.OptionsFile = filepath.Join(t.TempDir(), "missing.conf")

	_, err := NewFactory(cfg, nil, zerolog.Nop()).CreateDispatcher(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, err, config.ErrOptionsFileNotFound)
}

func TestFactory_RateLimitEnabled(t *testing.T) {
	var hits atomic.Int32
	srv := newCarCodeServer(t, &hits)

	cfg := testConfig(srv.URL)
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Capacity: 1, RefillRate: time.Hour}

	d, err := NewFactory(cfg, nil, zerolog.Nop()).CreateDispatcher(context.Background())
	require.NoError(t, err)

	results := d.DoAll(context.Background(), []Request{valueRequest(t, "P0001"), valueRequest(t, "P0002")})
	failures := 0
	for _, res := range results {
		if res.Err != nil {
			assert.ErrorIs(t, res.Err, ErrTransport)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFactory_LedgerOwnsDatabase(t *testing.T) {
	var hits atomic.Int32
	srv := newCarCodeServer(t, &hits)

	cfg := testConfig(srv.URL)
	cfg.Ledger = config.LedgerConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "ledger.db")}

	f := NewFactory(cfg, nil, zerolog.Nop())
	d, err := f.CreateDispatcher(context.Background())
	if err != nil {
		t.Skipf("libsql unavailable: %v", err)
	}

	_, err = d.Do(context.Background(), valueRequest(t, "P0001"))
	require.NoError(t, err)

	recent, err := d.ledger.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "obd2/P0001", recent[0].Key)
	assert.Equal(t, 200, recent[0].StatusCode)

	require.NoError(t, f.Close())
	assert.NoError(t, f.Close())
}

func TestFactory_LedgerSharedDatabase(t *testing.T) {
	database, err := db.Connect(context.Background(), filepath.Join(t.TempDir(), "shared.db"), zerolog.Nop())
	if err != nil {
		t.Skipf("libsql unavailable: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	cfg := testConfig("example.com")
	cfg.Ledger.Enabled = true

	f := NewFactory(cfg, database, zerolog.Nop())
	_, err = f.CreateDispatcher(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.NoError(t, database.PingContext(context.Background()), "factory must not close a database it was given")
}
