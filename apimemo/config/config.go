package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/apimemo/apimemo"
	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Transport TransportConfig `mapstructure:"transport"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Schema    SchemaConfig    `mapstructure:"schema"`
}

// APIConfig carries the connection options inline. When OptionsFile is set the
// arrow-delimited file takes precedence over the inline values.
type APIConfig struct {
	Host         string `mapstructure:"host"`
	Endpoint     string `mapstructure:"endpoint"`
	Header       string `mapstructure:"header"`
	Header1      string `mapstructure:"header1"`
	RapidAPIHost string `mapstructure:"rapid_api_host"`
	RapidAPIKey  string `mapstructure:"rapid_api_key"`

	OptionsFile  string `mapstructure:"options_file"`  // path to a name->value file
	WatchOptions bool   `mapstructure:"watch_options"` // reload OptionsFile on change
}

// GetOption implements ports.OptionSource. Empty values count as absent.
func (c *APIConfig) GetOption(name string) (string, bool) {
	var v string
	switch name {
	case ports.OptionHost:
		v = c.Host
	case ports.OptionEndpoint:
		v = c.Endpoint
	case ports.OptionHeader:
		v = c.Header
	case ports.OptionHeader1:
		v = c.Header1
	case ports.OptionRapidAPIHost:
		v = c.RapidAPIHost
	case ports.OptionRapidAPIKey:
		v = c.RapidAPIKey
	}
	return v, v != ""
}

// CacheConfig sizes the response cache.
type CacheConfig struct {
	Capacity         int  `mapstructure:"capacity"`
	CoalesceInflight bool `mapstructure:"coalesce_inflight"` // share one transport call per key among concurrent misses
}

// TransportConfig tunes the HTTP transport.
type TransportConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// RateLimitConfig throttles transport calls made on cache misses.
type RateLimitConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Capacity   int           `mapstructure:"capacity"`
	RefillRate time.Duration `mapstructure:"refill_rate"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig selects the zerolog level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// LedgerConfig enables the libsql dispatch ledger.
type LedgerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SchemaConfig points at an optional JSON schema that 2xx bodies must satisfy
// before they are cached.
type SchemaConfig struct {
	ResponseSchema string `mapstructure:"response_schema"`
}

// LoadConfig reads configuration from file or environment variables. An
// explicit configPath must exist; otherwise the default search paths are tried
// and a missing file simply means defaults.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(internal.DefaultAppName))
	v.AutomaticEnv()
	// api.rapid_api_key becomes APIMEMO_API_RAPID_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.API.OptionsFile == "" {
		cfg.API.OptionsFile = siblingOptionsFile(v.ConfigFileUsed())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// siblingOptionsFile returns the options file next to configFile, if present.
func siblingOptionsFile(configFile string) string {
	if configFile == "" {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(configFile), internal.DefaultOptionsFileName)
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

func setDefaults(v *viper.Viper) {
	// API defaults: empty means the option must come from the options file or env
	for _, name := range ports.KnownOptions {
		v.SetDefault("api."+name, "")
	}
	v.SetDefault("api.options_file", "")
	v.SetDefault("api.watch_options", false)

	v.SetDefault("cache.capacity", internal.DefaultCacheCapacity)
	v.SetDefault("cache.coalesce_inflight", false)

	v.SetDefault("transport.timeout", "30s")
	v.SetDefault("transport.max_retries", 0)
	v.SetDefault("transport.retry_backoff", "500ms")
	v.SetDefault("transport.max_body_bytes", 5<<20) // 5MB
	v.SetDefault("transport.user_agent", internal.DefaultAppName+"/1.0")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.capacity", 10)
	v.SetDefault("rate_limit.refill_rate", "1s")

	v.SetDefault("tracing.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("ledger.enabled", false)
	v.SetDefault("ledger.path", internal.DefaultLedgerPath)

	v.SetDefault("batch.concurrency", 4)

	v.SetDefault("schema.response_schema", "")
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be at least 1, got %d", c.Cache.Capacity)
	}
	if c.Transport.MaxRetries < 0 {
		return fmt.Errorf("transport.max_retries must not be negative, got %d", c.Transport.MaxRetries)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
