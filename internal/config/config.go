// Package config holds the typed stocksync configuration and binds it
// from viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/retry"
)

// Config is the full runtime configuration.
type Config struct {
	Sync    Sync    `mapstructure:"sync"    yaml:"sync"`
	Vendors Vendors `mapstructure:"vendors" yaml:"vendors"`
	Store   Store   `mapstructure:"store"   yaml:"store"`
	HTTP    HTTP    `mapstructure:"http"    yaml:"http"`
	Retry   Retry   `mapstructure:"retry"   yaml:"retry"`
	Server  Server  `mapstructure:"server"  yaml:"server"`
	Notify  Notify  `mapstructure:"notify"  yaml:"notify"`
}

// Sync controls the scheduled trigger.
type Sync struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Cron    string `mapstructure:"cron"    yaml:"cron"`
	// Timeout bounds a whole pass started by the scheduler.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Vendors lists the configured vendor sources, grouped by kind.
type Vendors struct {
	REST []RESTVendor `mapstructure:"rest" yaml:"rest"`
	CSV  []CSVVendor  `mapstructure:"csv"  yaml:"csv"`
}

// RESTVendor describes an HTTP-JSON vendor endpoint.
type RESTVendor struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url"  yaml:"url"`
	// Enabled defaults to true when omitted.
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the vendor should be fetched.
func (v RESTVendor) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

// CSVVendor describes a CSV file vendor.
type CSVVendor struct {
	Name string `mapstructure:"name" yaml:"name"`
	Path string `mapstructure:"path" yaml:"path"`
	// Encoding of the file: utf-8 (default), windows-1251, iso-8859-1.
	Encoding string `mapstructure:"encoding" yaml:"encoding,omitempty"`
	Enabled  *bool  `mapstructure:"enabled"  yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the vendor should be fetched.
func (v CSVVendor) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

// Store selects the persistence backend.
type Store struct {
	// Driver is memory, postgres or mysql.
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn"    yaml:"dsn,omitempty"`
	// Migrate creates the schema on startup.
	Migrate bool `mapstructure:"migrate" yaml:"migrate"`
}

// HTTP configures outbound vendor requests.
type HTTP struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Retry configures the HTTP fetch retry schedule.
type Retry struct {
	Attempts   int           `mapstructure:"attempts"   yaml:"attempts"`
	Initial    time.Duration `mapstructure:"initial"    yaml:"initial"`
	Multiplier float64       `mapstructure:"multiplier" yaml:"multiplier"`
	Max        time.Duration `mapstructure:"max"        yaml:"max"`
}

// Policy converts the configuration into a retry policy.
func (r Retry) Policy() retry.Policy {
	return retry.Exponential(r.Initial, r.Multiplier, r.Max, r.Attempts)
}

// Server configures the read API.
type Server struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORS        bool     `mapstructure:"cors"         yaml:"cors"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins,omitempty"`
	RateLimit   int      `mapstructure:"rate_limit"   yaml:"rate_limit"`
	Metrics     bool     `mapstructure:"metrics"      yaml:"metrics"`
	// MockVendor mounts the sample vendor endpoint on the API server.
	MockVendor bool `mapstructure:"mock_vendor" yaml:"mock_vendor"`
}

// Notify configures optional stock-out publishing.
type Notify struct {
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr,omitempty"`
	Stream    string `mapstructure:"stream"     yaml:"stream"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Sync: Sync{
			Enabled: true,
			Cron:    constants.DefaultCron,
			Timeout: constants.SyncPassTimeout,
		},
		Store: Store{Driver: "memory", Migrate: true},
		HTTP:  HTTP{Timeout: constants.DefaultHTTPTimeout},
		Retry: Retry{
			Attempts:   constants.MaxRetries,
			Initial:    constants.RetryBackoff,
			Multiplier: constants.RetryMultiplier,
			Max:        constants.MaxRetryBackoff,
		},
		Server: Server{
			Host:       "localhost",
			Port:       8080,
			RateLimit:  constants.DefaultRateLimit,
			Metrics:    true,
			MockVendor: true,
		},
		Notify: Notify{Stream: "stocksync:stock-outs"},
	}
}

// SetDefaults registers the scalar defaults on v so that environment
// variables can override them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("sync.enabled", d.Sync.Enabled)
	v.SetDefault("sync.cron", d.Sync.Cron)
	v.SetDefault("sync.timeout", d.Sync.Timeout)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.migrate", d.Store.Migrate)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("retry.attempts", d.Retry.Attempts)
	v.SetDefault("retry.initial", d.Retry.Initial)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("retry.max", d.Retry.Max)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors", d.Server.CORS)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("server.mock_vendor", d.Server.MockVendor)
	v.SetDefault("notify.redis_addr", "")
	v.SetDefault("notify.stream", d.Notify.Stream)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigError("stocksync", "cannot decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
// Disabled vendors are not checked.
func (c *Config) Validate() error {
	for i, rv := range c.Vendors.REST {
		field := fmt.Sprintf("vendors.rest[%d]", i)
		if strings.TrimSpace(rv.Name) == "" {
			return errors.NewValidationError(field+".name", rv.Name, "cannot be empty")
		}
		if !rv.IsEnabled() {
			continue
		}
		u, err := url.Parse(rv.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewValidationError(field+".url", rv.URL, "must be an absolute URL")
		}
	}
	for i, cv := range c.Vendors.CSV {
		field := fmt.Sprintf("vendors.csv[%d]", i)
		if strings.TrimSpace(cv.Name) == "" {
			return errors.NewValidationError(field+".name", cv.Name, "cannot be empty")
		}
		if !cv.IsEnabled() {
			continue
		}
		if strings.TrimSpace(cv.Path) == "" {
			return errors.NewValidationError(field+".path", cv.Path, "cannot be empty")
		}
		switch strings.ToLower(cv.Encoding) {
		case "", "utf-8", "utf8", "windows-1251", "cp1251", "iso-8859-1", "latin1":
		default:
			return errors.NewValidationError(field+".encoding", cv.Encoding, "unsupported encoding")
		}
	}

	switch c.Store.Driver {
	case "memory":
	case "postgres", "mysql":
		if c.Store.DSN == "" {
			return errors.NewValidationError("store.dsn", "", "required for driver "+c.Store.Driver)
		}
	default:
		return errors.NewValidationError("store.driver", c.Store.Driver, "must be memory, postgres or mysql")
	}

	if c.Retry.Attempts < 1 {
		return errors.NewValidationError("retry.attempts", c.Retry.Attempts, "must be at least 1")
	}
	if c.Retry.Multiplier < 1 {
		return errors.NewValidationError("retry.multiplier", c.Retry.Multiplier, "must be at least 1")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.NewValidationError("http.timeout", c.HTTP.Timeout, "must be positive")
	}
	return nil
}
