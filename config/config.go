package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/queuecast/paxcache/cache"
	"github.com/queuecast/paxcache/observe"
	"github.com/queuecast/paxcache/storage"
	"github.com/queuecast/paxcache/upstream"
)

// Configuration errors.
var (
	// ErrUnknownBackend reports a storage backend name outside ValidBackends.
	ErrUnknownBackend = errors.New("config: unknown storage backend")

	// ErrNoStorageDir reports an fs backend without a directory.
	ErrNoStorageDir = errors.New("config: fs backend requires a directory")

	// ErrNoDatabaseURL reports a libsql backend without a database URL.
	ErrNoDatabaseURL = errors.New("config: libsql backend requires a database url")

	// ErrNoBucket reports an s3 backend without a bucket.
	ErrNoBucket = errors.New("config: s3 backend requires a bucket")

	// ErrInvalidSweepInterval reports a negative sweep interval.
	ErrInvalidSweepInterval = errors.New("config: sweep interval must not be negative")
)

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendLibSQL = "libsql"
	BackendS3     = "s3"
)

// ValidBackends lists valid storage backend names.
var ValidBackends = []string{BackendMemory, BackendFS, BackendLibSQL, BackendS3}

// Config is the full deployment configuration: the two cache tiers, the
// persistent substrate, the upstream provider protections, and telemetry.
type Config struct {
	Service       ServiceConfig       `mapstructure:"service"`
	Server        TierConfig          `mapstructure:"server"`
	Client        TierConfig          `mapstructure:"client"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Provider      ProviderConfig      `mapstructure:"provider"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServiceConfig identifies the deployment in logs, traces, and metrics.
type ServiceConfig struct {
	// Name is the service name reported to telemetry backends.
	// Default: "paxcache"
	Name string `mapstructure:"name"`

	// Version tags telemetry with the deployed build.
	// Default: none
	Version string `mapstructure:"version"`
}

// TierConfig configures one cache tier.
type TierConfig struct {
	// Namespace scopes every key the tier owns. Must not contain ':'.
	// Default: "paxcache"
	Namespace string `mapstructure:"namespace"`

	// DefaultTTL is the entry lifetime when a store does not request one.
	// Default: 24h for the server tier, 30m for the client tier.
	DefaultTTL time.Duration `mapstructure:"default_ttl"`

	// MaxTTL caps requested lifetimes. Zero means no cap.
	// Default: 0
	MaxTTL time.Duration `mapstructure:"max_ttl"`

	// SweepInterval is how often the background sweeper reclaims expired
	// entries. Zero disables sweeping; lazy expiry still applies.
	// Default: 1h for the server tier, 10m for the client tier.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Policy returns the tier's entry lifetime policy.
func (c TierConfig) Policy() cache.Policy {
	return cache.Policy{
		DefaultTTL: c.DefaultTTL,
		MaxTTL:     c.MaxTTL,
	}
}

// StorageConfig selects and configures the persistent substrate backing
// the client tier's mirror.
type StorageConfig struct {
	// Backend names the substrate: memory, fs, libsql, or s3.
	// Default: "memory"
	Backend string `mapstructure:"backend"`

	FS     FSStorageConfig     `mapstructure:"fs"`
	LibSQL LibSQLStorageConfig `mapstructure:"libsql"`
	S3     S3StorageConfig     `mapstructure:"s3"`
}

// FSStorageConfig configures the filesystem substrate.
type FSStorageConfig struct {
	// Dir is the directory holding one file per entry. Created if absent.
	Dir string `mapstructure:"dir"`
}

// LibSQLStorageConfig configures the libsql substrate.
type LibSQLStorageConfig struct {
	// URL is the database location: file:path for an embedded database
	// or a libsql:// URL for a remote one.
	URL string `mapstructure:"url"`

	// AuthToken authenticates against a remote database. Accepts a
	// secret reference (env:NAME or file:/path).
	AuthToken string `mapstructure:"auth_token"`
}

// S3StorageConfig configures the S3 substrate.
type S3StorageConfig struct {
	// Bucket holds one object per entry.
	Bucket string `mapstructure:"bucket"`

	// Prefix scopes every object key. Default: none.
	Prefix string `mapstructure:"prefix"`

	// Region overrides the region resolution chain. Default: the AWS
	// environment chain.
	Region string `mapstructure:"region"`

	// Profile selects a shared config profile. Default: the AWS_PROFILE
	// environment chain.
	Profile string `mapstructure:"profile"`
}

// Open opens the configured substrate. The caller owns the result and
// closes it after the tiers sharing it are done.
func (c StorageConfig) Open(ctx context.Context) (cache.Storage, error) {
	switch c.Backend {
	case "", BackendMemory:
		return storage.NewMemory(), nil
	case BackendFS:
		return storage.OpenFS(c.FS.Dir)
	case BackendLibSQL:
		return storage.OpenLibSQL(ctx, storage.LibSQLConfig{
			URL:       c.LibSQL.URL,
			AuthToken: c.LibSQL.AuthToken,
		})
	case BackendS3:
		return storage.OpenS3(ctx, storage.S3Config{
			Bucket:  c.S3.Bucket,
			Prefix:  c.S3.Prefix,
			Region:  c.S3.Region,
			Profile: c.S3.Profile,
		})
	default:
		return nil, fmt.Errorf("%w: %q (valid: %s)",
			ErrUnknownBackend, c.Backend, strings.Join(ValidBackends, ", "))
	}
}

// ProviderConfig configures how fetches reach the flight-data provider.
type ProviderConfig struct {
	// APIKey authenticates against the provider. Accepts a secret
	// reference (env:NAME or file:/path). Default: none.
	APIKey string `mapstructure:"api_key"`

	// Timeout bounds each fetch attempt. Zero leaves deadlines to the
	// request context.
	// Default: 0
	Timeout time.Duration `mapstructure:"timeout"`

	// Coalesce collapses concurrent fetches for the same key into one
	// provider call.
	// Default: false
	Coalesce bool `mapstructure:"coalesce"`

	Retry     RetryConfig     `mapstructure:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Gate      GateConfig      `mapstructure:"gate"`
}

// RetryConfig configures retries of transient provider failures.
type RetryConfig struct {
	// Enabled turns the layer on. Default: false
	Enabled bool `mapstructure:"enabled"`

	// MaxAttempts is the maximum number of attempts (including the
	// first). Default: 3
	MaxAttempts int `mapstructure:"max_attempts"`

	// InitialDelay is the delay before the first retry. Default: 200ms
	InitialDelay time.Duration `mapstructure:"initial_delay"`

	// MaxDelay caps the delay between retries. Default: 10s
	MaxDelay time.Duration `mapstructure:"max_delay"`

	// Multiplier is the exponential backoff multiplier. Default: 2.0
	Multiplier float64 `mapstructure:"multiplier"`

	// Jitter adds up to 25% randomness to delays. Default: false
	Jitter bool `mapstructure:"jitter"`
}

// RateLimitConfig configures the token bucket guarding a provider quota.
type RateLimitConfig struct {
	// Enabled turns the layer on. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Rate is the number of fetches allowed per second. Default: 10
	Rate float64 `mapstructure:"rate"`

	// Burst is the maximum burst size. Default: 5
	Burst int `mapstructure:"burst"`

	// WaitOnLimit waits for a token instead of failing the fetch.
	// Default: false
	WaitOnLimit bool `mapstructure:"wait_on_limit"`

	// MaxWait is the maximum time to wait for a token. Default: 1s
	MaxWait time.Duration `mapstructure:"max_wait"`
}

// BreakerConfig configures the provider breaker.
type BreakerConfig struct {
	// Enabled turns the layer on. Default: false
	Enabled bool `mapstructure:"enabled"`

	// MaxFailures is the number of consecutive failures before the
	// breaker opens. Default: 5
	MaxFailures int `mapstructure:"max_failures"`

	// ResetTimeout is how long an open breaker waits before probing.
	// Default: 30s
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`

	// HalfOpenMaxProbes is the number of fetches allowed through while
	// half-open. Default: 1
	HalfOpenMaxProbes int `mapstructure:"half_open_max_probes"`
}

// GateConfig configures the in-flight fetch cap.
type GateConfig struct {
	// Enabled turns the layer on. Default: false
	Enabled bool `mapstructure:"enabled"`

	// MaxInFlight is the maximum number of concurrent fetches.
	// Default: 10
	MaxInFlight int `mapstructure:"max_in_flight"`

	// MaxWait is the maximum time to wait for a slot. Default: 0
	// (refuse immediately)
	MaxWait time.Duration `mapstructure:"max_wait"`
}

// Stack builds the upstream protection stack from the enabled layers.
// It returns nil when every layer is disabled and no timeout is set, so
// fetches pass straight to the provider.
func (c ProviderConfig) Stack() *upstream.Stack {
	var opts []upstream.StackOption

	if c.RateLimit.Enabled {
		opts = append(opts, upstream.WithRateLimiter(upstream.NewRateLimiter(upstream.RateLimiterConfig{
			Rate:        c.RateLimit.Rate,
			Burst:       c.RateLimit.Burst,
			WaitOnLimit: c.RateLimit.WaitOnLimit,
			MaxWait:     c.RateLimit.MaxWait,
		})))
	}
	if c.Gate.Enabled {
		opts = append(opts, upstream.WithGate(upstream.NewGate(upstream.GateConfig{
			MaxInFlight: c.Gate.MaxInFlight,
			MaxWait:     c.Gate.MaxWait,
		})))
	}
	if c.Breaker.Enabled {
		opts = append(opts, upstream.WithBreaker(upstream.NewBreaker(upstream.BreakerConfig{
			MaxFailures:       c.Breaker.MaxFailures,
			ResetTimeout:      c.Breaker.ResetTimeout,
			HalfOpenMaxProbes: c.Breaker.HalfOpenMaxProbes,
		})))
	}
	if c.Retry.Enabled {
		opts = append(opts, upstream.WithRetry(upstream.NewRetry(upstream.RetryConfig{
			MaxAttempts:  c.Retry.MaxAttempts,
			InitialDelay: c.Retry.InitialDelay,
			MaxDelay:     c.Retry.MaxDelay,
			Multiplier:   c.Retry.Multiplier,
			Jitter:       c.Retry.Jitter,
		})))
	}
	if c.Timeout > 0 {
		opts = append(opts, upstream.WithTimeout(c.Timeout))
	}

	if len(opts) == 0 {
		return nil
	}
	return upstream.NewStack(opts...)
}

// ObservabilityConfig configures telemetry.
type ObservabilityConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	// Enabled turns tracing on. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter is one of otlp, stdout, none. Default: "otlp"
	Exporter string `mapstructure:"exporter"`

	// SamplePct is the fraction of traces to sample, 0.0 to 1.0.
	// Default: 1.0
	SamplePct float64 `mapstructure:"sample_pct"`
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	// Enabled turns metrics on. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter is one of otlp, prometheus, stdout, none. Default: "otlp"
	Exporter string `mapstructure:"exporter"`
}

// LoggingConfig configures the logging subsystem.
type LoggingConfig struct {
	// Enabled turns logging on. Default: true
	Enabled bool `mapstructure:"enabled"`

	// Level is one of debug, info, warn, error. Default: "info"
	Level string `mapstructure:"level"`

	// Backend is builtin or zerolog. Default: "builtin"
	Backend string `mapstructure:"backend"`
}

// Observe returns the telemetry configuration in observe's native form.
func (c *Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observability.Tracing.Enabled,
			Exporter:  c.Observability.Tracing.Exporter,
			SamplePct: c.Observability.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observability.Metrics.Enabled,
			Exporter: c.Observability.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Observability.Logging.Enabled,
			Level:   c.Observability.Logging.Level,
			Backend: c.Observability.Logging.Backend,
		},
	}
}

// Default returns the built-in configuration: in-memory tiers, no
// persistent mirror beyond a memory substrate, no upstream protection
// layers, and info-level logging.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "paxcache",
		},
		Server: TierConfig{
			Namespace:     "paxcache",
			DefaultTTL:    cache.ServerDefaultTTL,
			SweepInterval: cache.ServerSweepInterval,
		},
		Client: TierConfig{
			Namespace:     "paxcache",
			DefaultTTL:    cache.ClientDefaultTTL,
			SweepInterval: cache.ClientSweepInterval,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Provider: ProviderConfig{
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     10 * time.Second,
				Multiplier:   2.0,
			},
			RateLimit: RateLimitConfig{
				Rate:    10,
				Burst:   5,
				MaxWait: time.Second,
			},
			Breaker: BreakerConfig{
				MaxFailures:       5,
				ResetTimeout:      30 * time.Second,
				HalfOpenMaxProbes: 1,
			},
			Gate: GateConfig{
				MaxInFlight: 10,
			},
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Exporter:  "otlp",
				SamplePct: 1.0,
			},
			Metrics: MetricsConfig{
				Exporter: "otlp",
			},
			Logging: LoggingConfig{
				Enabled: true,
				Level:   "info",
				Backend: "builtin",
			},
		},
	}
}

// Load reads configuration from the given YAML file, or discovers
// paxcache.yaml in the working directory and /etc/paxcache when path is
// empty. PAXCACHE_* environment variables override file values; built-in
// defaults fill the rest. Secret references in credential fields are
// resolved before validation.
//
// A missing discovered file falls back to defaults; a missing explicit
// path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("paxcache")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/paxcache")
	}

	v.SetEnvPrefix("PAXCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key gets a default so environment overrides reach Unmarshal
	// even without a file.
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("service.name", def.Service.Name)
	v.SetDefault("service.version", def.Service.Version)

	v.SetDefault("server.namespace", def.Server.Namespace)
	v.SetDefault("server.default_ttl", def.Server.DefaultTTL)
	v.SetDefault("server.max_ttl", def.Server.MaxTTL)
	v.SetDefault("server.sweep_interval", def.Server.SweepInterval)

	v.SetDefault("client.namespace", def.Client.Namespace)
	v.SetDefault("client.default_ttl", def.Client.DefaultTTL)
	v.SetDefault("client.max_ttl", def.Client.MaxTTL)
	v.SetDefault("client.sweep_interval", def.Client.SweepInterval)

	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.fs.dir", def.Storage.FS.Dir)
	v.SetDefault("storage.libsql.url", def.Storage.LibSQL.URL)
	v.SetDefault("storage.libsql.auth_token", def.Storage.LibSQL.AuthToken)
	v.SetDefault("storage.s3.bucket", def.Storage.S3.Bucket)
	v.SetDefault("storage.s3.prefix", def.Storage.S3.Prefix)
	v.SetDefault("storage.s3.region", def.Storage.S3.Region)
	v.SetDefault("storage.s3.profile", def.Storage.S3.Profile)

	v.SetDefault("provider.api_key", def.Provider.APIKey)
	v.SetDefault("provider.timeout", def.Provider.Timeout)
	v.SetDefault("provider.coalesce", def.Provider.Coalesce)
	v.SetDefault("provider.retry.enabled", def.Provider.Retry.Enabled)
	v.SetDefault("provider.retry.max_attempts", def.Provider.Retry.MaxAttempts)
	v.SetDefault("provider.retry.initial_delay", def.Provider.Retry.InitialDelay)
	v.SetDefault("provider.retry.max_delay", def.Provider.Retry.MaxDelay)
	v.SetDefault("provider.retry.multiplier", def.Provider.Retry.Multiplier)
	v.SetDefault("provider.retry.jitter", def.Provider.Retry.Jitter)
	v.SetDefault("provider.rate_limit.enabled", def.Provider.RateLimit.Enabled)
	v.SetDefault("provider.rate_limit.rate", def.Provider.RateLimit.Rate)
	v.SetDefault("provider.rate_limit.burst", def.Provider.RateLimit.Burst)
	v.SetDefault("provider.rate_limit.wait_on_limit", def.Provider.RateLimit.WaitOnLimit)
	v.SetDefault("provider.rate_limit.max_wait", def.Provider.RateLimit.MaxWait)
	v.SetDefault("provider.breaker.enabled", def.Provider.Breaker.Enabled)
	v.SetDefault("provider.breaker.max_failures", def.Provider.Breaker.MaxFailures)
	v.SetDefault("provider.breaker.reset_timeout", def.Provider.Breaker.ResetTimeout)
	v.SetDefault("provider.breaker.half_open_max_probes", def.Provider.Breaker.HalfOpenMaxProbes)
	v.SetDefault("provider.gate.enabled", def.Provider.Gate.Enabled)
	v.SetDefault("provider.gate.max_in_flight", def.Provider.Gate.MaxInFlight)
	v.SetDefault("provider.gate.max_wait", def.Provider.Gate.MaxWait)

	v.SetDefault("observability.tracing.enabled", def.Observability.Tracing.Enabled)
	v.SetDefault("observability.tracing.exporter", def.Observability.Tracing.Exporter)
	v.SetDefault("observability.tracing.sample_pct", def.Observability.Tracing.SamplePct)
	v.SetDefault("observability.metrics.enabled", def.Observability.Metrics.Enabled)
	v.SetDefault("observability.metrics.exporter", def.Observability.Metrics.Exporter)
	v.SetDefault("observability.logging.enabled", def.Observability.Logging.Enabled)
	v.SetDefault("observability.logging.level", def.Observability.Logging.Level)
	v.SetDefault("observability.logging.backend", def.Observability.Logging.Backend)
}

// Validate checks the configuration for contradictions a deployment
// cannot run with. Subsystem rules stay with their owners: tier policies
// with cache, telemetry with observe.
func (c *Config) Validate() error {
	if err := validateTier("server", c.Server); err != nil {
		return err
	}
	if err := validateTier("client", c.Client); err != nil {
		return err
	}
	if err := validateStorage(c.Storage); err != nil {
		return err
	}
	obs := c.Observe()
	if err := obs.Validate(); err != nil {
		return err
	}
	return nil
}

func validateTier(name string, c TierConfig) error {
	if c.Namespace == "" || strings.Contains(c.Namespace, ":") {
		return fmt.Errorf("%s tier: %w: %q", name, cache.ErrInvalidNamespace, c.Namespace)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("%s tier: %w", name, err)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("%s tier: %w: %s", name, ErrInvalidSweepInterval, c.SweepInterval)
	}
	return nil
}

func validateStorage(c StorageConfig) error {
	switch c.Backend {
	case "", BackendMemory:
		return nil
	case BackendFS:
		if c.FS.Dir == "" {
			return ErrNoStorageDir
		}
	case BackendLibSQL:
		if c.LibSQL.URL == "" {
			return ErrNoDatabaseURL
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return ErrNoBucket
		}
	default:
		return fmt.Errorf("%w: %q (valid: %s)",
			ErrUnknownBackend, c.Backend, strings.Join(ValidBackends, ", "))
	}
	return nil
}
