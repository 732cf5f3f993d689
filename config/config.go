package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/toolhub/auth"
	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/capability"
	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/resilience"
	"github.com/jonwraymond/toolhub/secret"
	"github.com/jonwraymond/toolhub/weather"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the complete service configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Cache     CacheConfig     `yaml:"cache"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Weather   WeatherConfig   `yaml:"weather"`
	Store     StoreConfig     `yaml:"store"`
	Mail      MailConfig      `yaml:"mail"`
	Server    ServerConfig    `yaml:"server"`
	Secrets   SecretsConfig   `yaml:"secrets"`
}

// ServiceConfig names the service in telemetry.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TelemetryConfig selects the trace and metric exporters.
type TelemetryConfig struct {
	Tracing struct {
		Enabled   bool    `yaml:"enabled"`
		Exporter  string  `yaml:"exporter"`
		SamplePct float64 `yaml:"sample_pct"`
	} `yaml:"tracing"`
	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"`
	} `yaml:"metrics"`
}

// NamespaceConfig declares one cache namespace.
type NamespaceConfig struct {
	Name   string        `yaml:"name"`
	TTL    time.Duration `yaml:"ttl"`
	Bucket string        `yaml:"bucket"`
}

// CacheConfig configures the shared cache pool.
type CacheConfig struct {
	MaxEntries        int               `yaml:"max_entries"`
	EnableRefreshHint bool              `yaml:"enable_refresh_hint"`
	RefreshThreshold  float64           `yaml:"refresh_threshold"`
	JanitorInterval   time.Duration     `yaml:"janitor_interval"`
	Namespaces        []NamespaceConfig `yaml:"namespaces"`
}

// DispatchConfig selects the capabilities each session gets.
type DispatchConfig struct {
	AlwaysOn  []string `yaml:"always_on"`
	Functions []string `yaml:"functions"`
	Forced    []string `yaml:"forced"`
	Strict    bool     `yaml:"strict"`
}

// WeatherConfig configures the weather source and report.
type WeatherConfig struct {
	weather.Config `yaml:",inline"`

	DefaultLocation string `yaml:"default_location"`
	Debug           bool   `yaml:"debug"`
}

// StoreConfig configures the weather archive.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables the archive.
	Path string `yaml:"path"`
	// Systems maps a business system alias to its table.
	Systems map[string]string `yaml:"systems"`
}

// MailConfig configures weather mail.
type MailConfig struct {
	Enabled  bool                  `yaml:"enabled"`
	SMTP     capability.SMTPConfig `yaml:"smtp"`
	Contacts map[string]string     `yaml:"contacts"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	MaxConcurrent   int           `yaml:"max_concurrent_calls"`
	QueueWait       time.Duration `yaml:"queue_wait"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	SystemPrompt    string        `yaml:"system_prompt"`

	Auth auth.Config `yaml:"auth"`
}

// SecretsConfig configures secret providers beyond env.
type SecretsConfig struct {
	// FileDir enables the file provider rooted at this directory.
	FileDir string `yaml:"file_dir"`
}

// Default returns a configuration that runs locally without credentials
// except the weather API key.
func Default() Config {
	def := cache.DefaultConfig()
	namespaces := make([]NamespaceConfig, 0, len(def.Namespaces))
	for _, ns := range def.Namespaces {
		namespaces = append(namespaces, NamespaceConfig{Name: ns.Name, TTL: ns.TTL, Bucket: ns.Bucket.String()})
	}

	return Config{
		Service: ServiceConfig{Name: "toolhub", Version: "dev"},
		Log:     LogConfig{Level: "info"},
		Cache: CacheConfig{
			MaxEntries:        def.MaxEntries,
			EnableRefreshHint: def.EnableRefreshHint,
			RefreshThreshold:  def.RefreshThreshold,
			JanitorInterval:   cache.DefaultJanitorInterval,
			Namespaces:        namespaces,
		},
		Dispatch: DispatchConfig{
			AlwaysOn:  append([]string{}, capability.AlwaysOn...),
			Functions: []string{capability.GetWeather},
			Forced:    append([]string{}, capability.Forced...),
		},
		Weather: WeatherConfig{
			Config:          weather.Config{Days: 7, Policy: resilience.DefaultPolicy()},
			DefaultLocation: "Beijing",
		},
		Mail: MailConfig{SMTP: capability.SMTPConfig{Port: 587}},
		Server: ServerConfig{
			Listen:          ":8080",
			MaxConcurrent:   64,
			QueueWait:       2 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			SessionTTL:      30 * time.Minute,
			SystemPrompt:    "You are a helpful voice assistant.",
		},
	}
}

// Load reads the YAML file at path over Default, resolves secrets and
// validates the result.
func Load(ctx context.Context, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(ctx, data)
}

// Parse is Load for an in-memory document. Unknown keys are rejected.
func Parse(ctx context.Context, data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.ResolveSecrets(ctx); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveSecrets expands ${ENV} and secretref: references in every
// credential-bearing field.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	reg := secret.NewRegistry()
	providers := []secret.Provider{secret.EnvProvider{}}
	if c.Secrets.FileDir != "" {
		p, err := reg.Create("file", map[string]string{"dir": c.Secrets.FileDir})
		if err != nil {
			return fmt.Errorf("secrets: %w", err)
		}
		providers = append(providers, p)
	}
	r := secret.NewResolver(providers...)

	targets := []*string{
		&c.Weather.Host,
		&c.Weather.APIKey,
		&c.Store.Path,
		&c.Mail.SMTP.Host,
		&c.Mail.SMTP.Username,
		&c.Mail.SMTP.Password,
		&c.Server.Auth.JWT.Secret,
	}
	for i := range c.Server.Auth.APIKeys {
		targets = append(targets, &c.Server.Auth.APIKeys[i].Key)
	}
	if err := r.ResolveAll(ctx, targets...); err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}
	return nil
}

// Validate reports every problem at once, each wrapping ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalid, section, err))
		}
	}

	obs := c.Observe()
	add("telemetry", obs.Validate())

	cc, err := c.Cache.Pool()
	add("cache", err)
	if err == nil {
		add("cache", cc.Validate())
	}
	if c.Cache.JanitorInterval < 0 {
		add("cache", errors.New("janitor_interval must not be negative"))
	}

	if c.Weather.Host != "" || c.Weather.APIKey != "" {
		if c.Weather.Host == "" || c.Weather.APIKey == "" {
			add("weather", errors.New("api_host and api_key must be set together"))
		}
		add("weather", c.Weather.Policy.Validate())
	}

	if c.Store.Path != "" && len(c.Store.Systems) == 0 {
		add("store", errors.New("systems must list at least one alias"))
	}

	if c.Mail.Enabled {
		add("mail", c.Mail.SMTP.Validate())
		if len(c.Mail.Contacts) == 0 {
			add("mail", errors.New("contacts must list at least one alias"))
		}
	}

	if c.Server.Listen == "" {
		add("server", errors.New("listen address is required"))
	}
	if c.Server.MaxConcurrent <= 0 {
		add("server", errors.New("max_concurrent_calls must be positive"))
	}
	add("server.auth", c.Server.Auth.Validate())

	return errors.Join(errs...)
}

// Pool converts the cache section.
func (c CacheConfig) Pool() (cache.Config, error) {
	out := cache.Config{
		MaxEntries:        c.MaxEntries,
		EnableRefreshHint: c.EnableRefreshHint,
		RefreshThreshold:  c.RefreshThreshold,
	}
	for _, ns := range c.Namespaces {
		b, err := cache.ParseBucket(ns.Bucket)
		if err != nil {
			return cache.Config{}, fmt.Errorf("namespace %q: %w", ns.Name, err)
		}
		out.Namespaces = append(out.Namespaces, cache.Namespace{Name: ns.Name, TTL: ns.TTL, Bucket: b})
	}
	return out, nil
}

// Build converts the dispatch section.
func (c DispatchConfig) Build() dispatch.BuildConfig {
	return dispatch.BuildConfig{
		AlwaysOn:  c.AlwaysOn,
		Functions: c.Functions,
		Forced:    c.Forced,
		Strict:    c.Strict,
	}
}

// Observe converts the service, log and telemetry sections.
func (c Config) Observe() observe.Config {
	var oc observe.Config
	oc.ServiceName = c.Service.Name
	oc.Version = c.Service.Version
	oc.Tracing.Enabled = c.Telemetry.Tracing.Enabled
	oc.Tracing.Exporter = c.Telemetry.Tracing.Exporter
	oc.Tracing.SamplePct = c.Telemetry.Tracing.SamplePct
	oc.Metrics.Enabled = c.Telemetry.Metrics.Enabled
	oc.Metrics.Exporter = c.Telemetry.Metrics.Exporter
	oc.Logging.Enabled = c.Log.Level != "off"
	oc.Logging.Level = c.Log.Level
	return oc
}
