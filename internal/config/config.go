// Package config loads client settings for the cari command from a YAML
// file, a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ambiyansyah-risyal/cari"
)

// Environment variables read by Load.
const (
	EnvAppID          = "CARI_APP_ID"
	EnvAPIKey         = "CARI_API_KEY"
	EnvReadHosts      = "CARI_READ_HOSTS"
	EnvWriteHosts     = "CARI_WRITE_HOSTS"
	EnvAttemptTimeout = "CARI_ATTEMPT_TIMEOUT"
	EnvCacheTTL       = "CARI_CACHE_TTL"
	EnvDebug          = "CARI_DEBUG"
)

// Config is the injected configuration of a client.
type Config struct {
	AppID          string        `yaml:"app_id"`
	APIKey         string        `yaml:"api_key"`
	ReadHosts      []string      `yaml:"read_hosts"`
	WriteHosts     []string      `yaml:"write_hosts"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	SearchCacheTTL time.Duration `yaml:"search_cache_ttl"`
	Debug          bool          `yaml:"debug"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		AttemptTimeout: 5 * time.Second,
	}
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then envFile (if any, without overriding variables already set), then the
// environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if len(cfg.WriteHosts) == 0 {
		cfg.WriteHosts = append([]string(nil), cfg.ReadHosts...)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvAppID); ok {
		c.AppID = v
	}
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvReadHosts); ok {
		c.ReadHosts = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvWriteHosts); ok {
		c.WriteHosts = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvAttemptTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvAttemptTimeout, err)
		}
		c.AttemptTimeout = d
	}
	if v, ok := os.LookupEnv(EnvCacheTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvCacheTTL, err)
		}
		c.SearchCacheTTL = d
	}
	if v, ok := os.LookupEnv(EnvDebug); ok {
		c.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.AppID == "" {
		errs = append(errs, fmt.Errorf("app_id is required (%s)", EnvAppID))
	}
	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("api_key is required (%s)", EnvAPIKey))
	}
	if len(c.ReadHosts) == 0 {
		errs = append(errs, fmt.Errorf("read_hosts is required (%s)", EnvReadHosts))
	}
	if c.AttemptTimeout <= 0 {
		errs = append(errs, errors.New("attempt_timeout must be positive"))
	}
	if c.SearchCacheTTL < 0 {
		errs = append(errs, errors.New("search_cache_ttl must be non-negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Options converts the configuration to client options.
func (c Config) Options() []cari.Option {
	opts := []cari.Option{
		cari.WithHostList(c.ReadHosts, c.WriteHosts),
		cari.WithCredentials(c.AppID, c.APIKey),
		cari.WithAttemptTimeout(c.AttemptTimeout),
	}
	if c.SearchCacheTTL > 0 {
		opts = append(opts, cari.WithSearchCache(c.SearchCacheTTL))
	}
	if c.Debug {
		opts = append(opts, cari.WithSimpleLogger())
	}
	return opts
}
