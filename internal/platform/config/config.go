// Package config loads the process configuration from an optional YAML file
// with environment-variable overrides, so a container can run on env vars
// alone and a dev box on a checked-in config file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pstrings "domainscout/pkg/platform/strings"
)

// Config is the full configuration of both processes; each binary reads the
// sections it needs.
type Config struct {
	Server     Server     `yaml:"server"`
	Postgres   Postgres   `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
	Oracles    Oracles    `yaml:"oracles"`
	Enumerator Enumerator `yaml:"enumerator"`
	Sweep      Sweep      `yaml:"sweep"`
	Log        Log        `yaml:"log"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Postgres struct {
	URL string `yaml:"url"`
}

type Redis struct {
	URL          string `yaml:"url"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
}

// Oracles carries upstream credentials. Empty primary or bulk credentials
// disable that oracle; the fallback needs none.
type Oracles struct {
	PrimaryBaseURL string `yaml:"primary_base_url"`
	PrimaryAPIKey  string `yaml:"primary_api_key"`
	BulkBaseURL    string `yaml:"bulk_base_url"`
	BulkUser       string `yaml:"bulk_user"`
	BulkAPIKey     string `yaml:"bulk_api_key"`
}

type Enumerator struct {
	TLDs                   []string `yaml:"tlds"`
	CheckIntervalSeconds   int      `yaml:"check_interval_seconds"`
	FlushEvery             int      `yaml:"flush_every"`
	RecheckIntervalMinutes int      `yaml:"recheck_interval_minutes"`
}

// CheckInterval returns the pause between enumeration checks.
func (e Enumerator) CheckInterval() time.Duration {
	return time.Duration(e.CheckIntervalSeconds) * time.Second
}

// RecheckInterval returns how long an exhausted worker idles before looking
// for new words.
func (e Enumerator) RecheckInterval() time.Duration {
	return time.Duration(e.RecheckIntervalMinutes) * time.Minute
}

type Sweep struct {
	Schedule   string `yaml:"schedule"`
	SampleSize int    `yaml:"sample_size"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path (skipped when absent), applies env
// overrides and defaults, and validates.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	envOverride(&cfg.Server.Addr, "DOMAINSCOUT_ADDR")
	envOverride(&cfg.Postgres.URL, "POSTGRES_URL")
	envOverride(&cfg.Redis.URL, "REDIS_URL")
	envOverrideInt(&cfg.Redis.PoolSize, "REDIS_POOL_SIZE")
	envOverrideInt(&cfg.Redis.MinIdleConns, "REDIS_MIN_IDLE_CONNS")
	envOverride(&cfg.Oracles.PrimaryBaseURL, "PRIMARY_ORACLE_BASE_URL")
	envOverride(&cfg.Oracles.PrimaryAPIKey, "PRIMARY_ORACLE_API_KEY")
	envOverride(&cfg.Oracles.BulkBaseURL, "BULK_ORACLE_BASE_URL")
	envOverride(&cfg.Oracles.BulkUser, "BULK_ORACLE_USER")
	envOverride(&cfg.Oracles.BulkAPIKey, "BULK_ORACLE_API_KEY")
	envOverrideInt(&cfg.Enumerator.CheckIntervalSeconds, "ENUM_CHECK_INTERVAL_SECONDS")
	envOverrideInt(&cfg.Enumerator.FlushEvery, "ENUM_FLUSH_EVERY")
	envOverrideInt(&cfg.Enumerator.RecheckIntervalMinutes, "ENUM_RECHECK_INTERVAL_MINUTES")
	envOverride(&cfg.Sweep.Schedule, "SWEEP_SCHEDULE")
	envOverrideInt(&cfg.Sweep.SampleSize, "SWEEP_SAMPLE_SIZE")
	envOverride(&cfg.Log.Level, "LOG_LEVEL")
	envOverride(&cfg.Log.Format, "LOG_FORMAT")

	if tlds := os.Getenv("ENUM_TLDS"); tlds != "" {
		cfg.Enumerator.TLDs = strings.Split(tlds, ",")
	}
	cfg.Enumerator.TLDs = pstrings.DedupeAndTrimLower(cfg.Enumerator.TLDs)

	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.MinIdleConns == 0 {
		cfg.Redis.MinIdleConns = 2
	}
	if len(cfg.Enumerator.TLDs) == 0 {
		cfg.Enumerator.TLDs = []string{"ai", "io"}
	}
	if cfg.Enumerator.CheckIntervalSeconds == 0 {
		cfg.Enumerator.CheckIntervalSeconds = 2
	}
	if cfg.Enumerator.FlushEvery == 0 {
		cfg.Enumerator.FlushEvery = 100
	}
	if cfg.Enumerator.RecheckIntervalMinutes == 0 {
		cfg.Enumerator.RecheckIntervalMinutes = 360
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

func validate(cfg Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", cfg.Log.Format)
	}
	if cfg.Enumerator.CheckIntervalSeconds < 0 {
		return fmt.Errorf("check interval must not be negative")
	}
	return nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err == nil {
			*field = parsed
		}
	}
}
