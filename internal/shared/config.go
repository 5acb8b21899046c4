package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Poller   PollerConfig   `toml:"poller"`
	Batch    BatchConfig    `toml:"batch"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Stub     StubConfig     `toml:"stub"`
	Cache    CacheConfig    `toml:"cache"`
}

// APIConfig points the client at the seat-lookup backend.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// PollerConfig contains session polling settings.
type PollerConfig struct {
	IntervalMS       int `toml:"interval_ms"`
	MaxErrors        int `toml:"max_errors"`
	RequestTimeoutMS int `toml:"request_timeout_ms"`
}

// BatchConfig contains settings for batch lookups.
type BatchConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StubConfig controls the local stub backend.
type StubConfig struct {
	RosterPath      string `toml:"roster_path"`
	ProgressMS      int    `toml:"progress_ms"`
	RegisterDelayMS int    `toml:"register_delay_ms"`
	Immediate       bool   `toml:"immediate"`
}

// CacheConfig contains Redis settings for stub session storage.
type CacheConfig struct {
	RedisAddr         string `toml:"redis_addr"`
	RedisPassword     string `toml:"redis_password"`
	RedisDB           int    `toml:"redis_db"`
	SessionTTLSeconds int    `toml:"session_ttl_seconds"`
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the polling interval.
func (c PollerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// RequestTimeout returns the per-poll request timeout.
func (c PollerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Progress returns how long a stub search takes to complete.
func (c StubConfig) Progress() time.Duration {
	return time.Duration(c.ProgressMS) * time.Millisecond
}

// RegisterDelay returns how long a new stub session answers 404 on progress.
func (c StubConfig) RegisterDelay() time.Duration {
	return time.Duration(c.RegisterDelayMS) * time.Millisecond
}

// SessionTTL returns how long stub sessions live without being extended.
func (c CacheConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Addr returns host:port for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
