// Package config resolves genrelay settings from defaults, a YAML file,
// the environment and command line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Mode selects how the relay shapes the upstream message sequence.
type Mode string

const (
	// ModeStateless sends a fixed system turn followed by the prompt.
	ModeStateless Mode = "stateless"
	// ModeHistory sends the caller's history followed by the prompt and
	// returns the extended history.
	ModeHistory Mode = "history"
)

// Transcript backends for the console.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

const (
	DefaultSystemPrompt   = "You are a helpful assistant."
	DefaultFallbackPrompt = "Tell me a fun fact about technology."
)

// Config holds everything the genrelay process needs. It is built once at
// startup and handed to the components by pointer.
type Config struct {
	ConfigFile string `yaml:"-"`
	Port       int    `yaml:"port"`
	// MetricsAddr is the Prometheus listen address. Empty or ":<Port>" means
	// metrics are served by the main router.
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	UpstreamURL        string        `yaml:"upstream_url"`
	APIKey             string        `yaml:"api_key"`
	Mode               Mode          `yaml:"mode"`
	SystemPrompt       string        `yaml:"system_prompt"`
	DefaultMaxTokens   int           `yaml:"default_max_tokens"`
	DefaultTemperature float64       `yaml:"default_temperature"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`

	Console ConsoleConfig `yaml:"console"`
}

// ConsoleConfig configures the built-in console and its transcript store.
type ConsoleConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Backend        string `yaml:"backend"`
	Window         int    `yaml:"window"`
	RedisAddr      string `yaml:"redis_addr"`
	SQLitePath     string `yaml:"sqlite_path"`
	FallbackPrompt string `yaml:"fallback_prompt"`
}

// SetDefaults fills zero values with built-in defaults.
func (c *Config) SetDefaults() {
	if c.ConfigFile == "" {
		c.ConfigFile = DefaultConfigPath("relay.yaml")
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.Mode == "" {
		c.Mode = ModeHistory
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.DefaultMaxTokens == 0 {
		c.DefaultMaxTokens = 100
	}
	if c.DefaultTemperature == 0 {
		c.DefaultTemperature = 0.7
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Console.Backend == "" {
		c.Console.Backend = BackendMemory
	}
	if c.Console.Window == 0 {
		c.Console.Window = 5
	}
	if c.Console.SQLitePath == "" {
		c.Console.SQLitePath = "genrelay.db"
	}
	if c.Console.FallbackPrompt == "" {
		c.Console.FallbackPrompt = DefaultFallbackPrompt
	}
}

// LoadFile overlays values from a YAML file.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the current values.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		c.ConfigFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		c.MetricsAddr = metricsAddr(v)
	}
	if v := os.Getenv("MODEL_ENDPOINT"); v != "" {
		c.UpstreamURL = v
	} else if v := os.Getenv("Model_ENDPOINT"); v != "" {
		c.UpstreamURL = v
	}
	if v := os.Getenv("AZURE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("RELAY_MODE"); v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}
	if v := os.Getenv("SYSTEM_PROMPT"); v != "" {
		c.SystemPrompt = v
	}
	if v := os.Getenv("DEFAULT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultMaxTokens = n
		}
	}
	if v := os.Getenv("DEFAULT_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.DefaultTemperature = f
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, ok := parseSeconds(v); ok {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
	if v := os.Getenv("CONSOLE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Console.Enabled = b
		}
	}
	if v := os.Getenv("TRANSCRIPT_BACKEND"); v != "" {
		c.Console.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("TRANSCRIPT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Console.Window = n
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Console.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Console.SQLitePath = v
	}
}

// BindFlags registers the server flags on fs. Defaults shown in help are the
// built-in defaults; only flags set explicitly are applied by ApplyFlags.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.SetDefaults()
	fs.String("config", d.ConfigFile, "config file path")
	fs.String("log-level", d.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.String("log-format", d.LogFormat, "log format (console or json)")
	fs.Int("port", d.Port, "HTTP listen port")
	fs.String("metrics-port", "", "Prometheus listen address or port; defaults to the value of --port")
	fs.String("upstream-url", "", "chat completion endpoint URL")
	fs.String("api-key", "", "credential sent upstream in the api-key header")
	fs.String("mode", string(d.Mode), "relay mode (stateless or history)")
	fs.String("system-prompt", d.SystemPrompt, "system turn used in stateless mode")
	fs.Int("max-tokens", d.DefaultMaxTokens, "default max_tokens when a request omits it")
	fs.Float64("temperature", d.DefaultTemperature, "default temperature when a request omits it")
	fs.Duration("request-timeout", d.RequestTimeout, "upstream request timeout (0 disables)")
	fs.StringSlice("allowed-origins", nil, "comma separated list of allowed CORS origins")
	fs.Bool("console", false, "enable the transcript console")
	fs.String("transcript-backend", d.Console.Backend, "console transcript store (memory, redis, sqlite)")
	fs.Int("transcript-window", d.Console.Window, "number of recent exchanges replayed as history")
	fs.String("redis-addr", "", "redis connection URL for the transcript store")
	fs.String("sqlite-path", d.Console.SQLitePath, "sqlite database file for the transcript store")
}

// ApplyFlags overlays the flags the user actually set.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			v, err := fs.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	str("config", &c.ConfigFile)
	str("log-level", &c.LogLevel)
	str("log-format", &c.LogFormat)
	num("port", &c.Port)
	if fs.Changed("metrics-port") {
		v, err := fs.GetString("metrics-port")
		errs = append(errs, err)
		c.MetricsAddr = metricsAddr(v)
	}
	str("upstream-url", &c.UpstreamURL)
	str("api-key", &c.APIKey)
	if fs.Changed("mode") {
		v, err := fs.GetString("mode")
		errs = append(errs, err)
		c.Mode = Mode(strings.ToLower(v))
	}
	str("system-prompt", &c.SystemPrompt)
	num("max-tokens", &c.DefaultMaxTokens)
	if fs.Changed("temperature") {
		v, err := fs.GetFloat64("temperature")
		errs = append(errs, err)
		c.DefaultTemperature = v
	}
	if fs.Changed("request-timeout") {
		v, err := fs.GetDuration("request-timeout")
		errs = append(errs, err)
		c.RequestTimeout = v
	}
	if fs.Changed("allowed-origins") {
		v, err := fs.GetStringSlice("allowed-origins")
		errs = append(errs, err)
		c.AllowedOrigins = v
	}
	if fs.Changed("console") {
		v, err := fs.GetBool("console")
		errs = append(errs, err)
		c.Console.Enabled = v
	}
	str("transcript-backend", &c.Console.Backend)
	num("transcript-window", &c.Console.Window)
	str("redis-addr", &c.Console.RedisAddr)
	str("sqlite-path", &c.Console.SQLitePath)
	return errors.Join(errs...)
}

// Load resolves the configuration: defaults < file < env < flags. A missing
// config file is not an error. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	var c Config
	c.SetDefaults()
	c.ApplyEnv()
	if fs != nil && fs.Changed("config") {
		v, err := fs.GetString("config")
		if err != nil {
			return nil, err
		}
		c.ConfigFile = v
	}
	if c.ConfigFile != "" {
		if err := c.LoadFile(c.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	c.ApplyEnv()
	if fs != nil {
		if err := c.ApplyFlags(fs); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Validate checks that the configuration is usable by the server.
func (c *Config) Validate() error {
	if c.UpstreamURL == "" {
		return fmt.Errorf("MODEL_ENDPOINT is required")
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid upstream url %q", c.UpstreamURL)
	}
	if c.APIKey == "" {
		return fmt.Errorf("AZURE_API_KEY is required")
	}
	switch c.Mode {
	case ModeStateless, ModeHistory:
	default:
		return fmt.Errorf("unknown relay mode %q", c.Mode)
	}
	if c.DefaultMaxTokens <= 0 {
		return fmt.Errorf("default max tokens must be positive, got %d", c.DefaultMaxTokens)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	if !c.Console.Enabled {
		return nil
	}
	switch c.Console.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Console.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis transcript backend")
		}
	default:
		return fmt.Errorf("unknown transcript backend %q", c.Console.Backend)
	}
	if c.Console.Window <= 0 {
		return fmt.Errorf("transcript window must be positive, got %d", c.Console.Window)
	}
	return nil
}

// ListenAddr is the main HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MetricsOnMainPort reports whether /metrics is mounted on the main router.
func (c *Config) MetricsOnMainPort() bool {
	return c.MetricsAddr == "" || c.MetricsAddr == c.ListenAddr()
}

func metricsAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

// parseSeconds accepts a Go duration ("90s") or a bare number of seconds.
func parseSeconds(v string) (time.Duration, bool) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), true
	}
	return 0, false
}

func splitComma(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
