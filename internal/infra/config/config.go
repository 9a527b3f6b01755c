package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the reelist client.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Callback CallbackConfig `yaml:"callback"`
	UI       UIConfig       `yaml:"ui"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracer   TracerConfig   `yaml:"tracer"`
	StateDir string         `yaml:"state_dir"`
	History  HistoryConfig  `yaml:"history"`
}

// BackendConfig holds the Reelist server connection settings.
type BackendConfig struct {
	URL             string        `yaml:"url"`
	Timeout         time.Duration `yaml:"timeout"`          // submissions and exchanges
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`    // per readiness probe
	PollInterval    time.Duration `yaml:"poll_interval"`    // build status cadence
	RatePerSecond   float64       `yaml:"rate_per_second"`  // client-side request limiter
	RateBurst       int           `yaml:"rate_burst"`
	BreakerFailures uint32        `yaml:"breaker_failures"` // consecutive failures before the breaker opens
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// CallbackConfig holds the authorization-callback listener settings.
// Host is the externally visible name used in the redirect URI; it must not
// default to a loopback name because the browser may run on another device.
type CallbackConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Bind string `yaml:"bind"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	ASCIISymbols   bool          `yaml:"ascii_symbols"`
	GracePeriod    time.Duration `yaml:"grace_period"`    // hold at 100% before completing
	HealthInterval time.Duration `yaml:"health_interval"` // home screen health poll
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// HistoryConfig holds the local build-history store settings.
type HistoryConfig struct {
	Path string `yaml:"path"`
	Keep int    `yaml:"keep"`
}

// defaultStateDir returns the persistent state directory under $HOME/.reelist.
// Falls back to "./.reelist" if $HOME cannot be determined.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.reelist"
	}
	return filepath.Join(home, ".reelist")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	stateDir := defaultStateDir()
	return &Config{
		Backend: BackendConfig{
			Timeout:         10 * time.Second,
			ProbeTimeout:    3 * time.Second,
			PollInterval:    2 * time.Second,
			RatePerSecond:   5,
			RateBurst:       8,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Callback: CallbackConfig{
			Port: 8585,
			Bind: "0.0.0.0",
		},
		UI: UIConfig{
			GracePeriod:    2 * time.Second,
			HealthInterval: 10 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: filepath.Join(stateDir, "reelist.log"),
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
		StateDir: stateDir,
		History: HistoryConfig{
			Path: filepath.Join(stateDir, "history.db"),
			Keep: 50,
		},
	}
}

// Load reads the config file at path. A missing file is not an error: env
// overrides are applied on top of defaults and the result validated, so a
// fresh install runs without any file on disk.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps REELIST_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REELIST_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("REELIST_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Backend.Timeout = d
		}
	}
	if v := os.Getenv("REELIST_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Backend.PollInterval = d
		}
	}
	if v := os.Getenv("REELIST_CALLBACK_HOST"); v != "" {
		cfg.Callback.Host = v
	}
	if v := os.Getenv("REELIST_CALLBACK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p < 65536 {
			cfg.Callback.Port = p
		}
	}
	if v := os.Getenv("REELIST_CALLBACK_BIND"); v != "" {
		cfg.Callback.Bind = v
	}
	if v := os.Getenv("REELIST_ASCII_SYMBOLS"); v == "1" || v == "true" {
		cfg.UI.ASCIISymbols = true
	}
	if v := os.Getenv("REELIST_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("REELIST_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("REELIST_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("REELIST_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("REELIST_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("REELIST_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("REELIST_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
}

// RedirectHost resolves the externally visible callback host: env override,
// then config, then the machine's hostname. Never a hard-coded loopback.
func (c *Config) RedirectHost() string {
	if v := os.Getenv("REELIST_CALLBACK_HOST"); v != "" {
		return v
	}
	if c.Callback.Host != "" {
		return c.Callback.Host
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return c.Callback.Bind
}

// RedirectURI builds the full redirect URI registered with the backend.
func (c *Config) RedirectURI() string {
	return fmt.Sprintf("http://%s:%d/callback", c.RedirectHost(), c.Callback.Port)
}

// SessionPath returns the session file location under the state dir.
func (c *Config) SessionPath() string {
	return filepath.Join(c.StateDir, "session.yaml")
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
