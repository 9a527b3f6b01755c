package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateBackend(cfg, ve)
	validateCallback(cfg, ve)
	validateUI(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateHistory(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateBackend(cfg *Config, ve *ValidationError) {
	if cfg.Backend.URL != "" {
		u, err := url.Parse(cfg.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			ve.Add("backend.url %q must be an http(s) URL", cfg.Backend.URL)
		}
	}
	if cfg.Backend.Timeout <= 0 {
		ve.Add("backend.timeout must be > 0")
	}
	if cfg.Backend.ProbeTimeout <= 0 {
		ve.Add("backend.probe_timeout must be > 0")
	}
	if cfg.Backend.PollInterval <= 0 {
		ve.Add("backend.poll_interval must be > 0")
	}
	if cfg.Backend.RatePerSecond <= 0 {
		ve.Add("backend.rate_per_second must be > 0")
	}
	if cfg.Backend.RateBurst <= 0 {
		ve.Add("backend.rate_burst must be > 0")
	}
	if cfg.Backend.BreakerFailures == 0 {
		ve.Add("backend.breaker_failures must be > 0")
	}
	if cfg.Backend.BreakerCooldown <= 0 {
		ve.Add("backend.breaker_cooldown must be > 0")
	}
}

func validateCallback(cfg *Config, ve *ValidationError) {
	if cfg.Callback.Port <= 0 || cfg.Callback.Port > 65535 {
		ve.Add("callback.port %d out of range", cfg.Callback.Port)
	}
	if cfg.Callback.Bind == "" {
		ve.Add("callback.bind must not be empty")
	}
	if strings.Contains(cfg.Callback.Host, "/") {
		ve.Add("callback.host %q must be a bare host name", cfg.Callback.Host)
	}
}

func validateUI(cfg *Config, ve *ValidationError) {
	if cfg.UI.GracePeriod < 0 {
		ve.Add("ui.grace_period must not be negative")
	}
	if cfg.UI.HealthInterval <= 0 {
		ve.Add("ui.health_interval must be > 0")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q must be text or json", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "stdout", "noop":
	default:
		ve.Add("tracer.exporter %q must be stdout or noop", cfg.Tracer.Exporter)
	}
}

func validateHistory(cfg *Config, ve *ValidationError) {
	if cfg.History.Keep <= 0 {
		ve.Add("history.keep must be > 0")
	}
	if cfg.History.Path == "" {
		ve.Add("history.path must not be empty")
	}
}
