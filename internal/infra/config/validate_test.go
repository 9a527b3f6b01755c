package config

import (
	"strings"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestValidateBadBackendURL(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.URL = "ftp://nope"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "backend.url") {
		t.Errorf("error should name backend.url: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.Timeout = 0
	cfg.Callback.Port = 0
	cfg.History.Keep = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Errors) != 3 {
		t.Errorf("want 3 errors, got %d: %v", len(ve.Errors), ve.Errors)
	}
}

func TestValidateLoggerFormat(t *testing.T) {
	cfg := Defaults()
	cfg.Logger.Format = "xml"
	if Validate(cfg) == nil {
		t.Error("xml format should be rejected")
	}
	cfg.Logger.Format = "json"
	if err := Validate(cfg); err != nil {
		t.Errorf("json format should pass: %v", err)
	}
}

func TestValidateTracerExporter(t *testing.T) {
	cfg := Defaults()
	cfg.Tracer.Enabled = true
	cfg.Tracer.Exporter = "jaeger"
	if Validate(cfg) == nil {
		t.Error("unknown exporter should be rejected when tracing enabled")
	}
	cfg.Tracer.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Errorf("exporter is irrelevant when disabled: %v", err)
	}
}

func TestValidateCallbackHost(t *testing.T) {
	cfg := Defaults()
	cfg.Callback.Host = "media-box/path"
	if Validate(cfg) == nil {
		t.Error("host with a path should be rejected")
	}
}
