package tracer

import (
	"context"
	"errors"
	"testing"

	"reelist/internal/infra/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup() shutdown func is nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetupNoopExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "noop"})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetupEmptyExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: ""})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetupStdoutExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "stdout"})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetupUnsupportedExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "jaeger"})
	if err == nil {
		t.Fatal("Setup() expected error for unsupported exporter")
	}
}

func TestStartSpan(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "test.operation")
	if ctx == nil {
		t.Fatal("StartSpan() returned nil context")
	}
	if span == nil {
		t.Fatal("StartSpan() returned nil span")
	}
	span.End()
}

func TestSpanHelpers(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer shutdown(context.Background())

	_, span := StartSpan(context.Background(), "test.helpers")
	RecordError(span, errors.New("boom"))
	SetOK(span)
	span.End()
}

func TestAttrHelpers(t *testing.T) {
	s := StringAttr("probe", "trakt-credentials")
	if string(s.Key) != "probe" || s.Value.AsString() != "trakt-credentials" {
		t.Errorf("StringAttr() = %v", s)
	}
	n := IntAttr("processed", 250)
	if string(n.Key) != "processed" || n.Value.AsInt64() != 250 {
		t.Errorf("IntAttr() = %v", n)
	}
	b := BoolAttr("satisfied", true)
	if string(b.Key) != "satisfied" || !b.Value.AsBool() {
		t.Errorf("BoolAttr() = %v", b)
	}
}
