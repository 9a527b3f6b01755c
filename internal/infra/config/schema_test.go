package config

import (
	"strings"
	"testing"
)

func TestCheckSchemaValid(t *testing.T) {
	doc := `
backend:
  url: http://media-box:7878
  poll_interval: 2s
callback:
  port: 8585
logger:
  level: info
`
	if err := CheckSchema([]byte(doc)); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestCheckSchemaUnknownKey(t *testing.T) {
	doc := `
backend:
  url: http://media-box:7878
  pol_interval: 2s
`
	if err := CheckSchema([]byte(doc)); err == nil {
		t.Error("misspelled key should be rejected")
	}
}

func TestCheckSchemaWrongType(t *testing.T) {
	doc := `
callback:
  port: "eight"
`
	if err := CheckSchema([]byte(doc)); err == nil {
		t.Error("string port should be rejected")
	}
}

func TestCheckSchemaEmpty(t *testing.T) {
	if err := CheckSchema(nil); err != nil {
		t.Errorf("empty config should pass: %v", err)
	}
}

func TestCheckSchemaBadYAML(t *testing.T) {
	err := CheckSchema([]byte(":\n  - ]["))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "parse yaml") {
		t.Errorf("unexpected error: %v", err)
	}
}
