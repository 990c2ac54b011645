package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tturner/cipwire/internal/config"
)

func TestConfigFormApply(t *testing.T) {
	cfg := config.CreateDefaultConfig()
	values := newConfigFormValues(cfg)
	if values.port != "44818" || values.logLevel != "info" || !values.color {
		t.Fatalf("unexpected initial values: %+v", values)
	}
	if form := buildConfigForm(values); form == nil {
		t.Fatal("buildConfigForm returned nil")
	}

	values.name = " Line 3 PLC "
	values.address = "10.0.0.50"
	values.port = "2222"
	values.timeoutMs = "1500"
	values.logLevel = "debug"
	values.color = false
	if err := values.apply(cfg); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Adapter.Name != "Line 3 PLC" || cfg.Adapter.Address != "10.0.0.50" || cfg.Adapter.Port != 2222 {
		t.Fatalf("adapter not applied: %+v", cfg.Adapter)
	}
	if cfg.Adapter.TimeoutMs != 1500 || cfg.Logging.Level != "debug" || cfg.Output.Color {
		t.Fatalf("settings not applied: %+v %+v %+v", cfg.Adapter, cfg.Logging, cfg.Output)
	}

	path := filepath.Join(t.TempDir(), "cipwire.yaml")
	if err := config.WriteConfig(path, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}
	loaded, err := config.LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Adapter.Address != "10.0.0.50" || loaded.Output.Color {
		t.Fatalf("written config differs: %+v", loaded)
	}
}

func TestConfigFormApplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*configFormValues)
	}{
		{"port not a number", func(v *configFormValues) { v.port = "http" }},
		{"port out of range", func(v *configFormValues) { v.port = "70000" }},
		{"timeout not a number", func(v *configFormValues) { v.timeoutMs = "soon" }},
		{"bad level", func(v *configFormValues) { v.logLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.CreateDefaultConfig()
			values := newConfigFormValues(cfg)
			tt.mutate(values)
			if err := values.apply(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConfigFormValidators(t *testing.T) {
	if err := validatePort("44818"); err != nil {
		t.Errorf("validatePort(44818) = %v", err)
	}
	if err := validatePort("0"); err == nil {
		t.Error("validatePort(0) should fail")
	}
	if err := validatePositive("-5"); err == nil {
		t.Error("validatePositive(-5) should fail")
	}
	if err := validateCatalogPath(""); err != nil {
		t.Errorf("empty catalog path should be accepted: %v", err)
	}
	if err := validateCatalogPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing catalog should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("version: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := validateCatalogPath(bad); err == nil {
		t.Error("invalid catalog should fail")
	}
}
