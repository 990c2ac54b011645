package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tturner/cipwire/internal/errors"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default config",
			mutate: func(*Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Adapter.Port = 70000 },
			wantErr: "adapter.port",
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "zero fragments",
			mutate:  func(c *Config) { c.Client.MaxFragments = 0 },
			wantErr: "client.max_fragments",
		},
		{
			name:    "hex width",
			mutate:  func(c *Config) { c.Output.HexWidth = 100 },
			wantErr: "output.hex_width",
		},
		{
			name: "attribute list without attributes",
			mutate: func(c *Config) {
				c.Targets = []CIPTarget{{Name: "x", Service: ServiceGetAttributeList, Class: 1, Instance: 1}}
			},
			wantErr: "attributes are required",
		},
		{
			name: "missing class",
			mutate: func(c *Config) {
				c.Targets = []CIPTarget{{Name: "x", Service: ServiceGetAttributesAll}}
			},
			wantErr: "class is required",
		},
		{
			name: "read tag without tag",
			mutate: func(c *Config) {
				c.Targets = []CIPTarget{{Name: "x", Service: ServiceReadTag}}
			},
			wantErr: "tag is required",
		},
		{
			name: "unknown service",
			mutate: func(c *Config) {
				c.Targets = []CIPTarget{{Name: "x", Service: "forward_open", Class: 6}}
			},
			wantErr: "invalid service type",
		},
		{
			name: "duplicate target",
			mutate: func(c *Config) {
				c.Targets = append(c.Targets, c.Targets[0])
			},
			wantErr: "duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CreateDefaultConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateConfig() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfigAutoCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cipwire.yaml")

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !reflect.DeepEqual(cfg, CreateDefaultConfig()) {
		t.Errorf("auto-created config differs from defaults:\n%+v", cfg)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := LoadConfig(path, false)
	var friendly errors.UserFriendlyError
	if !stderrors.As(err, &friendly) {
		t.Fatalf("expected UserFriendlyError, got %v", err)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cipwire.yaml")
	content := `adapter:
  address: 10.0.0.5
logging:
  level: debug
  format: json
output:
  color: false
targets:
  - name: Tag
    service: read_tag
    tag: Program:Main.Recipe
  - name: Link
    service: get_attribute_list
    class: 0xF6
    attributes: [0x01, 0x03]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Adapter.Address != "10.0.0.5" || cfg.Adapter.Port != DefaultPort {
		t.Errorf("unexpected adapter: %+v", cfg.Adapter)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging: %+v", cfg.Logging)
	}
	if cfg.Output.Color || cfg.Output.HexWidth != 16 {
		t.Errorf("unexpected output: %+v", cfg.Output)
	}
	if cfg.Client.MaxFragments != DefaultMaxFragments {
		t.Errorf("max_fragments = %d", cfg.Client.MaxFragments)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(cfg.Targets))
	}

	tag, ok := cfg.Target("Tag")
	if !ok || tag.Elements != 1 || tag.Instance != 0 {
		t.Errorf("unexpected tag target: %+v", tag)
	}
	link, ok := cfg.Target("Link")
	if !ok || link.Class != 0xF6 || link.Instance != 1 || !reflect.DeepEqual(link.Attributes, []uint16{1, 3}) {
		t.Errorf("unexpected link target: %+v", link)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cipwire.yaml")
	if err := os.WriteFile(path, []byte("client:\n  max_fragments: -1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path, false)
	if err == nil || !strings.Contains(err.Error(), "max_fragments") {
		t.Fatalf("expected max_fragments error, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := CreateDefaultConfig()
	cfg.Logging.File = filepath.Join(t.TempDir(), "cipwire.log")
	logger, err := cfg.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()
	if logger.GetLevel().String() != "info" {
		t.Errorf("level = %s", logger.GetLevel())
	}
}
