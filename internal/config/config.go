package config

// Configuration loading and validation for cipwire

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tturner/cipwire/internal/errors"
	"github.com/tturner/cipwire/internal/logging"
)

// DefaultPort is the EtherNet/IP explicit messaging port.
const DefaultPort = 44818

// DefaultMaxFragments bounds the continuation loop of fragmented services.
const DefaultMaxFragments = 64

// ServiceType names a service a target reads with.
type ServiceType string

const (
	ServiceGetAttributeList   ServiceType = "get_attribute_list"
	ServiceGetAttributeSingle ServiceType = "get_attribute_single"
	ServiceGetAttributesAll   ServiceType = "get_attributes_all"
	ServiceReadTag            ServiceType = "read_tag"
)

// AdapterConfig represents the device to talk to.
type AdapterConfig struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address,omitempty"`
	Port      int    `yaml:"port"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // silent, error, info, verbose, debug
	File   string `yaml:"file,omitempty"`
	Format string `yaml:"format"` // text or json
}

// CatalogConfig selects the attribute catalog. An empty path uses the
// built-in catalog.
type CatalogConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ClientConfig controls service calls.
type ClientConfig struct {
	MaxFragments int `yaml:"max_fragments"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Color    bool `yaml:"color"`
	HexWidth int  `yaml:"hex_width"`
}

// CIPTarget is a named read against the adapter.
type CIPTarget struct {
	Name       string      `yaml:"name"`
	Service    ServiceType `yaml:"service"`
	Class      uint16      `yaml:"class,omitempty"`
	Instance   uint16      `yaml:"instance,omitempty"`
	Attribute  uint16      `yaml:"attribute,omitempty"`
	Attributes []uint16    `yaml:"attributes,omitempty"`
	Tag        string      `yaml:"tag,omitempty"`
	Elements   uint16      `yaml:"elements,omitempty"`
}

// Config represents the CLI configuration
type Config struct {
	Adapter AdapterConfig `yaml:"adapter"`
	Logging LoggingConfig `yaml:"logging"`
	Catalog CatalogConfig `yaml:"catalog"`
	Client  ClientConfig  `yaml:"client"`
	Output  OutputConfig  `yaml:"output"`
	Targets []CIPTarget   `yaml:"targets,omitempty"`
}

// CreateDefaultConfig creates a default configuration
func CreateDefaultConfig() *Config {
	return &Config{
		Adapter: AdapterConfig{
			Name:      "Default Device",
			Port:      DefaultPort,
			TimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Client: ClientConfig{
			MaxFragments: DefaultMaxFragments,
		},
		Output: OutputConfig{
			Color:    true,
			HexWidth: 16,
		},
		Targets: []CIPTarget{
			{
				Name:       "IdentityBasics",
				Service:    ServiceGetAttributeList,
				Class:      0x01,
				Instance:   0x01,
				Attributes: []uint16{0x01, 0x02, 0x03, 0x06},
			},
			{
				Name:      "SerialNumber",
				Service:   ServiceGetAttributeSingle,
				Class:     0x01,
				Instance:  0x01,
				Attribute: 0x06,
			},
		},
	}
}

// WriteDefaultConfig writes a default configuration to a file
func WriteDefaultConfig(path string) error {
	return WriteConfig(path, CreateDefaultConfig())
}

// WriteConfig writes cfg to path as YAML.
func WriteConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfig loads a configuration from a YAML file. Keys missing from the
// file keep their default values. If the file doesn't exist and autoCreate is
// true, a default config file is written first.
func LoadConfig(path string, autoCreate bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if !autoCreate {
				return nil, errors.WrapConfigError(
					fmt.Errorf("config file not found: %s", path),
					path,
				)
			}
			if err := WriteDefaultConfig(path); err != nil {
				return nil, fmt.Errorf("create default config: %w", err)
			}
			data, err = os.ReadFile(path)
			if err != nil {
				return nil, errors.WrapConfigError(
					fmt.Errorf("read created config file: %w", err),
					path,
				)
			}
		} else {
			return nil, errors.WrapConfigError(
				fmt.Errorf("read config file: %w", err),
				path,
			)
		}
	}

	cfg := CreateDefaultConfig()
	cfg.Targets = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
	}
	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("validate config: %w", err), path)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Adapter.Port == 0 {
		cfg.Adapter.Port = DefaultPort
	}
	if cfg.Adapter.TimeoutMs == 0 {
		cfg.Adapter.TimeoutMs = 5000
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Client.MaxFragments == 0 {
		cfg.Client.MaxFragments = DefaultMaxFragments
	}
	if cfg.Output.HexWidth == 0 {
		cfg.Output.HexWidth = 16
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].Instance == 0 && cfg.Targets[i].Service != ServiceReadTag {
			cfg.Targets[i].Instance = 1
		}
		if cfg.Targets[i].Service == ServiceReadTag && cfg.Targets[i].Elements == 0 {
			cfg.Targets[i].Elements = 1
		}
	}
}

// ValidateConfig validates a configuration
func ValidateConfig(cfg *Config) error {
	if cfg.Adapter.Port < 1 || cfg.Adapter.Port > 65535 {
		return fmt.Errorf("adapter.port must be between 1 and 65535, got %d", cfg.Adapter.Port)
	}
	if cfg.Adapter.TimeoutMs < 0 {
		return fmt.Errorf("adapter.timeout_ms must be >= 0")
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", cfg.Logging.Format)
	}
	if cfg.Client.MaxFragments < 1 {
		return fmt.Errorf("client.max_fragments must be > 0")
	}
	if cfg.Output.HexWidth < 1 || cfg.Output.HexWidth > 64 {
		return fmt.Errorf("output.hex_width must be between 1 and 64, got %d", cfg.Output.HexWidth)
	}

	names := make(map[string]bool)
	for i, target := range cfg.Targets {
		if err := validateCIPTarget(target, i); err != nil {
			return err
		}
		if names[target.Name] {
			return fmt.Errorf("targets[%d]: duplicate name '%s'", i, target.Name)
		}
		names[target.Name] = true
	}
	return nil
}

// validateCIPTarget validates a single CIP target
func validateCIPTarget(target CIPTarget, index int) error {
	if target.Name == "" {
		return fmt.Errorf("targets[%d]: name is required", index)
	}
	if target.Service == "" {
		return fmt.Errorf("targets[%d]: service is required", index)
	}

	switch target.Service {
	case ServiceGetAttributeList:
		if len(target.Attributes) == 0 {
			return fmt.Errorf("targets[%d]: attributes are required for %s", index, target.Service)
		}
	case ServiceGetAttributeSingle:
		if target.Attribute == 0 {
			return fmt.Errorf("targets[%d]: attribute is required for %s", index, target.Service)
		}
	case ServiceGetAttributesAll:
	case ServiceReadTag:
		if strings.TrimSpace(target.Tag) == "" {
			return fmt.Errorf("targets[%d]: tag is required for %s", index, target.Service)
		}
		return nil
	default:
		return fmt.Errorf("targets[%d]: invalid service type '%s'", index, target.Service)
	}
	if target.Class == 0 {
		return fmt.Errorf("targets[%d]: class is required", index)
	}
	return nil
}

// Target finds a target by name.
func (c *Config) Target(name string) (CIPTarget, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return CIPTarget{}, false
}

// NewLogger builds a logger from the logging section.
func (c *Config) NewLogger() (*logging.Logger, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLoggerWithOptions(level, c.Logging.File, c.Logging.Format, 1)
}
