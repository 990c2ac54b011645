package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/tturner/cipwire/internal/cip/catalog"
	"github.com/tturner/cipwire/internal/config"
	"github.com/tturner/cipwire/internal/logging"
)

// configFormValues holds the form fields as entered.
type configFormValues struct {
	name      string
	address   string
	port      string
	timeoutMs string
	logLevel  string
	catalog   string
	color     bool
}

func newConfigFormValues(cfg *config.Config) *configFormValues {
	return &configFormValues{
		name:      cfg.Adapter.Name,
		address:   cfg.Adapter.Address,
		port:      strconv.Itoa(cfg.Adapter.Port),
		timeoutMs: strconv.Itoa(cfg.Adapter.TimeoutMs),
		logLevel:  cfg.Logging.Level,
		catalog:   cfg.Catalog.Path,
		color:     cfg.Output.Color,
	}
}

func buildConfigForm(v *configFormValues) *huh.Form {
	adapterGroup := huh.NewGroup(
		huh.NewInput().
			Title("Device name").
			Description("Label used in logs.").
			Key("adapter_name").
			Value(&v.name),
		huh.NewInput().
			Title("Device address").
			Description("IP address or host name of the EtherNet/IP device.").
			Key("adapter_address").
			Value(&v.address),
		huh.NewInput().
			Title("Port").
			Description("TCP port for EtherNet/IP (default 44818).").
			Key("adapter_port").
			Validate(validatePort).
			Value(&v.port),
		huh.NewInput().
			Title("Timeout (ms)").
			Description("Per-exchange timeout.").
			Key("adapter_timeout_ms").
			Validate(validatePositive).
			Value(&v.timeoutMs),
	)

	outputGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Log level").
			Key("logging_level").
			Options(huh.NewOptions("silent", "error", "info", "verbose", "debug")...).
			Value(&v.logLevel),
		huh.NewInput().
			Title("Attribute catalog (optional)").
			Description("YAML catalog file; empty uses the built-in catalog.").
			Key("catalog_path").
			Validate(validateCatalogPath).
			Value(&v.catalog),
		huh.NewConfirm().
			Title("Styled output?").
			Key("output_color").
			Value(&v.color),
	)

	return huh.NewForm(adapterGroup, outputGroup)
}

// apply copies the form values onto cfg.
func (v *configFormValues) apply(cfg *config.Config) error {
	port, err := strconv.Atoi(strings.TrimSpace(v.port))
	if err != nil {
		return fmt.Errorf("port: %w", err)
	}
	timeout, err := strconv.Atoi(strings.TrimSpace(v.timeoutMs))
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if _, err := logging.ParseLevel(v.logLevel); err != nil {
		return err
	}
	cfg.Adapter.Name = strings.TrimSpace(v.name)
	cfg.Adapter.Address = strings.TrimSpace(v.address)
	cfg.Adapter.Port = port
	cfg.Adapter.TimeoutMs = timeout
	cfg.Logging.Level = v.logLevel
	cfg.Catalog.Path = strings.TrimSpace(v.catalog)
	cfg.Output.Color = v.color
	return config.ValidateConfig(cfg)
}

func validatePort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be 1-65535")
	}
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateCatalogPath(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := catalog.Load(strings.TrimSpace(s))
	return err
}
