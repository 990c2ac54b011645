package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tturner/cipwire/internal/cip/catalog"
	"github.com/tturner/cipwire/internal/config"
	"github.com/tturner/cipwire/internal/errors"
	"github.com/tturner/cipwire/internal/logging"
)

const defaultConfigPath = "cipwire.yaml"

// settings is the resolved configuration of one command run: config file
// values with flag overrides applied.
type settings struct {
	cfg    *config.Config
	logger *logging.Logger
	styles styles
	cat    *catalog.Catalog
}

// loadSettings reads the config file and applies flag overrides. A missing
// file at the default path falls back to built-in defaults; a missing file
// named with --config is an error.
func loadSettings(cmd *cobra.Command, opts *rootOptions) (*settings, error) {
	var cfg *config.Config
	if _, err := os.Stat(opts.configPath); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		cfg = config.CreateDefaultConfig()
	} else {
		loaded, err := config.LoadConfig(opts.configPath, false)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}
	if opts.catalog != "" {
		cfg.Catalog.Path = opts.catalog
	}
	if opts.noColor {
		cfg.Output.Color = false
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, errors.WrapConfigError(err, opts.configPath)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger.LogCommand(cmd.CommandPath(), opts.configPath)

	return &settings{
		cfg:    cfg,
		logger: logger,
		styles: newStyles(cfg.Output.Color),
	}, nil
}

// Catalog loads the configured attribute catalog once.
func (s *settings) Catalog() (*catalog.Catalog, error) {
	if s.cat != nil {
		return s.cat, nil
	}
	cat, err := catalog.LoadOrDefault(s.cfg.Catalog.Path)
	if err != nil {
		return nil, errors.WrapCatalogError(err, s.cfg.Catalog.Path)
	}
	s.cat = cat
	return cat, nil
}

func (s *settings) Close() {
	if s != nil && s.logger != nil {
		_ = s.logger.Close()
	}
}

func handleHelpArg(cmd *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return false
	}
	if strings.EqualFold(args[0], "help") {
		_ = cmd.Help()
		return true
	}
	return false
}

func missingFlagError(cmd *cobra.Command, flag string) error {
	_ = cmd.Help()
	return fmt.Errorf("required flag %s not set", flag)
}

// parseUint parses a hex ("0x0E") or decimal value that must fit in bits.
func parseUint(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

func parseUint16(s string) (uint16, error) {
	v, err := parseUint(s, 16)
	return uint16(v), err
}

// parseUint16List parses a comma separated id list such as "1,2,0x0D".
func parseUint16List(s string) ([]uint16, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint16, 0, len(parts))
	for _, p := range parts {
		v, err := parseUint16(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// parseSizes parses a comma separated list of byte widths.
func parseSizes(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
