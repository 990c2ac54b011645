package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tturner/cipwire/internal/config"
	"github.com/tturner/cipwire/internal/errors"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the cipwire configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigValidateCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force, interactive bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file to the --config path. An existing file
is left alone unless --force is given. With --interactive the adapter, logging
and output settings are asked for first.`,
		Example: `  cipwire config init --config lab.yaml
  cipwire config init --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", opts.configPath)
			}
			if interactive {
				cfg := config.CreateDefaultConfig()
				values := newConfigFormValues(cfg)
				if err := buildConfigForm(values).Run(); err != nil {
					return err
				}
				if err := values.apply(cfg); err != nil {
					return errors.WrapConfigError(err, opts.configPath)
				}
				if err := config.WriteConfig(opts.configPath, cfg); err != nil {
					return errors.WrapConfigError(err, opts.configPath)
				}
			} else if err := config.WriteDefaultConfig(opts.configPath); err != nil {
				return errors.WrapConfigError(err, opts.configPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", opts.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill in the adapter and output settings with a form")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and flag overrides are applied, in
the same YAML layout the file uses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			data, err := yaml.Marshal(s.cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath, false)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d targets)\n", opts.configPath, len(cfg.Targets))
			return nil
		},
	}
}
