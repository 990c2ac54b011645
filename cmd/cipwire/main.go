package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	catalog    string
	logLevel   string
	logFile    string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "cipwire",
		Short: "CIP explicit messaging codec and inspection tool",
		Long: `cipwire encodes and decodes CIP explicit messages: Common Packet Format
items, Message Router requests and replies, and the attribute services that
ride on them. It can read attributes from a live EtherNet/IP device and decode
attribute list exchanges from packet captures.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "Config file path")
	rootCmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "Attribute catalog YAML (overrides catalog.path)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: silent, error, info, verbose, debug (overrides logging.level)")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Log file path (overrides logging.file)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable styled output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newEncodeCmd(opts))
	rootCmd.AddCommand(newDecodeCmd(opts))
	rootCmd.AddCommand(newReadCmd(opts))
	rootCmd.AddCommand(newPcapDecodeCmd(opts))
	rootCmd.AddCommand(newCatalogCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newStatsCmd())

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			defaultHelp(cmd, args)
			return
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Usage:\n  %s <command> [arguments] [options]\n\n", cmd.Name())
		fmt.Fprintf(out, "Available Commands:\n")
		for _, subCmd := range cmd.Commands() {
			if !subCmd.Hidden && subCmd.Name() != "completion" && subCmd.Name() != "help" {
				fmt.Fprintf(out, "  %-15s %s\n", subCmd.Name(), subCmd.Short)
			}
		}
		fmt.Fprintf(out, "\nUse \"%s help <command>\" for more information about a command.\n", cmd.Name())
	})

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
