package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/cipwire/internal/metrics"
)

func newStatsCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "Summarize a calls CSV written by read --metrics-csv",
		Example: "  cipwire stats --input calls.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if input == "" {
				return missingFlagError(cmd, "--input")
			}
			calls, first, last, err := metrics.ReadCallsCSV(input)
			if err != nil {
				return err
			}
			sink := metrics.NewSink()
			for _, c := range calls {
				sink.Record(c)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s to %s (%s)\n", first.Format(time.RFC3339), last.Format(time.RFC3339), last.Sub(first).Round(time.Millisecond))
			fmt.Fprint(out, metrics.FormatSummary(sink.Summary()))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Calls CSV file (required)")
	return cmd
}
