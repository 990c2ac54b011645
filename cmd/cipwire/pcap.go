package main

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tturner/cipwire/internal/errors"
	"github.com/tturner/cipwire/internal/pcap"
)

type pcapDecodeFlags struct {
	input  string
	frames bool
	dump   bool
}

func newPcapDecodeCmd(opts *rootOptions) *cobra.Command {
	flags := &pcapDecodeFlags{}
	cmd := &cobra.Command{
		Use:   "pcap-decode",
		Short: "Decode Get_Attribute_List exchanges from a capture",
		Long: `Extract EtherNet/IP traffic from a pcap or pcapng file, pair requests with
their replies and decode every Get_Attribute_List exchange using the attribute
catalog for value widths.

TCP segments are reassembled per stream before frames are split. Exchanges
whose attribute sizes are not cataloged are reported and skipped.`,
		Example: `  cipwire pcap-decode --input capture.pcap
  cipwire pcap-decode --input capture.pcapng --frames --dump`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.input == "" {
				return missingFlagError(cmd, "--input")
			}
			s, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			return runPcapDecode(cmd.OutOrStdout(), s, flags)
		},
	}
	cmd.Flags().StringVar(&flags.input, "input", "", "Input pcap or pcapng file (required)")
	cmd.Flags().BoolVar(&flags.frames, "frames", false, "List every ENIP frame before decoding")
	cmd.Flags().BoolVar(&flags.dump, "dump", false, "Hex dump frames listed by --frames")
	return cmd
}

func runPcapDecode(out io.Writer, s *settings, flags *pcapDecodeFlags) error {
	cat, err := s.Catalog()
	if err != nil {
		return err
	}
	packets, err := pcap.ExtractENIP(flags.input)
	if err != nil {
		return errors.WrapDecodeError(err, flags.input)
	}
	s.logger.Verbose("Extracted %d ENIP frames from %s", len(packets), flags.input)

	if flags.frames {
		fmt.Fprintln(out, s.styles.title.Render("Frames"))
		for i, pkt := range packets {
			fmt.Fprintf(out, "  %4d %s %s -> %s %s\n", i+1,
				pkt.Timestamp.Format("15:04:05.000000"),
				endpoint(pkt.SrcIP, pkt.SrcPort), endpoint(pkt.DstIP, pkt.DstPort),
				pkt.Description)
			if flags.dump {
				fmt.Fprintln(out, pcap.FormatFrame(pkt.FullPacket, s.cfg.Output.HexWidth))
			}
		}
		fmt.Fprintln(out)
	}

	exchanges := pcap.PairExchanges(packets)
	results := pcap.DecodeAttributeLists(exchanges, cat)
	fmt.Fprintf(out, "%s %d frames, %d exchanges, %d attribute list replies\n",
		s.styles.title.Render("Summary:"), len(packets), len(exchanges), len(results))

	var failed int
	for i, res := range results {
		req := res.Exchange.Request
		fmt.Fprintf(out, "\n%s %s -> %s class 0x%02X instance %d\n",
			s.styles.label.Render(fmt.Sprintf("#%d", i+1)),
			endpoint(req.SrcIP, req.SrcPort), endpoint(req.DstIP, req.DstPort),
			res.Path.Class, res.Path.Instance)
		if res.Err != nil {
			failed++
			s.logger.LogOutcome("Get_Attribute_List", 0, "DECODE-ERROR", 0, res.Err)
			fmt.Fprintf(out, "%s %v\n", s.styles.fail.Render("ERROR"), res.Err)
			continue
		}
		status := uint8(0)
		if res.Outcome.Status != nil {
			status = uint8(res.Outcome.Status.General)
		}
		s.logger.LogOutcome("Get_Attribute_List", 0, res.Outcome.Verdict.String(), status, nil)
		renderOutcome(out, s.styles, "Get_Attribute_List", res.Outcome)
		if res.Outcome.Err() == nil {
			cls, _ := cat.Class(res.Path.Class)
			renderAttributes(out, s.styles, res.Outcome.Value, cls)
		}
	}
	if failed > 0 {
		s.logger.Info("%d of %d exchanges could not be decoded", failed, len(results))
	}
	return nil
}

func endpoint(ip string, port uint16) string {
	if ip == "" {
		return "?"
	}
	return net.JoinHostPort(ip, strconv.Itoa(int(port)))
}
