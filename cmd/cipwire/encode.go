package main

import (
	"encoding/hex"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/tturner/cipwire/internal/cip/client"
	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/errors"
	"github.com/tturner/cipwire/internal/pcap"
)

type encodeFlags struct {
	class     string
	instance  string
	attribute string
	ids       string
	tag       string
	elements  uint16
	offset    uint32
	copy      bool
	mrOnly    bool
	dump      bool
}

func newEncodeCmd(opts *rootOptions) *cobra.Command {
	flags := &encodeFlags{}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a service request as hex",
		Long: `Encode a service request. By default the Message Router request is wrapped
in a Common Packet Format packet with a null address item and an unconnected
data item, ready to be carried in SendRRData.`,
	}
	cmd.PersistentFlags().BoolVar(&flags.copy, "copy", false, "Copy the hex to the clipboard")
	cmd.PersistentFlags().BoolVar(&flags.mrOnly, "mr", false, "Print only the Message Router request, without CPF framing")
	cmd.PersistentFlags().BoolVar(&flags.dump, "dump", false, "Also print a hex dump")

	cmd.AddCommand(newEncodeAttributeListCmd(opts, flags))
	cmd.AddCommand(newEncodeAttributeSingleCmd(opts, flags))
	cmd.AddCommand(newEncodeReadTagCmd(opts, flags))
	return cmd
}

func newEncodeAttributeListCmd(opts *rootOptions, flags *encodeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-attribute-list",
		Short: "Encode Get_Attribute_List (0x03)",
		Example: `  cipwire encode get-attribute-list --class 0x01 --instance 1 --ids 1,2,6
  cipwire encode get-attribute-list --class 0xF6 --ids 1,3 --mr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.class == "" {
				return missingFlagError(cmd, "--class")
			}
			if flags.ids == "" {
				return missingFlagError(cmd, "--ids")
			}
			s, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			path, err := logicalPath(flags.class, flags.instance, "")
			if err != nil {
				return err
			}
			ids, err := parseUint16List(flags.ids)
			if err != nil {
				return fmt.Errorf("--ids: %w", err)
			}
			// Request encoding never reads the size hints.
			svc, err := service.NewGetAttributeList(path, ids, make([]int, len(ids)))
			if err != nil {
				return errors.WrapDecodeError(err, "Get_Attribute_List")
			}
			return emitRequest[[]service.Attribute](cmd, s, svc, flags)
		},
	}
	cmd.Flags().StringVar(&flags.class, "class", "", "CIP class ID (hex or decimal, required)")
	cmd.Flags().StringVar(&flags.instance, "instance", "1", "CIP instance ID (hex or decimal)")
	cmd.Flags().StringVar(&flags.ids, "ids", "", "Comma separated attribute ids (required)")
	return cmd
}

func newEncodeAttributeSingleCmd(opts *rootOptions, flags *encodeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get-attribute-single",
		Short:   "Encode Get_Attribute_Single (0x0E)",
		Example: `  cipwire encode get-attribute-single --class 0x01 --instance 1 --attribute 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.class == "" {
				return missingFlagError(cmd, "--class")
			}
			if flags.attribute == "" {
				return missingFlagError(cmd, "--attribute")
			}
			s, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			path, err := logicalPath(flags.class, flags.instance, flags.attribute)
			if err != nil {
				return err
			}
			svc, err := service.NewGetAttributeSingle(path, 0)
			if err != nil {
				return errors.WrapDecodeError(err, "Get_Attribute_Single")
			}
			return emitRequest[[]byte](cmd, s, svc, flags)
		},
	}
	cmd.Flags().StringVar(&flags.class, "class", "", "CIP class ID (hex or decimal, required)")
	cmd.Flags().StringVar(&flags.instance, "instance", "1", "CIP instance ID (hex or decimal)")
	cmd.Flags().StringVar(&flags.attribute, "attribute", "", "CIP attribute ID (hex or decimal, required)")
	return cmd
}

func newEncodeReadTagCmd(opts *rootOptions, flags *encodeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "read-tag",
		Short:   "Encode Read_Tag_Fragmented (0x52)",
		Example: `  cipwire encode read-tag --tag Program:Main.Recipe --elements 10 --offset 480`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.tag == "" {
				return missingFlagError(cmd, "--tag")
			}
			s, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			path, err := protocol.SymbolicPath(flags.tag)
			if err != nil {
				return fmt.Errorf("--tag: %w", err)
			}
			svc, err := service.NewReadTagFragmented(path, flags.elements, flags.offset)
			if err != nil {
				return errors.WrapDecodeError(err, "Read_Tag_Fragmented")
			}
			return emitRequest[service.TagData](cmd, s, svc, flags)
		},
	}
	cmd.Flags().StringVar(&flags.tag, "tag", "", "Tag name, dotted members allowed (required)")
	cmd.Flags().Uint16Var(&flags.elements, "elements", 1, "Element count")
	cmd.Flags().Uint32Var(&flags.offset, "offset", 0, "Byte offset to start from")
	return cmd
}

func emitRequest[T any](cmd *cobra.Command, s *settings, svc service.Service[T], flags *encodeFlags) error {
	var data []byte
	if flags.mrOnly {
		w := codec.NewWriter(32)
		if err := service.Encode(w, svc); err != nil {
			return errors.WrapDecodeError(err, "request")
		}
		data = w.Bytes()
	} else {
		framed, err := client.Frame(svc)
		if err != nil {
			return errors.WrapDecodeError(err, "request")
		}
		data = framed
	}

	out := cmd.OutOrStdout()
	encoded := hex.EncodeToString(data)
	fmt.Fprintln(out, encoded)
	if flags.dump {
		fmt.Fprint(out, pcap.HexDump(data, s.cfg.Output.HexWidth))
	}
	s.logger.LogHex("encoded request", data)
	if flags.copy {
		if err := clipboard.WriteAll(encoded); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), s.styles.dim.Render("copied to clipboard"))
	}
	return nil
}

// logicalPath builds a padded class/instance[/attribute] path from flag
// values.
func logicalPath(class, instance, attribute string) ([]byte, error) {
	var p protocol.LogicalPath
	var err error
	if p.Class, err = parseUint16(class); err != nil {
		return nil, fmt.Errorf("--class: %w", err)
	}
	if instance == "" {
		instance = "1"
	}
	if p.Instance, err = parseUint16(instance); err != nil {
		return nil, fmt.Errorf("--instance: %w", err)
	}
	if attribute != "" {
		if p.Attribute, err = parseUint16(attribute); err != nil {
			return nil, fmt.Errorf("--attribute: %w", err)
		}
		p.HasAttribute = true
	}
	return p.Encode(), nil
}
