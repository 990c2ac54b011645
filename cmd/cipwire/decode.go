package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tturner/cipwire/internal/cip/catalog"
	"github.com/tturner/cipwire/internal/cip/client"
	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/cip/spec"
	"github.com/tturner/cipwire/internal/errors"
)

type decodeFlags struct {
	service  string
	class    string
	instance string
	ids      string
	sizes    string
	size     int
	cpf      bool
}

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	flags := &decodeFlags{}
	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a Message Router reply",
		Long: `Decode a Message Router reply given as hex and print its verdict: complete,
needs-more (partial transfer on a fragmented service) or failed, with the
general and additional status words.

Get_Attribute_List replies do not describe their own value widths. Give the
widths with --sizes, or name the class with --class to take them from the
attribute catalog.`,
		Example: `  cipwire decode --service 0x03 --ids 1,2 --sizes 2,2 830000000200010000000100020000000c00
  cipwire decode --service 0x03 --class 0x01 --ids 1,6 --cpf 020000000000b2001200...
  cipwire decode --service 0x52 d2000600c4000100000002000000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.service == "" {
				return missingFlagError(cmd, "--service")
			}
			if len(args) == 0 {
				return fmt.Errorf("reply hex argument required")
			}
			s, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			return runDecode(cmd.OutOrStdout(), s, flags, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.service, "service", "", "Request service code the reply answers (required)")
	cmd.Flags().StringVar(&flags.class, "class", "", "Class the request addressed (catalog size hints and names)")
	cmd.Flags().StringVar(&flags.instance, "instance", "1", "Instance the request addressed")
	cmd.Flags().StringVar(&flags.ids, "ids", "", "Requested attribute ids, in request order")
	cmd.Flags().StringVar(&flags.sizes, "sizes", "", "Attribute value widths in bytes, one per id")
	cmd.Flags().IntVar(&flags.size, "size", 0, "Expected value width for Get_Attribute_Single")
	cmd.Flags().BoolVar(&flags.cpf, "cpf", false, "Input is a CPF packet rather than a bare Message Router reply")
	return cmd
}

func runDecode(out io.Writer, s *settings, flags *decodeFlags, input string) error {
	code, err := parseUint(flags.service, 8)
	if err != nil {
		return fmt.Errorf("--service: %w", err)
	}
	svcCode := protocol.ServiceCode(code).Base()
	if !spec.IsKnownService(svcCode) {
		return fmt.Errorf("0x%02X is not a CIP service code; supported: %s", uint8(svcCode), supportedServices())
	}
	info, ok := service.Lookup(svcCode)
	if !ok {
		return fmt.Errorf("service 0x%02X (%s) is not supported; supported: %s", uint8(svcCode), spec.ServiceName(svcCode), supportedServices())
	}

	raw, err := parseHex(input)
	if err != nil {
		return err
	}
	s.logger.LogHex("reply", raw)
	var body *codec.Buffer
	if flags.cpf {
		if body, err = client.Unframe(raw); err != nil {
			return errors.WrapDecodeError(err, info.Name+" reply")
		}
	} else {
		body = codec.CopyBuffer(raw)
	}

	class := uint16(0)
	if flags.class != "" {
		if class, err = parseUint16(flags.class); err != nil {
			return fmt.Errorf("--class: %w", err)
		}
	}
	instance, err := parseUint16(flags.instance)
	if err != nil {
		return fmt.Errorf("--instance: %w", err)
	}
	path := protocol.LogicalPath{Class: class, Instance: instance}.Encode()

	switch svcCode {
	case spec.CIPServiceGetAttributeList:
		ids, err := parseUint16List(flags.ids)
		if err != nil {
			return fmt.Errorf("--ids: %w", err)
		}
		if len(ids) == 0 {
			return fmt.Errorf("--ids is required for %s", info.Name)
		}
		sizes, cls, err := sizeHints(s, flags, class, ids)
		if err != nil {
			return err
		}
		svc, err := service.NewGetAttributeList(path, ids, sizes)
		if err != nil {
			return errors.WrapDecodeError(err, info.Name)
		}
		return decodeAndRender(out, s, info, svc, body, func(v []service.Attribute) {
			renderAttributes(out, s.styles, v, cls)
		})
	case spec.CIPServiceSetAttributeList:
		ids, err := parseUint16List(flags.ids)
		if err != nil {
			return fmt.Errorf("--ids: %w", err)
		}
		values := make([]service.AttributeValue, len(ids))
		for i, id := range ids {
			values[i] = service.AttributeValue{ID: id}
		}
		svc, err := service.NewSetAttributeList(path, values)
		if err != nil {
			return errors.WrapDecodeError(err, info.Name)
		}
		return decodeAndRender(out, s, info, svc, body, func(v []service.Attribute) {
			renderAttributes(out, s.styles, v, nil)
		})
	case spec.CIPServiceGetAttributeSingle:
		svc, err := service.NewGetAttributeSingle(path, flags.size)
		if err != nil {
			return errors.WrapDecodeError(err, info.Name)
		}
		return decodeAndRender(out, s, info, svc, body, func(v []byte) {
			renderBytes(out, s.styles, "value:", v)
		})
	case spec.CIPServiceGetAttributeAll:
		return decodeAndRender(out, s, info, service.NewGetAttributesAll(path), body, func(v []byte) {
			renderBytes(out, s.styles, "data:", v)
		})
	case spec.CIPServiceSetAttributeSingle:
		svc, err := service.NewSetAttributeSingle(path, codec.EmptyBuffer())
		if err != nil {
			return errors.WrapDecodeError(err, info.Name)
		}
		return decodeAndRender(out, s, info, svc, body, func(struct{}) {})
	case spec.CIPServiceReadTagFragmented:
		svc, err := service.NewReadTagFragmented(path, 1, 0)
		if err != nil {
			return errors.WrapDecodeError(err, info.Name)
		}
		return decodeAndRender(out, s, info, svc, body, func(v service.TagData) {
			renderTagData(out, s.styles, v)
		})
	}
	return fmt.Errorf("service 0x%02X has no decoder", uint8(svcCode))
}

func decodeAndRender[T any](out io.Writer, s *settings, info service.Info, svc service.Service[T], body *codec.Buffer, render func(T)) error {
	outcome, err := service.DecodeReply(svc, body)
	if err != nil {
		s.logger.LogOutcome(info.Name, 0, service.Failed.String(), 0, err)
		return errors.WrapDecodeError(err, info.Name+" reply")
	}
	status := uint8(0)
	if outcome.Status != nil {
		status = uint8(outcome.Status.General)
	}
	s.logger.LogOutcome(info.Name, 0, outcome.Verdict.String(), status, nil)
	renderOutcome(out, s.styles, info.Name, outcome)
	if outcome.Verdict != service.Failed {
		render(outcome.Value)
	}
	return nil
}

// sizeHints resolves Get_Attribute_List widths from --sizes or the catalog.
func sizeHints(s *settings, flags *decodeFlags, class uint16, ids []uint16) ([]int, *catalog.Class, error) {
	var cls *catalog.Class
	if flags.class != "" {
		cat, err := s.Catalog()
		if err != nil {
			return nil, nil, err
		}
		cls, _ = cat.Class(class)
		if flags.sizes == "" {
			sizes, err := cat.SizeHints(class, ids)
			if err != nil {
				return nil, nil, errors.WrapCatalogError(err, s.cfg.Catalog.Path)
			}
			return sizes, cls, nil
		}
	}
	if flags.sizes == "" {
		return nil, nil, fmt.Errorf("attribute widths unknown: give --sizes or --class")
	}
	sizes, err := parseSizes(flags.sizes)
	if err != nil {
		return nil, nil, fmt.Errorf("--sizes: %w", err)
	}
	return sizes, cls, nil
}

// parseHex accepts hex with optional whitespace, colons or a 0x prefix.
func parseHex(input string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(strings.TrimSpace(input))
	cleaned = strings.TrimPrefix(strings.TrimPrefix(cleaned, "0x"), "0X")
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

func supportedServices() string {
	var names []string
	for _, info := range service.Implemented() {
		names = append(names, fmt.Sprintf("0x%02X %s", uint8(info.Code), info.Name))
	}
	return strings.Join(names, ", ")
}
