package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/cipwire/internal/cip/client"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/config"
	"github.com/tturner/cipwire/internal/errors"
	"github.com/tturner/cipwire/internal/metrics"
)

type readFlags struct {
	ip        string
	port      int
	timeout   time.Duration
	target    string
	class     string
	instance  string
	attribute string
	ids       string
	tag       string
	elements  uint16

	count       int
	interval    time.Duration
	metricsCSV  string
	metricsJSON string
}

func newReadCmd(opts *rootOptions) *cobra.Command {
	flags := &readFlags{}
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read attributes or a tag from a live device",
		Long: `Register an EtherNet/IP session with the device and perform one service
call over unconnected messaging. Fragmented tag reads are continued until the
device reports completion or client.max_fragments replies were received.

Name a target from the config file with --target, or describe the read with
--class/--instance and --ids (Get_Attribute_List), --attribute
(Get_Attribute_Single), neither (Get_Attributes_All), or --tag
(Read_Tag_Fragmented).`,
		Example: `  cipwire read --ip 10.0.0.50 --class 0x01 --ids 1,2,3,6
  cipwire read --ip 10.0.0.50 --tag Program:Main.Recipe --elements 100
  cipwire read --target IdentityBasics
  cipwire read --target SerialNumber --count 60 --interval 1s --metrics-csv calls.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			s, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ip := flags.ip
			if ip == "" {
				ip = s.cfg.Adapter.Address
			}
			if ip == "" {
				return missingFlagError(cmd, "--ip")
			}
			target, err := resolveTarget(s.cfg, flags)
			if err != nil {
				return err
			}
			port := s.cfg.Adapter.Port
			if cmd.Flags().Changed("port") {
				port = flags.port
			}
			timeout := time.Duration(s.cfg.Adapter.TimeoutMs) * time.Millisecond
			if cmd.Flags().Changed("timeout") {
				timeout = flags.timeout
			}
			poll := pollOptions{
				count:       flags.count,
				interval:    flags.interval,
				metricsCSV:  flags.metricsCSV,
				metricsJSON: flags.metricsJSON,
			}
			return runRead(cmd.Context(), cmd.OutOrStdout(), s, net.JoinHostPort(ip, strconv.Itoa(port)), timeout, target, poll)
		},
	}
	cmd.Flags().StringVar(&flags.ip, "ip", "", "Device IP address (default adapter.address)")
	cmd.Flags().IntVar(&flags.port, "port", client.DefaultPort, "EtherNet/IP TCP port")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 5*time.Second, "Per-exchange timeout")
	cmd.Flags().StringVar(&flags.target, "target", "", "Named target from the config file")
	cmd.Flags().StringVar(&flags.class, "class", "", "CIP class ID (hex or decimal)")
	cmd.Flags().StringVar(&flags.instance, "instance", "1", "CIP instance ID (hex or decimal)")
	cmd.Flags().StringVar(&flags.attribute, "attribute", "", "Attribute ID for Get_Attribute_Single")
	cmd.Flags().StringVar(&flags.ids, "ids", "", "Comma separated attribute ids for Get_Attribute_List")
	cmd.Flags().StringVar(&flags.tag, "tag", "", "Tag name for Read_Tag_Fragmented")
	cmd.Flags().Uint16Var(&flags.elements, "elements", 1, "Element count for --tag")
	cmd.Flags().IntVar(&flags.count, "count", 1, "Repeat the read this many times and print a summary")
	cmd.Flags().DurationVar(&flags.interval, "interval", time.Second, "Delay between repeated reads")
	cmd.Flags().StringVar(&flags.metricsCSV, "metrics-csv", "", "Write one CSV row per call")
	cmd.Flags().StringVar(&flags.metricsJSON, "metrics-json", "", "Write the calls as a JSON array")
	return cmd
}

// resolveTarget turns --target or the addressing flags into a config target.
func resolveTarget(cfg *config.Config, flags *readFlags) (config.CIPTarget, error) {
	if flags.target != "" {
		target, ok := cfg.Target(flags.target)
		if !ok {
			return target, fmt.Errorf("target %q not found in config", flags.target)
		}
		return target, nil
	}

	target := config.CIPTarget{Name: "command line"}
	if flags.tag != "" {
		target.Service = config.ServiceReadTag
		target.Tag = flags.tag
		target.Elements = flags.elements
		return target, nil
	}
	if flags.class == "" {
		return target, fmt.Errorf("one of --target, --tag or --class is required")
	}
	var err error
	if target.Class, err = parseUint16(flags.class); err != nil {
		return target, fmt.Errorf("--class: %w", err)
	}
	if target.Instance, err = parseUint16(flags.instance); err != nil {
		return target, fmt.Errorf("--instance: %w", err)
	}
	switch {
	case flags.ids != "":
		target.Service = config.ServiceGetAttributeList
		if target.Attributes, err = parseUint16List(flags.ids); err != nil {
			return target, fmt.Errorf("--ids: %w", err)
		}
	case flags.attribute != "":
		target.Service = config.ServiceGetAttributeSingle
		if target.Attribute, err = parseUint16(flags.attribute); err != nil {
			return target, fmt.Errorf("--attribute: %w", err)
		}
	default:
		target.Service = config.ServiceGetAttributesAll
	}
	return target, nil
}

// pollOptions repeat a read and record every call.
type pollOptions struct {
	count       int
	interval    time.Duration
	metricsCSV  string
	metricsJSON string
}

// callFunc performs one service call and renders it.
type callFunc func(ctx context.Context, rt client.RoundTripper) (metrics.Call, error)

func runRead(ctx context.Context, out io.Writer, s *settings, addr string, timeout time.Duration, target config.CIPTarget, poll pollOptions) error {
	call, err := buildCall(out, s, target)
	if err != nil {
		return err
	}

	var writer *metrics.Writer
	if poll.metricsCSV != "" || poll.metricsJSON != "" {
		if writer, err = metrics.NewWriter(poll.metricsCSV, poll.metricsJSON); err != nil {
			return err
		}
		defer writer.Close()
	}

	sess, err := client.Dial(ctx, addr, timeout)
	if err != nil {
		return err
	}
	defer sess.Close()
	s.logger.Verbose("Registered session 0x%08X with %s", sess.Handle(), addr)

	if poll.count < 1 {
		poll.count = 1
	}
	sink := metrics.NewSink()
	counter := &countingTransport{rt: sess}
	var lastErr error
	for i := 0; i < poll.count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(poll.interval):
			}
			fmt.Fprintln(out)
		}
		counter.replies = 0
		start := time.Now()
		rec, err := call(ctx, counter)
		rec.Timestamp = start
		rec.Target = target.Name
		rec.Fragments = counter.replies
		rec.RTTMs = float64(time.Since(start).Microseconds()) / 1000
		if err != nil && rec.Verdict == "" {
			rec.Error = oneLine(err)
		}
		sink.Record(rec)
		if writer != nil {
			if werr := writer.WriteCall(rec); werr != nil {
				return werr
			}
		}
		lastErr = err
	}

	if poll.count > 1 {
		fmt.Fprintf(out, "\n%s\n%s", s.styles.title.Render("Summary"), metrics.FormatSummary(sink.Summary()))
	}
	return lastErr
}

// buildCall resolves the service for target and binds its renderer.
func buildCall(out io.Writer, s *settings, target config.CIPTarget) (callFunc, error) {
	path := protocol.LogicalPath{Class: target.Class, Instance: target.Instance}

	switch target.Service {
	case config.ServiceGetAttributeList:
		cat, err := s.Catalog()
		if err != nil {
			return nil, err
		}
		sizes, err := cat.SizeHints(target.Class, target.Attributes)
		if err != nil {
			return nil, errors.WrapCatalogError(err, s.cfg.Catalog.Path)
		}
		cls, _ := cat.Class(target.Class)
		svc, err := service.NewGetAttributeList(path.Encode(), target.Attributes, sizes)
		if err != nil {
			return nil, errors.WrapDecodeError(err, target.Name)
		}
		return bindCall(out, s, svc, func(v []service.Attribute) {
			renderAttributes(out, s.styles, v, cls)
		}), nil
	case config.ServiceGetAttributeSingle:
		path.Attribute = target.Attribute
		path.HasAttribute = true
		size := 0
		if cat, err := s.Catalog(); err == nil {
			if sizes, err := cat.SizeHints(target.Class, []uint16{target.Attribute}); err == nil {
				size = sizes[0]
			}
		}
		svc, err := service.NewGetAttributeSingle(path.Encode(), size)
		if err != nil {
			return nil, errors.WrapDecodeError(err, target.Name)
		}
		return bindCall(out, s, svc, func(v []byte) {
			renderBytes(out, s.styles, "value:", v)
		}), nil
	case config.ServiceGetAttributesAll:
		return bindCall(out, s, service.NewGetAttributesAll(path.Encode()), func(v []byte) {
			renderBytes(out, s.styles, "data:", v)
		}), nil
	case config.ServiceReadTag:
		tagPath, err := protocol.SymbolicPath(target.Tag)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", target.Tag, err)
		}
		svc, err := service.NewReadTagFragmented(tagPath, target.Elements, 0)
		if err != nil {
			return nil, errors.WrapDecodeError(err, target.Name)
		}
		return bindCall(out, s, svc, func(v service.TagData) {
			renderTagData(out, s.styles, v)
		}), nil
	}
	return nil, fmt.Errorf("target %q: unsupported service %q", target.Name, target.Service)
}

func bindCall[T any](out io.Writer, s *settings, svc service.Service[T], render func(T)) callFunc {
	name := fmt.Sprintf("service 0x%02X", uint8(svc.Code()))
	if info, ok := service.Lookup(svc.Code()); ok {
		name = info.Name
	}
	opts := client.Options{MaxFragments: s.cfg.Client.MaxFragments, Logger: s.logger}

	return func(ctx context.Context, rt client.RoundTripper) (metrics.Call, error) {
		rec := metrics.Call{Service: name}
		value, err := client.Call(ctx, rt, svc, opts)
		var statusErr *protocol.StatusError
		if stderrors.As(err, &statusErr) {
			rec.Verdict = service.Failed.String()
			rec.Status = uint8(statusErr.General)
			renderOutcome(out, s.styles, name, service.Outcome[T]{Verdict: service.Failed, Status: statusErr})
			return rec, errors.WrapStatusError(statusErr, name)
		}
		var friendly errors.UserFriendlyError
		if stderrors.As(err, &friendly) {
			return rec, err
		}
		if err != nil {
			return rec, errors.WrapDecodeError(err, name)
		}
		rec.Verdict = service.Complete.String()
		renderOutcome(out, s.styles, name, service.Outcome[T]{Verdict: service.Complete, Value: value})
		render(value)
		return rec, nil
	}
}

// countingTransport counts the replies of one call.
type countingTransport struct {
	rt      client.RoundTripper
	replies int
}

func (c *countingTransport) RoundTrip(ctx context.Context, request []byte) ([]byte, error) {
	reply, err := c.rt.RoundTrip(ctx, request)
	if err == nil {
		c.replies++
	}
	return reply, err
}

func oneLine(err error) string {
	lines := strings.Split(err.Error(), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "; ")
}
