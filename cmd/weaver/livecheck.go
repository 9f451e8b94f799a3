package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/otelconv/weaver/internal/livecheck"
	"github.com/otelconv/weaver/internal/policy"
	"github.com/otelconv/weaver/internal/registry"
)

// liveCheckCmd streams sample telemetry from stdin through a LiveChecker
// bound to a resolved registry, per spec.md §4.7.
func liveCheckCmd() *cobra.Command {
	var (
		mode       string
		policyPath string
		otlp       bool
		protocol   string
		endpoint   string
		stdout     bool
	)

	cmd := &cobra.Command{
		Use:   "live-check <registry-path>",
		Short: "Validate line-delimited JSON samples from stdin against a resolved registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, err := resolveRegistry(ctx, args[0])
			if err != nil {
				return err
			}
			schema := registry.Denormalize(reg)

			opts := []livecheck.Option{}

			if policyPath != "" {
				policies, err := policy.LoadPath(policyPath)
				if err != nil {
					return fmt.Errorf("loading policies: %w", err)
				}
				engine := policy.New(policies)
				advisors := []livecheck.Advisor{
					livecheck.DeprecatedAdvisor{}, livecheck.StabilityAdvisor{},
					livecheck.TypeAdvisor{}, livecheck.EnumAdvisor{}, livecheck.CorrectnessAdvisor{},
					livecheck.NewRegoAdvisor(engine, schema),
				}
				opts = append(opts, livecheck.WithAdvisors(advisors...))
			}

			var emitter livecheck.Emitter
			if otlp {
				exporter, err := newLogExporter(ctx, protocol, endpoint, stdout)
				if err != nil {
					return fmt.Errorf("building otlp log exporter: %w", err)
				}
				e := livecheck.NewOTLPEmitter(exporter)
				emitter = e
				opts = append(opts, livecheck.WithEmitter(e))
			}

			checker := livecheck.NewLiveChecker(schema, opts...)
			defer func() {
				if emitter != nil {
					_ = checker.Shutdown(ctx)
				}
			}()

			ingester := livecheck.NewTextStdinIngester(os.Stdin)
			samples, errs := ingester.Ingest(ctx)

			w := cmd.OutOrStdout()
			var violations int

			if mode == string(livecheck.ModeReport) {
				var buffered []*livecheck.Sample
				for s := range samples {
					buffered = append(buffered, s)
				}
				if err := drainErrs(errs); err != nil {
					fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				}
				results, report := checker.RunReport(ctx, buffered)
				for _, r := range results {
					violations += printFindings(w, r)
				}
				printLiveCheckReport(w, report)
			} else {
				for result := range checker.RunStream(ctx, samples) {
					violations += printFindings(w, result)
				}
				if err := drainErrs(errs); err != nil {
					fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				}
				printLiveCheckReport(w, checker.Finalize())
			}

			if violations > 0 {
				return &policyThresholdError{violations: violations}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(livecheck.ModeStream), "stream or report")
	cmd.Flags().StringVar(&policyPath, "policy", "", "directory (or single file) of .rego policies for the live_check_advice stage")
	cmd.Flags().BoolVar(&otlp, "otlp", false, "additionally emit findings as OTLP log records")
	cmd.Flags().StringVar(&protocol, "otlp-protocol", "http/protobuf", "grpc or http/protobuf")
	cmd.Flags().StringVar(&endpoint, "otlp-endpoint", "", "OTLP log collector endpoint (default SDK auto-detect)")
	cmd.Flags().BoolVar(&stdout, "otlp-stdout", false, "emit OTLP log records to stdout instead of a network exporter")

	return cmd
}

func drainErrs(errs <-chan error) error {
	var last error
	for err := range errs {
		last = err
	}
	return last
}

func printFindings(w io.Writer, result livecheck.SampleResult) int {
	violations := 0
	for _, f := range result.Findings {
		fmt.Fprintf(w, "[%s] %s: %s\n", f.Level, f.AdviceType, f.Message)
		if f.Level == livecheck.LevelViolation {
			violations++
		}
	}
	return violations
}

func printLiveCheckReport(w io.Writer, report livecheck.Report) {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(w, string(raw))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Advice type", "Count"})
	for k, v := range report.AdviceTypeCounts {
		t.AppendRow(table.Row{k, v})
	}
	t.Render()
}

func newLogExporter(ctx context.Context, protocol, endpoint string, useStdout bool) (sdklog.Exporter, error) {
	if useStdout {
		return stdoutlog.New(stdoutlog.WithWriter(os.Stdout))
	}
	switch protocol {
	case "grpc":
		var grpcOpts []otlploggrpc.Option
		if endpoint != "" {
			grpcOpts = append(grpcOpts, otlploggrpc.WithEndpoint(endpoint), otlploggrpc.WithInsecure())
		}
		return otlploggrpc.New(ctx, grpcOpts...)
	case "http/protobuf", "":
		var httpOpts []otlploghttp.Option
		if endpoint != "" {
			httpOpts = append(httpOpts, otlploghttp.WithEndpoint(endpoint), otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, httpOpts...)
	default:
		return nil, fmt.Errorf("unsupported protocol %q for logs", protocol)
	}
}
