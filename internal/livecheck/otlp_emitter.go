package livecheck

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// OTLPEmitter emits Findings as OTel log records, per spec.md §4.7's
// optional OTLP emission. Grounded directly on cmd/motel/main.go's
// createLogProviders/createLogExporter: one LoggerProvider over a shared
// exporter and processor, Shutdown flushing buffered records.
type OTLPEmitter struct {
	provider *sdklog.LoggerProvider
	logger   log.Logger
}

// NewOTLPEmitter wraps an already-constructed exporter in a batch processor
// and logger provider, exactly as cmd/motel/main.go does for synthetic
// signals, but with "weaver-live-check" as the instrumentation scope name.
func NewOTLPEmitter(exporter sdklog.Exporter) *OTLPEmitter {
	processor := sdklog.NewBatchProcessor(exporter)
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
	return &OTLPEmitter{provider: provider, logger: provider.Logger("weaver-live-check")}
}

// Emit encodes result as a single structured log record per finding.
func (e *OTLPEmitter) Emit(ctx context.Context, result SampleResult) error {
	for _, f := range result.Findings {
		var rec log.Record
		rec.SetBody(log.StringValue(f.Message))
		rec.SetSeverityText(string(f.Level))
		rec.AddAttributes(
			log.String("advice_type", string(f.AdviceType)),
			log.String("level", string(f.Level)),
		)
		if f.Value != nil {
			if raw, err := json.Marshal(f.Value); err == nil {
				rec.AddAttributes(log.String("value", string(raw)))
			}
		}
		e.logger.Emit(ctx, rec)
	}
	return nil
}

// Shutdown flushes buffered records, per spec.md §4.7's "shutdown() must
// flush buffered records".
func (e *OTLPEmitter) Shutdown(ctx context.Context) error {
	if err := e.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down otlp emitter: %w", err)
	}
	return nil
}
