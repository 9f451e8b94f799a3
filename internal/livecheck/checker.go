package livecheck

import (
	"context"

	"github.com/otelconv/weaver/internal/registry"
)

// Mode selects stream vs. report evaluation, per spec.md §4.7.
type Mode string

const (
	// ModeStream runs each sample through all advisors and emits its result
	// immediately; stats update in place.
	ModeStream Mode = "stream"
	// ModeReport buffers every sample; at end-of-stream, stats are
	// finalized and a full report emitted. Sample order is preserved.
	ModeReport Mode = "report"
)

// SampleResult is one sample's classification plus the findings every
// advisor produced for it.
type SampleResult struct {
	Sample   *Sample
	Findings []Finding
}

// LiveChecker holds the frozen session state spec.md §4.7 describes:
// registry, advisors, and optional OTLP emitter. Advisors are owned
// exclusively by the checker.
type LiveChecker struct {
	schema   *registry.ResolvedRegistry
	index    *attributeIndex
	advisors []Advisor
	stats    Stats
	emitter  Emitter
}

// Emitter optionally streams findings out as OTLP log records, per spec.md
// §4.7's "OTLP emission (optional)" paragraph.
type Emitter interface {
	Emit(ctx context.Context, result SampleResult) error
	Shutdown(ctx context.Context) error
}

// Option configures a LiveChecker.
type Option func(*LiveChecker)

// WithAdvisors overrides the default advisor pipeline.
func WithAdvisors(advisors ...Advisor) Option {
	return func(lc *LiveChecker) { lc.advisors = advisors }
}

// WithStats selects Cumulative or Disabled statistics tracking. Defaults to
// a fresh Cumulative over schema.
func WithStats(stats Stats) Option {
	return func(lc *LiveChecker) { lc.stats = stats }
}

// WithEmitter attaches an optional OTLP emitter.
func WithEmitter(e Emitter) Option {
	return func(lc *LiveChecker) { lc.emitter = e }
}

// NewLiveChecker builds a checker bound to schema, with the default
// built-in advisor pipeline (Deprecated, Stability, Type, Enum, Correctness)
// unless overridden via WithAdvisors.
func NewLiveChecker(schema *registry.ResolvedRegistry, opts ...Option) *LiveChecker {
	lc := &LiveChecker{
		schema:   schema,
		index:    buildAttributeIndex(schema),
		advisors: []Advisor{DeprecatedAdvisor{}, StabilityAdvisor{}, TypeAdvisor{}, EnumAdvisor{}, CorrectnessAdvisor{}},
		stats:    NewCumulative(schema),
	}
	for _, o := range opts {
		o(lc)
	}
	return lc
}

// Check classifies one sample and runs it through the advisor pipeline,
// recording entity/attribute coverage along the way.
func (lc *LiveChecker) Check(ctx context.Context, s *Sample) SampleResult {
	lc.stats.IncEntityCount(s.Kind)

	group := MatchGroup(lc.schema, s.GroupName)
	if group == nil && s.MetricName != "" {
		group = MatchMetric(lc.schema, s.MetricName)
	}

	var matchedAttr *registry.ResolvedAttribute
	var attrMatch AttributeMatch
	switch s.Kind {
	case SampleAttribute:
		attrMatch = lc.index.MatchAttribute(s.AttributeName)
		matchedAttr = attrMatch.Attribute
		if cum, ok := lc.stats.(*Cumulative); ok {
			switch attrMatch.Class {
			case MatchRegistered, MatchTemplate:
				if attrMatch.Attribute != nil {
					cum.MarkAttributeSeen(attrMatch.Attribute.ID)
				}
			}
		}
	default:
		for name := range s.Attributes {
			m := lc.index.MatchAttribute(name)
			if cum, ok := lc.stats.(*Cumulative); ok && m.Attribute != nil {
				cum.MarkAttributeSeen(m.Attribute.ID)
			}
		}
	}
	if s.MetricName != "" {
		if cum, ok := lc.stats.(*Cumulative); ok {
			cum.MarkMetricSeen(s.MetricName)
		}
	}

	var findings []Finding
	for _, advisor := range lc.advisors {
		findings = append(findings, advisor.Advise(ctx, s, matchedAttr, group)...)
	}
	if s.Kind == SampleAttribute {
		switch attrMatch.Class {
		case MatchMissing:
			findings = append(findings, Finding{AdviceType: AdviceMissingAttribute, Level: LevelViolation,
				Message: "attribute " + s.AttributeName + " is not declared in the registry"})
		case MatchTemplate:
			findings = append(findings, Finding{AdviceType: AdviceTemplateAttribute, Level: LevelInfo,
				Message: "attribute " + s.AttributeName + " matched template " + attrMatch.TemplatePrefix})
		}
	}

	lc.stats.MaybeAddResult(findings)
	result := SampleResult{Sample: s, Findings: findings}
	if lc.emitter != nil {
		_ = lc.emitter.Emit(ctx, result)
	}
	return result
}

// RunStream runs every sample from samples through Check, returning each
// result as soon as it is produced (stream mode; input order preserved).
func (lc *LiveChecker) RunStream(ctx context.Context, samples <-chan *Sample) <-chan SampleResult {
	out := make(chan SampleResult)
	go func() {
		defer close(out)
		for s := range samples {
			out <- lc.Check(ctx, s)
		}
	}()
	return out
}

// RunReport buffers every sample from samples, runs Check on each, and
// returns the full ordered result set plus the finalized Report, per
// spec.md §4.7's report mode.
func (lc *LiveChecker) RunReport(ctx context.Context, samples []*Sample) ([]SampleResult, Report) {
	results := make([]SampleResult, 0, len(samples))
	for _, s := range samples {
		results = append(results, lc.Check(ctx, s))
	}
	return results, lc.stats.Finalize()
}

// Shutdown flushes the optional OTLP emitter, if one is attached.
func (lc *LiveChecker) Shutdown(ctx context.Context) error {
	if lc.emitter == nil {
		return nil
	}
	return lc.emitter.Shutdown(ctx)
}

// Finalize returns the checker's finalized statistics snapshot.
func (lc *LiveChecker) Finalize() Report { return lc.stats.Finalize() }
