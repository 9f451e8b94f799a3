package livecheck

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/otelconv/weaver/internal/policy"
	"github.com/otelconv/weaver/internal/registry"
)

// Advisor is a small polymorphic capability, per spec.md §4.7: given a
// sample and its match results, produce zero or more Findings.
type Advisor interface {
	Advise(ctx context.Context, s *Sample, attr *registry.ResolvedAttribute, group *registry.ResolvedGroupSchema) []Finding
}

// DeprecatedAdvisor emits a violation when the matched attribute or group is
// deprecated.
type DeprecatedAdvisor struct{}

func (DeprecatedAdvisor) Advise(_ context.Context, _ *Sample, attr *registry.ResolvedAttribute, group *registry.ResolvedGroupSchema) []Finding {
	var out []Finding
	if attr != nil && attr.Deprecated != nil {
		out = append(out, Finding{AdviceType: AdviceDeprecated, Level: LevelViolation,
			Message: fmt.Sprintf("attribute %q is deprecated", attr.ID), Value: attr.Deprecated})
	}
	if group != nil && group.Deprecated != nil {
		out = append(out, Finding{AdviceType: AdviceDeprecated, Level: LevelViolation,
			Message: fmt.Sprintf("group %q is deprecated", group.ID), Value: group.Deprecated})
	}
	return out
}

// StabilityAdvisor emits improvement advice when stability is not "stable".
type StabilityAdvisor struct{}

func (StabilityAdvisor) Advise(_ context.Context, _ *Sample, attr *registry.ResolvedAttribute, _ *registry.ResolvedGroupSchema) []Finding {
	if attr == nil || attr.Stability == "" || attr.Stability == "stable" {
		return nil
	}
	return []Finding{{AdviceType: AdviceStability, Level: LevelImprovement,
		Message: fmt.Sprintf("attribute %q has stability %q", attr.ID, attr.Stability)}}
}

// TypeAdvisor emits a violation when the sample's value type doesn't match
// the registry type. Template types are expanded to their primitive
// equivalent; enums accept string or int only, per spec.md §4.7.
type TypeAdvisor struct{}

func (TypeAdvisor) Advise(_ context.Context, s *Sample, attr *registry.ResolvedAttribute, _ *registry.ResolvedGroupSchema) []Finding {
	if attr == nil || s.Kind != SampleAttribute {
		return nil
	}
	want := effectivePrimitiveType(attr)
	got := jsonValueType(s.AttributeValue)
	if want == "" || got == "" || want == got {
		return nil
	}
	if f, ok := s.AttributeValue.(float64); ok && want == "int" && f == math.Trunc(f) {
		return nil
	}
	if attr.Type.IsEnum() && (got == "string" || got == "int") {
		return nil
	}
	return []Finding{{AdviceType: AdviceTypeMismatch, Level: LevelViolation,
		Message: fmt.Sprintf("attribute %q expects type %q, sample has %q", attr.ID, want, got)}}
}

func effectivePrimitiveType(attr *registry.ResolvedAttribute) string {
	t := attr.Type
	if t.IsEnum() {
		return "enum"
	}
	if t.IsTemplate() {
		v := t.Value
		v = strings.TrimPrefix(v, "template[")
		v = strings.TrimSuffix(v, "]")
		return v
	}
	return t.Value
}

func jsonValueType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "double"
	case int, int64:
		return "int"
	case []any:
		return "array"
	case nil:
		return ""
	default:
		return ""
	}
}

// EnumAdvisor emits an informational finding when an enum attribute's
// sample value isn't one of its declared members.
type EnumAdvisor struct{}

func (EnumAdvisor) Advise(_ context.Context, s *Sample, attr *registry.ResolvedAttribute, _ *registry.ResolvedGroupSchema) []Finding {
	if attr == nil || !attr.Type.IsEnum() || s.Kind != SampleAttribute {
		return nil
	}
	for _, m := range attr.Type.Members {
		if m.Value == s.AttributeValue {
			return nil
		}
		if fmt.Sprint(m.Value) == fmt.Sprint(s.AttributeValue) {
			return nil
		}
	}
	return []Finding{{AdviceType: AdviceUndefinedEnumVariant, Level: LevelInfo,
		Message: fmt.Sprintf("value %v is not a declared member of enum %q", s.AttributeValue, attr.ID)}}
}

// CorrectnessAdvisor folds in weaver_health's attribute_advice/
// attribute_health checks (casing, stability-vs-deprecation consistency,
// namespace-prefix hygiene), per SPEC_FULL.md's supplemented-features
// section.
type CorrectnessAdvisor struct{}

func (CorrectnessAdvisor) Advise(_ context.Context, _ *Sample, attr *registry.ResolvedAttribute, _ *registry.ResolvedGroupSchema) []Finding {
	if attr == nil {
		return nil
	}
	var out []Finding
	if attr.ID != strings.ToLower(attr.ID) {
		out = append(out, Finding{AdviceType: AdviceCorrectness, Level: LevelImprovement,
			Message: fmt.Sprintf("attribute id %q is not lowercase", attr.ID)})
	}
	if attr.Stability == "stable" && attr.Deprecated != nil {
		out = append(out, Finding{AdviceType: AdviceCorrectness, Level: LevelViolation,
			Message: fmt.Sprintf("attribute %q is marked stable but also deprecated", attr.ID)})
	}
	if strings.Contains(attr.ID, "..") || strings.HasPrefix(attr.ID, ".") || strings.HasSuffix(attr.ID, ".") {
		out = append(out, Finding{AdviceType: AdviceCorrectness, Level: LevelImprovement,
			Message: fmt.Sprintf("attribute %q has malformed namespace segments", attr.ID)})
	}
	for _, r := range attr.ID {
		if unicode.IsSpace(r) {
			out = append(out, Finding{AdviceType: AdviceCorrectness, Level: LevelImprovement,
				Message: fmt.Sprintf("attribute %q contains whitespace", attr.ID)})
			break
		}
	}
	return out
}

// RegoAdvisor dispatches the sample to the policy engine's LiveCheckAdvice
// stage, passing the value given to NewRegoAdvisor as the stage's data
// channel. The advisor applies no JQ filter or other preprocessing itself.
type RegoAdvisor struct {
	engine       *policy.Engine
	preprocessed any
}

// NewRegoAdvisor builds a RegoAdvisor bound to engine, attaching preprocessed
// as the stage's data channel (typically the resolved registry, optionally
// pre-filtered via a JQ expression before being passed in).
func NewRegoAdvisor(engine *policy.Engine, preprocessed any) *RegoAdvisor {
	return &RegoAdvisor{engine: engine, preprocessed: preprocessed}
}

func (r *RegoAdvisor) Advise(ctx context.Context, s *Sample, _ *registry.ResolvedAttribute, _ *registry.ResolvedGroupSchema) []Finding {
	result := r.engine.Evaluate(ctx, policy.StageLiveCheckAdvice, s, r.preprocessed)
	violations, _ := result.Unwrap()
	out := make([]Finding, 0, len(violations))
	for _, v := range violations {
		level := LevelViolation
		if v.Type == policy.ViolationAdvice {
			level = LevelInfo
		}
		if v.Level != "" {
			level = Level(v.Level)
		}
		out = append(out, Finding{AdviceType: AdviceRego, Level: level, Message: v.Message, Value: v.Value})
	}
	return out
}
