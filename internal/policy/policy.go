// Package policy wraps an embedded Rego engine (github.com/open-policy-agent/opa/rego)
// and enforces the four-stage evaluation discipline from spec.md §4.5: every
// stage sets input, optionally attaches a data channel, evaluates
// data.<stage>.deny, and decodes the resulting set into typed Violations.
// There is no teacher grounding for a policy engine (the pack carries none);
// opa/rego is the single real embeddable Rego implementation in the Go
// ecosystem, named directly in SPEC_FULL.md's domain-stack table.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/otelconv/weaver/internal/werror"
)

// Stage is one of the four evaluation points spec.md §4.5 defines. The
// string value is also the Rego package name the engine looks for a deny
// rule in (e.g. package before_resolution).
type Stage string

const (
	StageBeforeResolution         Stage = "before_resolution"
	StageAfterResolution          Stage = "after_resolution"
	StageComparisonAfterResolution Stage = "comparison_after_resolution"
	StageLiveCheckAdvice          Stage = "live_check_advice"
)

// ViolationKind tags a Violation as a hard policy failure or informational
// advice.
type ViolationKind string

const (
	ViolationPolicy ViolationKind = "policy"
	ViolationAdvice ViolationKind = "advice"
)

// Violation is the decoded form of one object in a stage's deny set.
type Violation struct {
	Type    ViolationKind `json:"type"`
	ID      string        `json:"id"`
	Message string        `json:"message"`
	Value   any           `json:"value,omitempty"`
	Level   string        `json:"level,omitempty"`
}

// Policy is one loaded Rego module: a file path (for diagnostics) and its
// source text.
type Policy struct {
	Path   string
	Source string
}

// Engine evaluates policies at each of the four stages. An Engine is
// cloneable (Clone) so parallel workers can each hold an independent copy
// sharing no mutable state, per spec.md §5's "policy engine is cloneable"
// requirement.
type Engine struct {
	policies []Policy
	coverage *CoverageReport
}

// New builds an Engine from a set of loaded Rego policies.
func New(policies []Policy) *Engine {
	return &Engine{policies: append([]Policy{}, policies...)}
}

// Clone returns an independent Engine sharing the same loaded policies but
// its own coverage tracking, so concurrent workers never contend on
// coverage bookkeeping.
func (e *Engine) Clone() *Engine {
	return &Engine{policies: e.policies}
}

// EnableCoverage turns on rule-firing tracking, per spec.md §4.5's "coverage
// mode" paragraph: diagnostic only, never changes evaluation semantics.
func (e *Engine) EnableCoverage() {
	if e.coverage == nil {
		e.coverage = NewCoverageReport()
	}
}

// Coverage returns the CoverageReport accumulated so far, or nil if
// coverage mode was never enabled.
func (e *Engine) Coverage() *CoverageReport { return e.coverage }

// Evaluate runs stage's deny rule against input, with an optional data
// channel (used by ComparisonAfterResolution for the baseline schema, and
// LiveCheckAdvice for the preprocessed registry). All accumulated
// violation-decoding and evaluation errors are collected into a single
// werror.Compound, matching spec.md §4.5's "multiple errors from one
// evaluation are accumulated".
func (e *Engine) Evaluate(ctx context.Context, stage Stage, input any, data any) werror.Result[[]Violation] {
	if len(e.policies) == 0 {
		return werror.Ok[[]Violation](nil)
	}

	opts := []func(*rego.Rego){
		rego.Query(fmt.Sprintf("data.%s.deny", stage)),
		rego.Input(input),
	}
	for _, p := range e.policies {
		opts = append(opts, rego.Module(p.Path, p.Source))
	}
	if data != nil {
		store, err := newInMemoryStore(data)
		if err != nil {
			return werror.FatalErr[[]Violation](werror.New(werror.KindPolicy, string(stage), fmt.Errorf("building data store: %w", err)))
		}
		opts = append(opts, rego.Store(store))
	}

	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return werror.FatalErr[[]Violation](werror.New(werror.KindPolicy, string(stage), fmt.Errorf("invalid policy file: %w", err)))
	}

	results, err := query.Eval(ctx)
	if err != nil {
		return werror.FatalErr[[]Violation](werror.New(werror.KindPolicy, string(stage), fmt.Errorf("policy evaluation: %w", err)))
	}

	nonFatal := &werror.Compound{}
	var violations []Violation
	for _, r := range results {
		for _, expr := range r.Expressions {
			items, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, item := range items {
				v, err := decodeViolation(item)
				if err != nil {
					nonFatal.Add(werror.New(werror.KindPolicy, string(stage), err))
					continue
				}
				violations = append(violations, v)
				if e.coverage != nil {
					e.coverage.RecordFired(stage, v.ID)
				}
			}
		}
	}

	if nonFatal.Len() > 0 {
		return werror.OkWithNonFatals(violations, nonFatal)
	}
	return werror.Ok(violations)
}

func decodeViolation(raw any) (Violation, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Violation{}, fmt.Errorf("violation object is not a map: %#v", raw)
	}
	v := Violation{}
	if t, ok := m["type"].(string); ok {
		v.Type = ViolationKind(t)
	} else {
		return Violation{}, fmt.Errorf("violation missing required field \"type\"")
	}
	if id, ok := m["id"].(string); ok {
		v.ID = id
	} else {
		return Violation{}, fmt.Errorf("violation missing required field \"id\"")
	}
	if msg, ok := m["message"].(string); ok {
		v.Message = msg
	} else {
		return Violation{}, fmt.Errorf("violation missing required field \"message\"")
	}
	v.Value = m["value"]
	if level, ok := m["level"].(string); ok {
		v.Level = level
	}
	return v, nil
}
