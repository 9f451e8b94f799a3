package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const denyRequiredBriefRego = `
package before_resolution

deny[v] {
	not input.brief
	v := {"type": "policy", "id": "missing-brief", "message": "group is missing a brief"}
}
`

const adviceStabilityRego = `
package live_check_advice

deny[v] {
	input.value == "legacy"
	v := {"type": "advice", "id": "legacy-value", "message": "legacy value seen", "level": "info"}
}
`

func TestEvaluateNoPoliciesReturnsEmpty(t *testing.T) {
	e := New(nil)
	result := e.Evaluate(context.Background(), StageBeforeResolution, map[string]any{}, nil)
	require.False(t, result.IsFatal())
	assert.Empty(t, result.Value)
}

func TestEvaluateFiresDenyRule(t *testing.T) {
	e := New([]Policy{{Path: "before_resolution.rego", Source: denyRequiredBriefRego}})
	result := e.Evaluate(context.Background(), StageBeforeResolution, map[string]any{"id": "http.server"}, nil)
	require.False(t, result.IsFatal(), "%v", result.Fatal)

	require.Len(t, result.Value, 1)
	v := result.Value[0]
	assert.Equal(t, ViolationPolicy, v.Type)
	assert.Equal(t, "missing-brief", v.ID)
	assert.Equal(t, "group is missing a brief", v.Message)
}

func TestEvaluateSilentWhenRuleDoesNotFire(t *testing.T) {
	e := New([]Policy{{Path: "before_resolution.rego", Source: denyRequiredBriefRego}})
	result := e.Evaluate(context.Background(), StageBeforeResolution, map[string]any{"id": "http.server", "brief": "present"}, nil)
	require.False(t, result.IsFatal())
	assert.Empty(t, result.Value)
}

func TestEvaluateUsesDataChannel(t *testing.T) {
	e := New([]Policy{{Path: "live_check_advice.rego", Source: adviceStabilityRego}})
	result := e.Evaluate(context.Background(), StageLiveCheckAdvice, map[string]any{"value": "legacy"}, map[string]any{"unused": true})
	require.False(t, result.IsFatal(), "%v", result.Fatal)

	require.Len(t, result.Value, 1)
	v := result.Value[0]
	assert.Equal(t, ViolationAdvice, v.Type)
	assert.Equal(t, "info", v.Level)
}

func TestEvaluateInvalidModuleIsFatal(t *testing.T) {
	e := New([]Policy{{Path: "broken.rego", Source: "this is not valid rego"}})
	result := e.Evaluate(context.Background(), StageBeforeResolution, map[string]any{}, nil)
	assert.True(t, result.IsFatal())
}

func TestEvaluateRecordsCoverageWhenEnabled(t *testing.T) {
	e := New([]Policy{{Path: "before_resolution.rego", Source: denyRequiredBriefRego}})
	e.EnableCoverage()

	result := e.Evaluate(context.Background(), StageBeforeResolution, map[string]any{"id": "http.server"}, nil)
	require.False(t, result.IsFatal())

	assert.Equal(t, 1, e.Coverage().FiredCount(StageBeforeResolution, "missing-brief"))
	assert.Contains(t, e.Coverage().FiredRules(StageBeforeResolution), "missing-brief")
}

func TestCoverageNilWhenNeverEnabled(t *testing.T) {
	e := New([]Policy{{Path: "before_resolution.rego", Source: denyRequiredBriefRego}})
	e.Evaluate(context.Background(), StageBeforeResolution, map[string]any{"id": "http.server"}, nil)
	assert.Nil(t, e.Coverage())
}

func TestCloneSharesPoliciesNotCoverage(t *testing.T) {
	e := New([]Policy{{Path: "before_resolution.rego", Source: denyRequiredBriefRego}})
	e.EnableCoverage()
	e.Evaluate(context.Background(), StageBeforeResolution, map[string]any{"id": "http.server"}, nil)

	clone := e.Clone()
	assert.Nil(t, clone.Coverage(), "a clone starts with its own (disabled) coverage tracking")

	result := clone.Evaluate(context.Background(), StageBeforeResolution, map[string]any{"id": "http.server"}, nil)
	require.False(t, result.IsFatal())
	require.Len(t, result.Value, 1, "the clone still evaluates the same loaded policies")
}

func TestDecodeViolationRejectsMissingFields(t *testing.T) {
	_, err := decodeViolation(map[string]any{"type": "policy", "id": "x"})
	assert.Error(t, err)

	_, err = decodeViolation("not a map")
	assert.Error(t, err)
}

func TestDecodeViolationCarriesValue(t *testing.T) {
	v, err := decodeViolation(map[string]any{
		"type": "policy", "id": "x", "message": "m", "value": map[string]any{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, v.Value)
}
