package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/otelconv/weaver/internal/semconv"
)

func mustParseSpec(t *testing.T, src string) *semconv.SemConvSpec {
	t.Helper()
	var spec semconv.SemConvSpec
	require.NoError(t, yaml.Unmarshal([]byte(src), &spec))
	for i := range spec.Groups {
		require.NoError(t, spec.Groups[i].Validate())
	}
	return &spec
}

func TestResolveAppliesExtends(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: http.common
    type: span
    brief: common HTTP span fields
    stability: stable
    attributes:
      - id: http.request.method
        type: string
        brief: The HTTP method.
        requirement_level: required
  - id: http.server
    type: span
    extends: http.common
    span_kind: server
    attributes:
      - id: http.route
        type: string
        requirement_level: recommended
`)

	result := Resolve("test-registry", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)
	reg := result.Value

	server := reg.GroupByID("http.server")
	require.NotNil(t, server)
	assert.Equal(t, "stable", server.Stability, "stability inherited from extends parent")
	assert.Equal(t, "common HTTP span fields", server.Brief)

	attrs := reg.GroupAttributes(server)
	ids := make([]string, len(attrs))
	roleByID := make(map[string]string, len(attrs))
	for i, a := range attrs {
		ids[i] = a.ID
		roleByID[a.ID] = a.Role
	}
	assert.Contains(t, ids, "http.request.method", "inherited attribute carried over")
	assert.Contains(t, ids, "http.route", "locally declared attribute preserved")
	assert.Equal(t, "inherited", roleByID["http.request.method"], "attribute carried over via extends is marked inherited")
	assert.Equal(t, "local", roleByID["http.route"], "attribute declared on the group itself is marked local")
}

func TestResolveChildOverridesParentField(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: parent
    type: attribute_group
    brief: parent brief
  - id: child
    type: attribute_group
    extends: parent
    brief: child's own brief
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal())

	child := result.Value.GroupByID("child")
	require.NotNil(t, child)
	assert.Equal(t, "child's own brief", child.Brief, "child's own field is never overwritten by extends")
}

func TestResolveAppliesRefOverride(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: registry.http
    type: attribute_group
    attributes:
      - id: http.request.method
        type: string
        brief: The HTTP method.
        requirement_level: required
        stability: stable
  - id: http.client
    type: span
    attributes:
      - ref: http.request.method
        brief: overridden brief on the ref site
        requirement_level: recommended
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)

	client := result.Value.GroupByID("http.client")
	require.NotNil(t, client)
	attrs := result.Value.GroupAttributes(client)
	require.Len(t, attrs, 1)

	a := attrs[0]
	assert.Equal(t, "http.request.method", a.ID)
	assert.Equal(t, "overridden brief on the ref site", a.Brief, "ref-site brief override wins when non-empty")
	assert.Equal(t, "recommended", a.RequirementLevel.Level, "requirement_level is always the ref's own")
	assert.Equal(t, "stable", a.Stability, "stability always comes from the definition")
}

func TestResolveUnresolvedRefIsNonFatal(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: http.client
    type: span
    attributes:
      - ref: does.not.exist
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal())
	assert.True(t, result.HasNonFatals())
}

func TestResolveDetectsExtendsCycle(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: a
    type: attribute_group
    extends: b
  - id: b
    type: attribute_group
    extends: a
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	assert.True(t, result.IsFatal())
}

func TestResolveDedupesIdenticalAttributesAcrossGroups(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: registry.shared
    type: attribute_group
    attributes:
      - id: shared.attr
        type: string
        brief: shared
  - id: group.one
    type: span
    attributes:
      - ref: shared.attr
  - id: group.two
    type: span
    attributes:
      - ref: shared.attr
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)

	one := result.Value.GroupByID("group.one")
	two := result.Value.GroupByID("group.two")
	require.Len(t, one.AttributeRefs, 1)
	require.Len(t, two.AttributeRefs, 1)
	assert.Equal(t, one.AttributeRefs[0], two.AttributeRefs[0], "identical resolved attributes share one catalog Ref")
}

func TestResolveAppliesInclude(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: common.attrs
    type: attribute_group
    attributes:
      - id: common.one
        type: string
  - id: consumer
    type: attribute_group
    include: common.attrs
    attributes:
      - id: consumer.two
        type: string
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)

	consumer := result.Value.GroupByID("consumer")
	attrs := result.Value.GroupAttributes(consumer)
	ids := make([]string, len(attrs))
	for i, a := range attrs {
		ids[i] = a.ID
	}
	assert.Contains(t, ids, "common.one")
	assert.Contains(t, ids, "consumer.two")
}

func TestResolveLineageInheritedAndOverriddenAreDisjoint(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: parent
    type: attribute_group
    attributes:
      - id: shared.attr
        type: string
        brief: from parent
  - id: child
    type: attribute_group
    extends: parent
    attributes:
      - id: shared.attr
        type: string
        brief: redefined locally, not via ref
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)
	assert.False(t, result.HasNonFatals(), "redeclaring an attribute locally (not inheriting it) must not trip the disjointness check")

	child := result.Value.GroupByID("child")
	attrs := result.Value.GroupAttributes(child)
	require.Len(t, attrs, 1, "the locally redeclared attribute replaces the inherited one, not duplicates it")
	assert.Equal(t, "redefined locally, not via ref", attrs[0].Brief)
}

func TestResolveFieldLineageTracksRefOverrideGranularly(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: registry.http
    type: attribute_group
    attributes:
      - id: http.request.method
        type: string
        brief: The HTTP method.
        requirement_level: recommended
        stability: stable
  - id: http.client
    type: span
    attributes:
      - ref: http.request.method
        requirement_level: required
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)
	assert.False(t, result.HasNonFatals())

	client := result.Value.GroupByID("http.client")
	require.NotNil(t, client)
	fl, ok := client.AttrLineage.Get("http.request.method")
	require.True(t, ok)
	assert.True(t, fl.LocallyOverriddenFields["requirement_level"], "requirement_level was supplied on the ref")
	assert.True(t, fl.InheritedFields["brief"], "brief was not supplied on the ref, so it's inherited")
	assert.True(t, fl.InheritedFields["stability"], "stability always comes from the definition")
	assert.False(t, fl.LocallyOverriddenFields["brief"])
}

func TestResolveUnsatisfiedAnyOfIsNonFatal(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: db.call
    type: span
    any_of:
      - ["db.statement"]
      - ["db.operation", "db.name"]
    attributes:
      - id: db.name
        type: string
        brief: the database name
        requirement_level: recommended
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)
	assert.True(t, result.HasNonFatals(), "neither any_of alternative is fully satisfied")
}

func TestResolveSatisfiedAnyOfIsClean(t *testing.T) {
	spec := mustParseSpec(t, `
groups:
  - id: db.call
    type: span
    any_of:
      - ["db.statement"]
      - ["db.operation", "db.name"]
    attributes:
      - id: db.operation
        type: string
        brief: the operation
        requirement_level: recommended
      - id: db.name
        type: string
        brief: the database name
        requirement_level: recommended
`)
	result := Resolve("r", []*semconv.SemConvSpec{spec})
	require.False(t, result.IsFatal(), "%v", result.Fatal)
	assert.False(t, result.HasNonFatals(), "the second any_of alternative is fully satisfied")
}
