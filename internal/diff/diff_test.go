package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/semconv"
)

func schemaWithAttr(groupID string, kind semconv.GroupKind, attrs ...registry.ResolvedAttribute) *registry.ResolvedRegistry {
	return &registry.ResolvedRegistry{
		RegistryID: "r",
		Groups: []registry.ResolvedGroupSchema{
			{ID: groupID, Type: kind, Attributes: attrs},
		},
	}
}

func findChange(t *testing.T, changes []Change, name string) Change {
	t.Helper()
	for _, c := range changes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no change found for %q among %d changes", name, len(changes))
	return Change{}
}

func TestCompareEmptyDiffBetweenIdenticalSchemas(t *testing.T) {
	schema := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}})

	result := Compare(schema, schema)
	for kind, changes := range result.Changes {
		assert.Empty(t, changes, "diffing a schema against itself must produce no changes for %s", kind)
	}
}

func TestCompareDetectsAddedAttribute(t *testing.T) {
	base := schemaWithAttr("http.server", semconv.KindSpan)
	head := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}})

	result := Compare(base, head)
	c := findChange(t, result.Changes[ItemAttribute], "http.route")
	assert.Equal(t, ChangeAdded, c.Kind)
}

func TestCompareDetectsRemovedAttribute(t *testing.T) {
	base := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}})
	head := schemaWithAttr("http.server", semconv.KindSpan)

	result := Compare(base, head)
	c := findChange(t, result.Changes[ItemAttribute], "http.route")
	assert.Equal(t, ChangeRemoved, c.Kind)
}

func TestCompareDetectsRenamedAttribute(t *testing.T) {
	base := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{
			ID: "http.method", Type: semconv.AttributeType{Value: "string"},
			Deprecated: &semconv.Deprecation{Kind: semconv.DeprecationRenamed, NewName: "http.request.method", PreserveSemantic: true},
		})
	head := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.request.method", Type: semconv.AttributeType{Value: "string"}})

	result := Compare(base, head)
	c := findChange(t, result.Changes[ItemAttribute], "http.method")
	require.Equal(t, ChangeRenamed, c.Kind)
	assert.Equal(t, "http.request.method", c.NewName)
	assert.True(t, c.PreserveSemantic)
}

func TestCompareDetectsMergedAttributes(t *testing.T) {
	base := schemaWithAttr("db", semconv.KindAttributeGroup,
		registry.ResolvedAttribute{
			ID: "db.cassandra.table", Type: semconv.AttributeType{Value: "string"},
			Deprecated: &semconv.Deprecation{Kind: semconv.DeprecationRenamed, NewName: "db.collection.name"},
		},
		registry.ResolvedAttribute{
			ID: "db.sql.table", Type: semconv.AttributeType{Value: "string"},
			Deprecated: &semconv.Deprecation{Kind: semconv.DeprecationRenamed, NewName: "db.collection.name"},
		})
	head := schemaWithAttr("db", semconv.KindAttributeGroup,
		registry.ResolvedAttribute{ID: "db.collection.name", Type: semconv.AttributeType{Value: "string"}})

	result := Compare(base, head)
	// db.collection.name is also reported as Added; select its Merged record.
	var c Change
	for _, ch := range result.Changes[ItemAttribute] {
		if ch.Name == "db.collection.name" && ch.Kind == ChangeMerged {
			c = ch
		}
	}
	require.Equal(t, ChangeMerged, c.Kind)
	assert.ElementsMatch(t, []string{"db.cassandra.table", "db.sql.table"}, c.SourceItems)
}

func TestCompareDetectsSplitAttribute(t *testing.T) {
	base := schemaWithAttr("db", semconv.KindAttributeGroup,
		registry.ResolvedAttribute{
			ID: "db.connection_string", Type: semconv.AttributeType{Value: "string"},
			Deprecated: &semconv.Deprecation{Kind: semconv.DeprecationRenamed, NewName: "server.address, server.port"},
		})
	head := schemaWithAttr("db", semconv.KindAttributeGroup,
		registry.ResolvedAttribute{ID: "server.address", Type: semconv.AttributeType{Value: "string"}},
		registry.ResolvedAttribute{ID: "server.port", Type: semconv.AttributeType{Value: "int"}})

	result := Compare(base, head)
	c := findChange(t, result.Changes[ItemAttribute], "db.connection_string")
	require.Equal(t, ChangeSplit, c.Kind)
	assert.ElementsMatch(t, []string{"server.address", "server.port"}, c.SplitInto)
}

func TestCompareDetectsDeprecated(t *testing.T) {
	base := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}})
	head := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{
			ID: "http.route", Type: semconv.AttributeType{Value: "string"},
			Deprecated: &semconv.Deprecation{Kind: semconv.DeprecationObsoleted, Note: "no longer emitted"},
		})

	result := Compare(base, head)
	var found bool
	for _, c := range result.Changes[ItemAttribute] {
		if c.Kind == ChangeDeprecated && c.Name == "http.route" {
			found = true
			assert.Equal(t, "no longer emitted", c.Note)
		}
	}
	assert.True(t, found, "expected a deprecated change record")
}

func TestCompareDetectsAttributeFieldUpdate(t *testing.T) {
	base := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}, Brief: "old brief"})
	head := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}, Brief: "new brief"})

	result := Compare(base, head)
	c := findChange(t, result.Changes[ItemAttribute], "http.route")
	require.Equal(t, ChangeAttributeUpdated, c.Kind)
	require.Len(t, c.Fields, 1)
	assert.Equal(t, "brief", c.Fields[0].Name)
	assert.Equal(t, CompatBoth, c.Fields[0].Compatibility)
}

func TestCompareGroupsByItemKind(t *testing.T) {
	base := &registry.ResolvedRegistry{Groups: []registry.ResolvedGroupSchema{
		{ID: "http.server", Type: semconv.KindSpan},
	}}
	head := &registry.ResolvedRegistry{Groups: []registry.ResolvedGroupSchema{
		{ID: "http.server", Type: semconv.KindSpan},
		{ID: "http.server.duration", Type: semconv.KindMetric},
	}}

	result := Compare(base, head)
	assert.Len(t, result.Changes[ItemMetric], 1)
	metricChange := findChange(t, result.Changes[ItemMetric], "http.server.duration")
	assert.Equal(t, ChangeAdded, metricChange.Kind)
}

func TestTypeCompatibility(t *testing.T) {
	cases := []struct {
		old, new string
		want     Compatibility
	}{
		{"string", "string", CompatBoth},
		{"ms", "s", CompatBoth},
		{"s", "ms", CompatBoth},
		{"counter", "histogram", CompatNone},
		{"string", "template[string]", CompatBackward},
		{"string", "int", CompatNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, typeCompatibility(tc.old, tc.new), "%s -> %s", tc.old, tc.new)
	}
}

func TestRequirementCompatibility(t *testing.T) {
	cases := []struct {
		old, new string
		want     Compatibility
	}{
		{"required", "recommended", CompatBackward},
		{"opt_in", "required", CompatForward},
		{"recommended", "recommended", CompatBoth},
		{"required", "bogus", CompatNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, requirementCompatibility(tc.old, tc.new), "%s -> %s", tc.old, tc.new)
	}
}

func TestDiffGroupAttributesDetectsUpdateWithinSignal(t *testing.T) {
	base := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}, Stability: "experimental"})
	head := schemaWithAttr("http.server", semconv.KindSpan,
		registry.ResolvedAttribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}, Stability: "stable"})

	result := Compare(base, head)
	c := findChange(t, result.Changes[ItemSpan], "http.server")
	require.Equal(t, ChangeSignalUpdated, c.Kind)
	require.Len(t, c.Attributes, 1)
	assert.Equal(t, "http.route", c.Attributes[0].Name)
}
