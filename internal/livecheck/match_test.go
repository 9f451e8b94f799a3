package livecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/semconv"
)

func buildTestSchema() *registry.ResolvedRegistry {
	return &registry.ResolvedRegistry{
		Groups: []registry.ResolvedGroupSchema{
			{
				ID: "http.server", Type: semconv.KindSpan,
				Attributes: []registry.ResolvedAttribute{
					{ID: "http.route", Type: semconv.AttributeType{Value: "string"}},
					{ID: "http.request.header", Type: semconv.AttributeType{Value: "template[string]"}},
				},
			},
			{
				ID: "http.server.duration", Type: semconv.KindMetric, MetricName: "http.server.duration",
			},
		},
	}
}

func TestMatchAttributeExact(t *testing.T) {
	idx := buildAttributeIndex(buildTestSchema())
	m := idx.MatchAttribute("http.route")
	require.Equal(t, MatchRegistered, m.Class)
	assert.Equal(t, "http.route", m.Attribute.ID)
}

func TestMatchAttributeTemplateLongestPrefix(t *testing.T) {
	idx := buildAttributeIndex(buildTestSchema())
	m := idx.MatchAttribute("http.request.header.content_type")
	require.Equal(t, MatchTemplate, m.Class)
	assert.Equal(t, "http.request.header", m.TemplatePrefix)
}

func TestMatchAttributeMissing(t *testing.T) {
	idx := buildAttributeIndex(buildTestSchema())
	m := idx.MatchAttribute("does.not.exist")
	assert.Equal(t, MatchMissing, m.Class)
	assert.Nil(t, m.Attribute)
}

func TestMatchGroup(t *testing.T) {
	schema := buildTestSchema()
	g := MatchGroup(schema, "http.server")
	require.NotNil(t, g)
	assert.Nil(t, MatchGroup(schema, "nonexistent"))
}

func TestMatchMetric(t *testing.T) {
	schema := buildTestSchema()
	g := MatchMetric(schema, "http.server.duration")
	require.NotNil(t, g)
	assert.Equal(t, "http.server.duration", g.ID)
	assert.Nil(t, MatchMetric(schema, "nonexistent"))
}
