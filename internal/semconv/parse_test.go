package semconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelconv/weaver/internal/provenance"
)

const sampleSpecYAML = `
groups:
  - id: registry.http
    type: attribute_group
    brief: HTTP attributes
    attributes:
      - id: http.request.method
        type: string
        brief: The HTTP method.
        requirement_level: required
        examples: ["GET", "POST"]
  - id: http.server
    type: span
    brief: HTTP server span
    span_kind: server
    attributes:
      - ref: http.request.method
        requirement_level: recommended
`

func TestParseStampsProvenance(t *testing.T) {
	prov := provenance.New("registry-id", "http.yaml")
	spec, err := Parse([]byte(sampleSpecYAML), prov, ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, prov, spec.Prov)
	require.Len(t, spec.Groups, 2)
	for _, g := range spec.Groups {
		assert.Equal(t, prov, g.Prov)
		for _, a := range g.Attributes {
			assert.Equal(t, prov, a.Prov)
		}
	}
}

func TestParseRejectsInvalidGroup(t *testing.T) {
	bad := `
groups:
  - id: m1
    type: metric
`
	_, err := Parse([]byte(bad), provenance.New("r", "bad.yaml"), ParseOptions{})
	assert.Error(t, err)
}

func TestParseDistinguishesRefFromIDVariant(t *testing.T) {
	spec, err := Parse([]byte(sampleSpecYAML), provenance.New("r", "f.yaml"), ParseOptions{})
	require.NoError(t, err)

	server := spec.Groups[1]
	require.Len(t, server.Attributes, 1)
	assert.True(t, server.Attributes[0].IsRef())
	assert.Equal(t, "http.request.method", server.Attributes[0].Ref)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("groups: [this is not valid"), provenance.New("r", "f.yaml"), ParseOptions{})
	assert.Error(t, err)
}
