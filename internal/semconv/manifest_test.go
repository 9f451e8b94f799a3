package semconv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManifestValidateRequiresSchemaURLOrResolved(t *testing.T) {
	m := Manifest{}
	assert.Error(t, m.Validate())

	m.SchemaURL = "https://example.com/schema"
	assert.NoError(t, m.Validate())

	m2 := Manifest{ResolvedSchemaURI: "https://example.com/resolved.json"}
	assert.NoError(t, m2.Validate())
}

func TestManifestValidateRejectsMultipleDependencies(t *testing.T) {
	m := Manifest{
		SchemaURL: "https://example.com/schema",
		Dependencies: []Dependency{
			{SchemaURL: "https://example.com/a"},
			{SchemaURL: "https://example.com/b"},
		},
	}
	assert.ErrorIs(t, m.Validate(), ErrMultipleDependenciesUnsupported)
}

func TestManifestNormalizeSynthesizesLegacyFields(t *testing.T) {
	m := Manifest{SemConvVersion: "1.26.0", SchemaBaseURL: "https://opentelemetry.io/schemas/"}
	var warnings bytes.Buffer
	m.Normalize(&warnings)

	assert.Equal(t, "https://opentelemetry.io/schemas/1.26.0", m.SchemaURL)
	assert.Contains(t, warnings.String(), "legacy")
}

func TestManifestNormalizeNoopWhenSchemaURLSet(t *testing.T) {
	m := Manifest{SchemaURL: "https://example.com/schema"}
	m.Normalize(nil)
	assert.Equal(t, "https://example.com/schema", m.SchemaURL)
}

func TestManifestNormalizeNoopWhenNoLegacyFields(t *testing.T) {
	m := Manifest{}
	m.Normalize(nil)
	assert.Empty(t, m.SchemaURL)
}
