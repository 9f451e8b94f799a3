package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otelconv/weaver/internal/provenance"
)

func TestAttributeLineageCheckDisjointDetectsOverlap(t *testing.T) {
	al := NewAttributeLineage()
	fl := al.Declare("http.route", "parent", provenance.Provenance{})
	fl.Inherit(FieldBrief)
	fl.Override(FieldBrief)

	assert.Equal(t, []string{"http.route.brief"}, al.CheckDisjoint())
}

func TestAttributeLineageCheckDisjointPassesWhenFieldsDontOverlap(t *testing.T) {
	al := NewAttributeLineage()
	fl := al.Declare("http.route", "parent", provenance.Provenance{})
	fl.Inherit(FieldBrief)
	fl.Override(FieldStability)

	assert.Empty(t, al.CheckDisjoint())
}

func TestInheritWholesaleMarksEveryTrackedFieldInherited(t *testing.T) {
	al := NewAttributeLineage()
	al.InheritWholesale("http.route", "parent", provenance.Provenance{})

	fl, ok := al.Get("http.route")
	assert.True(t, ok)
	for _, field := range trackedFields {
		assert.True(t, fl.InheritedFields[field], "expected %s to be inherited", field)
		assert.False(t, fl.LocallyOverriddenFields[field])
	}
}
