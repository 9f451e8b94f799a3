package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelconv/weaver/internal/semconv"
)

func TestCatalogInternDedupesStructuralDuplicates(t *testing.T) {
	c := New()
	attr := Attribute{
		ID:    "http.request.method",
		Type:  semconv.AttributeType{Value: "string"},
		Brief: "The HTTP method.",
	}

	ref1 := c.Intern(attr)
	ref2 := c.Intern(attr)

	assert.Equal(t, ref1, ref2, "interning a structurally identical attribute must return the existing Ref")
	assert.Equal(t, 1, c.Len())
}

func TestCatalogInternIncludesRoleInEquality(t *testing.T) {
	c := New()
	local := Attribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}, Role: "local"}
	inherited := local
	inherited.Role = "inherited"

	ref1 := c.Intern(local)
	ref2 := c.Intern(inherited)

	assert.NotEqual(t, ref1, ref2, "Role participates in structural equality")
	assert.Equal(t, 2, c.Len())
}

func TestCatalogInternDistinguishesOnOtherFields(t *testing.T) {
	c := New()
	a := Attribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}, Brief: "first"}
	b := Attribute{ID: "http.route", Type: semconv.AttributeType{Value: "string"}, Brief: "second"}

	refA := c.Intern(a)
	refB := c.Intern(b)

	assert.NotEqual(t, refA, refB)
	assert.Equal(t, 2, c.Len())
}

func TestCatalogAttributeRoundTrip(t *testing.T) {
	c := New()
	want := Attribute{ID: "net.peer.port", Type: semconv.AttributeType{Value: "int"}, Brief: "peer port"}
	ref := c.Intern(want)

	got := c.Attribute(ref)
	assert.Equal(t, want, *got)
}

func TestCatalogAttributePanicsOnOutOfRange(t *testing.T) {
	c := New()
	c.Intern(Attribute{ID: "a", Type: semconv.AttributeType{Value: "string"}})

	assert.Panics(t, func() { c.Attribute(Ref(5)) })
}

func TestCatalogDrainFreezesAndPreservesIndices(t *testing.T) {
	c := New()
	refA := c.Intern(Attribute{ID: "a", Type: semconv.AttributeType{Value: "string"}})
	refB := c.Intern(Attribute{ID: "b", Type: semconv.AttributeType{Value: "string"}})

	drained := c.Drain()

	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[refA].ID)
	assert.Equal(t, "b", drained[refB].ID)
	assert.True(t, c.Frozen())
}

func TestCatalogInternPanicsAfterDrain(t *testing.T) {
	c := New()
	c.Intern(Attribute{ID: "a", Type: semconv.AttributeType{Value: "string"}})
	c.Drain()

	assert.Panics(t, func() {
		c.Intern(Attribute{ID: "b", Type: semconv.AttributeType{Value: "string"}})
	})
}

func TestNoStructuralDuplicates(t *testing.T) {
	dup := Attribute{ID: "a", Type: semconv.AttributeType{Value: "string"}}
	assert.True(t, NoStructuralDuplicates([]Attribute{dup}))
	assert.False(t, NoStructuralDuplicates([]Attribute{dup, dup}))

	other := dup
	other.Brief = "different"
	assert.True(t, NoStructuralDuplicates([]Attribute{dup, other}))
}
