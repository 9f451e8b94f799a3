// Package catalog implements the attribute arena described in spec.md §3/§4.2
// and §9 ("Cyclic references → arena + indices"): a deduplicating,
// append-only store of fully-resolved attributes, each assigned a stable
// small-integer Ref. Groups hold Refs instead of attribute values, which
// eliminates the shared-pointer cycles the source relies on and makes the
// resolved schema trivially cloneable and serializable.
package catalog

import (
	"fmt"
	"reflect"

	"github.com/otelconv/weaver/internal/semconv"
)

// Ref is an opaque small-integer index into a Catalog. Given a Ref,
// Catalog.Attribute always resolves once the catalog is frozen — holding a
// stale Ref (from a different catalog) is a programming error, not a
// recoverable one.
type Ref int

// Attribute is the fully-resolved form of a semantic convention attribute:
// no Ref field remains (it has already been merged from its definition), and
// it is the unit the Catalog deduplicates by structural equality.
type Attribute struct {
	ID               string
	Type             semconv.AttributeType
	Brief            string
	Note             string
	Examples         semconv.Examples
	RequirementLevel semconv.RequirementLevel
	SamplingRelevant bool
	Stability        string
	Deprecated       *semconv.Deprecation
	Tag              string
	Annotations      map[string]any
	Role             string // "local" | "inherited" — see resolver; part of equality
}

// equalityKey returns the subset of Attribute that participates in
// structural-equality dedup, per spec.md §4.2 ("Equality must include all
// semantically significant fields"). Role is included, so an attribute
// declared locally and the same attribute inherited by another group intern
// as separate entries, each keeping its own Role.
type equalityKey struct {
	ID               string
	Type             semconv.AttributeType
	Brief            string
	Note             string
	Examples         semconv.Examples
	RequirementLevel semconv.RequirementLevel
	SamplingRelevant bool
	Stability        string
	Deprecated       semconv.Deprecation
	Tag              string
	Role             string
}

func (a Attribute) key() equalityKey {
	var dep semconv.Deprecation
	if a.Deprecated != nil {
		dep = *a.Deprecated
	}
	return equalityKey{
		ID: a.ID, Type: a.Type, Brief: a.Brief, Note: a.Note,
		Examples: a.Examples, RequirementLevel: a.RequirementLevel,
		SamplingRelevant: a.SamplingRelevant, Stability: a.Stability,
		Deprecated: dep, Tag: a.Tag, Role: a.Role,
	}
}

// Catalog is the attribute arena. The zero value is ready to use. Catalog is
// append-only until Drain is called, after which it is frozen: Intern
// panics (a programming error, matching spec.md §4.2/§4.3's invariant that
// all mutation happens on a single thread inside a resolution phase).
type Catalog struct {
	attrs  []Attribute
	byKey  map[string][]Ref // keyed by ID for a cheap first-pass narrowing, full equality checked within
	frozen bool
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{byKey: make(map[string][]Ref)}
}

// Intern inserts attr if no structurally-equal attribute is already present,
// and returns its Ref either way.
func (c *Catalog) Intern(attr Attribute) Ref {
	if c.frozen {
		panic("catalog: Intern called after Drain; catalog is frozen")
	}
	key := attr.key()
	for _, ref := range c.byKey[attr.ID] {
		if reflect.DeepEqual(c.attrs[ref].key(), key) {
			return ref
		}
	}
	if c.byKey == nil {
		c.byKey = make(map[string][]Ref)
	}
	ref := Ref(len(c.attrs))
	c.attrs = append(c.attrs, attr)
	c.byKey[attr.ID] = append(c.byKey[attr.ID], ref)
	return ref
}

// Attribute resolves ref to its Attribute. Panics on an out-of-range ref,
// since a valid Ref is guaranteed never to go stale (spec.md §4.2 invariant).
func (c *Catalog) Attribute(ref Ref) *Attribute {
	if int(ref) < 0 || int(ref) >= len(c.attrs) {
		panic(fmt.Sprintf("catalog: ref %d out of range (len=%d)", ref, len(c.attrs)))
	}
	return &c.attrs[ref]
}

// Len reports how many distinct attributes are interned so far.
func (c *Catalog) Len() int { return len(c.attrs) }

// Drain freezes the catalog and returns the dense attribute vector,
// preserving assigned indices (index i corresponds to Ref(i)).
func (c *Catalog) Drain() []Attribute {
	c.frozen = true
	out := make([]Attribute, len(c.attrs))
	copy(out, c.attrs)
	return out
}

// Frozen reports whether Drain has been called.
func (c *Catalog) Frozen() bool { return c.frozen }

// NoStructuralDuplicates reports whether attrs contains no two field-wise
// equal entries, per spec.md §8's catalog invariant. Used by tests.
func NoStructuralDuplicates(attrs []Attribute) bool {
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		k := fmt.Sprintf("%#v", a.key())
		if seen[k] {
			return false
		}
		seen[k] = true
	}
	return true
}
