// Package registry holds the frozen, post-resolution forms of a semantic
// convention registry: the Registry a resolver produces (groups referencing
// catalog.Ref attributes plus lineage) and the denormalized, JSON-friendly
// ResolvedRegistry schema that internal/forge's templates and
// internal/diff's comparisons consume. Grounded on pkg/semconv/registry.go's
// Registry/Group shape in the teacher, generalized to carry an attribute
// catalog and explicit lineage instead of embedding resolved attributes
// inline on every group.
package registry

import (
	"github.com/otelconv/weaver/internal/catalog"
	"github.com/otelconv/weaver/internal/lineage"
	"github.com/otelconv/weaver/internal/provenance"
	"github.com/otelconv/weaver/internal/semconv"
)

// ResolvedGroup is a fully resolved group: extends/ref/include already
// applied, attributes reduced to catalog.Ref. any_of constraints are checked
// against the resolved attribute set by internal/resolver.Resolve, which
// surfaces an unsatisfied constraint as a non-fatal werror.KindConstraint
// error rather than rejecting the group here.
type ResolvedGroup struct {
	ID          string
	Type        semconv.GroupKind
	DisplayName string
	Brief       string
	Note        string
	Prefix      string
	Stability   string
	Deprecated  *semconv.Deprecation

	SpanKind semconv.SpanKind

	Name string
	Body *semconv.GroupBody

	MetricName string
	Instrument semconv.Instrument
	Unit       string

	EntityAssociations []string

	// AttributeRefs are this group's attributes after extends/ref/include
	// resolution and interning, in declaration order (extends-inherited
	// first, then locally declared/overriding, matching spec.md §4.2).
	AttributeRefs []catalog.Ref

	Lineage    *lineage.GroupLineage
	AttrLineage *lineage.AttributeLineage

	Prov provenance.Provenance
}

// Registry is a single resolved registry: a frozen attribute Catalog plus
// its resolved groups, ready for template rendering, live-check advising, or
// diffing. Construction (via internal/resolver) is the only place a Registry
// is mutated; every field here is read-only to downstream consumers.
type Registry struct {
	RegistryID string
	Catalog    []catalog.Attribute // Drain()'d, indexable by catalog.Ref
	Groups     []*ResolvedGroup
}

// GroupByID returns the group with the given id, or nil if absent.
func (r *Registry) GroupByID(id string) *ResolvedGroup {
	for _, g := range r.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// Attribute resolves ref against this registry's catalog.
func (r *Registry) Attribute(ref catalog.Ref) *catalog.Attribute {
	if int(ref) < 0 || int(ref) >= len(r.Catalog) {
		return nil
	}
	return &r.Catalog[ref]
}

// GroupAttributes returns the fully resolved Attribute values for g, in
// AttributeRefs order, resolved against r's catalog.
func (r *Registry) GroupAttributes(g *ResolvedGroup) []catalog.Attribute {
	out := make([]catalog.Attribute, 0, len(g.AttributeRefs))
	for _, ref := range g.AttributeRefs {
		if a := r.Attribute(ref); a != nil {
			out = append(out, *a)
		}
	}
	return out
}
