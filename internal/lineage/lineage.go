// Package lineage tracks, per resolved field, which ancestor in an extends
// chain actually supplied its value, per spec.md §4.2 ("track provenance of
// every inherited field") and §9 ("lineage as a side-channel map, not
// threaded through every value").
package lineage

import (
	"sort"

	"github.com/otelconv/weaver/internal/provenance"
)

// Source records where a single field's value came from.
type Source struct {
	// GroupID is the group that supplied the value: either the group being
	// resolved itself (a locally-set field) or an ancestor reached via
	// extends.
	GroupID string
	Prov    provenance.Provenance
	// Inherited is false when the field was set directly on the group being
	// resolved, true when it flowed in from an ancestor via extends.
	Inherited bool
}

// GroupLineage records, field name → Source, where every resolved field of
// one group came from. Only fields that participate in extends inheritance
// are tracked; fields with no ancestor contribution are simply absent.
type GroupLineage struct {
	Fields map[string]Source
}

// NewGroupLineage returns an empty, ready-to-use GroupLineage.
func NewGroupLineage() *GroupLineage {
	return &GroupLineage{Fields: make(map[string]Source)}
}

// Set records that field's value came from src. A later Set for the same
// field (e.g. a closer ancestor, or the group overriding its own parent)
// replaces the prior Source, matching extends' nearest-wins precedence.
func (l *GroupLineage) Set(field string, src Source) {
	l.Fields[field] = src
}

// Local marks field as locally set on groupID (not inherited).
func (l *GroupLineage) Local(groupID string, prov provenance.Provenance, field string) {
	l.Set(field, Source{GroupID: groupID, Prov: prov, Inherited: false})
}

// Inherit marks field as inherited from ancestorID via extends.
func (l *GroupLineage) Inherit(ancestorID string, prov provenance.Provenance, field string) {
	l.Set(field, Source{GroupID: ancestorID, Prov: prov, Inherited: true})
}

// Get reports the Source of field, if tracked.
func (l *GroupLineage) Get(field string) (Source, bool) {
	s, ok := l.Fields[field]
	return s, ok
}

// Field names tracked in an AttributeFieldLineage, per spec.md §3's
// overridable ref fields (brief/examples/tag/requirement_level/
// sampling_relevant/note/stability/deprecation).
const (
	FieldBrief            = "brief"
	FieldNote             = "note"
	FieldTag              = "tag"
	FieldExamples         = "examples"
	FieldRequirementLevel = "requirement_level"
	FieldSamplingRelevant = "sampling_relevant"
	FieldStability        = "stability"
	FieldDeprecated       = "deprecated"
)

var trackedFields = []string{
	FieldBrief, FieldNote, FieldTag, FieldExamples,
	FieldRequirementLevel, FieldSamplingRelevant, FieldStability, FieldDeprecated,
}

// AttributeFieldLineage is the per-attribute, per-group lineage record
// spec.md §3 describes verbatim: "{attribute_id, source_group_id,
// inherited_fields: set<field_name>, locally_overridden_fields:
// set<field_name>}". SourceGroupID is the group that declared the
// attribute's definition (the extends ancestor for a wholesale-inherited
// attribute, or the ref target's owning group for a ref).
type AttributeFieldLineage struct {
	SourceGroupID           string
	Prov                    provenance.Provenance
	InheritedFields         map[string]bool
	LocallyOverriddenFields map[string]bool
}

func newAttributeFieldLineage(sourceGroupID string, prov provenance.Provenance) *AttributeFieldLineage {
	return &AttributeFieldLineage{
		SourceGroupID:           sourceGroupID,
		Prov:                    prov,
		InheritedFields:         make(map[string]bool),
		LocallyOverriddenFields: make(map[string]bool),
	}
}

// Inherit marks field as sourced from the attribute's definition rather than
// supplied on the group being resolved.
func (f *AttributeFieldLineage) Inherit(field string) {
	f.InheritedFields[field] = true
}

// Override marks field as locally supplied on the group being resolved,
// superseding whatever the definition carries.
func (f *AttributeFieldLineage) Override(field string) {
	f.LocallyOverriddenFields[field] = true
}

// AttributeLineage records, per attribute id, its AttributeFieldLineage.
type AttributeLineage struct {
	ByAttributeID map[string]*AttributeFieldLineage
}

// NewAttributeLineage returns an empty, ready-to-use AttributeLineage.
func NewAttributeLineage() *AttributeLineage {
	return &AttributeLineage{ByAttributeID: make(map[string]*AttributeFieldLineage)}
}

// Declare registers attrID as sourced from sourceGroupID and returns its
// (initially empty) field lineage for the caller to populate via Inherit/
// Override. A later Declare for the same attrID replaces the prior record,
// matching GroupLineage.Set's nearest-wins precedence.
func (l *AttributeLineage) Declare(attrID, sourceGroupID string, prov provenance.Provenance) *AttributeFieldLineage {
	f := newAttributeFieldLineage(sourceGroupID, prov)
	l.ByAttributeID[attrID] = f
	return f
}

// InheritWholesale records attrID as carried onto the group entirely via
// extends, with every tracked field inherited from sourceGroupID — the case
// of a non-ref attribute flattened onto a child group by applyExtends,
// which has no per-field overrides of its own to apply.
func (l *AttributeLineage) InheritWholesale(attrID, sourceGroupID string, prov provenance.Provenance) {
	f := l.Declare(attrID, sourceGroupID, prov)
	for _, field := range trackedFields {
		f.Inherit(field)
	}
}

// Get reports attrID's field lineage, if tracked.
func (l *AttributeLineage) Get(attrID string) (*AttributeFieldLineage, bool) {
	f, ok := l.ByAttributeID[attrID]
	return f, ok
}

// CheckDisjoint verifies the invariant that a single resolution pass never
// marks the same attribute field both inherited and locally-overridden at
// once (spec.md §8: "inherited_fields ∩ locally_overridden_fields = ∅").
// Returns the offending "attribute_id.field_name" pairs, if any.
func (l *AttributeLineage) CheckDisjoint() []string {
	var violations []string
	ids := make([]string, 0, len(l.ByAttributeID))
	for id := range l.ByAttributeID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f := l.ByAttributeID[id]
		fields := make([]string, 0, len(f.InheritedFields))
		for field := range f.InheritedFields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if f.LocallyOverriddenFields[field] {
				violations = append(violations, id+"."+field)
			}
		}
	}
	return violations
}
