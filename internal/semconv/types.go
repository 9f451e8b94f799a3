// Package semconv is a strongly-typed representation of raw semantic
// convention YAML: groups, attributes, metrics, events, the registry
// manifest, and the dependency list. It deserializes and schema-validates a
// single semantic convention file; it performs no cross-file resolution
// (that is internal/resolver's job).
package semconv

import (
	"fmt"

	"github.com/otelconv/weaver/internal/provenance"
	"gopkg.in/yaml.v3"
)

// GroupKind is the kind tag of a Group, per spec.md §3.
type GroupKind string

const (
	KindAttributeGroup GroupKind = "attribute_group"
	KindMetric         GroupKind = "metric"
	KindMetricGroup    GroupKind = "metric_group"
	KindEvent          GroupKind = "event"
	KindSpan           GroupKind = "span"
	KindEntity         GroupKind = "entity"
	KindResource       GroupKind = "resource"
	KindScope          GroupKind = "scope"
)

// SpanKind is the OTel span kind for span-kind groups.
type SpanKind string

const (
	SpanKindClient      SpanKind = "client"
	SpanKindServer      SpanKind = "server"
	SpanKindProducer    SpanKind = "producer"
	SpanKindConsumer    SpanKind = "consumer"
	SpanKindInternal    SpanKind = "internal"
)

// Instrument is the metric instrument kind.
type Instrument string

const (
	InstrumentCounter       Instrument = "counter"
	InstrumentUpDownCounter Instrument = "updowncounter"
	InstrumentHistogram     Instrument = "histogram"
	InstrumentGauge         Instrument = "gauge"
)

// Stability is the maturity level of a group or attribute.
type Stability string

const (
	StabilityStable       Stability = "stable"
	StabilityExperimental Stability = "experimental"
	StabilityDevelopment  Stability = "development"
	StabilityAlpha        Stability = "alpha"
	StabilityDeprecated   Stability = "deprecated"
)

// AttributeType represents the type of a semantic convention attribute.
// For scalar and template types, Value holds the type name (e.g. "string",
// "int[]", "template[string]"). For enums, Value is "enum" and Members is
// populated.
type AttributeType struct {
	Value             string
	Members           []EnumMember
	AllowCustomValues bool
}

// UnmarshalYAML handles both scalar type strings and enum definitions with
// members, dispatching on the YAML node's kind.
func (t *AttributeType) UnmarshalYAML(value *yaml.Node) error {
	var scalar string
	if err := value.Decode(&scalar); err == nil {
		t.Value = scalar
		return nil
	}

	var mapping struct {
		Members     []EnumMember `yaml:"members"`
		AllowCustom *bool        `yaml:"allow_custom_values"`
	}
	if err := value.Decode(&mapping); err != nil {
		return fmt.Errorf("attribute type: expected string or mapping with members: %w", err)
	}
	t.Value = "enum"
	t.Members = mapping.Members
	t.AllowCustomValues = mapping.AllowCustom == nil || *mapping.AllowCustom
	return nil
}

// IsTemplate reports whether t is a template[...] type.
func (t AttributeType) IsTemplate() bool {
	return len(t.Value) > len("template[") && t.Value[:len("template[")] == "template["
}

// IsEnum reports whether t is an enum type.
func (t AttributeType) IsEnum() bool { return t.Value == "enum" }

// EnumMember represents a single member of an enum attribute type.
type EnumMember struct {
	ID         string      `yaml:"id"`
	Value      any         `yaml:"value"`
	Brief      string      `yaml:"brief"`
	Stability  string      `yaml:"stability"`
	Note       string      `yaml:"note"`
	Deprecated *Deprecation `yaml:"deprecated"`
}

// EffectiveValueType returns "int" or "string" based on the first member's
// value type, per spec.md §3 ("the enum's effective type is inferred from
// the first member's value type").
func EffectiveValueType(members []EnumMember) string {
	if len(members) == 0 {
		return "enum"
	}
	switch members[0].Value.(type) {
	case int, int64, float64:
		return "int"
	default:
		return "string"
	}
}

// RequirementLevel represents the requirement level of an attribute within
// a group: required | recommended | opt_in | conditionally_required{text} |
// recommended{text}.
type RequirementLevel struct {
	Level       string
	Explanation string
}

// UnmarshalYAML handles both scalar levels and conditional requirement
// mappings.
func (r *RequirementLevel) UnmarshalYAML(value *yaml.Node) error {
	var scalar string
	if err := value.Decode(&scalar); err == nil {
		r.Level = scalar
		return nil
	}

	var mapping map[string]string
	if err := value.Decode(&mapping); err != nil {
		return fmt.Errorf("requirement level: expected string or mapping: %w", err)
	}
	for k, v := range mapping {
		r.Level = k
		r.Explanation = v
		break
	}
	return nil
}

// sortRank orders requirement levels for presentation: required < conditional
// < recommended < opt_in, per spec.md §3.
func (r RequirementLevel) sortRank() int {
	switch r.Level {
	case "required":
		return 0
	case "conditionally_required":
		return 1
	case "recommended":
		return 2
	case "opt_in":
		return 3
	default:
		return 4
	}
}

// Less reports whether r sorts before other under the presentation order.
func (r RequirementLevel) Less(other RequirementLevel) bool {
	return r.sortRank() < other.sortRank()
}

// Examples holds example values for an attribute. The YAML may contain a
// scalar, a flat array, or (for template types) a list of lists.
type Examples struct {
	Values []any
}

// UnmarshalYAML handles scalar values and sequences of examples.
func (e *Examples) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var seq []any
		if err := value.Decode(&seq); err != nil {
			return fmt.Errorf("examples: decoding sequence: %w", err)
		}
		e.Values = seq
		return nil
	}

	var scalar any
	if err := value.Decode(&scalar); err != nil {
		return fmt.Errorf("examples: expected scalar or sequence: %w", err)
	}
	e.Values = []any{scalar}
	return nil
}

// DeprecationKind tags the variant of a Deprecation descriptor.
type DeprecationKind string

const (
	DeprecationRenamed       DeprecationKind = "renamed"
	DeprecationObsoleted     DeprecationKind = "obsoleted"
	DeprecationUncategorized DeprecationKind = "uncategorized"
)

// Deprecation is a tagged deprecation descriptor. Split/merged are
// deliberately absent here: per spec.md §9 Open Questions, those are
// diff-only variants derived from comparing two resolved schemas
// (internal/diff), never authored directly in a semconv file.
type Deprecation struct {
	Kind              DeprecationKind
	NewName           string // renamed
	PreserveSemantic  bool   // renamed
	Note              string // obsoleted, uncategorized
}

// UnmarshalYAML accepts the legacy bare-string form ("deprecated: true" or a
// free-text note) as an uncategorized deprecation, and the structured
// mapping form used by newer semconv files.
func (d *Deprecation) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var note string
		if err := value.Decode(&note); err == nil {
			d.Kind = DeprecationUncategorized
			d.Note = note
			return nil
		}
	}

	var mapping struct {
		Renamed *struct {
			NewName          string `yaml:"new_name"`
			PreserveSemantic bool   `yaml:"preserve_semantic"`
		} `yaml:"renamed"`
		Obsoleted     *string `yaml:"obsoleted"`
		Uncategorized *string `yaml:"uncategorized"`
	}
	if err := value.Decode(&mapping); err != nil {
		return fmt.Errorf("deprecated: expected string or mapping: %w", err)
	}
	switch {
	case mapping.Renamed != nil:
		d.Kind = DeprecationRenamed
		d.NewName = mapping.Renamed.NewName
		d.PreserveSemantic = mapping.Renamed.PreserveSemantic
	case mapping.Obsoleted != nil:
		d.Kind = DeprecationObsoleted
		d.Note = *mapping.Obsoleted
	case mapping.Uncategorized != nil:
		d.Kind = DeprecationUncategorized
		d.Note = *mapping.Uncategorized
	default:
		d.Kind = DeprecationUncategorized
	}
	return nil
}

// AttributeSpec represents a single attribute definition or reference.
// When Ref is non-empty, this is the ref variant; otherwise it is the id
// variant and ID must be set.
type AttributeSpec struct {
	// Id variant
	ID         string        `yaml:"id"`
	Type       AttributeType `yaml:"type"`

	// Ref variant
	Ref string `yaml:"ref"`

	// Shared / overridable fields
	Brief            string            `yaml:"brief"`
	Note             string            `yaml:"note"`
	Examples         Examples          `yaml:"examples"`
	RequirementLevel RequirementLevel  `yaml:"requirement_level"`
	SamplingRelevant *bool             `yaml:"sampling_relevant"`
	Stability        string            `yaml:"stability"`
	Deprecated       *Deprecation      `yaml:"deprecated"`
	Tag              string            `yaml:"tag"`

	Annotations map[string]any `yaml:"annotations"`

	Prov provenance.Provenance `yaml:"-"`
}

// IsRef reports whether this is the ref variant.
func (a AttributeSpec) IsRef() bool { return a.Ref != "" }

// GroupBody is the recursive, typed schema attached to event-kind groups.
// Supplemented from original_source/crates/weaver_semconv/src/body.rs: a
// mapped set of typed fields, each carrying its own requirement level and
// stability, allowing arbitrary nesting via FieldType == "map".
type GroupBody struct {
	ID               string             `yaml:"id"`
	Type             string             `yaml:"type"` // "map" | scalar type name
	Brief            string             `yaml:"brief"`
	Note             string             `yaml:"note"`
	RequirementLevel RequirementLevel   `yaml:"requirement_level"`
	Stability        string             `yaml:"stability"`
	Fields           []GroupBody        `yaml:"fields,omitempty"`
}

// Group is the primary semantic unit: an attribute group, metric, event,
// span, entity, resource, or scope definition.
type Group struct {
	ID          string      `yaml:"id"`
	Type        GroupKind   `yaml:"type"`
	DisplayName string      `yaml:"display_name"`
	Brief       string      `yaml:"brief"`
	Note        string      `yaml:"note"`
	Prefix      string      `yaml:"prefix"`
	Stability   string      `yaml:"stability"`
	Deprecated  *Deprecation `yaml:"deprecated"`
	Extends     string      `yaml:"extends"`

	// span-kind payload
	SpanKind SpanKind `yaml:"span_kind"`

	// event-kind payload
	Name string     `yaml:"name"`
	Body *GroupBody `yaml:"body"`

	// metric-kind payload
	MetricName string     `yaml:"metric_name"`
	Instrument Instrument `yaml:"instrument"`
	Unit       string     `yaml:"unit"`

	// entity associations: ids of entity-kind groups this group relates to.
	EntityAssociations []string `yaml:"entity_associations,omitempty"`

	Attributes []AttributeSpec `yaml:"attributes"`
	AnyOf      [][]string      `yaml:"any_of,omitempty"`
	Include    string          `yaml:"include,omitempty"`

	Annotations map[string]any `yaml:"annotations"`

	Prov provenance.Provenance `yaml:"-"`
}

// IsRegistryAttributeGroup reports whether this group is a declaration-site
// registry attribute group (id begins with "registry."), per spec.md §4.3.
func (g Group) IsRegistryAttributeGroup() bool {
	return len(g.ID) >= len("registry.") && g.ID[:len("registry.")] == "registry."
}

// Validate checks the group-level invariants from spec.md §3 that don't
// require cross-group resolution.
func (g Group) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("group: id is required")
	}
	switch g.Type {
	case KindMetric:
		if g.MetricName == "" || g.Instrument == "" || g.Unit == "" {
			return fmt.Errorf("group %q: metric groups require metric_name, instrument, and unit", g.ID)
		}
	case KindEvent:
		if g.Name == "" {
			return fmt.Errorf("group %q: event groups require name", g.ID)
		}
	case KindAttributeGroup, KindMetricGroup, KindSpan, KindEntity, KindResource, KindScope, "":
		// no kind-specific required fields
	default:
		return fmt.Errorf("group %q: unknown kind %q", g.ID, g.Type)
	}
	return nil
}

// Imports is a spec file's optional forward-declaration of external groups
// it depends on for ref/extends resolution beyond its own dependency tree.
type Imports struct {
	Metrics        []string `yaml:"metrics,omitempty"`
	Events         []string `yaml:"events,omitempty"`
	Entities       []string `yaml:"entities,omitempty"`
	AttributeGroups []string `yaml:"attribute_groups,omitempty"`
}

// SemConvSpec is a single validated semantic convention YAML file: a list of
// Group specs plus an optional Imports block. Files are content-addressed by
// their Provenance, which the loader populates as it reads each file.
type SemConvSpec struct {
	Groups  []Group  `yaml:"groups"`
	Imports *Imports `yaml:"imports,omitempty"`

	Prov provenance.Provenance `yaml:"-"`
}
