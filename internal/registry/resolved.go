package registry

import "github.com/otelconv/weaver/internal/semconv"

// ResolvedAttribute is the fully denormalized, JSON-serializable form of a
// catalog.Attribute, inlined (rather than referenced by catalog.Ref) so the
// resolved schema can be consumed standalone by template rendering, the
// live-check runner, or a remote caller that only has the JSON document —
// none of which should need to know about the in-process catalog arena.
type ResolvedAttribute struct {
	ID               string                   `json:"id"`
	Type             semconv.AttributeType    `json:"type"`
	Brief            string                   `json:"brief,omitempty"`
	Note             string                   `json:"note,omitempty"`
	Examples         []any                    `json:"examples,omitempty"`
	RequirementLevel semconv.RequirementLevel `json:"requirement_level"`
	SamplingRelevant bool                     `json:"sampling_relevant,omitempty"`
	Stability        string                   `json:"stability,omitempty"`
	Deprecated       *semconv.Deprecation     `json:"deprecated,omitempty"`
	Tag              string                   `json:"tag,omitempty"`
	Inherited        bool                     `json:"inherited"`
}

// ResolvedGroupSchema is the denormalized, template-facing projection of a
// ResolvedGroup: attributes inlined in full rather than left as catalog.Ref
// indices.
type ResolvedGroupSchema struct {
	ID          string                 `json:"id"`
	Type        semconv.GroupKind      `json:"type"`
	DisplayName string                 `json:"display_name,omitempty"`
	Brief       string                 `json:"brief,omitempty"`
	Note        string                 `json:"note,omitempty"`
	Prefix      string                 `json:"prefix,omitempty"`
	Stability   string                 `json:"stability,omitempty"`
	Deprecated  *semconv.Deprecation   `json:"deprecated,omitempty"`

	SpanKind semconv.SpanKind `json:"span_kind,omitempty"`

	Name string             `json:"name,omitempty"`
	Body *semconv.GroupBody `json:"body,omitempty"`

	MetricName string             `json:"metric_name,omitempty"`
	Instrument semconv.Instrument `json:"instrument,omitempty"`
	Unit       string             `json:"unit,omitempty"`

	EntityAssociations []string `json:"entity_associations,omitempty"`

	Attributes []ResolvedAttribute `json:"attributes"`
}

// ResolvedRegistry is the fully resolved schema document: the shape that
// internal/forge's templates iterate over, internal/livecheck's advisors
// consult, internal/diff compares pairwise, and that a manifest's
// resolved_schema_uri fetch returns directly.
type ResolvedRegistry struct {
	RegistryID string                `json:"registry_id"`
	SchemaURL  string                `json:"schema_url,omitempty"`
	Groups     []ResolvedGroupSchema `json:"groups"`
}

// GroupByID returns the group with the given id, or nil if absent.
func (rr *ResolvedRegistry) GroupByID(id string) *ResolvedGroupSchema {
	for i := range rr.Groups {
		if rr.Groups[i].ID == id {
			return &rr.Groups[i]
		}
	}
	return nil
}

// Denormalize projects a Registry (catalog + refs) into the fully inlined
// ResolvedRegistry shape, resolving every AttributeRef against the frozen
// catalog and recording each attribute's Role as Inherited.
func Denormalize(r *Registry) *ResolvedRegistry {
	out := &ResolvedRegistry{RegistryID: r.RegistryID}
	for _, g := range r.Groups {
		schema := ResolvedGroupSchema{
			ID: g.ID, Type: g.Type, DisplayName: g.DisplayName, Brief: g.Brief,
			Note: g.Note, Prefix: g.Prefix, Stability: g.Stability, Deprecated: g.Deprecated,
			SpanKind: g.SpanKind, Name: g.Name, Body: g.Body,
			MetricName: g.MetricName, Instrument: g.Instrument, Unit: g.Unit,
			EntityAssociations: g.EntityAssociations,
		}
		for _, ref := range g.AttributeRefs {
			a := r.Attribute(ref)
			if a == nil {
				continue
			}
			schema.Attributes = append(schema.Attributes, ResolvedAttribute{
				ID: a.ID, Type: a.Type, Brief: a.Brief, Note: a.Note,
				Examples: a.Examples.Values, RequirementLevel: a.RequirementLevel,
				SamplingRelevant: a.SamplingRelevant, Stability: a.Stability,
				Deprecated: a.Deprecated, Tag: a.Tag, Inherited: a.Role == "inherited",
			})
		}
		out.Groups = append(out.Groups, schema)
	}
	return out
}
