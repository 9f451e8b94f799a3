// Package diff compares two resolved registry schemas and produces typed
// change records, per spec.md §4.8. Grounded on pkg/semconv/registry.go's
// Merge (the teacher's only cross-registry comparison operation) for the
// general shape of "index both sides by id, then walk the union of keys".
package diff

import (
	"sort"
	"strings"

	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/semconv"
)

// Compatibility classifies a single field change's effect on consumers.
type Compatibility string

const (
	CompatBackward Compatibility = "backward"
	CompatForward  Compatibility = "forward"
	CompatBoth     Compatibility = "both"
	CompatNone     Compatibility = "none"
)

// FieldChange is one changed field on an item, with its derived
// compatibility classification.
type FieldChange struct {
	Name          string
	OldValue      any
	NewValue      any
	Compatibility Compatibility
}

// ChangeKind tags a Change's variant.
type ChangeKind string

const (
	ChangeAdded           ChangeKind = "added"
	ChangeRemoved         ChangeKind = "removed"
	ChangeRenamed         ChangeKind = "renamed"
	ChangeMerged          ChangeKind = "merged"
	ChangeSplit           ChangeKind = "split"
	ChangeAttributeUpdated ChangeKind = "attribute_updated"
	ChangeSignalUpdated   ChangeKind = "signal_updated"
	ChangeDeprecated      ChangeKind = "deprecated"
)

// AttributeChange is one changed attribute within a changed signal (group),
// used by SignalUpdated records.
type AttributeChange struct {
	Name   string
	Fields []FieldChange
}

// Change is one typed change record, per spec.md §4.8's record variants.
type Change struct {
	Kind ChangeKind
	Name string

	// Renamed
	NewName          string
	PreserveSemantic bool

	// Merged
	SourceItems []string
	// Split
	SplitInto []string

	// AttributeUpdated
	Fields []FieldChange
	// SignalUpdated
	Attributes []AttributeChange

	// Deprecated
	Note string
}

// ItemKind is the top-level category a Change is keyed by.
type ItemKind string

const (
	ItemAttribute ItemKind = "attributes"
	ItemMetric    ItemKind = "metrics"
	ItemEvent     ItemKind = "events"
	ItemSpan      ItemKind = "spans"
	ItemResource  ItemKind = "resources"
)

// Result is the full diff between two resolved schemas, keyed by item kind.
type Result struct {
	Changes map[ItemKind][]Change
}

// Compare diffs baseline against head, emitting change records describing
// how head differs from baseline (i.e. in the baseline→head direction).
// Calling Compare(head, baseline) diffs the other direction.
func Compare(baseline, head *registry.ResolvedRegistry) *Result {
	result := &Result{Changes: make(map[ItemKind][]Change)}

	baseAttrs, headAttrs := indexAttributes(baseline), indexAttributes(head)
	result.Changes[ItemAttribute] = diffAttributes(baseAttrs, headAttrs)

	baseGroups, headGroups := indexGroups(baseline), indexGroups(head)
	for kind, ids := range groupIDsByKind(baseGroups, headGroups) {
		result.Changes[kind] = diffGroups(baseGroups, headGroups, ids)
	}

	return result
}

func indexAttributes(schema *registry.ResolvedRegistry) map[string]registry.ResolvedAttribute {
	out := make(map[string]registry.ResolvedAttribute)
	for _, g := range schema.Groups {
		for _, a := range g.Attributes {
			out[a.ID] = a
		}
	}
	return out
}

func indexGroups(schema *registry.ResolvedRegistry) map[string]registry.ResolvedGroupSchema {
	out := make(map[string]registry.ResolvedGroupSchema)
	for _, g := range schema.Groups {
		out[g.ID] = g
	}
	return out
}

func groupIDsByKind(base, head map[string]registry.ResolvedGroupSchema) map[ItemKind][]string {
	out := make(map[ItemKind][]string)
	seen := make(map[string]bool)
	add := func(id string, k semconv.GroupKind) {
		if seen[id] {
			return
		}
		seen[id] = true
		out[itemKindFor(k)] = append(out[itemKindFor(k)], id)
	}
	for id, g := range base {
		add(id, g.Type)
	}
	for id, g := range head {
		add(id, g.Type)
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

func itemKindFor(k semconv.GroupKind) ItemKind {
	switch k {
	case semconv.KindMetric, semconv.KindMetricGroup:
		return ItemMetric
	case semconv.KindEvent:
		return ItemEvent
	case semconv.KindSpan:
		return ItemSpan
	case semconv.KindResource, semconv.KindEntity:
		return ItemResource
	default:
		return ItemAttribute
	}
}

func diffAttributes(base, head map[string]registry.ResolvedAttribute) []Change {
	var out []Change
	removedRenames := make(map[string]*semconv.Deprecation)
	ids := unionKeys(base, head)
	for _, id := range ids {
		b, inBase := base[id]
		h, inHead := head[id]
		switch {
		case !inBase && inHead:
			out = append(out, Change{Kind: ChangeAdded, Name: id})
		case inBase && !inHead:
			if b.Deprecated != nil && b.Deprecated.Kind == semconv.DeprecationRenamed {
				removedRenames[id] = b.Deprecated
			} else {
				out = append(out, Change{Kind: ChangeRemoved, Name: id})
			}
		default:
			if fields := diffAttributeFields(b, h); len(fields) > 0 {
				out = append(out, Change{Kind: ChangeAttributeUpdated, Name: id, Fields: fields})
			}
			if h.Deprecated != nil && b.Deprecated == nil {
				out = append(out, Change{Kind: ChangeDeprecated, Name: id, Note: h.Deprecated.Note})
			}
		}
	}
	out = append(out, deriveRenameRecords(removedRenames)...)
	return out
}

// splitTargets parses a Renamed deprecation's new_name for the comma-
// separated convention recorded in original_source/crates/weaver_version/
// src/tmp.rs's "action: split, into: [...]" examples: a single baseline item
// whose new_name lists more than one target name split into all of them.
func splitTargets(newName string) []string {
	parts := strings.Split(newName, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// deriveRenameRecords turns a baseline→new_name map of renamed-and-removed
// items into Renamed/Merged/Split records, per spec.md §4.8 and DESIGN.md's
// commitment to derive these two variants exclusively by comparing two
// resolved schemas: several old ids renaming to the same new_name collapse
// into one Merged record; a single old id whose new_name names more than one
// target becomes a Split record; everything else stays a plain Renamed.
func deriveRenameRecords(removed map[string]*semconv.Deprecation) []Change {
	var out []Change
	ids := make([]string, 0, len(removed))
	for id := range removed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	bySingleTarget := make(map[string][]string)
	for _, id := range ids {
		dep := removed[id]
		if targets := splitTargets(dep.NewName); len(targets) > 1 {
			out = append(out, Change{Kind: ChangeSplit, Name: id, SplitInto: targets})
			continue
		}
		bySingleTarget[dep.NewName] = append(bySingleTarget[dep.NewName], id)
	}

	targets := make([]string, 0, len(bySingleTarget))
	for t := range bySingleTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, target := range targets {
		sources := bySingleTarget[target]
		sort.Strings(sources)
		if len(sources) > 1 {
			out = append(out, Change{Kind: ChangeMerged, Name: target, SourceItems: sources})
			continue
		}
		dep := removed[sources[0]]
		out = append(out, Change{Kind: ChangeRenamed, Name: sources[0], NewName: target, PreserveSemantic: dep.PreserveSemantic})
	}
	return out
}

func diffAttributeFields(b, h registry.ResolvedAttribute) []FieldChange {
	var out []FieldChange
	if b.Brief != h.Brief {
		out = append(out, FieldChange{Name: "brief", OldValue: b.Brief, NewValue: h.Brief, Compatibility: CompatBoth})
	}
	if b.Type.Value != h.Type.Value {
		out = append(out, FieldChange{Name: "type", OldValue: b.Type.Value, NewValue: h.Type.Value,
			Compatibility: typeCompatibility(b.Type.Value, h.Type.Value)})
	}
	if b.RequirementLevel.Level != h.RequirementLevel.Level {
		out = append(out, FieldChange{Name: "requirement_level", OldValue: b.RequirementLevel.Level, NewValue: h.RequirementLevel.Level,
			Compatibility: requirementCompatibility(b.RequirementLevel.Level, h.RequirementLevel.Level)})
	}
	if b.Stability != h.Stability {
		out = append(out, FieldChange{Name: "stability", OldValue: b.Stability, NewValue: h.Stability, Compatibility: CompatBoth})
	}
	return out
}

// typeCompatibility implements spec.md §4.8's example rules directly:
// a unit change from ms to s is Both; an instrument change from counter to
// histogram is None. For attribute/metric types more generally, a widening
// (string -> template[string]) is Backward, anything else unmodeled is None.
func typeCompatibility(old, new string) Compatibility {
	switch {
	case old == new:
		return CompatBoth
	case old == "ms" && new == "s", old == "s" && new == "ms":
		return CompatBoth
	case old == "counter" && new == "histogram", old == "histogram" && new == "counter":
		return CompatNone
	case strings.HasPrefix(new, "template["+old+"]"):
		return CompatBackward
	default:
		return CompatNone
	}
}

func requirementCompatibility(old, new string) Compatibility {
	rank := map[string]int{"required": 0, "conditionally_required": 1, "recommended": 2, "opt_in": 3}
	oldRank, oldOK := rank[old]
	newRank, newOK := rank[new]
	if !oldOK || !newOK {
		return CompatNone
	}
	switch {
	case newRank > oldRank:
		// loosening a requirement (e.g. required -> recommended) never
		// breaks an existing producer.
		return CompatBackward
	case newRank < oldRank:
		// tightening (e.g. opt_in -> required) can break an existing
		// producer that omitted the field.
		return CompatForward
	default:
		return CompatBoth
	}
}

func diffGroups(base, head map[string]registry.ResolvedGroupSchema, ids []string) []Change {
	var out []Change
	removedRenames := make(map[string]*semconv.Deprecation)
	for _, id := range ids {
		b, inBase := base[id]
		h, inHead := head[id]
		switch {
		case !inBase && inHead:
			out = append(out, Change{Kind: ChangeAdded, Name: id})
		case inBase && !inHead:
			if b.Deprecated != nil && b.Deprecated.Kind == semconv.DeprecationRenamed {
				removedRenames[id] = b.Deprecated
			} else {
				out = append(out, Change{Kind: ChangeRemoved, Name: id})
			}
		default:
			fields := diffGroupFields(b, h)
			attrs := diffGroupAttributes(b, h)
			if len(fields) > 0 || len(attrs) > 0 {
				out = append(out, Change{Kind: ChangeSignalUpdated, Name: id, Fields: fields, Attributes: attrs})
			}
			if h.Deprecated != nil && b.Deprecated == nil {
				out = append(out, Change{Kind: ChangeDeprecated, Name: id, Note: h.Deprecated.Note})
			}
		}
	}
	out = append(out, deriveRenameRecords(removedRenames)...)
	return out
}

func diffGroupFields(b, h registry.ResolvedGroupSchema) []FieldChange {
	var out []FieldChange
	if b.Brief != h.Brief {
		out = append(out, FieldChange{Name: "brief", OldValue: b.Brief, NewValue: h.Brief, Compatibility: CompatBoth})
	}
	if b.Unit != h.Unit {
		out = append(out, FieldChange{Name: "unit", OldValue: b.Unit, NewValue: h.Unit, Compatibility: typeCompatibility(b.Unit, h.Unit)})
	}
	if b.Instrument != h.Instrument {
		out = append(out, FieldChange{Name: "instrument", OldValue: string(b.Instrument), NewValue: string(h.Instrument),
			Compatibility: typeCompatibility(string(b.Instrument), string(h.Instrument))})
	}
	if b.Stability != h.Stability {
		out = append(out, FieldChange{Name: "stability", OldValue: b.Stability, NewValue: h.Stability, Compatibility: CompatBoth})
	}
	return out
}

func diffGroupAttributes(b, h registry.ResolvedGroupSchema) []AttributeChange {
	bi := make(map[string]registry.ResolvedAttribute, len(b.Attributes))
	for _, a := range b.Attributes {
		bi[a.ID] = a
	}
	hi := make(map[string]registry.ResolvedAttribute, len(h.Attributes))
	for _, a := range h.Attributes {
		hi[a.ID] = a
	}
	var out []AttributeChange
	for _, id := range unionKeys(bi, hi) {
		ba, inB := bi[id]
		ha, inH := hi[id]
		if !inB || !inH {
			continue
		}
		if fields := diffAttributeFields(ba, ha); len(fields) > 0 {
			out = append(out, AttributeChange{Name: id, Fields: fields})
		}
	}
	return out
}

func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for k := range a {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
