// Package resolver turns a tree of parsed, unresolved semconv.SemConvSpec
// files (from internal/loader) into a frozen registry.Registry: extends
// applied group-to-group, ref applied attribute-to-attribute, include
// constraints pulled in, and every resolved attribute interned into a
// catalog.Catalog. Grounded on pkg/semconv/registry.go's buildRegistry/
// resolveRef two-pass indexing, generalized from a flat byAttrID map into
// four explicit phases so extends (group-level) and ref (attribute-level)
// don't conflate, and so lineage can be recorded at each step.
package resolver

import (
	"fmt"
	"sort"

	"github.com/otelconv/weaver/internal/catalog"
	"github.com/otelconv/weaver/internal/lineage"
	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/semconv"
	"github.com/otelconv/weaver/internal/werror"
)

// Resolve runs phases A–D over specs (dependency-first order, as returned by
// loader.Repository.AllSpecs) and produces a frozen Registry. Unresolvable
// refs/extends/includes are accumulated as non-fatal errors per spec.md §7;
// a cycle in extends is fatal, since no well-defined resolution exists.
func Resolve(registryID string, specs []*semconv.SemConvSpec) werror.Result[*registry.Registry] {
	nonFatal := &werror.Compound{}

	groups, groupLineages := indexGroups(specs)

	if cyc := detectExtendsCycle(groups); cyc != nil {
		return werror.FatalErr[*registry.Registry](werror.New(werror.KindReference, registryID,
			fmt.Errorf("extends cycle: %v", cyc)))
	}

	// Phase A: extends, applied in topological order (ancestors before
	// descendants) so a grandparent's fields are already flattened onto the
	// parent by the time a child inherits from it.
	order, err := topoOrder(groups)
	if err != nil {
		return werror.FatalErr[*registry.Registry](werror.New(werror.KindReference, registryID, err))
	}
	extendsOrigin := make(map[string]map[string]string, len(groups))
	for _, id := range order {
		applyExtends(groups, groupLineages, id, extendsOrigin)
	}

	// Phase B: ref, resolved against the attribute definitions now visible
	// across every group (post-extends, so an inherited registry attribute
	// group's definitions are reachable too).
	attrIndex := indexAttributeDefs(groups)
	attrLineages := make(map[string]*lineage.AttributeLineage, len(groups))
	for id, g := range groups {
		al := lineage.NewAttributeLineage()
		attrLineages[id] = al
		origin := extendsOrigin[id]
		for i := range g.Attributes {
			attr := &g.Attributes[i]
			if !attr.IsRef() {
				// A locally declared id-variant attribute carries no
				// lineage record unless it was itself flattened onto this
				// group by applyExtends, in which case every field is
				// wholesale-inherited from the ancestor that declared it.
				if o, ok := origin[attr.ID]; ok {
					al.InheritWholesale(attr.ID, o, attr.Prov)
				}
				continue
			}
			found, ok := attrIndex[attr.Ref]
			if !ok {
				nonFatal.Add(werror.Wrapf(werror.KindReference, attr.Prov.String(), "unresolved ref %q", attr.Ref))
				continue
			}
			fl := al.Declare(attr.Ref, found.owner, found.def.Prov)
			applyRef(attr, found.def, fl)
		}
	}

	// Phase C: include, pulling a named attribute_group's attributes into
	// the including group (spec.md §3's "any_of"/"include" constraint).
	for _, g := range groups {
		if g.Include == "" {
			continue
		}
		src, ok := groups[g.Include]
		if !ok {
			nonFatal.Add(werror.Wrapf(werror.KindReference, g.Prov.String(), "include: unknown group %q", g.Include))
			continue
		}
		g.Attributes = append(append([]semconv.AttributeSpec{}, src.Attributes...), g.Attributes...)
	}

	// Phase D: intern every group's resolved attributes into the shared
	// catalog, recording inherited-vs-local Role for lineage.
	cat := catalog.New()
	var resolvedGroups []*registry.ResolvedGroup
	for _, id := range order {
		g := groups[id]
		gl := groupLineages[id]
		al := attrLineages[id]
		rg := &registry.ResolvedGroup{
			ID: g.ID, Type: g.Type, DisplayName: g.DisplayName, Brief: g.Brief,
			Note: g.Note, Prefix: g.Prefix, Stability: g.Stability, Deprecated: g.Deprecated,
			SpanKind: g.SpanKind, Name: g.Name, Body: g.Body,
			MetricName: g.MetricName, Instrument: g.Instrument, Unit: g.Unit,
			EntityAssociations: g.EntityAssociations,
			Lineage: gl, AttrLineage: al, Prov: g.Prov,
		}
		for _, attr := range g.Attributes {
			role := "local"
			if fl, ok := al.Get(attr.ID); ok && fl.SourceGroupID != id {
				role = "inherited"
			}
			ref := cat.Intern(catalog.Attribute{
				ID: attr.ID, Type: attr.Type, Brief: attr.Brief, Note: attr.Note,
				Examples: attr.Examples, RequirementLevel: attr.RequirementLevel,
				SamplingRelevant: attr.SamplingRelevant != nil && *attr.SamplingRelevant,
				Stability: attr.Stability, Deprecated: attr.Deprecated, Tag: attr.Tag,
				Annotations: attr.Annotations, Role: role,
			})
			rg.AttributeRefs = append(rg.AttributeRefs, ref)
		}
		if violations := al.CheckDisjoint(); len(violations) > 0 {
			nonFatal.Add(werror.Wrapf(werror.KindConstraint, g.Prov.String(),
				"attribute fields both inherited and locally overridden: %v", violations))
		}
		if unsatisfied := unsatisfiedAnyOf(g); unsatisfied != nil {
			nonFatal.Add(werror.Wrapf(werror.KindConstraint, g.Prov.String(),
				"group %q: any_of constraint %v unsatisfied: none of its attribute sets are fully present", g.ID, unsatisfied))
		}
		resolvedGroups = append(resolvedGroups, rg)
	}

	reg := &registry.Registry{RegistryID: registryID, Catalog: cat.Drain(), Groups: resolvedGroups}

	if nonFatal.Len() > 0 {
		return werror.OkWithNonFatals(reg, nonFatal)
	}
	return werror.Ok(reg)
}

// unsatisfiedAnyOf reports g's any_of constraint (spec.md §3/§7) if none of
// its alternative attribute-id sets are fully present among g's resolved
// attributes, or nil if g has no any_of constraint or it is satisfied.
func unsatisfiedAnyOf(g *semconv.Group) [][]string {
	if len(g.AnyOf) == 0 {
		return nil
	}
	present := make(map[string]bool, len(g.Attributes))
	for _, a := range g.Attributes {
		present[a.ID] = true
	}
	for _, set := range g.AnyOf {
		satisfied := true
		for _, id := range set {
			if !present[id] {
				satisfied = false
				break
			}
		}
		if satisfied {
			return nil
		}
	}
	return g.AnyOf
}

func indexGroups(specs []*semconv.SemConvSpec) (map[string]*semconv.Group, map[string]*lineage.GroupLineage) {
	groups := make(map[string]*semconv.Group)
	lineages := make(map[string]*lineage.GroupLineage)
	for _, spec := range specs {
		for i := range spec.Groups {
			g := spec.Groups[i]
			groups[g.ID] = &g
			lineages[g.ID] = lineage.NewGroupLineage()
		}
	}
	return groups, lineages
}

type attrDef struct {
	def   *semconv.AttributeSpec
	owner string
}

func indexAttributeDefs(groups map[string]*semconv.Group) map[string]attrDef {
	out := make(map[string]attrDef)
	for id, g := range groups {
		for i := range g.Attributes {
			a := &g.Attributes[i]
			if !a.IsRef() && a.ID != "" {
				out[a.ID] = attrDef{def: a, owner: id}
			}
		}
	}
	return out
}

// applyRef merges a ref attribute with its definition, following
// pkg/semconv/registry.go's resolveRef precedence: Type/Examples/Stability/
// Deprecated come from the definition; Brief/Note/Tag/RequirementLevel/
// SamplingRelevant come from the ref when it supplies a non-zero value, else
// fall back to the definition's own default (spec.md §4.3's "For
// requirement_level, an id-attribute's default is always treated as
// inherited"). fl records, per spec.md §3's per-attribute field lineage,
// which overridable fields were inherited from the definition vs. locally
// overridden by the ref.
func applyRef(a *semconv.AttributeSpec, def *semconv.AttributeSpec, fl *lineage.AttributeFieldLineage) {
	a.ID = def.ID
	a.Type = def.Type

	a.Stability = def.Stability
	fl.Inherit(lineage.FieldStability)
	a.Examples = def.Examples
	fl.Inherit(lineage.FieldExamples)
	a.Deprecated = def.Deprecated
	fl.Inherit(lineage.FieldDeprecated)

	if a.Brief == "" {
		a.Brief = def.Brief
		fl.Inherit(lineage.FieldBrief)
	} else {
		fl.Override(lineage.FieldBrief)
	}
	if a.Note == "" {
		a.Note = def.Note
		fl.Inherit(lineage.FieldNote)
	} else {
		fl.Override(lineage.FieldNote)
	}
	if a.Tag == "" {
		a.Tag = def.Tag
		fl.Inherit(lineage.FieldTag)
	} else {
		fl.Override(lineage.FieldTag)
	}
	if a.RequirementLevel.Level == "" {
		a.RequirementLevel = def.RequirementLevel
		fl.Inherit(lineage.FieldRequirementLevel)
	} else {
		fl.Override(lineage.FieldRequirementLevel)
	}
	if a.SamplingRelevant == nil {
		a.SamplingRelevant = def.SamplingRelevant
		fl.Inherit(lineage.FieldSamplingRelevant)
	} else {
		fl.Override(lineage.FieldSamplingRelevant)
	}
}

// applyExtends flattens parent's fields and attributes onto groups[id],
// recording lineage for every inherited field and attribute. id's own
// fields/attributes (already present) take precedence over the parent's.
// origin records, for every attribute id carries over from an ancestor
// (including transitively, since parent's own origin map is consulted
// first), the group that originally declared it, so phase B's attribute
// lineage reflects the true source rather than the group currently
// holding the attribute post-merge.
func applyExtends(groups map[string]*semconv.Group, lineages map[string]*lineage.GroupLineage, id string, origin map[string]map[string]string) {
	g := groups[id]
	if g.Extends == "" {
		return
	}
	parent, ok := groups[g.Extends]
	if !ok {
		return
	}
	gl := lineages[id]

	if g.Brief == "" && parent.Brief != "" {
		g.Brief = parent.Brief
		gl.Inherit(parent.ID, parent.Prov, "brief")
	}
	if g.Note == "" && parent.Note != "" {
		g.Note = parent.Note
		gl.Inherit(parent.ID, parent.Prov, "note")
	}
	if g.Prefix == "" && parent.Prefix != "" {
		g.Prefix = parent.Prefix
		gl.Inherit(parent.ID, parent.Prov, "prefix")
	}
	if g.Stability == "" && parent.Stability != "" {
		g.Stability = parent.Stability
		gl.Inherit(parent.ID, parent.Prov, "stability")
	}
	if g.SpanKind == "" && parent.SpanKind != "" {
		g.SpanKind = parent.SpanKind
		gl.Inherit(parent.ID, parent.Prov, "span_kind")
	}

	own := make(map[string]bool, len(g.Attributes))
	for _, a := range g.Attributes {
		key := a.ID
		if a.IsRef() {
			key = a.Ref
		}
		own[key] = true
	}
	parentOrigin := origin[parent.ID]
	childOrigin := make(map[string]string, len(parent.Attributes))
	inherited := make([]semconv.AttributeSpec, 0, len(parent.Attributes))
	for _, pa := range parent.Attributes {
		key := pa.ID
		if pa.IsRef() {
			key = pa.Ref
		}
		if own[key] {
			continue
		}
		inherited = append(inherited, pa)
		src := parent.ID
		if o, ok := parentOrigin[key]; ok {
			src = o
		}
		childOrigin[key] = src
	}
	origin[id] = childOrigin
	g.Attributes = append(inherited, g.Attributes...)
}

// topoOrder returns group ids ordered so every group's extends parent
// precedes it, per Kahn's algorithm.
func topoOrder(groups map[string]*semconv.Group) ([]string, error) {
	indegree := make(map[string]int, len(groups))
	children := make(map[string][]string)
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
		indegree[id] = 0
	}
	sort.Strings(ids)
	for _, id := range ids {
		g := groups[id]
		if g.Extends == "" {
			continue
		}
		if _, ok := groups[g.Extends]; !ok {
			continue
		}
		indegree[id]++
		children[g.Extends] = append(children[g.Extends], id)
	}

	var queue []string
	for _, id := range ids {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var out []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		next := append([]string{}, children[id]...)
		sort.Strings(next)
		for _, c := range next {
			indegree[c]--
			if indegree[c] == 0 {
				queue = append(queue, c)
				sort.Strings(queue)
			}
		}
	}
	if len(out) != len(groups) {
		return nil, fmt.Errorf("extends cycle detected among groups")
	}
	return out, nil
}

// detectExtendsCycle returns the first cycle found in the extends graph, or
// nil if none exists. topoOrder already detects cycles indirectly (a short
// output); this walks explicitly to produce a readable chain for the error.
func detectExtendsCycle(groups map[string]*semconv.Group) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(groups))
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			cycle = append(append([]string{}, path...), id)
			return true
		}
		color[id] = gray
		path = append(path, id)
		if g, ok := groups[id]; ok && g.Extends != "" {
			if visit(g.Extends) {
				return true
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}
