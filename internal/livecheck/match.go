package livecheck

import (
	"strings"

	"github.com/otelconv/weaver/internal/registry"
)

// MatchClass classifies how a sample's attribute name resolved against the
// registry.
type MatchClass string

const (
	MatchRegistered MatchClass = "registered"
	MatchTemplate   MatchClass = "template"
	MatchMissing    MatchClass = "missing"
)

// AttributeMatch is the result of matching one sample attribute name
// against the registry, per spec.md §4.7's "Attribute matching" rules.
type AttributeMatch struct {
	Class     MatchClass
	Attribute *registry.ResolvedAttribute
	// TemplatePrefix is the matched template attribute's namespace prefix
	// when Class == MatchTemplate (e.g. "http.request.header" for
	// "http.request.header.content_type").
	TemplatePrefix string
}

// attributeIndex is a flattened, name-indexed view of every attribute across
// every group in a registry, built once per LiveChecker session.
type attributeIndex struct {
	byName     map[string]*registry.ResolvedAttribute
	templates  []*registry.ResolvedAttribute // attributes whose Type.IsTemplate()
}

func buildAttributeIndex(schema *registry.ResolvedRegistry) *attributeIndex {
	idx := &attributeIndex{byName: make(map[string]*registry.ResolvedAttribute)}
	for gi := range schema.Groups {
		g := &schema.Groups[gi]
		for ai := range g.Attributes {
			a := &g.Attributes[ai]
			if a.Type.IsTemplate() {
				idx.templates = append(idx.templates, a)
				continue
			}
			idx.byName[a.ID] = a
		}
	}
	return idx
}

// MatchAttribute classifies name per spec.md §4.7: exact match wins;
// otherwise the longest-prefix match among template attribute names;
// otherwise missing.
func (idx *attributeIndex) MatchAttribute(name string) AttributeMatch {
	if a, ok := idx.byName[name]; ok {
		return AttributeMatch{Class: MatchRegistered, Attribute: a}
	}

	var best *registry.ResolvedAttribute
	bestLen := -1
	for _, t := range idx.templates {
		prefix := t.ID
		if strings.HasPrefix(name, prefix+".") && len(prefix) > bestLen {
			best = t
			bestLen = len(prefix)
		}
	}
	if best != nil {
		return AttributeMatch{Class: MatchTemplate, Attribute: best, TemplatePrefix: best.ID}
	}
	return AttributeMatch{Class: MatchMissing}
}

// MatchGroup finds a group by id (used for span/event/metric-group samples).
func MatchGroup(schema *registry.ResolvedRegistry, groupID string) *registry.ResolvedGroupSchema {
	return schema.GroupByID(groupID)
}

// MatchMetric finds the metric group carrying metricName, per spec.md
// §4.7's "metric matching is by metric name".
func MatchMetric(schema *registry.ResolvedRegistry, metricName string) *registry.ResolvedGroupSchema {
	for i := range schema.Groups {
		if schema.Groups[i].MetricName == metricName {
			return &schema.Groups[i]
		}
	}
	return nil
}
