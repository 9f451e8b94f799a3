package livecheck

import "github.com/otelconv/weaver/internal/registry"

// Stats is implemented by both Cumulative and Disabled, per spec.md §4.7's
// "Disabled is a zero-cost variant: every operation is a no-op."
type Stats interface {
	IncEntityCount(kind SampleKind)
	MaybeAddResult(findings []Finding)
	Finalize() Report
}

// Report is the finalized statistics snapshot produced by Cumulative (or
// the empty snapshot produced by Disabled).
type Report struct {
	EntityCounts        map[SampleKind]int
	NoAdviceSamples     int
	AdviceTypeCounts    map[AdviceType]int
	AdviceMessageCounts map[string]int
	HighestLevelSeen    map[Level]int
	CoverageFraction    float64
}

// Disabled is the zero-cost Stats variant: every method is a no-op.
type Disabled struct{}

func (Disabled) IncEntityCount(SampleKind)       {}
func (Disabled) MaybeAddResult([]Finding)        {}
func (Disabled) Finalize() Report                { return Report{} }

// Cumulative is the real Stats implementation, per spec.md §4.7:
// pre-populates seen_registry_{attributes,metrics,events} from registry
// declarations with zero counts, then tracks per-sample aggregates.
type Cumulative struct {
	entityCounts map[SampleKind]int

	seenAttributes map[string]int
	seenMetrics    map[string]int
	seenEvents     map[string]int

	adviceTypeCounts    map[AdviceType]int
	adviceMessageCounts map[string]int
	highestLevelSeen    map[Level]int
	noAdviceSamples     int
}

// NewCumulative pre-populates the seen-registry maps from schema's
// declarations, all at zero count. Deprecated attributes, metrics, and
// events are excluded, per spec.md §8's "registry_coverage == 1.0 iff every
// non-deprecated registry attribute and metric and event was seen".
func NewCumulative(schema *registry.ResolvedRegistry) *Cumulative {
	c := &Cumulative{
		entityCounts:        make(map[SampleKind]int),
		seenAttributes:      make(map[string]int),
		seenMetrics:         make(map[string]int),
		seenEvents:          make(map[string]int),
		adviceTypeCounts:    make(map[AdviceType]int),
		adviceMessageCounts: make(map[string]int),
		highestLevelSeen:    make(map[Level]int),
	}
	for _, g := range schema.Groups {
		for _, a := range g.Attributes {
			if a.Deprecated != nil {
				continue
			}
			c.seenAttributes[a.ID] = 0
		}
		if g.MetricName != "" && g.Deprecated == nil {
			c.seenMetrics[g.MetricName] = 0
		}
		if g.Type == "event" && g.Deprecated == nil {
			c.seenEvents[g.ID] = 0
		}
	}
	return c
}

func (c *Cumulative) IncEntityCount(kind SampleKind) { c.entityCounts[kind]++ }

// MarkAttributeSeen increments the seen count for a matched attribute id,
// enabling the coverage fraction to reflect which declared attributes were
// actually exercised by the sample stream.
func (c *Cumulative) MarkAttributeSeen(id string) {
	if _, ok := c.seenAttributes[id]; ok {
		c.seenAttributes[id]++
	}
}

// MarkMetricSeen increments the seen count for a matched metric name.
func (c *Cumulative) MarkMetricSeen(name string) {
	if _, ok := c.seenMetrics[name]; ok {
		c.seenMetrics[name]++
	}
}

func (c *Cumulative) MaybeAddResult(findings []Finding) {
	if len(findings) == 0 {
		c.noAdviceSamples++
		return
	}
	var highest Level
	for _, f := range findings {
		c.adviceTypeCounts[f.AdviceType]++
		c.adviceMessageCounts[f.Message]++
		if f.Level.Rank() > highest.Rank() || highest == "" {
			highest = f.Level
		}
	}
	if highest != "" {
		c.highestLevelSeen[highest]++
	}
}

func (c *Cumulative) Finalize() Report {
	total := len(c.seenAttributes) + len(c.seenMetrics) + len(c.seenEvents)
	nonZero := 0
	for _, n := range c.seenAttributes {
		if n > 0 {
			nonZero++
		}
	}
	for _, n := range c.seenMetrics {
		if n > 0 {
			nonZero++
		}
	}
	for _, n := range c.seenEvents {
		if n > 0 {
			nonZero++
		}
	}
	var coverage float64
	if total > 0 {
		coverage = float64(nonZero) / float64(total)
	}
	return Report{
		EntityCounts:        c.entityCounts,
		NoAdviceSamples:     c.noAdviceSamples,
		AdviceTypeCounts:    c.adviceTypeCounts,
		AdviceMessageCounts: c.adviceMessageCounts,
		HighestLevelSeen:    c.highestLevelSeen,
		CoverageFraction:    coverage,
	}
}
