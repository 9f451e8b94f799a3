// Package livecheck streams sample telemetry against a resolved registry and
// classifies it through an advisor pipeline, per spec.md §4.7. Grounded on
// cmd/motel/main.go's shutdownAll/exporter-wiring pattern for the optional
// OTLP emission path, and on pkg/semconv/registry.go's attribute lookup for
// the matching logic the advisors share.
package livecheck

import "encoding/json"

// SampleKind tags the discriminated-union sample JSON spec.md §6 defines.
type SampleKind string

const (
	SampleAttribute SampleKind = "attribute"
	SampleSpan      SampleKind = "span"
	SampleSpanEvent SampleKind = "span_event"
	SampleSpanLink  SampleKind = "span_link"
	SampleResource  SampleKind = "resource"
	SampleMetric    SampleKind = "metric"
)

// DataPoint is a single metric data point sample, per the metric sample
// shape original_source's weaver_live_check attaches to metric kinds.
type DataPoint struct {
	Value      any            `json:"value"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Exemplars  []Exemplar     `json:"exemplars,omitempty"`
}

// Exemplar is a single exemplar attached to a metric data point.
type Exemplar struct {
	Value      any            `json:"value"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Sample is one ingested sample, tagged by Kind. Only the fields relevant to
// Kind are populated.
type Sample struct {
	Kind SampleKind `json:"type"`

	// attribute
	AttributeName  string `json:"name,omitempty"`
	AttributeValue any    `json:"value,omitempty"`

	// span / span_event / span_link
	GroupName  string         `json:"group_name,omitempty"`
	SpanKind   string         `json:"span_kind,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`

	// resource
	ResourceAttributes map[string]any `json:"resource_attributes,omitempty"`

	// metric
	MetricName string      `json:"metric_name,omitempty"`
	DataPoints []DataPoint `json:"data_points,omitempty"`
}

// Decode parses a single JSON sample object.
func Decode(raw []byte) (*Sample, error) {
	var s Sample
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
