package livecheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findingOfType(findings []Finding, t AdviceType) *Finding {
	for i := range findings {
		if findings[i].AdviceType == t {
			return &findings[i]
		}
	}
	return nil
}

func TestCheckRegisteredAttributeNoMissingFinding(t *testing.T) {
	lc := NewLiveChecker(buildTestSchema())
	result := lc.Check(context.Background(), &Sample{Kind: SampleAttribute, AttributeName: "http.route", AttributeValue: "/x"})
	assert.Nil(t, findingOfType(result.Findings, AdviceMissingAttribute))
}

func TestCheckMissingAttributeEmitsFinding(t *testing.T) {
	lc := NewLiveChecker(buildTestSchema())
	result := lc.Check(context.Background(), &Sample{Kind: SampleAttribute, AttributeName: "does.not.exist"})
	f := findingOfType(result.Findings, AdviceMissingAttribute)
	require.NotNil(t, f)
	assert.Equal(t, LevelViolation, f.Level)
}

func TestCheckTemplateAttributeEmitsInfoFinding(t *testing.T) {
	lc := NewLiveChecker(buildTestSchema())
	result := lc.Check(context.Background(), &Sample{
		Kind: SampleAttribute, AttributeName: "http.request.header.content_type", AttributeValue: "text/plain",
	})
	f := findingOfType(result.Findings, AdviceTemplateAttribute)
	require.NotNil(t, f, "a sample matching a template attribute must get an AdviceTemplateAttribute info finding")
	assert.Equal(t, LevelInfo, f.Level)
	assert.Contains(t, f.Message, "http.request.header")
}

func TestCheckMarksCoverageForTemplateMatch(t *testing.T) {
	schema := buildTestSchema()
	lc := NewLiveChecker(schema)
	lc.Check(context.Background(), &Sample{
		Kind: SampleAttribute, AttributeName: "http.request.header.content_type", AttributeValue: "text/plain",
	})
	report := lc.Finalize()
	assert.Greater(t, report.CoverageFraction, 0.0, "matching a template attribute must mark it seen for coverage")
}

func TestRunReportPreservesOrderAndFinalizesStats(t *testing.T) {
	lc := NewLiveChecker(buildTestSchema())
	samples := []*Sample{
		{Kind: SampleAttribute, AttributeName: "http.route", AttributeValue: "/a"},
		{Kind: SampleAttribute, AttributeName: "does.not.exist"},
	}
	results, report := lc.RunReport(context.Background(), samples)
	require.Len(t, results, 2)
	assert.Equal(t, "http.route", results[0].Sample.AttributeName)
	assert.Equal(t, "does.not.exist", results[1].Sample.AttributeName)
	assert.Equal(t, 2, report.EntityCounts[SampleAttribute], "entity counts accumulate across samples")
}

func TestRunStreamPreservesInputOrder(t *testing.T) {
	lc := NewLiveChecker(buildTestSchema())
	in := make(chan *Sample, 2)
	in <- &Sample{Kind: SampleAttribute, AttributeName: "http.route"}
	in <- &Sample{Kind: SampleAttribute, AttributeName: "net.peer.port"}
	close(in)

	out := lc.RunStream(context.Background(), in)
	var results []SampleResult
	for r := range out {
		results = append(results, r)
	}
	require.Len(t, results, 2)
	assert.Equal(t, "http.route", results[0].Sample.AttributeName)
	assert.Equal(t, "net.peer.port", results[1].Sample.AttributeName)
}

func TestShutdownIsNoOpWithoutEmitter(t *testing.T) {
	lc := NewLiveChecker(buildTestSchema())
	assert.NoError(t, lc.Shutdown(context.Background()))
}
