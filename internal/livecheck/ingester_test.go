package livecheck

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainIngester(t *testing.T, ing Ingester) ([]*Sample, []error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	samplesCh, errsCh := ing.Ingest(ctx)
	var samples []*Sample
	var errs []error
	for samplesCh != nil || errsCh != nil {
		select {
		case s, ok := <-samplesCh:
			if !ok {
				samplesCh = nil
				continue
			}
			samples = append(samples, s)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			errs = append(errs, err)
		case <-ctx.Done():
			t.Fatal("timed out draining ingester")
		}
	}
	return samples, errs
}

func TestTextStdinIngesterDecodesOneSamplePerLine(t *testing.T) {
	input := `{"type":"attribute","name":"http.route","value":"/users/{id}"}
{"type":"attribute","name":"net.peer.port","value":8080}
`
	samples, errs := drainIngester(t, NewTextStdinIngester(strings.NewReader(input)))
	require.Empty(t, errs)
	require.Len(t, samples, 2)
	assert.Equal(t, "http.route", samples[0].AttributeName)
	assert.Equal(t, "net.peer.port", samples[1].AttributeName)
}

func TestTextStdinIngesterIgnoresEmptyLines(t *testing.T) {
	input := "{\"type\":\"attribute\",\"name\":\"a\"}\n\n\n{\"type\":\"attribute\",\"name\":\"b\"}\n"
	samples, errs := drainIngester(t, NewTextStdinIngester(strings.NewReader(input)))
	require.Empty(t, errs)
	require.Len(t, samples, 2)
}

func TestTextStdinIngesterReportsDecodeErrorWithoutStopping(t *testing.T) {
	input := "not valid json\n{\"type\":\"attribute\",\"name\":\"a\"}\n"
	samples, errs := drainIngester(t, NewTextStdinIngester(strings.NewReader(input)))
	require.Len(t, samples, 1)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "line 1")
}
