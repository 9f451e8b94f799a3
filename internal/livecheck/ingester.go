package livecheck

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Ingester produces samples for a LiveChecker to consume. spec.md §6 names
// the concept generically ("the JSON schema of samples... Empty input lines
// are ignored in text mode"); TextStdinIngester is the concrete
// line-delimited form original_source's weaver_live_check::
// text_stdin_ingester implements.
type Ingester interface {
	Ingest(ctx context.Context) (<-chan *Sample, <-chan error)
}

// TextStdinIngester reads one JSON sample object per non-empty line from r.
type TextStdinIngester struct {
	r io.Reader
}

// NewTextStdinIngester wraps r (typically os.Stdin) as an Ingester.
func NewTextStdinIngester(r io.Reader) *TextStdinIngester {
	return &TextStdinIngester{r: r}
}

// Ingest scans lines from the underlying reader, decoding each non-empty
// one into a Sample. Decode errors are sent on the error channel without
// stopping ingestion of subsequent lines.
func (t *TextStdinIngester) Ingest(ctx context.Context) (<-chan *Sample, <-chan error) {
	samples := make(chan *Sample)
	errs := make(chan error, 1)

	go func() {
		defer close(samples)
		defer close(errs)
		scanner := bufio.NewScanner(t.r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			s, err := Decode([]byte(line))
			if err != nil {
				select {
				case errs <- fmt.Errorf("line %d: %w", lineNo, err):
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case samples <- s:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case errs <- err:
			case <-ctx.Done():
			}
		}
	}()

	return samples, errs
}
