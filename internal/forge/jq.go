package forge

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// applyJQFilter evaluates a JQ-style expression against ctx, per spec.md
// §4.6's "JQ-style query filter for context selection". ctx is round-
// tripped through JSON first so struct-typed registry schemas become the
// plain map/slice shape gojq expects, mirroring the same JSON-shape
// normalization internal/policy's store adapter performs for Rego input.
func applyJQFilter(expr string, ctx any) (any, error) {
	if expr == "" {
		return ctx, nil
	}
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing filter %q: %w", expr, err)
	}

	raw, err := json.Marshal(ctx)
	if err != nil {
		return nil, fmt.Errorf("marshaling context for filter: %w", err)
	}
	var shaped any
	if err := json.Unmarshal(raw, &shaped); err != nil {
		return nil, fmt.Errorf("reshaping context for filter: %w", err)
	}

	iter := query.Run(shaped)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("evaluating filter %q: %w", expr, err)
		}
		results = append(results, v)
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}
