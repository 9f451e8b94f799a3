package policy

import (
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/storage"
	"github.com/open-policy-agent/opa/storage/inmem"
)

// newInMemoryStore round-trips data through JSON to get a plain
// map[string]any tree (OPA's inmem store requires JSON object shape at the
// root), then wraps it in an inmem.Store for use as a stage's data channel.
func newInMemoryStore(data any) (storage.Store, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling data channel: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("data channel must marshal to a JSON object: %w", err)
	}
	return inmem.NewFromObject(obj), nil
}
