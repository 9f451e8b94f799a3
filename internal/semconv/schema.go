package semconv

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// Validator schema-validates a raw semantic convention YAML document before
// it is decoded into a SemConvSpec. Two instances are maintained by the
// loader — versioned and unversioned — selected by the presence of
// file_format in the manifest, per spec.md §4.1 step 4 / §6.
type Validator struct {
	resolved *jsonschema.Resolved
}

// NewValidator compiles a Validator from a JSON Schema document.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &s); err != nil {
		return nil, fmt.Errorf("compiling semconv json schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving semconv json schema: %w", err)
	}
	return &Validator{resolved: resolved}, nil
}

// Validate checks raw YAML bytes against the compiled schema. YAML is
// decoded into a generic any via yaml.v3 and re-marshaled through
// encoding/json semantics (map[string]any, []any, scalars) so the
// jsonschema-go validator — which only understands JSON-shaped Go values —
// can walk it directly.
func (v *Validator) Validate(yamlBytes []byte) error {
	var doc any
	if err := yaml.Unmarshal(yamlBytes, &doc); err != nil {
		return fmt.Errorf("parsing yaml for schema validation: %w", err)
	}
	instance := toJSONShape(doc)
	if err := v.resolved.Validate(instance); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

// toJSONShape recursively converts yaml.v3's any-decoding (which can
// produce map[string]any with non-string-keyed variants in edge cases, and
// nested []any) into the map[string]any/[]any/scalar shape encoding/json
// and jsonschema-go expect.
func toJSONShape(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = toJSONShape(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = toJSONShape(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = toJSONShape(val)
		}
		return out
	default:
		return v
	}
}

// ValidatorSet holds the two validators spec.md §4.1/§6 require: versioned
// (file_format present) and unversioned (file_format absent).
type ValidatorSet struct {
	Versioned   *Validator
	Unversioned *Validator
}

// For selects the validator appropriate to fileFormat, per spec.md §6
// ("the selection depends on the file_format field").
func (vs ValidatorSet) For(fileFormat string) *Validator {
	if fileFormat != "" {
		return vs.Versioned
	}
	return vs.Unversioned
}
