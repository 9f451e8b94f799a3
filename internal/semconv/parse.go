package semconv

import (
	"fmt"

	"github.com/otelconv/weaver/internal/provenance"
	"gopkg.in/yaml.v3"
)

// ParseOptions controls how a single semantic convention file is parsed.
type ParseOptions struct {
	// Validators, if non-nil, schema-validates the raw YAML before
	// decoding. FileFormat selects versioned vs. unversioned, per spec.md §6.
	Validators *ValidatorSet
	FileFormat string
}

// Parse decodes one semantic convention YAML file, optionally schema
// validating it first, and stamps every group and attribute with prov.
// Parse errors are non-fatal at the loader boundary (spec.md §4.1): callers
// accumulate them rather than aborting the whole load.
func Parse(data []byte, prov provenance.Provenance, opts ParseOptions) (*SemConvSpec, error) {
	if opts.Validators != nil {
		v := opts.Validators.For(opts.FileFormat)
		if v != nil {
			if err := v.Validate(data); err != nil {
				return nil, fmt.Errorf("%s: %w", prov, err)
			}
		}
	}

	var spec SemConvSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%s: parsing yaml: %w", prov, err)
	}
	spec.Prov = prov

	for i := range spec.Groups {
		g := &spec.Groups[i]
		g.Prov = prov
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", prov, err)
		}
		for j := range g.Attributes {
			g.Attributes[j].Prov = prov
		}
	}

	return &spec, nil
}
