package semconv

import (
	"embed"
	"fmt"
)

//go:embed schemadata/versioned.schema.json schemadata/unversioned.schema.json
var embeddedSchemas embed.FS

// DefaultValidators builds the ValidatorSet from the schemas vendored with
// this module, mirroring the two-validator discipline spec.md §4.1/§6
// describe.
func DefaultValidators() (ValidatorSet, error) {
	versionedRaw, err := embeddedSchemas.ReadFile("schemadata/versioned.schema.json")
	if err != nil {
		return ValidatorSet{}, fmt.Errorf("reading versioned schema: %w", err)
	}
	unversionedRaw, err := embeddedSchemas.ReadFile("schemadata/unversioned.schema.json")
	if err != nil {
		return ValidatorSet{}, fmt.Errorf("reading unversioned schema: %w", err)
	}

	versioned, err := NewValidator(versionedRaw)
	if err != nil {
		return ValidatorSet{}, fmt.Errorf("compiling versioned schema: %w", err)
	}
	unversioned, err := NewValidator(unversionedRaw)
	if err != nil {
		return ValidatorSet{}, fmt.Errorf("compiling unversioned schema: %w", err)
	}

	return ValidatorSet{Versioned: versioned, Unversioned: unversioned}, nil
}
