package semconv

import (
	"fmt"
	"io"
)

// Dependency is one entry in a registry manifest's dependency list.
type Dependency struct {
	SchemaURL    string `yaml:"schema_url"`
	RegistryPath string `yaml:"registry_path,omitempty"`
}

// Manifest is the registry manifest YAML file found at a registry root, per
// spec.md §6. It may declare a pre-resolved schema (resolved_schema_uri),
// in which case the loader short-circuits straight to fetching that schema.
type Manifest struct {
	FileFormat        string       `yaml:"file_format,omitempty"`
	SchemaURL         string       `yaml:"schema_url"`
	Description       string       `yaml:"description,omitempty"`
	Dependencies      []Dependency `yaml:"dependencies,omitempty"`
	Stability         string       `yaml:"stability,omitempty"`
	ResolvedSchemaURI string       `yaml:"resolved_schema_uri,omitempty"`

	// legacy fields, synthesized into SchemaURL when present.
	SemConvVersion string `yaml:"semconv_version,omitempty"`
	SchemaBaseURL  string `yaml:"schema_base_url,omitempty"`
}

// Normalize synthesizes the legacy `semconv_version` + `schema_base_url`
// shape into SchemaURL, emitting a warning to w (if non-nil) as spec.md §6
// requires. It is a no-op if SchemaURL is already set.
func (m *Manifest) Normalize(w io.Writer) {
	if m.SchemaURL != "" {
		return
	}
	if m.SemConvVersion == "" && m.SchemaBaseURL == "" {
		return
	}
	m.SchemaURL = fmt.Sprintf("%s/%s", trimTrailingSlash(m.SchemaBaseURL), m.SemConvVersion)
	if w != nil {
		fmt.Fprintf(w, "warning: manifest uses legacy semconv_version/schema_base_url; synthesized schema_url=%s\n", m.SchemaURL)
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Validate checks manifest-level invariants.
func (m Manifest) Validate() error {
	if m.ResolvedSchemaURI != "" {
		return nil
	}
	if m.SchemaURL == "" {
		return fmt.Errorf("manifest: schema_url is required (or resolved_schema_uri)")
	}
	if len(m.Dependencies) > 1 {
		return ErrMultipleDependenciesUnsupported
	}
	return nil
}
