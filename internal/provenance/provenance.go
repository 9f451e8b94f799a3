// Package provenance attaches a stable locator to every loaded spec, group,
// and attribute so downstream errors can cite where a definition came from.
package provenance

import "fmt"

// Provenance locates a definition to the registry it was loaded from and the
// path or URL within that registry.
type Provenance struct {
	RegistryID string
	Path       string
}

// New creates a Provenance for the given registry id and path.
func New(registryID, path string) Provenance {
	return Provenance{RegistryID: registryID, Path: path}
}

// String renders a Provenance as "registry_id:path", the form used in
// diagnostic messages throughout the loader and resolver.
func (p Provenance) String() string {
	if p.RegistryID == "" {
		return p.Path
	}
	return fmt.Sprintf("%s:%s", p.RegistryID, p.Path)
}

// IsZero reports whether p carries no information.
func (p Provenance) IsZero() bool {
	return p.RegistryID == "" && p.Path == ""
}
