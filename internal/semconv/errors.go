package semconv

import "errors"

// ErrMultipleDependenciesUnsupported is returned when a manifest declares
// more than one dependency. Per spec.md §9 Open Questions, this module
// preserves the source's "exactly one dependency" restriction verbatim
// (option (a)) rather than defining merge semantics across dependencies.
var ErrMultipleDependenciesUnsupported = errors.New("semconv: manifests with more than one dependency are not implemented")
