package loader

import (
	"errors"
	"fmt"
	"strings"
)

// MaxDependencyDepth is the default recursion limit for dependency loading,
// per spec.md §4.1.
const MaxDependencyDepth = 10

// MaximumDependencyDepthError is a fatal error raised when a dependency
// chain exceeds MaxDependencyDepth.
type MaximumDependencyDepthError struct {
	Registry string
}

func (e *MaximumDependencyDepthError) Error() string {
	return fmt.Sprintf("loader: maximum dependency depth (%d) exceeded at registry %q", MaxDependencyDepth, e.Registry)
}

// CircularDependencyError is a fatal error raised when a registry id
// reappears in its own dependency chain.
type CircularDependencyError struct {
	RegistryID string
	Chain      []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("loader: circular dependency at %q: %s", e.RegistryID, strings.Join(e.Chain, " → "))
}

// ErrNoFilesParsed is returned when every candidate file in a registry
// failed to parse, per spec.md §4.1 ("non-fatal unless no file parsed").
var ErrNoFilesParsed = errors.New("loader: no semantic convention files parsed successfully")
