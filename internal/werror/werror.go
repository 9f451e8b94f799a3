// Package werror implements the three-shape result discipline used across
// the resolution pipeline: a call either succeeds outright, succeeds with a
// list of accumulated non-fatal errors, or fails fatally. Fatal errors
// short-circuit their phase; non-fatal errors are collected and surfaced on
// the outermost caller, per spec.md §7.
package werror

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies an error into the taxonomy from spec.md §7. It does not
// change error-handling behavior; it lets callers group/report errors by
// category without type-switching on concrete error types.
type Kind string

const (
	KindIO        Kind = "io"
	KindParse     Kind = "parse"
	KindReference Kind = "reference"
	KindConstraint Kind = "constraint"
	KindPolicy    Kind = "policy"
	KindLoader    Kind = "loader"
	KindRendering Kind = "rendering"
	KindLiveCheck Kind = "live_check"
	KindCompound  Kind = "compound"
)

// Error wraps an underlying error with a Kind and an optional provenance
// string, so a flattened CompoundError still lets a reporter group by kind
// and cite a location.
type Error struct {
	Kind       Kind
	Provenance string
	Err        error
}

func (e *Error) Error() string {
	if e.Provenance != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Provenance, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified Error.
func New(kind Kind, provenance string, err error) *Error {
	return &Error{Kind: kind, Provenance: provenance, Err: err}
}

// Wrapf builds a classified Error from a format string.
func Wrapf(kind Kind, provenance, format string, args ...any) *Error {
	return &Error{Kind: kind, Provenance: provenance, Err: fmt.Errorf(format, args...)}
}

// Compound accumulates non-fatal errors across a phase boundary. The zero
// value is ready to use. A nil *Compound (via Err()) means no errors were
// collected, matching Go's "nil error means success" convention.
type Compound struct {
	errs *multierror.Error
}

// Add appends err to the accumulator if it is non-nil. Add is a no-op for a
// nil err, so callers can unconditionally `c.Add(someCall())`.
func (c *Compound) Add(err error) {
	if err == nil {
		return
	}
	c.errs = multierror.Append(c.errs, err)
}

// Len reports how many errors have been accumulated.
func (c *Compound) Len() int {
	if c.errs == nil {
		return 0
	}
	return len(c.errs.Errors)
}

// Err returns nil if no errors were accumulated, the single error if exactly
// one was, or a classified KindCompound *Error wrapping all of them.
func (c *Compound) Err() error {
	if c.errs == nil || len(c.errs.Errors) == 0 {
		return nil
	}
	if len(c.errs.Errors) == 1 {
		return c.errs.Errors[0]
	}
	return New(KindCompound, "", c.errs.ErrorOrNil())
}

// Errors returns the flattened list of accumulated errors. Nested
// *Compound/multierror values are flattened one level, matching spec.md
// §7's "compound errors are flattened before printing".
func (c *Compound) Errors() []error {
	if c.errs == nil {
		return nil
	}
	out := make([]error, 0, len(c.errs.Errors))
	for _, e := range c.errs.Errors {
		if inner, ok := e.(*multierror.Error); ok {
			out = append(out, inner.Errors...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Result is the explicit success / success-with-non-fatals / fatal
// discriminated union described in spec.md §9 ("Exceptions / panics →
// result discriminated unions"). T is typically a pointer or slice type;
// the zero value of T is meaningless when Fatal != nil.
type Result[T any] struct {
	Value    T
	NonFatal *Compound
	Fatal    error
}

// Ok wraps a clean success.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// OkWithNonFatals wraps a success alongside accumulated non-fatal errors.
func OkWithNonFatals[T any](v T, nonFatal *Compound) Result[T] {
	return Result[T]{Value: v, NonFatal: nonFatal}
}

// FatalErr wraps a fatal abort. T's zero value is carried for convenience
// but must not be inspected by callers.
func FatalErr[T any](err error) Result[T] {
	return Result[T]{Fatal: err}
}

// IsFatal reports whether r represents a fatal abort.
func (r Result[T]) IsFatal() bool { return r.Fatal != nil }

// HasNonFatals reports whether r carries any accumulated non-fatal errors.
func (r Result[T]) HasNonFatals() bool {
	return r.NonFatal != nil && r.NonFatal.Len() > 0
}

// Unwrap returns (value, error) collapsing the three shapes into the
// conventional Go pair: Fatal takes priority, then the non-fatal compound
// (still usable alongside a valid Value), then a clean success.
func (r Result[T]) Unwrap() (T, error) {
	if r.Fatal != nil {
		return r.Value, r.Fatal
	}
	if r.HasNonFatals() {
		return r.Value, r.NonFatal.Err()
	}
	return r.Value, nil
}
