package model

import (
	"fmt"
	"strings"
)

// The engine distinguishes three deterministic fault classes. Construction
// errors surface while a template is being declared, resolution errors on
// first use of a named reference, cycle errors during a render pass. None of
// them is transient; all indicate a template-definition defect. Exhaustion of
// a mutation space is not an error.

// BuildError reports invalid parameters at template-build time.
type BuildError struct {
	Field  string
	Reason string
}

func (e *BuildError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("build: %s", e.Reason)
	}

	return fmt.Sprintf("build %q: %s", e.Field, e.Reason)
}

// NewBuildError constructs a BuildError for the given field.
func NewBuildError(field, format string, args ...any) *BuildError {
	return &BuildError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ResolveError reports a field name that no enclosing container can see.
type ResolveError struct {
	Requester string
	Name      string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve: no field named %q visible from %q", e.Name, e.Requester)
}

// CycleError reports a dependent field reachable from itself during a render
// pass. Path lists the in-progress render targets from the first occurrence
// of the offending field back to itself.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("render cycle: %s", strings.Join(e.Path, " -> "))
}

// StateMismatchError reports a persisted session whose template hash does not
// match the freshly constructed tree. Such a session must be rejected, never
// silently misapplied.
type StateMismatchError struct {
	Stored uint64
	Fresh  uint64
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("session state was recorded for template %#x, current template is %#x", e.Stored, e.Fresh)
}
