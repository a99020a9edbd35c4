package model

import (
	"fmt"

	"github.com/launchpath/injector/version"
)

// Restriction is a predicate over candidate implementations. The solver
// treats restrictions as opaque: it only asks whether an implementation
// meets them and renders their description in diagnostics.
type Restriction interface {
	// Meets reports whether impl is acceptable.
	Meets(impl *Implementation) bool

	// String describes the restriction for humans, e.g. "version 1.2..!3".
	String() string
}

// VersionRestriction limits the candidate's version to a range.
type VersionRestriction struct {
	Range version.Range
}

// Meets reports whether impl's version falls inside the range.
func (v VersionRestriction) Meets(impl *Implementation) bool {
	return v.Range.Contains(impl.Version)
}

func (v VersionRestriction) String() string {
	return "version " + v.Range.String()
}

// IDRestriction pins the candidate to one implementation id, used for
// caller-supplied overrides.
type IDRestriction struct {
	ID string
}

// Meets reports whether impl has the pinned id.
func (p IDRestriction) Meets(impl *Implementation) bool {
	return impl.ID == p.ID
}

func (p IDRestriction) String() string {
	return fmt.Sprintf("id %s", p.ID)
}
