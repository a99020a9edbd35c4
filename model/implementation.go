package model

import (
	"fmt"

	"github.com/launchpath/injector/version"
)

// Stability is the declared maturity of an implementation. Higher values
// rank higher when ordering candidates.
type Stability int

const (
	Insecure Stability = iota
	Buggy
	Developer
	Testing
	Stable
	// Preferred marks a version the user has explicitly pinned; it
	// outranks everything a feed can declare.
	Preferred
)

var stabilityNames = map[Stability]string{
	Insecure:  "insecure",
	Buggy:     "buggy",
	Developer: "developer",
	Testing:   "testing",
	Stable:    "stable",
	Preferred: "preferred",
}

func (s Stability) String() string {
	if name, ok := stabilityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stability(%d)", int(s))
}

// ParseStability maps a feed stability attribute to its rank.
func ParseStability(s string) (Stability, error) {
	for rank, name := range stabilityNames {
		if name == s {
			return rank, nil
		}
	}
	return 0, fmt.Errorf("unknown stability %q", s)
}

// Command is a named entry point on an implementation. It carries its own
// dependencies and bindings, independent of the implementation's.
type Command struct {
	Name     string
	Path     string
	Requires []Dependency
	Bindings []Binding
}

// Binding describes how a chosen implementation is made visible to the
// program, e.g. through an environment variable. A binding whose Command
// field names a command on the same implementation makes that command
// implicitly required.
type Binding struct {
	// Kind is the binding element name, e.g. "environment" or
	// "executable-in-var".
	Kind string

	// Name is the variable or path being bound.
	Name string

	// Insert is the path inserted into the variable, for environment
	// bindings.
	Insert string

	// Mode is "prepend", "append" or "replace" for environment bindings.
	Mode string

	// Command names a command on the bound implementation. For bindings
	// on an implementation's own list this is a self-binding.
	Command string
}

// Implementation is one candidate for a role: a concrete versioned
// component. Implementations are owned by the provider and are never
// mutated by the solver.
type Implementation struct {
	// ID uniquely identifies the implementation within its feed,
	// typically a content digest or an absolute path.
	ID string

	Version   version.Version
	Stability Stability

	// OS and Machine restrict where the implementation runs. Empty
	// means any.
	OS      string
	Machine string

	// FromFeed is the URI of the feed that declared the implementation.
	FromFeed string

	// Main is the default executable, relative to the unpacked root.
	// Superseded by an explicit "run" command when one is present.
	Main string

	// SelfTest is the executable used by the test command shorthand.
	SelfTest string

	// Attrs holds any further feed attributes not modelled explicitly.
	Attrs map[string]string

	Commands map[string]*Command
	Requires []Dependency
	Bindings []Binding

	// Digests are the content digests used for integrity checking.
	Digests []string

	// placeholder marks the synthetic stand-in used by closest-match
	// solving; it meets every restriction and has no dependencies.
	placeholder bool
}

// String returns "id (version)" for log and error messages.
func (i *Implementation) String() string {
	if i.placeholder {
		return "(no implementation)"
	}
	return fmt.Sprintf("%s (%s)", i.ID, i.Version)
}

// IsPlaceholder reports whether i is the closest-match stand-in.
func (i *Implementation) IsPlaceholder() bool { return i.placeholder }

// Command returns the named command, or nil.
func (i *Implementation) Command(name string) *Command {
	if i.Commands == nil {
		return nil
	}
	return i.Commands[name]
}

var placeholderImpl = &Implementation{placeholder: true}

// Placeholder returns the distinguished placeholder implementation. It
// satisfies every restriction, exposes no dependencies, and stands in for
// unresolved roles in closest-match results. It never appears in a
// successful strict result.
func Placeholder() *Implementation { return placeholderImpl }

// Satisfies reports whether impl meets every restriction in rs. The
// placeholder satisfies everything unconditionally.
func Satisfies(impl *Implementation, rs []Restriction) bool {
	if impl.placeholder {
		return true
	}
	for _, r := range rs {
		if !r.Meets(impl) {
			return false
		}
	}
	return true
}
