package model

import "fmt"

// Importance classifies how strongly a dependency binds.
type Importance int

const (
	// Essential dependencies must be satisfiable or the assignment is
	// invalid.
	Essential Importance = iota

	// Recommended dependencies are satisfied opportunistically; failing
	// to satisfy one never invalidates an assignment.
	Recommended

	// Restricts is not a real dependency: it only narrows the candidate
	// set of the target role and never pulls the role into the active
	// set by itself.
	Restricts
)

func (i Importance) String() string {
	switch i {
	case Essential:
		return "essential"
	case Recommended:
		return "recommended"
	case Restricts:
		return "restricts"
	}
	return fmt.Sprintf("importance(%d)", int(i))
}

// ParseImportance maps a feed importance attribute to its class.
// The empty string means essential, matching feed defaults.
func ParseImportance(s string) (Importance, error) {
	switch s {
	case "", "essential":
		return Essential, nil
	case "recommended":
		return Recommended, nil
	case "restricts":
		return Restricts, nil
	}
	return 0, fmt.Errorf("unknown importance %q", s)
}

// Dependency is one edge in the requirement graph: the depending
// implementation (or command) needs some implementation of Interface,
// narrowed by Restrictions.
type Dependency struct {
	// Interface is the target interface URI.
	Interface string

	// Source selects the source variant of the target interface.
	Source bool

	Restrictions []Restriction
	Importance   Importance

	// RequiredCommands names commands that must exist on whichever
	// implementation is chosen for the target role.
	RequiredCommands []string

	// UseFlags gate the dependency: it only applies when every flag it
	// names is enabled in the scope filter (e.g. "testing").
	UseFlags []string
}

// Role returns the resolution slot this dependency targets.
func (d *Dependency) Role() Role {
	return Role{Interface: d.Interface, Source: d.Source}
}

func (d *Dependency) String() string {
	return fmt.Sprintf("%s on %s", d.Importance, d.Role())
}
