package model

// Requirement is the root query: run an interface, or run one of its
// commands. Built once per solve from caller input.
type Requirement struct {
	// Interface is the URI of the program to run.
	Interface string

	// Command is the entry point wanted on the root implementation.
	// Empty means the caller wants the interface itself with no
	// particular command ("run role" form).
	Command string

	// Source selects a source implementation for the root role.
	Source bool

	// ExtraRestrictions adds caller-supplied restrictions per interface
	// URI (e.g. command-line version pins). They are merged into every
	// candidate check for the matching role.
	ExtraRestrictions map[string][]Restriction

	// OS and Machine override the host values in the scope filter.
	// Empty means use the host.
	OS      string
	Machine string
}

// Role returns the root resolution slot.
func (r Requirement) Role() Role {
	return Role{Interface: r.Interface, Source: r.Source}
}

func (r Requirement) String() string {
	if r.Command != "" {
		return "run command " + r.Command + " of " + r.Role().String()
	}
	return "run " + r.Role().String()
}
