// Package model defines the data model shared by the feed layer, the
// candidate providers and the solver: roles, implementations, commands,
// dependencies and restrictions.
package model

import (
	"fmt"
	"net/url"
	"strings"
)

// Role identifies one resolution slot: an interface URI plus whether the
// caller wants source rather than a binary. Roles are immutable value
// types and are used as map keys; the same role always names the same
// slot within a solve.
type Role struct {
	// Interface is the URI of the interface being resolved.
	Interface string

	// Source selects source implementations instead of binaries.
	Source bool
}

// String returns "uri" or "uri (source)".
func (r Role) String() string {
	if r.Source {
		return r.Interface + " (source)"
	}
	return r.Interface
}

// Compare orders roles by interface URI, then binary before source.
// The order is total, which keeps rendered output stable.
func (r Role) Compare(o Role) int {
	if c := strings.Compare(r.Interface, o.Interface); c != 0 {
		return c
	}
	switch {
	case r.Source == o.Source:
		return 0
	case o.Source:
		return -1
	}
	return 1
}

// Less reports whether r sorts before o.
func (r Role) Less(o Role) bool { return r.Compare(o) < 0 }

// ValidateInterface checks that uri is usable as an interface identifier:
// an absolute http(s) URL or an absolute filesystem path.
func ValidateInterface(uri string) error {
	if uri == "" {
		return fmt.Errorf("empty interface URI")
	}
	if strings.HasPrefix(uri, "/") {
		return nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("interface URI %q: %w", uri, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("interface URI %q: scheme must be http or https, or the URI an absolute path", uri)
	}
	if u.Host == "" {
		return fmt.Errorf("interface URI %q: missing host", uri)
	}
	return nil
}
