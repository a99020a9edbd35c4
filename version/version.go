// Package version implements parsing and comparison of feed implementation
// versions.
//
// Version format: DOTTEDLIST("-"MODIFIER DOTTEDLIST?)*
//   - DOTTEDLIST: dot-separated non-negative integers ("1.2.0")
//   - MODIFIER: "pre", "rc", "post", or empty (a plain "-")
//
// Versions form a total order. At equal leading components, modifiers rank
// pre < rc < (none) < post, so "1.0-pre1" < "1.0-rc2" < "1.0" < "1.0-post".
// There is no limit on the number of components.
package version

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// Modifier ranks. A version ending in a dotted list carries an implicit
// trailing modifier of rank modNone, which is what makes a release sort
// above its own pre-releases and below its post-releases.
const (
	modPre  = -2
	modRC   = -1
	modNone = 0
	modPost = 1
)

var modifierNames = map[string]int{
	"pre":  modPre,
	"rc":   modRC,
	"":     modNone,
	"post": modPost,
}

// segment is one element of the alternating parse sequence: either a
// dotted integer list or a modifier rank.
type segment struct {
	isMod bool
	mod   int
	ints  []uint64
}

// Version is a parsed, comparable version value.
//
// The zero Version is not valid; use Parse or MustParse.
type Version struct {
	raw string
	seq []segment
}

// ParseError reports a version string that does not match the grammar.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + strconv.Quote(e.Version) + ": " + e.Message
}

// Parse parses a version string.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, &ParseError{Version: s, Message: "empty string"}
	}

	parts := strings.Split(s, "-")

	var seq []segment
	for i, part := range parts {
		if i > 0 {
			// Split a leading modifier name off the dotted list.
			name := part
			rest := ""
			if n := strings.IndexFunc(part, isDigit); n >= 0 {
				name, rest = part[:n], part[n:]
			}
			mod, ok := modifierNames[name]
			if !ok {
				return Version{}, &ParseError{Version: s, Message: "unknown modifier " + strconv.Quote(name)}
			}
			seq = append(seq, segment{isMod: true, mod: mod})
			part = rest
		}

		ints, err := parseDotted(part, i == 0)
		if err != nil {
			return Version{}, &ParseError{Version: s, Message: err.Error()}
		}
		seq = append(seq, segment{ints: ints})
	}

	// Implicit trailing modifier: "1.0" compares as if it were "1.0-".
	seq = append(seq, segment{isMod: true, mod: modNone})

	return Version{raw: s, seq: seq}, nil
}

// MustParse is like Parse but panics on malformed input. For use with
// literals in tests and tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseDotted(s string, required bool) ([]uint64, error) {
	if s == "" {
		if required {
			return nil, errors.New("missing leading version components")
		}
		// A bare modifier ("1.0-post") has an empty dotted list, which
		// sorts below any non-empty one.
		return nil, nil
	}
	parts := strings.Split(s, ".")
	ints := make([]uint64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, errors.New("not an integer: " + strconv.Quote(p))
		}
		ints = append(ints, n)
	}
	return ints, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// String returns the original version string.
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the invalid zero Version.
func (v Version) IsZero() bool { return v.seq == nil }

// Compare returns -1, 0 or 1 ordering v against w.
//
// The parse sequences of two versions alternate dotted lists and modifier
// ranks in lockstep, so they can be compared elementwise. A version whose
// sequence is a strict prefix of another's sorts first.
func Compare(v, w Version) int {
	a, b := v.seq, w.seq
	for i := 0; i < len(a) && i < len(b); i++ {
		var c int
		if a[i].isMod {
			c = cmpInt(a[i].mod, b[i].mod)
		} else {
			c = cmpDotted(a[i].ints, b[i].ints)
		}
		if c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

// Compare orders v against w; see the package-level Compare.
func (v Version) Compare(w Version) int { return Compare(v, w) }

// Before reports whether v sorts strictly before w.
func (v Version) Before(w Version) bool { return Compare(v, w) < 0 }

func cmpDotted(a, b []uint64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return cmpInt(len(a), len(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Sort sorts versions ascending, in place.
func Sort(versions []Version) {
	slices.SortFunc(versions, Compare)
}

// Max returns the higher of two versions.
func Max(a, b Version) Version {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
