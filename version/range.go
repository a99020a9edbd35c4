package version

import "strings"

// Range is a version constraint: either a half-open interval
// NotBefore <= v < Before (either bound may be absent), or an exact
// single-version match. The zero Range matches every version.
type Range struct {
	NotBefore Version // inclusive lower bound; zero = unbounded
	Before    Version // exclusive upper bound; zero = unbounded
	exact     bool    // match NotBefore only
}

// Exactly returns a Range matching only v.
func Exactly(v Version) Range {
	return Range{NotBefore: v, exact: true}
}

// IsExact reports whether the range matches a single version, given as
// its NotBefore bound.
func (r Range) IsExact() bool { return r.exact }

// Contains reports whether v falls inside the range.
func (r Range) Contains(v Version) bool {
	if r.exact {
		return Compare(v, r.NotBefore) == 0
	}
	if !r.NotBefore.IsZero() && Compare(v, r.NotBefore) < 0 {
		return false
	}
	if !r.Before.IsZero() && Compare(v, r.Before) >= 0 {
		return false
	}
	return true
}

// String renders the range in feed syntax: "1.2..!2", "1.2..", "..!2",
// a bare version for exact matches, or ".." for the unbounded range.
func (r Range) String() string {
	if r.exact {
		return r.NotBefore.String()
	}
	var sb strings.Builder
	if !r.NotBefore.IsZero() {
		sb.WriteString(r.NotBefore.String())
	}
	sb.WriteString("..")
	if !r.Before.IsZero() {
		sb.WriteString("!")
		sb.WriteString(r.Before.String())
	}
	return sb.String()
}

// ParseRange parses a single range expression in feed syntax.
//
//	"1.2..!3"  1.2 <= v < 3
//	"1.2.."    1.2 <= v
//	"..!3"     v < 3
//	"1.2"      exactly 1.2
func ParseRange(s string) (Range, error) {
	before, after, found := strings.Cut(s, "..")
	if !found {
		v, err := Parse(s)
		if err != nil {
			return Range{}, err
		}
		return Exactly(v), nil
	}

	var r Range
	if before != "" {
		v, err := Parse(before)
		if err != nil {
			return Range{}, err
		}
		r.NotBefore = v
	}
	if after != "" {
		rest, ok := strings.CutPrefix(after, "!")
		if !ok {
			return Range{}, &ParseError{Version: s, Message: "upper bound must start with '!'"}
		}
		v, err := Parse(rest)
		if err != nil {
			return Range{}, err
		}
		r.Before = v
	}
	return r, nil
}
