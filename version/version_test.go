package version

import (
	"slices"
	"testing"
)

func TestCompare(t *testing.T) {
	// Each version must sort strictly before the next one.
	ordered := []string{
		"0",
		"0.1",
		"0.9.9",
		"1-pre",
		"1-pre1",
		"1-rc",
		"1-rc2",
		"1",
		"1-1",
		"1-post",
		"1-post1",
		"1.0",
		"1.2-pre3",
		"1.2",
		"1.2.0",
		"1.10",
		"2",
		"10",
	}

	for i := 0; i < len(ordered)-1; i++ {
		a, b := MustParse(ordered[i]), MustParse(ordered[i+1])
		if got := Compare(a, b); got != -1 {
			t.Errorf("Compare(%q, %q) = %d, want -1", ordered[i], ordered[i+1], got)
		}
		if got := Compare(b, a); got != 1 {
			t.Errorf("Compare(%q, %q) = %d, want 1", ordered[i+1], ordered[i], got)
		}
	}

	for _, s := range ordered {
		v := MustParse(s)
		if got := Compare(v, v); got != 0 {
			t.Errorf("Compare(%q, %q) = %d, want 0", s, s, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"-1",
		"1.",
		".1",
		"1..2",
		"1.2-beta",
		"1.2-pre.x",
		"hello",
	}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}

func TestString(t *testing.T) {
	for _, s := range []string{"1", "1.2-pre3", "0.4-post", "1-rc1-2"} {
		if got := MustParse(s).String(); got != s {
			t.Errorf("String() = %q, want %q", got, s)
		}
	}
}

func TestSort(t *testing.T) {
	vs := []Version{
		MustParse("2"),
		MustParse("1-pre"),
		MustParse("1.2"),
		MustParse("1"),
	}
	Sort(vs)

	got := make([]string, len(vs))
	for i, v := range vs {
		got[i] = v.String()
	}
	want := []string{"1-pre", "1", "1.2", "2"}
	if !slices.Equal(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}

func TestMax(t *testing.T) {
	a, b := MustParse("1.2"), MustParse("1.10")
	if got := Max(a, b); Compare(got, b) != 0 {
		t.Errorf("Max(1.2, 1.10) = %s, want 1.10", got)
	}
}

func TestRangeContains(t *testing.T) {
	tests := []struct {
		expr    string
		version string
		want    bool
	}{
		{"1.2..!3", "1.2", true},
		{"1.2..!3", "2.9", true},
		{"1.2..!3", "3", false},
		{"1.2..!3", "1.1", false},
		{"1.2..", "99", true},
		{"1.2..", "1.1", false},
		{"..!3", "2.9", true},
		{"..!3", "3", false},
		{"..", "0.1", true},
		{"1.2", "1.2", true},
		{"1.2", "1.2.0", false},
		{"..!2", "2-pre", true}, // pre-releases sort below the release
	}

	for _, tt := range tests {
		r, err := ParseRange(tt.expr)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tt.expr, err)
		}
		if got := r.Contains(MustParse(tt.version)); got != tt.want {
			t.Errorf("%q.Contains(%q) = %v, want %v", tt.expr, tt.version, got, tt.want)
		}
	}
}

func TestRangeString(t *testing.T) {
	for _, expr := range []string{"1.2..!3", "1.2..", "..!3", "..", "1.2"} {
		r, err := ParseRange(expr)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", expr, err)
		}
		if got := r.String(); got != expr {
			t.Errorf("ParseRange(%q).String() = %q", expr, got)
		}
	}
}

func TestRangeParseErrors(t *testing.T) {
	for _, expr := range []string{"1.2..3", "..!x", "x..", "1.2..!"} {
		if _, err := ParseRange(expr); err == nil {
			t.Errorf("ParseRange(%q) succeeded, want error", expr)
		}
	}
}
