package solve

import (
	"fmt"
	"strings"

	"github.com/launchpath/injector/model"
)

// Explain describes why a role resolved the way it did: the chosen
// implementation, or every candidate that was considered and the reason
// it was ruled out. The role must be part of the result; Explain
// returns a short note otherwise.
func Explain(res *Result, role model.Role) string {
	sel := res.Selection(role)
	if sel == nil {
		return fmt.Sprintf("%s was not considered during this solve", role)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", sel.Role)

	if !sel.Unresolved() {
		fmt.Fprintf(&b, "  selected %s\n", sel.Impl)
	} else {
		b.WriteString("  no usable implementation\n")
	}

	for _, r := range sel.Restrictions {
		fmt.Fprintf(&b, "  restriction: %s\n", r)
	}

	if len(sel.Rejects) == 0 {
		if sel.Unresolved() {
			b.WriteString("  no known implementations at all\n")
		}
		return b.String()
	}

	b.WriteString("  rejected candidates:\n")
	for _, rej := range sel.Rejects {
		fmt.Fprintf(&b, "    %s: %s\n", rej.Impl, rej.Reason)
	}
	return b.String()
}

// FailureReport renders a multi-line account of why a solve is not
// ready, covering every unresolved role. The result should come from a
// closest-match solve so the diagnostic state is complete. When offline
// is set, the report notes that missing candidates may be a consequence
// of the network being disabled.
func FailureReport(res *Result, offline bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Can't find all required implementations:\n")

	// Root role first, then the rest in role order.
	roles := []model.Role{}
	if root := res.RootSelection(); root != nil {
		roles = append(roles, root.Role)
	}
	for _, role := range res.Roles() {
		if len(roles) > 0 && role == roles[0] {
			continue
		}
		roles = append(roles, role)
	}

	for _, role := range roles {
		sel := res.Selection(role)
		if sel.Unresolved() {
			b.WriteString(indent(Explain(res, role)))
		} else {
			fmt.Fprintf(&b, "  %s: %s\n", sel.Role, sel.Impl)
		}
	}

	if offline {
		b.WriteString("This may be because the network is set to off-line.\n")
	}
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n") + "\n"
}
