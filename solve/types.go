package solve

import (
	"errors"
	"slices"

	"github.com/launchpath/injector/model"
)

// ErrUnsatisfiable is returned by strict solving when no consistent
// selection exists. It is an expected outcome, not a failure of the
// solver itself: callers should re-solve in closest-match mode and
// render an explanation.
var ErrUnsatisfiable = errors.New("no consistent selection exists")

// Reject records a candidate that was ruled out for a role, and why.
type Reject struct {
	Impl   *model.Implementation
	Reason string
}

// Candidates is a provider's answer for one role.
type Candidates struct {
	// Replacement, when set, redirects the role to another interface
	// (interface deprecation/aliasing). A replacement naming the role
	// itself is malformed and is ignored.
	Replacement *model.Role

	// Impls are the usable candidates, ranked best-first. The ranking
	// must be a total preorder so solving is deterministic.
	Impls []*model.Implementation

	// Rejects are candidates the provider ruled out (wrong
	// architecture, poor stability, offline), kept for diagnostics.
	Rejects []Reject
}

// Provider supplies candidate implementations to the solver. A Provider
// must answer as a pure function of the scope filter bound at its
// construction: the solver calls it repeatedly and assumes stable
// answers for the same role within one solve.
type Provider interface {
	// Candidates returns the ranked candidates for a role.
	Candidates(role model.Role) *Candidates

	// IsDepNeeded reports whether a dependency applies under the
	// current scope filter (use flags, active commands).
	IsDepNeeded(dep *model.Dependency) bool

	// UserRestrictions returns caller-supplied extra restrictions for a
	// role, merged into every candidate check.
	UserRestrictions(role model.Role) []model.Restriction
}

// Selection is the solved outcome for one role: the chosen
// implementation (or the placeholder, meaning unresolved), the chosen
// command names, and the diagnostic state retained for explanations.
// Selections are read-only once the solve returns.
type Selection struct {
	Role model.Role

	// Impl is the chosen implementation. In closest-match results it
	// may be the placeholder.
	Impl *model.Implementation

	// Commands are the chosen command names, sorted.
	Commands []string

	// Rejects lists every candidate ruled out for this role, provider
	// rejects first, then solver rejections in discovery order.
	Rejects []Reject

	// Restrictions describes the restrictions that were active against
	// this role at solve time, with their origins.
	Restrictions []string
}

// Unresolved reports whether the role ended up with the placeholder.
func (s *Selection) Unresolved() bool {
	return s.Impl == nil || s.Impl.IsPlaceholder()
}

// Result is the outcome of one solve: the root requirement, the
// role-to-selection map, and the provider (needed later for rendering
// and explanation). A role appears at most once; roles redirected by a
// replacement share one Selection with their replacement.
type Result struct {
	Requirement model.Requirement
	Provider    Provider

	// Ready reports whether the selection set is complete and
	// consistent: true for successful strict solves, false whenever a
	// placeholder was needed.
	Ready bool

	selections map[model.Role]*Selection
	canonical  map[model.Role]model.Role
}

// Selection returns the selection for a role, following replacement
// aliases, or nil if the role is not part of the result.
func (r *Result) Selection(role model.Role) *Selection {
	if c, ok := r.canonical[role]; ok {
		role = c
	}
	return r.selections[role]
}

// RootSelection returns the selection for the root requirement's role.
func (r *Result) RootSelection() *Selection {
	return r.Selection(r.Requirement.Role())
}

// Roles returns the distinct resolved roles in ascending role order.
// Aliased roles are reported once, under their canonical name.
func (r *Result) Roles() []model.Role {
	roles := make([]model.Role, 0, len(r.selections))
	for role := range r.selections {
		roles = append(roles, role)
	}
	slices.SortFunc(roles, model.Role.Compare)
	return roles
}
