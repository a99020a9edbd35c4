// Package solve implements the implementation selection algorithm.
//
// Given a root requirement and a Provider of ranked candidates per role,
// the solver searches for an assignment of one implementation per
// required role such that every essential dependency is satisfied and no
// restriction is violated, preferring higher-ranked candidates.
//
// The search is best-first with chronological backtracking over an
// explicit stack of decision points, so it never recurses on the call
// stack and the explored state can be bounded and inspected. Cycles in
// the role graph are handled by reusing a role's in-progress tentative
// choice on re-entry.
//
// Two modes exist. Strict solving fails when any role on the essential
// closure has no consistent candidate. Closest-match solving runs the
// same search but fills such roles with a placeholder implementation and
// always terminates with a result; it exists purely to collect the
// diagnostic state used to explain failures.
package solve
