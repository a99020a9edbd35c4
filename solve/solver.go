package solve

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/launchpath/injector/model"
)

// DefaultMaxRoles bounds the number of decision points one solve may
// explore. The role space is finite, so the bound only triggers on
// malformed metadata; the solver then fails closed.
const DefaultMaxRoles = 1000

// Solver runs the selection search. The zero value is not usable;
// construct with New.
type Solver struct {
	provider Provider
	logger   *slog.Logger
	maxRoles int
}

// New returns a solver over the given provider. A nil logger disables
// logging.
func New(provider Provider, logger *slog.Logger, maxRoles int) *Solver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxRoles <= 0 {
		maxRoles = DefaultMaxRoles
	}
	return &Solver{provider: provider, logger: logger, maxRoles: maxRoles}
}

// Solve runs a strict solve: it returns a complete, consistent Result or
// ErrUnsatisfiable. Callers should fall back to SolveClosest for
// diagnostics before reporting failure.
func (s *Solver) Solve(req model.Requirement) (*Result, error) {
	search := s.newSearch(req, false)
	res, err := search.run()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SolveClosest runs a closest-match solve. It always returns a Result,
// substituting the placeholder implementation for any role strict
// solving could not fill. The result is diagnostic data, never a
// runnable selection unless Ready is true.
func (s *Solver) SolveClosest(req model.Requirement) *Result {
	search := s.newSearch(req, true)
	res, err := search.run()
	if err != nil {
		// Closest-match never reports unsatisfiable.
		panic("solve: closest-match search failed: " + err.Error())
	}
	return res
}

// decision is one point on the search stack: a role, the ranked
// candidates for it, and how far through them the search has tried.
type decision struct {
	role    model.Role   // canonical role, after replacement redirects
	aliases []model.Role // every role name that maps here, canonical included

	cands    *Candidates
	userRest []model.Restriction // user restrictions over all aliases

	// local are constraints attached to the decision itself rather than
	// to another decision's choice. They survive candidate retries and
	// are discarded with the decision point.
	local     []activeRestriction
	extraCmds []string

	tried    int // index of the next candidate to try
	chosen   *model.Implementation
	optional bool // demanded only by a recommended edge

	// lenAtDecide is the stack length captured when the current choice
	// was made, so its pushes can be rolled back.
	lenAtDecide int
}

// activeRestriction is a restriction currently in force against a role,
// tagged with the decision that imposed it so backtracking can retract
// it. origin -1 marks root/user restrictions, which are never retracted.
type activeRestriction struct {
	origin int
	source string
	r      model.Restriction
}

// commandReq requires a named command on whatever implementation is
// chosen for a role.
type commandReq struct {
	origin int
	name   string
}

// optionalDemand is a recommended edge waiting for the opportunistic
// phase.
type optionalDemand struct {
	role   model.Role
	origin int
	source string
	dep    model.Dependency
}

// roleDiag accumulates diagnostic state for one canonical role across
// the whole search. Unlike the constraint tables it is never rolled
// back: rejections remain visible for explanations.
type roleDiag struct {
	solverRejects []Reject
}

type search struct {
	solver  *Solver
	closest bool
	req     model.Requirement

	stack []*decision
	index map[model.Role]int // every alias -> stack position

	restrictions map[model.Role][]activeRestriction
	commandReqs  map[model.Role][]commandReq
	pending      []optionalDemand

	diags map[model.Role]*roleDiag
}

func (s *Solver) newSearch(req model.Requirement, closest bool) *search {
	return &search{
		solver:       s,
		closest:      closest,
		req:          req,
		index:        make(map[model.Role]int),
		restrictions: make(map[model.Role][]activeRestriction),
		commandReqs:  make(map[model.Role][]commandReq),
		diags:        make(map[model.Role]*roleDiag),
	}
}

func (s *search) run() (*Result, error) {
	rootPos, _ := s.demand(s.req.Role(), -1, false)
	if s.req.Command != "" {
		root := s.stack[rootPos]
		s.commandReqs[root.role] = append(s.commandReqs[root.role],
			commandReq{origin: -1, name: s.req.Command})
	}

	// Phase 1: the essential closure.
	if err := s.solveRange(0, 0); err != nil {
		return nil, err
	}

	// Phase 2: recommended roles, opportunistically. A subtree that
	// cannot be completed is abandoned wholesale; it never disturbs the
	// essential assignment.
	for i := 0; i < len(s.pending); i++ {
		od := s.pending[i]
		if _, active := s.index[od.role]; active {
			continue
		}
		floor := len(s.stack)
		pos, conflict := s.demand(od.role, od.origin, true)
		if pos < floor {
			if conflict != "" {
				s.solver.logger.Warn("recommended role conflicts with existing selection",
					"role", od.role.String(), "conflict", conflict)
			}
			continue // replacement redirected to an active role
		}
		dp := s.stack[pos]
		for _, r := range od.dep.Restrictions {
			dp.local = append(dp.local, activeRestriction{origin: od.origin, source: od.source, r: r})
		}
		dp.extraCmds = append(dp.extraCmds, od.dep.RequiredCommands...)

		// Closest-match fills a failed subtree with placeholders instead
		// of erroring, so completion has to be checked, not just the
		// error.
		if err := s.solveRange(floor, floor); err != nil || !s.subtreeComplete(floor) {
			s.truncate(floor)
			s.solver.logger.Debug("recommended role abandoned",
				"role", od.role.String(), "wanted by", od.source)
		}
	}

	return s.buildResult(), nil
}

// solveRange decides every point from pc onward, backtracking no further
// than floor. Decisions below floor are never touched.
func (s *search) solveRange(pc, floor int) error {
	for pc < len(s.stack) {
		if len(s.stack) > s.solver.maxRoles {
			if s.closest {
				s.solver.logger.Warn("role limit exceeded, filling with placeholders",
					"limit", s.solver.maxRoles)
				s.fillPlaceholders()
				return nil
			}
			return fmt.Errorf("while solving %s: explored more than %d roles: %w",
				s.req, s.solver.maxRoles, ErrUnsatisfiable)
		}

		dp := s.stack[pc]
		if s.decide(pc) {
			pc++
			continue
		}

		if s.closest {
			dp.chosen = model.Placeholder()
			dp.lenAtDecide = len(s.stack)
			pc++
			continue
		}

		b := s.findBacktrack(pc, floor)
		if b < 0 {
			return fmt.Errorf("while solving %s: no candidate left for %s: %w",
				s.req, dp.role, ErrUnsatisfiable)
		}
		s.backtrackTo(b)
		pc = b
	}
	return nil
}

// decide picks the highest-ranked consistent candidate for the decision
// at position pc and propagates its dependency edges. It returns false
// when no candidate works, leaving rejection reasons in the role's
// diagnostics.
func (s *search) decide(pc int) bool {
	dp := s.stack[pc]
	dp.lenAtDecide = len(s.stack)
	diag := s.diag(dp.role)

	for dp.tried < len(dp.cands.Impls) {
		c := dp.cands.Impls[dp.tried]
		dp.tried++

		if reason, ok := s.check(dp, c); !ok {
			diag.solverRejects = append(diag.solverRejects, Reject{Impl: c, Reason: reason})
			continue
		}

		dp.chosen = c
		if conflict := s.propagate(pc, c); conflict != "" {
			diag.solverRejects = append(diag.solverRejects, Reject{Impl: c, Reason: conflict})
			s.rollbackChoice(pc)
			continue
		}

		s.solver.logger.Debug("selected", "role", dp.role.String(), "impl", c.String())
		return true
	}
	return false
}

// check tests a candidate against every restriction and command
// requirement currently active for the decision's role.
func (s *search) check(dp *decision, c *model.Implementation) (reason string, ok bool) {
	if !model.Satisfies(c, dp.userRest) {
		for _, r := range dp.userRest {
			if !r.Meets(c) {
				return fmt.Sprintf("user requires %s", r), false
			}
		}
	}
	for _, ar := range dp.local {
		if !model.Satisfies(c, []model.Restriction{ar.r}) {
			return fmt.Sprintf("%s requires %s", ar.source, ar.r), false
		}
	}
	for _, alias := range dp.aliases {
		for _, ar := range s.restrictions[alias] {
			if !model.Satisfies(c, []model.Restriction{ar.r}) {
				return fmt.Sprintf("%s requires %s", ar.source, ar.r), false
			}
		}
	}
	for _, name := range s.requiredCommands(dp, c) {
		if c.Command(name) == nil {
			return fmt.Sprintf("no %q command", name), false
		}
	}
	return "", true
}

// requiredCommands returns the union of the command names required of a
// role's implementation: requirements imposed by edges (and the root),
// closed over self-bindings that designate further commands on the same
// implementation.
func (s *search) requiredCommands(dp *decision, c *model.Implementation) []string {
	need := make(map[string]bool)
	var queue []string
	add := func(name string) {
		if name != "" && !need[name] {
			need[name] = true
			queue = append(queue, name)
		}
	}

	for _, alias := range dp.aliases {
		for _, cr := range s.commandReqs[alias] {
			add(cr.name)
		}
	}
	for _, name := range dp.extraCmds {
		add(name)
	}
	for _, b := range c.Bindings {
		add(b.Command)
	}

	// A required command's own bindings may designate more commands on
	// the same implementation.
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		cmd := c.Command(name)
		if cmd == nil {
			continue // reported by check
		}
		for _, b := range cmd.Bindings {
			add(b.Command)
		}
	}

	names := make([]string, 0, len(need))
	for name := range need {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// propagate applies the dependency edges of a freshly-chosen
// implementation. It returns a non-empty conflict description if the
// choice contradicts an already-decided role.
func (s *search) propagate(pc int, c *model.Implementation) string {
	dp := s.stack[pc]
	source := fmt.Sprintf("%s (%s)", dp.role, c)

	edges := slices.Clone(c.Requires)
	for _, name := range s.requiredCommands(dp, c) {
		if cmd := c.Command(name); cmd != nil {
			edges = append(edges, cmd.Requires...)
		}
	}

	for i := range edges {
		dep := edges[i]
		if !s.solver.provider.IsDepNeeded(&dep) {
			continue
		}
		target := dep.Role()

		switch dep.Importance {
		case model.Restricts:
			// Exclusion only: narrow the target's candidates without
			// ever pulling the role into the active set. The restriction
			// is keyed by the canonical role so a decision reached under
			// another alias still sees it.
			canonical, _, _ := s.canonicalize(target)
			s.addRestrictions(canonical, pc, source, dep.Restrictions)
			if conflict := s.checkDecided(canonical, dep.Restrictions, nil); conflict != "" {
				return conflict
			}

		case model.Essential:
			s.addRestrictions(target, pc, source, dep.Restrictions)
			s.addCommandReqs(target, pc, dep.RequiredCommands)
			if _, active := s.index[target]; !active {
				if _, conflict := s.demand(target, pc, false); conflict != "" {
					return conflict
				}
			}
			if conflict := s.checkDecided(target, dep.Restrictions, dep.RequiredCommands); conflict != "" {
				return conflict
			}

		case model.Recommended:
			s.pending = append(s.pending, optionalDemand{
				role:   target,
				origin: pc,
				source: source,
				dep:    dep,
			})
		}
	}
	return ""
}

// checkDecided re-validates an already-decided role against newly
// imposed restrictions and command requirements. Undecided roles are
// validated later, when their own decision is made; a deciding role
// re-entered through a cycle reuses its tentative choice here.
func (s *search) checkDecided(target model.Role, rs []model.Restriction, commands []string) string {
	pos, active := s.index[target]
	if !active {
		return ""
	}
	dp := s.stack[pos]
	if dp.chosen == nil {
		return ""
	}
	if !model.Satisfies(dp.chosen, rs) {
		return fmt.Sprintf("depends on %s, but selected %s does not meet %s",
			target, dp.chosen, describeAll(rs))
	}
	if !dp.chosen.IsPlaceholder() {
		for _, name := range commands {
			if dp.chosen.Command(name) == nil {
				return fmt.Sprintf("needs command %q of %s, which %s does not provide",
					name, target, dp.chosen)
			}
		}
	}
	return ""
}

// canonicalize follows replacement redirects from role to the role that
// actually gets a decision, collecting every name passed on the way. A
// self-reference or a cycle is malformed metadata: it is logged and the
// walk stops at the last sound role.
func (s *search) canonicalize(role model.Role) (canonical model.Role, aliases []model.Role, cands *Candidates) {
	aliases = []model.Role{role}
	cands = s.solver.provider.Candidates(role)

	seen := map[model.Role]bool{role: true}
	canonical = role
	for cands.Replacement != nil {
		repl := *cands.Replacement
		if repl == canonical {
			s.solver.logger.Warn("interface replaced by itself, ignoring",
				"interface", canonical.Interface)
			break
		}
		if seen[repl] {
			s.solver.logger.Warn("replacement cycle, stopping",
				"interface", repl.Interface)
			break
		}
		seen[repl] = true
		canonical = repl
		aliases = append(aliases, repl)
		cands = s.solver.provider.Candidates(repl)
	}
	return canonical, aliases, cands
}

// demand ensures a decision point exists for role, following replacement
// redirects, and returns its stack position. Demanding an already-active
// role (directly or through an alias) returns the existing position. A
// newly merged alias can carry user restrictions the existing choice was
// never tested against; the returned conflict is non-empty when the
// choice violates one of them.
func (s *search) demand(role model.Role, origin int, optional bool) (pos int, conflict string) {
	canonical, aliases, cands := s.canonicalize(role)

	if pos, ok := s.index[canonical]; ok {
		// Already active: record the new aliases against the existing
		// decision so both names resolve to the same selection.
		dp := s.stack[pos]
		var added []model.Restriction
		for _, a := range aliases {
			if _, dup := s.index[a]; !dup {
				s.index[a] = pos
				dp.aliases = append(dp.aliases, a)
				rs := s.solver.provider.UserRestrictions(a)
				dp.userRest = append(dp.userRest, rs...)
				added = append(added, rs...)
			}
		}
		if dp.chosen != nil && !model.Satisfies(dp.chosen, added) {
			for _, r := range added {
				if !r.Meets(dp.chosen) {
					return pos, fmt.Sprintf("depends on %s, but selected %s does not meet user restriction %s",
						canonical, dp.chosen, r)
				}
			}
		}
		return pos, ""
	}

	var userRest []model.Restriction
	for _, a := range aliases {
		userRest = append(userRest, s.solver.provider.UserRestrictions(a)...)
	}

	dp := &decision{
		role:     canonical,
		aliases:  aliases,
		cands:    cands,
		userRest: userRest,
		optional: optional,
	}
	pos = len(s.stack)
	s.stack = append(s.stack, dp)
	for _, a := range aliases {
		s.index[a] = pos
	}
	return pos, ""
}

func (s *search) addRestrictions(target model.Role, origin int, source string, rs []model.Restriction) {
	for _, r := range rs {
		s.restrictions[target] = append(s.restrictions[target],
			activeRestriction{origin: origin, source: source, r: r})
	}
}

func (s *search) addCommandReqs(target model.Role, origin int, names []string) {
	for _, name := range names {
		s.commandReqs[target] = append(s.commandReqs[target],
			commandReq{origin: origin, name: name})
	}
}

// findBacktrack returns the most recent decision at or above floor that
// still has untried candidates, or -1.
func (s *search) findBacktrack(pc, floor int) int {
	for p := pc - 1; p >= floor; p-- {
		dp := s.stack[p]
		if dp.chosen != nil && dp.tried < len(dp.cands.Impls) {
			return p
		}
	}
	return -1
}

// backtrackTo undoes every decision at position b or later, keeping b's
// tried counter so the next decide moves to its next-ranked candidate.
func (s *search) backtrackTo(b int) {
	for p := len(s.stack) - 1; p >= b; p-- {
		if p >= len(s.stack) {
			continue // already truncated by an inner rollback
		}
		if dp := s.stack[p]; dp.chosen != nil {
			s.rollbackChoice(p)
		}
	}
	// Decision points above b survive only if an earlier decision
	// demanded them; they restart from their best candidate.
	for p := b + 1; p < len(s.stack); p++ {
		s.stack[p].tried = 0
		s.stack[p].chosen = nil
	}
}

// rollbackChoice retracts the current choice at position p: the decision
// points it pushed, and the restrictions, command requirements and
// pending recommendations it imposed. The tried counter is kept.
func (s *search) rollbackChoice(p int) {
	dp := s.stack[p]
	s.truncate(dp.lenAtDecide)
	dp.chosen = nil

	for role, rs := range s.restrictions {
		s.restrictions[role] = slices.DeleteFunc(rs, func(ar activeRestriction) bool {
			return ar.origin == p
		})
	}
	for role, crs := range s.commandReqs {
		s.commandReqs[role] = slices.DeleteFunc(crs, func(cr commandReq) bool {
			return cr.origin == p
		})
	}
	s.pending = slices.DeleteFunc(s.pending, func(od optionalDemand) bool {
		return od.origin == p
	})
}

// truncate removes every decision point at position n or later,
// unwinding their choices and index entries.
func (s *search) truncate(n int) {
	for p := len(s.stack) - 1; p >= n; p-- {
		if p >= len(s.stack) {
			continue
		}
		dp := s.stack[p]
		if dp.chosen != nil {
			s.rollbackChoice(p)
		}
		for _, a := range dp.aliases {
			delete(s.index, a)
		}
	}
	if n < len(s.stack) {
		s.stack = s.stack[:n]
	}

	// Constraints imposed by truncated decisions go with them.
	for role, rs := range s.restrictions {
		s.restrictions[role] = slices.DeleteFunc(rs, func(ar activeRestriction) bool {
			return ar.origin >= n
		})
	}
	for role, crs := range s.commandReqs {
		s.commandReqs[role] = slices.DeleteFunc(crs, func(cr commandReq) bool {
			return cr.origin >= n
		})
	}
	s.pending = slices.DeleteFunc(s.pending, func(od optionalDemand) bool {
		return od.origin >= n
	})
}

// subtreeComplete reports whether every decision from floor up carries a
// real implementation.
func (s *search) subtreeComplete(floor int) bool {
	for _, dp := range s.stack[floor:] {
		if dp.chosen == nil || dp.chosen.IsPlaceholder() {
			return false
		}
	}
	return true
}

// fillPlaceholders assigns the placeholder to every undecided point.
// Closest-match only.
func (s *search) fillPlaceholders() {
	for _, dp := range s.stack {
		if dp.chosen == nil {
			dp.chosen = model.Placeholder()
			dp.lenAtDecide = len(s.stack)
		}
	}
}

func (s *search) diag(role model.Role) *roleDiag {
	d, ok := s.diags[role]
	if !ok {
		d = &roleDiag{}
		s.diags[role] = d
	}
	return d
}

func (s *search) buildResult() *Result {
	res := &Result{
		Requirement: s.req,
		Provider:    s.solver.provider,
		Ready:       true,
		selections:  make(map[model.Role]*Selection),
		canonical:   make(map[model.Role]model.Role),
	}

	for _, dp := range s.stack {
		impl := dp.chosen
		if impl == nil {
			// Unreachable in strict mode; defensive for closest-match.
			impl = model.Placeholder()
		}
		if impl.IsPlaceholder() {
			res.Ready = false
		}

		sel := &Selection{
			Role: dp.role,
			Impl: impl,
		}
		if !impl.IsPlaceholder() {
			sel.Commands = s.requiredCommands(dp, impl)
		} else {
			for _, alias := range dp.aliases {
				for _, cr := range s.commandReqs[alias] {
					if !slices.Contains(sel.Commands, cr.name) {
						sel.Commands = append(sel.Commands, cr.name)
					}
				}
			}
			for _, name := range dp.extraCmds {
				if !slices.Contains(sel.Commands, name) {
					sel.Commands = append(sel.Commands, name)
				}
			}
			slices.Sort(sel.Commands)
		}

		sel.Rejects = append(sel.Rejects, dp.cands.Rejects...)
		if d := s.diags[dp.role]; d != nil {
			// A role re-decided after backtracking can record the same
			// rejection more than once.
			seen := make(map[string]bool)
			for _, rej := range d.solverRejects {
				key := rej.Impl.ID + "\x00" + rej.Reason
				if !seen[key] {
					seen[key] = true
					sel.Rejects = append(sel.Rejects, rej)
				}
			}
		}
		for _, ar := range dp.local {
			sel.Restrictions = append(sel.Restrictions,
				fmt.Sprintf("%s: %s", ar.source, ar.r))
		}
		for _, alias := range dp.aliases {
			for _, ar := range s.restrictions[alias] {
				sel.Restrictions = append(sel.Restrictions,
					fmt.Sprintf("%s: %s", ar.source, ar.r))
			}
		}
		for _, r := range dp.userRest {
			sel.Restrictions = append(sel.Restrictions, fmt.Sprintf("user: %s", r))
		}

		res.selections[dp.role] = sel
		for _, alias := range dp.aliases {
			if alias != dp.role {
				res.canonical[alias] = dp.role
			}
		}
	}

	return res
}

func describeAll(rs []model.Restriction) string {
	if len(rs) == 0 {
		return "its restrictions"
	}
	out := ""
	for i, r := range rs {
		if i > 0 {
			out += ", "
		}
		out += r.String()
	}
	return out
}
