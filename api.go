// Package injector selects implementations for a program and its
// dependencies from feed metadata.
//
// A feed describes one interface: the candidate implementations that
// provide it, their versions, architectures and dependencies. Given a
// root requirement ("run this interface's program"), the solver picks
// one implementation per needed interface such that every dependency is
// satisfied and no version restriction is violated, preferring stable,
// recent, well-fitting candidates.
//
// # Quick Start
//
//	feeds := injector.NewFeedSet()
//	if err := feeds.LoadDir("feeds/"); err != nil { ... }
//
//	req := model.Requirement{Interface: "https://example.com/app", Command: "run"}
//	result, err := injector.Resolve(req, feeds)
//	if err != nil { ... } // err.Error() explains what failed and why
//
// Solving is deterministic: the same feeds, requirement and options
// always produce the same result.
package injector

import (
	"errors"
	"fmt"

	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/solve"
)

// Solve runs a strict solve for req over the given feeds. It returns an
// error wrapping ErrUnsatisfiable when no consistent selection exists;
// use Resolve instead to get an explanation in that case.
func Solve(req model.Requirement, feeds *FeedSet, opts ...Option) (*solve.Result, error) {
	cfg, err := newSolveConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := validateRequirement(req, feeds); err != nil {
		return nil, err
	}
	s := solve.New(newFeedProvider(feeds, cfg, req), cfg.logger, cfg.maxRoles)
	return s.Solve(req)
}

// SolveClosest runs a closest-match solve for req: the result is always
// produced, with unresolved roles filled by a placeholder, and exists to
// be inspected and explained rather than executed.
func SolveClosest(req model.Requirement, feeds *FeedSet, opts ...Option) (*solve.Result, error) {
	cfg, err := newSolveConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := validateRequirement(req, feeds); err != nil {
		return nil, err
	}
	s := solve.New(newFeedProvider(feeds, cfg, req), cfg.logger, cfg.maxRoles)
	return s.SolveClosest(req), nil
}

// Resolve is the recommended entry point: it solves strictly and, on
// failure, re-solves in closest-match mode to produce a *SolveError
// whose message explains which roles could not be filled and why.
func Resolve(req model.Requirement, feeds *FeedSet, opts ...Option) (*solve.Result, error) {
	cfg, err := newSolveConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := validateRequirement(req, feeds); err != nil {
		return nil, err
	}

	provider := newFeedProvider(feeds, cfg, req)
	s := solve.New(provider, cfg.logger, cfg.maxRoles)

	res, err := s.Solve(req)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, solve.ErrUnsatisfiable) {
		return nil, err
	}

	closest := s.SolveClosest(req)
	return nil, &SolveError{
		Report:  solve.FailureReport(closest, cfg.offline),
		Closest: closest,
	}
}

// Explain describes why a role in a result resolved the way it did. It
// is a convenience re-export for callers that only import this package.
func Explain(res *solve.Result, role model.Role) string {
	return solve.Explain(res, role)
}

func validateRequirement(req model.Requirement, feeds *FeedSet) error {
	if err := model.ValidateInterface(req.Interface); err != nil {
		return err
	}
	if feeds.Feed(req.Interface) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownInterface, req.Interface)
	}
	return nil
}
