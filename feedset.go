package injector

import (
	"cmp"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/launchpath/injector/arch"
	"github.com/launchpath/injector/feed"
	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/solve"
)

// FeedSet holds the feeds available to a solve, keyed by interface URI.
// A FeedSet is populated up front and then read-only while solving.
type FeedSet struct {
	feeds map[string]*feed.Feed
}

// NewFeedSet returns an empty feed set.
func NewFeedSet() *FeedSet {
	return &FeedSet{feeds: make(map[string]*feed.Feed)}
}

// Add registers a feed under its interface URI.
func (s *FeedSet) Add(f *feed.Feed) error {
	if _, dup := s.feeds[f.URI]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateFeed, f.URI)
	}
	s.feeds[f.URI] = f
	return nil
}

// LoadDir parses every .xml file under dir (recursively) and adds each as
// a feed.
func (s *FeedSet) LoadDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".xml") {
			return nil
		}
		f, err := feed.ParseFile(path)
		if err != nil {
			return err
		}
		return s.Add(f)
	})
}

// Feed returns the feed for an interface URI, or nil.
func (s *FeedSet) Feed(uri string) *feed.Feed {
	return s.feeds[uri]
}

// URIs returns the known interface URIs, sorted.
func (s *FeedSet) URIs() []string {
	uris := make([]string, 0, len(s.feeds))
	for uri := range s.feeds {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	return uris
}

// feedProvider adapts a FeedSet to the solver's candidate interface,
// binding in the scope filter for one solve: architecture, stability
// policy, use flags and extra restrictions.
type feedProvider struct {
	set  *FeedSet
	cfg  *solveConfig
	req  model.Requirement
	arch *arch.Architecture
}

func newFeedProvider(set *FeedSet, cfg *solveConfig, req model.Requirement) *feedProvider {
	osName := cfg.osName
	machine := cfg.machine
	if req.OS != "" {
		osName = req.OS
	}
	if req.Machine != "" {
		machine = req.Machine
	}
	return &feedProvider{
		set:  set,
		cfg:  cfg,
		req:  req,
		arch: arch.Get(osName, machine),
	}
}

func (p *feedProvider) Candidates(role model.Role) *solve.Candidates {
	out := &solve.Candidates{}

	f := p.set.Feed(role.Interface)
	if f == nil {
		return out
	}
	if f.ReplacedBy != "" && f.ReplacedBy != role.Interface {
		repl := model.Role{Interface: f.ReplacedBy, Source: role.Source}
		out.Replacement = &repl
	}

	a := p.arch
	if role.Source {
		a = a.Source()
	}

	for _, impl := range f.Implementations {
		if reason, ok := p.usable(impl, a); !ok {
			out.Rejects = append(out.Rejects, solve.Reject{Impl: impl, Reason: reason})
			continue
		}
		out.Impls = append(out.Impls, impl)
	}

	slices.SortStableFunc(out.Impls, p.rank)
	return out
}

// usable applies the per-candidate scope filter: architecture and
// stability floor. Restrictions are the solver's business, not ours.
func (p *feedProvider) usable(impl *model.Implementation, a *arch.Architecture) (reason string, ok bool) {
	if impl.Stability <= model.Buggy {
		return fmt.Sprintf("poor stability (%s)", impl.Stability), false
	}
	if !a.Supports(impl.OS, impl.Machine) {
		return fmt.Sprintf("unsupported architecture %s-%s",
			orAny(impl.OS), orAny(impl.Machine)), false
	}
	return "", true
}

// rank orders usable candidates best-first: preferred versions, then the
// acceptable-stability group, then newest version, then closest
// architecture fit, then stability, with the ID as the final tiebreak so
// the order is total.
func (p *feedProvider) rank(a, b *model.Implementation) int {
	if c := cmp.Compare(p.stabilityGroup(a), p.stabilityGroup(b)); c != 0 {
		return c
	}
	if c := b.Version.Compare(a.Version); c != 0 {
		return c
	}
	if c := cmp.Compare(p.archRank(a), p.archRank(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(int(b.Stability), int(a.Stability)); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// stabilityGroup buckets candidates: 0 for preferred, 1 for acceptable
// stability, 2 for the rest. Testing counts as acceptable when the user
// opted in to help with testing.
func (p *feedProvider) stabilityGroup(impl *model.Implementation) int {
	floor := model.Stable
	if p.cfg.helpWithTesting {
		floor = model.Testing
	}
	switch {
	case impl.Stability == model.Preferred:
		return 0
	case impl.Stability >= floor:
		return 1
	default:
		return 2
	}
}

func (p *feedProvider) archRank(impl *model.Implementation) int {
	osRank, _ := p.arch.OSRank(impl.OS)
	machineRank, _ := p.arch.MachineRank(impl.Machine)
	return osRank*100 + machineRank
}

func (p *feedProvider) IsDepNeeded(dep *model.Dependency) bool {
	for _, flag := range dep.UseFlags {
		if !p.cfg.useFlags[flag] {
			return false
		}
	}
	return true
}

func (p *feedProvider) UserRestrictions(role model.Role) []model.Restriction {
	var rs []model.Restriction
	rs = append(rs, p.req.ExtraRestrictions[role.Interface]...)
	rs = append(rs, p.cfg.extra[role.Interface]...)
	return rs
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
