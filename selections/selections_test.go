package selections

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/solve"
	"github.com/launchpath/injector/version"
)

func TestMarshalGolden(t *testing.T) {
	doc := &Document{
		Interface: "https://example.com/app",
		Command:   "run",
		Selections: []*Entry{
			{
				Interface: "https://example.com/app",
				ID:        "sha256=app1",
				Version:   "1.0",
				FromFeed:  "https://example.com/app",
				Commands: []*Command{{
					Name: "run",
					Path: "bin/app",
					Requires: []*Requirement{{
						Interface: "https://example.com/lib",
						Versions:  []string{"1.."},
					}},
				}},
				Bindings: []*Binding{{
					Kind:   "environment",
					Name:   "APP_HOME",
					Insert: ".",
					Mode:   "prepend",
				}},
				Digests: []string{"sha256=app1digest"},
			},
			{
				Interface: "https://example.com/lib",
				ID:        "sha256=lib2",
				Version:   "2.0",
				FromFeed:  "https://example.com/lib",
				Bindings: []*Binding{{
					Kind:    "executable-in-var",
					Name:    "HELPER",
					Command: "run",
				}},
			},
		},
	}

	data, err := doc.Marshal()
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "basic", data)
}

func TestMarshalDeterministic(t *testing.T) {
	doc := &Document{
		Interface: "https://example.com/app",
		Selections: []*Entry{
			{Interface: "https://example.com/app", ID: "a", Version: "1"},
		},
	}
	first, err := doc.Marshal()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		next, err := doc.Marshal()
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

// fakeProvider serves fixed candidates for the pipeline test.
type fakeProvider struct {
	cands map[model.Role]*solve.Candidates
}

func (p fakeProvider) Candidates(role model.Role) *solve.Candidates {
	if c, ok := p.cands[role]; ok {
		return c
	}
	return &solve.Candidates{}
}

func (p fakeProvider) IsDepNeeded(*model.Dependency) bool { return true }

func (p fakeProvider) UserRestrictions(model.Role) []model.Restriction { return nil }

func TestBuildFromResult(t *testing.T) {
	appRole := model.Role{Interface: "https://example.com/app"}
	libRole := model.Role{Interface: "https://example.com/lib"}

	app := &model.Implementation{
		ID:       "app-1",
		Version:  version.MustParse("1"),
		FromFeed: "https://example.com/app",
		Main:     "bin/legacy",
		Commands: map[string]*model.Command{
			"run": {
				Name: "run",
				Path: "bin/app",
				Bindings: []model.Binding{
					{Kind: "executable-in-var", Name: "SELF", Command: "run"},
				},
			},
		},
		Requires: []model.Dependency{
			{Interface: "https://example.com/lib", Importance: model.Essential},
			{Interface: "https://example.com/opt", Importance: model.Recommended},
		},
		Bindings: []model.Binding{
			{Kind: "environment", Name: "APP_HOME", Insert: ".", Mode: "prepend"},
		},
	}
	lib := &model.Implementation{
		ID:       "lib-1",
		Version:  version.MustParse("2"),
		FromFeed: "https://example.com/lib",
		Digests:  []string{"sha256=bbb", "sha256=aaa"},
	}

	p := fakeProvider{cands: map[model.Role]*solve.Candidates{
		appRole: {Impls: []*model.Implementation{app}},
		libRole: {Impls: []*model.Implementation{lib}},
	}}

	res, err := solve.New(p, nil, 0).Solve(model.Requirement{
		Interface: appRole.Interface,
		Command:   "run",
	})
	require.NoError(t, err)

	doc, err := Build(res)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/app", doc.Interface)
	assert.Equal(t, "run", doc.Command)
	require.Len(t, doc.Selections, 2)

	appEntry := doc.Selections[0]
	assert.Equal(t, "app-1", appEntry.ID)
	assert.Empty(t, appEntry.Main, "run command supersedes the main attribute")
	require.Len(t, appEntry.Commands, 1)
	assert.Equal(t, "bin/app", appEntry.Commands[0].Path)
	require.Len(t, appEntry.Commands[0].Bindings, 1)
	assert.Equal(t, "SELF", appEntry.Commands[0].Bindings[0].Name)
	require.Len(t, appEntry.Requires, 1, "only essential edges are persisted")
	assert.Equal(t, "https://example.com/lib", appEntry.Requires[0].Interface)
	require.Len(t, appEntry.Bindings, 1)
	assert.Equal(t, "environment", appEntry.Bindings[0].Kind)
	assert.Equal(t, "APP_HOME", appEntry.Bindings[0].Name)

	libEntry := doc.Selections[1]
	assert.Equal(t, "lib-1", libEntry.ID)
	assert.Equal(t, []string{"sha256=aaa", "sha256=bbb"}, libEntry.Digests)
}

func TestBuildRejectsUnready(t *testing.T) {
	appRole := model.Role{Interface: "https://example.com/app"}
	app := &model.Implementation{
		ID:      "app-1",
		Version: version.MustParse("1"),
		Requires: []model.Dependency{
			{Interface: "https://example.com/lib", Importance: model.Essential},
		},
	}
	p := fakeProvider{cands: map[model.Role]*solve.Candidates{
		appRole: {Impls: []*model.Implementation{app}},
	}}

	res := solve.New(p, nil, 0).SolveClosest(model.Requirement{Interface: appRole.Interface})
	require.False(t, res.Ready)

	_, err := Build(res)
	assert.ErrorIs(t, err, ErrNotReady)
}
