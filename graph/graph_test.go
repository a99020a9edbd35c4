package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/solve"
	"github.com/launchpath/injector/version"
)

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

func solvedResult(t *testing.T) *solve.Result {
	t.Helper()

	appRole := model.Role{Interface: "https://example.com/app"}
	libRole := model.Role{Interface: "https://example.com/lib"}

	app := &model.Implementation{
		ID:      "app-1",
		Version: version.MustParse("1"),
		Requires: []model.Dependency{
			{Interface: libRole.Interface, Importance: model.Essential},
		},
	}
	lib := &model.Implementation{ID: "lib-1", Version: version.MustParse("2")}

	p := fakeProvider{cands: map[model.Role]*solve.Candidates{
		appRole: {Impls: []*model.Implementation{app}},
		libRole: {Impls: []*model.Implementation{lib}},
	}}

	res, err := solve.New(p, nil, 0).Solve(model.Requirement{Interface: appRole.Interface})
	require.NoError(t, err)
	return res
}

func TestBuildAdjacency(t *testing.T) {
	rg, err := Build(solvedResult(t))
	require.NoError(t, err)

	adj, err := rg.AdjacencyMap()
	require.NoError(t, err)
	require.Len(t, adj, 2)
	assert.Contains(t, adj["https://example.com/app"], "https://example.com/lib")
	assert.Empty(t, adj["https://example.com/lib"])
}

func TestTextTree(t *testing.T) {
	rg, err := Build(solvedResult(t))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, rg.Text(&sb))

	want := "- https://example.com/app: app-1 (1)\n" +
		"  - https://example.com/lib: lib-1 (2)\n"
	assert.Equal(t, want, sb.String())
}

func TestDOT(t *testing.T) {
	rg, err := Build(solvedResult(t))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, rg.DOT(&sb))

	out := sb.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "https://example.com/app")
	assert.Contains(t, out, "https://example.com/lib")
}
