// Package graph builds a dependency-graph view of a solved result, for
// inspection and rendering. Vertices are interface URIs, edges are the
// dependency relations between the chosen implementations.
package graph

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	graphlib "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/solve"
)

// RoleGraph is the dependency graph of one result.
type RoleGraph struct {
	res *solve.Result
	g   graphlib.Graph[string, string]
}

// Build constructs the graph for a result. Edges follow the essential
// and recommended dependencies of each chosen implementation and its
// selected commands; restriction-only edges carry no selection and are
// left out.
func Build(res *solve.Result) (*RoleGraph, error) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed())

	for _, role := range res.Roles() {
		sel := res.Selection(role)
		label := sel.Impl.String()
		if err := g.AddVertex(role.Interface,
			graphlib.VertexAttribute("label", fmt.Sprintf("%s\n%s", role.Interface, label)),
		); err != nil {
			return nil, fmt.Errorf("while adding %s: %w", role, err)
		}
	}

	for _, role := range res.Roles() {
		sel := res.Selection(role)
		for _, dep := range dependencyEdges(sel) {
			target := dep.Role()
			if res.Selection(target) == nil {
				continue
			}
			err := g.AddEdge(role.Interface, targetInterface(res, target),
				graphlib.EdgeAttribute("label", dep.Importance.String()))
			if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("while linking %s to %s: %w", role, target, err)
			}
		}
	}

	return &RoleGraph{res: res, g: g}, nil
}

// targetInterface maps a dependency target through replacement aliases
// so edges land on the vertex that actually got selected.
func targetInterface(res *solve.Result, target model.Role) string {
	return res.Selection(target).Role.Interface
}

func dependencyEdges(sel *solve.Selection) []model.Dependency {
	if sel.Impl.IsPlaceholder() {
		return nil
	}
	edges := slices.Clone(sel.Impl.Requires)
	for _, name := range sel.Commands {
		if cmd := sel.Impl.Command(name); cmd != nil {
			edges = append(edges, cmd.Requires...)
		}
	}
	return edges
}

// DOT renders the graph in Graphviz DOT format.
func (rg *RoleGraph) DOT(w io.Writer) error {
	return draw.DOT(rg.g, w)
}

// Text renders an indented tree rooted at the requirement, one line per
// role. A role reached through more than one path is expanded only
// once.
func (rg *RoleGraph) Text(w io.Writer) error {
	seen := make(map[string]bool)
	var walk func(role model.Role, depth int) error
	walk = func(role model.Role, depth int) error {
		sel := rg.res.Selection(role)
		indent := strings.Repeat("  ", depth)
		if _, err := fmt.Fprintf(w, "%s- %s: %s\n", indent, sel.Role.Interface, sel.Impl); err != nil {
			return err
		}
		if seen[sel.Role.Interface] {
			return nil
		}
		seen[sel.Role.Interface] = true

		for _, dep := range dependencyEdges(sel) {
			if rg.res.Selection(dep.Role()) == nil {
				continue
			}
			if err := walk(dep.Role(), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(rg.res.Requirement.Role(), 0)
}

// AdjacencyMap exposes the underlying adjacency structure, keyed by
// interface URI.
func (rg *RoleGraph) AdjacencyMap() (map[string]map[string]graphlib.Edge[string], error) {
	return rg.g.AdjacencyMap()
}
