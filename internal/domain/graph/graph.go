// Package graph holds the immutable per-season co-occurrence graph of a club.
//
// Nodes are players carrying their season match count; edges are unordered
// player pairs weighted by the number of matches both played. An edge exists
// only with weight >= 1 and never joins a player to themself.
package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/squadgraph/internal/domain/model"
)

// SeasonGraph is built once per club season and never mutated afterwards.
type SeasonGraph struct {
	unit  model.Unit
	nodes map[string]int
	edges map[model.Pair]int
}

// New validates and copies nodes and edges into a SeasonGraph.
func New(unit model.Unit, nodes map[string]int, edges map[model.Pair]int) (*SeasonGraph, error) {
	g := &SeasonGraph{
		unit:  unit,
		nodes: make(map[string]int, len(nodes)),
		edges: make(map[model.Pair]int, len(edges)),
	}
	for name, matches := range nodes {
		if name == "" {
			return nil, fmt.Errorf("%w: empty player name", ErrInvalidGraph)
		}
		if matches < 1 {
			return nil, fmt.Errorf("%w: player %q has %d matches", ErrInvalidGraph, name, matches)
		}
		g.nodes[name] = matches
	}
	for p, w := range edges {
		if p.A >= p.B {
			return nil, fmt.Errorf("%w: pair %s is not canonical", ErrInvalidGraph, p)
		}
		if w < 1 {
			return nil, fmt.Errorf("%w: pair %s has weight %d", ErrInvalidGraph, p, w)
		}
		ma, okA := g.nodes[p.A]
		mb, okB := g.nodes[p.B]
		if !okA || !okB {
			return nil, fmt.Errorf("%w: pair %s references an unknown player", ErrInvalidGraph, p)
		}
		if w > ma || w > mb {
			return nil, fmt.Errorf("%w: pair %s weight %d exceeds a member's matches", ErrInvalidGraph, p, w)
		}
		g.edges[p] = w
	}
	return g, nil
}

// Unit returns the club season the graph describes.
func (g *SeasonGraph) Unit() model.Unit { return g.unit }

// Club returns the club identifier.
func (g *SeasonGraph) Club() model.ClubID { return g.unit.Club }

// Season returns the season key.
func (g *SeasonGraph) Season() model.SeasonKey { return g.unit.Season }

// NodeCount returns the number of players.
func (g *SeasonGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of partnerships.
func (g *SeasonGraph) EdgeCount() int { return len(g.edges) }

// Matches returns the player's match count.
func (g *SeasonGraph) Matches(name string) (int, bool) {
	m, ok := g.nodes[name]
	return m, ok
}

// HasPlayer reports whether name is a node.
func (g *SeasonGraph) HasPlayer(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Weight returns the weight of the partnership p.
func (g *SeasonGraph) Weight(p model.Pair) (int, bool) {
	w, ok := g.edges[p]
	return w, ok
}

// HasEdge reports whether p is an edge.
func (g *SeasonGraph) HasEdge(p model.Pair) bool {
	_, ok := g.edges[p]
	return ok
}

// Nodes returns all players sorted by name.
func (g *SeasonGraph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for name, m := range g.nodes {
		out = append(out, Node{Name: name, Matches: m})
	}
	slices.SortFunc(out, func(x, y Node) int { return strings.Compare(x.Name, y.Name) })
	return out
}

// Edges returns all partnerships in canonical pair order.
func (g *SeasonGraph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for p, w := range g.edges {
		out = append(out, Edge{A: p.A, B: p.B, Weight: w})
	}
	slices.SortFunc(out, byPair)
	return out
}

// Degree returns the number of distinct partners of name.
func (g *SeasonGraph) Degree(name string) int {
	n := 0
	for p := range g.edges {
		if p.Has(name) {
			n++
		}
	}
	return n
}

// Density is 2E / (N(N-1)), or 0 with fewer than two players.
func (g *SeasonGraph) Density() float64 {
	n := len(g.nodes)
	if n < 2 {
		return 0
	}
	return 2 * float64(len(g.edges)) / (float64(n) * float64(n-1))
}
