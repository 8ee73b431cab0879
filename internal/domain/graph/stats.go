package graph

import "slices"

// PlayerStat summarises one player's season.
type PlayerStat struct {
	Name     string `json:"name"`
	Matches  int    `json:"matches"`
	Partners int    `json:"partners"`
}

// Stats is a descriptive summary of a season graph.
type Stats struct {
	Players    int          `json:"players"`
	Pairs      int          `json:"pairs"`
	Density    float64      `json:"density"`
	TopPlayers []PlayerStat `json:"top_players"`
	TopPairs   []Edge       `json:"top_pairs"`
}

// Stats returns counts, density, the topN players by match count and the
// topN pairs by weight. topN <= 0 returns every player and pair.
func (g *SeasonGraph) Stats(topN int) Stats {
	nodes := g.Nodes()
	slices.SortFunc(nodes, ByMatchesDesc)
	edges := g.Edges()
	slices.SortFunc(edges, ByWeightDesc)
	if topN > 0 {
		nodes = nodes[:min(topN, len(nodes))]
		edges = edges[:min(topN, len(edges))]
	}

	top := make([]PlayerStat, len(nodes))
	for i, n := range nodes {
		top[i] = PlayerStat{Name: n.Name, Matches: n.Matches, Partners: g.Degree(n.Name)}
	}
	return Stats{
		Players:    len(g.nodes),
		Pairs:      len(g.edges),
		Density:    g.Density(),
		TopPlayers: top,
		TopPairs:   edges,
	}
}
