package scoring_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	scoring "github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func pair(a, b string) model.Pair {
	p, err := model.NewPair(a, b)
	if err != nil {
		panic(err)
	}
	return p
}

func mustGraph(club model.ClubID, start int, nodes map[string]int, edges map[model.Pair]int) *graph.SeasonGraph {
	g, err := graph.New(model.Unit{Club: club, Season: model.NewSeasonKey(start)}, nodes, edges)
	if err != nil {
		panic(err)
	}
	return g
}

// randomGraph draws a graph over a random subset of pool.
func randomGraph(rng *rand.Rand, start int, pool []string) *graph.SeasonGraph {
	nodes := make(map[string]int)
	for _, name := range pool {
		if rng.Intn(3) > 0 {
			nodes[name] = 5 + rng.Intn(30)
		}
	}
	names := make([]string, 0, len(nodes))
	for _, name := range pool {
		if _, ok := nodes[name]; ok {
			names = append(names, name)
		}
	}
	edges := make(map[model.Pair]int)
	for i, a := range names {
		for _, b := range names[i+1:] {
			if rng.Intn(2) == 0 {
				edges[pair(a, b)] = 1 + rng.Intn(min(nodes[a], nodes[b]))
			}
		}
	}
	return mustGraph("real_madryt", start, nodes, edges)
}

func TestDynamicCalculator_Scenarios(t *testing.T) {
	Convey("Given a dynamic score calculator", t, func() {
		calc := scoring.NewDynamicCalculator()
		ctx := context.Background()

		Convey("When one player leaves, one joins and the only partnership changes", func() {
			from := mustGraph("fc_barcelona", 2015,
				map[string]int{"A": 10, "B": 8, "C": 5},
				map[model.Pair]int{pair("A", "B"): 6})
			to := mustGraph("fc_barcelona", 2016,
				map[string]int{"B": 9, "C": 6, "D": 3},
				map[model.Pair]int{pair("B", "C"): 4})

			tr, err := calc.Calculate(ctx, from, to)

			Convey("Then the change lists carry the counts of the owning season", func() {
				So(err, ShouldBeNil)
				So(tr.PlayersLeft, ShouldResemble, []graph.Node{{Name: "A", Matches: 10}})
				So(tr.PlayersJoined, ShouldResemble, []graph.Node{{Name: "D", Matches: 3}})
				So(tr.EdgesLost, ShouldResemble, []graph.Edge{{A: "A", B: "B", Weight: 6}})
				So(tr.EdgesGained, ShouldResemble, []graph.Edge{{A: "B", B: "C", Weight: 4}})
			})

			Convey("And the scores are 0.5 and 1.0", func() {
				So(tr.VScore, ShouldEqual, 0.5)
				So(tr.EScore, ShouldEqual, 1.0)
			})

			Convey("And the identity fields and stats are set", func() {
				So(tr.Club, ShouldEqual, model.ClubID("fc_barcelona"))
				So(tr.From.Start, ShouldEqual, 2015)
				So(tr.To.Start, ShouldEqual, 2016)
				So(tr.Stats, ShouldResemble, scoring.Stats{PlayersFrom: 3, PlayersTo: 3, EdgesFrom: 1, EdgesTo: 1})
				So(tr.Key(), ShouldEqual, "fc_barcelona_2015_2016")
			})
		})

		Convey("When both seasons have the same 11 players and 30 partnerships", func() {
			nodes := make(map[string]int)
			names := make([]string, 11)
			for i := range names {
				names[i] = fmt.Sprintf("P%02d", i)
				nodes[names[i]] = 20
			}
			edges := make(map[model.Pair]int)
			for i := 0; len(edges) < 30; i++ {
				a, b := names[i%11], names[(i*7+3)%11]
				if a != b {
					edges[pair(a, b)] = 5
				}
			}
			from := mustGraph("athletic_bilbao", 2010, nodes, edges)
			to := mustGraph("athletic_bilbao", 2011, nodes, edges)

			tr, err := calc.Calculate(ctx, from, to)

			Convey("Then nothing changed", func() {
				So(err, ShouldBeNil)
				So(tr.VScore, ShouldEqual, 0)
				So(tr.EScore, ShouldEqual, 0)
				So(tr.PlayersLeft, ShouldBeEmpty)
				So(tr.PlayersJoined, ShouldBeEmpty)
				So(tr.EdgesLost, ShouldBeEmpty)
				So(tr.EdgesGained, ShouldBeEmpty)
				So(tr.Stats, ShouldResemble, scoring.Stats{PlayersFrom: 11, PlayersTo: 11, EdgesFrom: 30, EdgesTo: 30})
			})
		})

		Convey("When the seasons are not consecutive", func() {
			from := mustGraph("fc_barcelona", 2015, map[string]int{"A": 1}, nil)
			to := mustGraph("fc_barcelona", 2017, map[string]int{"A": 1}, nil)

			tr, err := calc.Calculate(ctx, from, to)

			Convey("Then it fails with a season mismatch and no transition", func() {
				So(errors.Is(err, scoring.ErrSeasonMismatch), ShouldBeTrue)
				So(tr, ShouldResemble, scoring.Transition{})
			})
		})

		Convey("When the seasons are given in reverse", func() {
			from := mustGraph("fc_barcelona", 2016, nil, nil)
			to := mustGraph("fc_barcelona", 2015, nil, nil)

			_, err := calc.Calculate(ctx, from, to)
			So(errors.Is(err, scoring.ErrSeasonMismatch), ShouldBeTrue)
		})

		Convey("When the graphs belong to different clubs", func() {
			from := mustGraph("fc_barcelona", 2015, nil, nil)
			to := mustGraph("real_madryt", 2016, nil, nil)

			_, err := calc.Calculate(ctx, from, to)
			So(errors.Is(err, scoring.ErrClubMismatch), ShouldBeTrue)
		})

		Convey("When a graph is missing", func() {
			_, err := calc.Calculate(ctx, nil, mustGraph("fc_barcelona", 2016, nil, nil))
			So(errors.Is(err, scoring.ErrNilGraph), ShouldBeTrue)
		})

		Convey("When both graphs are empty", func() {
			tr, err := calc.Calculate(ctx, mustGraph("villarreal_cf", 2005, nil, nil), mustGraph("villarreal_cf", 2006, nil, nil))

			Convey("Then both scores are zero", func() {
				So(err, ShouldBeNil)
				So(tr.VScore, ShouldEqual, 0)
				So(tr.EScore, ShouldEqual, 0)
			})
		})

		Convey("When the squads are completely disjoint", func() {
			from := mustGraph("villarreal_cf", 2005, map[string]int{"A": 3, "B": 2}, map[model.Pair]int{pair("A", "B"): 2})
			to := mustGraph("villarreal_cf", 2006, map[string]int{"C": 4}, nil)

			tr, err := calc.Calculate(ctx, from, to)

			Convey("Then V-Score is 1", func() {
				So(err, ShouldBeNil)
				So(tr.VScore, ShouldEqual, 1.0)
				So(tr.EScore, ShouldEqual, 1.0)
			})
		})

		Convey("When ties occur in the change lists", func() {
			from := mustGraph("fc_barcelona", 2015,
				map[string]int{"Zed": 7, "Amy": 7, "Bob": 9, "Keep": 9},
				map[model.Pair]int{pair("Amy", "Zed"): 3, pair("Bob", "Keep"): 3, pair("Amy", "Bob"): 5})
			to := mustGraph("fc_barcelona", 2016, map[string]int{"Keep": 1}, nil)

			tr, err := calc.Calculate(ctx, from, to)

			Convey("Then counts sort descending and names break ties", func() {
				So(err, ShouldBeNil)
				So(tr.PlayersLeft, ShouldResemble, []graph.Node{
					{Name: "Bob", Matches: 9}, {Name: "Amy", Matches: 7}, {Name: "Zed", Matches: 7},
				})
				So(tr.EdgesLost, ShouldResemble, []graph.Edge{
					{A: "Amy", B: "Bob", Weight: 5}, {A: "Amy", B: "Zed", Weight: 3}, {A: "Bob", B: "Keep", Weight: 3},
				})
			})
		})
	})
}

func TestDynamicCalculator_Properties(t *testing.T) {
	Convey("Given random pairs of consecutive season graphs", t, func() {
		calc := scoring.NewDynamicCalculator()
		rng := rand.New(rand.NewSource(42))
		pool := make([]string, 18)
		for i := range pool {
			pool[i] = fmt.Sprintf("Player %02d", i)
		}

		for round := 0; round < 25; round++ {
			from := randomGraph(rng, 2000+round, pool)
			to := randomGraph(rng, 2001+round, pool)

			tr, err := calc.Calculate(context.Background(), from, to)
			So(err, ShouldBeNil)

			// scores stay in [0, 1]
			So(tr.VScore, ShouldBeBetweenOrEqual, 0, 1)
			So(tr.EScore, ShouldBeBetweenOrEqual, 0, 1)

			// the change lists partition the symmetric differences
			common := 0
			for _, n := range from.Nodes() {
				if to.HasPlayer(n.Name) {
					common++
				}
			}
			So(len(tr.PlayersLeft)+len(tr.PlayersJoined), ShouldEqual, from.NodeCount()+to.NodeCount()-2*common)

			commonEdges := 0
			for _, e := range from.Edges() {
				if to.HasEdge(model.Pair{A: e.A, B: e.B}) {
					commonEdges++
				}
			}
			So(len(tr.EdgesLost)+len(tr.EdgesGained), ShouldEqual, from.EdgeCount()+to.EdgeCount()-2*commonEdges)

			// recomputation is bit-identical
			again, err := calc.Calculate(context.Background(), from, to)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, tr)

			// comparing a graph with an identical copy yields zero
			same := mustGraph(from.Club(), from.Season().Start+1, nodeMap(from), edgeMap(from))
			tr0, err := calc.Calculate(context.Background(), from, same)
			So(err, ShouldBeNil)
			So(tr0.VScore, ShouldEqual, 0)
			So(tr0.EScore, ShouldEqual, 0)
		}
	})
}

func nodeMap(g *graph.SeasonGraph) map[string]int {
	out := make(map[string]int)
	for _, n := range g.Nodes() {
		out[n.Name] = n.Matches
	}
	return out
}

func edgeMap(g *graph.SeasonGraph) map[model.Pair]int {
	out := make(map[model.Pair]int)
	for _, e := range g.Edges() {
		out[model.Pair{A: e.A, B: e.B}] = e.Weight
	}
	return out
}
