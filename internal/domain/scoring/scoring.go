// Package scoring computes the dynamic scores between two consecutive
// season graphs of a club.
//
// V-Score is |V_t △ V_t+1| / |V_t ∪ V_t+1| over player sets and E-Score the
// same ratio over partnership sets. Both are 0 when the union is empty.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

// Stats carries the raw sizes of both graphs.
type Stats struct {
	PlayersFrom int
	PlayersTo   int
	EdgesFrom   int
	EdgesTo     int
}

// Transition compares a season graph with the following season's graph.
type Transition struct {
	Club   model.ClubID
	From   model.SeasonKey
	To     model.SeasonKey
	VScore float64
	EScore float64
	Stats  Stats

	// PlayersLeft carry match counts from the From graph, PlayersJoined from
	// the To graph. Both are ordered by match count desc, then name.
	PlayersLeft   []graph.Node
	PlayersJoined []graph.Node

	// EdgesLost carry weights from the From graph, EdgesGained from the To
	// graph. Both are ordered by weight desc, then canonical pair order.
	EdgesLost   []graph.Edge
	EdgesGained []graph.Edge
}

// Key identifies the transition, e.g. "fc_barcelona_2015_2016".
func (t *Transition) Key() string {
	return fmt.Sprintf("%s_%d_%d", t.Club, t.From.Start, t.To.Start)
}

// Calculator computes transitions between adjacent season graphs.
type Calculator interface {
	// Calculate compares from with to. It fails with ErrClubMismatch or
	// ErrSeasonMismatch instead of returning a partial transition.
	Calculate(ctx context.Context, from, to *graph.SeasonGraph) (Transition, error)
}

// Option applies a configuration option to the DynamicCalculator.
type Option func(*DynamicCalculator)

// WithLogger sets a custom logger for the calculator.
func WithLogger(l logger.Logger) Option {
	return func(c *DynamicCalculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// DynamicCalculator implements Calculator. It is stateless.
type DynamicCalculator struct {
	logger logger.Logger
}

// NewDynamicCalculator creates a calculator with configuration options.
func NewDynamicCalculator(opts ...Option) *DynamicCalculator {
	c := &DynamicCalculator{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("scoring")
	}
	return c
}

// Calculate compares two season graphs of the same club.
func (c *DynamicCalculator) Calculate(ctx context.Context, from, to *graph.SeasonGraph) (Transition, error) {
	start := time.Now()
	if err := validate(from, to); err != nil {
		kind := "invalid"
		switch {
		case errors.Is(err, ErrSeasonMismatch):
			kind = "season_mismatch"
		case errors.Is(err, ErrClubMismatch):
			kind = "club_mismatch"
		}
		metrics.RecordTransitionRejected(kind)
		c.logger.Warn(ctx, "transition rejected", logger.Error(err))
		return Transition{}, err
	}

	fromNodes, toNodes := from.Nodes(), to.Nodes()
	fromEdges, toEdges := from.Edges(), to.Edges()

	t := Transition{
		Club:   from.Club(),
		From:   from.Season(),
		To:     to.Season(),
		VScore: VScore(from, to),
		EScore: EScore(from, to),
		Stats: Stats{
			PlayersFrom: len(fromNodes),
			PlayersTo:   len(toNodes),
			EdgesFrom:   len(fromEdges),
			EdgesTo:     len(toEdges),
		},
		PlayersLeft:   nodesMissingFrom(fromNodes, to),
		PlayersJoined: nodesMissingFrom(toNodes, from),
		EdgesLost:     edgesMissingFrom(fromEdges, to),
		EdgesGained:   edgesMissingFrom(toEdges, from),
	}

	metrics.RecordTransitionComputed()
	metrics.RecordTransitionLatency(float64(time.Since(start).Milliseconds()))
	c.logger.Debug(ctx, "transition computed",
		logger.String("transition", t.Key()),
		logger.Float64("vScore", t.VScore),
		logger.Float64("eScore", t.EScore),
	)
	return t, nil
}

func validate(from, to *graph.SeasonGraph) error {
	if from == nil || to == nil {
		return ErrNilGraph
	}
	if from.Club() != to.Club() {
		return fmt.Errorf("%w: %q vs %q", ErrClubMismatch, from.Club(), to.Club())
	}
	if !to.Season().Follows(from.Season()) {
		return fmt.Errorf("%w: %s is not followed by %s", ErrSeasonMismatch, from.Season(), to.Season())
	}
	return nil
}

// VScore is the normalised symmetric difference of the two player sets.
func VScore(from, to *graph.SeasonGraph) float64 {
	common := 0
	for _, n := range from.Nodes() {
		if to.HasPlayer(n.Name) {
			common++
		}
	}
	return ratio(from.NodeCount(), to.NodeCount(), common)
}

// EScore is the normalised symmetric difference of the two partnership sets.
func EScore(from, to *graph.SeasonGraph) float64 {
	common := 0
	for _, e := range from.Edges() {
		if to.HasEdge(model.Pair{A: e.A, B: e.B}) {
			common++
		}
	}
	return ratio(from.EdgeCount(), to.EdgeCount(), common)
}

// ratio returns |A △ B| / |A ∪ B| given |A|, |B| and |A ∩ B|.
func ratio(a, b, common int) float64 {
	union := a + b - common
	if union == 0 {
		return 0
	}
	return float64(a+b-2*common) / float64(union)
}

func nodesMissingFrom(nodes []graph.Node, other *graph.SeasonGraph) []graph.Node {
	out := make([]graph.Node, 0)
	for _, n := range nodes {
		if !other.HasPlayer(n.Name) {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, graph.ByMatchesDesc)
	return out
}

func edgesMissingFrom(edges []graph.Edge, other *graph.SeasonGraph) []graph.Edge {
	out := make([]graph.Edge, 0)
	for _, e := range edges {
		if !other.HasEdge(model.Pair{A: e.A, B: e.B}) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, graph.ByWeightDesc)
	return out
}
