// Package repository holds the transition archive: the per-club ordered
// collection of season graphs and the transitions between adjacent seasons.
package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

// Archive provides access to season graphs and their transitions.
//
// A missing endpoint graph is reported as an absent transition, never as an
// error. Errors are reserved for clubs the archive was not configured with
// and for calculator failures.
type Archive interface {
	// PutGraph stores g, superseding any graph for the same club and season.
	PutGraph(ctx context.Context, g *graph.SeasonGraph) error

	Graph(ctx context.Context, club model.ClubID, season model.SeasonKey) (*graph.SeasonGraph, bool, error)

	// Graphs returns the club's graphs ordered by season start year.
	Graphs(ctx context.Context, club model.ClubID) ([]*graph.SeasonGraph, error)

	// Transition returns the transition from season to the next one.
	Transition(ctx context.Context, club model.ClubID, from model.SeasonKey) (scoring.Transition, bool, error)

	// TransitionTo returns the transition from the previous season into season.
	TransitionTo(ctx context.Context, club model.ClubID, to model.SeasonKey) (scoring.Transition, bool, error)

	// Transitions returns every transition between adjacent stored seasons,
	// ordered by the starting season.
	Transitions(ctx context.Context, club model.ClubID) ([]scoring.Transition, error)

	Clubs() []model.ClubID

	// Counts returns the number of stored graphs and cached transitions.
	Counts() (graphs, transitions int)
}

// InMemoryArchive implements Archive. Transitions are computed on first
// lookup and cached until either endpoint graph is replaced. Returned graphs
// and transitions are shared and must be treated as read-only.
type InMemoryArchive struct {
	mu     sync.RWMutex
	clubs  []model.ClubID
	graphs map[model.ClubID]map[int]*graph.SeasonGraph
	cache  map[model.ClubID]map[int]scoring.Transition // keyed by from.Start
	calc   scoring.Calculator
	logger logger.Logger
}

// NewInMemoryArchive creates an archive for the clubs given by WithClubs.
func NewInMemoryArchive(opts ...Option) *InMemoryArchive {
	a := &InMemoryArchive{
		graphs: make(map[model.ClubID]map[int]*graph.SeasonGraph),
		cache:  make(map[model.ClubID]map[int]scoring.Transition),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("archive")
	}
	if a.calc == nil {
		a.calc = scoring.NewDynamicCalculator(scoring.WithLogger(a.logger))
	}
	return a
}

// PutGraph stores g, replacing any graph of the same unit, and drops the
// cached transitions that involve its season.
func (a *InMemoryArchive) PutGraph(ctx context.Context, g *graph.SeasonGraph) error {
	if g == nil {
		return ErrNilGraph
	}
	a.mu.Lock()
	seasons, ok := a.graphs[g.Club()]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownClub, g.Club())
	}
	start := g.Season().Start
	_, replaced := seasons[start]
	seasons[start] = g
	delete(a.cache[g.Club()], start-1)
	delete(a.cache[g.Club()], start)
	graphs, transitions := a.countsLocked()
	a.mu.Unlock()

	metrics.UpdateArchiveGraphs(graphs)
	metrics.UpdateArchiveTransitions(transitions)
	if replaced {
		a.logger.Info(ctx, "season graph superseded", logger.String("unit", g.Unit().String()))
	}
	return nil
}

// Graph returns the graph of a club season.
func (a *InMemoryArchive) Graph(_ context.Context, club model.ClubID, season model.SeasonKey) (*graph.SeasonGraph, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	seasons, ok := a.graphs[club]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownClub, club)
	}
	g, ok := seasons[season.Start]
	return g, ok, nil
}

// Graphs returns every stored graph of club, ordered by season.
func (a *InMemoryArchive) Graphs(_ context.Context, club model.ClubID) ([]*graph.SeasonGraph, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	seasons, ok := a.graphs[club]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClub, club)
	}
	out := make([]*graph.SeasonGraph, 0, len(seasons))
	for _, start := range sortedStarts(seasons) {
		out = append(out, seasons[start])
	}
	return out, nil
}

// Transition returns the transition from season from into the next one.
func (a *InMemoryArchive) Transition(ctx context.Context, club model.ClubID, from model.SeasonKey) (scoring.Transition, bool, error) {
	a.mu.RLock()
	seasons, ok := a.graphs[club]
	if !ok {
		a.mu.RUnlock()
		return scoring.Transition{}, false, fmt.Errorf("%w: %s", ErrUnknownClub, club)
	}
	if t, ok := a.cache[club][from.Start]; ok {
		a.mu.RUnlock()
		return t, true, nil
	}
	gFrom, okFrom := seasons[from.Start]
	gTo, okTo := seasons[from.Next().Start]
	a.mu.RUnlock()

	if !okFrom || !okTo {
		return scoring.Transition{}, false, nil
	}

	t, err := a.calc.Calculate(ctx, gFrom, gTo)
	if err != nil {
		return scoring.Transition{}, false, fmt.Errorf("transition %s %s: %w", club, from, err)
	}

	a.mu.Lock()
	// Only cache if neither endpoint was superseded while computing.
	if seasons[from.Start] == gFrom && seasons[from.Next().Start] == gTo {
		a.cache[club][from.Start] = t
	}
	_, transitions := a.countsLocked()
	a.mu.Unlock()
	metrics.UpdateArchiveTransitions(transitions)
	return t, true, nil
}

// TransitionTo returns the transition from the previous season into to.
func (a *InMemoryArchive) TransitionTo(ctx context.Context, club model.ClubID, to model.SeasonKey) (scoring.Transition, bool, error) {
	return a.Transition(ctx, club, to.Prev())
}

// Transitions returns every transition between adjacent stored seasons,
// ordered by the starting season.
func (a *InMemoryArchive) Transitions(ctx context.Context, club model.ClubID) ([]scoring.Transition, error) {
	a.mu.RLock()
	seasons, ok := a.graphs[club]
	if !ok {
		a.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownClub, club)
	}
	starts := sortedStarts(seasons)
	a.mu.RUnlock()

	out := make([]scoring.Transition, 0, len(starts))
	for _, start := range starts {
		t, ok, err := a.Transition(ctx, club, model.NewSeasonKey(start))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Clubs returns the accepted clubs in registration order.
func (a *InMemoryArchive) Clubs() []model.ClubID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.clubs)
}

// Counts returns the number of stored graphs and cached transitions.
func (a *InMemoryArchive) Counts() (graphs, transitions int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.countsLocked()
}

func (a *InMemoryArchive) countsLocked() (graphs, transitions int) {
	for _, c := range a.clubs {
		graphs += len(a.graphs[c])
		transitions += len(a.cache[c])
	}
	return graphs, transitions
}

func sortedStarts(seasons map[int]*graph.SeasonGraph) []int {
	starts := make([]int, 0, len(seasons))
	for s := range seasons {
		starts = append(starts, s)
	}
	slices.Sort(starts)
	return starts
}
