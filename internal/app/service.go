// Package service runs the season graph pipeline and serves its results to
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/squadgraph/internal/adapters/ingest"
	jobqueue "github.com/okian/squadgraph/internal/adapters/mq/queue"
	workerpool "github.com/okian/squadgraph/internal/adapters/mq/worker"
	"github.com/okian/squadgraph/internal/adapters/repository"
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/lineup"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/internal/domain/summary"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

const (
	defaultQueueSize     = 1024
	buildShutdownTimeout = 5 * time.Second
)

// Sink receives the artifacts of a run.
type Sink interface {
	WriteGraph(ctx context.Context, g *graph.SeasonGraph) error
	WriteTransitions(ctx context.Context, club model.ClubID, ts []scoring.Transition) error
	WriteRun(ctx context.Context, all []scoring.Transition, report summary.Report) error
}

// RunReport describes one pipeline run.
type RunReport struct {
	RunID          string
	Units          int
	GraphsBuilt    int
	FailedUnits    []model.Unit
	Matches        int
	RecordsSkipped int
	Duplicates     int
	Transitions    int
	SinkErrors     int
	Duration       time.Duration
}

// Service owns the transition archive and the pipeline that fills it.
type Service struct {
	mu sync.RWMutex

	archive *repository.InMemoryArchive
	source  ingest.Source
	sinks   []Sink
	calc    scoring.Calculator

	workerCount int
	queueSize   int
	topN        int
	clubs       []model.ClubID

	running atomic.Bool
	lastRun *RunReport
	report  *summary.Report

	logger logger.Logger
}

// New constructs a Service. The archive accepts graphs for the clubs given
// by WithClubs only.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		topN:        summary.DefaultTopN,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.calc == nil {
		s.calc = scoring.NewDynamicCalculator()
	}
	s.archive = s.newArchive()
	s.clubs = s.archive.Clubs()
	return s
}

func (s *Service) newArchive() *repository.InMemoryArchive {
	return repository.NewInMemoryArchive(
		repository.WithClubs(s.clubs...),
		repository.WithCalculator(s.calc),
	)
}

// current returns the archive of the last completed run.
func (s *Service) current() *repository.InMemoryArchive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.archive
}

// Run builds every unit the source offers into a fresh archive, scores the
// transitions of each club and hands the results to the sinks. The new
// archive replaces the previous one once the run completes, so seasons the
// source no longer offers are neither scored nor served. A unit that fails to build is
// logged and reported; the run goes on without it. Sink failures are
// reported through ErrSinkFailed after every sink had its chance.
func (s *Service) Run(ctx context.Context) (RunReport, error) {
	if s.source == nil {
		return RunReport{}, ErrNoSource
	}
	if len(s.clubs) == 0 {
		return RunReport{}, ErrNoClubs
	}
	if !s.running.CompareAndSwap(false, true) {
		return RunReport{}, ErrRunning
	}
	defer s.running.Store(false)

	start := time.Now()
	rep := RunReport{RunID: uuid.NewString()}
	runID := logger.String("runID", rep.RunID)

	err := s.run(ctx, &rep)
	rep.Duration = time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordRun(status, float64(rep.Duration.Milliseconds()))

	s.mu.Lock()
	last := rep
	s.lastRun = &last
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(ctx, "run failed", runID, logger.Error(err))
		return rep, err
	}
	s.logger.Info(ctx, "run finished",
		runID,
		logger.Int("units", rep.Units),
		logger.Int("graphs", rep.GraphsBuilt),
		logger.Int("failedUnits", len(rep.FailedUnits)),
		logger.Int("transitions", rep.Transitions),
		logger.Duration("duration", rep.Duration),
	)
	return rep, nil
}

func (s *Service) run(ctx context.Context, rep *RunReport) error {
	units, err := s.source.Units(ctx)
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}
	units = slices.DeleteFunc(units, func(u model.Unit) bool {
		return !slices.Contains(s.clubs, u.Club)
	})
	rep.Units = len(units)
	s.logger.Info(ctx, "run started", logger.String("runID", rep.RunID), logger.Int("units", len(units)), logger.Int("workers", s.workerCount))

	archive := s.newArchive()
	built, err := s.build(ctx, rep, archive, units)
	if err != nil {
		return err
	}

	sinkErrs := 0
	for _, g := range built {
		sinkErrs += s.toSinks(ctx, "graph", func(sink Sink) error { return sink.WriteGraph(ctx, g) })
	}

	perClub, err := s.score(ctx, archive)
	if err != nil {
		return err
	}

	var all []scoring.Transition
	for _, club := range s.clubs {
		ts := perClub[club]
		all = append(all, ts...)
		sinkErrs += s.toSinks(ctx, "transitions", func(sink Sink) error { return sink.WriteTransitions(ctx, club, ts) })
	}
	rep.Transitions = len(all)

	report := summary.Build(all, s.topN, rep.RunID)
	sinkErrs += s.toSinks(ctx, "run", func(sink Sink) error { return sink.WriteRun(ctx, all, report) })

	s.mu.Lock()
	s.archive = archive
	s.report = &report
	s.mu.Unlock()

	rep.SinkErrors = sinkErrs
	if sinkErrs > 0 {
		return fmt.Errorf("%w: %d writes failed", ErrSinkFailed, sinkErrs)
	}
	return nil
}

// build runs one job per unit through the worker pool and returns the
// graphs built, ordered by unit.
func (s *Service) build(ctx context.Context, rep *RunReport, archive *repository.InMemoryArchive, units []model.Unit) ([]*graph.SeasonGraph, error) {
	var (
		mu      sync.Mutex
		results []workerpool.Result
	)
	q := jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	pool := workerpool.NewPool(s.workerCount, q, workerpool.Stages{
		Loader:     s.source,
		Aggregator: lineup.NewAggregator(),
		Builder:    graph.NewBuilder(),
		Store:      archive,
	}, workerpool.WithResultHandler(func(r workerpool.Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))
	pool.Start(ctx)
	s.logger.Debug(ctx, "build started",
		logger.String("runID", rep.RunID),
		logger.Int("workers", pool.Size()),
		logger.Int("queueCapacity", q.Capacity()),
	)

	var enqueueErr error
	for _, u := range units {
		if err := q.Enqueue(ctx, jobqueue.Job{JobID: rep.RunID + "/" + u.String(), Unit: u}); err != nil {
			enqueueErr = fmt.Errorf("enqueue %s: %w", u, err)
			break
		}
	}
	if ctx.Err() != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildShutdownTimeout)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "build workers did not stop in time", logger.String("runID", rep.RunID), logger.Error(err))
		}
		return nil, ctx.Err()
	}
	_ = q.Close()
	pool.Wait()
	if enqueueErr != nil {
		return nil, enqueueErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	built := make([]*graph.SeasonGraph, 0, len(results))
	for _, r := range results {
		rep.Matches += r.Matches
		rep.RecordsSkipped += r.Skipped
		rep.Duplicates += r.Duplicates
		if r.Err != nil {
			rep.FailedUnits = append(rep.FailedUnits, r.Job.Unit)
			continue
		}
		built = append(built, r.Graph)
	}
	rep.GraphsBuilt = len(built)

	slices.SortFunc(built, func(a, b *graph.SeasonGraph) int { return compareUnits(a.Unit(), b.Unit()) })
	slices.SortFunc(rep.FailedUnits, compareUnits)
	return built, nil
}

// score computes every club's transitions in parallel.
func (s *Service) score(ctx context.Context, archive *repository.InMemoryArchive) (map[model.ClubID][]scoring.Transition, error) {
	var mu sync.Mutex
	out := make(map[model.ClubID][]scoring.Transition, len(s.clubs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for _, club := range s.clubs {
		g.Go(func() error {
			ts, err := archive.Transitions(gctx, club)
			if err != nil {
				return fmt.Errorf("transitions of %s: %w", club, err)
			}
			mu.Lock()
			out[club] = ts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// toSinks hands one artifact to every sink and returns the number of
// failures.
func (s *Service) toSinks(ctx context.Context, kind string, write func(Sink) error) int {
	failed := 0
	for _, sink := range s.sinks {
		if err := write(sink); err != nil {
			failed++
			metrics.RecordErrorByComponent("service", "sink_"+kind)
			s.logger.Error(ctx, "sink write failed",
				logger.String("kind", kind),
				logger.String("sink", fmt.Sprintf("%T", sink)),
				logger.Error(err),
			)
		}
	}
	return failed
}

func compareUnits(a, b model.Unit) int {
	if a.Club != b.Club {
		if a.Club < b.Club {
			return -1
		}
		return 1
	}
	return a.Season.Start - b.Season.Start
}

// Close releases sinks that hold connections.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	for _, sink := range s.sinks {
		if c, ok := sink.(interface{ Close(context.Context) error }); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Clubs returns the configured clubs in configuration order.
func (s *Service) Clubs() []model.ClubID {
	return slices.Clone(s.clubs)
}

// Graph returns the season graph of a club.
func (s *Service) Graph(ctx context.Context, club model.ClubID, season model.SeasonKey) (*graph.SeasonGraph, bool, error) {
	return s.current().Graph(ctx, club, season)
}

// Graphs returns every stored season graph of a club, ordered by season.
func (s *Service) Graphs(ctx context.Context, club model.ClubID) ([]*graph.SeasonGraph, error) {
	return s.current().Graphs(ctx, club)
}

// Transitions returns the club's transitions ordered by starting season.
func (s *Service) Transitions(ctx context.Context, club model.ClubID) ([]scoring.Transition, error) {
	return s.current().Transitions(ctx, club)
}

// Transition returns the transition out of season.
func (s *Service) Transition(ctx context.Context, club model.ClubID, from model.SeasonKey) (scoring.Transition, bool, error) {
	return s.current().Transition(ctx, club, from)
}

// TransitionTo returns the transition into season.
func (s *Service) TransitionTo(ctx context.Context, club model.ClubID, to model.SeasonKey) (scoring.Transition, bool, error) {
	return s.current().TransitionTo(ctx, club, to)
}

// Summary returns the report of the last completed run.
func (s *Service) Summary(_ context.Context) (summary.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return summary.Report{}, false
	}
	return *s.report, true
}

// LastRun returns the report of the most recent run, if any.
func (s *Service) LastRun() (RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return RunReport{}, false
	}
	return *s.lastRun, true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	graphs, transitions := s.current().Counts()
	stats := map[string]interface{}{
		"running":     s.running.Load(),
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"clubs":       len(s.clubs),
		"graphs":      graphs,
		"transitions": transitions,
		"sinks":       len(s.sinks),
	}

	if last, ok := s.LastRun(); ok {
		stats["lastRun"] = map[string]interface{}{
			"runID":          last.RunID,
			"units":          last.Units,
			"graphsBuilt":    last.GraphsBuilt,
			"failedUnits":    len(last.FailedUnits),
			"recordsSkipped": last.RecordsSkipped,
			"duplicates":     last.Duplicates,
			"transitions":    last.Transitions,
			"durationMs":     last.Duration.Milliseconds(),
		}
	}

	metrics.UpdateWorkerCount(s.workerCount)
	metrics.UpdateArchiveGraphs(graphs)
	metrics.UpdateArchiveTransitions(transitions)
	return stats
}
