package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/squadgraph/internal/adapters/ingest"
	"github.com/okian/squadgraph/internal/adapters/mq/queue"
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/lineup"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Loader reads the de-duplicated match records of a unit.
type Loader interface {
	Load(ctx context.Context, unit model.Unit) (ingest.Batch, error)
}

// Aggregator turns match records into appearance and pair counts.
type Aggregator interface {
	Aggregate(ctx context.Context, unit model.Unit, records []model.MatchRecord) *lineup.Counts
}

// Builder turns counts into a season graph.
type Builder interface {
	Build(ctx context.Context, c *lineup.Counts) (*graph.SeasonGraph, error)
}

// Store keeps built graphs.
type Store interface {
	PutGraph(ctx context.Context, g *graph.SeasonGraph) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Stages bundles the collaborators a worker drives for each job.
type Stages struct {
	Loader     Loader
	Aggregator Aggregator
	Builder    Builder
	Store      Store
}

// Result is the outcome of one job. Graph is nil when Err is set.
type Result struct {
	Job        Job
	Graph      *graph.SeasonGraph
	Matches    int
	Skipped    int
	Duplicates int
	Duration   time.Duration
	Err        error
}

// Worker processes build jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	stages   Stages
	name     string
	onResult func(Result)

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, stages Stages, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		stages:   stages,
		name:     "worker",
		onResult: func(Result) {},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			res := w.process(ctx, j)
			if res.Err != nil {
				w.logger.Error(ctx, "build job failed",
					logger.String("jobID", j.JobID),
					logger.String("unit", j.Unit.String()),
					logger.Error(res.Err),
				)
			}
			w.onResult(res)
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job through load, aggregate, build and store.
func (w *InMemoryWorker) process(ctx context.Context, j Job) Result {
	start := time.Now()
	res := Result{Job: j}
	defer func() {
		res.Duration = time.Since(start)
		metrics.RecordWorkerProcessingLatency(float64(res.Duration.Milliseconds()))
	}()

	fail := func(stage string, err error) Result {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", stage+"_error")
		res.Err = fmt.Errorf("%s %s: %w", stage, j.Unit, err)
		return res
	}

	batch, err := w.stages.Loader.Load(ctx, j.Unit)
	if err != nil {
		return fail("load", err)
	}
	res.Duplicates = batch.Duplicates

	counts := w.stages.Aggregator.Aggregate(ctx, j.Unit, batch.Records)
	res.Matches = counts.Matches
	res.Skipped = counts.Skipped

	g, err := w.stages.Builder.Build(ctx, counts)
	if err != nil {
		return fail("build", err)
	}
	if err := w.stages.Store.PutGraph(ctx, g); err != nil {
		return fail("store", err)
	}
	res.Graph = g

	w.logger.Debug(ctx, "build job done",
		logger.String("jobID", j.JobID),
		logger.String("unit", j.Unit.String()),
		logger.Int("players", g.NodeCount()),
		logger.Int("pairs", g.EdgeCount()),
	)
	return res
}

// Pool manages multiple workers.
type Pool struct {
	workers []Worker
	queue   Queue
	active  atomic.Int64

	wg     sync.WaitGroup
	logger logger.Logger
}

// NewPool creates a pool of workerCount workers sharing q and stages.
// workerCount < 1 means runtime.NumCPU().
func NewPool(workerCount int, q Queue, stages Stages, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]Worker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, stages, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of running workers.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		metrics.UpdateWorkerActiveCount(int(p.active.Add(1)))
		go func(w Worker) {
			defer func() {
				metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
				p.wg.Done()
			}()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned, which happens once the
// queue is closed and drained or ctx is canceled.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown closes the queue, if it can be closed, and stops every worker
// after its current job. Queued jobs that no worker picked up are dropped.
// The wait is bounded by ctx and poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out",
				logger.Int("worker_id", i),
				logger.Int("active", p.Active()),
			)
			return fmt.Errorf("pool shutdown: %w", err)
		}
	}
	return nil
}
