package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/squadgraph/internal/domain/lineup"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

const logTopN = 5

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Builder turns aggregated counts into season graphs.
type Builder struct {
	logger logger.Logger
}

// NewBuilder creates a graph builder with configuration options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Get().Named("graph")
	}
	return b
}

// Build emits the season graph for c. Players become nodes verbatim and
// every pair with a count of at least one becomes an edge; nothing is pruned.
func (b *Builder) Build(ctx context.Context, c *lineup.Counts) (*SeasonGraph, error) {
	start := time.Now()

	edges := make(map[model.Pair]int, len(c.Pairs))
	for p, n := range c.Pairs {
		if n >= 1 {
			edges[p] = n
		}
	}
	g, err := New(c.Unit, c.Players, edges)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", c.Unit, err)
	}

	metrics.RecordGraphBuilt()
	metrics.RecordGraphBuildLatency(float64(time.Since(start).Milliseconds()))

	stats := g.Stats(logTopN)
	fields := []logger.Field{
		logger.String("unit", c.Unit.String()),
		logger.Int("players", stats.Players),
		logger.Int("pairs", stats.Pairs),
		logger.Float64("density", stats.Density),
		logger.Int("matches", c.Matches),
		logger.Int("skipped", c.Skipped),
	}
	if len(stats.TopPairs) > 0 {
		top := stats.TopPairs[0]
		fields = append(fields, logger.String("strongestPair", top.A+" ↔ "+top.B), logger.Int("strongestWeight", top.Weight))
	}
	b.logger.Info(ctx, "season graph built", fields...)
	return g, nil
}
