package service

import (
	"context"
	"fmt"

	"github.com/okian/squadgraph/internal/adapters/artifact"
	"github.com/okian/squadgraph/internal/adapters/ingest"
	"github.com/okian/squadgraph/internal/adapters/storage/mongostore"
	"github.com/okian/squadgraph/internal/config"
	"github.com/okian/squadgraph/pkg/logger"
)

// FromConfig wires a Service from process configuration: a directory source
// over cfg.DataDir, a file sink under cfg.OutputDir and, when cfg.MongoURI is
// set, a MongoDB sink. Extra options are applied last.
func FromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clubs, err := cfg.ClubIDs()
	if err != nil {
		return nil, err
	}

	src := ingest.NewDirSource(cfg.DataDir,
		ingest.WithClubs(clubs...),
		ingest.WithTeams(cfg.TeamNames()),
		ingest.WithSeasonRange(cfg.FirstSeason, cfg.LastSeason),
		ingest.WithDedupeSize(cfg.DedupeSize),
	)

	files, err := artifact.NewFileSink(cfg.OutputDir, artifact.WithChangeListLimit(cfg.ChangeListLimit))
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	sinks := []Sink{files}

	if cfg.MongoURI != "" {
		mongo, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase,
			mongostore.WithTimeout(cfg.MongoTimeout()),
			mongostore.WithChangeListLimit(cfg.ChangeListLimit),
		)
		if err != nil {
			return nil, fmt.Errorf("mongo sink: %w", err)
		}
		logger.Get().Info(ctx, "mongo sink enabled", logger.String("database", cfg.MongoDatabase))
		sinks = append(sinks, mongo)
	}

	base := []Option{
		WithClubs(clubs...),
		WithSource(src),
		WithSinks(sinks...),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithSummaryTopN(cfg.SummaryTopN),
	}
	return New(append(base, opts...)...), nil
}
