package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	service "github.com/okian/squadgraph/internal/app"
	"github.com/okian/squadgraph/internal/config"
	"github.com/okian/squadgraph/pkg/logger"
)

// ErrVerification reports artifacts that do not reproduce the archive.
var ErrVerification = errors.New("artifact verification failed")

// Run executes one pipeline run with cfg layered over the process
// configuration and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("batch")

	pc, err := config.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("load config: %w", err)
	}
	apply(cfg, pc)

	log.Info(ctx, "starting season graph build",
		logger.String("dataDir", pc.DataDir),
		logger.String("outputDir", pc.OutputDir),
		logger.Int("clubs", len(pc.Clubs)),
		logger.Int("workers", pc.WorkerCount),
		logger.Int("changeListLimit", pc.ChangeListLimit),
		logger.Bool("verify", cfg.Verify))

	svc, err := service.FromConfig(ctx, pc)
	if err != nil {
		return stats, fmt.Errorf("create service: %w", err)
	}
	defer func() {
		if err := svc.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error(ctx, "failed to close sinks", logger.Error(err))
		}
	}()

	rep, runErr := svc.Run(ctx)
	stats.RunID = rep.RunID
	stats.Units = rep.Units
	stats.GraphsBuilt = rep.GraphsBuilt
	stats.FailedUnits = len(rep.FailedUnits)
	stats.Matches = rep.Matches
	stats.RecordsSkipped = rep.RecordsSkipped
	stats.Duplicates = rep.Duplicates
	stats.Transitions = rep.Transitions
	stats.SinkErrors = rep.SinkErrors

	for _, u := range rep.FailedUnits {
		log.Warn(ctx, "unit not built", logger.String("unit", u.String()))
	}

	if runErr == nil && cfg.Verify {
		runErr = verifyArtifacts(ctx, pc.OutputDir, pc.ChangeListLimit, svc, stats)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if runErr != nil {
		return stats, runErr
	}
	log.Info(ctx, "build completed successfully")
	return stats, nil
}

// apply overrides the process configuration with the non-zero flags.
func apply(cfg *Config, pc *config.Config) {
	if cfg.DataDir != "" {
		pc.DataDir = cfg.DataDir
	}
	if cfg.OutputDir != "" {
		pc.OutputDir = cfg.OutputDir
	}
	if len(cfg.Clubs) > 0 {
		pc.Clubs = cfg.Clubs
	}
	if cfg.Workers > 0 {
		pc.WorkerCount = cfg.Workers
	}
	if cfg.ChangeListLimit > 0 {
		pc.ChangeListLimit = cfg.ChangeListLimit
	}
	if cfg.TopN > 0 {
		pc.SummaryTopN = cfg.TopN
	}
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var unitsPerSecond float64
	if stats.Duration > 0 {
		unitsPerSecond = float64(stats.GraphsBuilt) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("units", stats.Units),
		logger.Int("graphsBuilt", stats.GraphsBuilt),
		logger.Int("failedUnits", stats.FailedUnits),
		logger.Int("matches", stats.Matches),
		logger.Int("recordsSkipped", stats.RecordsSkipped),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("transitions", stats.Transitions),
		logger.Int("sinkErrors", stats.SinkErrors),
		logger.Int("graphsVerified", stats.GraphsVerified),
		logger.Int("transitionsChecked", stats.TransitionsChecked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("unitsPerSecond", unitsPerSecond))
}
