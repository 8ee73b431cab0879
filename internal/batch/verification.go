package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/okian/squadgraph/internal/adapters/artifact"
	service "github.com/okian/squadgraph/internal/app"
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/pkg/logger"
)

// verifyArtifacts reads every graph file back, checks it against the
// archive and recomputes each transition file from the read-back graphs.
func verifyArtifacts(ctx context.Context, dir string, limit int, svc *service.Service, stats *Stats) error {
	log := logger.Get().Named("verify")
	calc := scoring.NewDynamicCalculator(scoring.WithLogger(log))

	for _, club := range svc.Clubs() {
		archived, err := svc.Graphs(ctx, club)
		if err != nil {
			return err
		}

		read := make([]*graph.SeasonGraph, 0, len(archived))
		for _, g := range archived {
			path := filepath.Join(dir, artifact.GraphFileName(g.Unit()))
			back, err := artifact.ReadGraphFile(path, g.Unit())
			if err != nil {
				return fmt.Errorf("%w: %w", ErrVerification, err)
			}
			if !slices.Equal(back.Nodes(), g.Nodes()) || !slices.Equal(back.Edges(), g.Edges()) {
				return fmt.Errorf("%w: %s differs from the archive", ErrVerification, path)
			}
			read = append(read, back)
			stats.GraphsVerified++
		}

		if err := verifyTransitions(ctx, dir, club, limit, calc, read, stats); err != nil {
			return err
		}
	}

	log.Info(ctx, "artifacts verified",
		logger.Int("graphs", stats.GraphsVerified),
		logger.Int("transitions", stats.TransitionsChecked))
	return nil
}

func verifyTransitions(ctx context.Context, dir string, club model.ClubID, limit int, calc scoring.Calculator, graphs []*graph.SeasonGraph, stats *Stats) error {
	var want []artifact.TransitionDoc
	for i := 1; i < len(graphs); i++ {
		if !graphs[i].Season().Follows(graphs[i-1].Season()) {
			continue
		}
		t, err := calc.Calculate(ctx, graphs[i-1], graphs[i])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrVerification, err)
		}
		want = append(want, artifact.NewTransitionDoc(t, limit))
	}

	path := filepath.Join(dir, artifact.TransitionsFileName(club))
	got, err := artifact.ReadTransitions(path)
	if errors.Is(err, fs.ErrNotExist) && len(want) == 0 {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	if len(got) != len(want) {
		return fmt.Errorf("%w: %s holds %d transitions, recomputed %d", ErrVerification, path, len(got), len(want))
	}
	for i := range want {
		if !sameDoc(got[i], want[i]) {
			return fmt.Errorf("%w: %s %s→%s does not reproduce", ErrVerification, club, want[i].SeasonFrom, want[i].SeasonTo)
		}
		stats.TransitionsChecked++
	}
	return nil
}

func sameDoc(a, b artifact.TransitionDoc) bool {
	return a.Club == b.Club &&
		a.SeasonFrom == b.SeasonFrom &&
		a.SeasonTo == b.SeasonTo &&
		a.VScore == b.VScore &&
		a.EScore == b.EScore &&
		a.Stats == b.Stats &&
		slices.Equal(a.PlayersLeft, b.PlayersLeft) &&
		slices.Equal(a.PlayersJoined, b.PlayersJoined) &&
		slices.Equal(a.EdgesLost, b.EdgesLost) &&
		slices.Equal(a.EdgesGained, b.EdgesGained)
}
