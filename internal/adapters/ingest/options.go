package ingest

import (
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/pkg/logger"
)

// Option applies a configuration option to the DirSource.
type Option func(*DirSource)

// WithClubs restricts discovery to the given clubs. Without it every club
// token found in the directory is accepted.
func WithClubs(clubs ...model.ClubID) Option {
	return func(s *DirSource) {
		if len(clubs) == 0 {
			return
		}
		s.clubs = make(map[model.ClubID]struct{}, len(clubs))
		for _, c := range clubs {
			s.clubs[c] = struct{}{}
		}
	}
}

// WithTeams sets the team name used to find the club's side in a match.
// Clubs without an entry fall back to the most frequent team in the file.
func WithTeams(teams map[model.ClubID]string) Option {
	return func(s *DirSource) {
		for k, v := range teams {
			s.teams[k] = v
		}
	}
}

// WithSeasonRange bounds discovery by season start year. 0 leaves a bound open.
func WithSeasonRange(first, last int) Option {
	return func(s *DirSource) {
		s.first, s.last = first, last
	}
}

// WithDedupeSize bounds the per-unit match de-duplication cache.
func WithDedupeSize(n int) Option {
	return func(s *DirSource) {
		s.dedupeSize = n
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(s *DirSource) {
		if l != nil {
			s.logger = l
		}
	}
}
