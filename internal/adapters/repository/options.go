package repository

import (
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/pkg/logger"
)

// Option applies a configuration option to the InMemoryArchive.
type Option func(*InMemoryArchive)

// WithClubs sets the clubs the archive accepts graphs for. Duplicates are
// ignored; the first occurrence fixes the order reported by Clubs.
func WithClubs(clubs ...model.ClubID) Option {
	return func(a *InMemoryArchive) {
		for _, c := range clubs {
			if _, ok := a.graphs[c]; ok {
				continue
			}
			a.clubs = append(a.clubs, c)
			a.graphs[c] = make(map[int]*graph.SeasonGraph)
			a.cache[c] = make(map[int]scoring.Transition)
		}
	}
}

// WithCalculator replaces the dynamic score calculator.
func WithCalculator(c scoring.Calculator) Option {
	return func(a *InMemoryArchive) {
		if c != nil {
			a.calc = c
		}
	}
}

// WithLogger sets a custom logger for the archive.
func WithLogger(l logger.Logger) Option {
	return func(a *InMemoryArchive) {
		if l != nil {
			a.logger = l
		}
	}
}
