// Package lineup turns a club season's match records into per-player match
// counts and per-pair co-occurrence counts.
package lineup

import (
	"context"
	"sort"
	"strings"

	"github.com/cannona/choose"

	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

// SkipReason classifies a malformed match record.
type SkipReason string

// Reasons a record is left out of the aggregation.
const (
	SkipMissingSide SkipReason = "missing_side"
	SkipMissingName SkipReason = "missing_player_name"
	SkipForeignUnit SkipReason = "foreign_unit"
)

// Counts is the aggregated view of one club season.
type Counts struct {
	Unit model.Unit

	// Players maps a player to the number of matches they appeared in.
	Players map[string]int
	// Pairs maps an unordered pair to the number of matches both appeared in.
	Pairs map[model.Pair]int

	// Matches counts the records that contributed.
	Matches int
	// Skipped counts malformed records, broken down in SkipReasons.
	Skipped     int
	SkipReasons map[SkipReason]int
}

func newCounts(unit model.Unit) *Counts {
	return &Counts{
		Unit:        unit,
		Players:     make(map[string]int),
		Pairs:       make(map[model.Pair]int),
		SkipReasons: make(map[SkipReason]int),
	}
}

// Aggregator accumulates lineup records. It holds no per-call state and is
// safe for concurrent use.
type Aggregator struct {
	logger logger.Logger
}

// NewAggregator creates an aggregator with configuration options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("lineup")
	}
	return a
}

// Aggregate counts appearances and co-occurrences over records for unit.
// Malformed records are skipped and reported in the result; they never abort
// the aggregation. Record order does not affect the result.
func (a *Aggregator) Aggregate(ctx context.Context, unit model.Unit, records []model.MatchRecord) *Counts {
	c := newCounts(unit)

	for i := range records {
		rec := &records[i]
		names, reason, ok := appearedPlayers(unit, rec)
		if !ok {
			c.Skipped++
			c.SkipReasons[reason]++
			metrics.RecordRecordSkipped(string(reason))
			a.logger.Debug(ctx, "skipping malformed match record",
				logger.String("unit", unit.String()),
				logger.String("matchID", rec.MatchID),
				logger.String("reason", string(reason)),
			)
			continue
		}

		c.Matches++
		metrics.RecordMatchAggregated()
		for _, name := range names {
			c.Players[name]++
		}
		for _, p := range pairs(names) {
			c.Pairs[p]++
		}
	}

	if c.Skipped > 0 {
		a.logger.Warn(ctx, "malformed match records skipped",
			logger.String("unit", unit.String()),
			logger.Int("skipped", c.Skipped),
			logger.Int("matches", c.Matches),
		)
	}
	return c
}

// appearedPlayers returns the sorted, distinct names of the club's players who
// appeared in rec.
func appearedPlayers(unit model.Unit, rec *model.MatchRecord) ([]string, SkipReason, bool) {
	if rec.Club != "" && rec.Club != unit.Club {
		return nil, SkipForeignUnit, false
	}
	if rec.Season.Start != 0 && rec.Season != unit.Season {
		return nil, SkipForeignUnit, false
	}
	entries, ok := rec.ClubLineup()
	if !ok {
		return nil, SkipMissingSide, false
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, SkipMissingName, false
		}
		if !e.Appeared {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, "", true
}

// pairs expands sorted distinct names into their C(n,2) canonical pairs.
func pairs(names []string) []model.Pair {
	if len(names) < 2 {
		return nil
	}
	res := make([]model.Pair, 0, choose.Choose(int64(len(names)), 2))
	for i, a := range names {
		for _, b := range names[i+1:] {
			res = append(res, model.Pair{A: a, B: b})
		}
	}
	return res
}
