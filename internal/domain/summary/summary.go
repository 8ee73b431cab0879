// Package summary ranks the transitions of a run.
package summary

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
)

// DefaultTopN is the length of each ranking when none is configured.
const DefaultTopN = 10

// Entry is one ranked transition.
type Entry struct {
	Club  model.ClubID
	From  model.SeasonKey
	To    model.SeasonKey
	Score float64
}

// Transition renders the season span, e.g. "2015_2016 -> 2016_2017".
func (e Entry) Transition() string {
	return e.From.String() + " -> " + e.To.String()
}

// Report aggregates every transition of a run.
type Report struct {
	RunID            string
	TotalTransitions int
	AvgVScore        float64
	AvgEScore        float64

	TopVChanges []Entry // highest V-Score first
	TopEChanges []Entry // highest E-Score first
	MostStableV []Entry // lowest V-Score first
	MostStableE []Entry // lowest E-Score first
}

// Build computes the report. Averages are rounded to 3 decimals. Ties in
// every ranking are broken by club, then by season.
func Build(transitions []scoring.Transition, topN int, runID string) Report {
	if topN <= 0 {
		topN = DefaultTopN
	}
	r := Report{
		RunID:            runID,
		TotalTransitions: len(transitions),
		TopVChanges:      []Entry{},
		TopEChanges:      []Entry{},
		MostStableV:      []Entry{},
		MostStableE:      []Entry{},
	}
	if len(transitions) == 0 {
		return r
	}

	v := make([]Entry, len(transitions))
	e := make([]Entry, len(transitions))
	var sumV, sumE float64
	for i, t := range transitions {
		v[i] = Entry{Club: t.Club, From: t.From, To: t.To, Score: t.VScore}
		e[i] = Entry{Club: t.Club, From: t.From, To: t.To, Score: t.EScore}
		sumV += t.VScore
		sumE += t.EScore
	}
	n := float64(len(transitions))
	r.AvgVScore = Round3(sumV / n)
	r.AvgEScore = Round3(sumE / n)

	r.TopVChanges = rank(v, topN, true)
	r.TopEChanges = rank(e, topN, true)
	r.MostStableV = rank(v, topN, false)
	r.MostStableE = rank(e, topN, false)
	return r
}

func rank(entries []Entry, topN int, desc bool) []Entry {
	out := slices.Clone(entries)
	slices.SortFunc(out, func(a, b Entry) int {
		c := cmp.Compare(a.Score, b.Score)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c := strings.Compare(string(a.Club), string(b.Club)); c != 0 {
			return c
		}
		return cmp.Compare(a.From.Start, b.From.Start)
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Round3 rounds half away from zero to 3 decimals.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
