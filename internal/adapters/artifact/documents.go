package artifact

import (
	"fmt"

	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/internal/domain/summary"
)

// TransitionStats is the stats block of a transition document.
type TransitionStats struct {
	TotalPlayersT  int `json:"total_players_t" bson:"total_players_t"`
	TotalPlayersT1 int `json:"total_players_t1" bson:"total_players_t1"`
	TotalEdgesT    int `json:"total_edges_t" bson:"total_edges_t"`
	TotalEdgesT1   int `json:"total_edges_t1" bson:"total_edges_t1"`
}

// TransitionDoc is the persisted form of a transition.
type TransitionDoc struct {
	Club          string          `json:"club" bson:"club"`
	SeasonFrom    string          `json:"season_from" bson:"season_from"`
	SeasonTo      string          `json:"season_to" bson:"season_to"`
	VScore        float64         `json:"v_score" bson:"v_score"`
	EScore        float64         `json:"e_score" bson:"e_score"`
	Stats         TransitionStats `json:"stats" bson:"stats"`
	PlayersLeft   []graph.Node    `json:"players_left" bson:"players_left"`
	PlayersJoined []graph.Node    `json:"players_joined" bson:"players_joined"`
	EdgesLost     []graph.Edge    `json:"edges_lost" bson:"edges_lost"`
	EdgesGained   []graph.Edge    `json:"edges_gained" bson:"edges_gained"`
}

// NewTransitionDoc converts t. Scores are rounded to 3 decimals. A positive
// limit truncates each change list.
func NewTransitionDoc(t scoring.Transition, limit int) TransitionDoc {
	return TransitionDoc{
		Club:       string(t.Club),
		SeasonFrom: t.From.String(),
		SeasonTo:   t.To.String(),
		VScore:     summary.Round3(t.VScore),
		EScore:     summary.Round3(t.EScore),
		Stats: TransitionStats{
			TotalPlayersT:  t.Stats.PlayersFrom,
			TotalPlayersT1: t.Stats.PlayersTo,
			TotalEdgesT:    t.Stats.EdgesFrom,
			TotalEdgesT1:   t.Stats.EdgesTo,
		},
		PlayersLeft:   head(t.PlayersLeft, limit),
		PlayersJoined: head(t.PlayersJoined, limit),
		EdgesLost:     head(t.EdgesLost, limit),
		EdgesGained:   head(t.EdgesGained, limit),
	}
}

// NewTransitionDocs converts ts in order.
func NewTransitionDocs(ts []scoring.Transition, limit int) []TransitionDoc {
	out := make([]TransitionDoc, len(ts))
	for i, t := range ts {
		out[i] = NewTransitionDoc(t, limit)
	}
	return out
}

// Transition converts the document back. Scores keep their rounding.
func (d TransitionDoc) Transition() (scoring.Transition, error) {
	club, err := model.ParseClubID(d.Club)
	if err != nil {
		return scoring.Transition{}, err
	}
	from, err := model.ParseSeasonKey(d.SeasonFrom)
	if err != nil {
		return scoring.Transition{}, err
	}
	to, err := model.ParseSeasonKey(d.SeasonTo)
	if err != nil {
		return scoring.Transition{}, err
	}
	if !to.Follows(from) {
		return scoring.Transition{}, fmt.Errorf("%w: %s -> %s", scoring.ErrSeasonMismatch, from, to)
	}
	return scoring.Transition{
		Club:   club,
		From:   from,
		To:     to,
		VScore: d.VScore,
		EScore: d.EScore,
		Stats: scoring.Stats{
			PlayersFrom: d.Stats.TotalPlayersT,
			PlayersTo:   d.Stats.TotalPlayersT1,
			EdgesFrom:   d.Stats.TotalEdgesT,
			EdgesTo:     d.Stats.TotalEdgesT1,
		},
		PlayersLeft:   nonNil(d.PlayersLeft),
		PlayersJoined: nonNil(d.PlayersJoined),
		EdgesLost:     nonNil(d.EdgesLost),
		EdgesGained:   nonNil(d.EdgesGained),
	}, nil
}

func head[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		s = s[:limit]
	}
	return nonNil(s)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// SummaryTotals is the totals block of the summary report.
type SummaryTotals struct {
	TotalTransitions int     `json:"total_transitions" bson:"total_transitions"`
	AvgVScore        float64 `json:"avg_v_score" bson:"avg_v_score"`
	AvgEScore        float64 `json:"avg_e_score" bson:"avg_e_score"`
}

// VRankEntry is a ranked transition in a V-Score list.
type VRankEntry struct {
	Club       string  `json:"club" bson:"club"`
	Transition string  `json:"transition" bson:"transition"`
	VScore     float64 `json:"v_score" bson:"v_score"`
}

// ERankEntry is a ranked transition in an E-Score list.
type ERankEntry struct {
	Club       string  `json:"club" bson:"club"`
	Transition string  `json:"transition" bson:"transition"`
	EScore     float64 `json:"e_score" bson:"e_score"`
}

// SummaryDoc is the persisted summary report.
type SummaryDoc struct {
	RunID       string        `json:"run_id,omitempty" bson:"run_id,omitempty"`
	Summary     SummaryTotals `json:"summary" bson:"summary"`
	TopVChanges []VRankEntry  `json:"top_v_changes" bson:"top_v_changes"`
	TopEChanges []ERankEntry  `json:"top_e_changes" bson:"top_e_changes"`
	MostStableV []VRankEntry  `json:"most_stable_v" bson:"most_stable_v"`
	MostStableE []ERankEntry  `json:"most_stable_e" bson:"most_stable_e"`
}

// NewSummaryDoc converts r. Entry scores are rounded to 3 decimals.
func NewSummaryDoc(r summary.Report) SummaryDoc {
	return SummaryDoc{
		RunID: r.RunID,
		Summary: SummaryTotals{
			TotalTransitions: r.TotalTransitions,
			AvgVScore:        r.AvgVScore,
			AvgEScore:        r.AvgEScore,
		},
		TopVChanges: vEntries(r.TopVChanges),
		TopEChanges: eEntries(r.TopEChanges),
		MostStableV: vEntries(r.MostStableV),
		MostStableE: eEntries(r.MostStableE),
	}
}

func vEntries(in []summary.Entry) []VRankEntry {
	out := make([]VRankEntry, len(in))
	for i, e := range in {
		out[i] = VRankEntry{Club: string(e.Club), Transition: e.Transition(), VScore: summary.Round3(e.Score)}
	}
	return out
}

func eEntries(in []summary.Entry) []ERankEntry {
	out := make([]ERankEntry, len(in))
	for i, e := range in {
		out[i] = ERankEntry{Club: string(e.Club), Transition: e.Transition(), EScore: summary.Round3(e.Score)}
	}
	return out
}
