// Package api exposes the season graphs, transitions and run summary over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/squadgraph/internal/adapters/repository"
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/internal/domain/summary"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Clubs() []model.ClubID
	Graph(ctx context.Context, club model.ClubID, season model.SeasonKey) (*graph.SeasonGraph, bool, error)
	Graphs(ctx context.Context, club model.ClubID) ([]*graph.SeasonGraph, error)
	Transitions(ctx context.Context, club model.ClubID) ([]scoring.Transition, error)
	Transition(ctx context.Context, club model.ClubID, from model.SeasonKey) (scoring.Transition, bool, error)
	TransitionTo(ctx context.Context, club model.ClubID, to model.SeasonKey) (scoring.Transition, bool, error)
	Summary(ctx context.Context) (summary.Report, bool)
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	clubsHandler       *ClubsHandler
	graphsHandler      *GraphsHandler
	transitionsHandler *TransitionsHandler
	summaryHandler     *SummaryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		clubsHandler:       NewClubsHandler(deps),
		graphsHandler:      NewGraphsHandler(deps),
		transitionsHandler: NewTransitionsHandler(deps),
		summaryHandler:     NewSummaryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/clubs", MetricsMiddleware(s.clubsHandler.HandleGetClubs, "clubs"))
	mux.HandleFunc("/graphs/", MetricsMiddleware(s.graphsHandler.HandleGetGraph, "graphs"))
	mux.HandleFunc("/transitions/", MetricsMiddleware(s.transitionsHandler.HandleGetTransitions, "transitions"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeLookupError maps upstream errors: unknown clubs are 404, the rest 500.
func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrUnknownClub) || errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}

// pathParams splits the path after prefix into exactly n non-empty segments.
func pathParams(r *http.Request, prefix string, n int) ([]string, bool) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return nil, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != n {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

// parseClubSeason validates the club and season path segments.
func parseClubSeason(clubRaw, seasonRaw string) (model.ClubID, model.SeasonKey, error) {
	club, err := model.ParseClubID(clubRaw)
	if err != nil {
		return "", model.SeasonKey{}, err
	}
	season, err := model.ParseSeasonKey(seasonRaw)
	if err != nil {
		return "", model.SeasonKey{}, err
	}
	return club, season, nil
}
