package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/squadgraph/internal/adapters/artifact"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
)

// TransitionsHandler serves dynamic scores.
type TransitionsHandler struct {
	deps Dependencies
}

// NewTransitionsHandler creates a new transitions handler.
func NewTransitionsHandler(deps Dependencies) *TransitionsHandler {
	return &TransitionsHandler{deps: deps}
}

// HandleGetTransitions handles GET /transitions/{club} and
// GET /transitions/{club}/{season}. With direction=to the season is the
// target of the transition, otherwise its origin.
func (h *TransitionsHandler) HandleGetTransitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if params, ok := pathParams(r, "/transitions/", 1); ok {
		h.list(w, r, params[0])
		return
	}
	params, ok := pathParams(r, "/transitions/", 2)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	club, season, err := parseClubSeason(params[0], params[1])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var (
		t     scoring.Transition
		found bool
	)
	switch dir := strings.ToLower(r.URL.Query().Get("direction")); dir {
	case "", "from":
		t, found, err = h.deps.Transition(r.Context(), club, season)
	case "to":
		t, found, err = h.deps.TransitionTo(r.Context(), club, season)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: direction must be from or to", ErrBadRequest))
		return
	}
	if err != nil {
		writeLookupError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: no transition for %s %s", ErrNotFound, club, season))
		return
	}
	writeJSON(w, http.StatusOK, artifact.NewTransitionDoc(t, 0))
}

func (h *TransitionsHandler) list(w http.ResponseWriter, r *http.Request, raw string) {
	club, err := model.ParseClubID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	ts, err := h.deps.Transitions(r.Context(), club)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact.NewTransitionDocs(ts, 0))
}
