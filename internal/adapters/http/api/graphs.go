package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/squadgraph/internal/domain/graph"
)

const defaultStatsTopN = 10

type graphResponse struct {
	Club   string       `json:"club"`
	Season string       `json:"season"`
	Stats  graph.Stats  `json:"stats"`
	Nodes  []graph.Node `json:"nodes"`
	Edges  []graph.Edge `json:"edges"`
}

// GraphsHandler serves single season graphs.
type GraphsHandler struct {
	deps Dependencies
}

// NewGraphsHandler creates a new graphs handler.
func NewGraphsHandler(deps Dependencies) *GraphsHandler {
	return &GraphsHandler{deps: deps}
}

// HandleGetGraph handles GET /graphs/{club}/{season}. The optional top
// query parameter bounds the stats rankings.
func (h *GraphsHandler) HandleGetGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	params, ok := pathParams(r, "/graphs/", 2)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	club, season, err := parseClubSeason(params[0], params[1])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	topN := defaultStatsTopN
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: top must be a non-negative integer", ErrBadRequest))
			return
		}
		topN = n
	}

	g, found, err := h.deps.Graph(r.Context(), club, season)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: no graph for %s %s", ErrNotFound, club, season))
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{
		Club:   string(g.Club()),
		Season: g.Season().String(),
		Stats:  g.Stats(topN),
		Nodes:  g.Nodes(),
		Edges:  g.Edges(),
	})
}
