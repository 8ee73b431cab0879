package api

import (
	"net/http"
)

type clubResponse struct {
	Club    string   `json:"club"`
	Seasons []string `json:"seasons"`
}

// ClubsHandler lists the configured clubs and their built seasons.
type ClubsHandler struct {
	deps Dependencies
}

// NewClubsHandler creates a new clubs handler.
func NewClubsHandler(deps Dependencies) *ClubsHandler {
	return &ClubsHandler{deps: deps}
}

// HandleGetClubs handles GET /clubs requests.
func (h *ClubsHandler) HandleGetClubs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	clubs := h.deps.Clubs()
	out := make([]clubResponse, 0, len(clubs))
	for _, club := range clubs {
		graphs, err := h.deps.Graphs(r.Context(), club)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		seasons := make([]string, len(graphs))
		for i, g := range graphs {
			seasons[i] = g.Season().String()
		}
		out = append(out, clubResponse{Club: string(club), Seasons: seasons})
	}
	writeJSON(w, http.StatusOK, out)
}
