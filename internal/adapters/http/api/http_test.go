package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/squadgraph/internal/adapters/http/api"
	"github.com/okian/squadgraph/internal/adapters/repository"
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/summary"
	"github.com/okian/squadgraph/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies serves an in-memory archive and an optional report.
type mockDependencies struct {
	*repository.InMemoryArchive
	report *summary.Report
}

func (m *mockDependencies) Summary(context.Context) (summary.Report, bool) {
	if m.report == nil {
		return summary.Report{}, false
	}
	return *m.report, true
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func pair(a, b string) model.Pair {
	p, err := model.NewPair(a, b)
	if err != nil {
		panic(err)
	}
	return p
}

func put(a *repository.InMemoryArchive, start int, nodes map[string]int, edges map[model.Pair]int) {
	g, err := graph.New(model.Unit{Club: "fc_barcelona", Season: model.NewSeasonKey(start)}, nodes, edges)
	So(err, ShouldBeNil)
	So(a.PutGraph(context.Background(), g), ShouldBeNil)
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_Register(t *testing.T) {
	Convey("Given an API server over an archive with two seasons", t, func() {
		archive := repository.NewInMemoryArchive(repository.WithClubs("fc_barcelona", "real_madryt"))
		put(archive, 2015, map[string]int{"A": 10, "B": 8, "C": 5}, map[model.Pair]int{pair("A", "B"): 6})
		put(archive, 2016, map[string]int{"B": 9, "C": 6, "D": 3}, map[model.Pair]int{pair("B", "C"): 4})
		deps := &mockDependencies{InMemoryArchive: archive}
		stats := &mockStatsProvider{stats: map[string]interface{}{"graphs": 2}}

		mux := http.NewServeMux()
		api.NewServer(deps, stats).Register(mux)

		Convey("When requesting health and stats", func() {
			Convey("Then metrics and stats are served", func() {
				So(get(mux, "/healthz").Code, ShouldEqual, http.StatusOK)
				w := get(mux, "/stats")
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				decode(w, &body)
				So(body["graphs"], ShouldEqual, 2.0)
			})
		})

		Convey("When listing clubs", func() {
			w := get(mux, "/clubs")

			Convey("Then every configured club is listed with its seasons", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body []struct {
					Club    string   `json:"club"`
					Seasons []string `json:"seasons"`
				}
				decode(w, &body)
				So(body, ShouldHaveLength, 2)
				So(body[0].Club, ShouldEqual, "fc_barcelona")
				So(body[0].Seasons, ShouldResemble, []string{"2015_2016", "2016_2017"})
				So(body[1].Seasons, ShouldBeEmpty)
			})
		})

		Convey("When fetching a graph", func() {
			w := get(mux, "/graphs/fc_barcelona/2015_2016")

			Convey("Then nodes, edges and stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var body struct {
					Season string       `json:"season"`
					Nodes  []graph.Node `json:"nodes"`
					Edges  []graph.Edge `json:"edges"`
					Stats  graph.Stats  `json:"stats"`
				}
				decode(w, &body)
				So(body.Season, ShouldEqual, "2015_2016")
				So(body.Nodes, ShouldHaveLength, 3)
				So(body.Edges, ShouldResemble, []graph.Edge{{A: "A", B: "B", Weight: 6}})
				So(body.Stats.Players, ShouldEqual, 3)
			})

			Convey("And other season spellings are accepted", func() {
				So(get(mux, "/graphs/fc_barcelona/2016").Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When a graph lookup cannot be served", func() {
			Convey("Then a missing season is 404", func() {
				w := get(mux, "/graphs/fc_barcelona/2010_2011")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			})

			Convey("And an unknown club is 404", func() {
				So(get(mux, "/graphs/getafe_cf/2015_2016").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And a malformed season is 400", func() {
				So(get(mux, "/graphs/fc_barcelona/2015_2017").Code, ShouldEqual, http.StatusBadRequest)
				So(get(mux, "/graphs/fc_barcelona/spring").Code, ShouldEqual, http.StatusBadRequest)
				So(get(mux, "/graphs/fc_barcelona").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And a bad top parameter is 400", func() {
				So(get(mux, "/graphs/fc_barcelona/2015?top=x").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching a transition", func() {
			from := get(mux, "/transitions/fc_barcelona/2015_2016")
			into := get(mux, "/transitions/fc_barcelona/2016_2017?direction=to")

			Convey("Then both directions resolve to the same transition", func() {
				So(from.Code, ShouldEqual, http.StatusOK)
				So(into.Code, ShouldEqual, http.StatusOK)
				So(from.Body.String(), ShouldEqual, into.Body.String())

				var body map[string]any
				decode(from, &body)
				So(body["season_from"], ShouldEqual, "2015_2016")
				So(body["v_score"], ShouldEqual, 0.5)
				So(body["e_score"], ShouldEqual, 1.0)
			})

			Convey("And a season without a successor is 404", func() {
				So(get(mux, "/transitions/fc_barcelona/2016_2017").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And an unknown direction is 400", func() {
				So(get(mux, "/transitions/fc_barcelona/2015?direction=up").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When listing a club's transitions", func() {
			w := get(mux, "/transitions/fc_barcelona")

			Convey("Then they are ordered by season", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body []map[string]any
				decode(w, &body)
				So(body, ShouldHaveLength, 1)
				So(body[0]["season_to"], ShouldEqual, "2016_2017")
			})

			Convey("And an unknown club is 404", func() {
				So(get(mux, "/transitions/getafe_cf").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When fetching the summary", func() {
			Convey("Then it is 404 before any run", func() {
				So(get(mux, "/summary").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And it is served after a run", func() {
				ts, err := archive.Transitions(context.Background(), "fc_barcelona")
				So(err, ShouldBeNil)
				r := summary.Build(ts, 3, "run-1")
				deps.report = &r

				w := get(mux, "/summary")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"transition":"2015_2016 -> 2016_2017"`)
			})
		})

		Convey("When using a method other than GET", func() {
			req := httptest.NewRequest(http.MethodPost, "/clubs", strings.NewReader("{}"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When requesting an unknown path", func() {
			So(get(mux, "/unknown").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
