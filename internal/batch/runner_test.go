package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/squadgraph/internal/adapters/artifact"
	"github.com/okian/squadgraph/internal/config"
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const season2015 = `# Team: FC Barcelona
MATCH: 1 | 2015-08-23 | Athletic Bilbao
PLAYERS: Bravo, Messi, Neymar

MATCH: 2 | 2015-08-29 | Málaga CF
PLAYERS: Bravo, Messi, Suárez
`

const season2016 = `# Team: FC Barcelona
MATCH: 1 | 2016-08-20 | Real Betis
PLAYERS: Ter Stegen, Messi, Suárez
`

func writeData(t *testing.T) string {
	dir := t.TempDir()
	files := map[string]string{
		"fc_barcelona_2015_2016.txt": season2015,
		"fc_barcelona_2016_2017.txt": season2016,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRun(t *testing.T) {
	Convey("Given scraped files for two consecutive seasons", t, func() {
		cfg := &Config{
			DataDir:   writeData(t),
			OutputDir: t.TempDir(),
			Clubs:     []string{"fc_barcelona"},
			Workers:   2,
			Verify:    true,
		}

		Convey("When the batch runs with verification", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every artifact reproduces the archive", func() {
				So(err, ShouldBeNil)
				So(stats.RunID, ShouldNotBeEmpty)
				So(stats.GraphsBuilt, ShouldEqual, 2)
				So(stats.Matches, ShouldEqual, 3)
				So(stats.Transitions, ShouldEqual, 1)
				So(stats.GraphsVerified, ShouldEqual, 2)
				So(stats.TransitionsChecked, ShouldEqual, 1)
				So(stats.Duration, ShouldBeGreaterThan, 0)
			})

			Convey("And the summary file is written", func() {
				_, err := os.Stat(filepath.Join(cfg.OutputDir, artifact.SummaryFile))
				So(err, ShouldBeNil)
			})
		})

		Convey("When an unknown club token is given", func() {
			cfg.Clubs = []string{"Not A Club"}
			_, err := Run(context.Background(), cfg)

			Convey("Then the configuration is rejected", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given process defaults", t, func() {
		pc := config.New(context.Background())

		Convey("When only some flags are set", func() {
			apply(&Config{OutputDir: "artifacts", ChangeListLimit: 20}, pc)

			Convey("Then the zero flags keep the defaults", func() {
				So(pc.OutputDir, ShouldEqual, "artifacts")
				So(pc.ChangeListLimit, ShouldEqual, 20)
				So(pc.DataDir, ShouldEqual, "data")
				So(pc.Clubs, ShouldHaveLength, 5)
				So(pc.SummaryTopN, ShouldEqual, 10)
			})
		})
	})
}

func TestVerifyTransitions(t *testing.T) {
	Convey("Given two season graphs and their transition file", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		calc := scoring.NewDynamicCalculator()

		g1, err := graph.New(model.Unit{Club: "villarreal_cf", Season: model.NewSeasonKey(2010)},
			map[string]int{"Rossi": 3, "Senna": 2}, map[model.Pair]int{{A: "Rossi", B: "Senna"}: 2})
		So(err, ShouldBeNil)
		g2, err := graph.New(model.Unit{Club: "villarreal_cf", Season: model.NewSeasonKey(2011)},
			map[string]int{"Rossi": 4}, nil)
		So(err, ShouldBeNil)

		sink, err := artifact.NewFileSink(dir)
		So(err, ShouldBeNil)
		tr, err := calc.Calculate(ctx, g1, g2)
		So(err, ShouldBeNil)
		So(sink.WriteTransitions(ctx, "villarreal_cf", []scoring.Transition{tr}), ShouldBeNil)

		Convey("When the file is intact", func() {
			stats := &Stats{}
			err := verifyTransitions(ctx, dir, "villarreal_cf", 0, calc, []*graph.SeasonGraph{g1, g2}, stats)

			Convey("Then the transition is confirmed", func() {
				So(err, ShouldBeNil)
				So(stats.TransitionsChecked, ShouldEqual, 1)
			})
		})

		Convey("When the file was written by a different squad", func() {
			tr.VScore = 0
			So(sink.WriteTransitions(ctx, "villarreal_cf", []scoring.Transition{tr}), ShouldBeNil)
			err := verifyTransitions(ctx, dir, "villarreal_cf", 0, calc, []*graph.SeasonGraph{g1, g2}, &Stats{})

			Convey("Then verification fails", func() {
				So(errors.Is(err, ErrVerification), ShouldBeTrue)
			})
		})

		Convey("When a club has no transitions and no file", func() {
			err := verifyTransitions(ctx, dir, "real_madryt", 0, calc, []*graph.SeasonGraph{g1}, &Stats{})
			So(err, ShouldBeNil)
		})
	})
}
