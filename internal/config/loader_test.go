package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/squadgraph/internal/config"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SQUAD_CONFIG", "SQUAD_ADDR", "SQUAD_WORKER_COUNT", "SQUAD_QUEUE_SIZE",
	"SQUAD_CLUBS", "SQUAD_CHANGE_LIST_LIMIT", "SQUAD_FIRST_SEASON", "SQUAD_LAST_SEASON",
	"SQUAD_LOG_FORMAT", "SQUAD_MONGO_URI",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Clubs, convey.ShouldHaveLength, 5)
			convey.So(cfg.ChangeListLimit, convey.ShouldEqual, 0)
			convey.So(cfg.SummaryTopN, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.Clubs[2], convey.ShouldEqual, "fc_barcelona")
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("SQUAD_ADDR", ":8080")
			_ = os.Setenv("SQUAD_WORKER_COUNT", "16")
			_ = os.Setenv("SQUAD_CLUBS", "fc_barcelona, real_madryt")
			_ = os.Setenv("SQUAD_CHANGE_LIST_LIMIT", "10")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults and clubs replace the list", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Clubs, convey.ShouldResemble, []string{"fc_barcelona", "real_madryt"})
				convey.So(cfg.ChangeListLimit, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading from a YAML file", func() {
			_ = os.Setenv("SQUAD_CONFIG", writeConfigFile(t, `
addr: ":9090"
worker_count: 3
clubs: [villarreal_cf]
teams:
  villarreal_cf: Villarreal CF
first_season: 2005
last_season: 2024
`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Clubs, convey.ShouldResemble, []string{"villarreal_cf"})
				convey.So(cfg.TeamNames()[model.ClubID("villarreal_cf")], convey.ShouldEqual, "Villarreal CF")
				convey.So(cfg.FirstSeason, convey.ShouldEqual, 2005)
			})

			convey.Convey("And env vars take precedence over the file", func() {
				_ = os.Setenv("SQUAD_WORKER_COUNT", "32")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			_ = os.Setenv("SQUAD_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("SQUAD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a club token is invalid", func() {
			_ = os.Setenv("SQUAD_CLUBS", "FC Barcelona")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, model.ErrInvalidClub), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the season bounds are reversed", func() {
			_ = os.Setenv("SQUAD_FIRST_SEASON", "2020")
			_ = os.Setenv("SQUAD_LAST_SEASON", "2010")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the change list limit is negative", func() {
			_ = os.Setenv("SQUAD_CHANGE_LIST_LIMIT", "-1")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
