package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	model "github.com/okian/squadgraph/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSeasonKey(t *testing.T) {
	convey.Convey("Given season key inputs", t, func() {
		convey.Convey("When parsing the accepted spellings", func() {
			for _, in := range []string{"2015", "2015_2016", "2015-2016", "2015/2016", " 2015_2016 "} {
				k, err := model.ParseSeasonKey(in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(k.Start, convey.ShouldEqual, 2015)
			}
		})

		convey.Convey("When parsing years that are not consecutive", func() {
			_, err := model.ParseSeasonKey("2015_2017")

			convey.Convey("Then it should fail with ErrInvalidSeason", func() {
				convey.So(errors.Is(err, model.ErrInvalidSeason), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When parsing garbage", func() {
			for _, in := range []string{"", "abc", "15", "2015_2016_2017", "2015_x"} {
				_, err := model.ParseSeasonKey(in)
				convey.So(errors.Is(err, model.ErrInvalidSeason), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When rendering and navigating", func() {
			k := model.NewSeasonKey(2015)

			convey.So(k.String(), convey.ShouldEqual, "2015_2016")
			convey.So(k.Label(), convey.ShouldEqual, "2015/2016")
			convey.So(k.End(), convey.ShouldEqual, 2016)
			convey.So(k.Next().Follows(k), convey.ShouldBeTrue)
			convey.So(k.Prev().Next(), convey.ShouldResemble, k)
			convey.So(k.Follows(k), convey.ShouldBeFalse)
		})

		convey.Convey("When marshalled to JSON", func() {
			b, err := json.Marshal(struct {
				Season model.SeasonKey `json:"season"`
			}{model.NewSeasonKey(2020)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{"season":"2020_2021"}`)

			var back struct {
				Season model.SeasonKey `json:"season"`
			}
			convey.So(json.Unmarshal(b, &back), convey.ShouldBeNil)
			convey.So(back.Season.Start, convey.ShouldEqual, 2020)
		})
	})
}

func TestClubID(t *testing.T) {
	convey.Convey("Given club tokens", t, func() {
		c, err := model.ParseClubID("fc_barcelona")
		convey.So(err, convey.ShouldBeNil)
		convey.So(c, convey.ShouldEqual, model.ClubID("fc_barcelona"))

		for _, bad := range []string{"", "FC Barcelona", "_x", "real-madrid"} {
			_, err := model.ParseClubID(bad)
			convey.So(errors.Is(err, model.ErrInvalidClub), convey.ShouldBeTrue)
		}
	})
}

func TestPair(t *testing.T) {
	convey.Convey("Given two player names", t, func() {
		convey.Convey("When building a pair in either order", func() {
			p1, err1 := model.NewPair("Xavi", "Iniesta")
			p2, err2 := model.NewPair("Iniesta", "Xavi")

			convey.Convey("Then both orders canonicalise to the same pair", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(p1, convey.ShouldResemble, p2)
				convey.So(p1.A, convey.ShouldEqual, "Iniesta")
				convey.So(p1.Has("Xavi"), convey.ShouldBeTrue)
				convey.So(p1.Has("Messi"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When both names are the same", func() {
			_, err := model.NewPair("Messi", "Messi")

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, model.ErrSelfPair), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When ordering pairs", func() {
			ab, _ := model.NewPair("A", "B")
			ac, _ := model.NewPair("A", "C")
			bc, _ := model.NewPair("B", "C")

			convey.So(ab.Less(ac), convey.ShouldBeTrue)
			convey.So(ac.Less(bc), convey.ShouldBeTrue)
			convey.So(bc.Less(ab), convey.ShouldBeFalse)
		})
	})
}

func TestMatchRecord(t *testing.T) {
	convey.Convey("Given a match record", t, func() {
		m := model.MatchRecord{
			HomeTeam:   "FC Barcelona",
			AwayTeam:   "Sevilla FC",
			HomeLineup: []model.LineupEntry{{Name: "Messi", Appeared: true}},
			AwayLineup: []model.LineupEntry{{Name: "Navas", Appeared: true}},
		}

		convey.Convey("When the side is unknown", func() {
			lineup, ok := m.ClubLineup()
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(lineup, convey.ShouldBeNil)
			convey.So(m.Opponent(), convey.ShouldEqual, "")
		})

		convey.Convey("When the club plays at home", func() {
			m.Side = model.SideHome
			lineup, ok := m.ClubLineup()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(lineup[0].Name, convey.ShouldEqual, "Messi")
			convey.So(m.Opponent(), convey.ShouldEqual, "Sevilla FC")
		})

		convey.Convey("When the club plays away", func() {
			m.Side = model.SideAway
			lineup, ok := m.ClubLineup()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(lineup[0].Name, convey.ShouldEqual, "Navas")
			convey.So(m.Side.String(), convey.ShouldEqual, "away")
		})
	})
}
