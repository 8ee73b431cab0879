package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/okian/squadgraph/internal/domain/model"
)

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type rawPlayer struct {
	Name           string `json:"name"`
	StartingLineup bool   `json:"starting_lineup"`
	SubstitutedIn  bool   `json:"substituted_in"`
}

type rawMatch struct {
	MatchID     looseString `json:"match_id"`
	Date        string      `json:"date"`
	Competition string      `json:"competition"`
	Matchday    looseString `json:"matchday"`
	HomeTeam    string      `json:"home_team"`
	AwayTeam    string      `json:"away_team"`
	HomePlayers []rawPlayer `json:"home_players"`
	AwayPlayers []rawPlayer `json:"away_players"`
}

// decodeJSON reads the scraper output: an array of matches or one match
// object. The club's side is the team named team, or the most frequent team
// in the file when team is empty.
func decodeJSON(r io.Reader, team string) ([]model.MatchRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	data = bytes.TrimSpace(data)

	var raw []rawMatch
	switch {
	case len(data) == 0:
		return nil, nil
	case data[0] == '{':
		var one rawMatch
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, errors.Wrap(err, "unmarshal match")
		}
		raw = []rawMatch{one}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, "unmarshal matches")
		}
	}

	if team == "" {
		team = mostFrequentTeam(raw)
	}

	out := make([]model.MatchRecord, 0, len(raw))
	for _, m := range raw {
		rec := model.MatchRecord{
			MatchID:     string(m.MatchID),
			Date:        m.Date,
			Competition: m.Competition,
			Matchday:    string(m.Matchday),
			HomeTeam:    m.HomeTeam,
			AwayTeam:    m.AwayTeam,
			HomeLineup:  lineup(m.HomePlayers),
			AwayLineup:  lineup(m.AwayPlayers),
			Side:        sideOf(team, m.HomeTeam, m.AwayTeam),
		}
		out = append(out, rec)
	}
	return out, nil
}

func lineup(players []rawPlayer) []model.LineupEntry {
	out := make([]model.LineupEntry, len(players))
	for i, p := range players {
		out[i] = model.LineupEntry{Name: p.Name, Appeared: p.StartingLineup || p.SubstitutedIn}
	}
	return out
}

func sideOf(team, home, away string) model.Side {
	switch {
	case team == "":
		return model.SideUnknown
	case strings.EqualFold(strings.TrimSpace(home), team):
		return model.SideHome
	case strings.EqualFold(strings.TrimSpace(away), team):
		return model.SideAway
	default:
		return model.SideUnknown
	}
}

// mostFrequentTeam counts home and away appearances. Ties go to the team
// seen first.
func mostFrequentTeam(matches []rawMatch) string {
	counts := make(map[string]int)
	var order []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}
	for _, m := range matches {
		add(m.HomeTeam)
		add(m.AwayTeam)
	}
	best := ""
	for _, name := range order {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best
}

// decodeText reads the formatted lineup files:
//
//	# Team: FC Barcelona
//	MATCH: 2590611 | 2015-08-23 | Athletic Bilbao
//	PLAYERS: Marc-André ter Stegen, Dani Alves, ...
//
// Every listed player appeared. The club is recorded as the home side and
// the opponent as the away team. Other lines are ignored.
func decodeText(r io.Reader, team string) ([]model.MatchRecord, error) {
	var (
		out     []model.MatchRecord
		current *model.MatchRecord
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			if name, ok := strings.CutPrefix(line, "# Team:"); ok && team == "" {
				team = strings.TrimSpace(name)
			}
		case strings.HasPrefix(line, "MATCH:"):
			parts := strings.Split(strings.TrimPrefix(line, "MATCH:"), "|")
			rec := model.MatchRecord{MatchID: strings.TrimSpace(parts[0]), Side: model.SideHome}
			if len(parts) > 1 {
				rec.Date = strings.TrimSpace(parts[1])
			}
			if len(parts) > 2 {
				rec.AwayTeam = strings.TrimSpace(parts[2])
			}
			current = &rec
		case strings.HasPrefix(line, "PLAYERS:"):
			if current == nil {
				continue
			}
			for _, name := range strings.Split(strings.TrimPrefix(line, "PLAYERS:"), ",") {
				// stray separators, e.g. a trailing comma
				if name = strings.TrimSpace(name); name == "" {
					continue
				}
				current.HomeLineup = append(current.HomeLineup, model.LineupEntry{Name: name, Appeared: true})
			}
			out = append(out, *current)
			current = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	for i := range out {
		out[i].HomeTeam = team
	}
	return out, nil
}
