// Package model contains domain models passed between layers.
package model

// Side tells which lineup of a match belongs to the club being aggregated.
type Side int

// Side values.
const (
	SideUnknown Side = iota
	SideHome
	SideAway
)

// String returns "home", "away" or "unknown".
func (s Side) String() string {
	switch s {
	case SideHome:
		return "home"
	case SideAway:
		return "away"
	default:
		return "unknown"
	}
}

// LineupEntry is one player listed for a side in a match.
type LineupEntry struct {
	Name     string // display name, used verbatim as player identity
	Appeared bool   // started or came on as a substitute
}

// MatchRecord is one match as delivered by the acquisition layer, already
// scoped to a club season.
type MatchRecord struct {
	MatchID     string
	Date        string
	Competition string
	Matchday    string
	HomeTeam    string
	AwayTeam    string
	HomeLineup  []LineupEntry
	AwayLineup  []LineupEntry

	Club   ClubID
	Season SeasonKey
	Side   Side // the club's side in this match
}

// ClubLineup returns the lineup of the club's side, or nil and false when the
// side is unknown.
func (m *MatchRecord) ClubLineup() ([]LineupEntry, bool) {
	switch m.Side {
	case SideHome:
		return m.HomeLineup, true
	case SideAway:
		return m.AwayLineup, true
	default:
		return nil, false
	}
}

// Opponent returns the other team's name when the side is known.
func (m *MatchRecord) Opponent() string {
	switch m.Side {
	case SideHome:
		return m.AwayTeam
	case SideAway:
		return m.HomeTeam
	default:
		return ""
	}
}
