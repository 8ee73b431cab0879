package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Season year bounds accepted by ParseSeasonKey.
const (
	minSeasonYear = 1850
	maxSeasonYear = 2999
)

var clubPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

// ClubID is the stable lowercase token agreed with acquisition and
// visualization collaborators, e.g. "fc_barcelona".
type ClubID string

// ParseClubID validates a club token.
func ParseClubID(s string) (ClubID, error) {
	s = strings.TrimSpace(s)
	if !clubPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidClub, s)
	}
	return ClubID(s), nil
}

// SeasonKey identifies a season by its start year. The season always spans
// Start and Start+1.
type SeasonKey struct {
	Start int
}

// NewSeasonKey returns the season starting in the given year.
func NewSeasonKey(start int) SeasonKey { return SeasonKey{Start: start} }

// End returns the second year of the season.
func (s SeasonKey) End() int { return s.Start + 1 }

// Next returns the season immediately following s.
func (s SeasonKey) Next() SeasonKey { return SeasonKey{Start: s.Start + 1} }

// Prev returns the season immediately preceding s.
func (s SeasonKey) Prev() SeasonKey { return SeasonKey{Start: s.Start - 1} }

// Follows reports whether s is the season right after prev.
func (s SeasonKey) Follows(prev SeasonKey) bool { return s.Start == prev.Start+1 }

// String renders the key as "2015_2016", the form used in file names and
// transition documents.
func (s SeasonKey) String() string {
	return strconv.Itoa(s.Start) + "_" + strconv.Itoa(s.End())
}

// Label renders the key for humans, e.g. "2015/2016".
func (s SeasonKey) Label() string {
	return strconv.Itoa(s.Start) + "/" + strconv.Itoa(s.End())
}

// MarshalText implements encoding.TextMarshaler.
func (s SeasonKey) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SeasonKey) UnmarshalText(b []byte) error {
	k, err := ParseSeasonKey(string(b))
	if err != nil {
		return err
	}
	*s = k
	return nil
}

// ParseSeasonKey accepts "2015", "2015_2016", "2015-2016" and "2015/2016".
// Two-year forms must name consecutive years.
func ParseSeasonKey(s string) (SeasonKey, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '/'
	})
	if len(parts) == 0 || len(parts) > 2 {
		return SeasonKey{}, fmt.Errorf("%w: %q", ErrInvalidSeason, s)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil || start < minSeasonYear || start > maxSeasonYear {
		return SeasonKey{}, fmt.Errorf("%w: %q", ErrInvalidSeason, s)
	}
	if len(parts) == 2 {
		end, err := strconv.Atoi(parts[1])
		if err != nil || end != start+1 {
			return SeasonKey{}, fmt.Errorf("%w: %q is not two consecutive years", ErrInvalidSeason, s)
		}
	}
	return SeasonKey{Start: start}, nil
}

// Unit is one club season, the granularity of aggregation and graph building.
type Unit struct {
	Club   ClubID
	Season SeasonKey
}

// String renders the unit as "club_2015_2016".
func (u Unit) String() string {
	return string(u.Club) + "_" + u.Season.String()
}
