package team

import (
	"fmt"
	"strings"
)

// Team is one football club inside a league.
type Team struct {
	ID          string
	Name        string
	ShortName   string
	Country     string
	FoundedYear int
	Stadium     string
	CrestURL    string
	LeagueID    string
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	return nil
}

// IdentityKey is the stable cross-source identity: the normalized name.
// Provider ids are source-local (football-data's numeric ids mean nothing
// to a scraper), so they stay a fillable field; keying on them would split
// the same club into one entity per source. The id is the fallback only
// for nameless records.
func (t Team) IdentityKey() string {
	if key := NormalizeName(t.Name); key != "" {
		return key
	}
	return strings.TrimSpace(t.ID)
}

func (t Team) FillMissing(other Team) Team {
	if t.ID == "" {
		t.ID = other.ID
	}
	if t.Name == "" {
		t.Name = other.Name
	}
	if t.ShortName == "" {
		t.ShortName = other.ShortName
	}
	if t.Country == "" {
		t.Country = other.Country
	}
	if t.FoundedYear == 0 {
		t.FoundedYear = other.FoundedYear
	}
	if t.Stadium == "" {
		t.Stadium = other.Stadium
	}
	if t.CrestURL == "" {
		t.CrestURL = other.CrestURL
	}
	if t.LeagueID == "" {
		t.LeagueID = other.LeagueID
	}
	return t
}

// Stats is one team's aggregate record for a season.
type Stats struct {
	TeamID       string
	Season       string
	Played       int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
}

func (s Stats) IdentityKey() string {
	return NormalizeName(s.TeamID) + "|" + s.Season
}

func (s Stats) FillMissing(other Stats) Stats {
	if s.TeamID == "" {
		s.TeamID = other.TeamID
	}
	if s.Season == "" {
		s.Season = other.Season
	}
	if s.Played == 0 {
		s.Played = other.Played
	}
	if s.Wins == 0 {
		s.Wins = other.Wins
	}
	if s.Draws == 0 {
		s.Draws = other.Draws
	}
	if s.Losses == 0 {
		s.Losses = other.Losses
	}
	if s.GoalsFor == 0 {
		s.GoalsFor = other.GoalsFor
	}
	if s.GoalsAgainst == 0 {
		s.GoalsAgainst = other.GoalsAgainst
	}
	return s
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a", "ã", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o", "õ", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ñ", "n", "ç", "c",
)

var clubSuffixes = []string{"fc", "cf", "cd", "afc", "club", "futbol", "de futbol", "balompie"}

// NormalizeName folds a club name to its comparison form: lowercase,
// accent-free, punctuation stripped, common club suffixes removed.
// "Real Betis Balompié" and "real betis" normalize to the same key.
func NormalizeName(name string) string {
	lowered := accentFolder.Replace(strings.ToLower(strings.TrimSpace(name)))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if isClubSuffix(w) {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		// Name was nothing but suffixes ("FC"); keep the raw words rather
		// than collapsing distinct clubs onto an empty key.
		kept = words
	}

	return strings.Join(kept, " ")
}

func isClubSuffix(word string) bool {
	for _, s := range clubSuffixes {
		if word == s {
			return true
		}
	}
	return false
}

// SameClub reports fuzzy name equality across sources.
func SameClub(a, b string) bool {
	return NormalizeName(a) != "" && NormalizeName(a) == NormalizeName(b)
}
