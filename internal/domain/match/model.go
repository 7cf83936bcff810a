package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/team"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCanceled  = "CANCELED"
)

// Match is one fixture between two teams. Scores are nil until the match
// has produced any.
type Match struct {
	ID         string
	Date       time.Time
	LeagueID   string
	HomeTeamID string
	AwayTeamID string
	HomeTeam   string
	AwayTeam   string
	HomeScore  *int
	AwayScore  *int
	Status     string
	Season     string
	Venue      string
	Referee    string
}

func (m Match) Validate() error {
	if m.Date.IsZero() {
		return fmt.Errorf("match date is required")
	}
	if strings.TrimSpace(m.HomeTeam) == "" && strings.TrimSpace(m.HomeTeamID) == "" {
		return fmt.Errorf("home team is required")
	}
	if strings.TrimSpace(m.AwayTeam) == "" && strings.TrimSpace(m.AwayTeamID) == "" {
		return fmt.Errorf("away team is required")
	}
	return nil
}

// IdentityKey is (normalized date, home, away): two records from different
// sources with the same key are the same logical match.
func (m Match) IdentityKey() string {
	return m.Date.UTC().Format("2006-01-02") + "|" + m.homeKey() + "|" + m.awayKey()
}

func (m Match) homeKey() string {
	if name := strings.TrimSpace(m.HomeTeam); name != "" {
		return team.NormalizeName(name)
	}
	return team.NormalizeName(m.HomeTeamID)
}

func (m Match) awayKey() string {
	if name := strings.TrimSpace(m.AwayTeam); name != "" {
		return team.NormalizeName(name)
	}
	return team.NormalizeName(m.AwayTeamID)
}

func (m Match) FillMissing(other Match) Match {
	if m.ID == "" {
		m.ID = other.ID
	}
	if m.Date.IsZero() {
		m.Date = other.Date
	}
	if m.LeagueID == "" {
		m.LeagueID = other.LeagueID
	}
	if m.HomeTeamID == "" {
		m.HomeTeamID = other.HomeTeamID
	}
	if m.AwayTeamID == "" {
		m.AwayTeamID = other.AwayTeamID
	}
	if m.HomeTeam == "" {
		m.HomeTeam = other.HomeTeam
	}
	if m.AwayTeam == "" {
		m.AwayTeam = other.AwayTeam
	}
	if m.HomeScore == nil {
		m.HomeScore = other.HomeScore
	}
	if m.AwayScore == nil {
		m.AwayScore = other.AwayScore
	}
	if m.Status == "" {
		m.Status = other.Status
	}
	if m.Season == "" {
		m.Season = other.Season
	}
	if m.Venue == "" {
		m.Venue = other.Venue
	}
	if m.Referee == "" {
		m.Referee = other.Referee
	}
	return m
}

// NormalizeStatus maps provider-native status vocabulary onto the canonical
// set.
func NormalizeStatus(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", StatusScheduled, "TIMED", "NS", "FIXTURE":
		return StatusScheduled
	case StatusLive, "IN_PLAY", "INPLAY", "PAUSED", "HT", "1H", "2H", "ET":
		return StatusLive
	case StatusFinished, "FT", "AET", "PEN", "FULL_TIME", "FULL-TIME":
		return StatusFinished
	case StatusPostponed, "PST", "SUSPENDED":
		return StatusPostponed
	case StatusCanceled, "CANCELLED", "ABANDONED", "AWARDED":
		return StatusCanceled
	default:
		return StatusScheduled
	}
}

func IsFinished(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}
