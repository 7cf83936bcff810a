package player

import (
	"fmt"
	"strings"

	"github.com/tcastillov/futbol-data/internal/domain/team"
)

// Player is one squad member.
type Player struct {
	ID           string
	FirstName    string
	LastName     string
	Position     string
	Nationality  string
	BirthDate    string
	HeightCm     int
	WeightKg     int
	JerseyNumber int
	TeamID       string
}

func (p Player) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" && strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("player name is required")
	}
	return nil
}

func (p Player) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// IdentityKey is the provider id when present, otherwise normalized full
// name scoped to the team.
func (p Player) IdentityKey() string {
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	return team.NormalizeName(p.FullName()) + "|" + team.NormalizeName(p.TeamID)
}

func (p Player) FillMissing(other Player) Player {
	if p.ID == "" {
		p.ID = other.ID
	}
	if p.FirstName == "" {
		p.FirstName = other.FirstName
	}
	if p.LastName == "" {
		p.LastName = other.LastName
	}
	if p.Position == "" {
		p.Position = other.Position
	}
	if p.Nationality == "" {
		p.Nationality = other.Nationality
	}
	if p.BirthDate == "" {
		p.BirthDate = other.BirthDate
	}
	if p.HeightCm == 0 {
		p.HeightCm = other.HeightCm
	}
	if p.WeightKg == 0 {
		p.WeightKg = other.WeightKg
	}
	if p.JerseyNumber == 0 {
		p.JerseyNumber = other.JerseyNumber
	}
	if p.TeamID == "" {
		p.TeamID = other.TeamID
	}
	return p
}
