package league

import (
	"fmt"
	"strings"
)

// League is one competition, unique by Code.
type League struct {
	ID            string
	Code          string
	Name          string
	Country       string
	CurrentSeason string
}

func (l League) Validate() error {
	if strings.TrimSpace(l.Code) == "" {
		return fmt.Errorf("league code is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("league name is required")
	}
	return nil
}

// IdentityKey is the cross-source identity: the competition code.
func (l League) IdentityKey() string {
	return strings.ToUpper(strings.TrimSpace(l.Code))
}

// FillMissing returns the receiver with empty fields taken from other.
// Used by field-union conflict resolution.
func (l League) FillMissing(other League) League {
	if l.ID == "" {
		l.ID = other.ID
	}
	if l.Code == "" {
		l.Code = other.Code
	}
	if l.Name == "" {
		l.Name = other.Name
	}
	if l.Country == "" {
		l.Country = other.Country
	}
	if l.CurrentSeason == "" {
		l.CurrentSeason = other.CurrentSeason
	}
	return l
}
