// Package standings derives league tables from finished matches. Tables are
// never persisted as source-of-truth; every call recomputes from scratch.
package standings

import (
	"sort"
	"strings"

	"github.com/tcastillov/futbol-data/internal/domain/match"
)

// Row is one ranked line of a league table.
type Row struct {
	Position     int
	TeamID       string
	TeamName     string
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

func (r Row) GoalDifference() int {
	return r.GoalsFor - r.GoalsAgainst
}

// IdentityKey keys a row by its team for cross-source reconciliation of
// provider-published tables.
func (r Row) IdentityKey() string {
	return strings.ToLower(strings.TrimSpace(r.TeamID))
}

func (r Row) FillMissing(other Row) Row {
	if r.TeamID == "" {
		r.TeamID = other.TeamID
	}
	if r.TeamName == "" {
		r.TeamName = other.TeamName
	}
	if r.Played == 0 {
		r.Played = other.Played
	}
	if r.Won == 0 {
		r.Won = other.Won
	}
	if r.Drawn == 0 {
		r.Drawn = other.Drawn
	}
	if r.Lost == 0 {
		r.Lost = other.Lost
	}
	if r.GoalsFor == 0 {
		r.GoalsFor = other.GoalsFor
	}
	if r.GoalsAgainst == 0 {
		r.GoalsAgainst = other.GoalsAgainst
	}
	if r.Points == 0 {
		r.Points = other.Points
	}
	return r
}

// Compute turns finished matches into a ranked table. Only FINISHED matches
// for the given league and season count. Win=3, draw=1, loss=0. Order:
// points desc, goal difference desc, goals for desc, team name asc. The
// names map decorates rows and tie-breaks; unknown teams fall back to their
// id. Pure: same input, same output.
func Compute(matches []match.Match, leagueID, season string, names map[string]string) []Row {
	byTeam := make(map[string]*Row)

	for _, m := range matches {
		if !match.IsFinished(m.Status) {
			continue
		}
		if leagueID != "" && m.LeagueID != leagueID {
			continue
		}
		if season != "" && m.Season != "" && m.Season != season {
			continue
		}
		if m.HomeScore == nil || m.AwayScore == nil {
			continue
		}

		home := rowFor(byTeam, teamKey(m.HomeTeamID, m.HomeTeam), names)
		away := rowFor(byTeam, teamKey(m.AwayTeamID, m.AwayTeam), names)

		hg, ag := *m.HomeScore, *m.AwayScore
		home.Played++
		away.Played++
		home.GoalsFor += hg
		home.GoalsAgainst += ag
		away.GoalsFor += ag
		away.GoalsAgainst += hg

		switch {
		case hg > ag:
			home.Won++
			home.Points += 3
			away.Lost++
		case hg < ag:
			away.Won++
			away.Points += 3
			home.Lost++
		default:
			home.Drawn++
			away.Drawn++
			home.Points++
			away.Points++
		}
	}

	rows := make([]Row, 0, len(byTeam))
	for _, row := range byTeam {
		rows = append(rows, *row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if di, dj := rows[i].GoalDifference(), rows[j].GoalDifference(); di != dj {
			return di > dj
		}
		if rows[i].GoalsFor != rows[j].GoalsFor {
			return rows[i].GoalsFor > rows[j].GoalsFor
		}
		return rows[i].TeamName < rows[j].TeamName
	})

	for i := range rows {
		rows[i].Position = i + 1
	}

	return rows
}

func teamKey(id, name string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return strings.TrimSpace(name)
}

func rowFor(byTeam map[string]*Row, key string, names map[string]string) *Row {
	if row, ok := byTeam[key]; ok {
		return row
	}

	name := names[key]
	if name == "" {
		name = key
	}
	row := &Row{TeamID: key, TeamName: name}
	byTeam[key] = row
	return row
}
