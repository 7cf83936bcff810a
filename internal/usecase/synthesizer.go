package usecase

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
	"github.com/tcastillov/futbol-data/internal/source"
)

// SynthSourceName tags every synthesized record so it can never be mistaken
// for provider data.
const SynthSourceName = "synthesizer"

type SynthConfig struct {
	Enabled   bool
	MaxGoals  int
	SquadSize int
	TeamCount int
}

func NormalizeSynthConfig(cfg SynthConfig) SynthConfig {
	if cfg.MaxGoals <= 0 {
		cfg.MaxGoals = 5
	}
	if cfg.SquadSize <= 0 {
		cfg.SquadSize = 23
	}
	if cfg.TeamCount <= 0 {
		cfg.TeamCount = 20
	}
	return cfg
}

var synthLeagues = []league.League{
	{Code: "PD", Name: "Primera Division", Country: "Spain"},
	{Code: "PL", Name: "Premier League", Country: "England"},
	{Code: "SA", Name: "Serie A", Country: "Italy"},
	{Code: "BL1", Name: "Bundesliga", Country: "Germany"},
	{Code: "FL1", Name: "Ligue 1", Country: "France"},
}

var synthCities = []string{
	"Madrid", "Barcelona", "Sevilla", "Valencia", "Bilbao", "Granada",
	"Zaragoza", "Malaga", "Vigo", "Oviedo", "Cadiz", "Santander",
	"Girona", "Murcia", "Alicante", "Cordoba", "Valladolid", "Pamplona",
	"Leganes", "Getafe", "Elche", "Almeria", "Huelva", "Burgos",
}

var synthSurnames = []string{
	"Garcia", "Fernandez", "Lopez", "Martinez", "Sanchez", "Perez",
	"Gomez", "Diaz", "Alvarez", "Romero", "Torres", "Ramirez",
	"Navarro", "Molina", "Ortega", "Castro", "Rubio", "Marin",
}

var synthPositions = []string{"Goalkeeper", "Defender", "Midfielder", "Forward"}

// Synthesizer produces deterministic placeholder data when every real
// source has failed. The same query always yields the same placeholders;
// every record is flagged synthetic.
type Synthesizer struct {
	cfg SynthConfig
	now func() time.Time
}

func NewSynthesizer(cfg SynthConfig) *Synthesizer {
	return &Synthesizer{cfg: NormalizeSynthConfig(cfg), now: time.Now}
}

func (s *Synthesizer) Enabled() bool { return s != nil && s.cfg.Enabled }

// rng derives a stable generator from the query key and entity kind, so
// repeated calls with the same filters reproduce the same data while
// different kinds do not mirror each other.
func (s *Synthesizer) rng(q source.Query, kind string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(q.Key()))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func (s *Synthesizer) Leagues(q source.Query) []record.Record[league.League] {
	fetchedAt := s.now().UTC()
	out := make([]record.Record[league.League], 0, len(synthLeagues))
	for _, l := range synthLeagues {
		if q.LeagueCode != "" && l.Code != q.LeagueCode {
			continue
		}
		out = append(out, record.NewSynthetic(l, SynthSourceName, fetchedAt))
	}
	return out
}

func (s *Synthesizer) Teams(q source.Query) []record.Record[team.Team] {
	rng := s.rng(q, "teams")
	fetchedAt := s.now().UTC()

	out := make([]record.Record[team.Team], 0, s.cfg.TeamCount)
	for i := 0; i < s.cfg.TeamCount && i < len(synthCities); i++ {
		city := synthCities[i]
		out = append(out, record.NewSynthetic(team.Team{
			ID:          fmt.Sprintf("synth-%s-%02d", q.LeagueCode, i+1),
			Name:        "Club " + city,
			ShortName:   city,
			Country:     "Spain",
			FoundedYear: 1890 + rng.Intn(80),
			Stadium:     "Estadio " + city,
			LeagueID:    q.LeagueCode,
		}, SynthSourceName, fetchedAt))
	}
	return out
}

func (s *Synthesizer) Players(q source.Query) []record.Record[player.Player] {
	rng := s.rng(q, "players")
	fetchedAt := s.now().UTC()

	teamID := q.TeamID
	if teamID == "" {
		teamID = fmt.Sprintf("synth-%s-01", q.LeagueCode)
	}

	out := make([]record.Record[player.Player], 0, s.cfg.SquadSize)
	for i := 0; i < s.cfg.SquadSize; i++ {
		birthYear := 1988 + rng.Intn(18)
		out = append(out, record.NewSynthetic(player.Player{
			ID:           fmt.Sprintf("synth-player-%s-%02d", teamID, i+1),
			FirstName:    "Jugador",
			LastName:     synthSurnames[rng.Intn(len(synthSurnames))] + " " + strconv.Itoa(i+1),
			Position:     synthPositions[i%len(synthPositions)],
			Nationality:  "Spain",
			BirthDate:    time.Date(birthYear, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			HeightCm:     165 + rng.Intn(35),
			WeightKg:     60 + rng.Intn(35),
			JerseyNumber: i + 1,
			TeamID:       teamID,
		}, SynthSourceName, fetchedAt))
	}
	return out
}

// Matches synthesizes a single round robin among the placeholder teams.
// Matches dated before now carry scores and a FINISHED status.
func (s *Synthesizer) Matches(q source.Query) []record.Record[match.Match] {
	rng := s.rng(q, "matches")
	fetchedAt := s.now().UTC()
	teams := s.Teams(q)
	if len(teams) < 2 {
		return nil
	}

	start := q.DateFrom
	if start.IsZero() {
		start = fetchedAt.AddDate(0, -3, 0)
	}

	var out []record.Record[match.Match]
	day := start
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			if !q.InRange(day) {
				day = day.AddDate(0, 0, 1)
				continue
			}
			m := match.Match{
				ID:         fmt.Sprintf("synth-match-%s-%d-%d", q.LeagueCode, i, j),
				Date:       day,
				LeagueID:   q.LeagueCode,
				HomeTeamID: teams[i].Entity.ID,
				AwayTeamID: teams[j].Entity.ID,
				HomeTeam:   teams[i].Entity.Name,
				AwayTeam:   teams[j].Entity.Name,
				Season:     q.Season,
				Status:     match.StatusScheduled,
			}
			if day.Before(fetchedAt) {
				hg := rng.Intn(s.cfg.MaxGoals + 1)
				ag := rng.Intn(s.cfg.MaxGoals + 1)
				m.HomeScore, m.AwayScore = &hg, &ag
				m.Status = match.StatusFinished
			}
			out = append(out, record.NewSynthetic(m, SynthSourceName, fetchedAt))
			day = day.AddDate(0, 0, 1)
		}
	}
	return out
}

func (s *Synthesizer) Standings(q source.Query) []record.Record[standings.Row] {
	fetchedAt := s.now().UTC()

	matchRecords := s.Matches(q)
	matches := make([]match.Match, 0, len(matchRecords))
	for _, rec := range matchRecords {
		matches = append(matches, rec.Entity)
	}
	names := make(map[string]string)
	for _, rec := range s.Teams(q) {
		names[rec.Entity.ID] = rec.Entity.Name
	}

	rows := standings.Compute(matches, q.LeagueCode, q.Season, names)
	out := make([]record.Record[standings.Row], 0, len(rows))
	for _, row := range rows {
		out = append(out, record.NewSynthetic(row, SynthSourceName, fetchedAt))
	}
	return out
}

func (s *Synthesizer) TeamStats(q source.Query) []record.Record[team.Stats] {
	fetchedAt := s.now().UTC()

	totals := make(map[string]*team.Stats)
	order := make([]string, 0)
	for _, rec := range s.Matches(q) {
		m := rec.Entity
		if m.Status != match.StatusFinished || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		for _, side := range []struct {
			id       string
			scored   int
			conceded int
		}{
			{m.HomeTeamID, *m.HomeScore, *m.AwayScore},
			{m.AwayTeamID, *m.AwayScore, *m.HomeScore},
		} {
			st, ok := totals[side.id]
			if !ok {
				st = &team.Stats{TeamID: side.id, Season: q.Season}
				totals[side.id] = st
				order = append(order, side.id)
			}
			st.Played++
			st.GoalsFor += side.scored
			st.GoalsAgainst += side.conceded
			switch {
			case side.scored > side.conceded:
				st.Wins++
			case side.scored < side.conceded:
				st.Losses++
			default:
				st.Draws++
			}
		}
	}

	out := make([]record.Record[team.Stats], 0, len(order))
	for _, id := range order {
		if q.TeamID != "" && id != q.TeamID {
			continue
		}
		out = append(out, record.NewSynthetic(*totals[id], SynthSourceName, fetchedAt))
	}
	return out
}
