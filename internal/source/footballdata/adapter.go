// Package footballdata adapts the authenticated football-data.org v4 REST
// API into canonical records.
package footballdata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
	"github.com/tcastillov/futbol-data/internal/source"
)

// Name identifies this source in records, logs, and rate-limit buckets.
const Name = "football-data"

// competitionCodes maps canonical league codes onto the provider's own
// code table. A filter outside this table is an unsupported_filter.
var competitionCodes = map[string]string{
	"PD":  "PD",  // La Liga
	"PL":  "PL",  // Premier League
	"SA":  "SA",  // Serie A
	"BL1": "BL1", // Bundesliga
	"FL1": "FL1", // Ligue 1
	"PPL": "PPL", // Primeira Liga
	"DED": "DED", // Eredivisie
	"CL":  "CL",  // Champions League
	"ELC": "ELC", // Championship
}

type Adapter struct {
	client  *client
	limiter source.Limiter
	now     func() time.Time
}

func New(cfg ClientConfig, limiter source.Limiter) *Adapter {
	return &Adapter{
		client:  newClient(cfg),
		limiter: limiter,
		now:     time.Now,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) FetchLeagues(ctx context.Context, _ source.Query) ([]record.Record[league.League], error) {
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	var envelope competitionsEnvelope
	if err := a.client.getJSON(ctx, "/competitions", nil, &envelope); err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[league.League], 0, len(envelope.Competitions))
	for _, item := range envelope.Competitions {
		if item.Code == "" {
			continue
		}
		out = append(out, record.New(league.League{
			ID:            strconv.FormatInt(item.ID, 10),
			Code:          item.Code,
			Name:          item.Name,
			Country:       item.Area.Name,
			CurrentSeason: seasonLabel(item.CurrentSeason.StartDate, item.CurrentSeason.EndDate),
		}, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchTeams(ctx context.Context, q source.Query) ([]record.Record[team.Team], error) {
	code, err := a.competition(q)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	var envelope teamsEnvelope
	if err := a.client.getJSON(ctx, "/competitions/"+code+"/teams", nil, &envelope); err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[team.Team], 0, len(envelope.Teams))
	for _, item := range envelope.Teams {
		out = append(out, record.New(mapTeam(item, q.LeagueCode), Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchPlayers(ctx context.Context, q source.Query) ([]record.Record[player.Player], error) {
	teamID := strings.TrimSpace(q.TeamID)
	if teamID == "" {
		return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "players require a team id filter")
	}
	if _, err := strconv.ParseInt(teamID, 10, 64); err != nil {
		return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "team id %q is not a provider id", teamID)
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	var envelope teamDetailEnvelope
	if err := a.client.getJSON(ctx, "/teams/"+teamID, nil, &envelope); err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[player.Player], 0, len(envelope.Squad))
	for _, member := range envelope.Squad {
		first, last := splitName(member.Name)
		out = append(out, record.New(player.Player{
			ID:           strconv.FormatInt(member.ID, 10),
			FirstName:    first,
			LastName:     last,
			Position:     member.Position,
			Nationality:  member.Nationality,
			BirthDate:    member.DateOfBirth,
			JerseyNumber: member.ShirtNumber,
			TeamID:       teamID,
		}, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchMatches(ctx context.Context, q source.Query) ([]record.Record[match.Match], error) {
	code, err := a.competition(q)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	query := map[string]string{}
	if !q.DateFrom.IsZero() {
		query["dateFrom"] = q.DateFrom.UTC().Format("2006-01-02")
	}
	if !q.DateTo.IsZero() {
		query["dateTo"] = q.DateTo.UTC().Format("2006-01-02")
	}

	var envelope matchesEnvelope
	if err := a.client.getJSON(ctx, "/competitions/"+code+"/matches", query, &envelope); err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[match.Match], 0, len(envelope.Matches))
	for _, item := range envelope.Matches {
		mapped, ok := mapMatch(item, q.LeagueCode)
		if !ok {
			continue
		}
		out = append(out, record.New(mapped, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchStandings(ctx context.Context, q source.Query) ([]record.Record[standings.Row], error) {
	code, err := a.competition(q)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	var envelope standingsEnvelope
	if err := a.client.getJSON(ctx, "/competitions/"+code+"/standings", nil, &envelope); err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	var out []record.Record[standings.Row]
	for _, block := range envelope.Standings {
		if block.Type != "TOTAL" {
			continue
		}
		for _, row := range block.Table {
			out = append(out, record.New(standings.Row{
				Position:     row.Position,
				TeamID:       strconv.FormatInt(row.Team.ID, 10),
				TeamName:     row.Team.Name,
				Played:       row.PlayedGames,
				Won:          row.Won,
				Drawn:        row.Draw,
				Lost:         row.Lost,
				GoalsFor:     row.GoalsFor,
				GoalsAgainst: row.GoalsAgainst,
				Points:       row.Points,
			}, Name, fetchedAt))
		}
	}
	return out, nil
}

// FetchTeamStats aggregates the provider's finished matches; the API has no
// dedicated per-team stats endpoint.
func (a *Adapter) FetchTeamStats(ctx context.Context, q source.Query) ([]record.Record[team.Stats], error) {
	matchRecords, err := a.FetchMatches(ctx, q)
	if err != nil {
		return nil, err
	}

	byTeam := make(map[string]*team.Stats)
	for _, rec := range matchRecords {
		m := rec.Entity
		if !match.IsFinished(m.Status) || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		home := statsFor(byTeam, m.HomeTeamID, m.Season)
		away := statsFor(byTeam, m.AwayTeamID, m.Season)
		applyResult(home, *m.HomeScore, *m.AwayScore)
		applyResult(away, *m.AwayScore, *m.HomeScore)
	}

	keys := make([]string, 0, len(byTeam))
	for key := range byTeam {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fetchedAt := a.now().UTC()
	out := make([]record.Record[team.Stats], 0, len(byTeam))
	for _, key := range keys {
		out = append(out, record.New(*byTeam[key], Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) competition(q source.Query) (string, error) {
	canonical := strings.ToUpper(strings.TrimSpace(q.LeagueCode))
	code, ok := competitionCodes[canonical]
	if !ok {
		return "", source.Errorf(Name, source.ErrUnsupportedFilter, "no provider code for league %q", q.LeagueCode)
	}
	return code, nil
}

func (a *Adapter) acquire(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	if err := a.limiter.Acquire(ctx, Name); err != nil {
		if ctx.Err() != nil {
			return source.NewError(Name, source.ErrTimeout, ctx.Err())
		}
		return source.NewError(Name, source.ErrRateLimited, err)
	}
	return nil
}

func mapTeam(item teamPayload, leagueCode string) team.Team {
	short := item.TLA
	if short == "" {
		short = item.ShortName
	}
	return team.Team{
		ID:          strconv.FormatInt(item.ID, 10),
		Name:        item.Name,
		ShortName:   short,
		Country:     item.Area.Name,
		FoundedYear: item.Founded,
		Stadium:     item.Venue,
		CrestURL:    item.Crest,
		LeagueID:    strings.ToUpper(strings.TrimSpace(leagueCode)),
	}
}

func mapMatch(item matchPayload, leagueCode string) (match.Match, bool) {
	when, err := time.Parse(time.RFC3339, item.UTCDate)
	if err != nil {
		return match.Match{}, false
	}

	referee := ""
	if len(item.Referees) > 0 {
		referee = item.Referees[0].Name
	}

	return match.Match{
		ID:         strconv.FormatInt(item.ID, 10),
		Date:       when.UTC(),
		LeagueID:   strings.ToUpper(strings.TrimSpace(leagueCode)),
		HomeTeamID: strconv.FormatInt(item.HomeTeam.ID, 10),
		AwayTeamID: strconv.FormatInt(item.AwayTeam.ID, 10),
		HomeTeam:   item.HomeTeam.Name,
		AwayTeam:   item.AwayTeam.Name,
		HomeScore:  item.Score.FullTime.Home,
		AwayScore:  item.Score.FullTime.Away,
		Status:     match.NormalizeStatus(item.Status),
		Season:     seasonLabel(item.Season.StartDate, item.Season.EndDate),
		Venue:      item.Venue,
		Referee:    referee,
	}, true
}

// seasonLabel renders "2025-08-01".."2026-05-31" as "2025-26".
func seasonLabel(startDate, endDate string) string {
	if len(startDate) < 4 {
		return ""
	}
	startYear := startDate[:4]
	if len(endDate) >= 4 && endDate[:4] != startYear {
		return startYear + "-" + endDate[2:4]
	}
	return startYear
}

func splitName(full string) (string, string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return "", parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func statsFor(byTeam map[string]*team.Stats, teamID, season string) *team.Stats {
	key := fmt.Sprintf("%s|%s", teamID, season)
	if s, ok := byTeam[key]; ok {
		return s
	}
	s := &team.Stats{TeamID: teamID, Season: season}
	byTeam[key] = s
	return s
}

func applyResult(s *team.Stats, scored, conceded int) {
	s.Played++
	s.GoalsFor += scored
	s.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		s.Wins++
	case scored < conceded:
		s.Losses++
	default:
		s.Draws++
	}
}
