// Package openfootball adapts the versioned open-football JSON dataset
// (season-per-directory, league-per-file) into canonical records. The
// dataset is static: it knows final scores and club lists but nothing about
// players, live status, or standings.
package openfootball

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/source"
)

const Name = "open-football"

const defaultBaseURL = "https://raw.githubusercontent.com/openfootball/football.json/master"

// datasetFiles maps canonical league codes onto dataset file stems.
var datasetFiles = map[string]datasetLeague{
	"PD":  {stem: "es.1", name: "Primera División", country: "Spain"},
	"PL":  {stem: "en.1", name: "Premier League", country: "England"},
	"SA":  {stem: "it.1", name: "Serie A", country: "Italy"},
	"BL1": {stem: "de.1", name: "Bundesliga", country: "Germany"},
	"FL1": {stem: "fr.1", name: "Ligue 1", country: "France"},
}

type datasetLeague struct {
	stem    string
	name    string
	country string
}

type Config struct {
	BaseURL string
	// DefaultSeason is used when the query carries none, e.g. "2025-26".
	DefaultSeason string
	Timeout       time.Duration
	Logger        *logging.Logger
}

type Adapter struct {
	httpClient    *fasthttp.Client
	baseURL       string
	defaultSeason string
	timeout       time.Duration
	limiter       source.Limiter
	logger        *logging.Logger
	now           func() time.Time
}

func New(cfg Config, limiter source.Limiter) *Adapter {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Adapter{
		httpClient:    &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		baseURL:       baseURL,
		defaultSeason: strings.TrimSpace(cfg.DefaultSeason),
		timeout:       timeout,
		limiter:       limiter,
		logger:        logger,
		now:           time.Now,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) FetchLeagues(_ context.Context, _ source.Query) ([]record.Record[league.League], error) {
	codes := make([]string, 0, len(datasetFiles))
	for code := range datasetFiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fetchedAt := a.now().UTC()
	out := make([]record.Record[league.League], 0, len(codes))
	for _, code := range codes {
		meta := datasetFiles[code]
		out = append(out, record.New(league.League{
			Code:          code,
			Name:          meta.name,
			Country:       meta.country,
			CurrentSeason: a.defaultSeason,
		}, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchTeams(ctx context.Context, q source.Query) ([]record.Record[team.Team], error) {
	meta, season, err := a.locate(q)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	var payload clubsFile
	if err := a.getJSON(fmt.Sprintf("%s/%s/%s.clubs.json", a.baseURL, season, meta.stem), &payload); err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[team.Team], 0, len(payload.Clubs))
	for _, club := range payload.Clubs {
		if strings.TrimSpace(club.Name) == "" {
			continue
		}
		out = append(out, record.New(team.Team{
			Name:      club.Name,
			ShortName: club.Code,
			Country:   meta.country,
			LeagueID:  strings.ToUpper(strings.TrimSpace(q.LeagueCode)),
		}, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchPlayers(_ context.Context, _ source.Query) ([]record.Record[player.Player], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "dataset carries no player data")
}

func (a *Adapter) FetchMatches(ctx context.Context, q source.Query) ([]record.Record[match.Match], error) {
	meta, season, err := a.locate(q)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	var payload matchesFile
	if err := a.getJSON(fmt.Sprintf("%s/%s/%s.json", a.baseURL, season, meta.stem), &payload); err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[match.Match], 0, len(payload.Matches))
	for _, item := range payload.Matches {
		mapped, ok := a.mapMatch(item, q, season)
		if !ok {
			continue
		}
		if !q.InRange(mapped.Date) {
			continue
		}
		out = append(out, record.New(mapped, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchStandings(_ context.Context, _ source.Query) ([]record.Record[standings.Row], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "dataset publishes no standings")
}

func (a *Adapter) FetchTeamStats(_ context.Context, _ source.Query) ([]record.Record[team.Stats], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "dataset publishes no team stats")
}

func (a *Adapter) locate(q source.Query) (datasetLeague, string, error) {
	meta, ok := datasetFiles[strings.ToUpper(strings.TrimSpace(q.LeagueCode))]
	if !ok {
		return datasetLeague{}, "", source.Errorf(Name, source.ErrUnsupportedFilter, "no dataset file for league %q", q.LeagueCode)
	}
	season := strings.TrimSpace(q.Season)
	if season == "" {
		season = a.defaultSeason
	}
	if season == "" {
		return datasetLeague{}, "", source.Errorf(Name, source.ErrUnsupportedFilter, "season filter is required for the dataset")
	}
	return meta, season, nil
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

func (a *Adapter) getJSON(url string, target any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := a.httpClient.DoTimeout(req, resp, a.timeout); err != nil {
		return source.NewError(Name, source.ErrTimeout, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusNotFound:
		return source.Errorf(Name, source.ErrNotFound, "dataset file missing: %s", url)
	case code < 200 || code >= 300:
		return source.Errorf(Name, source.ErrParse, "dataset status=%d for %s", code, url)
	}

	if err := sonic.Unmarshal(resp.Body(), target); err != nil {
		return source.NewError(Name, source.ErrParse, err)
	}
	return nil
}

func (a *Adapter) mapMatch(item matchEntry, q source.Query, season string) (match.Match, bool) {
	when, err := time.Parse("2006-01-02", item.Date)
	if err != nil {
		return match.Match{}, false
	}
	if item.Time != "" {
		if withTime, err := time.Parse("2006-01-02 15:04", item.Date+" "+item.Time); err == nil {
			when = withTime
		}
	}

	m := match.Match{
		Date:     when.UTC(),
		LeagueID: strings.ToUpper(strings.TrimSpace(q.LeagueCode)),
		HomeTeam: item.Team1,
		AwayTeam: item.Team2,
		Season:   season,
		Status:   match.StatusScheduled,
	}

	if len(item.Score.FullTime) == 2 {
		home, away := item.Score.FullTime[0], item.Score.FullTime[1]
		m.HomeScore = &home
		m.AwayScore = &away
		m.Status = match.StatusFinished
	}

	return m, true
}

type clubsFile struct {
	Name  string `json:"name"`
	Clubs []struct {
		Name    string `json:"name"`
		Code    string `json:"code"`
		Country string `json:"country"`
	} `json:"clubs"`
}

type matchEntry struct {
	Round string `json:"round"`
	Date  string `json:"date"`
	Time  string `json:"time"`
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
	Score struct {
		FullTime []int `json:"ft"`
	} `json:"score"`
}

type matchesFile struct {
	Name    string       `json:"name"`
	Matches []matchEntry `json:"matches"`
}
