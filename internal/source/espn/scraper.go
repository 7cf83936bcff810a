// Package espn scrapes league standings and fixture tables from an
// ESPN-style HTML site. Markup drifts; a parse miss is logged and skipped,
// never fatal, so a redesigned page degrades to an empty contribution.
package espn

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/source"
)

const Name = "espn"

// slugs maps canonical league codes onto the site's URL slugs.
var slugs = map[string]string{
	"PD":  "esp.1",
	"PL":  "eng.1",
	"SA":  "ita.1",
	"BL1": "ger.1",
	"FL1": "fra.1",
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *logging.Logger
}

type Adapter struct {
	httpClient *http.Client
	baseURL    string
	limiter    source.Limiter
	logger     *logging.Logger
	now        func() time.Time
}

func New(cfg Config, limiter source.Limiter) *Adapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		limiter:    limiter,
		logger:     logger,
		now:        time.Now,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) FetchLeagues(_ context.Context, _ source.Query) ([]record.Record[league.League], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "site has no scrapable league index")
}

func (a *Adapter) FetchTeams(ctx context.Context, q source.Query) ([]record.Record[team.Team], error) {
	rows, err := a.scrapeStandings(ctx, q)
	if err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[team.Team], 0, len(rows))
	for _, row := range rows {
		out = append(out, record.New(team.Team{
			Name:     row.TeamName,
			LeagueID: strings.ToUpper(strings.TrimSpace(q.LeagueCode)),
		}, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchPlayers(_ context.Context, _ source.Query) ([]record.Record[player.Player], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "squad pages are not scraped")
}

func (a *Adapter) FetchMatches(ctx context.Context, q source.Query) ([]record.Record[match.Match], error) {
	slug, err := a.slug(q)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	doc, err := a.document(ctx, fmt.Sprintf("%s/fixtures/%s", a.baseURL, slug))
	if err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	var out []record.Record[match.Match]
	doc.Find("table.fixtures tbody tr").Each(func(_ int, row *goquery.Selection) {
		mapped, ok := a.parseFixtureRow(row, q)
		if !ok {
			return
		}
		if !q.InRange(mapped.Date) {
			return
		}
		out = append(out, record.New(mapped, Name, fetchedAt))
	})

	if len(out) == 0 {
		a.logger.WarnContext(ctx, "scraper found no fixture rows, markup may have drifted",
			"source", Name, "league", q.LeagueCode)
	}
	return out, nil
}

func (a *Adapter) FetchStandings(ctx context.Context, q source.Query) ([]record.Record[standings.Row], error) {
	rows, err := a.scrapeStandings(ctx, q)
	if err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[standings.Row], 0, len(rows))
	for _, row := range rows {
		out = append(out, record.New(row, Name, fetchedAt))
	}
	return out, nil
}

// FetchTeamStats reuses the standings table, which already carries each
// team's aggregate season record.
func (a *Adapter) FetchTeamStats(ctx context.Context, q source.Query) ([]record.Record[team.Stats], error) {
	rows, err := a.scrapeStandings(ctx, q)
	if err != nil {
		return nil, err
	}

	fetchedAt := a.now().UTC()
	out := make([]record.Record[team.Stats], 0, len(rows))
	for _, row := range rows {
		out = append(out, record.New(team.Stats{
			TeamID:       row.TeamID,
			Season:       q.Season,
			Played:       row.Played,
			Wins:         row.Won,
			Draws:        row.Drawn,
			Losses:       row.Lost,
			GoalsFor:     row.GoalsFor,
			GoalsAgainst: row.GoalsAgainst,
		}, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) scrapeStandings(ctx context.Context, q source.Query) ([]standings.Row, error) {
	slug, err := a.slug(q)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	doc, err := a.document(ctx, fmt.Sprintf("%s/standings/%s", a.baseURL, slug))
	if err != nil {
		return nil, err
	}

	var rows []standings.Row
	doc.Find("table.standings tbody tr").Each(func(_ int, row *goquery.Selection) {
		parsed, ok := a.parseStandingRow(row)
		if !ok {
			return
		}
		rows = append(rows, parsed)
	})

	if len(rows) == 0 {
		a.logger.WarnContext(ctx, "scraper found no standings rows, markup may have drifted",
			"source", Name, "league", q.LeagueCode)
	}
	return rows, nil
}

// parseStandingRow expects cells: pos, team, P, W, D, L, GF, GA, Pts.
func (a *Adapter) parseStandingRow(row *goquery.Selection) (standings.Row, bool) {
	cells := row.Find("td")
	if cells.Length() < 9 {
		return standings.Row{}, false
	}

	name := strings.TrimSpace(cells.Eq(1).Text())
	if name == "" {
		return standings.Row{}, false
	}

	numbers := make([]int, 0, 8)
	ok := true
	for i := 0; i < 9; i++ {
		if i == 1 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(cells.Eq(i).Text()))
		if err != nil {
			ok = false
			break
		}
		numbers = append(numbers, n)
	}
	if !ok {
		return standings.Row{}, false
	}

	return standings.Row{
		Position:     numbers[0],
		TeamID:       team.NormalizeName(name),
		TeamName:     name,
		Played:       numbers[1],
		Won:          numbers[2],
		Drawn:        numbers[3],
		Lost:         numbers[4],
		GoalsFor:     numbers[5],
		GoalsAgainst: numbers[6],
		Points:       numbers[7],
	}, true
}

// parseFixtureRow expects cells: date, home, score ("2 - 1" or "vs"), away.
func (a *Adapter) parseFixtureRow(row *goquery.Selection, q source.Query) (match.Match, bool) {
	cells := row.Find("td")
	if cells.Length() < 4 {
		return match.Match{}, false
	}

	when, err := time.Parse("2006-01-02", strings.TrimSpace(cells.Eq(0).Text()))
	if err != nil {
		return match.Match{}, false
	}
	home := strings.TrimSpace(cells.Eq(1).Text())
	away := strings.TrimSpace(cells.Eq(3).Text())
	if home == "" || away == "" {
		return match.Match{}, false
	}

	m := match.Match{
		Date:     when.UTC(),
		LeagueID: strings.ToUpper(strings.TrimSpace(q.LeagueCode)),
		HomeTeam: home,
		AwayTeam: away,
		Season:   q.Season,
		Status:   match.StatusScheduled,
	}

	scoreText := strings.TrimSpace(cells.Eq(2).Text())
	if parts := strings.Split(scoreText, "-"); len(parts) == 2 {
		hg, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
		ag, errA := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errH == nil && errA == nil {
			m.HomeScore = &hg
			m.AwayScore = &ag
			m.Status = match.StatusFinished
		}
	}

	return m, true
}

func (a *Adapter) slug(q source.Query) (string, error) {
	slug, ok := slugs[strings.ToUpper(strings.TrimSpace(q.LeagueCode))]
	if !ok {
		return "", source.Errorf(Name, source.ErrUnsupportedFilter, "no site slug for league %q", q.LeagueCode)
	}
	return slug, nil
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

func (a *Adapter) document(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, source.NewError(Name, source.ErrParse, err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, source.NewError(Name, source.ErrTimeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, source.Errorf(Name, source.ErrNotFound, "page missing: %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, source.Errorf(Name, source.ErrParse, "page status=%d for %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, source.NewError(Name, source.ErrParse, err)
	}
	return doc, nil
}
