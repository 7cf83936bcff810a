// Package worldfootball adapts a flat-file archive of historical results
// (one CSV per league and season, football-data.co.uk column layout) into
// canonical records. Rows are streamed, not slurped: a season file can hold
// decades of fixtures.
package worldfootball

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
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
	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/source"
)

const Name = "world-football"

// archiveCodes maps canonical league codes onto archive file prefixes.
var archiveCodes = map[string]string{
	"PD":  "SP1",
	"PL":  "E0",
	"SA":  "I1",
	"BL1": "D1",
	"FL1": "F1",
}

type Config struct {
	// Dir is the archive root: {Dir}/{archiveCode}-{season}.csv
	Dir    string
	Logger *logging.Logger
}

type Adapter struct {
	dir     string
	limiter source.Limiter
	logger  *logging.Logger
	now     func() time.Time
}

func New(cfg Config, limiter source.Limiter) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{
		dir:     cfg.Dir,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

func (a *Adapter) Name() string { return Name }

// FetchLeagues reports the leagues the archive actually has files for.
func (a *Adapter) FetchLeagues(ctx context.Context, _ source.Query) ([]record.Record[league.League], error) {
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, source.NewError(Name, source.ErrNotFound, err)
	}

	seen := make(map[string]bool)
	fetchedAt := a.now().UTC()
	var out []record.Record[league.League]
	for canonical, prefix := range archiveCodes {
		for _, entry := range entries {
			if seen[canonical] || !strings.HasPrefix(entry.Name(), prefix+"-") {
				continue
			}
			seen[canonical] = true
			out = append(out, record.New(league.League{Code: canonical, Name: canonical}, Name, fetchedAt))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Entity.Code < out[j].Entity.Code })
	return out, nil
}

// FetchTeams streams the season file once and reports each club seen.
func (a *Adapter) FetchTeams(ctx context.Context, q source.Query) ([]record.Record[team.Team], error) {
	names := make(map[string]string)
	err := a.streamMatches(ctx, q, func(m match.Match) {
		names[team.NormalizeName(m.HomeTeam)] = m.HomeTeam
		names[team.NormalizeName(m.AwayTeam)] = m.AwayTeam
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(names))
	for key := range names {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fetchedAt := a.now().UTC()
	out := make([]record.Record[team.Team], 0, len(keys))
	for _, key := range keys {
		out = append(out, record.New(team.Team{
			Name:     names[key],
			LeagueID: strings.ToUpper(strings.TrimSpace(q.LeagueCode)),
		}, Name, fetchedAt))
	}
	return out, nil
}

func (a *Adapter) FetchPlayers(_ context.Context, _ source.Query) ([]record.Record[player.Player], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "archive carries no player data")
}

func (a *Adapter) FetchMatches(ctx context.Context, q source.Query) ([]record.Record[match.Match], error) {
	fetchedAt := a.now().UTC()
	var out []record.Record[match.Match]
	err := a.streamMatches(ctx, q, func(m match.Match) {
		if !q.InRange(m.Date) {
			return
		}
		out = append(out, record.New(m, Name, fetchedAt))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) FetchStandings(_ context.Context, _ source.Query) ([]record.Record[standings.Row], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "archive publishes results, not tables")
}

func (a *Adapter) FetchTeamStats(_ context.Context, _ source.Query) ([]record.Record[team.Stats], error) {
	return nil, source.Errorf(Name, source.ErrUnsupportedFilter, "archive publishes results, not aggregates")
}

// streamMatches reads the season file row by row, invoking fn per parsed
// match. Unparsable rows are counted and logged, never fatal.
func (a *Adapter) streamMatches(ctx context.Context, q source.Query, fn func(match.Match)) error {
	path, err := a.seasonFile(q)
	if err != nil {
		return err
	}
	if err := a.acquire(ctx); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return source.Errorf(Name, source.ErrNotFound, "no archive file %s", filepath.Base(path))
		}
		return source.NewError(Name, source.ErrParse, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return source.NewError(Name, source.ErrParse, fmt.Errorf("read header: %w", err))
	}
	cols := indexColumns(header)
	if cols.date < 0 || cols.home < 0 || cols.away < 0 {
		return source.Errorf(Name, source.ErrParse, "archive header missing required columns: %v", header)
	}

	skipped := 0
	for {
		if err := ctx.Err(); err != nil {
			return source.NewError(Name, source.ErrTimeout, err)
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		m, ok := a.parseRow(row, cols, q)
		if !ok {
			skipped++
			continue
		}
		fn(m)
	}

	if skipped > 0 {
		a.logger.DebugContext(ctx, "archive rows skipped", "source", Name, "count", skipped)
	}
	return nil
}

type columnIndex struct {
	date, home, away, homeGoals, awayGoals, referee int
}

func indexColumns(header []string) columnIndex {
	cols := columnIndex{date: -1, home: -1, away: -1, homeGoals: -1, awayGoals: -1, referee: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Date":
			cols.date = i
		case "HomeTeam":
			cols.home = i
		case "AwayTeam":
			cols.away = i
		case "FTHG":
			cols.homeGoals = i
		case "FTAG":
			cols.awayGoals = i
		case "Referee":
			cols.referee = i
		}
	}
	return cols
}

func (a *Adapter) parseRow(row []string, cols columnIndex, q source.Query) (match.Match, bool) {
	get := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	when, err := parseArchiveDate(get(cols.date))
	if err != nil {
		return match.Match{}, false
	}
	home, away := get(cols.home), get(cols.away)
	if home == "" || away == "" {
		return match.Match{}, false
	}

	m := match.Match{
		Date:     when,
		LeagueID: strings.ToUpper(strings.TrimSpace(q.LeagueCode)),
		HomeTeam: home,
		AwayTeam: away,
		Season:   strings.TrimSpace(q.Season),
		Referee:  get(cols.referee),
		Status:   match.StatusScheduled,
	}

	if hg, err := strconv.Atoi(get(cols.homeGoals)); err == nil {
		if ag, err := strconv.Atoi(get(cols.awayGoals)); err == nil {
			m.HomeScore = &hg
			m.AwayScore = &ag
			m.Status = match.StatusFinished
		}
	}

	return m, true
}

// parseArchiveDate accepts the archive's dd/mm/yy and dd/mm/yyyy forms.
func parseArchiveDate(value string) (time.Time, error) {
	for _, layout := range []string{"02/01/2006", "02/01/06", "2006-01-02"} {
		if when, err := time.Parse(layout, value); err == nil {
			return when.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", value)
}

func (a *Adapter) seasonFile(q source.Query) (string, error) {
	prefix, ok := archiveCodes[strings.ToUpper(strings.TrimSpace(q.LeagueCode))]
	if !ok {
		return "", source.Errorf(Name, source.ErrUnsupportedFilter, "no archive code for league %q", q.LeagueCode)
	}
	season := strings.TrimSpace(q.Season)
	if season == "" {
		return "", source.Errorf(Name, source.ErrUnsupportedFilter, "season filter is required for the archive")
	}
	return filepath.Join(a.dir, prefix+"-"+season+".csv"), nil
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
