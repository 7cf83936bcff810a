package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/source"
)

const standingsHTML = `<html><body>
<table class="standings"><tbody>
<tr><td>1</td><td>Girona FC</td><td>24</td><td>18</td><td>3</td><td>3</td><td>52</td><td>25</td><td>57</td></tr>
<tr><td>2</td><td>Real Madrid</td><td>24</td><td>17</td><td>5</td><td>2</td><td>51</td><td>14</td><td>56</td></tr>
<tr><td colspan="9">advert row</td></tr>
</tbody></table>
</body></html>`

const fixturesHTML = `<html><body>
<table class="fixtures"><tbody>
<tr><td>2026-03-01</td><td>Girona FC</td><td>2 - 1</td><td>Real Madrid</td></tr>
<tr><td>2026-03-08</td><td>Real Madrid</td><td>vs</td><td>Sevilla FC</td></tr>
<tr><td>not-a-date</td><td>Broken</td><td>1 - 1</td><td>Row</td></tr>
</tbody></table>
</body></html>`

func newTestAdapter(t *testing.T, standings, fixtures string) *Adapter {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/standings/esp.1":
			_, _ = w.Write([]byte(standings))
		case r.URL.Path == "/fixtures/esp.1":
			_, _ = w.Write([]byte(fixtures))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)
}

func TestFetchStandings_ParsesTable(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, standingsHTML, fixturesHTML)
	records, err := adapter.FetchStandings(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("fetch standings: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rows (advert row skipped), got %d", len(records))
	}

	top := records[0].Entity
	if top.TeamName != "Girona FC" || top.Points != 57 || top.GoalsFor != 52 {
		t.Fatalf("row not parsed: %+v", top)
	}
	if top.TeamID != "girona" {
		t.Fatalf("team id not normalized: %q", top.TeamID)
	}
}

func TestFetchMatches_ParsesScoresAndSkipsBrokenRows(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, standingsHTML, fixturesHTML)
	records, err := adapter.FetchMatches(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("fetch matches: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 parsable fixtures, got %d", len(records))
	}

	played := records[0].Entity
	if played.Status != match.StatusFinished || played.HomeScore == nil || *played.HomeScore != 2 {
		t.Fatalf("finished fixture not parsed: %+v", played)
	}

	upcoming := records[1].Entity
	if upcoming.Status != match.StatusScheduled || upcoming.HomeScore != nil {
		t.Fatalf("scheduled fixture misparsed: %+v", upcoming)
	}
}

func TestFetchStandings_MarkupDriftReturnsEmptyNotError(t *testing.T) {
	t.Parallel()

	redesigned := `<html><body><div class="new-standings">nothing tabular</div></body></html>`
	adapter := newTestAdapter(t, redesigned, fixturesHTML)

	records, err := adapter.FetchStandings(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("markup drift must not be an error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result on drifted markup, got %d", len(records))
	}
}

func TestFetchStandings_UnknownLeagueIsUnsupportedFilter(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, standingsHTML, fixturesHTML)
	_, err := adapter.FetchStandings(context.Background(), source.Query{LeagueCode: "MLS"})
	if source.KindOf(err) != source.ErrUnsupportedFilter {
		t.Fatalf("expected unsupported_filter, got %v", err)
	}
}

func TestFetchTeamStats_DerivedFromStandings(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, standingsHTML, fixturesHTML)
	records, err := adapter.FetchTeamStats(context.Background(), source.Query{LeagueCode: "PD", Season: "2025-26"})
	if err != nil {
		t.Fatalf("fetch team stats: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 stats rows, got %d", len(records))
	}
	if s := records[0].Entity; s.Wins != 18 || s.Season != "2025-26" {
		t.Fatalf("stats not derived from table: %+v", s)
	}
}
