package footballdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/source"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(ClientConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: 2 * time.Second,
	}, nil)
}

func TestFetchTeams_AttachesAuthHeaderAndNormalizes(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Auth-Token"); got != "test-token" {
			t.Errorf("missing auth header, got %q", got)
		}
		if r.URL.Path != "/competitions/PD/teams" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"teams":[
			{"id":86,"name":"Real Madrid CF","shortName":"Real Madrid","tla":"RMA",
			 "crest":"https://crests.example/86.png","area":{"name":"Spain"},
			 "founded":1902,"venue":"Santiago Bernabéu"}
		]}`))
	})

	records, err := adapter.FetchTeams(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("fetch teams: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0].Entity
	if got.ID != "86" || got.Name != "Real Madrid CF" || got.ShortName != "RMA" {
		t.Fatalf("unexpected team mapping: %+v", got)
	}
	if got.Stadium != "Santiago Bernabéu" || got.FoundedYear != 1902 || got.Country != "Spain" {
		t.Fatalf("provider fields not normalized: %+v", got)
	}
	if records[0].Source != Name || records[0].Synthetic {
		t.Fatalf("record envelope wrong: %+v", records[0])
	}
}

func TestFetchMatches_NormalizesStatusAndSeason(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dateFrom") != "2026-03-01" {
			t.Errorf("dateFrom not mapped: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"matches":[{
			"id":4421,"utcDate":"2026-03-01T20:00:00Z","status":"FINISHED",
			"venue":"Estadio Metropolitano",
			"homeTeam":{"id":78,"name":"Atlético Madrid"},
			"awayTeam":{"id":559,"name":"Sevilla FC"},
			"season":{"startDate":"2025-08-15","endDate":"2026-05-24"},
			"score":{"fullTime":{"home":2,"away":0}},
			"referees":[{"name":"Mateu Lahoz"}]
		}]}`))
	})

	q := source.Query{
		LeagueCode: "PD",
		DateFrom:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	records, err := adapter.FetchMatches(context.Background(), q)
	if err != nil {
		t.Fatalf("fetch matches: %v", err)
	}

	got := records[0].Entity
	if got.Status != match.StatusFinished {
		t.Fatalf("status not normalized: %q", got.Status)
	}
	if got.Season != "2025-26" {
		t.Fatalf("season label wrong: %q", got.Season)
	}
	if got.HomeScore == nil || *got.HomeScore != 2 || got.Referee != "Mateu Lahoz" {
		t.Fatalf("match fields not mapped: %+v", got)
	}
	if got.IdentityKey() != "2026-03-01|atletico madrid|sevilla" {
		t.Fatalf("unexpected identity key %q", got.IdentityKey())
	}
}

func TestFetchTeams_UnknownLeagueIsUnsupportedFilter(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("provider must not be called for an unmapped league")
		w.WriteHeader(http.StatusOK)
	})

	_, err := adapter.FetchTeams(context.Background(), source.Query{LeagueCode: "NOPE"})
	if source.KindOf(err) != source.ErrUnsupportedFilter {
		t.Fatalf("expected unsupported_filter, got %v", err)
	}
}

func TestFetchTeams_AuthFailureMapsToAuthError(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := adapter.FetchTeams(context.Background(), source.Query{LeagueCode: "PD"})
	if source.KindOf(err) != source.ErrAuth {
		t.Fatalf("expected auth_error, got %v", err)
	}
}

func TestFetchTeams_TooManyRequestsMapsToRateLimited(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := adapter.FetchTeams(context.Background(), source.Query{LeagueCode: "PD"})
	var srcErr *source.Error
	if !errors.As(err, &srcErr) || srcErr.Kind != source.ErrRateLimited {
		t.Fatalf("expected rate_limited, got %v", err)
	}
}

func TestFetchPlayers_RequiresNumericTeamID(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := adapter.FetchPlayers(context.Background(), source.Query{TeamID: "real madrid"})
	if source.KindOf(err) != source.ErrUnsupportedFilter {
		t.Fatalf("expected unsupported_filter for fuzzy id, got %v", err)
	}
}

func TestFetchTeamStats_AggregatesFinishedMatches(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[
			{"id":1,"utcDate":"2026-02-01T18:00:00Z","status":"FINISHED",
			 "homeTeam":{"id":1,"name":"Alpha"},"awayTeam":{"id":2,"name":"Beta"},
			 "season":{"startDate":"2025-08-01","endDate":"2026-05-31"},
			 "score":{"fullTime":{"home":3,"away":1}}},
			{"id":2,"utcDate":"2026-02-08T18:00:00Z","status":"SCHEDULED",
			 "homeTeam":{"id":2,"name":"Beta"},"awayTeam":{"id":1,"name":"Alpha"},
			 "season":{"startDate":"2025-08-01","endDate":"2026-05-31"},
			 "score":{"fullTime":{"home":null,"away":null}}}
		]}`))
	})

	records, err := adapter.FetchTeamStats(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("fetch team stats: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected stats for 2 teams, got %d", len(records))
	}

	for _, rec := range records {
		s := rec.Entity
		if s.Played != 1 {
			t.Fatalf("scheduled match counted into stats: %+v", s)
		}
		if s.TeamID == "1" && (s.Wins != 1 || s.GoalsFor != 3) {
			t.Fatalf("home win not aggregated: %+v", s)
		}
	}
}
