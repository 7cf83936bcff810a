package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
	"github.com/tcastillov/futbol-data/internal/platform/cache"
	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/reconcile"
	"github.com/tcastillov/futbol-data/internal/source"
)

// stubAdapter counts calls per capability; unset capabilities report an
// unsupported filter like a real narrow source would.
type stubAdapter struct {
	name string

	teamsCalls     atomic.Int32
	matchesCalls   atomic.Int32
	standingsCalls atomic.Int32

	teams     func(source.Query) ([]record.Record[team.Team], error)
	matches   func(source.Query) ([]record.Record[match.Match], error)
	standings func(source.Query) ([]record.Record[standings.Row], error)
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) FetchLeagues(_ context.Context, _ source.Query) ([]record.Record[league.League], error) {
	return nil, source.Errorf(a.name, source.ErrUnsupportedFilter, "not stubbed")
}

func (a *stubAdapter) FetchTeams(_ context.Context, q source.Query) ([]record.Record[team.Team], error) {
	a.teamsCalls.Add(1)
	if a.teams == nil {
		return nil, source.Errorf(a.name, source.ErrUnsupportedFilter, "not stubbed")
	}
	return a.teams(q)
}

func (a *stubAdapter) FetchPlayers(_ context.Context, _ source.Query) ([]record.Record[player.Player], error) {
	return nil, source.Errorf(a.name, source.ErrUnsupportedFilter, "not stubbed")
}

func (a *stubAdapter) FetchMatches(_ context.Context, q source.Query) ([]record.Record[match.Match], error) {
	a.matchesCalls.Add(1)
	if a.matches == nil {
		return nil, source.Errorf(a.name, source.ErrUnsupportedFilter, "not stubbed")
	}
	return a.matches(q)
}

func (a *stubAdapter) FetchStandings(_ context.Context, q source.Query) ([]record.Record[standings.Row], error) {
	a.standingsCalls.Add(1)
	if a.standings == nil {
		return nil, source.Errorf(a.name, source.ErrUnsupportedFilter, "not stubbed")
	}
	return a.standings(q)
}

func (a *stubAdapter) FetchTeamStats(_ context.Context, _ source.Query) ([]record.Record[team.Stats], error) {
	return nil, source.Errorf(a.name, source.ErrUnsupportedFilter, "not stubbed")
}

func teamRecords(sourceName string, names ...string) func(source.Query) ([]record.Record[team.Team], error) {
	return func(q source.Query) ([]record.Record[team.Team], error) {
		fetchedAt := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
		out := make([]record.Record[team.Team], 0, len(names))
		for _, name := range names {
			out = append(out, record.New(team.Team{Name: name, LeagueID: q.LeagueCode}, sourceName, fetchedAt))
		}
		return out, nil
	}
}

func newService(t *testing.T, adapters []source.Adapter, synth *Synthesizer, exhaustive bool) *UnifiedDataService {
	t.Helper()
	store := cache.NewStore(nil, nil, logging.NewNop())
	return NewUnifiedDataService(adapters, store, synth, nil, logging.NewNop(), UnifiedDataConfig{
		Exhaustive: exhaustive,
		Reconcile:  reconcile.Config{Policy: reconcile.PolicyCombine},
	})
}

func TestGetTeams_PartialFailureStillServes(t *testing.T) {
	t.Parallel()

	adapters := []source.Adapter{
		&stubAdapter{name: "a", teams: func(source.Query) ([]record.Record[team.Team], error) {
			return nil, source.Errorf("a", source.ErrTimeout, "slow upstream")
		}},
		&stubAdapter{name: "b", teams: teamRecords("b", "Sevilla FC", "Real Betis")},
		&stubAdapter{name: "c", teams: func(source.Query) ([]record.Record[team.Team], error) {
			return nil, source.Errorf("c", source.ErrRateLimited, "quota spent")
		}},
		&stubAdapter{name: "d", teams: teamRecords("d", "Sevilla FC")},
	}

	svc := newService(t, adapters, nil, true)
	resolved, err := svc.GetTeams(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("GetTeams: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 teams from the surviving sources, got %d", len(resolved))
	}
}

func TestGetTeams_CachedResultSkipsSources(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "a", teams: teamRecords("a", "Valencia CF")}
	svc := newService(t, []source.Adapter{adapter}, nil, true)

	q := source.Query{LeagueCode: "PD", Season: "2025-26"}
	for i := 0; i < 3; i++ {
		if _, err := svc.GetTeams(context.Background(), q); err != nil {
			t.Fatalf("GetTeams #%d: %v", i+1, err)
		}
	}
	if calls := adapter.teamsCalls.Load(); calls != 1 {
		t.Fatalf("sources consulted %d times, want 1 (cache must absorb repeats)", calls)
	}
}

func TestGetTeams_AllFailSynthesizes(t *testing.T) {
	t.Parallel()

	failing := &stubAdapter{name: "a", teams: func(source.Query) ([]record.Record[team.Team], error) {
		return nil, source.Errorf("a", source.ErrTimeout, "down")
	}}
	synth := NewSynthesizer(SynthConfig{Enabled: true})
	svc := newService(t, []source.Adapter{failing}, synth, true)

	resolved, err := svc.GetTeams(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("GetTeams: %v", err)
	}
	if len(resolved) == 0 {
		t.Fatal("expected synthesized placeholders")
	}
	for _, r := range resolved {
		if !r.Synthetic {
			t.Fatalf("placeholder %q not flagged synthetic", r.Entity.Name)
		}
	}
}

func TestGetTeams_AllFailWithoutSynthesisErrors(t *testing.T) {
	t.Parallel()

	failing := &stubAdapter{name: "a", teams: func(source.Query) ([]record.Record[team.Team], error) {
		return nil, source.Errorf("a", source.ErrAuth, "bad token")
	}}
	svc := newService(t, []source.Adapter{failing}, nil, true)

	_, err := svc.GetTeams(context.Background(), source.Query{LeagueCode: "PD"})
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("err = %v, want ErrNoDataAvailable", err)
	}
}

func TestGetMatches_EmptyAnswerSynthesizes(t *testing.T) {
	t.Parallel()

	empty := &stubAdapter{name: "a", matches: func(source.Query) ([]record.Record[match.Match], error) {
		return []record.Record[match.Match]{}, nil
	}}
	synth := NewSynthesizer(SynthConfig{Enabled: true})
	svc := newService(t, []source.Adapter{empty}, synth, true)

	resolved, err := svc.GetMatches(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("GetMatches: %v", err)
	}
	if len(resolved) == 0 {
		t.Fatal("an empty reconciled set must be filled by synthesis when it is enabled")
	}
	for _, r := range resolved {
		if !r.Synthetic {
			t.Fatalf("expected synthetic flag on placeholder, got %+v", r)
		}
	}
}

func TestGetMatches_EmptyAnswerStaysEmptyWithoutSynthesis(t *testing.T) {
	t.Parallel()

	empty := &stubAdapter{name: "a", matches: func(source.Query) ([]record.Record[match.Match], error) {
		return []record.Record[match.Match]{}, nil
	}}
	svc := newService(t, []source.Adapter{empty}, nil, true)

	resolved, err := svc.GetMatches(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("GetMatches: %v", err)
	}
	if len(resolved) != 0 {
		t.Fatalf("an empty answer from a healthy source is an answer, got %d records", len(resolved))
	}

	if _, err := svc.GetMatches(context.Background(), source.Query{LeagueCode: "PD"}); err != nil {
		t.Fatalf("GetMatches (cached): %v", err)
	}
	if got := empty.matchesCalls.Load(); got != 1 {
		t.Fatalf("the empty answer must be cached, fetches=%d", got)
	}
}

func TestGetTeams_ShortCircuitStopsAtFirstHit(t *testing.T) {
	t.Parallel()

	first := &stubAdapter{name: "a", teams: teamRecords("a", "Girona FC")}
	second := &stubAdapter{name: "b", teams: teamRecords("b", "Girona FC")}
	svc := newService(t, []source.Adapter{first, second}, nil, false)

	if _, err := svc.GetTeams(context.Background(), source.Query{LeagueCode: "PD"}); err != nil {
		t.Fatalf("GetTeams: %v", err)
	}
	if second.teamsCalls.Load() != 0 {
		t.Fatal("short-circuit mode must not consult later sources after a hit")
	}
}

func TestGetStandings_DerivedFromMatchesWhenNoTablePublished(t *testing.T) {
	t.Parallel()

	two, one := 2, 1
	adapter := &stubAdapter{
		name: "a",
		matches: func(q source.Query) ([]record.Record[match.Match], error) {
			return []record.Record[match.Match]{record.New(match.Match{
				Date:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				LeagueID:   "PD",
				HomeTeamID: "86", AwayTeamID: "559",
				HomeTeam: "Real Madrid", AwayTeam: "Sevilla FC",
				HomeScore: &two, AwayScore: &one,
				Status: match.StatusFinished,
			}, "a", time.Now())}, nil
		},
	}
	svc := newService(t, []source.Adapter{adapter}, nil, true)

	rows, err := svc.GetStandings(context.Background(), source.Query{LeagueCode: "PD"})
	if err != nil {
		t.Fatalf("GetStandings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected a 2-team derived table, got %d rows", len(rows))
	}
	if rows[0].Entity.TeamName != "Real Madrid" || rows[0].Entity.Points != 3 {
		t.Fatalf("unexpected leader: %+v", rows[0].Entity)
	}
}

func TestGetTeams_MissingLeagueIsInvalidInput(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil, nil, true)
	_, err := svc.GetTeams(context.Background(), source.Query{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestInvalidateCategory_RejectsUnknown(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil, nil, true)
	if err := svc.InvalidateCategory(context.Background(), "teams"); err != nil {
		t.Fatalf("known category: %v", err)
	}
	if err := svc.InvalidateCategory(context.Background(), "everything"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestInvalidateCategory_ForcesRefetch(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "a", teams: teamRecords("a", "Osasuna")}
	svc := newService(t, []source.Adapter{adapter}, nil, true)

	q := source.Query{LeagueCode: "PD"}
	if _, err := svc.GetTeams(context.Background(), q); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if err := svc.InvalidateCategory(context.Background(), string(cache.CategoryTeams)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.GetTeams(context.Background(), q); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if calls := adapter.teamsCalls.Load(); calls != 2 {
		t.Fatalf("sources consulted %d times, want 2 after invalidation", calls)
	}
}
