package reconcile

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/team"
)

var (
	older = time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	newer = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
)

// Two sources disagree on the stadium; the second source alone knows the
// founding year.
func conflictingTeams() []record.Record[team.Team] {
	primary := record.New(team.Team{
		ID: "86", Name: "Real Madrid", Stadium: "Santiago Bernabeu", Country: "Spain",
	}, "football-data", older)
	secondary := record.New(team.Team{
		ID: "86", Name: "Real Madrid", Stadium: "Estadio Bernabeu", Country: "Spain", FoundedYear: 1902,
	}, "espn", newer)
	return []record.Record[team.Team]{primary, secondary}
}

func TestResolve_PriorityTakesWholeRecord(t *testing.T) {
	t.Parallel()

	cfg := Config{Policy: PolicyPriority, Priority: []string{"football-data", "espn"}}
	resolved := Resolve(cfg, conflictingTeams())
	if len(resolved) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(resolved))
	}

	got := resolved[0]
	if got.Entity.Stadium != "Santiago Bernabeu" {
		t.Fatalf("stadium = %q, want the priority source's value", got.Entity.Stadium)
	}
	if got.Entity.FoundedYear != 0 {
		t.Fatalf("priority must not borrow fields from lower sources, got year %d", got.Entity.FoundedYear)
	}
	if !reflect.DeepEqual(got.Sources, []string{"football-data"}) {
		t.Fatalf("sources = %v", got.Sources)
	}
}

func TestResolve_CombineFillsMissingOnly(t *testing.T) {
	t.Parallel()

	cfg := Config{Policy: PolicyCombine, Priority: []string{"football-data", "espn"}}
	resolved := Resolve(cfg, conflictingTeams())

	got := resolved[0]
	if got.Entity.Stadium != "Santiago Bernabeu" {
		t.Fatalf("conflicting field must keep the priority value, got %q", got.Entity.Stadium)
	}
	if got.Entity.FoundedYear != 1902 {
		t.Fatalf("missing field should be filled from the lower source, got %d", got.Entity.FoundedYear)
	}
	if !reflect.DeepEqual(got.Sources, []string{"football-data", "espn"}) {
		t.Fatalf("sources = %v", got.Sources)
	}
}

func TestResolve_MatchesAcrossIDBearingAndNameOnlySources(t *testing.T) {
	t.Parallel()

	withID := record.New(team.Team{
		ID: "86", Name: "Real Madrid CF", Stadium: "Santiago Bernabeu",
	}, "football-data", older)
	nameOnly := record.New(team.Team{
		Name: "Real Madrid", Country: "Spain",
	}, "espn", newer)

	cfg := Config{Policy: PolicyCombine, Priority: []string{"football-data", "espn"}}
	resolved := Resolve(cfg, []record.Record[team.Team]{withID, nameOnly})
	if len(resolved) != 1 {
		t.Fatalf("expected 1 reconciled club, got %d", len(resolved))
	}

	got := resolved[0]
	if got.Entity.ID != "86" || got.Entity.Country != "Spain" {
		t.Fatalf("combine should keep the id and borrow the country, got %+v", got.Entity)
	}
	if !reflect.DeepEqual(got.Sources, []string{"football-data", "espn"}) {
		t.Fatalf("sources = %v", got.Sources)
	}
}

func TestResolve_MostRecentWinsByFetchTime(t *testing.T) {
	t.Parallel()

	cfg := Config{Policy: PolicyMostRecent, Priority: []string{"football-data", "espn"}}
	resolved := Resolve(cfg, conflictingTeams())

	got := resolved[0]
	if got.Entity.Stadium != "Estadio Bernabeu" {
		t.Fatalf("stadium = %q, want the newest record's value", got.Entity.Stadium)
	}
}

func TestResolve_AgreementIsNotAConflict(t *testing.T) {
	t.Parallel()

	entity := team.Team{ID: "559", Name: "Sevilla FC", Country: "Spain"}
	records := []record.Record[team.Team]{
		record.New(entity, "football-data", older),
		record.New(entity, "open-football", newer),
	}

	resolved := Resolve(Config{Policy: PolicyPriority, Priority: []string{"football-data"}}, records)
	got := resolved[0]
	if !reflect.DeepEqual(got.Sources, []string{"football-data", "open-football"}) {
		t.Fatalf("equal records should merge provenance, got %v", got.Sources)
	}
}

func TestResolve_SyntheticNeverBeatsReal(t *testing.T) {
	t.Parallel()

	real := record.New(team.Team{ID: "81", Name: "FC Barcelona"}, "espn", older)
	synthetic := record.NewSynthetic(team.Team{
		ID: "81", Name: "FC Barcelona", Stadium: "Invented Arena", FoundedYear: 1800,
	}, "synthesizer", newer)

	for _, policy := range []Policy{PolicyPriority, PolicyCombine, PolicyMostRecent} {
		// Synthesizer ranked first and fetched last: still loses.
		cfg := Config{Policy: policy, Priority: []string{"synthesizer", "espn"}}
		resolved := Resolve(cfg, []record.Record[team.Team]{synthetic, real})

		got := resolved[0]
		if got.Synthetic {
			t.Fatalf("policy %s: result marked synthetic despite a real record", policy)
		}
		if got.Entity.Stadium != "" {
			t.Fatalf("policy %s: synthetic fields leaked into a real entity", policy)
		}
	}
}

func TestResolve_AllSyntheticStaysSynthetic(t *testing.T) {
	t.Parallel()

	synthetic := record.NewSynthetic(team.Team{ID: "x", Name: "Placeholder"}, "synthesizer", older)
	resolved := Resolve(Config{Policy: PolicyCombine}, []record.Record[team.Team]{synthetic})
	if !resolved[0].Synthetic {
		t.Fatal("an entity built only from synthetic records must stay flagged")
	}
}

func TestResolve_DeterministicOrder(t *testing.T) {
	t.Parallel()

	records := []record.Record[team.Team]{
		record.New(team.Team{ID: "559", Name: "Sevilla FC"}, "espn", older),
		record.New(team.Team{ID: "86", Name: "Real Madrid"}, "espn", older),
		record.New(team.Team{ID: "81", Name: "FC Barcelona"}, "espn", older),
	}
	cfg := Config{Policy: PolicyCombine}

	first := Resolve(cfg, records)
	second := Resolve(cfg, records)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated resolution over the same input diverged")
	}
	if !sort.SliceIsSorted(first, func(i, j int) bool {
		return first[i].Entity.IdentityKey() < first[j].Entity.IdentityKey()
	}) {
		t.Fatal("output not sorted by identity key")
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Policy{
		"":             PolicyCombine,
		"combine":      PolicyCombine,
		"PRIORITY":     PolicyPriority,
		" most_recent": PolicyMostRecent,
	} {
		got, err := ParsePolicy(input)
		if err != nil {
			t.Fatalf("ParsePolicy(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParsePolicy(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParsePolicy("newest"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
