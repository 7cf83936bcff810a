package match

import (
	"testing"
	"time"
)

func TestIdentityKey_StableAcrossSources(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	fromAPI := Match{Date: date, HomeTeam: "Girona FC", AwayTeam: "Real Madrid CF"}
	fromScrape := Match{Date: date.Add(time.Hour), HomeTeam: "girona", AwayTeam: "Real Madrid"}

	if fromAPI.IdentityKey() != fromScrape.IdentityKey() {
		t.Fatalf("same fixture must share a key: %q vs %q", fromAPI.IdentityKey(), fromScrape.IdentityKey())
	}

	otherDay := Match{Date: date.AddDate(0, 0, 1), HomeTeam: "Girona FC", AwayTeam: "Real Madrid CF"}
	if fromAPI.IdentityKey() == otherDay.IdentityKey() {
		t.Fatalf("different days must not collide")
	}
}

func TestIdentityKey_FallsBackToTeamIDs(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m := Match{Date: date, HomeTeamID: "girona", AwayTeamID: "real-madrid"}
	if m.IdentityKey() == date.Format("2006-01-02")+"||" {
		t.Fatalf("expected team ids in key when names are missing, got %q", m.IdentityKey())
	}
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", StatusScheduled},
		{"TIMED", StatusScheduled},
		{"in_play", StatusLive},
		{"HT", StatusLive},
		{"FT", StatusFinished},
		{"full-time", StatusFinished},
		{"PST", StatusPostponed},
		{"CANCELLED", StatusCanceled},
		{"whatever-else", StatusScheduled},
	}

	for _, tc := range cases {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsFinished(t *testing.T) {
	t.Parallel()

	if !IsFinished("AET") {
		t.Fatalf("expected AET to count as finished")
	}
	if IsFinished("LIVE") {
		t.Fatalf("live must not count as finished")
	}
}
