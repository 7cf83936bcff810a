package team

import "testing"

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Real Madrid CF", "real madrid"},
		{"  Sevilla FC ", "sevilla"},
		{"Real Betis Balompié", "real betis"},
		{"Club Atlético Osasuna", "atletico osasuna"},
		{"FC", "fc"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSameClub(t *testing.T) {
	t.Parallel()

	if !SameClub("Real Betis Balompié", "real betis") {
		t.Fatalf("expected fuzzy match across suffixes and accents")
	}
	if SameClub("Real Madrid", "Real Sociedad") {
		t.Fatalf("did not expect distinct clubs to match")
	}
	if SameClub("", "") {
		t.Fatalf("empty names must never match")
	}
}

func TestIdentityKey_KeysOnNormalizedName(t *testing.T) {
	t.Parallel()

	withID := Team{ID: "86", Name: "Real Madrid CF"}
	nameOnly := Team{Name: "Real Madrid"}
	if withID.IdentityKey() != nameOnly.IdentityKey() {
		t.Fatalf("same club must share one key across sources: %q vs %q",
			withID.IdentityKey(), nameOnly.IdentityKey())
	}
	if got := withID.IdentityKey(); got != "real madrid" {
		t.Fatalf("expected normalized name as key, got %q", got)
	}

	nameless := Team{ID: "86"}
	if got := nameless.IdentityKey(); got != "86" {
		t.Fatalf("nameless record should fall back to the provider id, got %q", got)
	}
}

func TestFillMissing_OnlyFillsEmptyFields(t *testing.T) {
	t.Parallel()

	base := Team{Name: "Real Madrid", Stadium: "Santiago Bernabeu"}
	other := Team{Name: "Real Madrid CF", Stadium: "Estadio Bernabeu", FoundedYear: 1902, Country: "Spain"}

	merged := base.FillMissing(other)
	if merged.Stadium != "Santiago Bernabeu" {
		t.Fatalf("populated field must win: got %q", merged.Stadium)
	}
	if merged.FoundedYear != 1902 || merged.Country != "Spain" {
		t.Fatalf("empty fields must be filled: %+v", merged)
	}
}
