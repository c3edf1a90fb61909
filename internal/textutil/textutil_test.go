package textutil

import "testing"

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Show Name":           "show_name",
		"  Amélie  ":          "amelie",
		"Pokémon: The Movie!": "pokemon_the_movie",
		"Spider-Man 2.5":      "spider-man_2.5",
		"multiple   spaces":   "multiple_spaces",
		"":                    "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFoldDiacritics(t *testing.T) {
	if got := FoldDiacritics("Crème Brûlée"); got != "Creme Brulee" {
		t.Fatalf("FoldDiacritics = %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"rapidgator":   "Rapidgator",
		"file factory": "File Factory",
		" keep2share ": "Keep2share",
	}
	for in, want := range tests {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"RapidGator":  "rapidgator",
		"Nitro Flare": "nitro_flare",
		"Débrid":      "debrid",
		"   ":         "unknown",
		"--":          "unknown",
	}
	for in, want := range tests {
		if got := SanitizeToken(in); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}
