package render

import (
	"errors"
	"strings"
	"testing"
)

func sampleContext() Context {
	return Context{
		Title:     "Show Name",
		FullTitle: "Show Name S02E09",
		Season:    2,
		Episode:   9,
		Quality:   "1080p",
		Overview:  "An overview.",
		Thumbnail: `<img src="https://example.com/t.jpg" alt="Show Name">`,
		Primaries: []HostLink{
			{Host: "rapidgator", Display: "Rapidgator", Link: "https://rapidgator.net/file/a"},
			{Host: "nitroflare", Display: "Nitroflare", Link: "https://nitroflare.com/view/b"},
		},
		Mirrors: []string{"https://uploadgig.com/file/c", "https://mega.nz/file/d"},
	}
}

func TestRenderEpisodeTemplate(t *testing.T) {
	r := NewRenderer(nil, nil)
	body := r.Render(KindTVEpisode, sampleContext())

	for _, want := range []string{
		"📺 Show Name S02E09",
		"🖥 Quality: 1080p",
		"Rapidgator: https://rapidgator.net/file/a",
		"Nitroflare: https://nitroflare.com/view/b",
		"Mirror Links:\nhttps://uploadgig.com/file/c\nhttps://mega.nz/file/d",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderUnknownKindUsesDefault(t *testing.T) {
	r := NewRenderer(nil, nil)
	body := r.Render("music", sampleContext())
	if !strings.HasPrefix(body, "Show Name\n\nAn overview.") {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

func TestRenderUnknownPlaceholderFallsBack(t *testing.T) {
	r := NewRenderer(map[string]string{"movie": "{title} by {director}"}, nil)
	body := r.Render(KindMovie, sampleContext())
	want := Fallback(sampleContext().Values())
	if body != want {
		t.Fatalf("body = %q, want fallback %q", body, want)
	}
	if !strings.Contains(body, "https://mega.nz/file/d") {
		t.Fatal("fallback lost the mirror links")
	}
}

func TestRenderOverrideAndBlankOverride(t *testing.T) {
	r := NewRenderer(map[string]string{"Movie": "{title} [{quality}]", "anime": "   "}, nil)
	if got := r.Render(KindMovie, sampleContext()); got != "Show Name [1080p]" {
		t.Fatalf("override body = %q", got)
	}
	if r.Template(KindAnime) != animeTemplate {
		t.Fatal("blank override replaced the built-in anime template")
	}
}

func TestExpandEscapesAndErrors(t *testing.T) {
	got, err := Expand("{{literal}} {title}", map[string]string{"title": "T"})
	if err != nil || got != "{literal} T" {
		t.Fatalf("Expand = %q, %v", got, err)
	}
	if _, err := Expand("{title", map[string]string{"title": "T"}); !errors.Is(err, errUnbalanced) {
		t.Fatalf("expected unbalanced error, got %v", err)
	}
	if _, err := Expand("oops}", nil); !errors.Is(err, errUnbalanced) {
		t.Fatalf("expected unbalanced error, got %v", err)
	}
	if _, err := Expand("{missing}", nil); !errors.Is(err, errUnknownField) {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestValues(t *testing.T) {
	ctx := Context{Title: "Frieren", EnglishTitle: "Frieren: Beyond Journey's End",
		Primaries: []HostLink{{Host: "rapidgator", Display: "Rapidgator", Link: "L"}}}
	v := ctx.Values()
	if v["season"] != "" || v["episode"] != "" {
		t.Fatalf("zero season/episode should render empty: %q %q", v["season"], v["episode"])
	}
	if v["full_title"] != "Frieren" || v["romaji_title"] != "Frieren" {
		t.Fatalf("title defaults wrong: %q %q", v["full_title"], v["romaji_title"])
	}
	if v["english_title_suffix"] != " (Frieren: Beyond Journey's End)" {
		t.Fatalf("english suffix = %q", v["english_title_suffix"])
	}
	if v["rapidgator_link"] != "L" || v["host1_name"] != "Rapidgator" || v["host2_link"] != "" {
		t.Fatalf("host values wrong: %v", v)
	}
}

func TestAnimeTemplateRenders(t *testing.T) {
	ctx := sampleContext()
	ctx.RomajiTitle = "Sousou no Frieren"
	ctx.Rating = "91"
	body := NewRenderer(nil, nil).Render(KindAnime, ctx)
	if !strings.HasPrefix(body, "🎌 Sousou no Frieren\n") {
		t.Fatalf("anime body = %q", body)
	}
	if !strings.Contains(body, "⭐ Rating: 91/100") {
		t.Fatalf("anime body missing rating:\n%s", body)
	}
}
