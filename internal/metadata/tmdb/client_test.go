package tmdb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autouploader/internal/metadata"
	"autouploader/internal/metadata/tmdb"
	"autouploader/internal/retry"
)

func noRetry() tmdb.Option {
	return tmdb.WithRetry(retry.Policy{Attempts: 1, InitialDelay: time.Millisecond})
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := tmdb.New("key", " ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestLookupUsesFirstNonPersonResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/multi" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "key" || q.Get("query") != "Show Name" || q.Get("language") != "en-US" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[
			{"id":9,"name":"Someone","media_type":"person"},
			{"id":1,"name":"Show Name","overview":"Plot.","first_air_date":"2021-03-04","media_type":"tv",
			 "poster_path":"/p.jpg","backdrop_path":"/b.jpg","vote_average":7.86}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US", tmdb.WithImageBaseURL("https://img.example/w500/"), noRetry())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	info, ok, err := client.Lookup(context.Background(), metadata.Query{Title: "Show Name"})
	if err != nil || !ok {
		t.Fatalf("Lookup = %v, %v", ok, err)
	}
	want := metadata.Info{
		Source:      "tmdb",
		Title:       "Show Name",
		Overview:    "Plot.",
		Year:        "2021",
		ReleaseDate: "2021-03-04",
		Rating:      "7.9",
		PosterURL:   "https://img.example/w500/p.jpg",
		BackdropURL: "https://img.example/w500/b.jpg",
		MediaType:   "tv",
	}
	if info != want {
		t.Fatalf("info = %+v\nwant %+v", info, want)
	}
}

func TestLookupNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, _ := tmdb.New("key", server.URL, "", noRetry())
	_, ok, err := client.Lookup(context.Background(), metadata.Query{Title: "Nothing"})
	if err != nil || ok {
		t.Fatalf("Lookup = %v, %v", ok, err)
	}
}

func TestSearchMovieHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status_code":500}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", noRetry())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "fail", 0); err == nil {
		t.Fatal("expected error when TMDB returns non-200")
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "  ", 0); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchMovieYearParameter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("primary_release_year"); got != "2019" {
			t.Errorf("primary_release_year = %q", got)
		}
		_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"Movie"}]}`))
	}))
	t.Cleanup(server.Close)

	client, _ := tmdb.New("key", server.URL, "", noRetry())
	resp, err := client.SearchMovie(context.Background(), "Movie", 2019)
	if err != nil || len(resp.Results) != 1 {
		t.Fatalf("SearchMovie = %+v, %v", resp, err)
	}
}
