package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
	stateDir   string
	queueDir   string
	logDir     string
}

type testConfigOptions struct {
	wordpressURL string
	requireAll   bool
}

func setupCLITestEnv(t *testing.T, opts testConfigOptions) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"WP_APP_PASSWORD", "TMDB_API_KEY", "OMDB_API_KEY", "NTFY_TOPIC"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		configPath: filepath.Join(homeDir, ".config", "autouploader", "config.toml"),
		baseDir:    base,
		stateDir:   filepath.Join(base, "state"),
		queueDir:   filepath.Join(base, "queue"),
		logDir:     filepath.Join(base, "logs"),
	}
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, env, opts)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv, opts testConfigOptions) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nstate_dir = %q\nqueue_dir = %q\nlog_dir = %q\n\n", env.stateDir, env.queueDir, env.logDir)
	b.WriteString("[wordpress]\n")
	if opts.wordpressURL != "" {
		fmt.Fprintf(&b, "url = %q\nuser = \"poster\"\napp_password = \"abcd efgh\"\n", opts.wordpressURL)
	}
	b.WriteString("categories = []\ntags = []\n\n")
	b.WriteString("[metadata]\nenable_anilist = false\n\n")
	fmt.Fprintf(&b, "[posting]\nrequire_all_primary_hosts = %t\ninclude_thumbnails = false\n\n", opts.requireAll)
	b.WriteString("[retry]\nattempts = 1\ninitial_delay_ms = 0\n\n")
	b.WriteString("[locking]\nattempts = 3\ninitial_backoff_ms = 10\n")
	if err := os.WriteFile(env.configPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

type sitePost struct {
	ID      int64
	Title   string
	Content string
}

// fakeSite is an in-memory stand-in for the WordPress REST endpoints the
// uploader calls.
type fakeSite struct {
	mu      sync.Mutex
	posts   map[int64]*sitePost
	nextID  int64
	terms   map[string]int64
	creates int
	updates int
}

func newFakeSite(t *testing.T) (*fakeSite, *httptest.Server) {
	t.Helper()
	site := &fakeSite{posts: map[int64]*sitePost{}, nextID: 100, terms: map[string]int64{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json/wp/v2/posts", site.searchPosts)
	mux.HandleFunc("POST /wp-json/wp/v2/posts", site.createPost)
	mux.HandleFunc("GET /wp-json/wp/v2/posts/{id}", site.getPost)
	mux.HandleFunc("POST /wp-json/wp/v2/posts/{id}", site.updatePost)
	for _, taxonomy := range []string{"categories", "tags"} {
		mux.HandleFunc("GET /wp-json/wp/v2/"+taxonomy, func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(w, http.StatusOK, []any{})
		})
		mux.HandleFunc("POST /wp-json/wp/v2/"+taxonomy, site.createTerm)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return site, server
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *fakeSite) payload(p *sitePost) map[string]any {
	return map[string]any{
		"id":      p.ID,
		"link":    "https://example.test/?p=" + strconv.FormatInt(p.ID, 10),
		"status":  "publish",
		"title":   map[string]string{"rendered": p.Title},
		"content": map[string]string{"rendered": p.Content, "raw": p.Content},
	}
}

func (s *fakeSite) searchPosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, s.payload(p))
	}
	writeTestJSON(w, http.StatusOK, out)
}

func (s *fakeSite) createPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &sitePost{ID: s.nextID, Title: body.Title, Content: body.Content}
	s.posts[p.ID] = p
	s.creates++
	writeTestJSON(w, http.StatusCreated, s.payload(p))
}

func (s *fakeSite) lookup(w http.ResponseWriter, r *http.Request) *sitePost {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return nil
	}
	p, ok := s.posts[id]
	if !ok {
		writeTestJSON(w, http.StatusNotFound, map[string]string{"code": "rest_post_invalid_id"})
		return nil
	}
	return p
}

func (s *fakeSite) getPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.lookup(w, r); p != nil {
		writeTestJSON(w, http.StatusOK, s.payload(p))
	}
}

func (s *fakeSite) updatePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookup(w, r)
	if p == nil {
		return
	}
	p.Content = body.Content
	s.updates++
	writeTestJSON(w, http.StatusOK, s.payload(p))
}

func (s *fakeSite) createTerm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.terms[body.Name]
	if !ok {
		id = int64(len(s.terms) + 1)
		s.terms[body.Name] = id
	}
	writeTestJSON(w, http.StatusCreated, map[string]any{"id": id, "name": body.Name})
}

func (s *fakeSite) counts() (creates, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.updates
}

func (s *fakeSite) content(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		return p.Content
	}
	return ""
}
