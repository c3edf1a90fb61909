package testsupport

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"autouploader/internal/release"
	"autouploader/internal/wordpress"
)

// Backend is an in-memory stand-in for the WordPress client. It is safe for
// concurrent use; errors set on the Fail* fields are returned by the
// matching call.
type Backend struct {
	mu sync.Mutex

	Strict bool

	FailSearch error
	FailCreate error
	FailUpdate error
	FailFetch  error
	FailDelete error
	FailUpload error

	posts  map[int64]*wordpress.Post
	media  map[int64]wordpress.Media
	names  map[int64]string
	terms  map[string]int64
	nextID int64

	Creates  int
	Updates  int
	Deletes  int
	Uploads  int
	Searches int
}

// NewBackend returns an empty fake.
func NewBackend() *Backend {
	return &Backend{
		Strict: true,
		posts:  map[int64]*wordpress.Post{},
		media:  map[int64]wordpress.Media{},
		names:  map[int64]string{},
		terms:  map[string]int64{},
		nextID: 100,
	}
}

func notFound(kind string, id int64) error {
	return &wordpress.StatusError{
		Method:     http.MethodGet,
		URL:        fmt.Sprintf("fake://%s/%d", kind, id),
		StatusCode: http.StatusNotFound,
	}
}

// Seed adds a post directly and returns its id.
func (b *Backend) Seed(title, content string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.posts[id] = &wordpress.Post{ID: id, Title: title, Content: content, Link: fmt.Sprintf("https://site.test/?p=%d", id)}
	return id
}

// Post returns a copy of post id.
func (b *Backend) Post(id int64) (wordpress.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.posts[id]
	if !ok {
		return wordpress.Post{}, false
	}
	return *p, true
}

// PostIDs lists the ids of all posts, sorted.
func (b *Backend) PostIDs() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.posts))
	for id := range b.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Search returns the lowest-id post whose title matches id.
func (b *Backend) Search(_ context.Context, id release.Identity) (int64, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Searches++
	if b.FailSearch != nil {
		return 0, false, b.FailSearch
	}
	var best int64
	for pid, p := range b.posts {
		if id.MatchesPostTitle(p.Title, b.Strict) && (best == 0 || pid < best) {
			best = pid
		}
	}
	return best, best != 0, nil
}

// Create stores a new post.
func (b *Backend) Create(_ context.Context, post wordpress.NewPost) (wordpress.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailCreate != nil {
		return wordpress.Post{}, b.FailCreate
	}
	b.Creates++
	b.nextID++
	p := &wordpress.Post{
		ID:            b.nextID,
		Title:         post.Title,
		Content:       post.Content,
		Status:        post.Status,
		FeaturedMedia: post.FeaturedMedia,
		Link:          fmt.Sprintf("https://site.test/?p=%d", b.nextID),
	}
	b.posts[p.ID] = p
	return *p, nil
}

// Update replaces the content of post id.
func (b *Backend) Update(_ context.Context, id int64, content string) (wordpress.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailUpdate != nil {
		return wordpress.Post{}, b.FailUpdate
	}
	p, ok := b.posts[id]
	if !ok {
		return wordpress.Post{}, notFound("posts", id)
	}
	b.Updates++
	p.Content = content
	return *p, nil
}

// Fetch returns post id.
func (b *Backend) Fetch(_ context.Context, id int64) (wordpress.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailFetch != nil {
		return wordpress.Post{}, b.FailFetch
	}
	p, ok := b.posts[id]
	if !ok {
		return wordpress.Post{}, notFound("posts", id)
	}
	return *p, nil
}

// Delete removes post id.
func (b *Backend) Delete(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete != nil {
		return b.FailDelete
	}
	if _, ok := b.posts[id]; !ok {
		return notFound("posts", id)
	}
	b.Deletes++
	delete(b.posts, id)
	return nil
}

// ResolveTerms assigns stable ids to term names.
func (b *Backend) ResolveTerms(_ context.Context, names []string, taxonomy string) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []int64
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := taxonomy + "/" + strings.ToLower(name)
		id, ok := b.terms[key]
		if !ok {
			id = int64(len(b.terms) + 1)
			b.terms[key] = id
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FindMedia returns the newest attachment whose file name contains search.
func (b *Backend) FindMedia(_ context.Context, search string) (wordpress.Media, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var (
		found wordpress.Media
		ok    bool
	)
	needle := strings.ToLower(search)
	for id, name := range b.names {
		if strings.Contains(strings.ToLower(name), needle) && id > found.ID {
			found, ok = b.media[id], true
		}
	}
	return found, ok, nil
}

// UploadMedia records an attachment named after path.
func (b *Backend) UploadMedia(_ context.Context, path string) (wordpress.Media, error) {
	if _, err := os.Stat(path); err != nil {
		return wordpress.Media{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailUpload != nil {
		return wordpress.Media{}, b.FailUpload
	}
	b.Uploads++
	b.nextID++
	name := filepath.Base(path)
	m := wordpress.Media{ID: b.nextID, SourceURL: "https://site.test/uploads/" + name}
	b.media[m.ID] = m
	b.names[m.ID] = name
	return m, nil
}

// MediaNames lists uploaded file names, sorted.
func (b *Backend) MediaNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.names))
	for _, n := range b.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
