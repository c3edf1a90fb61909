package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"

	"autouploader/internal/logging"
	"autouploader/internal/release"
)

const searchPageSize = 5

type rendered struct {
	Rendered string `json:"rendered"`
	Raw      string `json:"raw,omitempty"`
}

type postPayload struct {
	ID            int64    `json:"id"`
	Link          string   `json:"link"`
	Status        string   `json:"status"`
	Title         rendered `json:"title"`
	Content       rendered `json:"content"`
	FeaturedMedia int64    `json:"featured_media"`
}

// Post is a remote post.
type Post struct {
	ID            int64
	Link          string
	Status        string
	Title         string
	Content       string
	FeaturedMedia int64
}

func (p postPayload) toPost() Post {
	content := p.Content.Raw
	if content == "" {
		content = p.Content.Rendered
	}
	return Post{
		ID:            p.ID,
		Link:          p.Link,
		Status:        p.Status,
		Title:         html.UnescapeString(p.Title.Rendered),
		Content:       content,
		FeaturedMedia: p.FeaturedMedia,
	}
}

// NewPost is the payload for Create.
type NewPost struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Status        string  `json:"status,omitempty"`
	FeaturedMedia int64   `json:"featured_media,omitempty"`
	Categories    []int64 `json:"categories,omitempty"`
	Tags          []int64 `json:"tags,omitempty"`
}

func jsonBody(v any) (func() (io.Reader, string), error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return func() (io.Reader, string) {
		return bytes.NewReader(data), "application/json"
	}, nil
}

// Search looks for an existing post describing id. Candidates come from a
// full-text search on id.SearchTerm(); a candidate matches when its title has
// the same season/episode, contains the clean title, and, in strict mode,
// carries the same quality.
func (c *Client) Search(ctx context.Context, id release.Identity) (int64, bool, error) {
	query := url.Values{}
	query.Set("search", id.SearchTerm())
	query.Set("per_page", fmt.Sprint(searchPageSize))
	query.Set("_fields", "id,title,link")

	var posts []postPayload
	if err := c.call(ctx, http.MethodGet, "posts", query, nil, &posts); err != nil {
		return 0, false, fmt.Errorf("search posts: %w", err)
	}
	for _, p := range posts {
		title := html.UnescapeString(p.Title.Rendered)
		if id.MatchesPostTitle(title, c.strict) {
			c.logger.Debug("existing post matched",
				logging.String(logging.FieldReleaseKey, id.RawKey),
				logging.Int64("post_id", p.ID),
				logging.String("post_title", title),
			)
			return p.ID, true, nil
		}
	}
	return 0, false, nil
}

// Create publishes a new post.
func (c *Client) Create(ctx context.Context, post NewPost) (Post, error) {
	if post.Title == "" {
		return Post{}, errors.New("post title required")
	}
	body, err := jsonBody(post)
	if err != nil {
		return Post{}, fmt.Errorf("encode post: %w", err)
	}
	var created postPayload
	if err := c.call(ctx, http.MethodPost, "posts", nil, body, &created); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	if created.ID <= 0 {
		return Post{}, errors.New("create post: response carried no id")
	}
	return created.toPost(), nil
}

// Update replaces the body of post id.
func (c *Client) Update(ctx context.Context, id int64, content string) (Post, error) {
	body, err := jsonBody(map[string]string{"content": content})
	if err != nil {
		return Post{}, fmt.Errorf("encode post: %w", err)
	}
	var updated postPayload
	if err := c.call(ctx, http.MethodPost, idPath("posts", id), nil, body, &updated); err != nil {
		return Post{}, fmt.Errorf("update post %d: %w", id, err)
	}
	return updated.toPost(), nil
}

// Fetch returns post id. The raw body is preferred when the credentials
// allow the edit context; otherwise the rendered body is returned.
func (c *Client) Fetch(ctx context.Context, id int64) (Post, error) {
	query := url.Values{}
	query.Set("context", "edit")
	var p postPayload
	if err := c.call(ctx, http.MethodGet, idPath("posts", id), query, nil, &p); err != nil {
		return Post{}, fmt.Errorf("fetch post %d: %w", id, err)
	}
	return p.toPost(), nil
}

// Delete permanently removes post id, bypassing the trash.
func (c *Client) Delete(ctx context.Context, id int64) error {
	query := url.Values{}
	query.Set("force", "true")
	if err := c.call(ctx, http.MethodDelete, idPath("posts", id), query, nil, nil); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}
