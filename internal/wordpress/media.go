package wordpress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Media is an uploaded attachment.
type Media struct {
	ID        int64
	SourceURL string
}

type mediaPayload struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// FindMedia returns the newest image attachment matching search.
func (c *Client) FindMedia(ctx context.Context, search string) (Media, bool, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return Media{}, false, nil
	}
	query := url.Values{}
	query.Set("search", search)
	query.Set("media_type", "image")
	query.Set("per_page", "1")
	query.Set("orderby", "date")
	query.Set("order", "desc")

	var found []mediaPayload
	if err := c.call(ctx, http.MethodGet, "media", query, nil, &found); err != nil {
		return Media{}, false, fmt.Errorf("search media: %w", err)
	}
	if len(found) == 0 || found[0].ID <= 0 {
		return Media{}, false, nil
	}
	return Media{ID: found[0].ID, SourceURL: found[0].SourceURL}, true, nil
}

// UploadMedia uploads the file at path as a new attachment named after the
// file.
func (c *Client) UploadMedia(ctx context.Context, path string) (Media, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Media{}, fmt.Errorf("read media file: %w", err)
	}
	if len(data) == 0 {
		return Media{}, errors.New("media file is empty")
	}
	name := filepath.Base(path)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	target := c.endpoint("media", nil)
	var uploaded mediaPayload
	err = c.api.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.user, c.password)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		return req, nil
	}, &uploaded)
	if err != nil {
		return Media{}, fmt.Errorf("upload media %s: %w", name, err)
	}
	if uploaded.ID <= 0 {
		return Media{}, errors.New("upload media: response carried no id")
	}
	return Media{ID: uploaded.ID, SourceURL: uploaded.SourceURL}, nil
}
