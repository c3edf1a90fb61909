package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Taxonomies accepted by ResolveTerms.
const (
	TaxonomyCategories = "categories"
	TaxonomyTags       = "tags"
)

const termLookupConcurrency = 4

type termPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type termExists struct {
	Code string `json:"code"`
	Data struct {
		TermID int64 `json:"term_id"`
	} `json:"data"`
}

// ResolveTerms maps names to term ids in taxonomy, creating missing terms.
// Names are trimmed and deduplicated case-insensitively; the result keeps
// first-seen order. Lookups run concurrently.
func (c *Client) ResolveTerms(ctx context.Context, names []string, taxonomy string) ([]int64, error) {
	if taxonomy != TaxonomyCategories && taxonomy != TaxonomyTags {
		return nil, fmt.Errorf("unsupported taxonomy %q", taxonomy)
	}
	unique := uniqueNames(names)
	if len(unique) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(termLookupConcurrency)
	for i, name := range unique {
		g.Go(func() error {
			id, err := c.termID(gctx, taxonomy, name)
			if err != nil {
				return fmt.Errorf("resolve %s %q: %w", taxonomy, name, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dedupeIDs(ids), nil
}

func (c *Client) termID(ctx context.Context, taxonomy, name string) (int64, error) {
	query := url.Values{}
	query.Set("search", name)
	query.Set("per_page", "20")
	var found []termPayload
	if err := c.call(ctx, http.MethodGet, taxonomy, query, nil, &found); err != nil {
		return 0, err
	}
	for _, term := range found {
		if strings.EqualFold(html.UnescapeString(term.Name), name) {
			return term.ID, nil
		}
	}

	body, err := jsonBody(map[string]string{"name": name})
	if err != nil {
		return 0, err
	}
	var created termPayload
	err = c.call(ctx, http.MethodPost, taxonomy, nil, body, &created)
	if err == nil {
		return created.ID, nil
	}
	// A term created by a concurrent invocation since the search.
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
		var exists termExists
		if json.Unmarshal([]byte(se.Body), &exists) == nil && exists.Code == "term_exists" && exists.Data.TermID > 0 {
			return exists.Data.TermID, nil
		}
	}
	return 0, err
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
