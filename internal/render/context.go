package render

import (
	"strconv"
	"strings"
)

// Context is every value a template may reference.
type Context struct {
	Title        string
	FullTitle    string
	Season       int
	Episode      int
	Quality      string
	Overview     string
	Rating       string
	Year         string
	ReleaseDate  string
	Thumbnail    string
	RomajiTitle  string
	EnglishTitle string
	Episodes     string
	Studio       string

	// Primaries lists the configured primary hosts in order; the first two
	// fill host1_* and host2_*.
	Primaries []HostLink
	// Mirrors are rendered one per line into host_links.
	Mirrors []string
}

// HostLink is a primary host slot. Link may be empty.
type HostLink struct {
	Host    string
	Display string
	Link    string
}

// Values flattens c into the placeholder table.
func (c Context) Values() map[string]string {
	v := map[string]string{
		"title":         c.Title,
		"full_title":    c.FullTitle,
		"season":        optionalInt(c.Season),
		"episode":       optionalInt(c.Episode),
		"quality":       c.Quality,
		"overview":      c.Overview,
		"rating":        c.Rating,
		"year":          c.Year,
		"release_date":  c.ReleaseDate,
		"thumbnail":     c.Thumbnail,
		"romaji_title":  c.RomajiTitle,
		"english_title": c.EnglishTitle,
		"episodes":      c.Episodes,
		"studio":        c.Studio,
		"host_links":    strings.Join(c.Mirrors, "\n"),
		"primary_links": c.primaryLines(),
		"host1_name":    "",
		"host1_link":    "",
		"host2_name":    "",
		"host2_link":    "",
	}
	if v["full_title"] == "" {
		v["full_title"] = c.Title
	}
	if v["romaji_title"] == "" {
		v["romaji_title"] = c.Title
	}
	if c.EnglishTitle != "" && c.EnglishTitle != v["romaji_title"] {
		v["english_title_suffix"] = " (" + c.EnglishTitle + ")"
	} else {
		v["english_title_suffix"] = ""
	}
	for i, p := range c.Primaries {
		v[p.Host+"_link"] = p.Link
		switch i {
		case 0:
			v["host1_name"], v["host1_link"] = p.Display, p.Link
		case 1:
			v["host2_name"], v["host2_link"] = p.Display, p.Link
		}
	}
	return v
}

func optionalInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// primaryLines renders "Display: link" for each primary host with a link.
func (c Context) primaryLines() string {
	lines := make([]string, 0, len(c.Primaries))
	for _, p := range c.Primaries {
		if p.Link != "" {
			lines = append(lines, p.Display+": "+p.Link)
		}
	}
	return strings.Join(lines, "\n")
}
