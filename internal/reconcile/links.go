package reconcile

import (
	"html"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autouploader/internal/hosts"
	"autouploader/internal/linkstore"
)

// Links are the download links of one release: one per primary host plus an
// ordered, duplicate-free mirror list.
type Links struct {
	Primary map[string]string
	Mirrors []string
}

// HasAll reports whether every primary host has a link.
func (l Links) HasAll(primaries []string) bool {
	for _, host := range primaries {
		if l.Primary[host] == "" {
			return false
		}
	}
	return true
}

// FromAggregate splits a stored aggregate into primary and mirror links.
func FromAggregate(agg linkstore.Aggregate, primaries []string) Links {
	out := Links{Primary: map[string]string{}}
	for _, host := range primaries {
		if link := agg.Link(host); link != "" {
			out.Primary[host] = link
		}
	}
	out.Mirrors = dedupeMirrors(agg.MirrorLinks(primaries), out.Primary)
	return out
}

// MergeLinks combines two link sets. For each primary host record's link
// wins and challenger fills gaps; mirrors are the union in record-first
// order.
func MergeLinks(record, challenger Links, primaries []string) Links {
	out := Links{Primary: map[string]string{}}
	for _, host := range primaries {
		switch {
		case record.Primary[host] != "":
			out.Primary[host] = record.Primary[host]
		case challenger.Primary[host] != "":
			out.Primary[host] = challenger.Primary[host]
		}
	}
	// A primary link that lost to the record's becomes a mirror so it is not
	// dropped.
	var demoted []string
	for _, host := range primaries {
		if link := challenger.Primary[host]; link != "" && link != out.Primary[host] {
			demoted = append(demoted, link)
		}
	}
	mirrors := make([]string, 0, len(record.Mirrors)+len(challenger.Mirrors)+len(demoted))
	mirrors = append(mirrors, record.Mirrors...)
	mirrors = append(mirrors, challenger.Mirrors...)
	mirrors = append(mirrors, demoted...)
	out.Mirrors = dedupeMirrors(mirrors, out.Primary)
	return out
}

func dedupeMirrors(links []string, primary map[string]string) []string {
	seen := make(map[string]struct{}, len(links)+len(primary))
	for _, link := range primary {
		seen[link] = struct{}{}
	}
	out := make([]string, 0, len(links))
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

var (
	urlPattern    = `https?://[^\s<>"']+`
	mirrorBlock   = regexp.MustCompile(`(?i)(?:other|mirror) links:\s*((?:` + urlPattern + `\s*)+)`)
	urlInText     = regexp.MustCompile(urlPattern)
	labelTemplate = `(?im)(?:^|[^\pL\pN])%s[ \t\x{00a0}]*:[ \t\x{00a0}]*(` + urlPattern + `)`
)

// Extract reads links back out of a rendered post body. Primary links are
// found after their host's display-name label ("Rapidgator: https://...") or,
// failing that, as anchors pointing at the host. Mirrors come from the
// "Other Links:" or "Mirror Links:" block plus any remaining anchors to
// recognized hosts.
func Extract(body string, det *hosts.Detector) Links {
	out := Links{Primary: map[string]string{}}
	if det == nil || strings.TrimSpace(body) == "" {
		return out
	}
	primaries := det.PrimaryHosts()

	text, anchors := flatten(body)

	for _, host := range primaries {
		label := regexp.QuoteMeta(det.DisplayName(host))
		re, err := regexp.Compile(strings.Replace(labelTemplate, "%s", label, 1))
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(text); m != nil {
			out.Primary[host] = m[1]
		}
	}

	var mirrors []string
	for _, block := range mirrorBlock.FindAllStringSubmatch(text, -1) {
		mirrors = append(mirrors, urlInText.FindAllString(block[1], -1)...)
	}

	for _, href := range anchors {
		host := det.Detect(href)
		if host == hosts.Unknown {
			continue
		}
		if slices.Contains(primaries, host) {
			if out.Primary[host] == "" {
				out.Primary[host] = href
				continue
			}
			if href == out.Primary[host] {
				continue
			}
		}
		mirrors = append(mirrors, href)
	}

	out.Mirrors = dedupeMirrors(mirrors, out.Primary)
	return out
}

// flatten renders body to plain text with line breaks preserved and anchors
// replaced by their targets. It also returns the anchor targets in document
// order.
func flatten(body string) (string, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body, nil
	}
	var anchors []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if !urlInText.MatchString(href) {
			return
		}
		anchors = append(anchors, href)
		s.ReplaceWithHtml(html.EscapeString(href))
	})
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4").AppendHtml("\n")
	return doc.Text(), anchors
}
