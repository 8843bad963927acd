package extract

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contactHints score anchors that look like routes to a contact page.
var contactHints = []struct {
	token  string
	weight int
}{
	{"contact-us", 10},
	{"contact_us", 10},
	{"contactus", 9},
	{"contact", 8},
	{"get-in-touch", 7},
	{"reach", 5},
	{"connect", 4},
	{"about", 2},
}

type scoredLink struct {
	href  string
	score int
}

// ContactLinks scores outgoing same-domain anchors whose href or text hints
// at a contact page and returns up to max absolute URLs in ranked order. The
// caller follows them; the extractor itself never fetches.
func ContactLinks(htmlStr, sourceURL string, max int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []scoredLink

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(strings.ToLower(href), "mailto:") ||
			strings.HasPrefix(strings.ToLower(href), "tel:") ||
			strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Host != base.Host {
			return
		}

		score := scoreAnchor(strings.ToLower(abs.Path), strings.ToLower(s.Text()))
		if score == 0 {
			return
		}

		abs.Fragment = ""
		u := abs.String()
		if u == sourceURL {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		links = append(links, scoredLink{href: u, score: score})
	})

	sort.SliceStable(links, func(i, j int) bool { return links[i].score > links[j].score })

	if len(links) > max {
		links = links[:max]
	}
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.href)
	}
	return out
}

func scoreAnchor(path, text string) int {
	best := 0
	for _, h := range contactHints {
		if strings.Contains(path, h.token) || strings.Contains(text, h.token) {
			if h.weight > best {
				best = h.weight
			}
		}
	}
	// "Contact" as plain anchor text is the strongest human signal.
	if strings.TrimSpace(text) == "contact" || strings.TrimSpace(text) == "contact us" {
		best += 3
	}
	return best
}
