package fetch

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
)

// userAgents is a curated list of current desktop browsers. Chrome entries
// come first so the sec-ch-ua hints stay consistent more often than not.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

var searchReferers = []string{
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://duckduckgo.com/",
}

// RandomUserAgent picks a user agent from the curated list.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// chromeVersion extracts the major version from a Chrome UA, for sec-ch-ua.
func chromeVersion(ua string) string {
	i := strings.Index(ua, "Chrome/")
	if i < 0 {
		return ""
	}
	rest := ua[i+len("Chrome/"):]
	if j := strings.IndexByte(rest, '.'); j > 0 {
		return rest[:j]
	}
	return ""
}

// BuildHeaders assembles a realistic top-level navigation header set for the
// given URL and user agent. Accept-Language is weighted for India targeting.
func BuildHeaders(rawURL, userAgent, country string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")

	if strings.EqualFold(country, "in") {
		h.Set("Accept-Language", "en-IN,en-US;q=0.9,en;q=0.8,hi;q=0.7")
	} else {
		h.Set("Accept-Language", "en-US,en;q=0.9")
	}

	// Accept-Encoding is left to the transport so response bodies arrive
	// transparently decompressed.
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "cross-site")
	h.Set("Sec-Fetch-User", "?1")

	if v := chromeVersion(userAgent); v != "" {
		h.Set("sec-ch-ua", fmt.Sprintf(`"Chromium";v="%s", "Google Chrome";v="%s", "Not-A.Brand";v="99"`, v, v))
		h.Set("sec-ch-ua-mobile", "?0")
		switch {
		case strings.Contains(userAgent, "Windows"):
			h.Set("sec-ch-ua-platform", `"Windows"`)
		case strings.Contains(userAgent, "Mac OS X"):
			h.Set("sec-ch-ua-platform", `"macOS"`)
		default:
			h.Set("sec-ch-ua-platform", `"Linux"`)
		}
	}

	// Referer from the same host or a search engine, ~70% of the time.
	if rand.Float64() < 0.7 {
		if rand.Float64() < 0.4 {
			if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
				h.Set("Referer", u.Scheme+"://"+u.Host+"/")
			}
		} else {
			h.Set("Referer", searchReferers[rand.Intn(len(searchReferers))])
		}
	}

	if rand.Float64() < 0.5 {
		h.Set("DNT", "1")
	}

	return h
}
