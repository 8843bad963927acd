package browsersearch

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// engine describes one search engine the client can fall back to. Engines are
// tried in declaration order; a CAPTCHA on one moves the query to the next.
type engine struct {
	name            string
	resultSelectors []string
	buildURL        func(query, country string, page int) string
}

var engines = []engine{
	{
		name: "google",
		resultSelectors: []string{
			"div.g a[href^='http']",
			"div.yuRUbf > a",
			"a[jsname='UWckNb']",
			"div#search a[href^='http']",
		},
		buildURL: func(query, country string, page int) string {
			domain := "google.com"
			gl, hl := "us", "en"
			if country == "in" {
				domain = "google.co.in"
				gl, hl = "in", "en-IN"
			}
			v := url.Values{}
			v.Set("q", query)
			v.Set("gl", gl)
			v.Set("hl", hl)
			v.Set("pws", "0")
			v.Set("filter", "0")
			v.Set("nfpr", "1")
			v.Set("safe", "active")
			v.Set("num", "20")
			if page > 0 {
				v.Set("start", fmt.Sprintf("%d", page*20))
			}
			return "https://www." + domain + "/search?" + v.Encode()
		},
	},
	{
		name: "bing",
		resultSelectors: []string{
			"li.b_algo h2 > a",
			"li.b_algo a.tilk",
		},
		buildURL: func(query, country string, page int) string {
			v := url.Values{}
			v.Set("q", query)
			if country != "" {
				v.Set("cc", country)
			}
			if page > 0 {
				v.Set("first", fmt.Sprintf("%d", page*10+1))
			}
			return "https://www.bing.com/search?" + v.Encode()
		},
	},
	{
		name: "duckduckgo",
		resultSelectors: []string{
			"a[data-testid='result-title-a']",
			"h2 a[href^='http']",
		},
		buildURL: func(query, country string, page int) string {
			v := url.Values{}
			v.Set("q", query)
			if country == "in" {
				v.Set("kl", "in-en")
			}
			return "https://duckduckgo.com/?" + v.Encode()
		},
	},
	{
		name: "yahoo",
		resultSelectors: []string{
			"div.algo h3 > a",
			"h3.title > a",
		},
		buildURL: func(query, country string, page int) string {
			v := url.Values{}
			v.Set("p", query)
			if page > 0 {
				v.Set("b", fmt.Sprintf("%d", page*10+1))
			}
			return "https://search.yahoo.com/search?" + v.Encode()
		},
	},
	{
		name: "ecosia",
		resultSelectors: []string{
			"a[data-test-id='result-link']",
			"div.result a.result-title",
		},
		buildURL: func(query, country string, page int) string {
			v := url.Values{}
			v.Set("q", query)
			if page > 0 {
				v.Set("p", fmt.Sprintf("%d", page))
			}
			return "https://www.ecosia.org/search?" + v.Encode()
		},
	},
}

// Hosts whose pages never carry harvestable contact data for a business
// query. Matched as suffixes against the result host.
var lowValueHosts = []string{
	"youtube.com", "facebook.com", "instagram.com", "twitter.com", "x.com",
	"linkedin.com", "pinterest.com", "reddit.com", "quora.com",
	"wikipedia.org", "amp.dev", "justdial.com", "indiamart.com",
	"sulekha.com", "tradeindia.com",
}

var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "msclkid", "mc_cid", "mc_eid", "ref",
}

// Config controls the headless browser.
type Config struct {
	Headless     bool
	ProxyURL     string
	ProxyUser    string
	ProxyPass    string
	NavTimeout   time.Duration
	DebugDir     string
	MaxCaptchas  int
}

func DefaultConfig() Config {
	return Config{
		Headless:    true,
		NavTimeout:  45 * time.Second,
		MaxCaptchas: 3,
	}
}

// Client drives a shared headless browser for SERP scraping and page
// rendering. The page handle is guarded by a mutex so only one navigation is
// in flight at a time.
type Client struct {
	cfg     Config
	browser *rod.Browser

	mu           sync.Mutex
	page         *rod.Page
	captchaCount int
}

// NewClient launches the browser. Callers own the returned client and must
// Close it.
func NewClient(cfg Config) (*Client, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars")
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	if cfg.ProxyURL != "" && cfg.ProxyUser != "" {
		go browser.HandleAuth(cfg.ProxyUser, cfg.ProxyPass)()
	}

	c := &Client{cfg: cfg, browser: browser}
	if err := seedConsentCookies(browser); err != nil {
		log.Warn().Err(err).Msg("seeding consent cookies")
	}
	return c, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page != nil {
		_ = c.page.Close()
		c.page = nil
	}
	return c.browser.Close()
}

// currentPage lazily creates the stealth page. Callers must hold c.mu.
func (c *Client) currentPage() (*rod.Page, error) {
	if c.page != nil {
		return c.page, nil
	}
	page, err := newStealthPage(c.browser)
	if err != nil {
		return nil, err
	}
	c.page = page
	return page, nil
}

// resetPage discards the current page so the next call starts from a fresh
// fingerprint. Callers must hold c.mu.
func (c *Client) resetPage() {
	if c.page != nil {
		_ = c.page.Close()
		c.page = nil
	}
}

// Search runs the query through the engine chain and returns result URLs in
// rank order. Repeated CAPTCHAs across every engine yield an empty slice, not
// an error, so the caller can fall back to an API-based source.
func (c *Client) Search(ctx context.Context, query, country string, pageNum int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, eng := range engines {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		links, err := c.searchEngine(ctx, eng, query, country, pageNum)
		if err != nil {
			log.Warn().Err(err).Str("engine", eng.name).Str("query", query).Msg("engine search failed")
			c.resetPage()
			continue
		}
		if links != nil {
			log.Debug().Str("engine", eng.name).Int("results", len(links)).Msg("search succeeded")
			return links, nil
		}
		// nil with no error means CAPTCHA; back off before the next engine.
		c.captchaCount++
		c.resetPage()
		if c.captchaCount >= c.cfg.MaxCaptchas {
			log.Warn().Str("query", query).Msg("every engine served a challenge, giving up on browser search")
			return []string{}, nil
		}
		if !sleepOrDone(ctx, jitterDuration(8*time.Second)) {
			return nil, ctx.Err()
		}
	}
	return []string{}, nil
}

// searchEngine returns (nil, nil) when the engine served a CAPTCHA.
func (c *Client) searchEngine(ctx context.Context, eng engine, query, country string, pageNum int) ([]string, error) {
	page, err := c.currentPage()
	if err != nil {
		return nil, err
	}
	page = page.Context(ctx).Timeout(c.cfg.NavTimeout)

	target := eng.buildURL(query, country, pageNum)
	if err := page.Navigate(target); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", eng.name, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for %s to load: %w", eng.name, err)
	}

	p := pickPersona()
	simulateReading(ctx, page, p)

	if blocked, reason := detectCaptcha(page); blocked {
		log.Info().Str("engine", eng.name).Str("reason", reason).Msg("challenge page detected")
		c.screenshot(page, eng.name+"-captcha")
		return nil, nil
	}
	if looksEmptySERP(page, eng.resultSelectors) {
		c.screenshot(page, eng.name+"-empty")
		return nil, nil
	}

	links := c.collectResults(page, eng)
	return links, nil
}

func (c *Client) collectResults(page *rod.Page, eng engine) []string {
	var raw []string
	for _, sel := range eng.resultSelectors {
		elems, err := page.Elements(sel)
		if err != nil {
			continue
		}
		for _, el := range elems {
			href, err := el.Attribute("href")
			if err != nil || href == nil {
				continue
			}
			raw = append(raw, *href)
		}
		if len(raw) > 0 {
			break
		}
	}

	var out []string
	for _, href := range raw {
		u, ok := normalizeResultURL(href)
		if !ok {
			continue
		}
		out = append(out, u)
	}
	return lo.Uniq(out)
}

// normalizeResultURL unwraps engine redirects, strips tracking params, and
// rejects engine-owned and low-value hosts.
func normalizeResultURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	// Google /url?q= and Bing ck/a redirect wrappers.
	if strings.Contains(u.Host, "google.") && (u.Path == "/url" || strings.HasPrefix(u.Path, "/url")) {
		if target := u.Query().Get("q"); target != "" {
			return normalizeResultURL(target)
		}
		if target := u.Query().Get("url"); target != "" {
			return normalizeResultURL(target)
		}
		return "", false
	}
	if strings.Contains(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return normalizeResultURL(target)
		}
		return "", false
	}
	if strings.HasSuffix(u.Host, "r.search.yahoo.com") {
		// Yahoo encodes the target as /RU=<escaped>/ path segment.
		if i := strings.Index(u.Path, "/RU="); i >= 0 {
			rest := u.Path[i+4:]
			if j := strings.Index(rest, "/R"); j >= 0 {
				rest = rest[:j]
			}
			if target, err := url.QueryUnescape(rest); err == nil {
				return normalizeResultURL(target)
			}
		}
		return "", false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, e := range []string{"google.", "bing.com", "duckduckgo.com", "yahoo.com", "ecosia.org"} {
		if strings.Contains(host, e) {
			return "", false
		}
	}
	for _, lv := range lowValueHosts {
		if host == lv || strings.HasSuffix(host, "."+lv) {
			return "", false
		}
	}
	if strings.Contains(host, "maps.google") {
		return "", false
	}

	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), true
}

// FetchRendered loads a URL in the stealth browser and returns the rendered
// HTML. It satisfies the fetch layer's Renderer interface.
func (c *Client) FetchRendered(ctx context.Context, rawURL string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.currentPage()
	if err != nil {
		return "", err
	}
	page = page.Context(ctx).Timeout(c.cfg.NavTimeout)

	if err := page.Navigate(rawURL); err != nil {
		c.resetPage()
		return "", fmt.Errorf("navigating to %s: %w", rawURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		c.resetPage()
		return "", fmt.Errorf("waiting for %s: %w", rawURL, err)
	}

	// Let deferred scripts settle and trigger lazy content.
	if !sleepOrDone(ctx, jitterDuration(1200*time.Millisecond)) {
		return "", ctx.Err()
	}
	scrollPage(ctx, page, pickPersona())

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("reading rendered html: %w", err)
	}
	return html, nil
}

// screenshot writes a debug PNG when a DebugDir is configured.
func (c *Client) screenshot(page *rod.Page, label string) {
	if c.cfg.DebugDir == "" {
		return
	}
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return
	}
	name := fmt.Sprintf("%s-%s-%04d.png", label, time.Now().Format("20060102-150405"), rand.Intn(10000))
	path := filepath.Join(c.cfg.DebugDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("writing debug screenshot")
	}
}
