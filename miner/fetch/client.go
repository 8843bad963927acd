package fetch

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/miner/ratelimit"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 2 * 1024 * 1024

// captchaMarkers are body substrings that mean the page is a challenge
// interstitial rather than content.
var captchaMarkers = []string{
	"unusual traffic from your computer",
	"are you a robot",
	"g-recaptcha",
	"h-captcha",
	"cf-challenge",
	"attention required! | cloudflare",
	"please enable javascript and cookies",
	"verify you are human",
}

// Renderer is the browser fallback: a rendered fetch through the search
// client's browser, used when plain HTTP keeps getting challenged.
type Renderer interface {
	FetchRendered(ctx context.Context, rawURL string) (string, error)
}

// Config holds fetch policy knobs.
type Config struct {
	MaxRetries    int
	Timeout       time.Duration
	HeadPreflight bool
	Country       string
}

// DefaultConfig returns the standard fetch policy.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Timeout:    20 * time.Second,
	}
}

// Client performs policy-driven GETs: pacing, rotating proxies, realistic
// headers, retry with back-off, and browser escalation. The client owns its
// HTTP session exclusively; cookies persist within it until a re-identify.
type Client struct {
	cfg      Config
	limiter  *ratelimit.Limiter
	proxies  *ProxySelector
	renderer Renderer

	mu           sync.Mutex
	blocked      map[string]struct{}
	captchaSeen  map[string]struct{}
	userAgent    string
	jar          http.CookieJar
	failures403  map[string]int
}

// NewClient builds a fetch client. proxies may be nil (direct connections)
// and renderer may be nil (no browser escalation).
func NewClient(cfg Config, limiter *ratelimit.Limiter, proxies *ProxySelector, renderer Renderer) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		cfg:         cfg,
		limiter:     limiter,
		proxies:     proxies,
		renderer:    renderer,
		blocked:     make(map[string]struct{}),
		captchaSeen: make(map[string]struct{}),
		userAgent:   RandomUserAgent(),
		jar:         jar,
		failures403: make(map[string]int),
	}
}

// MarkBlocked adds a base domain to the process-local blocked set.
func (c *Client) MarkBlocked(domain string) {
	domain = ratelimit.BaseDomain(domain)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked[domain] = struct{}{}
}

// IsBlocked reports whether a base domain is in the blocked set.
func (c *Client) IsBlocked(domain string) bool {
	domain = ratelimit.BaseDomain(domain)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.blocked[domain]
	return ok
}

// markCaptcha records that the domain served a CAPTCHA; subsequent fetches
// for it go straight to the rendered path.
func (c *Client) markCaptcha(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captchaSeen[domain] = struct{}{}
}

func (c *Client) sawCaptcha(domain string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.captchaSeen[domain]
	return ok
}

// reidentify swaps the user agent and clears the cookie jar so the next
// attempt does not look like the one that was refused.
func (c *Client) reidentify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userAgent = RandomUserAgent()
	c.jar, _ = cookiejar.New(nil)
}

func (c *Client) currentUA() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userAgent
}

// Get fetches one URL with the full policy and returns a discriminated
// result. It never returns an error for per-URL failures; those map to Skip.
func (c *Client) Get(ctx context.Context, rawURL string) Result {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return skip("unparseable url")
	}
	domain := ratelimit.BaseDomain(u.Host)

	if c.IsBlocked(domain) {
		return blocked("domain in blocked set")
	}

	// A domain that already served a CAPTCHA goes straight to the browser.
	if c.sawCaptcha(domain) && c.renderer != nil {
		return c.rendered(ctx, rawURL, domain)
	}

	if err := c.limiter.AdaptiveDelay(ctx, domain, 0.5); err != nil {
		return skip("cancelled during delay")
	}

	if c.cfg.HeadPreflight {
		if isPDF, err := c.preflight(ctx, rawURL); err == nil && isPDF {
			return skip("pdf content")
		}
	}

	var lastReason string
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return skip("cancelled")
		}

		res, retry, escalate := c.attempt(ctx, rawURL, domain, attempt)
		if !retry {
			return res
		}
		lastReason = res.Reason

		if escalate && c.renderer != nil {
			return c.rendered(ctx, rawURL, domain)
		}

		// Exponential back-off with jitter before the next attempt.
		backoff := time.Duration(float64(time.Second) * float64(int(1)<<attempt) * (0.8 + rand.Float64()*0.4))
		if err := sleepContext(ctx, backoff); err != nil {
			return skip("cancelled during backoff")
		}
	}

	c.limiter.RecordError(domain, 0)
	return skip("retries exhausted: " + lastReason)
}

// attempt performs a single GET. It returns the result, whether the caller
// should retry, and whether it should escalate to the browser instead.
func (c *Client) attempt(ctx context.Context, rawURL, domain string, attempt int) (res Result, retry bool, escalate bool) {
	proxyURL := c.pickProxy()

	transport := &http.Transport{}
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	// Timeout grows with the retry count; slow sites get more room on later
	// attempts instead of failing the same way three times.
	timeout := c.cfg.Timeout * time.Duration(attempt+1)

	c.mu.Lock()
	jar := c.jar
	c.mu.Unlock()

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return skip("bad request: " + err.Error()), false, false
	}
	req.Header = BuildHeaders(rawURL, c.currentUA(), c.cfg.Country)

	c.limiter.RecordRequest(domain)
	resp, err := client.Do(req)
	if err != nil {
		c.limiter.RecordError(domain, 0)
		c.recordProxy(proxyURL, false)
		// Connection-level failures invalidate the session cookies.
		c.reidentify()
		return skip("connection error: " + err.Error()), true, false
	}
	defer resp.Body.Close()

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	switch {
	case resp.StatusCode == http.StatusOK:
		if strings.Contains(contentType, "application/pdf") {
			c.limiter.RecordSuccess(domain)
			c.recordProxy(proxyURL, true)
			return skip("pdf content"), false, false
		}
		if !strings.Contains(contentType, "text/html") && contentType != "" {
			c.limiter.RecordSuccess(domain)
			c.recordProxy(proxyURL, true)
			return skip("non-html content: " + contentType), false, false
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			c.limiter.RecordError(domain, 0)
			c.recordProxy(proxyURL, false)
			return skip("body read error"), true, false
		}

		if marker := findCaptchaMarker(string(body)); marker != "" {
			c.markCaptcha(domain)
			c.limiter.RecordError(domain, 0)
			c.recordProxy(proxyURL, true)
			return captcha("marker: " + marker), false, false
		}

		c.limiter.RecordSuccess(domain)
		c.recordProxy(proxyURL, true)
		final := rawURL
		if resp.Request != nil && resp.Request.URL != nil {
			final = resp.Request.URL.String()
		}
		return htmlResult(string(body), final), false, false

	case resp.StatusCode == http.StatusForbidden:
		c.limiter.RecordError(domain, resp.StatusCode)
		c.recordProxy(proxyURL, false)
		c.reidentify()

		c.mu.Lock()
		c.failures403[domain]++
		n := c.failures403[domain]
		c.mu.Unlock()

		log.Debug().Str("domain", domain).Int("count", n).Msg("403 received, re-identifying")
		return skip("403 forbidden"), true, n >= 2

	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.RecordError(domain, resp.StatusCode)
		c.recordProxy(proxyURL, false)
		return skip("429 rate limited"), true, attempt >= 1

	case resp.StatusCode == http.StatusNotFound:
		c.limiter.RecordError(domain, resp.StatusCode)
		c.recordProxy(proxyURL, true)
		return skip("404 not found"), false, false

	case resp.StatusCode >= 500:
		c.limiter.RecordError(domain, resp.StatusCode)
		c.recordProxy(proxyURL, false)
		return skip(resp.Status), true, false

	default:
		c.limiter.RecordError(domain, resp.StatusCode)
		c.recordProxy(proxyURL, false)
		return skip("unexpected status: " + resp.Status), false, false
	}
}

// rendered fetches the page through the browser fallback.
func (c *Client) rendered(ctx context.Context, rawURL, domain string) Result {
	body, err := c.renderer.FetchRendered(ctx, rawURL)
	if err != nil {
		c.limiter.RecordError(domain, 0)
		return skip("rendered fetch failed: " + err.Error())
	}
	if marker := findCaptchaMarker(body); marker != "" {
		c.MarkBlocked(domain)
		return captcha("marker after render: " + marker)
	}
	c.limiter.RecordSuccess(domain)
	return htmlResult(body, rawURL)
}

// preflight issues a HEAD request and reports whether the target is a PDF.
func (c *Client) preflight(ctx context.Context, rawURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.currentUA())

	client := &http.Client{Timeout: c.cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/pdf"), nil
}

func (c *Client) recordProxy(proxyURL *url.URL, ok bool) {
	if c.proxies == nil || proxyURL == nil {
		return
	}
	c.proxies.Record(proxyURL, ok)
}

func (c *Client) pickProxy() *url.URL {
	if c.proxies == nil {
		return nil
	}
	return c.proxies.Pick().OrEmpty()
}

func findCaptchaMarker(body string) string {
	lower := strings.ToLower(body)
	for _, m := range captchaMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
