package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

// Config holds the pacing knobs. Zero values are replaced by defaults.
type Config struct {
	MinDelay             time.Duration
	MaxDelay             time.Duration
	WindowSize           time.Duration
	MaxRequestsPerWindow int
	ErrorThreshold       int
	SuccessRateThreshold float64
	BaseDelay            time.Duration
	DelayMultiplier      float64
	MaxDelayMultiplier   float64
	MaxBackoff           time.Duration
}

// DefaultConfig returns the standard pacing profile.
func DefaultConfig() Config {
	return Config{
		MinDelay:             1 * time.Second,
		MaxDelay:             30 * time.Second,
		WindowSize:           60 * time.Second,
		MaxRequestsPerWindow: 10,
		ErrorThreshold:       3,
		SuccessRateThreshold: 0.7,
		BaseDelay:            2 * time.Second,
		DelayMultiplier:      1.5,
		MaxDelayMultiplier:   5.0,
		MaxBackoff:           10 * time.Minute,
	}
}

// domainStats is the per-base-domain request history. Process-local only; no
// cross-process agreement on reputation is assumed.
type domainStats struct {
	recentRequests    []time.Time
	successCount      int
	failureCount      int
	consecutiveErrors int
	rateLimitedUntil  time.Time
}

func (s *domainStats) successRate() float64 {
	total := s.successCount + s.failureCount
	if total == 0 {
		return 1.0
	}
	return float64(s.successCount) / float64(total)
}

// Limiter paces requests per base domain. All jobs in the process share one
// instance; a single mutex guards the stats map.
type Limiter struct {
	cfg   Config
	mu    sync.Mutex
	stats map[string]*domainStats
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter with the given config, applying defaults for zero
// fields.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = def.MinDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MaxRequestsPerWindow <= 0 {
		cfg.MaxRequestsPerWindow = def.MaxRequestsPerWindow
	}
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = def.ErrorThreshold
	}
	if cfg.SuccessRateThreshold <= 0 {
		cfg.SuccessRateThreshold = def.SuccessRateThreshold
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.DelayMultiplier <= 0 {
		cfg.DelayMultiplier = def.DelayMultiplier
	}
	if cfg.MaxDelayMultiplier <= 0 {
		cfg.MaxDelayMultiplier = def.MaxDelayMultiplier
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	return &Limiter{
		cfg:   cfg,
		stats: make(map[string]*domainStats),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// BaseDomain reduces a URL or hostname to its registrable domain (eTLD+1).
// Search engines are collapsed to one canonical key regardless of ccTLD so
// google.co.in and google.com share a budget.
func BaseDomain(rawURL string) string {
	host := rawURL
	if strings.Contains(rawURL, "/") || strings.Contains(rawURL, ":") {
		if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
			host = u.Host
		}
	}
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")

	for _, engine := range []string{"google", "bing", "duckduckgo", "yahoo", "ecosia"} {
		if host == engine || strings.HasPrefix(host, engine+".") ||
			strings.Contains(host, "."+engine+".") {
			return engine + ".com"
		}
	}

	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld
	}
	return host
}

func (l *Limiter) get(domain string) *domainStats {
	s, ok := l.stats[domain]
	if !ok {
		s = &domainStats{}
		l.stats[domain] = s
	}
	return s
}

// pruneWindow drops request timestamps older than the window.
func (l *Limiter) pruneWindow(s *domainStats, now time.Time) {
	cutoff := now.Add(-l.cfg.WindowSize)
	i := 0
	for ; i < len(s.recentRequests); i++ {
		if s.recentRequests[i].After(cutoff) {
			break
		}
	}
	s.recentRequests = s.recentRequests[i:]
}

// ShouldDelay reports whether the next request to the domain must wait, and
// for how long.
func (l *Limiter) ShouldDelay(domain string) (bool, time.Duration) {
	domain = BaseDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	s := l.get(domain)
	l.pruneWindow(s, now)

	// Active 429 marker wins over everything else.
	if s.rateLimitedUntil.After(now) {
		return true, s.rateLimitedUntil.Sub(now)
	}

	if n := len(s.recentRequests); n > 0 {
		if since := now.Sub(s.recentRequests[n-1]); since < l.cfg.MinDelay {
			return true, l.cfg.MinDelay - since
		}
	}

	if len(s.recentRequests) >= l.cfg.MaxRequestsPerWindow {
		// Wait until the oldest request in the window ages out.
		oldest := s.recentRequests[0]
		return true, oldest.Add(l.cfg.WindowSize).Sub(now)
	}

	return false, 0
}

// AdaptiveDelay blocks cooperatively for a delay scaled by domain health and
// importance. Importance is clamped to [0.1, 1.0]; low-importance requests
// wait longer.
func (l *Limiter) AdaptiveDelay(ctx context.Context, domain string, importance float64) error {
	domain = BaseDomain(domain)
	importance = math.Min(1.0, math.Max(0.1, importance))

	l.mu.Lock()
	now := l.now()
	s := l.get(domain)
	l.pruneWindow(s, now)

	multiplier := 1.0
	if s.consecutiveErrors > l.cfg.ErrorThreshold {
		over := s.consecutiveErrors - l.cfg.ErrorThreshold
		multiplier = math.Min(l.cfg.MaxDelayMultiplier, math.Pow(l.cfg.DelayMultiplier, float64(over)))
	}
	if rate := s.successRate(); rate < l.cfg.SuccessRateThreshold {
		multiplier = math.Min(l.cfg.MaxDelayMultiplier, multiplier*(1.0+(l.cfg.SuccessRateThreshold-rate)))
	}
	l.mu.Unlock()

	delay := time.Duration(float64(l.cfg.BaseDelay) * multiplier / importance)
	if delay > l.cfg.MaxDelay {
		delay = l.cfg.MaxDelay
	}
	// +-20% jitter so paced requests never line up.
	jitter := 0.8 + rand.Float64()*0.4
	delay = time.Duration(float64(delay) * jitter)

	if delayed, wait := l.ShouldDelay(domain); delayed && wait > delay {
		delay = wait
	}

	log.Debug().Str("domain", domain).Dur("delay", delay).Msg("Adaptive delay")
	return l.sleep(ctx, delay)
}

// RecordRequest notes that a request was just issued to the domain.
func (l *Limiter) RecordRequest(domain string) {
	domain = BaseDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.get(domain)
	now := l.now()
	l.pruneWindow(s, now)
	s.recentRequests = append(s.recentRequests, now)
}

// RecordSuccess resets the error streak and bumps the success counter.
func (l *Limiter) RecordSuccess(domain string) {
	domain = BaseDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.get(domain)
	s.successCount++
	s.consecutiveErrors = 0
}

// RecordError bumps the failure counters and, on a 429, installs a back-off
// marker of min(60s * 2^errors, MaxBackoff).
func (l *Limiter) RecordError(domain string, statusCode int) {
	domain = BaseDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.get(domain)
	s.failureCount++
	s.consecutiveErrors++

	if statusCode == 429 {
		backoff := time.Duration(float64(60*time.Second) * math.Pow(2, float64(s.consecutiveErrors-1)))
		if backoff > l.cfg.MaxBackoff {
			backoff = l.cfg.MaxBackoff
		}
		s.rateLimitedUntil = l.now().Add(backoff)
		log.Warn().Str("domain", domain).Dur("backoff", backoff).Msg("Rate limit marker installed")
	}
}

// SuccessRate exposes the observed success rate for a domain. Used by the
// orchestrator to drop domains that keep failing.
func (l *Limiter) SuccessRate(domain string) (float64, int) {
	domain = BaseDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.get(domain)
	return s.successRate(), s.successCount + s.failureCount
}

// LeastThrottled orders candidate domains by how soon they can be requested.
// When many domains are backed off at once, the orchestrator prefers the
// front of this list.
func (l *Limiter) LeastThrottled(domains []string) []string {
	type entry struct {
		domain string
		wait   time.Duration
	}
	entries := make([]entry, 0, len(domains))
	for _, d := range domains {
		_, wait := l.ShouldDelay(d)
		entries = append(entries, entry{domain: d, wait: wait})
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].wait < entries[j-1].wait; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.domain
	}
	return out
}
