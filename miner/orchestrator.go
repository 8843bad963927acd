// Package miner drives contact harvesting jobs end to end: query rewriting,
// search, fetching, extraction, validation, and result assembly.
package miner

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/logger"
	"github.com/LexiconIndonesia/data-miner-service/common/models"
	"github.com/LexiconIndonesia/data-miner-service/miner/extract"
	"github.com/LexiconIndonesia/data-miner-service/miner/fetch"
	"github.com/LexiconIndonesia/data-miner-service/miner/ratelimit"
	"github.com/LexiconIndonesia/data-miner-service/miner/validate"
	"github.com/samber/lo"
)

// Searcher yields result URLs for one SERP page.
type Searcher interface {
	Search(ctx context.Context, query, country string, page int) ([]string, error)
}

// APISearcher is the key-pool backed search source. When configured it is
// asked before the browser; the browser covers deeper pages and any run where
// the API comes up empty or exhausted.
type APISearcher interface {
	Search(ctx context.Context, query, country string) ([]string, error)
}

// QueryRewriter turns a raw keyword into a contact-hunting query.
type QueryRewriter interface {
	Optimize(ctx context.Context, keyword, country string) string
}

// Fetcher retrieves one page.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) fetch.Result
}

const (
	// maxSearchPages bounds how deep into the SERP a single job goes.
	maxSearchPages = 5
	// maxContactFollows bounds contact-page fetches per result site.
	maxContactFollows = 2
	// badDomainThreshold and badDomainMinRequests gate skipping a domain
	// whose fetches keep failing.
	badDomainThreshold     = 0.3
	badDomainMinRequests   = 3
	roleSynthesisMaxDomain = 10
	// previewSize caps how many contacts ride along in the status document.
	previewSize = 5
)

// roleGuesses are the mailbox names tried against a visited host when the
// organic yield stays thin.
var roleGuesses = []string{"info", "contact", "sales", "support", "hello"}

// Orchestrator runs one mining job. It is safe for sequential reuse, not for
// concurrent runs.
type Orchestrator struct {
	rewriter QueryRewriter
	search   Searcher
	api      APISearcher
	fetcher  Fetcher
	limiter  *ratelimit.Limiter
	extract  *extract.Extractor
	progress ProgressSink

	// shuffle randomises one page of result URLs before iteration. Swapped
	// out in tests for a deterministic order.
	shuffle func([]string) []string
}

func NewOrchestrator(rewriter QueryRewriter, search Searcher, api APISearcher, fetcher Fetcher, limiter *ratelimit.Limiter, progress ProgressSink) *Orchestrator {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Orchestrator{
		rewriter: rewriter,
		search:   search,
		api:      api,
		fetcher:  fetcher,
		limiter:  limiter,
		extract:  extract.New(),
		progress: progress,
		shuffle:  func(urls []string) []string { return lo.Shuffle(urls) },
	}
}

// Job is the unit of work the orchestrator executes.
type Job struct {
	ID      string
	Keyword string
	Country string
	Kind    models.DataKind
	Quota   int
}

// RunResult is what a finished harvest produced.
type RunResult struct {
	Contacts []string
	// LowConfidence lists the subset of Contacts that came from personal
	// mailbox providers. They are kept but ranked after business addresses.
	LowConfidence []string
	PagesScanned  int
	QueryUsed     string
	// Progress is the last published percent, 100 on a full finalize.
	Progress int
	Elapsed  time.Duration
}

// harvest tracks insertion-ordered unique contacts plus per-site bookkeeping.
// Low-confidence addresses are kept apart so truncation prefers business
// mailboxes over personal ones.
type harvest struct {
	seen    map[string]struct{}
	ordered []string
	lowConf []string
	low     map[string]struct{}
	// visited holds every result URL already processed so repeated SERP
	// listings are fetched once.
	visited map[string]struct{}
	// hosts and hostOrder record visited site hosts in first-visit order,
	// feeding the role-address guesses.
	hosts     map[string]struct{}
	hostOrder []string
}

func newHarvest() *harvest {
	return &harvest{
		seen:    make(map[string]struct{}),
		low:     make(map[string]struct{}),
		visited: make(map[string]struct{}),
		hosts:   make(map[string]struct{}),
	}
}

// add records a contact, preserving first-seen order.
func (h *harvest) add(value string) bool {
	if _, dup := h.seen[value]; dup {
		return false
	}
	h.seen[value] = struct{}{}
	h.ordered = append(h.ordered, value)
	return true
}

// addLow records a low-confidence contact. It still counts against the quota
// but ranks after every confident contact.
func (h *harvest) addLow(value string) bool {
	if _, dup := h.seen[value]; dup {
		return false
	}
	h.seen[value] = struct{}{}
	h.low[value] = struct{}{}
	h.lowConf = append(h.lowConf, value)
	return true
}

func (h *harvest) count() int { return len(h.ordered) + len(h.lowConf) }

// markVisited reports whether the URL is new to this run.
func (h *harvest) markVisited(rawURL string) bool {
	if _, dup := h.visited[rawURL]; dup {
		return false
	}
	h.visited[rawURL] = struct{}{}
	return true
}

func (h *harvest) visitHost(host string) {
	if host == "" {
		return
	}
	if _, known := h.hosts[host]; known {
		return
	}
	h.hosts[host] = struct{}{}
	h.hostOrder = append(h.hostOrder, host)
}

// Run executes the job until the quota is met, the SERP is exhausted, or ctx
// ends. Cancellation is honored between every fetch so a stop request takes
// effect within one progress tick.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*RunResult, error) {
	lg := logger.WithJob(job.ID, job.Keyword)
	start := time.Now()

	query := o.rewriter.Optimize(ctx, job.Keyword, job.Country)
	lg.Info().Str("query", query).Str("kind", string(job.Kind)).Int("quota", job.Quota).Msg("starting harvest")

	h := newHarvest()
	pagesScanned := 0
	progress := 0

	finish := func() *RunResult {
		contacts := make([]string, 0, h.count())
		contacts = append(contacts, h.ordered...)
		contacts = append(contacts, h.lowConf...)
		if len(contacts) > job.Quota {
			contacts = contacts[:job.Quota]
		}
		var low []string
		for _, c := range contacts {
			if _, isLow := h.low[c]; isLow {
				low = append(low, c)
			}
		}
		return &RunResult{
			Contacts:      contacts,
			LowConfidence: low,
			PagesScanned:  pagesScanned,
			QueryUsed:     query,
			Progress:      progress,
			Elapsed:       time.Since(start),
		}
	}

	publish := func(pct int) {
		if pct < progress {
			pct = progress
		}
		if pct > 100 {
			pct = 100
		}
		progress = pct
		preview := h.ordered
		if len(preview) > previewSize {
			preview = preview[:previewSize]
		}
		o.progress.Publish(ctx, &models.StatusDoc{
			JobID:         job.ID,
			Status:        models.JobStatusProcessing,
			Keyword:       job.Keyword,
			DataKind:      job.Kind,
			Country:       job.Country,
			Quota:         job.Quota,
			Progress:      progress,
			PagesScanned:  pagesScanned,
			ContactsFound: h.count(),
			ElapsedTime:   time.Since(start).Seconds(),
			Preview:       preview,
		})
	}
	publish(10)

	for page := 0; page < maxSearchPages && h.count() < job.Quota; page++ {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		urls, err := o.searchPage(ctx, query, job.Country, page)
		if err != nil {
			return finish(), err
		}
		if len(urls) == 0 {
			lg.Info().Int("page", page).Msg("search exhausted")
			break
		}

		for _, resultURL := range o.orderURLs(urls) {
			if err := ctx.Err(); err != nil {
				return finish(), err
			}
			if h.count() >= job.Quota {
				break
			}
			if !h.markVisited(resultURL) {
				continue
			}
			if o.isBadDomain(resultURL) {
				lg.Debug().Str("url", resultURL).Msg("skipping repeatedly failing domain")
				continue
			}

			scanned := o.harvestSite(ctx, job, resultURL, h)
			pagesScanned += scanned
			publish(harvestPercent(h.count(), job.Quota))
		}
	}

	if job.Kind == models.DataKindEmail {
		o.synthesizeRoleAddresses(job, h)
	}

	publish(100)
	res := finish()
	lg.Info().Int("contacts", len(res.Contacts)).Int("pages", res.PagesScanned).Msg("harvest finished")
	return res, nil
}

// harvestPercent scales the harvest fraction onto the 10-95 band. The final
// finalize publish owns 100.
func harvestPercent(count, quota int) int {
	if quota <= 0 {
		return 95
	}
	pct := 10 + (85*count)/quota
	if pct > 95 {
		pct = 95
	}
	return pct
}

// searchPage asks the API source first when one is configured. The browser
// serves deeper pages, and any page where the API errors or comes up empty.
func (o *Orchestrator) searchPage(ctx context.Context, query, country string, page int) ([]string, error) {
	var apiErr error
	if o.api != nil && page == 0 {
		urls, err := o.api.Search(ctx, query, country)
		if err == nil && len(urls) > 0 {
			return urls, nil
		}
		apiErr = err
	}
	urls, err := o.search.Search(ctx, query, country, page)
	if err != nil && apiErr != nil {
		return nil, apiErr
	}
	return urls, err
}

// orderURLs shuffles one page of results, then floats URLs whose domains are
// least backed off to the front so a throttled domain never stalls the run.
func (o *Orchestrator) orderURLs(urls []string) []string {
	urls = o.shuffle(urls)
	if o.limiter == nil || len(urls) < 2 {
		return urls
	}
	domains := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		d := ratelimit.BaseDomain(u)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	rank := make(map[string]int, len(domains))
	for i, d := range o.limiter.LeastThrottled(domains) {
		rank[d] = i
	}
	sort.SliceStable(urls, func(i, j int) bool {
		return rank[ratelimit.BaseDomain(urls[i])] < rank[ratelimit.BaseDomain(urls[j])]
	})
	return urls
}

func (o *Orchestrator) isBadDomain(rawURL string) bool {
	if o.limiter == nil {
		return false
	}
	domain := ratelimit.BaseDomain(rawURL)
	if domain == "" {
		return false
	}
	rate, requests := o.limiter.SuccessRate(domain)
	return requests >= badDomainMinRequests && rate < badDomainThreshold
}

// harvestSite fetches one search result and, when the landing page comes up
// dry, a couple of its contact pages. Returns how many pages were fetched.
func (o *Orchestrator) harvestSite(ctx context.Context, job Job, rawURL string, h *harvest) int {
	fetched := 0

	res := o.fetcher.Get(ctx, rawURL)
	fetched++

	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}
	h.visitHost(siteHost(finalURL))

	if res.Kind != fetch.ResultHTML {
		return fetched
	}

	before := h.count()
	o.collect(job, res.Body, res.FinalURL, h)

	// Contact pages are only worth the extra fetches when the landing page
	// yielded nothing.
	if h.count() == before && h.count() < job.Quota {
		links := extract.ContactLinks(res.Body, res.FinalURL, maxContactFollows)
		for _, link := range links {
			if ctx.Err() != nil || h.count() >= job.Quota {
				break
			}
			if !h.markVisited(link) {
				continue
			}
			sub := o.fetcher.Get(ctx, link)
			fetched++
			if sub.Kind == fetch.ResultHTML {
				o.collect(job, sub.Body, sub.FinalURL, h)
			}
		}
	}

	return fetched
}

// collect extracts and validates candidates from one page into the harvest.
func (o *Orchestrator) collect(job Job, html, sourceURL string, h *harvest) {
	switch job.Kind {
	case models.DataKindEmail:
		for _, cand := range o.extract.Extract(html, sourceURL, extract.KindEmail) {
			email := validate.NormalizeEmail(cand.Value)
			if !validate.ValidateEmail(email) {
				continue
			}
			if validate.IsLowConfidenceEmail(email) {
				h.addLow(email)
				continue
			}
			h.add(email)
		}
	case models.DataKindPhone:
		for _, cand := range o.extract.Extract(html, sourceURL, extract.KindPhone) {
			num, ok := validate.ValidatePhone(cand.Value, job.Country)
			if !ok {
				continue
			}
			h.add(num.Canonical)
		}
	}
}

// synthesizeRoleAddresses pads a thin email harvest with generic mailbox
// guesses for the hosts the run visited. Only kicks in when the organic yield
// is below half the quota; at most ten hosts are guessed against, in the
// order they were visited.
func (o *Orchestrator) synthesizeRoleAddresses(job Job, h *harvest) {
	if h.count() >= (job.Quota+1)/2 {
		return
	}
	hosts := h.hostOrder
	if len(hosts) > roleSynthesisMaxDomain {
		hosts = hosts[:roleSynthesisMaxDomain]
	}
	for _, host := range hosts {
		if !plausibleMailDomain(host) {
			continue
		}
		for _, role := range roleGuesses {
			if h.count() >= job.Quota {
				return
			}
			guess := role + "@" + host
			if !validate.ValidateEmail(guess) {
				continue
			}
			h.add(guess)
		}
	}
}

// siteHost is the lowercased host of a visited page, with a www prefix
// stripped so the guessable mail domain remains.
func siteHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func plausibleMailDomain(domain string) bool {
	if domain == "" || strings.Count(domain, ".") == 0 {
		return false
	}
	// Search engine collapse targets and IPs make no sense as mail hosts.
	for _, bad := range []string{"google.com", "bing.com", "duckduckgo.com", "yahoo.com", "ecosia.com"} {
		if domain == bad || strings.HasSuffix(domain, "."+bad) {
			return false
		}
	}
	return validate.ValidateEmail("info@" + domain)
}
