package miner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/LexiconIndonesia/data-miner-service/common/models"
	"github.com/LexiconIndonesia/data-miner-service/miner/fetch"
	"github.com/LexiconIndonesia/data-miner-service/miner/ratelimit"
)

type staticRewriter struct{}

func (staticRewriter) Optimize(_ context.Context, keyword, _ string) string {
	return `"` + keyword + `" contact`
}

// fakeSearch serves canned result URLs per page index.
type fakeSearch struct {
	pages [][]string
	err   error
	calls int
}

func (s *fakeSearch) Search(_ context.Context, _, _ string, page int) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if page >= len(s.pages) {
		return nil, nil
	}
	return s.pages[page], nil
}

type fakeAPI struct {
	urls  []string
	err   error
	calls int
}

func (f *fakeAPI) Search(context.Context, string, string) ([]string, error) {
	f.calls++
	return f.urls, f.err
}

// fakeFetcher serves canned bodies by URL. Unknown URLs are skipped.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	gets  []string
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string) fetch.Result {
	f.mu.Lock()
	f.gets = append(f.gets, rawURL)
	f.mu.Unlock()
	body, ok := f.pages[rawURL]
	if !ok {
		return fetch.Result{Kind: fetch.ResultSkip, Reason: "not served"}
	}
	return fetch.Result{Kind: fetch.ResultHTML, Body: body, FinalURL: rawURL}
}

func (f *fakeFetcher) fetchCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.gets {
		if u == rawURL {
			n++
		}
	}
	return n
}

// newTestOrchestrator pins the URL order so assertions on fetch order hold.
func newTestOrchestrator(search Searcher, api APISearcher, fetcher Fetcher) *Orchestrator {
	o := NewOrchestrator(staticRewriter{}, search, api, fetcher, nil, NopProgress{})
	o.shuffle = func(urls []string) []string { return urls }
	return o
}

func emailJob(quota int) Job {
	return Job{ID: "job-1", Keyword: "steel fabricators pune", Country: "in", Kind: models.DataKindEmail, Quota: quota}
}

func TestRunHarvestsUpToQuota(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/", "https://beta.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>a1@alpha.in b2@alpha.in</p>`,
		"https://beta.in/":  `<p>c3@beta.in d4@beta.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(3))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a1@alpha.in", "b2@alpha.in", "c3@beta.in"}
	if len(res.Contacts) != len(want) {
		t.Fatalf("contacts = %v, want %v", res.Contacts, want)
	}
	for i := range want {
		if res.Contacts[i] != want[i] {
			t.Errorf("contacts[%d] = %q, want %q", i, res.Contacts[i], want[i])
		}
	}
	if res.QueryUsed != `"steel fabricators pune" contact` {
		t.Errorf("query = %q", res.QueryUsed)
	}
	if res.PagesScanned == 0 {
		t.Error("pages scanned not counted")
	}
}

func TestRunDeduplicatesAcrossSites(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/", "https://beta.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>info@shared.in</p>`,
		"https://beta.in/":  `<p>Info@Shared.in and extra@beta.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(10))
	if err != nil {
		t.Fatal(err)
	}

	count := 0
	for _, c := range res.Contacts {
		if c == "info@shared.in" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate survived dedup: %v", res.Contacts)
	}
	if res.Contacts[0] != "info@shared.in" {
		t.Errorf("first-seen order lost: %v", res.Contacts)
	}
}

func TestRunFetchesRepeatedResultURLOnce(t *testing.T) {
	// The same URL listed on three SERP pages must only be fetched once.
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
		{"https://alpha.in/", "https://beta.in/"},
		{"https://alpha.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>one@alpha.in</p>`,
		"https://beta.in/":  `<p>two@beta.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(4))
	if err != nil {
		t.Fatal(err)
	}
	if got := fetcher.fetchCount("https://alpha.in/"); got != 1 {
		t.Errorf("repeated result URL fetched %d times, want 1", got)
	}
	if len(res.Contacts) != 2 {
		t.Errorf("contacts = %v", res.Contacts)
	}
}

func TestRunShufflesResultPage(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/", "https://beta.in/", "https://gamma.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>one@alpha.in</p>`,
		"https://beta.in/":  `<p>two@beta.in</p>`,
		"https://gamma.in/": `<p>three@gamma.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	o.shuffle = func(urls []string) []string {
		out := make([]string, len(urls))
		for i, u := range urls {
			out[len(urls)-1-i] = u
		}
		return out
	}
	if _, err := o.Run(context.Background(), emailJob(10)); err != nil {
		t.Fatal(err)
	}
	if len(fetcher.gets) < 3 || fetcher.gets[0] != "https://gamma.in/" {
		t.Errorf("shuffled order not honored, fetches = %v", fetcher.gets)
	}
}

func TestRunPrefersLeastThrottledDomains(t *testing.T) {
	limiter := ratelimit.New(ratelimit.DefaultConfig())
	// busy.in just made a request, so its min-delay gap is still open.
	limiter.RecordRequest("https://busy.in/")

	search := &fakeSearch{pages: [][]string{
		{"https://busy.in/", "https://idle.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://busy.in/": `<p>late@busy.in</p>`,
		"https://idle.in/": `<p>first@idle.in</p>`,
	}}

	o := NewOrchestrator(staticRewriter{}, search, nil, fetcher, limiter, NopProgress{})
	o.shuffle = func(urls []string) []string { return urls }
	res, err := o.Run(context.Background(), emailJob(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(fetcher.gets) == 0 || fetcher.gets[0] != "https://idle.in/" {
		t.Errorf("throttled domain fetched first, fetches = %v", fetcher.gets)
	}
	if len(res.Contacts) != 2 {
		t.Errorf("contacts = %v", res.Contacts)
	}
}

func TestRunStopsFetchingOnceQuotaMet(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/", "https://beta.in/", "https://gamma.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>one@alpha.in two@alpha.in</p>`,
		"https://beta.in/":  `<p>never@beta.in</p>`,
		"https://gamma.in/": `<p>never@gamma.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Contacts) != 2 {
		t.Fatalf("contacts = %v", res.Contacts)
	}
	if fetcher.fetchCount("https://gamma.in/") != 0 {
		t.Error("kept fetching after the quota was met")
	}
}

func TestRunFollowsContactPagesWhenLandingIsDry(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://acme.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.in/":           `<p>Welcome.</p><a href="/contact-us">Contact Us</a>`,
		"https://acme.in/contact-us": `<p>Write to hidden@acme.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(5))
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, c := range res.Contacts {
		if c == "hidden@acme.in" {
			found = true
		}
	}
	if !found {
		t.Errorf("contact page address missed: %v", res.Contacts)
	}
	if fetcher.fetchCount("https://acme.in/contact-us") != 1 {
		t.Error("contact page not followed exactly once")
	}
}

func TestRunSkipsContactFollowWhenLandingYields(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://acme.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.in/":           `<p>mail front@acme.in</p><a href="/contact-us">Contact Us</a>`,
		"https://acme.in/contact-us": `<p>more@acme.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(2))
	if err != nil {
		t.Fatal(err)
	}
	if fetcher.fetchCount("https://acme.in/contact-us") != 0 {
		t.Error("contact page followed although the landing page yielded")
	}
	if len(res.Contacts) != 1 || res.Contacts[0] != "front@acme.in" {
		t.Errorf("contacts = %v", res.Contacts)
	}
}

func TestRunWalksDeeperPagesUntilQuota(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
		{"https://beta.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>one@alpha.in</p>`,
		"https://beta.in/":  `<p>two@beta.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Contacts) != 2 {
		t.Fatalf("contacts = %v, want both pages harvested", res.Contacts)
	}
	if search.calls < 2 {
		t.Errorf("search called %d times, want at least 2", search.calls)
	}
}

func TestRunStopsWhenSearchExhausted(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>only@alpha.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(50))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Contacts) == 0 {
		t.Fatal("no contacts harvested")
	}
	// Page 1 came back empty, so pages 2..4 must not have been requested.
	if search.calls > 2 {
		t.Errorf("search called %d times after exhaustion", search.calls)
	}
}

func TestRunAPIPreferredOverBrowser(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://browser.in/"},
	}}
	api := &fakeAPI{urls: []string{"https://api.in/"}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://api.in/":     `<p>first@api.in</p>`,
		"https://browser.in/": `<p>never@browser.in</p>`,
	}}

	o := newTestOrchestrator(search, api, fetcher)
	res, err := o.Run(context.Background(), emailJob(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Contacts) != 1 || res.Contacts[0] != "first@api.in" {
		t.Fatalf("contacts = %v", res.Contacts)
	}
	if search.calls != 0 {
		t.Errorf("browser searched %d times although the API served page 1", search.calls)
	}
	if api.calls != 1 {
		t.Errorf("api called %d times, want exactly 1", api.calls)
	}
}

func TestRunBrowserServesWhenAPIEmpty(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
	}}
	api := &fakeAPI{}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>rescue@alpha.in</p>`,
	}}

	o := newTestOrchestrator(search, api, fetcher)
	res, err := o.Run(context.Background(), emailJob(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Contacts) != 1 || res.Contacts[0] != "rescue@alpha.in" {
		t.Fatalf("contacts = %v", res.Contacts)
	}
	if api.calls != 1 {
		t.Errorf("api called %d times, want exactly 1", api.calls)
	}
}

func TestRunBrowserServesWhenAPIFails(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
	}}
	api := &fakeAPI{err: errors.New("all keys exhausted")}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>rescue@alpha.in</p>`,
	}}

	o := newTestOrchestrator(search, api, fetcher)
	res, err := o.Run(context.Background(), emailJob(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Contacts) != 1 {
		t.Fatalf("contacts = %v", res.Contacts)
	}
}

func TestRunErrorWhenBothSourcesFail(t *testing.T) {
	search := &fakeSearch{err: errors.New("browser crashed")}
	api := &fakeAPI{err: errors.New("no keys")}

	o := newTestOrchestrator(search, api, &fakeFetcher{})
	_, err := o.Run(context.Background(), emailJob(1))
	if err == nil {
		t.Fatal("expected error when both search sources fail")
	}
}

func TestRunCancellation(t *testing.T) {
	urls := make([]string, 0, 20)
	pages := make(map[string]string, 20)
	for _, host := range []string{"a", "b", "c", "d", "e"} {
		u := "https://" + host + ".example.in/"
		urls = append(urls, u)
		pages[u] = `<p>mail@` + host + `.example.in</p>`
	}
	search := &fakeSearch{pages: [][]string{urls}}

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &cancellingFetcher{inner: &fakeFetcher{pages: pages}, cancel: cancel, after: 2}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(ctx, emailJob(50))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// Partial results survive cancellation.
	if res == nil || len(res.Contacts) == 0 {
		t.Error("expected a partial harvest alongside the cancellation error")
	}
	if len(fetcher.inner.gets) >= len(urls) {
		t.Error("cancellation did not stop the fetch loop")
	}
}

// cancellingFetcher cancels the run context after a fixed number of fetches.
type cancellingFetcher struct {
	inner  *fakeFetcher
	cancel context.CancelFunc
	after  int
	n      int
}

func (c *cancellingFetcher) Get(ctx context.Context, rawURL string) fetch.Result {
	c.n++
	if c.n >= c.after {
		c.cancel()
	}
	return c.inner.Get(ctx, rawURL)
}

func TestRunRoleSynthesis(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/", "https://beta.in/"},
	}}
	// Both sites come up dry, so the harvest stays far below half the quota.
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>No contact details here.</p>`,
		"https://beta.in/":  `<p>Nothing here either.</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(10))
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]bool{}
	for _, c := range res.Contacts {
		got[c] = true
	}
	for _, want := range []string{
		"info@alpha.in", "contact@alpha.in", "sales@alpha.in", "support@alpha.in", "hello@alpha.in",
		"info@beta.in",
	} {
		if !got[want] {
			t.Errorf("role synthesis missing %q, contacts = %v", want, res.Contacts)
		}
	}
}

func TestRunRoleSynthesisUsesVisitedHost(t *testing.T) {
	// The guesses must target the visited host, not its registrable parent.
	search := &fakeSearch{pages: [][]string{
		{"https://www.acme.example.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.acme.example.in/": `<p>ceo@acme.example.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(12))
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]bool{}
	for _, c := range res.Contacts {
		got[c] = true
	}
	for _, role := range []string{"info", "contact", "sales", "support", "hello"} {
		if !got[role+"@acme.example.in"] {
			t.Errorf("missing %s@acme.example.in, contacts = %v", role, res.Contacts)
		}
	}
	if got["info@example.in"] {
		t.Errorf("guess collapsed to the registrable domain: %v", res.Contacts)
	}
}

func TestRunRoleSynthesisCapsGuessedHosts(t *testing.T) {
	hosts := []string{
		"h01.in", "h02.in", "h03.in", "h04.in", "h05.in", "h06.in",
		"h07.in", "h08.in", "h09.in", "h10.in", "h11.in", "h12.in",
	}
	urls := make([]string, 0, len(hosts))
	pages := make(map[string]string, len(hosts))
	for _, h := range hosts {
		u := "https://" + h + "/"
		urls = append(urls, u)
		pages[u] = `<p>Nothing here.</p>`
	}
	search := &fakeSearch{pages: [][]string{urls}}
	fetcher := &fakeFetcher{pages: pages}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(200))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Contacts) == 0 {
		t.Fatal("twelve dry hosts must still produce guesses for the first ten")
	}
	for _, c := range res.Contacts {
		if strings.HasSuffix(c, "@h11.in") || strings.HasSuffix(c, "@h12.in") {
			t.Errorf("guessed beyond the ten-host cap: %v", res.Contacts)
		}
	}
	if len(res.Contacts) != 50 {
		t.Errorf("got %d guesses, want 5 roles for each of 10 hosts", len(res.Contacts))
	}
}

func TestRunRoleSynthesisSkippedWhenYieldIsHealthy(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>one@alpha.in two@alpha.in three@alpha.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(4))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range res.Contacts {
		if strings.HasPrefix(c, "info@") {
			t.Errorf("synthesized address despite a healthy organic yield: %v", res.Contacts)
		}
	}
}

func TestRunRoleSynthesisNeverForPhones(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>No numbers here.</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	job := Job{ID: "job-2", Keyword: "bakeries kochi", Country: "in", Kind: models.DataKindPhone, Quota: 10}
	res, err := o.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Contacts) != 0 {
		t.Errorf("phone job must never synthesize contacts: %v", res.Contacts)
	}
}

func TestRunRanksPersonalMailboxesLast(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://acme.in/"},
	}}
	// The gmail address appears first on the page but is low confidence.
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.in/": `<p>someone@gmail.com or office@acme.in</p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	res, err := o.Run(context.Background(), emailJob(2))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"office@acme.in", "someone@gmail.com"}
	if len(res.Contacts) != 2 || res.Contacts[0] != want[0] || res.Contacts[1] != want[1] {
		t.Fatalf("contacts = %v, want %v", res.Contacts, want)
	}
	if len(res.LowConfidence) != 1 || res.LowConfidence[0] != "someone@gmail.com" {
		t.Errorf("low confidence = %v", res.LowConfidence)
	}
}

func TestRunPhoneHarvestCanonicalises(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>Call 98765 43210 or <a href="tel:+919876543210">call</a></p>`,
	}}

	o := newTestOrchestrator(search, nil, fetcher)
	job := Job{ID: "job-3", Keyword: "bakeries kochi", Country: "in", Kind: models.DataKindPhone, Quota: 10}
	res, err := o.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}

	// Both forms canonicalise to the same number and must collapse to one.
	count := 0
	for _, c := range res.Contacts {
		if c == "+919876543210" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("canonical dedup failed: %v", res.Contacts)
	}
}

func TestRunProgressPublished(t *testing.T) {
	search := &fakeSearch{pages: [][]string{
		{"https://alpha.in/"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.in/": `<p>one@alpha.in</p>`,
	}}

	sink := &recordingSink{}
	o := NewOrchestrator(staticRewriter{}, search, nil, fetcher, nil, sink)
	o.shuffle = func(urls []string) []string { return urls }
	if _, err := o.Run(context.Background(), emailJob(2)); err != nil {
		t.Fatal(err)
	}

	if len(sink.docs) < 2 {
		t.Fatalf("expected start and per-site progress, got %d publishes", len(sink.docs))
	}
	if sink.docs[0].Progress != 10 {
		t.Errorf("first publish progress = %d, want 10", sink.docs[0].Progress)
	}
	prev := 0
	for i, doc := range sink.docs {
		if doc.Progress < prev {
			t.Errorf("progress went backwards at publish %d: %d -> %d", i, prev, doc.Progress)
		}
		prev = doc.Progress
		if doc.Country != "in" {
			t.Errorf("publish %d country = %q", i, doc.Country)
		}
		if doc.ElapsedTime < 0 {
			t.Errorf("publish %d elapsed = %f", i, doc.ElapsedTime)
		}
	}
	last := sink.docs[len(sink.docs)-1]
	if last.Progress != 100 {
		t.Errorf("final progress = %d, want 100", last.Progress)
	}
	if last.ContactsFound != 1 {
		t.Errorf("final progress contacts = %d, want 1", last.ContactsFound)
	}
	if len(last.Preview) != 1 || last.Preview[0] != "one@alpha.in" {
		t.Errorf("preview = %v", last.Preview)
	}
	if last.JobID != "job-1" {
		t.Errorf("progress job id = %q", last.JobID)
	}
}

type recordingSink struct {
	mu   sync.Mutex
	docs []models.StatusDoc
}

func (r *recordingSink) Publish(_ context.Context, doc *models.StatusDoc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, *doc)
}
