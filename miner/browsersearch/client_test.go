package browsersearch

import (
	"net/url"
	"strings"
	"testing"
)

func TestNormalizeResultURL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			"plain result",
			"https://acme.in/contact",
			"https://acme.in/contact", true,
		},
		{
			"google redirect wrapper",
			"https://www.google.com/url?q=" + url.QueryEscape("https://acme.in/contact") + "&sa=U",
			"https://acme.in/contact", true,
		},
		{
			"duckduckgo redirect wrapper",
			"https://duckduckgo.com/l/?uddg=" + url.QueryEscape("https://acme.in/") + "&rut=abc",
			"https://acme.in/", true,
		},
		{
			"yahoo redirect wrapper",
			"https://r.search.yahoo.com/_ylt=x/RU=" + url.QueryEscape("https://acme.in/") + "/RK=2/RS=y",
			"https://acme.in/", true,
		},
		{
			"tracking params stripped",
			"https://acme.in/contact?utm_source=serp&utm_campaign=x&id=7",
			"https://acme.in/contact?id=7", true,
		},
		{
			"fragment stripped",
			"https://acme.in/contact#map",
			"https://acme.in/contact", true,
		},

		{"engine host rejected", "https://www.google.co.in/search?q=x", "", false},
		{"maps rejected", "https://maps.google.com/place/x", "", false},
		{"social rejected", "https://www.facebook.com/acme", "", false},
		{"social subdomain rejected", "https://m.facebook.com/acme", "", false},
		{"directory rejected", "https://www.justdial.com/pune/acme", "", false},
		{"wiki rejected", "https://en.wikipedia.org/wiki/Acme", "", false},
		{"javascript scheme rejected", "javascript:void(0)", "", false},
		{"relative rejected", "/search?q=x", "", false},
		{"empty redirect wrapper", "https://www.google.com/url?sa=U", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeResultURL(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("normalizeResultURL(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("normalizeResultURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEngineURLBuilders(t *testing.T) {
	for _, eng := range engines {
		t.Run(eng.name, func(t *testing.T) {
			raw := eng.buildURL(`"steel fabricators" contact`, "in", 0)
			u, err := url.Parse(raw)
			if err != nil {
				t.Fatalf("buildURL produced an unparseable URL: %v", err)
			}
			if u.Scheme != "https" {
				t.Errorf("scheme = %q", u.Scheme)
			}
			if len(eng.resultSelectors) == 0 {
				t.Error("engine has no result selectors")
			}
		})
	}
}

func TestGoogleURLCountryVariant(t *testing.T) {
	var google engine
	for _, eng := range engines {
		if eng.name == "google" {
			google = eng
		}
	}

	raw := google.buildURL("bakeries", "in", 0)
	if !strings.Contains(raw, "google.co.in") {
		t.Errorf("india query must hit the ccTLD: %q", raw)
	}
	u, _ := url.Parse(raw)
	q := u.Query()
	if q.Get("gl") != "in" {
		t.Errorf("gl = %q", q.Get("gl"))
	}
	if q.Get("pws") != "0" {
		t.Errorf("personalised results not disabled: pws = %q", q.Get("pws"))
	}

	page2 := google.buildURL("bakeries", "in", 2)
	u2, _ := url.Parse(page2)
	if u2.Query().Get("start") != "40" {
		t.Errorf("page 2 start = %q, want 40", u2.Query().Get("start"))
	}
}

func TestEngineOrder(t *testing.T) {
	want := []string{"google", "bing", "duckduckgo", "yahoo", "ecosia"}
	if len(engines) != len(want) {
		t.Fatalf("engine count = %d, want %d", len(engines), len(want))
	}
	for i, name := range want {
		if engines[i].name != name {
			t.Errorf("engines[%d] = %q, want %q", i, engines[i].name, name)
		}
	}
}
