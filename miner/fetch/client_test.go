package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/miner/ratelimit"
)

// fastLimiter paces in nanoseconds so fetch tests run at full speed.
func fastLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.Config{
		MinDelay:             time.Nanosecond,
		MaxDelay:             time.Millisecond,
		WindowSize:           time.Second,
		MaxRequestsPerWindow: 10000,
		BaseDelay:            time.Nanosecond,
	})
}

func newTestClient(renderer Renderer) *Client {
	return NewClient(Config{MaxRetries: 2, Timeout: 5 * time.Second}, fastLimiter(), nil, renderer)
}

type fakeRenderer struct {
	body  string
	err   error
	calls int
}

func (f *fakeRenderer) FetchRendered(context.Context, string) (string, error) {
	f.calls++
	return f.body, f.err
}

func TestGetHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<p>info@acme.in</p>`))
	}))
	defer srv.Close()

	res := newTestClient(nil).Get(context.Background(), srv.URL+"/contact")
	if res.Kind != ResultHTML {
		t.Fatalf("kind = %s (%s), want html", res.Kind, res.Reason)
	}
	if !strings.Contains(res.Body, "info@acme.in") {
		t.Errorf("body = %q", res.Body)
	}
	if res.FinalURL == "" {
		t.Error("final url not recorded")
	}
}

func TestGetFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<p>moved</p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newTestClient(nil).Get(context.Background(), srv.URL+"/old")
	if res.Kind != ResultHTML {
		t.Fatalf("kind = %s (%s)", res.Kind, res.Reason)
	}
	if !strings.HasSuffix(res.FinalURL, "/new") {
		t.Errorf("final url = %q, want the redirect target", res.FinalURL)
	}
}

func TestGetSkipsNonHTML(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{"pdf", "application/pdf"},
		{"json", "application/json"},
		{"image", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte("binary"))
			}))
			defer srv.Close()

			res := newTestClient(nil).Get(context.Background(), srv.URL)
			if res.Kind != ResultSkip {
				t.Errorf("kind = %s, want skip", res.Kind)
			}
		})
	}
}

func TestGetNotFoundNoRetry(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res := newTestClient(nil).Get(context.Background(), srv.URL)
	if res.Kind != ResultSkip {
		t.Errorf("kind = %s, want skip", res.Kind)
	}
	if hits != 1 {
		t.Errorf("a 404 was retried %d times", hits)
	}
}

func TestGetRetriesServerError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<p>recovered</p>`))
	}))
	defer srv.Close()

	res := newTestClient(nil).Get(context.Background(), srv.URL)
	if res.Kind != ResultHTML {
		t.Fatalf("kind = %s (%s), want recovery on retry", res.Kind, res.Reason)
	}
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
}

func TestGetCaptchaDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>Please verify you are human to continue.</body></html>`))
	}))
	defer srv.Close()

	c := newTestClient(nil)
	res := c.Get(context.Background(), srv.URL)
	if res.Kind != ResultCaptcha {
		t.Fatalf("kind = %s, want captcha", res.Kind)
	}
}

func TestGetEscalatesAfterCaptcha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>verify you are human</body></html>`))
	}))
	defer srv.Close()

	renderer := &fakeRenderer{body: `<p>rendered@acme.in</p>`}
	c := newTestClient(renderer)

	if res := c.Get(context.Background(), srv.URL); res.Kind != ResultCaptcha {
		t.Fatalf("first fetch kind = %s, want captcha", res.Kind)
	}

	// The domain is marked; the second fetch goes straight to the browser.
	res := c.Get(context.Background(), srv.URL)
	if res.Kind != ResultHTML {
		t.Fatalf("second fetch kind = %s (%s), want rendered html", res.Kind, res.Reason)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer called %d times, want 1", renderer.calls)
	}
}

func TestGetBlockedDomain(t *testing.T) {
	c := newTestClient(nil)
	c.MarkBlocked("blocked.example.com")

	res := c.Get(context.Background(), "https://www.blocked.example.com/page")
	if res.Kind != ResultBlockedDomain {
		t.Errorf("kind = %s, want blocked", res.Kind)
	}
	if !c.IsBlocked("blocked.example.com") {
		t.Error("IsBlocked lost the mark")
	}
}

func TestGetUnparseableURL(t *testing.T) {
	res := newTestClient(nil).Get(context.Background(), "not a url")
	if res.Kind != ResultSkip {
		t.Errorf("kind = %s, want skip", res.Kind)
	}
}

func TestGetCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestClient(nil).Get(ctx, "https://acme.in/")
	if res.Kind != ResultSkip {
		t.Errorf("kind = %s, want skip on cancelled context", res.Kind)
	}
}
