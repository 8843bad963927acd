// Package serp queries a hosted SERP API as the fallback search source when
// browser search is blocked. Keys rotate from a pool and quota-exhausted keys
// drop out of rotation.
package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var ErrNoKeys = errors.New("serp: no usable api keys")

// Phrases the API returns when a key has run dry. Matching is substring,
// case-insensitive, against the error field and the raw body.
var exhaustionPhrases = []string{
	"run out of searches",
	"limit exceeded",
	"quota exceeded",
	"api limit",
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Results int
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "https://serpapi.com/search",
		Timeout: 30 * time.Second,
		Results: 20,
	}
}

type Client struct {
	cfg  Config
	pool *KeyPool
	http *http.Client
}

func NewClient(cfg Config, pool *KeyPool) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Results <= 0 {
		cfg.Results = DefaultConfig().Results
	}
	return &Client{
		cfg:  cfg,
		pool: pool,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type apiResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Link string `json:"link"`
	} `json:"organic_results"`
	ShoppingResults []struct {
		Link string `json:"link"`
	} `json:"shopping_results"`
	KnowledgeGraph struct {
		Website string `json:"website"`
	} `json:"knowledge_graph"`
	LocalResults []struct {
		Website string `json:"website"`
	} `json:"local_results"`
}

// Search returns result URLs for the query, rotating through keys until one
// succeeds or the pool is empty.
func (c *Client) Search(ctx context.Context, query, country string) ([]string, error) {
	for {
		key, ok := c.pool.Current().Get()
		if !ok {
			return nil, ErrNoKeys
		}

		links, exhausted, err := c.searchWithKey(ctx, key, query, country)
		if err != nil {
			return nil, err
		}
		if exhausted {
			c.pool.DisableCurrent("quota exhausted")
			continue
		}
		c.pool.Rotate()
		return links, nil
	}
}

func (c *Client) searchWithKey(ctx context.Context, key, query, country string) (links []string, exhausted bool, err error) {
	v := url.Values{}
	v.Set("engine", "google")
	v.Set("q", query)
	v.Set("api_key", key)
	v.Set("num", fmt.Sprintf("%d", c.cfg.Results))
	if cc := strings.ToLower(strings.TrimSpace(country)); cc != "" {
		v.Set("gl", cc)
		v.Set("hl", "en")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("calling serp api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, false, fmt.Errorf("reading serp response: %w", err)
	}

	if isExhausted(string(body)) {
		return nil, true, nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("serp api returned %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("decoding serp response: %w", err)
	}
	if parsed.Error != "" {
		if isExhausted(parsed.Error) {
			return nil, true, nil
		}
		log.Warn().Str("error", parsed.Error).Msg("SERP API returned an error field")
		return nil, false, nil
	}

	for _, r := range parsed.OrganicResults {
		links = append(links, r.Link)
	}
	for _, r := range parsed.ShoppingResults {
		links = append(links, r.Link)
	}
	if parsed.KnowledgeGraph.Website != "" {
		links = append(links, parsed.KnowledgeGraph.Website)
	}
	for _, r := range parsed.LocalResults {
		if r.Website != "" {
			links = append(links, r.Website)
		}
	}

	links = lo.Filter(lo.Uniq(links), func(l string, _ int) bool {
		return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
	})
	return links, false, nil
}

func isExhausted(s string) bool {
	s = strings.ToLower(s)
	for _, p := range exhaustionPhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
