// Package queryopt rewrites a raw user keyword into a search query tuned for
// contact discovery. Rewriting goes through an LLM when one is configured and
// falls back to a deterministic template otherwise, so mining never blocks on
// a model outage.
package queryopt

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model is the slice of the langchaingo LLM surface the optimizer needs.
type Model interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

const promptTemplate = `You are a search query engineer. Rewrite the keyword below into a single
web search query that maximizes the chance of finding business contact pages
(phone numbers and email addresses) for businesses in %s.

Rules:
- Keep the core keyword, quoted.
- Add contact-intent terms with OR.
- Restrict to the country's sites where sensible.
- Exclude large directory and social sites.
- Output EXACTLY one line containing only the query. No explanation, no
  numbering, no quotes around the whole line.

Keyword: %s`

// Domains excluded from optimized queries. These rank well but never expose
// direct contact data.
var excludedSites = []string{
	"justdial.com", "indiamart.com", "sulekha.com", "facebook.com",
	"linkedin.com", "youtube.com",
}

type Optimizer struct {
	model       Model
	temperature float64
}

type Option func(*Optimizer)

func WithModel(m Model) Option {
	return func(o *Optimizer) { o.model = m }
}

func WithTemperature(t float64) Option {
	return func(o *Optimizer) { o.temperature = t }
}

// New builds an optimizer. When apiKey is empty the optimizer runs in
// fallback-only mode.
func New(apiKey, modelName string, opts ...Option) (*Optimizer, error) {
	o := &Optimizer{temperature: 0.2}
	for _, opt := range opts {
		opt(o)
	}
	if o.model == nil && apiKey != "" {
		llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(modelName))
		if err != nil {
			return nil, fmt.Errorf("initializing llm: %w", err)
		}
		o.model = llm
	}
	return o, nil
}

// Optimize returns the rewritten query for the keyword. Any model failure or
// malformed completion degrades to the deterministic template.
func (o *Optimizer) Optimize(ctx context.Context, keyword, country string) string {
	keyword = strings.TrimSpace(keyword)
	if o.model == nil {
		return FallbackQuery(keyword, country)
	}

	prompt := fmt.Sprintf(promptTemplate, countryName(country), keyword)
	out, err := o.model.Call(ctx, prompt, llms.WithTemperature(o.temperature))
	if err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("llm query rewrite failed, using fallback template")
		return FallbackQuery(keyword, country)
	}

	query, ok := parseCompletion(out)
	if !ok {
		log.Warn().Str("keyword", keyword).Str("completion", out).Msg("llm returned a malformed rewrite, using fallback template")
		return FallbackQuery(keyword, country)
	}
	return query
}

// parseCompletion enforces the single-line contract. Multi-line answers,
// markdown fences, and prefixed chatter are all rejected rather than
// repaired.
func parseCompletion(out string) (string, bool) {
	out = strings.TrimSpace(out)
	if out == "" {
		return "", false
	}
	// Tolerate a fenced block wrapping exactly one line.
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)

	if strings.ContainsAny(out, "\n\r") {
		return "", false
	}
	lower := strings.ToLower(out)
	for _, bad := range []string{"here is", "query:", "sure,", "certainly"} {
		if strings.HasPrefix(lower, bad) {
			return "", false
		}
	}
	if len(out) > 400 {
		return "", false
	}
	return out, true
}

// FallbackQuery is the deterministic template used when no model is
// available. It quotes the keyword, adds contact-intent terms, scopes to the
// country TLD, and excludes directory sites.
func FallbackQuery(keyword, country string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q (contact OR phone OR email)", keyword)
	if cc := countryTLD(country); cc != "" {
		fmt.Fprintf(&b, " site:.%s", cc)
	}
	for _, site := range excludedSites {
		fmt.Fprintf(&b, " -site:%s", site)
	}
	return b.String()
}

func countryTLD(country string) string {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "in", "india":
		return "in"
	case "us", "usa", "united states":
		return "" // .com is not a country scope
	case "gb", "uk", "united kingdom":
		return "uk"
	case "id", "indonesia":
		return "id"
	case "sg", "singapore":
		return "sg"
	case "au", "australia":
		return "au"
	case "ae":
		return "ae"
	default:
		return ""
	}
}

func countryName(country string) string {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "in", "india":
		return "India"
	case "us", "usa":
		return "the United States"
	case "gb", "uk":
		return "the United Kingdom"
	case "id", "indonesia":
		return "Indonesia"
	case "sg", "singapore":
		return "Singapore"
	case "au", "australia":
		return "Australia"
	case "ae":
		return "the United Arab Emirates"
	default:
		return "the target country"
	}
}
