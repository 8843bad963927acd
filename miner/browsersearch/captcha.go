package browsersearch

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/rs/zerolog/log"
)

// CAPTCHA detection signals, checked in cost order: URL and title first,
// then selectors, then script evaluation, then layout.
var (
	captchaURLMarkers = []string{
		"/sorry/", "google.com/sorry", "ipv4.google.com", "captcha",
		"challenge", "blocked", "denied",
	}

	captchaTitleMarkers = []string{
		"captcha", "unusual traffic", "verify", "attention required",
		"access denied", "just a moment", "robot check",
	}

	captchaPhraseMarkers = []string{
		"unusual traffic from your computer network",
		"our systems have detected unusual traffic",
		"i'm not a robot",
		"verify you are human",
		"complete the security check",
		"why did this happen",
	}

	captchaSelectors = []string{
		"iframe[src*='recaptcha']",
		"iframe[src*='hcaptcha']",
		"#recaptcha",
		".g-recaptcha",
		".h-captcha",
		"form#captcha-form",
		"#cf-challenge-running",
		"div[id*='turnstile']",
	}
)

// detectCaptcha examines a loaded page for challenge interstitials. It never
// attempts to solve one; detection drives back-off and engine fallback.
func detectCaptcha(page *rod.Page) (bool, string) {
	info, err := page.Info()
	if err == nil {
		lurl := strings.ToLower(info.URL)
		for _, m := range captchaURLMarkers {
			if strings.Contains(lurl, m) {
				return true, "url marker: " + m
			}
		}
		ltitle := strings.ToLower(info.Title)
		for _, m := range captchaTitleMarkers {
			if strings.Contains(ltitle, m) {
				return true, "title marker: " + m
			}
		}
	}

	for _, sel := range captchaSelectors {
		if has, _, err := page.Has(sel); err == nil && has {
			return true, "selector: " + sel
		}
	}

	// JS object markers installed by challenge scripts.
	if obj, err := page.Eval(`() => !!(window.___grecaptcha_cfg || window.hcaptcha || window.turnstile)`); err == nil && obj.Value.Bool() {
		return true, "challenge js object"
	}

	if body, err := page.Eval(`() => document.body ? document.body.innerText.slice(0, 5000).toLowerCase() : ''`); err == nil {
		text := body.Value.Str()
		for _, m := range captchaPhraseMarkers {
			if strings.Contains(text, m) {
				return true, "phrase: " + m
			}
		}
	}

	return false, ""
}

// looksEmptySERP flags the abnormal layout case: a search box is present but
// there are neither results nor an explicit "no results" message. Engines
// serve this shape when they are soft-blocking.
func looksEmptySERP(page *rod.Page, resultSelectors []string) bool {
	hasBox, _, err := page.Has("input[name='q'], input[name='p'], input[type='search']")
	if err != nil || !hasBox {
		return false
	}

	for _, sel := range resultSelectors {
		if has, _, err := page.Has(sel); err == nil && has {
			return false
		}
	}

	if obj, err := page.Eval(`() => {
		const t = document.body ? document.body.innerText.toLowerCase() : '';
		return t.includes('no results') || t.includes('did not match any documents') || t.includes('没有找到');
	}`); err == nil && obj.Value.Bool() {
		return false
	}

	log.Debug().Msg("SERP has a search box but no results and no empty-state message")
	return true
}
