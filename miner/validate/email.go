package validate

import (
	"strings"
)

// fileExtensions are suffixes that show up when a scrape catches an asset
// reference instead of a mailbox (logo@2x.png and friends).
var fileExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".bmp",
	".css", ".js", ".json", ".xml", ".pdf", ".doc", ".docx", ".xls", ".xlsx",
	".mp4", ".webm", ".woff", ".woff2", ".ttf", ".eot",
}

// artifactTokens were all observed as false positives from minified HTML/CSS;
// each one looked like an address but was a fragment of markup.
var artifactTokens = []string{
	"@ion", "@ic.", "@ed.", "@ing", "pl@form", "kolk@a", "@2x", "@3x",
	"@media", "@import", "@font-face", "@keyframes", "@charset", "@page",
	"inform@", "temp@", "navig@", "loc@ion", "applic@ion",
}

// artifactTLDs are "top level domains" that only exist because a CSS class or
// an HTML attribute got matched by the address regex.
var artifactTLDs = map[string]struct{}{
	"they": {}, "svg": {}, "card": {}, "more": {}, "our": {}, "html": {},
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {}, "css": {},
	"js": {}, "json": {}, "here": {}, "this": {}, "that": {}, "your": {},
	"link": {}, "page": {}, "item": {}, "form": {},
}

// personalDomains are free mailbox providers. Role addresses on them are kept
// with full confidence; personal addresses on them are kept but flagged so the
// caller can rank them lower.
var personalDomains = map[string]struct{}{
	"gmail.com": {}, "yahoo.com": {}, "yahoo.co.in": {}, "yahoo.in": {},
	"hotmail.com": {}, "outlook.com": {}, "live.com": {}, "aol.com": {},
	"rediffmail.com": {}, "protonmail.com": {}, "icloud.com": {}, "zoho.com": {},
}

// roleLocalParts are generic business mailboxes (the "role addresses").
var roleLocalParts = map[string]struct{}{
	"info": {}, "contact": {}, "sales": {}, "support": {}, "hello": {},
	"admin": {}, "enquiry": {}, "enquiries": {}, "office": {}, "mail": {},
	"help": {}, "care": {}, "hr": {}, "jobs": {}, "marketing": {},
	"business": {}, "booking": {}, "bookings": {}, "reception": {},
}

// NormalizeEmail lowercases and trims a candidate address. Canonical equality
// of contacts is defined over this form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail reports whether a candidate string is an acceptable address.
// It is a pure accept/reject decision; confidence is a separate question.
func ValidateEmail(s string) bool {
	s = NormalizeEmail(s)
	if s == "" {
		return false
	}

	if strings.Count(s, "@") != 1 {
		return false
	}

	// Template markers mean we scraped a placeholder, not an address.
	if strings.ContainsAny(s, "{}[]<>()|\\\"' ") || strings.Contains(s, "%") {
		return false
	}

	at := strings.Index(s, "@")
	local, domain := s[:at], s[at+1:]

	if len(local) < 2 || len(local) > 64 {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 || !isAlpha(tld) {
		return false
	}
	if _, bad := artifactTLDs[tld]; bad {
		return false
	}

	for _, ext := range fileExtensions {
		if strings.HasSuffix(s, ext) {
			return false
		}
	}

	for _, tok := range artifactTokens {
		if strings.Contains(s, tok) {
			return false
		}
	}

	return true
}

// IsRoleAddress reports whether the local part is a generic business mailbox.
func IsRoleAddress(s string) bool {
	s = NormalizeEmail(s)
	at := strings.Index(s, "@")
	if at <= 0 {
		return false
	}
	_, ok := roleLocalParts[s[:at]]
	return ok
}

// IsLowConfidenceEmail flags personal addresses on free mailbox providers.
// They pass validation but are worth ranking below business-domain hits.
func IsLowConfidenceEmail(s string) bool {
	s = NormalizeEmail(s)
	at := strings.Index(s, "@")
	if at <= 0 {
		return false
	}
	if _, personal := personalDomains[s[at+1:]]; !personal {
		return false
	}
	return !IsRoleAddress(s)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
