package extract

import (
	"encoding/hex"
	"strings"
	"testing"
)

func values(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Value)
	}
	return out
}

func hasValue(cands []Candidate, value string) bool {
	for _, c := range cands {
		if strings.EqualFold(c.Value, value) {
			return true
		}
	}
	return false
}

func hasCandidate(cands []Candidate, value, prov string) bool {
	for _, c := range cands {
		if strings.EqualFold(c.Value, value) && c.Provenance == prov {
			return true
		}
	}
	return false
}

func encodeCfemail(plain string, key byte) string {
	raw := make([]byte, 0, len(plain)+1)
	raw = append(raw, key)
	for i := 0; i < len(plain); i++ {
		raw = append(raw, plain[i]^key)
	}
	return hex.EncodeToString(raw)
}

func TestExtractEmails(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		want     string
		wantProv string
	}{
		{
			"mailto anchor",
			`<a href="mailto:info@acme.in">Write to us</a>`,
			"info@acme.in", ProvMailto,
		},
		{
			"mailto with subject query",
			`<a href="mailto:sales@acme.in?subject=Quote">Sales</a>`,
			"sales@acme.in", ProvMailto,
		},
		{
			"visible text",
			`<p>Reach us at hello@acme.in for enquiries.</p>`,
			"hello@acme.in", ProvVisible,
		},
		{
			"at dot spelled out",
			`<p>Email: support [at] acme [dot] co [dot] in</p>`,
			"support@acme.co.in", ProvDeobfuscate,
		},
		{
			"parenthesised at dot",
			`<div>office (at) vendor (dot) com</div>`,
			"office@vendor.com", ProvDeobfuscate,
		},
		{
			"html comment",
			`<body><!-- fallback: admin@acme.in --><p>no visible contact</p></body>`,
			"admin@acme.in", ProvComment,
		},
		{
			"hidden element",
			`<div style="display:none">backup@acme.in</div>`,
			"backup@acme.in", ProvHidden,
		},
		{
			"data attribute",
			`<button data-email="book@acme.in">Book now</button>`,
			"book@acme.in", ProvDataAttr,
		},
		{
			"json-ld organization",
			`<script type="application/ld+json">{"@type":"Organization","email":"corp@acme.in"}</script>`,
			"corp@acme.in", ProvJSONLD,
		},
		{
			"json-ld nested contactPoint",
			`<script type="application/ld+json">{"@type":"LocalBusiness","contactPoint":[{"@type":"ContactPoint","email":"desk@acme.in"}]}</script>`,
			"desk@acme.in", ProvJSONLD,
		},
		{
			"meta tag",
			`<meta name="contact-email" content="meta@acme.in">`,
			"meta@acme.in", ProvMeta,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New().Extract(tt.html, "https://acme.in/contact", KindEmail)
			if !hasCandidate(got, tt.want, tt.wantProv) {
				t.Fatalf("expected %q via %s among candidates %v", tt.want, tt.wantProv, got)
			}
		})
	}
}

func TestExtractSpanSplitEmail(t *testing.T) {
	html := `<p><span>contact</span><span>@</span><span>acme.in</span></p>`
	got := New().Extract(html, "https://acme.in", KindEmail)
	if !hasCandidate(got, "contact@acme.in", ProvSpanSplit) {
		t.Fatalf("span-split address not reassembled, got %v", got)
	}
}

func TestExtractCfemail(t *testing.T) {
	plain := "info@acme.in"
	html := `<a class="__cf_email__" data-cfemail="` + encodeCfemail(plain, 0x42) + `">[email protected]</a>`
	got := New().Extract(html, "https://acme.in", KindEmail)
	if !hasCandidate(got, plain, ProvCfemail) {
		t.Fatalf("cfemail not decoded, got %v", got)
	}
}

func TestDecodeCfemail(t *testing.T) {
	tests := []struct {
		name   string
		enc    string
		want   string
		wantOK bool
	}{
		{"round trip", encodeCfemail("info@acme.in", 0x5a), "info@acme.in", true},
		{"zero key", encodeCfemail("a@b.co", 0x00), "a@b.co", true},
		{"not hex", "zzzz", "", false},
		{"odd length", "abc", "", false},
		{"too short", "ab", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeCfemail(tt.enc)
			if ok != tt.wantOK {
				t.Fatalf("DecodeCfemail(%q) ok = %v, want %v", tt.enc, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DecodeCfemail(%q) = %q, want %q", tt.enc, got, tt.want)
			}
		})
	}
}

func TestExtractPhones(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		want     string
		wantProv string
	}{
		{
			"tel anchor",
			`<a href="tel:+919876543210">Call</a>`,
			"+919876543210", ProvTel,
		},
		{
			"visible ten digits",
			`<p>Call 9876543210 for orders.</p>`,
			"9876543210", ProvVisible,
		},
		{
			"spaced mobile",
			`<p>98765 43210</p>`,
			"98765 43210", ProvVisible,
		},
		{
			"landline with area code",
			`<p>Office: 011-23345678</p>`,
			"011-23345678", ProvVisible,
		},
		{
			"whatsapp context",
			`<p>WhatsApp: 98 76 54 32 10</p>`,
			"98 76 54 32 10", ProvContext,
		},
		{
			"json-ld telephone",
			`<script type="application/ld+json">{"@type":"LocalBusiness","telephone":"+91-22-67451234"}</script>`,
			"+91-22-67451234", ProvJSONLD,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New().Extract(tt.html, "https://acme.in", KindPhone)
			if !hasCandidate(got, tt.want, tt.wantProv) {
				t.Fatalf("expected %q via %s among candidates %v", tt.want, tt.wantProv, got)
			}
		})
	}
}

func TestExtractKindFilter(t *testing.T) {
	html := `<p>info@acme.in or call 9876543210</p>`

	emails := New().Extract(html, "https://acme.in", KindEmail)
	for _, c := range emails {
		if c.Kind != KindEmail {
			t.Errorf("email extraction returned kind %q", c.Kind)
		}
	}
	if !hasValue(emails, "info@acme.in") {
		t.Error("email missing from email extraction")
	}

	phones := New().Extract(html, "https://acme.in", KindPhone)
	for _, c := range phones {
		if c.Kind != KindPhone {
			t.Errorf("phone extraction returned kind %q", c.Kind)
		}
	}
	if !hasValue(phones, "9876543210") {
		t.Error("phone missing from phone extraction")
	}
}

func TestExtractIgnoresScriptContent(t *testing.T) {
	html := `<script>var fake = "tracker@analytics.js";</script><p>real@acme.in</p>`
	got := New().Extract(html, "https://acme.in", KindEmail)
	if !hasValue(got, "real@acme.in") {
		t.Fatal("visible address missed")
	}
	if hasValue(got, "tracker@analytics.js") {
		t.Errorf("script content leaked into candidates: %v", values(got))
	}
}

func TestExtractSourceURLAttached(t *testing.T) {
	got := New().Extract(`<a href="mailto:info@acme.in">e</a>`, "https://acme.in/contact-us", KindEmail)
	if len(got) == 0 {
		t.Fatal("no candidates")
	}
	if got[0].SourceURL != "https://acme.in/contact-us" {
		t.Errorf("source url = %q", got[0].SourceURL)
	}
}

func TestContactLinks(t *testing.T) {
	html := `
	<nav>
		<a href="/about">About</a>
		<a href="/contact-us">Contact Us</a>
		<a href="/products">Products</a>
		<a href="https://other-site.com/contact">External contact</a>
		<a href="mailto:info@acme.in">Mail</a>
		<a href="/get-in-touch">Get in touch</a>
		<a href="#top">Top</a>
	</nav>`

	got := ContactLinks(html, "https://acme.in/", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 links, got %v", got)
	}
	if got[0] != "https://acme.in/contact-us" {
		t.Errorf("top link = %q, want contact-us first", got[0])
	}
	if got[1] != "https://acme.in/get-in-touch" {
		t.Errorf("second link = %q, want get-in-touch", got[1])
	}
}

func TestContactLinksNoHints(t *testing.T) {
	html := `<a href="/products">Products</a><a href="/pricing">Pricing</a>`
	if got := ContactLinks(html, "https://acme.in/", 3); len(got) != 0 {
		t.Errorf("expected no links, got %v", got)
	}
}

func TestContactLinksSkipsSelf(t *testing.T) {
	html := `<a href="/contact">Contact</a>`
	if got := ContactLinks(html, "https://acme.in/contact", 3); len(got) != 0 {
		t.Errorf("self link kept: %v", got)
	}
}
