package extract

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	atDotRe = regexp.MustCompile(`(?i)([a-z0-9._%+\-]+)\s*(?:\[\s*at\s*\]|\(\s*at\s*\)|\{\s*at\s*\})\s*([a-z0-9\-]+(?:\s*(?:\[\s*dot\s*\]|\(\s*dot\s*\)|\{\s*dot\s*\})\s*[a-z0-9\-]+)+)`)

	dotTokenRe = regexp.MustCompile(`(?i)\s*(?:\[\s*dot\s*\]|\(\s*dot\s*\)|\{\s*dot\s*\})\s*`)

	// numericEntityRe matches runs of numeric character references long
	// enough to be hiding an address.
	numericEntityRe = regexp.MustCompile(`(?:&#x?[0-9a-fA-F]{2,4};){8,}`)

	entityRe = regexp.MustCompile(`&#(x?)([0-9a-fA-F]{2,4});`)

	hiddenStyleRe = regexp.MustCompile(`(?i)display\s*:\s*none|visibility\s*:\s*hidden`)
)

// obfuscationPath covers the tricks sites use to keep addresses away from
// naive scrapers: split spans, entity encoding, comments, hidden elements,
// [at]/[dot] spelling and Cloudflare's data-cfemail.
func (e *Extractor) obfuscationPath(doc *goquery.Document, rawHTML string, add addFunc) {
	e.deobfuscateAtDot(visibleText(doc), add)
	e.reassembleSpanFragments(doc, add)
	e.decodeEntityRuns(rawHTML, add)
	e.scanComments(doc, add)
	e.scanHiddenElements(doc, add)
	e.decodeCfemail(doc, add)
}

// deobfuscateAtDot rebuilds addresses written as "user [at] example [dot] com".
func (e *Extractor) deobfuscateAtDot(text string, add addFunc) {
	for _, m := range atDotRe.FindAllStringSubmatch(text, -1) {
		domain := dotTokenRe.ReplaceAllString(m[2], ".")
		add(m[1]+"@"+domain, ProvDeobfuscate, KindEmail)
	}
}

// reassembleSpanFragments joins sibling span texts under a common parent.
// Sites split "user" "@" "example.com" across spans to break regexes.
func (e *Extractor) reassembleSpanFragments(doc *goquery.Document, add addFunc) {
	doc.Find("span").Parent().Each(func(_ int, parent *goquery.Selection) {
		spans := parent.ChildrenFiltered("span")
		if spans.Length() < 2 {
			return
		}
		var b strings.Builder
		spans.Each(func(_ int, s *goquery.Selection) {
			b.WriteString(strings.TrimSpace(s.Text()))
		})
		joined := b.String()
		if !strings.Contains(joined, "@") {
			return
		}
		for _, m := range emailRe.FindAllString(joined, -1) {
			add(m, ProvSpanSplit, KindEmail)
		}
	})
}

// decodeEntityRuns decodes long numeric entity sequences in the raw markup.
// The parser already decodes entities in text nodes; this catches sequences
// sitting in attributes or script bodies.
func (e *Extractor) decodeEntityRuns(rawHTML string, add addFunc) {
	for _, run := range numericEntityRe.FindAllString(rawHTML, -1) {
		decoded := entityRe.ReplaceAllStringFunc(run, func(ent string) string {
			m := entityRe.FindStringSubmatch(ent)
			base := 10
			if m[1] == "x" {
				base = 16
			}
			n, err := strconv.ParseInt(m[2], base, 32)
			if err != nil || n < 32 || n > 126 {
				return ""
			}
			return string(rune(n))
		})
		for _, m := range emailRe.FindAllString(decoded, -1) {
			add(m, ProvDeobfuscate, KindEmail)
		}
	}
}

// scanComments runs the regexes over HTML comment bodies.
func (e *Extractor) scanComments(doc *goquery.Document, add addFunc) {
	forEachNode(doc, func(n *html.Node) {
		if n.Type != html.CommentNode {
			return
		}
		for _, m := range emailRe.FindAllString(n.Data, -1) {
			add(m, ProvComment, KindEmail)
		}
		for _, re := range phoneRes {
			for _, m := range re.FindAllString(normalizePhoneText(n.Data), -1) {
				add(m, ProvComment, KindPhone)
			}
		}
	})
}

// scanHiddenElements reads elements removed from view with inline CSS.
func (e *Extractor) scanHiddenElements(doc *goquery.Document, add addFunc) {
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if !hiddenStyleRe.MatchString(style) {
			return
		}
		text := s.Text()
		for _, m := range emailRe.FindAllString(text, -1) {
			add(m, ProvHidden, KindEmail)
		}
		for _, re := range phoneRes {
			for _, m := range re.FindAllString(normalizePhoneText(text), -1) {
				add(m, ProvHidden, KindPhone)
			}
		}
	})
}

// decodeCfemail reverses Cloudflare's email protection: a hex string whose
// first byte is the XOR key for the rest.
func (e *Extractor) decodeCfemail(doc *goquery.Document, add addFunc) {
	doc.Find("[data-cfemail]").Each(func(_ int, s *goquery.Selection) {
		enc, _ := s.Attr("data-cfemail")
		if addr, ok := DecodeCfemail(enc); ok {
			add(addr, ProvCfemail, KindEmail)
		}
	})
}

// DecodeCfemail decodes a data-cfemail attribute value.
func DecodeCfemail(enc string) (string, bool) {
	raw, err := hex.DecodeString(enc)
	if err != nil || len(raw) < 2 {
		return "", false
	}
	key := raw[0]
	out := make([]byte, 0, len(raw)-1)
	for _, b := range raw[1:] {
		out = append(out, b^key)
	}
	return string(out), true
}
