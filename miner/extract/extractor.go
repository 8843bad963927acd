package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Kind distinguishes the two contact types the extractor proposes.
type Kind string

const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

// Provenance tags. Each candidate records which path produced it.
const (
	ProvMailto      = "mailto"
	ProvTel         = "tel"
	ProvVisible     = "visible"
	ProvJSONLD      = "jsonld"
	ProvMeta        = "meta"
	ProvComment     = "comment"
	ProvHidden      = "hidden"
	ProvCfemail     = "cfemail"
	ProvContactPage = "contact-page"
	ProvContext     = "context"
	ProvDataAttr    = "data-attr"
	ProvSpanSplit   = "span-split"
	ProvDeobfuscate = "deobfuscated"
)

// Candidate is an unvalidated contact string with provenance. Acceptance is
// never decided here; the validators own that.
type Candidate struct {
	Value      string
	Kind       Kind
	SourceURL  string
	Provenance string
}

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

	// phoneRes run over normalised text; the validator does the real work.
	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[\s\-()]*\d[\d\s\-()]{5,16}\d`),
		regexp.MustCompile(`\b0?\d{2,5}[\s\-]\d{6,8}\b`),
		regexp.MustCompile(`\b\d{10}\b`),
		regexp.MustCompile(`\b\d{5}\s?\d{5}\b`),
		regexp.MustCompile(`\b1[89]\d{2}[\s\-]?\d{3,4}[\s\-]?\d{3,4}\b`),
	}

	// contextRe finds numbers anchored by a contact keyword even when the
	// number itself is oddly formatted.
	contextRe = regexp.MustCompile(`(?i)(?:whatsapp|ext\.|mobile:|tel:|phone:|call\s+us\s+(?:at|on)|dial)\s*[:\-]?\s*(\+?[\d\s\-().]{7,20}\d)`)

	// phonePrefixRe strips the label in front of a number before matching.
	phonePrefixRe = regexp.MustCompile(`(?i)\b(?:tel|telephone|phone|mob|mobile|fax|call\s+us\s+(?:at|on)?|whatsapp)\b[\s:.]*`)

	separatorReplacer = strings.NewReplacer(
		" ", " ", "–", "-", "—", "-", "•", " ",
		"·", " ", "∙", " ",
	)
)

// Extractor proposes contact candidates from HTML documents.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract runs every extraction path over the document and returns the
// candidates of the requested kind, deduplicated per (value, provenance).
func (e *Extractor) Extract(htmlStr, sourceURL string, kind Kind) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil
	}

	var out []Candidate
	seen := make(map[string]struct{})
	add := func(value, prov string, k Kind) {
		value = strings.TrimSpace(value)
		if value == "" || k != kind {
			return
		}
		key := string(k) + "|" + strings.ToLower(value) + "|" + prov
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, Candidate{Value: value, Kind: k, SourceURL: sourceURL, Provenance: prov})
	}

	e.textPath(doc, add)
	e.attributePath(doc, add)
	e.structuredDataPath(doc, add)
	e.obfuscationPath(doc, htmlStr, add)
	if kind == KindPhone {
		e.phoneContextPath(doc, add)
	}

	return out
}

type addFunc func(value, prov string, kind Kind)

// textPath strips the document to visible text and runs the plain regexes.
func (e *Extractor) textPath(doc *goquery.Document, add addFunc) {
	text := visibleText(doc)

	for _, m := range emailRe.FindAllString(text, -1) {
		add(m, ProvVisible, KindEmail)
	}

	normalized := normalizePhoneText(text)
	for _, re := range phoneRes {
		for _, m := range re.FindAllString(normalized, -1) {
			add(m, ProvVisible, KindPhone)
		}
	}
}

// attributePath collects mailto:/tel: anchors and recognised data attributes.
func (e *Extractor) attributePath(doc *goquery.Document, add addFunc) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		switch {
		case strings.HasPrefix(strings.ToLower(href), "mailto:"):
			addr := href[len("mailto:"):]
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			add(addr, ProvMailto, KindEmail)
		case strings.HasPrefix(strings.ToLower(href), "tel:"):
			add(href[len("tel:"):], ProvTel, KindPhone)
		}
	})

	doc.Find("[data-email]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data-email"); ok {
			add(v, ProvDataAttr, KindEmail)
		}
	})
	doc.Find("[data-phone], [data-contact]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-phone", "data-contact"} {
			if v, ok := s.Attr(attr); ok {
				if strings.Contains(v, "@") {
					add(v, ProvDataAttr, KindEmail)
				} else {
					add(v, ProvDataAttr, KindPhone)
				}
			}
		}
	})
}

// visibleText returns the document text minus script/style/template content.
func visibleText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find("script, style, noscript, template").Remove()
	return clone.Text()
}

// normalizePhoneText flattens exotic separators and strips contact labels so
// the phone regexes see a plain digit layout.
func normalizePhoneText(text string) string {
	text = separatorReplacer.Replace(text)
	return phonePrefixRe.ReplaceAllString(text, " ")
}

// phoneContextPath searches for numbers anchored by contact tokens, catching
// layouts the broad regexes miss.
func (e *Extractor) phoneContextPath(doc *goquery.Document, add addFunc) {
	text := separatorReplacer.Replace(visibleText(doc))
	for _, m := range contextRe.FindAllStringSubmatch(text, -1) {
		add(m[1], ProvContext, KindPhone)
	}
}

// forEachNode walks the underlying parse tree, which is how we reach comment
// nodes goquery does not select.
func forEachNode(doc *goquery.Document, fn func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		fn(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Selection.Nodes {
		walk(n)
	}
}
