package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contactKeys are the JSON-LD keys whose values are contact strings.
var contactEmailKeys = map[string]struct{}{
	"email": {}, "emailaddress": {}, "contactemail": {},
}

var contactPhoneKeys = map[string]struct{}{
	"telephone": {}, "phone": {},
}

// structuredDataPath parses every ld+json block and relevant meta tags.
func (e *Extractor) structuredDataPath(doc *goquery.Document, add addFunc) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		walkJSONLD(v, add)
	})

	doc.Find(`meta[name*="email"], meta[name*="contact"], meta[property*="email"], meta[property*="contact"]`).Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		for _, m := range emailRe.FindAllString(content, -1) {
			add(m, ProvMeta, KindEmail)
		}
		// A contact meta without an address often carries a number instead.
		if !strings.Contains(content, "@") {
			for _, re := range phoneRes {
				for _, m := range re.FindAllString(normalizePhoneText(content), -1) {
					add(m, ProvMeta, KindPhone)
				}
			}
		}
	})
}

// walkJSONLD descends arbitrarily nested JSON-LD objects, accepting values at
// the contact keys and inside contactPoint entries.
func walkJSONLD(v any, add addFunc) {
	switch node := v.(type) {
	case map[string]any:
		for k, val := range node {
			key := strings.ToLower(k)
			if s, isStr := val.(string); isStr {
				if _, ok := contactEmailKeys[key]; ok {
					add(s, ProvJSONLD, KindEmail)
					continue
				}
				if _, ok := contactPhoneKeys[key]; ok {
					add(s, ProvJSONLD, KindPhone)
					continue
				}
			}
			if key == "contactpoint" {
				walkJSONLD(val, add)
				continue
			}
			walkJSONLD(val, add)
		}
	case []any:
		for _, item := range node {
			walkJSONLD(item, add)
		}
	}
}
