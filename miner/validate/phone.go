package validate

import (
	"strings"
)

// PhoneClass categorises an accepted phone number.
type PhoneClass string

const (
	ClassMobile        PhoneClass = "mobile"
	ClassLandline      PhoneClass = "landline"
	ClassLandlineShort PhoneClass = "landline_short"
	ClassLandlineIntl  PhoneClass = "landline_international"
	ClassShortCode     PhoneClass = "short_code"
	ClassTollfree      PhoneClass = "tollfree"
)

// PhoneNumber is a validated, canonicalised phone contact.
type PhoneNumber struct {
	Canonical string
	Original  string
	Class     PhoneClass
	Country   string
}

// countryRule describes the accept table for countries other than India,
// which gets the full decision table in validateIndia.
type countryRule struct {
	callingCode string
	nsnMin      int
	nsnMax      int
	mobileLead  string // leading digits that mark a mobile number
}

var countryRules = map[string]countryRule{
	"us": {callingCode: "1", nsnMin: 10, nsnMax: 10, mobileLead: "23456789"},
	"gb": {callingCode: "44", nsnMin: 9, nsnMax: 10, mobileLead: "7"},
	"id": {callingCode: "62", nsnMin: 9, nsnMax: 12, mobileLead: "8"},
	"sg": {callingCode: "65", nsnMin: 8, nsnMax: 8, mobileLead: "89"},
	"au": {callingCode: "61", nsnMin: 9, nsnMax: 9, mobileLead: "4"},
	"ae": {callingCode: "971", nsnMin: 8, nsnMax: 9, mobileLead: "5"},
}

// two-digit metro area codes; everything else is three or four digits.
var indiaMetroCodes = map[string]struct{}{
	"11": {}, "22": {}, "33": {}, "44": {}, "20": {}, "40": {}, "79": {}, "80": {},
}

var tollfreePrefixes = []string{"1800", "1860", "1900"}

// dummyTails are subscriber endings that only appear in placeholder content.
// All-same tails are caught earlier by the repeated-run check.
var dummyTails = []string{"12345678", "12341234", "12121212", "10101010"}

// ValidatePhone validates a raw candidate against the rules for the given
// country and returns its canonical form. The second return is false when the
// candidate is rejected.
func ValidatePhone(raw, country string) (PhoneNumber, bool) {
	original := strings.TrimSpace(raw)
	digits, hadPlus := stripToDigits(original)

	if len(digits) < 5 || len(digits) > 16 {
		return PhoneNumber{}, false
	}

	cc := normalizeCountry(country)
	switch cc {
	case "in":
		return validateIndia(original, digits, hadPlus)
	default:
		if rule, ok := countryRules[cc]; ok {
			return validateWithRule(original, digits, hadPlus, cc, rule)
		}
		return validateGeneric(original, digits, hadPlus, cc)
	}
}

// stripToDigits removes every non-digit rune, reporting whether the candidate
// led with a plus sign.
func stripToDigits(s string) (string, bool) {
	var b strings.Builder
	hadPlus := false
	for i, r := range s {
		if r == '+' && i == 0 {
			hadPlus = true
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String(), hadPlus
}

func normalizeCountry(country string) string {
	c := strings.ToLower(strings.TrimSpace(country))
	switch c {
	case "india", "ind":
		return "in"
	case "usa", "united states":
		return "us"
	case "uk", "united kingdom":
		return "gb"
	case "indonesia":
		return "id"
	case "singapore":
		return "sg"
	case "australia":
		return "au"
	}
	return c
}

// looksDummy rejects junk sequences: near-repeats, long same-digit runs and
// known placeholder tails. It operates on the national number so a country
// code never trips the run checks. Real Indian numbering includes fully
// sequential subscriber blocks (9876543210 is in service), so the monotone
// check is opt-in and only used by the generic path.
func looksDummy(nsn string, rejectMonotone bool) bool {
	if uniqueDigits(nsn) <= 2 {
		return true
	}
	if hasRun(nsn, 4) {
		return true
	}
	if rejectMonotone && isMonotone(nsn) {
		return true
	}
	if len(nsn) >= 8 {
		tail := nsn[len(nsn)-8:]
		for _, d := range dummyTails {
			if tail == d {
				return true
			}
		}
	}
	return false
}

func uniqueDigits(s string) int {
	var seen [10]bool
	n := 0
	for i := 0; i < len(s); i++ {
		d := s[i] - '0'
		if !seen[d] {
			seen[d] = true
			n++
		}
	}
	return n
}

// hasRun reports whether s contains n of the same digit in a row.
func hasRun(s string, n int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// isMonotone reports whether the entire string is a single ascending or
// descending step-1 sequence (e.g. 12345678 or 987654).
func isMonotone(s string) bool {
	if len(s) < 4 {
		return false
	}
	asc, desc := true, true
	for i := 1; i < len(s); i++ {
		if s[i] != s[i-1]+1 {
			asc = false
		}
		if s[i] != s[i-1]-1 {
			desc = false
		}
	}
	return asc || desc
}

// validateIndia implements the decision table for country IN.
func validateIndia(original, digits string, hadPlus bool) (PhoneNumber, bool) {
	nsn := digits
	hadCC := false
	hadZero := false

	switch {
	case hadPlus && strings.HasPrefix(digits, "91") && len(digits) >= 10:
		nsn = digits[2:]
		hadCC = true
	case !hadPlus && len(digits) == 12 && strings.HasPrefix(digits, "91") && digits[2] >= '6' && digits[2] <= '9':
		// bare 91 prefix is only trusted for mobiles
		nsn = digits[2:]
		hadCC = true
	case strings.HasPrefix(digits, "0"):
		nsn = digits[1:]
		hadZero = true
	}

	if looksDummy(nsn, false) {
		return PhoneNumber{}, false
	}

	// Mobile: ten digits starting 6-9.
	if len(nsn) == 10 && nsn[0] >= '6' && nsn[0] <= '9' {
		return PhoneNumber{
			Canonical: "+91" + nsn,
			Original:  original,
			Class:     ClassMobile,
			Country:   "in",
		}, true
	}

	// Toll-free: 1800/1860/1900 plus a 7-8 digit subscriber.
	for _, p := range tollfreePrefixes {
		if strings.HasPrefix(nsn, p) && len(nsn) >= 11 && len(nsn) <= 12 {
			return PhoneNumber{
				Canonical: nsn,
				Original:  original,
				Class:     ClassTollfree,
				Country:   "in",
			}, true
		}
	}

	// Short landline without an area code. A country code or trunk zero
	// means the caller spelled out a full number, so the bare forms do not
	// apply.
	if !hadCC && !hadZero && len(nsn) == 8 && nsn[0] >= '2' && nsn[0] <= '5' {
		return PhoneNumber{
			Canonical: "+91-" + nsn,
			Original:  original,
			Class:     ClassLandlineShort,
			Country:   "in",
		}, true
	}

	// Five-digit short codes.
	if !hadCC && !hadZero && len(nsn) == 5 {
		return PhoneNumber{
			Canonical: nsn,
			Original:  original,
			Class:     ClassShortCode,
			Country:   "in",
		}, true
	}

	// Landlines: area code plus 6-8 digit subscriber. A leading zero means a
	// domestic dial; a country code means the international form, which
	// needs 12-14 digits in total.
	if (hadZero && len(nsn) >= 8 && len(nsn) <= 12) || (hadCC && len(nsn) >= 10 && len(nsn) <= 12) {
		area, sub, ok := splitIndiaArea(nsn)
		if !ok {
			return PhoneNumber{}, false
		}
		class := ClassLandline
		if hadCC {
			class = ClassLandlineIntl
		}
		return PhoneNumber{
			Canonical: "+91-" + area + "-" + sub,
			Original:  original,
			Class:     class,
			Country:   "in",
		}, true
	}

	return PhoneNumber{}, false
}

// splitIndiaArea splits a national number into area code and subscriber.
// Metro codes are two digits; otherwise prefer the three-digit split and fall
// back to four. The subscriber must be 6-8 digits.
func splitIndiaArea(nsn string) (string, string, bool) {
	if len(nsn) > 2 {
		if _, metro := indiaMetroCodes[nsn[:2]]; metro {
			if sub := nsn[2:]; len(sub) >= 6 && len(sub) <= 8 {
				return nsn[:2], sub, true
			}
		}
	}
	if len(nsn) > 3 {
		if sub := nsn[3:]; len(sub) >= 6 && len(sub) <= 8 {
			return nsn[:3], sub, true
		}
	}
	if len(nsn) > 4 {
		if sub := nsn[4:]; len(sub) >= 6 && len(sub) <= 8 {
			return nsn[:4], sub, true
		}
	}
	return "", "", false
}

// validateWithRule is the path for countries with a documented table.
func validateWithRule(original, digits string, hadPlus bool, country string, rule countryRule) (PhoneNumber, bool) {
	nsn := digits
	switch {
	case hadPlus && strings.HasPrefix(digits, rule.callingCode):
		nsn = digits[len(rule.callingCode):]
	case strings.HasPrefix(digits, "0"):
		nsn = digits[1:]
	}

	if len(nsn) < rule.nsnMin || len(nsn) > rule.nsnMax {
		return PhoneNumber{}, false
	}
	if looksDummy(nsn, false) {
		return PhoneNumber{}, false
	}

	class := ClassLandline
	if strings.IndexByte(rule.mobileLead, nsn[0]) >= 0 {
		class = ClassMobile
	}
	return PhoneNumber{
		Canonical: "+" + rule.callingCode + nsn,
		Original:  original,
		Class:     class,
		Country:   country,
	}, true
}

// validateGeneric is the fallback for countries without a table: 8-15 digits,
// no junk sequences.
func validateGeneric(original, digits string, hadPlus bool, country string) (PhoneNumber, bool) {
	if len(digits) < 8 || len(digits) > 15 {
		return PhoneNumber{}, false
	}
	if looksDummy(digits, true) {
		return PhoneNumber{}, false
	}

	canonical := digits
	if hadPlus {
		canonical = "+" + digits
	}
	class := ClassLandline
	if len(digits) >= 10 {
		class = ClassMobile
	}
	return PhoneNumber{
		Canonical: canonical,
		Original:  original,
		Class:     class,
		Country:   country,
	}, true
}
