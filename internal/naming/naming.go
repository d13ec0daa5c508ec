// Package naming converts configuration keys and zone names into the
// human readable forms shown in tables.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RootZone is displayed in place of an empty or "." zone name.
const RootZone = "(root)"

// Whole-word acronyms. The plural form keeps a lowercase s.
var acronyms = map[string]string{
	"pd":  "PD",
	"na":  "NA",
	"ip":  "IP",
	"id":  "ID",
	"pds": "PDs",
	"nas": "NAs",
	"ips": "IPs",
	"ids": "IDs",
}

// Acronyms replaced wherever they occur inside a word.
var embedded = []struct{ from, to string }{
	{"ddns", "DDNS"},
	{"dhcp", "DHCP"},
}

// HyphenToCamel converts a hyphen delimited key to camelCase.
//
//	"cache-max-age" → "cacheMaxAge"
func HyphenToCamel(s string) string {
	if !strings.Contains(s, "-") {
		return s
	}
	parts := strings.Split(s, "-")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// Uncamel converts a camelCase key to space separated capitalized words.
//
//	"ddnsOverrideClientUpdate" → "DDNS Override Client Update"
//	"subnetID"                 → "Subnet ID"
func Uncamel(s string) string {
	if s == "" {
		return s
	}
	// Casers keep state and cannot be shared between goroutines.
	title := cases.Title(language.Und, cases.NoLower)
	words := splitCamel(s)
	for i, w := range words {
		words[i] = title.String(acronym(w))
	}
	return strings.Join(words, " ")
}

// Humanize accepts both hyphenated and camelCase keys.
func Humanize(s string) string {
	return Uncamel(HyphenToCamel(s))
}

// Unroot returns RootZone for the root zone and the name otherwise.
func Unroot(name string) string {
	if strings.Trim(name, ".") == "" {
		return RootZone
	}
	return name
}

func splitCamel(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if isBoundary(runes, i) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	words = append(words, string(runes[start:]))

	// Drop empty words produced by separators already in the input.
	out := words[:0]
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// isBoundary reports whether a new word starts at runes[i].
func isBoundary(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if unicode.IsSpace(r) || unicode.IsSpace(prev) {
		return unicode.IsSpace(r)
	}
	if !unicode.IsUpper(r) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	// "IPAddress": the A starts a word, the P does not. A trailing
	// plural s ("poolIDs") stays with its acronym.
	if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		if runes[i+1] == 's' && (i+2 == len(runes) || !unicode.IsLower(runes[i+2])) {
			return false
		}
		return true
	}
	return false
}

func acronym(word string) string {
	lower := strings.ToLower(word)
	if a, ok := acronyms[lower]; ok {
		return a
	}
	for _, e := range embedded {
		if idx := strings.Index(lower, e.from); idx >= 0 {
			word = word[:idx] + e.to + word[idx+len(e.from):]
			lower = strings.ToLower(word)
		}
	}
	return word
}
