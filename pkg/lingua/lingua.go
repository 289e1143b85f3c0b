// Package lingua derives display metadata from type and relation names:
// singular/plural/slug forms for entity types and verb conjugations for
// relation types. All functions are pure and deterministic; the store
// invokes them only to auto-fill metadata the caller left blank, so they
// are heuristics, not correctness requirements.
package lingua

import (
	"strings"
	"unicode"
)

// Forms holds the derived display forms of an entity-type name.
type Forms struct {
	Singular string
	Plural   string
	Slug     string
}

// Conjugation holds the derived verb forms of a relation name plus the
// reverse-reference field names built from the past form.
type Conjugation struct {
	Imperative     string
	Present        string
	Gerund         string
	Past           string
	PastParticiple string
	ByField        string
	AtField        string
}

// irregularPlurals maps lowercase singulars to their plural forms.
var irregularPlurals = map[string]string{
	"person":   "people",
	"child":    "children",
	"man":      "men",
	"woman":    "women",
	"foot":     "feet",
	"tooth":    "teeth",
	"mouse":    "mice",
	"goose":    "geese",
	"datum":    "data",
	"medium":   "media",
	"index":    "indices",
	"status":   "statuses",
	"sheep":    "sheep",
	"fish":     "fish",
	"series":   "series",
	"species":  "species",
	"analysis": "analyses",
}

// irregularPasts maps lowercase verbs whose past form the suffix rules
// get wrong.
var irregularPasts = map[string]string{
	"send":  "sent",
	"buy":   "bought",
	"sell":  "sold",
	"make":  "made",
	"take":  "took",
	"give":  "gave",
	"get":   "got",
	"run":   "ran",
	"write": "wrote",
	"read":  "read",
	"see":   "saw",
	"do":    "did",
	"go":    "went",
	"have":  "had",
	"hold":  "held",
	"keep":  "kept",
	"leave": "left",
	"pay":   "paid",
	"put":   "put",
	"set":   "set",
}

// irregularParticiples maps verbs whose past participle differs from the
// simple past.
var irregularParticiples = map[string]string{
	"take":  "taken",
	"give":  "given",
	"get":   "gotten",
	"write": "written",
	"see":   "seen",
	"do":    "done",
	"go":    "gone",
	"run":   "run",
}

// Derive produces the singular, plural, and slug display forms of an
// entity-type name. Name casing is preserved in the singular; plural and
// slug derivation work on the lowercase form.
func Derive(name string) Forms {
	return Forms{
		Singular: name,
		Plural:   Pluralize(name),
		Slug:     Slugify(name),
	}
}

// Pluralize returns the English plural of a noun.
func Pluralize(noun string) string {
	if noun == "" {
		return ""
	}
	lower := strings.ToLower(noun)
	if p, ok := irregularPlurals[lower]; ok {
		return matchCase(noun, p)
	}

	switch {
	case hasAnySuffix(lower, "s", "x", "z", "ch", "sh"):
		return noun + "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(rune(lower[len(lower)-2])):
		return noun[:len(noun)-1] + "ies"
	case strings.HasSuffix(lower, "fe"):
		return noun[:len(noun)-2] + "ves"
	case strings.HasSuffix(lower, "f"):
		return noun[:len(noun)-1] + "ves"
	default:
		return noun + "s"
	}
}

// Slugify converts a name to a lowercase hyphenated identifier: camel-case
// boundaries become hyphens, runs of non-alphanumerics collapse to one
// hyphen.
func Slugify(name string) string {
	var b strings.Builder
	prevDash := true // suppress a leading dash
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && !prevDash && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Conjugate produces the five verb forms of a relation name and the
// reverse-reference field names (<past>By, <past>At) built from the past
// form.
func Conjugate(verb string) Conjugation {
	lower := strings.ToLower(verb)
	past := pastOf(lower)
	participle := past
	if p, ok := irregularParticiples[lower]; ok {
		participle = p
	}
	c := Conjugation{
		Imperative:     lower,
		Present:        presentOf(lower),
		Gerund:         gerundOf(lower),
		Past:           past,
		PastParticiple: participle,
	}
	c.ByField = past + "By"
	c.AtField = past + "At"
	return c
}

func presentOf(verb string) string {
	switch {
	case hasAnySuffix(verb, "s", "x", "z", "ch", "sh"):
		return verb + "es"
	case strings.HasSuffix(verb, "y") && len(verb) > 1 && !isVowel(rune(verb[len(verb)-2])):
		return verb[:len(verb)-1] + "ies"
	default:
		return verb + "s"
	}
}

func gerundOf(verb string) string {
	switch {
	case strings.HasSuffix(verb, "ie"):
		return verb[:len(verb)-2] + "ying"
	case strings.HasSuffix(verb, "e") && !strings.HasSuffix(verb, "ee"):
		return verb[:len(verb)-1] + "ing"
	case shouldDoubleFinal(verb):
		return verb + string(verb[len(verb)-1]) + "ing"
	default:
		return verb + "ing"
	}
}

func pastOf(verb string) string {
	if p, ok := irregularPasts[verb]; ok {
		return p
	}
	switch {
	case strings.HasSuffix(verb, "e"):
		return verb + "d"
	case strings.HasSuffix(verb, "y") && len(verb) > 1 && !isVowel(rune(verb[len(verb)-2])):
		return verb[:len(verb)-1] + "ied"
	case shouldDoubleFinal(verb):
		return verb + string(verb[len(verb)-1]) + "ed"
	default:
		return verb + "ed"
	}
}

// shouldDoubleFinal reports whether a short verb ends in a
// consonant-vowel-consonant pattern that doubles its final letter
// ("tag" becomes "tagged"). w, x, and y never double.
func shouldDoubleFinal(verb string) bool {
	if len(verb) < 3 {
		return false
	}
	last := rune(verb[len(verb)-1])
	mid := rune(verb[len(verb)-2])
	first := rune(verb[len(verb)-3])
	if last == 'w' || last == 'x' || last == 'y' {
		return false
	}
	// Only double single-syllable verbs; longer words usually stress an
	// earlier syllable, and the heuristic stops being worth it.
	if len(verb) > 4 {
		return false
	}
	return !isVowel(last) && isVowel(mid) && !isVowel(first)
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// matchCase makes the derived form follow the source's leading-letter
// casing so "Person" pluralizes to "People", not "people".
func matchCase(source, derived string) string {
	if source == "" || derived == "" {
		return derived
	}
	if unicode.IsUpper(rune(source[0])) {
		return strings.ToUpper(derived[:1]) + derived[1:]
	}
	return derived
}
