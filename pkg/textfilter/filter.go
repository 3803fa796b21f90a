// Package textfilter softens narration for family-friendly content
// ratings before it reaches players.
package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps each filtered word to its softened alternative.
// Words with no acceptable stand-in are blanked to "[censored]".
var replacements = map[string]string{
	"fuck":         "fudge",
	"shit":         "shoot",
	"damn":         "dang",
	"hell":         "heck",
	"ass":          "butt",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"cock":         "[censored]",
	"dick":         "jerk",
	"pussy":        "[censored]",
	"tits":         "[censored]",
	"whore":        "[censored]",
	"slut":         "[censored]",
	"motherfucker": "mother-trucker",
	"goddamn":      "gosh-dang",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"badass":       "tough",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douchebag":    "jerk",
}

// Filter rewrites profanity in narration text.
type Filter struct {
	pattern *regexp.Regexp
	titler  cases.Caser
}

// New compiles the filter. Longer words are matched first so compounds
// like "bullshit" are not split by their shorter parts.
func New() *Filter {
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, regexp.QuoteMeta(w))
	}
	// Sort longest-first for correct alternation priority.
	for i := 0; i < len(words); i++ {
		for j := i + 1; j < len(words); j++ {
			if len(words[j]) > len(words[i]) {
				words[i], words[j] = words[j], words[i]
			}
		}
	}
	return &Filter{
		pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`),
		titler:  cases.Title(language.English),
	}
}

// Clean replaces every filtered word with its alternative, preserving
// the match's case shape (upper, title, or lower).
func (f *Filter) Clean(text string) string {
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		replacement, ok := replacements[strings.ToLower(match)]
		if !ok {
			return match
		}
		switch {
		case strings.ToUpper(match) == match && len(match) > 1:
			return strings.ToUpper(replacement)
		case f.titler.String(strings.ToLower(match)) == match:
			return f.titler.String(replacement)
		default:
			return replacement
		}
	})
}

// Contains reports whether the text holds any filtered word.
func (f *Filter) Contains(text string) bool {
	return f.pattern.MatchString(text)
}

// ShouldFilter reports whether a content rating calls for filtering.
func ShouldFilter(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}
