package motif

import (
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Adjectives grouped by category, used when generating motif names.
var categoryAdjectives = map[Category][]string{
	CategoryAscension:  {"rising", "uplifting", "elevating", "transcendent", "soaring", "divine"},
	CategoryBetrayal:   {"treacherous", "faithless", "deceiving", "duplicitous", "false", "broken"},
	CategoryChaos:      {"unpredictable", "disordered", "tumultuous", "wild", "anarchic", "frenzied"},
	CategoryCollapse:   {"crumbling", "falling", "declining", "ruinous", "deteriorating", "failing"},
	CategoryCompulsion: {"driving", "compelling", "irresistible", "forcing", "urgent", "consuming"},
	CategoryControl:    {"dominating", "commanding", "restraining", "governing", "directing", "binding"},
	CategoryDeath:      {"morbid", "deadly", "final", "terminal", "fatal", "mortal"},
	CategoryDeception:  {"misleading", "illusory", "false", "deceptive", "cunning", "secretive"},
	CategoryDefiance:   {"rebellious", "resistant", "defiant", "opposing", "insurgent", "revolutionary"},
	CategoryDesire:     {"yearning", "longing", "passionate", "wanting", "craving", "coveting"},
	CategoryDestiny:    {"fated", "destined", "predetermined", "inevitable", "prophetic", "chosen"},
	CategoryEcho:       {"resonant", "repeating", "reverberating", "haunting", "lingering", "persistent"},
	CategoryFear:       {"terrifying", "frightening", "dreadful", "menacing", "ominous", "threatening"},
	CategoryHope:       {"hopeful", "optimistic", "bright", "promising", "inspiring", "uplifting"},
	CategoryMadness:    {"insane", "deranged", "frenzied", "chaotic", "unhinged", "wild"},
	CategoryPower:      {"mighty", "powerful", "dominant", "supreme", "overwhelming", "potent"},
	CategorySacrifice:  {"sacrificial", "noble", "selfless", "devoted", "giving", "surrendering"},
	CategoryVengeance:  {"vengeful", "retributive", "wrathful", "punishing", "vindictive", "avenging"},
}

var fallbackAdjectives = []string{"mysterious", "strange", "unknown", "enigmatic"}

// Nouns grouped by scope, used when generating motif names.
var scopeNouns = map[Scope][]string{
	ScopeGlobal:   {"world", "era", "age", "cosmos", "realm", "existence", "reality", "universe"},
	ScopeRegional: {"lands", "realm", "territory", "domain", "kingdom", "province", "region", "expanse"},
	ScopeLocal:    {"sanctuary", "grounds", "vicinity", "territory", "enclave", "haven", "locale", "district"},
}

var (
	plainPrefixes  = []string{"The", "A"}
	ornatePrefixes = []string{"The Great", "The Ancient", "The Sacred", "The Eternal"}
)

// GenerateName builds a name like "The Treacherous Kingdom" from the
// category's adjective pool and the scope's noun pool. Ornate prefixes
// appear roughly one time in five.
func GenerateName(rng *rand.Rand, category Category, scope Scope) string {
	adjectives, ok := categoryAdjectives[category]
	if !ok {
		adjectives = fallbackAdjectives
	}
	nouns, ok := scopeNouns[scope]
	if !ok {
		nouns = []string{"domain", "area", "space", "zone"}
	}
	prefixes := plainPrefixes
	if rng.Float64() >= 0.8 {
		prefixes = ornatePrefixes
	}
	prefix := prefixes[rng.Intn(len(prefixes))]
	adjective := titleCaser.String(adjectives[rng.Intn(len(adjectives))])
	noun := titleCaser.String(nouns[rng.Intn(len(nouns))])
	return fmt.Sprintf("%s %s %s", prefix, adjective, noun)
}

var categoryDescriptions = map[Category]string{
	CategoryAscension:  "A %s sense of rising toward something greater permeates the air.",
	CategoryBetrayal:   "An %s atmosphere of broken trust and lurking deception weighs heavily.",
	CategoryChaos:      "A %s period of disorder and unpredictability disrupts the natural order.",
	CategoryCollapse:   "An %s feeling of decline and inevitable deterioration spreads.",
	CategoryCompulsion: "A %s force drives actions beyond conscious control or reason.",
	CategoryControl:    "An %s presence of dominance and restraint shapes all interactions.",
	CategoryDeath:      "A %s shadow of mortality and finality hangs over everything.",
	CategoryDeception:  "An %s web of lies and illusions obscures the truth.",
	CategoryDefiance:   "A %s spirit of rebellion and resistance stirs within hearts.",
	CategoryDesire:     "An %s current of longing and unfulfilled yearning flows through souls.",
	CategoryDestiny:    "An %s sense of fate and inevitable purpose guides events.",
	CategoryEcho:       "A %s resonance of past events reverberates through time.",
	CategoryFear:       "An %s aura of dread and anxiety permeates every shadow.",
	CategoryHope:       "A %s light of optimism and possibility shines through darkness.",
	CategoryMadness:    "An %s descent into chaos and irrationality grips minds.",
	CategoryPower:      "An %s display of might and dominance shapes reality itself.",
	CategorySacrifice:  "A %s call to noble surrender and selfless giving emerges.",
	CategoryVengeance:  "An %s thirst for retribution and justice demands satisfaction.",
}

var scopeModifiers = map[Scope]string{
	ScopeGlobal:   "This cosmic influence touches every corner of existence, reshaping the fundamental nature of reality.",
	ScopeRegional: "This regional force affects the character and destiny of entire kingdoms and vast territories.",
	ScopeLocal:    "This localized presence influences the immediate area, touching those who dwell or pass through.",
}

func intensityWord(intensity float64) string {
	switch {
	case intensity >= 8:
		return "overwhelming"
	case intensity >= 6:
		return "powerful"
	case intensity >= 4:
		return "moderate"
	case intensity >= 2:
		return "subtle"
	default:
		return "faint"
	}
}

// GenerateDescription builds prose describing a motif's presence in the
// world, scaled by intensity and scope.
func GenerateDescription(category Category, scope Scope, intensity float64) string {
	var b strings.Builder
	if tmpl, ok := categoryDescriptions[category]; ok {
		fmt.Fprintf(&b, tmpl, intensityWord(intensity))
	} else {
		fmt.Fprintf(&b, "A %s manifestation of %s emerges in the world.", intensityWord(intensity), category)
	}
	if mod, ok := scopeModifiers[scope]; ok {
		b.WriteString(" ")
		b.WriteString(mod)
	}
	switch {
	case intensity >= 7:
		b.WriteString(" The effect is so potent that it may fundamentally alter the nature of those it touches.")
	case intensity >= 5:
		b.WriteString(" Its presence is unmistakable and influences the thoughts and actions of all nearby.")
	case intensity >= 3:
		b.WriteString(" Those sensitive to such forces will notice its subtle but persistent influence.")
	default:
		b.WriteString(" Only the most perceptive individuals might detect its gentle touch.")
	}
	return b.String()
}

// GenerateDuration rolls a realistic duration in days. Global motifs
// outlast regional ones, regional outlast local, and higher intensity
// generally means longer life. Always at least one day.
func GenerateDuration(rng *rand.Rand, scope Scope, intensity float64) int {
	var base, variation int
	switch scope {
	case ScopeGlobal:
		base = int(20 + intensity*4)
		variation = rng.Intn(15) - 7
	case ScopeRegional:
		base = int(intensity * (2 + intensity/2))
		variation = rng.Intn(7) - 3
	default:
		base = int(intensity * (1 + intensity/3))
		variation = rng.Intn(5) - 2
	}
	if d := base + variation; d > 1 {
		return d
	}
	return 1
}

// SanitizeName collapses whitespace, title-cases, and truncates
// over-long names. Empty input stays empty so callers can fall back
// to a generated name.
func SanitizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	name = titleCaser.String(name)
	if len(name) > 100 {
		name = name[:97] + "..."
	}
	return name
}

// NormalizeDescription collapses whitespace, guarantees terminal
// punctuation, and truncates over-long descriptions.
func NormalizeDescription(desc string) string {
	desc = strings.Join(strings.Fields(desc), " ")
	if desc == "" {
		return ""
	}
	if !strings.HasSuffix(desc, ".") && !strings.HasSuffix(desc, "!") && !strings.HasSuffix(desc, "?") {
		desc += "."
	}
	if len(desc) > 500 {
		desc = desc[:497] + "..."
	}
	return desc
}
