package motif

import "fmt"

// ChaosTable is the fixed table of narrative chaos events. Chaos rolls
// pick uniformly from these entries.
var ChaosTable = []string{
	"NPC betrays a faction or personal goal",
	"Player receives a divine omen",
	"NPC vanishes mysteriously",
	"Corrupted prophecy appears in a temple or vision",
	"Artifact or item changes hands unexpectedly",
	"NPC's child arrives with a claim",
	"Villain resurfaces (real or false)",
	"Time skip or memory blackout (~5 minutes)",
	"PC is blamed for a crime in a new city",
	"Ally requests an impossible favor",
	"Magical item begins to misbehave",
	"Enemy faction completes objective offscreen",
	"False flag sent from another region",
	"NPC becomes hostile based on misinformation",
	"Rumor spreads about a player betrayal",
	"PC has a surreal dream altering perception",
	"Secret faction is revealed through slip-up",
	"NPC becomes obsessed with the PC",
	"Town leader is assassinated",
	"Prophecy misidentifies the chosen one",
}

// themePhrases maps categories to their signature narrative phrases.
var themePhrases = map[Category]string{
	CategoryBetrayal: "trust is fragile",
	CategoryChaos:    "unpredictability and disorder",
	CategoryDeath:    "mortality and loss",
	CategoryHope:     "optimism despite adversity",
	CategoryFear:     "lurking dangers",
	CategoryPower:    "dominance and control",
}

// ThemePhrase returns the narrative phrase for a category, or "" when
// the category has no signature phrase.
func ThemePhrase(c Category) string {
	return themePhrases[c]
}

// NarrativeThemes extracts theme phrases from a motif list. Categories
// with a signature phrase contribute it; any motif of intensity >= 7
// adds "overwhelming <category>", and >= 4 adds "prominent <category>".
func NarrativeThemes(motifs []*Motif) []string {
	var themes []string
	for _, m := range motifs {
		if phrase, ok := themePhrases[m.Category]; ok {
			themes = append(themes, phrase)
		}
		switch {
		case m.Intensity >= 7:
			themes = append(themes, fmt.Sprintf("overwhelming %s", m.Category))
		case m.Intensity >= 4:
			themes = append(themes, fmt.Sprintf("prominent %s", m.Category))
		}
	}
	return themes
}

var toneDescriptions = map[Category]string{
	CategoryBetrayal:  "atmosphere of mistrust and treachery",
	CategoryChaos:     "sense of unpredictability and disorder",
	CategoryHope:      "feeling of optimism despite challenges",
	CategoryFear:      "undercurrent of dread and apprehension",
	CategoryVengeance: "drive for retribution",
}

// ToneDescription renders the world-tone sentence for a motif, scaled
// by its intensity.
func ToneDescription(m *Motif) string {
	var word string
	switch {
	case m.Intensity >= 7:
		word = "overwhelming"
	case m.Intensity >= 5:
		word = "strong"
	case m.Intensity >= 3:
		word = "moderate"
	default:
		word = "subtle"
	}
	if desc, ok := toneDescriptions[m.Category]; ok {
		return fmt.Sprintf("An %s %s", word, desc)
	}
	return fmt.Sprintf("An %s manifestation of %s", word, m.Category)
}

// Tone is the emotional coloration a category lends a scene.
type Tone string

const (
	ToneDark    Tone = "dark"
	ToneLight   Tone = "light"
	ToneNeutral Tone = "neutral"
)

var darkCategories = map[Category]struct{}{
	CategoryBetrayal: {}, CategoryChaos: {}, CategoryCollapse: {},
	CategoryDeath: {}, CategoryDeception: {}, CategoryFear: {},
	CategoryFutility: {}, CategoryGrief: {}, CategoryGuilt: {},
	CategoryIsolation: {}, CategoryMadness: {}, CategoryObsession: {},
	CategoryParanoia: {}, CategoryRegret: {}, CategoryVengeance: {},
	CategoryWar: {},
}

var lightCategories = map[Category]struct{}{
	CategoryAscension: {}, CategoryFaith: {}, CategoryHope: {},
	CategoryInnocence: {}, CategoryJustice: {}, CategoryLoyalty: {},
	CategoryPeace: {}, CategoryProtection: {}, CategoryRebirth: {},
	CategoryRedemption: {}, CategoryUnity: {},
}

// CategoryTone classifies a category as dark, light, or neutral.
func CategoryTone(c Category) Tone {
	if _, ok := darkCategories[c]; ok {
		return ToneDark
	}
	if _, ok := lightCategories[c]; ok {
		return ToneLight
	}
	return ToneNeutral
}

// Direction is the narrative trajectory a category implies.
type Direction string

const (
	DirectionAscending  Direction = "ascending"
	DirectionDescending Direction = "descending"
	DirectionSteady     Direction = "steady"
)

var ascendingCategories = map[Category]struct{}{
	CategoryAscension: {}, CategoryHope: {}, CategoryRebirth: {},
	CategoryRedemption: {}, CategoryRevelation: {}, CategoryTransformation: {},
	CategoryUnity: {},
}

var descendingCategories = map[Category]struct{}{
	CategoryBetrayal: {}, CategoryCollapse: {}, CategoryDeath: {},
	CategoryFutility: {}, CategoryGrief: {}, CategoryIsolation: {},
	CategoryMadness: {}, CategoryWar: {},
}

// CategoryDirection classifies the trajectory a category pushes the
// story toward.
func CategoryDirection(c Category) Direction {
	if _, ok := ascendingCategories[c]; ok {
		return DirectionAscending
	}
	if _, ok := descendingCategories[c]; ok {
		return DirectionDescending
	}
	return DirectionSteady
}

var categoryDescriptors = map[Category][]string{
	CategoryBetrayal: {"whispered secrets", "sidelong glances", "broken promises"},
	CategoryChaos:    {"swirling energies", "crackling disruptions", "sudden changes"},
	CategoryDeath:    {"withering shadows", "cold silence", "fading echoes"},
	CategoryHope:     {"warm glimmers", "gentle breezes", "brightening horizons"},
	CategoryFear:     {"creeping shadows", "ominous sounds", "chilling presences"},
	CategoryPower:    {"commanding presence", "crackling energy", "bending reality"},
}

// Descriptors returns evocative sensory phrases for a category.
func Descriptors(c Category) []string {
	return categoryDescriptors[c]
}

// OpposingPairs lists category pairs that conflict narratively when
// both are active in the same space.
var OpposingPairs = [][2]Category{
	{CategoryHope, CategoryFutility},
	{CategoryPeace, CategoryChaos},
	{CategoryTruth, CategoryDeception},
	{CategoryJustice, CategoryBetrayal},
	{CategoryUnity, CategoryIsolation},
	{CategoryRedemption, CategoryVengeance},
	{CategoryInnocence, CategoryTemptation},
	{CategoryAscension, CategoryCollapse},
}

// Opposed reports whether two categories form an opposing pair.
func Opposed(a, b Category) bool {
	for _, p := range OpposingPairs {
		if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
			return true
		}
	}
	return false
}

// relatedCategories seeds the thematic adjacency graph. Reverse edges
// are inferred at init so progression can run in either direction.
var relatedCategories = map[Category][]Category{
	CategoryHope:       {CategoryUnity, CategoryRebirth, CategoryTransformation},
	CategoryBetrayal:   {CategoryVengeance, CategoryRegret, CategoryRedemption},
	CategoryChaos:      {CategoryCollapse, CategoryMadness, CategoryTransformation},
	CategoryVengeance:  {CategoryJustice, CategoryDeath, CategoryGuilt},
	CategoryFear:       {CategoryParanoia, CategoryObsession, CategoryDefiance},
	CategoryRevelation: {CategoryTruth, CategoryTransformation, CategoryRedemption},
}

var adjacency = func() map[Category][]Category {
	m := make(map[Category][]Category, len(relatedCategories)*2)
	seen := make(map[Category]map[Category]struct{})
	add := func(from, to Category) {
		if seen[from] == nil {
			seen[from] = make(map[Category]struct{})
		}
		if _, dup := seen[from][to]; dup {
			return
		}
		seen[from][to] = struct{}{}
		m[from] = append(m[from], to)
	}
	for _, from := range Categories {
		for _, to := range relatedCategories[from] {
			add(from, to)
			add(to, from)
		}
	}
	return m
}()

// RelatedCategories returns the thematic neighbors of a category, in a
// stable order. Categories outside the adjacency graph return nil.
func RelatedCategories(c Category) []Category {
	return adjacency[c]
}
