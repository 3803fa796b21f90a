package motif

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Synthesis blends a set of motifs into one narrative reading.
type Synthesis struct {
	Theme            string    `json:"theme"`
	Intensity        float64   `json:"intensity"`
	Tone             Tone      `json:"tone"`
	Direction        Direction `json:"narrative_direction"`
	Descriptors      []string  `json:"descriptors"`
	Conflicts        bool      `json:"conflicts"`
	SynthesisSummary string    `json:"synthesis_summary"`
}

// Synthesize blends active motifs into a single thematic reading. The
// dominant motif sets the theme; tone and direction are carried by
// intensity-weighted vote. An empty input yields the neutral synthesis.
func Synthesize(motifs []*Motif) Synthesis {
	if len(motifs) == 0 {
		return Synthesis{
			Theme:            "neutral",
			Intensity:        0,
			Tone:             ToneNeutral,
			Direction:        DirectionSteady,
			Descriptors:      []string{},
			Conflicts:        false,
			SynthesisSummary: "No active motifs shaping the narrative.",
		}
	}

	dominant := Dominant(motifs)

	var total float64
	toneWeights := map[Tone]float64{}
	directionWeights := map[Direction]float64{}
	var descriptors []string
	seen := map[string]struct{}{}
	for _, m := range motifs {
		total += m.Intensity
		toneWeights[CategoryTone(m.Category)] += m.Intensity
		directionWeights[CategoryDirection(m.Category)] += m.Intensity
		for _, d := range Descriptors(m.Category) {
			if _, dup := seen[d]; !dup {
				seen[d] = struct{}{}
				descriptors = append(descriptors, d)
			}
		}
	}

	tone := ToneNeutral
	if toneWeights[ToneDark] > toneWeights[ToneLight] && toneWeights[ToneDark] > toneWeights[ToneNeutral] {
		tone = ToneDark
	} else if toneWeights[ToneLight] > toneWeights[ToneDark] && toneWeights[ToneLight] > toneWeights[ToneNeutral] {
		tone = ToneLight
	}

	direction := DirectionSteady
	if directionWeights[DirectionAscending] > directionWeights[DirectionDescending] &&
		directionWeights[DirectionAscending] > directionWeights[DirectionSteady] {
		direction = DirectionAscending
	} else if directionWeights[DirectionDescending] > directionWeights[DirectionAscending] &&
		directionWeights[DirectionDescending] > directionWeights[DirectionSteady] {
		direction = DirectionDescending
	}

	conflicts := HasConflicts(motifs)

	avg := total / float64(len(motifs))
	summary := fmt.Sprintf("%d motifs blend into a %s narrative dominated by %s.",
		len(motifs), tone, dominant.Category)
	if conflicts {
		summary += " Opposing themes create dramatic tension."
	}

	return Synthesis{
		Theme:            string(dominant.Category),
		Intensity:        math.Round(avg*100) / 100,
		Tone:             tone,
		Direction:        direction,
		Descriptors:      descriptors,
		Conflicts:        conflicts,
		SynthesisSummary: summary,
	}
}

// Dominant returns the highest-intensity motif. Ties break toward the
// lexically lowest id so repeated calls over the same set agree.
func Dominant(motifs []*Motif) *Motif {
	var best *Motif
	for _, m := range motifs {
		if best == nil || m.Intensity > best.Intensity ||
			(m.Intensity == best.Intensity && m.ID < best.ID) {
			best = m
		}
	}
	return best
}

// HasConflicts reports whether any two motifs carry opposing categories.
func HasConflicts(motifs []*Motif) bool {
	for i, a := range motifs {
		for _, b := range motifs[i+1:] {
			if Opposed(a.Category, b.Category) {
				return true
			}
		}
	}
	return false
}

// ConflictPair names two motifs whose categories oppose each other.
type ConflictPair struct {
	A *Motif `json:"motif_a"`
	B *Motif `json:"motif_b"`
}

// DetectConflicts returns every opposing pair among the given motifs.
func DetectConflicts(motifs []*Motif) []ConflictPair {
	var pairs []ConflictPair
	for i, a := range motifs {
		for _, b := range motifs[i+1:] {
			if Opposed(a.Category, b.Category) {
				pairs = append(pairs, ConflictPair{A: a, B: b})
			}
		}
	}
	return pairs
}

// Blend summarizes which motifs shape a scene and which one leads.
type Blend struct {
	DominantMotif     *Motif   `json:"dominant_motif"`
	ContributingNames []string `json:"contributing_motifs"`
	MotifCount        int      `json:"motif_count"`
}

// BlendMotifs picks the dominant motif and lists the rest by name,
// strongest first. Returns nil when no motifs are given.
func BlendMotifs(motifs []*Motif) *Blend {
	if len(motifs) == 0 {
		return nil
	}
	sorted := make([]*Motif, len(motifs))
	copy(sorted, motifs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Intensity != sorted[j].Intensity {
			return sorted[i].Intensity > sorted[j].Intensity
		}
		return sorted[i].ID < sorted[j].ID
	})
	names := make([]string, 0, len(sorted)-1)
	for _, m := range sorted[1:] {
		names = append(names, m.Name)
	}
	return &Blend{
		DominantMotif:     sorted[0],
		ContributingNames: names,
		MotifCount:        len(sorted),
	}
}

// Spread is the weakened influence of a motif at some distance from
// its anchor.
type Spread struct {
	MotifID            string   `json:"motif_id"`
	Category           Category `json:"category"`
	Scope              Scope    `json:"scope"`
	Distance           float64  `json:"distance"`
	OriginalIntensity  float64  `json:"original_intensity"`
	EffectiveIntensity float64  `json:"effective_intensity"`
	DecayFactor        float64  `json:"decay_factor"`
	Significant        bool     `json:"is_significant"`
}

// DefaultMaxDistance is the baseline range of motif influence before
// scope multipliers are applied.
const DefaultMaxDistance = 100.0

// SignificanceFloor is the effective intensity below which a motif's
// influence at a point is ignored.
const SignificanceFloor = 1.0

// CalculateSpread computes a motif's influence at a given distance.
// Distance is divided by the scope multiplier, so local motifs fade in
// half the range and global motifs reach twice as far. Decay is linear
// to zero at the effective maximum. Returns nil when the influence
// falls at or below the significance floor.
func CalculateSpread(m *Motif, distance, maxDistance float64) *Spread {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	effectiveDistance := distance / m.Scope.DecayMultiplier()
	if effectiveDistance > maxDistance {
		return nil
	}
	decay := math.Max(0, 1-effectiveDistance/maxDistance)
	effective := m.Intensity * decay
	if effective <= SignificanceFloor {
		return nil
	}
	return &Spread{
		MotifID:            m.ID,
		Category:           m.Category,
		Scope:              m.Scope,
		Distance:           distance,
		OriginalIntensity:  m.Intensity,
		EffectiveIntensity: effective,
		DecayFactor:        decay,
		Significant:        true,
	}
}

// Distance is the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// EntityInfluence describes how one themed pressure steers an entity,
// rendered for prompt assembly.
type EntityInfluence struct {
	Theme       string  `json:"theme"`
	Strength    float64 `json:"strength"`
	Influence   string  `json:"influence"`
	Description string  `json:"description"`
}

// InfluenceFor renders an entity motif weight into prompt-ready text.
// Weights of 4+ dominate, 2+ influence, below that subtly affect.
func InfluenceFor(em EntityMotif) EntityInfluence {
	var level, verb string
	switch {
	case em.Weight >= 4:
		level, verb = "strong", "dominates"
	case em.Weight >= 2:
		level, verb = "moderate", "influences"
	default:
		level, verb = "subtle", "subtly affects"
	}
	return EntityInfluence{
		Theme:     em.Theme,
		Strength:  em.Weight,
		Influence: level,
		Description: fmt.Sprintf("The %s theme %s this entity's behavior and perspective.",
			strings.ToLower(em.Theme), verb),
	}
}
