package engine

import (
	"fmt"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

// EffectOutcome is one concrete consequence of applying a motif
// effect. Each target domain gets its own type so consumers can switch
// on the result instead of digging through untyped maps.
type EffectOutcome interface {
	Target() motif.EffectTarget
}

// NPCOutcome adjusts NPC behavior in the affected area.
type NPCOutcome struct {
	Mood      string  `json:"mood"`
	Intensity float64 `json:"intensity"`
}

func (NPCOutcome) Target() motif.EffectTarget { return motif.TargetNPC }

// EventOutcome shifts the frequency of ambient world events.
type EventOutcome struct {
	FrequencyModifier float64 `json:"frequency_modifier"`
	Intensity         float64 `json:"intensity"`
}

func (EventOutcome) Target() motif.EffectTarget { return motif.TargetEvent }

// EnvironmentOutcome colors weather and terrain description.
type EnvironmentOutcome struct {
	Pattern   string  `json:"pattern"`
	Intensity float64 `json:"intensity"`
}

func (EnvironmentOutcome) Target() motif.EffectTarget { return motif.TargetEnvironment }

// QuestOutcome seeds quest generation with a thematic hook.
type QuestOutcome struct {
	Hook      string  `json:"hook"`
	Intensity float64 `json:"intensity"`
}

func (QuestOutcome) Target() motif.EffectTarget { return motif.TargetQuest }

// EconomyOutcome skews prices in the affected markets.
type EconomyOutcome struct {
	PriceModifier float64 `json:"price_modifier"`
	Intensity     float64 `json:"intensity"`
}

func (EconomyOutcome) Target() motif.EffectTarget { return motif.TargetEconomy }

// FactionOutcome raises or lowers tension between factions.
type FactionOutcome struct {
	TensionDelta float64 `json:"tension_delta"`
}

func (FactionOutcome) Target() motif.EffectTarget { return motif.TargetFaction }

// NarrativeOutcome feeds themes and tone into prompt assembly.
type NarrativeOutcome struct {
	Themes []string   `json:"themes"`
	Tone   motif.Tone `json:"tone"`
}

func (NarrativeOutcome) Target() motif.EffectTarget { return motif.TargetNarrative }

// GeneralOutcome is the catch-all for effect types without a dedicated
// domain.
type GeneralOutcome struct {
	EffectType string  `json:"effect_type"`
	Intensity  float64 `json:"intensity"`
}

func (GeneralOutcome) Target() motif.EffectTarget { return motif.TargetGeneral }

// EffectReport is the result of applying one motif's effects.
type EffectReport struct {
	MotifID    string          `json:"motif_id"`
	MotifName  string          `json:"motif_name"`
	Category   motif.Category  `json:"category"`
	Intensity  float64         `json:"intensity"`
	Skipped    bool            `json:"skipped"`
	SkipReason string          `json:"skip_reason,omitempty"`
	Outcomes   []EffectOutcome `json:"outcomes,omitempty"`
}

// ApplyEffects resolves a motif's effects into typed outcomes. Dormant
// motifs are reported as skipped rather than erroring, so a lifecycle
// sweep can call this on every motif it touched.
func (s *Service) ApplyEffects(m *motif.Motif) *EffectReport {
	report := &EffectReport{
		MotifID:   m.ID,
		MotifName: m.Name,
		Category:  m.Category,
		Intensity: m.Intensity,
	}
	if m.Lifecycle == motif.LifecycleDormant {
		report.Skipped = true
		report.SkipReason = "dormant motif"
		return report
	}

	for _, e := range m.Effects {
		report.Outcomes = append(report.Outcomes, s.resolveEffect(m, e))
	}
	return report
}

func (s *Service) resolveEffect(m *motif.Motif, e motif.Effect) EffectOutcome {
	switch e.Target {
	case motif.TargetNPC:
		return NPCOutcome{
			Mood:      string(motif.CategoryTone(m.Category)),
			Intensity: e.Intensity,
		}
	case motif.TargetEvent:
		// A +50% rate at full intensity, scaling down linearly.
		return EventOutcome{
			FrequencyModifier: 1 + e.Intensity/20,
			Intensity:         e.Intensity,
		}
	case motif.TargetEnvironment:
		return EnvironmentOutcome{
			Pattern:   environmentPattern(m.Category),
			Intensity: e.Intensity,
		}
	case motif.TargetQuest:
		hook := string(m.Category)
		if themes := motif.NarrativeThemes([]*motif.Motif{m}); len(themes) > 0 {
			hook = themes[0]
		}
		return QuestOutcome{Hook: hook, Intensity: e.Intensity}
	case motif.TargetFaction:
		return FactionOutcome{TensionDelta: e.Intensity / 2}
	case motif.TargetEconomy:
		// A +50% price swing at full intensity, scaling down linearly.
		return EconomyOutcome{
			PriceModifier: 1 + e.Intensity/20,
			Intensity:     e.Intensity,
		}
	case motif.TargetNarrative:
		return NarrativeOutcome{
			Themes: motif.NarrativeThemes([]*motif.Motif{m}),
			Tone:   motif.CategoryTone(m.Category),
		}
	default:
		return GeneralOutcome{EffectType: e.Type, Intensity: e.Intensity}
	}
}

func environmentPattern(c motif.Category) string {
	switch motif.CategoryTone(c) {
	case motif.ToneDark:
		return "oppressive"
	case motif.ToneLight:
		return "clearing"
	default:
		return "unsettled"
	}
}

// ToneFromMotif renders a motif into a one-line tonal reading for
// prompt assembly, scaled by intensity band.
func ToneFromMotif(m *motif.Motif) string {
	var band string
	switch {
	case m.Intensity >= 7:
		band = "overwhelming"
	case m.Intensity >= 4:
		band = "strong"
	default:
		band = "subtle"
	}

	var mood string
	switch motif.CategoryTone(m.Category) {
	case motif.ToneDark:
		mood = "dark"
	case motif.ToneLight:
		mood = "hopeful"
	default:
		mood = "contemplative"
	}
	return fmt.Sprintf("%s and %s", band, mood)
}

// effectTypesForCategory maps a category to the effect types its
// motifs carry; every category also gets narrative_flavor.
var effectTypesForCategory = map[motif.Category][]string{
	motif.CategoryHope:      {"npc_behavior", "event_frequency"},
	motif.CategoryBetrayal:  {"faction_tension", "relationship_change"},
	motif.CategoryChaos:     {"event_frequency", "weather_pattern"},
	motif.CategoryVengeance: {"npc_behavior", "relationship_change"},
	motif.CategoryFear:      {"npc_behavior", "weather_pattern"},
}

func targetForEffectType(effectType string) motif.EffectTarget {
	switch effectType {
	case "npc_behavior":
		return motif.TargetNPC
	case "weather_pattern":
		return motif.TargetEnvironment
	case "event_frequency":
		return motif.TargetEvent
	case "quest_hook":
		return motif.TargetQuest
	case "faction_tension":
		return motif.TargetFaction
	case "trade_disruption":
		return motif.TargetEconomy
	case "narrative_flavor":
		return motif.TargetNarrative
	default:
		return motif.TargetGeneral
	}
}

// effectsForCategory rolls the effects a generated motif of this
// category and intensity carries. Stronger motifs carry more effects.
func (s *Service) effectsForCategory(category motif.Category, intensity float64) []motif.Effect {
	types := append([]string{"narrative_flavor"}, effectTypesForCategory[category]...)

	count := 1
	switch {
	case intensity > 8:
		count = 3
	case intensity > 5:
		count = 2
	}
	if count > len(types) {
		count = len(types)
	}

	// Sample without replacement.
	pool := make([]string, len(types))
	copy(pool, types)
	effects := make([]motif.Effect, 0, count)
	for i := 0; i < count; i++ {
		j := s.rng.Intn(len(pool))
		et := pool[j]
		pool = append(pool[:j], pool[j+1:]...)
		effects = append(effects, motif.Effect{
			Type:      et,
			Intensity: intensity * s.rng.Uniform(0.8, 1.2),
			Target:    targetForEffectType(et),
		})
	}
	return effects
}
