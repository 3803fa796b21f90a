package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

func TestApplyEffectsDormantSkipped(t *testing.T) {
	mgr, _ := testManager(t)

	report := mgr.Service().ApplyEffects(&motif.Motif{
		ID: "d", Name: "Dormant", Category: motif.CategoryFear,
		Lifecycle: motif.LifecycleDormant, Intensity: 5,
		Effects: []motif.Effect{{Type: "npc_behavior", Intensity: 4, Target: motif.TargetNPC}},
	})
	assert.True(t, report.Skipped)
	assert.Equal(t, "dormant motif", report.SkipReason)
	assert.Empty(t, report.Outcomes)
}

func TestApplyEffectsTypedOutcomes(t *testing.T) {
	mgr, _ := testManager(t)

	m := &motif.Motif{
		ID: "m", Name: "Storm of Knives", Category: motif.CategoryBetrayal,
		Lifecycle: motif.LifecycleStable, Intensity: 7,
		Effects: []motif.Effect{
			{Type: "npc_behavior", Intensity: 6, Target: motif.TargetNPC},
			{Type: "event_frequency", Intensity: 5, Target: motif.TargetEvent},
			{Type: "weather_pattern", Intensity: 4, Target: motif.TargetEnvironment},
			{Type: "faction_tension", Intensity: 8, Target: motif.TargetFaction},
			{Type: "narrative_flavor", Intensity: 6, Target: motif.TargetNarrative},
			{Type: "trade_disruption", Intensity: 3, Target: motif.TargetEconomy},
			{Type: "quest_hook", Intensity: 5, Target: motif.TargetQuest},
			{Type: "strange_lights", Intensity: 2, Target: motif.TargetGeneral},
		},
	}
	report := mgr.Service().ApplyEffects(m)
	require.False(t, report.Skipped)
	require.Len(t, report.Outcomes, 8)

	npc, ok := report.Outcomes[0].(NPCOutcome)
	require.True(t, ok)
	assert.Equal(t, "dark", npc.Mood)
	assert.Equal(t, 6.0, npc.Intensity)

	ev, ok := report.Outcomes[1].(EventOutcome)
	require.True(t, ok)
	assert.InDelta(t, 1.25, ev.FrequencyModifier, 0.001)

	env, ok := report.Outcomes[2].(EnvironmentOutcome)
	require.True(t, ok)
	assert.Equal(t, "oppressive", env.Pattern)

	faction, ok := report.Outcomes[3].(FactionOutcome)
	require.True(t, ok)
	assert.Equal(t, 4.0, faction.TensionDelta)

	narrative, ok := report.Outcomes[4].(NarrativeOutcome)
	require.True(t, ok)
	assert.Equal(t, motif.ToneDark, narrative.Tone)
	assert.Contains(t, narrative.Themes, "trust is fragile")

	economy, ok := report.Outcomes[5].(EconomyOutcome)
	require.True(t, ok)
	assert.InDelta(t, 1.15, economy.PriceModifier, 0.001)

	quest, ok := report.Outcomes[6].(QuestOutcome)
	require.True(t, ok)
	assert.Equal(t, "trust is fragile", quest.Hook)

	general, ok := report.Outcomes[7].(GeneralOutcome)
	require.True(t, ok)
	assert.Equal(t, "strange_lights", general.EffectType)

	for i, e := range m.Effects {
		assert.Equal(t, e.Target, report.Outcomes[i].Target())
	}
}

func TestToneFromMotif(t *testing.T) {
	tests := []struct {
		name      string
		category  motif.Category
		intensity float64
		want      string
	}{
		{"overwhelming dark", motif.CategoryBetrayal, 8, "overwhelming and dark"},
		{"strong hopeful", motif.CategoryHope, 5, "strong and hopeful"},
		{"subtle contemplative", motif.CategoryMystery, 2, "subtle and contemplative"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ToneFromMotif(&motif.Motif{Category: tc.category, Intensity: tc.intensity})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEffectsForCategoryCounts(t *testing.T) {
	mgr, _ := testManager(t)
	svc := mgr.Service()

	assert.Len(t, svc.effectsForCategory(motif.CategoryHope, 3), 1)
	assert.Len(t, svc.effectsForCategory(motif.CategoryHope, 6), 2)
	assert.Len(t, svc.effectsForCategory(motif.CategoryHope, 9), 3)

	// Categories without a signature set only carry narrative flavor.
	assert.Len(t, svc.effectsForCategory(motif.CategoryMystery, 9), 1)
}

func TestEffectsForCategoryTargets(t *testing.T) {
	mgr, _ := testManager(t)

	effects := mgr.Service().effectsForCategory(motif.CategoryFear, 9)
	require.Len(t, effects, 3)

	seen := map[string]struct{}{}
	for _, e := range effects {
		_, dup := seen[e.Type]
		assert.False(t, dup, "effects are sampled without replacement")
		seen[e.Type] = struct{}{}

		assert.Equal(t, targetForEffectType(e.Type), e.Target)
		assert.GreaterOrEqual(t, e.Intensity, 9*0.8)
		assert.Less(t, e.Intensity, 9*1.2)
	}
	assert.Contains(t, seen, "narrative_flavor")
}

func TestTargetForEffectType(t *testing.T) {
	assert.Equal(t, motif.TargetNPC, targetForEffectType("npc_behavior"))
	assert.Equal(t, motif.TargetEnvironment, targetForEffectType("weather_pattern"))
	assert.Equal(t, motif.TargetEvent, targetForEffectType("event_frequency"))
	assert.Equal(t, motif.TargetFaction, targetForEffectType("faction_tension"))
	assert.Equal(t, motif.TargetNarrative, targetForEffectType("narrative_flavor"))
	assert.Equal(t, motif.TargetGeneral, targetForEffectType("relationship_change"))
}
