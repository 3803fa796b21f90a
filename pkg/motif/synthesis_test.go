package motif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeEmpty(t *testing.T) {
	s := Synthesize(nil)
	assert.Equal(t, "neutral", s.Theme)
	assert.Equal(t, 0.0, s.Intensity)
	assert.Equal(t, ToneNeutral, s.Tone)
	assert.Equal(t, DirectionSteady, s.Direction)
	assert.Empty(t, s.Descriptors)
	assert.False(t, s.Conflicts)
	assert.Contains(t, s.SynthesisSummary, "No active motifs")
}

func TestSynthesizeDominantTheme(t *testing.T) {
	motifs := []*Motif{
		{ID: "1", Name: "Chaos Rising", Category: CategoryChaos, Scope: ScopeRegional, Intensity: 5},
		{ID: "2", Name: "Hope Returns", Category: CategoryHope, Scope: ScopeLocal, Intensity: 4},
	}
	s := Synthesize(motifs)
	assert.Equal(t, "chaos", s.Theme)
	assert.Equal(t, 4.5, s.Intensity)
	assert.Equal(t, ToneDark, s.Tone)
	assert.NotEmpty(t, s.Descriptors)
	assert.False(t, s.Conflicts)
}

func TestSynthesizeDetectsConflicts(t *testing.T) {
	motifs := []*Motif{
		{ID: "1", Category: CategoryPeace, Scope: ScopeRegional, Intensity: 5},
		{ID: "2", Category: CategoryChaos, Scope: ScopeRegional, Intensity: 4},
	}
	s := Synthesize(motifs)
	assert.True(t, s.Conflicts)
	assert.Contains(t, s.SynthesisSummary, "tension")
}

func TestDominantTieBreak(t *testing.T) {
	motifs := []*Motif{
		{ID: "bbb", Intensity: 7},
		{ID: "aaa", Intensity: 7},
		{ID: "ccc", Intensity: 3},
	}
	d := Dominant(motifs)
	require.NotNil(t, d)
	assert.Equal(t, "aaa", d.ID)
}

func TestBlendMotifs(t *testing.T) {
	assert.Nil(t, BlendMotifs(nil))

	motifs := []*Motif{
		{ID: "1", Name: "Fading Echo", Intensity: 2},
		{ID: "2", Name: "War Drums", Intensity: 8},
		{ID: "3", Name: "Quiet Dread", Intensity: 5},
	}
	b := BlendMotifs(motifs)
	require.NotNil(t, b)
	assert.Equal(t, "War Drums", b.DominantMotif.Name)
	assert.Equal(t, []string{"Quiet Dread", "Fading Echo"}, b.ContributingNames)
	assert.Equal(t, 3, b.MotifCount)
}

func TestCalculateSpread(t *testing.T) {
	local := &Motif{ID: "l", Category: CategoryChaos, Scope: ScopeLocal, Intensity: 5}

	// Local reach is halved: distance 20 becomes effective 40.
	s := CalculateSpread(local, 20, 100)
	require.NotNil(t, s)
	assert.InDelta(t, 3.0, s.EffectiveIntensity, 0.0001)
	assert.InDelta(t, 0.6, s.DecayFactor, 0.0001)
	assert.True(t, s.Significant)

	// Beyond the halved range.
	assert.Nil(t, CalculateSpread(local, 60, 100))

	// Within range but below the significance floor.
	assert.Nil(t, CalculateSpread(local, 49, 100))

	// Global reach is doubled: distance 150 is effective 75.
	global := &Motif{ID: "g", Category: CategoryWar, Scope: ScopeGlobal, Intensity: 6}
	gs := CalculateSpread(global, 150, 100)
	require.NotNil(t, gs)
	assert.Equal(t, ScopeGlobal, gs.Scope)
	assert.Greater(t, gs.EffectiveIntensity, 0.0)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(0, 0, 3, 4))
	assert.Equal(t, 0.0, Distance(10, 20, 10, 20))
}

func TestDetectConflicts(t *testing.T) {
	motifs := []*Motif{
		{ID: "1", Category: CategoryHope},
		{ID: "2", Category: CategoryFutility},
		{ID: "3", Category: CategoryMystery},
	}
	pairs := DetectConflicts(motifs)
	require.Len(t, pairs, 1)
	assert.Equal(t, "1", pairs[0].A.ID)
	assert.Equal(t, "2", pairs[0].B.ID)

	assert.Empty(t, DetectConflicts(motifs[2:]))
}

func TestInfluenceFor(t *testing.T) {
	tests := []struct {
		weight float64
		level  string
	}{
		{5, "strong"},
		{4, "strong"},
		{3, "moderate"},
		{2, "moderate"},
		{1, "subtle"},
	}
	for _, tt := range tests {
		inf := InfluenceFor(EntityMotif{Theme: "Fear", Weight: tt.weight})
		assert.Equal(t, tt.level, inf.Influence)
		assert.Contains(t, inf.Description, "fear")
	}
}

func TestNarrativeThemes(t *testing.T) {
	motifs := []*Motif{
		{Category: CategoryDeath, Intensity: 8},
		{Category: CategoryHope, Intensity: 5},
		{Category: CategoryMystery, Intensity: 2},
	}
	themes := NarrativeThemes(motifs)
	assert.Contains(t, themes, "mortality and loss")
	assert.Contains(t, themes, "overwhelming death")
	assert.Contains(t, themes, "optimism despite adversity")
	assert.Contains(t, themes, "prominent hope")
	assert.NotContains(t, themes, "prominent mystery")
}

func TestRelatedCategoriesBidirectional(t *testing.T) {
	assert.Contains(t, RelatedCategories(CategoryHope), CategoryUnity)
	// Reverse edges are inferred.
	assert.Contains(t, RelatedCategories(CategoryUnity), CategoryHope)
	assert.Empty(t, RelatedCategories(CategoryPride))
}

func TestToneDescription(t *testing.T) {
	m := &Motif{Category: CategoryBetrayal, Intensity: 7.5}
	assert.Equal(t, "An overwhelming atmosphere of mistrust and treachery", ToneDescription(m))

	m = &Motif{Category: CategoryMystery, Intensity: 2}
	assert.Equal(t, "An subtle manifestation of mystery", ToneDescription(m))
}
