package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/internal/services"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

func TestNarrativeContextWorldTone(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "b", Name: "Court of Knives", Category: motif.CategoryBetrayal,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 8,
		Effects: []motif.Effect{{Type: "narrative_flavor", Intensity: 7, Target: motif.TargetNarrative}},
	})

	nc, err := mgr.NarrativeContext(context.Background(), ContextQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, nc.MotifCount)
	assert.Equal(t, "world", nc.LocationType)
	require.NotNil(t, nc.WorldTone)
	assert.Equal(t, "betrayal", nc.WorldTone.PrimaryInfluence)
	assert.Equal(t, 8.0, nc.WorldTone.Intensity)
	assert.Equal(t, "An overwhelming atmosphere of mistrust and treachery", nc.WorldTone.Description)
	assert.Contains(t, nc.NarrativeThemes, "trust is fragile")
}

func TestNarrativeContextEmpty(t *testing.T) {
	mgr, _ := testManager(t)

	nc, err := mgr.NarrativeContext(context.Background(), ContextQuery{})
	require.NoError(t, err)
	assert.Nil(t, nc.WorldTone)
	assert.Equal(t, "No active motifs affecting this location.", nc.NarrativeGuidance)
}

func TestNarrativeContextRegionQuery(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "r", Name: "Regional", Category: motif.CategoryWar,
		Scope: motif.ScopeRegional, Lifecycle: motif.LifecycleStable, Intensity: 5,
		Location: &motif.Location{RegionID: "north"},
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "g", Name: "Global", Category: motif.CategoryHope,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 4,
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "elsewhere", Name: "Elsewhere", Category: motif.CategoryPeace,
		Scope: motif.ScopeRegional, Lifecycle: motif.LifecycleStable, Intensity: 6,
		Location: &motif.Location{RegionID: "south"},
	})

	nc, err := mgr.NarrativeContext(context.Background(), ContextQuery{RegionID: "north"})
	require.NoError(t, err)
	assert.Equal(t, "region", nc.LocationType)
	assert.Equal(t, 2, nc.MotifCount, "regional plus global, other regions excluded")
}

func TestGPTContextDefaults(t *testing.T) {
	mgr, _ := testManager(t)

	gc, err := mgr.GPTContext(context.Background(), GPTContextRequest{})
	require.NoError(t, err)
	assert.Equal(t, "medium", gc.Size)
	assert.Equal(t, "neutral", gc.WorldState.WorldTone.PrimaryInfluence)
	assert.Zero(t, gc.WorldState.WorldTone.Intensity)
	assert.Empty(t, gc.WorldState.CurrentMotifs)
	assert.Nil(t, gc.WorldHistory)
}

func TestGPTContextSmallTrims(t *testing.T) {
	mgr, repo := testManager(t)
	for _, id := range []string{"a", "b", "c"} {
		seedMotif(t, repo, &motif.Motif{
			ID: id, Name: "Motif " + id, Category: motif.CategoryFear,
			Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 7,
		})
	}
	for i := 0; i < 6; i++ {
		_, err := mgr.GenerateWorldEvent(context.Background(), WorldEventRequest{Type: "discovery"})
		require.NoError(t, err)
	}

	gc, err := mgr.GPTContext(context.Background(), GPTContextRequest{Size: "small"})
	require.NoError(t, err)
	assert.Len(t, gc.WorldState.CurrentMotifs, 2)
	assert.LessOrEqual(t, len(gc.WorldState.NarrativeThemes), 2)
	assert.Len(t, gc.WorldState.RecentEvents, 3)
}

func TestGPTContextLargeHistory(t *testing.T) {
	mgr, _ := testManager(t)

	gc, err := mgr.GPTContext(context.Background(), GPTContextRequest{Size: "large"})
	require.NoError(t, err)
	require.NotNil(t, gc.WorldHistory)
	require.Len(t, gc.WorldHistory.MotifProgression, 2)
	assert.Equal(t, "recent", gc.WorldHistory.MotifProgression[0].Period)
	assert.Equal(t, "previous", gc.WorldHistory.MotifProgression[1].Period)
}

func TestGPTContextEntityImpacts(t *testing.T) {
	mgr, repo := testManager(t)
	require.NoError(t, repo.SaveEntityState(context.Background(), "npc-1", &motif.EntityState{
		ActiveMotifs: []motif.EntityMotif{
			{Theme: "Vengeance", Weight: 5},
			{Theme: "Hope", Weight: 2.5},
			{Theme: "Mystery", Weight: 1},
		},
	}))

	gc, err := mgr.GPTContext(context.Background(), GPTContextRequest{EntityID: "npc-1"})
	require.NoError(t, err)
	require.Len(t, gc.MotifImpacts, 3)
	assert.Equal(t, "strong", gc.MotifImpacts[0].Influence)
	assert.Equal(t, "The vengeance theme dominates this entity's behavior and perspective.", gc.MotifImpacts[0].Description)
	assert.Equal(t, "moderate", gc.MotifImpacts[1].Influence)
	assert.Equal(t, "subtle", gc.MotifImpacts[2].Influence)
}

func TestGPTContextLocationSlice(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "local", Name: "Local", Category: motif.CategoryFear,
		Scope: motif.ScopeLocal, Lifecycle: motif.LifecycleStable, Intensity: 6,
		Location: &motif.Location{X: 5, Y: 5},
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "regional", Name: "Regional", Category: motif.CategoryWar,
		Scope: motif.ScopeRegional, Lifecycle: motif.LifecycleStable, Intensity: 6,
		Location: &motif.Location{X: 8, Y: 8, RegionID: "north"},
	})

	x, y := 5.0, 5.0
	gc, err := mgr.GPTContext(context.Background(), GPTContextRequest{
		Query: ContextQuery{X: &x, Y: &y},
	})
	require.NoError(t, err)
	require.NotNil(t, gc.Location)
	assert.Equal(t, 5.0, gc.Location.X)
	require.Len(t, gc.Location.LocalMotifs, 1)
	assert.Equal(t, "Local", gc.Location.LocalMotifs[0].Name)
	assert.Nil(t, gc.Region)
}

func TestGPTContextRegionSlice(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "regional", Name: "Regional", Category: motif.CategoryWar,
		Scope: motif.ScopeRegional, Lifecycle: motif.LifecycleStable, Intensity: 6,
		Location: &motif.Location{RegionID: "north"},
	})

	gc, err := mgr.GPTContext(context.Background(), GPTContextRequest{
		Query: ContextQuery{RegionID: "north"},
	})
	require.NoError(t, err)
	require.NotNil(t, gc.Region)
	assert.Equal(t, "north", gc.Region.ID)
	require.Len(t, gc.Region.RegionalMotifs, 1)
}

func TestGenerateNarration(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "m", Name: "Gathering Gloom", Category: motif.CategoryFear,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 6,
	})

	llm := services.NewMockLLM()
	llm.GetChatResponseFunc = func(ctx context.Context, messages []services.ChatMessage) (*services.ChatResponse, error) {
		require.Len(t, messages, 2)
		assert.Equal(t, services.ChatRoleSystem, messages[0].Role)
		assert.Contains(t, messages[1].Content, "Dominant theme: fear")
		return &services.ChatResponse{Message: "Dread settles over the land."}, nil
	}

	text, err := mgr.GenerateNarration(context.Background(), llm, ContextQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Dread settles over the land.", text)
}

func TestGenerateNarrationFallsBackOnLLMError(t *testing.T) {
	mgr, _ := testManager(t)

	llm := services.NewMockLLM()
	llm.GetChatResponseFunc = func(ctx context.Context, messages []services.ChatMessage) (*services.ChatResponse, error) {
		return nil, errors.New("upstream down")
	}

	text, err := mgr.GenerateNarration(context.Background(), llm, ContextQuery{})
	require.NoError(t, err)
	assert.Equal(t, neutralNarration, text)
}
