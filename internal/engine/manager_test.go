package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

func TestManagerCRUDAnnounces(t *testing.T) {
	mgr, _ := testManager(t)
	drain := collectEvents(t, mgr)

	m, err := mgr.CreateMotif(context.Background(), &motif.CreateRequest{
		Name: "Whispered Doubt", Category: motif.CategoryParanoia,
		Scope: motif.ScopeLocal, Intensity: 4,
	})
	require.NoError(t, err)

	intensity := 6.0
	updated, err := mgr.UpdateMotif(context.Background(), m.ID, &motif.UpdateRequest{Intensity: &intensity})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 6.0, updated.Intensity)

	existed, err := mgr.DeleteMotif(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	got := drain()
	require.Len(t, got, 3)
	assert.Equal(t, events.TypeMotifCreated, got[0].Type)
	assert.Equal(t, events.TypeMotifUpdated, got[1].Type)
	assert.Equal(t, events.TypeMotifDeleted, got[2].Type)
	for _, ev := range got {
		assert.Equal(t, m.ID, ev.MotifID)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestManagerDeleteMissingIsSilent(t *testing.T) {
	mgr, _ := testManager(t)
	drain := collectEvents(t, mgr)

	existed, err := mgr.DeleteMotif(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Empty(t, drain())
}

func TestGetMotifsCaching(t *testing.T) {
	mgr, repo := testManager(t)
	mgr.tuning.CacheTTL = time.Hour

	seedMotif(t, repo, &motif.Motif{
		ID: "m1", Name: "First", Category: motif.CategoryFear,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 5,
	})

	first, err := mgr.GetMotifs(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A write that bypasses the manager is invisible until the TTL
	// lapses or a managed mutation invalidates.
	seedMotif(t, repo, &motif.Motif{
		ID: "m2", Name: "Second", Category: motif.CategoryHope,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 5,
	})
	cached, err := mgr.GetMotifs(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = mgr.CreateMotif(context.Background(), &motif.CreateRequest{
		Category: motif.CategoryWar, Scope: motif.ScopeGlobal, Intensity: 5,
	})
	require.NoError(t, err)

	refreshed, err := mgr.GetMotifs(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, refreshed, 3)
}

func TestGetMotifsCacheExpires(t *testing.T) {
	mgr, repo := testManager(t)
	mgr.tuning.CacheTTL = time.Minute

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return now }

	_, err := mgr.GetMotifs(context.Background(), nil)
	require.NoError(t, err)

	seedMotif(t, repo, &motif.Motif{
		ID: "late", Name: "Late", Category: motif.CategoryFear,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 5,
	})

	now = now.Add(2 * time.Minute)
	refreshed, err := mgr.GetMotifs(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, refreshed, 1)
}

func TestGetMotifsFiltered(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "keep", Name: "Keep", Category: motif.CategoryFear,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 5,
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "skip", Name: "Skip", Category: motif.CategoryHope,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleDormant, Intensity: 5,
	})

	got, err := mgr.GetMotifs(context.Background(), &motif.Filter{Lifecycles: motif.ActiveLifecycles})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].ID)
}

func TestDominantMotifs(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "weak", Name: "Weak", Category: motif.CategoryHope,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 3,
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "strong", Name: "Strong", Category: motif.CategoryFear,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleEmerging, Intensity: 9,
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "waning", Name: "Waning", Category: motif.CategoryWar,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleWaning, Intensity: 10,
	})

	got, err := mgr.DominantMotifs(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "strong", got[0].ID)
	assert.Equal(t, "weak", got[1].ID, "waning motifs are not established")
}

func TestMotifsByLocationDecay(t *testing.T) {
	mgr, repo := testManager(t)
	seedMotif(t, repo, &motif.Motif{
		ID: "local", Name: "Local", Category: motif.CategoryFear,
		Scope: motif.ScopeLocal, Lifecycle: motif.LifecycleStable, Intensity: 8,
		Location: &motif.Location{X: 0, Y: 0},
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "global", Name: "Global", Category: motif.CategoryHope,
		Scope: motif.ScopeGlobal, Lifecycle: motif.LifecycleStable, Intensity: 8,
		Location: &motif.Location{X: 0, Y: 0},
	})
	seedMotif(t, repo, &motif.Motif{
		ID: "faded", Name: "Faded", Category: motif.CategoryWar,
		Scope: motif.ScopeLocal, Lifecycle: motif.LifecycleStable, Intensity: 1.2,
		Location: &motif.Location{X: 0, Y: 0},
	})

	spreads, err := mgr.MotifsByLocation(context.Background(), 12, 16)
	require.NoError(t, err)
	require.Len(t, spreads, 2, "influence at the significance floor is dropped")

	// Distance 20: global decays over 2x the range, local over half.
	assert.Equal(t, "global", spreads[0].MotifID)
	assert.Equal(t, "local", spreads[1].MotifID)
	assert.Greater(t, spreads[0].EffectiveIntensity, spreads[1].EffectiveIntensity)
	assert.Equal(t, 8.0, spreads[0].OriginalIntensity)
}

func TestRegisterRegionTopsUp(t *testing.T) {
	mgr, repo := testManager(t)
	mgr.tuning.RegionalFloor = 1

	require.NoError(t, mgr.RegisterRegion(context.Background(), "frontier"))

	regions, err := repo.ListRegions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, regions, "frontier")

	established, err := mgr.service.RegionalMotifs(context.Background(), "frontier")
	require.NoError(t, err)
	assert.Len(t, established, 1)
}
