package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

func TestGenerateSequence(t *testing.T) {
	mgr, repo := testManager(t)

	res, err := mgr.GenerateSequence(context.Background(), SequenceRequest{
		Length:   4,
		Theme:    motif.CategoryBetrayal,
		RegionID: "north",
	})
	require.NoError(t, err)
	require.Len(t, res.Motifs, 4)
	require.Len(t, res.Sequence.MotifIDs, 4)

	assert.Equal(t, motif.CategoryBetrayal, res.Motifs[0].Category)
	assert.Equal(t, motif.LifecycleEmerging, res.Motifs[0].Lifecycle)
	assert.Contains(t, res.Motifs[0].Description, "This initiating motif begins the arc.")
	assert.Contains(t, res.Motifs[3].Description, "This concluding motif completes the arc.")
	assert.Contains(t, res.Motifs[1].Description, "This transitional motif advances the arc.")

	for i, m := range res.Motifs {
		assert.Equal(t, res.Sequence.ID, m.SequenceID)
		assert.Equal(t, i, m.SequencePosition)
		assert.Equal(t, fmt.Sprintf("%d/4", i+1), m.Name[len(m.Name)-3:])
		assert.Contains(t, m.Description, fmt.Sprintf("Part %d of a 4-part narrative sequence.", i+1))
		assert.NotEmpty(t, m.Effects)
		assert.GreaterOrEqual(t, m.DurationDays, 10)
		assert.LessOrEqual(t, m.DurationDays, 20)
		if i > 0 {
			assert.Equal(t, motif.LifecycleDormant, m.Lifecycle)
		}
		if m.Scope == motif.ScopeRegional {
			assert.Equal(t, "north", m.RegionID())
		} else {
			assert.Equal(t, motif.ScopeGlobal, m.Scope)
		}
	}

	stored, err := repo.GetSequence(context.Background(), res.Sequence.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, res.Sequence.MotifIDs, stored.MotifIDs)
}

func TestGenerateSequenceProgressiveIntensity(t *testing.T) {
	mgr, _ := testManager(t)

	res, err := mgr.GenerateSequence(context.Background(), SequenceRequest{
		Length:      5,
		Theme:       motif.CategoryChaos,
		Progressive: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Motifs, 5)

	for i := 1; i < len(res.Motifs); i++ {
		assert.GreaterOrEqual(t, res.Motifs[i].Intensity, res.Motifs[i-1].Intensity,
			"progressive arcs ramp up")
	}
	for _, m := range res.Motifs {
		assert.LessOrEqual(t, m.Intensity, 10.0)
	}
}

func TestGenerateSequenceTooShort(t *testing.T) {
	mgr, _ := testManager(t)
	_, err := mgr.GenerateSequence(context.Background(), SequenceRequest{Length: 1})
	assert.Error(t, err)
}

func TestGenerateSequenceFollowsAdjacency(t *testing.T) {
	mgr, _ := testManager(t)
	mgr.service.tuning.AdjacentProbability = 1.0

	res, err := mgr.GenerateSequence(context.Background(), SequenceRequest{
		Length: 4,
		Theme:  motif.CategoryHope,
	})
	require.NoError(t, err)

	for i := 1; i < len(res.Motifs); i++ {
		prev := res.Motifs[i-1].Category
		related := motif.RelatedCategories(prev)
		if len(related) > 0 {
			assert.Contains(t, related, res.Motifs[i].Category)
		}
	}
}

func TestGetSequenceResolvesMembers(t *testing.T) {
	mgr, repo := testManager(t)

	res, err := mgr.GenerateSequence(context.Background(), SequenceRequest{
		Length: 3,
		Theme:  motif.CategoryFear,
	})
	require.NoError(t, err)

	// A deleted member is skipped, not fatal.
	_, err = repo.DeleteMotif(context.Background(), res.Motifs[1].ID)
	require.NoError(t, err)

	got, err := mgr.GetSequence(context.Background(), res.Sequence.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Motifs, 2)
}

func TestGetSequenceMissing(t *testing.T) {
	mgr, _ := testManager(t)
	got, err := mgr.GetSequence(context.Background(), "seq-none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAdvanceSequence(t *testing.T) {
	mgr, repo := testManager(t)

	res, err := mgr.GenerateSequence(context.Background(), SequenceRequest{
		Length: 3,
		Theme:  motif.CategoryVengeance,
	})
	require.NoError(t, err)

	promoted, err := mgr.AdvanceSequence(context.Background(), res.Sequence.ID)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, 1, promoted.SequencePosition)
	assert.Equal(t, motif.LifecycleEmerging, promoted.Lifecycle)

	stored, err := repo.GetMotif(context.Background(), promoted.ID)
	require.NoError(t, err)
	assert.Equal(t, motif.LifecycleEmerging, stored.Lifecycle)
	assert.True(t, stored.EndTime.After(stored.StartTime))

	promoted, err = mgr.AdvanceSequence(context.Background(), res.Sequence.ID)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, 2, promoted.SequencePosition)

	// Arc complete.
	promoted, err = mgr.AdvanceSequence(context.Background(), res.Sequence.ID)
	require.NoError(t, err)
	assert.Nil(t, promoted)
}
