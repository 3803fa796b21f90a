package engine

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

var titleCaser = cases.Title(language.English)

// SequenceRequest describes a narrative arc to generate.
type SequenceRequest struct {
	Length      int            `json:"length"`
	Theme       motif.Category `json:"theme,omitempty"`
	RegionID    string         `json:"region_id,omitempty"`
	Progressive bool           `json:"progressive"`
}

// SequenceResult pairs the membership record with the motifs it was
// minted with.
type SequenceResult struct {
	Sequence *motif.Sequence `json:"sequence"`
	Motifs   []*motif.Motif  `json:"motifs"`
}

// GenerateSequence mints a chain of thematically linked motifs sharing
// one sequence id. The first motif emerges immediately; the rest start
// dormant and are promoted as the arc advances. Progressive arcs ramp
// intensity step by step; otherwise each part wanders near the base.
func (mgr *Manager) GenerateSequence(ctx context.Context, req SequenceRequest) (*SequenceResult, error) {
	if req.Length < 2 {
		return nil, fmt.Errorf("sequence length must be at least 2, got %d", req.Length)
	}

	start := req.Theme
	if start == "" {
		start = motif.Categories[mgr.rng.Intn(len(motif.Categories))]
	}
	categories := mgr.service.RelatedCategories(start, req.Length)

	seqID := motif.NewSequenceID()
	base := mgr.rng.Uniform(3.0, 5.0)
	motifs := make([]*motif.Motif, 0, req.Length)
	ids := make([]string, 0, req.Length)

	for i, category := range categories {
		intensity := base + mgr.rng.Uniform(-1, 1)
		if req.Progressive {
			intensity = base + float64(i)*mgr.tuning.SequenceIntensityStep
			if intensity > 10 {
				intensity = 10
			}
		}

		scope := motif.ScopeRegional
		if mgr.rng.Float64() < mgr.tuning.SequenceGlobalChance {
			scope = motif.ScopeGlobal
		}
		var location *motif.Location
		if scope == motif.ScopeRegional && req.RegionID != "" {
			location = &motif.Location{RegionID: req.RegionID}
		}

		lifecycle := motif.LifecycleDormant
		if i == 0 {
			lifecycle = motif.LifecycleEmerging
		}

		var role string
		switch i {
		case 0:
			role = "This initiating motif begins the arc."
		case req.Length - 1:
			role = "This concluding motif completes the arc."
		default:
			role = "This transitional motif advances the arc."
		}

		m, err := mgr.service.CreateMotif(ctx, &motif.CreateRequest{
			Name:             fmt.Sprintf("%s %d/%d", titleCaser.String(string(category)), i+1, req.Length),
			Description:      fmt.Sprintf("Part %d of a %d-part narrative sequence. %s", i+1, req.Length, role),
			Category:         category,
			Scope:            scope,
			Lifecycle:        lifecycle,
			Intensity:        intensity,
			Location:         location,
			DurationDays:     mgr.rng.IntRange(10, 20),
			Effects:          mgr.service.effectsForCategory(category, intensity),
			SequenceID:       seqID,
			SequencePosition: i,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create sequence motif %d: %w", i, err)
		}
		motifs = append(motifs, m)
		ids = append(ids, m.ID)
	}

	seq := &motif.Sequence{
		ID:       seqID,
		MotifIDs: ids,
		Created:  mgr.now(),
	}
	if err := mgr.repo.SaveSequence(ctx, seq); err != nil {
		return nil, fmt.Errorf("failed to persist sequence: %w", err)
	}
	mgr.invalidate()

	mgr.logger.Info("Motif sequence generated",
		"sequence_id", seqID, "length", req.Length, "theme", start, "progressive", req.Progressive)
	mgr.bus.Publish(events.Event{
		Type:       events.TypeSequenceCreated,
		SequenceID: seqID,
		RegionID:   req.RegionID,
		Data:       map[string]any{"length": req.Length, "theme": start},
	})
	return &SequenceResult{Sequence: seq, Motifs: motifs}, nil
}

// GetSequence returns a sequence with its member motifs resolved.
// Missing motifs are skipped rather than failing the whole read.
func (mgr *Manager) GetSequence(ctx context.Context, id string) (*SequenceResult, error) {
	seq, err := mgr.repo.GetSequence(ctx, id)
	if err != nil || seq == nil {
		return nil, err
	}
	motifs := make([]*motif.Motif, 0, len(seq.MotifIDs))
	for _, mid := range seq.MotifIDs {
		m, err := mgr.repo.GetMotif(ctx, mid)
		if err != nil {
			return nil, err
		}
		if m != nil {
			motifs = append(motifs, m)
		}
	}
	return &SequenceResult{Sequence: seq, Motifs: motifs}, nil
}

// ListSequences returns every stored sequence record.
func (mgr *Manager) ListSequences(ctx context.Context) ([]*motif.Sequence, error) {
	return mgr.repo.ListSequences(ctx)
}

// AdvanceSequence promotes the next dormant member of a sequence to
// emerging. Returns the promoted motif, or nil when the arc is
// complete.
func (mgr *Manager) AdvanceSequence(ctx context.Context, id string) (*motif.Motif, error) {
	res, err := mgr.GetSequence(ctx, id)
	if err != nil || res == nil {
		return nil, err
	}
	for _, m := range res.Motifs {
		if m.Lifecycle != motif.LifecycleDormant {
			continue
		}
		now := mgr.now()
		m.Lifecycle = motif.LifecycleEmerging
		m.StartTime = now
		m.EndTime = now.AddDate(0, 0, m.DurationDays)
		m.UpdatedAt = now
		if err := mgr.repo.SaveMotif(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to promote sequence motif: %w", err)
		}
		mgr.invalidate()
		mgr.logger.Info("Sequence advanced", "sequence_id", id, "motif_id", m.ID, "position", m.SequencePosition)
		mgr.bus.Publish(events.Event{
			Type:       events.TypeMotifTransitioned,
			MotifID:    m.ID,
			SequenceID: id,
			Data:       map[string]any{"previous": motif.LifecycleDormant, "current": motif.LifecycleEmerging},
		})
		return m, nil
	}
	return nil, nil
}
