package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

// NextLifecycle computes the stage a motif should be in at the given
// instant. Natural progression follows elapsed time: a third of the
// duration establishes an emerging motif, two thirds starts the wane,
// and the end time retires it. Forced progression takes exactly one
// step regardless of time. The second return is false when the motif
// cannot progress at all: dormant without force, or unusable times.
func NextLifecycle(m *motif.Motif, now time.Time, forced bool) (motif.Lifecycle, bool) {
	if m.Lifecycle == motif.LifecycleDormant && !forced {
		return m.Lifecycle, false
	}
	if forced {
		return m.Lifecycle.Next(), true
	}

	start := m.StartTime
	end := m.EndTime
	if end.IsZero() && !start.IsZero() && m.DurationDays > 0 {
		end = start.AddDate(0, 0, m.DurationDays)
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return m.Lifecycle, false
	}

	elapsed := now.Sub(start)
	total := end.Sub(start)
	switch {
	case !now.Before(end):
		return motif.LifecycleDormant, true
	case elapsed >= total*2/3 && m.Lifecycle == motif.LifecycleStable:
		return motif.LifecycleWaning, true
	case elapsed >= total/3 && m.Lifecycle == motif.LifecycleEmerging:
		return motif.LifecycleStable, true
	}
	return m.Lifecycle, true
}

// AdvanceMotif progresses one motif through its lifecycle and persists
// the change. Returns nil when the motif is missing or no transition
// is due. A transition to dormant triggers scope reconciliation so the
// world never goes quiet.
func (mgr *Manager) AdvanceMotif(ctx context.Context, id string, forced bool) (*motif.Motif, error) {
	m, err := mgr.repo.GetMotif(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}

	next, ok := NextLifecycle(m, mgr.now(), forced)
	if !ok {
		if m.Lifecycle != motif.LifecycleDormant {
			mgr.logger.Warn("Motif has unusable times, skipping lifecycle check", "id", m.ID)
		}
		return nil, nil
	}
	if next == m.Lifecycle {
		return nil, nil
	}

	previous := m.Lifecycle
	m.Lifecycle = next
	m.UpdatedAt = mgr.now()
	if err := mgr.repo.SaveMotif(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to persist lifecycle change: %w", err)
	}
	mgr.invalidate()

	mgr.logger.Info("Motif lifecycle changed",
		"id", m.ID, "name", m.Name, "previous", previous, "current", next)
	mgr.bus.Publish(events.Event{
		Type:     events.TypeMotifTransitioned,
		MotifID:  m.ID,
		RegionID: m.RegionID(),
		Data: map[string]any{
			"motif_id": m.ID,
			"previous": previous,
			"current":  next,
		},
	})

	if next == motif.LifecycleDormant {
		switch m.Scope {
		case motif.ScopeGlobal:
			if err := mgr.ReconcileGlobal(ctx); err != nil {
				mgr.logger.Error("Global reconciliation after retirement failed", "error", err)
			}
		case motif.ScopeRegional:
			if region := m.RegionID(); region != "" {
				if err := mgr.reconcileRegion(ctx, region); err != nil {
					mgr.logger.Error("Regional reconciliation after retirement failed",
						"region", region, "error", err)
				}
			}
		}
	}
	return m, nil
}

// TickResult summarizes one lifecycle sweep.
type TickResult struct {
	Checked     int             `json:"checked"`
	Transitions int             `json:"transitions"`
	Reports     []*EffectReport `json:"reports"`
}

// RunLifecycleTick advances every non-dormant motif, applies effects
// for motifs that changed or remain active, and reconciles regional
// then global invariants. Individual failures are logged and the sweep
// continues; the tick only errors when the initial listing fails.
func (mgr *Manager) RunLifecycleTick(ctx context.Context) (*TickResult, error) {
	active, err := mgr.service.FilterMotifs(ctx, motif.Filter{Lifecycles: motif.ActiveLifecycles})
	if err != nil {
		return nil, fmt.Errorf("failed to list active motifs: %w", err)
	}

	result := &TickResult{Checked: len(active)}
	for _, m := range active {
		updated, err := mgr.AdvanceMotif(ctx, m.ID, false)
		if err != nil {
			mgr.logger.Error("Lifecycle advance failed", "id", m.ID, "error", err)
			continue
		}
		if updated != nil {
			result.Transitions++
			m = updated
		}
		result.Reports = append(result.Reports, mgr.ApplyMotifEffects(ctx, m))
	}

	if err := mgr.ReconcileRegions(ctx); err != nil {
		mgr.logger.Error("Regional reconciliation failed", "error", err)
	}
	if err := mgr.ReconcileGlobal(ctx); err != nil {
		mgr.logger.Error("Global reconciliation failed", "error", err)
	}
	return result, nil
}

// Run drives lifecycle ticks on the configured interval until the
// context is cancelled. One tick runs immediately on start.
func (mgr *Manager) Run(ctx context.Context) error {
	interval := mgr.tuning.LifecycleInterval
	if interval <= 0 {
		interval = time.Hour
	}
	mgr.logger.Info("Lifecycle loop started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if res, err := mgr.RunLifecycleTick(ctx); err != nil {
			mgr.logger.Error("Lifecycle tick failed", "error", err)
		} else {
			mgr.logger.Info("Lifecycle tick complete",
				"checked", res.Checked, "transitions", res.Transitions)
		}

		select {
		case <-ctx.Done():
			mgr.logger.Info("Lifecycle loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReconcileGlobal enforces exactly one established global motif. With
// none, it generates one at the canonical intensity; with several, the
// newest survives and the rest begin waning.
func (mgr *Manager) ReconcileGlobal(ctx context.Context) error {
	globals, err := mgr.service.FilterMotifs(ctx, motif.Filter{
		Scopes:     []motif.Scope{motif.ScopeGlobal},
		Lifecycles: motif.EstablishedLifecycles,
	})
	if err != nil {
		return err
	}

	switch {
	case len(globals) == 0:
		intensity := mgr.tuning.GlobalIntensity
		m, err := mgr.service.GenerateRandomMotif(ctx, RandomMotifOptions{
			Scope:          motif.ScopeGlobal,
			IntensityRange: [2]float64{intensity, intensity},
		})
		if err != nil {
			return fmt.Errorf("failed to generate replacement global motif: %w", err)
		}
		mgr.invalidate()
		mgr.logger.Info("Generated replacement global motif", "id", m.ID, "name", m.Name)
		mgr.bus.Publish(events.Event{
			Type:    events.TypeMotifReconciled,
			MotifID: m.ID,
			Data:    map[string]any{"action": "generated_global"},
		})

	case len(globals) > 1:
		newest := globals[0]
		for _, m := range globals[1:] {
			if m.CreatedAt.After(newest.CreatedAt) {
				newest = m
			}
		}
		for _, m := range globals {
			if m.ID == newest.ID {
				continue
			}
			m.Lifecycle = motif.LifecycleWaning
			m.UpdatedAt = mgr.now()
			if err := mgr.repo.SaveMotif(ctx, m); err != nil {
				mgr.logger.Error("Failed to demote surplus global motif", "id", m.ID, "error", err)
				continue
			}
			mgr.logger.Info("Demoted surplus global motif", "id", m.ID, "kept", newest.ID)
			mgr.bus.Publish(events.Event{
				Type:    events.TypeMotifReconciled,
				MotifID: m.ID,
				Data:    map[string]any{"action": "demoted_global", "kept": newest.ID},
			})
		}
		mgr.invalidate()
	}
	return nil
}

// ReconcileRegions tops every known region up to the regional floor.
// Known regions are the registered ones plus the configured seeds.
func (mgr *Manager) ReconcileRegions(ctx context.Context) error {
	registered, err := mgr.repo.ListRegions(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(registered)+len(mgr.tuning.SeedRegions))
	regions := make([]string, 0, len(registered)+len(mgr.tuning.SeedRegions))
	for _, r := range append(registered, mgr.tuning.SeedRegions...) {
		if _, dup := seen[r]; dup || r == "" {
			continue
		}
		seen[r] = struct{}{}
		regions = append(regions, r)
	}

	for _, region := range regions {
		if err := mgr.reconcileRegion(ctx, region); err != nil {
			mgr.logger.Error("Failed to reconcile region", "region", region, "error", err)
		}
	}
	return nil
}

func (mgr *Manager) reconcileRegion(ctx context.Context, regionID string) error {
	established, err := mgr.service.FilterMotifs(ctx, motif.Filter{
		Scopes:     []motif.Scope{motif.ScopeRegional},
		Lifecycles: motif.EstablishedLifecycles,
		RegionID:   regionID,
	})
	if err != nil {
		return err
	}

	deficit := mgr.tuning.RegionalFloor - len(established)
	for i := 0; i < deficit; i++ {
		m, err := mgr.service.GenerateRandomMotif(ctx, RandomMotifOptions{
			Scope:          motif.ScopeRegional,
			Location:       &motif.Location{RegionID: regionID},
			IntensityRange: [2]float64{mgr.tuning.RegionalMinIntensity, mgr.tuning.RegionalMaxIntensity},
		})
		if err != nil {
			return fmt.Errorf("failed to generate regional motif: %w", err)
		}
		mgr.invalidate()
		mgr.logger.Info("Generated regional motif to meet floor",
			"region", regionID, "id", m.ID, "name", m.Name)
		mgr.bus.Publish(events.Event{
			Type:     events.TypeMotifReconciled,
			MotifID:  m.ID,
			RegionID: regionID,
			Data:     map[string]any{"action": "generated_regional"},
		})
	}
	return nil
}
