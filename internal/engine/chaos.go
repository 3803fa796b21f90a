package engine

import (
	"context"
	"fmt"

	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

// ChaosEventType is the world-log type for injected chaos events.
const ChaosEventType = "narrative_chaos"

// ChaosResult reports the outcome of a chaos check or injection.
type ChaosResult struct {
	Triggered bool              `json:"triggered"`
	Trigger   string            `json:"trigger,omitempty"`
	EventType string            `json:"event_type,omitempty"`
	Event     *motif.WorldEvent `json:"event,omitempty"`
	Message   string            `json:"message,omitempty"`
	Motif     *motif.Motif      `json:"motif,omitempty"`
}

// RollChaosEvent picks a random entry from the chaos table.
func (mgr *Manager) RollChaosEvent() string {
	return motif.ChaosTable[mgr.rng.Intn(len(motif.ChaosTable))]
}

// InjectChaosEvent appends a chaos event to the world log and
// announces it. A region id scopes the announcement so regional
// listeners can resynchronize.
func (mgr *Manager) InjectChaosEvent(ctx context.Context, eventType, regionID string, evCtx map[string]any) (*motif.WorldEvent, error) {
	ev := &motif.WorldEvent{
		EventID:   fmt.Sprintf("chaos_%d", mgr.now().Unix()),
		Summary:   fmt.Sprintf("[CHAOS EVENT] %s", eventType),
		Type:      ChaosEventType,
		Timestamp: mgr.now(),
		Context:   evCtx,
	}
	if err := mgr.repo.AppendWorldEvent(ctx, *ev); err != nil {
		return nil, fmt.Errorf("failed to record chaos event: %w", err)
	}

	mgr.logger.Info("Chaos event injected", "event_id", ev.EventID, "event_type", eventType, "region", regionID)
	mgr.bus.Publish(events.Event{
		Type:     events.TypeChaosTriggered,
		RegionID: regionID,
		Data: map[string]any{
			"event_id":   ev.EventID,
			"event_type": eventType,
		},
	})
	return ev, nil
}

// TriggerChaosIfNeeded checks an entity's motif pressure and injects a
// chaos event when it crosses a threshold: any single weight at or
// above the aggression threshold, or two weights at or above the dual
// pressure mark. A region id scopes the injected event.
func (mgr *Manager) TriggerChaosIfNeeded(ctx context.Context, entityID, regionID string) (*ChaosResult, error) {
	state, err := mgr.repo.GetEntityState(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return &ChaosResult{Message: "Entity not found"}, nil
	}

	trigger := ""
	heavy := 0
	for _, em := range state.ActiveMotifs {
		if em.Weight >= mgr.tuning.AggressionThreshold {
			trigger = fmt.Sprintf("aggression_%d", int(mgr.tuning.AggressionThreshold))
			break
		}
		if em.Weight >= mgr.tuning.DualPressureWeight {
			heavy++
		}
	}
	if trigger == "" && heavy >= 2 {
		trigger = "dual_pressure"
	}
	if trigger == "" {
		return &ChaosResult{}, nil
	}

	eventType := mgr.RollChaosEvent()
	ev, err := mgr.InjectChaosEvent(ctx, eventType, regionID, map[string]any{
		"entity_id": entityID,
		"trigger":   trigger,
	})
	if err != nil {
		return nil, err
	}
	return &ChaosResult{
		Triggered: true,
		Trigger:   trigger,
		EventType: eventType,
		Event:     ev,
	}, nil
}

// ForceChaos creates a high-intensity chaos motif in the world, pushes
// its pressure onto an entity, and injects a chaos event regardless of
// the entity's current state. Entities without saved state start from
// an empty one. A region id makes the motif regional and scopes the
// event.
func (mgr *Manager) ForceChaos(ctx context.Context, entityID, regionID string) (*ChaosResult, error) {
	state, err := mgr.repo.GetEntityState(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &motif.EntityState{}
	}

	opts := RandomMotifOptions{
		Category:       motif.CategoryChaos,
		IntensityRange: [2]float64{mgr.tuning.ForceChaosMinIntensity, mgr.tuning.ForceChaosMaxIntensity},
	}
	if regionID != "" {
		opts.Scope = motif.ScopeRegional
		opts.Location = &motif.Location{RegionID: regionID}
	}
	m, err := mgr.GenerateRandomMotif(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate chaos motif: %w", err)
	}

	em := motif.EntityMotif{Theme: string(motif.CategoryChaos), Weight: m.Intensity}
	state.ActiveMotifs = append(state.ActiveMotifs, em)
	state.MotifHistory = append(state.MotifHistory, em.Theme)
	state.LastRotated = mgr.now()
	if err := mgr.repo.SaveEntityState(ctx, entityID, state); err != nil {
		return nil, fmt.Errorf("failed to save entity state: %w", err)
	}

	eventType := mgr.RollChaosEvent()
	ev, err := mgr.InjectChaosEvent(ctx, eventType, regionID, map[string]any{
		"entity_id": entityID,
		"motif_id":  m.ID,
		"forced":    true,
	})
	if err != nil {
		return nil, err
	}

	mgr.logger.Info("Chaos forced on entity", "entity_id", entityID, "motif_id", m.ID, "intensity", m.Intensity)
	return &ChaosResult{
		Triggered: true,
		Trigger:   "forced",
		EventType: eventType,
		Event:     ev,
		Motif:     m,
	}, nil
}

// ChaosLog returns the most recent chaos events from the world log.
// The repository filters by type, so ordinary world events cannot
// crowd chaos entries out of the page.
func (mgr *Manager) ChaosLog(ctx context.Context, limit int) ([]motif.WorldEvent, error) {
	return mgr.repo.WorldEventsByType(ctx, ChaosEventType, limit)
}
