package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

// defaultEventTypes is the baseline pool when motifs exert no pull.
var defaultEventTypes = []string{
	"discovery", "conflict", "arrival", "departure",
	"transformation", "celebration", "disaster", "revelation",
}

// WorldEventRequest constrains world event generation. Coordinates
// narrow the influencing motifs to a point, a region id to a region;
// with neither, global motifs drive the event. An explicit Type skips
// the motif-driven type roll.
type WorldEventRequest struct {
	X, Y     *float64 `json:"-"`
	RegionID string   `json:"region_id,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// EventInfluence names one motif that shaped a generated event.
type EventInfluence struct {
	MotifID string  `json:"motif_id"`
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
}

// GeneratedEvent is a world event plus the motif reasoning behind it.
type GeneratedEvent struct {
	Event        *motif.WorldEvent `json:"event"`
	EventType    string            `json:"event_type"`
	Intensity    int               `json:"intensity"`
	IsMajor      bool              `json:"is_major"`
	InfluencedBy []EventInfluence  `json:"influenced_by"`
}

// GenerateWorldEvent synthesizes the motifs at the requested place
// into a world event: the active themes bias which event types can
// occur and push intensity up or down, and the strongest motifs are
// recorded as its influences. The event lands in the world log.
func (mgr *Manager) GenerateWorldEvent(ctx context.Context, req WorldEventRequest) (*GeneratedEvent, error) {
	motifs, err := mgr.eventMotifs(ctx, req)
	if err != nil {
		return nil, err
	}
	syn := motif.Synthesize(motifs)

	eventType := req.Type
	if eventType == "" {
		if len(motifs) > 0 && mgr.rng.Float64() < mgr.tuning.MotifEventProbability {
			pool := influencedEventTypes(syn, motifs)
			eventType = pool[mgr.rng.Intn(len(pool))]
		} else {
			eventType = defaultEventTypes[mgr.rng.Intn(len(defaultEventTypes))]
		}
	}

	intensity := mgr.rng.IntRange(mgr.tuning.EventBaseIntensityMin, mgr.tuning.EventBaseIntensityMax)
	if len(motifs) > 0 {
		intensity += int(math.Round((weightedIntensity(motifs) - 5) / 2))
	}
	if intensity < 1 {
		intensity = 1
	}
	if intensity > 10 {
		intensity = 10
	}
	isMajor := intensity >= mgr.tuning.MajorEventThreshold

	influences := topInfluences(motifs, 3)

	evCtx := map[string]any{
		"intensity": intensity,
		"is_major":  isMajor,
	}
	if len(motifs) > 0 {
		evCtx["narrative_context"] = map[string]any{
			"theme":     syn.Theme,
			"tone":      syn.Tone,
			"direction": syn.Direction,
		}
	}
	if len(influences) > 0 {
		evCtx["influenced_by"] = influences
	}
	if req.RegionID != "" {
		evCtx["region_id"] = req.RegionID
	}

	ev := &motif.WorldEvent{
		EventID:   motif.NewEventID("evt"),
		Summary:   mgr.describeEvent(eventType, syn, len(motifs) > 0),
		Type:      eventType,
		Timestamp: mgr.now(),
		Context:   evCtx,
	}
	if err := mgr.repo.AppendWorldEvent(ctx, *ev); err != nil {
		return nil, fmt.Errorf("failed to record world event: %w", err)
	}

	mgr.logger.Info("World event generated",
		"event_id", ev.EventID, "event_type", eventType, "intensity", intensity, "major", isMajor)
	mgr.bus.Publish(events.Event{
		Type:     events.TypeWorldEvent,
		RegionID: req.RegionID,
		Data: map[string]any{
			"event_id":   ev.EventID,
			"event_type": eventType,
			"is_major":   isMajor,
		},
	})
	return &GeneratedEvent{
		Event:        ev,
		EventType:    eventType,
		Intensity:    intensity,
		IsMajor:      isMajor,
		InfluencedBy: influences,
	}, nil
}

// weightedIntensity averages motif intensities weighted by themselves,
// so a single strong motif pulls the event modifier harder than the
// plain mean would.
func weightedIntensity(motifs []*motif.Motif) float64 {
	var sum, weighted float64
	for _, m := range motifs {
		sum += m.Intensity
		weighted += m.Intensity * m.Intensity
	}
	if sum == 0 {
		return 0
	}
	return weighted / sum
}

// WorldEvents pages through the world log, newest first.
func (mgr *Manager) WorldEvents(ctx context.Context, limit, offset int) ([]motif.WorldEvent, error) {
	return mgr.repo.WorldEvents(ctx, limit, offset)
}

func (mgr *Manager) eventMotifs(ctx context.Context, req WorldEventRequest) ([]*motif.Motif, error) {
	if req.X != nil && req.Y != nil {
		spreads, err := mgr.MotifsByLocation(ctx, *req.X, *req.Y)
		if err != nil {
			return nil, err
		}
		motifs := make([]*motif.Motif, 0, len(spreads))
		for _, sp := range spreads {
			m, err := mgr.repo.GetMotif(ctx, sp.MotifID)
			if err != nil {
				return nil, err
			}
			if m != nil {
				motifs = append(motifs, m)
			}
		}
		return motifs, nil
	}
	if req.RegionID != "" {
		regional, err := mgr.service.RegionalMotifs(ctx, req.RegionID)
		if err != nil {
			return nil, err
		}
		global, err := mgr.service.GlobalMotifs(ctx)
		if err != nil {
			return nil, err
		}
		return append(regional, global...), nil
	}
	return mgr.service.GlobalMotifs(ctx)
}

// themeEventTypes maps theme substrings to the event types they make
// plausible.
var themeEventTypes = []struct {
	needles []string
	types   []string
}{
	{[]string{"hope", "rebirth", "unity"}, []string{"celebration", "alliance", "reconciliation", "recovery"}},
	{[]string{"betrayal", "deception"}, []string{"betrayal", "conspiracy", "revelation", "accusation"}},
	{[]string{"chaos", "madness"}, []string{"disaster", "upheaval", "accident", "spontaneous"}},
	{[]string{"death", "ruin"}, []string{"loss", "mourning", "decline", "destruction"}},
	{[]string{"vengeance", "justice"}, []string{"confrontation", "judgment", "retribution", "arrest"}},
}

// influencedEventTypes builds the motif-biased event type pool.
func influencedEventTypes(syn motif.Synthesis, motifs []*motif.Motif) []string {
	types := []string{"discovery", "conflict", "transformation"}

	theme := strings.ToLower(syn.Theme)
	for _, te := range themeEventTypes {
		for _, needle := range te.needles {
			if strings.Contains(theme, needle) {
				types = append(types, te.types...)
				break
			}
		}
	}

	switch syn.Tone {
	case motif.ToneDark:
		types = append(types, "omen", "disappearance", "attack")
	case motif.ToneLight:
		types = append(types, "miracle", "reunion", "breakthrough")
	}

	sorted := make([]*motif.Motif, len(motifs))
	copy(sorted, motifs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Intensity > sorted[j].Intensity })
	if len(sorted) > 2 {
		sorted = sorted[:2]
	}
	for _, m := range sorted {
		switch m.Category {
		case motif.CategoryFear:
			types = append(types, "panic", "flight", "sighting", "warning")
		case motif.CategoryObsession:
			types = append(types, "discovery", "breakthrough", "expedition")
		}
	}

	seen := make(map[string]struct{}, len(types))
	dedup := types[:0]
	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		dedup = append(dedup, t)
	}
	return dedup
}

func topInfluences(motifs []*motif.Motif, limit int) []EventInfluence {
	if len(motifs) == 0 {
		return nil
	}
	sorted := make([]*motif.Motif, len(motifs))
	copy(sorted, motifs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Intensity != sorted[j].Intensity {
			return sorted[i].Intensity > sorted[j].Intensity
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	var total float64
	for _, m := range sorted {
		total += m.Intensity
	}
	influences := make([]EventInfluence, 0, len(sorted))
	for _, m := range sorted {
		weight := 0.0
		if total > 0 {
			weight = m.Intensity / total
		}
		influences = append(influences, EventInfluence{MotifID: m.ID, Name: m.Name, Weight: weight})
	}
	return influences
}

// eventDescriptions gives each baseline event type a few phrasings.
var eventDescriptions = map[string][]string{
	"discovery": {
		"New information has been uncovered",
		"An important find has been made",
		"Something hidden has been revealed",
	},
	"conflict": {
		"Tensions have erupted into open hostility",
		"A dispute has turned violent",
		"Opposing forces have clashed",
	},
	"arrival": {
		"A notable figure has arrived",
		"Strangers have come to the area",
		"An unexpected visitor has appeared",
	},
	"departure": {
		"Someone important has left suddenly",
		"A familiar presence has gone",
		"An exodus has begun",
	},
	"transformation": {
		"Something fundamental has changed",
		"The old order is giving way to the new",
		"A profound shift has taken place",
	},
	"celebration": {
		"A joyous occasion has brought people together",
		"There is cause for festivity",
		"The community marks a happy milestone",
	},
	"disaster": {
		"Calamity has struck",
		"Misfortune has befallen the area",
		"Destruction has swept through",
	},
	"revelation": {
		"A truth has been unveiled",
		"Long-kept secrets have come to light",
		"What was concealed is now known",
	},
}

// describeEvent renders an event type and the ambient synthesis into a
// one-sentence summary.
func (mgr *Manager) describeEvent(eventType string, syn motif.Synthesis, hasMotifs bool) string {
	var b strings.Builder

	if variants, ok := eventDescriptions[eventType]; ok {
		b.WriteString(variants[mgr.rng.Intn(len(variants))])
	} else {
		b.WriteString("A significant event has occurred")
	}

	if hasMotifs {
		if len(syn.Descriptors) > 0 {
			n := 1
			if len(syn.Descriptors) > 1 && mgr.rng.Float64() < 0.5 {
				n = 2
			}
			picked := make([]string, 0, n)
			seen := map[int]struct{}{}
			for len(picked) < n {
				i := mgr.rng.Intn(len(syn.Descriptors))
				if _, dup := seen[i]; dup {
					continue
				}
				seen[i] = struct{}{}
				picked = append(picked, syn.Descriptors[i])
			}
			b.WriteString(", characterized by ")
			b.WriteString(strings.Join(picked, " and "))
		} else {
			fmt.Fprintf(&b, ", influenced by the %s motif", syn.Theme)
		}

		switch syn.Tone {
		case motif.ToneDark:
			b.WriteString(", casting a shadow over the affected area")
		case motif.ToneLight:
			b.WriteString(", bringing a sense of hope to the affected area")
		}
	}

	b.WriteString(".")
	return b.String()
}
