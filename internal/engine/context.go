package engine

import (
	"context"

	"github.com/lorekeep/motif-engine/internal/services"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

// WorldTone is the dominant motif rendered as an atmosphere reading.
type WorldTone struct {
	PrimaryInfluence string  `json:"primary_influence"`
	Intensity        float64 `json:"intensity"`
	Description      string  `json:"description,omitempty"`
}

// NarrativeContext is the full AI-facing context for a place: the base
// motif summary enriched with narrative effect themes and the world
// tone.
type NarrativeContext struct {
	MotifContext
	WorldTone    *WorldTone `json:"world_tone,omitempty"`
	LocationType string     `json:"location_type"`
}

// NarrativeContext assembles the context for a position, region, or
// the world. Narrative effects on the selected motifs contribute extra
// themes beyond the category phrases.
func (mgr *Manager) NarrativeContext(ctx context.Context, q ContextQuery) (*NarrativeContext, error) {
	base, motifs, err := mgr.service.MotifContext(ctx, q)
	if err != nil {
		return nil, err
	}

	nc := &NarrativeContext{
		MotifContext: *base,
		LocationType: q.LocationType(),
	}

	seen := make(map[string]struct{}, len(nc.NarrativeThemes))
	for _, t := range nc.NarrativeThemes {
		seen[t] = struct{}{}
	}
	for _, m := range motifs {
		report := mgr.service.ApplyEffects(m)
		if report.Skipped {
			continue
		}
		for _, out := range report.Outcomes {
			no, ok := out.(NarrativeOutcome)
			if !ok {
				continue
			}
			for _, t := range no.Themes {
				if _, dup := seen[t]; dup {
					continue
				}
				seen[t] = struct{}{}
				nc.NarrativeThemes = append(nc.NarrativeThemes, t)
			}
		}
	}

	if dom := motif.Dominant(motifs); dom != nil {
		nc.WorldTone = &WorldTone{
			PrimaryInfluence: string(dom.Category),
			Intensity:        dom.Intensity,
			Description:      motif.ToneDescription(dom),
		}
	}
	return nc, nil
}

// GPTContextRequest selects what goes into a prompt context: the place,
// an optional entity whose motif pressures should be rendered, and the
// size budget (small, medium, or large).
type GPTContextRequest struct {
	Query    ContextQuery
	EntityID string
	Size     string
}

// GPTWorldState is the world slice of a prompt context.
type GPTWorldState struct {
	CurrentMotifs   []MotifSummary     `json:"current_motifs"`
	WorldTone       WorldTone          `json:"world_tone"`
	NarrativeThemes []string           `json:"narrative_themes"`
	RecentEvents    []motif.WorldEvent `json:"recent_events"`
}

// GPTLocation is the point slice of a prompt context.
type GPTLocation struct {
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	LocalMotifs []MotifSummary `json:"local_motifs"`
}

// GPTRegion is the region slice of a prompt context.
type GPTRegion struct {
	ID             string         `json:"id"`
	RegionalMotifs []MotifSummary `json:"regional_motifs"`
}

// MotifProgression is one era of the world's thematic history.
type MotifProgression struct {
	Period          string   `json:"period"`
	DominantMotifs  []string `json:"dominant_motifs"`
	NarrativeImpact string   `json:"narrative_impact"`
}

// GPTWorldHistory is the deep-history slice included in large contexts.
type GPTWorldHistory struct {
	HistoricalEvents []motif.WorldEvent `json:"historical_events"`
	MotifProgression []MotifProgression `json:"motif_progression"`
}

// GPTContext is the assembled prompt context.
type GPTContext struct {
	Size         string                  `json:"context_size"`
	WorldState   GPTWorldState           `json:"world_state"`
	MotifImpacts []motif.EntityInfluence `json:"motif_impacts,omitempty"`
	Location     *GPTLocation            `json:"location,omitempty"`
	Region       *GPTRegion              `json:"region,omitempty"`
	WorldHistory *GPTWorldHistory        `json:"world_history,omitempty"`
}

func eventLimitForSize(size string) int {
	switch size {
	case "small":
		return 5
	case "large":
		return 10
	default:
		return 7
	}
}

func summarize(motifs []*motif.Motif) []MotifSummary {
	out := make([]MotifSummary, 0, len(motifs))
	for _, m := range motifs {
		out = append(out, MotifSummary{
			Name:        m.Name,
			Description: m.Description,
			Category:    m.Category,
			Intensity:   m.Intensity,
			Scope:       m.Scope,
		})
	}
	return out
}

// GPTContext assembles a prompt context sized for the caller's token
// budget. Small contexts trim to the strongest signals; large ones add
// the deeper world history.
func (mgr *Manager) GPTContext(ctx context.Context, req GPTContextRequest) (*GPTContext, error) {
	size := req.Size
	if size == "" {
		size = "medium"
	}

	motifs, err := mgr.service.motifsForQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	recent, err := mgr.repo.WorldEvents(ctx, eventLimitForSize(size), 0)
	if err != nil {
		return nil, err
	}

	gc := &GPTContext{
		Size: size,
		WorldState: GPTWorldState{
			CurrentMotifs:   summarize(motifs),
			WorldTone:       WorldTone{PrimaryInfluence: "neutral"},
			NarrativeThemes: motif.NarrativeThemes(motifs),
			RecentEvents:    recent,
		},
	}
	if dom := motif.Dominant(motifs); dom != nil {
		gc.WorldState.WorldTone = WorldTone{
			PrimaryInfluence: string(dom.Category),
			Intensity:        dom.Intensity,
			Description:      motif.ToneDescription(dom),
		}
	}

	if req.EntityID != "" {
		state, err := mgr.repo.GetEntityState(ctx, req.EntityID)
		if err != nil {
			return nil, err
		}
		if state != nil {
			for _, em := range state.ActiveMotifs {
				gc.MotifImpacts = append(gc.MotifImpacts, motif.InfluenceFor(em))
			}
		}
	}

	if req.Query.X != nil && req.Query.Y != nil {
		var local []*motif.Motif
		for _, m := range motifs {
			if m.Scope == motif.ScopeLocal {
				local = append(local, m)
			}
		}
		gc.Location = &GPTLocation{X: *req.Query.X, Y: *req.Query.Y, LocalMotifs: summarize(local)}
	} else if req.Query.RegionID != "" {
		var regional []*motif.Motif
		for _, m := range motifs {
			if m.Scope == motif.ScopeRegional {
				regional = append(regional, m)
			}
		}
		gc.Region = &GPTRegion{ID: req.Query.RegionID, RegionalMotifs: summarize(regional)}
	}

	switch size {
	case "small":
		if len(gc.WorldState.CurrentMotifs) > 2 {
			gc.WorldState.CurrentMotifs = gc.WorldState.CurrentMotifs[:2]
		}
		if len(gc.WorldState.NarrativeThemes) > 2 {
			gc.WorldState.NarrativeThemes = gc.WorldState.NarrativeThemes[:2]
		}
		if len(gc.WorldState.RecentEvents) > 3 {
			gc.WorldState.RecentEvents = gc.WorldState.RecentEvents[:3]
		}
	case "large":
		historical, err := mgr.repo.WorldEvents(ctx, 20, 10)
		if err != nil {
			return nil, err
		}
		// Progression eras come from the world log once enough history
		// accumulates; until then these defaults anchor the prompt.
		gc.WorldHistory = &GPTWorldHistory{
			HistoricalEvents: historical,
			MotifProgression: []MotifProgression{
				{
					Period:          "recent",
					DominantMotifs:  []string{"Chaos", "Betrayal"},
					NarrativeImpact: "The world has been through significant upheaval and mistrust.",
				},
				{
					Period:          "previous",
					DominantMotifs:  []string{"Hope", "Unity"},
					NarrativeImpact: "Prior to recent events, there was a period of optimism and cooperation.",
				},
			},
		}
	}
	return gc, nil
}

// neutralNarration is returned when no LLM is reachable, so callers
// always get usable prose.
const neutralNarration = "The world continues on its course, shaped by forces that remain just out of sight."

// GenerateNarration asks the LLM to render the current narrative
// context into a short passage of prose. LLM failures degrade to a
// neutral line rather than erroring, so story flow never stalls on an
// upstream outage.
func (mgr *Manager) GenerateNarration(ctx context.Context, llm services.LLMService, q ContextQuery) (string, error) {
	ec, err := mgr.service.EnhancedNarrativeContext(ctx, q, "large")
	if err != nil {
		return "", err
	}

	messages := []services.ChatMessage{
		{
			Role: services.ChatRoleSystem,
			Content: "You are the narrator of a living fantasy world. " +
				"Render the world's current thematic state into two or three sentences of atmospheric prose. " +
				"Do not address the reader or mention game mechanics.",
		},
		{
			Role:    services.ChatRoleUser,
			Content: ec.PromptText,
		},
	}

	resp, err := llm.GetChatResponse(ctx, messages)
	if err != nil {
		mgr.logger.Error("Narration request failed, using fallback", "error", err)
		return neutralNarration, nil
	}
	if resp == nil || resp.Message == "" {
		return neutralNarration, nil
	}
	return resp.Message, nil
}
