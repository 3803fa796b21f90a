// Package engine implements the motif lifecycle engine: CRUD rules,
// spatial influence, lifecycle advancement, invariant reconciliation,
// chaos injection, sequences, world events, and narrative context
// assembly for LLM prompting.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/lorekeep/motif-engine/internal/config"
	"github.com/lorekeep/motif-engine/internal/storage"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

// Service holds the stateless business rules over the repository. It
// validates, generates, and queries, but enforces no world invariants
// and keeps no cache; both belong to the Manager.
type Service struct {
	repo   storage.Repository
	tuning config.Tuning
	rng    *randSource
	logger *slog.Logger
}

// NewService creates a service. A nil rng seeds from the clock.
func NewService(repo storage.Repository, tuning config.Tuning, rng *rand.Rand, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tuning: tuning,
		rng:    newRandSource(rng),
		logger: logger,
	}
}

// CreateMotif validates the request, fills generated fields, and
// persists the motif. Global/regional invariants are not enforced
// here; the manager's reconciliation owns those.
func (s *Service) CreateMotif(ctx context.Context, req *motif.CreateRequest) (*motif.Motif, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid motif: %w", err)
	}

	now := time.Now().UTC()
	m := &motif.Motif{
		ID:               motif.NewID(),
		Name:             motif.SanitizeName(req.Name),
		Description:      motif.NormalizeDescription(req.Description),
		Category:         req.Category,
		Scope:            req.Scope,
		Lifecycle:        req.Lifecycle,
		Intensity:        req.Intensity,
		Location:         req.Location,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		DurationDays:     req.DurationDays,
		Effects:          req.Effects,
		Tags:             req.Tags,
		SequenceID:       req.SequenceID,
		SequencePosition: req.SequencePosition,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if m.Lifecycle == "" {
		m.Lifecycle = motif.LifecycleEmerging
	}
	if m.Name == "" {
		m.Name = s.rng.Name(m.Category, m.Scope)
	}
	if m.Description == "" {
		m.Description = motif.GenerateDescription(m.Category, m.Scope, m.Intensity)
	}
	if m.StartTime.IsZero() {
		m.StartTime = now
	}
	if m.DurationDays == 0 && m.EndTime.IsZero() {
		m.DurationDays = s.rng.Duration(m.Scope, m.Intensity)
	}
	m.ResolveEndTime()

	if err := s.repo.SaveMotif(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to persist motif: %w", err)
	}

	s.logger.Info("Motif created",
		"id", m.ID,
		"name", m.Name,
		"category", m.Category,
		"scope", m.Scope,
		"intensity", m.Intensity)
	return m, nil
}

// GetMotif returns a motif by id, or nil when absent.
func (s *Service) GetMotif(ctx context.Context, id string) (*motif.Motif, error) {
	return s.repo.GetMotif(ctx, id)
}

// UpdateMotif applies a partial patch. Returns nil when the motif does
// not exist.
func (s *Service) UpdateMotif(ctx context.Context, id string, upd *motif.UpdateRequest) (*motif.Motif, error) {
	m, err := s.repo.GetMotif(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}

	upd.Apply(m)
	m.ResolveEndTime()

	if err := s.repo.SaveMotif(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to persist motif update: %w", err)
	}
	return m, nil
}

// DeleteMotif removes a motif, reporting whether it existed.
func (s *Service) DeleteMotif(ctx context.Context, id string) (bool, error) {
	return s.repo.DeleteMotif(ctx, id)
}

// ListMotifs returns every stored motif, dormant included.
func (s *Service) ListMotifs(ctx context.Context) ([]*motif.Motif, error) {
	return s.repo.ListMotifs(ctx)
}

// FilterMotifs returns motifs matching every set field of the filter.
func (s *Service) FilterMotifs(ctx context.Context, f motif.Filter) ([]*motif.Motif, error) {
	all, err := s.repo.ListMotifs(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*motif.Motif, 0, len(all))
	for _, m := range all {
		if f.Matches(m) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// GlobalMotifs returns the non-dormant global motifs.
func (s *Service) GlobalMotifs(ctx context.Context) ([]*motif.Motif, error) {
	return s.FilterMotifs(ctx, motif.Filter{
		Scopes:     []motif.Scope{motif.ScopeGlobal},
		Lifecycles: motif.ActiveLifecycles,
	})
}

// RegionalMotifs returns the non-dormant regional motifs anchored in
// the given region.
func (s *Service) RegionalMotifs(ctx context.Context, regionID string) ([]*motif.Motif, error) {
	return s.FilterMotifs(ctx, motif.Filter{
		Scopes:     []motif.Scope{motif.ScopeRegional},
		Lifecycles: motif.ActiveLifecycles,
		RegionID:   regionID,
	})
}

// MotifsAtPosition returns active located motifs within radius of the
// point, nearest first.
func (s *Service) MotifsAtPosition(ctx context.Context, x, y, radius float64) ([]*motif.Motif, error) {
	all, err := s.repo.ListMotifs(ctx)
	if err != nil {
		return nil, err
	}

	type located struct {
		m *motif.Motif
		d float64
	}
	var within []located
	for _, m := range all {
		if !m.IsActive() || m.Location == nil {
			continue
		}
		d := motif.Distance(x, y, m.Location.X, m.Location.Y)
		if d <= radius {
			within = append(within, located{m, d})
		}
	}
	sort.SliceStable(within, func(i, j int) bool { return within[i].d < within[j].d })

	result := make([]*motif.Motif, len(within))
	for i, l := range within {
		result[i] = l.m
	}
	return result, nil
}

// Regions returns the registered region ids.
func (s *Service) Regions(ctx context.Context) ([]string, error) {
	return s.repo.ListRegions(ctx)
}

// ContextQuery selects which motifs feed a narrative context: position
// first, then region+global, then global only.
type ContextQuery struct {
	X, Y     *float64
	RegionID string
}

// LocationType tags the context with the granularity it was built at.
func (q ContextQuery) LocationType() string {
	switch {
	case q.X != nil && q.Y != nil:
		return "location"
	case q.RegionID != "":
		return "region"
	default:
		return "world"
	}
}

func (s *Service) motifsForQuery(ctx context.Context, q ContextQuery) ([]*motif.Motif, error) {
	if q.X != nil && q.Y != nil {
		return s.MotifsAtPosition(ctx, *q.X, *q.Y, s.tuning.MaxDistance)
	}
	if q.RegionID != "" {
		regional, err := s.RegionalMotifs(ctx, q.RegionID)
		if err != nil {
			return nil, err
		}
		global, err := s.GlobalMotifs(ctx)
		if err != nil {
			return nil, err
		}
		return append(regional, global...), nil
	}
	return s.GlobalMotifs(ctx)
}

// MotifSummary is the per-motif slice of a narrative context.
type MotifSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    motif.Category `json:"category"`
	Intensity   float64        `json:"intensity"`
	Scope       motif.Scope    `json:"scope"`
}

// MotifContext is the base narrative context for AI consumers.
type MotifContext struct {
	ActiveMotifs      []MotifSummary `json:"active_motifs"`
	DominantMotif     string         `json:"dominant_motif,omitempty"`
	NarrativeThemes   []string       `json:"narrative_themes"`
	MotifCount        int            `json:"motif_count"`
	NarrativeGuidance string         `json:"narrative_guidance"`
}

// MotifContext builds the base context for a position, region, or the
// world. The dominant motif is the highest intensity; ties go to the
// lowest id so the answer is stable across stores.
func (s *Service) MotifContext(ctx context.Context, q ContextQuery) (*MotifContext, []*motif.Motif, error) {
	motifs, err := s.motifsForQuery(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	mc := &MotifContext{
		ActiveMotifs:    make([]MotifSummary, 0, len(motifs)),
		NarrativeThemes: motif.NarrativeThemes(motifs),
		MotifCount:      len(motifs),
	}
	for _, m := range motifs {
		mc.ActiveMotifs = append(mc.ActiveMotifs, MotifSummary{
			Name:        m.Name,
			Description: m.Description,
			Category:    m.Category,
			Intensity:   m.Intensity,
			Scope:       m.Scope,
		})
	}
	if dom := motif.Dominant(motifs); dom != nil {
		mc.DominantMotif = dom.Name
	}
	if len(motifs) == 0 {
		mc.NarrativeGuidance = "No active motifs affecting this location."
	} else {
		mc.NarrativeGuidance = fmt.Sprintf("%d motifs influencing this area", len(motifs))
	}
	return mc, motifs, nil
}

// EnhancedContext adds a synthesis and prompt-ready text to the base
// context.
type EnhancedContext struct {
	HasMotifs    bool             `json:"has_motifs"`
	PromptText   string           `json:"prompt_text"`
	Synthesis    *motif.Synthesis `json:"synthesis,omitempty"`
	ContextSize  string           `json:"context_size"`
	LocationType string           `json:"location_type"`
}

// EnhancedNarrativeContext synthesizes the selected motifs into prompt
// text sized for the consumer's budget.
func (s *Service) EnhancedNarrativeContext(ctx context.Context, q ContextQuery, size string) (*EnhancedContext, error) {
	motifs, err := s.motifsForQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	ec := &EnhancedContext{
		ContextSize:  size,
		LocationType: q.LocationType(),
	}
	if len(motifs) == 0 {
		ec.PromptText = "No active motifs are influencing the narrative."
		return ec, nil
	}

	syn := motif.Synthesize(motifs)
	ec.HasMotifs = true
	ec.Synthesis = &syn

	switch size {
	case "small":
		ec.PromptText = fmt.Sprintf("Theme: %s (intensity: %.1f)", syn.Theme, syn.Intensity)
	case "large":
		descriptors := ""
		for i, d := range syn.Descriptors {
			if i > 0 {
				descriptors += ", "
			}
			descriptors += d
		}
		ec.PromptText = fmt.Sprintf(
			"Dominant theme: %s with intensity %.1f. Tone: %s. Direction: %s. Descriptors: %s.",
			syn.Theme, syn.Intensity, syn.Tone, syn.Direction, descriptors)
	default:
		ec.PromptText = fmt.Sprintf(
			"Theme: %s (intensity: %.1f) creates a %s atmosphere.",
			syn.Theme, syn.Intensity, syn.Tone)
	}
	return ec, nil
}

// RegionSummary aggregates a region's motif pressure.
type RegionSummary struct {
	RegionID         string         `json:"region_id"`
	ActiveMotifs     int            `json:"active_motifs"`
	DominantCategory motif.Category `json:"dominant_category,omitempty"`
	AverageIntensity float64        `json:"average_intensity"`
}

// MotifSummaryForRegion aggregates regional plus global pressure. On a
// repository failure it degrades to a zero-value summary so the story
// never breaks.
func (s *Service) MotifSummaryForRegion(ctx context.Context, regionID string) *RegionSummary {
	summary := &RegionSummary{RegionID: regionID}

	regional, err := s.RegionalMotifs(ctx, regionID)
	if err != nil {
		s.logger.Error("Failed to load regional motifs for summary", "region", regionID, "error", err)
		return summary
	}
	global, err := s.GlobalMotifs(ctx)
	if err != nil {
		s.logger.Error("Failed to load global motifs for summary", "region", regionID, "error", err)
		return summary
	}

	motifs := append(regional, global...)
	summary.ActiveMotifs = len(motifs)
	if dom := motif.Dominant(motifs); dom != nil {
		summary.DominantCategory = dom.Category
	}
	if len(motifs) > 0 {
		var total float64
		for _, m := range motifs {
			total += m.Intensity
		}
		summary.AverageIntensity = total / float64(len(motifs))
	}
	return summary
}

// NarrativeInfluence is the coarse influence reading for a location.
type NarrativeInfluence struct {
	InfluenceStrength  float64         `json:"influence_strength"`
	PrimaryTone        motif.Tone      `json:"primary_tone"`
	NarrativeDirection motif.Direction `json:"narrative_direction"`
}

// MotifNarrativeInfluence reports how strongly motifs steer the
// narrative at the queried place. Degrades to a neutral reading on
// failure.
func (s *Service) MotifNarrativeInfluence(ctx context.Context, q ContextQuery) *NarrativeInfluence {
	neutral := &NarrativeInfluence{
		PrimaryTone:        motif.ToneNeutral,
		NarrativeDirection: motif.DirectionSteady,
	}

	motifs, err := s.motifsForQuery(ctx, q)
	if err != nil {
		s.logger.Error("Failed to load motifs for influence reading", "error", err)
		return neutral
	}
	if len(motifs) == 0 {
		return neutral
	}

	syn := motif.Synthesize(motifs)
	return &NarrativeInfluence{
		InfluenceStrength:  syn.Intensity,
		PrimaryTone:        syn.Tone,
		NarrativeDirection: syn.Direction,
	}
}

// RandomMotifOptions constrain random generation. Unset fields are
// rolled.
type RandomMotifOptions struct {
	Category       motif.Category
	Scope          motif.Scope
	Location       *motif.Location
	IntensityRange [2]float64
}

// GenerateRandomMotif rolls a motif within the given constraints.
// Unconstrained scope is weighted toward local; unconstrained
// intensity spans 3.0-8.0.
func (s *Service) GenerateRandomMotif(ctx context.Context, opts RandomMotifOptions) (*motif.Motif, error) {
	category := opts.Category
	if category == "" {
		category = motif.Categories[s.rng.Intn(len(motif.Categories))]
	}

	scope := opts.Scope
	if scope == "" {
		roll := s.rng.Float64()
		switch {
		case roll < 0.6:
			scope = motif.ScopeLocal
		case roll < 0.9:
			scope = motif.ScopeRegional
		default:
			scope = motif.ScopeGlobal
		}
	}

	lo, hi := opts.IntensityRange[0], opts.IntensityRange[1]
	if lo == 0 && hi == 0 {
		lo, hi = 3.0, 8.0
	}
	intensity := s.rng.Uniform(lo, hi)

	effects := s.randomEffects(intensity)

	req := &motif.CreateRequest{
		Category:     category,
		Scope:        scope,
		Lifecycle:    motif.LifecycleEmerging,
		Intensity:    intensity,
		Location:     opts.Location,
		DurationDays: s.rng.Duration(scope, intensity),
		Effects:      effects,
	}
	return s.CreateMotif(ctx, req)
}

// randomEffects rolls 1-3 generic effects scaled near the motif's
// intensity.
func (s *Service) randomEffects(intensity float64) []motif.Effect {
	effectTypes := []string{"npc_behavior", "event_frequency", "narrative_flavor"}
	n := s.rng.IntRange(1, 3)
	effects := make([]motif.Effect, 0, n)
	for i := 0; i < n; i++ {
		effects = append(effects, motif.Effect{
			Type:      effectTypes[s.rng.Intn(len(effectTypes))],
			Intensity: intensity * s.rng.Uniform(0.7, 1.0),
			Target:    motif.TargetGeneral,
		})
	}
	return effects
}

// AdvanceLifecycles advances every motif with valid times one natural
// step where due, returning how many changed. Motifs without usable
// times are skipped, not failed.
func (s *Service) AdvanceLifecycles(ctx context.Context) (int, error) {
	all, err := s.repo.ListMotifs(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	changed := 0
	for _, m := range all {
		next, ok := NextLifecycle(m, now, false)
		if !ok || next == m.Lifecycle {
			continue
		}
		m.Lifecycle = next
		m.UpdatedAt = now
		if err := s.repo.SaveMotif(ctx, m); err != nil {
			s.logger.Error("Failed to persist lifecycle advance", "id", m.ID, "error", err)
			continue
		}
		changed++
	}
	return changed, nil
}

// BlendMotifs is the service-level blend: nil on empty input.
func (s *Service) BlendMotifs(motifs []*motif.Motif) *motif.Blend {
	return motif.BlendMotifs(motifs)
}

// RelatedCategories builds a thematic chain of the given length
// starting at start. Each step follows the adjacency table with the
// configured probability, otherwise takes a surprise turn to any other
// category (never the immediate predecessor).
func (s *Service) RelatedCategories(start motif.Category, count int) []motif.Category {
	chain := []motif.Category{start}
	for len(chain) < count {
		current := chain[len(chain)-1]
		related := motif.RelatedCategories(current)

		var next motif.Category
		if len(related) > 0 && s.rng.Float64() < s.tuning.AdjacentProbability {
			next = related[s.rng.Intn(len(related))]
		} else {
			for {
				next = motif.Categories[s.rng.Intn(len(motif.Categories))]
				if next != current {
					break
				}
			}
		}
		chain = append(chain, next)
	}
	return chain
}
