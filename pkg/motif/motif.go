package motif

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scope is the spatial reach of a motif. It also determines how quickly
// the motif's influence decays with distance.
type Scope string

const (
	ScopeLocal    Scope = "local"
	ScopeRegional Scope = "regional"
	ScopeGlobal   Scope = "global"
)

// ParseScope converts a string to a Scope, returning an error for
// unknown values.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeLocal, ScopeRegional, ScopeGlobal:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid motif scope: %q", s)
}

// DecayMultiplier returns the scope's distance-decay multiplier. Local
// motifs decay twice as fast as regional ones; global motifs decay at
// half the rate.
func (s Scope) DecayMultiplier() float64 {
	switch s {
	case ScopeLocal:
		return 0.5
	case ScopeGlobal:
		return 2.0
	default:
		return 1.0
	}
}

// Lifecycle is the aging state of a motif. Motifs only ever move
// forward through the progression; dormant is terminal.
type Lifecycle string

const (
	LifecycleEmerging Lifecycle = "emerging"
	LifecycleStable   Lifecycle = "stable"
	LifecycleWaning   Lifecycle = "waning"
	LifecycleDormant  Lifecycle = "dormant"
)

// ParseLifecycle converts a string to a Lifecycle, returning an error
// for unknown values.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch Lifecycle(s) {
	case LifecycleEmerging, LifecycleStable, LifecycleWaning, LifecycleDormant:
		return Lifecycle(s), nil
	}
	return "", fmt.Errorf("invalid motif lifecycle: %q", s)
}

// Rank orders lifecycle states for monotonicity checks.
func (l Lifecycle) Rank() int {
	switch l {
	case LifecycleEmerging:
		return 0
	case LifecycleStable:
		return 1
	case LifecycleWaning:
		return 2
	case LifecycleDormant:
		return 3
	}
	return -1
}

// Next returns the following lifecycle state. Dormant is absorbing.
func (l Lifecycle) Next() Lifecycle {
	switch l {
	case LifecycleEmerging:
		return LifecycleStable
	case LifecycleStable:
		return LifecycleWaning
	case LifecycleWaning:
		return LifecycleDormant
	}
	return LifecycleDormant
}

// Category is the closed set of narrative themes a motif can carry.
type Category string

const (
	CategoryAscension      Category = "ascension"
	CategoryBetrayal       Category = "betrayal"
	CategoryChaos          Category = "chaos"
	CategoryCollapse       Category = "collapse"
	CategoryCompulsion     Category = "compulsion"
	CategoryControl        Category = "control"
	CategoryDeath          Category = "death"
	CategoryDeception      Category = "deception"
	CategoryDefiance       Category = "defiance"
	CategoryDesire         Category = "desire"
	CategoryDestiny        Category = "destiny"
	CategoryEcho           Category = "echo"
	CategoryFaith          Category = "faith"
	CategoryFear           Category = "fear"
	CategoryFutility       Category = "futility"
	CategoryGrief          Category = "grief"
	CategoryGuilt          Category = "guilt"
	CategoryHope           Category = "hope"
	CategoryInnocence      Category = "innocence"
	CategoryIsolation      Category = "isolation"
	CategoryJustice        Category = "justice"
	CategoryLoyalty        Category = "loyalty"
	CategoryMadness        Category = "madness"
	CategoryMystery        Category = "mystery"
	CategoryObsession      Category = "obsession"
	CategoryParanoia       Category = "paranoia"
	CategoryPeace          Category = "peace"
	CategoryPower          Category = "power"
	CategoryPride          Category = "pride"
	CategoryProtection     Category = "protection"
	CategoryRebirth        Category = "rebirth"
	CategoryRedemption     Category = "redemption"
	CategoryRegret         Category = "regret"
	CategoryRevelation     Category = "revelation"
	CategorySacrifice      Category = "sacrifice"
	CategoryTemptation     Category = "temptation"
	CategoryTransformation Category = "transformation"
	CategoryTruth          Category = "truth"
	CategoryUnity          Category = "unity"
	CategoryVengeance      Category = "vengeance"
	CategoryWar            Category = "war"
)

// Categories lists every valid category in a stable order.
var Categories = []Category{
	CategoryAscension, CategoryBetrayal, CategoryChaos, CategoryCollapse,
	CategoryCompulsion, CategoryControl, CategoryDeath, CategoryDeception,
	CategoryDefiance, CategoryDesire, CategoryDestiny, CategoryEcho,
	CategoryFaith, CategoryFear, CategoryFutility, CategoryGrief,
	CategoryGuilt, CategoryHope, CategoryInnocence, CategoryIsolation,
	CategoryJustice, CategoryLoyalty, CategoryMadness, CategoryMystery,
	CategoryObsession, CategoryParanoia, CategoryPeace, CategoryPower,
	CategoryPride, CategoryProtection, CategoryRebirth, CategoryRedemption,
	CategoryRegret, CategoryRevelation, CategorySacrifice, CategoryTemptation,
	CategoryTransformation, CategoryTruth, CategoryUnity, CategoryVengeance,
	CategoryWar,
}

var categorySet = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// ParseCategory converts a string to a Category, returning an error for
// unknown values.
func ParseCategory(s string) (Category, error) {
	if _, ok := categorySet[Category(s)]; ok {
		return Category(s), nil
	}
	return "", fmt.Errorf("invalid motif category: %q", s)
}

// EffectTarget identifies the downstream system a motif effect nudges.
type EffectTarget string

const (
	TargetNPC         EffectTarget = "npc"
	TargetEvent       EffectTarget = "event"
	TargetQuest       EffectTarget = "quest"
	TargetFaction     EffectTarget = "faction"
	TargetEnvironment EffectTarget = "environment"
	TargetEconomy     EffectTarget = "economy"
	TargetNarrative   EffectTarget = "narrative"
	TargetGeneral     EffectTarget = "general"
)

// AllEffectTargets is the full set of systems effects can apply to,
// used when a caller does not narrow the target list.
var AllEffectTargets = []EffectTarget{
	TargetNPC, TargetEvent, TargetQuest, TargetFaction,
	TargetEnvironment, TargetEconomy, TargetNarrative,
}

// Effect describes one way a motif nudges a downstream system.
type Effect struct {
	Type      string       `json:"effect_type"`
	Intensity float64      `json:"intensity"`
	Target    EffectTarget `json:"target"`
}

// Location anchors a regional or local motif in the world. Global
// motifs carry no location.
type Location struct {
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	RegionID string  `json:"region_id,omitempty"`
	Name     string  `json:"name,omitempty"`
}

// Motif is a named thematic force acting on the world.
type Motif struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Scope       Scope     `json:"scope"`
	Lifecycle   Lifecycle `json:"lifecycle"`
	Intensity   float64   `json:"intensity"`

	Location     *Location `json:"location,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time,omitzero"`
	DurationDays int       `json:"duration_days,omitempty"`

	Effects []Effect `json:"effects,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	// Sequence membership. Motifs outside any sequence leave these zero.
	SequenceID       string `json:"sequence_id,omitempty"`
	SequencePosition int    `json:"sequence_position,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the motif still exerts narrative influence.
func (m *Motif) IsActive() bool {
	return m.Lifecycle != LifecycleDormant
}

// RegionID returns the motif's region id, or "" when it has none.
func (m *Motif) RegionID() string {
	if m.Location == nil {
		return ""
	}
	return m.Location.RegionID
}

// ResolveEndTime fills EndTime from StartTime+DurationDays when the
// caller supplied only a duration.
func (m *Motif) ResolveEndTime() {
	if m.EndTime.IsZero() && !m.StartTime.IsZero() && m.DurationDays > 0 {
		m.EndTime = m.StartTime.AddDate(0, 0, m.DurationDays)
	}
}

// CreateRequest is the input for creating a motif. Name and description
// are generated from category/scope/intensity when omitted.
type CreateRequest struct {
	Name         string    `json:"name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Category     Category  `json:"category"`
	Scope        Scope     `json:"scope"`
	Lifecycle    Lifecycle `json:"lifecycle,omitempty"`
	Intensity    float64   `json:"intensity"`
	Location     *Location `json:"location,omitempty"`
	StartTime    time.Time `json:"start_time,omitzero"`
	EndTime      time.Time `json:"end_time,omitzero"`
	DurationDays int       `json:"duration_days,omitempty"`
	Effects      []Effect  `json:"effects,omitempty"`
	Tags         []string  `json:"tags,omitempty"`

	SequenceID       string `json:"sequence_id,omitempty"`
	SequencePosition int    `json:"sequence_position,omitempty"`
}

// Validate checks the closed enums and the intensity range.
func (r *CreateRequest) Validate() error {
	if _, err := ParseCategory(string(r.Category)); err != nil {
		return err
	}
	if _, err := ParseScope(string(r.Scope)); err != nil {
		return err
	}
	if r.Lifecycle != "" {
		if _, err := ParseLifecycle(string(r.Lifecycle)); err != nil {
			return err
		}
	}
	if r.Intensity < 0 || r.Intensity > 10 {
		return fmt.Errorf("intensity must be between 0 and 10, got %g", r.Intensity)
	}
	for i, e := range r.Effects {
		if e.Target == "" {
			return fmt.Errorf("effect %d missing target", i)
		}
	}
	return nil
}

// UpdateRequest is a partial patch. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Lifecycle   *Lifecycle `json:"lifecycle,omitempty"`
	Intensity   *float64   `json:"intensity,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Effects     []Effect   `json:"effects,omitempty"`
	Tags        []string   `json:"tags,omitempty"`

	SequenceID       *string `json:"sequence_id,omitempty"`
	SequencePosition *int    `json:"sequence_position,omitempty"`
}

// Apply writes the patch onto m and bumps UpdatedAt.
func (r *UpdateRequest) Apply(m *Motif) {
	if r.Name != nil {
		m.Name = *r.Name
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.Lifecycle != nil {
		m.Lifecycle = *r.Lifecycle
	}
	if r.Intensity != nil {
		m.Intensity = *r.Intensity
	}
	if r.Location != nil {
		m.Location = r.Location
	}
	if r.EndTime != nil {
		m.EndTime = *r.EndTime
	}
	if r.Effects != nil {
		m.Effects = r.Effects
	}
	if r.Tags != nil {
		m.Tags = r.Tags
	}
	if r.SequenceID != nil {
		m.SequenceID = *r.SequenceID
	}
	if r.SequencePosition != nil {
		m.SequencePosition = *r.SequencePosition
	}
	m.UpdatedAt = time.Now().UTC()
}

// Filter narrows motif queries. Zero-value fields are ignored.
type Filter struct {
	Category     Category     `json:"category,omitempty"`
	Scopes       []Scope      `json:"scopes,omitempty"`
	Lifecycles   []Lifecycle  `json:"lifecycles,omitempty"`
	MinIntensity *float64     `json:"min_intensity,omitempty"`
	MaxIntensity *float64     `json:"max_intensity,omitempty"`
	RegionID     string       `json:"region_id,omitempty"`
	EffectTarget EffectTarget `json:"effect_target,omitempty"`
	ActiveOnly   bool         `json:"active_only,omitempty"`
}

// Matches reports whether m satisfies every set field of the filter.
func (f *Filter) Matches(m *Motif) bool {
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if len(f.Scopes) > 0 && !containsScope(f.Scopes, m.Scope) {
		return false
	}
	if len(f.Lifecycles) > 0 && !containsLifecycle(f.Lifecycles, m.Lifecycle) {
		return false
	}
	if f.MinIntensity != nil && m.Intensity < *f.MinIntensity {
		return false
	}
	if f.MaxIntensity != nil && m.Intensity > *f.MaxIntensity {
		return false
	}
	if f.RegionID != "" && m.RegionID() != f.RegionID {
		return false
	}
	if f.EffectTarget != "" {
		found := false
		for _, e := range m.Effects {
			if e.Target == f.EffectTarget {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ActiveOnly && !m.IsActive() {
		return false
	}
	return true
}

func containsScope(list []Scope, s Scope) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsLifecycle(list []Lifecycle, l Lifecycle) bool {
	for _, v := range list {
		if v == l {
			return true
		}
	}
	return false
}

// ActiveLifecycles is the non-dormant lifecycle set, the usual filter
// for "motifs that still matter".
var ActiveLifecycles = []Lifecycle{LifecycleEmerging, LifecycleStable, LifecycleWaning}

// EstablishedLifecycles excludes waning motifs as well; reconciliation
// counts only these when deciding whether to generate replacements.
var EstablishedLifecycles = []Lifecycle{LifecycleEmerging, LifecycleStable}

// EntityMotif is one themed pressure acting on an entity.
type EntityMotif struct {
	Theme  string  `json:"theme"`
	Weight float64 `json:"weight"`
}

// EntityState is the per-entity motif bookkeeping owned by the
// repository's entity records.
type EntityState struct {
	ActiveMotifs []EntityMotif `json:"active_motifs"`
	MotifHistory []string      `json:"motif_history"`
	LastRotated  time.Time     `json:"last_rotated,omitzero"`
}

// WorldEvent is one append-only record in the world log.
type WorldEvent struct {
	EventID   string         `json:"event_id"`
	Summary   string         `json:"summary"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// Sequence is the explicit membership record for a narrative arc: the
// ordered list of motif ids sharing one sequence id.
type Sequence struct {
	ID       string    `json:"id"`
	MotifIDs []string  `json:"motif_ids"`
	Created  time.Time `json:"created"`
}

// NewID returns a fresh motif id.
func NewID() string {
	return uuid.New().String()
}

// NewSequenceID returns a fresh sequence id.
func NewSequenceID() string {
	return "seq-" + uuid.New().String()[:8]
}

// NewEventID returns a fresh world-event id with a type prefix.
func NewEventID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}
