package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/lorekeep/motif-engine/internal/config"
	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/internal/storage"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

// Manager orchestrates the motif world: it wraps the service with a
// read cache, emits events for every mutation, enforces the global and
// regional invariants, and drives the lifecycle loop. Handlers and
// workers share one Manager.
type Manager struct {
	service *Service
	repo    storage.Repository
	bus     *events.Bus
	tuning  config.Tuning
	logger  *slog.Logger
	rng     *randSource

	// now is swappable so lifecycle timing is testable.
	now func() time.Time

	cacheMu  sync.Mutex
	cached   []*motif.Motif
	cachedAt time.Time
}

// NewManager wires a manager from its dependencies. A nil rng seeds
// from the clock.
func NewManager(repo storage.Repository, bus *events.Bus, tuning config.Tuning, rng *rand.Rand, logger *slog.Logger) *Manager {
	return &Manager{
		service: NewService(repo, tuning, rng, logger),
		repo:    repo,
		bus:     bus,
		tuning:  tuning,
		logger:  logger,
		rng:     newRandSource(rng),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Service exposes the underlying rule layer for read paths that need
// no caching or events.
func (mgr *Manager) Service() *Service { return mgr.service }

func (mgr *Manager) invalidate() {
	mgr.cacheMu.Lock()
	mgr.cached = nil
	mgr.cacheMu.Unlock()
}

// GetMotifs returns motifs matching the filter. The unfiltered listing
// is cached for the configured TTL; every mutation invalidates it.
func (mgr *Manager) GetMotifs(ctx context.Context, f *motif.Filter) ([]*motif.Motif, error) {
	mgr.cacheMu.Lock()
	all := mgr.cached
	fresh := all != nil && mgr.now().Sub(mgr.cachedAt) < mgr.tuning.CacheTTL
	mgr.cacheMu.Unlock()

	if !fresh {
		var err error
		all, err = mgr.repo.ListMotifs(ctx)
		if err != nil {
			return nil, err
		}
		mgr.cacheMu.Lock()
		mgr.cached = all
		mgr.cachedAt = mgr.now()
		mgr.cacheMu.Unlock()
	}

	if f == nil {
		return all, nil
	}
	matched := make([]*motif.Motif, 0, len(all))
	for _, m := range all {
		if f.Matches(m) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// CreateMotif creates a motif and announces it.
func (mgr *Manager) CreateMotif(ctx context.Context, req *motif.CreateRequest) (*motif.Motif, error) {
	m, err := mgr.service.CreateMotif(ctx, req)
	if err != nil {
		return nil, err
	}
	mgr.invalidate()
	mgr.bus.Publish(events.Event{
		Type:     events.TypeMotifCreated,
		MotifID:  m.ID,
		RegionID: m.RegionID(),
		Data: map[string]any{
			"name":     m.Name,
			"category": m.Category,
			"scope":    m.Scope,
		},
	})
	return m, nil
}

// GetMotif returns a motif by id, or nil when absent.
func (mgr *Manager) GetMotif(ctx context.Context, id string) (*motif.Motif, error) {
	return mgr.service.GetMotif(ctx, id)
}

// UpdateMotif patches a motif and announces the change. Returns nil
// when the motif does not exist.
func (mgr *Manager) UpdateMotif(ctx context.Context, id string, upd *motif.UpdateRequest) (*motif.Motif, error) {
	m, err := mgr.service.UpdateMotif(ctx, id, upd)
	if err != nil || m == nil {
		return nil, err
	}
	mgr.invalidate()
	mgr.bus.Publish(events.Event{
		Type:     events.TypeMotifUpdated,
		MotifID:  m.ID,
		RegionID: m.RegionID(),
	})
	return m, nil
}

// DeleteMotif removes a motif, reporting whether it existed.
func (mgr *Manager) DeleteMotif(ctx context.Context, id string) (bool, error) {
	existed, err := mgr.service.DeleteMotif(ctx, id)
	if err != nil || !existed {
		return existed, err
	}
	mgr.invalidate()
	mgr.bus.Publish(events.Event{
		Type:    events.TypeMotifDeleted,
		MotifID: id,
	})
	return true, nil
}

// GenerateRandomMotif rolls and persists a motif within the given
// constraints, announcing it like any other creation.
func (mgr *Manager) GenerateRandomMotif(ctx context.Context, opts RandomMotifOptions) (*motif.Motif, error) {
	m, err := mgr.service.GenerateRandomMotif(ctx, opts)
	if err != nil {
		return nil, err
	}
	mgr.invalidate()
	mgr.bus.Publish(events.Event{
		Type:     events.TypeMotifCreated,
		MotifID:  m.ID,
		RegionID: m.RegionID(),
		Data:     map[string]any{"generated": true, "category": m.Category},
	})
	return m, nil
}

// DominantMotifs returns the strongest established motifs, strongest
// first, at most limit of them.
func (mgr *Manager) DominantMotifs(ctx context.Context, limit int) ([]*motif.Motif, error) {
	established, err := mgr.GetMotifs(ctx, &motif.Filter{Lifecycles: motif.EstablishedLifecycles})
	if err != nil {
		return nil, err
	}
	sorted := make([]*motif.Motif, len(established))
	copy(sorted, established)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Intensity != sorted[j].Intensity {
			return sorted[i].Intensity > sorted[j].Intensity
		}
		return sorted[i].ID < sorted[j].ID
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// MotifsByLocation returns the established motifs whose influence
// reaches the point, with distance-decayed intensities, strongest
// effective influence first. Motifs without an anchor are skipped.
func (mgr *Manager) MotifsByLocation(ctx context.Context, x, y float64) ([]*motif.Spread, error) {
	established, err := mgr.GetMotifs(ctx, &motif.Filter{Lifecycles: motif.EstablishedLifecycles})
	if err != nil {
		return nil, err
	}

	var spreads []*motif.Spread
	for _, m := range established {
		if m.Location == nil {
			continue
		}
		d := motif.Distance(x, y, m.Location.X, m.Location.Y)
		if sp := motif.CalculateSpread(m, d, mgr.tuning.MaxDistance); sp != nil {
			spreads = append(spreads, sp)
		}
	}
	sort.SliceStable(spreads, func(i, j int) bool {
		return spreads[i].EffectiveIntensity > spreads[j].EffectiveIntensity
	})
	return spreads, nil
}

// ApplyMotifEffects resolves a motif's effects and announces the
// application. Dormant motifs yield a skipped report silently.
func (mgr *Manager) ApplyMotifEffects(ctx context.Context, m *motif.Motif) *EffectReport {
	report := mgr.service.ApplyEffects(m)
	if report.Skipped {
		return report
	}
	mgr.bus.Publish(events.Event{
		Type:     events.TypeMotifEffects,
		MotifID:  m.ID,
		RegionID: m.RegionID(),
		Data:     map[string]any{"outcomes": len(report.Outcomes)},
	})
	return report
}

// RegisterRegion makes a region known to reconciliation and
// immediately tops it up to the regional floor.
func (mgr *Manager) RegisterRegion(ctx context.Context, regionID string) error {
	if err := mgr.repo.RegisterRegion(ctx, regionID); err != nil {
		return err
	}
	return mgr.reconcileRegion(ctx, regionID)
}
