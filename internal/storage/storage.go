package storage

import (
	"context"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

// Repository is the persistence boundary for the motif engine. Both the
// Redis and SQLite backends implement it; handlers and services depend
// only on this interface.
//
// Get-style methods return (nil, nil) when the record does not exist.
type Repository interface {
	// Connection lifecycle.
	Ping(ctx context.Context) error
	Close() error
	WaitForConnection(ctx context.Context) error

	// Motifs.
	SaveMotif(ctx context.Context, m *motif.Motif) error
	GetMotif(ctx context.Context, id string) (*motif.Motif, error)
	DeleteMotif(ctx context.Context, id string) (bool, error)
	ListMotifs(ctx context.Context) ([]*motif.Motif, error)

	// Sequences. Membership is stored explicitly so arcs survive motif
	// edits and can be listed without scanning every motif.
	SaveSequence(ctx context.Context, seq *motif.Sequence) error
	GetSequence(ctx context.Context, id string) (*motif.Sequence, error)
	ListSequences(ctx context.Context) ([]*motif.Sequence, error)

	// Per-entity motif bookkeeping.
	GetEntityState(ctx context.Context, entityID string) (*motif.EntityState, error)
	SaveEntityState(ctx context.Context, entityID string, st *motif.EntityState) error

	// World log: append-only, newest first.
	AppendWorldEvent(ctx context.Context, ev motif.WorldEvent) error
	WorldEvents(ctx context.Context, limit, offset int) ([]motif.WorldEvent, error)
	WorldEventsByType(ctx context.Context, eventType string, limit int) ([]motif.WorldEvent, error)

	// Known regions. Regions register on first mention and persist so
	// reconciliation keeps them populated afterwards.
	RegisterRegion(ctx context.Context, regionID string) error
	ListRegions(ctx context.Context) ([]string, error)
}
