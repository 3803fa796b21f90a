package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

// SQLiteRepository is the single-file backend for deployments without a
// Redis. Records are stored as JSON documents with the queryable fields
// mirrored into indexed columns.
type SQLiteRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS motifs (
	id          TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	scope       TEXT NOT NULL,
	lifecycle   TEXT NOT NULL,
	intensity   REAL NOT NULL,
	region_id   TEXT NOT NULL DEFAULT '',
	sequence_id TEXT NOT NULL DEFAULT '',
	doc         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_motifs_lifecycle ON motifs (lifecycle);
CREATE INDEX IF NOT EXISTS idx_motifs_region ON motifs (region_id);

CREATE TABLE IF NOT EXISTS sequences (
	id  TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
	id  TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS worldlog (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id TEXT NOT NULL,
	doc      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS regions (
	id TEXT PRIMARY KEY
);
`

// NewSQLiteRepository opens (and if needed initializes) the database at
// path. Use ":memory:" for an ephemeral store.
func NewSQLiteRepository(path string, logger *slog.Logger) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (s *SQLiteRepository) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close sqlite database", "error", err)
		return err
	}
	s.logger.Info("SQLite database closed")
	return nil
}

// WaitForConnection is immediate for a local file database.
func (s *SQLiteRepository) WaitForConnection(ctx context.Context) error {
	return s.Ping(ctx)
}

// Motif operations

func (s *SQLiteRepository) SaveMotif(ctx context.Context, m *motif.Motif) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal motif: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO motifs (id, category, scope, lifecycle, intensity, region_id, sequence_id, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			category = excluded.category,
			scope = excluded.scope,
			lifecycle = excluded.lifecycle,
			intensity = excluded.intensity,
			region_id = excluded.region_id,
			sequence_id = excluded.sequence_id,
			doc = excluded.doc`,
		m.ID, m.Category, m.Scope, m.Lifecycle, m.Intensity, m.RegionID(), m.SequenceID, doc)
	if err != nil {
		s.logger.Error("Failed to save motif", "id", m.ID, "error", err)
		return fmt.Errorf("failed to save motif: %w", err)
	}

	if region := m.RegionID(); region != "" {
		if err := s.RegisterRegion(ctx, region); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteRepository) GetMotif(ctx context.Context, id string) (*motif.Motif, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM motifs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load motif: %w", err)
	}

	var m motif.Motif
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal motif: %w", err)
	}
	return &m, nil
}

func (s *SQLiteRepository) DeleteMotif(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM motifs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete motif: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteRepository) ListMotifs(ctx context.Context) ([]*motif.Motif, error) {
	var docs []string
	if err := s.db.SelectContext(ctx, &docs, `SELECT doc FROM motifs`); err != nil {
		return nil, fmt.Errorf("failed to list motifs: %w", err)
	}

	motifs := make([]*motif.Motif, 0, len(docs))
	for _, doc := range docs {
		var m motif.Motif
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			s.logger.Warn("Skipping undecodable motif row", "error", err)
			continue
		}
		motifs = append(motifs, &m)
	}
	return motifs, nil
}

// Sequence operations

func (s *SQLiteRepository) SaveSequence(ctx context.Context, seq *motif.Sequence) error {
	doc, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("failed to marshal sequence: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sequences (id, doc) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET doc = excluded.doc`,
		seq.ID, doc)
	if err != nil {
		return fmt.Errorf("failed to save sequence: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) GetSequence(ctx context.Context, id string) (*motif.Sequence, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM sequences WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sequence: %w", err)
	}

	var seq motif.Sequence
	if err := json.Unmarshal([]byte(doc), &seq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sequence: %w", err)
	}
	return &seq, nil
}

func (s *SQLiteRepository) ListSequences(ctx context.Context) ([]*motif.Sequence, error) {
	var docs []string
	if err := s.db.SelectContext(ctx, &docs, `SELECT doc FROM sequences`); err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}

	var seqs []*motif.Sequence
	for _, doc := range docs {
		var seq motif.Sequence
		if err := json.Unmarshal([]byte(doc), &seq); err != nil {
			s.logger.Warn("Skipping undecodable sequence row", "error", err)
			continue
		}
		seqs = append(seqs, &seq)
	}
	return seqs, nil
}

// Entity state operations

func (s *SQLiteRepository) GetEntityState(ctx context.Context, entityID string) (*motif.EntityState, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM entities WHERE id = ?`, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entity state: %w", err)
	}

	var st motif.EntityState
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity state: %w", err)
	}
	return &st, nil
}

func (s *SQLiteRepository) SaveEntityState(ctx context.Context, entityID string, st *motif.EntityState) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal entity state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, doc) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET doc = excluded.doc`,
		entityID, doc)
	if err != nil {
		return fmt.Errorf("failed to save entity state: %w", err)
	}
	return nil
}

// World log operations

func (s *SQLiteRepository) AppendWorldEvent(ctx context.Context, ev motif.WorldEvent) error {
	doc, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal world event: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO worldlog (event_id, doc) VALUES (?, ?)`, ev.EventID, doc)
	if err != nil {
		return fmt.Errorf("failed to append world event: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) WorldEvents(ctx context.Context, limit, offset int) ([]motif.WorldEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	var docs []string
	err := s.db.SelectContext(ctx, &docs,
		`SELECT doc FROM worldlog ORDER BY seq DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read world log: %w", err)
	}

	events := make([]motif.WorldEvent, 0, len(docs))
	for _, doc := range docs {
		var ev motif.WorldEvent
		if err := json.Unmarshal([]byte(doc), &ev); err != nil {
			s.logger.Warn("Skipping undecodable world event row", "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// WorldEventsByType returns the newest events of one type, filtering
// in SQL so other event types cannot crowd them out of the page.
func (s *SQLiteRepository) WorldEventsByType(ctx context.Context, eventType string, limit int) ([]motif.WorldEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	var docs []string
	err := s.db.SelectContext(ctx, &docs,
		`SELECT doc FROM worldlog WHERE json_extract(doc, '$.type') = ? ORDER BY seq DESC LIMIT ?`,
		eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read world log: %w", err)
	}

	events := make([]motif.WorldEvent, 0, len(docs))
	for _, doc := range docs {
		var ev motif.WorldEvent
		if err := json.Unmarshal([]byte(doc), &ev); err != nil {
			s.logger.Warn("Skipping undecodable world event row", "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Region operations

func (s *SQLiteRepository) RegisterRegion(ctx context.Context, regionID string) error {
	if regionID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO regions (id) VALUES (?) ON CONFLICT (id) DO NOTHING`, regionID)
	if err != nil {
		return fmt.Errorf("failed to register region: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) ListRegions(ctx context.Context) ([]string, error) {
	var regions []string
	if err := s.db.SelectContext(ctx, &regions, `SELECT id FROM regions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	return regions, nil
}
