package handlers

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/lorekeep/motif-engine/internal/config"
	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/internal/storage"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testDeps(t *testing.T) (*engine.Manager, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	bus := events.NewBus(256, testLogger)
	mgr := engine.NewManager(repo, bus, config.DefaultTuning(), rand.New(rand.NewSource(7)), testLogger)
	return mgr, repo
}

func seedMotif(t *testing.T, repo *storage.MockRepository, m *motif.Motif) *motif.Motif {
	t.Helper()
	if m.ID == "" {
		m.ID = motif.NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := repo.SaveMotif(context.Background(), m); err != nil {
		t.Fatalf("seed motif: %v", err)
	}
	return m
}
