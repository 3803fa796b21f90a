package engine

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/lorekeep/motif-engine/internal/config"
	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/internal/storage"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testManager(t *testing.T) (*Manager, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	bus := events.NewBus(256, testLogger)
	mgr := NewManager(repo, bus, config.DefaultTuning(), rand.New(rand.NewSource(42)), testLogger)
	return mgr, repo
}

// collectEvents runs the bus dispatcher and records everything it
// delivers.
func collectEvents(t *testing.T, mgr *Manager) func() []events.Event {
	t.Helper()
	ch := make(chan events.Event, 256)
	mgr.bus.Subscribe(func(ctx context.Context, ev events.Event) error {
		ch <- ev
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		mgr.bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return func() []events.Event {
		cancel()
		<-done
		var got []events.Event
		for {
			select {
			case ev := <-ch:
				got = append(got, ev)
			default:
				return got
			}
		}
	}
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
