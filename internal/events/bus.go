// Package events carries motif lifecycle notifications from the engine
// to interested consumers (pub/sub broadcast, logging, future webhooks).
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Type identifies the kind of event being published
type Type string

const (
	TypeMotifCreated      Type = "motif.created"
	TypeMotifUpdated      Type = "motif.updated"
	TypeMotifDeleted      Type = "motif.deleted"
	TypeMotifTransitioned Type = "motif.transitioned"
	TypeMotifReconciled   Type = "motif.reconciled"
	TypeMotifEffects      Type = "motif.effects_applied"
	TypeChaosTriggered    Type = "chaos.triggered"
	TypeSequenceCreated   Type = "sequence.created"
	TypeWorldEvent        Type = "world.event"
)

// Event is the envelope delivered to every subscriber
type Event struct {
	Type       Type           `json:"type"`
	MotifID    string         `json:"motif_id,omitempty"`
	SequenceID string         `json:"sequence_id,omitempty"`
	RegionID   string         `json:"region_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
}

// Handler consumes a single event. Returned errors are logged and never
// stop delivery to other handlers.
type Handler func(ctx context.Context, ev Event) error

// Bus fans events out to registered handlers from a single dispatcher
// goroutine. Publishing never blocks the caller: when the buffer is full
// the event is dropped and counted.
type Bus struct {
	logger *slog.Logger
	ch     chan Event

	mu       sync.RWMutex
	handlers []Handler

	dropped int64
}

// NewBus creates a bus with the given buffer size (a non-positive size
// falls back to 64).
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		logger: logger,
		ch:     make(chan Event, buffer),
	}
}

// Subscribe registers a handler. Handlers registered after Run starts
// still receive subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish enqueues an event for dispatch. A zero timestamp is stamped
// with the current time.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case b.ch <- ev:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.logger.Warn("Event buffer full, dropping event", "event_type", ev.Type)
	}
}

// Dropped reports how many events were discarded because the buffer was full
func (b *Bus) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Run dispatches events until ctx is cancelled, then drains whatever is
// already buffered and returns.
func (b *Bus) Run(ctx context.Context) {
	b.logger.Info("Event bus started")
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-b.ch:
					b.dispatch(ctx, ev)
				default:
					b.logger.Info("Event bus stopped")
					return
				}
			}
		case ev := <-b.ch:
			b.dispatch(ctx, ev)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.logger.Error("Event handler failed",
				"event_type", ev.Type,
				"motif_id", ev.MotifID,
				"error", err)
		}
	}
}
