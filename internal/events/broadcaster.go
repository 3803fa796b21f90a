package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Broadcaster relays bus events to Redis Pub/Sub so external listeners
// (game servers, dashboards) can follow motif activity live.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Handler returns a bus handler that publishes every event to the
// motif-events channel, plus a region-scoped channel when the event
// carries a region.
func (b *Broadcaster) Handler() Handler {
	return func(ctx context.Context, ev Event) error {
		if err := b.publish(ctx, "motif-events", ev); err != nil {
			return err
		}
		if ev.RegionID != "" {
			channel := fmt.Sprintf("motif-events:%s", ev.RegionID)
			return b.publish(ctx, channel, ev)
		}
		return nil
	}
}

func (b *Broadcaster) publish(ctx context.Context, channel string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", ev.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", ev.Type,
		"motif_id", ev.MotifID,
	)

	return nil
}
