package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

// Redis key layout:
//
//	motif:<id>      JSON-encoded motif
//	motifs          set of motif ids
//	sequence:<id>   JSON-encoded sequence
//	sequences       set of sequence ids
//	entity:<id>     JSON-encoded entity state
//	worldlog        list of JSON events, newest first
//	regions         set of region ids
type RedisRepository struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Repository = (*RedisRepository)(nil)

// NewRedisRepository creates a Redis-backed repository.
func NewRedisRepository(redisURL string, logger *slog.Logger) *RedisRepository {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisRepository{
		client: rdb,
		logger: logger,
	}
}

// Client exposes the underlying connection for pub/sub consumers that
// share it (event broadcasting).
func (r *RedisRepository) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisRepository) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Motif operations

func (r *RedisRepository) SaveMotif(ctx context.Context, m *motif.Motif) error {
	data, err := json.Marshal(m)
	if err != nil {
		r.logger.Error("Failed to marshal motif", "id", m.ID, "error", err)
		return fmt.Errorf("failed to marshal motif: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, "motif:"+m.ID, data, 0)
	pipe.SAdd(ctx, "motifs", m.ID)
	if region := m.RegionID(); region != "" {
		pipe.SAdd(ctx, "regions", region)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save motif", "id", m.ID, "error", err)
		return fmt.Errorf("failed to save motif: %w", err)
	}
	return nil
}

func (r *RedisRepository) GetMotif(ctx context.Context, id string) (*motif.Motif, error) {
	data, err := r.client.Get(ctx, "motif:"+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to load motif", "id", id, "error", err)
		return nil, fmt.Errorf("failed to load motif: %w", err)
	}

	var m motif.Motif
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		r.logger.Error("Failed to unmarshal motif", "id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal motif: %w", err)
	}
	return &m, nil
}

func (r *RedisRepository) DeleteMotif(ctx context.Context, id string) (bool, error) {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, "motif:"+id)
	pipe.SRem(ctx, "motifs", id)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete motif", "id", id, "error", err)
		return false, fmt.Errorf("failed to delete motif: %w", err)
	}
	return del.Val() > 0, nil
}

func (r *RedisRepository) ListMotifs(ctx context.Context) ([]*motif.Motif, error) {
	ids, err := r.client.SMembers(ctx, "motifs").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list motif ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "motif:" + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load motifs: %w", err)
	}

	motifs := make([]*motif.Motif, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Id in the set but key expired or deleted; clean up.
			r.client.SRem(ctx, "motifs", ids[i])
			continue
		}
		var m motif.Motif
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			r.logger.Warn("Skipping undecodable motif", "id", ids[i], "error", err)
			continue
		}
		motifs = append(motifs, &m)
	}
	return motifs, nil
}

// Sequence operations

func (r *RedisRepository) SaveSequence(ctx context.Context, seq *motif.Sequence) error {
	data, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("failed to marshal sequence: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, "sequence:"+seq.ID, data, 0)
	pipe.SAdd(ctx, "sequences", seq.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save sequence", "id", seq.ID, "error", err)
		return fmt.Errorf("failed to save sequence: %w", err)
	}
	return nil
}

func (r *RedisRepository) GetSequence(ctx context.Context, id string) (*motif.Sequence, error) {
	data, err := r.client.Get(ctx, "sequence:"+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load sequence: %w", err)
	}

	var seq motif.Sequence
	if err := json.Unmarshal([]byte(data), &seq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sequence: %w", err)
	}
	return &seq, nil
}

func (r *RedisRepository) ListSequences(ctx context.Context) ([]*motif.Sequence, error) {
	ids, err := r.client.SMembers(ctx, "sequences").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sequence ids: %w", err)
	}

	var seqs []*motif.Sequence
	for _, id := range ids {
		seq, err := r.GetSequence(ctx, id)
		if err != nil {
			return nil, err
		}
		if seq != nil {
			seqs = append(seqs, seq)
		}
	}
	return seqs, nil
}

// Entity state operations

func (r *RedisRepository) GetEntityState(ctx context.Context, entityID string) (*motif.EntityState, error) {
	data, err := r.client.Get(ctx, "entity:"+entityID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load entity state: %w", err)
	}

	var st motif.EntityState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity state: %w", err)
	}
	return &st, nil
}

func (r *RedisRepository) SaveEntityState(ctx context.Context, entityID string, st *motif.EntityState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal entity state: %w", err)
	}
	if err := r.client.Set(ctx, "entity:"+entityID, data, 0).Err(); err != nil {
		r.logger.Error("Failed to save entity state", "entity_id", entityID, "error", err)
		return fmt.Errorf("failed to save entity state: %w", err)
	}
	return nil
}

// World log operations

func (r *RedisRepository) AppendWorldEvent(ctx context.Context, ev motif.WorldEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal world event: %w", err)
	}
	if err := r.client.LPush(ctx, "worldlog", data).Err(); err != nil {
		r.logger.Error("Failed to append world event", "event_id", ev.EventID, "error", err)
		return fmt.Errorf("failed to append world event: %w", err)
	}
	return nil
}

func (r *RedisRepository) WorldEvents(ctx context.Context, limit, offset int) ([]motif.WorldEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	start := int64(offset)
	stop := start + int64(limit) - 1

	raw, err := r.client.LRange(ctx, "worldlog", start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read world log: %w", err)
	}

	events := make([]motif.WorldEvent, 0, len(raw))
	for _, item := range raw {
		var ev motif.WorldEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			r.logger.Warn("Skipping undecodable world event", "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// WorldEventsByType scans the world log newest-first for events of one
// type. The log is a plain list with no per-type index, so it walks
// the list in pages until the limit is met or the log is exhausted.
func (r *RedisRepository) WorldEventsByType(ctx context.Context, eventType string, limit int) ([]motif.WorldEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	const page = 256
	events := make([]motif.WorldEvent, 0, limit)
	for start := int64(0); ; start += page {
		raw, err := r.client.LRange(ctx, "worldlog", start, start+page-1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read world log: %w", err)
		}
		for _, item := range raw {
			var ev motif.WorldEvent
			if err := json.Unmarshal([]byte(item), &ev); err != nil {
				r.logger.Warn("Skipping undecodable world event", "error", err)
				continue
			}
			if ev.Type != eventType {
				continue
			}
			events = append(events, ev)
			if len(events) == limit {
				return events, nil
			}
		}
		if len(raw) < page {
			return events, nil
		}
	}
}

// Region operations

func (r *RedisRepository) RegisterRegion(ctx context.Context, regionID string) error {
	if regionID == "" {
		return nil
	}
	if err := r.client.SAdd(ctx, "regions", regionID).Err(); err != nil {
		return fmt.Errorf("failed to register region: %w", err)
	}
	return nil
}

func (r *RedisRepository) ListRegions(ctx context.Context) ([]string, error) {
	regions, err := r.client.SMembers(ctx, "regions").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	return regions, nil
}
