package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/narrator/internal/models"
)

const keyPrefix = "narrator:artifact:"

// RedisStore keeps artifacts in Redis hashes with a TTL, so several API
// instances can serve the same audio.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(id uuid.UUID) string { return keyPrefix + id.String() }

func (s *RedisStore) Put(ctx context.Context, a *models.AudioArtifact) error {
	if a == nil || a.ID == uuid.Nil {
		return fmt.Errorf("put artifact: missing id")
	}
	meta, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	k := key(a.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "meta", meta, "audio", a.Audio)
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store artifact %s: %w", a.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*models.AudioArtifact, error) {
	fields, err := s.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get artifact %s: %w", id, err)
	}
	meta, ok := fields["meta"]
	if !ok {
		return nil, ErrNotFound
	}

	var a models.AudioArtifact
	if err := json.Unmarshal([]byte(meta), &a); err != nil {
		return nil, fmt.Errorf("unmarshal artifact %s: %w", id, err)
	}
	a.Audio = []byte(fields["audio"])
	return &a, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, key(id)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
