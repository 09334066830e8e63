package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

// RedisStore keeps the rolling snapshot in a single Redis key, for
// deployments without a persistent disk. Same contract as FileStore.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "steam-digest:snapshot"
	}

	return &RedisStore{client: client, key: key}, nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Load reads the snapshot key. An absent key is the first-run condition.
func (r *RedisStore) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, nil
		}
		return nil, fmt.Errorf("reading snapshot key: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: parsing key %s: %v", domain.ErrMalformedSnapshot, r.key, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}
	return snapshot, nil
}

// Save overwrites the snapshot key.
func (r *RedisStore) Save(ctx context.Context, snapshot domain.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing snapshot key: %w", err)
	}
	return nil
}
