package background

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"betterresume/internal/config"
)

const taskKeyPrefix = "task:result:"

// RedisTaskStore implements TaskStore backed by Redis, so task results
// survive restarts and are shared across replicas.
type RedisTaskStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTaskStore creates a Redis-backed task store from the configuration
func NewRedisTaskStore(cfg *config.Config) (*RedisTaskStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ttl := cfg.BackgroundTasks.MaxTaskAge
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisTaskStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// Ping tests the Redis connection
func (s *RedisTaskStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisTaskStore) Close() error {
	return s.client.Close()
}

// Store stores a task result
func (s *RedisTaskStore) Store(ctx context.Context, result *TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}

	if err := s.client.Set(ctx, taskKey(result.ProcessID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task result: %w", err)
	}
	return nil
}

// Get retrieves a task result by process ID
func (s *RedisTaskStore) Get(ctx context.Context, processID string) (*TaskResult, error) {
	data, err := s.client.Get(ctx, taskKey(processID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task result: %w", err)
	}

	var result TaskResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
	}
	return &result, nil
}

// Update updates a task result
func (s *RedisTaskStore) Update(ctx context.Context, result *TaskResult) error {
	exists, err := s.client.Exists(ctx, taskKey(result.ProcessID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check task result: %w", err)
	}
	if exists == 0 {
		return ErrTaskNotFound
	}

	return s.Store(ctx, result)
}

// Delete removes a task result
func (s *RedisTaskStore) Delete(ctx context.Context, processID string) error {
	deleted, err := s.client.Del(ctx, taskKey(processID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete task result: %w", err)
	}
	if deleted == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Cleanup is a no-op for Redis since per-key TTLs expire old results
func (s *RedisTaskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	return nil
}

// List returns all task results (for monitoring)
func (s *RedisTaskStore) List(ctx context.Context) ([]*TaskResult, error) {
	var results []*TaskResult

	iter := s.client.Scan(ctx, 0, taskKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to get task result: %w", err)
		}

		var result TaskResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			continue
		}
		results = append(results, &result)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan task results: %w", err)
	}

	return results, nil
}

func taskKey(processID string) string {
	return taskKeyPrefix + processID
}
