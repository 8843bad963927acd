package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/config"
	"github.com/LexiconIndonesia/data-miner-service/common/models"
	"github.com/redis/go-redis/v9"
)

// Key prefix and retention for live job status documents.
const (
	jobStatusKeyPrefix = "miner:status:"
	jobStatusTTL       = 7 * 24 * time.Hour
)

// Client represents a Redis client wrapper
type RedisClient struct {
	client *redis.Client
}

// NewClient creates a new Redis client instance
func NewClient(cfg config.Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
	}, nil
}

// Close closes the Redis client connection
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// Set sets a key-value pair with optional expiration
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key
func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// Delete removes a key
func (c *RedisClient) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Exists checks if a key exists
func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, key).Result()
	return result > 0, err
}

// SetNX sets a key-value pair only if the key does not exist
func (c *RedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, expiration).Result()
}

// GetClient returns the underlying Redis client
func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}

// SetJobStatus publishes the live status document for a running job.
func (c *RedisClient) SetJobStatus(ctx context.Context, doc *models.StatusDoc) error {
	doc.UpdatedAt = time.Now()
	data, err := doc.ToJson()
	if err != nil {
		return fmt.Errorf("marshaling status doc: %w", err)
	}
	return c.Set(ctx, jobStatusKeyPrefix+doc.JobID, data, jobStatusTTL)
}

// GetJobStatus reads the live status document. Returns redis.Nil via the
// wrapped error when no document exists.
func (c *RedisClient) GetJobStatus(ctx context.Context, jobID string) (*models.StatusDoc, error) {
	raw, err := c.Get(ctx, jobStatusKeyPrefix+jobID)
	if err != nil {
		return nil, fmt.Errorf("reading status doc: %w", err)
	}
	return models.StatusDocFromJson([]byte(raw))
}

// DeleteJobStatus removes the status document for a deleted job.
func (c *RedisClient) DeleteJobStatus(ctx context.Context, jobID string) error {
	return c.Delete(ctx, jobStatusKeyPrefix+jobID)
}
