package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docConverter/models"
)

const (
	statusKeyPrefix = "task:status:"
	statusTTL       = 10 * time.Minute
)

// StatusCache mirrors task statuses in redis so status polls usually skip
// the task store. Entries expire on their own; terminal record deletion
// clears them explicitly.
type StatusCache struct {
	client *redis.Client
}

func Connect(addr string) (*StatusCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &StatusCache{client: client}, nil
}

func (c *StatusCache) Set(ctx context.Context, taskID string, status models.TaskStatus) error {
	return c.client.Set(ctx, statusKeyPrefix+taskID, string(status), statusTTL).Err()
}

func (c *StatusCache) Get(ctx context.Context, taskID string) (models.TaskStatus, error) {
	data, err := c.client.Get(ctx, statusKeyPrefix+taskID).Result()
	if err != nil {
		return "", err
	}
	return models.TaskStatus(data), nil
}

func (c *StatusCache) Delete(ctx context.Context, taskID string) error {
	return c.client.Del(ctx, statusKeyPrefix+taskID).Err()
}

func (c *StatusCache) Close() error {
	return c.client.Close()
}
