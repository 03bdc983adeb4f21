package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
)

const (
	productQueueKey   = "agent:queue:products"
	discoveryQueueKey = "agent:queue:discovery"
)

// QueueRepoImpl provides a concrete implementation for the QueueRepository
// interface using Redis lists. Product URLs travel as plain strings,
// discovery jobs as JSON payloads.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// PushProduct adds a product URL to the left side of the list (acting as a
// FIFO queue together with PopProduct's RPop).
func (r *QueueRepoImpl) PushProduct(ctx context.Context, url string) error {
	return r.client.LPush(ctx, productQueueKey, url).Err()
}

// PopProduct removes and returns the next product URL. Returns
// repository.ErrNotFound when the queue is empty.
func (r *QueueRepoImpl) PopProduct(ctx context.Context) (string, error) {
	url, err := r.client.RPop(ctx, productQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrNotFound
	}
	return url, err
}

// PushDiscovery adds a discovery job to the discovery queue.
func (r *QueueRepoImpl) PushDiscovery(ctx context.Context, job entity.DiscoveryJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.client.LPush(ctx, discoveryQueueKey, payload).Err()
}

// PopDiscovery removes and returns the next discovery job. Returns
// repository.ErrNotFound when the queue is empty.
func (r *QueueRepoImpl) PopDiscovery(ctx context.Context) (*entity.DiscoveryJob, error) {
	payload, err := r.client.RPop(ctx, discoveryQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var job entity.DiscoveryJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ProductQueueSize returns the current number of queued product URLs.
func (r *QueueRepoImpl) ProductQueueSize(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, productQueueKey).Result()
}
