package repository

import (
	"context"
	"time"

	"github.com/user/catalog-agent/internal/entity"
)

// QueueRepository defines the interface for the FIFO work queues feeding the
// worker: one for product-extraction URLs, one for discovery jobs. Pop
// operations return ErrNotFound when the queue is empty.
type QueueRepository interface {
	// PushProduct enqueues a product URL for extraction.
	PushProduct(ctx context.Context, url string) error
	// PopProduct dequeues the next product URL.
	PopProduct(ctx context.Context) (string, error)
	// PushDiscovery enqueues a link-discovery job.
	PushDiscovery(ctx context.Context, job entity.DiscoveryJob) error
	// PopDiscovery dequeues the next discovery job.
	PopDiscovery(ctx context.Context) (*entity.DiscoveryJob, error)
	// ProductQueueSize returns the number of pending product URLs.
	ProductQueueSize(ctx context.Context) (int64, error)
}

// VisitedRepository defines the interface for deduplication of recently
// submitted URLs.
type VisitedRepository interface {
	// MarkVisited marks a URL as visited with a specific expiry time.
	MarkVisited(ctx context.Context, url string, expiry time.Duration) error
	// IsVisited checks if a URL has been submitted recently.
	IsVisited(ctx context.Context, url string) (bool, error)
	// RemoveVisited removes a URL from the visited set, used for forced
	// re-extraction.
	RemoveVisited(ctx context.Context, url string) error
}
