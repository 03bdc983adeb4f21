package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
	"github.com/user/catalog-agent/pkg/metrics"
	"github.com/user/catalog-agent/pkg/utils"
)

// ErrURLRecentlySubmitted is returned when a product URL is re-submitted
// while its dedup window is still open.
var ErrURLRecentlySubmitted = errors.New("url was submitted recently")

// TaskManager enqueues scrape work and answers status questions about it.
type TaskManager interface {
	// SubmitProduct queues one product URL for extraction. Returns the
	// submission id, or ErrURLRecentlySubmitted inside the dedup window.
	// force reopens the window first.
	SubmitProduct(ctx context.Context, productURL string, force bool) (string, error)
	// SubmitDiscovery queues a link-discovery run over the storefront.
	SubmitDiscovery(ctx context.Context, job entity.DiscoveryJob) error
	// EnqueueAllProducts queues every product still flagged for update.
	// Returns how many were queued.
	EnqueueAllProducts(ctx context.Context) (int, error)
	// GetStatus reports where a previously seen URL stands.
	GetStatus(ctx context.Context, productURL string) (*entity.ExtractStatus, error)
}

type taskManagerUseCase struct {
	queue    repository.QueueRepository
	visited  repository.VisitedRepository
	products repository.ProductRepository
	dedupTTL time.Duration
}

// NewTaskManager creates the submission use case. dedupTTL bounds how long
// a URL stays rejected after submission.
func NewTaskManager(queue repository.QueueRepository, visited repository.VisitedRepository, products repository.ProductRepository, dedupTTL time.Duration) TaskManager {
	return &taskManagerUseCase{
		queue:    queue,
		visited:  visited,
		products: products,
		dedupTTL: dedupTTL,
	}
}

func (uc *taskManagerUseCase) SubmitProduct(ctx context.Context, productURL string, force bool) (string, error) {
	if force {
		if err := uc.visited.RemoveVisited(ctx, productURL); err != nil {
			return "", fmt.Errorf("failed to reopen submission window: %w", err)
		}
	}

	seen, err := uc.visited.IsVisited(ctx, productURL)
	if err != nil {
		return "", fmt.Errorf("failed to check submission window: %w", err)
	}
	if seen {
		return "", ErrURLRecentlySubmitted
	}

	if err := uc.visited.MarkVisited(ctx, productURL, uc.dedupTTL); err != nil {
		return "", fmt.Errorf("failed to mark url submitted: %w", err)
	}
	if err := uc.queue.PushProduct(ctx, productURL); err != nil {
		// Roll the window back so the caller can retry.
		if rerr := uc.visited.RemoveVisited(ctx, productURL); rerr != nil {
			slog.Error("Failed to roll back submission window", "url", productURL, "error", rerr)
		}
		return "", fmt.Errorf("failed to enqueue product url: %w", err)
	}

	metrics.URLsInQueue.Inc()
	slog.Info("Product url submitted", "url", productURL)
	return utils.HashURL(productURL), nil
}

func (uc *taskManagerUseCase) SubmitDiscovery(ctx context.Context, job entity.DiscoveryJob) error {
	if err := uc.queue.PushDiscovery(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue discovery job: %w", err)
	}
	slog.Info("Discovery job submitted",
		"collection_limit", job.CollectionLimit, "product_limit", job.ProductLimit)
	return nil
}

func (uc *taskManagerUseCase) EnqueueAllProducts(ctx context.Context) (int, error) {
	products, err := uc.products.ListUpdatable(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list updatable products: %w", err)
	}

	queued := 0
	for _, product := range products {
		if err := uc.queue.PushProduct(ctx, product.SourceURL); err != nil {
			return queued, fmt.Errorf("failed to enqueue %s: %w", product.SourceURL, err)
		}
		metrics.URLsInQueue.Inc()
		queued++
	}
	slog.Info("Updatable products enqueued", "count", queued)
	return queued, nil
}

func (uc *taskManagerUseCase) GetStatus(ctx context.Context, productURL string) (*entity.ExtractStatus, error) {
	status := &entity.ExtractStatus{URL: productURL}

	product, err := uc.products.FindBySourceURL(ctx, productURL)
	switch {
	case err == nil && !product.AllowUpdate:
		status.CurrentStatus = entity.StatusCompleted
		status.LastUpdatedAt = &product.UpdatedAt
		return status, nil
	case err == nil:
		status.CurrentStatus = entity.StatusPending
		status.LastUpdatedAt = &product.UpdatedAt
		return status, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to look up product status: %w", err)
	}

	seen, err := uc.visited.IsVisited(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("failed to check submission window: %w", err)
	}
	if seen {
		status.CurrentStatus = entity.StatusPending
		return status, nil
	}
	status.CurrentStatus = entity.StatusNotFound
	return status, nil
}

// Worker drains the discovery and product queues. Discovery jobs take
// priority; between product items it pauses so the storefront sees a polite
// request rate.
type Worker struct {
	queue     repository.QueueRepository
	discovery Discovery
	extractor ProductExtractor

	ExtractTimeout time.Duration
	ItemDelay      time.Duration
	IdleInterval   time.Duration
}

// NewWorker creates a queue consumer.
func NewWorker(queue repository.QueueRepository, discovery Discovery, extractor ProductExtractor, extractTimeout, itemDelay, idleInterval time.Duration) *Worker {
	return &Worker{
		queue:          queue,
		discovery:      discovery,
		extractor:      extractor,
		ExtractTimeout: extractTimeout,
		ItemDelay:      itemDelay,
		IdleInterval:   idleInterval,
	}
}

// Run consumes until ctx is cancelled. An in-flight item finishes before
// the loop exits.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("Worker started")
	for {
		if ctx.Err() != nil {
			slog.Info("Worker stopped")
			return
		}

		worked, err := w.step(ctx)
		if err != nil {
			slog.Error("Worker step failed", "error", err)
		}

		var pause time.Duration
		if worked {
			pause = w.ItemDelay
		} else {
			pause = w.IdleInterval
		}
		if err := sleep(ctx, pause); err != nil {
			slog.Info("Worker stopped")
			return
		}
	}
}

// step processes at most one queue item. The bool reports whether anything
// was dequeued.
func (w *Worker) step(ctx context.Context) (bool, error) {
	job, err := w.queue.PopDiscovery(ctx)
	if err == nil {
		return true, w.runDiscovery(ctx, *job)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to pop discovery queue: %w", err)
	}

	productURL, err := w.queue.PopProduct(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to pop product queue: %w", err)
	}

	metrics.URLsInQueue.Dec()
	itemCtx, cancel := context.WithTimeout(ctx, w.ExtractTimeout)
	defer cancel()
	if err := w.extractor.ExtractProduct(itemCtx, productURL); err != nil {
		// Already counted by the extractor; the item is not requeued.
		slog.Error("Extraction failed", "url", productURL, "error", err)
	}
	return true, nil
}

func (w *Worker) runDiscovery(ctx context.Context, job entity.DiscoveryJob) error {
	if err := w.discovery.Run(ctx, job); err != nil {
		return fmt.Errorf("discovery run failed: %w", err)
	}
	return nil
}
