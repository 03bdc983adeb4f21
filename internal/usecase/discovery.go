package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
	"github.com/user/catalog-agent/pkg/utils"
)

// Discovery crawls the storefront's index pages and records the collections
// and products it finds.
type Discovery interface {
	// Run performs a full discovery pass: collections from the home page
	// and the /collections index, then products per collection. Job limits
	// truncate the discovered sets after full discovery.
	Run(ctx context.Context, job entity.DiscoveryJob) error
	// CollectionLinks returns the collection URLs found on one page.
	// Fetch failures are logged and yield an empty set, never an error.
	CollectionLinks(ctx context.Context, pageURL string) []string
	// ProductLinks returns the product URLs on a collection page, driving
	// the page's infinite scroll until its height settles.
	ProductLinks(ctx context.Context, collectionURL string) ([]string, error)
}

// DiscoveryConfig carries the tunables the discovery pass needs.
type DiscoveryConfig struct {
	StoreBaseURL    string
	SettleInterval  time.Duration
	MaxScrollPasses int
}

type discoveryUseCase struct {
	fetcher     repository.PageFetcher
	browser     repository.Browser
	collections repository.CollectionRepository
	products    repository.ProductRepository
	rules       ScrapeRules
	cfg         DiscoveryConfig
}

// NewDiscovery creates the link-discovery use case.
func NewDiscovery(
	fetcher repository.PageFetcher,
	browser repository.Browser,
	collections repository.CollectionRepository,
	products repository.ProductRepository,
	rules ScrapeRules,
	cfg DiscoveryConfig,
) Discovery {
	return &discoveryUseCase{
		fetcher:     fetcher,
		browser:     browser,
		collections: collections,
		products:    products,
		rules:       rules,
		cfg:         cfg,
	}
}

func (uc *discoveryUseCase) Run(ctx context.Context, job entity.DiscoveryJob) error {
	slog.Info("Starting collection and product discovery",
		"collection_limit", job.CollectionLimit, "product_limit", job.ProductLimit)

	links := uc.CollectionLinks(ctx, uc.cfg.StoreBaseURL)
	links = mergeLinks(links, uc.CollectionLinks(ctx, uc.cfg.StoreBaseURL+"/collections"))
	if job.CollectionLimit > 0 && len(links) > job.CollectionLimit {
		links = links[:job.CollectionLimit]
	}
	slog.Info("Collections discovered", "count", len(links))

	for _, collectionLink := range links {
		collection := &entity.Collection{
			Title:     utils.TitleFromSlug(collectionLink),
			SourceURL: collectionLink,
		}
		if err := uc.collections.Upsert(ctx, collection); err != nil {
			return fmt.Errorf("failed to upsert collection %s: %w", collectionLink, err)
		}

		productLinks, err := uc.ProductLinks(ctx, collectionLink)
		if err != nil {
			slog.Error("Failed to enumerate products, skipping collection",
				"collection", collectionLink, "error", err)
			continue
		}
		if job.ProductLimit > 0 && len(productLinks) > job.ProductLimit {
			productLinks = productLinks[:job.ProductLimit]
		}
		slog.Info("Products discovered in collection",
			"collection", collectionLink, "count", len(productLinks))

		for _, productLink := range productLinks {
			product := &entity.Product{
				Title:     utils.TitleFromSlug(productLink),
				SourceURL: productLink,
			}
			// Skeleton only: a link pass must never overwrite scraped
			// price or description on an already-extracted product.
			if err := uc.products.UpsertSkeleton(ctx, product); err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", productLink, err)
			}
			if err := uc.collections.AddProduct(ctx, collection.ID, product.ID); err != nil {
				return fmt.Errorf("failed to link product %s to collection %d: %w",
					productLink, collection.ID, err)
			}
		}
	}

	slog.Info("Discovery pass completed")
	return nil
}

// CollectionLinks scans one statically fetched page for collection links.
func (uc *discoveryUseCase) CollectionLinks(ctx context.Context, pageURL string) []string {
	html, err := uc.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		slog.Error("Failed to fetch page", "url", pageURL, "error", err)
		return nil
	}
	links, err := uc.extractLinks(html, uc.rules.CollectionLinkPattern)
	if err != nil {
		slog.Error("Failed to parse page", "url", pageURL, "error", err)
		return nil
	}
	slog.Info("Collection links found", "url", pageURL, "count", len(links))
	return links
}

// ProductLinks drives the collection page's infinite scroll until a full
// scroll-and-wait cycle yields no height increase, then scans the rendered
// document. MaxScrollPasses bounds the loop against stores whose lazy
// content never settles.
func (uc *discoveryUseCase) ProductLinks(ctx context.Context, collectionURL string) ([]string, error) {
	session, err := uc.browser.Open(ctx, collectionURL)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	prevHeight, err := session.PageHeight(ctx)
	if err != nil {
		return nil, err
	}
	for pass := 0; pass < uc.cfg.MaxScrollPasses; pass++ {
		if err := session.ScrollToBottom(ctx); err != nil {
			return nil, err
		}
		if err := sleep(ctx, uc.cfg.SettleInterval); err != nil {
			return nil, err
		}
		height, err := session.PageHeight(ctx)
		if err != nil {
			return nil, err
		}
		if height == prevHeight {
			break
		}
		prevHeight = height
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return uc.extractLinks(html, uc.rules.ProductLinkPattern)
}

// extractLinks returns the absolutized, de-duplicated hrefs matching a
// pattern, in sorted order for deterministic processing.
func (uc *discoveryUseCase) extractLinks(html, pattern string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(uc.cfg.StoreBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %s: %w", uc.cfg.StoreBaseURL, err)
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(href, pattern) {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		seen[abs] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

func mergeLinks(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, l := range a {
		seen[l] = struct{}{}
	}
	for _, l := range b {
		seen[l] = struct{}{}
	}
	merged := make([]string, 0, len(seen))
	for l := range seen {
		merged = append(merged, l)
	}
	sort.Strings(merged)
	return merged
}

// sleep waits for the interval unless the context ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
