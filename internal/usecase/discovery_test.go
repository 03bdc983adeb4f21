package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/catalog-agent/internal/entity"
)

const storeBase = "https://store.example.com"

func discoveryFixture(fetcher *fakeFetcher, browser *fakeBrowser) (Discovery, *memCollectionRepo, *memProductRepo) {
	collections := newMemCollectionRepo()
	products := newMemProductRepo(collections)
	d := NewDiscovery(fetcher, browser, collections, products, DefaultScrapeRules(),
		DiscoveryConfig{
			StoreBaseURL:    storeBase,
			SettleInterval:  time.Millisecond,
			MaxScrollPasses: 50,
		})
	return d, collections, products
}

func TestCollectionLinksAbsolutizedAndDeduplicated(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		storeBase: `<html><body>
			<a href="/collections/hair-care">Hair Care</a>
			<a href="/collections/hair-care">Hair Care again</a>
			<a href="` + storeBase + `/collections/skin-care">Skin</a>
			<a href="/pages/about">About</a>
		</body></html>`,
	}}
	d, _, _ := discoveryFixture(fetcher, &fakeBrowser{})

	links := d.CollectionLinks(context.Background(), storeBase)
	assert.Equal(t, []string{
		storeBase + "/collections/hair-care",
		storeBase + "/collections/skin-care",
	}, links)
}

func TestCollectionLinksFetchFailureYieldsEmpty(t *testing.T) {
	d, _, _ := discoveryFixture(&fakeFetcher{}, &fakeBrowser{})
	links := d.CollectionLinks(context.Background(), storeBase+"/missing")
	assert.Empty(t, links)
}

func TestProductLinksScrollsUntilHeightSettles(t *testing.T) {
	collectionURL := storeBase + "/collections/hair-care"
	session := &fakeSession{
		heights: []int64{1000, 1500, 1500},
		html: `<html><body>
			<a href="/products/shampoo">S</a>
			<a href="/products/conditioner">C</a>
		</body></html>`,
	}
	browser := &fakeBrowser{sessions: map[string]*fakeSession{collectionURL: session}}
	d, _, _ := discoveryFixture(&fakeFetcher{}, browser)

	links, err := d.ProductLinks(context.Background(), collectionURL)
	require.NoError(t, err)

	assert.Equal(t, []string{
		storeBase + "/products/conditioner",
		storeBase + "/products/shampoo",
	}, links)
	// One reading before scrolling, one after each of the two passes.
	assert.Equal(t, 3, session.reads)
	assert.Equal(t, 2, session.scrolls)
	assert.Equal(t, 1, session.closed)
}

func TestProductLinksScrollPassCap(t *testing.T) {
	collectionURL := storeBase + "/collections/endless"
	// Height grows forever; only the cap stops the loop.
	heights := make([]int64, 100)
	for i := range heights {
		heights[i] = int64(1000 + i*100)
	}
	session := &fakeSession{heights: heights, html: "<html></html>"}
	browser := &fakeBrowser{sessions: map[string]*fakeSession{collectionURL: session}}

	collections := newMemCollectionRepo()
	products := newMemProductRepo(collections)
	d := NewDiscovery(&fakeFetcher{}, browser, collections, products, DefaultScrapeRules(),
		DiscoveryConfig{StoreBaseURL: storeBase, SettleInterval: time.Millisecond, MaxScrollPasses: 5})

	_, err := d.ProductLinks(context.Background(), collectionURL)
	require.NoError(t, err)
	assert.Equal(t, 5, session.scrolls)
}

func TestRunDiscoversCollectionsAndProducts(t *testing.T) {
	hairCare := storeBase + "/collections/hair-care"
	fetcher := &fakeFetcher{pages: map[string]string{
		storeBase:                  `<a href="/collections/hair-care">Hair</a>`,
		storeBase + "/collections": `<a href="/collections/hair-care">Hair</a>`,
	}}
	session := &fakeSession{
		heights: []int64{500, 500},
		html: `<a href="/products/silk-shampoo">S</a>
			<a href="/products/daily-conditioner">C</a>`,
	}
	browser := &fakeBrowser{sessions: map[string]*fakeSession{hairCare: session}}
	d, collections, products := discoveryFixture(fetcher, browser)

	err := d.Run(context.Background(), entity.DiscoveryJob{})
	require.NoError(t, err)

	cols, err := collections.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "Hair Care", cols[0].Title)
	assert.Equal(t, hairCare, cols[0].SourceURL)

	prods, err := products.ListByCollection(context.Background(), cols[0].ID)
	require.NoError(t, err)
	assert.Len(t, prods, 2)
}

func TestRunPreservesScrapedProductData(t *testing.T) {
	hairCare := storeBase + "/collections/hair-care"
	fetcher := &fakeFetcher{pages: map[string]string{
		storeBase:                  `<a href="/collections/hair-care">Hair</a>`,
		storeBase + "/collections": ``,
	}}
	session := &fakeSession{
		heights: []int64{500, 500},
		html:    `<a href="/products/silk-shampoo">S</a>`,
	}
	browser := &fakeBrowser{sessions: map[string]*fakeSession{hairCare: session}}
	d, _, products := discoveryFixture(fetcher, browser)
	ctx := context.Background()

	require.NoError(t, d.Run(ctx, entity.DiscoveryJob{}))

	// An extraction pass fills in the scraped fields and retires the
	// product from the update queue.
	scraped, err := products.FindBySourceURL(ctx, storeBase+"/products/silk-shampoo")
	require.NoError(t, err)
	scraped.Description = "Gentle daily shampoo."
	scraped.Price = decimal.RequireFromString("12.50")
	require.NoError(t, products.Upsert(ctx, scraped))
	require.NoError(t, products.SetAllowUpdate(ctx, scraped.ID, false))

	// A later scheduled discovery pass rediscovers the same link; the
	// skeleton it carries must not clobber the scraped data.
	require.NoError(t, d.Run(ctx, entity.DiscoveryJob{}))

	after, err := products.FindBySourceURL(ctx, storeBase+"/products/silk-shampoo")
	require.NoError(t, err)
	assert.Equal(t, "12.50", after.Price.StringFixed(2))
	assert.Equal(t, "Gentle daily shampoo.", after.Description)
	assert.False(t, after.AllowUpdate)

	all, _ := products.List(ctx)
	assert.Len(t, all, 1)
}

func TestRunHonorsLimits(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		storeBase: `<a href="/collections/a">A</a>
			<a href="/collections/b">B</a>
			<a href="/collections/c">C</a>`,
		storeBase + "/collections": ``,
	}}
	sessions := make(map[string]*fakeSession)
	for _, slug := range []string{"a", "b", "c"} {
		sessions[storeBase+"/collections/"+slug] = &fakeSession{
			heights: []int64{500, 500},
			html: `<a href="/products/p1">1</a>
				<a href="/products/p2">2</a>
				<a href="/products/p3">3</a>`,
		}
	}
	d, collections, products := discoveryFixture(fetcher, &fakeBrowser{sessions: sessions})

	err := d.Run(context.Background(), entity.DiscoveryJob{CollectionLimit: 2, ProductLimit: 1})
	require.NoError(t, err)

	cols, _ := collections.List(context.Background())
	assert.Len(t, cols, 2)
	prods, _ := products.List(context.Background())
	assert.Len(t, prods, 1) // same first product link in every collection
}

func TestRunSkipsCollectionWhoseProductsFail(t *testing.T) {
	good := storeBase + "/collections/good"
	fetcher := &fakeFetcher{pages: map[string]string{
		storeBase: `<a href="/collections/bad">B</a>
			<a href="/collections/good">G</a>`,
		storeBase + "/collections": ``,
	}}
	browser := &fakeBrowser{sessions: map[string]*fakeSession{
		good: {heights: []int64{500, 500}, html: `<a href="/products/p1">1</a>`},
		// no session for /collections/bad: Open fails
	}}
	d, collections, products := discoveryFixture(fetcher, browser)

	err := d.Run(context.Background(), entity.DiscoveryJob{})
	require.NoError(t, err)

	// Both collections recorded, products only from the good one.
	cols, _ := collections.List(context.Background())
	assert.Len(t, cols, 2)
	prods, _ := products.List(context.Background())
	assert.Len(t, prods, 1)
}
