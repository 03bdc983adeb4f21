package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/catalog-agent/pkg/config"
)

const shampooURL = storeBase + "/products/silk-shampoo"

const shampooStaticHTML = `<html><body>
	<div class="product__title"><h1>Silk Shampoo</h1></div>
	<div class="product__description">Gentle daily shampoo.</div>
	<div class="price__regular"><span class="price-item">$12.50 AUD</span></div>
	<div class="product__media">
		<img data-zoom-image="//cdn.store.example.com/shampoo-zoom.jpg" alt="Silk Shampoo bottle">
	</div>
</body></html>`

const shampooRenderedHTML = `<html><body>
	<div class="product-form__input--dropdown">
		<label class="form__label">Size</label>
		<select id="size-select">
			<option value="250ml">250ml</option>
			<option value="500ml">500ml</option>
		</select>
	</div>
</body></html>`

type extractorFixture struct {
	fetcher  *fakeFetcher
	browser  *fakeBrowser
	products *memProductRepo
	images   *memImageRepo
	options  *memOptionRepo
	variants *memVariantRepo
}

func newExtractorFixture(session *fakeSession, cfg ExtractorConfig) (*extractorFixture, ProductExtractor) {
	f := &extractorFixture{
		fetcher:  &fakeFetcher{pages: map[string]string{shampooURL: shampooStaticHTML}},
		browser:  &fakeBrowser{sessions: map[string]*fakeSession{shampooURL: session}},
		products: newMemProductRepo(nil),
		images:   newMemImageRepo(),
		options:  newMemOptionRepo(),
		variants: newMemVariantRepo(),
	}
	extractor := NewProductExtractor(f.fetcher, f.browser, f.products, f.images,
		f.options, f.variants, DefaultScrapeRules(), cfg)
	return f, extractor
}

func shampooSession() *fakeSession {
	return &fakeSession{
		html: shampooRenderedHTML,
		priceByState: func(selections map[string]string) string {
			switch selections["#size-select"] {
			case "250ml":
				return "$12.50 AUD"
			case "500ml":
				return "$20.00 AUD"
			}
			return ""
		},
		attrFor: map[string]string{
			`img[data-media-index="0"]`: "//cdn.store.example.com/shampoo-250.jpg",
			`img[data-media-index="1"]`: "//cdn.store.example.com/shampoo-500.jpg",
		},
	}
}

func defaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		SettleInterval: time.Millisecond,
		Enumeration:    config.EnumerationPerControl,
	}
}

func TestExtractProduct(t *testing.T) {
	session := shampooSession()
	f, extractor := newExtractorFixture(session, defaultExtractorConfig())

	err := extractor.ExtractProduct(context.Background(), shampooURL)
	require.NoError(t, err)

	product, err := f.products.FindBySourceURL(context.Background(), shampooURL)
	require.NoError(t, err)
	assert.Equal(t, "Silk Shampoo", product.Title)
	assert.Equal(t, "Gentle daily shampoo.", product.Description)
	assert.Equal(t, "12.50", product.Price.StringFixed(2))
	assert.False(t, product.AllowUpdate, "allow_update is cleared after a full extraction")

	images, _ := f.images.ListByProduct(context.Background(), product.ID)
	require.NotEmpty(t, images)
	assert.Equal(t, "https://cdn.store.example.com/shampoo-zoom.jpg", images[0].URL)
	assert.Equal(t, "Silk Shampoo bottle", images[0].AltText)

	variants, _ := f.variants.ListByProduct(context.Background(), product.ID)
	require.Len(t, variants, 2)
	assert.Equal(t, "12.50", variants[0].Price.StringFixed(2))
	assert.Equal(t, "20.00", variants[1].Price.StringFixed(2))
	require.Len(t, variants[0].Options, 1)
	assert.Equal(t, "Size", variants[0].Options[0].Category)
	assert.Equal(t, "250ml", variants[0].Options[0].Value)
	require.Len(t, variants[0].Images, 1)
	assert.Equal(t, "https://cdn.store.example.com/shampoo-250.jpg", variants[0].Images[0].URL)

	assert.Equal(t, 1, session.closed)
}

func TestExtractProductIdempotent(t *testing.T) {
	f, extractor := newExtractorFixture(shampooSession(), defaultExtractorConfig())

	require.NoError(t, extractor.ExtractProduct(context.Background(), shampooURL))
	require.NoError(t, extractor.ExtractProduct(context.Background(), shampooURL))

	products, _ := f.products.List(context.Background())
	require.Len(t, products, 1)

	variants, _ := f.variants.ListByProduct(context.Background(), products[0].ID)
	assert.Len(t, variants, 2, "re-extraction refreshes variants instead of duplicating")
	assert.Len(t, f.options.categories, 1)
	assert.Equal(t, 2, f.options.valueCount())
}

const twoControlHTML = `<html><body>
	<div class="product-form__input--dropdown">
		<label class="form__label">Size</label>
		<select id="size-select">
			<option value="250ml">250ml</option>
			<option value="500ml">500ml</option>
		</select>
	</div>
	<div class="product-form__input--dropdown">
		<label class="form__label">Colour</label>
		<select id="colour-select">
			<option value="Blonde">Blonde</option>
			<option value="Brunette">Brunette</option>
			<option value="Copper">Copper</option>
		</select>
	</div>
</body></html>`

func twoControlSession() *fakeSession {
	return &fakeSession{
		html: twoControlHTML,
		priceByState: func(map[string]string) string {
			return "$15.00 AUD"
		},
	}
}

func TestEnumerationPerControlCounts(t *testing.T) {
	f, extractor := newExtractorFixture(twoControlSession(), defaultExtractorConfig())

	require.NoError(t, extractor.ExtractProduct(context.Background(), shampooURL))

	products, _ := f.products.List(context.Background())
	variants, _ := f.variants.ListByProduct(context.Background(), products[0].ID)
	// One variant per value: 2 sizes + 3 colours.
	require.Len(t, variants, 5)
	for _, v := range variants {
		assert.Len(t, v.Options, 1)
	}
}

func TestEnumerationCartesianCounts(t *testing.T) {
	cfg := defaultExtractorConfig()
	cfg.Enumeration = config.EnumerationCartesian
	f, extractor := newExtractorFixture(twoControlSession(), cfg)

	require.NoError(t, extractor.ExtractProduct(context.Background(), shampooURL))

	products, _ := f.products.List(context.Background())
	variants, _ := f.variants.ListByProduct(context.Background(), products[0].ID)
	// Full cross-product: 2 sizes x 3 colours.
	require.Len(t, variants, 6)
	for _, v := range variants {
		assert.Len(t, v.Options, 2)
	}
}

func TestCollapseVariantsByPrice(t *testing.T) {
	cfg := defaultExtractorConfig()
	cfg.CollapseByPrice = true
	f, extractor := newExtractorFixture(twoControlSession(), cfg)

	require.NoError(t, extractor.ExtractProduct(context.Background(), shampooURL))

	products, _ := f.products.List(context.Background())
	variants, _ := f.variants.ListByProduct(context.Background(), products[0].ID)
	// Every combination shares the price, so they all collapse into one.
	require.Len(t, variants, 1)
	assert.Equal(t, "15.00", variants[0].Price.StringFixed(2))
}

func TestExtractProductNavigationFailureKeepsAllowUpdate(t *testing.T) {
	f := &extractorFixture{
		fetcher:  &fakeFetcher{pages: map[string]string{shampooURL: shampooStaticHTML}},
		browser:  &fakeBrowser{}, // no session: Open fails
		products: newMemProductRepo(nil),
		images:   newMemImageRepo(),
		options:  newMemOptionRepo(),
		variants: newMemVariantRepo(),
	}
	extractor := NewProductExtractor(f.fetcher, f.browser, f.products, f.images,
		f.options, f.variants, DefaultScrapeRules(), defaultExtractorConfig())

	err := extractor.ExtractProduct(context.Background(), shampooURL)
	require.Error(t, err)

	// The static pass already persisted the product, still eligible for a
	// later retry pass.
	product, ferr := f.products.FindBySourceURL(context.Background(), shampooURL)
	require.NoError(t, ferr)
	assert.Equal(t, "Silk Shampoo", product.Title)
	assert.True(t, product.AllowUpdate)
}

func TestExtractProductStaticFetchFailureFallsBack(t *testing.T) {
	session := &fakeSession{html: "<html></html>"}
	f := &extractorFixture{
		fetcher:  &fakeFetcher{}, // every fetch fails
		browser:  &fakeBrowser{sessions: map[string]*fakeSession{shampooURL: session}},
		products: newMemProductRepo(nil),
		images:   newMemImageRepo(),
		options:  newMemOptionRepo(),
		variants: newMemVariantRepo(),
	}
	extractor := NewProductExtractor(f.fetcher, f.browser, f.products, f.images,
		f.options, f.variants, DefaultScrapeRules(), defaultExtractorConfig())

	require.NoError(t, extractor.ExtractProduct(context.Background(), shampooURL))

	product, err := f.products.FindBySourceURL(context.Background(), shampooURL)
	require.NoError(t, err)
	assert.Equal(t, "Silk Shampoo", product.Title, "title falls back to the URL slug")
	assert.True(t, product.Price.Equal(decimal.Zero))
}
