package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/catalog-agent/internal/entity"
)

type syncFixture struct {
	collections *memCollectionRepo
	products    *memProductRepo
	images      *memImageRepo
	variants    *memVariantRepo
	wix         *memWixRepo
	sync        CatalogSync
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		collections: newMemCollectionRepo(),
		images:      newMemImageRepo(),
		variants:    newMemVariantRepo(),
		wix:         newMemWixRepo(),
	}
	f.products = newMemProductRepo(f.collections)
	f.sync = NewCatalogSync(f.products, f.images, f.variants, f.wix)
	return f
}

// seedShampoo stores a product with two size variants, two images and one
// collection link, and returns its id.
func (f *syncFixture) seedShampoo(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()

	collection := &entity.Collection{Title: "Hair Care", SourceURL: storeBase + "/collections/hair-care"}
	require.NoError(t, f.collections.Upsert(ctx, collection))

	product := &entity.Product{
		Title:       "Silk Shampoo",
		Description: "Gentle daily shampoo.",
		Price:       decimal.RequireFromString("12.50"),
		SourceURL:   shampooURL,
	}
	require.NoError(t, f.products.Upsert(ctx, product))
	require.NoError(t, f.collections.AddProduct(ctx, collection.ID, product.ID))

	for _, url := range []string{
		"https://cdn.example.com/shampoo-1.jpg",
		"https://cdn.example.com/shampoo-2.jpg",
	} {
		require.NoError(t, f.images.Upsert(ctx, &entity.Image{ProductID: product.ID, URL: url}))
	}

	for i, v := range []struct {
		value string
		price string
	}{{"250ml", "12.50"}, {"500ml", "20.00"}} {
		variant := &entity.Variant{
			ProductID: product.ID,
			Price:     decimal.RequireFromString(v.price),
			OptionKey: entity.VariantOptionKey([]int64{int64(i + 1)}),
			Options:   []entity.OptionSelection{{ValueID: int64(i + 1), Category: "Size", Value: v.value}},
		}
		require.NoError(t, f.variants.Upsert(ctx, variant))
	}
	return product.ID
}

func TestSyncProduct(t *testing.T) {
	f := newSyncFixture()
	productID := f.seedShampoo(t)
	ctx := context.Background()

	require.NoError(t, f.sync.SyncProduct(ctx, productID))

	rows, err := f.wix.ListByHandle(ctx, "1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	product := rows[0]
	assert.Equal(t, entity.FieldTypeProduct, product.FieldType)
	assert.Equal(t, "Silk Shampoo", product.Name)
	assert.Equal(t, "1_0", product.SKU)
	assert.Equal(t, "12.50", product.Price.StringFixed(2))
	assert.True(t, product.Visible)
	assert.Equal(t, "InStock", product.Inventory)
	assert.Equal(t,
		"https://cdn.example.com/shampoo-1.jpg;https://cdn.example.com/shampoo-2.jpg",
		product.ProductImageURL)
	assert.Equal(t, "Size", product.Options[0].Name)
	assert.Equal(t, entity.OptionTypeDropDown, product.Options[0].Type)
	assert.Empty(t, product.Options[0].Description, "the product row carries no selection")
	require.Len(t, product.CollectionIDs, 1)

	for i, row := range rows[1:] {
		assert.Equal(t, entity.FieldTypeVariant, row.FieldType)
		assert.Empty(t, row.Name)
		assert.Empty(t, row.ProductImageURL)
		assert.Equal(t, entity.WixOptionSlot{
			Name:        "Size",
			Type:        entity.OptionTypeDropDown,
			Description: []string{"250ml", "500ml"}[i],
		}, row.Options[0])
	}
	assert.Equal(t, "1_1", rows[1].SKU)
	assert.Equal(t, "12.50", rows[1].Price.StringFixed(2))
	assert.Equal(t, "1_2", rows[2].SKU)
	assert.Equal(t, "20.00", rows[2].Price.StringFixed(2))
}

func TestSyncProductIdempotent(t *testing.T) {
	f := newSyncFixture()
	productID := f.seedShampoo(t)
	ctx := context.Background()

	require.NoError(t, f.sync.SyncProduct(ctx, productID))
	require.NoError(t, f.sync.SyncProduct(ctx, productID))

	rows, err := f.wix.ListByHandle(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "re-sync refreshes rows keyed by (handle, type, sku)")
}

func TestSyncColourOptionsGetColorType(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	product := &entity.Product{
		Title:     "Hair Dye",
		Price:     decimal.RequireFromString("25.00"),
		SourceURL: storeBase + "/products/hair-dye",
	}
	require.NoError(t, f.products.Upsert(ctx, product))
	variant := &entity.Variant{
		ProductID: product.ID,
		Price:     decimal.RequireFromString("25.00"),
		OptionKey: entity.VariantOptionKey([]int64{1}),
		Options:   []entity.OptionSelection{{ValueID: 1, Category: "Colour", Value: "Copper"}},
	}
	require.NoError(t, f.variants.Upsert(ctx, variant))

	require.NoError(t, f.sync.SyncProduct(ctx, product.ID))

	rows, err := f.wix.ListByHandle(ctx, "1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.OptionTypeColor, rows[0].Options[0].Type)
	assert.Equal(t, entity.OptionTypeColor, rows[1].Options[0].Type)
}

func TestSyncAllProjectsEveryProduct(t *testing.T) {
	f := newSyncFixture()
	f.seedShampoo(t)
	ctx := context.Background()

	comb := &entity.Product{
		Title:     "Comb",
		Price:     decimal.RequireFromString("4.95"),
		SourceURL: storeBase + "/products/comb",
	}
	require.NoError(t, f.products.Upsert(ctx, comb))

	require.NoError(t, f.sync.SyncAll(ctx))

	shampooRows, _ := f.wix.ListByHandle(ctx, "1")
	assert.Len(t, shampooRows, 3)
	combRows, _ := f.wix.ListByHandle(ctx, "2")
	assert.Len(t, combRows, 1, "a product without variants yields its product row only")
}
