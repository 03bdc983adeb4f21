package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/catalog-agent/internal/entity"
)

func mustDecimal(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return &d
}

// shampooFamily is the two-variant product family used across the export
// tests: a 250ml at 12.50 and a 500ml at 20.00.
func shampooFamily(t *testing.T, collectionID int64) []*entity.WixProduct {
	t.Helper()
	product := &entity.WixProduct{
		HandleID:        "7",
		FieldType:       entity.FieldTypeProduct,
		Name:            "Silk Shampoo",
		Description:     "Gentle daily shampoo.",
		ProductImageURL: "https://cdn.example.com/shampoo.jpg",
		SKU:             "7_0",
		Price:           mustDecimal(t, "12.50"),
		Visible:         true,
		Inventory:       "InStock",
		CollectionIDs:   []int64{collectionID},
	}
	product.Options[0] = entity.WixOptionSlot{Name: "Size", Type: entity.OptionTypeDropDown}

	v1 := &entity.WixProduct{
		HandleID:      "7",
		FieldType:     entity.FieldTypeVariant,
		SKU:           "7_1",
		Price:         mustDecimal(t, "12.50"),
		Visible:       true,
		Inventory:     "InStock",
		CollectionIDs: []int64{collectionID},
	}
	v1.Options[0] = entity.WixOptionSlot{Name: "Size", Type: entity.OptionTypeDropDown, Description: "250ml"}

	v2 := &entity.WixProduct{
		HandleID:      "7",
		FieldType:     entity.FieldTypeVariant,
		SKU:           "7_2",
		Price:         mustDecimal(t, "20.00"),
		Visible:       true,
		Inventory:     "InStock",
		CollectionIDs: []int64{collectionID},
	}
	v2.Options[0] = entity.WixOptionSlot{Name: "Size", Type: entity.OptionTypeDropDown, Description: "500ml"}

	return []*entity.WixProduct{product, v1, v2}
}

func TestBuildRowsFamilyLayout(t *testing.T) {
	family := shampooFamily(t, 1)
	for _, r := range family {
		r.CollectionTitles = []string{"Hair Care"}
	}

	rows := BuildRows(family)
	require.Len(t, rows, 3, "one product row plus one row per variant")

	productRow := rows[0]
	assert.Equal(t, "7", productRow[0])
	assert.Equal(t, "Product", productRow[1])
	assert.Equal(t, "Silk Shampoo", productRow[2])
	assert.Equal(t, "Hair Care", productRow[5])
	assert.Equal(t, "7_0", productRow[6])
	assert.Equal(t, "12.50", productRow[8])
	assert.Equal(t, "true", productRow[10])
	assert.Equal(t, "Size", productRow[16])
	assert.Equal(t, "DROP_DOWN", productRow[17])
	assert.Equal(t, "250ml;500ml", productRow[18],
		"product row aggregates the distinct variant descriptions")

	variantRow := rows[1]
	assert.Equal(t, "7", variantRow[0])
	assert.Equal(t, "Variant", variantRow[1])
	assert.Empty(t, variantRow[2], "variant rows carry no name")
	assert.Empty(t, variantRow[3], "variant rows carry no description")
	assert.Empty(t, variantRow[4], "variant rows carry no image")
	assert.Empty(t, variantRow[5], "variant rows carry no collection")
	assert.Equal(t, "7_1", variantRow[6])
	assert.Equal(t, "12.50", variantRow[8])
	assert.Equal(t, "250ml", variantRow[18])

	assert.Equal(t, "7_2", rows[2][6])
	assert.Equal(t, "20.00", rows[2][8])
	assert.Equal(t, "500ml", rows[2][18])
}

func TestBuildRowsSkipsZeroPriceFamilies(t *testing.T) {
	family := shampooFamily(t, 1)
	family[0].Price = mustDecimal(t, "0")

	priced := shampooFamily(t, 1)
	for _, r := range priced {
		r.HandleID = "8"
	}

	rows := BuildRows(append(family, priced...))
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, "8", row[0])
	}
}

func TestBuildRowsSkipsFamilyWithZeroPriceVariant(t *testing.T) {
	family := shampooFamily(t, 1)
	// The product row is priced, but one variant is not: the whole family
	// stays out of the export.
	family[2].Price = mustDecimal(t, "0")

	rows := BuildRows(family)
	assert.Empty(t, rows)

	unpriced := shampooFamily(t, 1)
	unpriced[1].Price = nil
	assert.Empty(t, BuildRows(unpriced))
}

func TestBuildRowsProductWithoutVariants(t *testing.T) {
	product := &entity.WixProduct{
		HandleID:  "9",
		FieldType: entity.FieldTypeProduct,
		Name:      "Comb",
		SKU:       "9_0",
		Price:     mustDecimal(t, "4.95"),
		Visible:   true,
	}

	rows := BuildRows([]*entity.WixProduct{product})
	require.Len(t, rows, 1)
	assert.Equal(t, "Comb", rows[0][2])
	assert.Equal(t, "4.95", rows[0][8])
}

func TestStreamCollectionHeader(t *testing.T) {
	collections := newMemCollectionRepo()
	collection := &entity.Collection{Title: "Hair Care", SourceURL: storeBase + "/collections/hair-care"}
	require.NoError(t, collections.Upsert(context.Background(), collection))

	projector := NewExportProjector(collections, newMemWixRepo(), t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, projector.StreamCollection(context.Background(), collection.ID, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "empty collection exports the header only")

	header := records[0]
	require.Len(t, header, 50)
	assert.Equal(t, "handleId", header[0])
	assert.Equal(t, "fieldType", header[1])
	assert.Equal(t, "productOptionName1", header[16])
	assert.Equal(t, "additionalInfoTitle1", header[34])
	assert.Equal(t, "customTextField1", header[46])
	assert.Equal(t, "brand", header[49])
}

func TestExportCollectionWritesFileAndRecordsPath(t *testing.T) {
	collections := newMemCollectionRepo()
	collection := &entity.Collection{Title: "Hair Care", SourceURL: storeBase + "/collections/hair-care"}
	require.NoError(t, collections.Upsert(context.Background(), collection))

	wixRepo := newMemWixRepo()
	wixRepo.titles[collection.ID] = "Hair Care"
	for _, row := range shampooFamily(t, collection.ID) {
		require.NoError(t, wixRepo.Upsert(context.Background(), row))
	}

	dir := t.TempDir()
	projector := NewExportProjector(collections, wixRepo, dir)

	path, err := projector.ExportCollection(context.Background(), collection.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hair-care_wix_products.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4) // header + product + 2 variants

	stored, err := collections.FindByID(context.Background(), collection.ID)
	require.NoError(t, err)
	assert.Equal(t, path, stored.CSVExport)
}

func TestExportCollectionUnknownCollection(t *testing.T) {
	projector := NewExportProjector(newMemCollectionRepo(), newMemWixRepo(), t.TempDir())
	_, err := projector.ExportCollection(context.Background(), 42)
	assert.Error(t, err)
}
