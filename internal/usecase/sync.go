package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
)

// CatalogSync projects scraped products into the denormalized external
// catalog records the exporter reads.
type CatalogSync interface {
	// SyncAll projects every stored product. Per-product failures are
	// logged and skipped; the error reports how many products failed.
	SyncAll(ctx context.Context) error
	// SyncProduct projects one product family: a product row plus one row
	// per variant, keyed so re-running refreshes instead of duplicating.
	SyncProduct(ctx context.Context, productID int64) error
}

type syncUseCase struct {
	products    repository.ProductRepository
	images      repository.ImageRepository
	variants    repository.VariantRepository
	wixProducts repository.WixProductRepository
}

// NewCatalogSync creates the catalog projection use case.
func NewCatalogSync(
	products repository.ProductRepository,
	images repository.ImageRepository,
	variants repository.VariantRepository,
	wixProducts repository.WixProductRepository,
) CatalogSync {
	return &syncUseCase{
		products:    products,
		images:      images,
		variants:    variants,
		wixProducts: wixProducts,
	}
}

func (uc *syncUseCase) SyncAll(ctx context.Context) error {
	products, err := uc.products.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products for sync: %w", err)
	}

	failed := 0
	for _, product := range products {
		if err := uc.SyncProduct(ctx, product.ID); err != nil {
			slog.Error("Product sync failed, continuing", "product_id", product.ID, "error", err)
			failed++
		}
	}
	slog.Info("Catalog sync finished", "products", len(products), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("sync failed for %d of %d products", failed, len(products))
	}
	return nil
}

func (uc *syncUseCase) SyncProduct(ctx context.Context, productID int64) error {
	product, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	variants, err := uc.variants.ListByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load variants of product %d: %w", productID, err)
	}
	images, err := uc.images.ListByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load images of product %d: %w", productID, err)
	}
	collections, err := uc.products.CollectionsOf(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load collections of product %d: %w", productID, err)
	}

	handleID := strconv.FormatInt(product.ID, 10)
	collectionIDs := make([]int64, 0, len(collections))
	for _, c := range collections {
		collectionIDs = append(collectionIDs, c.ID)
	}
	slots := optionSlotOrder(variants)

	productRow := &entity.WixProduct{
		HandleID:        handleID,
		FieldType:       entity.FieldTypeProduct,
		Name:            product.Title,
		Description:     product.Description,
		ProductImageURL: joinImageURLs(images),
		SKU:             handleID + "_0",
		Price:           decimalPtr(product.Price),
		Visible:         true,
		Inventory:       "InStock",
		CollectionIDs:   collectionIDs,
	}
	fillOptionSlots(productRow, slots, nil)
	if err := uc.wixProducts.Upsert(ctx, productRow); err != nil {
		return fmt.Errorf("failed to upsert product row for %d: %w", productID, err)
	}

	for idx, variant := range variants {
		variantRow := &entity.WixProduct{
			HandleID:      handleID,
			FieldType:     entity.FieldTypeVariant,
			SKU:           fmt.Sprintf("%s_%d", handleID, idx+1),
			Price:         decimalPtr(variant.Price),
			Visible:       true,
			Inventory:     "InStock",
			CollectionIDs: collectionIDs,
		}
		fillOptionSlots(variantRow, slots, variant.Options)
		if err := uc.wixProducts.Upsert(ctx, variantRow); err != nil {
			return fmt.Errorf("failed to upsert variant row %d for %d: %w", idx+1, productID, err)
		}
	}

	return nil
}

// optionSlotOrder fixes the slot assignment for a product family: the
// distinct option categories across all variants, sorted by name so every
// row of the family places a category in the same slot.
func optionSlotOrder(variants []*entity.Variant) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, v := range variants {
		for _, sel := range v.Options {
			if sel.Category == "" || seen[sel.Category] {
				continue
			}
			seen[sel.Category] = true
			categories = append(categories, sel.Category)
		}
	}
	sort.Strings(categories)
	if len(categories) > entity.WixOptionSlots {
		categories = categories[:entity.WixOptionSlots]
	}
	return categories
}

// fillOptionSlots writes the family's option axes into the row's slots. For
// variant rows the selections fill each slot's description with the chosen
// value; the product row carries names and types only.
func fillOptionSlots(row *entity.WixProduct, slots []string, selections []entity.OptionSelection) {
	byCategory := make(map[string]string, len(selections))
	for _, sel := range selections {
		byCategory[sel.Category] = sel.Value
	}
	for i, category := range slots {
		row.Options[i] = entity.WixOptionSlot{
			Name:        category,
			Type:        optionType(category),
			Description: byCategory[category],
		}
	}
}

// optionType maps the color-like option axes to the importer's swatch
// control and everything else to a dropdown.
func optionType(category string) string {
	switch strings.ToLower(category) {
	case "color", "colour", "shade":
		return entity.OptionTypeColor
	default:
		return entity.OptionTypeDropDown
	}
}

func joinImageURLs(images []entity.Image) string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return strings.Join(urls, ";")
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
