package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
	"github.com/user/catalog-agent/pkg/metrics"
	"github.com/user/catalog-agent/pkg/utils"
)

// csvHeader is the bulk-import column order. The importer matches columns
// by name and position, so this list must not be reordered.
var csvHeader = []string{
	"handleId", "fieldType", "name", "description", "productImageUrl",
	"collection", "sku", "ribbon", "price", "surcharge", "visible",
	"discountMode", "discountValue", "inventory", "weight", "cost",
	"productOptionName1", "productOptionType1", "productOptionDescription1",
	"productOptionName2", "productOptionType2", "productOptionDescription2",
	"productOptionName3", "productOptionType3", "productOptionDescription3",
	"productOptionName4", "productOptionType4", "productOptionDescription4",
	"productOptionName5", "productOptionType5", "productOptionDescription5",
	"productOptionName6", "productOptionType6", "productOptionDescription6",
	"additionalInfoTitle1", "additionalInfoDescription1",
	"additionalInfoTitle2", "additionalInfoDescription2",
	"additionalInfoTitle3", "additionalInfoDescription3",
	"additionalInfoTitle4", "additionalInfoDescription4",
	"additionalInfoTitle5", "additionalInfoDescription5",
	"additionalInfoTitle6", "additionalInfoDescription6",
	"customTextField1", "customTextCharLimit1", "customTextMandatory1",
	"brand",
}

// ExportProjector flattens the synced catalog records of a collection into
// the bulk-import CSV layout.
type ExportProjector interface {
	// ExportCollection writes the collection's CSV to the export directory
	// and records the file path on the collection. Returns the path.
	ExportCollection(ctx context.Context, collectionID int64) (string, error)
	// StreamCollection writes the same CSV to w without touching disk.
	StreamCollection(ctx context.Context, collectionID int64, w io.Writer) error
}

type projectorUseCase struct {
	collections repository.CollectionRepository
	wixProducts repository.WixProductRepository
	exportDir   string
}

// NewExportProjector creates the CSV export use case. Files land under
// exportDir, which is created on demand.
func NewExportProjector(collections repository.CollectionRepository, wixProducts repository.WixProductRepository, exportDir string) ExportProjector {
	return &projectorUseCase{
		collections: collections,
		wixProducts: wixProducts,
		exportDir:   exportDir,
	}
}

func (uc *projectorUseCase) ExportCollection(ctx context.Context, collectionID int64) (string, error) {
	collection, err := uc.collections.FindByID(ctx, collectionID)
	if err != nil {
		return "", fmt.Errorf("failed to load collection %d: %w", collectionID, err)
	}

	if err := os.MkdirAll(uc.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(uc.exportDir, utils.Slugify(collection.Title)+"_wix_products.csv")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := uc.StreamCollection(ctx, collectionID, file); err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to flush export file: %w", err)
	}

	if err := uc.collections.SetExportPath(ctx, collectionID, path); err != nil {
		return "", fmt.Errorf("failed to record export path: %w", err)
	}
	slog.Info("Collection exported", "collection_id", collectionID, "path", path)
	return path, nil
}

func (uc *projectorUseCase) StreamCollection(ctx context.Context, collectionID int64, w io.Writer) error {
	records, err := uc.wixProducts.ListByCollection(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("failed to load catalog records for collection %d: %w", collectionID, err)
	}

	rows := BuildRows(records)
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	metrics.ExportedRowsTotal.Add(float64(len(rows)))
	return nil
}

// BuildRows turns the ordered record list into CSV rows. Records arrive
// grouped by handle with the product row first. A family in which any row,
// product or variant, has no positive price is dropped entirely: zero-price
// listings are placeholders the importer must not see.
func BuildRows(records []*entity.WixProduct) [][]string {
	families := groupByHandle(records)

	var rows [][]string
	for _, family := range families {
		product := family[0]
		if product.FieldType != entity.FieldTypeProduct {
			slog.Warn("Family without product row skipped", "handle_id", product.HandleID)
			continue
		}
		if familyHasZeroPrice(family) {
			continue
		}

		variants := family[1:]
		productRow := renderRow(product)
		// The product row's option descriptions aggregate the distinct
		// values seen across its variants, in first-seen order.
		for slot := 0; slot < entity.WixOptionSlots; slot++ {
			if product.Options[slot].Name == "" {
				continue
			}
			descCol := 18 + slot*3
			productRow[descCol] = aggregateDescriptions(product, variants, slot)
		}
		rows = append(rows, productRow)

		for _, variant := range variants {
			rows = append(rows, renderRow(variant))
		}
	}
	return rows
}

// familyHasZeroPrice reports whether any row of the family, the product or
// one of its variants, is missing a positive price.
func familyHasZeroPrice(family []*entity.WixProduct) bool {
	for _, row := range family {
		if row.Price == nil || !row.Price.IsPositive() {
			return true
		}
	}
	return false
}

// groupByHandle splits the ordered record list into contiguous families.
func groupByHandle(records []*entity.WixProduct) [][]*entity.WixProduct {
	var families [][]*entity.WixProduct
	for _, record := range records {
		n := len(families)
		if n > 0 && families[n-1][0].HandleID == record.HandleID {
			families[n-1] = append(families[n-1], record)
			continue
		}
		families = append(families, []*entity.WixProduct{record})
	}
	return families
}

// aggregateDescriptions joins the distinct descriptions of one option slot
// across the product row and its variants, keeping first-seen order.
func aggregateDescriptions(product *entity.WixProduct, variants []*entity.WixProduct, slot int) string {
	seen := make(map[string]bool)
	var parts []string
	add := func(desc string) {
		if desc == "" || seen[desc] {
			return
		}
		seen[desc] = true
		parts = append(parts, desc)
	}
	add(product.Options[slot].Description)
	for _, v := range variants {
		add(v.Options[slot].Description)
	}
	return strings.Join(parts, ";")
}

// renderRow serializes one record in csvHeader order. Only the product row
// names its collections; variant rows leave the cell empty.
func renderRow(r *entity.WixProduct) []string {
	collection := strings.Join(r.CollectionTitles, ";")
	if r.FieldType == entity.FieldTypeVariant {
		collection = ""
	}
	row := make([]string, 0, len(csvHeader))
	row = append(row,
		r.HandleID,
		r.FieldType,
		r.Name,
		r.Description,
		r.ProductImageURL,
		collection,
		r.SKU,
		r.Ribbon,
		renderDecimal(r.Price),
		renderDecimal(r.Surcharge),
		renderBool(r.Visible),
		r.DiscountMode,
		renderDecimal(r.DiscountValue),
		r.Inventory,
		renderDecimal(r.Weight),
		renderDecimal(r.Cost),
	)
	for _, opt := range r.Options {
		row = append(row, opt.Name, opt.Type, opt.Description)
	}
	for _, info := range r.AdditionalInfo {
		row = append(row, info.Title, info.Description)
	}
	row = append(row,
		r.CustomTextField1,
		renderInt(r.CustomTextCharLimit1),
		renderBool(r.CustomTextMandatory1),
		r.Brand,
	)
	return row
}

func renderDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func renderBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func renderInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
