package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/catalog-agent/internal/entity"
)

// WixProductRepoImpl provides a concrete implementation for the
// WixProductRepository interface using PostgreSQL. The six option slots and
// six info slots are stored as JSONB; the CSV projector flattens them into
// discrete columns at export time.
type WixProductRepoImpl struct {
	db *pgxpool.Pool
}

// NewWixProductRepo creates a new instance of WixProductRepoImpl.
func NewWixProductRepo(db *pgxpool.Pool) *WixProductRepoImpl {
	return &WixProductRepoImpl{db: db}
}

// Upsert creates or refreshes a record keyed by (handle_id, field_type, sku)
// and replaces its collection links.
func (r *WixProductRepoImpl) Upsert(ctx context.Context, w *entity.WixProduct) error {
	optionsJSON, err := json.Marshal(w.Options)
	if err != nil {
		return err
	}
	infoJSON, err := json.Marshal(w.AdditionalInfo)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO wix_products (
			handle_id, field_type, name, description, product_image_url,
			sku, ribbon, brand, price, surcharge, visible, discount_mode,
			discount_value, inventory, weight, cost, options, additional_info,
			custom_text_field_1, custom_text_char_limit_1, custom_text_mandatory_1
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (handle_id, field_type, sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			product_image_url = EXCLUDED.product_image_url,
			ribbon = EXCLUDED.ribbon,
			brand = EXCLUDED.brand,
			price = EXCLUDED.price,
			surcharge = EXCLUDED.surcharge,
			visible = EXCLUDED.visible,
			discount_mode = EXCLUDED.discount_mode,
			discount_value = EXCLUDED.discount_value,
			inventory = EXCLUDED.inventory,
			weight = EXCLUDED.weight,
			cost = EXCLUDED.cost,
			options = EXCLUDED.options,
			additional_info = EXCLUDED.additional_info,
			custom_text_field_1 = EXCLUDED.custom_text_field_1,
			custom_text_char_limit_1 = EXCLUDED.custom_text_char_limit_1,
			custom_text_mandatory_1 = EXCLUDED.custom_text_mandatory_1,
			updated_at = NOW()
		RETURNING id, created_at, updated_at;
	`
	err = tx.QueryRow(ctx, query,
		w.HandleID, w.FieldType, w.Name, w.Description, w.ProductImageURL,
		w.SKU, w.Ribbon, w.Brand, w.Price, w.Surcharge, w.Visible,
		w.DiscountMode, w.DiscountValue, w.Inventory, w.Weight, w.Cost,
		optionsJSON, infoJSON,
		w.CustomTextField1, w.CustomTextCharLimit1, w.CustomTextMandatory1,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM wix_product_collections WHERE wix_product_id = $1;`, w.ID); err != nil {
		return err
	}
	for _, collectionID := range w.CollectionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO wix_product_collections (wix_product_id, collection_id) VALUES ($1, $2);`,
			w.ID, collectionID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

const wixColumns = `
	w.id, w.handle_id, w.field_type, w.name, w.description,
	w.product_image_url, w.sku, w.ribbon, w.brand, w.price, w.surcharge,
	w.visible, w.discount_mode, w.discount_value, w.inventory, w.weight,
	w.cost, w.options, w.additional_info, w.custom_text_field_1,
	w.custom_text_char_limit_1, w.custom_text_mandatory_1, w.created_at,
	w.updated_at`

// ListByCollection returns all rows linked to a collection, families
// contiguous with the product row first.
func (r *WixProductRepoImpl) ListByCollection(ctx context.Context, collectionID int64) ([]*entity.WixProduct, error) {
	query := `
		SELECT ` + wixColumns + `
		FROM wix_products w
		JOIN wix_product_collections wc ON wc.wix_product_id = w.id
		WHERE wc.collection_id = $1
		ORDER BY w.handle_id,
			CASE WHEN w.field_type = 'Product' THEN 0 ELSE 1 END,
			w.id;
	`
	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(ctx, rows)
}

// ListByHandle returns the rows of one product family, product row first.
func (r *WixProductRepoImpl) ListByHandle(ctx context.Context, handleID string) ([]*entity.WixProduct, error) {
	query := `
		SELECT ` + wixColumns + `
		FROM wix_products w
		WHERE w.handle_id = $1
		ORDER BY CASE WHEN w.field_type = 'Product' THEN 0 ELSE 1 END, w.id;
	`
	rows, err := r.db.Query(ctx, query, handleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(ctx, rows)
}

func (r *WixProductRepoImpl) scanMany(ctx context.Context, rows pgx.Rows) ([]*entity.WixProduct, error) {
	var records []*entity.WixProduct
	for rows.Next() {
		var w entity.WixProduct
		var optionsJSON, infoJSON []byte
		if err := rows.Scan(
			&w.ID, &w.HandleID, &w.FieldType, &w.Name, &w.Description,
			&w.ProductImageURL, &w.SKU, &w.Ribbon, &w.Brand, &w.Price,
			&w.Surcharge, &w.Visible, &w.DiscountMode, &w.DiscountValue,
			&w.Inventory, &w.Weight, &w.Cost, &optionsJSON, &infoJSON,
			&w.CustomTextField1, &w.CustomTextCharLimit1, &w.CustomTextMandatory1,
			&w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(optionsJSON, &w.Options); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(infoJSON, &w.AdditionalInfo); err != nil {
			return nil, err
		}
		records = append(records, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, w := range records {
		if err := r.loadCollections(ctx, w); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (r *WixProductRepoImpl) loadCollections(ctx context.Context, w *entity.WixProduct) error {
	query := `
		SELECT c.id, c.title
		FROM wix_product_collections wc
		JOIN collections c ON c.id = wc.collection_id
		WHERE wc.wix_product_id = $1
		ORDER BY c.id;
	`
	rows, err := r.db.Query(ctx, query, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	w.CollectionIDs = w.CollectionIDs[:0]
	w.CollectionTitles = w.CollectionTitles[:0]
	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return err
		}
		w.CollectionIDs = append(w.CollectionIDs, id)
		w.CollectionTitles = append(w.CollectionTitles, title)
	}
	return rows.Err()
}
