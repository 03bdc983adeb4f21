package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/catalog-agent/internal/entity"
)

// VariantRepoImpl provides a concrete implementation for the
// VariantRepository interface using PostgreSQL.
type VariantRepoImpl struct {
	db *pgxpool.Pool
}

// NewVariantRepo creates a new instance of VariantRepoImpl.
func NewVariantRepo(db *pgxpool.Pool) *VariantRepoImpl {
	return &VariantRepoImpl{db: db}
}

// Upsert creates or updates a variant keyed by (product, option key),
// replaces its option-value links and attaches any images. The whole write
// runs in one transaction so a variant never ends up with half its links.
func (r *VariantRepoImpl) Upsert(ctx context.Context, v *entity.Variant) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO variants (product_id, price, option_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, option_key) DO UPDATE SET
			price = EXCLUDED.price
		RETURNING id;
	`
	if err := tx.QueryRow(ctx, query, v.ProductID, v.Price, v.OptionKey).Scan(&v.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM variant_options WHERE variant_id = $1;`, v.ID); err != nil {
		return err
	}
	for _, opt := range v.Options {
		if _, err := tx.Exec(ctx,
			`INSERT INTO variant_options (variant_id, option_value_id) VALUES ($1, $2);`,
			v.ID, opt.ValueID); err != nil {
			return err
		}
	}

	for _, img := range v.Images {
		if _, err := tx.Exec(ctx,
			`INSERT INTO variant_images (variant_id, image_id) VALUES ($1, $2)
			 ON CONFLICT (variant_id, image_id) DO NOTHING;`,
			v.ID, img.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListByProduct returns a product's variants in id order with their option
// selections resolved.
func (r *VariantRepoImpl) ListByProduct(ctx context.Context, productID int64) ([]*entity.Variant, error) {
	query := `
		SELECT id, product_id, price, option_key
		FROM variants
		WHERE product_id = $1
		ORDER BY id;
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []*entity.Variant
	for rows.Next() {
		var v entity.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Price, &v.OptionKey); err != nil {
			return nil, err
		}
		variants = append(variants, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, v := range variants {
		if v.Options, err = r.optionsOf(ctx, v.ID); err != nil {
			return nil, err
		}
		if v.Images, err = r.imagesOf(ctx, v.ID); err != nil {
			return nil, err
		}
	}
	return variants, nil
}

func (r *VariantRepoImpl) optionsOf(ctx context.Context, variantID int64) ([]entity.OptionSelection, error) {
	query := `
		SELECT ov.id, oc.name, ov.value
		FROM variant_options vo
		JOIN option_values ov ON ov.id = vo.option_value_id
		JOIN option_categories oc ON oc.id = ov.category_id
		WHERE vo.variant_id = $1
		ORDER BY oc.name, ov.value;
	`
	rows, err := r.db.Query(ctx, query, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []entity.OptionSelection
	for rows.Next() {
		var sel entity.OptionSelection
		if err := rows.Scan(&sel.ValueID, &sel.Category, &sel.Value); err != nil {
			return nil, err
		}
		options = append(options, sel)
	}
	return options, rows.Err()
}

func (r *VariantRepoImpl) imagesOf(ctx context.Context, variantID int64) ([]entity.Image, error) {
	query := `
		SELECT i.id, i.product_id, i.url, i.alt_text
		FROM variant_images vi
		JOIN images i ON i.id = vi.image_id
		WHERE vi.variant_id = $1
		ORDER BY i.id;
	`
	rows, err := r.db.Query(ctx, query, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []entity.Image
	for rows.Next() {
		var img entity.Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.AltText); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
