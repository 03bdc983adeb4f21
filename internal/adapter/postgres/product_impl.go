package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
)

// ProductRepoImpl provides a concrete implementation for the
// ProductRepository interface using PostgreSQL.
type ProductRepoImpl struct {
	db *pgxpool.Pool
}

// NewProductRepo creates a new instance of ProductRepoImpl.
func NewProductRepo(db *pgxpool.Pool) *ProductRepoImpl {
	return &ProductRepoImpl{db: db}
}

const productColumns = `id, title, description, price, source_url, allow_update, created_at, updated_at`

// Upsert creates or updates a product keyed by its source URL. AllowUpdate
// is only set on insert; the stored flag survives re-upserts so a finished
// product stays skipped.
func (r *ProductRepoImpl) Upsert(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (title, description, price, source_url, allow_update)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (source_url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			updated_at = NOW()
		RETURNING id, allow_update, created_at, updated_at;
	`
	return r.db.QueryRow(ctx, query, p.Title, p.Description, p.Price, p.SourceURL).
		Scan(&p.ID, &p.AllowUpdate, &p.CreatedAt, &p.UpdatedAt)
}

// UpsertSkeleton records a product seen during link discovery. A new source
// URL gets a placeholder row; an existing one is left exactly as scraped —
// the no-op conflict update only exists so RETURNING fills in the id. Uses
// the same get-or-create shape as the option repo.
func (r *ProductRepoImpl) UpsertSkeleton(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (title, description, price, source_url, allow_update)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (source_url) DO UPDATE SET
			source_url = EXCLUDED.source_url
		RETURNING id, allow_update, created_at, updated_at;
	`
	return r.db.QueryRow(ctx, query, p.Title, p.Description, p.Price, p.SourceURL).
		Scan(&p.ID, &p.AllowUpdate, &p.CreatedAt, &p.UpdatedAt)
}

// FindByID retrieves one product by primary key.
func (r *ProductRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// FindBySourceURL retrieves one product by its natural key.
func (r *ProductRepoImpl) FindBySourceURL(ctx context.Context, sourceURL string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE source_url = $1;`
	return r.scanOne(r.db.QueryRow(ctx, query, sourceURL))
}

// List returns all products ordered by id.
func (r *ProductRepoImpl) List(ctx context.Context) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id;`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListUpdatable returns the products still eligible for re-scraping.
func (r *ProductRepoImpl) ListUpdatable(ctx context.Context) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE allow_update ORDER BY id;`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListByCollection returns the products linked to a collection.
func (r *ProductRepoImpl) ListByCollection(ctx context.Context, collectionID int64) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		JOIN collection_products cp ON cp.product_id = products.id
		WHERE cp.collection_id = $1
		ORDER BY products.id;
	`
	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// SetAllowUpdate flips the re-scrape eligibility flag.
func (r *ProductRepoImpl) SetAllowUpdate(ctx context.Context, id int64, allow bool) error {
	query := `UPDATE products SET allow_update = $2, updated_at = NOW() WHERE id = $1;`
	tag, err := r.db.Exec(ctx, query, id, allow)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CollectionsOf returns the collections a product is linked to.
func (r *ProductRepoImpl) CollectionsOf(ctx context.Context, productID int64) ([]*entity.Collection, error) {
	query := `
		SELECT c.id, c.title, c.description, c.source_url, c.csv_export
		FROM collections c
		JOIN collection_products cp ON cp.collection_id = c.id
		WHERE cp.product_id = $1
		ORDER BY c.id;
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*entity.Collection
	for rows.Next() {
		var c entity.Collection
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.SourceURL, &c.CSVExport); err != nil {
			return nil, err
		}
		collections = append(collections, &c)
	}
	return collections, rows.Err()
}

func (r *ProductRepoImpl) scanOne(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.SourceURL,
		&p.AllowUpdate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepoImpl) scanMany(rows pgx.Rows) ([]*entity.Product, error) {
	var products []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.SourceURL,
			&p.AllowUpdate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// ImageRepoImpl provides a concrete implementation for the ImageRepository
// interface using PostgreSQL.
type ImageRepoImpl struct {
	db *pgxpool.Pool
}

// NewImageRepo creates a new instance of ImageRepoImpl.
func NewImageRepo(db *pgxpool.Pool) *ImageRepoImpl {
	return &ImageRepoImpl{db: db}
}

// Upsert creates or refreshes an image keyed by (product, url).
func (r *ImageRepoImpl) Upsert(ctx context.Context, img *entity.Image) error {
	query := `
		INSERT INTO images (product_id, url, alt_text)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, url) DO UPDATE SET
			alt_text = EXCLUDED.alt_text
		RETURNING id;
	`
	return r.db.QueryRow(ctx, query, img.ProductID, img.URL, img.AltText).Scan(&img.ID)
}

// ListByProduct returns a product's images in insertion order.
func (r *ImageRepoImpl) ListByProduct(ctx context.Context, productID int64) ([]entity.Image, error) {
	query := `
		SELECT id, product_id, url, alt_text
		FROM images
		WHERE product_id = $1
		ORDER BY id;
	`
	rows, err := r.db.Query(ctx, query, productID)
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
