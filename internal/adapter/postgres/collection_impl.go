package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
)

// CollectionRepoImpl provides a concrete implementation for the
// CollectionRepository interface using PostgreSQL.
type CollectionRepoImpl struct {
	db *pgxpool.Pool
}

// NewCollectionRepo creates a new instance of CollectionRepoImpl.
func NewCollectionRepo(db *pgxpool.Pool) *CollectionRepoImpl {
	return &CollectionRepoImpl{db: db}
}

// Upsert creates or updates a collection keyed by its source URL.
func (r *CollectionRepoImpl) Upsert(ctx context.Context, c *entity.Collection) error {
	query := `
		INSERT INTO collections (title, description, source_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description
		RETURNING id, csv_export;
	`
	return r.db.QueryRow(ctx, query, c.Title, c.Description, c.SourceURL).
		Scan(&c.ID, &c.CSVExport)
}

// FindByID retrieves one collection by primary key.
func (r *CollectionRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Collection, error) {
	query := `
		SELECT id, title, description, source_url, csv_export
		FROM collections
		WHERE id = $1;
	`
	var c entity.Collection
	err := r.db.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.SourceURL, &c.CSVExport)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all collections ordered by id.
func (r *CollectionRepoImpl) List(ctx context.Context) ([]*entity.Collection, error) {
	query := `
		SELECT id, title, description, source_url, csv_export
		FROM collections
		ORDER BY id;
	`
	rows, err := r.db.Query(ctx, query)
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

// AddProduct links a product to a collection. Linking twice is a no-op.
func (r *CollectionRepoImpl) AddProduct(ctx context.Context, collectionID, productID int64) error {
	query := `
		INSERT INTO collection_products (collection_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (collection_id, product_id) DO NOTHING;
	`
	_, err := r.db.Exec(ctx, query, collectionID, productID)
	return err
}

// SetExportPath records the path of the last exported CSV file.
func (r *CollectionRepoImpl) SetExportPath(ctx context.Context, id int64, path string) error {
	query := `UPDATE collections SET csv_export = $2 WHERE id = $1;`
	tag, err := r.db.Exec(ctx, query, id, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
