package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/catalog-agent/internal/entity"
)

// OptionRepoImpl provides a concrete implementation for the
// OptionRepository interface using PostgreSQL. The get-or-create operations
// lean on the unique constraints; concurrent extractions racing on the same
// name both land on the existing row.
type OptionRepoImpl struct {
	db *pgxpool.Pool
}

// NewOptionRepo creates a new instance of OptionRepoImpl.
func NewOptionRepo(db *pgxpool.Pool) *OptionRepoImpl {
	return &OptionRepoImpl{db: db}
}

// GetOrCreateCategory resolves an option axis by its unique name.
func (r *OptionRepoImpl) GetOrCreateCategory(ctx context.Context, name string) (*entity.OptionCategory, error) {
	// The no-op DO UPDATE makes RETURNING yield the row on conflict too.
	query := `
		INSERT INTO option_categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name;
	`
	var cat entity.OptionCategory
	if err := r.db.QueryRow(ctx, query, name).Scan(&cat.ID, &cat.Name); err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetOrCreateValue resolves a value within a category.
func (r *OptionRepoImpl) GetOrCreateValue(ctx context.Context, categoryID int64, value string) (*entity.OptionValue, error) {
	query := `
		INSERT INTO option_values (category_id, value)
		VALUES ($1, $2)
		ON CONFLICT (category_id, value) DO UPDATE SET value = EXCLUDED.value
		RETURNING id, category_id, value;
	`
	var val entity.OptionValue
	if err := r.db.QueryRow(ctx, query, categoryID, value).
		Scan(&val.ID, &val.CategoryID, &val.Value); err != nil {
		return nil, err
	}
	return &val, nil
}
