package database

import (
	"fmt"
)

var _ CategoryRepository = (*PostgresCategoryRepository)(nil)

// PostgresCategoryRepository handles database operations for categories
type PostgresCategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (r *PostgresCategoryRepository) GetActiveCategories(marketCode string) ([]Category, error) {
	rows, err := r.db.Query(`
		SELECT id, name, slug, market_code, parent_id, is_active, created_at, updated_at
		FROM categories
		WHERE market_code = $1
		  AND is_active = true
		ORDER BY name
	`, marketCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.MarketCode, &c.ParentID,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

// ResolveOrCreate looks a category up by name within the market and inserts it
// when absent. The insert upserts on (market_code, slug) so concurrent runs
// discovering the same category cannot create duplicate rows.
func (r *PostgresCategoryRepository) ResolveOrCreate(name, slug, marketCode string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM categories
		WHERE market_code = $1 AND lower(name) = lower($2)
		LIMIT 1
	`, marketCode, name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = r.db.QueryRow(`
		INSERT INTO categories (name, slug, market_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (market_code, slug) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, name, slug, marketCode).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve or create category %q: %w", name, err)
	}

	return id, nil
}
