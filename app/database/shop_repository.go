package database

import (
	"fmt"
)

var _ ShopRepository = (*PostgresShopRepository)(nil)

// PostgresShopRepository handles database operations for shops
type PostgresShopRepository struct {
	db *DB
}

func NewShopRepository(db *DB) *PostgresShopRepository {
	return &PostgresShopRepository{db: db}
}

// ResolveOrCreate looks a shop up by (name, market) and inserts it when
// absent. The insert upserts on (market_code, lower(name)) so concurrent runs
// encountering the same shop cannot create duplicate rows.
func (r *PostgresShopRepository) ResolveOrCreate(name, marketCode string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM shops
		WHERE market_code = $1 AND lower(name) = lower($2)
		LIMIT 1
	`, marketCode, name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = r.db.QueryRow(`
		INSERT INTO shops (name, market_code)
		VALUES ($1, $2)
		ON CONFLICT (market_code, lower(name)) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, name, marketCode).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve or create shop %q: %w", name, err)
	}

	return id, nil
}
