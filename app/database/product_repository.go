package database

import (
	"database/sql"
	"fmt"
)

var _ ProductRepository = (*PostgresProductRepository)(nil)

// PostgresProductRepository handles database operations for products and
// their affiliate links
type PostgresProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

// FindIDByExternalID resolves a product by its feed-native identifier
func (r *PostgresProductRepository) FindIDByExternalID(externalID, marketCode string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM products
		WHERE market_code = $1 AND external_id = $2
		LIMIT 1
	`, marketCode, externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find product by external id: %w", err)
	}
	return id, nil
}

// FindIDByTitle is the fallback identity for feeds without stable product ids
func (r *PostgresProductRepository) FindIDByTitle(title, marketCode string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM products
		WHERE market_code = $1 AND lower(title) = lower($2)
		LIMIT 1
	`, marketCode, title).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find product by title: %w", err)
	}
	return id, nil
}

// InsertProduct inserts a new product row. The upsert on
// (market_code, external_id) absorbs concurrent runs importing the same
// product; the losing run updates the winner's row instead of duplicating it.
func (r *PostgresProductRepository) InsertProduct(p *Product) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO products (title, description, price, original_price, currency,
			image_url, category_id, shop_id, market_code, availability, external_id)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''))
		ON CONFLICT (market_code, external_id) WHERE external_id IS NOT NULL DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			currency = EXCLUDED.currency,
			image_url = EXCLUDED.image_url,
			category_id = EXCLUDED.category_id,
			shop_id = EXCLUDED.shop_id,
			availability = EXCLUDED.availability,
			updated_at = NOW()
		RETURNING id
	`, p.Title, p.Description, p.Price, p.OriginalPrice, p.Currency,
		p.ImageURL, p.CategoryID, p.ShopID, p.MarketCode, p.Availability,
		p.ExternalID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert product: %w", err)
	}
	return id, nil
}

// UpdateProduct overwrites all mapped fields of an existing product in place
func (r *PostgresProductRepository) UpdateProduct(id string, p *Product) error {
	_, err := r.db.Exec(`
		UPDATE products
		SET title = $2, description = NULLIF($3, ''), price = $4, original_price = $5,
			currency = $6, image_url = $7, category_id = $8, shop_id = $9,
			availability = $10, external_id = COALESCE(NULLIF($11, ''), external_id),
			updated_at = NOW()
		WHERE id = $1
	`, id, p.Title, p.Description, p.Price, p.OriginalPrice, p.Currency,
		p.ImageURL, p.CategoryID, p.ShopID, p.Availability, p.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// CreateAffiliateLink creates the one-to-one link row for a product.
// Existing links are left untouched.
func (r *PostgresProductRepository) CreateAffiliateLink(productID, affiliateURL string) error {
	_, err := r.db.Exec(`
		INSERT INTO affiliate_links (product_id, affiliate_url)
		VALUES ($1, $2)
		ON CONFLICT (product_id) DO NOTHING
	`, productID, affiliateURL)
	if err != nil {
		return fmt.Errorf("failed to create affiliate link: %w", err)
	}
	return nil
}

// GetClickTarget loads a product joined with its shop and affiliate link
func (r *PostgresProductRepository) GetClickTarget(productID string) (*ClickTarget, error) {
	var t ClickTarget
	var affiliateURL, trackingCode sql.NullString
	err := r.db.QueryRow(`
		SELECT p.id, p.title, p.market_code, s.name,
		       COALESCE(s.website_url, ''), COALESCE(s.affiliate_params, ''),
		       al.affiliate_url, al.tracking_code
		FROM products p
		JOIN shops s ON s.id = p.shop_id
		LEFT JOIN affiliate_links al ON al.product_id = p.id AND al.is_active = true
		WHERE p.id = $1
	`, productID).Scan(&t.ProductID, &t.ProductTitle, &t.MarketCode, &t.ShopName,
		&t.ShopWebsiteURL, &t.ShopAffiliateParams, &affiliateURL, &trackingCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load click target: %w", err)
	}

	t.HasLink = affiliateURL.Valid
	t.AffiliateURL = affiliateURL.String
	t.TrackingCode = trackingCode.String

	return &t, nil
}

func (r *PostgresProductRepository) GetProductCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get product count: %w", err)
	}
	return count, nil
}

func (r *PostgresProductRepository) SetActive(id string, active bool) error {
	_, err := r.db.Exec(`UPDATE products SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set product active flag: %w", err)
	}
	return nil
}

func (r *PostgresProductRepository) SetFeatured(id string, featured bool) error {
	_, err := r.db.Exec(`UPDATE products SET is_featured = $2, updated_at = NOW() WHERE id = $1`, id, featured)
	if err != nil {
		return fmt.Errorf("failed to set product featured flag: %w", err)
	}
	return nil
}

func (r *PostgresProductRepository) DeleteProduct(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
