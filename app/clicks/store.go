package clicks

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zbozihub/zbozihub/app/affiliate"
)

var _ affiliate.ClickRecorder = (*Store)(nil)

// Store is the local click-analytics database. Click events are append-only
// and kept separate from the catalog store.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create clicks database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clicks database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS clicks (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			tracking_code TEXT,
			referrer TEXT,
			user_agent TEXT,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS clicks_product_idx ON clicks (product_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize clicks schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) RecordClick(ctx context.Context, click affiliate.Click) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clicks (id, product_id, tracking_code, referrer, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), click.ProductID, click.TrackingCode, click.Referrer,
		click.UserAgent, click.At)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

// GetClickCount returns the total number of recorded clicks
func (s *Store) GetClickCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM clicks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// GetProductClickCount returns the number of clicks recorded for one product
func (s *Store) GetProductClickCount(productID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM clicks WHERE product_id = $1`, productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count product clicks: %w", err)
	}
	return count, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
