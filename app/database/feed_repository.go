package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*PostgresFeedRepository)(nil)

// PostgresFeedRepository handles database operations for feeds
type PostgresFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *PostgresFeedRepository {
	return &PostgresFeedRepository{db: db}
}

const feedColumns = `id, name, feed_url, feed_type, market_code, mapping_config,
	COALESCE(affiliate_link_template, ''), is_active, last_imported_at, created_at, updated_at`

func (r *PostgresFeedRepository) scanFeed(row interface{ Scan(...interface{}) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(&feed.ID, &feed.Name, &feed.URL, &feed.FeedType, &feed.MarketCode,
		&feed.MappingConfig, &feed.AffiliateLinkTemplate, &feed.IsActive,
		&feed.LastImportedAt, &feed.CreatedAt, &feed.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *PostgresFeedRepository) GetFeed(id string) (*Feed, error) {
	feed, err := r.scanFeed(r.db.QueryRow(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return feed, nil
}

func (r *PostgresFeedRepository) GetFeeds() ([]Feed, error) {
	return r.queryFeeds(`SELECT ` + feedColumns + ` FROM feeds ORDER BY name`)
}

func (r *PostgresFeedRepository) GetActiveFeeds() ([]Feed, error) {
	return r.queryFeeds(`SELECT ` + feedColumns + ` FROM feeds WHERE is_active = true ORDER BY name`)
}

func (r *PostgresFeedRepository) queryFeeds(query string) ([]Feed, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := r.scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *PostgresFeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *PostgresFeedRepository) CreateFeed(feed *Feed) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO feeds (name, feed_url, feed_type, market_code, mapping_config,
			affiliate_link_template, is_active)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id
	`, feed.Name, feed.URL, feed.FeedType, feed.MarketCode, feed.MappingConfig,
		feed.AffiliateLinkTemplate, feed.IsActive).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create feed: %w", err)
	}
	return id, nil
}

func (r *PostgresFeedRepository) UpdateFeed(feed *Feed) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET name = $2, feed_url = $3, feed_type = $4, market_code = $5,
			mapping_config = $6, affiliate_link_template = NULLIF($7, ''),
			is_active = $8, updated_at = NOW()
		WHERE id = $1
	`, feed.ID, feed.Name, feed.URL, feed.FeedType, feed.MarketCode,
		feed.MappingConfig, feed.AffiliateLinkTemplate, feed.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update feed: %w", err)
	}
	return nil
}

func (r *PostgresFeedRepository) DeleteFeed(id string) error {
	_, err := r.db.Exec(`DELETE FROM feeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

// UpdateMappingConfig persists a discovered mapping so subsequent runs skip
// re-analysis
func (r *PostgresFeedRepository) UpdateMappingConfig(id string, config MappingConfig) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET mapping_config = $2, updated_at = NOW()
		WHERE id = $1
	`, id, config)
	if err != nil {
		return fmt.Errorf("failed to update mapping config: %w", err)
	}
	return nil
}

// StampImported records the time of the latest completed or failed run
func (r *PostgresFeedRepository) StampImported(id string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_imported_at = $2, updated_at = NOW()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to stamp feed import time: %w", err)
	}
	return nil
}
