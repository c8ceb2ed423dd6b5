package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zbozihub/zbozihub/app/analyzer"
	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/mapping"
)

// FeedImportOptions are the per-request knobs of a feed import
type FeedImportOptions struct {
	CategoryFilter      string
	ProductsPerCategory int
	MaxProducts         int

	// MappingOverride replaces the feed's stored mapping for this run only
	MappingOverride *database.MappingConfig
}

// Service ties the fetch, analysis, extraction and upsert stages into full
// feed import runs
type Service struct {
	fetcher      *Fetcher
	extractor    *Extractor
	analyzer     *analyzer.Analyzer
	mapper       *mapping.Mapper
	processor    *Processor
	feedRepo     database.FeedRepository
	categoryRepo database.CategoryRepository
}

func NewService(fetcher *Fetcher, processor *Processor, feedRepo database.FeedRepository,
	categoryRepo database.CategoryRepository) *Service {
	return &Service{
		fetcher:      fetcher,
		extractor:    NewExtractor(),
		analyzer:     analyzer.NewAnalyzer(),
		mapper:       mapping.NewMapper(),
		processor:    processor,
		feedRepo:     feedRepo,
		categoryRepo: categoryRepo,
	}
}

// ImportFeed runs one full ingestion of a feed. Fetch and extraction failures
// are terminal; per-product failures are accumulated in the run summary. The
// feed's last_imported_at is stamped on every completed or failed run.
func (s *Service) ImportFeed(ctx context.Context, feed *database.Feed, opts FeedImportOptions) (*Summary, error) {
	raw, err := s.fetcher.Run(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %q: %w", feed.Name, err)
	}

	config := feed.MappingConfig
	if opts.MappingOverride != nil {
		config = *opts.MappingOverride
	}

	config, err = s.ensureMapping(feed, config, raw)
	if err != nil {
		return nil, err
	}

	records, err := s.extractor.Run(raw, feed.FeedType, config.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to extract products from feed %q: %w", feed.Name, err)
	}

	// Ad-hoc imports (a bare URL submitted through the API) have no feed row,
	// so the import log carries a NULL feed_id and nothing gets stamped.
	var feedID *string
	if feed.ID != "" {
		feedID = &feed.ID
	}

	summary, err := s.processor.Run(ctx, records, Options{
		MarketCode:          feed.MarketCode,
		ImportType:          database.ImportTypeXML,
		FeedID:              feedID,
		DefaultShopName:     feed.Name,
		AffiliateTemplate:   feed.AffiliateLinkTemplate,
		CategoryMapping:     config.CategoryMapping,
		CategoryFilter:      opts.CategoryFilter,
		ProductsPerCategory: opts.ProductsPerCategory,
		MaxProducts:         opts.MaxProducts,
	})

	if feedID != nil && summary != nil &&
		(summary.Status == database.StatusCompleted || summary.Status == database.StatusFailed) {
		if stampErr := s.feedRepo.StampImported(feed.ID, time.Now().UTC()); stampErr != nil {
			slog.Warn("Failed to stamp feed import time", "feed", feed.Name, "error", stampErr)
		}
	}

	return summary, err
}

// Analyze fetches a feed URL and returns its discovered structure without
// touching the stored mapping
func (s *Service) Analyze(ctx context.Context, feedURL, marketCode string) (*analyzer.Result, error) {
	raw, err := s.fetcher.Run(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	live, err := s.categoryRepo.GetActiveCategories(marketCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	return s.analyzer.Run(raw, marketCode, live), nil
}

// ensureMapping fills in missing parts of the feed's mapping config,
// cache-first: an existing non-empty field mapping or category mapping is
// reused verbatim and analysis is skipped for that part. Newly discovered
// parts are persisted on the feed.
func (s *Service) ensureMapping(feed *database.Feed, config database.MappingConfig, raw []byte) (database.MappingConfig, error) {
	if len(config.Fields) > 0 && len(config.CategoryMapping) > 0 {
		return config, nil
	}

	if feed.FeedType == "rss" {
		// RSS extraction has fixed field semantics; only categories need
		// resolution, and those resolve record-by-record during processing.
		return config, nil
	}

	live, err := s.categoryRepo.GetActiveCategories(feed.MarketCode)
	if err != nil {
		return config, fmt.Errorf("failed to load categories: %w", err)
	}

	changed := false

	if len(config.Fields) == 0 {
		result := s.analyzer.Run(raw, feed.MarketCode, live)
		if len(result.SuggestedMapping) > 0 {
			config.Fields = result.SuggestedMapping
			changed = true
		}
		if len(config.CategoryMapping) == 0 && len(result.CategoryMapping) > 0 {
			config.CategoryMapping = result.CategoryMapping
			changed = true
		}
	} else if len(config.CategoryMapping) == 0 {
		categoryField := config.Fields["category"]
		if categoryField == "" {
			categoryField = "category"
		}
		discovered := s.mapper.Run(raw, categoryField, feed.MarketCode, live)
		if len(discovered) > 0 {
			config.CategoryMapping = discovered
			changed = true
		}
	}

	if changed && feed.ID != "" {
		if err := s.feedRepo.UpdateMappingConfig(feed.ID, config); err != nil {
			slog.Warn("Failed to persist discovered mapping", "feed", feed.Name, "error", err)
		} else {
			slog.Info("Discovered feed mapping persisted", "feed", feed.Name,
				"fields", len(config.Fields), "category_tokens", len(config.CategoryMapping))
		}
	}

	return config, nil
}
