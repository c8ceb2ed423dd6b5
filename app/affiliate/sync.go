package affiliate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/ingest"
)

// Fallback response keys used when a record field has no field_mapping entry
var fallbackAPIFields = map[string]string{
	"title":          "title",
	"description":    "description",
	"price":          "price",
	"original_price": "original_price",
	"currency":       "currency",
	"image_url":      "image_url",
	"category":       "category",
	"availability":   "availability",
	"external_id":    "id",
	"url":            "url",
	"shop":           "shop",
}

// Service syncs affiliate network APIs into the catalog, reusing the feed
// ingestion upsert engine
type Service struct {
	client      *Client
	processor   *ingest.Processor
	networkRepo database.NetworkRepository
}

func NewService(client *Client, processor *ingest.Processor, networkRepo database.NetworkRepository) *Service {
	return &Service{
		client:      client,
		processor:   processor,
		networkRepo: networkRepo,
	}
}

// SyncNetwork runs one sync of an affiliate network. The network's
// last_sync_at is stamped after every attempt, success or not.
func (s *Service) SyncNetwork(ctx context.Context, network *database.AffiliateNetwork) (*ingest.Summary, error) {
	defer func() {
		if err := s.networkRepo.StampSynced(network.ID, time.Now().UTC()); err != nil {
			slog.Warn("Failed to stamp network sync time", "network", network.Name, "error", err)
		}
	}()

	source := func(ctx context.Context) ([]ingest.Record, error) {
		items, err := s.client.FetchProducts(ctx, network)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch products from %q: %w", network.Name, err)
		}
		return mapRecords(items, network.Config.FieldMapping), nil
	}

	return s.processor.RunSource(ctx, source, ingest.Options{
		MarketCode:      network.MarketCode,
		ImportType:      database.ImportTypeAPI,
		NetworkID:       &network.ID,
		DefaultShopName: network.Name,
	})
}

// mapRecords applies a network's field_mapping to the raw API objects
func mapRecords(items []map[string]interface{}, fieldMapping map[string]string) []ingest.Record {
	records := make([]ingest.Record, 0, len(items))

	for _, item := range items {
		record := make(ingest.Record)
		for field, fallback := range fallbackAPIFields {
			key := fieldMapping[field]
			if key == "" {
				key = fallback
			}
			if value := stringifyValue(item[key]); value != "" {
				record[field] = value
			}
		}
		records = append(records, record)
	}

	return records
}

func stringifyValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
	case bool:
		return fmt.Sprintf("%t", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
