package api

import (
	"github.com/zbozihub/zbozihub/app/affiliate"
	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/ingest"
	"github.com/zbozihub/zbozihub/app/tasks"
)

// ClickStatsInterface is the slice of the click store the API exposes
type ClickStatsInterface interface {
	GetClickCount() (int, error)
}

type Handler struct {
	feedRepo      database.FeedRepository
	networkRepo   database.NetworkRepository
	productRepo   database.ProductRepository
	logRepo       database.ImportLogRepository
	ingestService *ingest.Service
	syncService   *affiliate.Service
	tracker       *affiliate.Tracker
	scheduler     tasks.TaskSchedulerInterface
	clickStats    ClickStatsInterface
}

// ProcessFeedRequest triggers one feed import. Either feedId or feedUrl +
// marketCode must be set; field names match the operator UI contract.
type ProcessFeedRequest struct {
	FeedID              string                  `json:"feedId"`
	FeedURL             string                  `json:"feedUrl"`
	MarketCode          string                  `json:"marketCode"`
	MappingConfig       *database.MappingConfig `json:"mappingConfig"`
	Limit               int                     `json:"limit"`
	CategoryFilter      string                  `json:"category_filter"`
	ProductsPerCategory int                     `json:"products_per_category"`
	MaxProducts         int                     `json:"max_products"`
	ImportType          string                  `json:"import_type"`
}

type ImportResponse struct {
	Success           bool     `json:"success"`
	ProductsProcessed int      `json:"productsProcessed"`
	ProductsCreated   int      `json:"productsCreated"`
	ProductsUpdated   int      `json:"productsUpdated"`
	Errors            []string `json:"errors"`
}

type SyncRequest struct {
	NetworkID  string `json:"networkId"`
	MarketCode string `json:"marketCode"`
}

type DebugRequest struct {
	FeedURL    string `json:"feedUrl"`
	URL        string `json:"url"`
	MarketCode string `json:"marketCode"`
}

type TrackClickRequest struct {
	ProductID    string `json:"productId"`
	TrackingCode string `json:"trackingCode"`
	Referrer     string `json:"referrer"`
	UserAgent    string `json:"userAgent"`
}

type TrackClickResponse struct {
	Success      bool   `json:"success"`
	RedirectURL  string `json:"redirectUrl"`
	TrackingCode string `json:"trackingCode"`
}

// AdminRequest is the dispatch-by-action envelope for admin CRUD
type AdminRequest struct {
	Action   string          `json:"action"`
	ID       string          `json:"id"`
	Feed     *FeedPayload    `json:"feed"`
	Network  *NetworkPayload `json:"network"`
	Active   *bool           `json:"active"`
	Featured *bool           `json:"featured"`
	Limit    int             `json:"limit"`
}

type FeedPayload struct {
	Name                  string                  `json:"name"`
	URL                   string                  `json:"url"`
	FeedType              string                  `json:"feedType"`
	MarketCode            string                  `json:"marketCode"`
	MappingConfig         *database.MappingConfig `json:"mappingConfig"`
	AffiliateLinkTemplate string                  `json:"affiliateLinkTemplate"`
	IsActive              *bool                   `json:"isActive"`
}

type NetworkPayload struct {
	Name        string                  `json:"name"`
	APIEndpoint string                  `json:"apiEndpoint"`
	APIKeyName  string                  `json:"apiKeyName"`
	MarketCode  string                  `json:"marketCode"`
	Config      *database.NetworkConfig `json:"config"`
	IsActive    *bool                   `json:"isActive"`
}
