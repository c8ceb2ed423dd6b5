package database

import (
	"time"
)

// Feed represents a configured product feed source
type Feed struct {
	ID                    string
	Name                  string
	URL                   string
	FeedType              string // "xml" or "rss"
	MarketCode            string
	MappingConfig         MappingConfig
	AffiliateLinkTemplate string
	IsActive              bool
	LastImportedAt        *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// AffiliateNetwork represents a third-party product API source
type AffiliateNetwork struct {
	ID          string
	Name        string
	APIEndpoint string
	APIKeyName  string
	MarketCode  string
	Config      NetworkConfig
	IsActive    bool
	LastSyncAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category is a node in the per-market category tree (one level of nesting used)
type Category struct {
	ID         string
	Name       string
	Slug       string
	MarketCode string
	ParentID   *string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Shop struct {
	ID              string
	Name            string
	MarketCode      string
	WebsiteURL      string
	AffiliateParams string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Product struct {
	ID            string
	Title         string
	Description   string
	Price         float64
	OriginalPrice *float64
	Currency      string
	ImageURL      string
	CategoryID    *string
	ShopID        string
	MarketCode    string
	Availability  string
	ExternalID    string // empty string is stored as NULL
	IsActive      bool
	IsFeatured    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AffiliateLink struct {
	ID             string
	ProductID      string
	AffiliateURL   string
	TrackingCode   string
	CommissionRate *float64
	IsActive       bool
	CreatedAt      time.Time
}

// ImportLog tracks a single ingestion run, exactly one row per run
type ImportLog struct {
	ID                string
	FeedID            *string
	NetworkID         *string
	ImportType        string
	Status            string
	ProductsProcessed int
	ProductsCreated   int
	ProductsUpdated   int
	Errors            []string
	StartedAt         time.Time
	CompletedAt       *time.Time
}
