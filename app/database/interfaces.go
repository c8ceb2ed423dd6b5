package database

import (
	"time"
)

type FeedRepository interface {
	GetFeed(id string) (*Feed, error)
	GetFeeds() ([]Feed, error)
	GetActiveFeeds() ([]Feed, error)
	GetFeedCount() (int, error)

	CreateFeed(feed *Feed) (string, error)
	UpdateFeed(feed *Feed) error
	DeleteFeed(id string) error

	UpdateMappingConfig(id string, config MappingConfig) error
	StampImported(id string, at time.Time) error
}

type NetworkRepository interface {
	GetNetwork(id string) (*AffiliateNetwork, error)
	GetNetworks() ([]AffiliateNetwork, error)
	GetActiveNetworks() ([]AffiliateNetwork, error)

	CreateNetwork(network *AffiliateNetwork) (string, error)
	UpdateNetwork(network *AffiliateNetwork) error
	DeleteNetwork(id string) error

	StampSynced(id string, at time.Time) error
}

type CategoryRepository interface {
	GetActiveCategories(marketCode string) ([]Category, error)

	// ResolveOrCreate returns the id of the category with the given name in
	// the market, inserting it (with the given slug) when absent. Safe under
	// concurrent runs.
	ResolveOrCreate(name, slug, marketCode string) (string, error)
}

type ShopRepository interface {
	ResolveOrCreate(name, marketCode string) (string, error)
}

type ProductRepository interface {
	FindIDByExternalID(externalID, marketCode string) (string, error)
	FindIDByTitle(title, marketCode string) (string, error)

	InsertProduct(p *Product) (string, error)
	UpdateProduct(id string, p *Product) error

	CreateAffiliateLink(productID, affiliateURL string) error

	GetClickTarget(productID string) (*ClickTarget, error)
	GetProductCount() (int, error)

	SetActive(id string, active bool) error
	SetFeatured(id string, featured bool) error
	DeleteProduct(id string) error
}

type ImportLogRepository interface {
	CreateLog(feedID, networkID *string, importType string) (string, error)
	FinalizeLog(id, status string, processed, created, updated int, errors []string) error
	GetLogStatus(id string) (string, error)
	GetLogs(limit int) ([]ImportLog, error)
	MarkStopped(id string) error
	DeleteFinished() (int64, error)
}
