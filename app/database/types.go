package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Import run statuses
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusStopped    = "stopped"
)

// Import types
const (
	ImportTypeXML = "xml_feed"
	ImportTypeAPI = "affiliate_api"
)

// MappingConfig translates feed-native field and category names into the
// internal product schema. Stored as JSONB on the feed row.
type MappingConfig struct {
	Fields          map[string]string `json:"fields,omitempty"`
	CategoryMapping map[string]string `json:"category_mapping,omitempty"`
}

func (m MappingConfig) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *MappingConfig) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// NetworkConfig holds the per-network sync settings. Stored as JSONB on the
// affiliate network row.
type NetworkConfig struct {
	AuthHeader   string            `json:"auth_header,omitempty"`
	MarketParam  string            `json:"market_param,omitempty"`
	Limit        int               `json:"limit,omitempty"`
	FieldMapping map[string]string `json:"field_mapping,omitempty"`
}

func (c NetworkConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *NetworkConfig) Scan(src interface{}) error {
	return scanJSON(src, c)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
}

// ClickTarget is the product/shop/link join used to build a redirect URL
type ClickTarget struct {
	ProductID           string
	ProductTitle        string
	MarketCode          string
	ShopName            string
	ShopWebsiteURL      string
	ShopAffiliateParams string
	AffiliateURL        string
	TrackingCode        string
	HasLink             bool
}
