package affiliate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/zbozihub/zbozihub/app/database"
)

const (
	defaultAuthHeader = "Authorization"
	bearerPrefix      = "Bearer "
	clientTimeout     = 30 * time.Second
)

// responseArrayKeys are checked in order when locating the product array in
// an API response body
var responseArrayKeys = []string{"products", "items", "data"}

// Client fetches product arrays from affiliate network APIs. Requests are
// rate limited so bursts of scheduled syncs stay within partner quotas.
type Client struct {
	rest    *resty.Client
	limiter *rate.Limiter
}

func NewClient(userAgent string) *Client {
	rest := resty.New()
	rest.SetTimeout(clientTimeout)
	rest.SetHeader("User-Agent", userAgent)

	return &Client{
		rest:    rest,
		limiter: rate.NewLimiter(rate.Every(time.Second/5), 5),
	}
}

// FetchProducts calls the network's API endpoint with the configured auth
// header and query parameters and locates the product array in the response.
// A response without a product array is a terminal error for the sync run.
func (c *Client) FetchProducts(ctx context.Context, network *database.AffiliateNetwork) ([]map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := c.rest.R().SetContext(ctx)

	if secret := os.Getenv(network.APIKeyName); secret != "" {
		header := network.Config.AuthHeader
		if header == "" {
			header = defaultAuthHeader
		}
		value := secret
		if header == defaultAuthHeader {
			value = bearerPrefix + secret
		}
		req.SetHeader(header, value)
	}

	if network.Config.MarketParam != "" {
		req.SetQueryParam(network.Config.MarketParam, network.MarketCode)
	}
	if network.Config.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(network.Config.Limit))
	}

	resp, err := req.Get(network.APIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call network API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("network API returned HTTP %d", resp.StatusCode())
	}

	return locateProductArray(resp.Body())
}

// locateProductArray finds the product array in the response: the keys
// products, items and data are tried in order, then the raw body itself.
func locateProductArray(body []byte) ([]map[string]interface{}, error) {
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse network API response: %w", err)
	}

	var raw []interface{}
	switch v := parsed.(type) {
	case map[string]interface{}:
		for _, key := range responseArrayKeys {
			if arr, ok := v[key].([]interface{}); ok {
				raw = arr
				break
			}
		}
		if raw == nil {
			return nil, fmt.Errorf("network API response does not contain a product array")
		}
	case []interface{}:
		raw = v
	default:
		return nil, fmt.Errorf("network API response does not contain a product array")
	}

	products := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]interface{}); ok {
			products = append(products, obj)
		}
	}

	return products, nil
}
