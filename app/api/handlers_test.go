package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zbozihub/zbozihub/app/affiliate"
	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/ingest"
	"github.com/zbozihub/zbozihub/app/tasks"
)

type fakeFeedRepo struct {
	feeds map[string]*database.Feed
}

func (r *fakeFeedRepo) GetFeed(id string) (*database.Feed, error) { return r.feeds[id], nil }
func (r *fakeFeedRepo) GetFeeds() ([]database.Feed, error) {
	var feeds []database.Feed
	for _, f := range r.feeds {
		feeds = append(feeds, *f)
	}
	return feeds, nil
}
func (r *fakeFeedRepo) GetActiveFeeds() ([]database.Feed, error) { return nil, nil }
func (r *fakeFeedRepo) GetFeedCount() (int, error)               { return len(r.feeds), nil }
func (r *fakeFeedRepo) CreateFeed(feed *database.Feed) (string, error) {
	r.feeds["new-id"] = feed
	return "new-id", nil
}
func (r *fakeFeedRepo) UpdateFeed(feed *database.Feed) error { return nil }
func (r *fakeFeedRepo) DeleteFeed(id string) error {
	delete(r.feeds, id)
	return nil
}
func (r *fakeFeedRepo) UpdateMappingConfig(id string, config database.MappingConfig) error {
	return nil
}
func (r *fakeFeedRepo) StampImported(id string, at time.Time) error { return nil }

type fakeNetworkRepo struct {
	networks map[string]*database.AffiliateNetwork
}

func (r *fakeNetworkRepo) GetNetwork(id string) (*database.AffiliateNetwork, error) {
	return r.networks[id], nil
}
func (r *fakeNetworkRepo) GetNetworks() ([]database.AffiliateNetwork, error)       { return nil, nil }
func (r *fakeNetworkRepo) GetActiveNetworks() ([]database.AffiliateNetwork, error) { return nil, nil }
func (r *fakeNetworkRepo) CreateNetwork(n *database.AffiliateNetwork) (string, error) {
	return "", nil
}
func (r *fakeNetworkRepo) UpdateNetwork(n *database.AffiliateNetwork) error { return nil }
func (r *fakeNetworkRepo) DeleteNetwork(id string) error                    { return nil }
func (r *fakeNetworkRepo) StampSynced(id string, at time.Time) error        { return nil }

type fakeProductRepo struct {
	targets map[string]*database.ClickTarget
}

func (r *fakeProductRepo) FindIDByExternalID(externalID, marketCode string) (string, error) {
	return "", nil
}
func (r *fakeProductRepo) FindIDByTitle(title, marketCode string) (string, error) { return "", nil }
func (r *fakeProductRepo) InsertProduct(p *database.Product) (string, error)      { return "", nil }
func (r *fakeProductRepo) UpdateProduct(id string, p *database.Product) error     { return nil }
func (r *fakeProductRepo) CreateAffiliateLink(productID, affiliateURL string) error {
	return nil
}
func (r *fakeProductRepo) GetClickTarget(productID string) (*database.ClickTarget, error) {
	return r.targets[productID], nil
}
func (r *fakeProductRepo) GetProductCount() (int, error)             { return 0, nil }
func (r *fakeProductRepo) SetActive(id string, active bool) error    { return nil }
func (r *fakeProductRepo) SetFeatured(id string, f bool) error       { return nil }
func (r *fakeProductRepo) DeleteProduct(id string) error             { return nil }

type fakeLogRepo struct{}

func (r *fakeLogRepo) CreateLog(feedID, networkID *string, importType string) (string, error) {
	return "log-1", nil
}
func (r *fakeLogRepo) FinalizeLog(id, status string, p, c, u int, errors []string) error {
	return nil
}
func (r *fakeLogRepo) GetLogStatus(id string) (string, error)         { return "", nil }
func (r *fakeLogRepo) GetLogs(limit int) ([]database.ImportLog, error) { return nil, nil }
func (r *fakeLogRepo) MarkStopped(id string) error                    { return nil }
func (r *fakeLogRepo) DeleteFinished() (int64, error)                 { return 3, nil }

type fakeScheduler struct{}

func (s *fakeScheduler) Start()                                  {}
func (s *fakeScheduler) Stop()                                   {}
func (s *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error { return nil }
func (s *fakeScheduler) QueueLength() int                        { return 0 }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	productRepo := &fakeProductRepo{targets: map[string]*database.ClickTarget{
		"p-1": {
			ProductID:    "p-1",
			ShopName:     "Shop",
			HasLink:      true,
			AffiliateURL: "https://aff.example.com/p-1",
			TrackingCode: "code-1",
		},
	}}

	handler := NewHandler(
		&fakeFeedRepo{feeds: map[string]*database.Feed{}},
		&fakeNetworkRepo{},
		productRepo,
		&fakeLogRepo{},
		nil,
		nil,
		affiliate.NewTracker(productRepo, nil),
		&fakeScheduler{},
		nil,
	)

	server := httptest.NewServer(NewServer(handler, "test-key"))
	t.Cleanup(server.Close)

	return server
}

func postJSON(t *testing.T, url, apiKey string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func TestTrackClick(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/functions/affiliate-track-click", "",
		TrackClickRequest{ProductID: "p-1"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result TrackClickResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !result.Success {
		t.Error("Expected success true")
	}
	if result.RedirectURL != "https://aff.example.com/p-1" {
		t.Errorf("Expected affiliate redirect, got %q", result.RedirectURL)
	}
	if result.TrackingCode != "code-1" {
		t.Errorf("Expected stored tracking code, got %q", result.TrackingCode)
	}
}

func TestTrackClick_ProductNotFound(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/functions/affiliate-track-click", "",
		TrackClickRequest{ProductID: "missing"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown product, got %d", resp.StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	server := newTestServer(t)

	// Missing key
	resp := postJSON(t, server.URL+"/functions/admin-operations", "",
		AdminRequest{Action: "scheduler_status"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got %d", resp.StatusCode)
	}

	// Wrong key
	resp = postJSON(t, server.URL+"/functions/admin-operations", "wrong-key",
		AdminRequest{Action: "scheduler_status"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong API key, got %d", resp.StatusCode)
	}

	// Correct key
	resp = postJSON(t, server.URL+"/functions/admin-operations", "test-key",
		AdminRequest{Action: "scheduler_status"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 with correct API key, got %d", resp.StatusCode)
	}
}

func TestAdminOperations_UnknownAction(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/functions/admin-operations", "test-key",
		AdminRequest{Action: "explode"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown action, got %d", resp.StatusCode)
	}
}

func TestAdminOperations_FeedCRUD(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/functions/admin-operations", "test-key", AdminRequest{
		Action: "create_feed",
		Feed: &FeedPayload{
			Name:       "Test Feed",
			URL:        "https://example.com/feed.xml",
			MarketCode: "cs",
		},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["success"] != true {
		t.Error("Expected success true")
	}
	if result["id"] == "" {
		t.Error("Expected created feed id")
	}

	listResp := postJSON(t, server.URL+"/functions/admin-operations", "test-key",
		AdminRequest{Action: "list_feeds"})
	defer listResp.Body.Close()

	var listResult struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listResult); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if listResult.Total != 1 {
		t.Errorf("Expected 1 feed after create, got %d", listResult.Total)
	}
}

func TestAdminOperations_CreateFeedValidation(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/functions/admin-operations", "test-key",
		AdminRequest{Action: "create_feed", Feed: &FeedPayload{Name: "No URL"}})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for feed without url, got %d", resp.StatusCode)
	}
}

func TestSyncNetwork_UnreachableAPIReturns500(t *testing.T) {
	networkRepo := &fakeNetworkRepo{networks: map[string]*database.AffiliateNetwork{
		"net-1": {
			ID:          "net-1",
			Name:        "Dead Network",
			APIEndpoint: "http://127.0.0.1:1/products",
			MarketCode:  "cs",
			IsActive:    true,
		},
	}}
	productRepo := &fakeProductRepo{}
	syncService := affiliate.NewService(
		affiliate.NewClient("TestAgent/1.0"),
		ingest.NewProcessor(nil, nil, productRepo, &fakeLogRepo{}),
		networkRepo,
	)

	handler := NewHandler(
		&fakeFeedRepo{feeds: map[string]*database.Feed{}},
		networkRepo,
		productRepo,
		&fakeLogRepo{},
		nil,
		syncService,
		affiliate.NewTracker(productRepo, nil),
		&fakeScheduler{},
		nil,
	)
	server := httptest.NewServer(NewServer(handler, "test-key"))
	defer server.Close()

	resp := postJSON(t, server.URL+"/functions/affiliate-api-sync", "test-key",
		SyncRequest{NetworkID: "net-1"})
	defer resp.Body.Close()

	// A sync that never reaches the product loop is a server error, not a
	// completed run with success false
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500 for unreachable network API, got %d", resp.StatusCode)
	}

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Success {
		t.Error("Expected success false")
	}
	if result.Error == "" {
		t.Error("Expected an error message in the response")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/functions/affiliate-track-click", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected permissive CORS header")
	}
}
