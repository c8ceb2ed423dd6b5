package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zbozihub/zbozihub/app/affiliate"
	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/ingest"
	"github.com/zbozihub/zbozihub/app/tasks"
)

func NewHandler(feedRepo database.FeedRepository, networkRepo database.NetworkRepository,
	productRepo database.ProductRepository, logRepo database.ImportLogRepository,
	ingestService *ingest.Service, syncService *affiliate.Service,
	tracker *affiliate.Tracker, scheduler tasks.TaskSchedulerInterface,
	clickStats ClickStatsInterface) *Handler {
	return &Handler{
		feedRepo:      feedRepo,
		networkRepo:   networkRepo,
		productRepo:   productRepo,
		logRepo:       logRepo,
		ingestService: ingestService,
		syncService:   syncService,
		tracker:       tracker,
		scheduler:     scheduler,
		clickStats:    clickStats,
	}
}

func importResponse(summary *ingest.Summary) ImportResponse {
	return ImportResponse{
		Success:           summary.Status == database.StatusCompleted,
		ProductsProcessed: summary.Processed,
		ProductsCreated:   summary.Created,
		ProductsUpdated:   summary.Updated,
		Errors:            summary.SurfacedErrors(),
	}
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   err.Error(),
		"success": false,
	})
}

// ProcessFeed runs one import synchronously, either for a stored feed
// (feedId) or for an ad-hoc URL (feedUrl + marketCode)
func (h *Handler) ProcessFeed(c *gin.Context) {
	var req ProcessFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "success": false})
		return
	}

	var feed *database.Feed
	if req.FeedID != "" {
		stored, err := h.feedRepo.GetFeed(req.FeedID)
		if err != nil {
			slog.Error("Database error", "operation", "get_feed", "feed_id", req.FeedID, "error", err)
			serverError(c, err)
			return
		}
		if stored == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found", "success": false})
			return
		}
		feed = stored
	} else {
		if req.FeedURL == "" || req.MarketCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Either feedId or feedUrl with marketCode is required",
				"success": false,
			})
			return
		}
		feedType := req.ImportType
		if feedType == "" {
			feedType = "xml"
		}
		feed = &database.Feed{
			Name:       req.FeedURL,
			URL:        req.FeedURL,
			FeedType:   feedType,
			MarketCode: req.MarketCode,
		}
	}

	opts := ingest.FeedImportOptions{
		CategoryFilter:      req.CategoryFilter,
		ProductsPerCategory: req.ProductsPerCategory,
		MaxProducts:         req.MaxProducts,
		MappingOverride:     req.MappingConfig,
	}
	if opts.MaxProducts == 0 {
		opts.MaxProducts = req.Limit
	}

	// A run-aborting error (unreachable feed, extraction failure) is a 500
	// even when a failed import log was finalized; only per-product errors
	// ride back in a 200 response.
	summary, err := h.ingestService.ImportFeed(c.Request.Context(), feed, opts)
	if err != nil {
		slog.Error("Feed import failed", "feed", feed.Name, "error", err)
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, importResponse(summary))
}

// SyncNetwork pulls products from an affiliate network API
func (h *Handler) SyncNetwork(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "success": false})
		return
	}
	if req.NetworkID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "networkId is required", "success": false})
		return
	}

	network, err := h.networkRepo.GetNetwork(req.NetworkID)
	if err != nil {
		slog.Error("Database error", "operation", "get_network", "network_id", req.NetworkID, "error", err)
		serverError(c, err)
		return
	}
	if network == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Affiliate network not found", "success": false})
		return
	}
	if req.MarketCode != "" {
		network.MarketCode = req.MarketCode
	}

	summary, err := h.syncService.SyncNetwork(c.Request.Context(), network)
	if err != nil {
		slog.Error("Network sync failed", "network", network.Name, "error", err)
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, importResponse(summary))
}

// DebugFeed analyzes a feed's structure without importing anything
func (h *Handler) DebugFeed(c *gin.Context) {
	var req DebugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "success": false})
		return
	}

	feedURL := req.FeedURL
	if feedURL == "" {
		feedURL = req.URL
	}
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feedUrl is required", "success": false})
		return
	}

	result, err := h.ingestService.Analyze(c.Request.Context(), feedURL, req.MarketCode)
	if err != nil {
		slog.Error("Feed analysis failed", "url", feedURL, "error", err)
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TrackClick resolves the redirect target for a product and records the click
func (h *Handler) TrackClick(c *gin.Context) {
	var req TrackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "success": false})
		return
	}
	if req.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required", "success": false})
		return
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = c.GetHeader("Referer")
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}

	result, err := h.tracker.Track(c.Request.Context(), req.ProductID, req.TrackingCode, referrer, userAgent)
	if err != nil {
		if errors.Is(err, affiliate.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "success": false})
			return
		}
		slog.Error("Click tracking failed", "product_id", req.ProductID, "error", err)
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, TrackClickResponse{
		Success:      true,
		RedirectURL:  result.RedirectURL,
		TrackingCode: result.TrackingCode,
	})
}

// AdminOperations dispatches CRUD and job-management actions by the "action"
// field of the request body
func (h *Handler) AdminOperations(c *gin.Context) {
	var req AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "success": false})
		return
	}

	switch req.Action {
	case "list_feeds":
		h.adminListFeeds(c)
	case "create_feed":
		h.adminCreateFeed(c, &req)
	case "update_feed":
		h.adminUpdateFeed(c, &req)
	case "delete_feed":
		h.adminDelete(c, req.ID, h.feedRepo.DeleteFeed)
	case "list_networks":
		h.adminListNetworks(c)
	case "create_network":
		h.adminCreateNetwork(c, &req)
	case "update_network":
		h.adminUpdateNetwork(c, &req)
	case "delete_network":
		h.adminDelete(c, req.ID, h.networkRepo.DeleteNetwork)
	case "set_product_active":
		h.adminSetProductFlag(c, &req, h.productRepo.SetActive, req.Active)
	case "set_product_featured":
		h.adminSetProductFlag(c, &req, h.productRepo.SetFeatured, req.Featured)
	case "delete_product":
		h.adminDelete(c, req.ID, h.productRepo.DeleteProduct)
	case "list_import_logs":
		h.adminListImportLogs(c, &req)
	case "stop_import":
		h.adminStopImport(c, &req)
	case "delete_finished_logs":
		h.adminDeleteFinishedLogs(c)
	case "scheduler_status":
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"queue_length": h.scheduler.QueueLength(),
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action", "success": false})
	}
}

func (h *Handler) adminListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.GetFeeds()
	if err != nil {
		serverError(c, err)
		return
	}

	list := make([]map[string]interface{}, 0, len(feeds))
	for _, f := range feeds {
		list = append(list, map[string]interface{}{
			"id":               f.ID,
			"name":             f.Name,
			"url":              f.URL,
			"feed_type":        f.FeedType,
			"market_code":      f.MarketCode,
			"is_active":        f.IsActive,
			"last_imported_at": f.LastImportedAt,
			"mapped_fields":    len(f.MappingConfig.Fields),
			"mapped_tokens":    len(f.MappingConfig.CategoryMapping),
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "feeds": list, "total": len(list)})
}

func (h *Handler) adminCreateFeed(c *gin.Context, req *AdminRequest) {
	if req.Feed == nil || req.Feed.Name == "" || req.Feed.URL == "" || req.Feed.MarketCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "feed with name, url and marketCode is required",
			"success": false,
		})
		return
	}

	feed := feedFromPayload(req.Feed)
	id, err := h.feedRepo.CreateFeed(feed)
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *Handler) adminUpdateFeed(c *gin.Context, req *AdminRequest) {
	if req.ID == "" || req.Feed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and feed are required", "success": false})
		return
	}

	existing, err := h.feedRepo.GetFeed(req.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found", "success": false})
		return
	}

	applyFeedPayload(existing, req.Feed)
	if err := h.feedRepo.UpdateFeed(existing); err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) adminListNetworks(c *gin.Context) {
	networks, err := h.networkRepo.GetNetworks()
	if err != nil {
		serverError(c, err)
		return
	}

	list := make([]map[string]interface{}, 0, len(networks))
	for _, n := range networks {
		list = append(list, map[string]interface{}{
			"id":           n.ID,
			"name":         n.Name,
			"api_endpoint": n.APIEndpoint,
			"market_code":  n.MarketCode,
			"is_active":    n.IsActive,
			"last_sync_at": n.LastSyncAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "networks": list, "total": len(list)})
}

func (h *Handler) adminCreateNetwork(c *gin.Context, req *AdminRequest) {
	if req.Network == nil || req.Network.Name == "" || req.Network.APIEndpoint == "" || req.Network.MarketCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "network with name, apiEndpoint and marketCode is required",
			"success": false,
		})
		return
	}

	network := networkFromPayload(req.Network)
	id, err := h.networkRepo.CreateNetwork(network)
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *Handler) adminUpdateNetwork(c *gin.Context, req *AdminRequest) {
	if req.ID == "" || req.Network == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and network are required", "success": false})
		return
	}

	existing, err := h.networkRepo.GetNetwork(req.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Affiliate network not found", "success": false})
		return
	}

	applyNetworkPayload(existing, req.Network)
	if err := h.networkRepo.UpdateNetwork(existing); err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) adminSetProductFlag(c *gin.Context, req *AdminRequest,
	set func(id string, value bool) error, value *bool) {
	if req.ID == "" || value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and flag value are required", "success": false})
		return
	}
	if err := set(req.ID, *value); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) adminDelete(c *gin.Context, id string, del func(id string) error) {
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required", "success": false})
		return
	}
	if err := del(id); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) adminListImportLogs(c *gin.Context, req *AdminRequest) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	logs, err := h.logRepo.GetLogs(limit)
	if err != nil {
		serverError(c, err)
		return
	}

	list := make([]map[string]interface{}, 0, len(logs))
	for _, l := range logs {
		list = append(list, map[string]interface{}{
			"id":                 l.ID,
			"feed_id":            l.FeedID,
			"network_id":         l.NetworkID,
			"import_type":        l.ImportType,
			"status":             l.Status,
			"products_processed": l.ProductsProcessed,
			"products_created":   l.ProductsCreated,
			"products_updated":   l.ProductsUpdated,
			"errors":             l.Errors,
			"started_at":         l.StartedAt,
			"completed_at":       l.CompletedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "logs": list, "total": len(list)})
}

func (h *Handler) adminStopImport(c *gin.Context, req *AdminRequest) {
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required", "success": false})
		return
	}
	if err := h.logRepo.MarkStopped(req.ID); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) adminDeleteFinishedLogs(c *gin.Context) {
	deleted, err := h.logRepo.DeleteFinished()
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

// GetHealth reports service liveness plus a few cheap counters
func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}
	if productCount, err := h.productRepo.GetProductCount(); err == nil {
		health["products"] = productCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"queue_length": h.scheduler.QueueLength(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		stats["feeds"] = feedCount
	}
	if productCount, err := h.productRepo.GetProductCount(); err == nil {
		stats["products"] = productCount
	}
	if h.clickStats != nil {
		if clicks, err := h.clickStats.GetClickCount(); err == nil {
			stats["clicks"] = clicks
		}
	}
	if logs, err := h.logRepo.GetLogs(1); err == nil && len(logs) > 0 {
		stats["last_import"] = map[string]interface{}{
			"status":     logs[0].Status,
			"started_at": logs[0].StartedAt,
			"processed":  logs[0].ProductsProcessed,
		}
	}

	c.JSON(http.StatusOK, stats)
}

func feedFromPayload(p *FeedPayload) *database.Feed {
	feed := &database.Feed{
		Name:                  p.Name,
		URL:                   p.URL,
		FeedType:              p.FeedType,
		MarketCode:            p.MarketCode,
		AffiliateLinkTemplate: p.AffiliateLinkTemplate,
		IsActive:              true,
	}
	if feed.FeedType == "" {
		feed.FeedType = "xml"
	}
	if p.MappingConfig != nil {
		feed.MappingConfig = *p.MappingConfig
	}
	if p.IsActive != nil {
		feed.IsActive = *p.IsActive
	}
	return feed
}

func applyFeedPayload(feed *database.Feed, p *FeedPayload) {
	if p.Name != "" {
		feed.Name = p.Name
	}
	if p.URL != "" {
		feed.URL = p.URL
	}
	if p.FeedType != "" {
		feed.FeedType = p.FeedType
	}
	if p.MarketCode != "" {
		feed.MarketCode = p.MarketCode
	}
	if p.MappingConfig != nil {
		feed.MappingConfig = *p.MappingConfig
	}
	if p.AffiliateLinkTemplate != "" {
		feed.AffiliateLinkTemplate = p.AffiliateLinkTemplate
	}
	if p.IsActive != nil {
		feed.IsActive = *p.IsActive
	}
}

func networkFromPayload(p *NetworkPayload) *database.AffiliateNetwork {
	network := &database.AffiliateNetwork{
		Name:        p.Name,
		APIEndpoint: p.APIEndpoint,
		APIKeyName:  p.APIKeyName,
		MarketCode:  p.MarketCode,
		IsActive:    true,
	}
	if p.Config != nil {
		network.Config = *p.Config
	}
	if p.IsActive != nil {
		network.IsActive = *p.IsActive
	}
	return network
}

func applyNetworkPayload(network *database.AffiliateNetwork, p *NetworkPayload) {
	if p.Name != "" {
		network.Name = p.Name
	}
	if p.APIEndpoint != "" {
		network.APIEndpoint = p.APIEndpoint
	}
	if p.APIKeyName != "" {
		network.APIKeyName = p.APIKeyName
	}
	if p.MarketCode != "" {
		network.MarketCode = p.MarketCode
	}
	if p.Config != nil {
		network.Config = *p.Config
	}
	if p.IsActive != nil {
		network.IsActive = *p.IsActive
	}
}
