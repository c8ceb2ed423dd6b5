package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/mapping"
)

// stopPollInterval is how many records are processed between checks for an
// operator-requested stop
const stopPollInterval = 25

const defaultAvailability = "in_stock"

var marketCurrencies = map[string]string{
	"cs": "CZK",
	"sk": "EUR",
	"pl": "PLN",
	"de": "EUR",
}

// Processor runs the validation, resolve-or-create and upsert steps for a
// batch of extracted records, tracking the run in a single import log row.
// Records are processed strictly one at a time in feed order.
type Processor struct {
	shopRepo     database.ShopRepository
	categoryRepo database.CategoryRepository
	productRepo  database.ProductRepository
	logRepo      database.ImportLogRepository
}

func NewProcessor(shopRepo database.ShopRepository, categoryRepo database.CategoryRepository,
	productRepo database.ProductRepository, logRepo database.ImportLogRepository) *Processor {
	return &Processor{
		shopRepo:     shopRepo,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		logRepo:      logRepo,
	}
}

// Run processes records sequentially and finalizes the run's import log
// exactly once. Per-record errors never abort the run; the terminal status is
// failed only when errors exceed half of the processed count.
func (p *Processor) Run(ctx context.Context, records []Record, opts Options) (*Summary, error) {
	logID, err := p.logRepo.CreateLog(opts.FeedID, opts.NetworkID, opts.ImportType)
	if err != nil {
		return nil, fmt.Errorf("failed to create import log: %w", err)
	}

	return p.process(ctx, logID, records, opts)
}

// RunSource opens the run's import log before the source is consulted, so a
// source failure (unreachable API, non-array response) still finalizes the
// log — with zero counts — instead of leaving no trace of the run.
func (p *Processor) RunSource(ctx context.Context, source func(context.Context) ([]Record, error), opts Options) (*Summary, error) {
	logID, err := p.logRepo.CreateLog(opts.FeedID, opts.NetworkID, opts.ImportType)
	if err != nil {
		return nil, fmt.Errorf("failed to create import log: %w", err)
	}

	records, err := source(ctx)
	if err != nil {
		summary := &Summary{LogID: logID, Status: database.StatusFailed, Errors: []string{err.Error()}}
		p.finalize(summary)
		return summary, err
	}

	return p.process(ctx, logID, records, opts)
}

func (p *Processor) process(ctx context.Context, logID string, records []Record, opts Options) (*Summary, error) {
	summary := &Summary{LogID: logID, Errors: []string{}}
	perCategory := make(map[string]int)

	for i, record := range records {
		if opts.MaxProducts > 0 && summary.Processed >= opts.MaxProducts {
			break
		}

		category := record["category"]
		if opts.CategoryFilter != "" && !strings.EqualFold(category, opts.CategoryFilter) {
			continue
		}
		if opts.ProductsPerCategory > 0 && perCategory[category] >= opts.ProductsPerCategory {
			continue
		}
		perCategory[category]++

		summary.Processed++

		if summary.Processed%stopPollInterval == 0 && p.stopRequested(logID) {
			slog.Info("Import stopped by operator", "log_id", logID, "processed", summary.Processed)
			summary.Status = database.StatusStopped
			p.finalize(summary)
			return summary, nil
		}

		if err := p.processRecord(record, opts, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("product %d: %s", i+1, err.Error()))
		}

		select {
		case <-ctx.Done():
			summary.Status = database.StatusStopped
			p.finalize(summary)
			return summary, ctx.Err()
		default:
		}
	}

	summary.Status = database.StatusCompleted
	if len(summary.Errors)*2 > summary.Processed {
		summary.Status = database.StatusFailed
	}
	p.finalize(summary)

	return summary, nil
}

func (p *Processor) stopRequested(logID string) bool {
	status, err := p.logRepo.GetLogStatus(logID)
	if err != nil {
		slog.Warn("Failed to poll import log status", "log_id", logID, "error", err)
		return false
	}
	return status == database.StatusStopped
}

func (p *Processor) finalize(s *Summary) {
	err := p.logRepo.FinalizeLog(s.LogID, s.Status, s.Processed, s.Created, s.Updated, s.Errors)
	if err != nil {
		slog.Error("Failed to finalize import log", "log_id", s.LogID, "error", err)
	}
}

// processRecord runs the validation gate and the per-product upsert chain.
// The first failing step abandons the record's remaining steps.
func (p *Processor) processRecord(record Record, opts Options, summary *Summary) error {
	title := strings.TrimSpace(record["title"])
	imageURL := strings.TrimSpace(record["image_url"])
	price := ParsePrice(record["price"])

	if title == "" {
		return fmt.Errorf("missing title")
	}
	if imageURL == "" {
		return fmt.Errorf("missing image")
	}
	if price <= 0 {
		return fmt.Errorf("invalid price %q", record["price"])
	}

	shopName := strings.TrimSpace(record["shop"])
	if shopName == "" {
		shopName = opts.DefaultShopName
	}
	shopID, err := p.shopRepo.ResolveOrCreate(shopName, opts.MarketCode)
	if err != nil {
		return err
	}

	categoryID, err := p.resolveCategory(record["category"], opts)
	if err != nil {
		return err
	}

	currency := strings.TrimSpace(record["currency"])
	if currency == "" {
		currency = MarketCurrency(opts.MarketCode)
	}

	availability := strings.TrimSpace(record["availability"])
	if availability == "" {
		availability = defaultAvailability
	}

	var originalPrice *float64
	if op := ParsePrice(record["original_price"]); op > 0 {
		originalPrice = &op
	}

	externalID := strings.TrimSpace(record["external_id"])

	product := &database.Product{
		Title:         title,
		Description:   strings.TrimSpace(record["description"]),
		Price:         price,
		OriginalPrice: originalPrice,
		Currency:      currency,
		ImageURL:      imageURL,
		CategoryID:    categoryID,
		ShopID:        shopID,
		MarketCode:    opts.MarketCode,
		Availability:  availability,
		ExternalID:    externalID,
	}

	existingID, err := p.resolveIdentity(externalID, title, opts.MarketCode)
	if err != nil {
		return err
	}

	if existingID != "" {
		if err := p.productRepo.UpdateProduct(existingID, product); err != nil {
			return err
		}
		summary.Updated++
		return nil
	}

	productID, err := p.productRepo.InsertProduct(product)
	if err != nil {
		return err
	}
	summary.Created++

	if productURL := strings.TrimSpace(record["url"]); productURL != "" {
		affiliateURL := ApplyTemplate(opts.AffiliateTemplate, productURL)
		if err := p.productRepo.CreateAffiliateLink(productID, affiliateURL); err != nil {
			return err
		}
	}

	return nil
}

// resolveCategory prefers the stored token mapping and otherwise creates the
// category from the raw name. Records without a category stay uncategorized.
func (p *Processor) resolveCategory(token string, opts Options) (*string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	if id, ok := opts.CategoryMapping[token]; ok && id != "" {
		return &id, nil
	}

	id, err := p.categoryRepo.ResolveOrCreate(token, mapping.Slugify(token), opts.MarketCode)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// resolveIdentity prefers the external id and falls back to title+market
func (p *Processor) resolveIdentity(externalID, title, marketCode string) (string, error) {
	if externalID != "" {
		id, err := p.productRepo.FindIDByExternalID(externalID, marketCode)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return p.productRepo.FindIDByTitle(title, marketCode)
}

// MarketCurrency returns the default currency for a market
func MarketCurrency(marketCode string) string {
	if currency, ok := marketCurrencies[marketCode]; ok {
		return currency
	}
	return "EUR"
}

// ParsePrice parses a feed price value, tolerating currency suffixes,
// thousand spaces and comma decimals. A leading minus is kept so negative
// prices stay negative and fail the validation gate. Unparseable values
// become 0.
func ParsePrice(raw string) float64 {
	var b strings.Builder
	negative := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = true
		case r == '.':
			b.WriteRune('.')
		case r == ',':
			b.WriteByte('.')
		}
	}

	cleaned := b.String()
	// Keep only the last dot as the decimal separator
	if first, last := strings.Index(cleaned, "."), strings.LastIndex(cleaned, "."); first != last {
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -price
	}
	return price
}

// ApplyTemplate builds an affiliate URL from a feed's link template. An empty
// template passes the product URL through unchanged.
func ApplyTemplate(template, productURL string) string {
	if template == "" {
		return productURL
	}
	if strings.Contains(template, "{url}") {
		return strings.ReplaceAll(template, "{url}", url.QueryEscape(productURL))
	}
	separator := "?"
	if strings.Contains(template, "?") {
		separator = "&"
	}
	return template + separator + "url=" + url.QueryEscape(productURL)
}
