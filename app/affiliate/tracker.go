package affiliate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zbozihub/zbozihub/app/database"
)

var ErrProductNotFound = errors.New("product not found")

// Click is one recorded outbound click, analytics only
type Click struct {
	ProductID    string
	TrackingCode string
	Referrer     string
	UserAgent    string
	At           time.Time
}

// ClickRecorder persists click events. Recording failures never block the
// redirect.
type ClickRecorder interface {
	RecordClick(ctx context.Context, click Click) error
}

type TrackResult struct {
	RedirectURL  string
	TrackingCode string
}

// Tracker resolves a product's redirect target and records the click
type Tracker struct {
	productRepo database.ProductRepository
	recorder    ClickRecorder
}

func NewTracker(productRepo database.ProductRepository, recorder ClickRecorder) *Tracker {
	return &Tracker{productRepo: productRepo, recorder: recorder}
}

func (t *Tracker) Track(ctx context.Context, productID, trackingCode, referrer, userAgent string) (*TrackResult, error) {
	target, err := t.productRepo.GetClickTarget(productID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrProductNotFound
	}

	code := trackingCode
	if code == "" {
		code = target.TrackingCode
	}
	if code == "" {
		code = uuid.NewString()
	}

	result := &TrackResult{
		RedirectURL:  BuildRedirect(target),
		TrackingCode: code,
	}

	if t.recorder != nil {
		click := Click{
			ProductID:    productID,
			TrackingCode: code,
			Referrer:     referrer,
			UserAgent:    userAgent,
			At:           time.Now().UTC(),
		}
		if err := t.recorder.RecordClick(ctx, click); err != nil {
			slog.Warn("Failed to record click", "product_id", productID, "error", err)
		}
	}

	return result, nil
}
