package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/ingest"
)

type ImportFeedTask struct {
	Task
	Feed    *database.Feed
	service *ingest.Service
}

func NewImportFeedTask(feed *database.Feed, service *ingest.Service) *ImportFeedTask {
	return &ImportFeedTask{
		Task:    NewTask(TaskTypeImportFeed, feed.Name, 0),
		Feed:    feed,
		service: service,
	}
}

func (t *ImportFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Feed.IsActive {
		slog.Debug("Feed inactive, skipping", "feed", t.Feed.Name)
		return nil
	}

	summary, err := t.service.ImportFeed(ctx, t.Feed, ingest.FeedImportOptions{})
	if err != nil {
		return fmt.Errorf("failed to import feed: %w", err)
	}

	slog.Info("Task completed",
		"type", "ImportFeed",
		"feed", t.Feed.Name,
		"duration", t.GetDuration(),
		"status", summary.Status,
		"processed", summary.Processed,
		"created", summary.Created,
		"updated", summary.Updated,
		"errors", len(summary.Errors))

	return nil
}
