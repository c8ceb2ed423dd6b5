package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zbozihub/zbozihub/app/affiliate"
	"github.com/zbozihub/zbozihub/app/database"
)

type SyncNetworkTask struct {
	Task
	Network *database.AffiliateNetwork
	service *affiliate.Service
}

func NewSyncNetworkTask(network *database.AffiliateNetwork, service *affiliate.Service) *SyncNetworkTask {
	return &SyncNetworkTask{
		Task:    NewTask(TaskTypeSyncNetwork, network.Name, 0),
		Network: network,
		service: service,
	}
}

func (t *SyncNetworkTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Network.IsActive {
		slog.Debug("Network inactive, skipping", "network", t.Network.Name)
		return nil
	}

	summary, err := t.service.SyncNetwork(ctx, t.Network)
	if err != nil {
		return fmt.Errorf("failed to sync network: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncNetwork",
		"network", t.Network.Name,
		"duration", t.GetDuration(),
		"status", summary.Status,
		"processed", summary.Processed,
		"created", summary.Created,
		"updated", summary.Updated,
		"errors", len(summary.Errors))

	return nil
}
