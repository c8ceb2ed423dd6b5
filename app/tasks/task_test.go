package tasks

import (
	"testing"
	"time"

	"github.com/zbozihub/zbozihub/app/cfg"
	"github.com/zbozihub/zbozihub/app/database"
)

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeImportFeed, "Test Feed", 0)

	if task.GetID() == "" {
		t.Error("Expected a generated task ID")
	}
	if task.GetType() != TaskTypeImportFeed {
		t.Errorf("Expected type import_feed, got %s", task.GetType())
	}
	if task.GetRef() != "Test Feed" {
		t.Errorf("Expected ref 'Test Feed', got %s", task.GetRef())
	}
	if task.GetRetryCount() != 0 {
		t.Errorf("Expected retry count 0, got %d", task.GetRetryCount())
	}
}

func TestTask_ImportTasksNeverRetry(t *testing.T) {
	feed := &database.Feed{Name: "Test Feed", IsActive: true}
	task := NewImportFeedTask(feed, nil)

	if task.CanRetry() {
		t.Error("Import tasks must not retry automatically")
	}

	network := &database.AffiliateNetwork{Name: "Test Network", IsActive: true}
	syncTask := NewSyncNetworkTask(network, nil)

	if syncTask.CanRetry() {
		t.Error("Sync tasks must not retry automatically")
	}
}

func TestTask_RetryCounting(t *testing.T) {
	task := NewTask(TaskTypeImportFeed, "Feed", 2)

	if !task.CanRetry() {
		t.Error("Expected task with max retries 2 to allow retry")
	}

	task.IncrementRetryCount()
	task.IncrementRetryCount()

	if task.CanRetry() {
		t.Error("Expected task at max retries to refuse further retries")
	}
	if task.GetRetryCount() != 2 {
		t.Errorf("Expected retry count 2, got %d", task.GetRetryCount())
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	cfg.SetForTesting(&cfg.Cfg{WorkerCount: 1, SchedulerInterval: 60, ImportInterval: 21600})

	scheduler := NewScheduler(nil, nil, nil, nil)
	scheduler.Start()
	scheduler.Stop()

	// A late enqueue after shutdown must fail cleanly, never panic
	task := NewImportFeedTask(&database.Feed{Name: "Late Feed"}, nil)
	if err := scheduler.EnqueueTask(task); err == nil {
		t.Error("Expected error enqueueing after stop")
	}
}

func TestTask_Duration(t *testing.T) {
	task := NewTask(TaskTypeSyncNetwork, "Network", 0)

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	task.Start()
	time.Sleep(time.Millisecond)

	if task.GetDuration() <= 0 {
		t.Error("Expected positive duration after start")
	}
}
