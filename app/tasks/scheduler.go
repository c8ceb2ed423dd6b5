package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zbozihub/zbozihub/app/affiliate"
	"github.com/zbozihub/zbozihub/app/cfg"
	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/ingest"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs due feed imports and network syncs on a worker pool. A feed
// or network is due when its last run is older than the import interval.
type Scheduler struct {
	feedRepo       database.FeedRepository
	networkRepo    database.NetworkRepository
	ingestService  *ingest.Service
	syncService    *affiliate.Service
	interval       time.Duration
	importInterval time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
}

func NewScheduler(feedRepo database.FeedRepository, networkRepo database.NetworkRepository,
	ingestService *ingest.Service, syncService *affiliate.Service) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		feedRepo:       feedRepo,
		networkRepo:    networkRepo,
		ingestService:  ingestService,
		syncService:    syncService,
		interval:       time.Duration(c.SchedulerInterval) * time.Second,
		importInterval: time.Duration(c.ImportInterval) * time.Second,
		workerCount:    c.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

// Stop cancels the scheduler context and waits for the workers to drain. The
// queue channel is left open so a straggling enqueue (a retry goroutine racing
// the shutdown) fails cleanly instead of sending on a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) QueueLength() int {
	return len(s.taskQueue)
}

func (s *Scheduler) enqueueDueTasks() {
	cutoff := time.Now().UTC().Add(-s.importInterval)

	feeds, err := s.feedRepo.GetActiveFeeds()
	if err != nil {
		slog.Warn("Failed to load active feeds for scheduling", "error", err)
	} else {
		for i := range feeds {
			feed := feeds[i]
			if feed.LastImportedAt != nil && feed.LastImportedAt.After(cutoff) {
				continue
			}
			task := NewImportFeedTask(&feed, s.ingestService)
			if err := s.EnqueueTask(task); err != nil {
				slog.Warn("Failed to enqueue ImportFeedTask", "feed", feed.Name, "error", err)
			}
		}
	}

	networks, err := s.networkRepo.GetActiveNetworks()
	if err != nil {
		slog.Warn("Failed to load active networks for scheduling", "error", err)
		return
	}
	for i := range networks {
		network := networks[i]
		if network.LastSyncAt != nil && network.LastSyncAt.After(cutoff) {
			continue
		}
		task := NewSyncNetworkTask(&network, s.syncService)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue SyncNetworkTask", "network", network.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 10*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID,
		"type", string(task.GetType()), "ref", task.GetRef(), "error", err)

	if !task.CanRetry() {
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "ref", task.GetRef(),
		"retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			return
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()),
					"id", task.GetID(), "error", retryErr)
			}
		}
	}()
}
