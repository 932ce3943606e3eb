package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is the number of results kept per task.
const historyRetention = 100

// SchedulerConfig sets task intervals. A zero interval disables the task.
type SchedulerConfig struct {
	SyncInterval  time.Duration
	PurgeInterval time.Duration
}

// Scheduler runs periodic catalog syncs and version cache purges.
type Scheduler struct {
	store    driven.SchedulerStore
	syncOrch driving.SyncOrchestrator
	versions *VersionService

	mu       sync.Mutex
	config   SchedulerConfig
	running  bool
	stopCh   chan struct{}
	inFlight map[string]bool
	wg       sync.WaitGroup

	// tick is how often due tasks are checked.
	tick time.Duration
}

// NewScheduler creates a scheduler. versions may be nil.
func NewScheduler(
	config SchedulerConfig,
	store driven.SchedulerStore,
	syncOrch driving.SyncOrchestrator,
	versions *VersionService,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		syncOrch: syncOrch,
		versions: versions,
		inFlight: make(map[string]bool),
		tick:     time.Minute,
	}
}

// Start runs the scheduler loop. It blocks until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	err := s.run(ctx, stopCh)

	s.mu.Lock()
	if s.stopCh == stopCh {
		s.running = false
	}
	s.mu.Unlock()
	return err
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.wg.Wait()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.stopCh = nil
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Reconfigure applies new intervals to the stored tasks.
func (s *Scheduler) Reconfigure(ctx context.Context, config SchedulerConfig) error {
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
	return s.initialiseTasks(ctx)
}

func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	if err := s.ensureTask(ctx, domain.TaskIDCatalogSync, "Catalog Sync", cfg.SyncInterval); err != nil {
		return err
	}
	return s.ensureTask(ctx, domain.TaskIDVersionsPurge, "Version Cache Purge", cfg.PurgeInterval)
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, interval time.Duration) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	enabled := interval > 0
	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: interval,
			Enabled:  enabled,
			// Run right away so a fresh install is populated.
			NextRun: time.Now(),
		}
	} else {
		if task.Interval != interval {
			task.Interval = interval
			task.NextRun = time.Now().Add(interval)
		}
		task.Enabled = enabled
	}

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, &task)
		}
	}
}

// runTask starts a task unless a previous run of it is still going.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDCatalogSync:
			result.ItemsProcessed, err = s.runCatalogSync(ctx)
		case domain.TaskIDVersionsPurge:
			result.ItemsProcessed, err = s.runVersionsPurge(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runCatalogSync syncs every tracked repository and reports products written.
func (s *Scheduler) runCatalogSync(ctx context.Context) (int, error) {
	if s.syncOrch == nil {
		return 0, nil
	}
	results, err := s.syncOrch.SyncAll(ctx)
	written := 0
	for _, r := range results {
		written += r.Upserted
	}
	return written, err
}

func (s *Scheduler) runVersionsPurge(ctx context.Context) (int, error) {
	if s.versions == nil {
		return 0, nil
	}
	return s.versions.Purge(ctx)
}
