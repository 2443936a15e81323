package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// TaskEnqueuer is the part of tasks.Client the scheduler needs.
type TaskEnqueuer interface {
	EnqueueCatalogRefresh() ([]string, error)
}

// MetadataSyncConfig controls the periodic catalog refresh.
type MetadataSyncConfig struct {
	Enabled  bool
	Schedule string // Cron format: "0 3 * * *" = daily at 03:00
}

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := scheduleParser.Parse(schedule)
	return err
}

// MetadataSyncScheduler periodically queues enrichment of books missing
// metadata, followed by pruning of authors and genres no book uses anymore.
// The work itself runs on the task queue, so a tick only enqueues.
type MetadataSyncScheduler struct {
	queue  TaskEnqueuer
	config MetadataSyncConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMetadataSyncScheduler creates a new scheduler instance
func NewMetadataSyncScheduler(queue TaskEnqueuer, config MetadataSyncConfig) *MetadataSyncScheduler {
	return &MetadataSyncScheduler{
		queue:  queue,
		config: config,
		cron:   cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start begins the scheduler if sync is enabled
func (s *MetadataSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Metadata sync scheduler: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Metadata sync scheduler: started with schedule '%s'. Next run: %v",
		s.config.Schedule, s.nextRunLocked())

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *MetadataSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Metadata sync scheduler: stopped")
}

// RunNow queues a sync immediately, outside the schedule.
func (s *MetadataSyncScheduler) RunNow() error {
	return s.enqueue()
}

// IsRunning returns whether the scheduler is active
func (s *MetadataSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sync will occur
func (s *MetadataSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	return s.nextRunLocked()
}

func (s *MetadataSyncScheduler) nextRunLocked() *time.Time {
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *MetadataSyncScheduler) runSync() {
	if err := s.enqueue(); err != nil {
		log.Printf("Metadata sync: %v", err)
	}
}

func (s *MetadataSyncScheduler) enqueue() error {
	if s.queue == nil {
		return fmt.Errorf("task queue not configured")
	}
	ids, err := s.queue.EnqueueCatalogRefresh()
	if err != nil {
		return fmt.Errorf("failed to queue metadata sync: %w", err)
	}
	log.Printf("Metadata sync: queued tasks %v", ids)
	return nil
}
