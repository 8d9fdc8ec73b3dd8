package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookbuddy/internal/config"
	"github.com/mrlokans/bookbuddy/internal/exporters"
)

// BackupPrefix names the CSV files written by scheduled backups.
const BackupPrefix = "books"

// DirExporter writes a timestamped CSV export into a directory.
type DirExporter interface {
	ExportToDir(ctx context.Context, dir, prefix string, now time.Time) (exporters.ExportResult, error)
}

// BackupStatus describes the outcome of the most recent backup run.
type BackupStatus struct {
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastResult  string     `json:"last_result,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	BooksBacked int        `json:"books_backed_up"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// BackupScheduler periodically exports the reading list to CSV files and
// prunes old ones.
type BackupScheduler struct {
	exporter DirExporter
	config   config.Backup

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc

	runMu  sync.Mutex
	status BackupStatus
}

// NewBackupScheduler creates a new scheduler instance
func NewBackupScheduler(exporter DirExporter, cfg config.Backup) *BackupScheduler {
	return &BackupScheduler{
		exporter: exporter,
		config:   cfg,
		cron:     cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start begins the scheduler if backups are enabled
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Backup scheduler: disabled")
		return nil
	}

	if s.config.Dir == "" {
		log.Printf("Backup scheduler: backup directory not configured, skipping")
		return nil
	}

	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		_, _ = s.runBackup(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.config.Schedule, time.Now())
	log.Printf("Backup scheduler: started with schedule '%s' (%s). Next run: %v",
		s.config.Schedule,
		GetCronDescription(s.config.Schedule),
		nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Backup scheduler: stopped")
}

// RunNow performs a backup immediately and waits for it to finish.
func (s *BackupScheduler) RunNow(ctx context.Context) (exporters.ExportResult, error) {
	return s.runBackup(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next backup will occur
func (s *BackupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// Status returns a snapshot of the last run.
func (s *BackupScheduler) Status() BackupStatus {
	s.runMu.Lock()
	status := s.status
	s.runMu.Unlock()

	status.NextRun = s.GetNextRunTime()
	return status
}

// runBackup serializes runs so a manual trigger never overlaps a scheduled one.
func (s *BackupScheduler) runBackup(ctx context.Context) (exporters.ExportResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.config.Dir == "" {
		err := errors.New("backup directory not configured")
		s.record(exporters.ExportResult{}, err)
		log.Printf("Backup: skipped (%v)", err)
		return exporters.ExportResult{}, err
	}

	log.Printf("Backup: starting export to %s", s.config.Dir)
	startTime := time.Now()

	result, err := s.exporter.ExportToDir(ctx, s.config.Dir, BackupPrefix, startTime)
	if err != nil {
		s.record(result, err)
		log.Printf("Backup: export failed: %v", err)
		return result, err
	}

	removed, err := exporters.PruneBackups(s.config.Dir, BackupPrefix, s.config.Keep)
	if err != nil {
		log.Printf("Backup: warning - failed to prune old backups: %v", err)
	}

	s.record(result, nil)
	log.Printf("Backup: exported %d books to %s in %v, pruned %d old backups",
		result.BooksExported, result.Path, time.Since(startTime).Round(time.Millisecond), len(removed))
	return result, nil
}

func (s *BackupScheduler) record(result exporters.ExportResult, err error) {
	now := time.Now()
	s.status.LastRun = &now
	s.status.BooksBacked = result.BooksExported
	if err != nil {
		s.status.LastResult = "failed"
		s.status.LastError = err.Error()
		return
	}
	s.status.LastResult = "success"
	s.status.LastError = ""
}
