package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookbuddy/internal/exporters"
)

// DirExporter writes a timestamped CSV export into a directory.
type DirExporter interface {
	ExportToDir(ctx context.Context, dir, prefix string, now time.Time) (exporters.ExportResult, error)
}

// ExportBackupTask writes a CSV backup of every book into Dir, then keeps
// only the newest Keep backups when Keep is positive.
type ExportBackupTask struct {
	Dir    string `json:"dir"`
	Prefix string `json:"prefix,omitempty"`
	Keep   int    `json:"keep,omitempty"`
}

// Config returns the queue configuration for backup tasks.
func (t ExportBackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_backup",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportBackupProcessor creates a processor function for ExportBackupTask.
func ExportBackupProcessor(exporter DirExporter) backlite.QueueProcessor[ExportBackupTask] {
	return func(ctx context.Context, task ExportBackupTask) error {
		if exporter == nil {
			return fmt.Errorf("exporter not configured")
		}
		if task.Dir == "" {
			return fmt.Errorf("backup directory is required")
		}
		prefix := task.Prefix
		if prefix == "" {
			prefix = "books"
		}

		result, err := exporter.ExportToDir(ctx, task.Dir, prefix, time.Now())
		if err != nil {
			return fmt.Errorf("export backup: %w", err)
		}

		removed, err := exporters.PruneBackups(task.Dir, prefix, task.Keep)
		if err != nil {
			log.Printf("[TASK] Backup written but pruning failed: %v", err)
		}

		log.Printf("[TASK] Backed up %d books to %s, pruned %d", result.BooksExported, result.Path, len(removed))
		return nil
	}
}

func NewExportBackupQueue(exporter DirExporter) backlite.Queue {
	return backlite.NewQueue(ExportBackupProcessor(exporter))
}
