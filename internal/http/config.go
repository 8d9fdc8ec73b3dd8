package http

import (
	"github.com/mrlokans/bookbuddy/internal/auth"
	"github.com/mrlokans/bookbuddy/internal/database"
	"github.com/mrlokans/bookbuddy/internal/exporters"
	"github.com/mrlokans/bookbuddy/internal/importers"
	"github.com/mrlokans/bookbuddy/internal/scheduler"
	"github.com/mrlokans/bookbuddy/internal/services"
	"github.com/mrlokans/bookbuddy/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Library  *services.LibraryService
	Database *database.Database

	// CSV import/export
	Importer *importers.Pipeline
	Exporter *exporters.CSVExporter

	// Authentication (optional; nil serves every route unauthenticated)
	AuthMiddleware *auth.Middleware
	EnableHSTS     bool

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Backups (optional)
	BackupScheduler *scheduler.BackupScheduler
	BackupDir       string
	BackupKeep      int

	// Application info
	Version string
}
