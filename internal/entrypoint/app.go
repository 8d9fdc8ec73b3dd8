package entrypoint

import (
	"errors"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookbuddy/internal/auth"
	"github.com/mrlokans/bookbuddy/internal/config"
	"github.com/mrlokans/bookbuddy/internal/database"
	"github.com/mrlokans/bookbuddy/internal/exporters"
	http_controllers "github.com/mrlokans/bookbuddy/internal/http"
	"github.com/mrlokans/bookbuddy/internal/importers"
	"github.com/mrlokans/bookbuddy/internal/scheduler"
	"github.com/mrlokans/bookbuddy/internal/services"
	"github.com/mrlokans/bookbuddy/internal/tasks"
)

// App holds the wired application components shared by the server and the
// CLI commands.
type App struct {
	Config   *config.Config
	DB       *database.Database
	Library  *services.LibraryService
	Importer *importers.Pipeline
	Exporter *exporters.CSVExporter
	Backups  *scheduler.BackupScheduler

	// Tasks is nil when the task queue is disabled.
	Tasks *tasks.Client
}

// NewApp opens the database and builds the services on top of it. The task
// queue is created and its queues registered, but not started.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg.Auth.Mode == config.AuthModeToken && cfg.Auth.TokenHash == "" {
		return nil, errors.New("AUTH_MODE=token requires API_TOKEN_HASH (generate one with the 'token' command)")
	}

	logLevel := logger.Warn
	if cfg.Database.LogSQL {
		logLevel = logger.Info
	}
	db, err := database.Open(cfg.Database.Path, database.Options{LogLevel: logLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	library := services.NewLibraryService(db.Books(), db.Categories())
	exporter := exporters.NewCSVExporter(library)

	app := &App{
		Config:   cfg,
		DB:       db,
		Library:  library,
		Importer: importers.NewPipeline(library),
		Exporter: exporter,
		Backups:  scheduler.NewBackupScheduler(exporter, cfg.Backup),
	}

	if cfg.Tasks.Enabled {
		client, err := tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create task client: %w", err)
		}
		client.Register(
			tasks.NewNormalizeRankingsQueue(library),
			tasks.NewExportBackupQueue(exporter),
		)
		app.Tasks = client
	}

	return app, nil
}

// Router builds the HTTP router for the app.
func (a *App) Router(version string) *gin.Engine {
	var authMiddleware *auth.Middleware
	if a.Config.Auth.Mode == config.AuthModeToken {
		log.Printf("Authentication mode: token")
		authMiddleware = auth.NewMiddleware(a.Config.Auth, auth.NewRateLimiter(auth.DefaultRateLimitConfig()))
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	return http_controllers.NewRouter(http_controllers.RouterConfig{
		Library:         a.Library,
		Database:        a.DB,
		Importer:        a.Importer,
		Exporter:        a.Exporter,
		AuthMiddleware:  authMiddleware,
		EnableHSTS:      a.Config.HTTP.HSTS,
		TaskClient:      a.Tasks,
		BackupScheduler: a.Backups,
		BackupDir:       a.Config.Backup.Dir,
		BackupKeep:      a.Config.Backup.Keep,
		Version:         version,
	})
}

// Close releases the task and main databases.
func (a *App) Close() error {
	var errs []error
	if a.Tasks != nil {
		if err := a.Tasks.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close task client: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
