package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookbuddy/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.EnableHSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	health := NewHealthController(cfg.Database, cfg.TaskClient, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	// Books
	booksController := NewBooksController(cfg.Library)
	api.GET("/books", booksController.GetAllBooks)
	api.POST("/books", booksController.CreateBook)
	api.GET("/books/queue", booksController.GetQueue)
	api.GET("/books/queue/stream", booksController.StreamQueue)
	api.GET("/books/completed", booksController.GetCompletedBooks)
	api.GET("/books/in-progress", booksController.GetInProgressBooks)
	api.POST("/books/reorder", booksController.MoveInQueue)
	api.GET("/books/:id", booksController.GetBook)
	api.PUT("/books/:id", booksController.UpdateBook)
	api.DELETE("/books/:id", booksController.DeleteBook)
	api.POST("/books/:id/start", booksController.StartReading)
	api.POST("/books/:id/hold", booksController.HoldReading)
	api.POST("/books/:id/complete", booksController.CompleteReading)
	api.PUT("/books/:id/ranking", booksController.SetRanking)
	api.GET("/authors", booksController.GetAuthors)
	api.GET("/stats", booksController.GetStats)

	// Categories
	categoriesController := NewCategoriesController(cfg.Library)
	api.GET("/categories", categoriesController.GetAllCategories)
	api.POST("/categories", categoriesController.CreateCategory)
	api.GET("/categories/filter", booksController.GetFilterCategories)
	api.DELETE("/categories/:id", categoriesController.DeleteCategory)

	// CSV import/export
	if cfg.Importer != nil && cfg.Exporter != nil {
		importExport := NewImportExportController(cfg.Importer, cfg.Exporter)
		api.GET("/export/csv", importExport.ExportCSV)
		api.POST("/import/csv", importExport.ImportCSV)
	}

	// Background jobs
	tasksController := NewTasksController(cfg.TaskClient, cfg.BackupScheduler, cfg.BackupDir, cfg.BackupKeep)
	api.GET("/tasks/types", tasksController.ListTaskTypes)
	api.GET("/tasks/:id", tasksController.GetTaskStatus)
	api.POST("/admin/rerank", tasksController.RunRerank)
	api.POST("/admin/backup", tasksController.RunBackup)
	api.GET("/admin/backup/status", tasksController.BackupStatus)

	return router
}
