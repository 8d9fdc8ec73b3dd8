package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookbuddy/internal/database/books"
	"github.com/mrlokans/bookbuddy/internal/database/categories"
	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/live"
	"github.com/mrlokans/bookbuddy/internal/utils"
)

// sqliteParams enables WAL so live watchers can read while a write is in
// flight, and waits on locks instead of failing with SQLITE_BUSY.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

type Options struct {
	// LogLevel of the SQL logger. Zero means logger.Warn.
	LogLevel logger.LogLevel
}

type Database struct {
	DB  *gorm.DB
	Hub *live.Hub
}

func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, Options{LogLevel: logger.Warn})
}

func Open(dbPath string, opts Options) (*Database, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Category{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db, Hub: live.NewHub()}

	if err := database.initCategoryColors(); err != nil {
		return nil, fmt.Errorf("failed to initialize category colors: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + sqliteParams
}

// Books returns a books repository sharing this database's change hub.
func (d *Database) Books() *books.Repository {
	return books.NewRepository(d.DB, d.Hub)
}

func (d *Database) Categories() *categories.Repository {
	return categories.NewRepository(d.DB, d.Hub)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// initCategoryColors assigns palette colors to categories created before
// colors existed.
func (d *Database) initCategoryColors() error {
	ctx := context.Background()
	repo := d.Categories()

	uncolored, err := repo.GetCategoriesWithoutColor(ctx)
	if err != nil {
		return err
	}
	if len(uncolored) == 0 {
		return nil
	}

	log.Printf("Found %d categories without colors, initializing...", len(uncolored))
	for i := range uncolored {
		category := &uncolored[i]
		category.ColorHex = utils.ColorForCategory(category.Name)
		if err := repo.UpdateCategory(ctx, category); err != nil {
			return fmt.Errorf("failed to color category %s: %w", category.Name, err)
		}
		log.Printf("Assigned color %s to category: %s", category.ColorHex, category.Name)
	}
	return nil
}
