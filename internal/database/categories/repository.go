// Package categories provides database operations for book categories.
//
// # Usage
//
//	repo := categories.NewRepository(db, hub)
//	id, err := repo.InsertCategory(ctx, &entities.Category{Name: "History"})
package categories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/live"
)

// TableName is the table live watchers subscribe to.
const TableName = "categories"

var ErrCategoryNotFound = errors.New("category not found")

// Repository handles all category database operations.
type Repository struct {
	db  *gorm.DB
	hub *live.Hub
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB, hub *live.Hub) *Repository {
	if hub == nil {
		hub = live.NewHub()
	}
	return &Repository{db: db, hub: hub}
}

// GetAllCategories returns every category ordered by name.
func (r *Repository) GetAllCategories(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// WatchAllCategories emits the category list now and after every change.
func (r *Repository) WatchAllCategories(ctx context.Context) <-chan live.Result[[]entities.Category] {
	return live.Watch(ctx, r.hub, TableName, r.GetAllCategories)
}

// InsertCategory stores a category unless one with the same name exists.
// Returns the new id, or 0 when the insert was ignored.
func (r *Repository) InsertCategory(ctx context.Context, category *entities.Category) (int64, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(category)
	if result.Error != nil {
		return 0, fmt.Errorf("insert category %s: %w", category.Name, result.Error)
	}
	if result.RowsAffected == 0 {
		category.ID = 0
		return 0, nil
	}
	r.hub.Notify(TableName)
	return category.ID, nil
}

// DeleteCategory removes the category with the given id.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&entities.Category{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete category %d: %w", id, result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(TableName)
	}
	return result.RowsAffected, nil
}

// GetCategoryByName returns ErrCategoryNotFound when the name is unknown.
func (r *Repository) GetCategoryByName(ctx context.Context, name string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoriesWithoutColor returns categories whose color was never set.
func (r *Repository) GetCategoriesWithoutColor(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.WithContext(ctx).Where("colorHex IS NULL OR colorHex = ''").Find(&categories).Error
	return categories, err
}

// UpdateCategory saves name and color of an existing category.
func (r *Repository) UpdateCategory(ctx context.Context, category *entities.Category) error {
	result := r.db.WithContext(ctx).Model(category).Select("name", "colorHex").Updates(category)
	if result.Error != nil {
		return fmt.Errorf("update category %d: %w", category.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	r.hub.Notify(TableName)
	return nil
}
