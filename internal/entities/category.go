package entities

import (
	"time"

	"gorm.io/gorm"
)

// DefaultCategoryColor is assigned before a palette color is generated.
const DefaultCategoryColor = "#007AFF"

type Category struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"column:name;uniqueIndex;not null" json:"name" binding:"required"`
	ColorHex  string `gorm:"column:colorHex;not null;default:'#007AFF'" json:"color_hex"`
	CreatedAt int64  `gorm:"column:createdAt;not null" json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}
	return nil
}
