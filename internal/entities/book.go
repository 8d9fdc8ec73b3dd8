package entities

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type BookStatus string

const (
	BookStatusToRead     BookStatus = "TO_READ"
	BookStatusInProgress BookStatus = "IN_PROGRESS"
	BookStatusOnHold     BookStatus = "ON_HOLD"
	BookStatusCompleted  BookStatus = "COMPLETED"
)

// legacyStatusNotStarted is what older databases stored for unread books.
const legacyStatusNotStarted = "NOT_STARTED"

// ParseBookStatus returns the status for its stored name.
func ParseBookStatus(s string) (BookStatus, error) {
	switch BookStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case BookStatusToRead, legacyStatusNotStarted:
		return BookStatusToRead, nil
	case BookStatusInProgress:
		return BookStatusInProgress, nil
	case BookStatusOnHold:
		return BookStatusOnHold, nil
	case BookStatusCompleted:
		return BookStatusCompleted, nil
	}
	return "", fmt.Errorf("unknown book status %q", s)
}

func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusToRead, BookStatusInProgress, BookStatusOnHold, BookStatusCompleted:
		return true
	}
	return false
}

// Value stores the status as its enum name.
func (s BookStatus) Value() (driver.Value, error) {
	if s == "" {
		return string(BookStatusToRead), nil
	}
	return string(s), nil
}

// Scan decodes a stored status. Unknown names fall back to TO_READ so a
// single bad row never breaks a whole list query.
func (s *BookStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*s = BookStatusToRead
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into BookStatus", value)
	}

	parsed, err := ParseBookStatus(raw)
	if err != nil {
		parsed = BookStatusToRead
	}
	*s = parsed
	return nil
}

// Book is a single entry of the reading list. Column names are kept in the
// camelCase layout of the original books table.
type Book struct {
	ID       int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name     string  `gorm:"column:name;not null" json:"name" validate:"required"`
	Author   string  `gorm:"column:author;not null" json:"author" validate:"required"`
	Author1  *string `gorm:"column:author1" json:"author1,omitempty"`
	Author2  *string `gorm:"column:author2" json:"author2,omitempty"`
	Author3  *string `gorm:"column:author3" json:"author3,omitempty"`
	Author4  *string `gorm:"column:author4" json:"author4,omitempty"`
	Author5  *string `gorm:"column:author5" json:"author5,omitempty"`
	Category string  `gorm:"column:category;not null" json:"category" validate:"required"`
	Ranking  int     `gorm:"column:ranking;not null" json:"ranking" validate:"gte=0"`
	HasBook  bool    `gorm:"column:hasBook;not null" json:"has_book"`

	Status BookStatus `gorm:"column:status;type:text;not null" json:"status" validate:"required"`

	StartDate               EpochTime `gorm:"column:startDate;type:integer" json:"start_date"`
	EndDate                 EpochTime `gorm:"column:endDate;type:integer" json:"end_date"`
	CreatedAt               EpochTime `gorm:"column:createdAt;type:integer;not null" json:"created_at"`
	TotalReadingDays        int       `gorm:"column:totalReadingDays;not null" json:"total_reading_days" validate:"gte=0"`
	CurrentReadingStartDate EpochTime `gorm:"column:currentReadingStartDate;type:integer" json:"current_reading_start_date"`
}

func (Book) TableName() string {
	return "books"
}

// BeforeCreate stamps the creation time and default status.
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if !b.CreatedAt.Valid {
		b.CreatedAt = NewEpochTime(time.Now())
	}
	if b.Status == "" {
		b.Status = BookStatusToRead
	}
	return nil
}

// Authors returns the individual authors, skipping blank slots.
func (b Book) Authors() []string {
	var authors []string
	for _, a := range []*string{b.Author1, b.Author2, b.Author3, b.Author4, b.Author5} {
		if a != nil && strings.TrimSpace(*a) != "" {
			authors = append(authors, *a)
		}
	}
	return authors
}

// DisplayAuthor joins the individual authors, falling back to Author.
func (b Book) DisplayAuthor() string {
	if authors := b.Authors(); len(authors) > 0 {
		return strings.Join(authors, ", ")
	}
	return b.Author
}

// InQueue reports whether the book still belongs to the reading queue.
func (b Book) InQueue() bool {
	return b.Status != BookStatusCompleted
}
