package services

import (
	"errors"

	"github.com/mrlokans/bookbuddy/internal/database/books"
	"github.com/mrlokans/bookbuddy/internal/database/categories"
)

var (
	// ErrBookNotFound is returned when no book has the requested id.
	ErrBookNotFound = books.ErrBookNotFound
	// ErrCategoryNotFound is returned when no category has the requested id.
	ErrCategoryNotFound = categories.ErrCategoryNotFound
	// ErrInvalidStatus is returned for a lifecycle transition the book's
	// current status does not allow.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrInvalidPosition is returned for a queue position or ranking outside
	// the reading queue.
	ErrInvalidPosition = errors.New("invalid queue position")
	// ErrValidation wraps field validation failures.
	ErrValidation = errors.New("validation failed")
)

// Stats summarizes reading progress.
type Stats struct {
	TotalRead    int64   `json:"total_read"`
	ReadThisYear int64   `json:"read_this_year"`
	InQueue      int64   `json:"in_queue"`
	RunRate      float64 `json:"run_rate"`
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	BooksImported     int      `json:"books_imported"`
	BooksFailed       int      `json:"books_failed"`
	CategoriesCreated int      `json:"categories_created"`
	Errors            []string `json:"errors,omitempty"`
}
