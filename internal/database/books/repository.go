// Package books provides database operations for the reading list.
//
// Every operation takes a context and runs as a single statement, so it
// either commits fully or not at all. Use Transaction to group several
// operations, as the ranking maintenance in the services package does.
//
// Writes return the number of affected rows. Zero rows on UpdateBook,
// DeleteBook or a targeted update means no book has that id; the caller
// decides whether that is an error.
//
// # Usage
//
//	repo := books.NewRepository(db, hub)
//	id, err := repo.InsertBook(ctx, &entities.Book{Name: "Dune", Author: "Frank Herbert", Category: "Sci-Fi"})
//	queue, err := repo.GetBooksToRead(ctx)
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/live"
)

// TableName is the table live watchers subscribe to.
const TableName = "books"

var ErrBookNotFound = errors.New("book not found")

type SortOrder string

const (
	SortByRanking  SortOrder = "ranking"
	SortByDateAsc  SortOrder = "date_asc"
	SortByDateDesc SortOrder = "date_desc"
)

// Filter narrows the reading queue. Blank fields match everything.
type Filter struct {
	Author   string
	Category string
	Title    string
	Sort     SortOrder
}

// Repository handles all book database operations.
type Repository struct {
	db  *gorm.DB
	hub *live.Hub
	tx  *txState
}

type txState struct {
	dirty bool
}

// NewRepository creates a new books repository. Writes are announced on hub;
// a nil hub gets a private one.
func NewRepository(db *gorm.DB, hub *live.Hub) *Repository {
	if hub == nil {
		hub = live.NewHub()
	}
	return &Repository{db: db, hub: hub}
}

// Transaction runs fn against a repository bound to a single transaction.
// Watchers are notified once, after commit. Nested calls join the outer
// transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}

	state := &txState{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, hub: r.hub, tx: state})
	})
	if err == nil && state.dirty {
		r.hub.Notify(TableName)
	}
	return err
}

func (r *Repository) changed(rows int64) {
	if rows == 0 {
		return
	}
	if r.tx != nil {
		r.tx.dirty = true
		return
	}
	r.hub.Notify(TableName)
}

// --- Writes ---

// InsertBook stores a new book and returns its id. A zero id is assigned by
// the database; an id that already exists replaces that row.
func (r *Repository) InsertBook(ctx context.Context, book *entities.Book) (int64, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.Insert{Modifier: "OR REPLACE"}).
		Create(book).Error
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	r.changed(1)
	return book.ID, nil
}

// UpdateBook replaces every column of the row with book's id.
func (r *Repository) UpdateBook(ctx context.Context, book *entities.Book) (int64, error) {
	if book.ID == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(book).Select("*").Updates(book)
	if result.Error != nil {
		return 0, fmt.Errorf("update book %d: %w", book.ID, result.Error)
	}
	r.changed(result.RowsAffected)
	return result.RowsAffected, nil
}

// DeleteBook removes the row with book's id.
func (r *Repository) DeleteBook(ctx context.Context, book *entities.Book) (int64, error) {
	if book.ID == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&entities.Book{}, book.ID)
	if result.Error != nil {
		return 0, fmt.Errorf("delete book %d: %w", book.ID, result.Error)
	}
	r.changed(result.RowsAffected)
	return result.RowsAffected, nil
}

// UpdateBookStatus sets status and start date.
func (r *Repository) UpdateBookStatus(ctx context.Context, id int64, status entities.BookStatus, startDate entities.EpochTime) (int64, error) {
	return r.updateFields(ctx, id, map[string]any{
		"status":    status,
		"startDate": startDate,
	})
}

// MarkAsCompleted sets status and end date.
func (r *Repository) MarkAsCompleted(ctx context.Context, id int64, status entities.BookStatus, endDate entities.EpochTime) (int64, error) {
	return r.updateFields(ctx, id, map[string]any{
		"status":  status,
		"endDate": endDate,
	})
}

// UpdateReadingStatus sets status, the current session start and the
// accumulated reading days.
func (r *Repository) UpdateReadingStatus(ctx context.Context, id int64, status entities.BookStatus, currentReadingStartDate entities.EpochTime, totalReadingDays int) (int64, error) {
	return r.updateFields(ctx, id, map[string]any{
		"status":                  status,
		"currentReadingStartDate": currentReadingStartDate,
		"totalReadingDays":        totalReadingDays,
	})
}

// UpdateRanking overwrites a single book's ranking.
func (r *Repository) UpdateRanking(ctx context.Context, id int64, ranking int) (int64, error) {
	return r.updateFields(ctx, id, map[string]any{"ranking": ranking})
}

// ShiftRankings adds delta to the ranking of every book ranked within
// [fromRanking, toRanking], except excludeID. The excluded book is the one
// being moved; its new ranking is written separately with UpdateRanking.
func (r *Repository) ShiftRankings(ctx context.Context, fromRanking, toRanking, delta int, excludeID int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("ranking >= ? AND ranking <= ? AND id != ?", fromRanking, toRanking, excludeID).
		Update("ranking", gorm.Expr("ranking + ?", delta))
	if result.Error != nil {
		return 0, fmt.Errorf("shift rankings [%d, %d] by %d: %w", fromRanking, toRanking, delta, result.Error)
	}
	r.changed(result.RowsAffected)
	return result.RowsAffected, nil
}

func (r *Repository) updateFields(ctx context.Context, id int64, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("update book %d: %w", id, result.Error)
	}
	r.changed(result.RowsAffected)
	return result.RowsAffected, nil
}

// --- Reads ---

// GetBookByID returns ErrBookNotFound when no book has the id.
func (r *Repository) GetBookByID(ctx context.Context, id int64) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBooksToRead returns every book not yet completed, in queue order.
func (r *Repository) GetBooksToRead(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("status != ?", entities.BookStatusCompleted).
		Order("ranking ASC, id ASC").
		Find(&books).Error
	return books, err
}

// GetCompletedBooks returns completed books, most recently finished first.
func (r *Repository) GetCompletedBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("status = ?", entities.BookStatusCompleted).
		Order("endDate DESC, id DESC").
		Find(&books).Error
	return books, err
}

// GetAllCompletedBooks is GetCompletedBooks for one-shot callers.
func (r *Repository) GetAllCompletedBooks(ctx context.Context) ([]entities.Book, error) {
	return r.GetCompletedBooks(ctx)
}

// GetInProgressBooks returns books being read, most recently started first.
func (r *Repository) GetInProgressBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("status = ?", entities.BookStatusInProgress).
		Order("startDate DESC, id DESC").
		Find(&books).Error
	return books, err
}

// GetAllBooks returns every book, newest first.
func (r *Repository) GetAllBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Order("createdAt DESC, id DESC").Find(&books).Error
	return books, err
}

// GetBooksToReadFiltered searches the reading queue. The author matches any
// individual author exactly or the display author as a case-insensitive
// substring; category matches case-insensitively; title is a
// case-insensitive substring.
func (r *Repository) GetBooksToReadFiltered(ctx context.Context, f Filter) ([]entities.Book, error) {
	query := r.db.WithContext(ctx).Where("status != ?", entities.BookStatusCompleted)

	if author := strings.TrimSpace(f.Author); author != "" {
		query = query.Where(
			"(author1 = ? OR author2 = ? OR author3 = ? OR author4 = ? OR author5 = ? OR LOWER(author) LIKE ?)",
			author, author, author, author, author, "%"+strings.ToLower(author)+"%",
		)
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}
	if title := strings.TrimSpace(f.Title); title != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(title)+"%")
	}

	var books []entities.Book
	err := query.Order(f.Sort.orderClause()).Find(&books).Error
	return books, err
}

func (s SortOrder) orderClause() string {
	switch s {
	case SortByDateAsc:
		return "createdAt ASC, id ASC"
	case SortByDateDesc:
		return "createdAt DESC, id DESC"
	default:
		return "ranking ASC, id ASC"
	}
}

// ParseSortOrder maps a query value onto a SortOrder, defaulting to ranking.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortByDateAsc:
		return SortByDateAsc
	case SortByDateDesc:
		return SortByDateDesc
	default:
		return SortByRanking
	}
}

// --- Aggregates ---

// GetTotalBooksRead counts completed books.
func (r *Repository) GetTotalBooksRead(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("status = ?", entities.BookStatusCompleted).
		Count(&count).Error
	return count, err
}

// GetBooksReadSince counts books completed at or after since.
func (r *Repository) GetBooksReadSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("status = ? AND endDate >= ?", entities.BookStatusCompleted, since.UnixMilli()).
		Count(&count).Error
	return count, err
}

// GetBooksInQueueCount counts books not yet completed.
func (r *Repository) GetBooksInQueueCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("status != ?", entities.BookStatusCompleted).
		Count(&count).Error
	return count, err
}

const distinctAuthorsQuery = `
SELECT DISTINCT author FROM (
	SELECT author1 AS author FROM books WHERE status != @completed AND author1 IS NOT NULL AND author1 != ''
	UNION
	SELECT author2 AS author FROM books WHERE status != @completed AND author2 IS NOT NULL AND author2 != ''
	UNION
	SELECT author3 AS author FROM books WHERE status != @completed AND author3 IS NOT NULL AND author3 != ''
	UNION
	SELECT author4 AS author FROM books WHERE status != @completed AND author4 IS NOT NULL AND author4 != ''
	UNION
	SELECT author5 AS author FROM books WHERE status != @completed AND author5 IS NOT NULL AND author5 != ''
	UNION
	SELECT author FROM books WHERE status != @completed AND author != ''
		AND COALESCE(author1, '') = '' AND COALESCE(author2, '') = '' AND COALESCE(author3, '') = ''
		AND COALESCE(author4, '') = '' AND COALESCE(author5, '') = ''
)
ORDER BY author ASC`

// GetAllAuthors lists the distinct authors of books still in the queue.
// Books without individual authors contribute their display author.
func (r *Repository) GetAllAuthors(ctx context.Context) ([]string, error) {
	rows, err := r.db.WithContext(ctx).
		Raw(distinctAuthorsQuery, map[string]any{"completed": entities.BookStatusCompleted}).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := []string{}
	for rows.Next() {
		var author string
		if err := rows.Scan(&author); err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, rows.Err()
}

// GetAllCategoriesForFilter lists the distinct categories of books still in
// the queue.
func (r *Repository) GetAllCategoriesForFilter(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("status != ?", entities.BookStatusCompleted).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// --- Live queries ---

func (r *Repository) WatchBooksToRead(ctx context.Context) <-chan live.Result[[]entities.Book] {
	return live.Watch(ctx, r.hub, TableName, r.GetBooksToRead)
}

func (r *Repository) WatchCompletedBooks(ctx context.Context) <-chan live.Result[[]entities.Book] {
	return live.Watch(ctx, r.hub, TableName, r.GetCompletedBooks)
}

func (r *Repository) WatchInProgressBooks(ctx context.Context) <-chan live.Result[[]entities.Book] {
	return live.Watch(ctx, r.hub, TableName, r.GetInProgressBooks)
}

func (r *Repository) WatchTotalBooksRead(ctx context.Context) <-chan live.Result[int64] {
	return live.Watch(ctx, r.hub, TableName, r.GetTotalBooksRead)
}

func (r *Repository) WatchBooksInQueueCount(ctx context.Context) <-chan live.Result[int64] {
	return live.Watch(ctx, r.hub, TableName, r.GetBooksInQueueCount)
}

func (r *Repository) WatchAllAuthors(ctx context.Context) <-chan live.Result[[]string] {
	return live.Watch(ctx, r.hub, TableName, r.GetAllAuthors)
}

func (r *Repository) WatchAllCategoriesForFilter(ctx context.Context) <-chan live.Result[[]string] {
	return live.Watch(ctx, r.hub, TableName, r.GetAllCategoriesForFilter)
}
