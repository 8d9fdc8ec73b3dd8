package exporters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/utils"
)

// BookLister provides the books to export.
type BookLister interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
}

type ExportResult struct {
	BooksExported int    `json:"books_exported"`
	Path          string `json:"path,omitempty"`
}

type CSVExporter struct {
	books BookLister
}

func NewCSVExporter(books BookLister) *CSVExporter {
	return &CSVExporter{books: books}
}

// Export writes every book to w.
func (e *CSVExporter) Export(ctx context.Context, w io.Writer) (ExportResult, error) {
	books, err := e.books.ListBooks(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to list books: %w", err)
	}
	if err := WriteBooksCSV(w, books); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{BooksExported: len(books)}, nil
}

// ExportToDir writes a timestamped CSV file into dir, creating it if needed.
func (e *CSVExporter) ExportToDir(ctx context.Context, dir, prefix string, now time.Time) (ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}
	return e.ExportToFile(ctx, filepath.Join(dir, utils.BackupFilename(prefix, now)))
}

// ExportToFile writes every book to path. A partially written file is
// removed on failure.
func (e *CSVExporter) ExportToFile(ctx context.Context, path string) (ExportResult, error) {
	f, err := os.Create(path)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create %s: %w", path, err)
	}

	result, err := e.Export(ctx, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return ExportResult{}, err
	}
	result.Path = path
	return result, nil
}

// WriteBooksCSV writes the header row followed by one row per book.
func WriteBooksCSV(w io.Writer, books []entities.Book) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(entities.BookCSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, book := range books {
		record := []string{
			strconv.FormatInt(book.ID, 10),
			book.Name,
			book.Author,
			book.Category,
			strconv.Itoa(book.Ranking),
			strconv.FormatBool(book.HasBook),
			string(book.Status),
			formatDate(book.StartDate),
			formatDate(book.EndDate),
			formatDate(book.CreatedAt),
			strconv.Itoa(book.TotalReadingDays),
			formatDate(book.CurrentReadingStartDate),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write book %d: %w", book.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatDate(e entities.EpochTime) string {
	if !e.Valid {
		return ""
	}
	return e.Time.In(time.Local).Format(entities.CSVDateLayout)
}
