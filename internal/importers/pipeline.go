package importers

import (
	"context"
	"fmt"
	"io"

	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/services"
)

// BookImporter persists parsed books.
type BookImporter interface {
	ImportBooks(ctx context.Context, books []entities.Book) (services.ImportResult, error)
}

// Pipeline handles the common import workflow:
// parse → validate → import.
type Pipeline struct {
	importer BookImporter
}

// NewPipeline creates a new import pipeline with the given importer.
func NewPipeline(importer BookImporter) *Pipeline {
	return &Pipeline{importer: importer}
}

// ImportCSV parses r and imports every valid row. Rows skipped by the parser
// count as failed and their errors are listed first in the result.
func (p *Pipeline) ImportCSV(ctx context.Context, r io.Reader) (services.ImportResult, error) {
	books, parseErrors, err := ParseBooksCSV(r)
	if err != nil {
		return services.ImportResult{}, fmt.Errorf("failed to parse CSV: %w", err)
	}

	result := services.ImportResult{}
	if len(books) > 0 {
		result, err = p.importer.ImportBooks(ctx, books)
		if err != nil {
			return result, err
		}
	}

	result.BooksFailed += len(parseErrors)
	result.Errors = append(parseErrors, result.Errors...)
	return result, nil
}
