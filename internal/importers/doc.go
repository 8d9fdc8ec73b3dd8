// Package importers reads reading lists from external formats.
//
// # Architecture
//
//	CSV file → ParseBooksCSV → []entities.Book → Pipeline → BookImporter → Storage
//
// ParseBooksCSV understands the layout written by exporters.WriteBooksCSV, so
// an export can be imported back into an empty database. Rows that cannot be
// parsed are reported per line and skipped; the rest of the file is still
// imported.
//
// # Usage
//
//	pipeline := importers.NewPipeline(libraryService)
//	result, err := pipeline.ImportCSV(ctx, file)
package importers
