package importers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/bookbuddy/internal/entities"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseBooksCSV parses a reading-list CSV export.
// Returns the parsed books, any per-line errors encountered, and a fatal error
// if the file cannot be read at all.
func ParseBooksCSV(r io.Reader) ([]entities.Book, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range []string{"name", "author", "category"} {
		if _, ok := headerIndex[h]; !ok {
			return nil, nil, fmt.Errorf("missing required header: %s", h)
		}
	}

	var books []entities.Book
	var lineErrors []string
	lineNum := 1 // Start at 1 because we already read the header

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			lineErrors = append(lineErrors, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}
		if len(record) < len(entities.BookCSVHeader) {
			lineErrors = append(lineErrors, fmt.Sprintf("Line %d: skipped - expected %d fields, got %d",
				lineNum, len(entities.BookCSVHeader), len(record)))
			continue
		}

		book, err := parseBookRecord(record, headerIndex)
		if err != nil {
			lineErrors = append(lineErrors, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}
		books = append(books, book)
	}

	return books, lineErrors, nil
}

func parseBookRecord(record []string, headerIndex map[string]int) (entities.Book, error) {
	get := func(header string) string {
		return getCSVValue(record, headerIndex, header)
	}

	book := entities.Book{
		Name:     get("name"),
		Author:   get("author"),
		Category: get("category"),
		Ranking:  1,
		Status:   entities.BookStatusToRead,
	}

	if v := get("id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			book.ID = id
		}
	}
	if v := get("ranking"); v != "" {
		if ranking, err := strconv.Atoi(v); err == nil {
			book.Ranking = ranking
		}
	}
	if v := get("hasbook"); v != "" {
		book.HasBook = strings.EqualFold(v, "true")
	}
	if v := get("status"); v != "" {
		status, err := entities.ParseBookStatus(v)
		if err != nil {
			return entities.Book{}, err
		}
		book.Status = status
	}
	if v := get("totalreadingdays"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			book.TotalReadingDays = days
		}
	}

	var err error
	if book.StartDate, err = parseCSVDate(get("startdate")); err != nil {
		return entities.Book{}, fmt.Errorf("start date: %w", err)
	}
	if book.EndDate, err = parseCSVDate(get("enddate")); err != nil {
		return entities.Book{}, fmt.Errorf("end date: %w", err)
	}
	if book.CurrentReadingStartDate, err = parseCSVDate(get("currentreadingstartdate")); err != nil {
		return entities.Book{}, fmt.Errorf("current reading start date: %w", err)
	}
	if book.CreatedAt, err = parseCSVDate(get("createdat")); err != nil {
		return entities.Book{}, fmt.Errorf("created at: %w", err)
	}
	if !book.CreatedAt.Valid {
		book.CreatedAt = entities.NewEpochTime(time.Now())
	}

	if err := validate.Struct(&book); err != nil {
		return entities.Book{}, fmt.Errorf("skipped - %w", err)
	}
	return book, nil
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func parseCSVDate(s string) (entities.EpochTime, error) {
	if s == "" {
		return entities.EpochTime{}, nil
	}
	t, err := time.ParseInLocation(entities.CSVDateLayout, s, time.Local)
	if err != nil {
		return entities.EpochTime{}, fmt.Errorf("unable to parse date: %s", s)
	}
	return entities.NewEpochTime(t), nil
}
