package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/bookbuddy/internal/database/books"
	"github.com/mrlokans/bookbuddy/internal/database/categories"
	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/live"
	"github.com/mrlokans/bookbuddy/internal/utils"
)

// LibraryService owns the reading-list rules on top of the repositories:
// ranking maintenance, the reading lifecycle and its day accounting,
// statistics and category bookkeeping.
type LibraryService struct {
	books      *books.Repository
	categories *categories.Repository
	validate   *validator.Validate
	now        func() time.Time
}

type LibraryOption func(*LibraryService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) LibraryOption {
	return func(s *LibraryService) { s.now = now }
}

func NewLibraryService(bookRepo *books.Repository, categoryRepo *categories.Repository, opts ...LibraryOption) *LibraryService {
	s := &LibraryService{
		books:      bookRepo,
		categories: categoryRepo,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateBook checks a book's fields before it is stored.
func (s *LibraryService) ValidateBook(book *entities.Book) error {
	if err := s.validate.Struct(book); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !book.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, book.Status)
	}
	return nil
}

// --- Books ---

// AddBook stores a new book. A zero ranking appends it to the queue; a
// ranking inside the queue opens a gap at that position.
func (s *LibraryService) AddBook(ctx context.Context, book *entities.Book) (int64, error) {
	book.ID = 0
	book.Name = strings.TrimSpace(book.Name)
	book.Author = strings.TrimSpace(book.Author)
	book.Category = strings.TrimSpace(book.Category)
	if book.Status == "" {
		book.Status = entities.BookStatusToRead
	}
	if err := s.ValidateBook(book); err != nil {
		return 0, err
	}

	var id int64
	err := s.books.Transaction(ctx, func(tx *books.Repository) error {
		if book.InQueue() {
			size, err := tx.GetBooksInQueueCount(ctx)
			if err != nil {
				return err
			}
			if book.Ranking <= 0 || int64(book.Ranking) > size {
				book.Ranking = int(size) + 1
			} else if _, err := tx.ShiftRankings(ctx, book.Ranking, math.MaxInt32, 1, 0); err != nil {
				return err
			}
		}

		var err error
		id, err = tx.InsertBook(ctx, book)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add book: %w", err)
	}
	return id, nil
}

// UpdateBook replaces a stored book. An unset creation time keeps the stored one.
func (s *LibraryService) UpdateBook(ctx context.Context, book *entities.Book) error {
	existing, err := s.books.GetBookByID(ctx, book.ID)
	if err != nil {
		return err
	}
	if !book.CreatedAt.Valid {
		book.CreatedAt = existing.CreatedAt
	}
	if book.Status == "" {
		book.Status = existing.Status
	}
	if err := s.ValidateBook(book); err != nil {
		return err
	}

	rows, err := s.books.UpdateBook(ctx, book)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DeleteBook removes a book and closes the gap it leaves in the queue.
func (s *LibraryService) DeleteBook(ctx context.Context, id int64) error {
	return s.books.Transaction(ctx, func(tx *books.Repository) error {
		rows, err := tx.DeleteBook(ctx, &entities.Book{ID: id})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrBookNotFound
		}
		_, err = rerank(ctx, tx)
		return err
	})
}

func (s *LibraryService) GetBook(ctx context.Context, id int64) (*entities.Book, error) {
	return s.books.GetBookByID(ctx, id)
}

func (s *LibraryService) ListBooks(ctx context.Context) ([]entities.Book, error) {
	return s.books.GetAllBooks(ctx)
}

func (s *LibraryService) Queue(ctx context.Context) ([]entities.Book, error) {
	return s.books.GetBooksToRead(ctx)
}

// FilterQueue searches the reading queue. Blank filter fields are ignored.
func (s *LibraryService) FilterQueue(ctx context.Context, f books.Filter) ([]entities.Book, error) {
	return s.books.GetBooksToReadFiltered(ctx, f)
}

// WatchQueue emits the reading queue now and after every change to books.
func (s *LibraryService) WatchQueue(ctx context.Context) <-chan live.Result[[]entities.Book] {
	return s.books.WatchBooksToRead(ctx)
}

func (s *LibraryService) CompletedBooks(ctx context.Context) ([]entities.Book, error) {
	return s.books.GetCompletedBooks(ctx)
}

func (s *LibraryService) InProgressBooks(ctx context.Context) ([]entities.Book, error) {
	return s.books.GetInProgressBooks(ctx)
}

func (s *LibraryService) Authors(ctx context.Context) ([]string, error) {
	return s.books.GetAllAuthors(ctx)
}

func (s *LibraryService) QueueCategories(ctx context.Context) ([]string, error) {
	return s.books.GetAllCategoriesForFilter(ctx)
}

// --- Reading lifecycle ---

// MarkAsInProgress starts a reading session. The first start date is kept
// across sessions and accumulated reading days are preserved. A completed
// book re-enters the queue at the end.
func (s *LibraryService) MarkAsInProgress(ctx context.Context, id int64) error {
	return s.books.Transaction(ctx, func(tx *books.Repository) error {
		book, err := tx.GetBookByID(ctx, id)
		if err != nil {
			return err
		}
		now := entities.NewEpochTime(s.now())

		startDate := book.StartDate
		if !startDate.Valid {
			startDate = now
		}
		if !book.InQueue() {
			size, err := tx.GetBooksInQueueCount(ctx)
			if err != nil {
				return err
			}
			if _, err := tx.UpdateRanking(ctx, id, int(size)+1); err != nil {
				return err
			}
		}
		if _, err := tx.UpdateBookStatus(ctx, id, entities.BookStatusInProgress, startDate); err != nil {
			return err
		}
		_, err = tx.UpdateReadingStatus(ctx, id, entities.BookStatusInProgress, now, book.TotalReadingDays)
		return err
	})
}

// MarkAsOnHold pauses a book being read, adding the days of the current
// session to its total.
func (s *LibraryService) MarkAsOnHold(ctx context.Context, id int64) error {
	return s.books.Transaction(ctx, func(tx *books.Repository) error {
		book, err := tx.GetBookByID(ctx, id)
		if err != nil {
			return err
		}
		if book.Status != entities.BookStatusInProgress {
			return fmt.Errorf("%w: cannot hold a book that is %s", ErrInvalidStatus, book.Status)
		}

		total := book.TotalReadingDays + s.sessionDays(book)
		_, err = tx.UpdateReadingStatus(ctx, id, entities.BookStatusOnHold, entities.EpochTime{}, total)
		return err
	})
}

// MarkAsCompleted finishes a book. Days of a running session are added to
// its total, the end date is set and the queue is re-ranked.
func (s *LibraryService) MarkAsCompleted(ctx context.Context, id int64) error {
	return s.books.Transaction(ctx, func(tx *books.Repository) error {
		book, err := tx.GetBookByID(ctx, id)
		if err != nil {
			return err
		}
		if book.Status == entities.BookStatusCompleted {
			return fmt.Errorf("%w: book is already completed", ErrInvalidStatus)
		}

		total := book.TotalReadingDays
		if book.Status == entities.BookStatusInProgress {
			total += s.sessionDays(book)
		}
		if _, err := tx.UpdateReadingStatus(ctx, id, entities.BookStatusCompleted, entities.EpochTime{}, total); err != nil {
			return err
		}
		if _, err := tx.MarkAsCompleted(ctx, id, entities.BookStatusCompleted, entities.NewEpochTime(s.now())); err != nil {
			return err
		}
		_, err = rerank(ctx, tx)
		return err
	})
}

func (s *LibraryService) sessionDays(book *entities.Book) int {
	if !book.CurrentReadingStartDate.Valid {
		return 0
	}
	return utils.DaysBetween(book.CurrentReadingStartDate.Time, s.now())
}

// --- Ranking ---

// ReorderBook moves a queued book to toRanking. Books between the old and
// the new ranking shift by one to close the gap, so a contiguous queue
// stays contiguous.
func (s *LibraryService) ReorderBook(ctx context.Context, id int64, toRanking int) error {
	return s.books.Transaction(ctx, func(tx *books.Repository) error {
		book, err := tx.GetBookByID(ctx, id)
		if err != nil {
			return err
		}
		if !book.InQueue() {
			return fmt.Errorf("%w: completed books have no ranking", ErrInvalidStatus)
		}
		size, err := tx.GetBooksInQueueCount(ctx)
		if err != nil {
			return err
		}
		if toRanking < 1 || int64(toRanking) > size {
			return fmt.Errorf("%w: ranking %d outside 1..%d", ErrInvalidPosition, toRanking, size)
		}

		from := book.Ranking
		switch {
		case toRanking == from:
			return nil
		case toRanking < from:
			_, err = tx.ShiftRankings(ctx, toRanking, from-1, 1, id)
		default:
			_, err = tx.ShiftRankings(ctx, from+1, toRanking, -1, id)
		}
		if err != nil {
			return err
		}
		_, err = tx.UpdateRanking(ctx, id, toRanking)
		return err
	})
}

// MoveBook moves the book at queue position from to position to. Positions
// are zero-based indexes into the queue as GetBooksToRead orders it.
func (s *LibraryService) MoveBook(ctx context.Context, from, to int) error {
	return s.books.Transaction(ctx, func(tx *books.Repository) error {
		queue, err := tx.GetBooksToRead(ctx)
		if err != nil {
			return err
		}
		if from < 0 || to < 0 || from >= len(queue) || to >= len(queue) {
			return fmt.Errorf("%w: move %d -> %d in a queue of %d", ErrInvalidPosition, from, to, len(queue))
		}
		if from == to {
			return nil
		}

		moved := queue[from]
		reordered := append(queue[:from:from], queue[from+1:]...)
		reordered = append(reordered[:to], append([]entities.Book{moved}, reordered[to:]...)...)

		return applyRankings(ctx, tx, reordered)
	})
}

// RerankQueue renumbers the queue 1..n in its current order and returns how
// many books changed ranking.
func (s *LibraryService) RerankQueue(ctx context.Context) (int, error) {
	var changed int
	err := s.books.Transaction(ctx, func(tx *books.Repository) error {
		var err error
		changed, err = rerank(ctx, tx)
		return err
	})
	return changed, err
}

func rerank(ctx context.Context, tx *books.Repository) (int, error) {
	queue, err := tx.GetBooksToRead(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i, book := range queue {
		if book.Ranking != i+1 {
			changed++
		}
	}
	return changed, applyRankings(ctx, tx, queue)
}

func applyRankings(ctx context.Context, tx *books.Repository, ordered []entities.Book) error {
	for i, book := range ordered {
		if book.Ranking == i+1 {
			continue
		}
		if _, err := tx.UpdateRanking(ctx, book.ID, i+1); err != nil {
			return err
		}
	}
	return nil
}

// --- Statistics ---

// Stats returns reading totals. RunRate projects the books completed so far
// this year onto the full year.
func (s *LibraryService) Stats(ctx context.Context) (Stats, error) {
	now := s.now()

	total, err := s.books.GetTotalBooksRead(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count completed books: %w", err)
	}
	thisYear, err := s.books.GetBooksReadSince(ctx, utils.StartOfYear(now))
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count books read this year: %w", err)
	}
	inQueue, err := s.books.GetBooksInQueueCount(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count queue: %w", err)
	}

	return Stats{
		TotalRead:    total,
		ReadThisYear: thisYear,
		InQueue:      inQueue,
		RunRate:      RunRate(thisYear, now),
	}, nil
}

// RunRate extrapolates booksThisYear to a full year as of now.
func RunRate(booksThisYear int64, now time.Time) float64 {
	day := now.YearDay()
	if booksThisYear == 0 || day == 0 {
		return 0
	}
	return float64(booksThisYear) / float64(day) * float64(utils.DaysInYear(now.Year()))
}

// --- Categories ---

func (s *LibraryService) Categories(ctx context.Context) ([]entities.Category, error) {
	return s.categories.GetAllCategories(ctx)
}

// AddCategory creates a title-cased category with its palette color. An
// existing category of that name is returned unchanged with created false.
func (s *LibraryService) AddCategory(ctx context.Context, name string) (category *entities.Category, created bool, err error) {
	name = utils.TitleCase(strings.TrimSpace(name))
	if name == "" {
		return nil, false, fmt.Errorf("%w: category name is required", ErrValidation)
	}

	existing, err := s.categories.GetCategoryByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, categories.ErrCategoryNotFound) {
		return nil, false, err
	}

	category = &entities.Category{Name: name, ColorHex: utils.ColorForCategory(name)}
	id, err := s.categories.InsertCategory(ctx, category)
	if err != nil {
		return nil, false, err
	}
	if id == 0 {
		// Lost a race with a concurrent insert of the same name.
		existing, err := s.categories.GetCategoryByName(ctx, name)
		return existing, false, err
	}
	log.Printf("Added category: %s with color: %s", category.Name, category.ColorHex)
	return category, true, nil
}

func (s *LibraryService) DeleteCategory(ctx context.Context, id int64) error {
	rows, err := s.categories.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// --- Import ---

// ImportBooks stores a batch of books as new rows. Categories are
// title-cased and created when missing. Books failing validation are
// skipped and reported; storage errors abort the batch.
func (s *LibraryService) ImportBooks(ctx context.Context, batch []entities.Book) (ImportResult, error) {
	var result ImportResult

	seen := make(map[string]bool)
	for i := range batch {
		name := utils.TitleCase(strings.TrimSpace(batch[i].Category))
		batch[i].Category = name
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		_, created, err := s.AddCategory(ctx, name)
		if err != nil {
			return result, fmt.Errorf("failed to add category %s: %w", name, err)
		}
		if created {
			result.CategoriesCreated++
		}
	}

	err := s.books.Transaction(ctx, func(tx *books.Repository) error {
		for i := range batch {
			book := batch[i]
			book.ID = 0
			if book.Status == "" {
				book.Status = entities.BookStatusToRead
			}
			if err := s.ValidateBook(&book); err != nil {
				result.BooksFailed++
				result.Errors = append(result.Errors, fmt.Sprintf("book %d (%s): %v", i+1, book.Name, err))
				continue
			}
			if _, err := tx.InsertBook(ctx, &book); err != nil {
				return err
			}
			result.BooksImported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{CategoriesCreated: result.CategoriesCreated}, fmt.Errorf("failed to import books: %w", err)
	}

	log.Printf("Imported %d books with %d new categories", result.BooksImported, result.CategoriesCreated)
	return result, nil
}
