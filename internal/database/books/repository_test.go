package books

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/live"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "books.db")

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db, live.NewHub()), db
}

func strPtr(s string) *string { return &s }

func newBook(name string, ranking int) *entities.Book {
	return &entities.Book{
		Name:     name,
		Author:   "Author of " + name,
		Category: "Fiction",
		Ranking:  ranking,
		Status:   entities.BookStatusToRead,
	}
}

func insertBooks(t *testing.T, repo *Repository, books ...*entities.Book) {
	t.Helper()
	for _, b := range books {
		_, err := repo.InsertBook(context.Background(), b)
		require.NoError(t, err)
	}
}

func rankingsByName(books []entities.Book) map[string]int {
	out := make(map[string]int, len(books))
	for _, b := range books {
		out[b.Name] = b.Ranking
	}
	return out
}

func names(books []entities.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Name
	}
	return out
}

func TestRepository_InsertAndGetByID_RoundTrip(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
	book := &entities.Book{
		Name:                    "Dune",
		Author:                  "Frank Herbert",
		Author1:                 strPtr("Frank Herbert"),
		Category:                "Sci-Fi",
		Ranking:                 3,
		HasBook:                 true,
		Status:                  entities.BookStatusInProgress,
		StartDate:               entities.NewEpochTime(start),
		CreatedAt:               entities.NewEpochTime(start.Add(-time.Hour)),
		TotalReadingDays:        4,
		CurrentReadingStartDate: entities.NewEpochTime(start.Add(48 * time.Hour)),
	}

	id, err := repo.InsertBook(ctx, book)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, book.ID)

	got, err := repo.GetBookByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, book.Name, got.Name)
	assert.Equal(t, book.Author, got.Author)
	require.NotNil(t, got.Author1)
	assert.Equal(t, "Frank Herbert", *got.Author1)
	assert.Nil(t, got.Author2)
	assert.Equal(t, book.Category, got.Category)
	assert.Equal(t, book.Ranking, got.Ranking)
	assert.Equal(t, book.HasBook, got.HasBook)
	assert.Equal(t, book.Status, got.Status)
	assert.True(t, book.StartDate.Equal(got.StartDate))
	assert.False(t, got.EndDate.Valid)
	assert.True(t, book.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, book.TotalReadingDays, got.TotalReadingDays)
	assert.True(t, book.CurrentReadingStartDate.Equal(got.CurrentReadingStartDate))
}

func TestRepository_InsertBook_DefaultsCreatedAtAndStatus(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	id, err := repo.InsertBook(ctx, &entities.Book{Name: "Emma", Author: "Jane Austen", Category: "Classic"})
	require.NoError(t, err)

	got, err := repo.GetBookByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusToRead, got.Status)
	assert.True(t, got.CreatedAt.Valid)
	assert.True(t, got.CreatedAt.Time.After(before))
}

func TestRepository_InsertBook_ExplicitIDReplaces(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := newBook("Original", 1)
	id, err := repo.InsertBook(ctx, book)
	require.NoError(t, err)

	replacement := newBook("Replacement", 7)
	replacement.ID = id
	gotID, err := repo.InsertBook(ctx, replacement)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	all, err := repo.GetAllBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Replacement", all[0].Name)
	assert.Equal(t, 7, all[0].Ranking)
}

func TestRepository_DatesStoredAsEpochMillis(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	end := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	book := newBook("Stored", 1)
	book.EndDate = entities.NewEpochTime(end)
	_, err := repo.InsertBook(ctx, book)
	require.NoError(t, err)

	var raw struct {
		EndDate   int64
		StartDate *int64
		Status    string
	}
	err = db.Raw(`SELECT endDate AS end_date, startDate AS start_date, status FROM books WHERE id = ?`, book.ID).Scan(&raw).Error
	require.NoError(t, err)
	assert.Equal(t, end.UnixMilli(), raw.EndDate)
	assert.Nil(t, raw.StartDate)
	assert.Equal(t, "TO_READ", raw.Status)
}

func TestRepository_UnknownStoredStatusReadsAsToRead(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	book := newBook("Legacy", 1)
	_, err := repo.InsertBook(ctx, book)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`UPDATE books SET status = 'NOT_STARTED' WHERE id = ?`, book.ID).Error)

	got, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusToRead, got.Status)
}

func TestRepository_UpdateBook(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := newBook("Before", 1)
	book.HasBook = true
	insertBooks(t, repo, book)

	book.Name = "After"
	book.HasBook = false
	book.Ranking = 0
	rows, err := repo.UpdateBook(ctx, book)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.False(t, got.HasBook, "zero values must be written too")
	assert.Equal(t, 0, got.Ranking)
}

func TestRepository_UpdateBook_MissingIDAffectsNothing(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	ghost := newBook("Ghost", 1)
	ghost.ID = 999
	ghost.CreatedAt = entities.NewEpochTime(time.Now())

	rows, err := repo.UpdateBook(ctx, ghost)
	require.NoError(t, err)
	assert.Zero(t, rows)

	_, err = repo.GetBookByID(ctx, 999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_DeleteBook(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	keep := newBook("Keep", 1)
	gone := newBook("Gone", 2)
	insertBooks(t, repo, keep, gone)

	rows, err := repo.DeleteBook(ctx, gone)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	_, err = repo.GetBookByID(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	queue, err := repo.GetBooksToRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep"}, names(queue))

	all, err := repo.GetAllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	rows, err = repo.DeleteBook(ctx, gone)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestRepository_ShiftRankings(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	b1, b2, b3, b4, b5 := newBook("b1", 1), newBook("b2", 2), newBook("b3", 3), newBook("b4", 4), newBook("b5", 5)
	insertBooks(t, repo, b1, b2, b3, b4, b5)

	rows, err := repo.ShiftRankings(ctx, 2, 4, 1, b3.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	all, err := repo.GetAllBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"b1": 1, // below range
		"b2": 3,
		"b3": 3, // excluded
		"b4": 5,
		"b5": 5, // above range
	}, rankingsByName(all))
}

func TestRepository_ShiftRankings_NegativeDelta(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	b1, b2, b3 := newBook("b1", 1), newBook("b2", 2), newBook("b3", 3)
	insertBooks(t, repo, b1, b2, b3)

	_, err := repo.ShiftRankings(ctx, 2, 3, -1, 0)
	require.NoError(t, err)

	all, err := repo.GetAllBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"b1": 1, "b2": 1, "b3": 2}, rankingsByName(all))
}

func TestRepository_TargetedUpdates(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := newBook("Targeted", 4)
	insertBooks(t, repo, book)

	start := entities.NewEpochTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	rows, err := repo.UpdateBookStatus(ctx, book.ID, entities.BookStatusInProgress, start)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	session := entities.NewEpochTime(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC))
	_, err = repo.UpdateReadingStatus(ctx, book.ID, entities.BookStatusInProgress, session, 6)
	require.NoError(t, err)

	_, err = repo.UpdateRanking(ctx, book.ID, 9)
	require.NoError(t, err)

	got, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusInProgress, got.Status)
	assert.True(t, start.Equal(got.StartDate))
	assert.True(t, session.Equal(got.CurrentReadingStartDate))
	assert.Equal(t, 6, got.TotalReadingDays)
	assert.Equal(t, 9, got.Ranking)
	assert.Equal(t, "Targeted", got.Name, "untouched columns keep their values")

	// Clearing a date writes NULL.
	_, err = repo.UpdateReadingStatus(ctx, book.ID, entities.BookStatusOnHold, entities.EpochTime{}, 7)
	require.NoError(t, err)
	got, err = repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, got.CurrentReadingStartDate.Valid)
	assert.Equal(t, entities.BookStatusOnHold, got.Status)

	rows, err = repo.UpdateRanking(ctx, 12345, 1)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestRepository_MarkAsCompleted_MovesBetweenLists(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	a, b, c := newBook("A", 1), newBook("B", 2), newBook("C", 3)
	insertBooks(t, repo, a, b, c)

	_, err := repo.MarkAsCompleted(ctx, a.ID, entities.BookStatusCompleted,
		entities.NewEpochTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = repo.MarkAsCompleted(ctx, c.ID, entities.BookStatusCompleted,
		entities.NewEpochTime(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	queue, err := repo.GetBooksToRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names(queue))

	completed, err := repo.GetCompletedBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, names(completed), "ordered by end date descending")
}

func TestRepository_GetBooksToRead_OrderedByRanking(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	insertBooks(t, repo, newBook("third", 3), newBook("first", 1), newBook("second", 2))

	queue, err := repo.GetBooksToRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, names(queue))
}

func TestRepository_GetInProgressBooks(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	older, newer, idle := newBook("older", 1), newBook("newer", 2), newBook("idle", 3)
	older.Status = entities.BookStatusInProgress
	older.StartDate = entities.NewEpochTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer.Status = entities.BookStatusInProgress
	newer.StartDate = entities.NewEpochTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	insertBooks(t, repo, older, newer, idle)

	got, err := repo.GetInProgressBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"newer", "older"}, names(got))
}

func TestRepository_GetBooksToReadFiltered(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	dune := &entities.Book{Name: "Dune", Author: "Frank Herbert", Author1: strPtr("Frank Herbert"), Category: "Sci-Fi", Ranking: 2}
	goodOmens := &entities.Book{Name: "Good Omens", Author: "Terry Pratchett, Neil Gaiman",
		Author1: strPtr("Terry Pratchett"), Author2: strPtr("Neil Gaiman"), Category: "Fantasy", Ranking: 1}
	emma := &entities.Book{Name: "Emma", Author: "Jane Austen", Category: "Classic", Ranking: 3}
	finished := &entities.Book{Name: "Done Dune", Author: "Frank Herbert", Category: "Sci-Fi", Ranking: 4,
		Status: entities.BookStatusCompleted}
	insertBooks(t, repo, dune, goodOmens, emma, finished)

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{name: "empty filter returns whole queue", filter: Filter{}, expected: []string{"Good Omens", "Dune", "Emma"}},
		{name: "whitespace filter is a no-op", filter: Filter{Author: "  ", Category: " "}, expected: []string{"Good Omens", "Dune", "Emma"}},
		{name: "exact second author", filter: Filter{Author: "Neil Gaiman"}, expected: []string{"Good Omens"}},
		{name: "display author substring", filter: Filter{Author: "austen"}, expected: []string{"Emma"}},
		{name: "category case-insensitive", filter: Filter{Category: "sci-fi"}, expected: []string{"Dune"}},
		{name: "title substring", filter: Filter{Title: "UN"}, expected: []string{"Dune"}},
		{name: "combined filters", filter: Filter{Author: "Herbert", Title: "dune"}, expected: []string{"Dune"}},
		{name: "no match", filter: Filter{Category: "Poetry"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetBooksToReadFiltered(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names(got))
		})
	}
}

func TestRepository_GetBooksToReadFiltered_SortByCreatedAt(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, c := newBook("a", 3), newBook("b", 1), newBook("c", 2)
	a.CreatedAt = entities.NewEpochTime(base)
	b.CreatedAt = entities.NewEpochTime(base.Add(time.Hour))
	c.CreatedAt = entities.NewEpochTime(base.Add(2 * time.Hour))
	insertBooks(t, repo, a, b, c)

	asc, err := repo.GetBooksToReadFiltered(ctx, Filter{Sort: SortByDateAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(asc))

	desc, err := repo.GetBooksToReadFiltered(ctx, Filter{Sort: SortByDateDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, names(desc))

	byRank, err := repo.GetBooksToReadFiltered(ctx, Filter{Sort: ParseSortOrder("bogus")})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, names(byRank))
}

func TestRepository_Counts(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	lastYear := newBook("last year", 1)
	lastYear.Status = entities.BookStatusCompleted
	lastYear.EndDate = entities.NewEpochTime(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))
	thisYear := newBook("this year", 2)
	thisYear.Status = entities.BookStatusCompleted
	thisYear.EndDate = entities.NewEpochTime(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	reading := newBook("reading", 3)
	reading.Status = entities.BookStatusInProgress
	insertBooks(t, repo, lastYear, thisYear, reading, newBook("queued", 4))

	total, err := repo.GetTotalBooksRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	since, err := repo.GetBooksReadSince(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), since)

	inQueue, err := repo.GetBooksInQueueCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inQueue)
}

func TestRepository_GetAllAuthors(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	insertBooks(t, repo,
		&entities.Book{Name: "Good Omens", Author: "Terry Pratchett, Neil Gaiman",
			Author1: strPtr("Terry Pratchett"), Author2: strPtr("Neil Gaiman"), Category: "Fantasy"},
		&entities.Book{Name: "Mort", Author: "Terry Pratchett", Author1: strPtr("Terry Pratchett"), Category: "Fantasy"},
		&entities.Book{Name: "Emma", Author: "Jane Austen", Author1: strPtr(""), Category: "Classic"},
		&entities.Book{Name: "Done", Author: "Finished Author", Category: "Classic", Status: entities.BookStatusCompleted},
	)

	authors, err := repo.GetAllAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Austen", "Neil Gaiman", "Terry Pratchett"}, authors)
}

func TestRepository_GetAllCategoriesForFilter(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	insertBooks(t, repo,
		&entities.Book{Name: "a", Author: "x", Category: "Sci-Fi"},
		&entities.Book{Name: "b", Author: "x", Category: "History"},
		&entities.Book{Name: "c", Author: "x", Category: "Sci-Fi"},
		&entities.Book{Name: "d", Author: "x", Category: "Poetry", Status: entities.BookStatusCompleted},
	)

	categories, err := repo.GetAllCategoriesForFilter(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"History", "Sci-Fi"}, categories)
}

func TestRepository_EmptyResults(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	authors, err := repo.GetAllAuthors(ctx)
	require.NoError(t, err)
	assert.Empty(t, authors)

	categories, err := repo.GetAllCategoriesForFilter(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)

	count, err := repo.GetBooksInQueueCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_Transaction_RollsBack(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := newBook("Stable", 1)
	insertBooks(t, repo, book)

	err := repo.Transaction(ctx, func(tx *Repository) error {
		if _, err := tx.UpdateRanking(ctx, book.ID, 50); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Ranking)
}

func TestRepository_CancelledContext(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetBooksToRead(ctx)
	assert.Error(t, err)
}

func TestRepository_WatchBooksToRead_ReEmitsAfterWrite(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := repo.WatchBooksToRead(ctx)

	first := <-results
	require.NoError(t, first.Err)
	assert.Empty(t, first.Value)

	insertBooks(t, repo, newBook("Fresh", 1))

	select {
	case next := <-results:
		require.NoError(t, next.Err)
		assert.Equal(t, []string{"Fresh"}, names(next.Value))
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not re-emit after insert")
	}
}

func TestRepository_Transaction_NotifiesOnceAfterCommit(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	a, b := newBook("a", 1), newBook("b", 2)
	insertBooks(t, repo, a, b)

	signals, unsubscribe := repo.hub.Subscribe(TableName)
	defer unsubscribe()

	err := repo.Transaction(ctx, func(tx *Repository) error {
		if _, err := tx.ShiftRankings(ctx, 1, 1, 1, b.ID); err != nil {
			return err
		}
		// No signal while the transaction is still open.
		select {
		case <-signals:
			t.Error("notified before commit")
		default:
		}
		_, err := tx.UpdateRanking(ctx, b.ID, 1)
		return err
	})
	require.NoError(t, err)

	select {
	case <-signals:
	default:
		t.Fatal("expected a change signal after commit")
	}

	queue, err := repo.GetBooksToRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(queue))
}

func TestRepository_Transaction_NoSignalOnRollback(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := newBook("a", 1)
	insertBooks(t, repo, book)

	signals, unsubscribe := repo.hub.Subscribe(TableName)
	defer unsubscribe()

	err := repo.Transaction(ctx, func(tx *Repository) error {
		if _, err := tx.UpdateRanking(ctx, book.ID, 3); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	select {
	case <-signals:
		t.Fatal("rollback must not notify")
	default:
	}
}
