package http

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookbuddy/internal/database/books"
	"github.com/mrlokans/bookbuddy/internal/entities"
	"github.com/mrlokans/bookbuddy/internal/services"
)

// BooksController exposes the reading list and its lifecycle operations.
type BooksController struct {
	library *services.LibraryService
}

func NewBooksController(library *services.LibraryService) *BooksController {
	return &BooksController{library: library}
}

// BookRequest is the body accepted by create and update.
type BookRequest struct {
	Name     string   `json:"name" binding:"required"`
	Author   string   `json:"author" binding:"required"`
	Authors  []string `json:"authors" binding:"max=5"`
	Category string   `json:"category" binding:"required"`
	Ranking  int      `json:"ranking" binding:"gte=0"`
	HasBook  bool     `json:"has_book"`
	Status   string   `json:"status"`
}

// apply copies the request onto book. Only listed authors are kept.
func (r BookRequest) apply(book *entities.Book) error {
	book.Name = r.Name
	book.Author = r.Author
	book.Category = r.Category
	book.Ranking = r.Ranking
	book.HasBook = r.HasBook

	slots := []**string{&book.Author1, &book.Author2, &book.Author3, &book.Author4, &book.Author5}
	for i, slot := range slots {
		*slot = nil
		if i < len(r.Authors) {
			if name := strings.TrimSpace(r.Authors[i]); name != "" {
				*slot = &name
			}
		}
	}

	if r.Status != "" {
		status, err := entities.ParseBookStatus(r.Status)
		if err != nil {
			return err
		}
		book.Status = status
	}
	return nil
}

type RankingRequest struct {
	Ranking int `json:"ranking" binding:"required,gte=1"`
}

type MoveRequest struct {
	From *int `json:"from" binding:"required,gte=0"`
	To   *int `json:"to" binding:"required,gte=0"`
}

// GetAllBooks handles GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	list, err := bc.library.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": nonNil(list), "total": len(list)})
}

// GetQueue handles GET /api/books/queue?author=&category=&title=&sort=
func (bc *BooksController) GetQueue(c *gin.Context) {
	filter := books.Filter{
		Author:   c.Query("author"),
		Category: c.Query("category"),
		Title:    c.Query("title"),
		Sort:     books.ParseSortOrder(c.Query("sort")),
	}

	list, err := bc.library.FilterQueue(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "filter queue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": nonNil(list), "total": len(list)})
}

// StreamQueue handles GET /api/books/queue/stream. The queue is sent as a
// "queue" server-sent event on connect and again after every change until
// the client disconnects.
func (bc *BooksController) StreamQueue(c *gin.Context) {
	ctx := c.Request.Context()
	results := bc.library.WatchQueue(ctx)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-results:
			if !ok {
				return
			}
			if result.Err != nil {
				log.Printf("Queue stream: query failed: %v", result.Err)
				c.SSEvent("error", ErrorResponse{Error: "failed to load queue"})
			} else {
				c.SSEvent("queue", nonNil(result.Value))
			}
			c.Writer.Flush()
		}
	}
}

// GetCompletedBooks handles GET /api/books/completed
func (bc *BooksController) GetCompletedBooks(c *gin.Context) {
	list, err := bc.library.CompletedBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "completed books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": nonNil(list), "total": len(list)})
}

// GetInProgressBooks handles GET /api/books/in-progress
func (bc *BooksController) GetInProgressBooks(c *gin.Context) {
	list, err := bc.library.InProgressBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "in-progress books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": nonNil(list), "total": len(list)})
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.library.GetBook(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	var book entities.Book
	if err := req.apply(&book); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	id, err := bc.library.AddBook(c.Request.Context(), &book)
	if err != nil {
		respondServiceError(c, err, "add book")
		return
	}

	created, err := bc.library.GetBook(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "reload book")
		return
	}
	respondCreated(c, created)
}

// UpdateBook handles PUT /api/books/:id. Reading dates and accumulated days
// are kept; use the lifecycle endpoints to change them.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	book, err := bc.library.GetBook(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get book")
		return
	}
	if req.Ranking == 0 {
		req.Ranking = book.Ranking
	}
	if err := req.apply(book); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := bc.library.UpdateBook(c.Request.Context(), book); err != nil {
		respondServiceError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.library.DeleteBook(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// StartReading handles POST /api/books/:id/start
func (bc *BooksController) StartReading(c *gin.Context) {
	bc.transition(c, "start reading", bc.library.MarkAsInProgress)
}

// HoldReading handles POST /api/books/:id/hold
func (bc *BooksController) HoldReading(c *gin.Context) {
	bc.transition(c, "hold book", bc.library.MarkAsOnHold)
}

// CompleteReading handles POST /api/books/:id/complete
func (bc *BooksController) CompleteReading(c *gin.Context) {
	bc.transition(c, "complete book", bc.library.MarkAsCompleted)
}

func (bc *BooksController) transition(c *gin.Context, action string, apply func(context.Context, int64) error) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, action)
		return
	}

	book, err := bc.library.GetBook(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, action)
		return
	}
	c.JSON(http.StatusOK, book)
}

// SetRanking handles PUT /api/books/:id/ranking
func (bc *BooksController) SetRanking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := bc.library.ReorderBook(c.Request.Context(), id, req.Ranking); err != nil {
		respondServiceError(c, err, "reorder book")
		return
	}
	respondSuccess(c, "ranking updated")
}

// MoveInQueue handles POST /api/books/reorder with zero-based positions.
func (bc *BooksController) MoveInQueue(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := bc.library.MoveBook(c.Request.Context(), *req.From, *req.To); err != nil {
		respondServiceError(c, err, "move book")
		return
	}

	queue, err := bc.library.Queue(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "reload queue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": nonNil(queue), "total": len(queue)})
}

// GetAuthors handles GET /api/authors
func (bc *BooksController) GetAuthors(c *gin.Context) {
	authors, err := bc.library.Authors(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": nonNil(authors)})
}

// GetFilterCategories handles GET /api/categories/filter
func (bc *BooksController) GetFilterCategories(c *gin.Context) {
	categories, err := bc.library.QueueCategories(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list queue categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(categories)})
}

// GetStats handles GET /api/stats
func (bc *BooksController) GetStats(c *gin.Context) {
	stats, err := bc.library.Stats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
