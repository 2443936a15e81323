package http

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const enrichTimeout = 30 * time.Second

type BooksController struct {
	store    BookStore
	enricher BookEnricher
	queue    TaskQueue
}

// NewBooksController creates a BooksController. enricher and queue are
// optional; without a queue new books are not enriched in the background.
func NewBooksController(store BookStore, enricher BookEnricher, queue TaskQueue) *BooksController {
	return &BooksController{
		store:    store,
		enricher: enricher,
		queue:    queue,
	}
}

// CreateBook handles POST /api/books
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req books.NewBook
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondBadRequest(c, "title is required")
		return
	}

	book, err := controller.store.CreateBook(c.Request.Context(), req)
	if err != nil {
		respondStoreError(c, err, "book", "create book")
		return
	}

	enqueueEnrichment(controller.queue, book.ID)
	respondCreated(c, book)
}

// GetAllBooks handles GET /api/books?status=reading&q=dune
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		list []entities.Book
		err  error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		list, err = controller.store.SearchBooks(ctx, q)
	} else {
		var statuses []entities.Status
		for _, raw := range c.QueryArray("status") {
			st, perr := entities.ParseStatus(raw)
			if perr != nil {
				respondBadRequest(c, perr.Error())
				return
			}
			statuses = append(statuses, st)
		}
		list, err = controller.store.ListBooks(ctx, statuses...)
	}
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// GetBook handles GET /api/books/:id
func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBookByID(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.DeleteBook(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "book", "delete book")
		return
	}
	c.Status(http.StatusNoContent)
}

// EnrichBook fetches metadata for one book synchronously.
// POST /api/books/:id/enrich
func (controller *BooksController) EnrichBook(c *gin.Context) {
	if controller.enricher == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "metadata enrichment is disabled"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), enrichTimeout)
	defer cancel()

	result, err := controller.enricher.EnrichBook(ctx, id)
	if err != nil {
		respondStoreError(c, err, "book", "enrich book")
		return
	}
	c.JSON(http.StatusOK, result)
}

// enqueueEnrichment schedules a background metadata lookup for a new book.
// Failures are logged only; the book itself is already stored.
func enqueueEnrichment(queue TaskQueue, bookID uint) {
	if queue == nil {
		return
	}
	if _, err := queue.EnqueueEnrichBook(bookID); err != nil {
		log.Printf("Failed to enqueue enrichment for book %d: %v", bookID, err)
	}
}
