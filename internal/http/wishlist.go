package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/database/wishlist"
)

type WishlistController struct {
	store WishlistStore
	queue TaskQueue
}

func NewWishlistController(store WishlistStore, queue TaskQueue) *WishlistController {
	return &WishlistController{store: store, queue: queue}
}

// ListItems handles GET /api/wishlist
func (wc *WishlistController) ListItems(c *gin.Context) {
	items, err := wc.store.ListItems(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// AddItem handles POST /api/wishlist
func (wc *WishlistController) AddItem(c *gin.Context) {
	var req wishlist.NewItem
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondBadRequest(c, "title is required")
		return
	}

	item, err := wc.store.AddItem(c.Request.Context(), req)
	if err != nil {
		respondStoreError(c, err, "wishlist item", "add wishlist item")
		return
	}
	respondCreated(c, item)
}

// GetItem handles GET /api/wishlist/:id
func (wc *WishlistController) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := wc.store.GetItem(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "wishlist item", "get wishlist item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveItem handles DELETE /api/wishlist/:id
func (wc *WishlistController) RemoveItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := wc.store.RemoveItem(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "wishlist item", "remove wishlist item")
		return
	}
	c.Status(http.StatusNoContent)
}

// Acquire moves a wishlist item into the library as a to_read book.
// POST /api/wishlist/:id/acquire
func (wc *WishlistController) Acquire(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := wc.store.Acquire(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "wishlist item", "acquire wishlist item")
		return
	}

	enqueueEnrichment(wc.queue, book.ID)
	respondCreated(c, book)
}
