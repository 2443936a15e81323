package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type FavouritesController struct {
	store FavouritesStore
}

func NewFavouritesController(store FavouritesStore) *FavouritesController {
	return &FavouritesController{store: store}
}

// AddFavourite marks a book as favourite.
// POST /api/books/:id/favourite
func (fc *FavouritesController) AddFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := fc.store.AddFavourite(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "book", "add favourite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "favourite added", "book_id": id, "favourite": true})
}

// RemoveFavourite removes a book from favourites.
// DELETE /api/books/:id/favourite
func (fc *FavouritesController) RemoveFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := fc.store.RemoveFavourite(c.Request.Context(), id); err != nil {
		respondInternalError(c, err, "remove favourite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "favourite removed", "book_id": id, "favourite": false})
}

// IsFavourite handles GET /api/books/:id/favourite
func (fc *FavouritesController) IsFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fav, err := fc.store.IsFavourite(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "is favourite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": id, "favourite": fav})
}

// ListFavourites returns favourite books with pagination.
// GET /api/favourites
func (fc *FavouritesController) ListFavourites(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 100)
	if limit == 0 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0, 1<<30)

	list, total, err := fc.store.ListFavourites(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list favourites")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    list,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(list)) < total,
	})
}

// GetFavouriteCount returns the total count of favourites.
// GET /api/favourites/count
func (fc *FavouritesController) GetFavouriteCount(c *gin.Context) {
	count, err := fc.store.GetFavouriteCount(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "get favourite count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
