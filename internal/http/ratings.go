package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/database/ratings"
)

type RatingsController struct {
	store RatingStore
}

func NewRatingsController(store RatingStore) *RatingsController {
	return &RatingsController{store: store}
}

type RateBookRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// RateBook creates or replaces the book's rating.
// PUT /api/books/:id/rating
func (rc *RatingsController) RateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating is required")
		return
	}
	if req.Rating < ratings.MinRating || req.Rating > ratings.MaxRating {
		respondBadRequest(c, ratings.ErrInvalidRating.Error())
		return
	}

	rating, err := rc.store.RateBook(c.Request.Context(), id, req.Rating, req.Comment)
	if err != nil {
		respondStoreError(c, err, "book", "rate book")
		return
	}
	c.JSON(http.StatusOK, rating)
}

// GetRating handles GET /api/books/:id/rating
func (rc *RatingsController) GetRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rating, err := rc.store.GetRating(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "rating", "get rating")
		return
	}
	c.JSON(http.StatusOK, rating)
}

// DeleteRating handles DELETE /api/books/:id/rating
func (rc *RatingsController) DeleteRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.store.DeleteRating(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "rating", "delete rating")
		return
	}
	c.Status(http.StatusNoContent)
}
