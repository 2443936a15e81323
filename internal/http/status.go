package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type StatusController struct {
	store StatusStore
}

func NewStatusController(store StatusStore) *StatusController {
	return &StatusController{store: store}
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetStatus handles GET /api/books/:id/status
func (sc *StatusController) GetStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	row, err := sc.store.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "book", "get status")
		return
	}
	c.JSON(http.StatusOK, row)
}

// SetStatus handles PUT /api/books/:id/status
func (sc *StatusController) SetStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}
	to, err := entities.ParseStatus(req.Status)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	updated, err := sc.store.SetStatus(ctx, id, to)
	if err != nil {
		respondStoreError(c, err, "book", "set status")
		return
	}
	if !updated {
		respondNotFound(c, "book")
		return
	}

	row, err := sc.store.GetStatus(ctx, id)
	if err != nil {
		respondStoreError(c, err, "book", "get status")
		return
	}
	c.JSON(http.StatusOK, row)
}
