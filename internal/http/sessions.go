package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SessionsController struct {
	store SessionStore
}

func NewSessionsController(store SessionStore) *SessionsController {
	return &SessionsController{store: store}
}

// BindSessionRequest attributes a session to a book.
type BindSessionRequest struct {
	BookID        uint `json:"book_id" binding:"required"`
	MarkCompleted bool `json:"mark_completed"`
}

// Active reports the open session, if any, with its elapsed time. Clients
// call it on startup to restore a session left open by a previous run.
// GET /api/sessions/active
func (sc *SessionsController) Active(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok, err := sc.store.ActiveSessionID(ctx)
	if err != nil {
		respondInternalError(c, err, "active session")
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	elapsed, err := sc.store.DurationToNow(ctx, id)
	if err != nil {
		respondStoreError(c, err, "session", "active session elapsed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "session_id": id, "elapsed_seconds": elapsed})
}

// Start opens a session or returns the one already open.
// POST /api/sessions
func (sc *SessionsController) Start(c *gin.Context) {
	id, err := sc.store.StartSession(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "start session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id})
}

// List returns past and current sessions, newest first.
// GET /api/sessions?book_id=1&limit=20
func (sc *SessionsController) List(c *gin.Context) {
	bookID, ok := parseOptionalQueryID(c, "book_id")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 50, 500)

	list, err := sc.store.ListSessions(c.Request.Context(), bookID, limit)
	if err != nil {
		respondInternalError(c, err, "list sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list, "count": len(list)})
}

// EligibleBooks lists the books a session can be attributed to.
// GET /api/sessions/eligible-books
func (sc *SessionsController) EligibleBooks(c *gin.Context) {
	list, err := sc.store.EligibleBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "eligible books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list})
}

// Elapsed returns the seconds since the session started.
// GET /api/sessions/:id/elapsed
func (sc *SessionsController) Elapsed(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	elapsed, err := sc.store.DurationToNow(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "session", "session elapsed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "elapsed_seconds": elapsed})
}

// End closes the session.
// POST /api/sessions/:id/end
func (sc *SessionsController) End(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	duration, err := sc.store.EndSession(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "session", "end session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "duration_seconds": duration})
}

// Bind attributes the session to a book and updates the book's status.
// POST /api/sessions/:id/book
func (sc *SessionsController) Bind(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BindSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	if err := sc.store.BindSessionToBook(c.Request.Context(), id, req.BookID, req.MarkCompleted); err != nil {
		respondStoreError(c, err, "session or book", "bind session")
		return
	}
	respondSuccess(c, "session attributed to book")
}

// Finish ends the session and attributes it to a book in one step.
// POST /api/sessions/:id/finish
func (sc *SessionsController) Finish(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BindSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	duration, err := sc.store.FinishSession(c.Request.Context(), id, req.BookID, req.MarkCompleted)
	if err != nil {
		respondStoreError(c, err, "session or book", "finish session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "book_id": req.BookID, "duration_seconds": duration})
}

// Discard deletes the session without keeping its time.
// DELETE /api/sessions/:id
func (sc *SessionsController) Discard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.store.DeleteSession(c.Request.Context(), id); err != nil {
		respondInternalError(c, err, "discard session")
		return
	}
	c.Status(http.StatusNoContent)
}
