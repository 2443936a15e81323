// Package sessions tracks timed reading sessions.
//
// The open session lives only in the database: a session whose end_time is
// NULL. Nothing is cached in memory, so a restarted process picks up a session
// left open by the previous run through ActiveSessionID or StartSession.
//
// # Usage
//
//	mgr := sessions.NewManager(db, status.NewCoordinator(db))
//	id, err := mgr.StartSession(ctx)
//	...
//	seconds, err := mgr.FinishSession(ctx, id, bookID, true)
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database/status"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrSessionNotFound     = fmt.Errorf("reading session %w", entities.ErrNotFound)
	ErrBookNotFound        = fmt.Errorf("book %w", entities.ErrNotFound)
	ErrSessionNotStarted   = fmt.Errorf("reading session has no start time: %w", entities.ErrInvalidState)
	ErrSessionAlreadyEnded = fmt.Errorf("reading session already ended: %w", entities.ErrInvalidState)
)

// EligibleBook is a book a finished session can be attributed to.
type EligibleBook struct {
	ID     uint            `json:"id"`
	Title  string          `json:"title"`
	Status entities.Status `json:"status"`
}

// Manager owns the lifecycle of reading sessions.
type Manager struct {
	db          *gorm.DB
	coordinator *status.Coordinator
	now         func() time.Time
}

// NewManager creates a session manager. Status changes caused by binding a
// session to a book go through coordinator.
func NewManager(db *gorm.DB, coordinator *status.Coordinator) *Manager {
	return &Manager{db: db, coordinator: coordinator, now: time.Now}
}

// SetClock replaces the time source (tests).
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// ActiveSessionID returns the id of the open session. The boolean is false
// when no session is open.
func (m *Manager) ActiveSessionID(ctx context.Context) (uint, bool, error) {
	return activeSessionID(m.db.WithContext(ctx))
}

// StartSession opens a new session, or returns the already open one.
func (m *Manager) StartSession(ctx context.Context) (uint, error) {
	var id uint
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, ok, err := activeSessionID(tx)
		if err != nil {
			return err
		}
		if ok {
			id = existing
			return nil
		}

		session := &entities.ReadingSession{StartTime: m.now().UTC()}
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		id = session.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DurationToNow returns the whole seconds elapsed since the session started.
// It works for open and closed sessions alike and never writes.
func (m *Manager) DurationToNow(ctx context.Context, id uint) (int64, error) {
	session, err := findSession(m.db.WithContext(ctx), id)
	if err != nil {
		return 0, err
	}
	if session.StartTime.IsZero() {
		return 0, ErrSessionNotStarted
	}
	return elapsedSeconds(session.StartTime, m.now()), nil
}

// EndSession closes an open session and returns its duration in seconds.
// Ending a session twice fails with ErrSessionAlreadyEnded and leaves the
// first end time in place.
func (m *Manager) EndSession(ctx context.Context, id uint) (int64, error) {
	var duration int64
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		duration, err = m.endSession(tx, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	return duration, nil
}

// DeleteSession discards a session, open or closed. Unknown ids are ignored.
func (m *Manager) DeleteSession(ctx context.Context, id uint) error {
	err := m.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.ReadingSession{}).Error
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

// BindSessionToBook attributes a session to a book and moves the book to
// completed when markCompleted is set, otherwise to reading. A book that is
// already completed stays completed unless markCompleted refreshes it.
func (m *Manager) BindSessionToBook(ctx context.Context, sessionID, bookID uint, markCompleted bool) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findSession(tx, sessionID); err != nil {
			return err
		}
		return m.bind(tx, sessionID, bookID, markCompleted)
	})
}

// FinishSession ends a session and binds it to a book in one transaction,
// so a failure never leaves the session closed but unattributed.
func (m *Manager) FinishSession(ctx context.Context, sessionID, bookID uint, markCompleted bool) (int64, error) {
	var duration int64
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		duration, err = m.endSession(tx, sessionID)
		if err != nil {
			return err
		}
		return m.bind(tx, sessionID, bookID, markCompleted)
	})
	if err != nil {
		return 0, err
	}
	return duration, nil
}

// EligibleBooks lists the books still on the backlog or in progress, by title.
func (m *Manager) EligibleBooks(ctx context.Context) ([]EligibleBook, error) {
	books := []EligibleBook{}
	err := m.db.WithContext(ctx).
		Table("books").
		Select("books.id AS id, books.title AS title, reading_status.status AS status").
		Joins("JOIN reading_status ON reading_status.book_id = books.id").
		Where("reading_status.status IN ?", []entities.Status{entities.StatusToRead, entities.StatusReading}).
		Order("books.title ASC, books.id ASC").
		Scan(&books).Error
	if err != nil {
		return nil, fmt.Errorf("list eligible books: %w", err)
	}
	return books, nil
}

// ListSessions returns sessions newest first, optionally for one book only.
// A limit of zero or less returns every session.
func (m *Manager) ListSessions(ctx context.Context, bookID *uint, limit int) ([]entities.ReadingSession, error) {
	sessions := []entities.ReadingSession{}
	query := m.db.WithContext(ctx).Order("start_time DESC, id DESC")
	if bookID != nil {
		query = query.Where("book_id = ?", *bookID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (m *Manager) endSession(tx *gorm.DB, id uint) (int64, error) {
	session, err := findSession(tx, id)
	if err != nil {
		return 0, err
	}
	if !session.IsOpen() {
		return 0, ErrSessionAlreadyEnded
	}
	if session.StartTime.IsZero() {
		return 0, ErrSessionNotStarted
	}

	end := m.now().UTC()
	duration := elapsedSeconds(session.StartTime, end)
	result := tx.Model(&entities.ReadingSession{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]any{"end_time": end, "duration": duration})
	if result.Error != nil {
		return 0, fmt.Errorf("end session %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrSessionAlreadyEnded
	}
	return duration, nil
}

func (m *Manager) bind(tx *gorm.DB, sessionID, bookID uint, markCompleted bool) error {
	var count int64
	if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return fmt.Errorf("look up book %d: %w", bookID, err)
	}
	if count == 0 {
		return ErrBookNotFound
	}

	err := tx.Model(&entities.ReadingSession{}).
		Where("id = ?", sessionID).
		Update("book_id", bookID).Error
	if err != nil {
		return fmt.Errorf("bind session %d: %w", sessionID, err)
	}

	coordinator := m.coordinator.WithDB(tx)
	to := entities.StatusCompleted
	if !markCompleted {
		// A session logged against a finished book (a re-read or a quick
		// lookup) leaves it finished. Only an explicit status change reopens it.
		current, err := coordinator.GetStatus(tx.Statement.Context, bookID)
		if err != nil {
			if errors.Is(err, status.ErrStatusNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if current.Status == entities.StatusCompleted {
			return nil
		}
		to = entities.StatusReading
	}
	updated, err := coordinator.SetStatus(tx.Statement.Context, bookID, to)
	if err != nil {
		return err
	}
	if !updated {
		return ErrBookNotFound
	}
	return nil
}

func activeSessionID(db *gorm.DB) (uint, bool, error) {
	var session entities.ReadingSession
	err := db.Where("end_time IS NULL").Order("start_time DESC, id DESC").Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find active session: %w", err)
	}
	return session.ID, true, nil
}

func findSession(db *gorm.DB, id uint) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	err := db.Where("id = ?", id).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session %d: %w", id, err)
	}
	return &session, nil
}

// elapsedSeconds floors to whole seconds and never goes negative.
func elapsedSeconds(start, end time.Time) int64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
