// Package status drives the per-book reading status state machine.
//
// Every status is reachable from every other; the only per-transition logic
// is the timestamp bookkeeping:
//
//	reading    start_time = COALESCE(start_time, now), end_time untouched
//	completed  end_time = now (refreshed on every call)
//	to_read    start_time = NULL, end_time = NULL
//
// Each transition is a single UPDATE on reading_status.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrStatusNotFound = fmt.Errorf("reading status %w", entities.ErrNotFound)
	ErrUnknownStatus  = fmt.Errorf("unknown reading status: %w", entities.ErrInvalidState)
)

// Coordinator applies status transitions to reading_status rows.
type Coordinator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCoordinator creates a coordinator using the wall clock.
func NewCoordinator(db *gorm.DB) *Coordinator {
	return &Coordinator{db: db, now: time.Now}
}

// SetClock replaces the time source (tests).
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// WithDB returns a coordinator that issues its updates through db, typically
// an open transaction.
func (c *Coordinator) WithDB(db *gorm.DB) *Coordinator {
	return &Coordinator{db: db, now: c.now}
}

// SetStatus moves a book to the requested status. It reports false without
// an error when the book has no reading_status row.
func (c *Coordinator) SetStatus(ctx context.Context, bookID uint, to entities.Status) (bool, error) {
	patch, err := transition(to, c.now().UTC())
	if err != nil {
		return false, err
	}

	result := c.db.WithContext(ctx).
		Model(&entities.ReadingStatus{}).
		Where("book_id = ?", bookID).
		Updates(patch)
	if result.Error != nil {
		return false, fmt.Errorf("set status of book %d: %w", bookID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetStatus returns the status row of a book.
func (c *Coordinator) GetStatus(ctx context.Context, bookID uint) (*entities.ReadingStatus, error) {
	var row entities.ReadingStatus
	err := c.db.WithContext(ctx).Where("book_id = ?", bookID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// transition builds the column patch for moving into status to.
func transition(to entities.Status, now time.Time) (map[string]any, error) {
	switch to {
	case entities.StatusReading:
		return map[string]any{
			"status":     to,
			"start_time": gorm.Expr("COALESCE(start_time, ?)", now),
		}, nil
	case entities.StatusCompleted:
		return map[string]any{
			"status":   to,
			"end_time": now,
		}, nil
	case entities.StatusToRead:
		return map[string]any{
			"status":     to,
			"start_time": nil,
			"end_time":   nil,
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStatus, to)
	}
}
