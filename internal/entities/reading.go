package entities

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusToRead    Status = "to_read"
	StatusReading   Status = "reading"
	StatusCompleted Status = "completed"
)

// ParseStatus validates a status coming from user input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusToRead, StatusReading, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown reading status %q: %w", s, ErrInvalidState)
	}
}

// ReadingStatus is the per-book lifecycle row. StartTime is set on the first
// move to reading and kept afterwards; EndTime is refreshed on every move to
// completed. Both are cleared when the book goes back to the backlog.
type ReadingStatus struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	BookID    uint       `gorm:"uniqueIndex;not null" json:"book_id"`
	Status    Status     `gorm:"size:20;not null;default:'to_read';index" json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// ReadingSession is one contiguous interval of reading. A session with a nil
// EndTime is open; at most one may exist at a time.
type ReadingSession struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	BookID    *uint      `gorm:"index" json:"book_id,omitempty"`
	StartTime time.Time  `gorm:"index" json:"start_time"`
	EndTime   *time.Time `gorm:"index" json:"end_time,omitempty"`
	Duration  *int64     `json:"duration,omitempty"` // seconds, set when closed
}

// IsOpen reports whether the session has not been ended yet.
func (s ReadingSession) IsOpen() bool {
	return s.EndTime == nil
}

func (ReadingStatus) TableName() string {
	return "reading_status"
}

func (ReadingSession) TableName() string {
	return "reading_sessions"
}
