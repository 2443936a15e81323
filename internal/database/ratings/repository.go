// Package ratings stores the user's star rating of a book.
//
// A book has at most one rating; rating it again replaces the previous
// value and moves rated_at forward.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrRatingNotFound = fmt.Errorf("rating %w", entities.ErrNotFound)
	ErrBookNotFound   = fmt.Errorf("book %w", entities.ErrNotFound)
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// Repository handles all rating database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new ratings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// SetClock replaces the time source (tests).
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}

// RateBook creates or replaces the rating of a book. An empty comment is
// stored as NULL.
func (r *Repository) RateBook(ctx context.Context, bookID uint, rating int, comment string) (*entities.Rating, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}

	row := &entities.Rating{BookID: bookID, Rating: rating, RatedAt: r.now().UTC()}
	if c := strings.TrimSpace(comment); c != "" {
		row.Comment = &c
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrBookNotFound
		}
		return tx.Omit("Book").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "rated_at"}),
		}).Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetRating(ctx, bookID)
}

// GetRating returns the rating of a book.
func (r *Repository) GetRating(ctx context.Context, bookID uint) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRatingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// DeleteRating withdraws the rating of a book.
func (r *Repository) DeleteRating(ctx context.Context, bookID uint) error {
	result := r.db.WithContext(ctx).Where("book_id = ?", bookID).Delete(&entities.Rating{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRatingNotFound
	}
	return nil
}
