// Package favourites provides database operations for favourite book management.
//
// # Usage
//
//	repo := favourites.NewRepository(db)
//	favourites, total, err := repo.ListFavourites(ctx, 20, 0)
package favourites

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var ErrBookNotFound = fmt.Errorf("book %w", entities.ErrNotFound)

// Repository handles all favourites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favourites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddFavourite marks a book as favourite. Adding it twice is a no-op.
func (r *Repository) AddFavourite(ctx context.Context, bookID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrBookNotFound
		}
		return tx.Omit("Book").
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "book_id"}}, DoNothing: true}).
			Create(&entities.Favourite{BookID: bookID}).Error
	})
}

// RemoveFavourite unmarks a book. Removing a book that is not a favourite is a no-op.
func (r *Repository) RemoveFavourite(ctx context.Context, bookID uint) error {
	return r.db.WithContext(ctx).Where("book_id = ?", bookID).Delete(&entities.Favourite{}).Error
}

// IsFavourite reports whether a book is marked as favourite.
func (r *Repository) IsFavourite(ctx context.Context, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Favourite{}).Where("book_id = ?", bookID).Count(&count).Error
	return count > 0, err
}

// ListFavourites returns favourite books, most recently added first, with pagination.
func (r *Repository) ListFavourites(ctx context.Context, limit, offset int) ([]entities.Favourite, int64, error) {
	var favourites []entities.Favourite
	var total int64

	if err := r.db.WithContext(ctx).Model(&entities.Favourite{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Preload("Book.Authors").Preload("Book.Status").
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&favourites).Error
	return favourites, total, err
}

// GetFavouriteCount returns the total number of favourite books.
func (r *Repository) GetFavouriteCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Favourite{}).Count(&count).Error
	return count, err
}
