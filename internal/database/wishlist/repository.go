// Package wishlist keeps books the user wants but does not own yet.
//
// Wishlist entries are independent of the catalog. Acquiring an entry
// creates the book in the library and drops the entry.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrItemNotFound  = fmt.Errorf("wishlist item %w", entities.ErrNotFound)
	ErrTitleRequired = errors.New("title is required")
)

// NewItem holds the fields of a wishlist entry.
type NewItem struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	ISBN     string   `json:"isbn"`
	CoverURL string   `json:"cover_url"`
	Note     string   `json:"note"`
}

// Repository handles all wishlist database operations.
type Repository struct {
	db    *gorm.DB
	books *books.Repository
}

// NewRepository creates a new wishlist repository. Acquired entries are
// added to the catalog through booksRepo.
func NewRepository(db *gorm.DB, booksRepo *books.Repository) *Repository {
	return &Repository{db: db, books: booksRepo}
}

// AddItem stores a new wishlist entry.
func (r *Repository) AddItem(ctx context.Context, in NewItem) (*entities.WishlistItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	authors := make([]string, 0, len(in.Authors))
	for _, a := range in.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	item := &entities.WishlistItem{
		Title:    title,
		Authors:  strings.Join(authors, ", "),
		ISBN:     strings.TrimSpace(in.ISBN),
		CoverURL: in.CoverURL,
		Note:     in.Note,
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("create wishlist item: %w", err)
	}
	return item, nil
}

// GetItem returns a wishlist entry by id.
func (r *Repository) GetItem(ctx context.Context, id uint) (*entities.WishlistItem, error) {
	var item entities.WishlistItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns all entries, newest first.
func (r *Repository) ListItems(ctx context.Context) ([]entities.WishlistItem, error) {
	items := []entities.WishlistItem{}
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&items).Error
	return items, err
}

// RemoveItem deletes an entry.
func (r *Repository) RemoveItem(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.WishlistItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Acquire moves an entry into the library. The new book starts on the backlog.
func (r *Repository) Acquire(ctx context.Context, id uint) (*entities.Book, error) {
	item, err := r.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	var authors []string
	if item.Authors != "" {
		authors = strings.Split(item.Authors, ",")
	}
	book, err := r.books.CreateBook(ctx, books.NewBook{
		Title:    item.Title,
		Authors:  authors,
		ISBN:     item.ISBN,
		CoverURL: item.CoverURL,
	})
	if err != nil {
		return nil, fmt.Errorf("add %q to library: %w", item.Title, err)
	}

	if err := r.RemoveItem(ctx, id); err != nil {
		return nil, err
	}
	return book, nil
}
