// Package books provides database operations for the book catalog.
//
// Creating a book also creates its reading_status row in the to_read state,
// so every catalogued book takes part in the reading statistics.
//
// # Interface Implementation
//
//	var _ metadata.BookUpdater = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.CreateBook(ctx, books.NewBook{Title: "Dune", Authors: []string{"Frank Herbert"}})
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/metadata"
)

var (
	ErrBookNotFound  = fmt.Errorf("book %w", entities.ErrNotFound)
	ErrTitleRequired = errors.New("title is required")
)

// NewBook holds the user supplied fields of a catalog entry.
type NewBook struct {
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Genres          []string `json:"genres"`
	ISBN            string   `json:"isbn"`
	CoverURL        string   `json:"cover_url"`
	Publisher       string   `json:"publisher"`
	PublicationYear int      `json:"publication_year"`
	PageCount       int      `json:"page_count"`
	Description     string   `json:"description"`
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook stores a book with its authors and genres and puts it on the
// backlog. Authors and genres are matched by name and reused.
func (r *Repository) CreateBook(ctx context.Context, in NewBook) (*entities.Book, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	book := &entities.Book{
		Title:           title,
		ISBN:            strings.TrimSpace(in.ISBN),
		CoverURL:        in.CoverURL,
		Publisher:       in.Publisher,
		PublicationYear: in.PublicationYear,
		PageCount:       in.PageCount,
		Description:     in.Description,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authors, err := getOrCreateAuthors(tx, in.Authors)
		if err != nil {
			return err
		}
		genres, err := getOrCreateGenres(tx, in.Genres)
		if err != nil {
			return err
		}
		book.Authors = authors
		book.Genres = genres

		if err := tx.Omit("Status").Create(book).Error; err != nil {
			return fmt.Errorf("create book: %w", err)
		}

		status := &entities.ReadingStatus{BookID: book.ID, Status: entities.StatusToRead}
		if err := tx.Create(status).Error; err != nil {
			return fmt.Errorf("create reading status: %w", err)
		}
		book.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	return book, nil
}

// GetBookByID retrieves a book with authors, genres and reading status.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).
		Preload("Authors").Preload("Genres").Preload("Status").
		First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns books ordered by title, optionally restricted to the given statuses.
func (r *Repository) ListBooks(ctx context.Context, statuses ...entities.Status) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.WithContext(ctx).
		Preload("Authors").Preload("Genres").Preload("Status").
		Order("books.title ASC")
	if len(statuses) > 0 {
		query = query.
			Joins("JOIN reading_status ON reading_status.book_id = books.id").
			Where("reading_status.status IN ?", statuses)
	}
	err := query.Find(&books).Error
	return books, err
}

// SearchBooks matches the title or any author name (case-insensitive partial match).
func (r *Repository) SearchBooks(ctx context.Context, query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.WithContext(ctx).
		Preload("Authors").Preload("Genres").Preload("Status").
		Where("LOWER(books.title) LIKE LOWER(?) OR books.id IN (?)",
			pattern,
			r.db.Table("book_authors").
				Select("book_authors.book_id").
				Joins("JOIN authors ON authors.id = book_authors.author_id").
				Where("LOWER(authors.name) LIKE LOWER(?)", pattern),
		).
		Order("books.title ASC").
		Find(&books).Error
	return books, err
}

// DeleteBook removes a book and everything hanging off it. Sessions are kept
// for the reading-time history but lose their book reference.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		if err := tx.Model(&entities.ReadingSession{}).
			Where("book_id = ?", id).
			Update("book_id", nil).Error; err != nil {
			return fmt.Errorf("detach sessions: %w", err)
		}
		for _, model := range []any{&entities.ReadingStatus{}, &entities.Rating{}, &entities.Favourite{}} {
			if err := tx.Where("book_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("delete book data: %w", err)
			}
		}
		if err := tx.Model(&book).Association("Authors").Clear(); err != nil {
			return fmt.Errorf("clear authors: %w", err)
		}
		if err := tx.Model(&book).Association("Genres").Clear(); err != nil {
			return fmt.Errorf("clear genres: %w", err)
		}
		return tx.Delete(&book).Error
	})
}

// UpdateBookMetadata applies enrichment results to a book.
func (r *Repository) UpdateBookMetadata(ctx context.Context, id uint, fields metadata.BookUpdateFields) error {
	updates := make(map[string]any)

	if fields.ISBN != nil {
		updates["isbn"] = *fields.ISBN
	}
	if fields.CoverURL != nil {
		updates["cover_url"] = *fields.CoverURL
	}
	if fields.Publisher != nil {
		updates["publisher"] = *fields.Publisher
	}
	if fields.PublicationYear != nil {
		updates["publication_year"] = *fields.PublicationYear
	}
	if fields.PageCount != nil {
		updates["page_count"] = *fields.PageCount
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.OpenLibraryKey != nil {
		updates["open_library_key"] = *fields.OpenLibraryKey
	}

	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// AddGenres links the named genres to a book, creating missing genres.
func (r *Repository) AddGenres(ctx context.Context, id uint, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		genres, err := getOrCreateGenres(tx, names)
		if err != nil {
			return err
		}
		if len(genres) == 0 {
			return nil
		}
		return tx.Model(&book).Association("Genres").Append(genres)
	})
}

// GetBooksMissingMetadata returns books without a cover, publisher, year or genre.
func (r *Repository) GetBooksMissingMetadata(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Preload("Authors").Preload("Genres").
		Where("cover_url = '' OR cover_url IS NULL OR publisher = '' OR publisher IS NULL OR publication_year = 0 OR publication_year IS NULL OR id NOT IN (?)",
			r.db.Table("book_genres").Select("book_id"),
		).
		Order("id ASC").
		Find(&books).Error
	return books, err
}

// DeleteOrphanAuthorsAndGenres removes authors and genres that no book links to.
func (r *Repository) DeleteOrphanAuthorsAndGenres(ctx context.Context) (authors, genres int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id NOT IN (?)", tx.Table("book_authors").Select("author_id")).Delete(&entities.Author{})
		if res.Error != nil {
			return fmt.Errorf("delete orphan authors: %w", res.Error)
		}
		authors = res.RowsAffected

		res = tx.Where("id NOT IN (?)", tx.Table("book_genres").Select("genre_id")).Delete(&entities.Genre{})
		if res.Error != nil {
			return fmt.Errorf("delete orphan genres: %w", res.Error)
		}
		genres = res.RowsAffected
		return nil
	})
	return authors, genres, err
}

func getOrCreateAuthors(tx *gorm.DB, names []string) ([]entities.Author, error) {
	var authors []entities.Author
	for _, name := range normalizeNames(names) {
		author := entities.Author{Name: name}
		if err := tx.Where(entities.Author{Name: name}).FirstOrCreate(&author).Error; err != nil {
			return nil, fmt.Errorf("get or create author %q: %w", name, err)
		}
		authors = append(authors, author)
	}
	return authors, nil
}

func getOrCreateGenres(tx *gorm.DB, names []string) ([]entities.Genre, error) {
	var genres []entities.Genre
	for _, name := range normalizeNames(names) {
		genre := entities.Genre{Name: name}
		if err := tx.Where(entities.Genre{Name: name}).FirstOrCreate(&genre).Error; err != nil {
			return nil, fmt.Errorf("get or create genre %q: %w", name, err)
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

// normalizeNames trims, drops empty entries and removes case-insensitive duplicates.
func normalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
