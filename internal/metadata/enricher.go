package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// maxGenresFromSubjects bounds how many OpenLibrary subjects become genres.
const maxGenresFromSubjects = 3

// MetadataProvider defines the interface for fetching book metadata.
type MetadataProvider interface {
	SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
	SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error)
}

// BookUpdater defines the catalog operations the enricher needs.
type BookUpdater interface {
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	UpdateBookMetadata(ctx context.Context, id uint, fields BookUpdateFields) error
	AddGenres(ctx context.Context, id uint, genres []string) error
	GetBooksMissingMetadata(ctx context.Context) ([]entities.Book, error)
}

// BookUpdateFields contains the fields that can be updated via enrichment.
// Nil means "leave unchanged".
type BookUpdateFields struct {
	ISBN            *string
	CoverURL        *string
	Publisher       *string
	PublicationYear *int
	PageCount       *int
	Description     *string
	OpenLibraryKey  *string
}

// EnrichmentResult contains the result of an enrichment operation.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
	SearchMethod  string         `json:"search_method"` // "isbn" or "title"
}

// BulkEnrichmentResult summarises an EnrichAll run.
type BulkEnrichmentResult struct {
	TotalBooks int      `json:"total_books"`
	Enriched   int      `json:"enriched"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// Enricher fills missing catalog fields from an external metadata provider.
type Enricher struct {
	provider MetadataProvider
	books    BookUpdater
}

func NewEnricher(provider MetadataProvider, books BookUpdater) *Enricher {
	return &Enricher{provider: provider, books: books}
}

// EnrichBook tries an ISBN lookup first and falls back to a title search.
// Only empty fields are filled; genres are added when the book has none.
func (e *Enricher) EnrichBook(ctx context.Context, bookID uint) (*EnrichmentResult, error) {
	book, err := e.books.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	var md *BookMetadata
	method := "isbn"
	if book.ISBN != "" {
		md, err = e.provider.SearchByISBN(ctx, book.ISBN)
	}
	if md == nil {
		method = "title"
		md, err = e.provider.SearchByTitle(ctx, book.Title, firstAuthor(book))
		if err != nil {
			return nil, fmt.Errorf("metadata search failed: %w", err)
		}
	}

	updates, fields := buildUpdates(book, md)
	if len(fields) > 0 {
		if err := e.books.UpdateBookMetadata(ctx, bookID, updates); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}
	}

	if len(book.Genres) == 0 {
		if genres := subjectsToGenres(md.Subjects); len(genres) > 0 {
			if err := e.books.AddGenres(ctx, bookID, genres); err != nil {
				return nil, fmt.Errorf("add genres: %w", err)
			}
			fields = append(fields, "genres")
		}
	}

	if len(fields) > 0 {
		book, err = e.books.GetBookByID(ctx, bookID)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
	}

	return &EnrichmentResult{Book: book, FieldsUpdated: fields, SearchMethod: method}, nil
}

// EnrichAll runs EnrichBook over every book that is missing metadata.
// Individual failures are collected, not returned.
func (e *Enricher) EnrichAll(ctx context.Context) (*BulkEnrichmentResult, error) {
	books, err := e.books.GetBooksMissingMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("get books missing metadata: %w", err)
	}

	result := &BulkEnrichmentResult{TotalBooks: len(books)}
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "operation cancelled")
			return result, err
		}

		res, err := e.EnrichBook(ctx, book.ID)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", book.Title, err))
		case len(res.FieldsUpdated) > 0:
			result.Enriched++
		default:
			result.Skipped++
		}
	}

	log.Printf("Metadata enrichment: %d books, %d enriched, %d skipped, %d failed",
		result.TotalBooks, result.Enriched, result.Skipped, result.Failed)
	return result, nil
}

func buildUpdates(book *entities.Book, md *BookMetadata) (BookUpdateFields, []string) {
	var updates BookUpdateFields
	var fields []string

	if book.ISBN == "" && md.ISBN != "" {
		updates.ISBN = &md.ISBN
		fields = append(fields, "isbn")
	}
	if book.CoverURL == "" && md.CoverURL != "" {
		updates.CoverURL = &md.CoverURL
		fields = append(fields, "cover_url")
	}
	if book.Publisher == "" && md.Publisher != "" {
		updates.Publisher = &md.Publisher
		fields = append(fields, "publisher")
	}
	if book.PublicationYear == 0 && md.PublicationYear > 0 {
		updates.PublicationYear = &md.PublicationYear
		fields = append(fields, "publication_year")
	}
	if book.PageCount == 0 && md.PageCount > 0 {
		updates.PageCount = &md.PageCount
		fields = append(fields, "page_count")
	}
	if book.Description == "" && md.Description != "" {
		updates.Description = &md.Description
		fields = append(fields, "description")
	}
	if book.OpenLibraryKey == "" && md.OpenLibraryKey != "" {
		updates.OpenLibraryKey = &md.OpenLibraryKey
		fields = append(fields, "open_library_key")
	}

	return updates, fields
}

// subjectsToGenres keeps the first few short subjects. OpenLibrary subjects
// include long catalog strings ("Fiction, science fiction, general") that
// make poor genre labels.
func subjectsToGenres(subjects []string) []string {
	var genres []string
	for _, s := range subjects {
		s = strings.TrimSpace(s)
		if s == "" || len(s) > 40 || strings.Contains(s, ",") {
			continue
		}
		genres = append(genres, s)
		if len(genres) == maxGenresFromSubjects {
			break
		}
	}
	return genres
}

func firstAuthor(book *entities.Book) string {
	if len(book.Authors) == 0 {
		return ""
	}
	return book.Authors[0].Name
}
