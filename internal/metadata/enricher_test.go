package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type mockMetadataProvider struct {
	isbnResult  *BookMetadata
	isbnError   error
	titleResult *BookMetadata
	titleError  error
	titleCalls  int
}

func (m *mockMetadataProvider) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	return m.isbnResult, m.isbnError
}

func (m *mockMetadataProvider) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error) {
	m.titleCalls++
	return m.titleResult, m.titleError
}

type mockBookUpdater struct {
	books   map[uint]*entities.Book
	updated map[uint]BookUpdateFields
	genres  map[uint][]string
}

func newMockBookUpdater(books ...*entities.Book) *mockBookUpdater {
	m := &mockBookUpdater{
		books:   make(map[uint]*entities.Book),
		updated: make(map[uint]BookUpdateFields),
		genres:  make(map[uint][]string),
	}
	for _, b := range books {
		m.books[b.ID] = b
	}
	return m
}

func (m *mockBookUpdater) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return b, nil
}

func (m *mockBookUpdater) UpdateBookMetadata(ctx context.Context, id uint, fields BookUpdateFields) error {
	m.updated[id] = fields
	b := m.books[id]
	if fields.ISBN != nil {
		b.ISBN = *fields.ISBN
	}
	if fields.CoverURL != nil {
		b.CoverURL = *fields.CoverURL
	}
	if fields.Publisher != nil {
		b.Publisher = *fields.Publisher
	}
	if fields.PublicationYear != nil {
		b.PublicationYear = *fields.PublicationYear
	}
	return nil
}

func (m *mockBookUpdater) AddGenres(ctx context.Context, id uint, genres []string) error {
	m.genres[id] = append(m.genres[id], genres...)
	for _, g := range genres {
		m.books[id].Genres = append(m.books[id].Genres, entities.Genre{Name: g})
	}
	return nil
}

func (m *mockBookUpdater) GetBooksMissingMetadata(ctx context.Context) ([]entities.Book, error) {
	var out []entities.Book
	for _, b := range m.books {
		if b.CoverURL == "" {
			out = append(out, *b)
		}
	}
	return out, nil
}

func TestEnrichBook_WithISBN(t *testing.T) {
	books := newMockBookUpdater(&entities.Book{ID: 1, Title: "Dune", ISBN: "9780441172719"})
	provider := &mockMetadataProvider{
		isbnResult: &BookMetadata{
			ISBN:            "9780441172719",
			CoverURL:        "https://covers.example/dune.jpg",
			Publisher:       "Ace",
			PublicationYear: 1990,
			Subjects:        []string{"Science fiction", "Fiction, general", "Deserts", "Ecology", "Politics"},
		},
	}

	result, err := NewEnricher(provider, books).EnrichBook(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "isbn", result.SearchMethod)
	assert.Equal(t, 0, provider.titleCalls)
	assert.ElementsMatch(t, []string{"cover_url", "publisher", "publication_year", "genres"}, result.FieldsUpdated)
	assert.Equal(t, []string{"Science fiction", "Deserts", "Ecology"}, books.genres[1])
	assert.Nil(t, books.updated[1].ISBN, "existing ISBN must not be overwritten")
}

func TestEnrichBook_FallsBackToTitle(t *testing.T) {
	books := newMockBookUpdater(&entities.Book{
		ID:      2,
		Title:   "Dune",
		ISBN:    "0000000000",
		Authors: []entities.Author{{Name: "Frank Herbert"}},
		Genres:  []entities.Genre{{Name: "Sci-Fi"}},
	})
	provider := &mockMetadataProvider{
		isbnError:   ErrNotFound,
		titleResult: &BookMetadata{Publisher: "Chilton", Subjects: []string{"Space"}},
	}

	result, err := NewEnricher(provider, books).EnrichBook(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "title", result.SearchMethod)
	assert.Equal(t, []string{"publisher"}, result.FieldsUpdated)
	assert.Empty(t, books.genres[2], "books with genres keep them")
}

func TestEnrichBook_SearchFails(t *testing.T) {
	books := newMockBookUpdater(&entities.Book{ID: 3, Title: "Unknown"})
	provider := &mockMetadataProvider{titleError: ErrNotFound}

	_, err := NewEnricher(provider, books).EnrichBook(context.Background(), 3)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEnrichBook_BookMissing(t *testing.T) {
	_, err := NewEnricher(&mockMetadataProvider{}, newMockBookUpdater()).EnrichBook(context.Background(), 42)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestEnrichAll(t *testing.T) {
	books := newMockBookUpdater(
		&entities.Book{ID: 1, Title: "Dune"},
		&entities.Book{ID: 2, Title: "Emma", CoverURL: "https://covers.example/emma.jpg"},
	)
	provider := &mockMetadataProvider{
		titleResult: &BookMetadata{CoverURL: "https://covers.example/dune.jpg"},
	}

	result, err := NewEnricher(provider, books).EnrichAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalBooks)
	assert.Equal(t, 1, result.Enriched)
	assert.Zero(t, result.Failed)
}

func TestSubjectsToGenres(t *testing.T) {
	assert.Empty(t, subjectsToGenres(nil))
	assert.Equal(t, []string{"Fantasy"}, subjectsToGenres([]string{" ", "Fantasy", "Fiction, fantasy, epic"}))
}
