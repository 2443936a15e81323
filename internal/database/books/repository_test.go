package books

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/metadata"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository) {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.DB, NewRepository(db.DB)
}

func TestRepository_CreateBook(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateBook(ctx, NewBook{Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	book, err := repo.CreateBook(ctx, NewBook{
		Title:   " Good Omens ",
		Authors: []string{"Terry Pratchett", "Neil Gaiman", "terry pratchett"},
		Genres:  []string{"Fantasy", "Comedy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Good Omens", book.Title)
	assert.Len(t, book.Authors, 2)
	require.NotNil(t, book.Status)
	assert.Equal(t, entities.StatusToRead, book.Status.Status)

	// Authors and genres are reused across books
	_, err = repo.CreateBook(ctx, NewBook{Title: "Mort", Authors: []string{"Terry Pratchett"}, Genres: []string{"Fantasy"}})
	require.NoError(t, err)

	var authors, genres int64
	require.NoError(t, db.Model(&entities.Author{}).Count(&authors).Error)
	require.NoError(t, db.Model(&entities.Genre{}).Count(&genres).Error)
	assert.Equal(t, int64(2), authors)
	assert.Equal(t, int64(2), genres)
}

func TestRepository_GetBookByID(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateBook(ctx, NewBook{Title: "Dune", Authors: []string{"Frank Herbert"}, Genres: []string{"Science Fiction"}})
	require.NoError(t, err)

	book, err := repo.GetBookByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", book.AuthorNames())
	require.Len(t, book.Genres, 1)
	assert.Equal(t, "Science Fiction", book.Genres[0].Name)
	require.NotNil(t, book.Status)

	_, err = repo.GetBookByID(ctx, 999)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRepository_ListBooks(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"Zeta", "Alpha", "Mu"} {
		_, err := repo.CreateBook(ctx, NewBook{Title: title})
		require.NoError(t, err)
	}
	var mu entities.Book
	require.NoError(t, db.Where("title = ?", "Mu").First(&mu).Error)
	require.NoError(t, db.Model(&entities.ReadingStatus{}).Where("book_id = ?", mu.ID).Update("status", entities.StatusReading).Error)

	all, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha", all[0].Title)
	assert.Equal(t, "Zeta", all[2].Title)

	reading, err := repo.ListBooks(ctx, entities.StatusReading)
	require.NoError(t, err)
	require.Len(t, reading, 1)
	assert.Equal(t, "Mu", reading[0].Title)
}

func TestRepository_SearchBooks(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateBook(ctx, NewBook{Title: "Dune", Authors: []string{"Frank Herbert"}})
	require.NoError(t, err)
	_, err = repo.CreateBook(ctx, NewBook{Title: "Hyperion", Authors: []string{"Dan Simmons"}})
	require.NoError(t, err)

	byTitle, err := repo.SearchBooks(ctx, "dun")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Dune", byTitle[0].Title)

	byAuthor, err := repo.SearchBooks(ctx, "simmons")
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Hyperion", byAuthor[0].Title)
}

func TestRepository_DeleteBook(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	book, err := repo.CreateBook(ctx, NewBook{Title: "Dune", Authors: []string{"Frank Herbert"}, Genres: []string{"Science Fiction"}})
	require.NoError(t, err)

	end := time.Now().UTC()
	seconds := int64(60)
	session := &entities.ReadingSession{BookID: &book.ID, StartTime: end.Add(-time.Minute), EndTime: &end, Duration: &seconds}
	require.NoError(t, db.Create(session).Error)
	require.NoError(t, db.Omit("Book").Create(&entities.Rating{BookID: book.ID, Rating: 4, RatedAt: end}).Error)
	require.NoError(t, db.Omit("Book").Create(&entities.Favourite{BookID: book.ID}).Error)

	require.NoError(t, repo.DeleteBook(ctx, book.ID))

	_, err = repo.GetBookByID(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	for _, model := range []any{&entities.ReadingStatus{}, &entities.Rating{}, &entities.Favourite{}} {
		var count int64
		require.NoError(t, db.Model(model).Where("book_id = ?", book.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	var kept entities.ReadingSession
	require.NoError(t, db.First(&kept, session.ID).Error)
	assert.Nil(t, kept.BookID)

	assert.ErrorIs(t, repo.DeleteBook(ctx, book.ID), ErrBookNotFound)
}

func TestRepository_UpdateBookMetadata(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	book, err := repo.CreateBook(ctx, NewBook{Title: "Dune"})
	require.NoError(t, err)

	publisher := "Chilton Books"
	year := 1965
	require.NoError(t, repo.UpdateBookMetadata(ctx, book.ID, metadata.BookUpdateFields{Publisher: &publisher, PublicationYear: &year}))

	updated, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chilton Books", updated.Publisher)
	assert.Equal(t, 1965, updated.PublicationYear)

	err = repo.UpdateBookMetadata(ctx, 999, metadata.BookUpdateFields{Publisher: &publisher})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_AddGenresAndMissingMetadata(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	bare, err := repo.CreateBook(ctx, NewBook{Title: "Bare"})
	require.NoError(t, err)
	_, err = repo.CreateBook(ctx, NewBook{
		Title:           "Complete",
		CoverURL:        "https://covers.example/1.jpg",
		Publisher:       "Ace",
		PublicationYear: 1990,
		Genres:          []string{"Fantasy"},
	})
	require.NoError(t, err)

	missing, err := repo.GetBooksMissingMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, bare.ID, missing[0].ID)

	require.NoError(t, repo.AddGenres(ctx, bare.ID, []string{"Fantasy", "Horror", ""}))
	updated, err := repo.GetBookByID(ctx, bare.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Genres, 2)

	assert.ErrorIs(t, repo.AddGenres(ctx, 999, []string{"Fantasy"}), ErrBookNotFound)
}

func TestRepository_DeleteOrphanAuthorsAndGenres(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	kept, err := repo.CreateBook(ctx, NewBook{Title: "Dune", Authors: []string{"Frank Herbert"}, Genres: []string{"Science Fiction"}})
	require.NoError(t, err)
	gone, err := repo.CreateBook(ctx, NewBook{Title: "Hyperion", Authors: []string{"Dan Simmons"}, Genres: []string{"Space Opera", "Science Fiction"}})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteBook(ctx, gone.ID))

	authors, genres, err := repo.DeleteOrphanAuthorsAndGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), authors)
	assert.Equal(t, int64(1), genres)

	var names []string
	require.NoError(t, db.Model(&entities.Genre{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"Science Fiction"}, names)

	book, err := repo.GetBookByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", book.AuthorNames())
}
