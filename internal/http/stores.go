package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/sessions"
	"github.com/mrlokans/bookshelf/internal/database/stats"
	"github.com/mrlokans/bookshelf/internal/database/wishlist"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/metadata"
)

// This file consolidates the store interfaces used by the HTTP controllers.
// Each controller depends only on the operations it calls.

// SessionStore is implemented by sessions.Manager.
type SessionStore interface {
	ActiveSessionID(ctx context.Context) (uint, bool, error)
	StartSession(ctx context.Context) (uint, error)
	DurationToNow(ctx context.Context, id uint) (int64, error)
	EndSession(ctx context.Context, id uint) (int64, error)
	DeleteSession(ctx context.Context, id uint) error
	BindSessionToBook(ctx context.Context, sessionID, bookID uint, markCompleted bool) error
	FinishSession(ctx context.Context, sessionID, bookID uint, markCompleted bool) (int64, error)
	EligibleBooks(ctx context.Context) ([]sessions.EligibleBook, error)
	ListSessions(ctx context.Context, bookID *uint, limit int) ([]entities.ReadingSession, error)
}

// StatusStore is implemented by status.Coordinator.
type StatusStore interface {
	SetStatus(ctx context.Context, bookID uint, to entities.Status) (bool, error)
	GetStatus(ctx context.Context, bookID uint) (*entities.ReadingStatus, error)
}

// StatsProvider is implemented by stats.Aggregator.
type StatsProvider interface {
	Dashboard(ctx context.Context) (*stats.Dashboard, error)
	ReadingStatistics(ctx context.Context) (stats.ReadingStats, error)
	MonthlyReadingData(ctx context.Context) ([]stats.MonthlyDatum, error)
	YearlyReadingData(ctx context.Context) ([]stats.YearlyDatum, error)
	GenreDistribution(ctx context.Context) ([]stats.GenreDatum, error)
	WeeklyProgressData(ctx context.Context) ([]stats.WeeklyDatum, error)
	LatestBookRatings(ctx context.Context, limit int) ([]stats.RatedBook, error)
	RatingStatistics(ctx context.Context) (stats.RatingStats, error)
	TotalReadingTime(ctx context.Context) (int64, error)
	AverageReadingTime(ctx context.Context) (float64, error)
	ReadingStreak(ctx context.Context) (int, error)
}

// BookStore is implemented by books.Repository.
type BookStore interface {
	CreateBook(ctx context.Context, in books.NewBook) (*entities.Book, error)
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	ListBooks(ctx context.Context, statuses ...entities.Status) ([]entities.Book, error)
	SearchBooks(ctx context.Context, query string) ([]entities.Book, error)
	DeleteBook(ctx context.Context, id uint) error
}

// RatingStore is implemented by ratings.Repository.
type RatingStore interface {
	RateBook(ctx context.Context, bookID uint, rating int, comment string) (*entities.Rating, error)
	GetRating(ctx context.Context, bookID uint) (*entities.Rating, error)
	DeleteRating(ctx context.Context, bookID uint) error
}

// FavouritesStore is implemented by favourites.Repository.
type FavouritesStore interface {
	AddFavourite(ctx context.Context, bookID uint) error
	RemoveFavourite(ctx context.Context, bookID uint) error
	IsFavourite(ctx context.Context, bookID uint) (bool, error)
	ListFavourites(ctx context.Context, limit, offset int) ([]entities.Favourite, int64, error)
	GetFavouriteCount(ctx context.Context) (int64, error)
}

// WishlistStore is implemented by wishlist.Repository.
type WishlistStore interface {
	AddItem(ctx context.Context, in wishlist.NewItem) (*entities.WishlistItem, error)
	GetItem(ctx context.Context, id uint) (*entities.WishlistItem, error)
	ListItems(ctx context.Context) ([]entities.WishlistItem, error)
	RemoveItem(ctx context.Context, id uint) error
	Acquire(ctx context.Context, id uint) (*entities.Book, error)
}

// BookEnricher is implemented by metadata.Enricher.
type BookEnricher interface {
	EnrichBook(ctx context.Context, bookID uint) (*metadata.EnrichmentResult, error)
}

// TaskQueue is implemented by tasks.Client.
type TaskQueue interface {
	EnqueueEnrichBook(bookID uint) (string, error)
	EnqueueEnrichAll() (string, error)
	EnqueuePrune() (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
