package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/favourites"
	"github.com/mrlokans/bookshelf/internal/database/ratings"
	"github.com/mrlokans/bookshelf/internal/database/sessions"
	"github.com/mrlokans/bookshelf/internal/database/stats"
	"github.com/mrlokans/bookshelf/internal/database/status"
	"github.com/mrlokans/bookshelf/internal/database/wishlist"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Reading Engine
// =============================================================================

var _ http.SessionStore = (*sessions.Manager)(nil)
var _ http.StatusStore = (*status.Coordinator)(nil)
var _ http.StatsProvider = (*stats.Aggregator)(nil)

// =============================================================================
// Catalog
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.RatingStore = (*ratings.Repository)(nil)
var _ http.FavouritesStore = (*favourites.Repository)(nil)
var _ http.WishlistStore = (*wishlist.Repository)(nil)

// =============================================================================
// External Services
// =============================================================================

// MetadataProvider implementations
var _ metadata.MetadataProvider = (*metadata.OpenLibraryClient)(nil)

// BookUpdater implementations
var _ metadata.BookUpdater = (*books.Repository)(nil)

var _ http.BookEnricher = (*metadata.Enricher)(nil)

// =============================================================================
// Task Queue
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
var _ tasks.BookEnricher = (*metadata.Enricher)(nil)
var _ tasks.CatalogPruner = (*books.Repository)(nil)
