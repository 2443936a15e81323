package http

import (
	"github.com/mrlokans/bookshelf/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Sessions SessionStore
	Status   StatusStore
	Stats    StatsProvider

	// Catalog
	Books      BookStore
	Ratings    RatingStore
	Favourites FavouritesStore
	Wishlist   WishlistStore

	// Metadata enrichment (optional)
	Enricher BookEnricher

	// Task queue (optional)
	Tasks TaskQueue

	// Application info
	Version string
}
