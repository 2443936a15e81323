// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Books, authors and genres
//	├── status/          # Per-book reading status transitions
//	├── sessions/        # Reading sessions (start, end, attribution)
//	├── stats/           # Read-only statistics
//	├── ratings/         # One rating per book
//	├── favourites/      # Favourite books
//	└── wishlist/        # Books not owned yet
//
// # Using Sub-packages
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	// Create domain-specific repositories
//	coordinator := status.NewCoordinator(db.DB)
//	manager := sessions.NewManager(db.DB, coordinator)
//	aggregator := stats.NewAggregator(db.DB, time.Local)
//
//	id, err := manager.StartSession(ctx)
//
// # Time
//
// Every timestamp is written in UTC. Calendar grouping (days, months, years)
// is done in SQL by shifting stored values by the aggregator's zone offset.
//
// # Transactions
//
// Connections are opened with _txlock=immediate, so every transaction takes
// the write lock at BEGIN. Multi-step writes (starting a session, ending and
// attributing one) rely on this to stay atomic across processes.
package database
