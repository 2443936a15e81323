// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Reading Engine
//
//   - SessionStore: Reading session lifecycle (internal/http/stores.go)
//   - StatusStore: Per-book reading status transitions (internal/http/stores.go)
//   - StatsProvider: Read-only statistics over sessions, statuses and ratings
//
// ## Catalog
//
//   - BookStore, RatingStore, FavouritesStore, WishlistStore (internal/http/stores.go)
//   - BookUpdater: Catalog writes performed by metadata enrichment
//     (internal/metadata/enricher.go)
//
// ## External Services
//
//   - MetadataProvider: Book metadata from external APIs (internal/metadata/enricher.go)
//
// ## Background Work
//
//   - TaskQueue / TaskEnqueuer: Enqueueing onto the backlite task queue
//   - BookEnricher, CatalogPruner: What the queue processors call (internal/tasks)
//
// # Adding a New Metadata Provider
//
//  1. Implement metadata.MetadataProvider:
//
//     type GoogleBooksClient struct{ httpClient *http.Client }
//
//     func (c *GoogleBooksClient) SearchByISBN(ctx context.Context, isbn string) (*metadata.BookMetadata, error)
//     func (c *GoogleBooksClient) SearchByTitle(ctx context.Context, title, author string) (*metadata.BookMetadata, error)
//
//  2. Add a compile-time check to checks.go:
//
//     var _ metadata.MetadataProvider = (*GoogleBooksClient)(nil)
//
//  3. Pass it to metadata.NewEnricher in internal/entrypoint.
//
// # Adding a New Background Task
//
//  1. Define the task type in internal/tasks with a Config() method naming its queue.
//  2. Write a processor and a NewXxxQueue constructor.
//  3. Register the queue in entrypoint.Run and, if it can be triggered by
//     hand, add it to the switch in internal/http/tasks.go.
package interfaces
