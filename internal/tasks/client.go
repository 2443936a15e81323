package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

var errMissingBookID = errors.New("book id is required")

// Client is the library's background job queue. Jobs are persisted in a
// SQLite file of their own next to the library database, so queued lookups
// survive a restart.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int
	running atomic.Bool
}

// DatabasePath returns the queue database path for a library database:
// same directory, "-tasks" appended to the file name. A query on a "file:"
// URI is kept.
func DatabasePath(libraryPath string) string {
	dir := filepath.Dir(libraryPath)
	base := filepath.Base(libraryPath)
	base, query, _ := strings.Cut(base, "?")
	if query != "" {
		query = "?" + query
	}
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext+query)
}

// NewClient opens the queue database for the library at libraryPath and
// installs the backlite schema. Queues are added with RegisterProcessors.
func NewClient(libraryPath string, cfg Config) (*Client, error) {
	dsn := DatabasePath(libraryPath)
	if strings.Contains(dsn, "?") {
		dsn += "&_journal=WAL&_busy_timeout=5000"
	} else {
		dsn += "?_journal=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	// Workers and enqueueing handlers each hold a connection.
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create queue: %w", err)
	}
	if err := queue.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install queue schema: %w", err)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers}, nil
}

// RegisterProcessors adds the book enrichment, bulk enrichment and catalog
// pruning queues. A nil enricher is allowed: enrichment jobs then fail
// without retrying a lookup that can never succeed.
// Must be called before Start.
func (c *Client) RegisterProcessors(enricher BookEnricher, pruner CatalogPruner) {
	c.queue.Register(NewEnrichBookQueue(enricher))
	c.queue.Register(NewEnrichAllBooksQueue(enricher))
	c.queue.Register(NewPruneCatalogQueue(pruner))
}

// Start runs the workers until ctx is cancelled or Stop is called.
// Calling it again while running does nothing.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[TASK] Queue started with %d workers", c.workers)
	c.queue.Start(ctx)
}

// Stop waits for running jobs until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.Load() {
		return true
	}
	if !c.queue.Stop(ctx) {
		log.Println("[TASK] Queue stop timed out, unfinished jobs will be retried on next start")
		return false
	}
	log.Println("[TASK] Queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// EnqueueEnrichBook queues a metadata lookup for one book.
func (c *Client) EnqueueEnrichBook(bookID uint) (string, error) {
	if bookID == 0 {
		return "", fmt.Errorf("enqueue enrich_book: %w", errMissingBookID)
	}
	return c.enqueue(EnrichBookTask{BookID: bookID})
}

// EnqueueEnrichAll queues a lookup for every book still missing metadata.
func (c *Client) EnqueueEnrichAll() (string, error) {
	return c.enqueue(EnrichAllBooksTask{})
}

// EnqueuePrune queues removal of authors and genres no book refers to.
func (c *Client) EnqueuePrune() (string, error) {
	return c.enqueue(PruneCatalogTask{})
}

// EnqueueCatalogRefresh queues bulk enrichment followed by pruning, saved
// together so a refresh is never half-queued.
func (c *Client) EnqueueCatalogRefresh() ([]string, error) {
	ids, err := c.queue.Add(EnrichAllBooksTask{}, PruneCatalogTask{}).Save()
	if err != nil {
		return nil, fmt.Errorf("enqueue catalog refresh: %w", err)
	}
	return ids, nil
}

// Status reports the state of a queued job.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

func (c *Client) enqueue(task backlite.Task) (string, error) {
	ids, err := c.queue.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Config().Name, err)
	}
	return ids[0], nil
}

// queueLogger routes backlite's own messages to the standard logger.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
