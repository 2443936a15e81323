package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CatalogPruner deletes authors and genres no book refers to anymore.
type CatalogPruner interface {
	DeleteOrphanAuthorsAndGenres(ctx context.Context) (authors, genres int64, err error)
}

// PruneCatalogTask removes authors and genres left behind by deleted books.
type PruneCatalogTask struct{}

// Config returns the queue configuration for catalog pruning tasks.
func (t PruneCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_catalog",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneCatalogProcessor creates a processor function for PruneCatalogTask.
func PruneCatalogProcessor(pruner CatalogPruner) backlite.QueueProcessor[PruneCatalogTask] {
	return func(ctx context.Context, task PruneCatalogTask) error {
		if pruner == nil {
			return fmt.Errorf("catalog pruner not configured")
		}

		authors, genres, err := pruner.DeleteOrphanAuthorsAndGenres(ctx)
		if err != nil {
			return fmt.Errorf("prune catalog: %w", err)
		}

		log.Printf("[TASK] Pruned %d orphan authors and %d orphan genres", authors, genres)
		return nil
	}
}

// NewPruneCatalogQueue creates a backlite queue for catalog pruning tasks.
func NewPruneCatalogQueue(pruner CatalogPruner) backlite.Queue {
	return backlite.NewQueue(PruneCatalogProcessor(pruner))
}
