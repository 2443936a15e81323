package tasks

import "time"

// Config holds configuration for the task queue.
type Config struct {
	// Workers is the number of concurrent task workers.
	Workers int

	// ReleaseAfter is when a task stuck in a worker goes back to the queue.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks past their retention are removed.
	CleanupInterval time.Duration
}

// DefaultConfig returns the queue settings used when nothing is configured.
// Enrichment is rate limited by the metadata provider, so two workers are plenty.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
